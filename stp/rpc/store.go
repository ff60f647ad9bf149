//
//Copyright [2016] [SnapRoute Inc]
//
//Licensed under the Apache License, Version 2.0 (the "License");
//you may not use this file except in compliance with the License.
//You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//	 Unless required by applicable law or agreed to in writing, software
//	 distributed under the License is distributed on an "AS IS" BASIS,
//	 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//	 See the License for the specific language governing permissions and
//	 limitations under the License.
//
// _______  __       __________   ___      _______.____    __    ____  __  .___________.  ______  __    __  
// |   ____||  |     |   ____\  \ /  /     /       |\   \  /  \  /   / |  | |           | /      ||  |  |  | 
// |  |__   |  |     |  |__   \  V  /     |   (----` \   \/    \/   /  |  | `---|  |----`|  ,----'|  |__|  | 
// |   __|  |  |     |   __|   >   <       \   \      \            /   |  |     |  |     |  |     |   __   | 
// |  |     |  `----.|  |____ /  .  \  .----)   |      \    /\    /    |  |     |  |     |  `----.|  |  |  | 
// |__|     |_______||_______/__/ \__\ |_______/        \__/  \__/     |__|     |__|      \______||__|  |__| 
//                                                                                                           

// store.go
package rpc

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mitchellh/mapstructure"

	stp "l2mstp/stp/protocol"
)

const DBName string = "UsrConfDb.db"

const (
	bridgeTable   = "StpBridgeConfig"
	portTable     = "StpPortConfig"
	instanceTable = "StpInstanceConfig"

	bridgeKey = 0
)

var ErrNoConfig = errors.New("no stored config")

// ConfigStore keeps the user configuration so it can be replayed when the
// daemon restarts.  Each object is one row keyed by its index with the
// attributes stored as a json document.
type ConfigStore struct {
	db *sql.DB
}

// OpenConfigStore opens or creates the database DBName under dir
func OpenConfigStore(dir string) (*ConfigStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dbPath := filepath.Join(dir, DBName)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		stp.StpLogger("ERROR", fmt.Sprintf("Failed to open the DB at %s with error %s", dbPath, err))
		return nil, err
	}
	s := &ConfigStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *ConfigStore) Close() error {
	return s.db.Close()
}

func (s *ConfigStore) migrate() error {
	for _, table := range []string{bridgeTable, portTable, instanceTable} {
		schema := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (key INTEGER PRIMARY KEY, attrs TEXT NOT NULL)", table)
		if _, err := s.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// encodeAttrs turns a config struct into a json document keyed by the
// mapstructure tags
func encodeAttrs(obj interface{}) (string, error) {
	attrs := make(map[string]interface{})
	if err := mapstructure.Decode(obj, &attrs); err != nil {
		return "", err
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeAttrs(data string, obj interface{}) error {
	attrs := make(map[string]interface{})
	if err := json.Unmarshal([]byte(data), &attrs); err != nil {
		return err
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           obj,
	})
	if err != nil {
		return err
	}
	return dec.Decode(attrs)
}

func (s *ConfigStore) put(table string, key int, obj interface{}) error {
	attrs, err := encodeAttrs(obj)
	if err != nil {
		return err
	}
	dbCmd := fmt.Sprintf("INSERT OR REPLACE INTO %s (key, attrs) VALUES (?, ?)", table)
	if _, err := s.db.Exec(dbCmd, key, attrs); err != nil {
		stp.StpLogger("ERROR", fmt.Sprintf("DB method Exec failed for '%s' with error %s", table, err))
		return err
	}
	return nil
}

func (s *ConfigStore) del(table string, key int) error {
	_, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE key = ?", table), key)
	return err
}

// scan calls fn with every row of table in key order
func (s *ConfigStore) scan(table string, fn func(attrs string) error) error {
	rows, err := s.db.Query(fmt.Sprintf("SELECT attrs FROM %s ORDER BY key", table))
	if err != nil {
		stp.StpLogger("ERROR", fmt.Sprintf("DB method Query failed for '%s' with error %s", table, err))
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var attrs string
		if err := rows.Scan(&attrs); err != nil {
			return err
		}
		if err := fn(attrs); err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
	}
	return rows.Err()
}

func (s *ConfigStore) SaveBridge(c *stp.StpBridgeConfig) error {
	return s.put(bridgeTable, bridgeKey, c)
}

func (s *ConfigStore) DeleteBridge() error {
	return s.del(bridgeTable, bridgeKey)
}

// LoadBridge returns ErrNoConfig when no bridge was saved
func (s *ConfigStore) LoadBridge() (*stp.StpBridgeConfig, error) {
	var attrs string
	err := s.db.QueryRow(fmt.Sprintf("SELECT attrs FROM %s WHERE key = ?", bridgeTable), bridgeKey).Scan(&attrs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, err
	}
	c := &stp.StpBridgeConfig{}
	if err := decodeAttrs(attrs, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ConfigStore) SavePort(c *stp.StpPortConfig) error {
	return s.put(portTable, int(c.IfIndex), c)
}

func (s *ConfigStore) DeletePort(ifindex int32) error {
	return s.del(portTable, int(ifindex))
}

func (s *ConfigStore) LoadPorts() ([]stp.StpPortConfig, error) {
	var list []stp.StpPortConfig
	err := s.scan(portTable, func(attrs string) error {
		var c stp.StpPortConfig
		if err := decodeAttrs(attrs, &c); err != nil {
			return err
		}
		list = append(list, c)
		return nil
	})
	return list, err
}

func (s *ConfigStore) SaveInstance(c *stp.StpInstanceConfig) error {
	return s.put(instanceTable, int(c.MstId), c)
}

func (s *ConfigStore) DeleteInstance(mstid uint16) error {
	return s.del(instanceTable, int(mstid))
}

func (s *ConfigStore) LoadInstances() ([]stp.StpInstanceConfig, error) {
	var list []stp.StpInstanceConfig
	err := s.scan(instanceTable, func(attrs string) error {
		var c stp.StpInstanceConfig
		if err := decodeAttrs(attrs, &c); err != nil {
			return err
		}
		list = append(list, c)
		return nil
	})
	return list, err
}
