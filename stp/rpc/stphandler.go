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

// stphandler.go
package rpc

import (
	"errors"
	"fmt"

	stp "l2mstp/stp/protocol"
	"l2mstp/stp/server"
)

// STPDServiceHandler applies configuration to the running server and keeps
// the store in step.  An object is only saved once the server accepted it.
type STPDServiceHandler struct {
	svr   *server.STPServer
	store *ConfigStore
}

// NewSTPDServiceHandler creates the handler, store may be nil
func NewSTPDServiceHandler(svr *server.STPServer, store *ConfigStore) *STPDServiceHandler {
	return &STPDServiceHandler{svr: svr, store: store}
}

func (s *STPDServiceHandler) save(fn func(*ConfigStore) error) error {
	if s.store == nil {
		return nil
	}
	return fn(s.store)
}

func (s *STPDServiceHandler) CreateStpBridgeConfig(c *stp.StpBridgeConfig) (bool, error) {
	if err := stp.StpBrgConfigParamCheck(c); err != nil {
		return false, err
	}
	if err := s.svr.CreateBridge(c); err != nil {
		return false, err
	}
	return true, s.save(func(st *ConfigStore) error { return st.SaveBridge(c) })
}

func (s *STPDServiceHandler) UpdateStpBridgeConfig(c *stp.StpBridgeConfig) (bool, error) {
	if err := s.svr.UpdateBridge(c); err != nil {
		return false, err
	}
	return true, s.save(func(st *ConfigStore) error { return st.SaveBridge(c) })
}

// DeleteStpBridgeConfig deletes the bridge together with every stored port
// and instance
func (s *STPDServiceHandler) DeleteStpBridgeConfig() (bool, error) {
	if err := s.svr.DeleteBridge(); err != nil {
		return false, err
	}
	err := s.save(func(st *ConfigStore) error {
		ports, err := st.LoadPorts()
		if err != nil {
			return err
		}
		for _, p := range ports {
			if err := st.DeletePort(p.IfIndex); err != nil {
				return err
			}
		}
		instances, err := st.LoadInstances()
		if err != nil {
			return err
		}
		for _, i := range instances {
			if err := st.DeleteInstance(i.MstId); err != nil {
				return err
			}
		}
		return st.DeleteBridge()
	})
	return true, err
}

func (s *STPDServiceHandler) CreateStpPortConfig(c *stp.StpPortConfig) (bool, error) {
	if err := stp.StpPortConfigParamCheck(c); err != nil {
		return false, err
	}
	if err := s.svr.CreatePort(c); err != nil {
		return false, err
	}
	return true, s.save(func(st *ConfigStore) error { return st.SavePort(c) })
}

func (s *STPDServiceHandler) UpdateStpPortConfig(c *stp.StpPortConfig) (bool, error) {
	if err := s.svr.UpdatePort(c); err != nil {
		return false, err
	}
	return true, s.save(func(st *ConfigStore) error { return st.SavePort(c) })
}

func (s *STPDServiceHandler) DeleteStpPortConfig(ifindex int32) (bool, error) {
	if err := s.svr.DeletePort(ifindex); err != nil {
		return false, err
	}
	return true, s.save(func(st *ConfigStore) error { return st.DeletePort(ifindex) })
}

func (s *STPDServiceHandler) CreateStpInstanceConfig(c *stp.StpInstanceConfig) (bool, error) {
	if err := stp.StpInstanceConfigParamCheck(c); err != nil {
		return false, err
	}
	if err := s.svr.CreateInstance(c); err != nil {
		return false, err
	}
	return true, s.save(func(st *ConfigStore) error { return st.SaveInstance(c) })
}

func (s *STPDServiceHandler) DeleteStpInstanceConfig(mstid uint16) (bool, error) {
	if err := s.svr.DeleteInstance(mstid); err != nil {
		return false, err
	}
	return true, s.save(func(st *ConfigStore) error { return st.DeleteInstance(mstid) })
}

func (s *STPDServiceHandler) GetStpBridgeState() (stp.BridgeInfo, error) {
	return s.svr.BridgeInfo()
}

func (s *STPDServiceHandler) GetBulkStpPortState() ([]stp.PortInfo, error) {
	return s.svr.PortInfoList()
}

// ReadConfigFromDB replays the stored bridge, ports and instances in that
// order.  It returns ErrNoConfig when no bridge was stored.
func (s *STPDServiceHandler) ReadConfigFromDB() error {
	if s.store == nil {
		return ErrNoConfig
	}
	bc, err := s.store.LoadBridge()
	if err != nil {
		return err
	}
	if err := s.svr.CreateBridge(bc); err != nil && !errors.Is(err, stp.ErrBridgeExists) {
		return fmt.Errorf("replay bridge: %w", err)
	}
	ports, err := s.store.LoadPorts()
	if err != nil {
		return err
	}
	for i := range ports {
		if err := s.svr.UpdatePort(&ports[i]); err != nil {
			return fmt.Errorf("replay port %d: %w", ports[i].IfIndex, err)
		}
	}
	instances, err := s.store.LoadInstances()
	if err != nil {
		return err
	}
	for i := range instances {
		if err := s.svr.CreateInstance(&instances[i]); err != nil {
			return fmt.Errorf("replay mst %d: %w", instances[i].MstId, err)
		}
	}
	stp.StpLogger("INFO", fmt.Sprintf("replayed bridge %s with %d ports %d instances", bc.Name, len(ports), len(instances)))
	return nil
}
