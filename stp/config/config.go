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

// Package config loads the daemon configuration file.  The bridge section
// is read through viper so every bridge key can be overridden from the
// environment (MSTPD_BRIDGE_PRIORITY and so on).  Ports and instances are
// lists and start from their defaults before the file values are decoded
// over them.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	stp "l2mstp/stp/protocol"
	"l2mstp/utils/logging"
)

const (
	EnvPrefix = "MSTPD"

	DefaultDBDir    = "/var/lib/mstpd"
	DefaultLogLevel = "info"
)

type DaemonConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
	// directory of the config store, empty disables persistence
	DBDir    string `mapstructure:"db_dir" yaml:"db_dir"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// open a pcap handle on every port
	Capture bool `mapstructure:"capture" yaml:"capture"`
	// drive the kernel bridge port flags and follow link state
	Netlink bool `mapstructure:"netlink" yaml:"netlink"`
}

type Config struct {
	Daemon    DaemonConfig            `mapstructure:"daemon" yaml:"daemon"`
	Log       logging.FileAppenderOpt `mapstructure:"log" yaml:"log"`
	Bridge    stp.StpBridgeConfig     `mapstructure:"bridge" yaml:"bridge"`
	Ports     []stp.StpPortConfig     `mapstructure:"-" yaml:"ports"`
	Instances []stp.StpInstanceConfig `mapstructure:"-" yaml:"instances"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("daemon.tick_interval", time.Second)
	v.SetDefault("daemon.db_dir", DefaultDBDir)
	v.SetDefault("daemon.log_level", DefaultLogLevel)
	v.SetDefault("daemon.capture", true)
	v.SetDefault("daemon.netlink", true)

	bc := stp.DefaultStpBridgeConfig()
	v.SetDefault("bridge.name", bc.Name)
	v.SetDefault("bridge.address", bc.Address)
	v.SetDefault("bridge.priority", bc.Priority)
	v.SetDefault("bridge.max_age", bc.MaxAge)
	v.SetDefault("bridge.hello_time", bc.HelloTime)
	v.SetDefault("bridge.forward_delay", bc.ForwardDelay)
	v.SetDefault("bridge.force_version", bc.ForceVersion)
	v.SetDefault("bridge.tx_hold_count", bc.TxHoldCount)
	v.SetDefault("bridge.max_hops", bc.MaxHops)
	v.SetDefault("bridge.vlan", bc.Vlan)
	v.SetDefault("bridge.region_name", bc.RegionName)
	v.SetDefault("bridge.revision", bc.Revision)
}

// Load reads the file at path, the format follows the extension
func Load(path string) (*Config, error) {
	v := viper.New()

	dir := filepath.Dir(path)
	filename := filepath.Base(path)
	fileExt := filepath.Ext(filename)

	v.SetConfigName(strings.TrimSuffix(filename, fileExt))
	v.SetConfigType(strings.TrimPrefix(fileExt, "."))
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	var err error
	if c.Ports, err = decodePorts(v.Get("ports")); err != nil {
		return nil, err
	}
	if c.Instances, err = decodeInstances(v.Get("instances")); err != nil {
		return nil, err
	}
	return &c, nil
}

func decodeList(raw interface{}, name string) ([]interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be a list", name)
	}
	return list, nil
}

func weakDecode(in interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func decodePorts(raw interface{}) ([]stp.StpPortConfig, error) {
	list, err := decodeList(raw, "ports")
	if err != nil {
		return nil, err
	}
	ports := make([]stp.StpPortConfig, 0, len(list))
	for i, item := range list {
		pc := stp.DefaultStpPortConfig(0, "")
		if err := weakDecode(item, &pc); err != nil {
			return nil, fmt.Errorf("ports[%d]: %w", i, err)
		}
		ports = append(ports, pc)
	}
	return ports, nil
}

func decodeInstances(raw interface{}) ([]stp.StpInstanceConfig, error) {
	list, err := decodeList(raw, "instances")
	if err != nil {
		return nil, err
	}
	instances := make([]stp.StpInstanceConfig, 0, len(list))
	for i, item := range list {
		ic := stp.DefaultStpInstanceConfig(0)
		if err := weakDecode(item, &ic); err != nil {
			return nil, fmt.Errorf("instances[%d]: %w", i, err)
		}
		instances = append(instances, ic)
	}
	return instances, nil
}

// ResolvePorts fills in the ifindex of ports configured by name only
func (c *Config) ResolvePorts(lookup func(name string) (int32, error)) error {
	for i := range c.Ports {
		pc := &c.Ports[i]
		if pc.IfIndex != 0 {
			continue
		}
		if pc.Name == "" {
			return fmt.Errorf("ports[%d] needs a name or an ifindex", i)
		}
		ifindex, err := lookup(pc.Name)
		if err != nil {
			return fmt.Errorf("ports[%d] %s: %w", i, pc.Name, err)
		}
		pc.IfIndex = ifindex
	}
	return nil
}

// Validate checks every object on its own and the references between them
func (c *Config) Validate() error {
	if err := stp.StpBrgConfigParamCheck(&c.Bridge); err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	ports := make(map[int32]bool)
	for i := range c.Ports {
		pc := &c.Ports[i]
		if err := stp.StpPortConfigParamCheck(pc); err != nil {
			return fmt.Errorf("ports[%d]: %w", i, err)
		}
		if ports[pc.IfIndex] {
			return fmt.Errorf("ports[%d]: duplicate ifindex %d", i, pc.IfIndex)
		}
		ports[pc.IfIndex] = true
	}
	mstids := make(map[uint16]bool)
	var vlans stp.BitMask4k
	for i := range c.Instances {
		ic := &c.Instances[i]
		if err := stp.StpInstanceConfigParamCheck(ic); err != nil {
			return fmt.Errorf("instances[%d]: %w", i, err)
		}
		if mstids[ic.MstId] {
			return fmt.Errorf("instances[%d]: duplicate mstid %d", i, ic.MstId)
		}
		mstids[ic.MstId] = true
		iv, _ := stp.ParseVlanList(ic.Vlans)
		if overlap := iv.And(vlans); !overlap.IsEmpty() {
			return fmt.Errorf("instances[%d]: vlans %s already mapped", i, overlap.String())
		}
		vlans = vlans.Or(iv)
		ip, _ := stp.ParseVlanList(ic.Ports)
		for _, p := range ip.List() {
			if !ports[int32(p)] {
				return fmt.Errorf("instances[%d]: port %d not configured", i, p)
			}
		}
	}
	return nil
}
