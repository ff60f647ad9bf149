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

// config_test.go
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stp "l2mstp/stp/protocol"
)

const testConfig = `
daemon:
  tick_interval: 500ms
  db_dir: ""
  capture: false
log:
  filename: /tmp/mstpd.log
  max_size: 10
bridge:
  address: "00:11:22:33:44:00"
  priority: 8192
  region_name: lab
  revision: 3
ports:
  - name: eth1
    ifindex: 1
  - name: eth2
    ifindex: 2
    priority: 64
    path_cost: 2000
    admin_edge: true
  - name: eth3
instances:
  - mstid: 1
    priority: 4096
    vlans: "10-19"
    port_attrs:
      - ifindex: 2
        priority: 32
  - mstid: 2
    vlans: 20
    ports: "1"
`

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "mstpd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, c.Daemon.TickInterval)
	assert.Equal(t, "", c.Daemon.DBDir)
	assert.False(t, c.Daemon.Capture)
	assert.True(t, c.Daemon.Netlink)
	assert.Equal(t, DefaultLogLevel, c.Daemon.LogLevel)
	assert.Equal(t, "/tmp/mstpd.log", c.Log.Filename)
	assert.Equal(t, 10, c.Log.MaxSize)

	assert.Equal(t, "mstp", c.Bridge.Name)
	assert.Equal(t, uint16(8192), c.Bridge.Priority)
	assert.Equal(t, uint16(stp.BridgeHelloTimeDefault), c.Bridge.HelloTime)
	assert.Equal(t, int32(stp.StpVersionMstp), c.Bridge.ForceVersion)
	assert.Equal(t, "lab", c.Bridge.RegionName)
	assert.Equal(t, uint16(3), c.Bridge.Revision)

	require.Len(t, c.Ports, 3)
	assert.Equal(t, uint8(stp.PortPriorityDefault), c.Ports[0].Priority)
	assert.True(t, c.Ports[0].AutoEdge)
	assert.Equal(t, uint8(64), c.Ports[1].Priority)
	assert.Equal(t, uint32(2000), c.Ports[1].PathCost)
	assert.True(t, c.Ports[1].AdminEdge)
	assert.Equal(t, int32(0), c.Ports[2].IfIndex)

	require.Len(t, c.Instances, 2)
	assert.Equal(t, uint16(4096), c.Instances[0].Priority)
	assert.Equal(t, "10-19", c.Instances[0].Vlans)
	require.Len(t, c.Instances[0].PortAttrs, 1)
	assert.Equal(t, uint8(32), c.Instances[0].PortAttrs[0].Priority)
	assert.Equal(t, uint16(stp.BridgePriorityDefault), c.Instances[1].Priority)
	assert.Equal(t, "20", c.Instances[1].Vlans)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MSTPD_BRIDGE_PRIORITY", "12288")
	t.Setenv("MSTPD_BRIDGE_MAX_HOPS", "30")
	c, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)
	assert.Equal(t, uint16(12288), c.Bridge.Priority)
	assert.Equal(t, uint16(30), c.Bridge.MaxHops)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "ports:\n  - name: eth1\n    colour: red\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "instances: 7\n"))
	assert.Error(t, err)
}

func TestResolvePorts(t *testing.T) {
	c, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	err = c.ResolvePorts(func(name string) (int32, error) {
		if name == "eth3" {
			return 3, nil
		}
		return 0, errors.New("no such link")
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), c.Ports[2].IfIndex)
	require.NoError(t, c.Validate())

	c.Ports = append(c.Ports, stp.StpPortConfig{Name: "eth9"})
	assert.Error(t, c.ResolvePorts(func(string) (int32, error) { return 0, errors.New("no such link") }))
}

func TestValidate(t *testing.T) {
	load := func() *Config {
		c, err := Load(writeConfig(t, testConfig))
		require.NoError(t, err)
		c.Ports[2].IfIndex = 3
		return c
	}
	require.NoError(t, load().Validate())

	c := load()
	c.Bridge.Priority = 100
	assert.ErrorIs(t, c.Validate(), stp.ErrInvalidParam)

	c = load()
	c.Ports[2].IfIndex = 1
	assert.Error(t, c.Validate())

	c = load()
	c.Instances[1].Vlans = "15"
	assert.Error(t, c.Validate())

	c = load()
	c.Instances[1].Ports = "1,7"
	assert.Error(t, c.Validate())

	c = load()
	c.Instances[1].MstId = 1
	assert.Error(t, c.Validate())

	c = load()
	c.Instances[0].MstId = 4095
	assert.ErrorIs(t, c.Validate(), stp.ErrInvalidParam)
}
