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

// store_test.go
package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stp "l2mstp/stp/protocol"
	"l2mstp/stp/server"
)

func TestConfigStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st, err := OpenConfigStore(dir)
	require.NoError(t, err)

	_, err = st.LoadBridge()
	assert.ErrorIs(t, err, ErrNoConfig)

	bc := stp.DefaultStpBridgeConfig()
	bc.Address = "00:11:22:33:44:00"
	bc.RegionName = "lab"
	require.NoError(t, st.SaveBridge(&bc))

	p2 := stp.DefaultStpPortConfig(2, "eth2")
	p2.PathCost = 20000
	p1 := stp.DefaultStpPortConfig(1, "eth1")
	p1.AdminEdge = true
	require.NoError(t, st.SavePort(&p2))
	require.NoError(t, st.SavePort(&p1))

	ic := stp.DefaultStpInstanceConfig(7)
	ic.Vlans = "10,20-29"
	ic.PortAttrs = []stp.StpInstancePortConfig{{IfIndex: 2, Priority: 32, PathCost: 100}}
	require.NoError(t, st.SaveInstance(&ic))
	require.NoError(t, st.Close())

	// reopen to read what the previous daemon saved
	st, err = OpenConfigStore(dir)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.LoadBridge()
	require.NoError(t, err)
	assert.Equal(t, bc, *got)

	ports, err := st.LoadPorts()
	require.NoError(t, err)
	require.Len(t, ports, 2)
	assert.Equal(t, p1, ports[0])
	assert.Equal(t, p2, ports[1])

	instances, err := st.LoadInstances()
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, ic, instances[0])

	require.NoError(t, st.DeletePort(1))
	ports, err = st.LoadPorts()
	require.NoError(t, err)
	assert.Len(t, ports, 1)

	require.NoError(t, st.DeleteBridge())
	_, err = st.LoadBridge()
	assert.ErrorIs(t, err, ErrNoConfig)
}

func TestDecodeAttrsRejectsUnknownKeys(t *testing.T) {
	var c stp.StpPortConfig
	assert.Error(t, decodeAttrs(`{"ifindex":1,"colour":"red"}`, &c))
	require.NoError(t, decodeAttrs(`{"ifindex":"3","priority":64}`, &c))
	assert.Equal(t, int32(3), c.IfIndex)
	assert.Equal(t, uint8(64), c.Priority)
}

func TestHandlerReplay(t *testing.T) {
	dir := t.TempDir()
	st, err := OpenConfigStore(dir)
	require.NoError(t, err)

	h := NewSTPDServiceHandler(server.NewSTPServer(server.ServerOpt{}), st)
	bc := stp.DefaultStpBridgeConfig()
	bc.Address = "00:11:22:33:44:00"
	ok, err := h.CreateStpBridgeConfig(&bc)
	require.NoError(t, err)
	assert.True(t, ok)
	for _, ifindex := range []int32{1, 2, 3} {
		pc := stp.DefaultStpPortConfig(ifindex, "")
		_, err = h.CreateStpPortConfig(&pc)
		require.NoError(t, err)
	}
	ic := stp.DefaultStpInstanceConfig(3)
	ic.Priority = 4096
	ic.Vlans = "30-39"
	ic.Ports = "1-2"
	_, err = h.CreateStpInstanceConfig(&ic)
	require.NoError(t, err)

	// rejected objects are not saved
	bad := stp.DefaultStpPortConfig(4, "")
	bad.Priority = 7
	ok, err = h.CreateStpPortConfig(&bad)
	assert.False(t, ok)
	assert.ErrorIs(t, err, stp.ErrInvalidParam)

	_, err = h.DeleteStpPortConfig(3)
	require.NoError(t, err)

	before, err := h.GetStpBridgeState()
	require.NoError(t, err)

	// a fresh daemon replays the same bridge
	h2 := NewSTPDServiceHandler(server.NewSTPServer(server.ServerOpt{}), st)
	require.NoError(t, h2.ReadConfigFromDB())
	after, err := h2.GetStpBridgeState()
	require.NoError(t, err)
	assert.Equal(t, before.Digest, after.Digest)
	require.Len(t, after.Instances, 2)
	assert.Equal(t, "30-39", after.Instances[1].Vlans)
	assert.Equal(t, "1-2", after.Instances[1].Ports)

	ports, err := h2.GetBulkStpPortState()
	require.NoError(t, err)
	require.Len(t, ports, 2)

	_, err = h2.DeleteStpInstanceConfig(3)
	require.NoError(t, err)
	_, err = h2.DeleteStpBridgeConfig()
	require.NoError(t, err)
	_, err = st.LoadBridge()
	assert.ErrorIs(t, err, ErrNoConfig)
	instances, err := st.LoadInstances()
	require.NoError(t, err)
	assert.Empty(t, instances)
	require.NoError(t, st.Close())
}

func TestHandlerUpdate(t *testing.T) {
	st, err := OpenConfigStore(t.TempDir())
	require.NoError(t, err)
	defer st.Close()
	h := NewSTPDServiceHandler(server.NewSTPServer(server.ServerOpt{}), st)

	bc := stp.DefaultStpBridgeConfig()
	bc.Address = "00:11:22:33:44:00"
	_, err = h.UpdateStpBridgeConfig(&bc)
	assert.ErrorIs(t, err, stp.ErrBridgeNotFound)

	_, err = h.CreateStpBridgeConfig(&bc)
	require.NoError(t, err)
	pc := stp.DefaultStpPortConfig(1, "eth1")
	_, err = h.CreateStpPortConfig(&pc)
	require.NoError(t, err)

	bc.MaxHops = 10
	bc.Revision = 2
	ok, err := h.UpdateStpBridgeConfig(&bc)
	require.NoError(t, err)
	assert.True(t, ok)
	pc.Priority = 64
	pc.RootGuard = true
	_, err = h.UpdateStpPortConfig(&pc)
	require.NoError(t, err)

	info, err := h.GetStpBridgeState()
	require.NoError(t, err)
	assert.Equal(t, uint8(10), info.MaxHops)
	assert.Equal(t, uint16(2), info.Revision)
	ports, err := h.GetBulkStpPortState()
	require.NoError(t, err)
	require.Len(t, ports, 1)
	assert.True(t, ports[0].RootGuard)
	assert.Equal(t, uint8(64), ports[0].Trees[0].Priority)

	saved, err := st.LoadBridge()
	require.NoError(t, err)
	assert.Equal(t, uint16(10), saved.MaxHops)
	savedPorts, err := st.LoadPorts()
	require.NoError(t, err)
	require.Len(t, savedPorts, 1)
	assert.Equal(t, uint8(64), savedPorts[0].Priority)

	// a rejected update leaves the store alone
	pc.Priority = 7
	ok, err = h.UpdateStpPortConfig(&pc)
	assert.False(t, ok)
	assert.ErrorIs(t, err, stp.ErrInvalidParam)
	savedPorts, err = st.LoadPorts()
	require.NoError(t, err)
	assert.Equal(t, uint8(64), savedPorts[0].Priority)
}
