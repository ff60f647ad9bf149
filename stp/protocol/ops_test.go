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

// ops_test.go
// Management operations: parameter checks, bridge and port updates and the
// vlan to instance mapping.
package stp

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UsedForTestOnlyIdleBridge starts a bridge whose ports stay link down
func UsedForTestOnlyIdleBridge(t *testing.T, nports int) *Bridge {
	b, err := NewStpBridge(UsedForTestOnlyBridgeConfig("00:00:00:00:00:01", BridgePriorityDefault), nil, newTestSync())
	if err != nil {
		t.Error(fmt.Sprintf("Failed to create bridge: %s", err))
		t.FailNow()
	}
	for i := 1; i <= nports; i++ {
		pc := DefaultStpPortConfig(int32(i), fmt.Sprintf("eth%d", i))
		if err := b.PortAdd(&pc); err != nil {
			t.Error(fmt.Sprintf("Failed to add port %d: %s", i, err))
			t.FailNow()
		}
	}
	b.Start()
	return b
}

func TestBridgeConfigParamCheck(t *testing.T) {
	good := DefaultStpBridgeConfig()
	require.NoError(t, StpBrgConfigParamCheck(&good))

	bad := []func(c *StpBridgeConfig){
		func(c *StpBridgeConfig) { c.Priority = 4097 },
		func(c *StpBridgeConfig) { c.Priority = 65535 },
		func(c *StpBridgeConfig) { c.HelloTime = 0 },
		func(c *StpBridgeConfig) { c.HelloTime = 11 },
		func(c *StpBridgeConfig) { c.MaxAge = 5 },
		func(c *StpBridgeConfig) { c.MaxAge = 41 },
		func(c *StpBridgeConfig) { c.ForwardDelay = 3 },
		func(c *StpBridgeConfig) { c.ForwardDelay = 31 },
		// 2 x (forward delay - 1) below max age
		func(c *StpBridgeConfig) { c.ForwardDelay = 10; c.MaxAge = 20 },
		// max age below 2 x (hello + 1)
		func(c *StpBridgeConfig) { c.HelloTime = 10; c.MaxAge = 20 },
		func(c *StpBridgeConfig) { c.ForceVersion = 1 },
		func(c *StpBridgeConfig) { c.TxHoldCount = 0 },
		func(c *StpBridgeConfig) { c.TxHoldCount = 11 },
		func(c *StpBridgeConfig) { c.MaxHops = 5 },
		func(c *StpBridgeConfig) { c.MaxHops = 41 },
		func(c *StpBridgeConfig) { c.Vlan = 4095 },
		func(c *StpBridgeConfig) { c.Address = "00:11:22" },
		func(c *StpBridgeConfig) { c.RegionName = strings.Repeat("r", MstConfigNameLen+1) },
	}
	for i, modify := range bad {
		c := DefaultStpBridgeConfig()
		modify(&c)
		err := StpBrgConfigParamCheck(&c)
		if err == nil {
			t.Error(fmt.Sprintf("Failed bad bridge config %d accepted: %+v", i, c))
			t.FailNow()
		}
		assert.ErrorIs(t, err, ErrInvalidParam)
	}

	edge := DefaultStpBridgeConfig()
	edge.HelloTime, edge.MaxAge, edge.ForwardDelay = 1, 6, 4
	assert.NoError(t, StpBrgConfigParamCheck(&edge))
	edge.RegionName = strings.Repeat("r", MstConfigNameLen)
	assert.NoError(t, StpBrgConfigParamCheck(&edge))
}

func TestPortConfigParamCheck(t *testing.T) {
	good := DefaultStpPortConfig(1, "eth1")
	require.NoError(t, StpPortConfigParamCheck(&good))

	bad := []func(c *StpPortConfig){
		func(c *StpPortConfig) { c.IfIndex = 0 },
		func(c *StpPortConfig) { c.IfIndex = MaxPortNumber + 1 },
		func(c *StpPortConfig) { c.Priority = 129 },
		func(c *StpPortConfig) { c.PathCost = PortPathCostMax + 1 },
		func(c *StpPortConfig) { c.AdminPt2Pt = 3 },
		func(c *StpPortConfig) { c.HwAddr = "zz" },
	}
	for i, modify := range bad {
		c := DefaultStpPortConfig(1, "eth1")
		modify(&c)
		err := StpPortConfigParamCheck(&c)
		if err == nil {
			t.Error(fmt.Sprintf("Failed bad port config %d accepted: %+v", i, c))
			t.FailNow()
		}
		assert.ErrorIs(t, err, ErrInvalidParam)
	}
}

func TestInstanceConfigParamCheck(t *testing.T) {
	good := DefaultStpInstanceConfig(1)
	good.Vlans = "10-20"
	require.NoError(t, StpInstanceConfigParamCheck(&good))

	bad := []func(c *StpInstanceConfig){
		func(c *StpInstanceConfig) { c.MstId = 0 },
		func(c *StpInstanceConfig) { c.MstId = 4095 },
		func(c *StpInstanceConfig) { c.Priority = 100 },
		func(c *StpInstanceConfig) { c.Vlans = "10-x" },
		func(c *StpInstanceConfig) { c.Ports = "0" },
		func(c *StpInstanceConfig) {
			c.PortAttrs = []StpInstancePortConfig{{IfIndex: 1, Priority: 7}}
		},
	}
	for i, modify := range bad {
		c := DefaultStpInstanceConfig(1)
		c.Vlans = "10-20"
		modify(&c)
		if err := StpInstanceConfigParamCheck(&c); err == nil {
			t.Error(fmt.Sprintf("Failed bad instance config %d accepted: %+v", i, c))
			t.FailNow()
		}
	}
}

func TestBridgeSetters(t *testing.T) {
	b := UsedForTestOnlyIdleBridge(t, 1)

	require.NoError(t, b.SetBridgePriority(CistMstId, 8192))
	assert.Equal(t, uint16(8192), b.Cist.BridgeIdentifier.Priority())
	// the root vector follows the new identifier
	assert.Equal(t, b.Cist.BridgeIdentifier, b.Cist.RootPriority.RootBridgeId)
	assert.ErrorIs(t, b.SetBridgePriority(CistMstId, 100), ErrInvalidParam)
	assert.ErrorIs(t, b.SetBridgePriority(5, 4096), ErrInstanceNotFound)

	assert.ErrorIs(t, b.SetHelloTime(11), ErrInvalidParam)
	assert.ErrorIs(t, b.SetMaxAge(30), ErrInvalidParam)
	require.NoError(t, b.SetForwardDelay(20))
	require.NoError(t, b.SetMaxAge(30))
	assert.Equal(t, uint16(30), b.Cist.BridgeTimes.MaxAge)
	assert.Equal(t, uint16(20), b.Cist.BridgeTimes.ForwardDelay)

	require.NoError(t, b.SetMaxHops(10))
	assert.Equal(t, uint8(10), b.Cist.BridgeTimes.RemainingHops)
	assert.ErrorIs(t, b.SetMaxHops(50), ErrInvalidParam)

	p := b.GetPort(1)
	p.TxCount = 5
	require.NoError(t, b.SetTxHoldCount(3))
	assert.Equal(t, uint32(3), b.TxHoldCount)
	assert.Equal(t, uint32(0), p.TxCount)
	assert.ErrorIs(t, b.SetTxHoldCount(0), ErrInvalidParam)

	digest := b.ConfigId.Digest
	require.NoError(t, b.SetRegionName("another"))
	require.NoError(t, b.SetRevision(7))
	assert.Equal(t, "another", b.ConfigId.NameString())
	assert.Equal(t, uint16(7), b.ConfigId.Revision)
	assert.Equal(t, digest, b.ConfigId.Digest)
	assert.ErrorIs(t, b.SetRegionName(strings.Repeat("r", MstConfigNameLen+1)), ErrInvalidParam)

	require.NoError(t, b.SetForceVersion(StpVersionStp))
	assert.Equal(t, int32(StpVersionStp), b.ForceVersion)
	assert.ErrorIs(t, b.SetForceVersion(1), ErrInvalidParam)
}

func TestUpdateBridge(t *testing.T) {
	b, _ := UsedForTestOnlySingleBridge(t, func(c *StpPortConfig) { c.AutoEdge = false })
	if !tickUntil(b, 60, func() bool { return portIs(b, 1, CistMstId, PortRoleDesignated, PortStateForwarding) }) {
		UsedForTestOnlyCheckPort(t, b, 1, CistMstId, PortRoleDesignated, PortStateForwarding)
	}

	c := UsedForTestOnlyBridgeConfig("00:00:00:00:00:02", BridgePriorityDefault)
	assert.ErrorIs(t, b.UpdateBridge(c), ErrInvalidParam)

	c = UsedForTestOnlyBridgeConfig("00:00:00:00:00:01", 4096)
	c.TxHoldCount = 4
	require.NoError(t, b.UpdateBridge(c))
	assert.Equal(t, uint16(4096), b.Cist.BridgeIdentifier.Priority())
	assert.Equal(t, uint32(4), b.TxHoldCount)
	// nothing that needs a restart changed
	UsedForTestOnlyCheckPort(t, b, 1, CistMstId, PortRoleDesignated, PortStateForwarding)

	c.ForceVersion = StpVersionRstp
	require.NoError(t, b.UpdateBridge(c))
	assert.Equal(t, int32(StpVersionRstp), b.ForceVersion)
	// the restart ran BEGIN so the port starts over
	UsedForTestOnlyCheckPort(t, b, 1, CistMstId, PortRoleDesignated, PortStateDiscarding)

	c.HelloTime = 11
	assert.ErrorIs(t, b.UpdateBridge(c), ErrInvalidParam)
}

func TestPortAddDelete(t *testing.T) {
	b := UsedForTestOnlyIdleBridge(t, 2)

	pc := DefaultStpPortConfig(1, "eth1")
	assert.ErrorIs(t, b.PortAdd(&pc), ErrPortExists)
	assert.ErrorIs(t, b.PortDelete(3), ErrPortNotFound)
	assert.ErrorIs(t, b.PortEnable(3, true), ErrPortNotFound)
	assert.ErrorIs(t, b.SetPortPriority(3, CistMstId, 16), ErrPortNotFound)

	require.NoError(t, b.AttachVlans(5, mustVlans(t, "10")))
	require.NoError(t, b.SetInstancePorts(5, mustVlans(t, "1-2")))
	require.NoError(t, b.PortDelete(2))
	assert.Nil(t, b.GetPort(2))
	assert.Equal(t, "1", b.FindTree(5).PortMask.String())
	assert.Len(t, b.Ports(), 1)

	// a deleted port can come back
	pc = DefaultStpPortConfig(2, "eth2")
	require.NoError(t, b.PortAdd(&pc))
	assert.NotNil(t, b.GetPort(2))
	assert.Nil(t, treePortOf(b, 2, 5))
}

func TestPortSetters(t *testing.T) {
	b := UsedForTestOnlyIdleBridge(t, 1)
	require.NoError(t, b.AttachVlans(5, mustVlans(t, "10")))
	require.NoError(t, b.SetInstancePorts(5, mustVlans(t, "1")))

	require.NoError(t, b.SetPortPriority(1, 5, 32))
	tp := treePortOf(b, 1, 5)
	assert.Equal(t, CreatePortId(32, 1), tp.PortId)
	// the cist keeps its own priority
	assert.Equal(t, uint8(PortPriorityDefault), b.GetPort(1).Cist.Priority)
	assert.ErrorIs(t, b.SetPortPriority(1, 5, 33), ErrInvalidParam)

	require.NoError(t, b.SetPortPathCost(1, 5, 1000))
	assert.Equal(t, uint32(1000), tp.IntPathCost)
	require.NoError(t, b.SetPortPathCost(1, CistMstId, 2000))
	assert.Equal(t, uint32(2000), b.GetPort(1).Cist.IntPathCost)
	assert.Equal(t, uint32(2000), b.GetPort(1).Cist.ExtPathCost)
	require.NoError(t, b.SetPortPathCost(1, CistMstId, 0))
	assert.Equal(t, uint32(PortPathCostDefault), b.GetPort(1).Cist.ExtPathCost)
	assert.ErrorIs(t, b.SetPortPathCost(1, 6, 1000), ErrInstanceNotFound)

	require.NoError(t, b.SetPortAdminPt2Pt(1, StpPointToPointForceFalse))
	assert.False(t, b.GetPort(1).OperPt2Pt)
	require.NoError(t, b.SetPortAdminPt2Pt(1, StpPointToPointForceTrue))
	assert.True(t, b.GetPort(1).OperPt2Pt)
	assert.ErrorIs(t, b.SetPortAdminPt2Pt(1, PointToPointMac(7)), ErrInvalidParam)

	require.NoError(t, b.SetPortRootGuard(1, true))
	require.NoError(t, b.SetPortRestrictedTcn(1, true))
	assert.True(t, b.GetPort(1).RestrictedRole)
	assert.True(t, b.GetPort(1).RestrictedTcn)

	require.NoError(t, b.SetPortAdminEdge(1, true))
	require.NoError(t, b.SetPortAutoEdge(1, false))
	assert.True(t, b.GetPort(1).AdminEdge)
	assert.False(t, b.GetPort(1).AutoEdge)
	assert.ErrorIs(t, b.SetPortAdminEdge(2, true), ErrPortNotFound)

	// turning bpdu guard off releases a port it shut
	require.NoError(t, b.SetPortBpduGuard(1, true))
	b.GetPort(1).BpduGuardActive = true
	require.NoError(t, b.SetPortBpduGuard(1, false))
	assert.False(t, b.GetPort(1).BpduGuard)
	assert.False(t, b.GetPort(1).BpduGuardActive)
}

func TestVlanMapping(t *testing.T) {
	b := UsedForTestOnlyIdleBridge(t, 2)
	digest := b.ConfigId.Digest

	require.NoError(t, b.AttachVlans(5, mustVlans(t, "10-12")))
	tb := b.FindTree(5)
	require.NotNil(t, tb)
	assert.Equal(t, "10-12", tb.VlanMask.String())
	assert.False(t, b.Cist.VlanMask.IsSet(11))
	assert.Equal(t, MstId(5), b.MstidTable[11])
	assert.NotEqual(t, digest, b.ConfigId.Digest)
	assert.Equal(t, MaxMstInstances-1, b.Info().FreeSlots)

	// moving every vlan away deletes the emptied instance
	require.NoError(t, b.SetInstancePorts(5, mustVlans(t, "1-2")))
	require.NoError(t, b.AttachVlans(6, mustVlans(t, "10-12")))
	assert.Nil(t, b.FindTree(5))
	assert.Nil(t, treePortOf(b, 1, 5))
	assert.Equal(t, MstId(6), b.MstidTable[10])

	require.NoError(t, b.DetachVlans(6, mustVlans(t, "10")))
	assert.True(t, b.Cist.VlanMask.IsSet(10))
	assert.Equal(t, "11-12", b.FindTree(6).VlanMask.String())

	require.NoError(t, b.DetachVlans(6, mustVlans(t, "11-12")))
	assert.Nil(t, b.FindTree(6))
	assert.Equal(t, MaxMstInstances, b.Info().FreeSlots)
	assert.Equal(t, digest, b.ConfigId.Digest)

	assert.ErrorIs(t, b.DetachVlans(6, mustVlans(t, "10")), ErrInstanceNotFound)
	assert.ErrorIs(t, b.DetachVlans(CistMstId, mustVlans(t, "10")), ErrInvalidParam)
	var reserved BitMask4k
	reserved.Set(MaxVlanId)
	assert.ErrorIs(t, b.AttachVlans(5, reserved), ErrInvalidParam)
	assert.ErrorIs(t, b.SetInstancePorts(5, mustVlans(t, "1")), ErrInstanceNotFound)

	require.NoError(t, b.AttachVlans(5, mustVlans(t, "20")))
	assert.ErrorIs(t, b.SetInstancePorts(5, mustVlans(t, "3")), ErrPortNotFound)
}

func TestInstanceSlotsExhausted(t *testing.T) {
	b := UsedForTestOnlyIdleBridge(t, 1)
	for i := 1; i <= MaxMstInstances; i++ {
		var vlans BitMask4k
		vlans.Set(i)
		if err := b.AttachVlans(MstId(i), vlans); err != nil {
			t.Error(fmt.Sprintf("Failed attach of mst %d: %s", i, err))
			t.FailNow()
		}
	}
	assert.Equal(t, 0, b.Info().FreeSlots)
	assert.Len(t, b.MstiTrees(), MaxMstInstances)

	var vlans BitMask4k
	vlans.Set(100)
	assert.ErrorIs(t, b.AttachVlans(MstId(MaxMstInstances+1), vlans), ErrNoFreeInstance)
	assert.Equal(t, CistMstId, b.MstidTable[100])

	// an existing instance still takes more vlans
	require.NoError(t, b.AttachVlans(1, vlans))
	assert.Equal(t, MstId(1), b.MstidTable[100])
}

func TestApplyInstanceConfig(t *testing.T) {
	b := UsedForTestOnlyIdleBridge(t, 2)

	c := DefaultStpInstanceConfig(7)
	c.Priority = 4096
	c.Vlans = "20-21"
	c.Ports = "1"
	c.PortAttrs = []StpInstancePortConfig{{IfIndex: 1, Priority: 64, PathCost: 5000}}
	require.NoError(t, b.ApplyInstanceConfig(&c))

	tb := b.FindTree(7)
	require.NotNil(t, tb)
	assert.Equal(t, "20-21", tb.VlanMask.String())
	assert.Equal(t, "1", tb.PortMask.String())
	assert.Equal(t, uint16(4096), tb.BridgeIdentifier.Priority())
	assert.Equal(t, MstId(7), tb.BridgeIdentifier.SystemId())
	tp := treePortOf(b, 1, 7)
	require.NotNil(t, tp)
	assert.Equal(t, CreatePortId(64, 1), tp.PortId)
	assert.Equal(t, uint32(5000), tp.IntPathCost)
	assert.Nil(t, treePortOf(b, 2, 7))

	// the vlan set is replaced and every port joins when none are listed
	c.Vlans = "21"
	c.Ports = ""
	c.PortAttrs = []StpInstancePortConfig{{IfIndex: 2}}
	require.NoError(t, b.ApplyInstanceConfig(&c))
	assert.Equal(t, "21", tb.VlanMask.String())
	assert.Equal(t, CistMstId, b.MstidTable[20])
	assert.Equal(t, "1-2", tb.PortMask.String())
	assert.Equal(t, CreatePortId(PortPriorityDefault, 2), treePortOf(b, 2, 7).PortId)

	c.Ports = "1"
	assert.ErrorIs(t, b.ApplyInstanceConfig(&c), ErrPortNotFound)
	c.Ports = "3"
	c.PortAttrs = nil
	assert.ErrorIs(t, b.ApplyInstanceConfig(&c), ErrPortNotFound)
	c.Ports = ""
	c.Vlans = ""
	assert.ErrorIs(t, b.ApplyInstanceConfig(&c), ErrInvalidParam)
}
