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

// bridge.go
package stp

import (
	"fmt"
	"net"
	"sort"
)

const BridgeConfigModuleStr = "Bridge Config"

const MstConfigNameLen = 32

// MstConfigId 13.8 MST Configuration Identifier
type MstConfigId struct {
	Selector uint8
	Name     [MstConfigNameLen]uint8
	Revision uint16
	Digest   [16]uint8
}

func (c *MstConfigId) NameString() string {
	n := 0
	for n < len(c.Name) && c.Name[n] != 0 {
		n++
	}
	return string(c.Name[:n])
}

func (c *MstConfigId) SetName(name string) {
	c.Name = [MstConfigNameLen]uint8{}
	copy(c.Name[:], name)
}

// Bridge is the protocol context.  It owns the CIST, the MSTI slot arena and
// every port.  All access must happen from one goroutine.
type Bridge struct {
	Name   string
	Active bool
	Begin  bool

	// 13.26.3 region identity
	ConfigId   MstConfigId
	MstidTable [MaxVlanId + 1]MstId

	// 13.26.4
	ForceVersion int32
	// 13.26.12
	TxHoldCount uint32
	MaxHops     uint8

	HelloTime    uint16
	MaxAge       uint16
	ForwardDelay uint16

	BridgeAddr [6]uint8
	// Vlan used to tag frames on PVST ports, 0 sends untagged
	Vlan uint16

	Cist *TreeBridge
	Msti [MaxMstInstances]*TreeBridge
	// mstid to slot
	mstidIndex    map[MstId]MstIndex
	freeInstances int

	PortMap    map[int32]*StpPort
	PortList   []int32
	EnableMask BitMask4k

	transport Transport
	sync      PortStateSync

	sigQ       []signalReq
	sigPending map[signalReq]bool

	TickCount uint64
	// frames that failed decode
	RxMalformed uint64
}

// TreeBridge holds the per spanning tree bridge variables 13.26
type TreeBridge struct {
	b     *Bridge
	Index MstIndex
	MstId MstId

	Reselect bool
	VlanMask BitMask4k
	PortMask BitMask4k

	// 13.26.2
	BridgeIdentifier BridgeId
	BridgePriority   PriorityVector
	// 13.26.6
	RootPriority PriorityVector
	// 13.26.5/13.26.7
	BridgeTimes Times
	RootTimes   Times
	// 13.26.8
	RootPortId PortId
	RootPort   int32

	PrsMachineFsm *PrsMachine

	TcCount       uint64
	LastTcTick    uint64
	TcPortIfIndex int32
}

func (tb *TreeBridge) IsCist() bool { return tb.Index.IsCist() }

func (tb *TreeBridge) Bridge() *Bridge { return tb.b }

// NewStpBridge creates an inactive bridge populated from the config.
func NewStpBridge(c *StpBridgeConfig, transport Transport, sync PortStateSync) (*Bridge, error) {
	if err := StpBrgConfigParamCheck(c); err != nil {
		return nil, err
	}
	addr := [6]uint8{0x00, 0xAA, 0xAA, 0xBB, 0xBB, 0xDD}
	if c.Address != "" {
		netAddr, err := net.ParseMAC(c.Address)
		if err != nil || len(netAddr) != 6 {
			return nil, fmt.Errorf("bridge address %s: %w", c.Address, ErrInvalidParam)
		}
		copy(addr[:], netAddr)
	}

	b := &Bridge{
		Name:          c.Name,
		Begin:         true,
		ForceVersion:  c.ForceVersion,
		TxHoldCount:   uint32(c.TxHoldCount),
		MaxHops:       uint8(c.MaxHops),
		HelloTime:     c.HelloTime,
		MaxAge:        c.MaxAge,
		ForwardDelay:  c.ForwardDelay,
		BridgeAddr:    addr,
		Vlan:          c.Vlan,
		mstidIndex:    make(map[MstId]MstIndex),
		freeInstances: MaxMstInstances,
		PortMap:       make(map[int32]*StpPort),
		PortList:      make([]int32, 0),
		transport:     transport,
		sync:          sync,
		sigPending:    make(map[signalReq]bool),
	}
	if b.transport == nil {
		b.transport = NullTransport{}
	}
	if b.sync == nil {
		b.sync = NullPortStateSync{}
	}

	b.ConfigId.Selector = 0
	name := c.RegionName
	if name == "" {
		name = net.HardwareAddr(addr[:]).String()
	}
	b.ConfigId.SetName(name)
	b.ConfigId.Revision = c.Revision
	b.recomputeDigest()

	b.Cist = b.newTreeBridge(CistIndex, CistMstId, c.Priority)
	for v := 1; v < MaxVlanId; v++ {
		b.Cist.VlanMask.Set(v)
	}

	StpLogger("INFO", fmt.Sprintf("NEW BRIDGE: %s id %s region %s rev %d",
		b.Name, b.Cist.BridgeIdentifier, b.ConfigId.NameString(), b.ConfigId.Revision))
	return b, nil
}

func (b *Bridge) newTreeBridge(idx MstIndex, mstid MstId, priority uint16) *TreeBridge {
	tb := &TreeBridge{
		b:        b,
		Index:    idx,
		MstId:    mstid,
		RootPort: 0,
	}
	tb.setBridgePriority(priority)
	tb.RootPriority = tb.BridgePriority
	tb.RootTimes = tb.BridgeTimes
	tb.PrsMachineFsm = PrsMachineFSMBuild(tb)
	return tb
}

// setBridgePriority rebuilds the bridge identifier and bridge priority vector
func (tb *TreeBridge) setBridgePriority(priority uint16) {
	b := tb.b
	tb.BridgeIdentifier = CreateBridgeId(b.BridgeAddr, priority, tb.MstId)
	if tb.IsCist() {
		tb.BridgePriority = PriorityVector{
			RootBridgeId:       tb.BridgeIdentifier,
			RegionalRootId:     tb.BridgeIdentifier,
			DesignatedBridgeId: tb.BridgeIdentifier,
		}
	} else {
		tb.BridgePriority = PriorityVector{
			RegionalRootId:     tb.BridgeIdentifier,
			DesignatedBridgeId: tb.BridgeIdentifier,
		}
	}
	tb.updateBridgeTimes()
}

func (tb *TreeBridge) updateBridgeTimes() {
	b := tb.b
	tb.BridgeTimes = Times{
		MaxAge:        b.MaxAge,
		HelloTime:     b.HelloTime,
		ForwardDelay:  b.ForwardDelay,
		RemainingHops: b.MaxHops,
	}
}

// Tree returns the tree for the slot, nil when the slot is free
func (b *Bridge) Tree(idx MstIndex) *TreeBridge {
	if idx.IsCist() {
		return b.Cist
	}
	if idx.IsMsti() {
		return b.Msti[idx]
	}
	return nil
}

// FindTree maps mstid to its tree; mstid 0 is the CIST
func (b *Bridge) FindTree(mstid MstId) *TreeBridge {
	if mstid == CistMstId {
		return b.Cist
	}
	if idx, ok := b.mstidIndex[mstid]; ok {
		return b.Msti[idx]
	}
	return nil
}

// Trees returns the CIST followed by every allocated MSTI in slot order
func (b *Bridge) Trees() []*TreeBridge {
	trees := []*TreeBridge{b.Cist}
	for _, tb := range b.Msti {
		if tb != nil {
			trees = append(trees, tb)
		}
	}
	return trees
}

// MstiTrees returns every allocated MSTI ordered by slot
func (b *Bridge) MstiTrees() []*TreeBridge {
	trees := make([]*TreeBridge, 0)
	for _, tb := range b.Msti {
		if tb != nil {
			trees = append(trees, tb)
		}
	}
	return trees
}

// allocInstance reserves a slot for mstid
func (b *Bridge) allocInstance(mstid MstId) (*TreeBridge, error) {
	if tb := b.FindTree(mstid); tb != nil {
		return tb, nil
	}
	if b.freeInstances == 0 {
		return nil, fmt.Errorf("mstid %d: %w", mstid, ErrNoFreeInstance)
	}
	for i := MstiIndexMin; i <= MstiIndexMax; i++ {
		if b.Msti[i] == nil {
			tb := b.newTreeBridge(i, mstid, BridgePriorityDefault)
			b.Msti[i] = tb
			b.mstidIndex[mstid] = i
			b.freeInstances--
			StpLogger("INFO", fmt.Sprintf("MSTI %d allocated slot %d", mstid, i))
			// a running bridge never passes through begin again
			if b.Active {
				tb.start()
			}
			return tb, nil
		}
	}
	return nil, fmt.Errorf("mstid %d: %w", mstid, ErrNoFreeInstance)
}

// freeInstance releases the slot; the caller must have removed all ports
func (b *Bridge) freeInstance(tb *TreeBridge) {
	if tb == nil || tb.IsCist() {
		return
	}
	b.Msti[tb.Index] = nil
	delete(b.mstidIndex, tb.MstId)
	b.freeInstances++
	b.dropSignals(tb.Index)
	StpLogger("INFO", fmt.Sprintf("MSTI %d released slot %d", tb.MstId, tb.Index))
}

func (b *Bridge) recomputeDigest() {
	b.ConfigId.Digest = ComputeConfigDigest(&b.MstidTable)
}

// GetPort returns the port by number
func (b *Bridge) GetPort(ifIndex int32) *StpPort {
	return b.PortMap[ifIndex]
}

// Ports returns ports ordered by port number
func (b *Bridge) Ports() []*StpPort {
	ports := make([]*StpPort, 0, len(b.PortList))
	for _, pId := range b.PortList {
		if p, ok := b.PortMap[pId]; ok {
			ports = append(ports, p)
		}
	}
	return ports
}

func (b *Bridge) addPortToList(ifIndex int32) {
	b.PortList = append(b.PortList, ifIndex)
	sort.Slice(b.PortList, func(i, j int) bool { return b.PortList[i] < b.PortList[j] })
}

func (b *Bridge) delPortFromList(ifIndex int32) {
	for i, pId := range b.PortList {
		if pId == ifIndex {
			b.PortList = append(b.PortList[:i], b.PortList[i+1:]...)
			return
		}
	}
}

// TreePorts returns every tree port of the tree ordered by port number
func (tb *TreeBridge) TreePorts() []*TreePort {
	tps := make([]*TreePort, 0)
	b := tb.b
	for _, pId := range b.PortList {
		if !tb.PortMask.IsSet(int(pId)) {
			continue
		}
		if tp := b.PortMap[pId].Tree(tb.Index); tp != nil {
			tps = append(tps, tp)
		}
	}
	return tps
}

// EnabledTreePorts returns the tree ports whose port is enabled
func (tb *TreeBridge) EnabledTreePorts() []*TreePort {
	tps := make([]*TreePort, 0)
	for _, tp := range tb.TreePorts() {
		if tp.p.PortEnabled {
			tps = append(tps, tp)
		}
	}
	return tps
}

// 13.27.1 allSynced
func (tb *TreeBridge) AllSynced(cp *TreePort) bool {
	for _, tp := range tb.EnabledTreePorts() {
		if !tp.Selected || tp.Role != tp.SelectedRole || tp.UpdtInfo {
			return false
		}
	}
	switch cp.Role {
	case PortRoleRoot, PortRoleAlternate:
		for _, tp := range tb.EnabledTreePorts() {
			if tp != cp && tp.Role != PortRoleRoot && !tp.Synced {
				return false
			}
		}
	case PortRoleDesignated, PortRoleMaster:
		for _, tp := range tb.EnabledTreePorts() {
			if tp != cp && !tp.Synced {
				return false
			}
		}
	default:
		return false
	}
	return true
}

// 13.27.6 reRooted
func (tb *TreeBridge) ReRooted(cp *TreePort) bool {
	for _, tp := range tb.EnabledTreePorts() {
		if tp != cp && tp.RrWhile != 0 {
			return false
		}
	}
	return true
}

// 13.27.19
func (tb *TreeBridge) setReRootTree() {
	for _, tp := range tb.TreePorts() {
		tp.ReRoot = true
	}
}

// 13.27.21
func (tb *TreeBridge) setSelectedTree() {
	for _, tp := range tb.TreePorts() {
		tp.Selected = true
	}
}

// 13.27.22
func (tb *TreeBridge) setSyncTree() {
	for _, tp := range tb.TreePorts() {
		tp.Sync = true
	}
}

// 13.27.24
func (tb *TreeBridge) setTcPropTree(cp *TreePort) {
	for _, tp := range tb.EnabledTreePorts() {
		if tp != cp {
			tp.TcProp = true
		}
	}
}

// 13.27.33
func (tb *TreeBridge) updtRolesDisabledTree() {
	for _, tp := range tb.TreePorts() {
		tp.SelectedRole = PortRoleDisabled
	}
}

// start runs BEGIN over the tree bridge and its ports
func (tb *TreeBridge) start() {
	tb.RootPriority = tb.BridgePriority
	tb.RootTimes = tb.BridgeTimes
	tb.RootPortId = 0
	tb.RootPort = 0
	for _, tp := range tb.TreePorts() {
		tp.begin()
	}
	tb.PrsMachineFsm.begin()
}

// begin runs BEGIN on every machine of every port and tree
func (b *Bridge) begin() {
	b.Begin = true
	b.sigQ = b.sigQ[:0]
	b.sigPending = make(map[signalReq]bool)
	for _, p := range b.Ports() {
		p.begin()
	}
	for _, tb := range b.Trees() {
		tb.start()
	}
	b.Begin = false
	b.runSignals()
}

// Start runs BEGIN on every machine and activates the bridge
func (b *Bridge) Start() {
	if b.Active {
		return
	}
	b.Active = true
	b.begin()
	StpLogger("INFO", fmt.Sprintf("BRIDGE %s started", b.Name))
}

// Stop deactivates the bridge and hands every port back to the kernel as
// forwarding
func (b *Bridge) Stop() {
	if !b.Active {
		return
	}
	for _, p := range b.Ports() {
		for _, tp := range p.TreePortList() {
			b.hwSetPortState(tp.t.MstId, p.IfIndex, PortStateForwarding)
		}
	}
	b.Active = false
	b.sigQ = b.sigQ[:0]
	b.sigPending = make(map[signalReq]bool)
	StpLogger("INFO", fmt.Sprintf("BRIDGE %s stopped", b.Name))
}

// Restart re-runs BEGIN after the region identity changes.  Port states are
// driven to discarding by the state machines, never through forwarding.
func (b *Bridge) Restart() {
	if !b.Active {
		return
	}
	StpLogger("INFO", fmt.Sprintf("BRIDGE %s restart", b.Name))
	b.begin()
}
