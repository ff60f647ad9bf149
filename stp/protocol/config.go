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

// config.go
package stp

import (
	"fmt"
	"net"
)

type StpBridgeConfig struct {
	Name         string `mapstructure:"name" yaml:"name"`
	Address      string `mapstructure:"address" yaml:"address"`
	Priority     uint16 `mapstructure:"priority" yaml:"priority"`
	MaxAge       uint16 `mapstructure:"max_age" yaml:"max_age"`
	HelloTime    uint16 `mapstructure:"hello_time" yaml:"hello_time"`
	ForwardDelay uint16 `mapstructure:"forward_delay" yaml:"forward_delay"`
	ForceVersion int32  `mapstructure:"force_version" yaml:"force_version"`
	TxHoldCount  uint16 `mapstructure:"tx_hold_count" yaml:"tx_hold_count"`
	MaxHops      uint16 `mapstructure:"max_hops" yaml:"max_hops"`
	Vlan         uint16 `mapstructure:"vlan" yaml:"vlan"`
	RegionName   string `mapstructure:"region_name" yaml:"region_name"`
	Revision     uint16 `mapstructure:"revision" yaml:"revision"`
}

type StpPortConfig struct {
	Name          string `mapstructure:"name" yaml:"name"`
	IfIndex       int32  `mapstructure:"ifindex" yaml:"ifindex"`
	HwAddr        string `mapstructure:"hw_addr" yaml:"hw_addr"`
	Priority      uint8  `mapstructure:"priority" yaml:"priority"`
	PathCost      uint32 `mapstructure:"path_cost" yaml:"path_cost"`
	AdminEdge     bool   `mapstructure:"admin_edge" yaml:"admin_edge"`
	AutoEdge      bool   `mapstructure:"auto_edge" yaml:"auto_edge"`
	AdminPt2Pt    int32  `mapstructure:"admin_pt2pt" yaml:"admin_pt2pt"`
	RootGuard     bool   `mapstructure:"root_guard" yaml:"root_guard"`
	RestrictedTcn bool   `mapstructure:"restricted_tcn" yaml:"restricted_tcn"`
	BpduGuard     bool   `mapstructure:"bpdu_guard" yaml:"bpdu_guard"`
	AdminDisable  bool   `mapstructure:"admin_disable" yaml:"admin_disable"`
}

// StpInstancePortConfig overrides the per instance attributes of one port.
// It is stored as a nested json document.
type StpInstancePortConfig struct {
	IfIndex  int32  `mapstructure:"ifindex" yaml:"ifindex" json:"ifindex"`
	Priority uint8  `mapstructure:"priority" yaml:"priority" json:"priority"`
	PathCost uint32 `mapstructure:"path_cost" yaml:"path_cost" json:"path_cost"`
}

type StpInstanceConfig struct {
	MstId    uint16 `mapstructure:"mstid" yaml:"mstid"`
	Priority uint16 `mapstructure:"priority" yaml:"priority"`
	// vlan list such as "10,20-29"
	Vlans string `mapstructure:"vlans" yaml:"vlans"`
	// port list, empty means every bridge port
	Ports     string                  `mapstructure:"ports" yaml:"ports"`
	PortAttrs []StpInstancePortConfig `mapstructure:"port_attrs" yaml:"port_attrs"`
}

func DefaultStpBridgeConfig() StpBridgeConfig {
	return StpBridgeConfig{
		Name:         "mstp",
		Priority:     BridgePriorityDefault,
		MaxAge:       BridgeMaxAgeDefault,
		HelloTime:    BridgeHelloTimeDefault,
		ForwardDelay: BridgeForwardDelayDefault,
		ForceVersion: StpVersionMstp,
		TxHoldCount:  TransmitHoldCountDefault,
		MaxHops:      MaxHopsDefault,
		Revision:     RevisionDefault,
	}
}

func DefaultStpPortConfig(ifindex int32, name string) StpPortConfig {
	return StpPortConfig{
		Name:       name,
		IfIndex:    ifindex,
		Priority:   PortPriorityDefault,
		AutoEdge:   true,
		AdminPt2Pt: int32(StpPointToPointAuto),
	}
}

func DefaultStpInstanceConfig(mstid uint16) StpInstanceConfig {
	return StpInstanceConfig{
		MstId:    mstid,
		Priority: BridgePriorityDefault,
	}
}

func (c *StpPortConfig) hwAddr() net.HardwareAddr {
	if c.HwAddr == "" {
		return nil
	}
	mac, err := net.ParseMAC(c.HwAddr)
	if err != nil {
		return nil
	}
	return mac
}

// pathCost maps the unset value to the default cost
func (c *StpPortConfig) pathCost() uint32 {
	if c.PathCost == 0 {
		return PortPathCostDefault
	}
	return c.PathCost
}

func checkBridgePriority(prio uint16) error {
	// Table 13-3 steps of 4096
	if prio%4096 != 0 || prio > 61440 {
		return fmt.Errorf("Invalid Bridge Priority %d valid values 0 - 61440 in steps of 4096: %w", prio, ErrInvalidParam)
	}
	return nil
}

func checkPortPriority(prio uint8) error {
	// Table 13-3 steps of 16
	if prio%16 != 0 {
		return fmt.Errorf("Invalid Port Priority %d valid values 0 - 240 in steps of 16: %w", prio, ErrInvalidParam)
	}
	return nil
}

func checkPortPathCost(cost uint32) error {
	if cost > PortPathCostMax {
		return fmt.Errorf("Invalid Port Path Cost %d valid values 0 (AUTO) or 1 - 200,000,000: %w", cost, ErrInvalidParam)
	}
	return nil
}

// checkBridgeTimes 13.26 Table 13-5 plus the relation between the times
func checkBridgeTimes(hello, maxAge, fwd uint16) error {
	if maxAge < BridgeMaxAgeMin || maxAge > BridgeMaxAgeMax {
		return fmt.Errorf("Invalid Bridge Max Age %d valid range %d - %d: %w", maxAge, BridgeMaxAgeMin, BridgeMaxAgeMax, ErrInvalidParam)
	}
	if hello < BridgeHelloTimeMin || hello > BridgeHelloTimeMax {
		return fmt.Errorf("Invalid Bridge Hello Time %d valid range %d - %d: %w", hello, BridgeHelloTimeMin, BridgeHelloTimeMax, ErrInvalidParam)
	}
	if fwd < BridgeForwardDelayMin || fwd > BridgeForwardDelayMax {
		return fmt.Errorf("Invalid Bridge Forward Delay %d valid range %d - %d: %w", fwd, BridgeForwardDelayMin, BridgeForwardDelayMax, ErrInvalidParam)
	}
	if 2*(fwd-1) < maxAge {
		return fmt.Errorf("Invalid Bridge Max Age %d must not exceed 2 x (Forward Delay %d - 1): %w", maxAge, fwd, ErrInvalidParam)
	}
	if maxAge < 2*(hello+1) {
		return fmt.Errorf("Invalid Bridge Max Age %d must be at least 2 x (Hello Time %d + 1): %w", maxAge, hello, ErrInvalidParam)
	}
	return nil
}

func checkForceVersion(v int32) error {
	if v != StpVersionStp && v != StpVersionRstp && v != StpVersionMstp {
		return fmt.Errorf("Invalid Bridge Force Version %d valid 0 (STP) 2 (RSTP) 3 (MSTP): %w", v, ErrInvalidParam)
	}
	return nil
}

func checkTxHoldCount(n uint16) error {
	if n < TransmitHoldCountMin || n > TransmitHoldCountMax {
		return fmt.Errorf("Invalid Bridge Tx Hold Count %d valid range %d - %d: %w", n, TransmitHoldCountMin, TransmitHoldCountMax, ErrInvalidParam)
	}
	return nil
}

func checkMaxHops(n uint16) error {
	if n < MaxHopsMin || n > MaxHopsMax {
		return fmt.Errorf("Invalid Bridge Max Hops %d valid range %d - %d: %w", n, MaxHopsMin, MaxHopsMax, ErrInvalidParam)
	}
	return nil
}

func checkRegionName(name string) error {
	if len(name) > MstConfigNameLen {
		return fmt.Errorf("Invalid Region Name %q longer than %d: %w", name, MstConfigNameLen, ErrInvalidParam)
	}
	return nil
}

func StpBrgConfigParamCheck(c *StpBridgeConfig) error {
	if err := checkBridgePriority(c.Priority); err != nil {
		return err
	}
	if err := checkBridgeTimes(c.HelloTime, c.MaxAge, c.ForwardDelay); err != nil {
		return err
	}
	if err := checkForceVersion(c.ForceVersion); err != nil {
		return err
	}
	if err := checkTxHoldCount(c.TxHoldCount); err != nil {
		return err
	}
	if err := checkMaxHops(c.MaxHops); err != nil {
		return err
	}
	// zero sends untagged
	if c.Vlan > MaxVlanId-1 {
		return fmt.Errorf("Invalid Bridge Vlan %d valid range 1 - 4094: %w", c.Vlan, ErrInvalidParam)
	}
	if c.Address != "" {
		if mac, err := net.ParseMAC(c.Address); err != nil || len(mac) != 6 {
			return fmt.Errorf("Invalid Bridge Address %s: %w", c.Address, ErrInvalidParam)
		}
	}
	return checkRegionName(c.RegionName)
}

func StpPortConfigParamCheck(c *StpPortConfig) error {
	if c.IfIndex < 1 || c.IfIndex > MaxPortNumber {
		return fmt.Errorf("Invalid Port %d valid range 1 - %d: %w", c.IfIndex, MaxPortNumber, ErrInvalidParam)
	}
	if err := checkPortPriority(c.Priority); err != nil {
		return fmt.Errorf("Port %d: %w", c.IfIndex, err)
	}
	if err := checkPortPathCost(c.PathCost); err != nil {
		return fmt.Errorf("Port %d: %w", c.IfIndex, err)
	}
	switch PointToPointMac(c.AdminPt2Pt) {
	case StpPointToPointForceTrue, StpPointToPointForceFalse, StpPointToPointAuto:
	default:
		return fmt.Errorf("Invalid Port %d Admin Point To Point %d valid 0 (true) 1 (false) 2 (auto): %w", c.IfIndex, c.AdminPt2Pt, ErrInvalidParam)
	}
	if c.HwAddr != "" {
		if _, err := net.ParseMAC(c.HwAddr); err != nil {
			return fmt.Errorf("Invalid Port %d Hardware Address %s: %w", c.IfIndex, c.HwAddr, ErrInvalidParam)
		}
	}
	return nil
}

func StpInstanceConfigParamCheck(c *StpInstanceConfig) error {
	if !MstId(c.MstId).IsValidMsti() {
		return fmt.Errorf("Invalid MST Instance %d valid range %d - %d: %w", c.MstId, MstIdMin, MstIdMax, ErrInvalidParam)
	}
	if err := checkBridgePriority(c.Priority); err != nil {
		return fmt.Errorf("MST Instance %d: %w", c.MstId, err)
	}
	if _, err := ParseVlanList(c.Vlans); err != nil {
		return fmt.Errorf("MST Instance %d vlans: %w", c.MstId, err)
	}
	if _, err := ParseVlanList(c.Ports); err != nil {
		return fmt.Errorf("MST Instance %d ports: %w", c.MstId, err)
	}
	for _, pc := range c.PortAttrs {
		if err := checkPortPriority(pc.Priority); err != nil {
			return fmt.Errorf("MST Instance %d port %d: %w", c.MstId, pc.IfIndex, err)
		}
		if err := checkPortPathCost(pc.PathCost); err != nil {
			return fmt.Errorf("MST Instance %d port %d: %w", c.MstId, pc.IfIndex, err)
		}
	}
	return nil
}

// refresh clears selected on every port of the tree and requests a new
// role selection 13.26.2
func (tb *TreeBridge) refresh() {
	for _, tp := range tb.TreePorts() {
		tp.Selected = false
	}
	tb.Reselect = true
	tb.b.signal(MachinePrs, 0, tb.Index)
}

func (b *Bridge) refreshAll() {
	for _, tb := range b.Trees() {
		tb.refresh()
	}
}

func (b *Bridge) lookupPort(ifindex int32) (*StpPort, error) {
	p, ok := b.PortMap[ifindex]
	if !ok {
		return nil, fmt.Errorf("port %d: %w", ifindex, ErrPortNotFound)
	}
	return p, nil
}

func (b *Bridge) lookupTreePort(ifindex int32, mstid MstId) (*TreePort, error) {
	p, err := b.lookupPort(ifindex)
	if err != nil {
		return nil, err
	}
	tb := b.FindTree(mstid)
	if tb == nil {
		return nil, fmt.Errorf("mstid %d: %w", mstid, ErrInstanceNotFound)
	}
	tp := p.Tree(tb.Index)
	if tp == nil {
		return nil, fmt.Errorf("port %d mstid %d: %w", ifindex, mstid, ErrPortNotFound)
	}
	return tp, nil
}

// SetRegionName changes the MST configuration name and restarts the bridge
func (b *Bridge) SetRegionName(name string) error {
	if err := checkRegionName(name); err != nil {
		return err
	}
	if b.ConfigId.NameString() == name {
		return nil
	}
	b.ConfigId.SetName(name)
	StpLogger("INFO", fmt.Sprintf("%s: region name %s", BridgeConfigModuleStr, name))
	b.Restart()
	return nil
}

// SetRevision changes the MST configuration revision and restarts the bridge
func (b *Bridge) SetRevision(rev uint16) error {
	if b.ConfigId.Revision == rev {
		return nil
	}
	b.ConfigId.Revision = rev
	StpLogger("INFO", fmt.Sprintf("%s: region revision %d", BridgeConfigModuleStr, rev))
	b.Restart()
	return nil
}

func (b *Bridge) propagateTimes() {
	for _, tb := range b.Trees() {
		tb.updateBridgeTimes()
	}
	b.refreshAll()
	b.runSignals()
}

func (b *Bridge) SetMaxHops(hops uint16) error {
	if err := checkMaxHops(hops); err != nil {
		return err
	}
	if uint16(b.MaxHops) == hops {
		return nil
	}
	b.MaxHops = uint8(hops)
	b.propagateTimes()
	return nil
}

func (b *Bridge) SetHelloTime(hello uint16) error {
	if err := checkBridgeTimes(hello, b.MaxAge, b.ForwardDelay); err != nil {
		return err
	}
	if b.HelloTime == hello {
		return nil
	}
	b.HelloTime = hello
	b.propagateTimes()
	return nil
}

func (b *Bridge) SetMaxAge(maxAge uint16) error {
	if err := checkBridgeTimes(b.HelloTime, maxAge, b.ForwardDelay); err != nil {
		return err
	}
	if b.MaxAge == maxAge {
		return nil
	}
	b.MaxAge = maxAge
	b.Cist.updateBridgeTimes()
	b.Cist.refresh()
	b.runSignals()
	return nil
}

func (b *Bridge) SetForwardDelay(fwd uint16) error {
	if err := checkBridgeTimes(b.HelloTime, b.MaxAge, fwd); err != nil {
		return err
	}
	if b.ForwardDelay == fwd {
		return nil
	}
	b.ForwardDelay = fwd
	b.propagateTimes()
	return nil
}

// SetForceVersion changes the protocol the bridge speaks.  Every machine
// restarts.
func (b *Bridge) SetForceVersion(v int32) error {
	if err := checkForceVersion(v); err != nil {
		return err
	}
	if b.ForceVersion == v {
		return nil
	}
	b.ForceVersion = v
	StpLogger("INFO", fmt.Sprintf("%s: force version %d", BridgeConfigModuleStr, v))
	b.Restart()
	return nil
}

// SetTxHoldCount 13.26.12 changing the hold count resets txCount
func (b *Bridge) SetTxHoldCount(n uint16) error {
	if err := checkTxHoldCount(n); err != nil {
		return err
	}
	b.TxHoldCount = uint32(n)
	for _, p := range b.Ports() {
		p.TxCount = 0
		b.signal(MachinePtx, p.IfIndex, CistIndex)
	}
	b.runSignals()
	return nil
}

// SetBridgePriority sets the priority of the CIST (mstid 0) or of an MSTI
func (b *Bridge) SetBridgePriority(mstid MstId, prio uint16) error {
	if err := checkBridgePriority(prio); err != nil {
		return err
	}
	tb := b.FindTree(mstid)
	if tb == nil {
		return fmt.Errorf("mstid %d: %w", mstid, ErrInstanceNotFound)
	}
	if tb.BridgeIdentifier.Priority() == prio {
		return nil
	}
	tb.setBridgePriority(prio)
	StpLogger("INFO", fmt.Sprintf("%s: mst %d bridge id %s", BridgeConfigModuleStr, mstid, tb.BridgeIdentifier))
	tb.refresh()
	b.runSignals()
	return nil
}

// PortAdd makes the port a member of the CIST.  The link starts down.
func (b *Bridge) PortAdd(c *StpPortConfig) error {
	if _, err := b.NewStpPort(c); err != nil {
		return err
	}
	b.runSignals()
	return nil
}

// PortDelete removes the port from every tree
func (b *Bridge) PortDelete(ifindex int32) error {
	p, err := b.lookupPort(ifindex)
	if err != nil {
		return err
	}
	b.DelStpPort(p)
	b.runSignals()
	return nil
}

// PortEnable reports the link up.  fullDuplex drives operPointToPointMAC
// when the admin setting is auto.
func (b *Bridge) PortEnable(ifindex int32, fullDuplex bool) error {
	p, err := b.lookupPort(ifindex)
	if err != nil {
		return err
	}
	p.FullDuplex = fullDuplex
	p.updateOperPt2Pt(fullDuplex)
	p.LinkUp = true
	p.setPortEnabled()
	b.runSignals()
	return nil
}

// PortDisable reports the link down
func (b *Bridge) PortDisable(ifindex int32) error {
	p, err := b.lookupPort(ifindex)
	if err != nil {
		return err
	}
	p.LinkUp = false
	p.setPortEnabled()
	b.runSignals()
	return nil
}

// SetPortAdminDisable takes the port out of the protocol.  Enabling the
// port again also clears a bpdu guard shutdown.
func (b *Bridge) SetPortAdminDisable(ifindex int32, disable bool) error {
	p, err := b.lookupPort(ifindex)
	if err != nil {
		return err
	}
	p.AdminDisabled = disable
	if !disable && p.BpduGuardActive {
		StpMachineLogger("INFO", PortConfigModuleStr, ifindex, CistMstId, "bpdu guard shutdown cleared")
		p.BpduGuardActive = false
	}
	p.setPortEnabled()
	b.runSignals()
	return nil
}

func (b *Bridge) SetPortAdminEdge(ifindex int32, edge bool) error {
	p, err := b.lookupPort(ifindex)
	if err != nil {
		return err
	}
	if p.AdminEdge == edge {
		return nil
	}
	p.AdminEdge = edge
	if b.Active {
		p.BdmMachineFsm.begin()
		b.signalAllTrees(MachinePrt, p)
		b.signalAllTrees(MachineTcm, p)
		b.refreshAll()
	} else {
		p.OperEdge = edge
	}
	b.runSignals()
	return nil
}

func (b *Bridge) SetPortAutoEdge(ifindex int32, auto bool) error {
	p, err := b.lookupPort(ifindex)
	if err != nil {
		return err
	}
	p.AutoEdge = auto
	b.signal(MachineBdm, ifindex, CistIndex)
	b.runSignals()
	return nil
}

func (b *Bridge) SetPortAdminPt2Pt(ifindex int32, mode PointToPointMac) error {
	if _, ok := PointToPointMacStrMap[mode]; !ok {
		return fmt.Errorf("Invalid Port %d Admin Point To Point %d: %w", ifindex, mode, ErrInvalidParam)
	}
	p, err := b.lookupPort(ifindex)
	if err != nil {
		return err
	}
	p.AdminPt2Pt = mode
	p.updateOperPt2Pt(p.FullDuplex)
	b.signalAllTrees(MachinePrt, p)
	b.runSignals()
	return nil
}

// SetPortRootGuard sets restrictedRole so the port is never selected as
// root port
func (b *Bridge) SetPortRootGuard(ifindex int32, ena bool) error {
	p, err := b.lookupPort(ifindex)
	if err != nil {
		return err
	}
	if p.RestrictedRole == ena {
		return nil
	}
	p.RestrictedRole = ena
	b.refreshAll()
	b.runSignals()
	return nil
}

func (b *Bridge) SetPortRestrictedTcn(ifindex int32, ena bool) error {
	p, err := b.lookupPort(ifindex)
	if err != nil {
		return err
	}
	p.RestrictedTcn = ena
	return nil
}

func (b *Bridge) SetPortBpduGuard(ifindex int32, ena bool) error {
	p, err := b.lookupPort(ifindex)
	if err != nil {
		return err
	}
	p.BpduGuard = ena
	if !ena && p.BpduGuardActive {
		p.BpduGuardActive = false
		p.setPortEnabled()
	}
	b.runSignals()
	return nil
}

// PortMcheck forces the port to transmit RST or MST BPDUs again 13.25.8
func (b *Bridge) PortMcheck(ifindex int32) error {
	p, err := b.lookupPort(ifindex)
	if err != nil {
		return err
	}
	if b.ForceVersion < StpVersionRstp {
		return nil
	}
	p.Mcheck = true
	b.signal(MachinePpm, ifindex, CistIndex)
	b.runSignals()
	return nil
}

func (b *Bridge) SetPortPriority(ifindex int32, mstid MstId, prio uint8) error {
	if err := checkPortPriority(prio); err != nil {
		return err
	}
	tp, err := b.lookupTreePort(ifindex, mstid)
	if err != nil {
		return err
	}
	if tp.Priority == prio {
		return nil
	}
	tp.Priority = prio
	tp.PortId = CreatePortId(prio, ifindex)
	tp.t.refresh()
	b.runSignals()
	return nil
}

// SetPortPathCost sets the internal cost; on the CIST the external cost
// follows.  Zero restores the default.
func (b *Bridge) SetPortPathCost(ifindex int32, mstid MstId, cost uint32) error {
	if err := checkPortPathCost(cost); err != nil {
		return err
	}
	tp, err := b.lookupTreePort(ifindex, mstid)
	if err != nil {
		return err
	}
	if cost == 0 {
		cost = PortPathCostDefault
	}
	if tp.IntPathCost == cost && (!tp.IsCist() || tp.ExtPathCost == cost) {
		return nil
	}
	tp.IntPathCost = cost
	if tp.IsCist() {
		tp.ExtPathCost = cost
	}
	tp.t.refresh()
	b.runSignals()
	return nil
}

func validVlans(vlans BitMask4k) error {
	if vlans.IsSet(0) || vlans.IsSet(MaxVlanId) {
		return fmt.Errorf("vlan 0 and %d are reserved: %w", MaxVlanId, ErrInvalidParam)
	}
	return nil
}

// deleteInstance removes every port from an MSTI that no longer carries a
// vlan and releases its slot.  The ports forward again for its vlans.
func (b *Bridge) deleteInstance(tb *TreeBridge) {
	for _, tp := range tb.TreePorts() {
		b.removePortFromTree(tp.p, tb)
	}
	b.freeInstance(tb)
}

// moveVlan maps vlan to tb.  The MSTI that loses its last vlan is deleted.
func (b *Bridge) moveVlan(vlan int, tb *TreeBridge) bool {
	old := b.FindTree(b.MstidTable[vlan])
	if old == tb {
		return false
	}
	if old != nil {
		old.VlanMask.Clear(vlan)
	}
	b.MstidTable[vlan] = tb.MstId
	tb.VlanMask.Set(vlan)
	if old != nil && !old.IsCist() && old.VlanMask.IsEmpty() {
		StpLogger("INFO", fmt.Sprintf("%s: mst %d has no vlans left", BridgeConfigModuleStr, old.MstId))
		b.deleteInstance(old)
	}
	return true
}

// AttachVlans maps the vlans to mstid, allocating the instance on first
// use.  Mapping to mstid 0 returns the vlans to the CIST.
func (b *Bridge) AttachVlans(mstid MstId, vlans BitMask4k) error {
	if err := validVlans(vlans); err != nil {
		return err
	}
	if mstid != CistMstId && !mstid.IsValidMsti() {
		return fmt.Errorf("mstid %d: %w", mstid, ErrInvalidParam)
	}
	tb, err := b.allocInstance(mstid)
	if err != nil {
		StpLogger("ERROR", fmt.Sprintf("%s: attach vlans %s: %s", BridgeConfigModuleStr, vlans.String(), err))
		return err
	}
	changed := false
	for _, v := range vlans.List() {
		if b.moveVlan(v, tb) {
			changed = true
		}
	}
	if changed {
		StpLogger("INFO", fmt.Sprintf("%s: mst %d attach vlans %s", BridgeConfigModuleStr, mstid, vlans.String()))
		b.recomputeDigest()
	}
	// an instance allocated for vlans it already had is released again
	if !tb.IsCist() && tb.VlanMask.IsEmpty() {
		b.deleteInstance(tb)
	}
	b.runSignals()
	return nil
}

// DetachVlans returns the vlans of mstid to the CIST.  The instance is
// deleted once its last vlan is gone.
func (b *Bridge) DetachVlans(mstid MstId, vlans BitMask4k) error {
	if err := validVlans(vlans); err != nil {
		return err
	}
	if mstid == CistMstId {
		return fmt.Errorf("vlans can not be detached from the cist: %w", ErrInvalidParam)
	}
	tb := b.FindTree(mstid)
	if tb == nil {
		return fmt.Errorf("mstid %d: %w", mstid, ErrInstanceNotFound)
	}
	del := vlans.And(tb.VlanMask)
	if del.IsEmpty() {
		return nil
	}
	StpLogger("INFO", fmt.Sprintf("%s: mst %d detach vlans %s", BridgeConfigModuleStr, mstid, del.String()))
	for _, v := range del.List() {
		b.moveVlan(v, b.Cist)
	}
	b.recomputeDigest()
	b.runSignals()
	return nil
}

// SetInstancePorts makes exactly the ports in mask members of the MSTI
func (b *Bridge) SetInstancePorts(mstid MstId, ports BitMask4k) error {
	if !mstid.IsValidMsti() {
		return fmt.Errorf("mstid %d: %w", mstid, ErrInvalidParam)
	}
	tb := b.FindTree(mstid)
	if tb == nil {
		return fmt.Errorf("mstid %d: %w", mstid, ErrInstanceNotFound)
	}
	add := ports.AndNot(tb.PortMask)
	del := tb.PortMask.AndNot(ports)
	for _, pId := range add.List() {
		if _, ok := b.PortMap[int32(pId)]; !ok {
			return fmt.Errorf("port %d mstid %d: %w", pId, mstid, ErrPortNotFound)
		}
	}
	for _, pId := range add.List() {
		b.addPortToTree(b.PortMap[int32(pId)], tb)
	}
	for _, pId := range del.List() {
		if p, ok := b.PortMap[int32(pId)]; ok {
			b.removePortFromTree(p, tb)
		}
	}
	b.runSignals()
	return nil
}

// UpdateBridge applies every attribute of c that differs from the running
// bridge.  The address can not change once the bridge exists.
func (b *Bridge) UpdateBridge(c *StpBridgeConfig) error {
	if err := StpBrgConfigParamCheck(c); err != nil {
		return err
	}
	if c.Address != "" {
		mac, _ := net.ParseMAC(c.Address)
		if net.HardwareAddr(b.BridgeAddr[:]).String() != mac.String() {
			return fmt.Errorf("bridge address %s can not be changed: %w", c.Address, ErrInvalidParam)
		}
	}
	// times are applied as a set so the intermediate values need not be valid
	if c.HelloTime != b.HelloTime || c.MaxAge != b.MaxAge || c.ForwardDelay != b.ForwardDelay {
		b.HelloTime, b.MaxAge, b.ForwardDelay = c.HelloTime, c.MaxAge, c.ForwardDelay
		b.propagateTimes()
	}
	if err := b.SetMaxHops(c.MaxHops); err != nil {
		return err
	}
	if uint32(c.TxHoldCount) != b.TxHoldCount {
		if err := b.SetTxHoldCount(c.TxHoldCount); err != nil {
			return err
		}
	}
	if err := b.SetBridgePriority(CistMstId, c.Priority); err != nil {
		return err
	}
	b.Vlan = c.Vlan
	restart := false
	if c.ForceVersion != b.ForceVersion {
		b.ForceVersion = c.ForceVersion
		restart = true
	}
	if c.RegionName != "" && c.RegionName != b.ConfigId.NameString() {
		b.ConfigId.SetName(c.RegionName)
		restart = true
	}
	if c.Revision != b.ConfigId.Revision {
		b.ConfigId.Revision = c.Revision
		restart = true
	}
	if restart {
		b.Restart()
	}
	return nil
}

// UpdatePort adds the port or applies every attribute of c that differs
// from the running port
func (b *Bridge) UpdatePort(c *StpPortConfig) error {
	if err := StpPortConfigParamCheck(c); err != nil {
		return err
	}
	p, ok := b.PortMap[c.IfIndex]
	if !ok {
		return b.PortAdd(c)
	}
	if err := b.SetPortPriority(c.IfIndex, CistMstId, c.Priority); err != nil {
		return err
	}
	if err := b.SetPortPathCost(c.IfIndex, CistMstId, c.PathCost); err != nil {
		return err
	}
	if err := b.SetPortAdminEdge(c.IfIndex, c.AdminEdge); err != nil {
		return err
	}
	if err := b.SetPortAutoEdge(c.IfIndex, c.AutoEdge); err != nil {
		return err
	}
	if err := b.SetPortAdminPt2Pt(c.IfIndex, PointToPointMac(c.AdminPt2Pt)); err != nil {
		return err
	}
	if err := b.SetPortRootGuard(c.IfIndex, c.RootGuard); err != nil {
		return err
	}
	if err := b.SetPortRestrictedTcn(c.IfIndex, c.RestrictedTcn); err != nil {
		return err
	}
	if err := b.SetPortBpduGuard(c.IfIndex, c.BpduGuard); err != nil {
		return err
	}
	if c.AdminDisable != p.AdminDisabled {
		return b.SetPortAdminDisable(c.IfIndex, c.AdminDisable)
	}
	return nil
}

// ApplyInstanceConfig maps the vlans, sets the priority, membership and
// per port attributes of an MSTI
func (b *Bridge) ApplyInstanceConfig(c *StpInstanceConfig) error {
	if err := StpInstanceConfigParamCheck(c); err != nil {
		return err
	}
	mstid := MstId(c.MstId)
	vlans, _ := ParseVlanList(c.Vlans)
	if vlans.IsEmpty() {
		return fmt.Errorf("MST Instance %d has no vlans: %w", c.MstId, ErrInvalidParam)
	}
	ports, _ := ParseVlanList(c.Ports)
	if c.Ports == "" {
		for _, pId := range b.PortList {
			ports.Set(int(pId))
		}
	}
	for _, pId := range ports.List() {
		if _, ok := b.PortMap[int32(pId)]; !ok {
			return fmt.Errorf("MST Instance %d port %d: %w", c.MstId, pId, ErrPortNotFound)
		}
	}
	for _, pc := range c.PortAttrs {
		if !ports.IsSet(int(pc.IfIndex)) {
			return fmt.Errorf("MST Instance %d port %d not a member: %w", c.MstId, pc.IfIndex, ErrPortNotFound)
		}
	}

	if tb := b.FindTree(mstid); tb != nil {
		if stale := tb.VlanMask.AndNot(vlans); !stale.IsEmpty() {
			// keep the instance alive while its vlan set is replaced
			if err := b.AttachVlans(mstid, vlans); err != nil {
				return err
			}
			if err := b.DetachVlans(mstid, stale); err != nil {
				return err
			}
		}
	}
	if err := b.AttachVlans(mstid, vlans); err != nil {
		return err
	}
	if err := b.SetBridgePriority(mstid, c.Priority); err != nil {
		return err
	}
	if err := b.SetInstancePorts(mstid, ports); err != nil {
		return err
	}
	for _, pc := range c.PortAttrs {
		prio := pc.Priority
		if prio == 0 {
			prio = b.PortMap[pc.IfIndex].Cist.Priority
		}
		if err := b.SetPortPriority(pc.IfIndex, mstid, prio); err != nil {
			return err
		}
		if err := b.SetPortPathCost(pc.IfIndex, mstid, pc.PathCost); err != nil {
			return err
		}
	}
	return nil
}
