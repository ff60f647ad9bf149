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

// info.go
package stp

import (
	"encoding/hex"
	"net"
)

// TimesInfo mirrors Times for display
type TimesInfo struct {
	MessageAge    uint16 `yaml:"message_age"`
	MaxAge        uint16 `yaml:"max_age"`
	HelloTime     uint16 `yaml:"hello_time"`
	ForwardDelay  uint16 `yaml:"forward_delay"`
	RemainingHops uint8  `yaml:"remaining_hops"`
}

func newTimesInfo(t Times) TimesInfo {
	return TimesInfo{
		MessageAge:    t.MessageAge,
		MaxAge:        t.MaxAge,
		HelloTime:     t.HelloTime,
		ForwardDelay:  t.ForwardDelay,
		RemainingHops: t.RemainingHops,
	}
}

type InstanceInfo struct {
	MstId           uint16    `yaml:"mstid"`
	Slot            int       `yaml:"slot"`
	BridgeId        string    `yaml:"bridge_id"`
	RootId          string    `yaml:"root_id,omitempty"`
	ExtRootPathCost uint32    `yaml:"ext_root_path_cost"`
	RegionalRootId  string    `yaml:"regional_root_id"`
	IntRootPathCost uint32    `yaml:"int_root_path_cost"`
	RootPort        int32     `yaml:"root_port"`
	RootTimes       TimesInfo `yaml:"root_times"`
	Vlans           string    `yaml:"vlans"`
	Ports           string    `yaml:"ports"`
	RoleSelection   string    `yaml:"role_selection"`
	TopologyChange  string    `yaml:"topology_change"`
}

type BridgeInfo struct {
	Name         string         `yaml:"name"`
	Active       bool           `yaml:"active"`
	Address      string         `yaml:"address"`
	ForceVersion int32          `yaml:"force_version"`
	RegionName   string         `yaml:"region_name"`
	Revision     uint16         `yaml:"revision"`
	Digest       string         `yaml:"digest"`
	HelloTime    uint16         `yaml:"hello_time"`
	MaxAge       uint16         `yaml:"max_age"`
	ForwardDelay uint16         `yaml:"forward_delay"`
	MaxHops      uint8          `yaml:"max_hops"`
	TxHoldCount  uint32         `yaml:"tx_hold_count"`
	FreeSlots    int            `yaml:"free_slots"`
	EnabledPorts string         `yaml:"enabled_ports"`
	TickCount    uint64         `yaml:"tick_count"`
	RxMalformed  uint64         `yaml:"rx_malformed"`
	Instances    []InstanceInfo `yaml:"instances"`
}

type TreePortInfo struct {
	MstId              uint16            `yaml:"mstid"`
	PortId             string            `yaml:"port_id"`
	Priority           uint8             `yaml:"priority"`
	IntPathCost        uint32            `yaml:"int_path_cost"`
	ExtPathCost        uint32            `yaml:"ext_path_cost,omitempty"`
	Role               string            `yaml:"role"`
	State              string            `yaml:"state"`
	InfoIs             string            `yaml:"info_is"`
	DesignatedBridge   string            `yaml:"designated_bridge"`
	DesignatedPort     string            `yaml:"designated_port"`
	Agreed             bool              `yaml:"agreed"`
	Proposing          bool              `yaml:"proposing"`
	Disputed           bool              `yaml:"disputed"`
	Timers             map[string]uint16 `yaml:"timers"`
	PimState           string            `yaml:"pim_state"`
	PrtState           string            `yaml:"prt_state"`
	PstState           string            `yaml:"pst_state"`
	TcState            string            `yaml:"tc_state"`
	ForwardTransitions uint64            `yaml:"forward_transitions"`
	MsgRx              uint64            `yaml:"msg_rx"`
	MsgTx              uint64            `yaml:"msg_tx"`
}

type PortInfo struct {
	Name            string            `yaml:"name"`
	IfIndex         int32             `yaml:"ifindex"`
	Enabled         bool              `yaml:"enabled"`
	LinkUp          bool              `yaml:"link_up"`
	AdminDisabled   bool              `yaml:"admin_disabled"`
	BpduGuardActive bool              `yaml:"bpdu_guard_active"`
	AdminEdge       bool              `yaml:"admin_edge"`
	OperEdge        bool              `yaml:"oper_edge"`
	AdminPt2Pt      string            `yaml:"admin_pt2pt"`
	OperPt2Pt       bool              `yaml:"oper_pt2pt"`
	RootGuard       bool              `yaml:"root_guard"`
	SendRSTP        bool              `yaml:"send_rstp"`
	RcvdInternal    bool              `yaml:"rcvd_internal"`
	Timers          map[string]uint16 `yaml:"timers"`
	PpmState        string            `yaml:"ppm_state"`
	PtxState        string            `yaml:"ptx_state"`
	PrxState        string            `yaml:"prx_state"`
	BdmState        string            `yaml:"bdm_state"`
	Stats           StpPortStats      `yaml:"stats"`
	Trees           []TreePortInfo    `yaml:"trees"`
}

func (tb *TreeBridge) Info() InstanceInfo {
	info := InstanceInfo{
		MstId:           uint16(tb.MstId),
		Slot:            int(tb.Index),
		BridgeId:        tb.BridgeIdentifier.String(),
		RegionalRootId:  tb.RootPriority.RegionalRootId.String(),
		IntRootPathCost: tb.RootPriority.IntRootPathCost,
		RootPort:        tb.RootPort,
		RootTimes:       newTimesInfo(tb.RootTimes),
		Vlans:           tb.VlanMask.String(),
		Ports:           tb.PortMask.String(),
		RoleSelection:   tb.PrsMachineFsm.GetCurrStateStr(),
		TopologyChange:  tb.TcInfo(),
	}
	if tb.IsCist() {
		info.RootId = tb.RootPriority.RootBridgeId.String()
		info.ExtRootPathCost = tb.RootPriority.ExtRootPathCost
	}
	return info
}

// Info returns a snapshot of the bridge and every instance
func (b *Bridge) Info() BridgeInfo {
	info := BridgeInfo{
		Name:         b.Name,
		Active:       b.Active,
		Address:      net.HardwareAddr(b.BridgeAddr[:]).String(),
		ForceVersion: b.ForceVersion,
		RegionName:   b.ConfigId.NameString(),
		Revision:     b.ConfigId.Revision,
		Digest:       hex.EncodeToString(b.ConfigId.Digest[:]),
		HelloTime:    b.HelloTime,
		MaxAge:       b.MaxAge,
		ForwardDelay: b.ForwardDelay,
		MaxHops:      b.MaxHops,
		TxHoldCount:  b.TxHoldCount,
		FreeSlots:    b.freeInstances,
		EnabledPorts: b.EnableMask.String(),
		TickCount:    b.TickCount,
		RxMalformed:  b.RxMalformed,
	}
	for _, tb := range b.Trees() {
		info.Instances = append(info.Instances, tb.Info())
	}
	return info
}

// PortState is the forwarding state as seen by the forwarding plane
func (tp *TreePort) PortState() PortState {
	switch {
	case !tp.p.PortEnabled:
		return PortStateDisabled
	case tp.Forwarding:
		return PortStateForwarding
	case tp.Learning:
		return PortStateLearning
	}
	return PortStateDiscarding
}

func (tp *TreePort) Info() TreePortInfo {
	info := TreePortInfo{
		MstId:              uint16(tp.t.MstId),
		PortId:             tp.PortId.String(),
		Priority:           tp.Priority,
		IntPathCost:        tp.IntPathCost,
		Role:               tp.Role.String(),
		State:              tp.PortState().String(),
		InfoIs:             tp.InfoIs.String(),
		DesignatedBridge:   tp.PortPriority.DesignatedBridgeId.String(),
		DesignatedPort:     tp.PortPriority.DesignatedPortId.String(),
		Agreed:             tp.Agreed,
		Proposing:          tp.Proposing,
		Disputed:           tp.Disputed,
		Timers:             timerMap(treePortTimerTypes, tp.Timer),
		PimState:           tp.PimMachineFsm.GetCurrStateStr(),
		PrtState:           tp.PrtMachineFsm.GetCurrStateStr(),
		PstState:           tp.PstMachineFsm.GetCurrStateStr(),
		TcState:            tp.TcMachineFsm.GetCurrStateStr(),
		ForwardTransitions: tp.ForwardTransitions,
		MsgRx:              tp.MsgRx,
		MsgTx:              tp.MsgTx,
	}
	if tp.IsCist() {
		info.ExtPathCost = tp.ExtPathCost
	}
	return info
}

func (p *StpPort) Info() PortInfo {
	info := PortInfo{
		Name:            p.Name,
		IfIndex:         p.IfIndex,
		Enabled:         p.PortEnabled,
		LinkUp:          p.LinkUp,
		AdminDisabled:   p.AdminDisabled,
		BpduGuardActive: p.BpduGuardActive,
		AdminEdge:       p.AdminEdge,
		OperEdge:        p.OperEdge,
		AdminPt2Pt:      p.AdminPt2Pt.String(),
		OperPt2Pt:       p.OperPt2Pt,
		RootGuard:       p.RestrictedRole,
		SendRSTP:        p.SendRSTP,
		RcvdInternal:    p.RcvdInternal,
		Timers:          timerMap(portTimerTypes, p.Timer),
		PpmState:        p.PpmmMachineFsm.GetCurrStateStr(),
		PtxState:        p.PtxmMachineFsm.GetCurrStateStr(),
		PrxState:        p.PrxmMachineFsm.GetCurrStateStr(),
		BdmState:        p.BdmMachineFsm.GetCurrStateStr(),
		Stats:           p.Stats,
	}
	for _, tp := range p.TreePortList() {
		info.Trees = append(info.Trees, tp.Info())
	}
	return info
}

// PortInfo returns the snapshot of one port
func (b *Bridge) PortInfo(ifindex int32) (PortInfo, error) {
	p, err := b.lookupPort(ifindex)
	if err != nil {
		return PortInfo{}, err
	}
	return p.Info(), nil
}

// PortInfoList returns every port ordered by port number
func (b *Bridge) PortInfoList() []PortInfo {
	list := make([]PortInfo, 0, len(b.PortList))
	for _, p := range b.Ports() {
		list = append(list, p.Info())
	}
	return list
}
