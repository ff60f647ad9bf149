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

// port.go
package stp

import (
	"fmt"
	"net"
)

const PortConfigModuleStr = "Port Config"

type StpPortStats struct {
	BpduRx      uint64
	BpduTx      uint64
	StpRx       uint64
	RstpRx      uint64
	MstpRx      uint64
	TcnRx       uint64
	PvstRx      uint64
	ConfigTx    uint64
	TcnTx       uint64
	RstpTx      uint64
	MstpTx      uint64
	MalformedRx uint64
	DropRx      uint64
}

// StpPort holds the per port variables that are shared by every tree 13.27
type StpPort struct {
	b *Bridge

	Name         string
	IfIndex      int32
	HardwareAddr net.HardwareAddr

	// PortEnabled is LinkUp and not AdminDisabled and not shut by bpdu guard
	PortEnabled     bool
	LinkUp          bool
	FullDuplex      bool
	AdminDisabled   bool
	BpduGuard       bool
	BpduGuardActive bool

	// 13.25
	AdminEdge      bool
	AutoEdge       bool
	OperEdge       bool
	AdminPt2Pt     PointToPointMac
	OperPt2Pt      bool
	RestrictedRole bool
	RestrictedTcn  bool
	Mcheck         bool

	RcvdBpdu     bool
	RcvdRSTP     bool
	RcvdSTP      bool
	RcvdInternal bool
	RcvdTcn      bool
	RcvdTcAck    bool

	SendRSTP    bool
	TcAck       bool
	NewInfoCist bool
	NewInfoMsti bool
	TxCount     uint32

	// 13.23 timers in seconds
	MdelayWhile    uint16
	HelloWhen      uint16
	EdgeDelayWhile uint16

	PpmmMachineFsm *PpmmMachine
	PtxmMachineFsm *PtxmMachine
	PrxmMachineFsm *PrxmMachine
	BdmMachineFsm  *BdmMachine

	Cist *TreePort
	Msti [MaxMstInstances]*TreePort
	// MSTI slots this port belongs to
	InstMask uint64

	Stats StpPortStats
}

// TreePort holds the per port per tree variables 13.24
type TreePort struct {
	p     *StpPort
	t     *TreeBridge
	Index MstIndex

	PortId      PortId
	Priority    uint8
	IntPathCost uint32
	ExtPathCost uint32

	// 13.23 timers
	FdWhile       uint16
	RrWhile       uint16
	RbWhile       uint16
	TcWhile       uint16
	RcvdInfoWhile uint16

	Agree         bool
	Agreed        bool
	Proposed      bool
	Proposing     bool
	Sync          bool
	Synced        bool
	ReRoot        bool
	Selected      bool
	Disputed      bool
	Forward       bool
	Forwarding    bool
	Learn         bool
	Learning      bool
	TcProp        bool
	UpdtInfo      bool
	RcvdMsg       bool
	RcvdTc        bool
	Master        bool
	Mastered      bool
	FdbFlush      bool
	ChangedMaster bool

	InfoIs       PortInfoState
	// rcvdInternal when the port priority was last recorded
	InfoInternal bool
	RcvdInfo     PortDesignatedRcvInfo
	Role         PortRole
	SelectedRole PortRole

	DesignatedPriority PriorityVector
	DesignatedTimes    Times
	PortPriority       PriorityVector
	PortTimes          Times
	MsgPriority        PriorityVector
	MsgTimes           Times
	MsgFlags           uint8
	MsgType            BPDURxType

	PimMachineFsm *PimMachine
	PrtMachineFsm *PrtMachine
	PstMachineFsm *PstMachine
	TcMachineFsm  *TcMachine

	ForwardTransitions uint64
	MsgRx              uint64
	MsgTx              uint64
}

func (tp *TreePort) Port() *StpPort       { return tp.p }
func (tp *TreePort) Tree() *TreeBridge    { return tp.t }
func (tp *TreePort) IsCist() bool         { return tp.Index.IsCist() }
func (tp *TreePort) Cist() *TreePort      { return tp.p.Cist }
func (tp *TreePort) bridge() *Bridge      { return tp.p.b }
func (tp *TreePort) cistRootTimes() Times { return tp.p.b.Cist.RootTimes }

// Tree returns the port's membership in slot idx, nil when not a member
func (p *StpPort) Tree(idx MstIndex) *TreePort {
	if idx.IsCist() {
		return p.Cist
	}
	if idx.IsMsti() {
		return p.Msti[idx]
	}
	return nil
}

// MstiPorts returns the MSTI memberships ordered by slot
func (p *StpPort) MstiPorts() []*TreePort {
	tps := make([]*TreePort, 0)
	for i := MstiIndexMin; i <= MstiIndexMax; i++ {
		if p.InstMask&(1<<uint(i)) != 0 && p.Msti[i] != nil {
			tps = append(tps, p.Msti[i])
		}
	}
	return tps
}

// TreePortList returns the CIST membership followed by the MSTI memberships
func (p *StpPort) TreePortList() []*TreePort {
	return append([]*TreePort{p.Cist}, p.MstiPorts()...)
}

func (p *StpPort) HasMsti() bool { return p.InstMask != 0 }

func (p *StpPort) Bridge() *Bridge { return p.b }

// updatePortEnabled recomputes PortEnabled and returns true if it changed
func (p *StpPort) updatePortEnabled() bool {
	ena := p.LinkUp && !p.AdminDisabled && !p.BpduGuardActive
	if ena == p.PortEnabled {
		return false
	}
	p.PortEnabled = ena
	if ena {
		p.b.EnableMask.Set(int(p.IfIndex))
	} else {
		p.b.EnableMask.Clear(int(p.IfIndex))
	}
	return true
}

// updateOperPt2Pt 6.6.3
func (p *StpPort) updateOperPt2Pt(linkFullDuplex bool) {
	switch p.AdminPt2Pt {
	case StpPointToPointForceTrue:
		p.OperPt2Pt = true
	case StpPointToPointForceFalse:
		p.OperPt2Pt = false
	default:
		p.OperPt2Pt = linkFullDuplex
	}
}

// NewStpPort adds a port to the CIST
func (b *Bridge) NewStpPort(c *StpPortConfig) (*StpPort, error) {
	if err := StpPortConfigParamCheck(c); err != nil {
		return nil, err
	}
	if _, ok := b.PortMap[c.IfIndex]; ok {
		return nil, fmt.Errorf("port %d: %w", c.IfIndex, ErrPortExists)
	}
	p := &StpPort{
		b:              b,
		Name:           c.Name,
		IfIndex:        c.IfIndex,
		HardwareAddr:   c.hwAddr(),
		AdminEdge:      c.AdminEdge,
		AutoEdge:       c.AutoEdge,
		AdminPt2Pt:     PointToPointMac(c.AdminPt2Pt),
		RestrictedRole: c.RootGuard,
		RestrictedTcn:  c.RestrictedTcn,
		AdminDisabled:  c.AdminDisable,
		BpduGuard:      c.BpduGuard,
		FullDuplex:     true,
	}
	p.updateOperPt2Pt(p.FullDuplex)
	p.PpmmMachineFsm = PpmMachineFSMBuild(p)
	p.PtxmMachineFsm = PtxmMachineFSMBuild(p)
	p.PrxmMachineFsm = PrxmMachineFSMBuild(p)
	p.BdmMachineFsm = BdmMachineFSMBuild(p)

	b.PortMap[p.IfIndex] = p
	b.addPortToList(p.IfIndex)

	p.Cist = newTreePort(p, b.Cist, c.Priority, c.pathCost())
	p.Cist.ExtPathCost = c.pathCost()
	b.Cist.PortMask.Set(int(p.IfIndex))

	if b.Active {
		p.begin()
		p.Cist.begin()
		b.Cist.Reselect = true
		b.signal(MachinePrs, 0, CistIndex)
	}
	StpLogger("INFO", fmt.Sprintf("NEW PORT: %s ifindex %d port id %s", p.Name, p.IfIndex, p.Cist.PortId))
	return p, nil
}

// DelStpPort removes a port from every tree
func (b *Bridge) DelStpPort(p *StpPort) {
	for _, tp := range p.MstiPorts() {
		b.removePortFromTree(p, tp.t)
	}
	if b.Active {
		b.hwSetPortState(CistMstId, p.IfIndex, PortStateForwarding)
	}
	b.Cist.PortMask.Clear(int(p.IfIndex))
	b.EnableMask.Clear(int(p.IfIndex))
	delete(b.PortMap, p.IfIndex)
	b.delPortFromList(p.IfIndex)
	b.dropPortSignals(p.IfIndex)
	if b.Active {
		b.Cist.Reselect = true
		b.signal(MachinePrs, 0, CistIndex)
	}
	StpLogger("INFO", fmt.Sprintf("DEL PORT: %s ifindex %d", p.Name, p.IfIndex))
}

func newTreePort(p *StpPort, tb *TreeBridge, priority uint8, pathCost uint32) *TreePort {
	tp := &TreePort{
		p:            p,
		t:            tb,
		Index:        tb.Index,
		Priority:     priority,
		PortId:       CreatePortId(priority, p.IfIndex),
		IntPathCost:  pathCost,
		InfoIs:       PortInfoStateDisabled,
		Role:         PortRoleDisabled,
		SelectedRole: PortRoleDisabled,
	}
	tp.PimMachineFsm = PimMachineFSMBuild(tp)
	tp.PrtMachineFsm = PrtMachineFSMBuild(tp)
	tp.PstMachineFsm = PstMachineFSMBuild(tp)
	tp.TcMachineFsm = TcMachineFSMBuild(tp)
	if tb.IsCist() {
		p.Cist = tp
	} else {
		p.Msti[tb.Index] = tp
		p.InstMask |= 1 << uint(tb.Index)
	}
	return tp
}

// addPortToTree creates the MSTI membership of a port
func (b *Bridge) addPortToTree(p *StpPort, tb *TreeBridge) *TreePort {
	if tp := p.Tree(tb.Index); tp != nil {
		return tp
	}
	tp := newTreePort(p, tb, p.Cist.Priority, p.Cist.IntPathCost)
	tb.PortMask.Set(int(p.IfIndex))
	if b.Active {
		tp.begin()
		tb.Reselect = true
		b.signal(MachinePrs, 0, tb.Index)
	}
	StpMachineLogger("INFO", PortConfigModuleStr, p.IfIndex, tb.MstId, "added to instance")
	return tp
}

// removePortFromTree drops the MSTI membership and hands the port back to
// the kernel forwarding for that instance
func (b *Bridge) removePortFromTree(p *StpPort, tb *TreeBridge) {
	tp := p.Tree(tb.Index)
	if tp == nil || tb.IsCist() {
		return
	}
	p.Msti[tb.Index] = nil
	p.InstMask &^= 1 << uint(tb.Index)
	tb.PortMask.Clear(int(p.IfIndex))
	if b.Active {
		b.hwSetPortState(tb.MstId, p.IfIndex, PortStateForwarding)
		tb.Reselect = true
		b.signal(MachinePrs, 0, tb.Index)
	}
	StpMachineLogger("INFO", PortConfigModuleStr, p.IfIndex, tb.MstId, "removed from instance")
}

// begin puts the per port machines into their initial state
func (p *StpPort) begin() {
	p.RcvdBpdu = false
	p.RcvdRSTP = false
	p.RcvdSTP = false
	p.RcvdInternal = false
	p.RcvdTcn = false
	p.RcvdTcAck = false
	p.TcAck = false
	p.OperEdge = p.AdminEdge
	p.PpmmMachineFsm.begin()
	p.PrxmMachineFsm.begin()
	p.PtxmMachineFsm.begin()
	p.BdmMachineFsm.begin()
	p.b.signal(MachinePpm, p.IfIndex, CistIndex)
	p.b.signal(MachinePtx, p.IfIndex, CistIndex)
	p.b.signal(MachineBdm, p.IfIndex, CistIndex)
}

// begin puts the per tree port machines into their initial state
func (tp *TreePort) begin() {
	tp.FdWhile = 0
	tp.RrWhile = 0
	tp.RbWhile = 0
	tp.TcWhile = 0
	tp.RcvdInfoWhile = 0
	tp.Agree = false
	tp.Agreed = false
	tp.Proposed = false
	tp.Proposing = false
	tp.Sync = false
	tp.Synced = false
	tp.ReRoot = false
	tp.Selected = false
	tp.Disputed = false
	tp.UpdtInfo = false
	tp.RcvdMsg = false
	tp.RcvdTc = false
	tp.TcProp = false
	tp.Master = false
	tp.Mastered = false
	tp.ChangedMaster = false
	tp.SelectedRole = PortRoleDisabled
	tp.PimMachineFsm.begin()
	tp.PrtMachineFsm.begin()
	tp.PstMachineFsm.begin()
	tp.TcMachineFsm.begin()
	b := tp.bridge()
	b.signal(MachinePim, tp.p.IfIndex, tp.Index)
	b.signal(MachinePrt, tp.p.IfIndex, tp.Index)
	b.signal(MachineTcm, tp.p.IfIndex, tp.Index)
}

// setPortEnabled reinitialises the machines when the port goes down and
// kicks them when it comes back
func (p *StpPort) setPortEnabled() {
	b := p.b
	if !p.updatePortEnabled() || !b.Active {
		return
	}
	if p.PortEnabled {
		StpLogger("INFO", fmt.Sprintf("PORT %d enabled", p.IfIndex))
		p.OperEdge = p.AdminEdge
		p.BdmMachineFsm.begin()
		for _, tp := range p.TreePortList() {
			b.signal(MachinePim, p.IfIndex, tp.Index)
			b.signal(MachinePrt, p.IfIndex, tp.Index)
		}
		b.signal(MachinePpm, p.IfIndex, CistIndex)
		b.signal(MachinePtx, p.IfIndex, CistIndex)
		b.signal(MachineBdm, p.IfIndex, CistIndex)
		return
	}
	StpLogger("INFO", fmt.Sprintf("PORT %d disabled", p.IfIndex))
	p.begin()
	for _, tp := range p.TreePortList() {
		tp.begin()
		tp.t.Reselect = true
		b.signal(MachinePrs, 0, tp.Index)
	}
}

// 13.27.1 newTcWhile
func (tp *TreePort) newTcWhile() {
	if tp.TcWhile != 0 {
		return
	}
	p := tp.p
	if p.SendRSTP {
		tp.TcWhile = p.Cist.PortTimes.HelloTime + 1
		if tp.IsCist() {
			p.NewInfoCist = true
		} else {
			p.NewInfoMsti = true
		}
		return
	}
	rt := tp.cistRootTimes()
	tp.TcWhile = rt.MaxAge + rt.ForwardDelay
}

func (tp *TreePort) setNewInfo() {
	if tp.IsCist() {
		tp.p.NewInfoCist = true
	} else {
		tp.p.NewInfoMsti = true
	}
}

// boundary ports receive from outside the region
func (tp *TreePort) isBoundary() bool {
	return !tp.p.RcvdInternal
}
