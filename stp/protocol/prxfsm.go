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

// 802.1Q-2014 13.31 Port Receive state machine
// It receives each BPDU, records the BPDU version for the Port Protocol
// Migration machine, decides whether the sender is in the same region and
// hands the CIST and MSTI messages to the Port Information machines.
package stp

import (
	"l2mstp/utils/fsm"
)

const PrxmMachineModuleStr = "Port Receive State Machine"

const (
	PrxmStateNone = iota + 1
	PrxmStateDiscard
	PrxmStateReceive
)

var PrxmStateStrMap map[fsm.State]string

func PrxmMachineStrStateMapInit() {
	PrxmStateStrMap = make(map[fsm.State]string)
	PrxmStateStrMap[PrxmStateNone] = "None"
	PrxmStateStrMap[PrxmStateDiscard] = "Discard"
	PrxmStateStrMap[PrxmStateReceive] = "Receive"
}

const (
	PrxmEventBegin = iota + 1
	PrxmEventRcvdBpduAndNotPortEnabled
	PrxmEventEdgeDelayWhileNotEqualMigrateTimeAndNotPortEnabled
	PrxmEventRcvdBpduAndPortEnabled
	PrxmEventRcvdBpduAndPortEnabledAndNotRcvdAnyMsg
)

// PrxmMachine holds the FSM of one port
type PrxmMachine struct {
	Machine *fsm.Machine

	// Reference to StpPort
	p *StpPort
}

func (prxm *PrxmMachine) GetCurrStateStr() string {
	return PrxmStateStrMap[prxm.Machine.Curr.CurrentState()]
}

func (prxm *PrxmMachine) PrxmLogger(s string) {
	StpMachineLogger("DEBUG", "PRX", prxm.p.IfIndex, CistMstId, s)
}

// Apply a ruleset to this instance's state machine
func (prxm *PrxmMachine) Apply(r *fsm.Ruleset) *fsm.Machine {
	if prxm.Machine == nil {
		prxm.Machine = &fsm.Machine{}
	}
	prxm.Machine.Rules = r
	prxm.Machine.Curr = newStpStateEvent(PrxmMachineModuleStr, PrxmStateStrMap, PrxmStateNone, prxm.PrxmLogger)
	return prxm.Machine
}

// PrxmMachineDiscard
func (prxm *PrxmMachine) PrxmMachineDiscard(m fsm.Machine, data interface{}) fsm.State {
	p := prxm.p
	p.RcvdBpdu = false
	p.clearAllRcvdMsgs()
	p.EdgeDelayWhile = MigrateTimeDefault
	return PrxmStateDiscard
}

// PrxmMachineReceive
func (prxm *PrxmMachine) PrxmMachineReceive(m fsm.Machine, data interface{}) fsm.State {
	p := prxm.p
	bpdu := data.(*Bpdu)

	prxm.updtBpduVersion(bpdu)
	wasInternal := p.RcvdInternal
	p.RcvdInternal = p.fromSameRegion(bpdu)
	if wasInternal != p.RcvdInternal {
		if p.RcvdInternal {
			StpMachineLogger("INFO", "PRX", p.IfIndex, CistMstId, "neighbor in same region, internal port")
		} else {
			StpMachineLogger("INFO", "PRX", p.IfIndex, CistMstId, "neighbor outside region, boundary port")
		}
		for _, tp := range p.TreePortList() {
			tp.t.Reselect = true
			p.b.signal(MachinePrs, 0, tp.Index)
		}
	}
	p.setRcvdMsgs(bpdu)
	p.OperEdge = false
	p.RcvdBpdu = false
	p.EdgeDelayWhile = MigrateTimeDefault
	return PrxmStateReceive
}

func PrxmMachineFSMBuild(p *StpPort) *PrxmMachine {
	rules := fsm.Ruleset{}

	prxm := &PrxmMachine{p: p}

	// BEGIN -> DISCARD
	rules.AddRule(PrxmStateNone, PrxmEventBegin, prxm.PrxmMachineDiscard)
	rules.AddRule(PrxmStateDiscard, PrxmEventBegin, prxm.PrxmMachineDiscard)
	rules.AddRule(PrxmStateReceive, PrxmEventBegin, prxm.PrxmMachineDiscard)

	// RCVDBPDU and NOT PORTENABLED -> DISCARD
	rules.AddRule(PrxmStateDiscard, PrxmEventRcvdBpduAndNotPortEnabled, prxm.PrxmMachineDiscard)
	rules.AddRule(PrxmStateReceive, PrxmEventRcvdBpduAndNotPortEnabled, prxm.PrxmMachineDiscard)

	// EDGEDELAYWHILE != MIGRATETIME and NOT PORTENABLED -> DISCARD
	rules.AddRule(PrxmStateReceive, PrxmEventEdgeDelayWhileNotEqualMigrateTimeAndNotPortEnabled, prxm.PrxmMachineDiscard)

	// RCVDBPDU and PORTENABLED -> RECEIVE
	rules.AddRule(PrxmStateDiscard, PrxmEventRcvdBpduAndPortEnabled, prxm.PrxmMachineReceive)

	// RCVDBPDU and PORTENABLED and NOT RCVDANYMSG -> RECEIVE
	rules.AddRule(PrxmStateReceive, PrxmEventRcvdBpduAndPortEnabledAndNotRcvdAnyMsg, prxm.PrxmMachineReceive)

	prxm.Apply(&rules)
	return prxm
}

func (prxm *PrxmMachine) begin() {
	if err := prxm.Machine.ProcessEvent(PrxmMachineModuleStr, PrxmEventBegin, nil); err != nil {
		prxm.PrxmLogger(err.Error())
	}
}

// nextEvent only offers the receive transitions while a BPDU is in hand
func (prxm *PrxmMachine) nextEvent(bpdu *Bpdu) (fsm.Event, bool) {
	p := prxm.p
	state := prxm.Machine.Curr.CurrentState()
	if p.RcvdBpdu && !p.PortEnabled {
		return PrxmEventRcvdBpduAndNotPortEnabled, true
	}
	switch state {
	case PrxmStateDiscard:
		if bpdu != nil && p.RcvdBpdu && p.PortEnabled {
			return PrxmEventRcvdBpduAndPortEnabled, true
		}
	case PrxmStateReceive:
		if p.EdgeDelayWhile != MigrateTimeDefault && !p.PortEnabled {
			return PrxmEventEdgeDelayWhileNotEqualMigrateTimeAndNotPortEnabled, true
		}
		if bpdu != nil && p.RcvdBpdu && p.PortEnabled && !p.rcvdAnyMsg() {
			return PrxmEventRcvdBpduAndPortEnabledAndNotRcvdAnyMsg, true
		}
	}
	return 0, false
}

// Gate evaluates the machine.  bpdu is the frame just received, nil when
// the machine is re-evaluated for any other reason.
func (prxm *PrxmMachine) Gate(bpdu *Bpdu) {
	p := prxm.p
	b := p.b
	// RECEIVE clears rcvdBpdu so the bpdu is consumed once
	next := func() (fsm.Event, bool) {
		return prxm.nextEvent(bpdu)
	}
	var data interface{}
	if bpdu != nil {
		data = bpdu
	}
	if !runMachine(prxm.Machine, PrxmMachineModuleStr, next, data) {
		if bpdu != nil && p.RcvdBpdu {
			StpMachineLogger("DEBUG", "PRX", p.IfIndex, CistMstId, "previous message not processed, dropping bpdu")
			p.Stats.DropRx++
			p.RcvdBpdu = false
		}
		return
	}

	b.signal(MachinePpm, p.IfIndex, CistIndex)
	b.signal(MachineBdm, p.IfIndex, CistIndex)
	b.signal(MachinePim, p.IfIndex, CistIndex)
	for _, tp := range p.MstiPorts() {
		b.signal(MachinePim, p.IfIndex, tp.Index)
		if !p.RcvdInternal {
			b.signal(MachinePrt, p.IfIndex, tp.Index)
		}
	}
}

// 13.27.32 updtBPDUVersion
func (prxm *PrxmMachine) updtBpduVersion(bpdu *Bpdu) {
	p := prxm.p
	switch bpdu.RxType() {
	case BPDURxTypeSTP, BPDURxTypeTopo:
		p.RcvdSTP = true
	case BPDURxTypeRSTP, BPDURxTypeMSTP:
		p.RcvdRSTP = true
	}
}

// 13.27.5 fromSameRegion
func (p *StpPort) fromSameRegion(bpdu *Bpdu) bool {
	b := p.b
	if b.ForceVersion < StpVersionMstp || bpdu.RxType() != BPDURxTypeMSTP {
		return false
	}
	return bpdu.ConfigId == b.ConfigId
}

// 13.25 rcvdAnyMsg
func (p *StpPort) rcvdAnyMsg() bool {
	for _, tp := range p.TreePortList() {
		if tp.RcvdMsg {
			return true
		}
	}
	return false
}

// 13.27.3 clearAllRcvdMsgs
func (p *StpPort) clearAllRcvdMsgs() {
	for _, tp := range p.TreePortList() {
		tp.RcvdMsg = false
	}
}

// 13.27.20 setRcvdMsgs
func (p *StpPort) setRcvdMsgs(bpdu *Bpdu) {
	b := p.b
	cp := p.Cist
	rxType := bpdu.RxType()
	cp.MsgType = rxType
	cp.MsgFlags = bpdu.Flags
	cp.RcvdMsg = true
	cp.MsgRx++

	if rxType == BPDURxTypeTopo {
		if p.RestrictedTcn {
			return
		}
		p.RcvdTcn = true
		for _, tp := range p.MstiPorts() {
			tp.RcvdTc = true
		}
		return
	}

	cp.MsgPriority = PriorityVector{
		RootBridgeId:     bpdu.CistRootId,
		ExtRootPathCost:  bpdu.CistExtPathCost,
		DesignatedPortId: bpdu.CistPortId,
	}
	if rxType == BPDURxTypeMSTP {
		cp.MsgPriority.RegionalRootId = bpdu.CistRegionalRootId
		cp.MsgPriority.IntRootPathCost = bpdu.CistIntPathCost
		cp.MsgPriority.DesignatedBridgeId = bpdu.CistBridgeId
	} else {
		// the regional root octets carry the designated bridge
		cp.MsgPriority.RegionalRootId = bpdu.CistRegionalRootId
		cp.MsgPriority.DesignatedBridgeId = bpdu.CistRegionalRootId
	}
	cp.MsgTimes = Times{
		MessageAge:    bpdu.MessageAge,
		MaxAge:        bpdu.MaxAge,
		HelloTime:     bpdu.HelloTime,
		ForwardDelay:  bpdu.ForwardDelay,
		RemainingHops: b.MaxHops,
	}
	if !p.RcvdInternal {
		return
	}
	cp.MsgTimes.RemainingHops = bpdu.CistRemainingHops

	for i := range bpdu.Msti {
		msg := &bpdu.Msti[i]
		mstid := msg.RegionalRootId.SystemId()
		tb := b.FindTree(mstid)
		if tb == nil || tb.IsCist() {
			StpMachineLogger("DEBUG", "PRX", p.IfIndex, mstid, "no such instance, ignoring msti message")
			continue
		}
		tp := p.Tree(tb.Index)
		if tp == nil {
			StpMachineLogger("DEBUG", "PRX", p.IfIndex, mstid, "port not in instance, ignoring msti message")
			continue
		}
		tp.MsgPriority = PriorityVector{
			RegionalRootId:     msg.RegionalRootId,
			IntRootPathCost:    msg.IntRootPathCost,
			DesignatedBridgeId: CreateBridgeId(bpdu.CistBridgeId.Addr(), uint16(msg.BridgePriority)<<8, mstid),
			DesignatedPortId:   PortId(uint16(msg.PortPriority)<<8 | bpdu.CistPortId.Number()),
		}
		tp.MsgTimes = Times{RemainingHops: msg.RemainingHops}
		tp.MsgFlags = msg.Flags
		tp.MsgType = rxType
		tp.RcvdMsg = true
		tp.MsgRx++
	}
}
