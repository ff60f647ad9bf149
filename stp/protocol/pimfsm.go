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

// 802.1Q-2014 13.32 Port Information state machine
// One instance runs for the CIST and for each MSTI on every port.  It records
// the origin (infoIs) of the spanning tree information held by the port
// (portPriority, portTimes) and compares it against received messages
// (msgPriority, msgTimes).  New superior information, or information that
// ages out, sets reselect so the Port Role Selection machine recomputes the
// roles of the tree.
package stp

import (
	"fmt"

	"l2mstp/utils/fsm"
)

const PimMachineModuleStr = "Port Information State Machine"

const (
	PimStateNone = iota + 1
	PimStateDisabled
	PimStateAged
	PimStateUpdate
	PimStateSuperiorDesignated
	PimStateRepeatedDesignated
	PimStateInferiorDesignated
	PimStateNotDesignated
	PimStateOther
	PimStateCurrent
	PimStateReceive
)

var PimStateStrMap map[fsm.State]string

func PimMachineStrStateMapInit() {
	PimStateStrMap = make(map[fsm.State]string)
	PimStateStrMap[PimStateNone] = "None"
	PimStateStrMap[PimStateDisabled] = "Disabled"
	PimStateStrMap[PimStateAged] = "Aged"
	PimStateStrMap[PimStateUpdate] = "Update"
	PimStateStrMap[PimStateSuperiorDesignated] = "Superior Designated"
	PimStateStrMap[PimStateRepeatedDesignated] = "Repeated Designated"
	PimStateStrMap[PimStateInferiorDesignated] = "Inferior Designated"
	PimStateStrMap[PimStateNotDesignated] = "Not Designated"
	PimStateStrMap[PimStateOther] = "Other"
	PimStateStrMap[PimStateCurrent] = "Current"
	PimStateStrMap[PimStateReceive] = "Receive"
}

const (
	PimEventBegin = iota + 1
	PimEventNotPortEnabledInfoIsNotEqualDisabled
	PimEventRcvdXstMsg
	PimEventPortEnabled
	PimEventSelectedAndUpdtInfo
	PimEventInfoIsEqualReceivedAndRcvdInfoWhileEqualZeroAndNotUpdtInfoAndNotRcvdXstMsg
	PimEventRcvdXstMsgAndNotUpdtXstInfo
	PimEventRcvdInfoEqualSuperiorDesignatedInfo
	PimEventRcvdInfoEqualRepeatedDesignatedInfo
	PimEventRcvdInfoEqualInferiorDesignatedInfo
	PimEventRcvdInfoEqualRootInfo
	PimEventRcvdInfoEqualOtherInfo
)

// PimMachine holds the FSM of one tree port
type PimMachine struct {
	Machine *fsm.Machine

	// Reference to the tree port
	tp *TreePort
}

func (pim *PimMachine) GetCurrStateStr() string {
	return PimStateStrMap[pim.Machine.Curr.CurrentState()]
}

func (pim *PimMachine) PimLogger(s string) {
	StpMachineLogger("DEBUG", "PIM", pim.tp.p.IfIndex, pim.tp.t.MstId, s)
}

// Apply a ruleset to this instance's state machine
func (pim *PimMachine) Apply(r *fsm.Ruleset) *fsm.Machine {
	if pim.Machine == nil {
		pim.Machine = &fsm.Machine{}
	}
	pim.Machine.Rules = r
	pim.Machine.Curr = newStpStateEvent(PimMachineModuleStr, PimStateStrMap, PimStateNone, pim.PimLogger)
	return pim.Machine
}

// PimMachineDisabled
func (pim *PimMachine) PimMachineDisabled(m fsm.Machine, data interface{}) fsm.State {
	tp := pim.tp
	tp.RcvdMsg = false
	tp.Proposing = false
	tp.Proposed = false
	tp.Agree = false
	tp.Agreed = false
	tp.RcvdInfoWhile = 0
	tp.InfoIs = PortInfoStateDisabled
	tp.setReselect()
	tp.Selected = false
	return PimStateDisabled
}

// PimMachineAged
func (pim *PimMachine) PimMachineAged(m fsm.Machine, data interface{}) fsm.State {
	tp := pim.tp
	tp.InfoIs = PortInfoStateAged
	tp.setReselect()
	tp.Selected = false
	return PimStateAged
}

// PimMachineUpdate falls through to CURRENT
func (pim *PimMachine) PimMachineUpdate(m fsm.Machine, data interface{}) fsm.State {
	tp := pim.tp
	p := tp.p
	tp.Proposed = false
	tp.Proposing = false
	tp.Agreed = tp.Agreed && tp.betterorsameInfo(PortInfoStateMine)
	tp.Synced = tp.Synced && tp.Agreed

	if tp.isBoundary() {
		cp := p.Cist
		if tp.IsCist() {
			for _, mp := range p.MstiPorts() {
				mp.Sync = cp.ChangedMaster
				mp.boundaryCopyFromCist()
			}
		} else {
			tp.boundaryCopyFromCist()
		}
	}

	tp.ChangedMaster = false
	tp.UpdtInfo = false
	tp.InfoIs = PortInfoStateMine
	tp.PortPriority = tp.DesignatedPriority
	tp.PortTimes = tp.DesignatedTimes
	tp.setNewInfo()
	return PimStateCurrent
}

// PimMachineCurrent
func (pim *PimMachine) PimMachineCurrent(m fsm.Machine, data interface{}) fsm.State {
	return PimStateCurrent
}

// PimMachineReceive
func (pim *PimMachine) PimMachineReceive(m fsm.Machine, data interface{}) fsm.State {
	tp := pim.tp
	tp.RcvdInfo = tp.rcvInfo()
	tp.recordMastered()
	StpMachineLogger("DEBUG", "PIM", tp.p.IfIndex, tp.t.MstId, fmt.Sprintf("rcvdInfo %s", tp.RcvdInfo))
	return PimStateReceive
}

// PimMachineSuperiorDesignated falls through to CURRENT
func (pim *PimMachine) PimMachineSuperiorDesignated(m fsm.Machine, data interface{}) fsm.State {
	tp := pim.tp
	p := tp.p
	tp.InfoInternal = p.RcvdInternal
	tp.Agreed = false
	tp.Proposing = false
	tp.recordProposal()
	tp.setTcFlags()
	tp.Agree = tp.Agree && tp.betterorsameInfo(PortInfoStateReceived)
	if tp.IsCist() && tp.isBoundary() {
		for _, mp := range p.MstiPorts() {
			mp.Agree = tp.Agree
		}
	}
	tp.recordAgreement()
	tp.Synced = tp.Synced && tp.Agreed
	tp.recordPriority()
	tp.recordTimes()
	tp.updtRcvdInfoWhile()
	tp.InfoIs = PortInfoStateReceived
	tp.setReselect()
	tp.Selected = false
	tp.RcvdMsg = false
	return PimStateCurrent
}

// PimMachineRepeatedDesignated falls through to CURRENT
func (pim *PimMachine) PimMachineRepeatedDesignated(m fsm.Machine, data interface{}) fsm.State {
	tp := pim.tp
	tp.InfoInternal = tp.p.RcvdInternal
	tp.recordProposal()
	tp.setTcFlags()
	tp.recordAgreement()
	tp.updtRcvdInfoWhile()
	tp.RcvdMsg = false
	return PimStateCurrent
}

// PimMachineInferiorDesignated falls through to CURRENT
func (pim *PimMachine) PimMachineInferiorDesignated(m fsm.Machine, data interface{}) fsm.State {
	tp := pim.tp
	tp.recordDispute()
	tp.RcvdMsg = false
	return PimStateCurrent
}

// PimMachineNotDesignated falls through to CURRENT
func (pim *PimMachine) PimMachineNotDesignated(m fsm.Machine, data interface{}) fsm.State {
	tp := pim.tp
	tp.recordAgreement()
	tp.setTcFlags()
	tp.RcvdMsg = false
	return PimStateCurrent
}

// PimMachineOther falls through to CURRENT
func (pim *PimMachine) PimMachineOther(m fsm.Machine, data interface{}) fsm.State {
	pim.tp.RcvdMsg = false
	return PimStateCurrent
}

func PimMachineFSMBuild(tp *TreePort) *PimMachine {
	rules := fsm.Ruleset{}

	pim := &PimMachine{tp: tp}

	allStates := []fsm.State{
		PimStateNone,
		PimStateDisabled,
		PimStateAged,
		PimStateUpdate,
		PimStateSuperiorDesignated,
		PimStateRepeatedDesignated,
		PimStateInferiorDesignated,
		PimStateNotDesignated,
		PimStateOther,
		PimStateCurrent,
		PimStateReceive,
	}
	for _, s := range allStates {
		// BEGIN -> DISABLED
		rules.AddRule(s, PimEventBegin, pim.PimMachineDisabled)
		// NOT PORT ENABLED and INFOIS != DISABLED -> DISABLED
		if s != PimStateNone {
			rules.AddRule(s, PimEventNotPortEnabledInfoIsNotEqualDisabled, pim.PimMachineDisabled)
		}
	}

	// RCVDXSTMSG -> DISABLED
	rules.AddRule(PimStateDisabled, PimEventRcvdXstMsg, pim.PimMachineDisabled)

	// PORT ENABLED -> AGED
	rules.AddRule(PimStateDisabled, PimEventPortEnabled, pim.PimMachineAged)

	// SELECTED and UPDTINFO -> UPDATE
	rules.AddRule(PimStateAged, PimEventSelectedAndUpdtInfo, pim.PimMachineUpdate)
	rules.AddRule(PimStateCurrent, PimEventSelectedAndUpdtInfo, pim.PimMachineUpdate)

	// INFOIS == RECEIVED and RCVDINFOWHILE == 0 and NOT UPDTINFO and NOT RCVDXSTMSG -> AGED
	rules.AddRule(PimStateCurrent, PimEventInfoIsEqualReceivedAndRcvdInfoWhileEqualZeroAndNotUpdtInfoAndNotRcvdXstMsg, pim.PimMachineAged)

	// RCVDXSTMSG and NOT UPDTXSTINFO -> RECEIVE
	rules.AddRule(PimStateCurrent, PimEventRcvdXstMsgAndNotUpdtXstInfo, pim.PimMachineReceive)

	// RCVDINFO == SUPERIORDESIGNATEDINFO -> SUPERIOR DESIGNATED
	rules.AddRule(PimStateReceive, PimEventRcvdInfoEqualSuperiorDesignatedInfo, pim.PimMachineSuperiorDesignated)

	// RCVDINFO == REPEATEDDESIGNATEDINFO -> REPEATED DESIGNATED
	rules.AddRule(PimStateReceive, PimEventRcvdInfoEqualRepeatedDesignatedInfo, pim.PimMachineRepeatedDesignated)

	// RCVDINFO == INFERIORDESIGNATEDINFO -> INFERIOR DESIGNATED
	rules.AddRule(PimStateReceive, PimEventRcvdInfoEqualInferiorDesignatedInfo, pim.PimMachineInferiorDesignated)

	// RCVDINFO == ROOTINFO -> NOT DESIGNATED
	rules.AddRule(PimStateReceive, PimEventRcvdInfoEqualRootInfo, pim.PimMachineNotDesignated)

	// RCVDINFO == OTHERINFO -> OTHER
	rules.AddRule(PimStateReceive, PimEventRcvdInfoEqualOtherInfo, pim.PimMachineOther)

	pim.Apply(&rules)
	return pim
}

func (pim *PimMachine) begin() {
	if err := pim.Machine.ProcessEvent(PimMachineModuleStr, PimEventBegin, nil); err != nil {
		pim.PimLogger(err.Error())
	}
}

// nextEvent returns the first enabled transition out of the current state
func (pim *PimMachine) nextEvent() (fsm.Event, bool) {
	tp := pim.tp
	p := tp.p
	if !p.PortEnabled && tp.InfoIs != PortInfoStateDisabled {
		return PimEventNotPortEnabledInfoIsNotEqualDisabled, true
	}
	switch pim.Machine.Curr.CurrentState() {
	case PimStateDisabled:
		if tp.rcvdXstMsg() {
			return PimEventRcvdXstMsg, true
		}
		if p.PortEnabled {
			return PimEventPortEnabled, true
		}
	case PimStateAged:
		if tp.Selected && tp.UpdtInfo {
			return PimEventSelectedAndUpdtInfo, true
		}
	case PimStateCurrent:
		if tp.Selected && tp.UpdtInfo {
			return PimEventSelectedAndUpdtInfo, true
		}
		if tp.InfoIs == PortInfoStateReceived && tp.RcvdInfoWhile == 0 &&
			!tp.UpdtInfo && !tp.rcvdXstMsg() {
			return PimEventInfoIsEqualReceivedAndRcvdInfoWhileEqualZeroAndNotUpdtInfoAndNotRcvdXstMsg, true
		}
		if tp.rcvdXstMsg() && !tp.updtXstInfo() {
			return PimEventRcvdXstMsgAndNotUpdtXstInfo, true
		}
	case PimStateReceive:
		switch tp.RcvdInfo {
		case SuperiorDesignatedInfo:
			return PimEventRcvdInfoEqualSuperiorDesignatedInfo, true
		case RepeatedDesignatedInfo:
			return PimEventRcvdInfoEqualRepeatedDesignatedInfo, true
		case InferiorDesignatedInfo:
			return PimEventRcvdInfoEqualInferiorDesignatedInfo, true
		case RootInfo:
			return PimEventRcvdInfoEqualRootInfo, true
		default:
			return PimEventRcvdInfoEqualOtherInfo, true
		}
	}
	return 0, false
}

// Gate evaluates the machine and signals the machines that read the
// variables it writes
func (pim *PimMachine) Gate() {
	if !runMachine(pim.Machine, PimMachineModuleStr, pim.nextEvent, nil) {
		return
	}
	tp := pim.tp
	p := tp.p
	b := tp.bridge()

	if p.RcvdTcn || p.RcvdTcAck || tp.RcvdTc {
		b.signal(MachineTcm, p.IfIndex, tp.Index)
	}
	if !tp.Selected {
		b.signal(MachinePrs, 0, tp.Index)
	}
	b.signal(MachinePrt, p.IfIndex, tp.Index)
	if tp.IsCist() {
		// MSTI receive and update gating reads the CIST variables
		for _, mp := range p.MstiPorts() {
			b.signal(MachinePim, p.IfIndex, mp.Index)
			if tp.isBoundary() {
				b.signal(MachinePrt, p.IfIndex, mp.Index)
				if mp.RcvdTc {
					b.signal(MachineTcm, p.IfIndex, mp.Index)
				}
			}
		}
	}
	if p.NewInfoCist || p.NewInfoMsti {
		b.signal(MachinePtx, p.IfIndex, CistIndex)
	}
}

// rcvdXstMsg 13.25 rcvdCistMsg / rcvdMstiMsg
func (tp *TreePort) rcvdXstMsg() bool {
	if tp.IsCist() {
		return tp.RcvdMsg
	}
	return tp.RcvdMsg && !tp.p.Cist.RcvdMsg
}

// updtXstInfo 13.25 updtCistInfo / updtMstiInfo
func (tp *TreePort) updtXstInfo() bool {
	if tp.IsCist() {
		return tp.UpdtInfo
	}
	return tp.UpdtInfo || tp.p.Cist.UpdtInfo
}

// setReselect asks the Port Role Selection machine to run.  Information
// arriving on a boundary port affects every MSTI of the port.
func (tp *TreePort) setReselect() {
	b := tp.bridge()
	tp.t.Reselect = true
	b.signal(MachinePrs, 0, tp.Index)
	if tp.IsCist() && tp.isBoundary() {
		for _, mp := range tp.p.MstiPorts() {
			mp.t.Reselect = true
			b.signal(MachinePrs, 0, mp.Index)
		}
	}
}

// boundaryCopyFromCist makes an MSTI follow the CIST on a boundary port
func (tp *TreePort) boundaryCopyFromCist() {
	cp := tp.p.Cist
	tp.Agreed = cp.Agreed
	tp.Synced = cp.Synced
	tp.Proposed = cp.Proposed
	tp.RrWhile = 0
	tp.ReRoot = false
	if tp.Sync && !tp.Synced {
		tp.Learning = false
		tp.Forwarding = false
	}
}

// 13.27.2 betterorsameInfo
func (tp *TreePort) betterorsameInfo(newInfoIs PortInfoState) bool {
	if tp.InfoIs != newInfoIs {
		return false
	}
	switch newInfoIs {
	case PortInfoStateReceived:
		return CompareVectors(&tp.MsgPriority, &tp.PortPriority) <= 0
	case PortInfoStateMine:
		return CompareVectors(&tp.DesignatedPriority, &tp.PortPriority) <= 0
	}
	return false
}

// 13.27.9 rcvInfo
func (tp *TreePort) rcvInfo() PortDesignatedRcvInfo {
	if tp.IsCist() {
		return tp.rcvInfoCist()
	}
	return tp.rcvInfoMsti()
}

func (tp *TreePort) rcvInfoCist() PortDesignatedRcvInfo {
	if tp.MsgType == BPDURxTypeTopo {
		return OtherInfo
	}
	msg := &tp.MsgPriority
	port := &tp.PortPriority
	role := StpGetBpduRole(tp.MsgFlags)
	result := CompareVectors(msg, port)

	if tp.MsgType == BPDURxTypeSTP || role == PortRoleDesignated {
		if result < 0 {
			// our own address under another identifier is stale information
			// still circulating after a priority change
			if CompareBridgeAddr(msg.RootBridgeId, tp.t.BridgeIdentifier) == 0 &&
				CompareBridgeId(msg.RootBridgeId, tp.t.BridgeIdentifier) != 0 {
				StpMachineLogger("INFO", "PIM", tp.p.IfIndex, tp.t.MstId,
					fmt.Sprintf("ignoring stale root %s", msg.RootBridgeId))
				return OtherInfo
			}
			return SuperiorDesignatedInfo
		}
		timesEqual := TimesEqual(&tp.MsgTimes, &tp.PortTimes)
		if result == 0 && !timesEqual {
			return SuperiorDesignatedInfo
		}
		// same designated bridge and port sending worse information
		if CompareBridgeAddr(msg.DesignatedBridgeId, port.DesignatedBridgeId) == 0 &&
			msg.DesignatedPortId.Number() == port.DesignatedPortId.Number() && result > 0 {
			return SuperiorDesignatedInfo
		}
		if result == 0 && timesEqual && tp.InfoIs == PortInfoStateReceived {
			return RepeatedDesignatedInfo
		}
		if result > 0 {
			return InferiorDesignatedInfo
		}
	}
	if (role == PortRoleRoot || role == PortRoleAlternate) && result >= 0 {
		return RootInfo
	}
	return OtherInfo
}

func (tp *TreePort) rcvInfoMsti() PortDesignatedRcvInfo {
	msg := &tp.MsgPriority
	port := &tp.PortPriority
	role := StpGetBpduRole(tp.MsgFlags)
	result := CompareVectors(msg, port)

	if role == PortRoleDesignated {
		if result < 0 {
			if CompareBridgeAddr(msg.RegionalRootId, tp.t.BridgeIdentifier) == 0 &&
				CompareBridgeId(msg.RegionalRootId, tp.t.BridgeIdentifier) != 0 {
				StpMachineLogger("INFO", "PIM", tp.p.IfIndex, tp.t.MstId,
					fmt.Sprintf("ignoring stale regional root %s", msg.RegionalRootId))
				return OtherInfo
			}
			return SuperiorDesignatedInfo
		}
		if CompareBridgeAddr(msg.DesignatedBridgeId, port.DesignatedBridgeId) == 0 &&
			msg.DesignatedPortId.Number() == port.DesignatedPortId.Number() && result > 0 {
			return SuperiorDesignatedInfo
		}
		hopsEqual := tp.MsgTimes.RemainingHops == tp.PortTimes.RemainingHops
		if result == 0 && !hopsEqual {
			return SuperiorDesignatedInfo
		}
		if result == 0 && hopsEqual && tp.InfoIs == PortInfoStateReceived {
			return RepeatedDesignatedInfo
		}
		if result > 0 {
			return InferiorDesignatedInfo
		}
	}
	if (role == PortRoleRoot || role == PortRoleAlternate) && result >= 0 {
		return RootInfo
	}
	return OtherInfo
}

// 13.27.10 recordAgreement
func (tp *TreePort) recordAgreement() {
	p := tp.p
	b := tp.bridge()
	if tp.IsCist() {
		if b.ForceVersion >= StpVersionRstp && p.OperPt2Pt && StpGetBpduAgreement(tp.MsgFlags) {
			tp.Agreed = true
			tp.Proposing = false
		} else {
			tp.Agreed = false
		}
		if tp.isBoundary() {
			for _, mp := range p.MstiPorts() {
				mp.Agreed = tp.Agreed
				mp.Proposing = tp.Proposing
			}
		}
		return
	}
	if !p.RcvdInternal {
		return
	}
	cp := p.Cist
	if p.OperPt2Pt && StpGetBpduAgreement(tp.MsgFlags) &&
		CompareBridgeId(cp.MsgPriority.RootBridgeId, cp.PortPriority.RootBridgeId) == 0 &&
		cp.MsgPriority.ExtRootPathCost == cp.PortPriority.ExtRootPathCost &&
		CompareBridgeId(cp.MsgPriority.RegionalRootId, cp.PortPriority.RegionalRootId) == 0 {
		tp.Agreed = true
		tp.Proposing = false
	} else {
		tp.Agreed = false
	}
}

// 13.27.11 recordMastered
func (tp *TreePort) recordMastered() {
	p := tp.p
	if tp.IsCist() {
		if tp.isBoundary() {
			for _, mp := range p.MstiPorts() {
				mp.Mastered = false
			}
		}
		return
	}
	if p.RcvdInternal {
		tp.Mastered = p.OperPt2Pt && StpGetBpduMaster(tp.MsgFlags)
	}
}

// 13.27.12 recordProposal
func (tp *TreePort) recordProposal() {
	p := tp.p
	if StpGetBpduRole(tp.MsgFlags) != PortRoleDesignated || !StpGetBpduProposal(tp.MsgFlags) {
		return
	}
	if tp.IsCist() {
		tp.Proposed = true
		if tp.isBoundary() {
			for _, mp := range p.MstiPorts() {
				mp.Proposed = true
			}
		}
		return
	}
	if p.RcvdInternal {
		tp.Proposed = true
	}
}

// 13.27.13 recordDispute
func (tp *TreePort) recordDispute() {
	if !StpGetBpduLearning(tp.MsgFlags) {
		return
	}
	tp.Agreed = false
	tp.Disputed = true
	if tp.IsCist() && tp.isBoundary() {
		for _, mp := range tp.p.MstiPorts() {
			mp.Agreed = false
			mp.Disputed = true
		}
	}
}

// 13.27.14 recordPriority
func (tp *TreePort) recordPriority() {
	tp.PortPriority = tp.MsgPriority
}

// 13.27.15 recordTimes
func (tp *TreePort) recordTimes() {
	tp.PortTimes = tp.MsgTimes
	if tp.IsCist() && tp.PortTimes.HelloTime < BridgeHelloTimeMin {
		tp.PortTimes.HelloTime = BridgeHelloTimeMin
	}
}

// 13.27.25 setTcFlags
func (tp *TreePort) setTcFlags() {
	p := tp.p
	if p.RestrictedTcn {
		return
	}
	tc := StpGetBpduTopoChange(tp.MsgFlags)
	if !tp.IsCist() {
		if tc {
			tp.RcvdTc = true
		}
		return
	}
	if StpGetBpduTopoChangeAck(tp.MsgFlags) {
		p.RcvdTcAck = true
	}
	if tc {
		tp.RcvdTc = true
		if tp.isBoundary() {
			for _, mp := range p.MstiPorts() {
				mp.RcvdTc = true
			}
		}
	}
}

// 13.27.29 updtRcvdInfoWhile
func (tp *TreePort) updtRcvdInfoWhile() {
	p := tp.p
	hello := p.Cist.PortTimes.HelloTime
	if tp.IsCist() && !p.RcvdInternal {
		if tp.PortTimes.MessageAge+1 <= tp.PortTimes.MaxAge {
			tp.RcvdInfoWhile = 3 * hello
		} else {
			tp.RcvdInfoWhile = 0
		}
		return
	}
	if tp.PortTimes.RemainingHops > 1 {
		tp.RcvdInfoWhile = 3 * hello
	} else {
		tp.RcvdInfoWhile = 0
	}
}
