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

// 802.1Q-2014 13.39 Topology Change state machine
// One instance runs per tree port.  It detects topology changes, notifies
// and propagates them to the other ports of the tree, and instructs the
// filtering database to remove learned entries for the port.
package stp

import (
	"fmt"

	"l2mstp/utils/fsm"
)

const TcMachineModuleStr = "Topology Change State Machine"

const (
	TcStateNone = iota + 1
	TcStateInactive
	TcStateLearning
	TcStateDetected
	TcStateActive
	TcStateNotifiedTcn
	TcStateNotifiedTc
	TcStatePropagating
	TcStateAcknowledged
)

var TcStateStrMap map[fsm.State]string

func TcMachineStrStateMapInit() {
	TcStateStrMap = make(map[fsm.State]string)
	TcStateStrMap[TcStateNone] = "None"
	TcStateStrMap[TcStateInactive] = "Inactive"
	TcStateStrMap[TcStateLearning] = "Learning"
	TcStateStrMap[TcStateDetected] = "Detected"
	TcStateStrMap[TcStateActive] = "Active"
	TcStateStrMap[TcStateNotifiedTcn] = "NotifiedTcn"
	TcStateStrMap[TcStateNotifiedTc] = "NotifiedTc"
	TcStateStrMap[TcStatePropagating] = "Propagating"
	TcStateStrMap[TcStateAcknowledged] = "Acknowledged"
}

const (
	TcEventBegin = iota + 1
	TcEventLearnAndNotFdbFlush
	TcEventRoleActiveAndForwardAndNotOperEdge
	TcEventRcvdTcOrRcvdTcnOrRcvdTcAckOrTcProp
	TcEventRoleNotActiveAndNotLearnAndNotLearningAndNothingRcvd
	TcEventRoleNotActiveOrOperEdge
	TcEventRcvdTcn
	TcEventRcvdTc
	TcEventTcPropAndNotOperEdge
	TcEventRcvdTcAck
)

// TcMachine holds the FSM of one tree port
type TcMachine struct {
	Machine *fsm.Machine

	// Reference to the tree port
	tp *TreePort
}

func (tcm *TcMachine) GetCurrStateStr() string {
	return TcStateStrMap[tcm.Machine.Curr.CurrentState()]
}

func (tcm *TcMachine) TcLogger(s string) {
	StpMachineLogger("DEBUG", "TCM", tcm.tp.p.IfIndex, tcm.tp.t.MstId, s)
}

// Apply a ruleset to this instance's state machine
func (tcm *TcMachine) Apply(r *fsm.Ruleset) *fsm.Machine {
	if tcm.Machine == nil {
		tcm.Machine = &fsm.Machine{}
	}
	tcm.Machine.Rules = r
	tcm.Machine.Curr = newStpStateEvent(TcMachineModuleStr, TcStateStrMap, TcStateNone, tcm.TcLogger)
	return tcm.Machine
}

// flush removes the learned entries unless the port is an edge port
func (tcm *TcMachine) flush() {
	tp := tcm.tp
	if !tp.FdbFlush {
		return
	}
	tp.FdbFlush = false
	if tp.p.OperEdge {
		return
	}
	tp.bridge().hwFlush(tp.t, tp.p.IfIndex)
}

func (tcm *TcMachine) countTc() {
	tp := tcm.tp
	tb := tp.t
	tb.TcCount++
	tb.LastTcTick = tp.bridge().TickCount
	tb.TcPortIfIndex = tp.p.IfIndex
}

// TcMachineInactive
func (tcm *TcMachine) TcMachineInactive(m fsm.Machine, data interface{}) fsm.State {
	tp := tcm.tp
	tp.FdbFlush = true
	tp.TcWhile = 0
	if tp.IsCist() {
		tp.p.TcAck = false
	}
	tcm.flush()
	return TcStateInactive
}

// TcMachineLearning
func (tcm *TcMachine) TcMachineLearning(m fsm.Machine, data interface{}) fsm.State {
	tp := tcm.tp
	if tp.IsCist() {
		tp.p.RcvdTcn = false
		tp.p.RcvdTcAck = false
	}
	tp.RcvdTc = false
	tp.TcProp = false
	return TcStateLearning
}

// TcMachineDetected falls through to ACTIVE
func (tcm *TcMachine) TcMachineDetected(m fsm.Machine, data interface{}) fsm.State {
	tp := tcm.tp
	tp.newTcWhile()
	tp.t.setTcPropTree(tp)
	tp.setNewInfo()
	tcm.countTc()
	StpMachineLogger("INFO", "TCM", tp.p.IfIndex, tp.t.MstId, "topology change detected")
	return TcStateActive
}

// TcMachineNotifiedTcn falls through to NOTIFIED_TC
func (tcm *TcMachine) TcMachineNotifiedTcn(m fsm.Machine, data interface{}) fsm.State {
	tcm.tp.newTcWhile()
	return tcm.TcMachineNotifiedTc(m, data)
}

// TcMachineNotifiedTc falls through to ACTIVE
func (tcm *TcMachine) TcMachineNotifiedTc(m fsm.Machine, data interface{}) fsm.State {
	tp := tcm.tp
	if tp.IsCist() {
		tp.p.RcvdTcn = false
		if tp.Role == PortRoleDesignated {
			tp.p.TcAck = true
		}
	}
	tp.RcvdTc = false
	tp.t.setTcPropTree(tp)
	tcm.countTc()
	return TcStateActive
}

// TcMachinePropagating falls through to ACTIVE
func (tcm *TcMachine) TcMachinePropagating(m fsm.Machine, data interface{}) fsm.State {
	tp := tcm.tp
	tp.newTcWhile()
	tp.FdbFlush = true
	tp.TcProp = false
	tcm.flush()
	return TcStateActive
}

// TcMachineAcknowledged falls through to ACTIVE
func (tcm *TcMachine) TcMachineAcknowledged(m fsm.Machine, data interface{}) fsm.State {
	tp := tcm.tp
	tp.TcWhile = 0
	tp.p.RcvdTcAck = false
	return TcStateActive
}

func TcMachineFSMBuild(tp *TreePort) *TcMachine {
	rules := fsm.Ruleset{}

	tcm := &TcMachine{tp: tp}

	// BEGIN -> INACTIVE
	for _, s := range []fsm.State{TcStateNone, TcStateInactive, TcStateLearning, TcStateActive} {
		rules.AddRule(s, TcEventBegin, tcm.TcMachineInactive)
	}

	// LEARN and NOT FDBFLUSH -> LEARNING
	rules.AddRule(TcStateInactive, TcEventLearnAndNotFdbFlush, tcm.TcMachineLearning)

	// RCVDTC or RCVDTCN or RCVDTCACK or TCPROP -> LEARNING
	rules.AddRule(TcStateLearning, TcEventRcvdTcOrRcvdTcnOrRcvdTcAckOrTcProp, tcm.TcMachineLearning)

	// (ROLE == ROOT or DESIGNATED or MASTER) and FORWARD and NOT OPEREDGE -> DETECTED
	rules.AddRule(TcStateLearning, TcEventRoleActiveAndForwardAndNotOperEdge, tcm.TcMachineDetected)

	// ROLE not active and NOT LEARN and NOT LEARNING and nothing received -> INACTIVE
	rules.AddRule(TcStateLearning, TcEventRoleNotActiveAndNotLearnAndNotLearningAndNothingRcvd, tcm.TcMachineInactive)

	// ROLE not active or OPEREDGE -> LEARNING
	rules.AddRule(TcStateActive, TcEventRoleNotActiveOrOperEdge, tcm.TcMachineLearning)

	// RCVDTCN -> NOTIFIED_TCN
	rules.AddRule(TcStateActive, TcEventRcvdTcn, tcm.TcMachineNotifiedTcn)

	// RCVDTC -> NOTIFIED_TC
	rules.AddRule(TcStateActive, TcEventRcvdTc, tcm.TcMachineNotifiedTc)

	// TCPROP and NOT OPEREDGE -> PROPAGATING
	rules.AddRule(TcStateActive, TcEventTcPropAndNotOperEdge, tcm.TcMachinePropagating)

	// RCVDTCACK -> ACKNOWLEDGED
	rules.AddRule(TcStateActive, TcEventRcvdTcAck, tcm.TcMachineAcknowledged)

	tcm.Apply(&rules)
	return tcm
}

func (tcm *TcMachine) begin() {
	if err := tcm.Machine.ProcessEvent(TcMachineModuleStr, TcEventBegin, nil); err != nil {
		tcm.TcLogger(err.Error())
	}
}

func (tp *TreePort) activeRole() bool {
	switch tp.Role {
	case PortRoleRoot, PortRoleDesignated, PortRoleMaster:
		return true
	}
	return false
}

func (tcm *TcMachine) nextEvent() (fsm.Event, bool) {
	tp := tcm.tp
	p := tp.p
	cist := tp.IsCist()
	rcvdTcn := cist && p.RcvdTcn
	rcvdTcAck := cist && p.RcvdTcAck

	switch tcm.Machine.Curr.CurrentState() {
	case TcStateInactive:
		if tp.Learn && !tp.FdbFlush {
			return TcEventLearnAndNotFdbFlush, true
		}
	case TcStateLearning:
		if tp.activeRole() && tp.Forward && !p.OperEdge {
			return TcEventRoleActiveAndForwardAndNotOperEdge, true
		}
		if rcvdTcn || rcvdTcAck || tp.RcvdTc || tp.TcProp {
			return TcEventRcvdTcOrRcvdTcnOrRcvdTcAckOrTcProp, true
		}
		if !tp.activeRole() && !tp.Learn && !tp.Learning {
			return TcEventRoleNotActiveAndNotLearnAndNotLearningAndNothingRcvd, true
		}
	case TcStateActive:
		if !tp.activeRole() || p.OperEdge {
			return TcEventRoleNotActiveOrOperEdge, true
		}
		if rcvdTcn {
			return TcEventRcvdTcn, true
		}
		if tp.RcvdTc {
			return TcEventRcvdTc, true
		}
		if tp.TcProp && !p.OperEdge {
			return TcEventTcPropAndNotOperEdge, true
		}
		if rcvdTcAck {
			return TcEventRcvdTcAck, true
		}
	}
	return 0, false
}

// Gate evaluates the machine, then propagates tcProp to the other ports of
// the tree and kicks transmit
func (tcm *TcMachine) Gate() {
	if !runMachine(tcm.Machine, TcMachineModuleStr, tcm.nextEvent, nil) {
		return
	}
	tp := tcm.tp
	p := tp.p
	b := tp.bridge()
	for _, other := range tp.t.EnabledTreePorts() {
		if other != tp && other.TcProp {
			b.signal(MachineTcm, other.p.IfIndex, tp.Index)
		}
	}
	if tp.TcWhile != 0 || p.NewInfoCist || p.NewInfoMsti || p.TcAck {
		b.signal(MachinePtx, p.IfIndex, CistIndex)
	}
}

// TcInfo is a summary of the topology change state of a tree
func (tb *TreeBridge) TcInfo() string {
	if tb.TcCount == 0 {
		return "no topology change"
	}
	return fmt.Sprintf("%d changes, last on port %d at tick %d", tb.TcCount, tb.TcPortIfIndex, tb.LastTcTick)
}
