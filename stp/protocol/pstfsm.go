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

// 802.1Q-2014 13.36 Port State Transition state machine
// One instance runs per tree port.  It applies the learn and forward
// decisions of the Port Role Transitions machine to the forwarding plane and
// reports back through learning and forwarding once the change is done.
package stp

import (
	"l2mstp/utils/fsm"
)

const PstMachineModuleStr = "Port State Transition State Machine"

const (
	PstStateNone = iota + 1
	PstStateDiscarding
	PstStateLearning
	PstStateForwarding
)

var PstStateStrMap map[fsm.State]string

func PstMachineStrStateMapInit() {
	PstStateStrMap = make(map[fsm.State]string)
	PstStateStrMap[PstStateNone] = "None"
	PstStateStrMap[PstStateDiscarding] = "Discarding"
	PstStateStrMap[PstStateLearning] = "Learning"
	PstStateStrMap[PstStateForwarding] = "Forwarding"
}

const (
	PstEventBegin = iota + 1
	PstEventLearn
	PstEventNotLearn
	PstEventForward
	PstEventNotForward
)

// PstMachine holds the FSM of one tree port
type PstMachine struct {
	Machine *fsm.Machine

	// Reference to the tree port
	tp *TreePort
}

func (pstm *PstMachine) GetCurrStateStr() string {
	return PstStateStrMap[pstm.Machine.Curr.CurrentState()]
}

func (pstm *PstMachine) PstLogger(s string) {
	StpMachineLogger("DEBUG", "PST", pstm.tp.p.IfIndex, pstm.tp.t.MstId, s)
}

// Apply a ruleset to this instance's state machine
func (pstm *PstMachine) Apply(r *fsm.Ruleset) *fsm.Machine {
	if pstm.Machine == nil {
		pstm.Machine = &fsm.Machine{}
	}
	pstm.Machine.Rules = r
	pstm.Machine.Curr = newStpStateEvent(PstMachineModuleStr, PstStateStrMap, PstStateNone, pstm.PstLogger)
	return pstm.Machine
}

// PstMachineDiscarding
func (pstm *PstMachine) PstMachineDiscarding(m fsm.Machine, data interface{}) fsm.State {
	tp := pstm.tp
	tp.Learning = false
	tp.Forwarding = false
	tp.bridge().hwSetPortState(tp.t.MstId, tp.p.IfIndex, PortStateDiscarding)
	return PstStateDiscarding
}

// PstMachineLearning
func (pstm *PstMachine) PstMachineLearning(m fsm.Machine, data interface{}) fsm.State {
	tp := pstm.tp
	tp.Learning = true
	tp.bridge().hwSetPortState(tp.t.MstId, tp.p.IfIndex, PortStateLearning)
	return PstStateLearning
}

// PstMachineForwarding
func (pstm *PstMachine) PstMachineForwarding(m fsm.Machine, data interface{}) fsm.State {
	tp := pstm.tp
	tp.Forwarding = true
	tp.ForwardTransitions++
	tp.bridge().hwSetPortState(tp.t.MstId, tp.p.IfIndex, PortStateForwarding)
	StpMachineLogger("INFO", "PST", tp.p.IfIndex, tp.t.MstId, "forwarding")
	return PstStateForwarding
}

func PstMachineFSMBuild(tp *TreePort) *PstMachine {
	rules := fsm.Ruleset{}

	pstm := &PstMachine{tp: tp}

	// BEGIN -> DISCARDING
	rules.AddRule(PstStateNone, PstEventBegin, pstm.PstMachineDiscarding)
	rules.AddRule(PstStateDiscarding, PstEventBegin, pstm.PstMachineDiscarding)
	rules.AddRule(PstStateLearning, PstEventBegin, pstm.PstMachineDiscarding)
	rules.AddRule(PstStateForwarding, PstEventBegin, pstm.PstMachineDiscarding)

	// LEARN -> LEARNING
	rules.AddRule(PstStateDiscarding, PstEventLearn, pstm.PstMachineLearning)

	// NOT LEARN -> DISCARDING
	rules.AddRule(PstStateLearning, PstEventNotLearn, pstm.PstMachineDiscarding)

	// FORWARD -> FORWARDING
	rules.AddRule(PstStateLearning, PstEventForward, pstm.PstMachineForwarding)

	// NOT FORWARD -> DISCARDING
	rules.AddRule(PstStateForwarding, PstEventNotForward, pstm.PstMachineDiscarding)

	pstm.Apply(&rules)
	return pstm
}

func (pstm *PstMachine) begin() {
	if err := pstm.Machine.ProcessEvent(PstMachineModuleStr, PstEventBegin, nil); err != nil {
		pstm.PstLogger(err.Error())
	}
}

func (pstm *PstMachine) nextEvent() (fsm.Event, bool) {
	tp := pstm.tp
	switch pstm.Machine.Curr.CurrentState() {
	case PstStateDiscarding:
		if tp.Learn {
			return PstEventLearn, true
		}
	case PstStateLearning:
		if !tp.Learn {
			return PstEventNotLearn, true
		}
		if tp.Forward {
			return PstEventForward, true
		}
	case PstStateForwarding:
		if !tp.Forward {
			return PstEventNotForward, true
		}
	}
	return 0, false
}

// Gate evaluates the machine and signals the machines that read learning
// and forwarding
func (pstm *PstMachine) Gate() {
	if !runMachine(pstm.Machine, PstMachineModuleStr, pstm.nextEvent, nil) {
		return
	}
	tp := pstm.tp
	b := tp.bridge()
	b.signal(MachinePrt, tp.p.IfIndex, tp.Index)
	b.signal(MachineTcm, tp.p.IfIndex, tp.Index)
	// learning and forwarding of every tree feed allSynced
	for _, other := range tp.t.EnabledTreePorts() {
		if other != tp {
			b.signal(MachinePrt, other.p.IfIndex, tp.Index)
		}
	}
}
