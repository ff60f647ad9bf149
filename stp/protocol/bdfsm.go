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

// 802.1Q-2014 13.30 Bridge Detection state machine
// It sets operEdge for a port, either from the administrative setting or by
// detecting that no bridge is attached once edgeDelayWhile has expired.
package stp

import (
	"l2mstp/utils/fsm"
)

const BdmMachineModuleStr = "Bridge Detection State Machine"

const (
	BdmStateNone = iota + 1
	BdmStateEdge
	BdmStateNotEdge
)

var BdmStateStrMap map[fsm.State]string

func BdmMachineStrStateMapInit() {
	BdmStateStrMap = make(map[fsm.State]string)
	BdmStateStrMap[BdmStateNone] = "None"
	BdmStateStrMap[BdmStateEdge] = "Edge"
	BdmStateStrMap[BdmStateNotEdge] = "NotEdge"
}

const (
	BdmEventBeginAdminEdge = iota + 1
	BdmEventBeginNotAdminEdge
	BdmEventNotPortEnabledAndAdminEdge
	BdmEventEdgeDelayWhileEqualZeroAndAutoEdgeAndSendRSTPAndProposing
	BdmEventNotPortEnabledAndNotAdminEdge
	BdmEventNotOperEdge
)

// BdmMachine holds the FSM of one port
type BdmMachine struct {
	Machine *fsm.Machine

	// Reference to StpPort
	p *StpPort
}

func (bdm *BdmMachine) GetCurrStateStr() string {
	return BdmStateStrMap[bdm.Machine.Curr.CurrentState()]
}

func (bdm *BdmMachine) BdmLogger(s string) {
	StpMachineLogger("DEBUG", "BDM", bdm.p.IfIndex, CistMstId, s)
}

// Apply a ruleset to this instance's state machine
func (bdm *BdmMachine) Apply(r *fsm.Ruleset) *fsm.Machine {
	if bdm.Machine == nil {
		bdm.Machine = &fsm.Machine{}
	}
	bdm.Machine.Rules = r
	bdm.Machine.Curr = newStpStateEvent(BdmMachineModuleStr, BdmStateStrMap, BdmStateNone, bdm.BdmLogger)
	return bdm.Machine
}

// BdmMachineEdge
func (bdm *BdmMachine) BdmMachineEdge(m fsm.Machine, data interface{}) fsm.State {
	p := bdm.p
	if !p.OperEdge {
		StpMachineLogger("INFO", "BDM", p.IfIndex, CistMstId, "edge port")
	}
	p.OperEdge = true
	return BdmStateEdge
}

// BdmMachineNotEdge
func (bdm *BdmMachine) BdmMachineNotEdge(m fsm.Machine, data interface{}) fsm.State {
	p := bdm.p
	p.OperEdge = false
	return BdmStateNotEdge
}

func BdmMachineFSMBuild(p *StpPort) *BdmMachine {
	rules := fsm.Ruleset{}

	bdm := &BdmMachine{p: p}

	for _, s := range []fsm.State{BdmStateNone, BdmStateEdge, BdmStateNotEdge} {
		// BEGIN and ADMINEDGE -> EDGE
		rules.AddRule(s, BdmEventBeginAdminEdge, bdm.BdmMachineEdge)
		// BEGIN and NOT ADMINEDGE -> NOT EDGE
		rules.AddRule(s, BdmEventBeginNotAdminEdge, bdm.BdmMachineNotEdge)
	}

	// NOT PORTENABLED and ADMINEDGE -> EDGE
	rules.AddRule(BdmStateNotEdge, BdmEventNotPortEnabledAndAdminEdge, bdm.BdmMachineEdge)

	// EDGEDELAYWHILE == 0 and AUTOEDGE and SENDRSTP and PROPOSING -> EDGE
	rules.AddRule(BdmStateNotEdge, BdmEventEdgeDelayWhileEqualZeroAndAutoEdgeAndSendRSTPAndProposing, bdm.BdmMachineEdge)

	// NOT PORTENABLED and NOT ADMINEDGE -> NOT EDGE
	rules.AddRule(BdmStateEdge, BdmEventNotPortEnabledAndNotAdminEdge, bdm.BdmMachineNotEdge)

	// NOT OPEREDGE -> NOT EDGE
	rules.AddRule(BdmStateEdge, BdmEventNotOperEdge, bdm.BdmMachineNotEdge)

	bdm.Apply(&rules)
	return bdm
}

func (bdm *BdmMachine) begin() {
	e := fsm.Event(BdmEventBeginNotAdminEdge)
	if bdm.p.AdminEdge {
		e = BdmEventBeginAdminEdge
	}
	if err := bdm.Machine.ProcessEvent(BdmMachineModuleStr, e, nil); err != nil {
		bdm.BdmLogger(err.Error())
	}
}

func (bdm *BdmMachine) nextEvent() (fsm.Event, bool) {
	p := bdm.p
	switch bdm.Machine.Curr.CurrentState() {
	case BdmStateEdge:
		if !p.PortEnabled && !p.AdminEdge {
			return BdmEventNotPortEnabledAndNotAdminEdge, true
		}
		if !p.OperEdge {
			return BdmEventNotOperEdge, true
		}
	case BdmStateNotEdge:
		if !p.PortEnabled && p.AdminEdge {
			return BdmEventNotPortEnabledAndAdminEdge, true
		}
		if p.EdgeDelayWhile == 0 && p.AutoEdge && p.SendRSTP && p.Cist.Proposing {
			return BdmEventEdgeDelayWhileEqualZeroAndAutoEdgeAndSendRSTPAndProposing, true
		}
	}
	return 0, false
}

// Gate evaluates the machine.  operEdge is read by the role transitions and
// the topology change machines of every tree.
func (bdm *BdmMachine) Gate() {
	p := bdm.p
	if !runMachine(bdm.Machine, BdmMachineModuleStr, bdm.nextEvent, nil) {
		return
	}
	p.b.signalAllTrees(MachinePrt, p)
	p.b.signalAllTrees(MachineTcm, p)
}
