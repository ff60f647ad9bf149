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

// 802.1Q-2014 13.29 Port Protocol Migration state machine
// It updates sendRSTP to tell the Port Transmit machine which BPDU types to
// transmit, so the port interoperates with bridges that only run the
// Spanning Tree Algorithm and Protocol.
package stp

import (
	"l2mstp/utils/fsm"
)

const PpmmMachineModuleStr = "Port Protocol Migration State Machine"

const (
	PpmmStateNone = iota + 1
	PpmmStateCheckingRSTP
	PpmmStateSelectingSTP
	PpmmStateSensing
)

var PpmmStateStrMap map[fsm.State]string

func PpmmMachineStrStateMapInit() {
	PpmmStateStrMap = make(map[fsm.State]string)
	PpmmStateStrMap[PpmmStateNone] = "None"
	PpmmStateStrMap[PpmmStateCheckingRSTP] = "Checking RSTP"
	PpmmStateStrMap[PpmmStateSelectingSTP] = "Selecting STP"
	PpmmStateStrMap[PpmmStateSensing] = "Sensing"
}

const (
	PpmmEventBegin = iota + 1
	PpmmEventMdelayNotEqualMigrateTimeAndNotPortEnabled
	PpmmEventNotPortEnabled
	PpmmEventMcheck
	PpmmEventRstpVersionAndNotSendRSTPAndRcvdRSTP
	PpmmEventMdelayWhileEqualZero
	PpmmEventSendRSTPAndRcvdSTP
)

// PpmmMachine holds the FSM of one port
type PpmmMachine struct {
	Machine *fsm.Machine

	// Reference to StpPort
	p *StpPort
}

func (ppmm *PpmmMachine) GetCurrStateStr() string {
	return PpmmStateStrMap[ppmm.Machine.Curr.CurrentState()]
}

func (ppmm *PpmmMachine) PpmLogger(s string) {
	StpMachineLogger("DEBUG", "PPM", ppmm.p.IfIndex, CistMstId, s)
}

// Apply a ruleset to this instance's state machine
func (ppmm *PpmmMachine) Apply(r *fsm.Ruleset) *fsm.Machine {
	if ppmm.Machine == nil {
		ppmm.Machine = &fsm.Machine{}
	}
	ppmm.Machine.Rules = r
	ppmm.Machine.Curr = newStpStateEvent(PpmmMachineModuleStr, PpmmStateStrMap, PpmmStateNone, ppmm.PpmLogger)
	return ppmm.Machine
}

// PpmmMachineCheckingRSTP
func (ppmm *PpmmMachine) PpmmMachineCheckingRSTP(m fsm.Machine, data interface{}) fsm.State {
	p := ppmm.p
	p.Mcheck = false
	ppmm.setSendRSTP(p.b.ForceVersion >= StpVersionRstp)
	p.MdelayWhile = MigrateTimeDefault
	return PpmmStateCheckingRSTP
}

// PpmmMachineSelectingSTP
func (ppmm *PpmmMachine) PpmmMachineSelectingSTP(m fsm.Machine, data interface{}) fsm.State {
	p := ppmm.p
	ppmm.setSendRSTP(false)
	p.MdelayWhile = MigrateTimeDefault
	return PpmmStateSelectingSTP
}

// PpmmMachineSensing
func (ppmm *PpmmMachine) PpmmMachineSensing(m fsm.Machine, data interface{}) fsm.State {
	p := ppmm.p
	p.RcvdRSTP = false
	p.RcvdSTP = false
	return PpmmStateSensing
}

func (ppmm *PpmmMachine) setSendRSTP(send bool) {
	p := ppmm.p
	if p.SendRSTP != send {
		if send {
			StpMachineLogger("INFO", "PPM", p.IfIndex, CistMstId, "sending rstp/mstp bpdus")
		} else {
			StpMachineLogger("INFO", "PPM", p.IfIndex, CistMstId, "stp bridge detected, sending stp bpdus")
		}
	}
	p.SendRSTP = send
}

func PpmMachineFSMBuild(p *StpPort) *PpmmMachine {
	rules := fsm.Ruleset{}

	ppmm := &PpmmMachine{p: p}

	// BEGIN -> CHECKING RSTP
	rules.AddRule(PpmmStateNone, PpmmEventBegin, ppmm.PpmmMachineCheckingRSTP)
	rules.AddRule(PpmmStateCheckingRSTP, PpmmEventBegin, ppmm.PpmmMachineCheckingRSTP)
	rules.AddRule(PpmmStateSelectingSTP, PpmmEventBegin, ppmm.PpmmMachineCheckingRSTP)
	rules.AddRule(PpmmStateSensing, PpmmEventBegin, ppmm.PpmmMachineCheckingRSTP)

	// MDELAYWHILE != MIGRATETIME and NOT PORTENABLED -> CHECKING RSTP
	rules.AddRule(PpmmStateCheckingRSTP, PpmmEventMdelayNotEqualMigrateTimeAndNotPortEnabled, ppmm.PpmmMachineCheckingRSTP)

	// NOT PORTENABLED or MCHECK or (RSTPVERSION and NOT SENDRSTP and RCVDRSTP) -> CHECKING RSTP
	rules.AddRule(PpmmStateSensing, PpmmEventNotPortEnabled, ppmm.PpmmMachineCheckingRSTP)
	rules.AddRule(PpmmStateSensing, PpmmEventMcheck, ppmm.PpmmMachineCheckingRSTP)
	rules.AddRule(PpmmStateSensing, PpmmEventRstpVersionAndNotSendRSTPAndRcvdRSTP, ppmm.PpmmMachineCheckingRSTP)

	// MDELAYWHILE == 0 -> SENSING
	rules.AddRule(PpmmStateCheckingRSTP, PpmmEventMdelayWhileEqualZero, ppmm.PpmmMachineSensing)

	// MDELAYWHILE == 0 or NOT PORTENABLED or MCHECK -> SENSING
	rules.AddRule(PpmmStateSelectingSTP, PpmmEventMdelayWhileEqualZero, ppmm.PpmmMachineSensing)
	rules.AddRule(PpmmStateSelectingSTP, PpmmEventNotPortEnabled, ppmm.PpmmMachineSensing)
	rules.AddRule(PpmmStateSelectingSTP, PpmmEventMcheck, ppmm.PpmmMachineSensing)

	// SENDRSTP and RCVDSTP -> SELECTING STP
	rules.AddRule(PpmmStateSensing, PpmmEventSendRSTPAndRcvdSTP, ppmm.PpmmMachineSelectingSTP)

	ppmm.Apply(&rules)
	return ppmm
}

func (ppmm *PpmmMachine) begin() {
	if err := ppmm.Machine.ProcessEvent(PpmmMachineModuleStr, PpmmEventBegin, nil); err != nil {
		ppmm.PpmLogger(err.Error())
	}
}

func (ppmm *PpmmMachine) nextEvent() (fsm.Event, bool) {
	p := ppmm.p
	rstpVersion := p.b.ForceVersion >= StpVersionRstp
	switch ppmm.Machine.Curr.CurrentState() {
	case PpmmStateCheckingRSTP:
		if p.MdelayWhile != MigrateTimeDefault && !p.PortEnabled {
			return PpmmEventMdelayNotEqualMigrateTimeAndNotPortEnabled, true
		}
		if p.MdelayWhile == 0 {
			return PpmmEventMdelayWhileEqualZero, true
		}
	case PpmmStateSelectingSTP:
		if p.MdelayWhile == 0 {
			return PpmmEventMdelayWhileEqualZero, true
		}
		if !p.PortEnabled {
			return PpmmEventNotPortEnabled, true
		}
		if p.Mcheck {
			return PpmmEventMcheck, true
		}
	case PpmmStateSensing:
		if !p.PortEnabled {
			return PpmmEventNotPortEnabled, true
		}
		if p.Mcheck {
			return PpmmEventMcheck, true
		}
		if rstpVersion && !p.SendRSTP && p.RcvdRSTP {
			return PpmmEventRstpVersionAndNotSendRSTPAndRcvdRSTP, true
		}
		if p.SendRSTP && p.RcvdSTP {
			return PpmmEventSendRSTPAndRcvdSTP, true
		}
	}
	return 0, false
}

// Gate evaluates the machine.  A change of sendRSTP changes the BPDU type
// transmitted and the agreement rules of the designated ports.
func (ppmm *PpmmMachine) Gate() {
	p := ppmm.p
	sendRSTP := p.SendRSTP
	if !runMachine(ppmm.Machine, PpmmMachineModuleStr, ppmm.nextEvent, nil) {
		return
	}
	if sendRSTP != p.SendRSTP {
		p.b.signal(MachinePtx, p.IfIndex, CistIndex)
		p.b.signalAllTrees(MachinePrt, p)
	}
}
