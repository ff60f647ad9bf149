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

// 802.1Q-2014 13.32 Port Transmit state machine
// It transmits Configuration, TCN, RST and MST BPDUs on a port.  A BPDU is
// only sent once every tree has selected its role and no tree is still
// updating the port's information, and at most TxHoldCount BPDUs go out per
// second.
package stp

import (
	"l2mstp/utils/fsm"
)

const PtxmMachineModuleStr = "Port Transmit State Machine"

const (
	PtxmStateNone = iota + 1
	PtxmStateTransmitInit
	PtxmStateTransmitConfig
	PtxmStateTransmitTCN
	PtxmStateTransmitPeriodic
	PtxmStateTransmitRSTP
	PtxmStateIdle
)

var PtxmStateStrMap map[fsm.State]string

func PtxmMachineStrStateMapInit() {
	PtxmStateStrMap = make(map[fsm.State]string)
	PtxmStateStrMap[PtxmStateNone] = "None"
	PtxmStateStrMap[PtxmStateTransmitInit] = "Transmit Init"
	PtxmStateStrMap[PtxmStateTransmitConfig] = "Transmit Config"
	PtxmStateStrMap[PtxmStateTransmitTCN] = "Transmit TCN"
	PtxmStateStrMap[PtxmStateTransmitPeriodic] = "Transmit Periodic"
	PtxmStateStrMap[PtxmStateTransmitRSTP] = "Transmit RSTP"
	PtxmStateStrMap[PtxmStateIdle] = "Idle"
}

const (
	PtxmEventBegin = iota + 1
	PtxmEventHelloWhenEqualsZeroAndAllTransmitReady
	PtxmEventSendRSTPAndNewInfoAndTxCountLessThanTxHoldCountAndHelloWhenNotEqualZeroAndAllTransmitReady
	PtxmEventNotSendRSTPAndNewInfoAndRootPortAndTxCountLessThanTxHoldCountAndHelloWhenNotEqualZeroAndAllTransmitReady
	PtxmEventNotSendRSTPAndNewInfoAndDesignatedPortAndTxCountLessThanTxHoldCountAndHelloWhenNotEqualZeroAndAllTransmitReady
)

// PtxmMachine holds the FSM of one port
type PtxmMachine struct {
	Machine *fsm.Machine

	// Reference to StpPort
	p *StpPort
}

func (ptxm *PtxmMachine) GetCurrStateStr() string {
	return PtxmStateStrMap[ptxm.Machine.Curr.CurrentState()]
}

func (ptxm *PtxmMachine) PtxmLogger(s string) {
	StpMachineLogger("DEBUG", "PTX", ptxm.p.IfIndex, CistMstId, s)
}

// Apply a ruleset to this instance's state machine
func (ptxm *PtxmMachine) Apply(r *fsm.Ruleset) *fsm.Machine {
	if ptxm.Machine == nil {
		ptxm.Machine = &fsm.Machine{}
	}
	ptxm.Machine.Rules = r
	ptxm.Machine.Curr = newStpStateEvent(PtxmMachineModuleStr, PtxmStateStrMap, PtxmStateNone, ptxm.PtxmLogger)
	return ptxm.Machine
}

// PtxmMachineTransmitInit falls through to IDLE
func (ptxm *PtxmMachine) PtxmMachineTransmitInit(m fsm.Machine, data interface{}) fsm.State {
	p := ptxm.p
	p.NewInfoCist = true
	p.NewInfoMsti = true
	p.TxCount = 0
	return ptxm.PtxmMachineIdle(m, data)
}

// PtxmMachineTransmitPeriodic falls through to IDLE
func (ptxm *PtxmMachine) PtxmMachineTransmitPeriodic(m fsm.Machine, data interface{}) fsm.State {
	p := ptxm.p
	cp := p.Cist
	p.NewInfoCist = p.NewInfoCist ||
		cp.Role == PortRoleDesignated ||
		(cp.Role == PortRoleRoot && cp.TcWhile != 0)
	for _, tp := range p.MstiPorts() {
		p.NewInfoMsti = p.NewInfoMsti ||
			tp.Role == PortRoleDesignated ||
			(tp.Role == PortRoleRoot && tp.TcWhile != 0)
	}
	return ptxm.PtxmMachineIdle(m, data)
}

// PtxmMachineTransmitConfig falls through to IDLE
func (ptxm *PtxmMachine) PtxmMachineTransmitConfig(m fsm.Machine, data interface{}) fsm.State {
	p := ptxm.p
	p.NewInfoCist = false
	p.TxConfig()
	p.TxCount++
	p.TcAck = false
	return ptxm.PtxmMachineIdle(m, data)
}

// PtxmMachineTransmitTCN falls through to IDLE
func (ptxm *PtxmMachine) PtxmMachineTransmitTCN(m fsm.Machine, data interface{}) fsm.State {
	p := ptxm.p
	p.NewInfoCist = false
	p.TxTCN()
	p.TxCount++
	return ptxm.PtxmMachineIdle(m, data)
}

// PtxmMachineTransmitRSTP falls through to IDLE
func (ptxm *PtxmMachine) PtxmMachineTransmitRSTP(m fsm.Machine, data interface{}) fsm.State {
	p := ptxm.p
	p.NewInfoCist = false
	p.NewInfoMsti = false
	p.TxRSTP()
	p.TxCount++
	p.TcAck = false
	return ptxm.PtxmMachineIdle(m, data)
}

// PtxmMachineIdle
func (ptxm *PtxmMachine) PtxmMachineIdle(m fsm.Machine, data interface{}) fsm.State {
	p := ptxm.p
	p.HelloWhen = p.Cist.PortTimes.HelloTime
	if p.HelloWhen == 0 {
		// port times are not recorded until the first role selection
		p.HelloWhen = p.b.HelloTime
	}
	return PtxmStateIdle
}

func PtxmMachineFSMBuild(p *StpPort) *PtxmMachine {
	rules := fsm.Ruleset{}

	ptxm := &PtxmMachine{p: p}

	// BEGIN -> TRANSMIT INIT
	rules.AddRule(PtxmStateNone, PtxmEventBegin, ptxm.PtxmMachineTransmitInit)
	rules.AddRule(PtxmStateIdle, PtxmEventBegin, ptxm.PtxmMachineTransmitInit)

	// HELLOWHEN == 0 -> TRANSMIT PERIODIC
	rules.AddRule(PtxmStateIdle, PtxmEventHelloWhenEqualsZeroAndAllTransmitReady, ptxm.PtxmMachineTransmitPeriodic)

	// SENDRSTP and NEWINFO and TXCOUNT < TXHOLDCOUNT and HELLOWHEN != 0 -> TRANSMIT RSTP
	rules.AddRule(PtxmStateIdle, PtxmEventSendRSTPAndNewInfoAndTxCountLessThanTxHoldCountAndHelloWhenNotEqualZeroAndAllTransmitReady, ptxm.PtxmMachineTransmitRSTP)

	// NOT SENDRSTP and NEWINFO and ROOT PORT and TXCOUNT < TXHOLDCOUNT and HELLOWHEN != 0 -> TRANSMIT TCN
	rules.AddRule(PtxmStateIdle, PtxmEventNotSendRSTPAndNewInfoAndRootPortAndTxCountLessThanTxHoldCountAndHelloWhenNotEqualZeroAndAllTransmitReady, ptxm.PtxmMachineTransmitTCN)

	// NOT SENDRSTP and NEWINFO and DESIGNATED PORT and TXCOUNT < TXHOLDCOUNT and HELLOWHEN != 0 -> TRANSMIT CONFIG
	rules.AddRule(PtxmStateIdle, PtxmEventNotSendRSTPAndNewInfoAndDesignatedPortAndTxCountLessThanTxHoldCountAndHelloWhenNotEqualZeroAndAllTransmitReady, ptxm.PtxmMachineTransmitConfig)

	ptxm.Apply(&rules)
	return ptxm
}

func (ptxm *PtxmMachine) begin() {
	if err := ptxm.Machine.ProcessEvent(PtxmMachineModuleStr, PtxmEventBegin, nil); err != nil {
		ptxm.PtxmLogger(err.Error())
	}
}

// allTransmitReady 13.25.1
func (p *StpPort) allTransmitReady() bool {
	for _, tp := range p.TreePortList() {
		if !tp.Selected || tp.UpdtInfo {
			return false
		}
	}
	return true
}

// mstiMasterPort 13.25.7
func (p *StpPort) mstiMasterPort() bool {
	for _, tp := range p.MstiPorts() {
		if tp.Role == PortRoleMaster {
			return true
		}
	}
	return false
}

func (ptxm *PtxmMachine) nextEvent() (fsm.Event, bool) {
	p := ptxm.p
	if ptxm.Machine.Curr.CurrentState() != PtxmStateIdle {
		return 0, false
	}
	if !p.PortEnabled || !p.allTransmitReady() {
		return 0, false
	}
	if p.HelloWhen == 0 {
		return PtxmEventHelloWhenEqualsZeroAndAllTransmitReady, true
	}
	if p.TxCount >= p.b.TxHoldCount {
		return 0, false
	}
	role := p.Cist.Role
	switch {
	case p.SendRSTP && (p.NewInfoCist || (p.NewInfoMsti && !p.mstiMasterPort())):
		return PtxmEventSendRSTPAndNewInfoAndTxCountLessThanTxHoldCountAndHelloWhenNotEqualZeroAndAllTransmitReady, true
	case !p.SendRSTP && p.NewInfoCist && role == PortRoleRoot:
		return PtxmEventNotSendRSTPAndNewInfoAndRootPortAndTxCountLessThanTxHoldCountAndHelloWhenNotEqualZeroAndAllTransmitReady, true
	case !p.SendRSTP && p.NewInfoCist && role == PortRoleDesignated:
		return PtxmEventNotSendRSTPAndNewInfoAndDesignatedPortAndTxCountLessThanTxHoldCountAndHelloWhenNotEqualZeroAndAllTransmitReady, true
	}
	return 0, false
}

// Gate evaluates the machine.  Nothing else reads the transmit state so no
// other machine is signalled.
func (ptxm *PtxmMachine) Gate() {
	runMachine(ptxm.Machine, PtxmMachineModuleStr, ptxm.nextEvent, nil)
}
