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

// 802.1Q-2014 13.35 Port Role Transitions state machine
// One instance runs per tree port.  The machine moves a port between the
// blocking roles (Disabled, Alternate, Backup) and the active roles (Root,
// Designated, Master).  While active it drives the proposal/agreement
// handshake and decides when the port may learn and forward.  The single
// step states of the active roles run their actions and return to
// ACTIVE_PORT, so the machine rests only in BLOCK_PORT, BLOCKED_PORT and
// ACTIVE_PORT.
package stp

import (
	"l2mstp/utils/fsm"
)

const PrtMachineModuleStr = "Port Role Transitions State Machine"

const (
	PrtStateNone = iota + 1
	PrtStateInitPort
	PrtStateBlockPort
	PrtStateBlockedPort
	PrtStateBackupPort
	PrtStateActivePort
	PrtStateProposed
	PrtStateProposing
	PrtStateAgrees
	PrtStateSynced
	PrtStateReRoot
	PrtStateForward
	PrtStateLearn
	PrtStateDiscard
	PrtStateReRooted
	PrtStateRoot
)

var PrtStateStrMap map[fsm.State]string

func PrtMachineStrStateMapInit() {
	PrtStateStrMap = make(map[fsm.State]string)
	PrtStateStrMap[PrtStateNone] = "None"
	PrtStateStrMap[PrtStateInitPort] = "Init Port"
	PrtStateStrMap[PrtStateBlockPort] = "Block Port"
	PrtStateStrMap[PrtStateBlockedPort] = "Blocked Port"
	PrtStateStrMap[PrtStateBackupPort] = "Backup Port"
	PrtStateStrMap[PrtStateActivePort] = "Active Port"
	PrtStateStrMap[PrtStateProposed] = "Proposed"
	PrtStateStrMap[PrtStateProposing] = "Proposing"
	PrtStateStrMap[PrtStateAgrees] = "Agrees"
	PrtStateStrMap[PrtStateSynced] = "Synced"
	PrtStateStrMap[PrtStateReRoot] = "Re-Root"
	PrtStateStrMap[PrtStateForward] = "Forward"
	PrtStateStrMap[PrtStateLearn] = "Learn"
	PrtStateStrMap[PrtStateDiscard] = "Discard"
	PrtStateStrMap[PrtStateReRooted] = "Re-Rooted"
	PrtStateStrMap[PrtStateRoot] = "Root"
}

const (
	PrtEventBegin = iota + 1
	PrtEventSelectedRoleBlocking
	PrtEventSelectedRoleActive
	PrtEventNotLearningAndNotForwarding
	PrtEventRoleBackupAndRbWhileNotEqualTwiceHelloTime
	PrtEventBlockedRefresh
	PrtEventProposedAndNotAgree
	PrtEventProposing
	PrtEventAgrees
	PrtEventSynced
	PrtEventRootAndRrWhileNotEqualFwdDelay
	PrtEventReRoot
	PrtEventReRooted
	PrtEventDiscard
	PrtEventLearn
	PrtEventForward
)

// PrtMachine holds the FSM of one tree port
type PrtMachine struct {
	Machine *fsm.Machine

	// Reference to the tree port
	tp *TreePort
}

func (prtm *PrtMachine) GetCurrStateStr() string {
	return PrtStateStrMap[prtm.Machine.Curr.CurrentState()]
}

func (prtm *PrtMachine) PrtLogger(s string) {
	StpMachineLogger("DEBUG", "PRT", prtm.tp.p.IfIndex, prtm.tp.t.MstId, s)
}

// Apply a ruleset to this instance's state machine
func (prtm *PrtMachine) Apply(r *fsm.Ruleset) *fsm.Machine {
	if prtm.Machine == nil {
		prtm.Machine = &fsm.Machine{}
	}
	prtm.Machine.Rules = r
	prtm.Machine.Curr = newStpStateEvent(PrtMachineModuleStr, PrtStateStrMap, PrtStateNone, prtm.PrtLogger)
	return prtm.Machine
}

func (prtm *PrtMachine) setRole(role PortRole) {
	tp := prtm.tp
	if tp.Role != role {
		StpMachineLogger("INFO", "PRT", tp.p.IfIndex, tp.t.MstId, "role "+tp.Role.String()+" -> "+role.String())
		tp.Role = role
	}
}

// PrtMachineInitPort falls through to BLOCK_PORT
func (prtm *PrtMachine) PrtMachineInitPort(m fsm.Machine, data interface{}) fsm.State {
	tp := prtm.tp
	rt := tp.cistRootTimes()
	tp.SelectedRole = PortRoleDisabled
	tp.Synced = false
	tp.Sync = true
	tp.ReRoot = true
	tp.RrWhile = rt.ForwardDelay
	tp.FdWhile = rt.MaxAge
	tp.RbWhile = 0
	return prtm.PrtMachineBlockPort(m, data)
}

// PrtMachineBlockPort
func (prtm *PrtMachine) PrtMachineBlockPort(m fsm.Machine, data interface{}) fsm.State {
	tp := prtm.tp
	prtm.setRole(tp.SelectedRole)
	tp.Learn = false
	tp.Forward = false
	return PrtStateBlockPort
}

// blockedActions covers ALTERNATE_PORT and DISABLED_PORT
func (prtm *PrtMachine) blockedActions() {
	tp := prtm.tp
	rt := tp.cistRootTimes()
	if tp.Role != PortRoleDisabled {
		tp.FdWhile = rt.ForwardDelay
	} else {
		tp.FdWhile = rt.MaxAge
	}
	tp.Synced = true
	tp.RrWhile = 0
	tp.Sync = false
	tp.ReRoot = false
}

// PrtMachineBlockedPort
func (prtm *PrtMachine) PrtMachineBlockedPort(m fsm.Machine, data interface{}) fsm.State {
	prtm.blockedActions()
	return PrtStateBlockedPort
}

// PrtMachineBackupPort falls through to BLOCKED_PORT
func (prtm *PrtMachine) PrtMachineBackupPort(m fsm.Machine, data interface{}) fsm.State {
	tp := prtm.tp
	tp.RbWhile = 2 * tp.cistRootTimes().HelloTime
	return prtm.PrtMachineBlockedPort(m, data)
}

// PrtMachineActivePort
func (prtm *PrtMachine) PrtMachineActivePort(m fsm.Machine, data interface{}) fsm.State {
	tp := prtm.tp
	p := tp.p
	if tp.IsCist() && tp.SelectedRole == PortRoleDesignated {
		tp.Proposing = tp.Proposing || (!p.AdminEdge && p.OperPt2Pt)
	}
	prtm.setRole(tp.SelectedRole)
	return PrtStateActivePort
}

// PrtMachineRoleActive is the global transition into an active role
func (prtm *PrtMachine) PrtMachineRoleActive(m fsm.Machine, data interface{}) fsm.State {
	tp := prtm.tp
	if tp.SelectedRole == PortRoleRoot {
		tp.RrWhile = tp.cistRootTimes().ForwardDelay
	}
	return prtm.PrtMachineActivePort(m, data)
}

// afterActive returns to ACTIVE_PORT, or to BLOCKED_PORT for an alternate
// port running ALTERNATE_PROPOSED or ALTERNATE_AGREED
func (prtm *PrtMachine) afterActive(m fsm.Machine, data interface{}) fsm.State {
	if prtm.tp.Role == PortRoleAlternate {
		return prtm.PrtMachineBlockedPort(m, data)
	}
	return prtm.PrtMachineActivePort(m, data)
}

// PrtMachineProposed
func (prtm *PrtMachine) PrtMachineProposed(m fsm.Machine, data interface{}) fsm.State {
	tp := prtm.tp
	tp.t.setSyncTree()
	tp.Proposed = false
	return prtm.afterActive(m, data)
}

// PrtMachineProposing
func (prtm *PrtMachine) PrtMachineProposing(m fsm.Machine, data interface{}) fsm.State {
	tp := prtm.tp
	tp.Proposing = true
	tp.setNewInfo()
	return prtm.afterActive(m, data)
}

// PrtMachineAgrees
func (prtm *PrtMachine) PrtMachineAgrees(m fsm.Machine, data interface{}) fsm.State {
	tp := prtm.tp
	tp.Proposed = false
	tp.Agree = true
	if tp.Role != PortRoleAlternate {
		tp.Sync = false
	}
	if tp.Role != PortRoleMaster {
		tp.setNewInfo()
	}
	return prtm.afterActive(m, data)
}

// PrtMachineSynced
func (prtm *PrtMachine) PrtMachineSynced(m fsm.Machine, data interface{}) fsm.State {
	tp := prtm.tp
	if tp.Role != PortRoleRoot {
		tp.RrWhile = 0
	}
	tp.Synced = true
	tp.Sync = false
	return prtm.afterActive(m, data)
}

// PrtMachineReRoot
func (prtm *PrtMachine) PrtMachineReRoot(m fsm.Machine, data interface{}) fsm.State {
	prtm.tp.t.setReRootTree()
	return prtm.afterActive(m, data)
}

// PrtMachineForward
func (prtm *PrtMachine) PrtMachineForward(m fsm.Machine, data interface{}) fsm.State {
	tp := prtm.tp
	tp.Forward = true
	tp.FdWhile = 0
	if tp.Role == PortRoleMaster || tp.Role == PortRoleDesignated {
		tp.Agreed = tp.p.SendRSTP
	}
	return prtm.afterActive(m, data)
}

// PrtMachineLearn
func (prtm *PrtMachine) PrtMachineLearn(m fsm.Machine, data interface{}) fsm.State {
	tp := prtm.tp
	tp.Learn = true
	tp.FdWhile = tp.cistRootTimes().ForwardDelay
	return prtm.afterActive(m, data)
}

// PrtMachineDiscard
func (prtm *PrtMachine) PrtMachineDiscard(m fsm.Machine, data interface{}) fsm.State {
	tp := prtm.tp
	rt := tp.cistRootTimes()
	tp.Learn = false
	tp.Forward = false
	tp.FdWhile = rt.ForwardDelay
	if tp.Role == PortRoleRoot && tp.Disputed {
		tp.RbWhile = 3 * rt.HelloTime
	}
	tp.Disputed = false
	return prtm.afterActive(m, data)
}

// PrtMachineReRooted
func (prtm *PrtMachine) PrtMachineReRooted(m fsm.Machine, data interface{}) fsm.State {
	prtm.tp.ReRoot = false
	return prtm.afterActive(m, data)
}

// PrtMachineRoot
func (prtm *PrtMachine) PrtMachineRoot(m fsm.Machine, data interface{}) fsm.State {
	tp := prtm.tp
	p := tp.p
	tp.RrWhile = tp.cistRootTimes().ForwardDelay
	// the agreement of a new root port on a boundary must go through the
	// sync handshake again on every tree
	if tp.IsCist() && tp.isBoundary() && p.HasMsti() {
		tp.Agree = false
		for _, mp := range p.MstiPorts() {
			mp.Agree = false
		}
	}
	return prtm.afterActive(m, data)
}

func PrtMachineFSMBuild(tp *TreePort) *PrtMachine {
	rules := fsm.Ruleset{}

	prtm := &PrtMachine{tp: tp}

	allStates := []fsm.State{
		PrtStateNone,
		PrtStateInitPort,
		PrtStateBlockPort,
		PrtStateBlockedPort,
		PrtStateBackupPort,
		PrtStateActivePort,
	}
	for _, s := range allStates {
		// BEGIN -> INIT_PORT
		rules.AddRule(s, PrtEventBegin, prtm.PrtMachineInitPort)
		if s == PrtStateNone {
			continue
		}
		// SELECTEDROLE != ROLE -> BLOCK_PORT / ACTIVE_PORT
		rules.AddRule(s, PrtEventSelectedRoleBlocking, prtm.PrtMachineBlockPort)
		rules.AddRule(s, PrtEventSelectedRoleActive, prtm.PrtMachineRoleActive)
	}

	// NOT LEARNING and NOT FORWARDING -> BLOCKED_PORT
	rules.AddRule(PrtStateBlockPort, PrtEventNotLearningAndNotForwarding, prtm.PrtMachineBlockedPort)

	// ROLE == BACKUP and RBWHILE != 2*HELLOTIME -> BACKUP_PORT
	rules.AddRule(PrtStateBlockedPort, PrtEventRoleBackupAndRbWhileNotEqualTwiceHelloTime, prtm.PrtMachineBackupPort)

	// FDWHILE != (MAXAGE/FWDDELAY) or SYNC or REROOT or NOT SYNCED -> BLOCKED_PORT
	rules.AddRule(PrtStateBlockedPort, PrtEventBlockedRefresh, prtm.PrtMachineBlockedPort)

	// PROPOSED and NOT AGREE -> PROPOSED
	rules.AddRule(PrtStateBlockedPort, PrtEventProposedAndNotAgree, prtm.PrtMachineProposed)
	rules.AddRule(PrtStateActivePort, PrtEventProposedAndNotAgree, prtm.PrtMachineProposed)

	// AGREES
	rules.AddRule(PrtStateBlockedPort, PrtEventAgrees, prtm.PrtMachineAgrees)
	rules.AddRule(PrtStateActivePort, PrtEventAgrees, prtm.PrtMachineAgrees)

	rules.AddRule(PrtStateActivePort, PrtEventProposing, prtm.PrtMachineProposing)
	rules.AddRule(PrtStateActivePort, PrtEventSynced, prtm.PrtMachineSynced)
	rules.AddRule(PrtStateActivePort, PrtEventRootAndRrWhileNotEqualFwdDelay, prtm.PrtMachineRoot)
	rules.AddRule(PrtStateActivePort, PrtEventReRoot, prtm.PrtMachineReRoot)
	rules.AddRule(PrtStateActivePort, PrtEventReRooted, prtm.PrtMachineReRooted)
	rules.AddRule(PrtStateActivePort, PrtEventDiscard, prtm.PrtMachineDiscard)
	rules.AddRule(PrtStateActivePort, PrtEventLearn, prtm.PrtMachineLearn)
	rules.AddRule(PrtStateActivePort, PrtEventForward, prtm.PrtMachineForward)

	prtm.Apply(&rules)
	return prtm
}

func (prtm *PrtMachine) begin() {
	if err := prtm.Machine.ProcessEvent(PrtMachineModuleStr, PrtEventBegin, nil); err != nil {
		prtm.PrtLogger(err.Error())
	}
}

func (prtm *PrtMachine) nextEvent() (fsm.Event, bool) {
	tp := prtm.tp
	if !tp.Selected || tp.UpdtInfo {
		return 0, false
	}
	state := prtm.Machine.Curr.CurrentState()
	if state == PrtStateNone {
		return 0, false
	}
	if tp.SelectedRole != tp.Role {
		switch tp.SelectedRole {
		case PortRoleDisabled, PortRoleAlternate, PortRoleBackup:
			return PrtEventSelectedRoleBlocking, true
		default:
			return PrtEventSelectedRoleActive, true
		}
	}
	switch state {
	case PrtStateBlockPort:
		if !tp.Learning && !tp.Forwarding {
			return PrtEventNotLearningAndNotForwarding, true
		}
	case PrtStateBlockedPort:
		return prtm.blockedEvent()
	case PrtStateActivePort:
		return prtm.activeEvent()
	}
	return 0, false
}

func (prtm *PrtMachine) blockedEvent() (fsm.Event, bool) {
	tp := prtm.tp
	rt := tp.cistRootTimes()
	if tp.Role == PortRoleBackup && tp.RbWhile != 2*rt.HelloTime {
		return PrtEventRoleBackupAndRbWhileNotEqualTwiceHelloTime, true
	}
	if (tp.Role == PortRoleDisabled && tp.FdWhile != rt.MaxAge) ||
		(tp.Role == PortRoleAlternate && tp.FdWhile != rt.ForwardDelay) ||
		tp.Sync || tp.ReRoot || !tp.Synced {
		return PrtEventBlockedRefresh, true
	}
	if tp.Role != PortRoleAlternate {
		return 0, false
	}
	if tp.Proposed && !tp.Agree {
		return PrtEventProposedAndNotAgree, true
	}
	if (tp.t.AllSynced(tp) && !tp.Agree) || (tp.Proposed && tp.Agree) {
		return PrtEventAgrees, true
	}
	return 0, false
}

func (prtm *PrtMachine) activeEvent() (fsm.Event, bool) {
	tp := prtm.tp
	p := tp.p
	b := tp.bridge()
	rt := tp.cistRootTimes()
	role := tp.Role
	designated := role == PortRoleDesignated
	root := role == PortRoleRoot
	master := role == PortRoleMaster

	if tp.Proposed && !tp.Agree {
		return PrtEventProposedAndNotAgree, true
	}
	if designated && !tp.Forward && !tp.Agreed && !tp.Proposing && !p.OperEdge {
		return PrtEventProposing, true
	}
	if ((designated || master) &&
		((!tp.Learning && !tp.Forwarding && !tp.Synced) || (p.OperEdge && !tp.Synced))) ||
		(tp.Agreed && !tp.Synced) ||
		(tp.Sync && tp.Synced) {
		return PrtEventSynced, true
	}
	if root && tp.RrWhile != rt.ForwardDelay {
		return PrtEventRootAndRrWhileNotEqualFwdDelay, true
	}
	if root && !tp.Forward && tp.RbWhile == 0 && !tp.ReRoot {
		return PrtEventReRoot, true
	}
	if tp.ReRoot && ((root && tp.Forward) || ((designated || master) && tp.RrWhile == 0)) {
		return PrtEventReRooted, true
	}
	if !root && (tp.Learn || tp.Forward) && !p.OperEdge &&
		((tp.Sync && !tp.Synced) || (tp.ReRoot && tp.RrWhile != 0) || tp.Disputed) {
		return PrtEventDiscard, true
	}
	if root && tp.Disputed {
		return PrtEventDiscard, true
	}

	allSynced := tp.t.AllSynced(tp)
	reRooted := root && tp.t.ReRooted(tp)
	rstp := b.ForceVersion >= StpVersionRstp
	if (designated && (tp.Proposed || !tp.Agree) && allSynced) ||
		(!designated && ((allSynced && !tp.Agree) || (tp.Proposed && tp.Agree))) {
		return PrtEventAgrees, true
	}
	rootMayForward := tp.FdWhile == 0 || (reRooted && tp.RbWhile == 0 && rstp)
	desgMayForward := (tp.FdWhile == 0 || tp.Agreed || p.OperEdge) && (tp.RrWhile == 0 || !tp.ReRoot) && !tp.Sync
	masterMayForward := tp.FdWhile == 0 || allSynced
	if !tp.Learn &&
		((master && masterMayForward) || (root && rootMayForward) || (designated && desgMayForward)) {
		return PrtEventLearn, true
	}
	if tp.Learn && !tp.Forward &&
		((root && rootMayForward) || (designated && desgMayForward) || (master && masterMayForward)) {
		return PrtEventForward, true
	}
	return 0, false
}

// Gate evaluates the machine and signals the machines that read the
// variables it writes
func (prtm *PrtMachine) Gate() {
	if !runMachine(prtm.Machine, PrtMachineModuleStr, prtm.nextEvent, nil) {
		return
	}
	tp := prtm.tp
	p := tp.p
	b := tp.bridge()

	// sync and reRoot are tree wide
	for _, other := range tp.t.EnabledTreePorts() {
		if other != tp {
			b.signal(MachinePrt, other.p.IfIndex, tp.Index)
		}
	}
	if tp.IsCist() && tp.isBoundary() {
		for _, mp := range p.MstiPorts() {
			b.signal(MachinePrt, p.IfIndex, mp.Index)
		}
	}
	if tp.Proposing || !tp.Synced {
		b.signal(MachinePim, p.IfIndex, tp.Index)
	}
	if tp.Learn != tp.Learning || tp.Forward != tp.Forwarding {
		b.signal(MachinePst, p.IfIndex, tp.Index)
	}
	b.signal(MachineTcm, p.IfIndex, tp.Index)
	if p.NewInfoCist || p.NewInfoMsti {
		b.signal(MachinePtx, p.IfIndex, CistIndex)
	}
}
