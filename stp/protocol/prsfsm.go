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

// 802.1Q-2014 13.33 Port Role Selection state machine
// One instance runs per tree.  On initialization every port of the tree is
// assigned the Disabled role.  Whenever reselect is set by a Port
// Information machine the designated priority and designated times of each
// port are recomputed and the port roles updated by updtRolesTree.  The
// reselect flag is cleared before computation starts so new information
// that arrives while computing causes another pass.
package stp

import (
	"fmt"

	"l2mstp/utils/fsm"
)

const PrsMachineModuleStr = "Port Role Selection State Machine"

const (
	PrsStateNone = iota + 1
	PrsStateInitTree
	PrsStateRoleSelection
)

var PrsStateStrMap map[fsm.State]string

func PrsMachineStrStateMapInit() {
	PrsStateStrMap = make(map[fsm.State]string)
	PrsStateStrMap[PrsStateNone] = "None"
	PrsStateStrMap[PrsStateInitTree] = "Init Tree"
	PrsStateStrMap[PrsStateRoleSelection] = "Role Selection"
}

const (
	PrsEventBegin = iota + 1
	PrsEventReselect
)

// PrsMachine holds the FSM of one tree
type PrsMachine struct {
	Machine *fsm.Machine

	// Reference to the tree
	tb *TreeBridge
}

func (prsm *PrsMachine) GetCurrStateStr() string {
	return PrsStateStrMap[prsm.Machine.Curr.CurrentState()]
}

func (prsm *PrsMachine) PrsLogger(s string) {
	StpLogger("DEBUG", fmt.Sprintf("PRS: mst %d: %s", prsm.tb.MstId, s))
}

// Apply a ruleset to this instance's state machine
func (prsm *PrsMachine) Apply(r *fsm.Ruleset) *fsm.Machine {
	if prsm.Machine == nil {
		prsm.Machine = &fsm.Machine{}
	}
	prsm.Machine.Rules = r
	prsm.Machine.Curr = newStpStateEvent(PrsMachineModuleStr, PrsStateStrMap, PrsStateNone, prsm.PrsLogger)
	return prsm.Machine
}

// PrsMachineInitTree falls through to ROLE_SELECTION
func (prsm *PrsMachine) PrsMachineInitTree(m fsm.Machine, data interface{}) fsm.State {
	prsm.tb.updtRolesDisabledTree()
	return prsm.PrsMachineRoleSelection(m, data)
}

// PrsMachineRoleSelection
func (prsm *PrsMachine) PrsMachineRoleSelection(m fsm.Machine, data interface{}) fsm.State {
	tb := prsm.tb
	tb.Reselect = false
	tb.updtRolesTree()
	tb.setSelectedTree()
	return PrsStateRoleSelection
}

func PrsMachineFSMBuild(tb *TreeBridge) *PrsMachine {
	rules := fsm.Ruleset{}

	prsm := &PrsMachine{tb: tb}

	// BEGIN -> INIT_TREE
	rules.AddRule(PrsStateNone, PrsEventBegin, prsm.PrsMachineInitTree)
	rules.AddRule(PrsStateInitTree, PrsEventBegin, prsm.PrsMachineInitTree)
	rules.AddRule(PrsStateRoleSelection, PrsEventBegin, prsm.PrsMachineInitTree)

	// RESELECT -> ROLE_SELECTION
	rules.AddRule(PrsStateRoleSelection, PrsEventReselect, prsm.PrsMachineRoleSelection)

	prsm.Apply(&rules)
	return prsm
}

func (prsm *PrsMachine) begin() {
	if err := prsm.Machine.ProcessEvent(PrsMachineModuleStr, PrsEventBegin, nil); err != nil {
		prsm.PrsLogger(err.Error())
	}
	prsm.signalDependents()
}

func (prsm *PrsMachine) nextEvent() (fsm.Event, bool) {
	if prsm.Machine.Curr.CurrentState() == PrsStateRoleSelection && prsm.tb.Reselect {
		return PrsEventReselect, true
	}
	return 0, false
}

// Gate runs role selection when reselect is pending
func (prsm *PrsMachine) Gate() {
	if !runMachine(prsm.Machine, PrsMachineModuleStr, prsm.nextEvent, nil) {
		return
	}
	prsm.signalDependents()
}

// signalDependents kicks the port machines of the tree.  A CIST role change
// on a boundary port changes the MSTI roles of that port.
func (prsm *PrsMachine) signalDependents() {
	tb := prsm.tb
	b := tb.b
	for _, tp := range tb.TreePorts() {
		b.signal(MachinePim, tp.p.IfIndex, tb.Index)
		b.signal(MachinePrt, tp.p.IfIndex, tb.Index)
	}
	if tb.IsCist() {
		for _, mtb := range b.MstiTrees() {
			b.signal(MachinePrs, 0, mtb.Index)
		}
	}
}

// 13.27.34 updtRolesTree
func (tb *TreeBridge) updtRolesTree() {
	if tb.IsCist() {
		tb.updtRolesCist()
	} else {
		tb.updtRolesMsti()
	}
}

// rootPathBetter compares a root path priority vector against the best seen
// so far.  Equal vectors are broken by the receiving port identifier.
func rootPathBetter(rpp, best *PriorityVector, tp, bestTp *TreePort) bool {
	c := CompareVectors(rpp, best)
	if c < 0 {
		return true
	}
	return c == 0 && bestTp != nil && tp.PortId < bestTp.PortId
}

func (tb *TreeBridge) logRootGuard(tp *TreePort) {
	StpMachineLogger("WARNING", "PRS", tp.p.IfIndex, tb.MstId, "root guard inconsistent, superior bpdu received")
}

func (tb *TreeBridge) updtRolesCist() {
	rootPriority := tb.BridgePriority
	oldRootPriority := tb.RootPriority
	oldRootPort := tb.RootPort
	var rootTp *TreePort

	for _, tp := range tb.TreePorts() {
		p := tp.p
		tp.UpdtInfo = false
		if !p.PortEnabled || tp.InfoIs != PortInfoStateReceived {
			continue
		}
		// designated by this bridge under any priority, so the link loops back
		if CompareBridgeAddr(tp.PortPriority.DesignatedBridgeId, tb.BridgeIdentifier) == 0 {
			tp.SelectedRole = PortRoleBackup
			continue
		}
		tp.SelectedRole = PortRoleAlternate
		rpp := tp.PortPriority
		if p.RcvdInternal {
			rpp.IntRootPathCost += tp.IntPathCost
		} else {
			rpp.ExtRootPathCost += tp.ExtPathCost
			rpp.RegionalRootId = tb.BridgeIdentifier
			rpp.IntRootPathCost = 0
		}
		if rootPathBetter(&rpp, &rootPriority, tp, rootTp) {
			if p.RestrictedRole {
				tb.logRootGuard(tp)
				continue
			}
			rootTp = tp
			rootPriority = rpp
		}
	}

	tb.RootPriority = rootPriority
	changedMaster := (rootPriority.ExtRootPathCost != 0 || oldRootPriority.ExtRootPathCost != 0) &&
		CompareBridgeId(rootPriority.RegionalRootId, oldRootPriority.RegionalRootId) != 0

	if rootTp != nil {
		rootTp.SelectedRole = PortRoleRoot
		tb.RootTimes = rootTp.PortTimes
		if !rootTp.p.RcvdInternal {
			tb.RootTimes.MessageAge++
		} else if tb.RootTimes.RemainingHops > 0 {
			tb.RootTimes.RemainingHops--
		}
		tb.RootPortId = rootTp.PortId
		tb.RootPort = rootTp.p.IfIndex
	} else {
		tb.RootTimes = tb.BridgeTimes
		tb.RootPortId = 0
		tb.RootPort = 0
	}

	for _, tp := range tb.TreePorts() {
		p := tp.p
		if changedMaster {
			tp.ChangedMaster = true
			for _, mp := range p.MstiPorts() {
				mp.t.Reselect = true
			}
		}
		tp.DesignatedPriority = rootPriority
		tp.DesignatedPriority.DesignatedBridgeId = tb.BridgeIdentifier
		tp.DesignatedPriority.DesignatedPortId = tp.PortId
		tp.DesignatedTimes = tb.RootTimes

		if tp != rootTp {
			switch tp.InfoIs {
			case PortInfoStateDisabled:
				tp.SelectedRole = PortRoleDisabled
			case PortInfoStateAged:
				tp.SelectedRole = PortRoleDesignated
				tp.UpdtInfo = true
			case PortInfoStateMine:
				tp.SelectedRole = PortRoleDesignated
				if CompareVectors(&tp.PortPriority, &tp.DesignatedPriority) != 0 ||
					!TimesEqual(&tp.PortTimes, &tp.DesignatedTimes) {
					tp.UpdtInfo = true
				}
			case PortInfoStateReceived:
				if CompareVectors(&tp.DesignatedPriority, &tp.PortPriority) < 0 {
					tp.SelectedRole = PortRoleDesignated
					tp.UpdtInfo = true
				}
			}
		}
		if tp.isBoundary() && tp.SelectedRole != tp.Role {
			for _, mp := range p.MstiPorts() {
				mp.t.Reselect = true
			}
		}
	}

	if CompareBridgeId(rootPriority.RootBridgeId, oldRootPriority.RootBridgeId) != 0 {
		if rootTp == nil {
			StpLogger("INFO", fmt.Sprintf("PRS: mst %d: I am the root %s", tb.MstId, rootPriority.RootBridgeId))
		} else {
			StpLogger("INFO", fmt.Sprintf("PRS: mst %d: new root %s root port %d", tb.MstId, rootPriority.RootBridgeId, rootTp.p.IfIndex))
		}
	} else if rootTp != nil && oldRootPort != 0 && oldRootPort != tb.RootPort {
		StpLogger("INFO", fmt.Sprintf("PRS: mst %d: root port changed from %d to %d", tb.MstId, oldRootPort, tb.RootPort))
	}
	if changedMaster {
		StpLogger("INFO", fmt.Sprintf("PRS: regional root changed to %s", rootPriority.RegionalRootId))
	}
}

func (tb *TreeBridge) updtRolesMsti() {
	rootPriority := tb.BridgePriority
	oldRootPriority := tb.RootPriority
	oldRootPort := tb.RootPort
	var rootTp *TreePort
	masterSelected := false
	masteredSet := false

	tps := tb.TreePorts()
	for _, tp := range tps {
		p := tp.p
		tp.UpdtInfo = false
		if !p.PortEnabled || tp.InfoIs != PortInfoStateReceived {
			continue
		}
		// designated by this bridge under any priority, so the link loops back
		if CompareBridgeAddr(tp.PortPriority.DesignatedBridgeId, tb.BridgeIdentifier) == 0 {
			tp.SelectedRole = PortRoleBackup
			continue
		}
		tp.SelectedRole = PortRoleAlternate
		rpp := tp.PortPriority
		if p.RcvdInternal {
			rpp.IntRootPathCost += tp.IntPathCost
		}
		if rootPathBetter(&rpp, &rootPriority, tp, rootTp) {
			if p.RestrictedRole {
				tb.logRootGuard(tp)
				continue
			}
			rootTp = tp
			rootPriority = rpp
		}
	}

	tb.RootPriority = rootPriority
	if rootTp != nil {
		rootTp.SelectedRole = PortRoleRoot
		tb.RootTimes = rootTp.PortTimes
		if rootTp.p.RcvdInternal && tb.RootTimes.RemainingHops > 0 {
			tb.RootTimes.RemainingHops--
		}
		tb.RootPortId = rootTp.PortId
		tb.RootPort = rootTp.p.IfIndex
	} else {
		tb.RootTimes = tb.BridgeTimes
		tb.RootPortId = 0
		tb.RootPort = 0
	}

	for _, tp := range tps {
		p := tp.p
		cp := p.Cist
		tp.DesignatedPriority = rootPriority
		tp.DesignatedPriority.DesignatedBridgeId = tb.BridgeIdentifier
		tp.DesignatedPriority.DesignatedPortId = tp.PortId
		tp.DesignatedTimes = tb.RootTimes
		updtNeeded := CompareVectors(&tp.PortPriority, &tp.DesignatedPriority) != 0 ||
			tp.PortTimes.RemainingHops != tp.DesignatedTimes.RemainingHops

		if cp.InfoIs != PortInfoStateReceived || p.RcvdInternal {
			switch tp.InfoIs {
			case PortInfoStateDisabled:
				tp.SelectedRole = PortRoleDisabled
			case PortInfoStateAged:
				tp.SelectedRole = PortRoleDesignated
				tp.UpdtInfo = true
			case PortInfoStateMine:
				tp.SelectedRole = PortRoleDesignated
				if updtNeeded {
					tp.UpdtInfo = true
				}
			case PortInfoStateReceived:
				if tp != rootTp && CompareVectors(&tp.DesignatedPriority, &tp.PortPriority) < 0 {
					tp.SelectedRole = PortRoleDesignated
					tp.UpdtInfo = true
				}
			}
		} else {
			// boundary port, the role follows the CIST
			switch cp.SelectedRole {
			case PortRoleRoot:
				tp.SelectedRole = PortRoleMaster
				masterSelected = true
				if updtNeeded {
					tp.UpdtInfo = true
				}
			case PortRoleAlternate:
				tp.SelectedRole = PortRoleAlternate
				if updtNeeded {
					tp.UpdtInfo = true
				}
			case PortRoleDesignated:
				tp.SelectedRole = PortRoleDesignated
				if updtNeeded {
					tp.UpdtInfo = true
				}
			case PortRoleBackup:
				tp.SelectedRole = PortRoleBackup
				if updtNeeded {
					tp.UpdtInfo = true
				}
			}
		}

		if (tp.SelectedRole == PortRoleDesignated || tp.SelectedRole == PortRoleRoot) && tp.Mastered {
			masteredSet = true
		}
		tp.Master = false
	}

	if masteredSet || masterSelected {
		for _, tp := range tps {
			if tp.SelectedRole == PortRoleDesignated || tp.SelectedRole == PortRoleRoot {
				tp.Master = true
			}
		}
	}

	if CompareBridgeId(rootPriority.RegionalRootId, oldRootPriority.RegionalRootId) != 0 {
		if rootTp == nil {
			StpLogger("INFO", fmt.Sprintf("PRS: mst %d: I am the regional root %s", tb.MstId, rootPriority.RegionalRootId))
		} else {
			StpLogger("INFO", fmt.Sprintf("PRS: mst %d: new regional root %s root port %d", tb.MstId, rootPriority.RegionalRootId, rootTp.p.IfIndex))
		}
	} else if rootTp != nil && oldRootPort != 0 && oldRootPort != tb.RootPort {
		StpLogger("INFO", fmt.Sprintf("PRS: mst %d: root port changed from %d to %d", tb.MstId, oldRootPort, tb.RootPort))
	}
}
