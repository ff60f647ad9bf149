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

// def.go
package stp

import (
	"fmt"
	"strconv"
	"strings"

	"l2mstp/utils/fsm"
)

const (
	MigrateTimeDefault        = 3
	BridgeHelloTimeDefault    = 2
	BridgeMaxAgeDefault       = 20
	BridgeForwardDelayDefault = 15
	TransmitHoldCountDefault  = 6
	MaxHopsDefault            = 20
	BridgePriorityDefault     = 32768
	PortPriorityDefault       = 128
	PortPathCostDefault       = 20000
	RevisionDefault           = 0

	BridgeHelloTimeMin    = 1
	BridgeHelloTimeMax    = 10
	BridgeMaxAgeMin       = 6
	BridgeMaxAgeMax       = 40
	BridgeForwardDelayMin = 4
	BridgeForwardDelayMax = 30
	TransmitHoldCountMin  = 1
	TransmitHoldCountMax  = 10
	MaxHopsMin            = 6
	MaxHopsMax            = 40
	PortPathCostMin       = 1
	PortPathCostMax       = 200000000
)

// force version values
const (
	StpVersionStp  = 0
	StpVersionRstp = 2
	StpVersionMstp = 3
)

const (
	MaxMstInstances = 64
	MaxVlanId       = 4095
	MaxPortNumber   = 4095
)

// MstIndex addresses a slot in the instance arena.  0..63 are MSTI slots and
// CistIndex names the CIST.
type MstIndex int

const (
	MstiIndexMin MstIndex = 0
	MstiIndexMax MstIndex = MaxMstInstances - 1
	CistIndex    MstIndex = MaxMstInstances
	InvalidIndex MstIndex = -1
)

func (i MstIndex) IsCist() bool { return i == CistIndex }
func (i MstIndex) IsMsti() bool { return i >= MstiIndexMin && i <= MstiIndexMax }

// MstId is the 12 bit instance identifier carried on the wire
type MstId uint16

const (
	CistMstId    MstId = 0
	MstIdMin     MstId = 1
	MstIdMax     MstId = 4094
	InvalidMstId MstId = 0xFFFF
)

func (id MstId) IsValidMsti() bool { return id >= MstIdMin && id <= MstIdMax }

// machine loops that do not settle within this many transitions are cut
const MaxMachineIterations = 64

type StpStateEvent struct {
	// current State
	s fsm.State
	// previous State
	ps fsm.State
	// current event
	e fsm.Event
	// previous event
	pe fsm.Event

	// event src
	esrc        string
	owner       string
	strStateMap map[fsm.State]string
	logEna      bool
	logger      func(string)
}

func (se *StpStateEvent) EnableLogging(ena bool)   { se.logEna = ena }
func (se *StpStateEvent) IsLoggerEna() bool        { return se.logEna }
func (se *StpStateEvent) PreviousState() fsm.State { return se.ps }
func (se *StpStateEvent) CurrentState() fsm.State  { return se.s }
func (se *StpStateEvent) PreviousEvent() fsm.Event { return se.pe }
func (se *StpStateEvent) CurrentEvent() fsm.Event  { return se.e }
func (se *StpStateEvent) SetEvent(es string, e fsm.Event) {
	se.esrc = es
	se.pe = se.e
	se.e = e
}
func (se *StpStateEvent) SetState(s fsm.State) {
	se.ps = se.s
	se.s = s
	if se.IsLoggerEna() && se.ps != se.s {
		se.logger((strings.Join([]string{se.owner, "Src", se.esrc, "OldState", se.strStateMap[se.ps], "Evt", strconv.Itoa(int(se.e)), "NewState", se.strStateMap[s]}, ":")))
	}
}

func newStpStateEvent(owner string, strMap map[fsm.State]string, initial fsm.State, log func(string)) *StpStateEvent {
	return &StpStateEvent{
		strStateMap: strMap,
		logEna:      true,
		logger:      log,
		owner:       owner,
		ps:          initial,
		s:           initial,
	}
}

// runMachine keeps feeding the machine the next enabled event until none is
// left.  Returns true if at least one transition fired.
func runMachine(m *fsm.Machine, src string, next func() (fsm.Event, bool), data interface{}) bool {
	fired := false
	for i := 0; ; i++ {
		e, ok := next()
		if !ok {
			break
		}
		if i >= MaxMachineIterations {
			StpLogger("ERROR", fmt.Sprintf("%s: machine did not settle, state %d event %d", src, m.Curr.CurrentState(), e))
			break
		}
		if err := m.ProcessEvent(src, e, data); err != nil {
			StpLogger("ERROR", fmt.Sprintf("%s: %s", src, err))
			break
		}
		fired = true
	}
	return fired
}

// BPDU flag bits, most significant first
const (
	BpduFlagTopoChangeAck uint8 = 0x80
	BpduFlagMaster        uint8 = 0x80
	BpduFlagAgreement     uint8 = 0x40
	BpduFlagForwarding    uint8 = 0x20
	BpduFlagLearning      uint8 = 0x10
	BpduFlagRoleMask      uint8 = 0x0C
	BpduFlagProposal      uint8 = 0x02
	BpduFlagTopoChange    uint8 = 0x01

	bpduFlagRoleShift = 2
)

func boolToFlag(b bool, flag uint8) uint8 {
	if b {
		return flag
	}
	return 0
}

// StpSetBpduFlags encodes the flags octet.  topochangeack doubles as the
// master flag in MSTI configuration messages.
func StpSetBpduFlags(topochangeack bool, agreement bool, forwarding bool, learning bool, role PortRole, proposal bool, topochange bool, flags *uint8) {
	*flags = 0
	*flags |= boolToFlag(topochangeack, BpduFlagTopoChangeAck)
	*flags |= boolToFlag(agreement, BpduFlagAgreement)
	*flags |= boolToFlag(forwarding, BpduFlagForwarding)
	*flags |= boolToFlag(learning, BpduFlagLearning)
	*flags |= (role.TxRole() << bpduFlagRoleShift) & BpduFlagRoleMask
	*flags |= boolToFlag(proposal, BpduFlagProposal)
	*flags |= boolToFlag(topochange, BpduFlagTopoChange)
}

func StpGetBpduRole(flags uint8) PortRole {
	return PortRole((flags & BpduFlagRoleMask) >> bpduFlagRoleShift)
}

func StpGetBpduTopoChange(flags uint8) bool    { return flags&BpduFlagTopoChange != 0 }
func StpGetBpduProposal(flags uint8) bool      { return flags&BpduFlagProposal != 0 }
func StpGetBpduLearning(flags uint8) bool      { return flags&BpduFlagLearning != 0 }
func StpGetBpduForwarding(flags uint8) bool    { return flags&BpduFlagForwarding != 0 }
func StpGetBpduAgreement(flags uint8) bool     { return flags&BpduFlagAgreement != 0 }
func StpGetBpduTopoChangeAck(flags uint8) bool { return flags&BpduFlagTopoChangeAck != 0 }
func StpGetBpduMaster(flags uint8) bool        { return flags&BpduFlagMaster != 0 }
