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

// enum
package stp

type PortInfoState int

const (
	PortInfoStateDisabled PortInfoState = iota
	PortInfoStateMine
	PortInfoStateAged
	PortInfoStateReceived
)

var PortInfoStateStrMap = map[PortInfoState]string{
	PortInfoStateDisabled: "Disabled",
	PortInfoStateMine:     "Mine",
	PortInfoStateAged:     "Aged",
	PortInfoStateReceived: "Received",
}

func (s PortInfoState) String() string { return PortInfoStateStrMap[s] }

type PortDesignatedRcvInfo int

const (
	OtherInfo PortDesignatedRcvInfo = iota
	SuperiorDesignatedInfo
	RepeatedDesignatedInfo
	InferiorDesignatedInfo
	RootInfo
)

var PortDesignatedRcvInfoStrMap = map[PortDesignatedRcvInfo]string{
	OtherInfo:              "Other",
	SuperiorDesignatedInfo: "SuperiorDesignated",
	RepeatedDesignatedInfo: "RepeatedDesignated",
	InferiorDesignatedInfo: "InferiorDesignated",
	RootInfo:               "Root",
}

func (i PortDesignatedRcvInfo) String() string { return PortDesignatedRcvInfoStrMap[i] }

// PortRole values match the encoding used in the BPDU role field for the
// roles that go on the wire.  Backup and Disabled are local only.
type PortRole int

const (
	PortRoleMaster PortRole = iota
	PortRoleAlternate
	PortRoleRoot
	PortRoleDesignated
	PortRoleBackup
	PortRoleDisabled
)

var PortRoleStrMap = map[PortRole]string{
	PortRoleMaster:     "Master",
	PortRoleAlternate:  "Alternate",
	PortRoleRoot:       "Root",
	PortRoleDesignated: "Designated",
	PortRoleBackup:     "Backup",
	PortRoleDisabled:   "Disabled",
}

func (r PortRole) String() string { return PortRoleStrMap[r] }

// TxRole is the role code sent in the flags byte
func (r PortRole) TxRole() uint8 {
	switch r {
	case PortRoleBackup:
		return uint8(PortRoleAlternate)
	case PortRoleDisabled:
		return uint8(PortRoleMaster)
	}
	return uint8(r)
}

type PointToPointMac int

const (
	StpPointToPointForceTrue  PointToPointMac = 0
	StpPointToPointForceFalse PointToPointMac = 1
	StpPointToPointAuto       PointToPointMac = 2
)

var PointToPointMacStrMap = map[PointToPointMac]string{
	StpPointToPointForceTrue:  "true",
	StpPointToPointForceFalse: "false",
	StpPointToPointAuto:       "auto",
}

func (p PointToPointMac) String() string { return PointToPointMacStrMap[p] }

// PortState is the forwarding state reported to the kernel
type PortState int

const (
	PortStateDisabled PortState = iota
	PortStateDiscarding
	PortStateLearning
	PortStateForwarding
)

var PortStateStrMap = map[PortState]string{
	PortStateDisabled:   "Disabled",
	PortStateDiscarding: "Discarding",
	PortStateLearning:   "Learning",
	PortStateForwarding: "Forwarding",
}

func (s PortState) String() string { return PortStateStrMap[s] }
