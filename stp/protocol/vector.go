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

// vector.go
package stp

import (
	"bytes"
	"fmt"
	"net"
)

// BridgeId is the 8 octet bridge identifier: 4 bit priority, 12 bit system
// id extension (the mstid) followed by the bridge MAC address.
type BridgeId [8]uint8

func CreateBridgeId(addr [6]uint8, priority uint16, sysId MstId) BridgeId {
	var id BridgeId
	v := (priority & 0xF000) | (uint16(sysId) & 0x0FFF)
	id[0] = uint8(v >> 8)
	id[1] = uint8(v)
	copy(id[2:], addr[:])
	return id
}

func (id BridgeId) Priority() uint16 {
	return (uint16(id[0])<<8 | uint16(id[1])) & 0xF000
}

func (id BridgeId) SystemId() MstId {
	return MstId((uint16(id[0])<<8 | uint16(id[1])) & 0x0FFF)
}

func (id BridgeId) Addr() [6]uint8 {
	var a [6]uint8
	copy(a[:], id[2:])
	return a
}

func (id BridgeId) String() string {
	return fmt.Sprintf("%04x.%s", uint16(id[0])<<8|uint16(id[1]), net.HardwareAddr(id[2:]).String())
}

// CompareBridgeId compares priority then MAC address
func CompareBridgeId(a, b BridgeId) int {
	return bytes.Compare(a[:], b[:])
}

// CompareBridgeAddr compares only the MAC portion
func CompareBridgeAddr(a, b BridgeId) int {
	return bytes.Compare(a[2:], b[2:])
}

// PortId is the 4 bit port priority followed by the 12 bit port number
type PortId uint16

func CreatePortId(priority uint8, number int32) PortId {
	return PortId(uint16(priority&0xF0)<<8 | uint16(number)&0x0FFF)
}

func (p PortId) Priority() uint8 { return uint8(p>>8) & 0xF0 }
func (p PortId) Number() uint16  { return uint16(p) & 0x0FFF }
func (p PortId) String() string  { return fmt.Sprintf("%d.%d", p.Priority(), p.Number()) }

// PriorityVector is used for both the CIST and the MSTIs.  MSTI vectors leave
// RootBridgeId and ExtRootPathCost zeroed.
type PriorityVector struct {
	RootBridgeId       BridgeId
	ExtRootPathCost    uint32
	RegionalRootId     BridgeId
	IntRootPathCost    uint32
	DesignatedBridgeId BridgeId
	DesignatedPortId   PortId
}

func compareUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CompareVectors returns -1 when a is better than b, 1 when worse and 0 when
// equal.  Fields are compared in order root, external cost, regional root,
// internal cost, designated bridge, designated port.
func CompareVectors(a, b *PriorityVector) int {
	if c := CompareBridgeId(a.RootBridgeId, b.RootBridgeId); c != 0 {
		return c
	}
	if c := compareUint32(a.ExtRootPathCost, b.ExtRootPathCost); c != 0 {
		return c
	}
	if c := CompareBridgeId(a.RegionalRootId, b.RegionalRootId); c != 0 {
		return c
	}
	if c := compareUint32(a.IntRootPathCost, b.IntRootPathCost); c != 0 {
		return c
	}
	if c := CompareBridgeId(a.DesignatedBridgeId, b.DesignatedBridgeId); c != 0 {
		return c
	}
	return compareUint32(uint32(a.DesignatedPortId), uint32(b.DesignatedPortId))
}

func (v PriorityVector) String() string {
	return fmt.Sprintf("root %s ext %d regroot %s int %d desbrg %s desport %s",
		v.RootBridgeId, v.ExtRootPathCost, v.RegionalRootId, v.IntRootPathCost,
		v.DesignatedBridgeId, v.DesignatedPortId)
}

// Times are in whole seconds.  RemainingHops is the only field meaningful
// for an MSTI.
type Times struct {
	MessageAge    uint16
	MaxAge        uint16
	HelloTime     uint16
	ForwardDelay  uint16
	RemainingHops uint8
}

func TimesEqual(a, b *Times) bool {
	return *a == *b
}
