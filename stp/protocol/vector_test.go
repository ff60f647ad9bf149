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

// vector_test.go
package stp

import (
	"fmt"
	"testing"
)

var (
	testAddrA = [6]uint8{0x00, 0x00, 0x00, 0x00, 0x00, 0x01}
	testAddrB = [6]uint8{0x00, 0x00, 0x00, 0x00, 0x00, 0x02}
)

func TestBridgeIdFields(t *testing.T) {
	id := CreateBridgeId(testAddrA, 4096, 10)
	if id.Priority() != 4096 {
		t.Error(fmt.Sprintf("Failed priority expected 4096 got %d", id.Priority()))
		t.FailNow()
	}
	if id.SystemId() != 10 {
		t.Error(fmt.Sprintf("Failed system id expected 10 got %d", id.SystemId()))
		t.FailNow()
	}
	if id.Addr() != testAddrA {
		t.Error(fmt.Sprintf("Failed address got %v", id.Addr()))
		t.FailNow()
	}
	if id.String() != "100a.00:00:00:00:00:01" {
		t.Error(fmt.Sprintf("Failed string got %s", id))
		t.FailNow()
	}
	// priority bits below 4096 are dropped
	if CreateBridgeId(testAddrA, 4097, 0) != CreateBridgeId(testAddrA, 4096, 0) {
		t.Error("Failed priority not masked to the top nibble")
		t.FailNow()
	}
}

func TestPortIdFields(t *testing.T) {
	id := CreatePortId(128, 5)
	if id != 0x8005 {
		t.Error(fmt.Sprintf("Failed port id expected 0x8005 got 0x%04x", uint16(id)))
		t.FailNow()
	}
	if id.Priority() != 128 || id.Number() != 5 || id.String() != "128.5" {
		t.Error(fmt.Sprintf("Failed port id fields %s", id))
		t.FailNow()
	}
}

func TestCompareVectors(t *testing.T) {
	base := PriorityVector{
		RootBridgeId:       CreateBridgeId(testAddrA, 32768, 0),
		ExtRootPathCost:    100,
		RegionalRootId:     CreateBridgeId(testAddrA, 32768, 0),
		IntRootPathCost:    100,
		DesignatedBridgeId: CreateBridgeId(testAddrB, 32768, 0),
		DesignatedPortId:   CreatePortId(128, 2),
	}
	if CompareVectors(&base, &base) != 0 {
		t.Error("Failed equal vectors do not compare equal")
		t.FailNow()
	}

	better := []PriorityVector{base, base, base, base, base, base}
	better[0].RootBridgeId = CreateBridgeId(testAddrB, 4096, 0)
	better[1].ExtRootPathCost = 99
	better[2].RegionalRootId = CreateBridgeId(testAddrA, 28672, 0)
	better[3].IntRootPathCost = 99
	better[4].DesignatedBridgeId = CreateBridgeId(testAddrA, 32768, 0)
	better[5].DesignatedPortId = CreatePortId(128, 1)
	for i := range better {
		if CompareVectors(&better[i], &base) != -1 {
			t.Error(fmt.Sprintf("Failed field %d: %s should be better than %s", i, better[i], base))
			t.FailNow()
		}
		if CompareVectors(&base, &better[i]) != 1 {
			t.Error(fmt.Sprintf("Failed field %d: %s should be worse than %s", i, base, better[i]))
			t.FailNow()
		}
	}

	// an earlier field outranks every later one
	v := base
	v.ExtRootPathCost = 0
	v.IntRootPathCost = 1000
	if CompareVectors(&v, &base) != -1 {
		t.Error("Failed external cost does not outrank internal cost")
		t.FailNow()
	}
}

func TestBitMask4k(t *testing.T) {
	m, err := ParseVlanList("1-2, 10,4094")
	if err != nil {
		t.Error(fmt.Sprintf("Failed parse: %s", err))
		t.FailNow()
	}
	if m.String() != "1-2,10,4094" || m.Count() != 4 {
		t.Error(fmt.Sprintf("Failed mask %s count %d", m.String(), m.Count()))
		t.FailNow()
	}
	if m.Next(3) != 10 || m.Next(4095) != -1 {
		t.Error(fmt.Sprintf("Failed next %d %d", m.Next(3), m.Next(4095)))
		t.FailNow()
	}
	var o BitMask4k
	o.Set(2)
	o.Set(3)
	if m.And(o).String() != "2" || m.AndNot(o).String() != "1,10,4094" || m.Or(o).String() != "1-3,10,4094" {
		t.Error(fmt.Sprintf("Failed set operations %s %s %s", m.And(o), m.AndNot(o), m.Or(o)))
		t.FailNow()
	}
	m.Clear(1)
	m.Clear(2)
	if m.IsSet(1) || m.String() != "10,4094" {
		t.Error(fmt.Sprintf("Failed clear %s", m.String()))
		t.FailNow()
	}

	for _, bad := range []string{"0", "4095", "5-2", "a", "1-"} {
		if _, err := ParseVlanList(bad); err == nil {
			t.Error(fmt.Sprintf("Failed %q accepted", bad))
			t.FailNow()
		}
	}
	if empty, err := ParseVlanList(""); err != nil || !empty.IsEmpty() {
		t.Error("Failed empty list")
		t.FailNow()
	}
}
