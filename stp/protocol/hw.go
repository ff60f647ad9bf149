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

// hw.go
package stp

import (
	"fmt"
)

// Transport sends an encoded frame out of a port.  vlan is used when tagged
// is set.
type Transport interface {
	Send(port int32, vlan uint16, frame []byte, tagged bool) error
}

// PortStateSync pushes the computed per instance port state into the
// forwarding plane.  Flush removes the learned addresses of the port for the
// vlans mapped to the instance.
type PortStateSync interface {
	SetPortState(mstid MstId, port int32, state PortState) error
	Flush(mstid MstId, port int32, vlans BitMask4k) error
}

// NullTransport drops every frame
type NullTransport struct{}

func (NullTransport) Send(port int32, vlan uint16, frame []byte, tagged bool) error { return nil }

// NullPortStateSync ignores every request
type NullPortStateSync struct{}

func (NullPortStateSync) SetPortState(mstid MstId, port int32, state PortState) error { return nil }
func (NullPortStateSync) Flush(mstid MstId, port int32, vlans BitMask4k) error { return nil }

func (b *Bridge) hwSetPortState(mstid MstId, ifindex int32, state PortState) {
	if err := b.sync.SetPortState(mstid, ifindex, state); err != nil {
		StpLogger("ERROR", fmt.Sprintf("set port %d mst %d state %s failed: %s", ifindex, mstid, state, err))
	}
}

func (b *Bridge) hwFlush(tb *TreeBridge, ifindex int32) {
	mstid := tb.MstId
	if err := b.sync.Flush(mstid, ifindex, tb.VlanMask); err != nil {
		StpLogger("ERROR", fmt.Sprintf("flush port %d mst %d failed: %s", ifindex, mstid, err))
	}
}

func (b *Bridge) hwSend(ifindex int32, frame []byte) error {
	tagged := b.Vlan != 0
	if err := b.transport.Send(ifindex, b.Vlan, frame, tagged); err != nil {
		StpLogger("ERROR", fmt.Sprintf("tx port %d failed: %s", ifindex, err))
		return err
	}
	return nil
}

// SetTransport replaces the frame transport
func (b *Bridge) SetTransport(t Transport) {
	if t == nil {
		t = NullTransport{}
	}
	b.transport = t
}

// SetPortStateSync replaces the forwarding plane collaborator
func (b *Bridge) SetPortStateSync(s PortStateSync) {
	if s == nil {
		s = NullPortStateSync{}
	}
	b.sync = s
}
