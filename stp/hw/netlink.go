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

// netlink.go
package hw

import (
	"fmt"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	stp "l2mstp/stp/protocol"
)

// NetlinkSync drives the Linux bridge port flags from the CIST port state.
// The kernel bridge keeps one state per port so MSTI states are only
// logged.
//
//	Discarding  learning off, flooding off
//	Learning    learning on, flooding off
//	Forwarding  learning on, flooding on
type NetlinkSync struct{}

func NewNetlinkSync() *NetlinkSync {
	return &NetlinkSync{}
}

// portFlags returns the learning and flooding flags of a state
func portFlags(state stp.PortState) (learning bool, flood bool) {
	switch state {
	case stp.PortStateForwarding:
		return true, true
	case stp.PortStateLearning:
		return true, false
	}
	return false, false
}

func (s *NetlinkSync) SetPortState(mstid stp.MstId, port int32, state stp.PortState) error {
	if mstid != stp.CistMstId {
		stp.StpLogger("DEBUG", fmt.Sprintf("port %d mst %d state %s not pushed to kernel", port, mstid, state))
		return nil
	}
	link, err := netlink.LinkByIndex(int(port))
	if err != nil {
		return err
	}
	learning, flood := portFlags(state)
	if err := netlink.LinkSetLearning(link, learning); err != nil {
		return err
	}
	return netlink.LinkSetFlood(link, flood)
}

// Flush deletes the dynamic fdb entries of the port whose vlan belongs to
// the instance.  Untagged entries belong to the CIST.
func (s *NetlinkSync) Flush(mstid stp.MstId, port int32, vlans stp.BitMask4k) error {
	neighs, err := netlink.NeighList(int(port), unix.AF_BRIDGE)
	if err != nil {
		return err
	}
	flushed := 0
	for i := range neighs {
		n := &neighs[i]
		if !flushEntry(n, mstid, vlans) {
			continue
		}
		if err := netlink.NeighDel(n); err != nil {
			return err
		}
		flushed++
	}
	stp.StpLogger("DEBUG", fmt.Sprintf("port %d mst %d flushed %d fdb entries", port, mstid, flushed))
	return nil
}

func flushEntry(n *netlink.Neigh, mstid stp.MstId, vlans stp.BitMask4k) bool {
	if n.State&netlink.NUD_PERMANENT != 0 || n.Flags&netlink.NTF_SELF != 0 {
		return false
	}
	if n.Vlan == 0 {
		return mstid == stp.CistMstId
	}
	return vlans.IsSet(n.Vlan)
}
