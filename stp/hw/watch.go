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

// watch.go
package hw

import (
	"context"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"

	stp "l2mstp/stp/protocol"
)

// LinkStateFunc reports a link change to the engine
type LinkStateFunc func(ifindex int32, up bool, fullDuplex bool) error

// LinkWatcher follows the oper state of the bridge ports
type LinkWatcher struct {
	ports  map[int32]bool
	report LinkStateFunc
}

func NewLinkWatcher(ports []int32, report LinkStateFunc) *LinkWatcher {
	w := &LinkWatcher{ports: make(map[int32]bool), report: report}
	for _, p := range ports {
		w.ports[p] = false
	}
	return w
}

func linkUp(link netlink.Link) bool {
	attrs := link.Attrs()
	return attrs.OperState == netlink.OperUp ||
		(attrs.OperState == netlink.OperUnknown && attrs.Flags&net.FlagUp != 0)
}

// Run reports the current state of every port and then every change until
// ctx is done.  Duplex is not carried by netlink, links are taken as full
// duplex.
func (w *LinkWatcher) Run(ctx context.Context) error {
	updates := make(chan netlink.LinkUpdate, 64)
	done := make(chan struct{})
	defer close(done)
	if err := netlink.LinkSubscribe(updates, done); err != nil {
		return err
	}
	for ifindex := range w.ports {
		link, err := netlink.LinkByIndex(int(ifindex))
		if err != nil {
			stp.StpLogger("ERROR", fmt.Sprintf("link %d lookup failed: %s", ifindex, err))
			continue
		}
		w.update(ifindex, linkUp(link))
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return fmt.Errorf("link subscription closed")
			}
			ifindex := int32(u.Attrs().Index)
			if _, ok := w.ports[ifindex]; !ok {
				continue
			}
			w.update(ifindex, linkUp(u.Link))
		}
	}
}

func (w *LinkWatcher) update(ifindex int32, up bool) {
	if w.ports[ifindex] == up {
		return
	}
	w.ports[ifindex] = up
	stp.StpLogger("INFO", fmt.Sprintf("link %d oper %v", ifindex, up))
	if err := w.report(ifindex, up, true); err != nil {
		stp.StpLogger("ERROR", fmt.Sprintf("link %d report failed: %s", ifindex, err))
	}
}
