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

// pcap.go
// Package hw binds the protocol engine to a Linux host: BPDUs are sent and
// received with libpcap and port states are pushed into the kernel bridge
// over netlink.
package hw

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	stp "l2mstp/stp/protocol"
)

const (
	STP_SNAPSHOT_LEN = 1518
	STP_PROMISCUOUS  = false
	STP_PCAP_TIMEOUT = 50 * time.Millisecond
)

var ErrPortNotOpen = errors.New("pcap handle not open")

// DeliverFunc receives every frame captured on a port
type DeliverFunc func(ifindex int32, vlan uint16, frame []byte)

type pcapPort struct {
	name   string
	handle *pcap.Handle
	done   chan struct{}
}

// PcapTransport opens one capture handle per port.  Send is called from the
// engine goroutine while the receive goroutines only read their own handle.
type PcapTransport struct {
	mu      sync.RWMutex
	ports   map[int32]*pcapPort
	deliver DeliverFunc
	wg      sync.WaitGroup
}

func NewPcapTransport(deliver DeliverFunc) *PcapTransport {
	return &PcapTransport{
		ports:   make(map[int32]*pcapPort),
		deliver: deliver,
	}
}

// AddPort opens the interface, installs the BPDU filter and starts the
// receive goroutine
func (t *PcapTransport) AddPort(ifindex int32, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.ports[ifindex]; ok {
		return nil
	}
	handle, err := pcap.OpenLive(name, STP_SNAPSHOT_LEN, STP_PROMISCUOUS, STP_PCAP_TIMEOUT)
	if err != nil {
		stp.StpLogger("ERROR", fmt.Sprintf("Creating Pcap Handler failed for %s: %s", name, err))
		return err
	}
	prog, err := BpduFilterProgram()
	if err == nil {
		err = handle.SetBPFInstructionFilter(prog)
	}
	if err != nil {
		stp.StpLogger("ERROR", fmt.Sprintf("setting bpdu filter for %s failed: %s", name, err))
		handle.Close()
		return err
	}
	pp := &pcapPort{name: name, handle: handle, done: make(chan struct{})}
	t.ports[ifindex] = pp
	t.wg.Add(1)
	go t.ReceiveFrames(ifindex, pp)
	stp.StpLogger("INFO", fmt.Sprintf("rx started for %s ifindex %d", name, ifindex))
	return nil
}

// DelPort stops the receive goroutine and closes the handle
func (t *PcapTransport) DelPort(ifindex int32) {
	t.mu.Lock()
	pp, ok := t.ports[ifindex]
	delete(t.ports, ifindex)
	t.mu.Unlock()
	if ok {
		close(pp.done)
		pp.handle.Close()
	}
}

// Close releases every port and waits for the receive goroutines
func (t *PcapTransport) Close() {
	t.mu.RLock()
	ifindexes := make([]int32, 0, len(t.ports))
	for ifindex := range t.ports {
		ifindexes = append(ifindexes, ifindex)
	}
	t.mu.RUnlock()
	for _, ifindex := range ifindexes {
		t.DelPort(ifindex)
	}
	t.wg.Wait()
}

// Send writes the frame as built by the engine.  The 802.1Q tag, when
// needed, is already part of the frame.
func (t *PcapTransport) Send(port int32, vlan uint16, frame []byte, tagged bool) error {
	t.mu.RLock()
	pp, ok := t.ports[port]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("port %d: %w", port, ErrPortNotOpen)
	}
	return pp.handle.WritePacketData(frame)
}

// ReceiveFrames hands every captured frame to the deliver func until the
// port is deleted
func (t *PcapTransport) ReceiveFrames(ifindex int32, pp *pcapPort) {
	defer t.wg.Done()
	pktSrc := gopacket.NewPacketSource(pp.handle, layers.LayerTypeEthernet)
	for {
		select {
		case <-pp.done:
			return
		case pkt, ok := <-pktSrc.Packets():
			if !ok {
				stp.StpLogger("INFO", fmt.Sprintf("Pcap closed terminate go routine for %s", pp.name))
				return
			}
			t.deliver(ifindex, frameVlan(pkt), pkt.Data())
		}
	}
}

func frameVlan(pkt gopacket.Packet) uint16 {
	if l := pkt.Layer(layers.LayerTypeDot1Q); l != nil {
		return l.(*layers.Dot1Q).VLANIdentifier
	}
	return 0
}
