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

// harness_test.go
// In memory bridges connected by point to point links.  Frames sent by a
// bridge are queued and delivered to the peer port once the sending entry
// point has returned.
package stp

import (
	"fmt"
	"net"
	"testing"
)

type testEnd struct {
	b    *Bridge
	port int32
}

type testFrame struct {
	from  testEnd
	frame []byte
}

type testNet struct {
	bridges []*Bridge
	links   map[testEnd]testEnd
	queue   []testFrame
	// frames sent per port
	sent map[testEnd]int
}

type testTransport struct {
	net *testNet
	b   *Bridge
}

func (tt *testTransport) Send(port int32, vlan uint16, frame []byte, tagged bool) error {
	end := testEnd{b: tt.b, port: port}
	tt.net.sent[end]++
	tt.net.queue = append(tt.net.queue, testFrame{from: end, frame: frame})
	return nil
}

type testStateRecord struct {
	mstid MstId
	port  int32
	state PortState
}

// testSync records what the engine pushes to the forwarding plane
type testSync struct {
	states  []testStateRecord
	flushes map[int32]int
}

func newTestSync() *testSync {
	return &testSync{flushes: make(map[int32]int)}
}

func (ts *testSync) SetPortState(mstid MstId, port int32, state PortState) error {
	ts.states = append(ts.states, testStateRecord{mstid: mstid, port: port, state: state})
	return nil
}

func (ts *testSync) Flush(mstid MstId, port int32, vlans BitMask4k) error {
	ts.flushes[port]++
	return nil
}

func (ts *testSync) sawState(mstid MstId, port int32, state PortState) bool {
	for _, r := range ts.states {
		if r.mstid == mstid && r.port == port && r.state == state {
			return true
		}
	}
	return false
}

func newTestNet() *testNet {
	return &testNet{
		links: make(map[testEnd]testEnd),
		sent:  make(map[testEnd]int),
	}
}

func UsedForTestOnlyBridgeConfig(mac string, prio uint16) *StpBridgeConfig {
	c := DefaultStpBridgeConfig()
	c.Name = "br-" + mac[len(mac)-2:]
	c.Address = mac
	c.Priority = prio
	c.RegionName = "test-region"
	return &c
}

// addBridge creates a started bridge with ports 1..nports, links down
func (n *testNet) addBridge(t *testing.T, c *StpBridgeConfig, nports int) *Bridge {
	tt := &testTransport{net: n}
	b, err := NewStpBridge(c, tt, newTestSync())
	if err != nil {
		t.Error(fmt.Sprintf("Failed to create bridge %s: %s", c.Address, err))
		t.FailNow()
	}
	tt.b = b
	for i := 1; i <= nports; i++ {
		pc := DefaultStpPortConfig(int32(i), fmt.Sprintf("eth%d", i))
		if err := b.PortAdd(&pc); err != nil {
			t.Error(fmt.Sprintf("Failed to add port %d: %s", i, err))
			t.FailNow()
		}
	}
	b.Start()
	n.bridges = append(n.bridges, b)
	return b
}

// connect links two ports and brings both links up
func (n *testNet) connect(t *testing.T, a *Bridge, ap int32, b *Bridge, bp int32) {
	ea := testEnd{b: a, port: ap}
	eb := testEnd{b: b, port: bp}
	n.links[ea] = eb
	n.links[eb] = ea
	if err := a.PortEnable(ap, true); err != nil {
		t.Error(fmt.Sprintf("Failed to enable port %d: %s", ap, err))
		t.FailNow()
	}
	if err := b.PortEnable(bp, true); err != nil {
		t.Error(fmt.Sprintf("Failed to enable port %d: %s", bp, err))
		t.FailNow()
	}
	n.deliver()
}

// deliver drains the queue.  Frames sent on unconnected ports are lost.
func (n *testNet) deliver() {
	for i := 0; len(n.queue) > 0 && i < 100000; i++ {
		f := n.queue[0]
		n.queue = n.queue[1:]
		peer, ok := n.links[f.from]
		if !ok {
			continue
		}
		peer.b.RxFrame(peer.port, 0, f.frame)
	}
	n.queue = n.queue[:0]
}

func (n *testNet) tick() {
	for _, b := range n.bridges {
		b.Tick()
	}
	n.deliver()
}

// run ticks every bridge until cond holds or the tick budget is used
func (n *testNet) run(ticks int, cond func() bool) bool {
	n.deliver()
	for i := 0; i < ticks; i++ {
		if cond() {
			return true
		}
		n.tick()
	}
	return cond()
}

func treePortOf(b *Bridge, port int32, mstid MstId) *TreePort {
	tb := b.FindTree(mstid)
	if tb == nil || b.GetPort(port) == nil {
		return nil
	}
	return b.GetPort(port).Tree(tb.Index)
}

func portIs(b *Bridge, port int32, mstid MstId, role PortRole, state PortState) bool {
	tp := treePortOf(b, port, mstid)
	return tp != nil && tp.Role == role && tp.PortState() == state
}

func UsedForTestOnlyCheckPort(t *testing.T, b *Bridge, port int32, mstid MstId, role PortRole, state PortState) {
	tp := treePortOf(b, port, mstid)
	if tp == nil {
		t.Error(fmt.Sprintf("Failed %s port %d is not a member of mst %d", b.Name, port, mstid))
		t.FailNow()
	}
	if tp.Role != role || tp.PortState() != state {
		t.Error(fmt.Sprintf("Failed %s port %d mst %d expected %s/%s got %s/%s prt %s",
			b.Name, port, mstid, role, state, tp.Role, tp.PortState(), tp.PrtMachineFsm.GetCurrStateStr()))
		t.FailNow()
	}
}

// UsedForTestOnlyRxBpdu hands an encoded BPDU to the port as if it was
// received from src
func UsedForTestOnlyRxBpdu(t *testing.T, b *Bridge, port int32, src string, bpdu *Bpdu) {
	mac, _ := net.ParseMAC(src)
	frame, err := BuildBpduFrame(mac, 0, bpdu)
	if err != nil {
		t.Error(fmt.Sprintf("Failed to build frame: %s", err))
		t.FailNow()
	}
	if err := b.RxFrame(port, 0, frame); err != nil {
		t.Error(fmt.Sprintf("Failed rx on port %d: %s", port, err))
		t.FailNow()
	}
}

// UsedForTestOnlyRstBpdu is a designated RST BPDU announcing root
func UsedForTestOnlyRstBpdu(root BridgeId, cost uint32, designated BridgeId, portId PortId) *Bpdu {
	bpdu := &Bpdu{
		Version:            StpVersionRstp,
		Type:               BpduTypeRSTP,
		CistRootId:         root,
		CistExtPathCost:    cost,
		CistRegionalRootId: designated,
		CistPortId:         portId,
		MessageAge:         1,
		MaxAge:             BridgeMaxAgeDefault,
		HelloTime:          BridgeHelloTimeDefault,
		ForwardDelay:       BridgeForwardDelayDefault,
	}
	StpSetBpduFlags(false, false, false, false, PortRoleDesignated, false, false, &bpdu.Flags)
	return bpdu
}
