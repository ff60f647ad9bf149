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

// 802.1Q-2014 13.28 Port Timers state machine
// The timers of every port and tree port are decremented once per second,
// then every machine that tests a timer is re-evaluated.
package stp

const PtmMachineModuleStr = "Port Timer State Machine"

// decrement 13.28 dec()
func decrement(t *uint16) bool {
	if *t == 0 {
		return false
	}
	*t--
	return true
}

// tick decrements the per port timers
func (p *StpPort) tick() {
	decrement(&p.MdelayWhile)
	decrement(&p.HelloWhen)
	decrement(&p.EdgeDelayWhile)
	if p.TxCount > 0 {
		p.TxCount--
	}
}

// tick decrements the per tree port timers
func (tp *TreePort) tick() {
	decrement(&tp.FdWhile)
	decrement(&tp.RrWhile)
	decrement(&tp.RbWhile)
	decrement(&tp.TcWhile)
	if decrement(&tp.RcvdInfoWhile) && tp.RcvdInfoWhile == 0 && tp.InfoIs == PortInfoStateReceived {
		StpMachineLogger("DEBUG", "PTM", tp.p.IfIndex, tp.t.MstId, "received info expired")
	}
}

// Tick is the one second timer entry point
func (b *Bridge) Tick() {
	if !b.Active {
		return
	}
	b.TickCount++
	for _, p := range b.Ports() {
		p.tick()
		b.signal(MachinePpm, p.IfIndex, CistIndex)
		b.signal(MachinePtx, p.IfIndex, CistIndex)
		b.signal(MachineBdm, p.IfIndex, CistIndex)
		for _, tp := range p.TreePortList() {
			tp.tick()
			b.signal(MachinePim, p.IfIndex, tp.Index)
			b.signal(MachinePrt, p.IfIndex, tp.Index)
			b.signal(MachineTcm, p.IfIndex, tp.Index)
		}
	}
	b.runSignals()
}
