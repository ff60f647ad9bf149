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

// signal.go
package stp

import (
	"fmt"
)

// MachineId names the machine a signal is delivered to
type MachineId int

const (
	MachinePim MachineId = iota + 1
	MachinePrs
	MachinePrt
	MachinePst
	MachineTcm
	MachinePpm
	MachinePtx
	MachinePrx
	MachineBdm
)

var MachineIdStrMap = map[MachineId]string{
	MachinePim: "PIM",
	MachinePrs: "PRS",
	MachinePrt: "PRT",
	MachinePst: "PST",
	MachineTcm: "TCM",
	MachinePpm: "PPM",
	MachinePtx: "PTX",
	MachinePrx: "PRX",
	MachineBdm: "BDM",
}

func (m MachineId) String() string { return MachineIdStrMap[m] }

// signals pending beyond this count indicate machines feeding each other
const maxSignalsPerEvent = 1 << 16

type signalReq struct {
	m    MachineId
	port int32
	idx  MstIndex
}

// signal asks for the machine's gate to be re-evaluated before the current
// entry point returns.  A request already pending is not queued twice.
func (b *Bridge) signal(m MachineId, port int32, idx MstIndex) {
	req := signalReq{m: m, port: port, idx: idx}
	if b.sigPending[req] {
		return
	}
	b.sigPending[req] = true
	b.sigQ = append(b.sigQ, req)
}

// signalAllTrees queues m for every tree port of the port
func (b *Bridge) signalAllTrees(m MachineId, p *StpPort) {
	for _, tp := range p.TreePortList() {
		b.signal(m, p.IfIndex, tp.Index)
	}
}

func (b *Bridge) dropSignals(idx MstIndex) {
	q := b.sigQ[:0]
	for _, req := range b.sigQ {
		if req.idx == idx {
			delete(b.sigPending, req)
			continue
		}
		q = append(q, req)
	}
	b.sigQ = q
}

func (b *Bridge) dropPortSignals(port int32) {
	q := b.sigQ[:0]
	for _, req := range b.sigQ {
		if req.port == port && req.m != MachinePrs {
			delete(b.sigPending, req)
			continue
		}
		q = append(q, req)
	}
	b.sigQ = q
}

// runSignals drains the queue in FIFO order
func (b *Bridge) runSignals() {
	if !b.Active {
		b.sigQ = b.sigQ[:0]
		b.sigPending = make(map[signalReq]bool)
		return
	}
	n := 0
	for len(b.sigQ) > 0 {
		req := b.sigQ[0]
		b.sigQ = b.sigQ[1:]
		delete(b.sigPending, req)
		n++
		if n > maxSignalsPerEvent {
			StpLogger("ERROR", fmt.Sprintf("signal queue did not drain, dropping %d requests", len(b.sigQ)+1))
			b.sigQ = b.sigQ[:0]
			b.sigPending = make(map[signalReq]bool)
			return
		}
		b.dispatch(req)
	}
	b.sigQ = b.sigQ[:0]
}

func (b *Bridge) dispatch(req signalReq) {
	if req.m == MachinePrs {
		if tb := b.Tree(req.idx); tb != nil {
			tb.PrsMachineFsm.Gate()
		}
		return
	}
	p := b.PortMap[req.port]
	if p == nil {
		return
	}
	switch req.m {
	case MachinePpm:
		p.PpmmMachineFsm.Gate()
		return
	case MachinePtx:
		p.PtxmMachineFsm.Gate()
		return
	case MachinePrx:
		p.PrxmMachineFsm.Gate(nil)
		return
	case MachineBdm:
		p.BdmMachineFsm.Gate()
		return
	}
	tp := p.Tree(req.idx)
	if tp == nil {
		return
	}
	switch req.m {
	case MachinePim:
		tp.PimMachineFsm.Gate()
	case MachinePrt:
		tp.PrtMachineFsm.Gate()
	case MachinePst:
		tp.PstMachineFsm.Gate()
	case MachineTcm:
		tp.TcMachineFsm.Gate()
	}
}
