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

// filter.go
package hw

import (
	"github.com/google/gopacket/pcap"
	"golang.org/x/net/bpf"
)

const (
	// 01:80:c2:00:00:00 bridge group address
	bpduDstHi = 0x0180c200
	bpduDstLo = 0x0000
	// 01:00:0c:cc:cc:cd shared spanning tree address
	pvstDstHi = 0x01000ccc
	pvstDstLo = 0xcccd

	acceptLen = 0xffff
)

// bpduFilter accepts frames sent to the bridge group address or to the
// shared spanning tree address.  The destination address is the first
// field of a tagged frame too.
var bpduFilter = []bpf.Instruction{
	bpf.LoadAbsolute{Off: 0, Size: 4},
	bpf.JumpIf{Cond: bpf.JumpEqual, Val: bpduDstHi, SkipFalse: 3},
	bpf.LoadAbsolute{Off: 4, Size: 2},
	bpf.JumpIf{Cond: bpf.JumpEqual, Val: bpduDstLo, SkipFalse: 4},
	bpf.RetConstant{Val: acceptLen},
	bpf.JumpIf{Cond: bpf.JumpEqual, Val: pvstDstHi, SkipFalse: 2},
	bpf.LoadAbsolute{Off: 4, Size: 2},
	bpf.JumpIf{Cond: bpf.JumpEqual, Val: pvstDstLo, SkipTrue: 1},
	bpf.RetConstant{Val: 0},
	bpf.RetConstant{Val: acceptLen},
}

// BpduFilterProgram assembles the receive filter in the form libpcap takes
func BpduFilterProgram() ([]pcap.BPFInstruction, error) {
	raw, err := bpf.Assemble(bpduFilter)
	if err != nil {
		return nil, err
	}
	prog := make([]pcap.BPFInstruction, len(raw))
	for i, ins := range raw {
		prog[i] = pcap.BPFInstruction{Code: ins.Op, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
	}
	return prog, nil
}
