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

// timers
package stp

type TimerType int

const (
	TimerTypeEdgeDelayWhile TimerType = iota
	TimerTypeFdWhile
	TimerTypeHelloWhen
	TimerTypeMdelayWhile
	TimerTypeRbWhile
	TimerTypeRcvdInfoWhile
	TimerTypeRrWhile
	TimerTypeTcWhile
)

var TimerTypeStrMap map[TimerType]string

func TimerTypeStrStateMapInit() {
	TimerTypeStrMap = make(map[TimerType]string)
	TimerTypeStrMap[TimerTypeEdgeDelayWhile] = "Edge Delay Timer"
	TimerTypeStrMap[TimerTypeFdWhile] = "Fd While Timer"
	TimerTypeStrMap[TimerTypeHelloWhen] = "Hello When Timer"
	TimerTypeStrMap[TimerTypeMdelayWhile] = "Migration Delay Timer"
	TimerTypeStrMap[TimerTypeRbWhile] = "Recent Backup Timer"
	TimerTypeStrMap[TimerTypeRcvdInfoWhile] = "Received Info Timer"
	TimerTypeStrMap[TimerTypeRrWhile] = "Recent Root Timer"
	TimerTypeStrMap[TimerTypeTcWhile] = "Topology Change Timer"
}

func (t TimerType) String() string { return TimerTypeStrMap[t] }

// Timer returns the remaining seconds of a per port timer
func (p *StpPort) Timer(t TimerType) uint16 {
	switch t {
	case TimerTypeEdgeDelayWhile:
		return p.EdgeDelayWhile
	case TimerTypeHelloWhen:
		return p.HelloWhen
	case TimerTypeMdelayWhile:
		return p.MdelayWhile
	}
	return 0
}

// Timer returns the remaining seconds of a per tree port timer
func (tp *TreePort) Timer(t TimerType) uint16 {
	switch t {
	case TimerTypeFdWhile:
		return tp.FdWhile
	case TimerTypeRbWhile:
		return tp.RbWhile
	case TimerTypeRcvdInfoWhile:
		return tp.RcvdInfoWhile
	case TimerTypeRrWhile:
		return tp.RrWhile
	case TimerTypeTcWhile:
		return tp.TcWhile
	}
	return 0
}

// timer snapshot keyed by name
func timerMap(types []TimerType, get func(TimerType) uint16) map[string]uint16 {
	m := make(map[string]uint16, len(types))
	for _, t := range types {
		m[t.String()] = get(t)
	}
	return m
}

var portTimerTypes = []TimerType{TimerTypeEdgeDelayWhile, TimerTypeHelloWhen, TimerTypeMdelayWhile}

var treePortTimerTypes = []TimerType{TimerTypeFdWhile, TimerTypeRbWhile, TimerTypeRcvdInfoWhile, TimerTypeRrWhile, TimerTypeTcWhile}
