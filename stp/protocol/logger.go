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

// logger.go
package stp

func StpLogger(t string, msg string) {
	if gLogger == nil {
		return
	}
	switch t {
	case "INFO":
		gLogger.Info(msg)
	case "DEBUG":
		gLogger.Debug(msg)
	case "ERROR":
		gLogger.Err(msg)
	case "WARNING":
		gLogger.Warning(msg)
	}
}

// StpMachineLogger tags the entry with the state machine, port and instance
func StpMachineLogger(t string, m string, p int32, mstid MstId, msg string) {
	if gLogger == nil || !gLogger.Enabled() {
		return
	}
	e := gLogger.WithFields(map[string]interface{}{"fsm": m, "port": p, "mst": mstid})
	switch t {
	case "INFO":
		e.Info(msg)
	case "DEBUG":
		e.Debug(msg)
	case "ERROR":
		e.Error(msg)
	case "WARNING":
		e.Warn(msg)
	}
}
