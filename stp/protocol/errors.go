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

// errors.go
package stp

import "errors"

var (
	ErrBpduTooShort      = errors.New("bpdu too short")
	ErrBpduBadLlc        = errors.New("bpdu bad llc header")
	ErrBpduUnknownType   = errors.New("bpdu unknown type")
	ErrBpduBadProtocol   = errors.New("bpdu bad protocol identifier")
	ErrNoFreeInstance    = errors.New("no free instance slot")
	ErrInstanceNotFound  = errors.New("instance not found")
	ErrPortNotFound      = errors.New("port not found")
	ErrPortExists        = errors.New("port already exists")
	ErrInvalidParam      = errors.New("invalid parameter")
	ErrBridgeNotFound    = errors.New("bridge not created")
	ErrBridgeExists      = errors.New("bridge already created")
	ErrBridgeNotActive   = errors.New("bridge not active")
	ErrFrameNotForBridge = errors.New("frame not addressed to bridge group address")
)
