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

// Package fsm is a small table driven finite state machine used by the
// protocol state machines.  Each machine owns a Ruleset keyed by
// (current state, event); the callback registered for the pair performs the
// state actions and returns the state the machine ends up in.
package fsm

import (
	"errors"
	"fmt"
)

type State int

type Event int

// Callback performs the actions of the state being entered and returns the
// resulting state.  Callbacks may return a state other than the one the rule
// targets when the target collapses through an unconditional transition.
type Callback func(m Machine, data interface{}) State

type ruleKey struct {
	s State
	e Event
}

// Ruleset maps (state, event) to the transition callback
type Ruleset map[ruleKey]Callback

var ErrInvalidTransition = errors.New("invalid transition")

// StateEvent keeps track of the current/previous state and event of a
// machine.  Users provide their own implementation to hook logging.
type StateEvent interface {
	CurrentState() State
	PreviousState() State
	CurrentEvent() Event
	PreviousEvent() Event
	SetState(s State)
	SetEvent(src string, e Event)
	EnableLogging(ena bool)
	IsLoggerEna() bool
}

func (r Ruleset) AddRule(s State, e Event, cb Callback) {
	r[ruleKey{s: s, e: e}] = cb
}

func (r Ruleset) HasRule(s State, e Event) bool {
	_, ok := r[ruleKey{s: s, e: e}]
	return ok
}

type Machine struct {
	Curr  StateEvent
	Rules *Ruleset
}

// Start forces the machine into state s without running any callback
func (m *Machine) Start(s State) {
	m.Curr.SetState(s)
}

// ProcessEvent looks up the rule for the current state and event, runs the
// callback and records the resulting state.
func (m *Machine) ProcessEvent(src string, e Event, data interface{}) error {
	if m.Rules == nil || m.Curr == nil {
		return fmt.Errorf("machine not initialized: %w", ErrInvalidTransition)
	}
	cb, ok := (*m.Rules)[ruleKey{s: m.Curr.CurrentState(), e: e}]
	if !ok {
		return fmt.Errorf("state %d event %d src %s: %w", m.Curr.CurrentState(), e, src, ErrInvalidTransition)
	}
	m.Curr.SetEvent(src, e)
	m.Curr.SetState(cb(*m, data))
	return nil
}
