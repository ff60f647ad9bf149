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

package fsm

import (
	"errors"
	"testing"
)

const (
	testStateNone = iota + 1
	testStateA
	testStateB
)

const (
	testEventBegin = iota + 1
	testEventGo
)

type testStateEvent struct {
	s, ps  State
	e, pe  Event
	src    string
	logEna bool
}

func (se *testStateEvent) CurrentState() State    { return se.s }
func (se *testStateEvent) PreviousState() State   { return se.ps }
func (se *testStateEvent) CurrentEvent() Event    { return se.e }
func (se *testStateEvent) PreviousEvent() Event   { return se.pe }
func (se *testStateEvent) EnableLogging(ena bool) { se.logEna = ena }
func (se *testStateEvent) IsLoggerEna() bool      { return se.logEna }
func (se *testStateEvent) SetState(s State) {
	se.ps = se.s
	se.s = s
}
func (se *testStateEvent) SetEvent(src string, e Event) {
	se.src = src
	se.pe = se.e
	se.e = e
}

func TestMachineProcessEvent(t *testing.T) {
	calls := 0
	rules := Ruleset{}
	rules.AddRule(testStateNone, testEventBegin, func(m Machine, data interface{}) State {
		calls++
		return testStateA
	})
	// the callback may collapse straight through to another state
	rules.AddRule(testStateA, testEventGo, func(m Machine, data interface{}) State {
		calls++
		if data.(int) != 7 {
			t.Errorf("unexpected data %v", data)
		}
		return testStateB
	})

	m := &Machine{Curr: &testStateEvent{}, Rules: &rules}
	m.Start(testStateNone)

	if err := m.ProcessEvent("TEST", testEventBegin, nil); err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	if m.Curr.CurrentState() != testStateA {
		t.Fatalf("expected state A got %d", m.Curr.CurrentState())
	}
	if err := m.ProcessEvent("TEST", testEventGo, 7); err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	if m.Curr.CurrentState() != testStateB || m.Curr.PreviousState() != testStateA {
		t.Fatalf("unexpected states curr %d prev %d", m.Curr.CurrentState(), m.Curr.PreviousState())
	}
	if m.Curr.CurrentEvent() != testEventGo || m.Curr.PreviousEvent() != testEventBegin {
		t.Fatalf("unexpected events curr %d prev %d", m.Curr.CurrentEvent(), m.Curr.PreviousEvent())
	}
	if calls != 2 {
		t.Fatalf("expected 2 callbacks got %d", calls)
	}
}

func TestMachineInvalidTransition(t *testing.T) {
	rules := Ruleset{}
	rules.AddRule(testStateNone, testEventBegin, func(m Machine, data interface{}) State {
		return testStateA
	})
	m := &Machine{Curr: &testStateEvent{}, Rules: &rules}
	m.Start(testStateNone)

	err := m.ProcessEvent("TEST", testEventGo, nil)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition got %v", err)
	}
	if m.Curr.CurrentState() != testStateNone {
		t.Fatalf("state changed on invalid transition %d", m.Curr.CurrentState())
	}
	if rules.HasRule(testStateA, testEventGo) {
		t.Fatalf("unexpected rule")
	}
}
