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

// bitmap.go
package stp

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// BitMask4k covers vlan ids and port numbers 0..4095
type BitMask4k [64]uint64

func (m *BitMask4k) Set(i int)   { m[i>>6] |= 1 << uint(i&63) }
func (m *BitMask4k) Clear(i int) { m[i>>6] &^= 1 << uint(i&63) }

func (m *BitMask4k) IsSet(i int) bool {
	if i < 0 || i > 4095 {
		return false
	}
	return m[i>>6]&(1<<uint(i&63)) != 0
}

func (m *BitMask4k) IsEmpty() bool {
	for _, w := range m {
		if w != 0 {
			return false
		}
	}
	return true
}

func (m *BitMask4k) Count() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return n
}

// Next returns the first set bit at or after i, -1 if none
func (m *BitMask4k) Next(i int) int {
	if i < 0 {
		i = 0
	}
	for w := i >> 6; w < len(m); w++ {
		word := m[w]
		if w == i>>6 {
			word &= ^uint64(0) << uint(i&63)
		}
		if word != 0 {
			return w<<6 + bits.TrailingZeros64(word)
		}
	}
	return -1
}

// List returns the set bits in ascending order
func (m *BitMask4k) List() []int {
	l := make([]int, 0)
	for i := m.Next(0); i >= 0; i = m.Next(i + 1) {
		l = append(l, i)
	}
	return l
}

func (m BitMask4k) And(o BitMask4k) BitMask4k {
	for i := range m {
		m[i] &= o[i]
	}
	return m
}

func (m BitMask4k) Or(o BitMask4k) BitMask4k {
	for i := range m {
		m[i] |= o[i]
	}
	return m
}

// AndNot returns the bits of m not present in o
func (m BitMask4k) AndNot(o BitMask4k) BitMask4k {
	for i := range m {
		m[i] &^= o[i]
	}
	return m
}

// String renders the mask as a range list e.g. "1-10,20"
func (m BitMask4k) String() string {
	parts := make([]string, 0)
	start, prev := -1, -1
	flush := func() {
		if start < 0 {
			return
		}
		if start == prev {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for i := m.Next(0); i >= 0; i = m.Next(i + 1) {
		if i != prev+1 || start < 0 {
			flush()
			start = i
		}
		prev = i
	}
	flush()
	return strings.Join(parts, ",")
}

// ParseVlanList parses a range list such as "1-10,20,30-31"
func ParseVlanList(s string) (BitMask4k, error) {
	var m BitMask4k
	s = strings.TrimSpace(s)
	if s == "" {
		return m, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi := part, part
		if idx := strings.Index(part, "-"); idx >= 0 {
			lo, hi = part[:idx], part[idx+1:]
		}
		l, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return m, fmt.Errorf("vlan list %q: %w", s, ErrInvalidParam)
		}
		h, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return m, fmt.Errorf("vlan list %q: %w", s, ErrInvalidParam)
		}
		if l < 1 || h > 4094 || l > h {
			return m, fmt.Errorf("vlan range %d-%d valid 1-4094: %w", l, h, ErrInvalidParam)
		}
		for v := l; v <= h; v++ {
			m.Set(v)
		}
	}
	return m, nil
}
