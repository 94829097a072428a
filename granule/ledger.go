// Copyright 2014 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

package granule

import (
	"github.com/armcca/rmm/common"
)

// Ledger is the packed, fixed-size granule state table: 4 bits per
// granule, 2 per byte, indexed by (addr-base)>>12 and rejecting
// addresses outside [base, base+N*4KiB) (spec.md §4.1). It
// holds no locking of its own — every handler acquires the monitor's
// global lock before touching it (spec.md §5).
type Ledger struct {
	base  uint64
	n     uint64
	bytes []byte
}

// NewLedger allocates a ledger for n granules starting at physical
// address base, all initially UNDELEGATED.
func NewLedger(base, n uint64) *Ledger {
	return &Ledger{
		base:  base,
		n:     n,
		bytes: make([]byte, (n+1)/2),
	}
}

func (l *Ledger) granuleNumber(addr uint64) (uint64, bool) {
	if !common.IsGranuleAligned(addr) || addr < l.base {
		return 0, false
	}
	gn := (addr - l.base) >> common.GranuleShift
	if gn >= l.n {
		return 0, false
	}
	return gn, true
}

// Get returns the state of the granule at addr and whether addr was a
// valid, in-range granule address at all.
func (l *Ledger) Get(addr uint64) (State, bool) {
	gn, ok := l.granuleNumber(addr)
	if !ok {
		return 0, false
	}
	i, shift := gn>>1, (gn&1)*4
	return State((l.bytes[i] >> shift) & 0xF), true
}

// Set stores the state of the granule at addr. The caller is
// responsible for having checked the transition is legal; Set itself
// does not validate preconditions (that's every handler's job via
// Assert first).
func (l *Ledger) Set(addr uint64, s State) bool {
	gn, ok := l.granuleNumber(addr)
	if !ok {
		return false
	}
	i, shift := gn>>1, (gn&1)*4
	l.bytes[i] = (l.bytes[i] &^ (0xF << shift)) | (byte(s) << shift)
	return true
}

// Assert reports whether addr is a valid granule currently in state
// expected. A false return (bad address, or wrong state) is the caller's
// cue to fail the whole RMI call with ErrInput.
func (l *Ledger) Assert(addr uint64, expected State) bool {
	s, ok := l.Get(addr)
	return ok && s == expected
}

// AssertRange checks that 512^(3-level) contiguous granules starting at
// addr are all in state expected (spec.md §4.1's assert_range). level 3
// covers a single granule, level 2 covers 512, level 1 covers 512^2,
// level 0 covers 512^3.
func (l *Ledger) AssertRange(addr uint64, level int, expected State) bool {
	count := contiguousCount(level)
	for i := uint64(0); i < count; i++ {
		if !l.Assert(addr+i*common.GranuleSize, expected) {
			return false
		}
	}
	return true
}

// SetRange stamps count = 512^(3-level) contiguous granules starting at
// addr to state s. Used by bulk promote/demote paths (e.g. REALM_CREATE
// promoting a multi-granule root RTT, REALM_DESTROY demoting it back).
func (l *Ledger) SetRange(addr uint64, level int, s State) bool {
	count := contiguousCount(level)
	for i := uint64(0); i < count; i++ {
		if !l.Set(addr+i*common.GranuleSize, s) {
			return false
		}
	}
	return true
}

func contiguousCount(level int) uint64 {
	count := uint64(1)
	for i := 0; i < 3-level; i++ {
		count *= 512
	}
	return count
}

// N returns the total number of delegable granules this ledger tracks.
func (l *Ledger) N() uint64 { return l.n }

// Base returns the first physical address this ledger tracks.
func (l *Ledger) Base() uint64 { return l.base }

// Count returns the number of granules currently in state s. Used by
// tests and the console's introspection table; O(n), not on any hot
// path (spec.md's non-goals exclude performance tuning).
func (l *Ledger) Count(s State) int {
	n := 0
	for gn := uint64(0); gn < l.n; gn++ {
		i, shift := gn>>1, (gn&1)*4
		if State((l.bytes[i]>>shift)&0xF) == s {
			n++
		}
	}
	return n
}
