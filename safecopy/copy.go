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

// Package safecopy implements the cross-PAS safe-copy primitive (spec.md
// §4.2, C2): copying between monitor-owned memory and host Non-secure
// memory without ever letting a fault on the realm side crash the
// monitor.
//
// The reference mechanism is a per-core "trap landing-pad": before the
// copy, the monitor installs a saved context that its own data-abort
// handler restores control to if the access faults. This package models
// that without a real exception vector: each core has a single-use
// landing pad slot (armed/disarmed around exactly one copy), and a
// pluggable FaultInjector stands in for "the data-abort handler fired".
package safecopy

import (
	"github.com/armcca/rmm/common"
	"github.com/armcca/rmm/platform"
)

// FaultInjector reports whether an access to addr should be treated as
// having taken a data abort. The zero value never faults.
type FaultInjector func(addr uint64) bool

// landingPad is the per-core, lock-free recovery slot (spec.md §5: "per
// core: trap_landing ... no locking needed").
type landingPad struct {
	armed bool
}

// Copier is the monitor's single safe-copy primitive, reentrant across
// cores (one pad per core) but never within a single core.
type Copier struct {
	dram   *platform.DRAM
	window platform.NSWindow
	pads   []landingPad
	Fault  FaultInjector
}

func NewCopier(dram *platform.DRAM, window platform.NSWindow, cores int) *Copier {
	if window == nil {
		window = platform.IdentityWindow
	}
	return &Copier{dram: dram, window: window, pads: make([]landingPad, cores)}
}

func (c *Copier) arm(core int) {
	if c.pads[core].armed {
		// Re-entrant use of one core's pad is an internal bug, not a
		// host-triggerable condition: the monitor only ever runs one
		// RMI handler per core at a time under the global lock.
		panic(common.NewFault(common.Internal, "landing pad for core %d re-armed while still armed", core))
	}
	c.pads[core].armed = true
}

func (c *Copier) disarm(core int) {
	c.pads[core].armed = false
}

func (c *Copier) faulted(addr uint64) bool {
	if c.Fault == nil {
		return false
	}
	return c.Fault(addr)
}

// ReadNS copies n bytes from host NS memory at nsSrc into dst (which
// must be monitor-owned, e.g. a granule slice or a stack buffer). It
// returns false, leaving dst possibly partially written, if the access
// faults; it never panics out to the caller and never corrupts monitor
// state beyond that partial write.
func (c *Copier) ReadNS(core int, dst []byte, nsSrc uint64) (ok bool) {
	n := len(dst)
	if n == 0 {
		return true
	}
	if uint64(n)+(nsSrc%common.GranuleSize) > common.GranuleSize {
		return false
	}
	addr := c.window(nsSrc)
	c.arm(core)
	defer c.disarm(core)
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	if c.faulted(addr) {
		return false
	}
	page, err := c.dram.Granule(addr &^ (common.GranuleSize - 1))
	if err != nil {
		return false
	}
	off := addr % common.GranuleSize
	copy(dst, page[off:off+uint64(n)])
	return true
}

// WriteNS copies len(src) bytes from monitor-owned src into host NS
// memory at nsDst, with the same fault-safety contract as ReadNS.
func (c *Copier) WriteNS(core int, nsDst uint64, src []byte) (ok bool) {
	n := len(src)
	if n == 0 {
		return true
	}
	if uint64(n)+(nsDst%common.GranuleSize) > common.GranuleSize {
		return false
	}
	addr := c.window(nsDst)
	c.arm(core)
	defer c.disarm(core)
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	if c.faulted(addr) {
		return false
	}
	page, err := c.dram.Granule(addr &^ (common.GranuleSize - 1))
	if err != nil {
		return false
	}
	off := addr % common.GranuleSize
	copy(page[off:off+uint64(n)], src)
	return true
}
