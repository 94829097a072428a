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

package realm

import (
	"github.com/holiman/uint256"
)

// VMIDAllocator hands out VMIDs 1..255 round-robin (spec.md §3.2, §4.4);
// 0 is reserved for the monitor itself. The live set is a 256-bit
// bitmap, which a uint256.Int models exactly: bit i set means VMID i
// is in use. Callers serialise access via the monitor's global lock
// (spec.md §5: "VMID bitmap — under the global lock").
type VMIDAllocator struct {
	used uint256.Int
	next uint8
}

func NewVMIDAllocator() *VMIDAllocator {
	a := &VMIDAllocator{next: 1}
	// VMID 0 is reserved for the monitor; mark it permanently used so
	// it can never be handed out or released.
	a.used.SetBit(&a.used, 0, 1)
	return a
}

// Alloc returns the next free VMID in [1,255] via round-robin scan from
// the last allocation point, or ok=false if all 255 are in use
// (INTERNAL per spec.md §7's "VMID exhaustion").
func (a *VMIDAllocator) Alloc() (vmid uint8, ok bool) {
	for i := 0; i < 256; i++ {
		candidate := a.next
		a.next++
		if candidate == 0 {
			continue
		}
		if a.used.Bit(int(candidate)) == 0 {
			a.used.SetBit(&a.used, int(candidate), 1)
			return candidate, true
		}
	}
	return 0, false
}

// Release returns vmid to the free pool. Releasing VMID 0 or an
// already-free VMID is a no-op guarded against by the caller (it would
// indicate an internal bookkeeping bug, not a host-triggerable path).
func (a *VMIDAllocator) Release(vmid uint8) {
	if vmid == 0 {
		return
	}
	a.used.SetBit(&a.used, int(vmid), 0)
}

// InUse reports whether vmid is currently allocated.
func (a *VMIDAllocator) InUse(vmid uint8) bool {
	return a.used.Bit(int(vmid)) == 1
}
