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

package rtt

import "github.com/armcca/rmm/common"

// Fold collapses a TABLE entry's 512 children into a single parent
// descriptor when they agree closely enough to be represented as one
// block-level entry (spec.md §4.3 Fold). childLevel is the level the
//512 children live at (parentLevel+1).
//
// Returns the folded parent descriptor and true on success; false means
// the children disagree in a way that can't be coarsened and the
// TABLE entry must stay as-is (RTT_DESTROY reports common.InUse in that
// case).
func Fold(mem GranuleReader, childAddr uint64, childLevel int) (Word, bool) {
	first, err := descriptorAt(mem, childAddr, 0)
	if err != nil {
		return 0, false
	}
	firstState := first.Classify()
	if firstState == Table {
		// A grandchild table can never fold directly into its
		// grandparent; RTT_DESTROY only ever targets the immediate
		// parent of the table being removed.
		return 0, false
	}

	sawUnassigned := firstState == Unassigned
	sawDestroyed := firstState == Destroyed
	// Contiguous-OA alignment is only meaningful (and only computed) when
	// folding page-level children into a block-level parent (spec.md §4.3
	// step 3; original_source's rmm_rtt_fold only sets aligned=true at
	// RMM_RTT_PAGE_LEVEL). At any other child level, ASSIGNED/VALID/VALID_NS
	// children can never fold into a coarser block descriptor.
	aligned := childLevel == 3
	expectedOA := first.OA()
	step := common.LevelBlockSize(childLevel)

	for i := 1; i < 512; i++ {
		w, err := descriptorAt(mem, childAddr, i)
		if err != nil {
			return 0, false
		}
		st := w.Classify()
		switch st {
		case Unassigned:
			sawUnassigned = true
			if firstState != Unassigned && firstState != Destroyed {
				return 0, false
			}
		case Destroyed:
			sawDestroyed = true
			if firstState != Unassigned && firstState != Destroyed {
				return 0, false
			}
		default:
			if st != firstState {
				return 0, false
			}
			expectedOA += step
			if w.OA() != expectedOA {
				aligned = false
			} else {
				expectedOA = w.OA()
			}
		}
	}

	switch firstState {
	case Unassigned, Destroyed:
		// Tie-break: UNASSIGNED and DESTROYED absorb into DESTROYED
		// when both appear (spec.md §4.3 step 2).
		if sawUnassigned && sawDestroyed {
			return SetDestroyed(), true
		}
		if sawDestroyed {
			return SetDestroyed(), true
		}
		return UnassignedWord(), true
	case Assigned, Valid, ValidNS:
		if !aligned {
			return 0, false
		}
		// Block semantics: write the first child's descriptor
		// verbatim (spec.md §4.3 step 4), re-tagged at the parent's
		// (coarser) level.
		parentLevel := childLevel - 1
		if firstState == ValidNS {
			return SetNS(first.OA(), first.Attrs()), true
		}
		return Set(first.OA(), parentLevel, first.IsValidBit()), true
	default:
		return 0, false
	}
}
