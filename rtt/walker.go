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

import (
	"encoding/binary"

	"github.com/armcca/rmm/common"
)

// GranuleReader is the slice of platform.DRAM's API the walker needs.
// Declared here, satisfied there, so this package stays a leaf.
type GranuleReader interface {
	Granule(addr uint64) ([]byte, error)
}

// Geometry is the per-realm RTT shape the walker needs: where the root
// table(s) live, how many root granules there are, and the level the
// root sits at (spec.md §3.2, §4.3).
type Geometry struct {
	RTTBase       uint64
	RTTNumStart   uint64
	RTTLevelStart int
}

// Result is what a walk converges on: the granule holding the
// terminating descriptor, the descriptor's index within it, the level
// reached, and the descriptor itself.
type Result struct {
	RTTAddr    uint64
	Index      int
	Level      int
	Descriptor Word
}

func descriptorAt(mem GranuleReader, rttAddr uint64, index int) (Word, error) {
	g, err := mem.Granule(rttAddr)
	if err != nil {
		return 0, err
	}
	return Word(binary.LittleEndian.Uint64(g[index*8 : index*8+8])), nil
}

func writeDescriptorAt(mem GranuleReader, rttAddr uint64, index int, w Word) error {
	g, err := mem.Granule(rttAddr)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(g[index*8:index*8+8], uint64(w))
	return nil
}

// Walk descends the stage-2 table set for geom starting from the root,
// stopping at targetLevel or at the first non-TABLE descriptor,
// whichever comes first (spec.md §4.3).
func Walk(mem GranuleReader, geom Geometry, addr uint64, targetLevel int) (Result, bool) {
	rootIndex := addr >> common.LevelWidth(geom.RTTLevelStart)
	if rootIndex >= geom.RTTNumStart {
		return Result{}, false
	}
	rttAddr := geom.RTTBase + rootIndex*common.GranuleSize
	level := geom.RTTLevelStart
	for {
		index := int((addr >> common.LevelWidth(level+1)) & 0x1FF)
		w, err := descriptorAt(mem, rttAddr, index)
		if err != nil {
			return Result{}, false
		}
		if w.Classify() != Table || level == targetLevel {
			return Result{RTTAddr: rttAddr, Index: index, Level: level, Descriptor: w}, true
		}
		rttAddr = w.OA()
		level++
	}
}

// ReadDescriptor reads the raw descriptor at index within the granule at
// rttAddr, used by callers that need to scan every slot of a table
// directly (e.g. REALM_DESTROY checking every starting-level RTTE).
func ReadDescriptor(mem GranuleReader, rttAddr uint64, index int) (Word, error) {
	return descriptorAt(mem, rttAddr, index)
}

// WriteDescriptor performs the walker's single atomic 64-bit store
// mutators route through: it is the only place in this package that
// writes memory.
func WriteDescriptor(mem GranuleReader, rttAddr uint64, index int, w Word) error {
	return writeDescriptorAt(mem, rttAddr, index, w)
}

// ZeroFill writes 512 UNASSIGNED descriptors into the granule at addr,
// used when RTT_CREATE splits a parent UNASSIGNED entry into a fresh
// child table.
func ZeroFill(mem GranuleReader, addr uint64) error {
	for i := 0; i < 512; i++ {
		if err := WriteDescriptor(mem, addr, i, UnassignedWord()); err != nil {
			return err
		}
	}
	return nil
}

// FillDestroyed writes 512 DESTROYED descriptors into the granule at
// addr, used when RTT_CREATE splits a parent DESTROYED entry.
func FillDestroyed(mem GranuleReader, addr uint64) error {
	for i := 0; i < 512; i++ {
		if err := WriteDescriptor(mem, addr, i, SetDestroyed()); err != nil {
			return err
		}
	}
	return nil
}

// Splay writes 512 incremented copies of parent (a page-level leaf
// descriptor) into the granule at addr, one per 4KiB sub-page, used
// when RTT_CREATE splits a parent {ASSIGNED,VALID,VALID_NS} leaf
// (spec.md §4.6 RTT_CREATE).
func Splay(mem GranuleReader, addr uint64, parent Word, childLevel int) error {
	base := parent.OA()
	step := common.LevelBlockSize(childLevel)
	for i := 0; i < 512; i++ {
		oa := base + uint64(i)*step
		var w Word
		switch parent.Classify() {
		case ValidNS:
			w = SetNS(oa, parent.Attrs())
		default:
			w = Set(oa, childLevel, parent.IsValidBit())
		}
		if err := WriteDescriptor(mem, addr, i, w); err != nil {
			return err
		}
	}
	return nil
}
