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
	"testing"

	"github.com/armcca/rmm/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMem(t *testing.T, granules uint64) *platform.DRAM {
	dram, err := platform.NewDRAM(platform.Config{NumGranules: granules, DRAMBase: 0})
	require.NoError(t, err)
	t.Cleanup(func() { dram.Close() })
	return dram
}

func TestClassifyRoundTrip(t *testing.T) {
	assert.Equal(t, Unassigned, UnassignedWord().Classify())
	assert.Equal(t, Assigned, Set(0x10000, 3, false).Classify())
	assert.Equal(t, Valid, Set(0x10000, 3, true).Classify())
	assert.Equal(t, Destroyed, SetDestroyed().Classify())
	assert.Equal(t, Table, SetTable(0x20000).Classify())
	assert.Equal(t, ValidNS, SetNS(0x30000, 0x12).Classify())
}

func TestWalkStopsAtNonTableOrTargetLevel(t *testing.T) {
	mem := newMem(t, 16)
	geom := Geometry{RTTBase: 0x1000, RTTNumStart: 1, RTTLevelStart: 1}

	r, ok := Walk(mem, geom, 0x40000000, 3)
	require.True(t, ok)
	assert.Equal(t, Unassigned, r.Descriptor.Classify())
	assert.Equal(t, 1, r.Level) // root is level 1 here, single root granule
}

func TestWalkDescendsThroughTable(t *testing.T) {
	mem := newMem(t, 16)
	geom := Geometry{RTTBase: 0x1000, RTTNumStart: 1, RTTLevelStart: 2}
	child := uint64(0x3000)

	r, ok := Walk(mem, geom, 0x200000, 3)
	require.True(t, ok)
	require.Equal(t, 2, r.Level)

	require.NoError(t, WriteDescriptor(mem, r.RTTAddr, r.Index, SetTable(child)))

	r2, ok := Walk(mem, geom, 0x200000, 3)
	require.True(t, ok)
	assert.Equal(t, 3, r2.Level)
	assert.Equal(t, child, r2.RTTAddr)
}

func TestFoldCollapsesUniformAlignedChildren(t *testing.T) {
	mem := newMem(t, 16)
	childAddr := uint64(0x5000)
	require.NoError(t, ZeroFill(mem, childAddr))
	base := uint64(0xA00000)
	for i := 0; i < 512; i++ {
		require.NoError(t, WriteDescriptor(mem, childAddr, i, Set(base+uint64(i)*4096, 3, true)))
	}
	w, ok := Fold(mem, childAddr, 3)
	require.True(t, ok)
	assert.Equal(t, Valid, w.Classify())
	assert.Equal(t, base, w.OA())
}

func TestFoldRejectsUniformAlignedBlockLevelChildren(t *testing.T) {
	mem := newMem(t, 16)
	childAddr := uint64(0x5000)
	require.NoError(t, ZeroFill(mem, childAddr))
	base := uint64(0xA00000)
	for i := 0; i < 512; i++ {
		require.NoError(t, WriteDescriptor(mem, childAddr, i, Set(base+uint64(i)*0x40000000, 2, true)))
	}
	// Contiguous, uniformly VALID level-2 block leaves must NOT fold into
	// a level-1 block descriptor: alignment is only ever computed when
	// folding page-level (level 3) children (spec.md §4.3 step 3).
	_, ok := Fold(mem, childAddr, 2)
	assert.False(t, ok)
}

func TestFoldFailsOnPartialPopulation(t *testing.T) {
	mem := newMem(t, 16)
	childAddr := uint64(0x5000)
	require.NoError(t, ZeroFill(mem, childAddr))
	base := uint64(0xA00000)
	for i := 0; i < 256; i++ {
		require.NoError(t, WriteDescriptor(mem, childAddr, i, Set(base+uint64(i)*4096, 3, true)))
	}
	_, ok := Fold(mem, childAddr, 3)
	assert.False(t, ok)
}

func TestFoldAbsorbsUnassignedAndDestroyed(t *testing.T) {
	mem := newMem(t, 16)
	childAddr := uint64(0x5000)
	for i := 0; i < 512; i++ {
		w := UnassignedWord()
		if i%2 == 0 {
			w = SetDestroyed()
		}
		require.NoError(t, WriteDescriptor(mem, childAddr, i, w))
	}
	w, ok := Fold(mem, childAddr, 3)
	require.True(t, ok)
	assert.Equal(t, Destroyed, w.Classify())
}

func TestFoldIdempotentOnSuccess(t *testing.T) {
	mem := newMem(t, 16)
	childAddr := uint64(0x5000)
	require.NoError(t, FillDestroyed(mem, childAddr))
	w1, ok := Fold(mem, childAddr, 3)
	require.True(t, ok)
	w2, ok := Fold(mem, childAddr, 3)
	require.True(t, ok)
	assert.Equal(t, w1, w2)
}

func TestWalkCacheRememberAndInvalidate(t *testing.T) {
	c, err := NewWalkCache(8)
	require.NoError(t, err)
	c.Remember(0x4000, 0x200000, 3, Result{Level: 3})
	_, ok := c.Lookup(0x4000, 0x200000, 3)
	assert.True(t, ok)
	c.Invalidate(0x4000)
	_, ok = c.Lookup(0x4000, 0x200000, 3)
	assert.False(t, ok)
}
