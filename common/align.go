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

package common

const (
	// GranuleSize is the fixed 4KiB granule size the whole monitor
	// addresses memory in.
	GranuleSize = 4096
	// GranuleShift is log2(GranuleSize).
	GranuleShift = 12
)

// IsGranuleAligned reports whether addr sits on a 4KiB boundary.
func IsGranuleAligned(addr uint64) bool {
	return addr&(GranuleSize-1) == 0
}

// IsAlignedToLevel reports whether addr is aligned to the block size of
// the given stage-2 level (0..3), where level 3 is a single 4KiB page.
func IsAlignedToLevel(addr uint64, level int) bool {
	return addr&(LevelBlockSize(level)-1) == 0
}

// LevelBlockSize returns the size in bytes a single descriptor at the
// given level covers: width(level+1) = 12 + 9*(3-level) bits wide.
func LevelBlockSize(level int) uint64 {
	return 1 << LevelWidth(level+1)
}

// LevelWidth returns width(L) = 12 + 9*(4-L), the bit-width of the IPA
// region a whole stage-2 table at level L spans (512 descriptors of
// LevelBlockSize(L) each).
func LevelWidth(level int) uint {
	return uint(12 + 9*(4-level))
}

// GranulesForLevel returns 512^(3-level), the number of contiguous 4KiB
// granules a single block at the given stage-2 level spans (spec.md
// §4.1's assert_range: level 3 is one granule, level 2 is 512).
func GranulesForLevel(level int) uint64 {
	n := uint64(1)
	for i := 0; i < 3-level; i++ {
		n *= 512
	}
	return n
}
