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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerGetSetDefaultsUndelegated(t *testing.T) {
	l := NewLedger(0, 16)
	s, ok := l.Get(0x3000)
	require.True(t, ok)
	assert.Equal(t, Undelegated, s)
}

func TestLedgerSetAndAssert(t *testing.T) {
	l := NewLedger(0, 16)
	require.True(t, l.Set(0x1000, Delegated))
	assert.True(t, l.Assert(0x1000, Delegated))
	assert.False(t, l.Assert(0x1000, Undelegated))
	// Neighbouring granule packed into the same byte must be untouched.
	assert.True(t, l.Assert(0x0000, Undelegated))
}

func TestLedgerRejectsUnalignedAndOutOfRange(t *testing.T) {
	l := NewLedger(0, 4)
	_, ok := l.Get(0x1001)
	assert.False(t, ok)
	_, ok = l.Get(0x4000)
	assert.False(t, ok)
	assert.False(t, l.Assert(0x4000, Undelegated))
}

func TestLedgerAssertRangeAndSetRange(t *testing.T) {
	l := NewLedger(0, 1024)
	require.True(t, l.SetRange(0, 2, Delegated)) // level 2 -> 512 granules
	assert.True(t, l.AssertRange(0, 2, Delegated))
	assert.False(t, l.Assert(512*0x1000, Delegated))
	assert.Equal(t, 512, l.Count(Delegated))
}

func TestLedgerNoStateUsesReservedCode(t *testing.T) {
	for s := Undelegated; s <= RTT; s++ {
		assert.NotEqual(t, State(0xF), s)
	}
}
