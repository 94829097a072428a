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
	"testing"

	"github.com/armcca/rmm/common"
	"github.com/armcca/rmm/granule"
	"github.com/armcca/rmm/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRDEncodeDecodeRoundTrip(t *testing.T) {
	rd := &RD{
		ParBase: 0, ParSize: 0x40000000, IPAWidth: 32,
		RTTBase: 0x2000, RTTNumStart: 1, RTTLevelStart: 1,
		VMID: 7, RecIndex: 3, RecCount: 2, State: Active,
		MeasurementAlgo: 1,
	}
	buf := make([]byte, 4096)
	EncodeRD(buf, rd)
	got := DecodeRD(buf)
	assert.Equal(t, rd, got)
}

func TestRECEncodeDecodeRoundTrip(t *testing.T) {
	rec := &REC{PC: 0x1000, OwnerRD: 0x4000, Runnable: true, EnterReason: IRQ}
	rec.GPRs[0] = 42
	rec.VGICLRs[3] = 0xAA
	buf := make([]byte, 4096)
	EncodeREC(buf, rec)
	got := DecodeREC(buf)
	assert.Equal(t, rec, got)
}

func TestStoreAsRDRequiresLedgerState(t *testing.T) {
	dram, err := platform.NewDRAM(platform.Config{NumGranules: 8})
	require.NoError(t, err)
	t.Cleanup(func() { dram.Close() })
	ledger := granule.NewLedger(0, 8)
	store := NewStore(dram, ledger)

	_, code := store.AsRD(0x1000)
	assert.Equal(t, common.Input, code)

	ledger.Set(0x1000, granule.RD)
	rd := &RD{State: New, VMID: 1}
	require.Equal(t, common.Success, store.PutRD(0x1000, rd))
	got, code := store.AsRD(0x1000)
	require.Equal(t, common.Success, code)
	assert.Equal(t, uint8(1), got.VMID)
}

func TestVMIDAllocatorRoundRobinAndExhaustion(t *testing.T) {
	a := NewVMIDAllocator()
	assert.False(t, a.InUse(5))
	v1, ok := a.Alloc()
	require.True(t, ok)
	assert.Equal(t, uint8(1), v1)
	assert.True(t, a.InUse(1))

	for i := 0; i < 254; i++ {
		_, ok := a.Alloc()
		require.True(t, ok)
	}
	_, ok = a.Alloc()
	assert.False(t, ok, "all 255 non-zero VMIDs should now be in use")

	a.Release(v1)
	v, ok := a.Alloc()
	require.True(t, ok)
	assert.Equal(t, v1, v)
}

func TestVMIDZeroReservedForMonitor(t *testing.T) {
	a := NewVMIDAllocator()
	assert.True(t, a.InUse(0))
	a.Release(0)
	assert.True(t, a.InUse(0))
}

func TestPendingSet(t *testing.T) {
	p := NewPendingSet()
	assert.False(t, p.Contains(0x3000))
	p.Add(0x3000)
	assert.True(t, p.Contains(0x3000))
	assert.Equal(t, 1, p.Len())
	p.Remove(0x3000)
	assert.Equal(t, 0, p.Len())
}
