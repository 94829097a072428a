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

package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armcca/rmm/audit"
	"github.com/armcca/rmm/common"
	"github.com/armcca/rmm/granule"
	"github.com/armcca/rmm/platform"
	"github.com/armcca/rmm/psci"
	"github.com/armcca/rmm/realm"
	"github.com/armcca/rmm/wire"
)

func newTestMonitor(t *testing.T, numGranules uint64) (*Monitor, *platform.DRAM) {
	t.Helper()
	cfg := platform.Config{NumGranules: numGranules, DRAMBase: 0, PAWidth: 40, CoreCount: 1}
	dram, err := platform.NewDRAM(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { dram.Close() })

	auditLog, err := audit.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { auditLog.Close() })

	m, err := New(cfg, dram, platform.NewFakeOracle(), platform.NoopVCPUState{}, auditLog)
	require.NoError(t, err)
	return m, dram
}

// writeRealmParams pokes a RealmParams buffer directly into an
// UNDELEGATED granule, standing in for the host writing its REALM_CREATE
// configuration before the call.
func writeRealmParams(t *testing.T, dram *platform.DRAM, addr uint64, p wire.RealmParams) {
	t.Helper()
	g, err := dram.Granule(addr)
	require.NoError(t, err)
	buf := make([]byte, wire.RealmParamsSize)
	wire.EncodeRealmParams(buf, &p)
	copy(g, buf)
}

func writeRecParams(t *testing.T, dram *platform.DRAM, addr uint64, p wire.RecParams) {
	t.Helper()
	g, err := dram.Granule(addr)
	require.NoError(t, err)
	buf := make([]byte, wire.RecParamsSize)
	wire.EncodeRecParams(buf, &p)
	copy(g, buf)
}

// TestScenarioS1HappyPathRealm covers spec.md §8 S1: delegate, create,
// REC_CREATE, activate, all succeeding in sequence.
func TestScenarioS1HappyPathRealm(t *testing.T) {
	m, dram := newTestMonitor(t, 16)

	require.Equal(t, common.Success, m.GranuleDelegate(0x1000))
	require.Equal(t, common.Success, m.GranuleDelegate(0x2000))
	require.Equal(t, common.Success, m.GranuleDelegate(0x3000))
	require.Equal(t, common.Success, m.GranuleDelegate(0x4000))

	writeRealmParams(t, dram, 0x5000, wire.RealmParams{
		ParBase: 0, ParSize: 0x40000000,
		RTTBase: 0x2000, RTTNumStart: 1, RTTLevelStart: 1,
		Features0: 32,
	})
	require.Equal(t, common.Success, m.RealmCreate(0, 0x4000, 0x5000))
	rd, code := m.store.AsRD(0x4000)
	require.Equal(t, common.Success, code)
	assert.Equal(t, realm.New, rd.State)

	writeRecParams(t, dram, 0x5000, wire.RecParams{PC: 0x80000000, Flags: wire.FlagRunnable})
	require.Equal(t, common.Success, m.RecCreate(0, 0x3000, 0x4000, 0, 0x5000))
	rd, code = m.store.AsRD(0x4000)
	require.Equal(t, common.Success, code)
	assert.Equal(t, uint64(1), rd.RecIndex)

	require.Equal(t, common.Success, m.RealmActivate(0x4000))
	rd, code = m.store.AsRD(0x4000)
	require.Equal(t, common.Success, code)
	assert.Equal(t, realm.Active, rd.State)
}

// TestScenarioS2DoubleDelegateRejected covers spec.md §8 S2: delegating
// an already-DELEGATED granule is rejected and leaves the ledger alone.
func TestScenarioS2DoubleDelegateRejected(t *testing.T) {
	m, _ := newTestMonitor(t, 16)

	require.Equal(t, common.Success, m.GranuleDelegate(0x1000))
	assert.Equal(t, common.Input, m.GranuleDelegate(0x1000))

	st, ok := m.ledger.Get(0x1000)
	require.True(t, ok)
	assert.Equal(t, granule.Delegated, st)
}

// TestScenarioS3DestroyRealmWithLiveRec covers spec.md §8 S3:
// REALM_DESTROY on a realm with a live REC reports IN_USE.
func TestScenarioS3DestroyRealmWithLiveRec(t *testing.T) {
	m, dram := newTestMonitor(t, 16)

	require.Equal(t, common.Success, m.GranuleDelegate(0x1000))
	require.Equal(t, common.Success, m.GranuleDelegate(0x2000))
	require.Equal(t, common.Success, m.GranuleDelegate(0x3000))
	require.Equal(t, common.Success, m.GranuleDelegate(0x4000))

	writeRealmParams(t, dram, 0x5000, wire.RealmParams{
		ParBase: 0, ParSize: 0x40000000,
		RTTBase: 0x2000, RTTNumStart: 1, RTTLevelStart: 1,
		Features0: 32,
	})
	require.Equal(t, common.Success, m.RealmCreate(0, 0x4000, 0x5000))

	writeRecParams(t, dram, 0x5000, wire.RecParams{PC: 0x80000000, Flags: wire.FlagRunnable})
	require.Equal(t, common.Success, m.RecCreate(0, 0x3000, 0x4000, 0, 0x5000))

	assert.Equal(t, common.InUse, m.RealmDestroy(0x4000))
}

// rdWithPageLevelRTT builds a realm whose PAR is backed, at ipa base
// 0x200000, by a full three-level chain down to a page-level (level 3)
// table: root (level 1, RealmCreate's own granule) -> level 2 -> level
// 3. Returns the RD address and the level-3 table's granule address.
func rdWithPageLevelRTT(t *testing.T, m *Monitor, dram *platform.DRAM) (rdAddr, level3Addr uint64) {
	t.Helper()
	const (
		rdGranule     = 0x4000
		rootRTT       = 0x2000
		level2Granule = 0x6000
		level3Granule = 0x7000
		paramsAddr    = 0x5000
	)
	require.Equal(t, common.Success, m.GranuleDelegate(rootRTT))
	require.Equal(t, common.Success, m.GranuleDelegate(rdGranule))
	require.Equal(t, common.Success, m.GranuleDelegate(level2Granule))
	require.Equal(t, common.Success, m.GranuleDelegate(level3Granule))

	writeRealmParams(t, dram, paramsAddr, wire.RealmParams{
		ParBase: 0, ParSize: 0x40000000,
		RTTBase: rootRTT, RTTNumStart: 1, RTTLevelStart: 1,
		Features0: 32,
	})
	require.Equal(t, common.Success, m.RealmCreate(0, rdGranule, paramsAddr))

	const ipaBase = 0x200000
	require.Equal(t, common.Success, m.RTTCreate(level2Granule, rdGranule, ipaBase, 2))
	require.Equal(t, common.Success, m.RTTCreate(level3Granule, rdGranule, ipaBase, 3))
	return rdGranule, level3Granule
}

// TestScenarioS4FoldRequiresFullPopulation covers spec.md §8 S4: folding
// a fully-populated page-level table succeeds; a half-populated one
// reports IN_USE and leaves the table alone.
func TestScenarioS4FoldRequiresFullPopulation(t *testing.T) {
	const dataBase = 0xA00000
	const ipaBase = 0x200000

	t.Run("full population folds", func(t *testing.T) {
		m, dram := newTestMonitor(t, 4096)
		rdAddr, level3Addr := rdWithPageLevelRTT(t, m, dram)

		for i := uint64(0); i < 512; i++ {
			addr := dataBase + i*common.GranuleSize
			require.Equal(t, common.Success, m.GranuleDelegate(addr))
			require.Equal(t, common.Success,
				m.DataCreateUnknown(addr, rdAddr, ipaBase+i*common.GranuleSize, 3))
		}

		assert.Equal(t, common.Success, m.RTTDestroy(level3Addr, rdAddr, ipaBase, 3))
	})

	t.Run("partial population reports in use", func(t *testing.T) {
		m, dram := newTestMonitor(t, 4096)
		rdAddr, level3Addr := rdWithPageLevelRTT(t, m, dram)

		for i := uint64(0); i < 256; i++ {
			addr := dataBase + i*common.GranuleSize
			require.Equal(t, common.Success, m.GranuleDelegate(addr))
			require.Equal(t, common.Success,
				m.DataCreateUnknown(addr, rdAddr, ipaBase+i*common.GranuleSize, 3))
		}

		assert.Equal(t, common.InUse, m.RTTDestroy(level3Addr, rdAddr, ipaBase, 3))
	})
}

// stepExecutor plays a fixed scripted sequence of exits, one per
// RecEnter call, standing in for real simulated execution.
type stepExecutor struct {
	steps []ExitInfo
	calls int
}

func (e *stepExecutor) Run(rec *realm.REC) ExitInfo {
	i := e.calls
	if i >= len(e.steps) {
		i = len(e.steps) - 1
	}
	e.calls++
	return e.steps[i]
}

// TestScenarioS5EmulatedMMIO covers spec.md §8 S5: a data abort on an
// unprotected IPA with ISV set is reported as emulatable; supplying the
// read value on the next entry lands it in the destination register and
// advances pc by 4.
func TestScenarioS5EmulatedMMIO(t *testing.T) {
	m, dram := newTestMonitor(t, 16)

	require.Equal(t, common.Success, m.GranuleDelegate(0x1000))
	require.Equal(t, common.Success, m.GranuleDelegate(0x2000))
	require.Equal(t, common.Success, m.GranuleDelegate(0x3000))
	require.Equal(t, common.Success, m.GranuleDelegate(0x4000))

	writeRealmParams(t, dram, 0x5000, wire.RealmParams{
		ParBase: 0, ParSize: 0x40000000,
		RTTBase: 0x2000, RTTNumStart: 1, RTTLevelStart: 1,
		Features0: 32,
	})
	require.Equal(t, common.Success, m.RealmCreate(0, 0x4000, 0x5000))

	const initialPC = 0x80000000
	writeRecParams(t, dram, 0x5000, wire.RecParams{PC: initialPC, Flags: wire.FlagRunnable})
	require.Equal(t, common.Success, m.RecCreate(0, 0x3000, 0x4000, 0, 0x5000))
	require.Equal(t, common.Success, m.RealmActivate(0x4000))

	// runNS is host NS memory; every granule starts UNDELEGATED, which is
	// exactly what REC_ENTER requires, so it needs no setup of its own.
	const runNS = 0x8000

	const outsidePAR = 0x50000000
	m.Executor = &stepExecutor{steps: []ExitInfo{
		{Kind: ExitDataAbort, ISV: true, FAR: outsidePAR, DestReg: 2},
		{Kind: ExitIRQ},
	}}

	entry1 := wire.RecEntry{}
	buf := make([]byte, wire.RecEntrySize)
	wire.EncodeRecEntry(buf, &entry1)
	g, err := dram.Granule(runNS)
	require.NoError(t, err)
	copy(g, buf)

	require.Equal(t, common.Success, m.RecEnter(0, 0x3000, runNS))
	rec, code := m.store.AsREC(0x3000)
	require.Equal(t, common.Success, code)
	assert.True(t, rec.EmulatableAbort)
	assert.Equal(t, uint64(2), rec.AbortDestReg)
	assert.Equal(t, uint64(initialPC), rec.PC)

	entry2 := wire.RecEntry{IsEmulatedMMIO: true, EmulatedReadValue: 0xAA}
	wire.EncodeRecEntry(buf, &entry2)
	g, err = dram.Granule(runNS)
	require.NoError(t, err)
	copy(g, buf)

	require.Equal(t, common.Success, m.RecEnter(0, 0x3000, runNS))
	rec, code = m.store.AsREC(0x3000)
	require.Equal(t, common.Success, code)
	assert.Equal(t, uint64(0xAA), rec.GPRs[2])
	assert.Equal(t, uint64(initialPC+4), rec.PC)
	assert.False(t, rec.EmulatableAbort)
}

// TestVMIDUniquenessAcrossLiveRealms covers spec.md §8 general invariant
// 8: two live realms get distinct, non-zero VMIDs, and destroying one
// frees its VMID while allocation carries on round-robin.
func TestVMIDUniquenessAcrossLiveRealms(t *testing.T) {
	m, dram := newTestMonitor(t, 32)

	createRealm := func(rdAddr, rttAddr, paramsAddr uint64) {
		require.Equal(t, common.Success, m.GranuleDelegate(rttAddr))
		require.Equal(t, common.Success, m.GranuleDelegate(rdAddr))
		writeRealmParams(t, dram, paramsAddr, wire.RealmParams{
			ParBase: 0, ParSize: 0x40000000,
			RTTBase: rttAddr, RTTNumStart: 1, RTTLevelStart: 1,
			Features0: 32,
		})
		require.Equal(t, common.Success, m.RealmCreate(0, rdAddr, paramsAddr))
	}

	createRealm(0x4000, 0x2000, 0x5000)
	createRealm(0x8000, 0x6000, 0x5000)

	rd1, code := m.store.AsRD(0x4000)
	require.Equal(t, common.Success, code)
	rd2, code := m.store.AsRD(0x8000)
	require.Equal(t, common.Success, code)

	assert.NotZero(t, rd1.VMID)
	assert.NotZero(t, rd2.VMID)
	assert.NotEqual(t, rd1.VMID, rd2.VMID)

	require.Equal(t, common.Success, m.RealmDestroy(0x4000))
	freedVMID := rd1.VMID
	assert.False(t, m.vmids.InUse(freedVMID), "destroyed realm's VMID should be freed")
	createRealm(0xA000, 0x9000, 0x5000)
	rd3, code := m.store.AsRD(0xA000)
	require.Equal(t, common.Success, code)
	assert.Equal(t, rd2.VMID+1, rd3.VMID, "allocation should continue round-robin")
	assert.NotEqual(t, rd2.VMID, rd3.VMID)
}

// TestScenarioS6PSCICPUOnCompletion covers spec.md §8 S6: REC0 issues
// CPU_ON targeting REC1; the host later calls PSCI_COMPLETE, priming
// REC1 to run at the requested entry point with the context id in x0,
// and reporting PSCI_SUCCESS back to REC0.
func TestScenarioS6PSCICPUOnCompletion(t *testing.T) {
	m, dram := newTestMonitor(t, 16)

	require.Equal(t, common.Success, m.GranuleDelegate(0x2000)) // root rtt
	require.Equal(t, common.Success, m.GranuleDelegate(0x3000)) // rec0
	require.Equal(t, common.Success, m.GranuleDelegate(0x4000)) // rd
	require.Equal(t, common.Success, m.GranuleDelegate(0x6000)) // rec1

	writeRealmParams(t, dram, 0x5000, wire.RealmParams{
		ParBase: 0, ParSize: 0x40000000,
		RTTBase: 0x2000, RTTNumStart: 1, RTTLevelStart: 1,
		Features0: 32,
	})
	require.Equal(t, common.Success, m.RealmCreate(0, 0x4000, 0x5000))

	writeRecParams(t, dram, 0x5000, wire.RecParams{PC: 0x80000000, Flags: wire.FlagRunnable})
	require.Equal(t, common.Success, m.RecCreate(0, 0x3000, 0x4000, 0, 0x5000))
	writeRecParams(t, dram, 0x5000, wire.RecParams{PC: 0, Flags: 0})
	require.Equal(t, common.Success, m.RecCreate(0, 0x6000, 0x4000, 1, 0x5000))

	require.Equal(t, common.Success, m.RealmActivate(0x4000))

	const runNS = 0x1000

	const entryPoint = 0x10000000
	const contextID = 0x55
	m.Executor = &stepExecutor{steps: []ExitInfo{
		{Kind: ExitSMC, SMCFid: psci.FidCPUOn, SMCArg1: 1, SMCArg2: entryPoint, SMCArg3: contextID},
	}}

	buf := make([]byte, wire.RecEntrySize)
	wire.EncodeRecEntry(buf, &wire.RecEntry{})
	g, err := dram.Granule(runNS)
	require.NoError(t, err)
	copy(g, buf)

	require.Equal(t, common.Success, m.RecEnter(0, 0x3000, runNS))

	rec0, code := m.store.AsREC(0x3000)
	require.Equal(t, common.Success, code)
	assert.True(t, rec0.PSCIPending)

	require.Equal(t, common.Success, m.PSCIComplete(0x3000, 0x6000))

	rec0, code = m.store.AsREC(0x3000)
	require.Equal(t, common.Success, code)
	assert.False(t, rec0.PSCIPending)
	assert.Equal(t, uint64(psci.Success), rec0.GPRs[0])

	rec1, code := m.store.AsREC(0x6000)
	require.Equal(t, common.Success, code)
	assert.True(t, rec1.Runnable)
	assert.Equal(t, uint64(entryPoint), rec1.PC)
	assert.Equal(t, uint64(contextID), rec1.GPRs[0])
}
