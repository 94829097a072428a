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
	"github.com/armcca/rmm/common"
	"github.com/armcca/rmm/granule"
	"github.com/armcca/rmm/realm"
	"github.com/armcca/rmm/wire"
)

// RecCreate implements REC_CREATE(rec, rd, mpidr, params) (spec.md
// §4.6): validates mpidr ordering against the realm's rec_index, reads
// the initial register block, composes the EL1 sysreg bundle, and
// promotes the granule to REC.
func (m *Monitor) RecCreate(core int, recAddr, rdAddr, mpidr, paramsAddr uint64) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ledger.Assert(recAddr, granule.Delegated) {
		return common.Input
	}
	rd, code := m.store.AsRD(rdAddr)
	if code != common.Success {
		return common.Input
	}
	if rd.State != realm.New {
		return common.RealmState
	}
	if m.recIndexOf(mpidr) != rd.RecIndex {
		return common.Input
	}
	if !m.ledger.Assert(paramsAddr, granule.Undelegated) {
		return common.Input
	}

	buf := make([]byte, wire.RecParamsSize)
	if !m.copier.ReadNS(core, buf, paramsAddr) {
		return common.Memory
	}
	p := wire.DecodeRecParams(buf)

	rec := &realm.REC{
		OwnerRD:     rdAddr,
		Runnable:    p.Flags&wire.FlagRunnable != 0,
		EnterReason: realm.FirstRun,
		PC:          p.PC,
		HCR:         initialHCR,
		SPSR:        initialSPSR,
		VTCR:        vtcr(rd.IPAWidth, rd.RTTLevelStart),
		VTTBR:       vttbr(rd.RTTBase, rd.VMID),
		VMPIDR:      vmpidrReg(mpidr),
	}
	copy(rec.GPRs[:8], p.GPRs[:])

	if code := m.store.PutREC(recAddr, rec); code != common.Success {
		return code
	}
	m.ledger.Set(recAddr, granule.Rec)
	rd.RecIndex++
	rd.RecCount++
	return m.store.PutRD(rdAddr, rd)
}

// RecDestroy implements REC_DESTROY(rec) (spec.md §4.6): requires the
// REC not running, decrements the owner's rec_count and demotes the
// granule.
func (m *Monitor) RecDestroy(recAddr uint64) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, code := m.store.AsREC(recAddr)
	if code != common.Success {
		return code
	}
	if rec.StateRunning {
		return common.InUse
	}
	rd, code := m.store.AsRD(rec.OwnerRD)
	if code != common.Success {
		return common.Internal
	}
	rd.RecCount--
	if code := m.store.PutRD(rec.OwnerRD, rd); code != common.Success {
		return code
	}
	m.ledger.Set(recAddr, granule.Delegated)
	return common.Success
}
