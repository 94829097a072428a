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
	"github.com/armcca/rmm/rtt"
)

// dataCreate is the shared body of DATA_CREATE/_LEVEL and
// DATA_CREATE_UNKNOWN/_LEVEL (spec.md §4.6): level is 2 (2MiB block) or
// 3 (4KiB page); zeroFill selects the "unknown" variant that zeroes
// rather than copies from src.
func (m *Monitor) dataCreate(core int, dataAddr, rdAddr, ipa, srcAddr uint64, level int, zeroFill bool) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	rd, code := m.store.AsRD(rdAddr)
	if code != common.Success {
		return common.Input
	}
	if level != 2 && level != 3 {
		return common.Input
	}
	if !common.IsAlignedToLevel(ipa, level) {
		return common.Input
	}
	span := common.GranulesForLevel(level) * common.GranuleSize
	if !rd.InPAR(ipa, span) {
		return common.Memory
	}
	if !m.ledger.AssertRange(dataAddr, level, granule.Delegated) {
		return common.Input
	}
	if !zeroFill && !m.ledger.AssertRange(srcAddr, level, granule.Undelegated) {
		return common.Input
	}

	geom := geometry(rd)
	res, ok := rtt.Walk(m.dram, geom, ipa, level)
	if !ok {
		return common.RTTWalk
	}
	if res.Level != level {
		return common.RTTWalk
	}
	if res.Descriptor.Classify() != rtt.Unassigned {
		return common.RTTEntry
	}

	count := common.GranulesForLevel(level)
	for i := uint64(0); i < count; i++ {
		off := i * common.GranuleSize
		g, err := m.dram.Granule(dataAddr + off)
		if err != nil {
			return common.Internal
		}
		if zeroFill {
			for j := range g {
				g[j] = 0
			}
		} else if !m.copier.ReadNS(core, g, srcAddr+off) {
			return common.Memory
		}
		m.dram.CleanDataCache(dataAddr + off)
	}

	m.ledger.SetRange(dataAddr, level, granule.Data)
	if err := rtt.WriteDescriptor(m.dram, res.RTTAddr, res.Index, rtt.Set(dataAddr, level, false)); err != nil {
		return common.Internal
	}
	m.walk.Invalidate(rdAddr)

	if !zeroFill {
		buf := make([]byte, span)
		for i := uint64(0); i < count; i++ {
			g, _ := m.dram.Granule(dataAddr + i*common.GranuleSize)
			copy(buf[i*common.GranuleSize:], g)
		}
		m.measurementFor(rdAddr).Extend(rd.MeasurementAlgo, buf)
	}
	return common.Success
}

// DataCreate implements DATA_CREATE/DATA_CREATE_LEVEL (copy from src).
func (m *Monitor) DataCreate(core int, dataAddr, rdAddr, ipa, srcAddr uint64, level int) common.ErrCode {
	return m.dataCreate(core, dataAddr, rdAddr, ipa, srcAddr, level, false)
}

// DataCreateUnknown implements DATA_CREATE_UNKNOWN/_LEVEL (zero-fill).
func (m *Monitor) DataCreateUnknown(dataAddr, rdAddr, ipa uint64, level int) common.ErrCode {
	return m.dataCreate(0, dataAddr, rdAddr, ipa, 0, level, true)
}

// DataDestroy implements DATA_DESTROY/_LEVEL (spec.md §4.6): requires
// RTTE ASSIGNED at level, demotes the underlying DATA granules and
// marks the RTTE DESTROYED.
func (m *Monitor) DataDestroy(rdAddr, ipa uint64, level int) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	rd, code := m.store.AsRD(rdAddr)
	if code != common.Success {
		return common.Input
	}
	geom := geometry(rd)
	res, ok := rtt.Walk(m.dram, geom, ipa, level)
	if !ok || res.Level != level {
		return common.RTTWalk
	}
	if res.Descriptor.Classify() != rtt.Assigned {
		return common.RTTEntry
	}
	dataAddr := res.Descriptor.OA()
	m.ledger.SetRange(dataAddr, level, granule.Delegated)
	if err := rtt.WriteDescriptor(m.dram, res.RTTAddr, res.Index, rtt.SetDestroyed()); err != nil {
		return common.Internal
	}
	m.walk.Invalidate(rdAddr)
	return common.Success
}

// DataDispose implements DATA_DISPOSE (spec.md §4.6): requires the
// naming REC not running and owned by rd, RTTE DESTROYED; clears it to
// UNASSIGNED. rec.dispose_base/dispose_size are read by the original
// but never actually consulted (spec.md §9 Open Question, carried
// forward unresolved); this mirrors that and ignores them too.
func (m *Monitor) DataDispose(rdAddr, recAddr, ipa uint64, level int) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	rd, code := m.store.AsRD(rdAddr)
	if code != common.Success {
		return common.Input
	}
	rec, code := m.store.AsREC(recAddr)
	if code != common.Success {
		return common.Input
	}
	if rec.StateRunning {
		return common.InUse
	}
	if rec.OwnerRD != rdAddr {
		return common.Owner
	}

	geom := geometry(rd)
	res, ok := rtt.Walk(m.dram, geom, ipa, level)
	if !ok || res.Level != level {
		return common.RTTWalk
	}
	if res.Descriptor.Classify() != rtt.Destroyed {
		return common.RTTEntry
	}
	if err := rtt.WriteDescriptor(m.dram, res.RTTAddr, res.Index, rtt.UnassignedWord()); err != nil {
		return common.Internal
	}
	m.walk.Invalidate(rdAddr)
	return common.Success
}
