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
	"github.com/armcca/rmm/rtt"
	"github.com/armcca/rmm/wire"
)

// RealmCreate implements REALM_CREATE(rd, params) (spec.md §4.6). ipa_width
// is not a wire field of rmi_realm_params (spec.md §6.2); it is taken
// from the low byte of features_0, following original_source's
// rmm_is_feature_valid/trp_create_realm exactly.
func (m *Monitor) RealmCreate(core int, rdAddr, paramsAddr uint64) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ledger.Assert(rdAddr, granule.Delegated) {
		return common.Input
	}
	if !m.ledger.Assert(paramsAddr, granule.Undelegated) {
		return common.Input
	}

	buf := make([]byte, wire.RealmParamsSize)
	if !m.copier.ReadNS(core, buf, paramsAddr) {
		return common.Memory
	}
	p := wire.DecodeRealmParams(buf)

	if p.Features0&realm.FeatureLPA2 != 0 {
		return common.Memory
	}
	ipaWidth := uint8(p.Features0 & 0xff)
	if uint(ipaWidth) > m.cfg.PAWidth {
		return common.Memory
	}
	if !realm.ValidateGeometry(ipaWidth, int8(p.RTTLevelStart), p.RTTNumStart, p.Features0) {
		return common.Memory
	}
	limit := uint64(1) << ipaWidth
	if p.ParBase >= limit || p.ParSize >= limit || p.ParBase+p.ParSize >= limit {
		return common.Memory
	}
	for i := uint32(0); i < p.RTTNumStart; i++ {
		if !m.ledger.Assert(p.RTTBase+uint64(i)*common.GranuleSize, granule.Delegated) {
			return common.Memory
		}
	}

	vmid, ok := m.vmids.Alloc()
	if !ok {
		return common.Internal
	}

	for i := uint32(0); i < p.RTTNumStart; i++ {
		if err := rtt.ZeroFill(m.dram, p.RTTBase+uint64(i)*common.GranuleSize); err != nil {
			m.vmids.Release(vmid)
			return common.Internal
		}
	}

	rd := &realm.RD{
		ParBase:       p.ParBase,
		ParSize:       p.ParSize,
		IPAWidth:      ipaWidth,
		RTTBase:       p.RTTBase,
		RTTNumStart:   p.RTTNumStart,
		RTTLevelStart: int8(p.RTTLevelStart),
		VMID:          vmid,
		RecIndex:        0,
		RecCount:        0,
		State:           realm.New,
		MeasurementAlgo: p.MeasurementAlgo,
	}
	if code := m.store.PutRD(rdAddr, rd); code != common.Success {
		m.vmids.Release(vmid)
		return code
	}
	for i := uint32(0); i < p.RTTNumStart; i++ {
		m.ledger.Set(p.RTTBase+uint64(i)*common.GranuleSize, granule.RTT)
	}
	m.ledger.Set(rdAddr, granule.RD)

	m.measurementFor(rdAddr).Extend(p.MeasurementAlgo, buf)
	return common.Success
}

// RealmActivate implements REALM_ACTIVATE(rd) (spec.md §4.6): NEW -> ACTIVE.
func (m *Monitor) RealmActivate(rdAddr uint64) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	rd, code := m.store.AsRD(rdAddr)
	if code != common.Success {
		return code
	}
	if rd.State != realm.New {
		return common.RealmState
	}
	rd.State = realm.Active
	return m.store.PutRD(rdAddr, rd)
}

// RealmDestroy implements REALM_DESTROY(rd) (spec.md §4.6): requires no
// live RECs and every starting-level RTTE non-TABLE and non-DATA-backed;
// demotes the RD and its root tables back to DELEGATED and frees the VMID.
func (m *Monitor) RealmDestroy(rdAddr uint64) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	rd, code := m.store.AsRD(rdAddr)
	if code != common.Success {
		return code
	}
	if rd.RecCount != 0 {
		return common.InUse
	}
	for i := uint32(0); i < rd.RTTNumStart; i++ {
		rttAddr := rd.RTTBase + uint64(i)*common.GranuleSize
		for idx := 0; idx < 512; idx++ {
			w, err := rtt.ReadDescriptor(m.dram, rttAddr, idx)
			if err != nil {
				return common.Internal
			}
			switch w.Classify() {
			case rtt.Table, rtt.Assigned, rtt.Valid:
				return common.InUse
			}
		}
	}

	for i := uint32(0); i < rd.RTTNumStart; i++ {
		m.ledger.Set(rd.RTTBase+uint64(i)*common.GranuleSize, granule.Delegated)
	}
	m.ledger.Set(rdAddr, granule.Delegated)
	m.vmids.Release(rd.VMID)
	m.walk.Invalidate(rdAddr)
	delete(m.measurements, rdAddr)
	return common.Success
}
