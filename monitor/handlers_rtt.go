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

// RTTCreate implements RTT_CREATE(rtt, rd, ipa, level) (spec.md §4.6):
// rtt must be DELEGATED; the walk to level-1 must stop exactly there
// with a non-TABLE descriptor, whose state decides how the new child
// table is populated.
func (m *Monitor) RTTCreate(rttAddr, rdAddr, ipa uint64, level int) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	rd, code := m.store.AsRD(rdAddr)
	if code != common.Success {
		return common.Input
	}
	if !m.ledger.Assert(rttAddr, granule.Delegated) {
		return common.Input
	}
	geom := geometry(rd)
	res, ok := rtt.Walk(m.dram, geom, ipa, level-1)
	if !ok || res.Level != level-1 {
		return common.RTTWalk
	}
	parent := res.Descriptor
	switch parent.Classify() {
	case rtt.Unassigned:
		if err := rtt.ZeroFill(m.dram, rttAddr); err != nil {
			return common.Internal
		}
	case rtt.Destroyed:
		if err := rtt.FillDestroyed(m.dram, rttAddr); err != nil {
			return common.Internal
		}
	case rtt.Assigned, rtt.Valid, rtt.ValidNS:
		if level != 3 {
			return common.RTTEntry
		}
		if err := rtt.Splay(m.dram, rttAddr, parent, level); err != nil {
			return common.Internal
		}
	default:
		return common.RTTEntry
	}

	m.ledger.Set(rttAddr, granule.RTT)
	if err := rtt.WriteDescriptor(m.dram, res.RTTAddr, res.Index, rtt.SetTable(rttAddr)); err != nil {
		return common.Internal
	}
	m.walk.Invalidate(rdAddr)
	return common.Success
}

// RTTDestroy implements RTT_DESTROY(rtt, rd, ipa, level) (spec.md
// §4.6): requires the parent slot to be a TABLE descriptor pointing at
// rtt; attempts fold; on success demotes rtt, on failure reports
// common.InUse without mutating anything.
func (m *Monitor) RTTDestroy(rttAddr, rdAddr, ipa uint64, level int) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	rd, code := m.store.AsRD(rdAddr)
	if code != common.Success {
		return common.Input
	}
	geom := geometry(rd)
	res, ok := rtt.Walk(m.dram, geom, ipa, level-1)
	if !ok || res.Level != level-1 {
		return common.RTTWalk
	}
	if res.Descriptor.Classify() != rtt.Table || res.Descriptor.OA() != rttAddr {
		return common.RTTEntry
	}
	folded, ok := rtt.Fold(m.dram, rttAddr, level)
	if !ok {
		return common.InUse
	}
	if err := rtt.WriteDescriptor(m.dram, res.RTTAddr, res.Index, folded); err != nil {
		return common.Internal
	}
	m.ledger.Set(rttAddr, granule.Delegated)
	m.walk.Invalidate(rdAddr)
	return common.Success
}

// rttToggleProtected is the shared body of RTT_MAP_PROTECTED and
// RTT_UNMAP_PROTECTED: both only flip the valid bit of an existing
// leaf descriptor (spec.md §4.6). This harness has no TLB, so the
// ipas2le1is TLBI is modelled only by invalidating the walk cache.
func (m *Monitor) rttToggleProtected(rdAddr, ipa uint64, level int, want rtt.State, valid bool) common.ErrCode {
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
	if res.Descriptor.Classify() != want {
		return common.RTTEntry
	}
	if err := rtt.WriteDescriptor(m.dram, res.RTTAddr, res.Index, res.Descriptor.SetValid(valid)); err != nil {
		return common.Internal
	}
	m.walk.Invalidate(rdAddr)
	return common.Success
}

// RTTMapProtected implements RTT_MAP_PROTECTED(rd, ipa, level).
func (m *Monitor) RTTMapProtected(rdAddr, ipa uint64, level int) common.ErrCode {
	return m.rttToggleProtected(rdAddr, ipa, level, rtt.Assigned, true)
}

// RTTUnmapProtected implements RTT_UNMAP_PROTECTED(rd, ipa, level).
func (m *Monitor) RTTUnmapProtected(rdAddr, ipa uint64, level int) common.ErrCode {
	return m.rttToggleProtected(rdAddr, ipa, level, rtt.Valid, false)
}

// RTTMapUnprotected implements RTT_MAP_UNPROTECTED(rd, ipa, level,
// nsOA, nsAttrs) (spec.md §4.6): requires UNASSIGNED|DESTROYED and an
// OA that is delegable-outside (not tracked by the ledger at all, i.e.
// genuine host NS memory) and level-aligned; writes VALID_NS.
func (m *Monitor) RTTMapUnprotected(rdAddr, ipa uint64, level int, nsOA uint64, nsAttrs uint8) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	rd, code := m.store.AsRD(rdAddr)
	if code != common.Success {
		return common.Input
	}
	if !common.IsAlignedToLevel(nsOA, level) {
		return common.Input
	}
	if _, tracked := m.ledger.Get(nsOA); tracked {
		return common.Memory
	}
	geom := geometry(rd)
	res, ok := rtt.Walk(m.dram, geom, ipa, level)
	if !ok || res.Level != level {
		return common.RTTWalk
	}
	st := res.Descriptor.Classify()
	if st != rtt.Unassigned && st != rtt.Destroyed {
		return common.RTTEntry
	}
	if err := rtt.WriteDescriptor(m.dram, res.RTTAddr, res.Index, rtt.SetNS(nsOA, nsAttrs)); err != nil {
		return common.Internal
	}
	m.walk.Invalidate(rdAddr)
	return common.Success
}

// RTTUnmapUnprotected implements RTT_UNMAP_UNPROTECTED(rd, ipa, level,
// nsOA): requires VALID_NS with matching OA; writes the all-zero
// UNASSIGNED descriptor.
func (m *Monitor) RTTUnmapUnprotected(rdAddr, ipa uint64, level int, nsOA uint64) common.ErrCode {
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
	if res.Descriptor.Classify() != rtt.ValidNS || res.Descriptor.OA() != nsOA {
		return common.RTTEntry
	}
	if err := rtt.WriteDescriptor(m.dram, res.RTTAddr, res.Index, rtt.UnassignedWord()); err != nil {
		return common.Internal
	}
	m.walk.Invalidate(rdAddr)
	return common.Success
}

// RTTEntryView is the confidentiality-filtered projection of an RTTE
// RTT_READ_ENTRY hands back to the host (spec.md §4.6): UNASSIGNED and
// DESTROYED expose nothing beyond the state itself; VALID_NS exposes
// OA and the three host-settable attribute fields; every other
// protected state exposes only the level reached and the state.
type RTTEntryView struct {
	Level int
	State rtt.State
	OA    uint64
	Attrs uint8
}

// RTTReadEntry implements RTT_READ_ENTRY(rd, ipa, level).
func (m *Monitor) RTTReadEntry(rdAddr, ipa uint64, level int) (RTTEntryView, common.ErrCode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rd, code := m.store.AsRD(rdAddr)
	if code != common.Success {
		return RTTEntryView{}, common.Input
	}
	geom := geometry(rd)
	res, ok := rtt.Walk(m.dram, geom, ipa, level)
	if !ok {
		return RTTEntryView{}, common.RTTWalk
	}
	view := RTTEntryView{Level: res.Level, State: res.Descriptor.Classify()}
	if view.State == rtt.ValidNS {
		view.OA = res.Descriptor.OA()
		view.Attrs = res.Descriptor.Attrs()
	}
	return view, common.Success
}
