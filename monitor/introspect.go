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
	"encoding/hex"

	"github.com/armcca/rmm/audit"
	"github.com/armcca/rmm/common"
	"github.com/armcca/rmm/granule"
	"github.com/armcca/rmm/platform"
)

// The methods in this file exist purely for operator introspection
// (cmd/rmm-console): none of them are reachable from the RMI dispatch
// table and none of them mutate anything. They take the same lock as
// every mutating handler so a concurrent console never observes a
// torn read of ledger or realm state.

// DRAM exposes the backing store so a host-side caller (the console,
// tests) can poke rmi_realm_params/rmi_rec_params/rmi_rec_run buffers
// into Non-secure granules before issuing the RMI call that reads them
// back via safecopy. The monitor itself never reaches for this method.
func (m *Monitor) DRAM() *platform.DRAM { return m.dram }

// LedgerCounts reports how many granules currently sit in each of the
// seven states (spec.md §3.1), for the console's summary table.
func (m *Monitor) LedgerCounts() map[granule.State]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[granule.State]int, 7)
	for _, s := range []granule.State{
		granule.Undelegated, granule.Delegated, granule.Data,
		granule.RD, granule.Rec, granule.RecAux, granule.RTT,
	} {
		counts[s] = m.ledger.Count(s)
	}
	return counts
}

// GranuleState reports the ledger state at addr.
func (m *Monitor) GranuleState(addr uint64) (granule.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.Get(addr)
}

// RealmSummary is the console's read-only projection of one RD.
type RealmSummary struct {
	VMID        uint8
	State       string
	ParBase     uint64
	ParSize     uint64
	RecIndex    uint64
	RecCount    uint32
	Measurement string
}

// RealmSummary reads back the RD at rdAddr plus its running measurement.
func (m *Monitor) RealmSummary(rdAddr uint64) (RealmSummary, common.ErrCode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rd, code := m.store.AsRD(rdAddr)
	if code != common.Success {
		return RealmSummary{}, code
	}
	digest := m.measurementFor(rdAddr).Value()
	return RealmSummary{
		VMID:        rd.VMID,
		State:       rd.State.String(),
		ParBase:     rd.ParBase,
		ParSize:     rd.ParSize,
		RecIndex:    rd.RecIndex,
		RecCount:    rd.RecCount,
		Measurement: hex.EncodeToString(digest[:]),
	}, common.Success
}

// RecSummary is the console's read-only projection of one REC.
type RecSummary struct {
	OwnerRD      uint64
	PC           uint64
	Runnable     bool
	StateRunning bool
	PSCIPending  bool
	EnterReason  string
}

// RecSummary reads back the REC at recAddr.
func (m *Monitor) RecSummary(recAddr uint64) (RecSummary, common.ErrCode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, code := m.store.AsREC(recAddr)
	if code != common.Success {
		return RecSummary{}, code
	}
	return RecSummary{
		OwnerRD:      rec.OwnerRD,
		PC:           rec.PC,
		Runnable:     rec.Runnable,
		StateRunning: rec.StateRunning,
		PSCIPending:  rec.PSCIPending,
		EnterReason:  rec.EnterReason.String(),
	}, common.Success
}

// ReplayAudit walks the audit log in sequence order, or does nothing if
// auditing was never wired in.
func (m *Monitor) ReplayAudit(fn func(audit.Record)) error {
	if m.audit == nil {
		return nil
	}
	return m.audit.Replay(fn)
}
