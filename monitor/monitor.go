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

// Package monitor wires components C1-C8 of spec.md into the Realm
// Management Monitor itself: the granule ledger, the RTT walker, the
// realm/REC object store, the safe-copy primitive and the PSCI shim,
// all mutated under one global lock (spec.md §5, the "monitor_lock").
// It is where the 20-odd RMI lifecycle handlers (C6) and the realm
// entry/exit loop (C7) live, and what cmd/rmm-console and the RMI
// dispatcher both sit on top of.
package monitor

import (
	"sync"

	"github.com/google/uuid"

	"github.com/armcca/rmm/audit"
	"github.com/armcca/rmm/granule"
	"github.com/armcca/rmm/internal/rmmlog"
	"github.com/armcca/rmm/measure"
	"github.com/armcca/rmm/platform"
	"github.com/armcca/rmm/psci"
	"github.com/armcca/rmm/realm"
	"github.com/armcca/rmm/rtt"
	"github.com/armcca/rmm/safecopy"
)

// Monitor is the whole RMM: every piece of shared state spec.md §5
// calls out, plus the global lock that serialises every mutation.
// Realm entry (C7) releases lock explicitly around the realm's
// execution and reacquires it before touching shared state again.
type Monitor struct {
	mu sync.Mutex

	ID uuid.UUID

	cfg    platform.Config
	dram   *platform.DRAM
	ledger *granule.Ledger
	store  *realm.Store
	vmids  *realm.VMIDAllocator
	copier *safecopy.Copier
	walk   *rtt.WalkCache
	oracle platform.Oracle
	vcpu   platform.VCPUState
	psci   *psci.Shim
	audit  *audit.Log

	measurements map[uint64]*measure.Digest

	// Executor drives simulated realm execution for REC_ENTER (spec.md
	// §4.7, C7). New sets it to NoopExecutor, which exits every entry
	// at once as an IRQ; tests supply their own, and cmd/rmm-console
	// keeps the default, since "entering the realm" is precisely the
	// platform-specific part this monitor does not implement itself.
	Executor Executor
}

// New wires a Monitor from its already-constructed collaborators. The
// caller owns dram's lifetime (platform.NewDRAM/Close).
func New(cfg platform.Config, dram *platform.DRAM, oracle platform.Oracle, vcpu platform.VCPUState, auditLog *audit.Log) (*Monitor, error) {
	ledger := granule.NewLedger(cfg.DRAMBase, cfg.NumGranules)
	store := realm.NewStore(dram, ledger)
	vmids := realm.NewVMIDAllocator()
	copier := safecopy.NewCopier(dram, platform.IdentityWindow, cfg.CoreCount)
	walk, err := rtt.NewWalkCache(1024)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		ID:           id,
		cfg:          cfg,
		dram:         dram,
		ledger:       ledger,
		store:        store,
		vmids:        vmids,
		copier:       copier,
		walk:         walk,
		oracle:       oracle,
		vcpu:         vcpu,
		audit:        auditLog,
		measurements: make(map[uint64]*measure.Digest),
		Executor:     NoopExecutor{},
	}
	m.psci = psci.NewShim(oracle, m.recIndexOf)
	rmmlog.Debug("monitor initialised", "id", id, "granules", cfg.NumGranules)
	return m, nil
}

// recIndexOf projects an mpidr onto the ordering value REC_CREATE
// assigns and RMI.CPU_ON validates against (spec.md §4.6, §4.8). The
// simulation harness doesn't model affinity levels, so mpidr is used
// directly as the index.
func (m *Monitor) recIndexOf(mpidr uint64) uint64 { return mpidr }

// geometry projects an RD's RTT fields into the shape rtt.Walk needs.
func geometry(rd *realm.RD) rtt.Geometry {
	return rtt.Geometry{
		RTTBase:       rd.RTTBase,
		RTTNumStart:   uint64(rd.RTTNumStart),
		RTTLevelStart: int(rd.RTTLevelStart),
	}
}

// measurementFor returns (creating on first use) the running digest for
// the realm whose RD lives at rdAddr.
func (m *Monitor) measurementFor(rdAddr uint64) *measure.Digest {
	d, ok := m.measurements[rdAddr]
	if !ok {
		d = &measure.Digest{}
		m.measurements[rdAddr] = d
	}
	return d
}

func (m *Monitor) recordAudit(fid uint32, args [5]uint64, code uint8) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Append(fid, args, code); err != nil {
		rmmlog.Warn("audit append failed", "err", err)
	}
}
