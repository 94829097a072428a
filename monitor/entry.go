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
	"github.com/armcca/rmm/psci"
	"github.com/armcca/rmm/realm"
	"github.com/armcca/rmm/wire"
)

// ExitKind names the reason a realm most recently trapped back to the
// monitor (spec.md §4.7 phase 5's classification list).
type ExitKind int

const (
	ExitIRQ ExitKind = iota
	ExitFIQ
	ExitWFx
	ExitHVC
	ExitDataAbort
	ExitInstrAbort
	ExitSMC
)

// ExitInfo is everything Executor.Run observed about one realm exit;
// RecEnter classifies it and decides whether to loop or report to the
// host.
type ExitInfo struct {
	Kind ExitKind

	ESR, FAR, HPFAR uint64

	// ISV/WnR/WriteValue only matter for ExitDataAbort: ISV set and the
	// fault address outside PAR makes the abort emulatable (spec.md
	// §4.7 phase 5).
	ISV        bool
	WnR        bool
	WriteValue uint64
	// DestReg is the destination GPR index for an emulatable MMIO read
	// abort, decoded from ESR.ISS by the executor.
	DestReg uint64

	// SMC carries the raw SMC arguments for PSCI classification.
	SMCFid             uint32
	SMCArg1, SMCArg2, SMCArg3, SMCArg4 uint64
}

// Executor drives one step of simulated realm execution for REC_ENTER
// (spec.md §4.7, C7): restore rec's sysregs, run until the next trap,
// report what was observed. Implementations mutate rec.GPRs/PC in
// place to reflect what the realm did before trapping.
type Executor interface {
	Run(rec *realm.REC) ExitInfo
}

// NoopExecutor is the trivial stand-in used when nothing more specific
// is wired: every entry immediately exits as an unclassified IRQ, so
// REC_ENTER always terminates rather than spin. New installs it by
// default; tests replace it with their own Executor, while
// cmd/rmm-console keeps it.
type NoopExecutor struct{}

func (NoopExecutor) Run(rec *realm.REC) ExitInfo {
	return ExitInfo{Kind: ExitIRQ}
}

// RecEnter implements REC_ENTER(rec, run_ns) (spec.md §4.7): the only
// RMI handler that releases monitor_lock around the bulk of its work,
// since that is where (simulated) realm execution happens.
func (m *Monitor) RecEnter(core int, recAddr, runNSAddr uint64) common.ErrCode {
	m.mu.Lock()

	rec, code := m.store.AsREC(recAddr)
	if code != common.Success {
		m.mu.Unlock()
		return code
	}
	if rec.StateRunning {
		m.mu.Unlock()
		return common.InUse
	}
	if !m.ledger.Assert(runNSAddr, granule.Undelegated) {
		m.mu.Unlock()
		return common.Input
	}
	rd, code := m.store.AsRD(rec.OwnerRD)
	if code != common.Success {
		m.mu.Unlock()
		return common.Internal
	}
	if rd.State != realm.Active {
		m.mu.Unlock()
		return common.RealmState
	}
	if !rec.Runnable {
		m.mu.Unlock()
		return common.RealmState
	}
	if rec.PSCIPending {
		m.mu.Unlock()
		return common.RealmState
	}

	buf := make([]byte, wire.RecEntrySize)
	if !m.copier.ReadNS(core, buf, runNSAddr) {
		m.mu.Unlock()
		return common.Memory
	}
	entry := wire.DecodeRecEntry(buf)
	if entry.IsEmulatedMMIO && !rec.EmulatableAbort {
		m.mu.Unlock()
		return common.Input
	}

	// Phase 1: reconstitute GPRs on a trap-classified re-entry; apply
	// the emulated-MMIO read value and step past the trapping
	// instruction.
	if rec.EnterReason != realm.FirstRun {
		copy(rec.GPRs[:7], entry.GPRs[:])
	}
	if rec.EmulatableAbort {
		if entry.IsEmulatedMMIO {
			rec.GPRs[rec.AbortDestReg] = entry.EmulatedReadValue
		}
		rec.PC += 4
		rec.EmulatableAbort = false
	}

	// Phase 2: vGIC LRs/HCR from the entry buffer. Host-controllable
	// bits only; the low 16 bits of HCR are the ones a host may steer
	// (priority/group masks), the rest stays monitor-owned.
	const hostGICHCRMask = 0xFFFF
	rec.VGICLRs = entry.GICv3LRs
	rec.VGICHCR = (rec.VGICHCR &^ hostGICHCRMask) | (entry.GICv3HCR & hostGICHCRMask)

	// Phase 3/4: save+disable the EL2 physical timer, mark running,
	// release the lock around realm execution.
	m.vcpu.SaveVCPUState(core)
	rec.StateRunning = true
	if code := m.store.PutREC(recAddr, rec); code != common.Success {
		m.mu.Unlock()
		return code
	}
	m.mu.Unlock()

	exit := m.runLoop(recAddr, rec, rd)

	// Phase 6: re-acquire the lock, restore the timer, write the exit
	// buffer back, clear state_running.
	m.mu.Lock()
	defer m.mu.Unlock()

	m.vcpu.RestoreVCPUState(core)
	rec.StateRunning = false
	rec.EnterReason = realm.Trap

	var writeValue uint64
	if exit.Kind == ExitDataAbort && exit.WnR {
		writeValue = exit.WriteValue
	}
	out := wire.RecExit{
		Reason:             uint64(exit.Kind),
		ESR:                exit.ESR,
		FAR:                exit.FAR,
		HPFAR:              exit.HPFAR,
		EmulatedWriteValue: writeValue,
		GICv3LRs:           rec.VGICLRs,
		GICv3HCR:           rec.VGICHCR,
	}
	copy(out.GPRs[:], rec.GPRs[:7])
	outBuf := make([]byte, wire.RecExitSize)
	wire.EncodeRecExit(outBuf, &out)
	if !m.copier.WriteNS(core, runNSAddr+wire.RecEntrySize, outBuf) {
		return common.Memory
	}
	if code := m.store.PutRD(rec.OwnerRD, rd); code != common.Success {
		return code
	}
	return m.store.PutREC(recAddr, rec)
}

// runLoop repeatedly calls Executor.Run and classifies each exit
// (spec.md §4.7 phase 5), looping only when the PSCI shim handles an
// SMC entirely in-monitor.
func (m *Monitor) runLoop(recAddr uint64, rec *realm.REC, rd *realm.RD) ExitInfo {
	for {
		exit := m.Executor.Run(rec)
		rec.ESR, rec.FAR, rec.HPFAR = exit.ESR, exit.FAR, exit.HPFAR

		switch exit.Kind {
		case ExitIRQ, ExitFIQ:
			return exit
		case ExitWFx:
			rec.PC += 4
			return exit
		case ExitHVC:
			return exit
		case ExitInstrAbort:
			return exit
		case ExitDataAbort:
			if exit.ISV && !rd.InPAR(exit.FAR, 1) {
				rec.EmulatableAbort = true
				rec.AbortDestReg = exit.DestReg
			}
			return exit
		case ExitSMC:
			action := m.psci.Handle(recAddr, rec, rd, exit.SMCFid,
				exit.SMCArg1, exit.SMCArg2, exit.SMCArg3, exit.SMCArg4)
			if action == psci.ActionLoop {
				continue
			}
			return exit
		default:
			return exit
		}
	}
}
