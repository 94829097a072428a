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

// Package psci implements the PSCI shim (spec.md §4.8, C8): realm SMCs
// are classified as purely informational (forwarded and answered
// in-monitor), state-changing with host participation (exit to host,
// completed later via PSCI_COMPLETE), or validated and rejected
// in-monitor without ever bothering the host.
package psci

import (
	"github.com/armcca/rmm/common"
	"github.com/armcca/rmm/platform"
	"github.com/armcca/rmm/realm"
)

// Function ids, real ARM PSCI values.
const (
	FidVersion      = 0x84000000
	FidCPUSuspend   = 0xC4000001
	FidCPUOff       = 0x84000002
	FidCPUOn        = 0xC4000003
	FidAffinityInfo = 0xC4000004
	FidSystemOff    = 0x84000008
	FidSystemReset  = 0x84000009
	FidFeatures     = 0x8400000A
)

const (
	Success          = 0
	NotSupported     = -1
	InvalidParams    = -2
	InvalidAddress   = -5
)

// Action tells the entry/exit loop (C7) what to do after a realm SMC
// has been classified.
type Action int

const (
	ActionLoop     Action = iota // answered in-monitor, re-enter the realm
	ActionExitHost               // exit to host; host will later call PSCI_COMPLETE
)

type pendingOp struct {
	fid              uint32
	targetMPIDR      uint64
	entryPointOrArg2 uint64
	contextID        uint64
}

// Shim holds per-monitor PSCI state: completions the host still owes a
// REC. recIndexOf projects an mpidr onto the ordering value REC_CREATE
// assigns (spec.md §4.6's rec_index_of).
type Shim struct {
	oracle     platform.Oracle
	pending    map[uint64]pendingOp
	pendingSet *realm.PendingSet
	recIndexOf func(mpidr uint64) uint64
}

func NewShim(oracle platform.Oracle, recIndexOf func(mpidr uint64) uint64) *Shim {
	return &Shim{
		oracle:     oracle,
		pending:    make(map[uint64]pendingOp),
		pendingSet: realm.NewPendingSet(),
		recIndexOf: recIndexOf,
	}
}

// Handle classifies and processes an SMC the realm executed, mutating
// caller in place (spec.md §4.7 "SMC → PSCI shim decides
// internal-handle vs exit-to-host"). callerAddr is the REC's granule
// address, used as the pending-completion key.
func (s *Shim) Handle(callerAddr uint64, caller *realm.REC, ownerRD *realm.RD, fid uint32, x1, x2, x3, x4 uint64) Action {
	switch fid {
	case FidVersion:
		caller.GPRs[0] = uint64(s.oracle.PSCIVersion())
		return ActionLoop
	case FidFeatures:
		caller.GPRs[0] = uint64(int64(s.oracle.PSCIFeatures(uint32(x1))))
		return ActionLoop
	case FidCPUOn:
		return s.handleCPUOn(callerAddr, caller, ownerRD, x1, x2, x3)
	case FidAffinityInfo:
		// Only AFFINITY_INFO and CPU_ON expect a later PSCI_COMPLETE
		// (spec.md §4.8: "psci_pending is set if the operation targets
		// another REC").
		return s.exitPending(callerAddr, caller, fid, x1, x2, x3)
	case FidCPUOff:
		// CPU_OFF retires the caller itself; no completion is ever
		// expected for it, so psci_pending stays clear.
		caller.Runnable = false
		return ActionExitHost
	case FidCPUSuspend:
		return ActionExitHost
	case FidSystemOff:
		ownerRD.State = realm.SystemOff
		return ActionExitHost
	case FidSystemReset:
		ownerRD.State = realm.SystemOff
		return ActionExitHost
	default:
		caller.GPRs[0] = uint64(int64(NotSupported))
		return ActionLoop
	}
}

func (s *Shim) handleCPUOn(callerAddr uint64, caller *realm.REC, ownerRD *realm.RD, targetMPIDR, entryPoint, contextID uint64) Action {
	target := s.recIndexOf(targetMPIDR)
	if target >= ownerRD.RecIndex {
		// Monitor-local validation, no host involvement (spec.md §4.8:
		// "CPU_ON argument validation happens inside the monitor").
		caller.GPRs[0] = uint64(int64(InvalidParams))
		return ActionLoop
	}
	if !ownerRD.InPAR(entryPoint, 1) {
		caller.GPRs[0] = uint64(int64(InvalidAddress))
		return ActionLoop
	}
	return s.exitPending(callerAddr, caller, FidCPUOn, targetMPIDR, entryPoint, contextID)
}

func (s *Shim) exitPending(callerAddr uint64, caller *realm.REC, fid uint32, x1, x2, x3 uint64) Action {
	caller.PSCIPending = true
	s.pending[callerAddr] = pendingOp{fid: fid, targetMPIDR: x1, entryPointOrArg2: x2, contextID: x3}
	s.pendingSet.Add(callerAddr)
	return ActionExitHost
}

// Complete implements PSCI_COMPLETE(callerAddr, targetAddr) (spec.md
// §4.8): transfers the result to the caller and, for a completed
// CPU_ON, primes target with its entry point and context id (spec.md
// §8 scenario S6).
func (s *Shim) Complete(callerAddr uint64, caller *realm.REC, targetAddr uint64, target *realm.REC) common.ErrCode {
	op, ok := s.pending[callerAddr]
	if !ok || !caller.PSCIPending {
		return common.Input
	}
	delete(s.pending, callerAddr)
	s.pendingSet.Remove(callerAddr)
	caller.PSCIPending = false
	caller.GPRs[0] = Success

	if op.fid == FidCPUOn {
		target.Runnable = true
		target.PC = op.entryPointOrArg2
		target.GPRs[0] = op.contextID
	}
	return common.Success
}

// PendingCount returns the number of RECs still awaiting a
// PSCI_COMPLETE. Only the tests call it.
func (s *Shim) PendingCount() int { return s.pendingSet.Len() }
