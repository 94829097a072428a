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

package platform

// Oracle is the single synchronous SMC call into the lower,
// higher-privileged secure monitor (spec.md §1: "exposed as a single
// synchronous oracle smc(args) -> args"). It services the
// DELEGATE/UNDELEGATE PAS transitions and PSCI introspection forwards.
// Everything below EL3 is someone else's problem; this is the seam.
type Oracle interface {
	// Delegate transitions addr from Non-secure to Realm PAS.
	Delegate(addr uint64) error
	// Undelegate transitions addr from Realm back to Non-secure PAS.
	Undelegate(addr uint64) error
	// PSCIVersion forwards PSCI_VERSION to firmware.
	PSCIVersion() uint32
	// PSCIFeatures forwards PSCI_FEATURES(fid) to firmware.
	PSCIFeatures(fid uint32) int32
}

// FakeOracle is a deterministic, in-process stand-in for the lower
// monitor, used by the simulation harness and tests. FailDelegate /
// FailUndelegate let tests exercise the Open Question in SPEC_FULL.md
// about ordering of the zero-before-transition in
// monitor.GranuleUndelegate.
type FakeOracle struct {
	FailDelegate   map[uint64]bool
	FailUndelegate map[uint64]bool
	version        uint32
}

func NewFakeOracle() *FakeOracle {
	return &FakeOracle{
		FailDelegate:   map[uint64]bool{},
		FailUndelegate: map[uint64]bool{},
		version:        0x00010001,
	}
}

func (o *FakeOracle) Delegate(addr uint64) error {
	if o.FailDelegate[addr] {
		return errSMCFailed
	}
	return nil
}

func (o *FakeOracle) Undelegate(addr uint64) error {
	if o.FailUndelegate[addr] {
		return errSMCFailed
	}
	return nil
}

func (o *FakeOracle) PSCIVersion() uint32 { return o.version }

func (o *FakeOracle) PSCIFeatures(fid uint32) int32 {
	// PSCI_NOT_SUPPORTED sentinel used by the reference PSCI spec.
	const notSupported = -1
	switch fid {
	case 0x84000000, 0x8400000a: // PSCI_VERSION, PSCI_FEATURES themselves
		return 0
	default:
		return notSupported
	}
}

var errSMCFailed = smcError("smc call failed")

type smcError string

func (e smcError) Error() string { return string(e) }

// NSWindow abstracts per-platform differences in where host Non-secure
// memory appears relative to the monitor's own view of physical
// address space (spec.md §1). The identity window is correct whenever
// the monitor and the host share one flat physical map, which is the
// case for the DRAM-backed simulation harness.
type NSWindow func(src uint64) uint64

func IdentityWindow(src uint64) uint64 { return src }

// VCPUState is the architectural save/restore seam for the virtual GIC
// cpu-interface and EL1 system registers the monitor does not itself
// model bit-for-bit (spec.md §1). A real platform saves/restores actual
// hardware state here; the simulation harness is a no-op since REC
// already holds the full register block C3/C7 operate on.
type VCPUState interface {
	SaveVCPUState(core int)
	RestoreVCPUState(core int)
}

type NoopVCPUState struct{}

func (NoopVCPUState) SaveVCPUState(core int)    {}
func (NoopVCPUState) RestoreVCPUState(core int) {}
