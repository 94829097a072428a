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

// EL1 system register bits a fresh REC is initialised with (spec.md
// §4.6 REC_CREATE), named and OR'd exactly as listed there.
const (
	hcrVM   = 1 << 0
	hcrSWIO = 1 << 1
	hcrPTW  = 1 << 2
	hcrFMO  = 1 << 3
	hcrIMO  = 1 << 4
	hcrAMO  = 1 << 5
	hcrTWI  = 1 << 13
	hcrTWE  = 1 << 14
	hcrTSC  = 1 << 19
	hcrBSUIS = 1 << 10
	hcrFB   = 1 << 9
	hcrRW   = 1 << 31
	hcrFWB  = 1 << 46

	initialHCR = hcrVM | hcrSWIO | hcrPTW | hcrFMO | hcrIMO | hcrAMO |
		hcrFB | hcrBSUIS | hcrTWI | hcrTWE | hcrTSC | hcrRW | hcrFWB
)

// modeEL1t | DAIF all masked: SPSR for a REC entering EL1t with
// interrupts/debug/aborts masked (spec.md §4.6: "SPSR to EL1t with DAIF
// masked").
const (
	spsrModeEL1t = 0x4
	spsrDAIFMask = 0xF << 6
	initialSPSR  = spsrModeEL1t | spsrDAIFMask
)

// vtcr composes VTCR_EL2 from (ipaWidth, rttLevelStart): SL0 carries the
// starting level, T0SZ the input-address size offset (64-ipaWidth),
// following the original's VTCR_SL0_EL2/VTCR_T0SZ_EL2 macros (spec.md
// §4.6: "compute VTCR from (ipa_width, rtt_level_start)").
func vtcr(ipaWidth uint8, rttLevelStart int8) uint64 {
	sl0 := uint64(rttLevelStart) & 0x3
	t0sz := uint64(64-ipaWidth) & 0x3F
	return sl0<<6 | t0sz
}

// vttbr composes VTTBR_EL2 = rtt_base | (vmid << 48) (spec.md §4.6).
func vttbr(rttBase uint64, vmid uint8) uint64 {
	return rttBase | uint64(vmid)<<48
}

// vmpidrReg maps a raw mpidr argument onto the VMPIDR_EL2 value a REC's
// vCPU presents to the realm; the simulation harness treats them as the
// same value since affinity-level encoding is architecture detail this
// monitor does not otherwise model.
func vmpidrReg(mpidr uint64) uint64 { return mpidr }
