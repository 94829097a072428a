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

package realm

import "encoding/binary"

// EnterReason is why the monitor most recently branched into the
// realm (spec.md §3.3).
type EnterReason uint8

const (
	FirstRun EnterReason = iota
	IRQ
	FIQ
	EL1SError
	Trap
)

func (e EnterReason) String() string {
	switch e {
	case FirstRun:
		return "FIRST_RUN"
	case IRQ:
		return "IRQ"
	case FIQ:
		return "FIQ"
	case EL1SError:
		return "EL1_SERROR"
	case Trap:
		return "TRAP"
	default:
		return "INVALID"
	}
}

// REC is the Realm Execution Context (spec.md §3.3), held in a single
// granule in state REC. The owning RD is referenced by its stable
// physical address, never by pointer (spec.md §9: "no cyclic
// references ... modelled as a stable index or physical address").
type REC struct {
	GPRs [32]uint64
	PC   uint64

	HCR, SPSR, VTCR, VTTBR, VMPIDR uint64
	ESR, FAR, HPFAR                uint64
	VGICLRs                        [16]uint64
	VGICHCR                        uint64

	OwnerRD uint64

	Runnable        bool
	StateRunning    bool
	PSCIPending     bool
	EmulatableAbort bool
	EnterReason     EnterReason

	PSCICompleteResult uint64

	// AbortDestReg remembers which GPR a pending emulatable MMIO abort
	// must receive the host-supplied read value into on the next
	// REC_ENTER (spec.md §4.7 phase 1: "apply emulated-MMIO read-value
	// into destination register").
	AbortDestReg uint64
}

const (
	recOffGPRs            = 0
	recOffPC              = 32 * 8
	recOffHCR             = recOffPC + 8
	recOffSPSR            = recOffHCR + 8
	recOffVTCR            = recOffSPSR + 8
	recOffVTTBR           = recOffVTCR + 8
	recOffVMPIDR          = recOffVTTBR + 8
	recOffESR             = recOffVMPIDR + 8
	recOffFAR             = recOffESR + 8
	recOffHPFAR           = recOffFAR + 8
	recOffVGICLRs         = recOffHPFAR + 8
	recOffVGICHCR         = recOffVGICLRs + 16*8
	recOffOwnerRD         = recOffVGICHCR + 8
	recOffFlags           = recOffOwnerRD + 8
	recOffEnterReason     = recOffFlags + 1
	recOffPSCICompleteRes = recOffEnterReason + 1
	recOffAbortDestReg    = recOffPSCICompleteRes + 8
	recEncodedSize        = recOffAbortDestReg + 8
)

const (
	flagRunnable = 1 << iota
	flagStateRunning
	flagPSCIPending
	flagEmulatableAbort
)

// EncodeREC serialises rec into dst (a 4KiB granule slice).
func EncodeREC(dst []byte, rec *REC) {
	for i, v := range rec.GPRs {
		binary.LittleEndian.PutUint64(dst[recOffGPRs+i*8:], v)
	}
	binary.LittleEndian.PutUint64(dst[recOffPC:], rec.PC)
	binary.LittleEndian.PutUint64(dst[recOffHCR:], rec.HCR)
	binary.LittleEndian.PutUint64(dst[recOffSPSR:], rec.SPSR)
	binary.LittleEndian.PutUint64(dst[recOffVTCR:], rec.VTCR)
	binary.LittleEndian.PutUint64(dst[recOffVTTBR:], rec.VTTBR)
	binary.LittleEndian.PutUint64(dst[recOffVMPIDR:], rec.VMPIDR)
	binary.LittleEndian.PutUint64(dst[recOffESR:], rec.ESR)
	binary.LittleEndian.PutUint64(dst[recOffFAR:], rec.FAR)
	binary.LittleEndian.PutUint64(dst[recOffHPFAR:], rec.HPFAR)
	for i, v := range rec.VGICLRs {
		binary.LittleEndian.PutUint64(dst[recOffVGICLRs+i*8:], v)
	}
	binary.LittleEndian.PutUint64(dst[recOffVGICHCR:], rec.VGICHCR)
	binary.LittleEndian.PutUint64(dst[recOffOwnerRD:], rec.OwnerRD)

	var flags byte
	if rec.Runnable {
		flags |= flagRunnable
	}
	if rec.StateRunning {
		flags |= flagStateRunning
	}
	if rec.PSCIPending {
		flags |= flagPSCIPending
	}
	if rec.EmulatableAbort {
		flags |= flagEmulatableAbort
	}
	dst[recOffFlags] = flags
	dst[recOffEnterReason] = byte(rec.EnterReason)
	binary.LittleEndian.PutUint64(dst[recOffPSCICompleteRes:], rec.PSCICompleteResult)
	binary.LittleEndian.PutUint64(dst[recOffAbortDestReg:], rec.AbortDestReg)
}

// DecodeREC deserialises a REC from src (a 4KiB granule slice).
func DecodeREC(src []byte) *REC {
	rec := &REC{}
	for i := range rec.GPRs {
		rec.GPRs[i] = binary.LittleEndian.Uint64(src[recOffGPRs+i*8:])
	}
	rec.PC = binary.LittleEndian.Uint64(src[recOffPC:])
	rec.HCR = binary.LittleEndian.Uint64(src[recOffHCR:])
	rec.SPSR = binary.LittleEndian.Uint64(src[recOffSPSR:])
	rec.VTCR = binary.LittleEndian.Uint64(src[recOffVTCR:])
	rec.VTTBR = binary.LittleEndian.Uint64(src[recOffVTTBR:])
	rec.VMPIDR = binary.LittleEndian.Uint64(src[recOffVMPIDR:])
	rec.ESR = binary.LittleEndian.Uint64(src[recOffESR:])
	rec.FAR = binary.LittleEndian.Uint64(src[recOffFAR:])
	rec.HPFAR = binary.LittleEndian.Uint64(src[recOffHPFAR:])
	for i := range rec.VGICLRs {
		rec.VGICLRs[i] = binary.LittleEndian.Uint64(src[recOffVGICLRs+i*8:])
	}
	rec.VGICHCR = binary.LittleEndian.Uint64(src[recOffVGICHCR:])
	rec.OwnerRD = binary.LittleEndian.Uint64(src[recOffOwnerRD:])

	flags := src[recOffFlags]
	rec.Runnable = flags&flagRunnable != 0
	rec.StateRunning = flags&flagStateRunning != 0
	rec.PSCIPending = flags&flagPSCIPending != 0
	rec.EmulatableAbort = flags&flagEmulatableAbort != 0
	rec.EnterReason = EnterReason(src[recOffEnterReason])
	rec.PSCICompleteResult = binary.LittleEndian.Uint64(src[recOffPSCICompleteRes:])
	rec.AbortDestReg = binary.LittleEndian.Uint64(src[recOffAbortDestReg:])
	return rec
}
