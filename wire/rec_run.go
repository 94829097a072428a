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

package wire

import "encoding/binary"

// RecEntry is the entry half of rmi_rec_run (spec.md §6.2): what the
// host hands the monitor on REC_ENTER.
type RecEntry struct {
	GPRs              [7]uint64
	IsEmulatedMMIO    bool
	EmulatedReadValue uint64
	DisposeResponse   uint64
	GICv3LRs          [16]uint64
	GICv3HCR          uint64
}

// RecExit is the exit half of rmi_rec_run: what the monitor hands back
// to the host once the realm has exited, sanitised per spec.md §4.7/§7.
type RecExit struct {
	Reason             uint64
	ESR, FAR, HPFAR    uint64
	EmulatedWriteValue uint64
	GPRs               [7]uint64
	DisposeBase        uint64
	DisposeSize        uint64
	GICv3VMCR          uint64
	GICv3MISR          uint64
	CNTVCtl            uint64
	CNTVCval           uint64
	CNTPCtl             uint64
	CNTPCval            uint64
	GICv3LRs           [16]uint64
	GICv3HCR           uint64
}

const (
	entryOffGPRs           = 0
	entryOffIsEmulatedMMIO = 7 * 8
	entryOffReadValue      = entryOffIsEmulatedMMIO + 8
	entryOffDisposeResp    = entryOffReadValue + 8
	entryOffGICLRs         = entryOffDisposeResp + 8
	entryOffGICHCR         = entryOffGICLRs + 16*8
	// RecEntrySize is the wire size of RecEntry.
	RecEntrySize = entryOffGICHCR + 8
)

// EncodeRecEntry serialises e into dst.
func EncodeRecEntry(dst []byte, e *RecEntry) {
	for i, v := range e.GPRs {
		binary.LittleEndian.PutUint64(dst[entryOffGPRs+i*8:], v)
	}
	var b uint64
	if e.IsEmulatedMMIO {
		b = 1
	}
	binary.LittleEndian.PutUint64(dst[entryOffIsEmulatedMMIO:], b)
	binary.LittleEndian.PutUint64(dst[entryOffReadValue:], e.EmulatedReadValue)
	binary.LittleEndian.PutUint64(dst[entryOffDisposeResp:], e.DisposeResponse)
	for i, v := range e.GICv3LRs {
		binary.LittleEndian.PutUint64(dst[entryOffGICLRs+i*8:], v)
	}
	binary.LittleEndian.PutUint64(dst[entryOffGICHCR:], e.GICv3HCR)
}

// DecodeRecEntry deserialises a RecEntry from src.
func DecodeRecEntry(src []byte) RecEntry {
	var e RecEntry
	for i := range e.GPRs {
		e.GPRs[i] = binary.LittleEndian.Uint64(src[entryOffGPRs+i*8:])
	}
	e.IsEmulatedMMIO = binary.LittleEndian.Uint64(src[entryOffIsEmulatedMMIO:]) != 0
	e.EmulatedReadValue = binary.LittleEndian.Uint64(src[entryOffReadValue:])
	e.DisposeResponse = binary.LittleEndian.Uint64(src[entryOffDisposeResp:])
	for i := range e.GICv3LRs {
		e.GICv3LRs[i] = binary.LittleEndian.Uint64(src[entryOffGICLRs+i*8:])
	}
	e.GICv3HCR = binary.LittleEndian.Uint64(src[entryOffGICHCR:])
	return e
}

const (
	exitOffReason      = 0
	exitOffESR         = exitOffReason + 8
	exitOffFAR         = exitOffESR + 8
	exitOffHPFAR       = exitOffFAR + 8
	exitOffWriteValue  = exitOffHPFAR + 8
	exitOffGPRs        = exitOffWriteValue + 8
	exitOffDisposeBase = exitOffGPRs + 7*8
	exitOffDisposeSize = exitOffDisposeBase + 8
	exitOffVMCR        = exitOffDisposeSize + 8
	exitOffMISR        = exitOffVMCR + 8
	exitOffCNTVCtl     = exitOffMISR + 8
	exitOffCNTVCval    = exitOffCNTVCtl + 8
	exitOffCNTPCtl     = exitOffCNTVCval + 8
	exitOffCNTPCval    = exitOffCNTPCtl + 8
	exitOffGICLRs      = exitOffCNTPCval + 8
	exitOffGICHCR      = exitOffGICLRs + 16*8
	// RecExitSize is the wire size of RecExit.
	RecExitSize = exitOffGICHCR + 8
	// RecRunSize is the wire size of the concatenated rmi_rec_run buffer.
	RecRunSize = RecEntrySize + RecExitSize
)

// EncodeRecExit serialises e into dst.
func EncodeRecExit(dst []byte, e *RecExit) {
	binary.LittleEndian.PutUint64(dst[exitOffReason:], e.Reason)
	binary.LittleEndian.PutUint64(dst[exitOffESR:], e.ESR)
	binary.LittleEndian.PutUint64(dst[exitOffFAR:], e.FAR)
	binary.LittleEndian.PutUint64(dst[exitOffHPFAR:], e.HPFAR)
	binary.LittleEndian.PutUint64(dst[exitOffWriteValue:], e.EmulatedWriteValue)
	for i, v := range e.GPRs {
		binary.LittleEndian.PutUint64(dst[exitOffGPRs+i*8:], v)
	}
	binary.LittleEndian.PutUint64(dst[exitOffDisposeBase:], e.DisposeBase)
	binary.LittleEndian.PutUint64(dst[exitOffDisposeSize:], e.DisposeSize)
	binary.LittleEndian.PutUint64(dst[exitOffVMCR:], e.GICv3VMCR)
	binary.LittleEndian.PutUint64(dst[exitOffMISR:], e.GICv3MISR)
	binary.LittleEndian.PutUint64(dst[exitOffCNTVCtl:], e.CNTVCtl)
	binary.LittleEndian.PutUint64(dst[exitOffCNTVCval:], e.CNTVCval)
	binary.LittleEndian.PutUint64(dst[exitOffCNTPCtl:], e.CNTPCtl)
	binary.LittleEndian.PutUint64(dst[exitOffCNTPCval:], e.CNTPCval)
	for i, v := range e.GICv3LRs {
		binary.LittleEndian.PutUint64(dst[exitOffGICLRs+i*8:], v)
	}
	binary.LittleEndian.PutUint64(dst[exitOffGICHCR:], e.GICv3HCR)
}

// DecodeRecExit deserialises a RecExit from src.
func DecodeRecExit(src []byte) RecExit {
	var e RecExit
	e.Reason = binary.LittleEndian.Uint64(src[exitOffReason:])
	e.ESR = binary.LittleEndian.Uint64(src[exitOffESR:])
	e.FAR = binary.LittleEndian.Uint64(src[exitOffFAR:])
	e.HPFAR = binary.LittleEndian.Uint64(src[exitOffHPFAR:])
	e.EmulatedWriteValue = binary.LittleEndian.Uint64(src[exitOffWriteValue:])
	for i := range e.GPRs {
		e.GPRs[i] = binary.LittleEndian.Uint64(src[exitOffGPRs+i*8:])
	}
	e.DisposeBase = binary.LittleEndian.Uint64(src[exitOffDisposeBase:])
	e.DisposeSize = binary.LittleEndian.Uint64(src[exitOffDisposeSize:])
	e.GICv3VMCR = binary.LittleEndian.Uint64(src[exitOffVMCR:])
	e.GICv3MISR = binary.LittleEndian.Uint64(src[exitOffMISR:])
	e.CNTVCtl = binary.LittleEndian.Uint64(src[exitOffCNTVCtl:])
	e.CNTVCval = binary.LittleEndian.Uint64(src[exitOffCNTVCval:])
	e.CNTPCtl = binary.LittleEndian.Uint64(src[exitOffCNTPCtl:])
	e.CNTPCval = binary.LittleEndian.Uint64(src[exitOffCNTPCval:])
	for i := range e.GICv3LRs {
		e.GICv3LRs[i] = binary.LittleEndian.Uint64(src[exitOffGICLRs+i*8:])
	}
	e.GICv3HCR = binary.LittleEndian.Uint64(src[exitOffGICHCR:])
	return e
}
