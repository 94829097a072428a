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

// Package realm implements the Realm/REC object store (spec.md §4.4,
// C4): typed accessors projected directly onto delegated granule
// memory, no dynamic allocator.
package realm

import "encoding/binary"

// State is the realm's own lifecycle, distinct from any granule state
// (spec.md §3.2).
type State uint8

const (
	New State = iota
	Active
	SystemOff
)

func (s State) String() string {
	switch s {
	case New:
		return "NEW"
	case Active:
		return "ACTIVE"
	case SystemOff:
		return "SYSTEM_OFF"
	default:
		return "INVALID"
	}
}

// RD is the Realm Descriptor (spec.md §3.2), held in a single granule
// in state RD.
type RD struct {
	ParBase       uint64
	ParSize       uint64
	IPAWidth      uint8
	RTTBase       uint64
	RTTNumStart   uint32
	RTTLevelStart int8
	VMID          uint8
	RecIndex        uint64
	RecCount        uint32
	State           State
	MeasurementAlgo uint64
}

// Layout within the RD granule; everything fits comfortably inside one
// 4KiB page with room to spare for the (out of scope) measurement and
// attestation fields the original carries.
const (
	offParBase       = 0
	offParSize       = 8
	offIPAWidth      = 16
	offRTTBase       = 17
	offRTTNumStart   = 25
	offRTTLevelStart = 29
	offVMID          = 30
	offRecIndex      = 31
	offRecCount      = 39
	offState         = 43
	offMeasurementAlgo = 44
	rdEncodedSize    = 52
)

// EncodeRD serialises rd into dst (a 4KiB granule slice).
func EncodeRD(dst []byte, rd *RD) {
	binary.LittleEndian.PutUint64(dst[offParBase:], rd.ParBase)
	binary.LittleEndian.PutUint64(dst[offParSize:], rd.ParSize)
	dst[offIPAWidth] = rd.IPAWidth
	binary.LittleEndian.PutUint64(dst[offRTTBase:], rd.RTTBase)
	binary.LittleEndian.PutUint32(dst[offRTTNumStart:], rd.RTTNumStart)
	dst[offRTTLevelStart] = byte(rd.RTTLevelStart)
	dst[offVMID] = rd.VMID
	binary.LittleEndian.PutUint64(dst[offRecIndex:], rd.RecIndex)
	binary.LittleEndian.PutUint32(dst[offRecCount:], rd.RecCount)
	dst[offState] = byte(rd.State)
	binary.LittleEndian.PutUint64(dst[offMeasurementAlgo:], rd.MeasurementAlgo)
}

// DecodeRD deserialises an RD from src (a 4KiB granule slice).
func DecodeRD(src []byte) *RD {
	return &RD{
		ParBase:       binary.LittleEndian.Uint64(src[offParBase:]),
		ParSize:       binary.LittleEndian.Uint64(src[offParSize:]),
		IPAWidth:      src[offIPAWidth],
		RTTBase:       binary.LittleEndian.Uint64(src[offRTTBase:]),
		RTTNumStart:   binary.LittleEndian.Uint32(src[offRTTNumStart:]),
		RTTLevelStart: int8(src[offRTTLevelStart]),
		VMID:          src[offVMID],
		RecIndex:      binary.LittleEndian.Uint64(src[offRecIndex:]),
		RecCount:      binary.LittleEndian.Uint32(src[offRecCount:]),
		State:         State(src[offState]),
		MeasurementAlgo: binary.LittleEndian.Uint64(src[offMeasurementAlgo:]),
	}
}

// InPAR reports whether the IPA range [ipa, ipa+size) lies entirely
// within the realm's Protected Address Range.
func (rd *RD) InPAR(ipa, size uint64) bool {
	return ipa >= rd.ParBase && ipa+size <= rd.ParBase+rd.ParSize && ipa+size > ipa
}
