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

// Package wire defines the host-supplied buffer layouts of spec.md §6.2:
// rmi_realm_params, rmi_rec_params and rmi_rec_run. These are the only
// structures the monitor ever reads from or writes to host Non-secure
// memory, always through safecopy, never mapped directly.
package wire

import "encoding/binary"

// RealmParams is rmi_realm_params (spec.md §6.2): the host's REALM_CREATE
// configuration, 8-byte-aligned fields, read once via the safe-copy
// primitive (a single granule, so it always fits the 4KiB-per-call cap).
type RealmParams struct {
	ParBase         uint64
	ParSize         uint64
	RTTBase         uint64
	MeasurementAlgo uint64
	Features0       uint64
	RTTLevelStart   int64
	RTTNumStart     uint32
	VMID            uint32
}

const (
	rpOffParBase         = 0
	rpOffParSize         = 8
	rpOffRTTBase         = 16
	rpOffMeasurementAlgo = 24
	rpOffFeatures0       = 32
	rpOffRTTLevelStart   = 40
	rpOffRTTNumStart     = 48
	rpOffVMID            = 52
	// RealmParamsSize is the wire size of RealmParams; callers size
	// their safecopy buffer to exactly this many bytes.
	RealmParamsSize = 56
)

// EncodeRealmParams serialises p into dst, used by tests and the
// console to build a host-side params buffer.
func EncodeRealmParams(dst []byte, p *RealmParams) {
	binary.LittleEndian.PutUint64(dst[rpOffParBase:], p.ParBase)
	binary.LittleEndian.PutUint64(dst[rpOffParSize:], p.ParSize)
	binary.LittleEndian.PutUint64(dst[rpOffRTTBase:], p.RTTBase)
	binary.LittleEndian.PutUint64(dst[rpOffMeasurementAlgo:], p.MeasurementAlgo)
	binary.LittleEndian.PutUint64(dst[rpOffFeatures0:], p.Features0)
	binary.LittleEndian.PutUint64(dst[rpOffRTTLevelStart:], uint64(p.RTTLevelStart))
	binary.LittleEndian.PutUint32(dst[rpOffRTTNumStart:], p.RTTNumStart)
	binary.LittleEndian.PutUint32(dst[rpOffVMID:], p.VMID)
}

// DecodeRealmParams deserialises a RealmParams from src.
func DecodeRealmParams(src []byte) RealmParams {
	return RealmParams{
		ParBase:         binary.LittleEndian.Uint64(src[rpOffParBase:]),
		ParSize:         binary.LittleEndian.Uint64(src[rpOffParSize:]),
		RTTBase:         binary.LittleEndian.Uint64(src[rpOffRTTBase:]),
		MeasurementAlgo: binary.LittleEndian.Uint64(src[rpOffMeasurementAlgo:]),
		Features0:       binary.LittleEndian.Uint64(src[rpOffFeatures0:]),
		RTTLevelStart:   int64(binary.LittleEndian.Uint64(src[rpOffRTTLevelStart:])),
		RTTNumStart:     binary.LittleEndian.Uint32(src[rpOffRTTNumStart:]),
		VMID:            binary.LittleEndian.Uint32(src[rpOffVMID:]),
	}
}
