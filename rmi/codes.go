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

// Package rmi is the Realm Management Interface dispatcher (spec.md
// §4.5, C5): decode function id and arguments, route to a registered
// handler, marshal the result back into the standard reply shape. It
// carries no domain knowledge of realms, granules or RTTs; it is the
// seam the monitor package plugs its handlers into.
package rmi

// Fid enumerates the RMI function ids (spec.md §6.1). The low 12 bits
// of a real SMC function id; this monitor treats the whole id as the
// routing key.
type Fid uint32

const (
	FidVersion               Fid = 0x150
	FidGranuleDelegate       Fid = 0x151
	FidGranuleUndelegate     Fid = 0x152
	FidDataCreate            Fid = 0x153
	FidDataCreateUnknown     Fid = 0x154
	FidDataDestroy           Fid = 0x155
	FidDataDispose           Fid = 0x156
	FidRealmActivate         Fid = 0x157
	FidRealmCreate           Fid = 0x158
	FidRealmDestroy          Fid = 0x159
	FidRecCreate             Fid = 0x15A
	FidRecDestroy            Fid = 0x15B
	FidRecEnter              Fid = 0x15C
	FidRTTCreate             Fid = 0x15D
	FidRTTDestroy            Fid = 0x15E
	FidRTTMapUnprotected     Fid = 0x15F
	FidRTTMapProtected       Fid = 0x160
	FidRTTReadEntry          Fid = 0x161
	FidRTTUnmapUnprotected   Fid = 0x162
	FidRTTUnmapProtected     Fid = 0x163
	FidPSCIComplete          Fid = 0x164
	FidFeatures              Fid = 0x165
	FidDataCreateLevel       Fid = 0x168
	FidDataCreateUnknownLvl  Fid = 0x169
	FidDataDestroyLevel      Fid = 0x16A
)

// RMIVersionMajor/Minor are packed into VERSION's reply as
// (major<<16)|minor, per the original implementation's encoding
// (SPEC_FULL.md's supplemented "RMI_VERSION reply encoding").
const (
	RMIVersionMajor = 1
	RMIVersionMinor = 0
)

// PackedVersion returns the (major<<16)|minor word VERSION replies with.
func PackedVersion() uint64 {
	return uint64(RMIVersionMajor)<<16 | uint64(RMIVersionMinor)
}
