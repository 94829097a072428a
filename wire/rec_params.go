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

// RecParams is rmi_rec_params (spec.md §6.2): REC_CREATE's initial
// register and auxiliary-data payload.
type RecParams struct {
	GPRs  [8]uint64
	PC    uint64
	Flags uint64
	Aux   [16]uint64
}

// FlagRunnable is bit 0 of RecParams.Flags (spec.md §6.2: "flags (bit0 = runnable)").
const FlagRunnable = 1 << 0

const (
	rpParamsOffGPRs  = 0
	rpParamsOffPC    = 8 * 8
	rpParamsOffFlags = rpParamsOffPC + 8
	rpParamsOffAux   = rpParamsOffFlags + 8
	// RecParamsSize is the wire size of RecParams.
	RecParamsSize = rpParamsOffAux + 16*8
)

// EncodeRecParams serialises p into dst.
func EncodeRecParams(dst []byte, p *RecParams) {
	for i, v := range p.GPRs {
		binary.LittleEndian.PutUint64(dst[rpParamsOffGPRs+i*8:], v)
	}
	binary.LittleEndian.PutUint64(dst[rpParamsOffPC:], p.PC)
	binary.LittleEndian.PutUint64(dst[rpParamsOffFlags:], p.Flags)
	for i, v := range p.Aux {
		binary.LittleEndian.PutUint64(dst[rpParamsOffAux+i*8:], v)
	}
}

// DecodeRecParams deserialises a RecParams from src.
func DecodeRecParams(src []byte) RecParams {
	var p RecParams
	for i := range p.GPRs {
		p.GPRs[i] = binary.LittleEndian.Uint64(src[rpParamsOffGPRs+i*8:])
	}
	p.PC = binary.LittleEndian.Uint64(src[rpParamsOffPC:])
	p.Flags = binary.LittleEndian.Uint64(src[rpParamsOffFlags:])
	for i := range p.Aux {
		p.Aux[i] = binary.LittleEndian.Uint64(src[rpParamsOffAux+i*8:])
	}
	return p
}
