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

// Package measure maintains a realm's running content digest.
//
// This is NOT the attestation token or the realm attestation key
// (spec.md §1, explicitly stubbed and out of scope): it is the
// simpler, non-attested measurement extension identified in
// SPEC_FULL.md, folding REALM_CREATE's parameters and each
// DATA_CREATE payload into one running BLAKE2b-256 digest so the
// monitor has something to show back to the host for introspection.
package measure

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Digest is a realm's running measurement. The zero value is the
// measurement of a realm that has had nothing folded into it yet.
type Digest struct {
	running [32]byte
}

// Extend folds algo and data into the running digest: digest' =
// BLAKE2b-256(digest || algo || data). algo mirrors
// rmi_realm_params.measurement_algo from spec.md §6.2; it is not
// interpreted, only mixed in, since algorithm selection is part of the
// out-of-scope attestation story.
func (d *Digest) Extend(algo uint64, data []byte) {
	var algoBuf [8]byte
	binary.LittleEndian.PutUint64(algoBuf[:], algo)
	h, _ := blake2b.New256(nil)
	h.Write(d.running[:])
	h.Write(algoBuf[:])
	h.Write(data)
	sum := h.Sum(nil)
	copy(d.running[:], sum)
}

// Value returns the current digest bytes.
func (d *Digest) Value() [32]byte { return d.running }
