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

// Package granule implements the global granule ledger (spec.md §4.1,
// C1): a compact map from physical address to the security state of
// the 4KiB page at that address.
package granule

// State is one of the seven closed granule states (spec.md §3.1). No
// stored code may be 0xF: the ledger packs two 4-bit codes per byte and
// that value is reserved so a torn/uninitialised byte is never
// confusable with a real state.
type State uint8

const (
	Undelegated State = iota
	Delegated
	Data
	RD
	Rec
	RecAux
	RTT
)

func (s State) String() string {
	switch s {
	case Undelegated:
		return "UNDELEGATED"
	case Delegated:
		return "DELEGATED"
	case Data:
		return "DATA"
	case RD:
		return "RD"
	case Rec:
		return "REC"
	case RecAux:
		return "REC_AUX"
	case RTT:
		return "RTT"
	default:
		return "INVALID"
	}
}

// Valid reports whether s is one of the seven declared states.
func (s State) Valid() bool {
	return s <= RTT
}
