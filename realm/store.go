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

import (
	"github.com/armcca/rmm/common"
	"github.com/armcca/rmm/granule"
)

// GranuleMemory is the slice of platform.DRAM's API the object store
// needs to read and write granule contents.
type GranuleMemory interface {
	Granule(addr uint64) ([]byte, error)
}

// Store is the Realm/REC object store (spec.md §4.4). It never
// allocates: every RD/REC lives in a granule the caller already holds
// delegated, and AsRD/AsREC are the "typed view obtained through an
// accessor that checks state before yielding a reference" the redesign
// notes call for (spec.md §9) — the returned value is only meaningful
// while the monitor lock that validated it is still held.
type Store struct {
	mem    GranuleMemory
	ledger *granule.Ledger
}

func NewStore(mem GranuleMemory, ledger *granule.Ledger) *Store {
	return &Store{mem: mem, ledger: ledger}
}

// AsRD projects the granule at addr as an RD, requiring it to already
// be in granule state RD.
func (s *Store) AsRD(addr uint64) (*RD, common.ErrCode) {
	if !s.ledger.Assert(addr, granule.RD) {
		return nil, common.Input
	}
	g, err := s.mem.Granule(addr)
	if err != nil {
		return nil, common.Input
	}
	return DecodeRD(g), common.Success
}

// PutRD writes rd back into its granule. It does not touch the ledger;
// ledger transitions are the caller's responsibility.
func (s *Store) PutRD(addr uint64, rd *RD) common.ErrCode {
	g, err := s.mem.Granule(addr)
	if err != nil {
		return common.Input
	}
	EncodeRD(g, rd)
	return common.Success
}

// AsREC projects the granule at addr as a REC, requiring it to already
// be in granule state REC.
func (s *Store) AsREC(addr uint64) (*REC, common.ErrCode) {
	if !s.ledger.Assert(addr, granule.Rec) {
		return nil, common.Input
	}
	g, err := s.mem.Granule(addr)
	if err != nil {
		return nil, common.Input
	}
	return DecodeREC(g), common.Success
}

// PutREC writes rec back into its granule.
func (s *Store) PutREC(addr uint64, rec *REC) common.ErrCode {
	g, err := s.mem.Granule(addr)
	if err != nil {
		return common.Input
	}
	EncodeREC(g, rec)
	return common.Success
}
