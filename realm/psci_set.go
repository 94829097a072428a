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
	mapset "github.com/deckarep/golang-set"
)

// PendingSet tracks which REC addresses currently have psci_pending set
// (spec.md §4.8), mirroring the authoritative per-REC boolean so the
// monitor and its tests can answer "any RECs still waiting on a
// PSCI_COMPLETE" in O(1) without scanning every live REC.
type PendingSet struct {
	set mapset.Set
}

func NewPendingSet() *PendingSet {
	return &PendingSet{set: mapset.NewThreadUnsafeSet()}
}

func (p *PendingSet) Add(recAddr uint64)      { p.set.Add(recAddr) }
func (p *PendingSet) Remove(recAddr uint64)   { p.set.Remove(recAddr) }
func (p *PendingSet) Contains(recAddr uint64) bool { return p.set.Contains(recAddr) }
func (p *PendingSet) Len() int                { return p.set.Cardinality() }
