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

package monitor

import (
	"github.com/armcca/rmm/common"
	"github.com/armcca/rmm/granule"
)

// GranuleDelegate implements GRANULE_DELEGATE(addr) (spec.md §4.6):
// requires UNDELEGATED, calls the lower monitor's DELEGATE SMC, zeroes
// and promotes the granule on success.
func (m *Monitor) GranuleDelegate(addr uint64) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ledger.Assert(addr, granule.Undelegated) {
		return common.Input
	}
	if err := m.oracle.Delegate(addr); err != nil {
		return common.Memory
	}
	if err := m.dram.Zero(addr); err != nil {
		return common.Input
	}
	m.ledger.Set(addr, granule.Delegated)
	return common.Success
}

// GranuleUndelegate implements GRANULE_UNDELEGATE(addr) (spec.md §4.6):
// requires DELEGATED, zeroes before calling UNDELEGATE, demotes on
// success. The zero-before-transition ordering is the Open Question
// SPEC_FULL.md resolves by carrying the original's behaviour forward
// unmodified: a failing SMC here leaves the ledger at DELEGATED even
// though the granule's prior realm contents are already gone.
func (m *Monitor) GranuleUndelegate(addr uint64) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ledger.Assert(addr, granule.Delegated) {
		return common.Input
	}
	if err := m.dram.Zero(addr); err != nil {
		return common.Input
	}
	if err := m.oracle.Undelegate(addr); err != nil {
		return common.Memory
	}
	m.ledger.Set(addr, granule.Undelegated)
	return common.Success
}
