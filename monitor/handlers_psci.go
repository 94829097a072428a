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

import "github.com/armcca/rmm/common"

// PSCIComplete implements PSCI_COMPLETE(calling_rec, target_rec)
// (spec.md §4.8): transfers the pending result to the caller and, for
// a completed CPU_ON, primes the target REC to run.
func (m *Monitor) PSCIComplete(callerAddr, targetAddr uint64) common.ErrCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	caller, code := m.store.AsREC(callerAddr)
	if code != common.Success {
		return common.Input
	}
	target, code := m.store.AsREC(targetAddr)
	if code != common.Success {
		return common.Input
	}

	if code := m.psci.Complete(callerAddr, caller, targetAddr, target); code != common.Success {
		return code
	}
	if err := m.store.PutREC(callerAddr, caller); err != common.Success {
		return err
	}
	return m.store.PutREC(targetAddr, target)
}
