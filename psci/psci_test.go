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

package psci

import (
	"testing"

	"github.com/armcca/rmm/platform"
	"github.com/armcca/rmm/realm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityRecIndexOf(mpidr uint64) uint64 { return mpidr }

func TestVersionAndFeaturesHandledLocally(t *testing.T) {
	oracle := platform.NewFakeOracle()
	s := NewShim(oracle, identityRecIndexOf)
	caller := &realm.REC{}

	action := s.Handle(0x3000, caller, &realm.RD{}, FidVersion, 0, 0, 0, 0)
	assert.Equal(t, ActionLoop, action)
	assert.Equal(t, uint64(oracle.PSCIVersion()), caller.GPRs[0])

	action = s.Handle(0x3000, caller, &realm.RD{}, FidFeatures, FidVersion, 0, 0, 0)
	assert.Equal(t, ActionLoop, action)
	assert.Equal(t, uint64(int64(oracle.PSCIFeatures(FidVersion))), caller.GPRs[0])
}

func TestCPUOnValidatesThenExitsToHost(t *testing.T) {
	oracle := platform.NewFakeOracle()
	s := NewShim(oracle, identityRecIndexOf)
	rd := &realm.RD{ParBase: 0, ParSize: 0x40000000, RecIndex: 2}
	caller := &realm.REC{}

	action := s.Handle(0x3000, caller, rd, FidCPUOn, 1, 0x10000000, 0x55, 0)
	assert.Equal(t, ActionExitHost, action)
	assert.True(t, caller.PSCIPending)
	assert.Equal(t, 1, s.PendingCount())
}

func TestCPUOnRejectsOutOfOrderTarget(t *testing.T) {
	oracle := platform.NewFakeOracle()
	s := NewShim(oracle, identityRecIndexOf)
	rd := &realm.RD{ParBase: 0, ParSize: 0x40000000, RecIndex: 1}
	caller := &realm.REC{}

	action := s.Handle(0x3000, caller, rd, FidCPUOn, 1, 0x10000000, 0x55, 0)
	assert.Equal(t, ActionLoop, action)
	assert.Equal(t, uint64(int64(InvalidParams)), caller.GPRs[0])
	assert.False(t, caller.PSCIPending)
}

func TestCPUOnRejectsEntryOutsidePAR(t *testing.T) {
	oracle := platform.NewFakeOracle()
	s := NewShim(oracle, identityRecIndexOf)
	rd := &realm.RD{ParBase: 0, ParSize: 0x1000, RecIndex: 2}
	caller := &realm.REC{}

	action := s.Handle(0x3000, caller, rd, FidCPUOn, 1, 0x10000000, 0x55, 0)
	assert.Equal(t, ActionLoop, action)
	assert.Equal(t, uint64(int64(InvalidAddress)), caller.GPRs[0])
}

func TestPSCICompletePrimesTargetForCPUOn(t *testing.T) {
	oracle := platform.NewFakeOracle()
	s := NewShim(oracle, identityRecIndexOf)
	rd := &realm.RD{ParBase: 0, ParSize: 0x40000000, RecIndex: 2}
	caller := &realm.REC{}
	target := &realm.REC{}

	action := s.Handle(0x3000, caller, rd, FidCPUOn, 1, 0x10000000, 0x55, 0)
	require.Equal(t, ActionExitHost, action)

	code := s.Complete(0x3000, caller, 0x4000, target)
	assert.Equal(t, uint64(Success), caller.GPRs[0])
	require.Zero(t, code)
	assert.True(t, target.Runnable)
	assert.Equal(t, uint64(0x10000000), target.PC)
	assert.Equal(t, uint64(0x55), target.GPRs[0])
	assert.False(t, caller.PSCIPending)
	assert.Equal(t, 0, s.PendingCount())
}

func TestAffinityInfoSetsPending(t *testing.T) {
	oracle := platform.NewFakeOracle()
	s := NewShim(oracle, identityRecIndexOf)
	rd := &realm.RD{}
	caller := &realm.REC{}

	action := s.Handle(0x3000, caller, rd, FidAffinityInfo, 1, 0, 0, 0)
	assert.Equal(t, ActionExitHost, action)
	assert.True(t, caller.PSCIPending)
	assert.Equal(t, 1, s.PendingCount())
}

func TestCPUOffClearsRunnableWithoutPending(t *testing.T) {
	oracle := platform.NewFakeOracle()
	s := NewShim(oracle, identityRecIndexOf)
	rd := &realm.RD{}
	caller := &realm.REC{Runnable: true}

	action := s.Handle(0x3000, caller, rd, FidCPUOff, 0, 0, 0, 0)
	assert.Equal(t, ActionExitHost, action)
	assert.False(t, caller.Runnable)
	assert.False(t, caller.PSCIPending)
	assert.Equal(t, 0, s.PendingCount())
}

func TestCPUSuspendAndSystemResetExitWithoutPending(t *testing.T) {
	oracle := platform.NewFakeOracle()
	s := NewShim(oracle, identityRecIndexOf)
	caller := &realm.REC{}

	rd := &realm.RD{}
	action := s.Handle(0x3000, caller, rd, FidCPUSuspend, 0, 0, 0, 0)
	assert.Equal(t, ActionExitHost, action)
	assert.False(t, caller.PSCIPending)

	rd2 := &realm.RD{State: realm.Active}
	action = s.Handle(0x3000, caller, rd2, FidSystemReset, 0, 0, 0, 0)
	assert.Equal(t, ActionExitHost, action)
	assert.False(t, caller.PSCIPending)
	assert.Equal(t, realm.SystemOff, rd2.State)
}

func TestSystemOffFlipsRealmState(t *testing.T) {
	oracle := platform.NewFakeOracle()
	s := NewShim(oracle, identityRecIndexOf)
	rd := &realm.RD{State: realm.Active}
	caller := &realm.REC{}

	action := s.Handle(0x3000, caller, rd, FidSystemOff, 0, 0, 0, 0)
	assert.Equal(t, ActionExitHost, action)
	assert.Equal(t, realm.SystemOff, rd.State)
}
