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

package rmi

import (
	"testing"

	"github.com/armcca/rmm/common"
	"github.com/stretchr/testify/assert"
)

func TestDispatchRoutesRegisteredHandler(t *testing.T) {
	d := NewDispatcher()
	d.Register(FidVersion, 0, func(args Args) (common.ErrCode, [4]uint64) {
		return common.Success, [4]uint64{PackedVersion()}
	})
	r := d.Dispatch(FidVersion, Args{})
	assert.Equal(t, uint32(ReqComplete), r.Header)
	assert.Equal(t, common.Success, r.Err)
	assert.Equal(t, PackedVersion(), r.Out[0])
}

func TestDispatchUnknownFidReturnsSentinel(t *testing.T) {
	d := NewDispatcher()
	r := d.Dispatch(Fid(0xDEAD), Args{})
	assert.Equal(t, uint32(SMCUnknown), r.Header)
	assert.Equal(t, common.NotSupported, r.Err)
}

func TestRegisterPanicsOnDuplicateFid(t *testing.T) {
	d := NewDispatcher()
	d.Register(FidVersion, 0, func(Args) (common.ErrCode, [4]uint64) { return common.Success, [4]uint64{} })
	assert.Panics(t, func() {
		d.Register(FidVersion, 0, func(Args) (common.ErrCode, [4]uint64) { return common.Success, [4]uint64{} })
	})
}
