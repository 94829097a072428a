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

package safecopy

import (
	"testing"

	"github.com/armcca/rmm/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCopier(t *testing.T) (*Copier, *platform.DRAM) {
	dram, err := platform.NewDRAM(platform.Config{NumGranules: 8, DRAMBase: 0})
	require.NoError(t, err)
	t.Cleanup(func() { dram.Close() })
	return NewCopier(dram, platform.IdentityWindow, 4), dram
}

func TestReadWriteNSRoundTrip(t *testing.T) {
	c, dram := newTestCopier(t)
	page, err := dram.Granule(0x1000)
	require.NoError(t, err)
	copy(page, []byte("hello, realm"))

	dst := make([]byte, 12)
	ok := c.ReadNS(0, dst, 0x1000)
	assert.True(t, ok)
	assert.Equal(t, "hello, realm", string(dst))

	ok = c.WriteNS(0, 0x2000, []byte("written back"))
	assert.True(t, ok)
	page2, _ := dram.Granule(0x2000)
	assert.Equal(t, "written back", string(page2[:12]))
}

func TestReadNSRejectsCrossGranuleCopy(t *testing.T) {
	c, _ := newTestCopier(t)
	dst := make([]byte, 100)
	ok := c.ReadNS(0, dst, 0x1000+4050)
	assert.False(t, ok)
}

func TestReadNSReturnsFalseOnInjectedFault(t *testing.T) {
	c, _ := newTestCopier(t)
	c.Fault = func(addr uint64) bool { return addr == 0x3000 }
	dst := make([]byte, 16)
	ok := c.ReadNS(0, dst, 0x3000)
	assert.False(t, ok)
	// Landing pad must have been disarmed even on a faulted copy, so a
	// second call on the same core succeeds.
	c.Fault = nil
	ok = c.ReadNS(0, dst, 0x3000)
	assert.True(t, ok)
}

func TestCopierIsPerCoreReentrant(t *testing.T) {
	c, dram := newTestCopier(t)
	for core := 0; core < 4; core++ {
		page, _ := dram.Granule(uint64(core) * 0x1000)
		copy(page, []byte{byte(core)})
		dst := make([]byte, 1)
		assert.True(t, c.ReadNS(core, dst, uint64(core)*0x1000))
		assert.Equal(t, byte(core), dst[0])
	}
}
