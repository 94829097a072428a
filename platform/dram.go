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

package platform

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/armcca/rmm/common"
	"github.com/edsrzf/mmap-go"
)

// DRAM is the backing store for every delegable granule, real and
// simulated host-NS memory alike: a single flat byte range, memory
// mapped from a scratch file so that address arithmetic on it behaves
// like address arithmetic on physical DRAM would.
type DRAM struct {
	cfg  Config
	file *os.File
	mem  mmap.MMap
}

// NewDRAM maps cfg.NumGranules*4KiB bytes of scratch memory.
func NewDRAM(cfg Config) (*DRAM, error) {
	size := int64(cfg.NumGranules) * common.GranuleSize
	f, err := ioutil.TempFile("", "rmm-dram-*.img")
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	return &DRAM{cfg: cfg, file: f, mem: m}, nil
}

// Close unmaps and removes the scratch file.
func (d *DRAM) Close() error {
	name := d.file.Name()
	err := d.mem.Unmap()
	d.file.Close()
	os.Remove(name)
	return err
}

func (d *DRAM) offset(addr uint64) (uint64, error) {
	if addr < d.cfg.DRAMBase {
		return 0, common.ErrReservedAddress
	}
	off := addr - d.cfg.DRAMBase
	if off >= d.cfg.NumGranules*common.GranuleSize {
		return 0, common.ErrReservedAddress
	}
	return off, nil
}

// Granule returns a slice view of exactly the 4KiB granule at addr. The
// slice aliases the mapped memory: writes through it are writes to
// "physical" memory.
func (d *DRAM) Granule(addr uint64) ([]byte, error) {
	if !common.IsGranuleAligned(addr) {
		return nil, common.ErrNotAligned
	}
	off, err := d.offset(addr)
	if err != nil {
		return nil, err
	}
	return d.mem[off : off+common.GranuleSize], nil
}

// Zero scrubs the granule at addr, as every DELEGATE and UNDELEGATE
// transition requires.
func (d *DRAM) Zero(addr uint64) error {
	g, err := d.offset(addr)
	if err != nil {
		return err
	}
	if !common.IsGranuleAligned(addr) {
		return common.ErrNotAligned
	}
	for i := g; i < g+common.GranuleSize; i++ {
		d.mem[i] = 0
	}
	return nil
}

// CleanDataCache performs the architectural data-cache clean spec.md
// §4.6 requires after populating a DATA granule, so the realm's first
// stage-1-enabled access sees what was just copied in rather than stale
// cache state. The simulation harness's DRAM is a flat mmap with no
// cache model behind it, so this is a documented no-op, the same role
// platform.NoopVCPUState plays for the GIC/sysreg save-restore seam.
func (d *DRAM) CleanDataCache(addr uint64) {}

// Contains reports whether addr names a granule-aligned address inside
// the mapped range, regardless of ledger state.
func (d *DRAM) Contains(addr uint64) bool {
	_, err := d.offset(addr)
	return err == nil && common.IsGranuleAligned(addr)
}

func (d *DRAM) String() string {
	return fmt.Sprintf("DRAM{base=%#x granules=%d}", d.cfg.DRAMBase, d.cfg.NumGranules)
}
