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

// Package platform holds the bring-up collaborators spec.md §1 names as
// out of scope: DRAM backing, the lower-monitor SMC oracle, the
// NS-window abstraction and vGIC/sysreg save-restore. None of this
// decides Realm state; it only gives the rest of the monitor something
// to call.
package platform

import (
	"io/ioutil"

	"github.com/naoina/toml"
)

// Config is the platform's fixed geometry, loaded once at monitor
// start-up. No dynamic discovery of physical memory layout (explicit
// non-goal, spec.md §1).
type Config struct {
	// NumGranules is N, the number of delegable 4KiB granules.
	NumGranules uint64 `toml:"num_granules"`
	// DRAMBase is the first physical address of the delegable range.
	DRAMBase uint64 `toml:"dram_base"`
	// PAWidth is the platform's physical address width in bits,
	// bounding rmi_realm_params.ipa_width.
	PAWidth uint `toml:"pa_width"`
	// CoreCount is the number of CPU cores the simulation harness
	// models (platform.Cores).
	CoreCount int `toml:"core_count"`
}

// DefaultConfig is a small, fast-to-boot configuration suitable for
// tests: 4096 granules (16MiB of delegable DRAM), 4 cores, 40-bit PA.
func DefaultConfig() Config {
	return Config{
		NumGranules: 4096,
		DRAMBase:    0,
		PAWidth:     40,
		CoreCount:   4,
	}
}

// LoadConfig reads a TOML platform description from path.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
