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

import "github.com/armcca/rmm/common"

// FeatureLPA2 is the one rmi_realm_params.features_0 bit REALM_CREATE
// rejects outright (spec.md §4.6: "validate features (no LPA2...)"),
// bit 8 per original_source's rmm_is_feature_valid.
const FeatureLPA2 = 1 << 8

// ValidateGeometry checks REALM_CREATE's RTT root geometry (spec.md
// §4.6). It resolves the Open Question spec.md §9 leaves open ("the
// source validates rtt_num_start only when ipa_width > root_bits;
// whether a single-root configuration must also assert rtt_num_start
// == 1 is not obvious") by following the original implementation
// literally, per SPEC_FULL.md: the multi-root formula is only checked
// once ipa_width exceeds what one root table covers, and the
// single-root case is asserted unconditionally — belt-and-braces,
// since the formula also yields 1 there.
func ValidateGeometry(ipaWidth uint8, rttLevelStart int8, rttNumStart uint32, features0 uint64) bool {
	if features0&FeatureLPA2 != 0 {
		return false
	}
	if rttLevelStart < 0 || rttLevelStart > 3 {
		return false
	}
	rootWidth := common.LevelWidth(int(rttLevelStart))
	if uint(ipaWidth)+9 < rootWidth {
		// Tree is taller than ipaWidth needs: supplemented from
		// original_source's rmm_is_rtt_params_valid (not named in
		// spec.md, but not excluded by its Non-goals either).
		return false
	}
	if uint(ipaWidth) > rootWidth {
		required := uint64(1) << (uint(ipaWidth) - rootWidth)
		if uint64(rttNumStart) != required {
			return false
		}
	}
	if rttNumStart != 1 && uint(ipaWidth) <= rootWidth {
		return false
	}
	return true
}
