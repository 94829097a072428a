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
	"github.com/armcca/rmm/rmi"
)

// audited wraps a handler so every dispatch, success or failure, lands
// one record in the audit log (spec.md §6.3's reply shape, extended
// per SPEC_FULL.md's audit-log supplement).
func (m *Monitor) audited(fid rmi.Fid, fn rmi.Handler) rmi.Handler {
	return func(a rmi.Args) (common.ErrCode, [4]uint64) {
		code, out := fn(a)
		m.recordAudit(uint32(fid), a, uint8(code))
		return code, out
	}
}

// NewDispatcher builds an rmi.Dispatcher with every RMI fid (spec.md
// §6.1) routed to this Monitor's handlers. core is fixed at 0 for the
// calls that need one (no multi-core host simulation sits in front of
// this dispatcher yet; cmd/rmm-console and tests call the Monitor
// methods directly when they need a specific core).
func (m *Monitor) NewDispatcher() *rmi.Dispatcher {
	const core = 0
	d := rmi.NewDispatcher()
	reg := func(fid rmi.Fid, argc int, fn rmi.Handler) {
		d.Register(fid, argc, m.audited(fid, fn))
	}

	reg(rmi.FidVersion, 0, func(rmi.Args) (common.ErrCode, [4]uint64) {
		return common.Success, [4]uint64{rmi.PackedVersion()}
	})
	reg(rmi.FidFeatures, 1, func(rmi.Args) (common.ErrCode, [4]uint64) {
		return common.NotSupported, [4]uint64{}
	})

	reg(rmi.FidGranuleDelegate, 1, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.GranuleDelegate(a[0]), [4]uint64{}
	})
	reg(rmi.FidGranuleUndelegate, 1, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.GranuleUndelegate(a[0]), [4]uint64{}
	})

	reg(rmi.FidRealmCreate, 2, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.RealmCreate(core, a[0], a[1]), [4]uint64{}
	})
	reg(rmi.FidRealmActivate, 1, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.RealmActivate(a[0]), [4]uint64{}
	})
	reg(rmi.FidRealmDestroy, 1, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.RealmDestroy(a[0]), [4]uint64{}
	})

	reg(rmi.FidRecCreate, 4, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.RecCreate(core, a[0], a[1], a[2], a[3]), [4]uint64{}
	})
	reg(rmi.FidRecDestroy, 1, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.RecDestroy(a[0]), [4]uint64{}
	})
	reg(rmi.FidRecEnter, 2, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.RecEnter(core, a[0], a[1]), [4]uint64{}
	})

	reg(rmi.FidDataCreate, 4, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.DataCreate(core, a[0], a[1], a[2], a[3], 3), [4]uint64{}
	})
	reg(rmi.FidDataCreateLevel, 5, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.DataCreate(core, a[0], a[1], a[2], a[3], int(a[4])), [4]uint64{}
	})
	reg(rmi.FidDataCreateUnknown, 3, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.DataCreateUnknown(a[0], a[1], a[2], 3), [4]uint64{}
	})
	reg(rmi.FidDataCreateUnknownLvl, 4, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.DataCreateUnknown(a[0], a[1], a[2], int(a[3])), [4]uint64{}
	})
	reg(rmi.FidDataDestroy, 2, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.DataDestroy(a[0], a[1], 3), [4]uint64{}
	})
	reg(rmi.FidDataDestroyLevel, 3, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.DataDestroy(a[0], a[1], int(a[2])), [4]uint64{}
	})
	reg(rmi.FidDataDispose, 4, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.DataDispose(a[0], a[1], a[2], int(a[3])), [4]uint64{}
	})

	reg(rmi.FidRTTCreate, 4, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.RTTCreate(a[0], a[1], a[2], int(a[3])), [4]uint64{}
	})
	reg(rmi.FidRTTDestroy, 4, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.RTTDestroy(a[0], a[1], a[2], int(a[3])), [4]uint64{}
	})
	reg(rmi.FidRTTMapProtected, 3, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.RTTMapProtected(a[0], a[1], int(a[2])), [4]uint64{}
	})
	reg(rmi.FidRTTUnmapProtected, 3, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.RTTUnmapProtected(a[0], a[1], int(a[2])), [4]uint64{}
	})
	reg(rmi.FidRTTMapUnprotected, 5, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.RTTMapUnprotected(a[0], a[1], int(a[2]), a[3], uint8(a[4])), [4]uint64{}
	})
	reg(rmi.FidRTTUnmapUnprotected, 4, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.RTTUnmapUnprotected(a[0], a[1], int(a[2]), a[3]), [4]uint64{}
	})
	reg(rmi.FidRTTReadEntry, 3, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		view, code := m.RTTReadEntry(a[0], a[1], int(a[2]))
		if code != common.Success {
			return code, [4]uint64{}
		}
		return code, [4]uint64{uint64(view.Level), uint64(view.State), view.OA, uint64(view.Attrs)}
	})

	reg(rmi.FidPSCIComplete, 2, func(a rmi.Args) (common.ErrCode, [4]uint64) {
		return m.PSCIComplete(a[0], a[1]), [4]uint64{}
	})

	return d
}
