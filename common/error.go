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

package common

import (
	"errors"
	"fmt"

	"github.com/go-stack/stack"
)

// ErrCode is the stable numeric error enum the host observes in every
// RMI reply. Values and ordering are part of the wire contract and must
// never be renumbered.
type ErrCode uint8

const (
	Success ErrCode = iota
	Input
	Memory
	Alias
	InUse
	RealmState
	Owner
	Rec
	RTTWalk
	RTTEntry
	NotSupported
	Internal
)

func (c ErrCode) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case Input:
		return "INPUT"
	case Memory:
		return "MEMORY"
	case Alias:
		return "ALIAS"
	case InUse:
		return "IN_USE"
	case RealmState:
		return "REALM_STATE"
	case Owner:
		return "OWNER"
	case Rec:
		return "REC"
	case RTTWalk:
		return "RTT_WALK"
	case RTTEntry:
		return "RTT_ENTRY"
	case NotSupported:
		return "NOT_SUPPORTED"
	case Internal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrReservedAddress is returned if a caller names a physical address
	// outside the platform's delegable granule range.
	ErrReservedAddress = errors.New("address outside delegable granule range")

	// ErrIndexOutOfBounds is returned if an index derived from an address
	// falls outside the backing table.
	ErrIndexOutOfBounds = errors.New("index out of bounds")

	// ErrNotAligned is returned when an address fails the 4KiB (or level)
	// alignment a given operation requires.
	ErrNotAligned = errors.New("address not aligned")
)

// Fault wraps an internal invariant violation with the call stack at the
// point it was raised, so a Crit log line can show where an INTERNAL
// error actually came from without leaking realm data to the host reply.
type Fault struct {
	Code  ErrCode
	Msg   string
	Stack stack.CallStack
}

func NewFault(code ErrCode, format string, args ...interface{}) *Fault {
	return &Fault{
		Code:  code,
		Msg:   fmt.Sprintf(format, args...),
		Stack: stack.Trace().TrimRuntime(),
	}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Msg)
}
