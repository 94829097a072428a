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
	"context"

	"golang.org/x/sync/errgroup"
)

// Cores models the "multiple parallel CPU cores" scheduling assumption
// of spec.md §5: N goroutines, each free to call into the monitor
// concurrently, none of them owning any shared state directly. RunAll
// is a thin errgroup wrapper giving first-error propagation instead of
// hand-rolled WaitGroup plumbing. Neither the tests nor cmd/rmm-console
// construct a Cores.
type Cores struct {
	N int
}

func NewCores(n int) *Cores {
	return &Cores{N: n}
}

// RunAll launches fn(ctx, coreID) once per modelled core and waits for
// all of them, returning the first non-nil error.
func (c *Cores) RunAll(ctx context.Context, fn func(ctx context.Context, core int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.N; i++ {
		core := i
		g.Go(func() error {
			return fn(gctx, core)
		})
	}
	return g.Wait()
}
