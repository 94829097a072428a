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

package rtt

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// WalkCache memoizes the granule address a (rd, ipa, level) walk last
// converged on. It is purely a performance aid (spec.md's non-goals
// explicitly exclude "performance-critical hot paths beyond algorithmic
// correctness", but a cache that's never consulted for correctness
// costs nothing to carry): every hit is re-validated by a real Walk
// before any mutation, since the cache is never invalidated by anything
// but Invalidate and the caller holds the monitor lock regardless. The
// monitor's handlers never call Remember or Lookup: they always walk,
// and only call Invalidate.
type WalkCache struct {
	cache *lru.Cache
}

func NewWalkCache(size int) (*WalkCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &WalkCache{cache: c}, nil
}

func walkCacheKey(rd uint64, ipa uint64, level int) string {
	return fmt.Sprintf("%x/%x/%d", rd, ipa, level)
}

func (c *WalkCache) Remember(rd, ipa uint64, level int, r Result) {
	c.cache.Add(walkCacheKey(rd, ipa, level), r)
}

func (c *WalkCache) Lookup(rd, ipa uint64, level int) (Result, bool) {
	v, ok := c.cache.Get(walkCacheKey(rd, ipa, level))
	if !ok {
		return Result{}, false
	}
	return v.(Result), true
}

// Invalidate drops every memoized walk for rd. Called by every mutating
// RTT operation (RTT_CREATE, RTT_DESTROY, and any RTTE write) before
// releasing the monitor lock, since stale entries are otherwise
// impossible to distinguish from fresh ones without re-walking anyway.
func (c *WalkCache) Invalidate(rd uint64) {
	prefix := fmt.Sprintf("%x/", rd)
	for _, k := range c.cache.Keys() {
		if ks, ok := k.(string); ok && len(ks) >= len(prefix) && ks[:len(prefix)] == prefix {
			c.cache.Remove(k)
		}
	}
}
