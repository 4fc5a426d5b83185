// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package source

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheKey identifies one (path, revision) Source snapshot.
type cacheKey struct {
	path     string
	revision string
}

// Store is a bounded cache of parsed Source snapshots, keyed by file path
// and revision label ("before"/"after" or a commit hash). A long-lived
// server process re-analyzing overlapping diffs benefits from not
// re-reading and re-indexing unchanged file content on every request.
//
// This is a supplemental cache, not a correctness requirement — a cache
// miss simply calls the loader again.
type Store struct {
	cache *lru.Cache[cacheKey, *Source]
}

// NewStore builds a Store holding up to capacity Source snapshots.
func NewStore(capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = 256
	}
	c, err := lru.New[cacheKey, *Source](capacity)
	if err != nil {
		return nil, err
	}
	return &Store{cache: c}, nil
}

// GetOrLoad returns the cached Source for (path, revision), calling load
// and caching its result on a miss.
func (s *Store) GetOrLoad(path, revision string, load func() (*Source, error)) (*Source, error) {
	key := cacheKey{path: path, revision: revision}
	if src, ok := s.cache.Get(key); ok {
		return src, nil
	}
	src, err := load()
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, src)
	return src, nil
}

// Purge evicts every cached entry.
func (s *Store) Purge() { s.cache.Purge() }
