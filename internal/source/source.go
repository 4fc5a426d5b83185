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

// Package source models an immutable snapshot of a file's content, with
// O(log n) line/offset queries backed by a prefix-sum table of newline
// offsets.
package source

import (
	"sort"

	berrors "github.com/n42blockchain/bytecrumb/pkg/errors"
)

// Source is an immutable snapshot of one file's content at one revision.
type Source struct {
	path   string
	data   []byte
	index  int // reserved for multi-source compilations
	starts []int
}

// New builds a Source from raw file content, precomputing the newline index.
func New(path string, data []byte, index int) *Source {
	starts := []int{0}
	for i, b := range data {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Source{path: path, data: data, index: index, starts: starts}
}

func (s *Source) Path() string  { return s.path }
func (s *Source) Index() int    { return s.index }
func (s *Source) Bytes() []byte { return s.data }

// Content returns the file content as a string.
func (s *Source) Content() string { return string(s.data) }

func (s *Source) Len() int { return len(s.data) }

// LineOf returns the 1-based line number containing byte offset.
func (s *Source) LineOf(offset int) int {
	if offset < 0 {
		offset = 0
	}
	i := sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > offset })
	return i
}

// LinesCovering returns the inclusive [firstLine, lastLine] 1-based range
// spanned by a byte range [start, start+length).
func (s *Source) LinesCovering(start, length int) (int, int) {
	if length < 0 {
		length = 0
	}
	end := start + length
	if end > 0 {
		end--
	}
	return s.LineOf(start), s.LineOf(end)
}

// Slice returns the raw bytes in [start, start+length), clamped to bounds.
func (s *Source) Slice(start, length int) []byte {
	if start < 0 {
		start = 0
	}
	end := start + length
	if start > len(s.data) {
		start = len(s.data)
	}
	if end > len(s.data) {
		end = len(s.data)
	}
	if end < start {
		end = start
	}
	return s.data[start:end]
}

// LineText returns the 1-based line n's text without its trailing newline.
func (s *Source) LineText(n int) (string, error) {
	if n < 1 || n > len(s.starts) {
		return "", berrors.Wrapf(berrors.ErrEmptySource, "line %d out of range", n)
	}
	start := s.starts[n-1]
	var end int
	if n < len(s.starts) {
		end = s.starts[n] - 1
	} else {
		end = len(s.data)
	}
	if end < start {
		end = start
	}
	return string(s.data[start:end]), nil
}
