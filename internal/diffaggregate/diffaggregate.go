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

// Package diffaggregate implements the diff-aware aggregator (§2 step 7,
// §4.5): run the pipeline once per revision, then subtract per-index values
// after minus before, suppressing to 0 on either side erroring; tag-valued
// indices are carried from the after side only.
package diffaggregate

import "github.com/n42blockchain/bytecrumb/internal/abstracts"

// Aggregated is one index's final diffed value, after error suppression.
type Aggregated struct {
	Int     int
	Tags    []string
	Errored bool
}

// Diff computes after-before per numeric index name present in either map,
// and carries tag_src-style entries (identified by the tags-only convention:
// a Result with a non-nil Tags slice) from the after side.
func Diff(before, after map[string]abstracts.Result) map[string]Aggregated {
	out := make(map[string]Aggregated, len(after))

	names := map[string]bool{}
	for n := range before {
		names[n] = true
	}
	for n := range after {
		names[n] = true
	}

	for name := range names {
		b, hasB := before[name]
		a, hasA := after[name]

		if hasA && a.Tags != nil {
			out[name] = Aggregated{Tags: a.Tags, Errored: a.Err != nil}
			continue
		}

		if (hasB && b.Err != nil) || (hasA && a.Err != nil) {
			out[name] = Aggregated{Errored: true}
			continue
		}

		out[name] = Aggregated{Int: a.Int - b.Int}
	}

	return out
}
