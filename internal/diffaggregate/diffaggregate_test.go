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

package diffaggregate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/bytecrumb/internal/abstracts"
)

func TestDiffSubtractsNumericIndices(t *testing.T) {
	before := map[string]abstracts.Result{"sequence_src": {Int: 4}}
	after := map[string]abstracts.Result{"sequence_src": {Int: 7}}

	out := Diff(before, after)
	require.Equal(t, Aggregated{Int: 3}, out["sequence_src"])
}

func TestDiffSuppressesToErroredWhenEitherSideFails(t *testing.T) {
	before := map[string]abstracts.Result{"loop_bin": {Err: errors.New("timeout")}}
	after := map[string]abstracts.Result{"loop_bin": {Int: 2}}

	out := Diff(before, after)
	require.True(t, out["loop_bin"].Errored)
	require.Zero(t, out["loop_bin"].Int)
}

func TestDiffSuppressesWhenAfterSideFails(t *testing.T) {
	before := map[string]abstracts.Result{"loop_bin": {Int: 2}}
	after := map[string]abstracts.Result{"loop_bin": {Err: errors.New("timeout")}}

	out := Diff(before, after)
	require.True(t, out["loop_bin"].Errored)
}

func TestDiffCarriesTagsFromAfterSideOnly(t *testing.T) {
	before := map[string]abstracts.Result{"tag_src": {Tags: []string{"stale"}}}
	after := map[string]abstracts.Result{"tag_src": {Tags: []string{"reentrancy-guard"}}}

	out := Diff(before, after)
	require.Equal(t, []string{"reentrancy-guard"}, out["tag_src"].Tags)
	require.False(t, out["tag_src"].Errored)
}

func TestDiffHandlesIndexPresentOnlyOnOneSide(t *testing.T) {
	before := map[string]abstracts.Result{}
	after := map[string]abstracts.Result{"sequence_src": {Int: 5}}

	out := Diff(before, after)
	require.Equal(t, Aggregated{Int: 5}, out["sequence_src"])
}
