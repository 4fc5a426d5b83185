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

package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/emicklei/dot"
	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/bytecrumb/internal/diffaggregate"
)

func TestWriteJSONLaysOutContractRevisionArtifactPath(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, false)

	require.NoError(t, w.WriteJSON("Wallet", "after", "sequence_src.json", map[string]int{"n": 3}))

	want := filepath.Join(dir, "Wallet", "after", "sequence_src.json")
	data, err := os.ReadFile(want)
	require.NoError(t, err)

	var got map[string]int
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, 3, got["n"])
}

func TestWriteDotIsNoopWithoutDebug(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, false)
	g := dot.NewGraph(dot.Directed)

	require.NoError(t, w.WriteDot("Wallet", "after", "cfg.dot", g))
	_, err := os.Stat(filepath.Join(dir, "Wallet", "after", "cfg.dot"))
	require.True(t, os.IsNotExist(err))
}

func TestWriteDotWritesWhenDebugEnabled(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, true)
	g := dot.NewGraph(dot.Directed)
	g.Node("a")

	require.NoError(t, w.WriteDot("Wallet", "after", "cfg.dot", g))
	data, err := os.ReadFile(filepath.Join(dir, "Wallet", "after", "cfg.dot"))
	require.NoError(t, err)
	require.Contains(t, string(data), "digraph")
}

func TestBuildAbstractSummarySeparatesDiffTagsAndErrors(t *testing.T) {
	before := map[string]int{"sequence_src": 4}
	after := map[string]int{"sequence_src": 7}
	diffed := map[string]diffaggregate.Aggregated{
		"sequence_src": {Int: 3},
		"loop_bin":     {Errored: true},
		"tag_src":      {Tags: []string{"reentrancy-guard"}},
	}

	summary := BuildAbstractSummary(before, after, diffed)
	require.Equal(t, 3, summary.Diff["sequence_src"])
	require.Equal(t, 0, summary.Diff["loop_bin"])
	require.Contains(t, summary.Errors, "loop_bin")
	require.Equal(t, []string{"reentrancy-guard"}, summary.Tags["tag_src"])
}
