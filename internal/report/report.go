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

// Package report serializes analysis artifacts to the configured dest_path
// (§6, §10.6), one JSON document per artifact kind per analyzed file per
// revision, plus the merged diff-abstract summary.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/emicklei/dot"

	"github.com/n42blockchain/bytecrumb/internal/diffaggregate"
	berrors "github.com/n42blockchain/bytecrumb/pkg/errors"
)

// Writer owns dest_path and lays out artifacts as
// filepath.Join(dest_path, contract_id, revision, artifact_name).
type Writer struct {
	DestPath string
	Debug    bool
}

// New returns a Writer rooted at destPath.
func New(destPath string, debug bool) *Writer {
	return &Writer{DestPath: destPath, Debug: debug}
}

func (w *Writer) revisionDir(contractID, revision string) string {
	return filepath.Join(w.DestPath, contractID, revision)
}

// WriteJSON marshals v as indented JSON to
// dest_path/contractID/revision/name.
func (w *Writer) WriteJSON(contractID, revision, name string, v interface{}) error {
	dir := w.revisionDir(contractID, revision)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return berrors.Wrapf(berrors.ErrCompilation, "report: mkdir %s: %v", dir, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return berrors.Wrapf(berrors.ErrCompilation, "report: marshal %s: %v", name, err)
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// EdgeListEntry is one row of an *_edgelist artifact: a flattened
// (src, dst, kind) triple suitable for downstream tabular consumption.
type EdgeListEntry struct {
	Src  int    `json:"src"`
	Dst  int    `json:"dst"`
	Kind string `json:"kind"`
}

// WriteEdgeList writes entries as JSON-lines-equivalent array to name.
func (w *Writer) WriteEdgeList(contractID, revision, name string, entries []EdgeListEntry) error {
	return w.WriteJSON(contractID, revision, name, entries)
}

// WriteDot writes a debug-only DOT export; a no-op unless Debug is set, per
// §10.8 ("supplementary, non-default artifact").
func (w *Writer) WriteDot(contractID, revision, name string, g *dot.Graph) error {
	if !w.Debug || g == nil {
		return nil
	}
	dir := w.revisionDir(contractID, revision)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return berrors.Wrapf(berrors.ErrCompilation, "report: mkdir %s: %v", dir, err)
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(g.String()), 0o644)
}

// AbstractSummary is the merged *_abstract.json content: the per-revision
// raw values plus the diffed, error-suppressed result.
type AbstractSummary struct {
	Before map[string]int      `json:"before"`
	After  map[string]int      `json:"after"`
	Diff   map[string]int      `json:"diff"`
	Tags   map[string][]string `json:"tags,omitempty"`
	Errors []string            `json:"errored_indices,omitempty"`
}

// BuildAbstractSummary assembles an AbstractSummary from raw before/after
// ints (already extracted from abstracts.Result by the caller) and the
// aggregator's diffed output.
func BuildAbstractSummary(before, after map[string]int, diffed map[string]diffaggregate.Aggregated) AbstractSummary {
	s := AbstractSummary{Before: before, After: after, Diff: map[string]int{}, Tags: map[string][]string{}}
	for name, agg := range diffed {
		if agg.Errored {
			s.Errors = append(s.Errors, name)
			s.Diff[name] = 0
			continue
		}
		if agg.Tags != nil {
			s.Tags[name] = agg.Tags
			continue
		}
		s.Diff[name] = agg.Int
	}
	return s
}
