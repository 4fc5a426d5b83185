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

// Package ssg constructs the per-function semantic/side-effect graph
// (XGraph) that the symbolic interpreter emits nodes and edges into.
package ssg

import (
	"github.com/n42blockchain/bytecrumb/internal/evm/value"
	"github.com/n42blockchain/bytecrumb/log"
)

// EdgeKind is one of the three flow kinds carried by an SSG edge (§3).
type EdgeKind string

const (
	ValueFlow      EdgeKind = "value_flow"
	ControlFlow    EdgeKind = "control_flow"
	ConstraintFlow EdgeKind = "constraint_flow"
)

// GlobalFunction is the key nodes emitted outside any recognized function
// entry are filed under (§3).
const GlobalFunction = "@global"

// PathLabel is one (path_id, label) tuple accumulated on an edge each time
// a path traverses it.
type PathLabel struct {
	PathID int
	Label  string
}

type edgeKey struct{ Src, Dst int }

// Edge is the unique (kind, src, dst) tuple the edge contract (§4.4)
// guarantees, carrying every path's accumulated (path_id, label) pairs.
type Edge struct {
	Kind   EdgeKind
	Src    int
	Dst    int
	Labels []PathLabel
}

// FuncGraph is one function's partition of the contract's SSG.
type FuncGraph struct {
	Name  string
	Nodes map[int]*value.Node
	edges map[edgeKey]*Edge
}

func newFuncGraph(name string) *FuncGraph {
	return &FuncGraph{Name: name, Nodes: map[int]*value.Node{}, edges: map[edgeKey]*Edge{}}
}

// AddNode registers n in this function's partition (idempotent: re-adding
// the same node ID is a no-op, matching the arena's own pc-keyed identity).
func (fg *FuncGraph) AddNode(n *value.Node) {
	if n == nil {
		return
	}
	fg.Nodes[n.ID] = n
}

// AddEdge records a traversal of (kind, src, dst), appending (pathID,
// label) to the existing edge if one of the same kind already exists. A
// second attempted edge of a *different* kind between the same ordered
// pair is a diagnostic error (logged, not fatal) per §4.4's edge contract
// — the original edge's kind wins.
func (fg *FuncGraph) AddEdge(kind EdgeKind, src, dst *value.Node, pathID int, label string) {
	if src == nil || dst == nil {
		return
	}
	fg.AddNode(src)
	fg.AddNode(dst)

	key := edgeKey{Src: src.ID, Dst: dst.ID}
	existing, ok := fg.edges[key]
	if !ok {
		fg.edges[key] = &Edge{Kind: kind, Src: src.ID, Dst: dst.ID, Labels: []PathLabel{{PathID: pathID, Label: label}}}
		return
	}
	if existing.Kind != kind {
		log.Warn("ssg edge kind conflict", "src", src.ID, "dst", dst.ID, "existing", existing.Kind, "attempted", kind)
		return
	}
	existing.Labels = append(existing.Labels, PathLabel{PathID: pathID, Label: label})
}

// Edges returns every recorded edge, in no particular order.
func (fg *FuncGraph) Edges() []*Edge {
	out := make([]*Edge, 0, len(fg.edges))
	for _, e := range fg.edges {
		out = append(out, e)
	}
	return out
}

// Graph is the per-contract XGraph container, partitioned by
// current_function (§3, GLOSSARY).
type Graph struct {
	Functions map[string]*FuncGraph
}

// New returns an empty Graph with the @global partition pre-created.
func New() *Graph {
	g := &Graph{Functions: map[string]*FuncGraph{}}
	g.Func(GlobalFunction)
	return g
}

// Func returns the named function partition, creating it on first access.
func (g *Graph) Func(name string) *FuncGraph {
	if name == "" {
		name = GlobalFunction
	}
	fg, ok := g.Functions[name]
	if !ok {
		fg = newFuncGraph(name)
		g.Functions[name] = fg
	}
	return fg
}
