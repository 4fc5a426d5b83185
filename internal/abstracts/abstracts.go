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

// Package abstracts implements the pluggable (name, compute) registry of
// §4.5/§9: each abstract index is a pure pair stored in a static
// map[string]IndexFactory, assembled from Config's *_abstracts[] lists at
// request time. Indices are registered statically rather than loaded by
// name at runtime.
package abstracts

import (
	"context"
	"time"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/n42blockchain/bytecrumb/internal/ast"
	"github.com/n42blockchain/bytecrumb/internal/evm/cfg"
	"github.com/n42blockchain/bytecrumb/internal/evm/ssg"
	berrors "github.com/n42blockchain/bytecrumb/pkg/errors"
)

// Result is one index's computed value: either Int (numeric indices) or
// Tags (tag_src-style list-valued indices), with Err set when computation
// failed or timed out — the diff aggregator suppresses to 0 on either side
// erroring (§4.5).
type Result struct {
	Int  int
	Tags []string
	Err  error
}

// ASTContext bundles the AST-derived inputs the ast_abstracts compute over.
type ASTContext struct {
	Root *ast.Node
}

// CFGContext bundles the CFG-derived inputs.
type CFGContext struct {
	Graphs []*cfg.CFG // one per contract in the file, loop_bin sums across all
}

// SSGContext bundles the SSG-derived inputs.
type SSGContext struct {
	Graph *ssg.Graph
}

// ASTIndexFunc computes one AST-rooted index.
type ASTIndexFunc func(ctx context.Context, c ASTContext) Result

// CFGIndexFunc computes one CFG-rooted index.
type CFGIndexFunc func(ctx context.Context, c CFGContext) Result

// SSGIndexFunc computes one SSG-rooted index.
type SSGIndexFunc func(ctx context.Context, c SSGContext) Result

var astRegistry = map[string]ASTIndexFunc{
	"sequence_src":  astSequence,
	"selection_src": astSelection,
	"loop_src":      astLoop,
}

var cfgRegistry = map[string]CFGIndexFunc{
	"sequence_bin": cfgSequence,
	"loop_bin":     cfgLoopBin,
}

var ssgRegistry = map[string]SSGIndexFunc{
	"data_flow":    ssgDataFlow,
	"control_flow": ssgControlFlow,
}

// ComputeAST runs every requested AST index by name, recording
// ErrIndexUnknown for names not in the registry.
func ComputeAST(ctx context.Context, names []string, c ASTContext) map[string]Result {
	out := make(map[string]Result, len(names))
	for _, name := range names {
		fn, ok := astRegistry[name]
		if !ok {
			out[name] = Result{Err: berrors.Wrapf(berrors.ErrIndexUnknown, "ast index %q", name)}
			continue
		}
		out[name] = fn(ctx, c)
	}
	return out
}

// ComputeCFG runs every requested CFG index by name.
func ComputeCFG(ctx context.Context, names []string, c CFGContext) map[string]Result {
	out := make(map[string]Result, len(names))
	for _, name := range names {
		fn, ok := cfgRegistry[name]
		if !ok {
			out[name] = Result{Err: berrors.Wrapf(berrors.ErrIndexUnknown, "cfg index %q", name)}
			continue
		}
		out[name] = fn(ctx, c)
	}
	return out
}

// ComputeSSG runs every requested SSG index by name.
func ComputeSSG(ctx context.Context, names []string, c SSGContext) map[string]Result {
	out := make(map[string]Result, len(names))
	for _, name := range names {
		fn, ok := ssgRegistry[name]
		if !ok {
			out[name] = Result{Err: berrors.Wrapf(berrors.ErrIndexUnknown, "ssg index %q", name)}
			continue
		}
		out[name] = fn(ctx, c)
	}
	return out
}

func astSequence(_ context.Context, c ASTContext) Result {
	if c.Root == nil {
		return Result{Err: berrors.ErrEmptyArtifact}
	}
	return Result{Int: ast.CountSequence(c.Root)}
}

func astSelection(_ context.Context, c ASTContext) Result {
	if c.Root == nil {
		return Result{Err: berrors.ErrEmptyArtifact}
	}
	return Result{Int: ast.CountSelection(c.Root)}
}

func astLoop(_ context.Context, c ASTContext) Result {
	if c.Root == nil {
		return Result{Err: berrors.ErrEmptyArtifact}
	}
	return Result{Int: ast.CountLoop(c.Root)}
}

func cfgSequence(_ context.Context, c CFGContext) Result {
	n := 0
	for _, g := range c.Graphs {
		for _, block := range g.Blocks {
			if block.Termination != "conditional" {
				n += len(g.Edges[block.StartPC])
			}
		}
	}
	return Result{Int: n}
}

// cfgLoopBin sums simple-cycle counts across every contract's CFG via
// gonum.org/v1/gonum/graph/topo.DirectedCyclesIn, run in a goroutine
// cancelled by a 30s context deadline (§4.5/§9): there is no safe way to
// kill a running goroutine, so on timeout it is simply abandoned and its
// result discarded, which still satisfies "on timeout yields 0, index
// flagged errored".
func cfgLoopBin(parent context.Context, c CFGContext) Result {
	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	type outcome struct {
		total int
	}
	done := make(chan outcome, 1)

	go func() {
		total := 0
		for _, g := range c.Graphs {
			total += countCycles(g)
		}
		done <- outcome{total: total}
	}()

	select {
	case o := <-done:
		return Result{Int: o.total}
	case <-ctx.Done():
		return Result{Err: berrors.ErrIndexTimeout}
	}
}

func countCycles(g *cfg.CFG) int {
	dg := simple.NewDirectedGraph()
	for id := range g.Blocks {
		dg.AddNode(simple.Node(int64(id)))
	}
	for from, tos := range g.Edges {
		for _, to := range tos {
			if dg.HasEdgeFromTo(int64(from), int64(to)) {
				continue
			}
			dg.SetEdge(dg.NewEdge(simple.Node(int64(from)), simple.Node(int64(to))))
		}
	}
	cycles := topo.DirectedCyclesIn(dg)
	return len(cycles)
}

func ssgDataFlow(_ context.Context, c SSGContext) Result {
	if c.Graph == nil {
		return Result{Err: berrors.ErrEmptyArtifact}
	}
	n := 0
	for _, fg := range c.Graph.Functions {
		for _, e := range fg.Edges() {
			if e.Kind == ssg.ValueFlow {
				n++
			}
		}
	}
	return Result{Int: n}
}

func ssgControlFlow(_ context.Context, c SSGContext) Result {
	if c.Graph == nil {
		return Result{Err: berrors.ErrEmptyArtifact}
	}
	n := 0
	for _, fg := range c.Graph.Functions {
		for _, e := range fg.Edges() {
			if e.Kind == ssg.ControlFlow {
				n++
			}
		}
	}
	return Result{Int: n}
}
