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

package abstracts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/bytecrumb/internal/ast"
	"github.com/n42blockchain/bytecrumb/internal/evm/cfg"
	"github.com/n42blockchain/bytecrumb/internal/evm/interpreter"
	"github.com/n42blockchain/bytecrumb/internal/evm/ssg"
	"github.com/n42blockchain/bytecrumb/internal/evm/value"
)

func TestComputeASTUnknownIndexIsFlaggedErrored(t *testing.T) {
	out := ComputeAST(context.Background(), []string{"not_a_real_index"}, ASTContext{})
	require.Error(t, out["not_a_real_index"].Err)
}

func TestComputeASTEmptyRootIsErrored(t *testing.T) {
	out := ComputeAST(context.Background(), []string{"sequence_src"}, ASTContext{Root: nil})
	require.Error(t, out["sequence_src"].Err)
}

func TestComputeASTCountsOverRealRoot(t *testing.T) {
	root := &ast.Node{Kind: "ContractDefinition", Children: []*ast.Node{
		{Kind: "ExpressionStatement"},
		{Kind: "IfStatement"},
	}}
	out := ComputeAST(context.Background(), []string{"sequence_src", "selection_src", "loop_src"}, ASTContext{Root: root})
	require.Equal(t, 1, out["sequence_src"].Int)
	require.Equal(t, 1, out["selection_src"].Int)
	require.Equal(t, 0, out["loop_src"].Int)
}

func linearCFG() *cfg.CFG {
	return &cfg.CFG{
		Blocks: map[int]*cfg.BasicBlock{
			0:  {StartPC: 0, EndPC: 5, Termination: cfg.FallsTo},
			10: {StartPC: 10, EndPC: 15, Termination: cfg.Terminal},
		},
		Edges: map[int][]int{0: {10}},
	}
}

func cyclicCFG() *cfg.CFG {
	return &cfg.CFG{
		Blocks: map[int]*cfg.BasicBlock{
			0: {StartPC: 0, EndPC: 5, Termination: cfg.Conditional},
			6: {StartPC: 6, EndPC: 9, Termination: cfg.Unconditional},
		},
		Edges: map[int][]int{0: {6}, 6: {0}},
	}
}

func TestComputeCFGSequenceCountsNonConditionalEdges(t *testing.T) {
	out := ComputeCFG(context.Background(), []string{"sequence_bin"}, CFGContext{Graphs: []*cfg.CFG{linearCFG()}})
	require.Equal(t, 1, out["sequence_bin"].Int)
}

func TestComputeCFGLoopBinCountsSimpleCycle(t *testing.T) {
	out := ComputeCFG(context.Background(), []string{"loop_bin"}, CFGContext{Graphs: []*cfg.CFG{cyclicCFG()}})
	require.NoError(t, out["loop_bin"].Err)
	require.Equal(t, 1, out["loop_bin"].Int)
}

func TestComputeCFGLoopBinIsZeroWithoutCycles(t *testing.T) {
	out := ComputeCFG(context.Background(), []string{"loop_bin"}, CFGContext{Graphs: []*cfg.CFG{linearCFG()}})
	require.NoError(t, out["loop_bin"].Err)
	require.Equal(t, 0, out["loop_bin"].Int)
}

func TestComputeSSGUnknownIndexIsFlaggedErrored(t *testing.T) {
	out := ComputeSSG(context.Background(), []string{"bogus"}, SSGContext{})
	require.Error(t, out["bogus"].Err)
}

func TestComputeSSGEmptyGraphIsErrored(t *testing.T) {
	out := ComputeSSG(context.Background(), []string{"data_flow", "control_flow"}, SSGContext{Graph: nil})
	require.Error(t, out["data_flow"].Err)
	require.Error(t, out["control_flow"].Err)
}

// A contract that writes storage and branches on a symbolic condition
// should leave a nonzero data_flow and control_flow count: exercising the
// real interpreter, not a hand-built empty graph.
func TestComputeSSGCountsOverRealInterpreterRun(t *testing.T) {
	code := "CALLVALUE PUSH1 0x01 SSTORE CALLVALUE PUSH1 0x0b JUMPI PUSH1 0x00 STOP JUMPDEST STOP"
	c := cfg.Build(code, nil, nil)

	arena := value.NewArena()
	graph := ssg.New()
	m := interpreter.NewMachine(c, arena, graph)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Run(ctx)

	out := ComputeSSG(context.Background(), []string{"data_flow", "control_flow"}, SSGContext{Graph: graph})
	require.NoError(t, out["data_flow"].Err)
	require.NoError(t, out["control_flow"].Err)
	require.Greater(t, out["data_flow"].Int, 0)
	require.Greater(t, out["control_flow"].Int, 0)
}
