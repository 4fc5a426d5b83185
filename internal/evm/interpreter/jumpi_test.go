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

package interpreter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/bytecrumb/internal/evm/cfg"
	"github.com/n42blockchain/bytecrumb/internal/evm/ssg"
	"github.com/n42blockchain/bytecrumb/internal/evm/value"
)

// TestJumpITrueAppendsLeftBranch documents and locks in the preserved Open
// Question from §9: when a JUMPI condition simplifies to literal True, the
// impossible-path list receives the *fall-through* (left/false) target
// rather than the jump target that was actually skipped. A "corrected"
// reading would record the jump target instead; this test pins the actual
// behavior so a future change to it is a deliberate, visible decision
// rather than an accidental regression.
func TestJumpITrueAppendsLeftBranch(t *testing.T) {
	c := &cfg.CFG{Blocks: map[int]*cfg.BasicBlock{}}
	block := &cfg.BasicBlock{StartPC: 0, EndPC: 10, Termination: cfg.Conditional}
	block.SetFallsTo(11)
	c.Blocks[0] = block
	c.Blocks[11] = &cfg.BasicBlock{StartPC: 11}
	c.Blocks[20] = &cfg.BasicBlock{StartPC: 20}

	m := NewMachine(c, value.NewArena(), ssg.New())
	path := &Path{VisitedEdges: map[[2]int]int{}, Memory: NewMemory()}
	path.Push(value.NewConstUint64(1)) // condition: literal True
	path.Push(value.NewConstUint64(20)) // jump target

	frames := m.stepJumpI(block, path)

	require.Len(t, frames, 1)
	require.Equal(t, 20, frames[0].blockID, "the feasible branch taken is still the jump target")
	require.Len(t, m.ImpossiblePaths, 1)
	require.Equal(t, 11, m.ImpossiblePaths[0].Target, "impossible-path target is the left/fall-through branch, not the jump target")
}

func TestJumpIFalseRecordsJumpTargetImpossible(t *testing.T) {
	c := &cfg.CFG{Blocks: map[int]*cfg.BasicBlock{}}
	block := &cfg.BasicBlock{StartPC: 0, EndPC: 10, Termination: cfg.Conditional}
	block.SetFallsTo(11)
	c.Blocks[0] = block
	c.Blocks[11] = &cfg.BasicBlock{StartPC: 11}
	c.Blocks[20] = &cfg.BasicBlock{StartPC: 20}

	m := NewMachine(c, value.NewArena(), ssg.New())
	path := &Path{VisitedEdges: map[[2]int]int{}, Memory: NewMemory()}
	path.Push(value.NewConstUint64(0)) // condition: literal False
	path.Push(value.NewConstUint64(20))

	frames := m.stepJumpI(block, path)

	require.Len(t, frames, 1)
	require.Equal(t, 11, frames[0].blockID)
	require.Len(t, m.ImpossiblePaths, 1)
	require.Equal(t, 20, m.ImpossiblePaths[0].Target)
}

func TestJumpISymbolicConditionForksBothBranches(t *testing.T) {
	c := &cfg.CFG{Blocks: map[int]*cfg.BasicBlock{}}
	block := &cfg.BasicBlock{StartPC: 0, EndPC: 10, Termination: cfg.Conditional}
	block.SetFallsTo(11)
	c.Blocks[0] = block
	c.Blocks[11] = &cfg.BasicBlock{StartPC: 11}
	c.Blocks[20] = &cfg.BasicBlock{StartPC: 20}

	m := NewMachine(c, value.NewArena(), ssg.New())
	path := &Path{ID: 0, VisitedEdges: map[[2]int]int{}, Memory: NewMemory()}
	path.Push(value.NewVar("cond"))
	path.Push(value.NewConstUint64(20))

	frames := m.stepJumpI(block, path)

	require.Len(t, frames, 2)
	require.Empty(t, m.ImpossiblePaths)
}
