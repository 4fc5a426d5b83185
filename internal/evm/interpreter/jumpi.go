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
	"github.com/n42blockchain/bytecrumb/internal/evm/cfg"
	"github.com/n42blockchain/bytecrumb/internal/evm/ssg"
	"github.com/n42blockchain/bytecrumb/internal/evm/value"
	berrors "github.com/n42blockchain/bytecrumb/pkg/errors"
)

// stepJump handles an unconditional JUMP: the target must be concrete and
// resolvable in the CFG, else the path terminates with an exception (§4.3.1).
func (m *Machine) stepJump(block *cfg.BasicBlock, path *Path) []frame {
	target, ok := path.Pop()
	if !ok {
		m.terminate(path, TermException, berrors.ErrStackUnderflow)
		return nil
	}
	if !target.IsConst {
		m.terminate(path, TermException, berrors.ErrSymbolicJumpTarget)
		return nil
	}
	pc := int(target.Const.Uint64())
	if _, ok := m.CFG.Blocks[pc]; !ok {
		m.terminate(path, TermException, berrors.ErrBlockNotFound)
		return nil
	}
	if edgeOverVisited(m, block.StartPC, pc, path) {
		m.terminate(path, TermLoopLimit, nil)
		return nil
	}
	path.PC = pc
	return []frame{{blockID: pc, path: path}}
}

// stepJumpI handles a conditional JUMPI. When the condition simplifies to a
// concrete literal, only the feasible side is explored and the other is
// recorded as impossible — preserved deliberately unexamined: the *True*
// case appends the left-branch (fall-through) target to the impossible
// list instead of the jump target (§9 Open Question; see jumpi_test.go for
// both readings side by side).
func (m *Machine) stepJumpI(block *cfg.BasicBlock, path *Path) []frame {
	target, ok := path.Pop()
	if !ok {
		m.terminate(path, TermException, berrors.ErrStackUnderflow)
		return nil
	}
	cond, ok := path.Pop()
	if !ok {
		m.terminate(path, TermException, berrors.ErrStackUnderflow)
		return nil
	}
	if !target.IsConst {
		m.terminate(path, TermException, berrors.ErrSymbolicJumpTarget)
		return nil
	}
	jumpPC := int(target.Const.Uint64())
	if _, ok := m.CFG.Blocks[jumpPC]; !ok {
		m.terminate(path, TermException, berrors.ErrBlockNotFound)
		return nil
	}
	fallPC := block.FallsToPC

	simplified := value.Simplify(cond)
	if simplified.IsConst {
		if !simplified.Const.IsZero() {
			// Condition is literal True: only the jump side is feasible.
			// Reference bug, preserved: appends the LEFT branch (here, the
			// fall-through/false target) to the impossible list rather than
			// the jump target actually being skipped.
			m.ImpossiblePaths = append(m.ImpossiblePaths, ImpossiblePath{PC: block.EndPC, Target: fallPC})
			return m.takeBranch(block, path, jumpPC, true)
		}
		// Condition is literal False: only fall-through is feasible.
		m.ImpossiblePaths = append(m.ImpossiblePaths, ImpossiblePath{PC: block.EndPC, Target: jumpPC})
		return m.takeBranch(block, path, fallPC, false)
	}

	constraintNode, _ := m.Arena.NewConstraintNode(block.EndPC, simplified, path.ID)
	m.SSG.Func(path.CurrentFunction).AddNode(constraintNode)
	condNode, _ := m.Arena.NewExpressionNode(simplified, block.EndPC)
	m.addEdge(path, ssg.ConstraintFlow, condNode, constraintNode, "")
	m.advance(path, constraintNode)

	truePath := path.clone(m.allocPathID())
	truePath.Conditions = append(truePath.Conditions, PathCondition{Expr: simplified, Node: constraintNode, Branch: true})

	path.Conditions = append(path.Conditions, PathCondition{Expr: value.NewOp("NOT", simplified), Node: constraintNode, Branch: false})

	var frames []frame
	if f := m.enterBranch(block, truePath, jumpPC, true); f != nil {
		frames = append(frames, *f)
	}
	if f := m.enterBranch(block, path, fallPC, false); f != nil {
		frames = append(frames, *f)
	}
	return frames
}

func (m *Machine) takeBranch(block *cfg.BasicBlock, path *Path, targetPC int, branch bool) []frame {
	if f := m.enterBranch(block, path, targetPC, branch); f != nil {
		return []frame{*f}
	}
	return nil
}

func (m *Machine) enterBranch(block *cfg.BasicBlock, path *Path, targetPC int, branch bool) *frame {
	if edgeOverVisited(m, block.StartPC, targetPC, path) {
		m.terminate(path, TermLoopLimit, nil)
		return nil
	}
	path.PC = targetPC
	return &frame{blockID: targetPC, path: path}
}
