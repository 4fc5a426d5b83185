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

// Package cfg builds a control-flow graph of basic blocks from a tokenized
// EVM instruction stream.
package cfg

// Termination classifies how a BasicBlock ends.
type Termination string

const (
	Terminal     Termination = "terminal"
	Unconditional Termination = "unconditional"
	Conditional  Termination = "conditional"
	FallsTo      Termination = "falls_to"
)

// BasicBlock is a maximal straight-line instruction run.
type BasicBlock struct {
	StartPC, EndPC int
	Instructions   []string // rendered "pc OPCODE [imm]" lines, insertion order

	Termination Termination
	FallsToPC   int  // valid when Termination != Terminal/Unconditional and a successor exists
	hasFallsTo  bool

	// JumpTargets: top of slice is the most recently resolved target
	// (remove-then-append-at-end semantics, see SetJumpTarget).
	JumpTargets []int
	JumpFrom    []int

	SourceSpan   string // "start:length" into the Solidity source, or ""
	SourceLines  []int
	Changed      bool
	JumpInType   string
}

// AddInstruction appends a rendered instruction line.
func (b *BasicBlock) AddInstruction(line string) {
	b.Instructions = append(b.Instructions, line)
}

// SetFallsTo records the fall-through/false-branch successor.
func (b *BasicBlock) SetFallsTo(pc int) {
	b.FallsToPC = pc
	b.hasFallsTo = true
}

// HasFallsTo reports whether SetFallsTo was ever called.
func (b *BasicBlock) HasFallsTo() bool { return b.hasFallsTo }

// SetJumpTarget records a resolved jump target, moving it to the top (most
// recent) position if already present — "remove existing occurrence, then
// append" exactly.
func (b *BasicBlock) SetJumpTarget(pc int) {
	kept := b.JumpTargets[:0]
	for _, t := range b.JumpTargets {
		if t != pc {
			kept = append(kept, t)
		}
	}
	b.JumpTargets = append(kept, pc)
}

// CurrentJumpTarget returns the most recently set jump target, or (0, false).
func (b *BasicBlock) CurrentJumpTarget() (int, bool) {
	if len(b.JumpTargets) == 0 {
		return 0, false
	}
	return b.JumpTargets[len(b.JumpTargets)-1], true
}
