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
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/n42blockchain/bytecrumb/internal/evm/cfg"
	"github.com/n42blockchain/bytecrumb/internal/evm/instr"
	"github.com/n42blockchain/bytecrumb/internal/evm/ssg"
	"github.com/n42blockchain/bytecrumb/internal/evm/value"
	berrors "github.com/n42blockchain/bytecrumb/pkg/errors"
)

// PathResult records one terminated path's outcome, for the abstract
// indices and error-policy layer above the interpreter.
type PathResult struct {
	ID          int
	Termination TerminationKind
	Err         error
}

// ImpossiblePath records a branch the interpreter determined infeasible
// because its JUMPI condition simplified to a concrete literal (§4.3.1).
type ImpossiblePath struct {
	PC     int
	Target int
}

// Machine runs the bounded depth-first exploration of one CFG, emitting
// nodes/edges into an ssg.Graph as it goes.
type Machine struct {
	CFG   *cfg.CFG
	Arena *value.Arena
	SSG   *ssg.Graph

	nextPathID int

	Results          []PathResult
	ImpossiblePaths  []ImpossiblePath
	globalEdgeVisits map[[2]int]int
}

// frame is one unit of work on the explicit worklist (§9): a block to
// execute starting from a given path state.
type frame struct {
	blockID int
	path    *Path
}

// NewMachine builds a Machine ready to Run over c, sharing arena and an
// SSG graph the caller can reuse across calls within one contract analysis.
func NewMachine(c *cfg.CFG, arena *value.Arena, graph *ssg.Graph) *Machine {
	return &Machine{CFG: c, Arena: arena, SSG: graph, globalEdgeVisits: map[[2]int]int{}}
}

// Run explores the CFG depth-first from block 0, via an explicit work-stack
// instead of native recursion (§9), honoring ctx's deadline as the global
// wall-clock budget checked at every opcode (§5).
func (m *Machine) Run(ctx context.Context) {
	_, initial := NewInitialState(m.Arena)
	initial.ID = m.allocPathID()

	stack := []frame{{blockID: 0, path: initial}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		select {
		case <-ctx.Done():
			f.path.Termination = TermException
			f.path.Err = berrors.ErrSymbolicTimeout
			m.Results = append(m.Results, PathResult{ID: f.path.ID, Termination: TermException, Err: berrors.ErrSymbolicTimeout})
			continue
		default:
		}

		next := m.stepBlock(ctx, f.blockID, f.path)
		stack = append(stack, next...)
	}
}

func (m *Machine) allocPathID() int {
	id := m.nextPathID
	m.nextPathID++
	return id
}

// stepBlock executes every instruction of block blockID against path, then
// returns zero, one, or two successor frames (two only at a feasible
// conditional branch).
func (m *Machine) stepBlock(ctx context.Context, blockID int, path *Path) []frame {
	block, ok := m.CFG.Blocks[blockID]
	if !ok {
		m.terminate(path, TermException, berrors.ErrBlockNotFound)
		return nil
	}

	if sig, ok := m.CFG.StartBlockToFuncSig[blockID]; ok {
		path.CurrentFunction = sig
	}

	if block.Termination == cfg.Conditional {
		key := [2]int{blockID, blockID}
		path.VisitedEdges[key]++
		m.globalEdgeVisits[key]++
		if path.VisitedEdges[key] > ConditionalLoopLimit {
			m.terminate(path, TermLoopLimit, nil)
			return nil
		}
	}

	for _, line := range block.Instructions {
		select {
		case <-ctx.Done():
			m.terminate(path, TermException, berrors.ErrSymbolicTimeout)
			return nil
		default:
		}

		ins := parseInstructionLine(line)
		path.Gas += gasCost(ins.Opcode)
		if path.Gas > GasCeiling {
			m.terminate(path, TermGasLimit, nil)
			return nil
		}

		switch {
		case ins.Opcode == "JUMP":
			return m.stepJump(block, path)
		case ins.Opcode == "JUMPI":
			return m.stepJumpI(block, path)
		case instr.TerminalOpcodes[ins.Opcode]:
			m.emitTerminalNode(path, ins.PC, ins.Opcode)
			m.terminate(path, TermNormal, nil)
			return nil
		default:
			if err := m.stepOpcode(path, ins); err != nil {
				if errors.Is(err, errDivisionByZero) {
					m.terminate(path, TermNormal, nil)
					return nil
				}
				m.terminate(path, TermException, err)
				return nil
			}
		}
	}

	// Block fell through without an explicit JUMP/JUMPI/terminal opcode:
	// terminal blocks stop here; falls_to blocks continue to their successor.
	switch block.Termination {
	case cfg.Terminal:
		m.emitTerminal(path, block)
		m.terminate(path, TermNormal, nil)
		return nil
	case cfg.FallsTo:
		if !block.HasFallsTo() {
			m.terminate(path, TermException, berrors.ErrBlockNotFound)
			return nil
		}
		if edgeOverVisited(m, blockID, block.FallsToPC, path) {
			m.terminate(path, TermLoopLimit, nil)
			return nil
		}
		path.PC = block.FallsToPC
		return []frame{{blockID: block.FallsToPC, path: path}}
	default:
		// Unconditional/Conditional blocks whose JUMP/JUMPI opcode wasn't
		// reached (e.g. truncated disassembly): treat as a path exception.
		m.terminate(path, TermException, berrors.ErrSymbolicExecution)
		return nil
	}
}

func edgeOverVisited(m *Machine, from, to int, path *Path) bool {
	key := [2]int{from, to}
	path.VisitedEdges[key]++
	m.globalEdgeVisits[key]++
	return m.globalEdgeVisits[key] > EdgeVisitLimit
}

// addEdge records an SSG edge of kind between src and dst, a no-op if
// either endpoint is nil (callers pass through best-effort node lookups).
func (m *Machine) addEdge(path *Path, kind ssg.EdgeKind, src, dst *value.Node, label string) {
	if src == nil || dst == nil {
		return
	}
	m.SSG.Func(path.CurrentFunction).AddEdge(kind, src, dst, path.ID, label)
}

// advance records dst as the path's newest SSG node, wiring an automatic
// control_flow edge from the previous such node per §4.4.
func (m *Machine) advance(path *Path, dst *value.Node) {
	if dst == nil {
		return
	}
	if path.LastNode != nil {
		m.addEdge(path, ssg.ControlFlow, path.LastNode, dst, "")
	}
	path.LastNode = dst
}

func (m *Machine) terminate(path *Path, kind TerminationKind, err error) {
	path.Termination = kind
	path.Err = err
	m.Results = append(m.Results, PathResult{ID: path.ID, Termination: kind, Err: err})
}

// parseInstructionLine turns a rendered "pc OPCODE [imm]" line back into an
// instr.Instruction (the CFG stores instructions pre-rendered as strings).
func parseInstructionLine(line string) instr.Instruction {
	parts := strings.Fields(line)
	pc, _ := strconv.Atoi(parts[0])
	ins := instr.Instruction{PC: pc, Opcode: parts[1]}
	if len(parts) > 2 {
		ins.Immediate = parts[2]
	}
	return ins
}
