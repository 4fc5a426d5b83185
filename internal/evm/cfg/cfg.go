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

package cfg

import (
	"sort"
	"strconv"
	"strings"

	"github.com/n42blockchain/bytecrumb/internal/evm/instr"
)

// CFG is the control-flow graph of one contract's runtime bytecode.
type CFG struct {
	Blocks              map[int]*BasicBlock
	Edges               map[int][]int
	JumpType            map[int]Termination
	InstructionsByPC    map[int]instr.Instruction
	StartBlockToFuncSig map[int]string
}

// SourceLookup maps an instruction PC to the source lines it was compiled
// from, and reports whether those lines are in a revision's diff. It is the
// boundary to the (out-of-scope) Solidity source-map decoder; nil is a
// valid SourceLookup and simply leaves every block's SourceSpan/Changed
// at their zero values.
type SourceLookup interface {
	LinesForPC(pc int) (lines []int, srcStart, srcLen int, ok bool)
	JumpInType(pc int) string
}

// Build tokenizes opcodes and constructs the CFG: block boundaries,
// termination classification, static edge resolution, and function-entry
// recognition. Malformed input never aborts the builder — holes in the
// instruction range are simply skipped; a block with a gap in its
// instructions is still emitted rather than dropped.
func Build(opcodes string, diffLines []int, src SourceLookup) *CFG {
	instructions, byPC := instr.Tokenize(opcodes)

	endIns := map[int]int{}
	jumpType := map[int]Termination{}

	currentBlock := 0
	isNewBlock := true
	var lastTok string
	var lastPC int
	var curPC int

	for _, ins := range instructions {
		curPC = ins.PC
		if isNewBlock {
			currentBlock = curPC
			isNewBlock = false
		}

		switch {
		case instr.TerminalOpcodes[ins.Opcode]:
			jumpType[currentBlock] = Terminal
			endIns[currentBlock] = curPC
			isNewBlock = true
		case ins.Opcode == "JUMP":
			jumpType[currentBlock] = Unconditional
			endIns[currentBlock] = curPC
			isNewBlock = true
		case ins.Opcode == "JUMPI":
			jumpType[currentBlock] = Conditional
			endIns[currentBlock] = curPC
			isNewBlock = true
		case ins.Opcode == "JUMPDEST":
			if lastTok != "" && !instr.TerminalOpcodes[lastTok] && !instr.JumpOpcodes[lastTok] {
				endIns[currentBlock] = lastPC
				jumpType[currentBlock] = FallsTo
				currentBlock = curPC
			}
		}

		lastTok = ins.Opcode
		lastPC = curPC
	}

	if _, ok := endIns[currentBlock]; !ok && len(instructions) > 0 {
		endIns[currentBlock] = curPC
		jumpType[currentBlock] = Terminal
	}
	for k := range endIns {
		if _, ok := jumpType[k]; !ok {
			jumpType[k] = FallsTo
		}
	}

	c := &CFG{
		Blocks:              map[int]*BasicBlock{},
		Edges:               map[int][]int{},
		JumpType:            jumpType,
		InstructionsByPC:    byPC,
		StartBlockToFuncSig: map[int]string{},
	}

	c.constructBlocks(endIns, jumpType, byPC, diffLines, src)
	c.constructStaticEdges()
	c.recognizeFunctionEntries(instructions)

	return c
}

func (c *CFG) constructBlocks(endIns map[int]int, jumpType map[int]Termination, byPC map[int]instr.Instruction, diffLines []int, src SourceLookup) {
	diffSet := map[int]bool{}
	for _, l := range diffLines {
		diffSet[l] = true
	}

	for start, end := range endIns {
		block := &BasicBlock{StartPC: start, EndPC: end}

		changed := false
		linesSeen := map[int]bool{}
		srcStartMin, srcEndMax := -1, -1

		for pc := start; pc <= end; pc++ {
			ins, ok := byPC[pc]
			if !ok {
				continue
			}
			block.AddInstruction(ins.String())

			if src != nil {
				lines, s, l, ok := src.LinesForPC(pc)
				if ok {
					for _, ln := range lines {
						linesSeen[ln] = true
						if diffSet[ln] {
							changed = true
						}
					}
					e := s + l
					if srcStartMin == -1 || s < srcStartMin {
						srcStartMin = s
					}
					if e > srcEndMax {
						srcEndMax = e
					}
				}
			}
		}

		if srcStartMin >= 0 && srcEndMax > 0 && srcStartMin <= srcEndMax {
			block.SourceSpan = strconv.Itoa(srcStartMin) + ":" + strconv.Itoa(srcEndMax-srcStartMin)
		}
		var lines []int
		for ln := range linesSeen {
			lines = append(lines, ln)
		}
		sort.Ints(lines)
		block.SourceLines = lines
		block.Changed = changed

		if src != nil {
			block.JumpInType = src.JumpInType(end)
		}
		block.Termination = jumpType[start]

		c.Blocks[start] = block
		c.Edges[start] = nil
	}
}

func (c *CFG) constructStaticEdges() {
	keys := make([]int, 0, len(c.JumpType))
	for k := range c.JumpType {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	for i, key := range keys {
		t := c.JumpType[key]
		if t != Terminal && t != Unconditional && i+1 < len(keys) {
			target := keys[i+1]
			c.Edges[key] = append(c.Edges[key], target)
			c.Blocks[target].JumpFrom = append(c.Blocks[target].JumpFrom, key)
			c.Blocks[key].SetFallsTo(target)
		}

		if t == Conditional || t == Unconditional {
			instrs := c.Blocks[key].Instructions
			if len(instrs) > 1 && strings.Contains(instrs[len(instrs)-2], "PUSH") {
				parts := strings.Fields(instrs[len(instrs)-2])
				if len(parts) >= 3 {
					if target, err := strconv.ParseInt(strings.TrimPrefix(parts[2], "0x"), 16, 64); err == nil {
						if _, ok := c.Blocks[int(target)]; ok {
							c.Edges[key] = append(c.Edges[key], int(target))
							c.Blocks[int(target)].JumpFrom = append(c.Blocks[int(target)].JumpFrom, key)
							c.Blocks[key].SetJumpTarget(int(target))
						}
					}
				}
			}
		}
	}
}

// recognizeFunctionEntries scans for PUSH4 sig; DUPn?; EQ; PUSHk target and
// records target -> sig, per §4.1's function-entry recognition.
func (c *CFG) recognizeFunctionEntries(instructions []instr.Instruction) {
	const (
		stateStart = iota
		stateAfterPush4
		stateAfterEQ
	)
	state := stateStart
	var funcSig string

	for _, ins := range instructions {
		switch {
		case state == stateStart && ins.Opcode == "PUSH4":
			funcSig = strings.TrimPrefix(ins.Immediate, "0x")
			state = stateAfterPush4
		case state == stateAfterPush4 && strings.HasPrefix(ins.Opcode, "DUP"):
			// stay in stateAfterPush4
		case state == stateAfterPush4 && ins.Opcode == "EQ":
			state = stateAfterEQ
		case state == stateAfterEQ && strings.HasPrefix(ins.Opcode, "PUSH"):
			if target, ok := instr.PushImmediateInt(ins); ok {
				c.StartBlockToFuncSig[target] = funcSig
			}
			state = stateStart
		default:
			state = stateStart
		}
	}
}
