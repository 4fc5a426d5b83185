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
	"strconv"
	"strings"

	"github.com/n42blockchain/bytecrumb/internal/evm/cfg"
)

// emitTerminal allocates the terminal node for a terminal-classified block
// whose last instruction was consumed without stepBlock's inline
// terminal-opcode case firing (cfg.Build classifies a trailing block with no
// terminator opcode as terminal). The node is named after the block's last
// instruction's opcode and pc; an empty block gets STOP at its EndPC.
func (m *Machine) emitTerminal(path *Path, block *cfg.BasicBlock) {
	opcode := "STOP"
	pc := block.EndPC
	if len(block.Instructions) > 0 {
		parts := strings.Fields(block.Instructions[len(block.Instructions)-1])
		if len(parts) >= 2 {
			opcode = parts[1]
		}
		if p, err := strconv.Atoi(parts[0]); err == nil {
			pc = p
		}
	}
	m.emitTerminalNode(path, pc, opcode)
}

// emitTerminalNode allocates (or reuses, by pc) the terminal node for an
// explicitly encountered STOP/RETURN/REVERT/SELFDESTRUCT/INVALID opcode.
func (m *Machine) emitTerminalNode(path *Path, pc int, opcode string) {
	node, _ := m.Arena.NewTerminalNode(pc, opcode)
	m.SSG.Func(path.CurrentFunction).AddNode(node)
	m.advance(path, node)
}
