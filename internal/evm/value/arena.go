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

package value

// Arena owns every Node allocated for one contract analysis and implements
// the structural dedup rules from §4.4/§9: expression and address nodes
// are deduplicated by simplify(a-b)==0, equivalent here to canonical-string
// equality (Simplify); state-changing opcodes (SSTORE, message calls,
// terminals, constraints) are deduplicated idempotently by pc, accumulating
// per-path (expr, path_id) tuples on repeat visits instead of allocating a
// new node.
type Arena struct {
	nextID int
	nodes  []*Node

	exprDedup map[string]*Node
	addrDedup map[string]*Node

	sstoreByPC      map[int]*Node
	messageCallByPC map[int]*Node
	terminalByPC    map[int]*Node
	constraintByPC  map[int]*Node
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{
		exprDedup:       map[string]*Node{},
		addrDedup:       map[string]*Node{},
		sstoreByPC:      map[int]*Node{},
		messageCallByPC: map[int]*Node{},
		terminalByPC:    map[int]*Node{},
		constraintByPC:  map[int]*Node{},
	}
}

func (a *Arena) alloc(kind Kind) *Node {
	n := &Node{ID: a.nextID, Kind: kind}
	a.nextID++
	a.nodes = append(a.nodes, n)
	return n
}

// Nodes returns every node allocated so far, in allocation order.
func (a *Arena) Nodes() []*Node { return a.nodes }

// NewConstNode allocates an (un-deduplicated) concrete constant node.
func (a *Arena) NewConstNode(v *Expr) *Node {
	n := a.alloc(KindConst)
	n.Value = v
	return n
}

// NewExpressionNode returns the existing Expression node whose value is
// structurally equal to v (simplify(a-b)==0), or allocates a fresh one.
func (a *Arena) NewExpressionNode(v *Expr, pc int) (*Node, bool) {
	key := Simplify(v).String()
	if existing, ok := a.exprDedup[key]; ok {
		return existing, true
	}
	n := a.alloc(KindExpression)
	n.Value = v
	n.PC = pc
	n.HasPC = true
	a.exprDedup[key] = n
	return n, false
}

// NewAddressNode applies the same dedup rule as NewExpressionNode, under the
// Address variant, per §4.4 ("address deduplication uses the same rule").
func (a *Arena) NewAddressNode(v *Expr) (*Node, bool) {
	key := Simplify(v).String()
	if existing, ok := a.addrDedup[key]; ok {
		return existing, true
	}
	n := a.alloc(KindAddress)
	n.Slot = v
	a.addrDedup[key] = n
	return n, false
}

// NewEnvNode allocates a leaf for a fixed environment quantity (Sender,
// Origin, Coinbase, ...); env nodes are not arena-deduplicated, so every
// call allocates a new node (§4.3.3).
func (a *Arena) NewEnvNode(kind Kind, v *Expr) *Node {
	n := a.alloc(kind)
	n.Value = v
	return n
}

// NewStorageNode allocates a Storage(slot, pc) read node.
func (a *Arena) NewStorageNode(slot *Expr, pc int) *Node {
	n := a.alloc(KindStorage)
	n.Slot = slot
	n.PC = pc
	n.HasPC = true
	return n
}

// NewMemoryNode allocates a Memory(offset) node.
func (a *Arena) NewMemoryNode(offset *Expr) *Node {
	n := a.alloc(KindMemory)
	n.Slot = offset
	return n
}

// NewShaNode allocates a Sha(pc, param) node; each call site gets its own
// node (no structural dedup of Sha inputs, per §4.3.1).
func (a *Arena) NewShaNode(pc int, param *Expr) *Node {
	n := a.alloc(KindSha)
	n.PC = pc
	n.HasPC = true
	n.Value = param
	return n
}

// NewExpNode allocates a fresh Exp(base, exp) node for a non-concrete EXP.
func (a *Arena) NewExpNode(base, exp *Expr) *Node {
	n := a.alloc(KindExp)
	n.Value = NewOp("EXP", base, exp)
	n.Args = []Arg{{Label: "base", Value: base}, {Label: "exponent", Value: exp}}
	return n
}

// NewArithNode allocates an Arith(op, operands, pc) node.
func (a *Arena) NewArithNode(op string, operands []*Expr, pc int) *Node {
	n := a.alloc(KindArith)
	n.Op = op
	n.Value = NewOp(op, operands...)
	n.PC = pc
	n.HasPC = true
	return n
}

// NewSStoreNode returns the pc-keyed idempotent Write node for an SSTORE,
// allocating it on first visit.
func (a *Arena) NewSStoreNode(pc int, key, val *Expr) (*Node, bool) {
	if existing, ok := a.sstoreByPC[pc]; ok {
		return existing, true
	}
	n := a.alloc(KindInstructionOp)
	n.Name = "SSTORE"
	n.PC = pc
	n.HasPC = true
	n.Args = []Arg{{Label: "key", Value: key}, {Label: "value", Value: val}}
	a.sstoreByPC[pc] = n
	return n, false
}

// NewMessageCallNode returns the pc-keyed idempotent node for a CALL-family
// opcode, allocating it on first visit. args must follow the fixed named
// slot tables from §4.3.1 (call: gas, recipient, value, in_off, in_len,
// out_off, out_len; delegate/static omits value).
func (a *Arena) NewMessageCallNode(pc int, opcode string, args []Arg) (*Node, bool) {
	if existing, ok := a.messageCallByPC[pc]; ok {
		return existing, true
	}
	n := a.alloc(KindInstructionOp)
	n.Name = opcode
	n.PC = pc
	n.HasPC = true
	n.Args = args
	a.messageCallByPC[pc] = n
	return n, false
}

// NewTerminalNode returns the pc-keyed idempotent node for a terminal
// opcode (STOP/RETURN/REVERT/SELFDESTRUCT/INVALID/ASSERTFAIL).
func (a *Arena) NewTerminalNode(pc int, opcode string) (*Node, bool) {
	if existing, ok := a.terminalByPC[pc]; ok {
		return existing, true
	}
	n := a.alloc(KindInstructionOp)
	n.Name = opcode
	n.PC = pc
	n.HasPC = true
	a.terminalByPC[pc] = n
	return n, false
}

// NewConstraintNode returns the pc-keyed idempotent Constraint node,
// accumulating (expr, path_id) on repeat visits per §4.4.
func (a *Arena) NewConstraintNode(pc int, expr *Expr, pathID int) (*Node, bool) {
	if existing, ok := a.constraintByPC[pc]; ok {
		existing.Constraints = append(existing.Constraints, PathExpr{Expr: expr, PathID: pathID})
		return existing, true
	}
	n := a.alloc(KindConstraint)
	n.PC = pc
	n.HasPC = true
	n.Constraints = []PathExpr{{Expr: expr, PathID: pathID}}
	a.constraintByPC[pc] = n
	return n, false
}
