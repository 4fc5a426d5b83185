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

// Package interpreter implements the bounded depth-first symbolic
// interpreter over the CFG (§4.3), using an explicit work-stack of
// (block, path) frames rather than native recursion, per §9.
package interpreter

import (
	"github.com/n42blockchain/bytecrumb/internal/evm/value"
)

// TerminationKind classifies why a path stopped exploring.
type TerminationKind string

const (
	TermNormal    TerminationKind = "normal"
	TermException TerminationKind = "exception"
	TermLoopLimit TerminationKind = "loopLimit"
	TermGasLimit  TerminationKind = "gasLimit"
)

// storageEntry is one (key, value) pair in the linear-scan storage map
// (§4.3.1's SLOAD/SSTORE use relaxed structural equality, not a hash map).
type storageEntry struct {
	key *value.Expr
	val *value.Expr
}

// balanceEntry mirrors storageEntry for the address-keyed balance map.
type balanceEntry struct {
	addr    *value.Expr
	balance *value.Expr
}

// PathCondition is one element of the parallel (expr, node, branch_sign)
// arrays described in §3 — Path stores them as one slice of these structs,
// so the three columns always have equal length (§8 invariant 6).
type PathCondition struct {
	Expr   *value.Expr
	Node   *value.Node
	Branch bool
}

// Path is the complete interpreter state traveling down one execution
// branch: stack, memory, storage, balances, pc, miu, and path conditions.
// It owns everything exclusively (§5) except the shared Arena and CFG.
type Path struct {
	ID int

	Stack []*value.Expr

	Memory *Memory

	Storage  []storageEntry
	Balances []balanceEntry

	PC  int
	Miu int // memory-use high-water mark, in 32-byte words

	VisitedEdges map[[2]int]int // (fromBlock,toBlock) -> visit count

	Conditions []PathCondition

	Gas int

	CurrentFunction string

	Termination TerminationKind
	Err         error

	// LastNode is the most recently SSG-registered node on this path, used
	// by Machine.advance to wire automatic control_flow continuity between
	// successive operations (§4.4).
	LastNode *value.Node
}

// clone performs the deep copy used when branching at JUMPI: the true
// branch gets a fresh cloned Path while the false branch mutates the
// parent's state in place (§5; see Machine.stepJumpI).
func (p *Path) clone(nextID int) *Path {
	np := &Path{
		ID:              nextID,
		Stack:           append([]*value.Expr(nil), p.Stack...),
		Memory:          p.Memory.clone(),
		Storage:         append([]storageEntry(nil), p.Storage...),
		Balances:        append([]balanceEntry(nil), p.Balances...),
		PC:              p.PC,
		Miu:             p.Miu,
		VisitedEdges:    cloneVisited(p.VisitedEdges),
		Conditions:      append([]PathCondition(nil), p.Conditions...),
		Gas:             p.Gas,
		CurrentFunction: p.CurrentFunction,
		LastNode:        p.LastNode,
	}
	return np
}

func cloneVisited(m map[[2]int]int) map[[2]int]int {
	out := make(map[[2]int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Push/Pop implement the stack discipline of §4.3.4: arity mismatches are
// reported as errors by the caller (stack underflow is a path exception,
// not a crash).
func (p *Path) Push(e *value.Expr) { p.Stack = append(p.Stack, e) }

func (p *Path) Pop() (*value.Expr, bool) {
	if len(p.Stack) == 0 {
		return nil, false
	}
	top := p.Stack[len(p.Stack)-1]
	p.Stack = p.Stack[:len(p.Stack)-1]
	return top, true
}

func (p *Path) Peek(depth int) (*value.Expr, bool) {
	idx := len(p.Stack) - 1 - depth
	if idx < 0 {
		return nil, false
	}
	return p.Stack[idx], true
}

// SLoad implements the linear-scan relaxed-equality lookup of §4.3.1.
func (p *Path) SLoad(key *value.Expr) (*value.Expr, bool) {
	for _, e := range p.Storage {
		if value.Equal(e.key, key) {
			return e.val, true
		}
	}
	return nil, false
}

// SStore inserts or overwrites (key, val) using the same relaxed equality.
func (p *Path) SStore(key, val *value.Expr) {
	for i, e := range p.Storage {
		if value.Equal(e.key, key) {
			p.Storage[i].val = val
			return
		}
	}
	p.Storage = append(p.Storage, storageEntry{key: key, val: val})
}

// BalanceOf looks up an address's balance using "==0" equality — CALL's rule.
func (p *Path) BalanceOf(addr *value.Expr) (*value.Expr, bool) {
	for _, e := range p.Balances {
		if diffIsZero(e.addr, addr) {
			return e.balance, true
		}
	}
	return nil, false
}

// SetBalance overwrites or inserts an address's balance, again under CALL's
// "==0" equality rule.
func (p *Path) SetBalance(addr, bal *value.Expr) {
	for i, e := range p.Balances {
		if diffIsZero(e.addr, addr) {
			p.Balances[i].balance = bal
			return
		}
	}
	p.Balances = append(p.Balances, balanceEntry{addr: addr, balance: bal})
}

// BalanceOfCallCode looks up a balance using CALLCODE's "!=0" equality test
// — the asymmetry §9's second Open Question documents and preserves rather
// than unifies with CALL's rule.
func (p *Path) BalanceOfCallCode(addr *value.Expr) (*value.Expr, bool) {
	for _, e := range p.Balances {
		if diffIsNonZero(e.addr, addr) {
			return e.balance, true
		}
	}
	return nil, false
}

func diffIsZero(a, b *value.Expr) bool {
	return value.Simplify(value.Sub(a, b)).IsZero()
}

func diffIsNonZero(a, b *value.Expr) bool {
	return !value.Simplify(value.Sub(a, b)).IsZero()
}
