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

// Package value implements the symbolic value universe (§4.2): the
// algebraic expression representation, the node taxonomy, and the arena
// that allocates nodes with integer handles and performs
// "simplify(a-b)==0" structural dedup.
package value

import (
	"fmt"
	"sort"
	"strings"

	"github.com/holiman/uint256"
)

// Expr is a 256-bit algebraic expression: either a concrete constant or a
// symbolic operation tree. It is intentionally a syntactic representation,
// not an SMT term — feasibility checking stays syntactic, not solver-backed.
type Expr struct {
	// Const holds the concrete value when IsConst is true.
	Const   *uint256.Int
	IsConst bool

	// Op/Operands describe a symbolic node: Op is e.g. "ADD","SUB","VAR","SLOAD".
	Op       string
	Operands []*Expr

	// Name distinguishes opaque symbolic leaves (e.g. environment vars) that
	// share Op=="VAR" but refer to different quantities.
	Name string
}

// commutative lists opcodes whose operand order does not affect value,
// used to canonicalize for structural dedup.
var commutative = map[string]bool{"ADD": true, "MUL": true, "AND": true, "OR": true, "XOR": true}

// NewConst builds a concrete leaf.
func NewConst(v *uint256.Int) *Expr {
	return &Expr{Const: new(uint256.Int).Set(v), IsConst: true}
}

// NewConstUint64 builds a concrete leaf from a uint64.
func NewConstUint64(v uint64) *Expr {
	return NewConst(uint256.NewInt(v))
}

// NewVar builds an opaque symbolic leaf identified by name (e.g. "caller",
// "origin", "storage:<slot>").
func NewVar(name string) *Expr {
	return &Expr{Op: "VAR", Name: name}
}

// NewOp builds a symbolic operation node over operands.
func NewOp(op string, operands ...*Expr) *Expr {
	return &Expr{Op: op, Operands: operands}
}

// String renders a canonical textual form used both for display and as the
// dedup key (after Simplify).
func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	if e.IsConst {
		return e.Const.Hex()
	}
	if e.Op == "VAR" {
		return "var:" + e.Name
	}
	parts := make([]string, len(e.Operands))
	for i, o := range e.Operands {
		parts[i] = o.String()
	}
	return e.Op + "(" + strings.Join(parts, ",") + ")"
}

// Simplify performs best-effort constant folding and commutative-operand
// canonicalization. It is not a full computer-algebra simplifier: it makes
// "simplify(a-b)==0" decidable for syntactically-equal-up-to-commutativity
// expressions, which covers the common cases this system's metrics rely on
// (see DESIGN.md).
func Simplify(e *Expr) *Expr {
	if e == nil || e.IsConst || e.Op == "VAR" {
		return e
	}
	operands := make([]*Expr, len(e.Operands))
	for i, o := range e.Operands {
		operands[i] = Simplify(o)
	}

	if commutative[e.Op] {
		sort.Slice(operands, func(i, j int) bool { return operands[i].String() < operands[j].String() })
	}

	allConst := len(operands) > 0
	for _, o := range operands {
		if !o.IsConst {
			allConst = false
			break
		}
	}
	if allConst {
		if v, ok := foldConst(e.Op, operands); ok {
			return NewConst(v)
		}
	}

	return &Expr{Op: e.Op, Operands: operands}
}

// foldConst evaluates the §4.3.1 opcode table over concrete operands.
// Binary operands are (x, y) in EVM stack order: x is the top-of-stack
// value (popped first), y is popped second — so SUB computes x-y, DIV
// computes x/y, and so on, matching go-ethereum's instruction semantics.
// Ternary ops additionally take z, the modulus.
func foldConst(op string, operands []*Expr) (*uint256.Int, bool) {
	bin := func() (x, y *uint256.Int, ok bool) {
		if len(operands) != 2 {
			return nil, nil, false
		}
		return operands[0].Const, operands[1].Const, true
	}
	tern := func() (x, y, z *uint256.Int, ok bool) {
		if len(operands) != 3 {
			return nil, nil, nil, false
		}
		return operands[0].Const, operands[1].Const, operands[2].Const, true
	}
	un := func() (x *uint256.Int, ok bool) {
		if len(operands) != 1 {
			return nil, false
		}
		return operands[0].Const, true
	}

	switch op {
	case "ADD":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return new(uint256.Int).Add(x, y), true
	case "SUB":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return new(uint256.Int).Sub(x, y), true
	case "MUL":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return new(uint256.Int).Mul(x, y), true
	case "DIV":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return new(uint256.Int).Div(x, y), true
	case "SDIV":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return new(uint256.Int).SDiv(x, y), true
	case "MOD":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return new(uint256.Int).Mod(x, y), true
	case "SMOD":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return new(uint256.Int).SMod(x, y), true
	case "ADDMOD":
		x, y, z, ok := tern()
		if !ok {
			return nil, false
		}
		if z.IsZero() {
			return new(uint256.Int), true
		}
		return new(uint256.Int).AddMod(x, y, z), true
	case "MULMOD":
		x, y, z, ok := tern()
		if !ok {
			return nil, false
		}
		if z.IsZero() {
			return new(uint256.Int), true
		}
		return new(uint256.Int).MulMod(x, y, z), true
	case "EXP":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return new(uint256.Int).Exp(x, y), true
	case "SIGNEXTEND":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return new(uint256.Int).ExtendSign(y, x), true
	case "LT":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return boolInt(x.Lt(y)), true
	case "GT":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return boolInt(x.Gt(y)), true
	case "SLT":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return boolInt(x.Slt(y)), true
	case "SGT":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return boolInt(x.Sgt(y)), true
	case "EQ":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return boolInt(x.Eq(y)), true
	case "AND":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return new(uint256.Int).And(x, y), true
	case "OR":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return new(uint256.Int).Or(x, y), true
	case "XOR":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return new(uint256.Int).Xor(x, y), true
	case "NOT":
		x, ok := un()
		if !ok {
			return nil, false
		}
		return new(uint256.Int).Not(x), true
	case "ISZERO":
		x, ok := un()
		if !ok {
			return nil, false
		}
		return boolInt(x.IsZero()), true
	case "BYTE":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		result := new(uint256.Int).Set(y)
		result.Byte(x)
		return result, true
	case "SHL":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return shiftLeft(x, y), true
	case "SHR":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return shiftRight(x, y), true
	case "SAR":
		x, y, ok := bin()
		if !ok {
			return nil, false
		}
		return shiftArith(x, y), true
	default:
		return nil, false
	}
}

// boolInt renders an EVM boolean (0/1) result.
func boolInt(b bool) *uint256.Int {
	if b {
		return uint256.NewInt(1)
	}
	return new(uint256.Int)
}

// shiftLeft computes y << x, per opSHL: a shift amount >= 256 is always 0.
func shiftLeft(x, y *uint256.Int) *uint256.Int {
	if !x.LtUint64(256) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Lsh(y, uint(x.Uint64()))
}

// shiftRight computes y >> x (logical), per opSHR: a shift amount >= 256
// is always 0.
func shiftRight(x, y *uint256.Int) *uint256.Int {
	if !x.LtUint64(256) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Rsh(y, uint(x.Uint64()))
}

// shiftArith computes y >> x (arithmetic), per opSAR: a shift amount > 256
// collapses to 0 or all-ones depending on y's sign.
func shiftArith(x, y *uint256.Int) *uint256.Int {
	if x.GtUint64(256) {
		if y.Sign() >= 0 {
			return new(uint256.Int)
		}
		return new(uint256.Int).SetAllOne()
	}
	return new(uint256.Int).SRsh(y, uint(x.Uint64()))
}

// Sub builds SUB(a, b) unevaluated.
func Sub(a, b *Expr) *Expr { return NewOp("SUB", a, b) }

// IsZero reports whether a simplified expression is the concrete zero.
func (e *Expr) IsZero() bool {
	return e != nil && e.IsConst && e.Const.IsZero()
}

// Equal reports relaxed structural equality: simplify(a-b)==0.
// Two concrete values compare numerically; two symbolic expressions compare
// by canonical string equality (a conservative approximation — see
// DESIGN.md for why full algebraic equivalence is out of scope).
func Equal(a, b *Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.IsConst && b.IsConst {
		return a.Const.Eq(b.Const)
	}
	if a.IsConst != b.IsConst {
		return false
	}
	return Simplify(a).String() == Simplify(b).String()
}

// MustHex is a test/debug helper rendering a concrete Expr as 0x-hex.
func (e *Expr) MustHex() string {
	if !e.IsConst {
		panic(fmt.Sprintf("MustHex on symbolic expr %s", e.String()))
	}
	return e.Const.Hex()
}
