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

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestStructuralDedupOnExpression(t *testing.T) {
	a := NewArena()

	x := NewVar("caller")
	y := NewVar("origin")

	e1 := NewOp("ADD", x, y)
	e2 := NewOp("ADD", y, x) // commutative reorder, simplify(a-b)==0

	n1, existed1 := a.NewExpressionNode(e1, 10)
	assert.False(t, existed1)

	n2, existed2 := a.NewExpressionNode(e2, 20)
	assert.True(t, existed2, "commutative reorder must dedup to the same node")
	assert.Equal(t, n1.ID, n2.ID)
}

func TestStructuralDedupDistinguishesDifferentExpressions(t *testing.T) {
	a := NewArena()

	e1 := NewOp("ADD", NewVar("caller"), NewVar("origin"))
	e2 := NewOp("SUB", NewVar("caller"), NewVar("origin"))

	n1, _ := a.NewExpressionNode(e1, 1)
	n2, _ := a.NewExpressionNode(e2, 2)

	assert.NotEqual(t, n1.ID, n2.ID)
}

func TestConstEquality(t *testing.T) {
	a := NewConst(uint256.NewInt(5))
	b := NewConst(uint256.NewInt(5))
	assert.True(t, Equal(a, b))

	c := NewConst(uint256.NewInt(6))
	assert.False(t, Equal(a, c))
}

func TestConstraintNodeAccumulatesPerPath(t *testing.T) {
	a := NewArena()

	n1, existed1 := a.NewConstraintNode(42, NewVar("cond"), 0)
	assert.False(t, existed1)

	n2, existed2 := a.NewConstraintNode(42, NewVar("cond2"), 1)
	assert.True(t, existed2)
	assert.Equal(t, n1.ID, n2.ID)
	assert.Len(t, n1.Constraints, 2)
}

func TestSStoreIdempotentByPC(t *testing.T) {
	a := NewArena()
	key := NewVar("slot")
	val1 := NewConstUint64(1)
	val2 := NewConstUint64(2)

	n1, existed1 := a.NewSStoreNode(100, key, val1)
	assert.False(t, existed1)

	n2, existed2 := a.NewSStoreNode(100, key, val2)
	assert.True(t, existed2)
	assert.Equal(t, n1.ID, n2.ID)
}
