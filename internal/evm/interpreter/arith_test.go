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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/bytecrumb/internal/evm/cfg"
	"github.com/n42blockchain/bytecrumb/internal/evm/ssg"
	"github.com/n42blockchain/bytecrumb/internal/evm/value"
)

func run(t *testing.T, code string) *Machine {
	t.Helper()
	c := cfg.Build(code, nil, nil)
	m := NewMachine(c, value.NewArena(), ssg.New())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Run(ctx)
	return m
}

// PUSH1 0; PUSH1 1; DIV -> concrete 0, path terminates normally without an
// SMT query (the divisor-zero invariant).
func TestConcreteDivisorZeroTerminatesNormally(t *testing.T) {
	m := run(t, "PUSH1 0x00 PUSH1 0x01 DIV STOP")
	require.Len(t, m.Results, 1)
	require.Equal(t, TermNormal, m.Results[0].Termination)
	require.Nil(t, m.Results[0].Err)
}

func TestConcreteModZeroFoldsToZero(t *testing.T) {
	m := run(t, "PUSH1 0x00 PUSH1 0x07 MOD STOP")
	require.Len(t, m.Results, 1)
	require.Equal(t, TermNormal, m.Results[0].Termination)
}

func TestConcreteExpFolds(t *testing.T) {
	// 2 ^ 3 = 8, folded to a constant when EXP executes, so the path runs straight through.
	m := run(t, "PUSH1 0x03 PUSH1 0x02 EXP STOP")
	require.Len(t, m.Results, 1)
	require.Equal(t, TermNormal, m.Results[0].Termination)
}

func TestSstoreEmitsValueFlowEdges(t *testing.T) {
	m := run(t, "PUSH1 0x02 PUSH1 0x01 SSTORE STOP")
	edges := m.SSG.Func(ssg.GlobalFunction).Edges()

	var sawValueFlow, sawControlFlow bool
	for _, e := range edges {
		switch e.Kind {
		case ssg.ValueFlow:
			sawValueFlow = true
		case ssg.ControlFlow:
			sawControlFlow = true
		}
	}
	require.True(t, sawValueFlow, "SSTORE should wire value_flow edges from its key/value operands")
	require.True(t, sawControlFlow, "the terminal node should be wired to the SSTORE node by control_flow")
}

func TestSha3ReadsMemoryNotSize(t *testing.T) {
	// MSTORE writes the value 0 at offset 0, then SHA3 hashes the real 32 bytes
	// written there rather than pushing the popped size operand (32) itself.
	m := run(t, "PUSH1 0x00 PUSH1 0x00 MSTORE PUSH1 0x20 PUSH1 0x00 SHA3 STOP")
	require.Len(t, m.Results, 1)
	require.Equal(t, TermNormal, m.Results[0].Termination)

	var sawSha bool
	for _, n := range m.Arena.Nodes() {
		if n.Kind == value.KindSha {
			sawSha = true
			require.Equal(t, "SHA3", n.Value.Op, "a SHA3 node's value must wrap the hashed content, not the raw size operand")
		}
	}
	require.True(t, sawSha)
}
