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

func TestMachineRunSingleBlockStop(t *testing.T) {
	c := cfg.Build("PUSH1 0x01 PUSH1 0x02 ADD STOP", nil, nil)

	arena := value.NewArena()
	graph := ssg.New()
	m := NewMachine(c, arena, graph)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Run(ctx)

	require.Len(t, m.Results, 1)
	require.Equal(t, TermNormal, m.Results[0].Termination)
	require.Nil(t, m.Results[0].Err)
}

func TestMachineRunBranchingContract(t *testing.T) {
	// PUSH1 0x01 ISZERO PUSH1 <jumpdest> JUMPI PUSH1 0x00 STOP JUMPDEST STOP
	code := "PUSH1 0x01 ISZERO PUSH1 0x09 JUMPI PUSH1 0x00 STOP JUMPDEST STOP"
	c := cfg.Build(code, nil, nil)

	arena := value.NewArena()
	graph := ssg.New()
	m := NewMachine(c, arena, graph)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Run(ctx)

	require.NotEmpty(t, m.Results)
	for _, r := range m.Results {
		require.Equal(t, TermNormal, r.Termination)
	}
}

func TestMachineRunHonorsDeadline(t *testing.T) {
	// A self-loop: JUMPDEST PUSH1 <self> JUMP, bounded by EdgeVisitLimit
	// regardless of deadline, but confirm Run terminates either way.
	code := "JUMPDEST PUSH1 0x00 JUMP"
	c := cfg.Build(code, nil, nil)

	arena := value.NewArena()
	graph := ssg.New()
	m := NewMachine(c, arena, graph)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not terminate within the loop/edge limits")
	}
}
