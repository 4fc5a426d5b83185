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

	"github.com/n42blockchain/bytecrumb/internal/evm/instr"
	"github.com/n42blockchain/bytecrumb/internal/evm/ssg"
	"github.com/n42blockchain/bytecrumb/internal/evm/value"
	berrors "github.com/n42blockchain/bytecrumb/pkg/errors"
)

// opMessageCall handles CALL/CALLCODE/DELEGATECALL/STATICCALL (§4.3.1): it
// pops the fixed named-slot argument tuple (value omitted for
// DELEGATECALL/STATICCALL), allocates the pc-keyed message-call node,
// updates balances, and pushes a pc-keyed symbolic return-status leaf.
//
// CALL and CALLCODE read balances under different equality tests — CALL via
// Path.BalanceOf ("==0"), CALLCODE via Path.BalanceOfCallCode ("!=0") — an
// asymmetry preserved deliberately rather than unified (§9 Open Question).
func (m *Machine) opMessageCall(path *Path, ins instr.Instruction) error {
	gas, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	recipient, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}

	var callValue *value.Expr
	if ins.Opcode == "CALL" || ins.Opcode == "CALLCODE" {
		callValue, ok = path.Pop()
		if !ok {
			return berrors.ErrStackUnderflow
		}
	}

	inOff, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	inLen, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	outOff, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	outLen, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}

	args := []value.Arg{
		{Label: "gas", Value: gas},
		{Label: "recipient", Value: recipient},
	}
	if callValue != nil {
		args = append(args, value.Arg{Label: "value", Value: callValue})
	}
	args = append(args,
		value.Arg{Label: "in_offset", Value: inOff},
		value.Arg{Label: "in_length", Value: inLen},
		value.Arg{Label: "out_offset", Value: outOff},
		value.Arg{Label: "out_length", Value: outLen},
	)

	m.emitBalanceConstraint(path, ins, recipient, callValue)

	node, _ := m.Arena.NewMessageCallNode(ins.PC, ins.Opcode, args)
	m.SSG.Func(path.CurrentFunction).AddNode(node)
	m.advance(path, node)

	if callValue != nil {
		m.applyCallBalance(path, ins.Opcode, recipient, callValue)
	}

	status := value.NewVar("returnstatus@" + strconv.Itoa(ins.PC))
	m.Arena.NewEnvNode(value.KindReturnStatus, status)
	path.Push(status)
	return nil
}

// emitBalanceConstraint records the path condition a message call implies:
// the transferred value cannot exceed the sender's balance, and the
// recipient's balance cannot go negative (§4.3.1). DELEGATECALL/STATICCALL
// carry no value, so transfer is concrete 0 and the constraint is vacuous
// but still recorded for a uniform SSG shape across the CALL family.
func (m *Machine) emitBalanceConstraint(path *Path, ins instr.Instruction, recipient, callValue *value.Expr) {
	transfer := callValue
	if transfer == nil {
		transfer = value.NewConstUint64(0)
	}

	senderBal, ok := path.BalanceOf(value.NewVar(string(value.KindReceiver)))
	if !ok {
		senderBal = value.NewVar("balance:self")
	}
	recipientBal, ok := path.BalanceOf(recipient)
	if !ok {
		recipientBal = value.NewVar("balance:recipient")
	}

	cond := value.NewOp("AND",
		value.NewOp("NOT", value.NewOp("GT", transfer, senderBal)),
		value.NewOp("NOT", value.NewOp("LT", recipientBal, value.NewConstUint64(0))),
	)

	constraintNode, _ := m.Arena.NewConstraintNode(ins.PC, cond, path.ID)
	transferNode, _ := m.Arena.NewExpressionNode(transfer, ins.PC)
	senderNode, _ := m.Arena.NewExpressionNode(senderBal, ins.PC)
	recipientNode, _ := m.Arena.NewExpressionNode(recipientBal, ins.PC)
	m.addEdge(path, ssg.ConstraintFlow, transferNode, constraintNode, "transfer")
	m.addEdge(path, ssg.ConstraintFlow, senderNode, constraintNode, "balance_sender")
	m.addEdge(path, ssg.ConstraintFlow, recipientNode, constraintNode, "balance_recipient")

	path.Conditions = append(path.Conditions, PathCondition{Expr: cond, Node: constraintNode, Branch: true})
	m.advance(path, constraintNode)
}

func (m *Machine) applyCallBalance(path *Path, opcode string, recipient, callValue *value.Expr) {
	switch opcode {
	case "CALL":
		existing, ok := path.BalanceOf(recipient)
		if !ok {
			existing = value.NewConstUint64(0)
		}
		path.SetBalance(recipient, value.NewOp("ADD", existing, callValue))
	case "CALLCODE":
		if _, ok := path.BalanceOfCallCode(recipient); !ok {
			path.SetBalance(recipient, callValue)
		}
	}
}
