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
	"errors"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"github.com/n42blockchain/bytecrumb/internal/evm/instr"
	"github.com/n42blockchain/bytecrumb/internal/evm/ssg"
	"github.com/n42blockchain/bytecrumb/internal/evm/value"
	berrors "github.com/n42blockchain/bytecrumb/pkg/errors"
)

// errDivisionByZero signals that DIV/SDIV/MOD/SMOD hit a concretely-zero
// divisor: the result is concrete 0 and the path terminates normally,
// without an SMT query (§4.3.1's divisor-zero invariant). It is an internal
// control-flow sentinel, not a caller-facing error, so it stays out of
// pkg/errors.
var errDivisionByZero = errors.New("division by zero")

// stepOpcode executes every opcode other than JUMP/JUMPI and the terminal
// family (both handled directly by stepBlock), per §4.3.1's opcode table.
// Arithmetic and comparison ops fold eagerly when every operand is concrete
// (via value.Simplify) and otherwise allocate an Arith node recording the
// operation symbolically.
func (m *Machine) stepOpcode(path *Path, ins instr.Instruction) error {
	switch {
	case strings.HasPrefix(ins.Opcode, "PUSH"):
		return m.opPush(path, ins)
	case strings.HasPrefix(ins.Opcode, "DUP"):
		return m.opDup(path, ins)
	case strings.HasPrefix(ins.Opcode, "SWAP"):
		return m.opSwap(path, ins)
	case strings.HasPrefix(ins.Opcode, "LOG"):
		return m.opLog(path, ins)
	}

	switch ins.Opcode {
	case "POP":
		_, ok := path.Pop()
		if !ok {
			return berrors.ErrStackUnderflow
		}
		return nil
	case "DIV", "SDIV", "MOD", "SMOD":
		return m.opDivisionDispatch(path, ins)
	case "EXP":
		return m.opExpDispatch(path, ins)
	case "ADD", "SUB", "MUL", "SIGNEXTEND",
		"LT", "GT", "SLT", "SGT", "EQ", "AND", "OR", "XOR", "BYTE", "SHL", "SHR", "SAR":
		return m.opBinary(path, ins)
	case "ADDMOD", "MULMOD":
		return m.opTernary(path, ins)
	case "ISZERO", "NOT":
		return m.opUnary(path, ins)
	case "SHA3":
		return m.opSha3(path, ins)
	case "ADDRESS":
		return m.pushEnv(path, value.KindReceiver)
	case "BALANCE":
		return m.opBalance(path)
	case "CALLER":
		return m.pushEnv(path, value.KindSender)
	case "CALLVALUE":
		return m.pushEnv(path, value.KindDepositValue)
	case "ORIGIN":
		return m.pushEnv(path, value.KindOrigin)
	case "GASPRICE":
		return m.pushEnv(path, value.KindGasPrice)
	case "COINBASE":
		return m.pushEnv(path, value.KindCoinbase)
	case "DIFFICULTY", "PREVRANDAO":
		return m.pushEnv(path, value.KindDifficulty)
	case "GASLIMIT":
		return m.pushEnv(path, value.KindGasLimit)
	case "TIMESTAMP":
		return m.pushEnv(path, value.KindTimeStamp)
	case "NUMBER":
		return m.pushEnv(path, value.KindNumber)
	case "CHAINID":
		return m.pushEnv(path, value.KindChainID)
	case "BASEFEE":
		return m.pushEnv(path, value.KindBaseFee)
	case "GAS":
		return m.pushEnv(path, value.KindGas)
	case "CALLDATASIZE":
		path.Push(m.leaf(value.KindInputDataSize, value.NewVar("calldatasize")))
		return nil
	case "CALLDATALOAD":
		return m.opCallDataLoad(path)
	case "CALLDATACOPY", "CODECOPY", "EXTCODECOPY", "RETURNDATACOPY":
		return m.opCopyToMemory(path, ins.Opcode)
	case "CODESIZE":
		path.Push(m.leaf(value.KindCode, value.NewVar("codesize")))
		return nil
	case "EXTCODESIZE":
		if _, ok := path.Pop(); !ok {
			return berrors.ErrStackUnderflow
		}
		path.Push(m.leaf(value.KindExtcodeSize, value.NewVar("extcodesize")))
		return nil
	case "EXTCODEHASH":
		if _, ok := path.Pop(); !ok {
			return berrors.ErrStackUnderflow
		}
		path.Push(m.leaf(value.KindExtcodeHash, value.NewVar("extcodehash")))
		return nil
	case "RETURNDATASIZE":
		path.Push(m.leaf(value.KindReturnDataSz, value.NewVar("returndatasize")))
		return nil
	case "BLOCKHASH":
		if _, ok := path.Pop(); !ok {
			return berrors.ErrStackUnderflow
		}
		path.Push(m.leaf(value.KindBlockHash, value.NewVar("blockhash")))
		return nil
	case "MLOAD":
		return m.opMload(path)
	case "MSTORE":
		return m.opMstore(path, 32)
	case "MSTORE8":
		return m.opMstore(path, 1)
	case "MSIZE":
		path.Push(value.NewConstUint64(uint64(path.Miu * 32)))
		return nil
	case "SLOAD":
		return m.opSload(path, ins.PC)
	case "SSTORE":
		return m.opSstore(path, ins.PC)
	case "JUMPDEST":
		return nil
	case "CREATE", "CREATE2":
		return m.opCreate(path, ins)
	case "CALL", "CALLCODE", "DELEGATECALL", "STATICCALL":
		return m.opMessageCall(path, ins)
	default:
		return nil
	}
}

func (m *Machine) pushEnv(path *Path, kind value.Kind) error {
	path.Push(value.NewVar(string(kind)))
	return nil
}

func (m *Machine) leaf(kind value.Kind, v *value.Expr) *value.Expr {
	m.Arena.NewEnvNode(kind, v)
	return v
}

func (m *Machine) opPush(path *Path, ins instr.Instruction) error {
	if ins.Immediate == "" {
		path.Push(value.NewConstUint64(0))
		return nil
	}
	clean := strings.TrimPrefix(ins.Immediate, "0x")
	var v uint256.Int
	if err := v.SetFromHex("0x" + clean); err != nil {
		path.Push(value.NewVar("push:" + ins.Immediate))
		return nil
	}
	path.Push(value.NewConst(&v))
	return nil
}

func (m *Machine) opDup(path *Path, ins instr.Instruction) error {
	n, _ := strconv.Atoi(strings.TrimPrefix(ins.Opcode, "DUP"))
	v, ok := path.Peek(n - 1)
	if !ok {
		return berrors.ErrStackUnderflow
	}
	path.Push(v)
	return nil
}

func (m *Machine) opSwap(path *Path, ins instr.Instruction) error {
	n, _ := strconv.Atoi(strings.TrimPrefix(ins.Opcode, "SWAP"))
	top := len(path.Stack) - 1
	other := top - n
	if top < 0 || other < 0 {
		return berrors.ErrStackUnderflow
	}
	path.Stack[top], path.Stack[other] = path.Stack[other], path.Stack[top]
	return nil
}

func (m *Machine) opLog(path *Path, ins instr.Instruction) error {
	n, _ := strconv.Atoi(strings.TrimPrefix(ins.Opcode, "LOG"))
	if _, ok := path.Pop(); !ok { // offset
		return berrors.ErrStackUnderflow
	}
	if _, ok := path.Pop(); !ok { // size
		return berrors.ErrStackUnderflow
	}
	for i := 0; i < n; i++ {
		if _, ok := path.Pop(); !ok {
			return berrors.ErrStackUnderflow
		}
	}
	return nil
}

// opBinary covers every opcode that pops two operands and pushes one
// result, folding eagerly when both sides are concrete. x is the
// top-of-stack operand (popped first), y the second — EVM stack order, so
// e.g. SUB computes x-y and DIV computes x/y.
func (m *Machine) opBinary(path *Path, ins instr.Instruction) error {
	x, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	y, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	result := value.Simplify(value.NewOp(ins.Opcode, x, y))
	if !result.IsConst {
		node := m.Arena.NewArithNode(ins.Opcode, []*value.Expr{x, y}, ins.PC)
		result = node.Value
	}
	path.Push(result)
	return nil
}

// opTernary covers ADDMOD/MULMOD: x, y are the addends/factors, z the
// modulus (EVM stack order: x popped first, z popped last).
func (m *Machine) opTernary(path *Path, ins instr.Instruction) error {
	x, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	y, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	z, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	result := value.Simplify(value.NewOp(ins.Opcode, x, y, z))
	if !result.IsConst {
		node := m.Arena.NewArithNode(ins.Opcode, []*value.Expr{x, y, z}, ins.PC)
		result = node.Value
	}
	path.Push(result)
	return nil
}

func (m *Machine) opUnary(path *Path, ins instr.Instruction) error {
	x, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	result := value.Simplify(value.NewOp(ins.Opcode, x))
	if !result.IsConst {
		node := m.Arena.NewArithNode(ins.Opcode, []*value.Expr{x}, ins.PC)
		result = node.Value
	}
	path.Push(result)
	return nil
}

// opDivisionDispatch handles DIV/SDIV/MOD/SMOD's divisor-zero invariant
// (§4.3.1): x is the dividend (top of stack), y the divisor. A concretely
// zero divisor pushes concrete 0 and signals errDivisionByZero so the
// caller terminates the path normally without an SMT query. A symbolic
// divisor instead extends the path's conditions with "y != 0".
func (m *Machine) opDivisionDispatch(path *Path, ins instr.Instruction) error {
	x, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	y, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}

	if y.IsConst && y.Const.IsZero() {
		path.Push(value.NewConstUint64(0))
		return errDivisionByZero
	}

	if !y.IsConst {
		nonZero := value.NewOp("NOT", value.NewOp("ISZERO", y))
		constraintNode, _ := m.Arena.NewConstraintNode(ins.PC, nonZero, path.ID)
		yNode, _ := m.Arena.NewExpressionNode(y, ins.PC)
		m.addEdge(path, ssg.ConstraintFlow, yNode, constraintNode, "")
		path.Conditions = append(path.Conditions, PathCondition{Expr: nonZero, Node: constraintNode, Branch: true})
		m.advance(path, constraintNode)
	}

	result := value.Simplify(value.NewOp(ins.Opcode, x, y))
	if !result.IsConst {
		node := m.Arena.NewArithNode(ins.Opcode, []*value.Expr{x, y}, ins.PC)
		result = node.Value
	}
	path.Push(result)
	return nil
}

// opExpDispatch handles EXP (§4.3.1): base is x (top of stack), exponent is
// y. Concrete operands fold eagerly; otherwise a fresh Exp node is
// allocated via Arena.NewExpNode rather than falling into the generic
// Arith path.
func (m *Machine) opExpDispatch(path *Path, ins instr.Instruction) error {
	base, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	exponent, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}

	result := value.Simplify(value.NewOp("EXP", base, exponent))
	if result.IsConst {
		path.Push(result)
		return nil
	}

	node := m.Arena.NewExpNode(base, exponent)
	m.SSG.Func(path.CurrentFunction).AddNode(node)
	m.advance(path, node)
	path.Push(node.Value)
	return nil
}

// opSha3 reads the hashed content from path.Memory at [offset, offset+size)
// rather than treating the popped size operand as the result (§4.3.1).
// A matching symbolic override is wrapped directly; a fully concrete range
// is read byte-accurately; any other symbolic range allocates a fresh
// opaque leaf, since no concrete content is available to key on.
func (m *Machine) opSha3(path *Path, ins instr.Instruction) error {
	offset, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	size, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}

	var hashed *value.Expr
	if v, ok := path.Memory.ReadSymbolicOverride(offset, size); ok {
		hashed = value.NewOp("SHA3", v)
	} else if offset.IsConst && size.IsConst {
		off, n := int(offset.Const.Uint64()), int(size.Const.Uint64())
		path.Miu = max(path.Miu, Miu(off, n))
		hashed = value.NewOp("SHA3", path.Memory.ReadConcrete(off, n))
	} else {
		hashed = value.NewVar("sha3@" + strconv.Itoa(ins.PC))
	}

	node := m.Arena.NewShaNode(ins.PC, hashed)
	m.SSG.Func(path.CurrentFunction).AddNode(node)
	m.advance(path, node)
	path.Push(node.Value)
	return nil
}

func (m *Machine) opBalance(path *Path) error {
	addr, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	if bal, ok := path.BalanceOf(addr); ok {
		path.Push(bal)
		return nil
	}
	path.Push(value.NewOp("BALANCE", addr))
	return nil
}

func (m *Machine) opCallDataLoad(path *Path) error {
	offset, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	path.Push(value.NewOp("CALLDATALOAD", offset))
	return nil
}

// opCopyToMemory pops the (destOffset, offset, size) triple shared by every
// *COPY opcode (EXTCODECOPY has a leading address operand too) and writes a
// symbolic placeholder into memory.
func (m *Machine) opCopyToMemory(path *Path, opcode string) error {
	if opcode == "EXTCODECOPY" {
		if _, ok := path.Pop(); !ok {
			return berrors.ErrStackUnderflow
		}
	}
	destOffset, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	if _, ok := path.Pop(); !ok { // source offset
		return berrors.ErrStackUnderflow
	}
	size, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	path.Memory.WriteSymbolic(destOffset, size, value.NewVar(opcode))
	if destOffset.IsConst && size.IsConst {
		path.Miu = max(path.Miu, Miu(int(destOffset.Const.Uint64()), int(size.Const.Uint64())))
	}
	return nil
}

func (m *Machine) opMload(path *Path) error {
	offset, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	if v, ok := path.Memory.ReadSymbolicOverride(offset, value.NewConstUint64(32)); ok {
		path.Push(v)
		return nil
	}
	if offset.IsConst {
		off := int(offset.Const.Uint64())
		path.Miu = max(path.Miu, Miu(off, 32))
		path.Push(path.Memory.ReadConcrete(off, 32))
		return nil
	}
	path.Push(m.Arena.NewMemoryNode(offset).Slot)
	return nil
}

func (m *Machine) opMstore(path *Path, size int) error {
	offset, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	v, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	if offset.IsConst && v.IsConst {
		off := int(offset.Const.Uint64())
		path.Memory.WriteConcrete(off, size, v)
		path.Miu = max(path.Miu, Miu(off, size))
		return nil
	}
	path.Memory.WriteSymbolic(offset, value.NewConstUint64(uint64(size)), v)
	return nil
}

func (m *Machine) opSload(path *Path, pc int) error {
	slot, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	if v, ok := path.SLoad(slot); ok {
		path.Push(v)
		return nil
	}
	node := m.Arena.NewStorageNode(slot, pc)
	path.Push(node.Slot)
	return nil
}

func (m *Machine) opSstore(path *Path, pc int) error {
	slot, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	v, ok := path.Pop()
	if !ok {
		return berrors.ErrStackUnderflow
	}
	path.SStore(slot, v)
	node, _ := m.Arena.NewSStoreNode(pc, slot, v)
	m.SSG.Func(path.CurrentFunction).AddNode(node)

	slotNode, _ := m.Arena.NewExpressionNode(slot, pc)
	valNode, _ := m.Arena.NewExpressionNode(v, pc)
	m.addEdge(path, ssg.ValueFlow, slotNode, node, "key")
	m.addEdge(path, ssg.ValueFlow, valNode, node, "value")
	m.advance(path, node)
	return nil
}

func (m *Machine) opCreate(path *Path, ins instr.Instruction) error {
	n := 3
	if ins.Opcode == "CREATE2" {
		n = 4
	}
	for i := 0; i < n; i++ {
		if _, ok := path.Pop(); !ok {
			return berrors.ErrStackUnderflow
		}
	}
	path.Push(value.NewVar(ins.Opcode + "@" + strconv.Itoa(ins.PC)))
	return nil
}
