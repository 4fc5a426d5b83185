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

// Kind enumerates the symbolic value universe's tagged variants (§4.2).
type Kind string

const (
	KindConst         Kind = "const"
	KindVar           Kind = "var"
	KindExpression    Kind = "expression"
	KindAddress       Kind = "address"
	KindStorage       Kind = "storage"
	KindMemory        Kind = "memory"
	KindInputData     Kind = "input_data"
	KindInputDataSize Kind = "input_data_size"
	KindReturnData    Kind = "return_data"
	KindReturnDataSz  Kind = "return_data_size"
	KindReturnStatus  Kind = "return_status"
	KindCode          Kind = "code"
	KindExtcodeSize   Kind = "extcode_size"
	KindExtcodeHash   Kind = "extcode_hash"
	KindBalance       Kind = "balance"
	KindSender        Kind = "sender"
	KindReceiver      Kind = "receiver"
	KindDepositValue  Kind = "deposit_value"
	KindGasPrice      Kind = "gas_price"
	KindOrigin        Kind = "origin"
	KindCoinbase      Kind = "coinbase"
	KindDifficulty    Kind = "difficulty"
	KindGasLimit      Kind = "gas_limit"
	KindTimeStamp     Kind = "timestamp"
	KindNumber        Kind = "number"
	KindBlockHash     Kind = "blockhash"
	KindChainID       Kind = "chain_id"
	KindBaseFee       Kind = "base_fee"
	KindGas           Kind = "gas"
	KindSha           Kind = "sha3"
	KindExp           Kind = "exp"
	KindArith         Kind = "arith"
	KindInstructionOp Kind = "instruction_op"
	KindConstraint    Kind = "constraint"
)

// Arg is a named, labeled value-flow source for an operation node.
type Arg struct {
	Label string
	Value *Expr
}

// PathExpr pairs a constraint's expression with the path that recorded it,
// letting a single pc-keyed Constraint node accumulate (expr, path_id) on
// repeated visits instead of allocating a fresh node per path.
type PathExpr struct {
	Expr   *Expr
	PathID int
}

// Node is one allocated value in the symbolic value universe, identified by
// a monotonic integer ID (the arena-handle identity §9 calls for).
type Node struct {
	ID   int
	Kind Kind

	PC    int
	HasPC bool

	SourceLines []int

	// Value is the algebraic payload for Const/Expression/Arith/Exp/Sha nodes.
	Value *Expr

	// Slot carries the address/slot/offset the node indexes by (Storage's
	// slot, Memory's offset, Address's underlying expr, Balance/Code/
	// Extcode*'s address).
	Slot *Expr

	// Args is the operand vector for InstructionOp-family nodes (SSTORE,
	// CALL/CALLCODE/DELEGATECALL/STATICCALL, terminals).
	Args []Arg

	// Name distinguishes same-Kind opaque leaves (unused by most kinds).
	Name string

	// Op names the arithmetic operator for Arith nodes.
	Op string

	// Constraints accumulates this Constraint node's (expr, path_id) history.
	Constraints []PathExpr

	// CallPC names the call site pc for ReturnData/ReturnStatus/ReturnDataSize.
	CallPC int
}

func (n *Node) String() string {
	if n.Value != nil {
		return string(n.Kind) + ":" + n.Value.String()
	}
	return string(n.Kind)
}
