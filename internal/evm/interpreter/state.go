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
	"github.com/n42blockchain/bytecrumb/internal/evm/value"
)

// InitialState allocates the symbolic constants wired as value-flow sources
// for every environmental quantity and the first path, per §4.3.3.
type InitialState struct {
	Sender       *value.Node
	Receiver     *value.Node
	DepositValue *value.Node
	GasPrice     *value.Node
	Origin       *value.Node
	Coinbase     *value.Node
	Difficulty   *value.Node
	GasLimit     *value.Node
	TimeStamp    *value.Node
	Number       *value.Node
	ChainID      *value.Node
	BaseFee      *value.Node
	Gas          *value.Node
}

// NewInitialState allocates the environment nodes and returns them together
// with the seeded Path whose initial condition is
// "deposit >= 0 AND balance(sender) >= deposit AND balance(receiver) >= 0",
// with sender/receiver balances adjusted by the deposit, per §4.3.3.
func NewInitialState(arena *value.Arena) (*InitialState, *Path) {
	sender := arena.NewEnvNode(value.KindSender, value.NewVar("sender"))
	receiver := arena.NewEnvNode(value.KindReceiver, value.NewVar("receiver"))
	deposit := arena.NewEnvNode(value.KindDepositValue, value.NewVar("deposit_value"))

	st := &InitialState{
		Sender:       sender,
		Receiver:     receiver,
		DepositValue: deposit,
		GasPrice:     arena.NewEnvNode(value.KindGasPrice, value.NewVar("gasprice")),
		Origin:       arena.NewEnvNode(value.KindOrigin, value.NewVar("origin")),
		Coinbase:     arena.NewEnvNode(value.KindCoinbase, value.NewVar("coinbase")),
		Difficulty:   arena.NewEnvNode(value.KindDifficulty, value.NewVar("difficulty")),
		GasLimit:     arena.NewEnvNode(value.KindGasLimit, value.NewVar("gaslimit")),
		TimeStamp:    arena.NewEnvNode(value.KindTimeStamp, value.NewVar("timestamp")),
		Number:       arena.NewEnvNode(value.KindNumber, value.NewVar("number")),
		ChainID:      arena.NewEnvNode(value.KindChainID, value.NewVar("chainid")),
		BaseFee:      arena.NewEnvNode(value.KindBaseFee, value.NewVar("basefee")),
		Gas:          arena.NewEnvNode(value.KindGas, value.NewVar("gas")),
	}

	senderBalance := value.NewVar("balance(sender)")
	receiverBalance := value.NewVar("balance(receiver)")
	senderAfter := value.NewOp("ADD", senderBalance, deposit.Value)
	receiverAfter := value.NewOp("ADD", receiverBalance, deposit.Value)

	path := &Path{
		ID:           0,
		Memory:       NewMemory(),
		VisitedEdges: map[[2]int]int{},
	}
	path.SetBalance(sender.Value, senderAfter)
	path.SetBalance(receiver.Value, receiverAfter)

	path.Conditions = []PathCondition{
		{Expr: value.NewOp("GE", deposit.Value, value.NewConstUint64(0)), Branch: true},
		{Expr: value.NewOp("GE", senderAfter, deposit.Value), Branch: true},
		{Expr: value.NewOp("GE", receiverAfter, value.NewConstUint64(0)), Branch: true},
	}

	return st, path
}
