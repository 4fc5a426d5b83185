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

// Exploration limits, per §4.3's termination rules. These are deliberately
// small fixed constants, not configurable (only the global wall-clock
// Timeout in conf.Config is) since they bound a syntactic, non-SMT-validated
// exploration, not a precision knob.
const (
	// ConditionalLoopLimit: a conditional block visited more than this many
	// times on the same path terminates that path with TermLoopLimit.
	ConditionalLoopLimit = 3

	// EdgeVisitLimit: any edge visited (function-local or global count) more
	// than this many times terminates the path with TermLoopLimit.
	EdgeVisitLimit = 10

	// GasCeiling: exceeding this accumulated gas estimate terminates the
	// path with TermGasLimit. Gas accounting is approximate by design —
	// this is a bound on exploration depth, not a metered VM.
	GasCeiling = 10_000_000

	// DefaultGasPerOp is charged for any opcode without a more specific cost
	// below; deliberately coarse (see GasCeiling comment).
	DefaultGasPerOp = 3
)

var opGasCost = map[string]int{
	"SSTORE": 5000,
	"SLOAD":  200,
	"SHA3":   30,
	"CALL":   700, "CALLCODE": 700, "DELEGATECALL": 700, "STATICCALL": 700,
	"CREATE": 32000, "CREATE2": 32000,
	"EXP": 10,
}

func gasCost(opcode string) int {
	if c, ok := opGasCost[opcode]; ok {
		return c
	}
	return DefaultGasPerOp
}
