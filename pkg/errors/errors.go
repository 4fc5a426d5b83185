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

// Package errors defines the sentinel errors used throughout bytecrumb.
// This package centralizes error definitions to keep callers able to
// match with errors.Is/errors.As across package boundaries.
package errors

import (
	"errors"
	"fmt"
)

// =====================
// Source & Diff Errors
// =====================

var (
	// ErrEmptySource is returned when a Source snapshot has no content.
	ErrEmptySource = errors.New("source is empty")

	// ErrDiffHunkMalformed is returned when a unified-diff hunk header cannot be parsed.
	ErrDiffHunkMalformed = errors.New("malformed diff hunk header")
)

// =====================
// Compiler Artifact Errors
// =====================

var (
	// ErrCompilation is returned when the compiled-artifact input cannot be read or is malformed.
	// Per the error handling policy this is non-fatal: analysis proceeds with an empty artifact.
	ErrCompilation = errors.New("compilation artifact error")

	// ErrNoDeployedBytecode is returned when a contract artifact has no deployedBytecode entry.
	ErrNoDeployedBytecode = errors.New("no deployed bytecode in artifact")
)

// =====================
// CFG & Bytecode Errors
// =====================

var (
	// ErrUnknownOpcode marks a byte that does not decode to a known opcode.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrBlockNotFound is returned when a jump target does not resolve to any known block.
	ErrBlockNotFound = errors.New("block not found in cfg")
)

// =====================
// Symbolic Interpreter Errors
// =====================

var (
	// ErrSymbolicExecution marks a path-local interpreter failure that has no
	// more specific sentinel below. It terminates only the offending path.
	ErrSymbolicExecution = errors.New("symbolic execution error")

	// ErrSymbolicTimeout is returned when the global wall-clock analysis budget is exceeded.
	ErrSymbolicTimeout = errors.New("symbolic execution timeout")

	// ErrStackUnderflow is returned when an opcode pops more values than are on the stack.
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrSymbolicJumpTarget is returned when JUMP/JUMPI's target operand is not concrete.
	ErrSymbolicJumpTarget = errors.New("symbolic jump target")

	// ErrStackArityMismatch marks a programming error: an opcode handler's declared
	// (push, pop) arity disagrees with what it actually consumed/produced. Surfaced as-is.
	ErrStackArityMismatch = errors.New("stack arity mismatch")
)

// =====================
// Abstract Index Errors
// =====================

var (
	// ErrIndexTimeout is returned by an index whose computation exceeded its own deadline
	// (e.g. loop_bin's 30s cycle-enumeration cap).
	ErrIndexTimeout = errors.New("abstract index timeout")

	// ErrIndexUnknown is returned when a Config references an index name with no registered factory.
	ErrIndexUnknown = errors.New("unknown abstract index")

	// ErrEmptyArtifact marks an index computed over a nil/empty artifact (AST, CFG, or SSG).
	ErrEmptyArtifact = errors.New("empty artifact")
)

// =====================
// RPC & Config Errors
// =====================

var (
	// ErrInvalidConfig is returned when a loaded Config fails validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrCatalogNotFound is returned when the tags toggle is set but no skills_tag.yaml sibling exists.
	ErrCatalogNotFound = errors.New("skills catalog not found")
)

// =====================
// Helper Functions
// =====================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Errorf formats according to a format specifier and returns the string as a value that satisfies error.
func Errorf(format string, a ...interface{}) error {
	return fmt.Errorf(format, a...)
}
