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

// Package compiler defines the boundary to an external Solidity toolchain
// invocation (out of scope: this repo never invokes solc itself) and the
// one on-disk frontend this repo ships, grounded on §6's combined-JSON
// artifact layout.
package compiler

import (
	"encoding/json"
	"os"

	berrors "github.com/n42blockchain/bytecrumb/pkg/errors"
)

// DeployedBytecode is the §6 evm.deployedBytecode sub-object.
type DeployedBytecode struct {
	Opcodes   string `json:"opcodes"`
	SourceMap string `json:"sourceMap"`
	Object    string `json:"object"`
}

// ContractArtifact is one compiled contract's evm output plus its method
// identifier table.
type ContractArtifact struct {
	EVM struct {
		DeployedBytecode  DeployedBytecode  `json:"deployedBytecode"`
		MethodIdentifiers map[string]string `json:"methodIdentifiers"`
	} `json:"evm"`
}

// SourceArtifact is one source file's AST, in either dialect §6 allows.
type SourceArtifact struct {
	AST       json.RawMessage `json:"ast"`
	LegacyAST json.RawMessage `json:"legacyAST"`
}

// CompilerArtifact is the full combined-JSON document: contracts keyed by
// "file:ContractName", sources keyed by file path.
type CompilerArtifact struct {
	Contracts map[string]ContractArtifact `json:"contracts"`
	Sources   map[string]SourceArtifact   `json:"sources"`
}

// Frontend loads a CompilerArtifact from wherever the toolchain wrote it.
// The only implementation this repo ships reads a single combined-JSON file
// off disk (FileFrontend); a frontend for another source toolchain is
// explicitly out of scope.
type Frontend interface {
	Load(path string) (*CompilerArtifact, error)
}

// FileFrontend reads the combined-JSON layout directly off disk.
type FileFrontend struct{}

// Load implements Frontend.
func (FileFrontend) Load(path string) (*CompilerArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, berrors.Wrapf(berrors.ErrCompilation, "compiler: reading %s: %v", path, err)
	}
	var art CompilerArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, berrors.Wrapf(berrors.ErrCompilation, "compiler: parsing %s: %v", path, err)
	}
	return &art, nil
}

// DeployedBytecodeFor returns the named contract's deployed bytecode, or
// ErrNoDeployedBytecode if absent or empty.
func (a *CompilerArtifact) DeployedBytecodeFor(contractID string) (DeployedBytecode, error) {
	c, ok := a.Contracts[contractID]
	if !ok || c.EVM.DeployedBytecode.Opcodes == "" {
		return DeployedBytecode{}, berrors.Wrapf(berrors.ErrNoDeployedBytecode, "contract %q", contractID)
	}
	return c.EVM.DeployedBytecode, nil
}
