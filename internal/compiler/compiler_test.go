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

package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const combinedJSON = `{
  "contracts": {
    "Wallet.sol:Wallet": {
      "evm": {
        "deployedBytecode": {
          "opcodes": "PUSH1 0x00 STOP",
          "sourceMap": "0:1:0:-",
          "object": "6000"
        },
        "methodIdentifiers": {
          "withdraw()": "2e1a7d4d"
        }
      }
    }
  },
  "sources": {
    "Wallet.sol": {
      "ast": {"nodeType": "SourceUnit"}
    }
  }
}`

func writeArtifact(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "combined.json")
	require.NoError(t, os.WriteFile(path, []byte(combinedJSON), 0o644))
	return path
}

func TestFileFrontendLoadParsesContractsAndSources(t *testing.T) {
	path := writeArtifact(t)
	art, err := FileFrontend{}.Load(path)
	require.NoError(t, err)
	require.Contains(t, art.Contracts, "Wallet.sol:Wallet")
	require.Contains(t, art.Sources, "Wallet.sol")
}

func TestFileFrontendLoadErrorsOnMissingFile(t *testing.T) {
	_, err := FileFrontend{}.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestDeployedBytecodeForReturnsOpcodes(t *testing.T) {
	path := writeArtifact(t)
	art, err := FileFrontend{}.Load(path)
	require.NoError(t, err)

	bc, err := art.DeployedBytecodeFor("Wallet.sol:Wallet")
	require.NoError(t, err)
	require.Equal(t, "PUSH1 0x00 STOP", bc.Opcodes)
}

func TestDeployedBytecodeForErrorsWhenAbsent(t *testing.T) {
	path := writeArtifact(t)
	art, err := FileFrontend{}.Load(path)
	require.NoError(t, err)

	_, err = art.DeployedBytecodeFor("Unknown.sol:Unknown")
	require.Error(t, err)
}
