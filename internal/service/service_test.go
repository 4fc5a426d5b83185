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

package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/bytecrumb/internal/compiler"
	"github.com/n42blockchain/bytecrumb/internal/report"
)

const sampleAST = `{
  "nodeType": "ContractDefinition",
  "src": "0:200:0",
  "nodes": [
    {
      "nodeType": "FunctionDefinition",
      "name": "withdraw",
      "src": "10:100:0",
      "body": {
        "nodeType": "Block",
        "src": "30:50:0",
        "statements": [
          {"nodeType": "ExpressionStatement", "src": "35:10:0"},
          {"nodeType": "IfStatement", "src": "60:20:0"}
        ]
      }
    }
  ]
}`

func sampleArtifact(opcodes string) *compiler.CompilerArtifact {
	art := &compiler.CompilerArtifact{
		Contracts: map[string]compiler.ContractArtifact{},
		Sources: map[string]compiler.SourceArtifact{
			"Wallet.sol": {AST: json.RawMessage(sampleAST)},
		},
	}
	ca := compiler.ContractArtifact{}
	ca.EVM.DeployedBytecode.Opcodes = opcodes
	art.Contracts["Wallet.sol:Wallet"] = ca
	return art
}

// switching hands back one of two fixed CompilerArtifacts depending on
// which revision path the service requests, letting a single test drive
// both sides of the before/after pipeline without real files on disk.
type switching struct {
	before, after *compiler.CompilerArtifact
}

func (s switching) Load(path string) (*compiler.CompilerArtifact, error) {
	if path == "before.json" {
		return s.before, nil
	}
	return s.after, nil
}

func TestAnalyzeWritesASTCFGAndSSGArtifacts(t *testing.T) {
	dir := t.TempDir()
	writer := report.New(dir, false)

	before := sampleArtifact("PUSH1 0x00 STOP")
	after := sampleArtifact("CALLVALUE PUSH1 0x01 SSTORE STOP")

	svc := &EVMService{
		Frontend:         switching{before: before, after: after},
		Writer:           writer,
		ASTAbstractNames: []string{"sequence_src", "selection_src"},
		CFGAbstractNames: []string{"sequence_bin"},
		SSGAbstractNames: []string{"data_flow", "control_flow"},
	}

	resp := svc.Analyze(context.Background(), Request{
		BeforeRevision: "before.json",
		AfterRevision:  "after.json",
		ContractID:     "Wallet.sol:Wallet",
	})

	require.Equal(t, 200, resp.Status)
	require.Contains(t, resp.ArtifactPaths, "ast_abstract.json")
	require.Contains(t, resp.ArtifactPaths, "cfg_abstract.json")
	require.Contains(t, resp.ArtifactPaths, "ssg_abstract.json")
	require.Contains(t, resp.ArtifactPaths, "ast.json")
	require.Contains(t, resp.ArtifactPaths, "ast_edgelist")
	require.Contains(t, resp.ArtifactPaths, "cfg.json")
	require.Contains(t, resp.ArtifactPaths, "cfg_edgelist")
	require.Contains(t, resp.ArtifactPaths, "ssg.json")
	require.Contains(t, resp.ArtifactPaths, "ssg_edgelist")

	readSummary := func(name string) report.AbstractSummary {
		data, err := os.ReadFile(filepath.Join(dir, "Wallet.sol:Wallet", "diff", name))
		require.NoError(t, err)
		var summary report.AbstractSummary
		require.NoError(t, json.Unmarshal(data, &summary))
		return summary
	}

	astSummary := readSummary("ast_abstract.json")
	require.Contains(t, astSummary.Diff, "sequence_src")
	require.NotContains(t, astSummary.Diff, "data_flow")

	cfgSummary := readSummary("cfg_abstract.json")
	require.Contains(t, cfgSummary.Diff, "sequence_bin")
	require.NotContains(t, cfgSummary.Diff, "data_flow")
	require.NotContains(t, cfgSummary.Diff, "sequence_src")

	ssgSummary := readSummary("ssg_abstract.json")
	require.Contains(t, ssgSummary.Diff, "data_flow")
	// SSTORE appears only on the after side, so data_flow strictly increases.
	require.Greater(t, ssgSummary.Diff["data_flow"], 0)
}

type failingFrontend struct{}

func (failingFrontend) Load(string) (*compiler.CompilerArtifact, error) {
	return nil, errors.New("compilation failed")
}

func TestAnalyzeFallsBackToEmptyResultsOnCompilationFailure(t *testing.T) {
	svc := &EVMService{
		Frontend:         failingFrontend{},
		ASTAbstractNames: []string{"sequence_src"},
		CFGAbstractNames: []string{"sequence_bin"},
		SSGAbstractNames: []string{"data_flow"},
	}

	resp := svc.Analyze(context.Background(), Request{ContractID: "Wallet.sol:Wallet"})
	require.Equal(t, 200, resp.Status)
	require.Empty(t, resp.ArtifactPaths)
}

func TestSplitContractIDSeparatesFileAndContract(t *testing.T) {
	file, contract := splitContractID("Wallet.sol:Wallet")
	require.Equal(t, "Wallet.sol", file)
	require.Equal(t, "Wallet", contract)
}

func TestSplitContractIDWithoutColonReturnsSameValueTwice(t *testing.T) {
	file, contract := splitContractID("Wallet")
	require.Equal(t, "Wallet", file)
	require.Equal(t, "Wallet", contract)
}

func TestSourceServiceAnalyzeHandlesMissingFiles(t *testing.T) {
	svc := NewSourceService(nil, []string{"sequence_src"})
	resp := svc.Analyze(context.Background(), Request{})
	require.Equal(t, 200, resp.Status)
}
