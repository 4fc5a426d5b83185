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

package ast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleContractJSON = `{
  "nodeType": "ContractDefinition",
  "src": "0:400:0",
  "nodes": [
    {
      "nodeType": "FunctionDefinition",
      "name": "withdraw",
      "src": "10:200:0",
      "body": {
        "nodeType": "Block",
        "src": "30:150:0",
        "statements": [
          {
            "nodeType": "ExpressionStatement",
            "src": "35:20:0",
            "expression": {
              "nodeType": "FunctionCall",
              "src": "35:20:0",
              "expression": {
                "nodeType": "Identifier",
                "name": "require",
                "src": "35:7:0"
              }
            }
          },
          {
            "nodeType": "IfStatement",
            "src": "60:50:0",
            "falseBody": {"nodeType": "Block", "src": "90:20:0"},
            "trueBody": {"nodeType": "Block", "src": "65:20:0"}
          },
          {
            "nodeType": "ExpressionStatement",
            "src": "120:30:0",
            "expression": {
              "nodeType": "FunctionCall",
              "src": "120:30:0",
              "expression": {
                "nodeType": "MemberAccess",
                "src": "120:25:0",
                "memberName": "transfer",
                "expression": {
                  "nodeType": "Identifier",
                  "name": "recipient",
                  "src": "120:9:0"
                }
              }
            }
          }
        ]
      }
    }
  ]
}`

func decodeSample(t *testing.T) *Node {
	t.Helper()
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(sampleContractJSON), &raw))
	n := DecodeNode(raw)
	require.NotNil(t, n)
	return n
}

func TestDecodeNodePrefersNodeType(t *testing.T) {
	n := decodeSample(t)
	require.Equal(t, "ContractDefinition", n.Kind)
	require.Equal(t, "0:400:0", n.Src)
}

func TestDecodeNodeFallsBackToLegacyName(t *testing.T) {
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"name":"ContractDefinition","src":"0:10:0","children":[]}`), &raw))
	n := DecodeNode(raw)
	require.NotNil(t, n)
	require.Equal(t, "ContractDefinition", n.Kind)
}

func TestCountSequenceCountsStatementsAndFunctionDef(t *testing.T) {
	n := decodeSample(t)
	// 1 FunctionDefinition + 2 ExpressionStatement(s) = 3; IfStatement is
	// not a sequence kind.
	require.Equal(t, 3, CountSequence(n))
}

func TestCountSelectionCountsIfWithElseAndRequire(t *testing.T) {
	n := decodeSample(t)
	// one IfStatement with falseBody counts twice, plus one require( call.
	require.Equal(t, 3, CountSelection(n))
}

func TestCountLoopIsZeroWithoutLoopNodes(t *testing.T) {
	n := decodeSample(t)
	require.Equal(t, 0, CountLoop(n))
}

func TestCallGraphRecordsQualifiedAndBareCallees(t *testing.T) {
	n := decodeSample(t)
	defs := CallGraph(n)
	require.Len(t, defs, 1)
	fd := defs[0]
	require.Equal(t, "withdraw", fd.Name)
	require.Equal(t, 10, fd.Start)
	require.Equal(t, 210, fd.End)
	require.Len(t, fd.Calls, 2)

	require.Equal(t, "", fd.Calls[0].ContractQualifier)
	require.Equal(t, "require", fd.Calls[0].Member)

	require.Equal(t, "recipient", fd.Calls[1].ContractQualifier)
	require.Equal(t, "transfer", fd.Calls[1].Member)
}

func TestParseSrcDecodesStartLengthFileTriple(t *testing.T) {
	start, end := parseSrc("120:30:0")
	require.Equal(t, 120, start)
	require.Equal(t, 150, end)
}

func TestParseSrcReturnsZeroOnMalformedInput(t *testing.T) {
	start, end := parseSrc("not-a-src-triple")
	require.Equal(t, 0, start)
	require.Equal(t, 0, end)
}
