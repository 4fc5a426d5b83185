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

package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/bytecrumb/internal/ast"
	"github.com/n42blockchain/bytecrumb/internal/diffmodel"
	"github.com/n42blockchain/bytecrumb/internal/source"
)

const catalogYAML = `
api:
  reentrancy-guard:
    Wallet:
      - transfer
      - withdraw
interface:
  erc20:
    Token:
      - transfer
      - balanceOf
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "skills_tag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o644))
	return path
}

func TestLoadParsesAPIAndInterfaceRelations(t *testing.T) {
	path := writeCatalog(t)
	cat, err := Load(path)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"transfer", "withdraw"}, cat.API["reentrancy-guard"]["Wallet"])
	require.ElementsMatch(t, []string{"transfer", "balanceOf"}, cat.Interface["erc20"]["Token"])
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestAPITagsMatchesCataloguedFunction(t *testing.T) {
	cat := &Catalog{API: Relation{"reentrancy-guard": {"Wallet": {"withdraw"}}}}
	require.Equal(t, []string{"reentrancy-guard"}, cat.APITags("Wallet", "withdraw"))
	require.Empty(t, cat.APITags("Wallet", "deposit"))
	require.Empty(t, cat.APITags("OtherContract", "withdraw"))
}

func TestInterfaceTagsRequiresAllFunctionsDefined(t *testing.T) {
	cat := &Catalog{Interface: Relation{"erc20": {"Token": {"transfer", "balanceOf"}}}}

	partial := map[string]bool{"transfer": true}
	require.Empty(t, cat.InterfaceTags("Token", partial))

	full := map[string]bool{"transfer": true, "balanceOf": true}
	require.Equal(t, []string{"erc20"}, cat.InterfaceTags("Token", full))
}

func TestComputeTagSrcEmitsAPITagForChangedCallSite(t *testing.T) {
	cat := &Catalog{API: Relation{"reentrancy-guard": {"Wallet": {"withdraw"}}}}
	src := source.New("w.sol", []byte("line one\nline two\nline three\n"), 0)
	// "line two" occupies bytes [9,18); place the call span there.
	defs := []ast.FunctionDef{
		{
			Name:  "run",
			Start: 0,
			End:   30,
			Calls: []ast.Call{
				{ContractQualifier: "Wallet", Member: "withdraw", Span: [2]int{9, 17}},
			},
		},
	}
	diff := &diffmodel.Diff{Lines: []int{2}}

	tags := ComputeTagSrc(cat, src, "w.sol", "Wallet", defs, diff)
	require.Len(t, tags, 1)
	require.Contains(t, tags[0], "reentrancy-guard")
	require.Contains(t, tags[0], "call at:9:17")
}

func TestComputeTagSrcSkipsCallsOutsideDiff(t *testing.T) {
	cat := &Catalog{API: Relation{"reentrancy-guard": {"Wallet": {"withdraw"}}}}
	src := source.New("w.sol", []byte("line one\nline two\nline three\n"), 0)
	defs := []ast.FunctionDef{
		{
			Name: "run",
			Calls: []ast.Call{
				{ContractQualifier: "Wallet", Member: "withdraw", Span: [2]int{9, 17}},
			},
		},
	}
	diff := &diffmodel.Diff{Lines: []int{3}} // only line three changed

	require.Empty(t, ComputeTagSrc(cat, src, "w.sol", "Wallet", defs, diff))
}

func TestComputeTagSrcReturnsNilWithoutCatalog(t *testing.T) {
	require.Nil(t, ComputeTagSrc(nil, nil, "w.sol", "Wallet", nil, nil))
}
