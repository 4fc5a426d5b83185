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

// Package skills loads the skills_tag.yaml catalog (§4.6, §10.9) and
// computes the tag_src abstract index from a contract's call graph.
package skills

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/n42blockchain/bytecrumb/internal/ast"
	"github.com/n42blockchain/bytecrumb/internal/diffmodel"
	"github.com/n42blockchain/bytecrumb/internal/source"
	berrors "github.com/n42blockchain/bytecrumb/pkg/errors"
)

// Relation maps each tag to its contract -> required-function-names mapping, shared
// shape for both the API and Interface relations.
type Relation map[string]map[string][]string

// Catalog is the loaded skills_tag.yaml contents.
type Catalog struct {
	API       Relation `yaml:"api"`
	Interface Relation `yaml:"interface"`
}

// Load reads and parses a skills_tag.yaml file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, berrors.Wrapf(berrors.ErrCatalogNotFound, "skills: reading %s: %v", path, err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, berrors.Wrapf(berrors.ErrCatalogNotFound, "skills: parsing %s: %v", path, err)
	}
	return &c, nil
}

// APITags returns every tag under the API relation whose contract entry
// lists function as one of its members.
func (c *Catalog) APITags(contract, function string) []string {
	return c.matchFunction(c.API, contract, function)
}

func (c *Catalog) matchFunction(rel Relation, contract, function string) []string {
	var tags []string
	for tag, contracts := range rel {
		fns, ok := contracts[contract]
		if !ok {
			continue
		}
		for _, f := range fns {
			if f == function {
				tags = append(tags, tag)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// InterfaceTags returns every tag under the Interface relation for which
// contract's entry lists function names that are ALL present in defined.
func (c *Catalog) InterfaceTags(contract string, defined map[string]bool) []string {
	var tags []string
	for tag, contracts := range c.Interface {
		fns, ok := contracts[contract]
		if !ok {
			continue
		}
		allPresent := len(fns) > 0
		for _, f := range fns {
			if !defined[f] {
				allPresent = false
				break
			}
		}
		if allPresent {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// ComputeTagSrc implements §4.6's tag_src index: for each function
// definition's call sites touching a changed line, emit an API tag when the
// callee's contract qualifier and member name are catalogued together; separately, for each contract
// whose Interface entry's required functions are all defined, emit an
// implement tag for every caller/callee span covering a changed line.
func ComputeTagSrc(catalog *Catalog, src *source.Source, fileName, contract string, defs []ast.FunctionDef, afterDiff *diffmodel.Diff) []string {
	if catalog == nil {
		return nil
	}

	defined := map[string]bool{}
	for _, fd := range defs {
		defined[fd.Name] = true
	}

	var tags []string
	for _, fd := range defs {
		for _, call := range fd.Calls {
			if !spanTouchesDiff(src, call.Span[0], call.Span[1]-call.Span[0], afterDiff) {
				continue
			}
			if call.ContractQualifier == "" {
				continue
			}
			for _, tag := range catalog.APITags(call.ContractQualifier, call.Member) {
				tags = append(tags, fmt.Sprintf("%s:%s:call at:%d:%d", tag, fileName, call.Span[0], call.Span[1]))
			}
		}
	}

	for _, ifaceTag := range catalog.InterfaceTags(contract, defined) {
		for _, fd := range defs {
			if spanTouchesDiff(src, fd.Start, fd.End-fd.Start, afterDiff) {
				tags = append(tags, fmt.Sprintf("%s:%s:implement at:%d:%d", ifaceTag, fileName, fd.Start, fd.End))
			}
			for _, call := range fd.Calls {
				if spanTouchesDiff(src, call.Span[0], call.Span[1]-call.Span[0], afterDiff) {
					tags = append(tags, fmt.Sprintf("%s:%s:implement at:%d:%d", ifaceTag, fileName, call.Span[0], call.Span[1]))
				}
			}
		}
	}

	sort.Strings(tags)
	return tags
}

// spanTouchesDiff reports whether the source lines covering [start,
// start+length) intersect afterDiff's changed-line set.
func spanTouchesDiff(src *source.Source, start, length int, d *diffmodel.Diff) bool {
	if d == nil || src == nil {
		return false
	}
	first, last := src.LinesCovering(start, length)
	for ln := first; ln <= last; ln++ {
		if d.Contains(ln) {
			return true
		}
	}
	return false
}
