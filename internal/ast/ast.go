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

// Package ast walks the Solidity compiler's JSON AST (new-style "nodeType"
// or legacy "name" node tagging, §6's sources[path].ast | legacyAST) to
// compute the source-level abstract indices of §4.5/§4.6.
package ast

import (
	"fmt"
	"sort"
)

// Node is one decoded AST node: both the modern ("nodeType", "src",
// "children"/named-field-object) and legacy ("name", "src", "children")
// Solidity AST encodings decode into this generic shape via DecodeNode.
type Node struct {
	Kind     string
	Src      string // "start:length:fileIndex"
	Raw      map[string]interface{}
	Children []*Node
}

// DecodeNode recursively decodes a raw JSON-unmarshaled value into a Node
// tree, tolerating either AST dialect. Non-object/array leaves are ignored.
func DecodeNode(raw interface{}) *Node {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	n := &Node{Raw: obj}
	if k, ok := obj["nodeType"].(string); ok {
		n.Kind = k
	} else if k, ok := obj["name"].(string); ok {
		n.Kind = k
	}
	if s, ok := obj["src"].(string); ok {
		n.Src = s
	}

	for key, v := range obj {
		if key == "nodeType" || key == "name" || key == "src" {
			continue
		}
		switch vv := v.(type) {
		case []interface{}:
			for _, item := range vv {
				if child := DecodeNode(item); child != nil {
					n.Children = append(n.Children, child)
				}
			}
		case map[string]interface{}:
			if child := DecodeNode(vv); child != nil {
				n.Children = append(n.Children, child)
			}
		}
	}
	return n
}

// Walk calls fn for n and every descendant, pre-order.
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

var statementKinds = map[string]bool{
	"VariableDeclarationStatement": true,
	"ExpressionStatement":          true,
	"Assignment":                   true,
	"VariableDeclaration":          true,
	"FunctionDefinition":           true,
	"Return":                       true,
	"EmitStatement":                true,
	"PlaceholderStatement":         true,
}

var selectionKinds = map[string]bool{
	"IfStatement": true,
}

var loopKinds = map[string]bool{
	"ForStatement":     true,
	"WhileStatement":   true,
	"DoWhileStatement": true,
}

// CountSequence implements sequence_src: the count of statement/declaration
// nodes in the tree.
func CountSequence(root *Node) int {
	n := 0
	Walk(root, func(node *Node) {
		if statementKinds[node.Kind] {
			n++
		}
	})
	return n
}

// CountSelection implements selection_src: if/conditional nodes, plus (for
// Solidity) require(/assert( calls, counting both branches of an if/else.
func CountSelection(root *Node) int {
	n := 0
	Walk(root, func(node *Node) {
		switch {
		case selectionKinds[node.Kind]:
			n++
			if _, hasElse := node.Raw["falseBody"]; hasElse {
				n++
			}
		case node.Kind == "FunctionCall":
			if name := calleeName(node); name == "require" || name == "assert" {
				n++
			}
		}
	})
	return n
}

// CountLoop implements loop_src: for/while/do-while node count.
func CountLoop(root *Node) int {
	n := 0
	Walk(root, func(node *Node) {
		if loopKinds[node.Kind] {
			n++
		}
	})
	return n
}

// Call is one recorded FunctionCall site within a function body.
type Call struct {
	ContractQualifier string // "" for a bare identifier callee
	Member            string
	Span              [2]int // start, end byte offsets
}

// FunctionDef is one caller node: its own span and the calls it makes.
type FunctionDef struct {
	Name  string
	Start int
	End   int
	Calls []Call
}

// CallGraph is the per-contract caller -> callees map used by §4.6's tag
// index: every function definition is a caller node; every FunctionCall
// inside becomes a callee, recorded with its qualifier (for member-access
// callees) or bare name (for identifier callees).
func CallGraph(root *Node) []FunctionDef {
	var defs []FunctionDef
	Walk(root, func(node *Node) {
		if node.Kind != "FunctionDefinition" {
			return
		}
		start, end := parseSrc(node.Src)
		fd := FunctionDef{Name: stringField(node.Raw, "name"), Start: start, End: end}
		Walk(node, func(inner *Node) {
			if inner.Kind != "FunctionCall" {
				return
			}
			cs, ce := parseSrc(inner.Src)
			qualifier, member := calleeParts(inner)
			fd.Calls = append(fd.Calls, Call{ContractQualifier: qualifier, Member: member, Span: [2]int{cs, ce}})
		})
		defs = append(defs, fd)
	})
	sort.Slice(defs, func(i, j int) bool { return defs[i].Start < defs[j].Start })
	return defs
}

func calleeName(n *Node) string {
	_, member := calleeParts(n)
	return member
}

// calleeParts inspects a FunctionCall's "expression" child: a MemberAccess
// yields (qualifier identifier, member name); a bare Identifier yields ("", name).
func calleeParts(n *Node) (qualifier, member string) {
	expr, ok := n.Raw["expression"].(map[string]interface{})
	if !ok {
		return "", ""
	}
	exprNode := DecodeNode(expr)
	if exprNode == nil {
		return "", ""
	}
	switch exprNode.Kind {
	case "MemberAccess":
		member = stringField(exprNode.Raw, "memberName")
		if base, ok := exprNode.Raw["expression"].(map[string]interface{}); ok {
			qualifier = stringField(base, "name")
		}
		return qualifier, member
	case "Identifier":
		return "", stringField(exprNode.Raw, "name")
	default:
		return "", ""
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// parseSrc decodes Solidity's "start:length:fileIndex" src triple into
// (start, end) byte offsets.
func parseSrc(src string) (start, end int) {
	var length, file int
	n, _ := fmt.Sscanf(src, "%d:%d:%d", &start, &length, &file)
	if n < 2 {
		return 0, 0
	}
	return start, start + length
}
