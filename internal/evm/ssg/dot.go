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

package ssg

import (
	"fmt"

	"github.com/emicklei/dot"
)

// ToDot renders one function's graph as a debug export (§10.8) — data
// only, no rendering backend invoked.
func (fg *FuncGraph) ToDot() *dot.Graph {
	g := dot.NewGraph(dot.Directed)
	g.Attr("label", fg.Name)

	nodes := map[int]dot.Node{}
	for id, n := range fg.Nodes {
		nodes[id] = g.Node(fmt.Sprintf("n%d", id)).Label(fmt.Sprintf("%s", n.String()))
	}

	for _, e := range fg.Edges() {
		color := "black"
		switch e.Kind {
		case ValueFlow:
			color = "blue"
		case ControlFlow:
			color = "green"
		case ConstraintFlow:
			color = "orange"
		}
		g.Edge(nodes[e.Src], nodes[e.Dst]).Attr("color", color).Attr("label", string(e.Kind))
	}

	return &g
}
