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

package cfg

import (
	"fmt"
	"sort"

	"github.com/emicklei/dot"
)

// ToDot renders the CFG as a debug graph (data only — no rendering backend
// is invoked; see §10.8).
func (c *CFG) ToDot() *dot.Graph {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "TB")

	starts := make([]int, 0, len(c.Blocks))
	for pc := range c.Blocks {
		starts = append(starts, pc)
	}
	sort.Ints(starts)

	nodes := map[int]dot.Node{}
	for _, pc := range starts {
		b := c.Blocks[pc]
		label := fmt.Sprintf("%d-%d", b.StartPC, b.EndPC)
		n := g.Node(fmt.Sprintf("%d", pc)).Label(label)
		switch b.Termination {
		case Unconditional:
			n.Attr("color", "blue")
		case Conditional:
			n.Attr("color", "green")
		case Terminal:
			n.Attr("color", "red")
		}
		nodes[pc] = n
	}

	for _, pc := range starts {
		b := c.Blocks[pc]
		if b.HasFallsTo() {
			if target, ok := nodes[b.FallsToPC]; ok {
				g.Edge(nodes[pc], target).Attr("color", "black")
			}
		}
		for _, target := range b.JumpTargets {
			if t, ok := nodes[target]; ok {
				g.Edge(nodes[pc], t).Attr("color", "blue")
			}
		}
	}

	return &g
}
