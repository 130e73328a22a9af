// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package semantic

import "sort"

// Cycle is one strongly-connected component of size ≥ 2, or a singleton
// self-loop, reported by Cycles (spec §4.6).
type Cycle struct {
	Files []string // sorted
}

// Cycles returns every strongly-connected component of size ≥ 2 via
// Tarjan's algorithm, plus any self-loop as a singleton cycle. Edge tags are
// ignored: a cycle exists along any relationship type.
func (g *DependencyGraph) Cycles() []Cycle {
	t := &tarjan{
		g:       g,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, n := range g.order {
		if _, visited := t.index[n]; !visited {
			t.strongConnect(n)
		}
	}

	var cycles []Cycle
	for _, scc := range t.sccs {
		if len(scc) >= 2 {
			sort.Strings(scc)
			cycles = append(cycles, Cycle{Files: scc})
			continue
		}
		node := scc[0]
		if g.hasSelfLoop(node) {
			cycles = append(cycles, Cycle{Files: []string{node}})
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i].Files[0] < cycles[j].Files[0] })
	return cycles
}

func (g *DependencyGraph) hasSelfLoop(node string) bool {
	for _, e := range g.outEdges[node] {
		if e.Target == node {
			return true
		}
	}
	return false
}

// tarjan implements Tarjan's strongly-connected-components algorithm with an
// explicit stack to avoid recursion-depth limits on large repos.
type tarjan struct {
	g       *DependencyGraph
	counter int
	index   map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	sccs    [][]string
}

type tarjanFrame struct {
	node    string
	edgeIdx int
	targets []string
}

func (t *tarjan) strongConnect(start string) {
	var frames []*tarjanFrame
	push := func(node string) {
		t.index[node] = t.counter
		t.lowlink[node] = t.counter
		t.counter++
		t.stack = append(t.stack, node)
		t.onStack[node] = true

		targets := make([]string, 0, len(t.g.outEdges[node]))
		for _, e := range t.g.outEdges[node] {
			targets = append(targets, e.Target)
		}
		sort.Strings(targets)
		frames = append(frames, &tarjanFrame{node: node, targets: targets})
	}

	push(start)

	for len(frames) > 0 {
		top := frames[len(frames)-1]

		if top.edgeIdx < len(top.targets) {
			next := top.targets[top.edgeIdx]
			top.edgeIdx++
			if _, seen := t.index[next]; !seen {
				push(next)
				continue
			}
			if t.onStack[next] {
				if t.index[next] < t.lowlink[top.node] {
					t.lowlink[top.node] = t.index[next]
				}
			}
			continue
		}

		// All of top.node's edges are processed: pop it.
		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			parent := frames[len(frames)-1]
			if t.lowlink[top.node] < t.lowlink[parent.node] {
				t.lowlink[parent.node] = t.lowlink[top.node]
			}
		}

		if t.lowlink[top.node] == t.index[top.node] {
			var scc []string
			for {
				n := t.stack[len(t.stack)-1]
				t.stack = t.stack[:len(t.stack)-1]
				t.onStack[n] = false
				scc = append(scc, n)
				if n == top.node {
					break
				}
			}
			t.sccs = append(t.sccs, scc)
		}
	}
}

// TopologicalOrder returns a partial order over the graph's condensation of
// SCCs via Kahn's algorithm: nodes inside the same SCC appear consecutively
// in an unspecified but deterministic (sorted) order (spec §4.6 cycle
// policy). Cycles are never broken by dropping edges.
func (g *DependencyGraph) TopologicalOrder() []string {
	t := &tarjan{
		g:       g,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, n := range g.order {
		if _, visited := t.index[n]; !visited {
			t.strongConnect(n)
		}
	}

	sccOf := make(map[string]int, len(g.order))
	for i, scc := range t.sccs {
		for _, n := range scc {
			sccOf[n] = i
		}
	}

	condOut := make(map[int]map[int]struct{})
	indegree := make(map[int]int)
	for i := range t.sccs {
		condOut[i] = make(map[int]struct{})
		indegree[i] = 0
	}
	for _, n := range g.order {
		src := sccOf[n]
		for _, e := range g.outEdges[n] {
			dst := sccOf[e.Target]
			if dst == src {
				continue
			}
			condOut[src][dst] = struct{}{}
		}
	}
	for src, dsts := range condOut {
		for dst := range dsts {
			_ = src
			indegree[dst]++
		}
	}

	var ready []int
	for i := range t.sccs {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	sort.Ints(ready)

	var orderedSCCs []int
	for len(ready) > 0 {
		sort.Ints(ready)
		n := ready[0]
		ready = ready[1:]
		orderedSCCs = append(orderedSCCs, n)

		dsts := make([]int, 0, len(condOut[n]))
		for d := range condOut[n] {
			dsts = append(dsts, d)
		}
		sort.Ints(dsts)
		for _, d := range dsts {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	out := make([]string, 0, len(g.order))
	for _, sccIdx := range orderedSCCs {
		members := make([]string, len(t.sccs[sccIdx]))
		copy(members, t.sccs[sccIdx])
		sort.Strings(members)
		out = append(out, members...)
	}
	return out
}
