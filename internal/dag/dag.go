// Package dag models dependencies between chart jobs. Nodes remember the
// order they were added in, and every listing follows that order, so the
// fixed run order of the job registry survives graph operations.
package dag

import (
	"fmt"
	"slices"
)

// Node is one vertex of the graph.
type Node struct {
	// ID is the job id.
	ID string
	// Data holds the job definition.
	Data any
}

// Graph is a directed graph of jobs. An edge parent -> child means the
// child consumes the parent's result.
type Graph struct {
	order    []string
	nodes    map[string]*Node
	children map[string][]string
	parents  map[string][]string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode adds a node, or replaces the data of an existing one without
// changing its position.
func (g *Graph) AddNode(id string, data any) {
	if n, ok := g.nodes[id]; ok {
		n.Data = data
		return
	}
	g.nodes[id] = &Node{ID: id, Data: data}
	g.order = append(g.order, id)
}

// AddEdge records that child depends on parent.
func (g *Graph) AddEdge(parent, child string) error {
	if _, ok := g.nodes[parent]; !ok {
		return fmt.Errorf("unknown prerequisite %q", parent)
	}
	if _, ok := g.nodes[child]; !ok {
		return fmt.Errorf("unknown job %q", child)
	}
	if parent == child {
		return fmt.Errorf("job %q depends on itself", child)
	}
	if !slices.Contains(g.children[parent], child) {
		g.children[parent] = append(g.children[parent], child)
		g.parents[child] = append(g.parents[child], parent)
	}
	return nil
}

// Node returns a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Parents returns the direct prerequisites of id.
func (g *Graph) Parents(id string) []string {
	return slices.Clone(g.parents[id])
}

// Children returns the direct dependents of id.
func (g *Graph) Children(id string) []string {
	return slices.Clone(g.children[id])
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, c := range g.children {
		n += len(c)
	}
	return n
}

// Cycle returns one dependency cycle as a path whose first and last
// element are the same node, or nil when the graph is acyclic.
func (g *Graph) Cycle() []string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(g.order))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = active
		stack = append(stack, id)
		for _, c := range g.children[id] {
			switch state[c] {
			case active:
				start := slices.Index(stack, c)
				cycle = append(slices.Clone(stack[start:]), c)
				return true
			case unvisited:
				if visit(c) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, id := range g.order {
		if state[id] == unvisited && visit(id) {
			return cycle
		}
	}
	return nil
}

// Sort returns the nodes so that every prerequisite precedes its
// dependents. Among ready nodes, insertion order wins.
func (g *Graph) Sort() ([]*Node, error) {
	if c := g.Cycle(); c != nil {
		return nil, fmt.Errorf("dependency cycle: %v", c)
	}
	pending := make(map[string]int, len(g.order))
	for _, id := range g.order {
		pending[id] = len(g.parents[id])
	}
	out := make([]*Node, 0, len(g.order))
	placed := make(map[string]bool, len(g.order))
	for len(out) < len(g.order) {
		for _, id := range g.order {
			if placed[id] || pending[id] > 0 {
				continue
			}
			placed[id] = true
			out = append(out, g.nodes[id])
			for _, c := range g.children[id] {
				pending[c]--
			}
			break
		}
	}
	return out, nil
}

// Levels groups nodes by dependency depth. Level 0 holds nodes without
// prerequisites; a node sits one level below its deepest prerequisite.
func (g *Graph) Levels() ([][]string, error) {
	if c := g.Cycle(); c != nil {
		return nil, fmt.Errorf("dependency cycle: %v", c)
	}
	depth := make(map[string]int, len(g.order))
	var level func(id string) int
	level = func(id string) int {
		if d, ok := depth[id]; ok {
			return d
		}
		d := 0
		for _, p := range g.parents[id] {
			d = max(d, level(p)+1)
		}
		depth[id] = d
		return d
	}

	var levels [][]string
	for _, id := range g.order {
		d := level(id)
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], id)
	}
	return levels, nil
}

// Descendants returns ids and everything that depends on them, directly or
// not, in insertion order.
func (g *Graph) Descendants(ids ...string) []string {
	return g.closure(ids, g.children)
}

// Ancestors returns ids and everything they depend on, directly or not, in
// insertion order.
func (g *Graph) Ancestors(ids ...string) []string {
	return g.closure(ids, g.parents)
}

func (g *Graph) closure(ids []string, next map[string][]string) []string {
	seen := make(map[string]bool)
	var walk func(id string)
	walk = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		for _, n := range next[id] {
			walk(n)
		}
	}
	for _, id := range ids {
		if _, ok := g.nodes[id]; ok {
			walk(id)
		}
	}
	var out []string
	for _, id := range g.order {
		if seen[id] {
			out = append(out, id)
		}
	}
	return out
}

// Roots returns the nodes without prerequisites.
func (g *Graph) Roots() []string {
	var out []string
	for _, id := range g.order {
		if len(g.parents[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Leaves returns the nodes nothing depends on.
func (g *Graph) Leaves() []string {
	var out []string
	for _, id := range g.order {
		if len(g.children[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Subgraph returns the graph induced by ids, keeping insertion order.
func (g *Graph) Subgraph(ids []string) *Graph {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	sub := NewGraph()
	for _, id := range g.order {
		if keep[id] {
			sub.AddNode(id, g.nodes[id].Data)
		}
	}
	for _, id := range sub.order {
		for _, c := range g.children[id] {
			if keep[c] {
				_ = sub.AddEdge(id, c)
			}
		}
	}
	return sub
}
