package ice

import (
	"fmt"
	"strings"
)

// Node is one Dependency of a ScopeChain.
type Node struct {
	Scope    Scope
	Name     string
	Type     Type
	Resource bool
	Async    bool
}

// ID is "scope/name", unique within a chain.
func (n Node) ID() string {
	return frame{scope: n.Scope, name: n.Name}.String()
}

// Edge points from a Dependency to one it requires, as the engine would resolve it.
type Edge struct {
	From  string
	To    string
	Param string
}

// Graph is the static dependency graph of a ScopeChain.
// Nodes are in chain order, then registration order; Edges follow Nodes and
// declared requirement order.
type Graph struct {
	ChainID string
	Order   []Scope
	Nodes   []Node
	Edges   []Edge
}

// Graph exports the chain's dependency graph.
func (ch *ScopeChain) Graph() *Graph {
	g := &Graph{ChainID: ch.id, Order: ch.Order()}
	for i, s := range ch.order {
		c := ch.scopes[s]
		for _, name := range c.order {
			dep := c.provides[name]
			n := Node{Scope: s, Name: name, Type: dep.provides, Resource: dep.resource, Async: dep.async}
			g.Nodes = append(g.Nodes, n)
			for _, req := range dep.requires {
				// references were validated when the chain was built
				owner, _, _ := ch.lookupFrom(i, req.Name)
				g.Edges = append(g.Edges, Edge{From: n.ID(), To: frame{scope: owner, name: req.Name}.String(), Param: req.Param})
			}
		}
	}
	return g
}

// DOT renders g in graphviz format, one cluster per scope.
func (g *Graph) DOT() string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", "ice:"+g.ChainID)
	b.WriteString("  rankdir=LR;\n")
	for _, s := range g.Order {
		fmt.Fprintf(&b, "  subgraph %q {\n", "cluster_"+string(s))
		fmt.Fprintf(&b, "    label=%q;\n", string(s))
		for _, n := range g.Nodes {
			if n.Scope != s {
				continue
			}
			shape := "ellipse"
			if n.Resource {
				shape = "box"
			}
			label := n.Name + "\n" + typeName(n.Type)
			if n.Async {
				label += "\n(async)"
			}
			fmt.Fprintf(&b, "    %q [label=%q, shape=%s];\n", n.ID(), label, shape)
		}
		b.WriteString("  }\n")
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", e.From, e.To, e.Param)
	}
	b.WriteString("}\n")
	return b.String()
}

// TopoOrder lists node ids so that every Dependency comes after everything it
// requires. The order is deterministic. A cyclic graph fails with a CycleError.
func (g *Graph) TopoOrder() ([]string, error) {
	out := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		out[e.From] = append(out[e.From], e.To)
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(g.Nodes))
	order := make([]string, 0, len(g.Nodes))
	var path []string

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visited:
			return nil
		case visiting:
			start := 0
			for i, p := range path {
				if p == id {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), id)
			return &CycleError{Path: cycle}
		}
		state[id] = visiting
		path = append(path, id)
		for _, to := range out[id] {
			if err := visit(to); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[id] = visited
		order = append(order, id)
		return nil
	}

	for _, n := range g.Nodes {
		if err := visit(n.ID()); err != nil {
			return nil, err
		}
	}
	return order, nil
}
