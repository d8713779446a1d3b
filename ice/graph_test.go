package ice

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph(t *testing.T) {
	rec := newRecorder()
	g := threeScopes(t, rec).Graph()

	require.Len(t, g.Nodes, 6)
	assert.Equal(t, "root/cfg", g.Nodes[0].ID())
	assert.True(t, g.Nodes[0].Resource)
	assert.Contains(t, g.Edges, Edge{From: "handler/bar_ctrl", To: "app/cache", Param: "cache"})
	assert.Contains(t, g.Edges, Edge{From: "app/db", To: "root/cfg", Param: "cfg"})

	order, err := g.TopoOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"root/cfg", "app/db", "app/cache",
		"handler/transaction", "handler/foo_ctrl", "handler/bar_ctrl",
	}, order)

	dot := g.DOT()
	assert.True(t, strings.HasPrefix(dot, `digraph "ice:`))
	assert.Contains(t, dot, `subgraph "cluster_app"`)
	assert.Contains(t, dot, `"handler/foo_ctrl" -> "handler/transaction" [label="transaction"];`)
	assert.Contains(t, dot, `shape=box`)
	assert.Zero(t, rec.count("cfg"), "exporting the graph builds nothing")
}

func TestGraphShadowedEdge(t *testing.T) {
	rec := newRecorder()
	chain, err := ChainOf([]Scope{"app", "handler"},
		bagOf(node(rec, "cfg"), node(rec, "db", "cfg")),
		bagOf(node(rec, "cfg"), node(rec, "tx", "cfg", "db")))
	require.NoError(t, err)
	g := chain.Graph()
	assert.Contains(t, g.Edges, Edge{From: "app/db", To: "app/cfg", Param: "cfg"})
	assert.Contains(t, g.Edges, Edge{From: "handler/tx", To: "handler/cfg", Param: "cfg"})
}

func TestGraphCycle(t *testing.T) {
	chain, err := SingleScope(mustContainer(MakeEvener(), MakeOdder()))
	require.NoError(t, err)
	_, err = chain.Graph().TopoOrder()
	cycle := &CycleError{}
	require.True(t, errors.As(err, &cycle), "got %v", err)
	assert.Equal(t, []string{"root/evener", "root/odder", "root/evener"}, cycle.Path)
}
