package cnext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDependencyGraphOrderBatchesRespectsDependencies(t *testing.T) {
	g := NewDependencyGraph()
	g.AddEdge("a.cnx", "b.cnx")
	g.AddEdge("b.cnx", "c.cnx")

	batches, warnings := g.OrderBatches()
	require.Empty(t, warnings)
	require.Equal(t, [][]string{{"c.cnx"}, {"b.cnx"}, {"a.cnx"}}, batches)
}

func TestDependencyGraphOrderBatchesGroupsIndependentFiles(t *testing.T) {
	g := NewDependencyGraph()
	g.AddEdge("a.cnx", "shared.cnx")
	g.AddEdge("b.cnx", "shared.cnx")

	batches, warnings := g.OrderBatches()
	require.Empty(t, warnings)
	require.Len(t, batches, 2)
	require.Equal(t, []string{"shared.cnx"}, batches[0])
	require.ElementsMatch(t, []string{"a.cnx", "b.cnx"}, batches[1])
}

func TestDependencyGraphOrderBatchesToleratesCycles(t *testing.T) {
	g := NewDependencyGraph()
	g.AddEdge("a.cnx", "b.cnx")
	g.AddEdge("b.cnx", "a.cnx")

	batches, warnings := g.OrderBatches()
	require.NotEmpty(t, warnings)
	require.Len(t, batches, 1)
	require.ElementsMatch(t, []string{"a.cnx", "b.cnx"}, batches[0])
}

func TestDependencyGraphAddNodeWithNoEdges(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("standalone.cnx")

	batches, warnings := g.OrderBatches()
	require.Empty(t, warnings)
	require.Equal(t, [][]string{{"standalone.cnx"}}, batches)
}
