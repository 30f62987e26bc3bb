package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/kektorgraph/pkg/core"
	"github.com/sanonone/kektorgraph/pkg/errors"
)

func newTestGraph() *Graph {
	return New(core.NewSession(core.DefaultLabels(), nil))
}

func TestVertexIdentityAndNames(t *testing.T) {
	g := newTestGraph()

	src := g.AddVertex("source")
	src.Attrs.Put("objectId", core.Text("ZTF21abc"))
	pca := g.AddVertex("PCA")
	bare := g.AddVertex("source")

	assert.Equal(t, int64(0), src.ID)
	assert.Equal(t, int64(1), pca.ID)
	assert.Equal(t, "source", src.Label())
	assert.Equal(t, "ZTF21abc", src.Name())
	assert.Equal(t, "PCA", pca.Name(), "labels without a name attribute fall back to the label")
	assert.Equal(t, "source", bare.Name(), "missing name attribute falls back to the label")
	assert.Equal(t, "PCA(1)", pca.String())

	_, err := g.AddVertexWithID(1, "dup")
	assert.True(t, errors.Is(err, errors.ErrConfiguration))

	v, err := g.AddVertexWithID(40, "alert")
	require.NoError(t, err)
	assert.Equal(t, int64(40), v.ID)
	assert.Equal(t, int64(41), g.AddVertex("alert").ID, "fresh ids never collide with reserved ones")
}

func TestEdgesWeightsAndLoops(t *testing.T) {
	g := newTestGraph()
	a := g.AddVertex("alert")
	b := g.AddVertex("alert")

	dist, err := g.AddEdge(a.ID, b.ID, "distance")
	require.NoError(t, err)
	assert.Equal(t, DefaultWeight, dist.Weight(), "no weight attribute yet")

	dist.Attrs.Put("difference", core.Double(0.75))
	assert.Equal(t, 0.75, dist.Weight(), "generated from the label weight table")
	assert.Equal(t, "0.75", dist.Name())

	dist.SetWeight(3)
	assert.True(t, dist.HasExplicitWeight())
	assert.Equal(t, 3.0, dist.Weight(), "explicit weight wins")

	has, err := g.AddEdge(a.ID, a.ID, "has")
	require.NoError(t, err)
	assert.True(t, has.IsLoop())
	assert.Equal(t, "has", has.Name())

	parallel, err := g.AddEdge(a.ID, b.ID, "distance")
	require.NoError(t, err)
	assert.NotEqual(t, dist.ID, parallel.ID)

	assert.Len(t, g.OutEdges(a.ID), 3)
	assert.Len(t, g.InEdges(b.ID), 2)
	assert.Len(t, g.IncidentEdges(a.ID), 3, "the self-loop counts once")
	assert.Len(t, g.IncidentEdges(b.ID), 2)

	_, err = g.AddEdge(a.ID, 99, "distance")
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestLabelFiltering(t *testing.T) {
	g := newTestGraph()
	a1 := g.AddVertex("alert")
	s := g.AddVertex("source")
	a2 := g.AddVertex("alert")
	_, _ = g.AddEdge(s.ID, a1.ID, "has")
	_, _ = g.AddEdge(s.ID, a2.ID, "has")
	_, _ = g.AddEdge(a1.ID, a2.ID, "distance")

	alerts := g.VerticesByLabel("alert")
	require.Len(t, alerts, 2)
	assert.Equal(t, a1.ID, alerts[0].ID)
	assert.Equal(t, a2.ID, alerts[1].ID)
	assert.Len(t, g.VerticesByLabel(""), 3)
	assert.Len(t, g.EdgesByLabel("has"), 2)
	assert.Len(t, g.EdgesByLabel(""), 3)

	assert.Equal(t, []string{"alert", "source"}, g.VertexLabels())

	st := g.Stats()
	assert.Equal(t, 3, st.Vertices)
	assert.Equal(t, 3, st.Edges)
	assert.Equal(t, 2, st.VertexLabels["alert"])
	assert.Equal(t, 1, st.EdgeLabels["distance"])
}

func TestLookups(t *testing.T) {
	g := newTestGraph()
	a := g.AddVertex("alert")
	e, err := g.AddEdgeWithID(7, a.ID, a.ID, "self")
	require.NoError(t, err)

	got, ok := g.Vertex(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)

	ge, ok := g.Edge(7)
	require.True(t, ok)
	assert.Same(t, e, ge)

	_, ok = g.Edge(8)
	assert.False(t, ok)

	_, err = g.AddEdgeWithID(7, a.ID, a.ID, "self")
	assert.Error(t, err)

	next, err := g.AddEdge(a.ID, a.ID, "self")
	require.NoError(t, err)
	assert.Equal(t, int64(8), next.ID)
	assert.Equal(t, 1, g.Order())
	assert.Equal(t, 2, g.Size())
}

func TestNumericMatrix(t *testing.T) {
	g := newTestGraph()
	a := g.AddVertex("alert")
	a.Attrs.Put("mag", core.Double(17.5))
	a.Attrs.Put("nobs", core.Int(4))
	b := g.AddVertex("alert")
	b.Attrs.Put("mag", core.ParseValue(core.KindDouble, " 18.25 "))
	b.Attrs.Put("nobs", core.ParseValue(core.KindInt, "9"))

	rows, err := NumericMatrix(g.Vertices(), []string{"mag", "nobs"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{17.5, 4}, {18.25, 9}}, rows)

	c := g.AddVertex("alert")
	c.Attrs.Put("mag", core.ParseValue(core.KindDouble, "bright"))
	err = ValidateNumeric(g.Vertices(), []string{"mag"})
	var pe *errors.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, c.ID, pe.VertexID)
	assert.Equal(t, "mag", pe.Attribute)

	err = ValidateNumeric(g.Vertices(), []string{"nobs"})
	var me *errors.MissingAttributeError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, c.ID, me.VertexID)

	d := g.AddVertex("alert")
	d.Attrs.Put("mag", core.ParseValue(core.KindDouble, "NaN"))
	err = ValidateNumeric([]*Vertex{d}, []string{"mag"})
	assert.True(t, errors.Is(err, errors.ErrParse))
}
