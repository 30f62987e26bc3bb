package graphio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/kektorgraph/pkg/core"
	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <key id="d0" for="node" attr.name="labelV" attr.type="string"/>
  <key id="d1" for="node" attr.name="objectId" attr.type="string"/>
  <key id="d2" for="node" attr.name="magpsf" attr.type="double"/>
  <key id="d3" for="node" attr.name="nobs" attr.type="int">
    <default>1</default>
  </key>
  <key id="d4" for="edge" attr.name="labelE" attr.type="string"/>
  <key id="d5" for="edge" attr.name="weight" attr.type="double"/>
  <key id="d6" for="node" attr.name="fid" attr.type="long"/>
  <graph id="G" edgedefault="directed">
    <node id="n0">
      <data key="d0">source</data>
      <data key="d1">ZTF18abc</data>
    </node>
    <node id="n1">
      <data key="d0">alert</data>
      <data key="d2">17.25</data>
      <data key="d3">4</data>
    </node>
    <node id="n2">
      <data key="d0">alert</data>
      <data key="d2">18.5</data>
      <data key="d6">12345678901</data>
    </node>
    <edge source="n0" target="n1">
      <data key="d4">has</data>
    </edge>
    <edge source="n0" target="n2">
      <data key="d4">has</data>
      <data key="d5">2.5</data>
    </edge>
  </graph>
</graphml>
`

func newSession() *core.Session {
	return core.NewSession(core.DefaultLabels(), nil)
}

func TestReadGraphML(t *testing.T) {
	s := newSession()
	g, err := ReadGraphML(strings.NewReader(sample), s)
	require.NoError(t, err)

	assert.Equal(t, 3, g.Order())
	assert.Equal(t, 2, g.Size())

	src, ok := g.Vertex(0)
	require.True(t, ok)
	assert.Equal(t, "source", src.Label())
	assert.Equal(t, "ZTF18abc", src.Name())

	a1, _ := g.Vertex(1)
	mag, err := a1.Attrs.Float("magpsf")
	require.NoError(t, err)
	assert.Equal(t, 17.25, mag)

	a2, _ := g.Vertex(2)
	nobs, err := a2.Attrs.Float("nobs")
	require.NoError(t, err)
	assert.Equal(t, 1.0, nobs, "key default applies to nodes without data")

	for name, kind := range map[string]core.Kind{
		"magpsf": core.KindDouble,
		"nobs":   core.KindInt,
		"fid":    core.KindLong,
		"labelV": core.KindString,
		"weight": core.KindDouble,
	} {
		got, ok := s.Registry.Kind(name)
		require.True(t, ok, name)
		assert.Equal(t, kind, got, name)
	}

	edges := g.EdgesByLabel("has")
	require.Len(t, edges, 2)
	assert.False(t, edges[0].HasExplicitWeight())
	assert.Equal(t, 1.0, edges[0].Weight())
	assert.True(t, edges[1].HasExplicitWeight())
	assert.Equal(t, 2.5, edges[1].Weight())

	assert.Equal(t, int64(3), s.NextVertexID(), "input ids are reserved")
}

func TestReadGraphMLSkipEdges(t *testing.T) {
	g, err := ReadGraphML(strings.NewReader(sample), newSession(), SkipEdges())
	require.NoError(t, err)
	assert.Equal(t, 3, g.Order())
	assert.Zero(t, g.Size())
}

func TestReadGraphMLNonNumericIDs(t *testing.T) {
	doc := `<graphml><graph edgedefault="directed">
<node id="a"/><node id="b"/><edge source="b" target="a"/><edge source="a" target="a"/>
</graph></graphml>`
	g, err := ReadGraphML(strings.NewReader(doc), newSession())
	require.NoError(t, err)

	assert.Equal(t, 2, g.Order())
	e0, ok := g.Edge(0)
	require.True(t, ok)
	assert.Equal(t, int64(1), e0.Source)
	assert.Equal(t, int64(0), e0.Target)
	e1, ok := g.Edge(1)
	require.True(t, ok)
	assert.True(t, e1.IsLoop())
}

func TestReadGraphMLErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"malformed":      `<graphml><graph>`,
		"unknown source": `<graphml><graph><node id="n0"/><edge source="n9" target="n0"/></graph></graphml>`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadGraphML(strings.NewReader(doc), newSession())
			assert.True(t, errors.Is(err, errors.ErrIO), "got %v", err)
		})
	}
}

func TestReadGraphMLBadNumberIsDeferred(t *testing.T) {
	doc := `<graphml><key id="m" for="node" attr.name="mag" attr.type="double"/>
<graph><node id="n0"><data key="m">bright</data></node></graph></graphml>`
	g, err := ReadGraphML(strings.NewReader(doc), newSession())
	require.NoError(t, err)

	v, _ := g.Vertex(0)
	assert.Equal(t, "bright", v.Attrs.Text("mag"))
	_, err = v.Attrs.Float("mag")
	assert.True(t, errors.Is(err, errors.ErrParse))
}

func build(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(newSession())
	src := g.AddVertex("source")
	src.Attrs.Put("objectId", core.Text("ZTF18abc"))
	a := g.AddVertex("alert")
	a.Attrs.Put("magpsf", core.Double(17.25))
	a.Attrs.Put("nobs", core.Int(4))
	a.Attrs.Put("real", core.Bool(true))
	b := g.AddVertex("alert")
	b.Attrs.Put("magpsf", core.Double(18.5))
	b.Attrs.Put("fid", core.Long(2))

	_, err := g.AddEdge(src.ID, a.ID, "has")
	require.NoError(t, err)
	d, err := g.AddEdge(a.ID, b.ID, "distance")
	require.NoError(t, err)
	d.Attrs.Put("difference", core.Double(1.25))
	d.SetWeight(1.25)
	_, err = g.AddEdge(b.ID, b.ID, "self")
	require.NoError(t, err)
	return g
}

func assertSameGraph(t *testing.T, want, got *graph.Graph) {
	t.Helper()
	require.Equal(t, want.Order(), got.Order())
	require.Equal(t, want.Size(), got.Size())
	for _, v := range want.Vertices() {
		gv, ok := got.Vertex(v.ID)
		require.True(t, ok, "vertex %d", v.ID)
		assert.Equal(t, v.Attrs.Names(), gv.Attrs.Names())
		for _, name := range v.Attrs.Names() {
			assert.Equal(t, v.Attrs.Text(name), gv.Attrs.Text(name), "vertex %d %s", v.ID, name)
		}
	}
	for _, e := range want.Edges() {
		ge, ok := got.Edge(e.ID)
		require.True(t, ok, "edge %d", e.ID)
		assert.Equal(t, e.Source, ge.Source)
		assert.Equal(t, e.Target, ge.Target)
		assert.Equal(t, e.Label(), ge.Label())
		assert.Equal(t, e.Weight(), ge.Weight())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	g := build(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, g))

	s := newSession()
	back, err := ReadJSON(&buf, s)
	require.NoError(t, err)
	assertSameGraph(t, g, back)

	kind, ok := s.Registry.Kind("real")
	require.True(t, ok)
	assert.Equal(t, core.KindBool, kind)
}

func TestGraphMLRoundTrip(t *testing.T) {
	g := build(t)

	var buf bytes.Buffer
	require.NoError(t, WriteGraphML(&buf, g))
	assert.Contains(t, buf.String(), `attr.type="double"`)

	back, err := ReadGraphML(&buf, newSession())
	require.NoError(t, err)
	require.Equal(t, g.Order(), back.Order())
	require.Equal(t, g.Size(), back.Size())

	for _, v := range g.Vertices() {
		bv, ok := back.Vertex(v.ID)
		require.True(t, ok)
		for _, name := range v.Attrs.Names() {
			assert.Equal(t, v.Attrs.Text(name), bv.Attrs.Text(name))
		}
	}
	d, ok := back.Edge(1)
	require.True(t, ok)
	assert.True(t, d.HasExplicitWeight())
	assert.Equal(t, 1.25, d.Weight())
}

func TestWriteDOT(t *testing.T) {
	g := build(t)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, g))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "digraph G {"))
	assert.Contains(t, out, "source(0)")
	assert.Contains(t, out, "alert(2)")
	assert.Contains(t, out, "0 -> 1")
	assert.Contains(t, out, "1 -> 2")
	assert.Contains(t, out, "2 -> 2")
	assert.Contains(t, out, "1.25", "distance edges are named by their difference")
}

func TestReadWriteFiles(t *testing.T) {
	dir := t.TempDir()
	g := build(t)

	for _, name := range []string{"out.json", "out.graphml", "out.dot"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Write(path, g), name)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	back, err := Read(filepath.Join(dir, "out.json"), newSession())
	require.NoError(t, err)
	assertSameGraph(t, g, back)

	_, err = Read(filepath.Join(dir, "out.dot"), newSession())
	assert.True(t, errors.Is(err, errors.ErrIO))

	_, err = Read(filepath.Join(dir, "missing.graphml"), newSession())
	assert.True(t, errors.Is(err, errors.ErrIO))

	err = Write(filepath.Join(dir, "out.csv"), g)
	assert.True(t, errors.Is(err, errors.ErrIO))
}
