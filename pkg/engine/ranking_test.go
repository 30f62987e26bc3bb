package engine

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/kektorgraph/pkg/core"
	"github.com/sanonone/kektorgraph/pkg/core/distance"
	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
	"github.com/sanonone/kektorgraph/pkg/metrics"
)

func ids(entries []RankEntry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.VertexID
	}
	return out
}

func TestImmersion(t *testing.T) {
	eng := line(t)

	report, err := eng.Immersion(ImmersionRequest{
		VertexLabel: "alert",
		Metric:      distance.Linear,
		K:           2,
	})
	require.NoError(t, err)

	assert.Equal(t, RankImmersion, report.Kind)
	assert.Equal(t, 4, report.Vertices)
	assert.False(t, report.Overlap)
	assert.Equal(t, []int64{1, 2}, ids(report.MostConnected()))
	assert.Equal(t, []int64{0, 3}, ids(report.MostIsolated()))
	assert.InDelta(t, 4.0, report.Low[0].Score, 1e-12)
	assert.InDelta(t, 6.0, report.High[1].Score, 1e-12)
	assert.Equal(t, "ZTFB", report.Low[0].Name)

	want := []float64{6, 4, 4, 6}
	for i, v := range eng.Graph().VerticesByLabel("alert") {
		f, err := v.Attrs.Float("immersion")
		require.NoError(t, err)
		assert.InDelta(t, want[i], f, 1e-12, "vertex %d", v.ID)
	}
	src := eng.Graph().VerticesByLabel("source")[0]
	assert.False(t, src.Attrs.Has("immersion"))
	assert.Zero(t, eng.Graph().Size(), "immersion never adds edges")
}

func TestImmersionOverlapAndClamp(t *testing.T) {
	eng := line(t)

	report, err := eng.Immersion(ImmersionRequest{VertexLabel: "alert", Metric: distance.Linear, K: 3})
	require.NoError(t, err)
	assert.True(t, report.Overlap)
	assert.Len(t, report.Low, 3)
	assert.Len(t, report.High, 3)

	report, err = eng.Immersion(ImmersionRequest{VertexLabel: "alert", Metric: distance.Linear, K: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, report.K)
	assert.Equal(t, []int64{1, 2, 0, 3}, ids(report.Low))
	assert.Equal(t, ids(report.Low), ids(report.High))

	report, err = eng.Immersion(ImmersionRequest{VertexLabel: "alert", Metric: distance.Linear, K: 0})
	require.NoError(t, err)
	assert.Empty(t, report.Low)
	assert.Empty(t, report.High)
	assert.False(t, report.Overlap)

	_, err = eng.Immersion(ImmersionRequest{VertexLabel: "alert", Metric: distance.Linear, K: -1})
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestImmersionDisjointExtremes(t *testing.T) {
	g := graph.New(core.NewSession(core.DefaultLabels(), nil))
	for _, x := range []float64{3, 9, 1, 4, 1, 5, 9, 2, 6, 5} {
		v := g.AddVertex("alert")
		v.Attrs.Put("a", core.Double(x))
		v.Attrs.Put("b", core.Long(int64(x*x)))
	}
	eng := New(g, DefaultOptions())

	for k := 0; k <= 5; k++ {
		report, err := eng.Immersion(ImmersionRequest{VertexLabel: "alert", Metric: distance.Quadratic, Normalize: true, K: k})
		require.NoError(t, err)
		assert.False(t, report.Overlap)

		low := make(map[int64]bool)
		for _, e := range report.Low {
			low[e.VertexID] = true
		}
		for _, e := range report.High {
			assert.False(t, low[e.VertexID], "k=%d: vertex %d in both extremes", k, e.VertexID)
		}
		for i := 1; i < len(report.Low); i++ {
			assert.LessOrEqual(t, report.Low[i-1].Score, report.Low[i].Score)
		}
		if k > 0 {
			assert.LessOrEqual(t, report.Low[len(report.Low)-1].Score, report.High[0].Score)
		}
	}
}

func TestImmersionMissingAttribute(t *testing.T) {
	eng := line(t)
	eng.Graph().AddVertex("alert")

	_, err := eng.Immersion(ImmersionRequest{VertexLabel: "alert", Metric: distance.Linear, K: 1})
	assert.True(t, errors.Is(err, errors.ErrMissingAttribute))
	for _, v := range eng.Graph().Vertices() {
		assert.False(t, v.Attrs.Has("immersion"), "no score may be written on failure")
	}
}

func TestConnectivity(t *testing.T) {
	g := graph.New(core.NewSession(core.DefaultLabels(), nil))
	for i := 0; i < 4; i++ {
		g.AddVertex("alert")
	}
	// Star around 0, a loop on 3 and a heavy edge 1 -> 2.
	for _, p := range [][2]int64{{0, 1}, {0, 2}, {3, 0}, {3, 3}} {
		_, err := g.AddEdge(p[0], p[1], "link")
		require.NoError(t, err)
	}
	heavy, err := g.AddEdge(1, 2, "link")
	require.NoError(t, err)
	heavy.SetWeight(10)
	eng := New(g, DefaultOptions())

	report, err := eng.Connectivity(ConnectivityRequest{VertexLabel: "alert", N: 1})
	require.NoError(t, err)
	assert.Equal(t, RankConnectivity, report.Kind)
	// Counts: 0 -> 3, 1 -> 2, 2 -> 2, 3 -> 2 (loop once).
	assert.Equal(t, []int64{1}, ids(report.Low))
	assert.Equal(t, []int64{0}, ids(report.High))
	assert.InDelta(t, 3.0, report.High[0].Score, 1e-12)

	report, err = eng.Connectivity(ConnectivityRequest{VertexLabel: "alert", N: 2, Weighted: true})
	require.NoError(t, err)
	// Weights: 0 -> 3, 1 -> 11, 2 -> 11, 3 -> 2.
	assert.Equal(t, []int64{3, 0}, ids(report.Low))
	assert.Equal(t, []int64{1, 2}, ids(report.High))
	assert.InDelta(t, 11.0, report.High[1].Score, 1e-12)
}

func TestConnectivityMatchesImmersionOnCompleteGraph(t *testing.T) {
	eng := line(t)
	_, err := eng.AddDistanceEdges(request(0, 1))
	require.NoError(t, err)

	conn, err := eng.Connectivity(ConnectivityRequest{VertexLabel: "alert", N: 2, Weighted: true})
	require.NoError(t, err)
	imm, err := eng.Immersion(ImmersionRequest{VertexLabel: "alert", Metric: distance.Quadratic, K: 2})
	require.NoError(t, err)

	assert.Equal(t, ids(imm.Low), ids(conn.Low))
	assert.Equal(t, ids(imm.High), ids(conn.High))
}

func TestImmersionCountsEachPairOnce(t *testing.T) {
	eng := line(t)
	counter := metrics.DistancePairsTotal.WithLabelValues(string(distance.Logarithmic))
	before := testutil.ToFloat64(counter)

	_, err := eng.Immersion(ImmersionRequest{VertexLabel: "alert", Attributes: []string{"x"}, Metric: distance.Logarithmic, K: 1})
	require.NoError(t, err)

	assert.Equal(t, 6.0, testutil.ToFloat64(counter)-before)
}
