package engine

import (
	"github.com/tidwall/btree"

	"github.com/sanonone/kektorgraph/pkg/core"
	"github.com/sanonone/kektorgraph/pkg/core/distance"
	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
	"github.com/sanonone/kektorgraph/pkg/metrics"
)

// Ranking kinds reported in RankReport.Kind.
const (
	RankImmersion    = "immersion"
	RankConnectivity = "connectivity"
)

// RankEntry is one ranked vertex.
type RankEntry struct {
	VertexID int64   `json:"id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
}

// RankReport holds the two extremes of a ranking. Both lists are in
// ascending score order with ties kept in graph insertion order.
//
// For immersion, Low holds the most connected vertices (smallest aggregate
// distance) and High the most isolated. For connectivity, Low holds the least
// connected and High the most connected.
type RankReport struct {
	Kind     string      `json:"kind"`
	Vertices int         `json:"vertices"`
	K        int         `json:"k"`
	Low      []RankEntry `json:"low"`
	High     []RankEntry `json:"high"`
	// Overlap is set when 2K exceeds the population, so that Low and High
	// share vertices.
	Overlap bool `json:"overlap"`
}

// MostConnected returns the vertices with the smallest immersion.
func (r *RankReport) MostConnected() []RankEntry { return r.Low }

// MostIsolated returns the vertices with the largest immersion.
func (r *RankReport) MostIsolated() []RankEntry { return r.High }

// Least returns the vertices with the lowest connectivity.
func (r *RankReport) Least() []RankEntry { return r.Low }

// Most returns the vertices with the highest connectivity.
func (r *RankReport) Most() []RankEntry { return r.High }

// scoreItem orders a vertex by score, then by its position in the population.
type scoreItem struct {
	Score  float64
	Seq    int
	Vertex *graph.Vertex
}

func scoreItemLess(a, b scoreItem) bool {
	if a.Score < b.Score {
		return true
	}
	if a.Score > b.Score {
		return false
	}
	return a.Seq < b.Seq
}

// scoreTable is a sorted score index over a population.
type scoreTable struct {
	tree *btree.BTreeG[scoreItem]
}

func newScoreTable() *scoreTable {
	return &scoreTable{tree: btree.NewBTreeG[scoreItem](scoreItemLess)}
}

func (t *scoreTable) add(seq int, v *graph.Vertex, score float64) {
	t.tree.Set(scoreItem{Score: score, Seq: seq, Vertex: v})
}

func entry(it scoreItem) RankEntry {
	return RankEntry{VertexID: it.Vertex.ID, Name: it.Vertex.Name(), Score: it.Score}
}

// extremes returns the k lowest and k highest items, both ascending.
func (t *scoreTable) extremes(k int) (low, high []RankEntry) {
	low = make([]RankEntry, 0, k)
	t.tree.Scan(func(it scoreItem) bool {
		if len(low) == k {
			return false
		}
		low = append(low, entry(it))
		return true
	})

	high = make([]RankEntry, k)
	i := k
	t.tree.Reverse(func(it scoreItem) bool {
		if i == 0 {
			return false
		}
		i--
		high[i] = entry(it)
		return true
	})
	return low, high
}

func (t *scoreTable) report(kind string, k int) (*RankReport, error) {
	if k < 0 {
		return nil, errors.NewConfigurationError("rank count must not be negative, got %d", k)
	}
	n := t.tree.Len()
	if k > n {
		k = n
	}
	low, high := t.extremes(k)
	return &RankReport{
		Kind:     kind,
		Vertices: n,
		K:        k,
		Low:      low,
		High:     high,
		Overlap:  2*k > n,
	}, nil
}

// ImmersionRequest describes an immersion ranking.
type ImmersionRequest struct {
	VertexLabel string
	Attributes  []string
	Metric      distance.Metric
	Normalize   bool
	K           int
}

// Immersion scores every vertex of the request label by its summed distance
// to every other vertex of the label, stores the score as an attribute and
// returns the k most connected and k most isolated vertices.
//
// Distances are computed once per unordered pair and credited to both ends.
func (e *Engine) Immersion(req ImmersionRequest) (*RankReport, error) {
	if req.K < 0 {
		return nil, errors.NewConfigurationError("rank count must not be negative, got %d", req.K)
	}
	p, err := e.prepare(req.VertexLabel, req.Attributes, req.Metric, req.Normalize)
	if err != nil {
		return nil, err
	}

	n := len(p.vertices)
	sums := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := p.distance(i, j)
			if err != nil {
				return nil, err
			}
			sums[i] += d
			sums[j] += d
		}
	}
	metrics.DistancePairsTotal.WithLabelValues(string(req.Metric)).Add(float64(n * (n - 1) / 2))

	table := newScoreTable()
	for i, v := range p.vertices {
		v.Attrs.Put(e.opts.ImmersionAttribute, core.Double(sums[i]))
		table.add(i, v, sums[i])
	}

	report, err := table.report(RankImmersion, req.K)
	if err != nil {
		return nil, err
	}
	e.log.Infow("Immersion ranking",
		"label", req.VertexLabel, "vertices", n, "k", report.K, "overlap", report.Overlap)
	e.logRanking("Most connected", report.Low)
	e.logRanking("Most isolated", report.High)
	return report, nil
}

// ConnectivityRequest describes a connectivity ranking.
type ConnectivityRequest struct {
	VertexLabel string
	N           int
	// Weighted sums edge weights instead of counting edges.
	Weighted bool
}

// Connectivity scores every vertex of the request label by its incident
// edges, counted or weighted, and returns the n least and n most connected.
// A self-loop counts once.
func (e *Engine) Connectivity(req ConnectivityRequest) (*RankReport, error) {
	if req.N < 0 {
		return nil, errors.NewConfigurationError("rank count must not be negative, got %d", req.N)
	}
	vertices := e.graph.VerticesByLabel(req.VertexLabel)
	table := newScoreTable()
	for i, v := range vertices {
		score := 0.0
		for _, edge := range e.graph.IncidentEdges(v.ID) {
			if req.Weighted {
				score += edge.Weight()
			} else {
				score++
			}
		}
		table.add(i, v, score)
	}

	report, err := table.report(RankConnectivity, req.N)
	if err != nil {
		return nil, err
	}
	e.log.Infow("Connectivity ranking",
		"label", req.VertexLabel, "vertices", len(vertices), "n", report.K, "weighted", req.Weighted)
	e.logRanking("Least connected", report.Low)
	e.logRanking("Most connected", report.High)
	return report, nil
}

func (e *Engine) logRanking(title string, entries []RankEntry) {
	for _, it := range entries {
		e.log.Debugw(title, "vertex", it.VertexID, "name", it.Name, "score", it.Score)
	}
}
