package engine

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/sanonone/kektorgraph/pkg/core"
	"github.com/sanonone/kektorgraph/pkg/core/distance"
	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
	"github.com/sanonone/kektorgraph/pkg/metrics"
)

// ValueTransform selects what is stored in the value attribute of a new
// similarity edge.
type ValueTransform string

const (
	// ValueRaw stores the distance itself.
	ValueRaw ValueTransform = "raw"
	// ValueReciprocal stores 1/distance, turning a dissimilarity into a
	// similarity. Created edges always have a strictly positive distance.
	ValueReciprocal ValueTransform = "reciprocal"
)

// ParseValueTransform resolves a transform name; "" means ValueRaw.
func ParseValueTransform(s string) (ValueTransform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw", "distance":
		return ValueRaw, nil
	case "reciprocal", "inverse", "similarity":
		return ValueReciprocal, nil
	}
	return "", errors.NewConfigurationError("unknown value transform %q", s)
}

// DistanceRequest describes one edge materialization pass.
type DistanceRequest struct {
	// VertexLabel filters the population. Empty selects every vertex.
	VertexLabel string
	// Attributes to compare, in order. nil selects every numeric attribute
	// carried by the population, in lexicographic order.
	Attributes []string
	Metric     distance.Metric
	// Normalize divides every attribute by its mean over the population.
	Normalize bool

	RelationLabel  string
	ValueAttribute string
	Value          ValueTransform

	// A pair gets an edge when its distance d satisfies
	// min*MinFraction < d <= max*MaxFraction, where min is the smallest
	// positive and max the largest distance of the first pass.
	MinFraction float64
	MaxFraction float64
}

// Validate checks the request before any work is done.
func (r DistanceRequest) Validate() error {
	if _, err := distance.GetFunc(r.Metric); err != nil {
		return err
	}
	if r.RelationLabel == "" {
		return errors.NewConfigurationError("relation label is required")
	}
	if r.ValueAttribute == "" {
		return errors.NewConfigurationError("value attribute is required")
	}
	if _, err := ParseValueTransform(string(r.Value)); err != nil {
		return err
	}
	if !inUnit(r.MinFraction) || !inUnit(r.MaxFraction) {
		return errors.WithHint(
			errors.NewConfigurationError("fractions must lie in [0,1], got min=%g max=%g", r.MinFraction, r.MaxFraction),
			"use min=0 max=1 to connect every pair",
		)
	}
	return nil
}

func inUnit(f float64) bool {
	return f >= 0 && f <= 1
}

// NormalizationTable maps an attribute to its mean over a population.
type NormalizationTable map[string]float64

// DuplicatePair is a pair of distinct vertices at distance zero.
type DuplicatePair struct {
	A int64 `json:"a"`
	B int64 `json:"b"`
}

// DistanceReport summarizes an AddDistanceEdges call.
type DistanceReport struct {
	VertexLabel   string             `json:"vertex_label"`
	RelationLabel string             `json:"relation_label"`
	Metric        distance.Metric    `json:"metric"`
	Attributes    []string           `json:"attributes"`
	Means         NormalizationTable `json:"means,omitempty"`
	Vertices      int                `json:"vertices"`
	Pairs         int                `json:"pairs"`
	Created       int                `json:"created"`
	Min           float64            `json:"min"`
	Max           float64            `json:"max"`
	Lower         float64            `json:"lower"`
	Upper         float64            `json:"upper"`
	Duplicates    []DuplicatePair    `json:"duplicates,omitempty"`
}

// population is the validated, coerced and optionally normalized input of a
// pairwise pass.
type population struct {
	vertices []*graph.Vertex
	attrs    []string
	rows     [][]float64
	means    NormalizationTable
	metric   distance.Metric
	fn       distance.Func
}

func (p *population) distance(i, j int) (float64, error) {
	return p.fn(p.rows[i], p.rows[j])
}

// ResolveAttributes returns attrs unchanged when not nil; otherwise every
// registered numeric attribute carried by at least one of vertices, in
// lexicographic order. The immersion score attribute is never selected
// implicitly, so repeated rankings see the same input.
func (e *Engine) ResolveAttributes(vertices []*graph.Vertex, attrs []string) []string {
	if attrs != nil {
		return attrs
	}
	var out []string
	for _, name := range e.graph.Session().Registry.NumericNames() {
		if name == e.opts.ImmersionAttribute {
			continue
		}
		for _, v := range vertices {
			if v.Attrs.Has(name) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// means computes the per-column arithmetic mean of rows.
func means(rows [][]float64, attrs []string) NormalizationTable {
	table := make(NormalizationTable, len(attrs))
	if len(rows) == 0 {
		return table
	}
	col := make([]float64, len(rows))
	for j, name := range attrs {
		for i, row := range rows {
			col[i] = row[j]
		}
		table[name] = stat.Mean(col, nil)
	}
	return table
}

// Normalization computes the normalization table of attrs over the vertices
// of label. attrs nil selects every numeric attribute, as in DistanceRequest.
func (e *Engine) Normalization(label string, attrs []string) (NormalizationTable, error) {
	vertices := e.graph.VerticesByLabel(label)
	attrs = e.ResolveAttributes(vertices, attrs)
	rows, err := graph.NumericMatrix(vertices, attrs)
	if err != nil {
		return nil, err
	}
	return means(rows, attrs), nil
}

// Distance computes the distance between two vertices over attrs. norm may
// be nil; otherwise every attribute is divided by its mean in norm (zero
// means leave the attribute unscaled).
func (e *Engine) Distance(a, b *graph.Vertex, attrs []string, metric distance.Metric, norm NormalizationTable) (float64, error) {
	fn, err := distance.GetFunc(metric)
	if err != nil {
		return 0, err
	}
	rows, err := graph.NumericMatrix([]*graph.Vertex{a, b}, attrs)
	if err != nil {
		return 0, err
	}
	if norm != nil {
		scale(rows, attrs, norm)
	}
	return fn(rows[0], rows[1])
}

func scale(rows [][]float64, attrs []string, norm NormalizationTable) {
	for j, name := range attrs {
		m := norm[name]
		if m == 0 {
			continue
		}
		for _, row := range rows {
			row[j] /= m
		}
	}
}

// prepare resolves, validates, coerces and normalizes the population of a
// pairwise pass.
func (e *Engine) prepare(label string, attrs []string, metric distance.Metric, normalize bool) (*population, error) {
	fn, err := distance.GetFunc(metric)
	if err != nil {
		return nil, err
	}
	vertices := e.graph.VerticesByLabel(label)
	attrs = e.ResolveAttributes(vertices, attrs)
	if len(attrs) == 0 && len(vertices) > 0 {
		return nil, errors.WithHint(
			errors.NewConfigurationError("no numeric attributes to compare for label %q", label),
			"name the attributes explicitly or check the attribute kinds of the input",
		)
	}

	rows, err := graph.NumericMatrix(vertices, attrs)
	if err != nil {
		return nil, errors.Wrapf(err, "validating %d %q vertices", len(vertices), label)
	}

	p := &population{vertices: vertices, attrs: attrs, rows: rows, metric: metric, fn: fn}
	if normalize {
		p.means = means(rows, attrs)
		for _, name := range attrs {
			if p.means[name] == 0 {
				e.log.Warnw("Attribute has zero mean, left unnormalized", "attribute", name, "label", label)
			}
		}
		scale(rows, attrs, p.means)
	}
	return p, nil
}

// AddDistanceEdges compares every unordered pair of vertices of the request
// label and creates an edge for each pair whose distance falls within the
// relative thresholds. Pairs are visited in graph insertion order, the
// lower-ordered vertex becoming the edge source, so a given input always
// produces the same edges.
//
// The cost is two passes over n(n-1)/2 pairs of k attributes.
func (e *Engine) AddDistanceEdges(req DistanceRequest) (*DistanceReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	transform, _ := ParseValueTransform(string(req.Value))

	p, err := e.prepare(req.VertexLabel, req.Attributes, req.Metric, req.Normalize)
	if err != nil {
		return nil, err
	}

	n := len(p.vertices)
	report := &DistanceReport{
		VertexLabel:   req.VertexLabel,
		RelationLabel: req.RelationLabel,
		Metric:        req.Metric,
		Attributes:    p.attrs,
		Means:         p.means,
		Vertices:      n,
	}
	e.log.Infow("Adding distance edges",
		"label", req.VertexLabel, "vertices", n, "attributes", len(p.attrs),
		"metric", req.Metric, "normalize", req.Normalize)

	// First pass: range of observed distances.
	minPos, maxD := math.Inf(1), 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := p.distance(i, j)
			if err != nil {
				return nil, err
			}
			report.Pairs++
			if d == 0 {
				pair := DuplicatePair{A: p.vertices[i].ID, B: p.vertices[j].ID}
				report.Duplicates = append(report.Duplicates, pair)
				e.log.Warnw("Zero distance between distinct vertices, possible duplicate",
					"a", pair.A, "b", pair.B)
				continue
			}
			if d < minPos {
				minPos = d
			}
			if d > maxD {
				maxD = d
			}
		}
	}
	if math.IsInf(minPos, 1) {
		minPos = 0
	}
	report.Min, report.Max = minPos, maxD
	report.Lower, report.Upper = minPos*req.MinFraction, maxD*req.MaxFraction

	// Second pass: materialize.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := p.distance(i, j)
			if err != nil {
				return report, err
			}
			if d <= report.Lower || d > report.Upper {
				continue
			}
			if err := e.addDistanceEdge(p.vertices[i], p.vertices[j], req, transform, d); err != nil {
				return report, err
			}
			report.Created++
		}
	}

	metrics.DistancePairsTotal.WithLabelValues(string(req.Metric)).Add(float64(2 * report.Pairs))
	metrics.EdgesCreatedTotal.WithLabelValues(req.RelationLabel).Add(float64(report.Created))
	e.log.Infow("Distance edges added",
		"relation", req.RelationLabel, "pairs", report.Pairs, "created", report.Created,
		"min", report.Min, "max", report.Max, "duplicates", len(report.Duplicates))
	return report, nil
}

func (e *Engine) addDistanceEdge(a, b *graph.Vertex, req DistanceRequest, transform ValueTransform, d float64) error {
	edge, err := e.graph.AddEdge(a.ID, b.ID, req.RelationLabel)
	if err != nil {
		return err
	}
	value := d
	if transform == ValueReciprocal {
		value = 1 / d
	}
	edge.Attrs.Put(req.ValueAttribute, core.Double(value))
	w, ok := graph.GeneratedWeight(e.graph.Session().Labels(), req.RelationLabel, edge.Attrs)
	if !ok {
		w = graph.DefaultWeight
	}
	edge.SetWeight(w)
	return nil
}
