package core

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default label keys and tables, as used by the alert/source graphs this
// engine was written for.
const (
	DefaultVertexLabelKey = "labelV"
	DefaultEdgeLabelKey   = "labelE"
)

// Labels holds the label-driven lookup tables consulted for display names and
// generated edge weights. The tables are fixed once a Session is created and
// shared read-only by every element of the session.
type Labels struct {
	// VertexKey and EdgeKey are the attribute names that carry the label.
	VertexKey string `yaml:"vertex_key"`
	EdgeKey   string `yaml:"edge_key"`

	// VertexNames maps a vertex label to the attribute holding its display name.
	VertexNames map[string]string `yaml:"vertex_names"`
	// EdgeNames maps an edge label to the attribute holding its display name.
	EdgeNames map[string]string `yaml:"edge_names"`
	// EdgeWeights maps an edge label to the numeric attribute its weight is
	// generated from.
	EdgeWeights map[string]string `yaml:"edge_weights"`
}

// DefaultLabels returns the tables used when no configuration overrides them.
func DefaultLabels() Labels {
	return Labels{
		VertexKey: DefaultVertexLabelKey,
		EdgeKey:   DefaultEdgeLabelKey,
		VertexNames: map[string]string{
			"source": "objectId",
			"alert":  "objectId",
		},
		EdgeNames: map[string]string{
			"distance": "difference",
		},
		EdgeWeights: map[string]string{
			"distance": "difference",
		},
	}
}

func (l Labels) clone() Labels {
	c := Labels{VertexKey: l.VertexKey, EdgeKey: l.EdgeKey}
	c.VertexNames = cloneMap(l.VertexNames)
	c.EdgeNames = cloneMap(l.EdgeNames)
	c.EdgeWeights = cloneMap(l.EdgeWeights)
	if c.VertexKey == "" {
		c.VertexKey = DefaultVertexLabelKey
	}
	if c.EdgeKey == "" {
		c.EdgeKey = DefaultEdgeLabelKey
	}
	return c
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Session scopes everything that would otherwise be process-wide: the
// attribute type registry, the vertex and edge id counters and the label
// tables. Pipelines that must not interfere use separate sessions.
//
// Id allocation is not synchronized; a session serves one writer at a time.
type Session struct {
	ID       uuid.UUID
	Registry *Registry

	labels       Labels
	nextVertexID int64
	nextEdgeID   int64
	log          *zap.SugaredLogger
}

// NewSession creates a session with its own registry and counters.
// labels is copied; later changes to the caller's maps are not observed.
func NewSession(labels Labels, log *zap.SugaredLogger) *Session {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	id := uuid.New()
	log = log.Named("session").With("session", id.String())
	return &Session{
		ID:       id,
		Registry: NewRegistry(log),
		labels:   labels.clone(),
		log:      log,
	}
}

// Labels returns the session label tables. The maps must not be modified.
func (s *Session) Labels() Labels {
	return s.labels
}

// Logger returns the session logger.
func (s *Session) Logger() *zap.SugaredLogger {
	return s.log
}

// NextVertexID allocates a fresh vertex id.
func (s *Session) NextVertexID() int64 {
	id := s.nextVertexID
	s.nextVertexID++
	return id
}

// NextEdgeID allocates a fresh edge id.
func (s *Session) NextEdgeID() int64 {
	id := s.nextEdgeID
	s.nextEdgeID++
	return id
}

// ReserveVertexID makes sure future allocations never return id or anything
// below it. Readers that keep ids from an input file call it.
func (s *Session) ReserveVertexID(id int64) {
	if id >= s.nextVertexID {
		s.nextVertexID = id + 1
	}
}

// ReserveEdgeID is the edge counterpart of ReserveVertexID.
func (s *Session) ReserveEdgeID(id int64) {
	if id >= s.nextEdgeID {
		s.nextEdgeID = id + 1
	}
}

// NewBag creates a bag bound to the session registry.
func (s *Session) NewBag() *Bag {
	return NewBag(s.Registry)
}
