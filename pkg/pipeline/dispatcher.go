// Package pipeline runs step-list configurations against one graph.
//
// A configuration such as
//
//	ADD-DISTANCE,photometry;STRONG-CONNECTIVITY;CLUSTER,kspanning,3;IMMERSION,all,5
//
// is parsed into typed steps up front and executed strictly in order, every
// step seeing the edges and attributes produced by the previous ones. A
// failing step is reported and skipped; it never stops the steps after it.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanonone/kektorgraph/pkg/config"
	"github.com/sanonone/kektorgraph/pkg/engine"
	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
	"github.com/sanonone/kektorgraph/pkg/metrics"
)

// StepResult is the outcome of one step. Report holds an
// *engine.DistanceReport, an *engine.RankReport or an algorithms.Partition,
// depending on the operation.
type StepResult struct {
	Index    int           `json:"index"`
	Name     string        `json:"name"`
	Op       Op            `json:"op,omitempty"`
	Report   any           `json:"report,omitempty"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Failed returns the results that carry an error.
func Failed(results []StepResult) []StepResult {
	var out []StepResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Dispatcher executes pipelines against one engine.
type Dispatcher struct {
	engine *engine.Engine
	cfg    config.Config
	viewer Viewer
	log    *zap.SugaredLogger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithViewer hands the graph to v after every run.
func WithViewer(v Viewer) Option {
	return func(d *Dispatcher) { d.viewer = v }
}

// WithLogger overrides the session logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// NewDispatcher creates a dispatcher bound to eng. cfg supplies presets and
// the defaults of omitted step parameters.
func NewDispatcher(eng *engine.Engine, cfg config.Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{engine: eng, cfg: cfg}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = eng.Graph().Session().Logger()
	}
	d.log = d.log.Named("pipeline")
	return d
}

// Graph returns the graph the dispatcher operates on.
func (d *Dispatcher) Graph() *graph.Graph {
	return d.engine.Graph()
}

// Run parses raw and executes its steps in order. It returns an error only
// when raw cannot be parsed at all or ctx is done between two steps; step
// failures are reported in the results.
func (d *Dispatcher) Run(ctx context.Context, raw string) ([]StepResult, error) {
	steps, err := Parse(raw, d.cfg)
	if err != nil {
		return nil, err
	}
	d.log.Infow("Running pipeline", "steps", len(steps))

	results := make([]StepResult, 0, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return results, errors.Wrapf(err, "pipeline interrupted before step %d", step.Index)
		}
		results = append(results, d.execute(step))
	}

	failed := len(Failed(results))
	d.log.Infow("Pipeline finished", "steps", len(results), "failed", failed)

	if d.viewer != nil {
		d.viewer.Show(d.engine.Graph())
	}
	return results, nil
}

func (d *Dispatcher) execute(step Step) StepResult {
	res := StepResult{Index: step.Index, Name: step.Name, Op: step.Op}
	op := string(step.Op)
	if op == "" {
		op = "unknown"
	}

	if step.Err != nil {
		res.Err = step.Err
	} else {
		start := time.Now()
		res.Report, res.Err = d.run(step.Action)
		res.Duration = time.Since(start)
		metrics.PipelineStepDuration.WithLabelValues(op).Observe(res.Duration.Seconds())
	}

	if res.Err != nil {
		res.Error = res.Err.Error()
		metrics.PipelineStepsTotal.WithLabelValues(op, "error").Inc()
		logf := d.log.Warnw
		if !errors.IsStepLocal(res.Err) {
			logf = d.log.Errorw
		}
		logf("Step failed",
			"step", step.Index, "op", step.Name, "error", res.Err,
			"hint", errors.FlattenHints(res.Err))
		return res
	}
	metrics.PipelineStepsTotal.WithLabelValues(op, "ok").Inc()
	d.log.Infow("Step done", "step", step.Index, "op", op, "duration", res.Duration)
	return res
}

func (d *Dispatcher) run(action Action) (any, error) {
	switch a := action.(type) {
	case AddDistance:
		return d.engine.AddDistanceEdges(a.Request)
	case StrongConnectivity:
		return d.engine.StronglyConnectedComponents()
	case Cluster:
		return d.engine.Cluster(a.Algorithm, a.K)
	case ConnectivityRank:
		return d.engine.Connectivity(a.Request)
	case Immersion:
		return d.engine.Immersion(a.Request)
	}
	return nil, errors.NewUnknownOperationError(string(action.Op()))
}
