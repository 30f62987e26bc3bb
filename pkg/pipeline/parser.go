package pipeline

import (
	"strconv"
	"strings"

	"github.com/sanonone/kektorgraph/pkg/algorithms"
	"github.com/sanonone/kektorgraph/pkg/config"
	"github.com/sanonone/kektorgraph/pkg/core/distance"
	"github.com/sanonone/kektorgraph/pkg/engine"
	"github.com/sanonone/kektorgraph/pkg/errors"
)

// Separators of the step-list grammar: step (";" step)*, step := op ("," param)*.
const (
	StepSeparator  = ";"
	ParamSeparator = ","
)

// Op is a canonical operation code.
type Op string

const (
	OpAddDistance        Op = "ADD-DISTANCE"
	OpStrongConnectivity Op = "STRONG-CONNECTIVITY"
	OpCluster            Op = "CLUSTER"
	OpConnectivityRank   Op = "CONNECTIVITY-RANK"
	OpImmersion          Op = "IMMERSION"
)

var opcodes = map[string]Op{
	"ADD-DISTANCE":        OpAddDistance,
	"DIST":                OpAddDistance,
	"STRONG-CONNECTIVITY": OpStrongConnectivity,
	"SC":                  OpStrongConnectivity,
	"CLUSTER":             OpCluster,
	"CL":                  OpCluster,
	"CONNECTIVITY-RANK":   OpConnectivityRank,
	"CR":                  OpConnectivityRank,
	"IMMERSION":           OpImmersion,
	"IM":                  OpImmersion,
}

// Step is one parsed pipeline step. Exactly one of Action and Err is set.
type Step struct {
	Index  int
	Name   string // opcode as written
	Op     Op     // empty when the opcode is unknown
	Params []string
	Action Action
	Err    error
}

// Action is the typed descriptor of a step.
type Action interface {
	Op() Op
}

// AddDistance materializes similarity edges.
type AddDistance struct {
	Preset  string // empty for an explicit request
	Request engine.DistanceRequest
}

// StrongConnectivity computes strongly connected components.
type StrongConnectivity struct{}

// Cluster partitions the graph.
type Cluster struct {
	Algorithm string
	K         int
}

// ConnectivityRank ranks vertices by incident edges.
type ConnectivityRank struct {
	Request engine.ConnectivityRequest
}

// Immersion ranks vertices by aggregate distance.
type Immersion struct {
	Preset  string
	Request engine.ImmersionRequest
}

func (AddDistance) Op() Op        { return OpAddDistance }
func (StrongConnectivity) Op() Op { return OpStrongConnectivity }
func (Cluster) Op() Op            { return OpCluster }
func (ConnectivityRank) Op() Op   { return OpConnectivityRank }
func (Immersion) Op() Op          { return OpImmersion }

// Parse splits a pipeline string into steps and resolves every step against
// cfg. A step that cannot be understood carries its own error and does not
// affect the others. Parse itself fails only when the string holds no step or
// a step has parameters but no opcode.
func Parse(raw string, cfg config.Config) ([]Step, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.NewConfigurationError("empty pipeline")
	}

	var steps []Step
	for _, chunk := range strings.Split(raw, StepSeparator) {
		tokens := strings.Split(chunk, ParamSeparator)
		for i := range tokens {
			tokens[i] = strings.TrimSpace(tokens[i])
		}
		name, params := tokens[0], tokens[1:]
		if name == "" {
			if strings.TrimSpace(strings.Join(params, "")) == "" {
				continue
			}
			return nil, errors.WithHint(
				errors.NewConfigurationError("step %d has parameters but no operation: %q", len(steps), strings.TrimSpace(chunk)),
				"every step starts with its operation, e.g. CLUSTER,kspanning,5",
			)
		}

		step := Step{Index: len(steps), Name: name, Params: params}
		op, ok := opcodes[strings.ToUpper(name)]
		if !ok {
			step.Err = errors.NewUnknownOperationError(name)
		} else {
			step.Op = op
			step.Action, step.Err = parseAction(op, params, cfg)
			if step.Err != nil {
				step.Err = errors.Wrapf(step.Err, "%s", op)
			}
		}
		steps = append(steps, step)
	}

	if len(steps) == 0 {
		return nil, errors.NewConfigurationError("pipeline %q has no steps", raw)
	}
	return steps, nil
}

func parseAction(op Op, params []string, cfg config.Config) (Action, error) {
	switch op {
	case OpAddDistance:
		return parseAddDistance(params, cfg)
	case OpStrongConnectivity:
		if len(params) != 0 {
			return nil, paramCount(op, len(params), "no parameters")
		}
		return StrongConnectivity{}, nil
	case OpCluster:
		return parseCluster(params, cfg)
	case OpConnectivityRank:
		return parseConnectivityRank(params, cfg)
	case OpImmersion:
		return parseImmersion(params, cfg)
	}
	return nil, errors.NewUnknownOperationError(string(op))
}

func paramCount(op Op, got int, want string) error {
	return errors.WithHintf(
		errors.NewConfigurationError("%s takes %s, got %d parameters", op, want, got),
		"see the step grammar of %s", op,
	)
}

// parseAddDistance accepts
//
//	ADD-DISTANCE
//	ADD-DISTANCE,preset
//	ADD-DISTANCE,preset,metric
//	ADD-DISTANCE,vertexLabel,relationLabel,valueAttr,attrs,metric,normalize,minFrac,maxFrac[,value]
//
// where attrs is "*" for every numeric attribute or names separated by
// spaces or colons.
func parseAddDistance(params []string, cfg config.Config) (Action, error) {
	switch len(params) {
	case 0, 1, 2:
		name := cfg.Defaults.Preset
		if len(params) > 0 && params[0] != "" {
			name = params[0]
		}
		req, err := presetRequest(cfg, name)
		if err != nil {
			return nil, err
		}
		if len(params) == 2 && params[1] != "" {
			m, err := distance.ParseMetric(params[1])
			if err != nil {
				return nil, err
			}
			req.Metric = m
		}
		return AddDistance{Preset: name, Request: req}, nil

	case 8, 9:
		metric, err := distance.ParseMetric(params[4])
		if err != nil {
			return nil, err
		}
		normalize, err := parseBool("normalize", params[5])
		if err != nil {
			return nil, err
		}
		minFrac, err := parseFloat("minFrac", params[6])
		if err != nil {
			return nil, err
		}
		maxFrac, err := parseFloat("maxFrac", params[7])
		if err != nil {
			return nil, err
		}
		value := engine.ValueRaw
		if len(params) == 9 {
			if value, err = engine.ParseValueTransform(params[8]); err != nil {
				return nil, err
			}
		}
		req := engine.DistanceRequest{
			VertexLabel:    params[0],
			RelationLabel:  params[1],
			ValueAttribute: params[2],
			Attributes:     parseAttributes(params[3]),
			Metric:         metric,
			Normalize:      normalize,
			MinFraction:    minFrac,
			MaxFraction:    maxFrac,
			Value:          value,
		}
		if err := req.Validate(); err != nil {
			return nil, err
		}
		return AddDistance{Request: req}, nil
	}
	return nil, paramCount(OpAddDistance, len(params), "0, 1, 2, 8 or 9 parameters")
}

func parseCluster(params []string, cfg config.Config) (Action, error) {
	if len(params) > 2 {
		return nil, paramCount(OpCluster, len(params), "[algorithm[,k]]")
	}
	c := Cluster{Algorithm: cfg.Defaults.ClusterAlgorithm, K: cfg.Defaults.ClusterCount}
	if len(params) > 0 && params[0] != "" {
		c.Algorithm = params[0]
	}
	name, err := algorithms.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return nil, err
	}
	c.Algorithm = name
	if len(params) > 1 {
		k, err := parseInt("k", params[1])
		if err != nil {
			return nil, err
		}
		if k < 1 {
			return nil, errors.NewConfigurationError("cluster count must be at least 1, got %d", k)
		}
		c.K = k
	}
	return c, nil
}

func parseConnectivityRank(params []string, cfg config.Config) (Action, error) {
	if len(params) > 3 {
		return nil, paramCount(OpConnectivityRank, len(params), "[count[,weighted[,label]]]")
	}
	req := engine.ConnectivityRequest{N: cfg.Defaults.RankCount, Weighted: cfg.Defaults.RankWeighted}
	if len(params) > 0 && params[0] != "" {
		n, err := parseCount(params[0])
		if err != nil {
			return nil, err
		}
		req.N = n
	}
	if len(params) > 1 && params[1] != "" {
		w, err := parseBool("weighted", params[1])
		if err != nil {
			return nil, err
		}
		req.Weighted = w
	}
	if len(params) > 2 {
		req.VertexLabel = params[2]
	}
	return ConnectivityRank{Request: req}, nil
}

func parseImmersion(params []string, cfg config.Config) (Action, error) {
	if len(params) > 2 {
		return nil, paramCount(OpImmersion, len(params), "[preset[,count]]")
	}
	name := cfg.Defaults.Preset
	if len(params) > 0 && params[0] != "" {
		name = params[0]
	}
	dreq, err := presetRequest(cfg, name)
	if err != nil {
		return nil, err
	}
	req := engine.ImmersionRequest{
		VertexLabel: dreq.VertexLabel,
		Attributes:  dreq.Attributes,
		Metric:      dreq.Metric,
		Normalize:   dreq.Normalize,
		K:           cfg.Defaults.RankCount,
	}
	if len(params) > 1 && params[1] != "" {
		if req.K, err = parseCount(params[1]); err != nil {
			return nil, err
		}
	}
	return Immersion{Preset: name, Request: req}, nil
}

// presetRequest converts a named preset into a distance request.
func presetRequest(cfg config.Config, name string) (engine.DistanceRequest, error) {
	p, err := cfg.Preset(name)
	if err != nil {
		return engine.DistanceRequest{}, err
	}
	metric, err := distance.ParseMetric(p.Metric)
	if err != nil {
		return engine.DistanceRequest{}, err
	}
	value, err := engine.ParseValueTransform(p.Value)
	if err != nil {
		return engine.DistanceRequest{}, err
	}
	var attrs []string
	if len(p.Attributes) > 0 {
		attrs = append(attrs, p.Attributes...)
	}
	return engine.DistanceRequest{
		VertexLabel:    p.VertexLabel,
		Attributes:     attrs,
		Metric:         metric,
		Normalize:      p.Normalize,
		RelationLabel:  p.RelationLabel,
		ValueAttribute: p.ValueAttribute,
		Value:          value,
		MinFraction:    p.MinFraction,
		MaxFraction:    p.MaxFraction,
	}, nil
}

func parseAttributes(s string) []string {
	if s == "*" || s == "" {
		return nil
	}
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ':' || r == '\t'
	})
}

func parseBool(name, s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.NewConfigurationError("%s: %q is not a boolean", name, s)
	}
	return b, nil
}

func parseFloat(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.NewConfigurationError("%s: %q is not a number", name, s)
	}
	return f, nil
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewConfigurationError("%s: %q is not an integer", name, s)
	}
	return n, nil
}

func parseCount(s string) (int, error) {
	n, err := parseInt("count", s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.NewConfigurationError("count must not be negative, got %d", n)
	}
	return n, nil
}
