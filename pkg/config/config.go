// Package config holds the session configuration: label tables, named
// distance presets and the defaults used by pipeline steps that omit
// parameters.
package config

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sanonone/kektorgraph/pkg/core"
	"github.com/sanonone/kektorgraph/pkg/core/distance"
	"github.com/sanonone/kektorgraph/pkg/errors"
)

// Value transforms stored on distance edges.
const (
	ValueRaw        = "raw"
	ValueReciprocal = "reciprocal"
)

// Preset is a named distance configuration, referenced by ADD-DISTANCE and
// IMMERSION steps.
type Preset struct {
	VertexLabel    string `yaml:"vertex_label"`
	RelationLabel  string `yaml:"relation_label"`
	ValueAttribute string `yaml:"value_attribute"`
	// Value is "raw" (the distance) or "reciprocal" (1/distance).
	Value string `yaml:"value"`
	// Attributes lists the attributes to compare. Empty means every numeric
	// attribute registered in the session.
	Attributes  []string `yaml:"attributes"`
	Metric      string   `yaml:"metric"`
	Normalize   bool     `yaml:"normalize"`
	MinFraction float64  `yaml:"min_fraction"`
	MaxFraction float64  `yaml:"max_fraction"`
}

// Defaults are the parameter values of steps that leave them out.
type Defaults struct {
	Preset             string `yaml:"preset"`
	RankCount          int    `yaml:"rank_count"`
	RankWeighted       bool   `yaml:"rank_weighted"`
	ClusterAlgorithm   string `yaml:"cluster_algorithm"`
	ClusterCount       int    `yaml:"cluster_count"`
	ImmersionAttribute string `yaml:"immersion_attribute"`
}

// Config is the complete session configuration.
type Config struct {
	Labels   core.Labels       `yaml:"labels"`
	Presets  map[string]Preset `yaml:"presets"`
	Defaults Defaults          `yaml:"defaults"`
}

// DefaultConfig returns a working configuration for alert/source graphs.
//
// Defaults:
//   - Preset "all": alerts, every numeric attribute, quadratic, normalized,
//     full thresholds, relation "distance" storing "difference"
//   - Preset "photometry": the same over magpsf/sigmapsf/magnr
//   - Rank count 10, clustering k-spanning-tree with 5 clusters
func DefaultConfig() Config {
	all := Preset{
		VertexLabel:    "alert",
		RelationLabel:  "distance",
		ValueAttribute: "difference",
		Value:          ValueRaw,
		Metric:         string(distance.Quadratic),
		Normalize:      true,
		MinFraction:    0,
		MaxFraction:    1,
	}
	photometry := all
	photometry.Attributes = []string{"magnr", "magpsf", "sigmapsf"}

	return Config{
		Labels: core.DefaultLabels(),
		Presets: map[string]Preset{
			"all":        all,
			"photometry": photometry,
		},
		Defaults: Defaults{
			Preset:             "all",
			RankCount:          10,
			ClusterAlgorithm:   "kspanning",
			ClusterCount:       5,
			ImmersionAttribute: "immersion",
		},
	}
}

// LoadConfig reads a YAML configuration over the defaults using strict
// parsing: unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to open config")
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return cfg, errors.Wrap(errors.Mark(err, errors.ErrConfiguration), "YAML syntax error in config")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every preset and the defaults.
func (c Config) Validate() error {
	for _, name := range c.PresetNames() {
		if err := c.Presets[name].Validate(); err != nil {
			return errors.Wrapf(err, "preset %q", name)
		}
	}
	if c.Defaults.Preset != "" {
		if _, ok := c.Presets[c.Defaults.Preset]; !ok {
			return errors.NewConfigurationError("default preset %q is not defined", c.Defaults.Preset)
		}
	}
	if c.Defaults.RankCount < 0 {
		return errors.NewConfigurationError("rank_count must not be negative")
	}
	if c.Defaults.ClusterCount < 1 {
		return errors.NewConfigurationError("cluster_count must be at least 1")
	}
	return nil
}

// Validate checks metric, value transform and fractions.
func (p Preset) Validate() error {
	if _, err := distance.ParseMetric(p.Metric); err != nil {
		return err
	}
	switch strings.ToLower(p.Value) {
	case "", ValueRaw, ValueReciprocal:
	default:
		return errors.NewConfigurationError("unknown value transform %q", p.Value)
	}
	if p.MinFraction < 0 || p.MinFraction > 1 || p.MaxFraction < 0 || p.MaxFraction > 1 {
		return errors.NewConfigurationError("fractions must lie in [0,1], got min=%g max=%g", p.MinFraction, p.MaxFraction)
	}
	if p.RelationLabel == "" || p.ValueAttribute == "" {
		return errors.NewConfigurationError("relation_label and value_attribute are required")
	}
	return nil
}

// Preset returns the named preset.
func (c Config) Preset(name string) (Preset, error) {
	p, ok := c.Presets[name]
	if !ok {
		return Preset{}, errors.WithHintf(
			errors.NewConfigurationError("unknown preset %q", name),
			"defined presets: %s", strings.Join(c.PresetNames(), ", "),
		)
	}
	return p, nil
}

// PresetNames returns the preset names in lexicographic order.
func (c Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for n := range c.Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
