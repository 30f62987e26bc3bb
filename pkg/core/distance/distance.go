// Package distance provides the metric kernels used to compare two records
// over a vector of numeric attributes.
//
// Metrics are looked up through GetFunc so that callers select a kernel once
// and call it inside their pairwise loops without re-dispatching.
package distance

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/sanonone/kektorgraph/pkg/errors"
)

// Metric defines the type of distance calculation to perform.
type Metric string

const (
	// Linear is the sum of absolute differences (L1).
	Linear Metric = "linear"
	// Quadratic is the Euclidean distance: the square root of the sum of
	// squared differences.
	Quadratic Metric = "quadratic"
	// Logarithmic is the sum of log(1+|difference|), which damps outliers.
	Logarithmic Metric = "logarithmic"
)

// Func computes the distance between two equally long vectors.
type Func func(v1, v2 []float64) (float64, error)

var funcs = map[Metric]Func{
	Linear:      linear,
	Quadratic:   quadratic,
	Logarithmic: logarithmic,
}

// GetFunc returns the kernel registered for metric.
func GetFunc(metric Metric) (Func, error) {
	fn, ok := funcs[metric]
	if !ok {
		return nil, errors.NewConfigurationError("unsupported metric %q", metric)
	}
	return fn, nil
}

// ParseMetric resolves a metric name, accepting a few common aliases.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "lin", "l1", "manhattan":
		return Linear, nil
	case "quadratic", "quad", "l2", "euclidean":
		return Quadratic, nil
	case "logarithmic", "log":
		return Logarithmic, nil
	}
	return "", errors.WithHint(
		errors.NewConfigurationError("unsupported metric %q", s),
		"use linear, quadratic or logarithmic",
	)
}

func checkLen(v1, v2 []float64) error {
	if len(v1) != len(v2) {
		return errors.Newf("vectors must have the same length (%d != %d)", len(v1), len(v2))
	}
	return nil
}

func linear(v1, v2 []float64) (float64, error) {
	if err := checkLen(v1, v2); err != nil {
		return 0, err
	}
	if len(v1) == 0 {
		return 0, nil
	}
	return floats.Distance(v1, v2, 1), nil
}

func quadratic(v1, v2 []float64) (float64, error) {
	if err := checkLen(v1, v2); err != nil {
		return 0, err
	}
	if len(v1) == 0 {
		return 0, nil
	}
	return floats.Distance(v1, v2, 2), nil
}

func logarithmic(v1, v2 []float64) (float64, error) {
	if err := checkLen(v1, v2); err != nil {
		return 0, err
	}
	var sum float64
	for i := range v1 {
		sum += math.Log1p(math.Abs(v1[i] - v2[i]))
	}
	return sum, nil
}
