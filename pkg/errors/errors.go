// Package errors provides error handling for kektorgraph.
//
// It re-exports github.com/cockroachdb/errors (stack traces, wrapping, hints)
// and defines the error taxonomy used by the distance engine, the ranking
// module and the pipeline dispatcher.
//
// Usage:
//
//	if err := g.Validate(); err != nil {
//	    return errors.Wrap(err, "distance pass aborted")
//	}
//
//	if errors.Is(err, errors.ErrMissingAttribute) {
//	    // handle the precondition failure
//	}
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is           = crdb.Is
	As           = crdb.As
	Unwrap       = crdb.Unwrap
	UnwrapAll    = crdb.UnwrapAll
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Sentinel errors of the taxonomy. Match them with errors.Is; the structured
// types below unwrap to the matching sentinel.
var (
	// ErrParse indicates an attribute text that cannot be converted to the
	// numeric kind a metric requires.
	ErrParse = New("attribute parse error")

	// ErrConfiguration indicates a malformed pipeline step or request
	// (wrong parameter count, bad number, fraction out of range).
	ErrConfiguration = New("configuration error")

	// ErrUnknownOperation indicates an unrecognized pipeline opcode.
	ErrUnknownOperation = New("unknown operation")

	// ErrMissingAttribute indicates a vertex of the filtered population that
	// lacks a required attribute.
	ErrMissingAttribute = New("missing attribute")

	// ErrAlgorithm indicates a failure inside a delegated graph algorithm.
	ErrAlgorithm = New("graph algorithm error")

	// ErrIO indicates a failure while reading or writing a graph.
	ErrIO = New("graph io error")
)

// MissingAttributeError names the vertex and attribute that failed the
// precondition check of a distance or ranking pass.
type MissingAttributeError struct {
	VertexID  int64
	Attribute string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("vertex %d has no attribute %q", e.VertexID, e.Attribute)
}

func (e *MissingAttributeError) Unwrap() error { return ErrMissingAttribute }

// ParseError reports an attribute whose stored text is not a valid number for
// the kind it is coerced to. VertexID is -1 when the value is not attached to
// a known vertex.
type ParseError struct {
	VertexID  int64
	Attribute string
	Kind      string
	Text      string
}

func (e *ParseError) Error() string {
	if e.VertexID < 0 {
		return fmt.Sprintf("attribute %q: cannot parse %q as %s", e.Attribute, e.Text, e.Kind)
	}
	return fmt.Sprintf("vertex %d attribute %q: cannot parse %q as %s", e.VertexID, e.Attribute, e.Text, e.Kind)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// NewConfigurationError creates a configuration error with a formatted message.
func NewConfigurationError(format string, args ...interface{}) error {
	return Wrap(ErrConfiguration, fmt.Sprintf(format, args...))
}

// NewUnknownOperationError reports an opcode the dispatcher does not know.
func NewUnknownOperationError(op string) error {
	return WithHint(
		Wrapf(ErrUnknownOperation, "%q", op),
		"known operations: ADD-DISTANCE, STRONG-CONNECTIVITY, CLUSTER, CONNECTIVITY-RANK, IMMERSION",
	)
}

// IsStepLocal reports whether err belongs to the taxonomy a pipeline step
// absorbs without aborting the remaining steps.
func IsStepLocal(err error) bool {
	return err != nil && (Is(err, ErrParse) ||
		Is(err, ErrConfiguration) ||
		Is(err, ErrUnknownOperation) ||
		Is(err, ErrMissingAttribute) ||
		Is(err, ErrAlgorithm) ||
		Is(err, ErrIO))
}
