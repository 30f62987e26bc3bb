// Package graphio reads and writes graphs.
//
// Supported formats, chosen by file extension:
//
//	.graphml  read and write; attr.type of each key becomes the attribute kind
//	.json     read and write; the native lossless format
//	.dot      write only, for Graphviz
//
// Readers keep element ids found in the input when they are numeric (optionally
// prefixed with "n" or "e") and unique, and allocate fresh ids otherwise.
package graphio

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sanonone/kektorgraph/pkg/core"
	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
)

// Format is a graph file format.
type Format string

const (
	FormatGraphML Format = "graphml"
	FormatJSON    Format = "json"
	FormatDOT     Format = "dot"
)

// FormatOf derives the format from the extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".graphml", ".xml":
		return FormatGraphML, nil
	case ".json":
		return FormatJSON, nil
	case ".dot", ".gv":
		return FormatDOT, nil
	}
	return "", errors.WithHint(
		errors.Wrapf(errors.ErrIO, "unknown graph format of %q", path),
		"use a .graphml, .json or .dot file",
	)
}

type readOptions struct {
	skipEdges bool
}

// ReadOption configures a reader.
type ReadOption func(*readOptions)

// SkipEdges drops every edge of the input and keeps only the vertices.
func SkipEdges() ReadOption {
	return func(o *readOptions) { o.skipEdges = true }
}

func applyOptions(opts []ReadOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Read loads the graph file at path into a new graph of s.
func Read(path string, s *core.Session, opts ...ReadOption) (*graph.Graph, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.Mark(err, errors.ErrIO), "opening %s", path)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	switch format {
	case FormatGraphML:
		return ReadGraphML(r, s, opts...)
	case FormatJSON:
		return ReadJSON(r, s, opts...)
	}
	return nil, errors.Wrapf(errors.ErrIO, "format %s cannot be read", format)
}

// Write stores g at path in the format given by its extension.
func Write(path string, g *graph.Graph) (err error) {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.Mark(err, errors.ErrIO), "creating %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(errors.Mark(cerr, errors.ErrIO), "closing %s", path)
		}
	}()

	w := bufio.NewWriter(f)
	if err := WriteFormat(w, g, format); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(errors.Mark(err, errors.ErrIO), "writing %s", path)
	}
	return nil
}

// WriteFormat serializes g to w in format.
func WriteFormat(w io.Writer, g *graph.Graph, format Format) error {
	switch format {
	case FormatGraphML:
		return WriteGraphML(w, g)
	case FormatJSON:
		return WriteJSON(w, g)
	case FormatDOT:
		return WriteDOT(w, g)
	}
	return errors.Wrapf(errors.ErrIO, "unknown format %q", format)
}

// ids maps input element ids to graph ids: the input ids themselves when all
// are numeric and unique, fresh ids from next otherwise.
func ids(raw []string, prefix string, next func() int64) map[string]int64 {
	out := make(map[string]int64, len(raw))
	numeric := true
	seen := make(map[int64]struct{}, len(raw))
	for _, r := range raw {
		n, err := strconv.ParseInt(strings.TrimPrefix(r, prefix), 10, 64)
		if _, dup := seen[n]; err != nil || n < 0 || dup {
			numeric = false
			break
		}
		seen[n] = struct{}{}
		out[r] = n
	}
	if numeric {
		return out
	}
	clear(out)
	for _, r := range raw {
		if _, ok := out[r]; !ok {
			out[r] = next()
		}
	}
	return out
}
