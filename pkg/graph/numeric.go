package graph

import (
	"math"

	"github.com/sanonone/kektorgraph/pkg/errors"
)

// NumericMatrix coerces attrs of every vertex to float64, one row per vertex
// in the given order. It fails on the first vertex that lacks an attribute
// (MissingAttributeError) or whose value is not a finite number for the
// registered kind (ParseError); both carry the offending vertex id.
func NumericMatrix(vertices []*Vertex, attrs []string) ([][]float64, error) {
	rows := make([][]float64, len(vertices))
	for i, v := range vertices {
		row := make([]float64, len(attrs))
		for j, name := range attrs {
			f, err := v.Attrs.Float(name)
			if err != nil {
				var missing *errors.MissingAttributeError
				var parse *errors.ParseError
				switch {
				case errors.As(err, &missing):
					missing.VertexID = v.ID
				case errors.As(err, &parse):
					parse.VertexID = v.ID
				}
				return nil, err
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				val, _ := v.Attrs.Get(name)
				return nil, &errors.ParseError{VertexID: v.ID, Attribute: name, Kind: string(val.Kind()), Text: val.String()}
			}
			row[j] = f
		}
		rows[i] = row
	}
	return rows, nil
}

// ValidateNumeric checks that every vertex carries every attribute as a
// finite number.
func ValidateNumeric(vertices []*Vertex, attrs []string) error {
	_, err := NumericMatrix(vertices, attrs)
	return err
}
