package factorgraph

import (
	"fmt"
)

// Dimension is the dimensionality of the rigid transforms in a graph.
type Dimension int

const (
	// DimUnknown is the dimension of a graph that holds no dimensional record yet.
	DimUnknown Dimension = 0
	// Dim2 is SE(2).
	Dim2 Dimension = 2
	// Dim3 is SE(3).
	Dim3 Dimension = 3
)

func (d Dimension) String() string {
	switch d {
	case Dim2:
		return "2D"
	case Dim3:
		return "3D"
	case DimUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Dimension(%d)", int(d))
	}
}

// Valid reports whether d is 2D or 3D.
func (d Dimension) Valid() bool {
	return d == Dim2 || d == Dim3
}

// UnsupportedDimensionError is returned when a record's dimension does not match the dimension
// a graph or reader handles.
type UnsupportedDimensionError struct {
	Name string
	Want Dimension
	Got  Dimension
}

func (e *UnsupportedDimensionError) Error() string {
	return fmt.Sprintf("%s is %s but only %s records are supported here", e.Name, e.Got, e.Want)
}

// NewUnsupportedDimensionError is used when a record of dimension got is given where want is required.
func NewUnsupportedDimensionError(name string, want, got Dimension) error {
	return &UnsupportedDimensionError{Name: name, Want: want, Got: got}
}
