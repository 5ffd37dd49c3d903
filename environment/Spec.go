package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an acion, an observation, a discount, or a reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// CarRacingActions are the bounds of the CarRacing action dimensions:
// steering, gas and brake.
var CarRacingActions = []r1.Interval{
	{Min: -1.0, Max: 1.0},
	{Min: 0.0, Max: 1.0},
	{Min: 0.0, Max: 1.0},
}

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action, observation, discount, or reward in
// an environment
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new environment specification
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (e.g. actions, observations, etc.). The cardinality
// arguments describes whether the values that the spec describes are
// continuous or discrete.
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("shape length %v must match lower bounds length %v",
			shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("shape length %v must match upper bounds length %v",
			shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// NewBoxSpec returns a continuous Spec with one dimension per interval
func NewBoxSpec(bounds []r1.Interval, t SpecType) Spec {
	n := len(bounds)
	low := mat.NewVecDense(n, nil)
	high := mat.NewVecDense(n, nil)
	for i, b := range bounds {
		low.SetVec(i, b.Min)
		high.SetVec(i, b.Max)
	}

	return NewSpec(mat.NewVecDense(n, nil), t, low, high, Continuous)
}

// NewUniformSpec returns a continuous Spec of size n in which every
// dimension has the same bounds
func NewUniformSpec(n int, t SpecType, bound r1.Interval) Spec {
	bounds := make([]r1.Interval, n)
	for i := range bounds {
		bounds[i] = bound
	}
	return NewBoxSpec(bounds, t)
}

// Intervals returns the bounds of each dimension of the Spec
func (s Spec) Intervals() []r1.Interval {
	bounds := make([]r1.Interval, s.Shape.Len())
	for i := range bounds {
		bounds[i] = r1.Interval{
			Min: s.LowerBound.AtVec(i),
			Max: s.UpperBound.AtVec(i),
		}
	}
	return bounds
}
