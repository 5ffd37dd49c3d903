// Package random implements an agent that selects actions uniformly
// at random within the bounds of an environment's action space
package random

import (
	"fmt"

	"github.com/samuelfneumann/dynenv/environment"
	"github.com/samuelfneumann/dynenv/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Random samples each action from a multi-dimensional uniform
// distribution over the action space. It implements agent.Agent.
type Random struct {
	features int
	seed     uint64
	rand     *distmv.Uniform

	steps int
}

// New returns a new Random agent for actions described by spec
func New(spec environment.Spec, seed uint64) (*Random, error) {
	if spec.Type != environment.Action {
		return nil, fmt.Errorf("new: expected action spec, got spec type %v",
			spec.Type)
	}

	bounds := spec.Intervals()
	for i, b := range bounds {
		if b.Min > b.Max {
			return nil, fmt.Errorf("new: action dimension %v has empty "+
				"bounds [%v, %v]", i, b.Min, b.Max)
		}
	}

	source := rand.NewSource(seed)
	return &Random{
		features: len(bounds),
		seed:     seed,
		rand:     distmv.NewUniform(bounds, source),
	}, nil
}

// SelectAction returns an action sampled uniformly at random. The
// timestep is ignored.
func (r *Random) SelectAction(timestep.TimeStep) *mat.VecDense {
	return mat.NewVecDense(r.features, r.rand.Rand(nil))
}

// ObserveFirst implements agent.Agent
func (r *Random) ObserveFirst(timestep.TimeStep) error {
	r.steps = 0
	return nil
}

// Observe implements agent.Agent
func (r *Random) Observe(mat.Vector, timestep.TimeStep) error {
	r.steps++
	return nil
}

// Steps returns the number of transitions observed in the current
// episode
func (r *Random) Steps() int {
	return r.steps
}
