// Package gym provides access to OpenAI Gym's pixel-based environments
// as real environments that seed learned-dynamics rollouts.
//
// This is made possible through the Go bindings for OpenAI Gym,
// found at https://github.com/samuelfneumann/GoGym. Using this package
// requires a Python installation with gym available.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/dynenv/environment"
	"github.com/samuelfneumann/dynenv/frame"
	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// CarRacing is the name of the driving environment whose dynamics are
// learned
const CarRacing = "CarRacing-v0"

// GymEnv implements environment.Real using a GoGym environment with
// image observations
type GymEnv struct {
	env  gogym.Environment
	name string

	rows, cols int
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite. Observations of the environment must
// be RGB images of size rows x cols.
func New(name string, rows, cols int, seed uint64) (*GymEnv, error) {
	env, err := gogym.Make(name)
	if err != nil {
		return nil, fmt.Errorf("new: could not create environment %v: %v",
			name, err)
	}

	if _, err := env.Seed(int(seed)); err != nil {
		env.Close()
		return nil, fmt.Errorf("new: could not seed environment: %v", err)
	}

	return &GymEnv{env: env, name: name, rows: rows, cols: cols}, nil
}

// Reset resets the environment and returns its first observation as
// a tensor of shape (rows, cols, 3)
func (g *GymEnv) Reset() (*tensor.Dense, error) {
	obs, err := g.env.Reset()
	if err != nil {
		return nil, fmt.Errorf("reset: could not reset environment: %v", err)
	}

	if obs.Len() != g.rows*g.cols*3 {
		return nil, fmt.Errorf("reset: observation of %v has %v values, "+
			"expected %vx%vx3", g.name, obs.Len(), g.rows, g.cols)
	}

	data := make([]float64, obs.Len())
	for i := range data {
		data[i] = obs.AtVec(i)
	}
	return frame.NewRGB(g.rows, g.cols, data)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() environment.Spec {
	space := g.env.ActionSpace()

	switch space.(type) {
	case *gogym.BoxSpace, *gogym.DiscreteSpace:
		low := space.Low()[0]
		high := space.High()[0]
		shape := mat.NewVecDense(low.Len(), nil)
		return environment.NewSpec(shape, environment.Action, low, high,
			environment.Continuous)
	}

	panic("actionSpec: invalid space type, package gym supports " +
		"only GoGym's BoxSpace or DiscreteSpace")
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.env.Close()
	return nil
}

// Shutdown releases the Python interpreter used by all GymEnvs. No
// GymEnv may be used after Shutdown is called.
func Shutdown() {
	gogym.Close()
}
