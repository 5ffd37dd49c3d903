// Package environment outlines the interfaces and structs needed to
// implement environments driven by a learned dynamics model, as well as
// the real environments that seed them with initial observations.
package environment

import (
	"github.com/samuelfneumann/dynenv/frame"
	ts "github.com/samuelfneumann/dynenv/timestep"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Real is an environment that produces raw RGB observations. The
// dynamics environment only uses a Real environment to obtain the first
// observation of each rollout.
type Real interface {
	// Reset starts a new episode and returns its first observation as
	// a tensor of shape (rows, cols, 3)
	Reset() (*tensor.Dense, error)

	// ActionSpec returns the specification of actions in the
	// environment
	ActionSpec() Spec

	// Close releases any resources held by the environment
	Close() error
}

// Environment is an environment whose observations are stacks of
// single-channel frames. Step takes the current observation explicitly
// so that callers may branch rollouts from any stack they hold.
type Environment interface {
	Reset() (ts.TimeStep, error)
	Step(obs *frame.Stack, action *mat.VecDense) (ts.TimeStep, bool, error)
	ActionSpec() Spec
	ObservationSpec() Spec
	DiscountSpec() Spec
	Close() error
}
