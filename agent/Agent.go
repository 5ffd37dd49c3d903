// Package agent defines the interface of agents that act in
// learned-dynamics environments
package agent

import (
	"github.com/samuelfneumann/dynenv/timestep"
	"gonum.org/v1/gonum/mat"
)

// Policy represents a policy that an agent can have. Policies
// determine how agents select actions.
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
}

// Agent is a Policy that is told about each transition it causes.
// Agents that only act may ignore the observations.
type Agent interface {
	Policy

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// Observe records that an action lead to some timestep
	Observe(action mat.Vector, nextObs timestep.TimeStep) error
}
