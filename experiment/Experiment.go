// Package experiment implements functionality for running an agent in
// a learned-dynamics environment
package experiment

import (
	"github.com/samuelfneumann/dynenv/experiment/trackers"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments send each TimeStep to their Trackers, which cache the
// data in RAM to be later saved to disk with Save(). The Run() method
// runs all episodes until the maximum timestep limit is reached. The
// RunEpisode() method runs a single episode.
type Experiment interface {
	// Run runs episodes until the step limit is reached
	Run() error

	// RunEpisode runs a single episode and returns whether the step
	// limit has been reached
	RunEpisode() (bool, error)

	// Save saves all tracked data to disk
	Save() error

	// Register adds a new Tracker to the (possibly already running)
	// experiment
	Register(t trackers.Tracker)
}
