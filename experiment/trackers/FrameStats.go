package trackers

import (
	"fmt"

	ts "github.com/samuelfneumann/dynenv/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// FrameStats tracks the mean pixel value of the newest frame in every
// observation. A forward model that has diverged tends to show up as
// a mean drifting to either end of the pixel range.
type FrameStats struct {
	means    []float64
	filename string
}

// NewFrameStats returns a new FrameStats tracker which saves its data
// to filename
func NewFrameStats(filename string) *FrameStats {
	return &FrameStats{filename: filename}
}

// Track records the mean pixel value of t's newest frame
func (f *FrameStats) Track(t ts.TimeStep) {
	if t.Observation == nil {
		return
	}
	f.means = append(f.means, frameMean(t.Observation.Newest()))
}

// Data returns the tracked means in the order they were recorded
func (f *FrameStats) Data() []float64 {
	return f.means
}

// Summary returns the mean and standard deviation of the tracked
// frame means
func (f *FrameStats) Summary() (mean, std float64) {
	if len(f.means) < 2 {
		return stat.Mean(f.means, nil), 0
	}
	return stat.MeanStdDev(f.means, nil)
}

// Save saves the data tracked by the FrameStats Tracker to disk
func (f *FrameStats) Save() error {
	if err := save(f.filename, f.means); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

func frameMean(m mat.Matrix) float64 {
	rows, cols := m.Dims()
	return mat.Sum(m) / float64(rows*cols)
}
