package trackers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/dynenv/frame"
	ts "github.com/samuelfneumann/dynenv/timestep"
)

// Frames renders the observation of every last timestep in an
// episode. The renders are written to dir on Save, numbered in the
// order the episodes finished.
type Frames struct {
	dir        string
	normalized bool
	stacks     []*frame.Stack
}

// NewFrames returns a new Frames tracker writing to dir. Set
// normalized if observations hold values in [-1, 1].
func NewFrames(dir string, normalized bool) *Frames {
	return &Frames{dir: dir, normalized: normalized}
}

// Track caches the observation of t if t ends an episode
func (f *Frames) Track(t ts.TimeStep) {
	if t.Last() && t.Observation != nil {
		f.stacks = append(f.stacks, t.Observation.Clone())
	}
}

// Save renders every cached observation to a PNG file
func (f *Frames) Save() error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("save: could not create directory: %v", err)
	}

	next := filenameEnumerator(0, filepath.Join(f.dir, "episode_"), ".png")
	for _, s := range f.stacks {
		if err := frame.SaveRender(next(), s, f.normalized); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// filenameEnumerator returns a function which returns filenames with
// a counter suffix, one higher than on the previous call
func filenameEnumerator(start int, filename, extension string) func() string {
	i := start
	return func() string {
		i++
		return fmt.Sprintf("%v%v%v", filename, i, extension)
	}
}
