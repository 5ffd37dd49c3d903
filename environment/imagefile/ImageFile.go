// Package imagefile implements a real environment backed by recorded
// observations stored as image files. It allows dynamics rollouts to
// be seeded without a running simulator.
package imagefile

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samuelfneumann/dynenv/environment"
	"github.com/samuelfneumann/dynenv/frame"
	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"
)

// Extensions lists the file extensions that are read as observations
var Extensions = []string{".png", ".jpg", ".jpeg"}

// Env implements environment.Real. Each Reset returns the next
// recorded observation, either in lexical file order or, if shuffled,
// drawn uniformly at random.
type Env struct {
	paths   []string
	actions environment.Spec

	shuffle bool
	rng     *rand.Rand
	next    int
}

// New returns a new Env reading observations from the image files in
// dir. Actions of the environment are described by actions.
func New(dir string, actions environment.Spec, shuffle bool,
	seed uint64) (*Env, error) {
	var paths []string
	for _, ext := range Extensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, fmt.Errorf("new: could not list %v: %v", dir, err)
		}
		paths = append(paths, matches...)

		upper, _ := filepath.Glob(filepath.Join(dir, "*"+strings.ToUpper(ext)))
		paths = append(paths, upper...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("new: no image files in %v", dir)
	}
	sort.Strings(paths)
	paths = dedupe(paths)

	return &Env{
		paths:   paths,
		actions: actions,
		shuffle: shuffle,
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// Len returns the number of recorded observations
func (e *Env) Len() int {
	return len(e.paths)
}

// Reset returns a recorded observation as a tensor of shape
// (rows, cols, 3)
func (e *Env) Reset() (*tensor.Dense, error) {
	var i int
	if e.shuffle {
		i = e.rng.Intn(len(e.paths))
	} else {
		i = e.next
		e.next = (e.next + 1) % len(e.paths)
	}

	obs, err := frame.Open(e.paths[i])
	if err != nil {
		return nil, fmt.Errorf("reset: %v", err)
	}
	return obs, nil
}

// ActionSpec returns the action specification of the environment
func (e *Env) ActionSpec() environment.Spec {
	return e.actions
}

// Close implements environment.Real. It holds no resources.
func (e *Env) Close() error {
	return nil
}

// dedupe removes adjacent duplicates from sorted paths. Globbing both
// cases of an extension matches every file twice on case-insensitive
// filesystems.
func dedupe(paths []string) []string {
	out := paths[:1]
	for _, p := range paths[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
