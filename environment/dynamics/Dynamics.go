// Package dynamics implements an environment whose transitions are
// predicted by a learned forward model rather than simulated.
//
// A real environment is consulted only on Reset, to obtain the first
// observation of a rollout. That observation is converted to a
// grayscale frame and replicated to fill a stack of frames. Each Step
// then asks the forward model for the next frame, slides it into the
// stack and advances a rollout counter. When the counter reaches the
// unroll length the step is reported as the last step of the rollout,
// and the counter starts over from zero. Stepping may continue past
// that boundary without a Reset.
package dynamics

import (
	"errors"
	"fmt"
	"io"

	"github.com/samuelfneumann/dynenv/environment"
	"github.com/samuelfneumann/dynenv/frame"
	"github.com/samuelfneumann/dynenv/network"
	ts "github.com/samuelfneumann/dynenv/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// DefaultUnrollLength is the number of model steps after which a
// rollout is terminated
const DefaultUnrollLength = 20

// ErrNotReset is returned when Step is called before the first Reset
var ErrNotReset = errors.New("environment has not been reset")

// ForwardModel predicts the next frame given the current stack of
// frames and an action
type ForwardModel interface {
	Predict(s *frame.Stack, a *mat.VecDense) (network.Prediction, error)
}

// Config configures an Env
type Config struct {
	// StackDepth is the number of frames in each observation
	StackDepth int

	// Rows and Cols are the dimensions of each frame. The real
	// environment must produce observations of this size.
	Rows int
	Cols int

	// UnrollLength is the number of steps after which a rollout ends
	UnrollLength int

	Discount float64

	// Normalize determines whether grayscale frames are mapped from
	// [0, 255] to [-1, 1]
	Normalize bool
}

// Validate returns an error if the Config is not usable
func (c Config) Validate() error {
	if c.StackDepth <= 0 {
		return fmt.Errorf("validate: stack depth must be positive, got %v",
			c.StackDepth)
	}
	if c.Rows <= 0 || c.Cols <= 0 {
		return fmt.Errorf("validate: frame dimensions must be positive, "+
			"got %vx%v", c.Rows, c.Cols)
	}
	if c.UnrollLength <= 0 {
		return fmt.Errorf("validate: unroll length must be positive, got %v",
			c.UnrollLength)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1], got %v",
			c.Discount)
	}
	return nil
}

// Env is an environment driven by a learned forward model. It
// implements environment.Environment.
//
// An Env exclusively owns its stack and rollout counter and is not
// safe for concurrent use.
type Env struct {
	Config
	real  environment.Real
	model ForwardModel

	stack   *frame.Stack
	counter int
}

// New returns a new Env that takes first observations from real and
// predicts all subsequent ones with model. The Env must be Reset
// before it is stepped.
func New(real environment.Real, model ForwardModel, c Config) (*Env, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: invalid config: %v", err)
	}

	return &Env{
		Config: c,
		real:   real,
		model:  model,
	}, nil
}

// Reset starts a new rollout. One observation is taken from the real
// environment, converted to grayscale and replicated StackDepth times.
// The rollout counter is set to zero.
func (e *Env) Reset() (ts.TimeStep, error) {
	rgb, err := e.real.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset real "+
			"environment: %v", err)
	}

	gray, err := frame.Gray(rgb, e.Normalize)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	if r, c := gray.Dims(); r != e.Rows || c != e.Cols {
		return ts.TimeStep{}, fmt.Errorf("reset: real environment produced "+
			"%vx%v frame, expected %vx%v", r, c, e.Rows, e.Cols)
	}

	e.stack = frame.NewStack(gray, e.StackDepth)
	e.counter = 0
	e.checkStack()

	return ts.New(ts.First, 0, e.Discount, e.stack.Clone(), 0), nil
}

// Step predicts the frame that follows the observation obs when
// action is taken, and slides it into the environment's stack. The
// returned TimeStep holds a copy of the updated stack, a reward of
// zero and is never truncated. The returned bool is true exactly when
// the rollout counter reaches UnrollLength, at which point the counter
// is set back to zero.
func (e *Env) Step(obs *frame.Stack, action *mat.VecDense) (ts.TimeStep,
	bool, error) {
	if e.stack == nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w", ErrNotReset)
	}

	pred, err := e.model.Predict(obs, action)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not predict "+
			"next frame: %v", err)
	}

	e.counter++
	number := e.counter

	done := false
	if e.counter == e.UnrollLength {
		done = true
		e.counter = 0
	}

	e.stack.Push(pred.Frame)
	e.checkStack()

	stepType := ts.Mid
	if done {
		stepType = ts.Last
	}
	t := ts.New(stepType, 0, e.Discount, e.stack.Clone(), number)
	t.Truncated = false

	return t, done, nil
}

// checkStack panics if the stack no longer holds StackDepth frames
func (e *Env) checkStack() {
	if e.stack.Len() != e.StackDepth {
		panic(fmt.Sprintf("dynamics: stack holds %v frames, expected %v",
			e.stack.Len(), e.StackDepth))
	}
}

// Counter returns the number of steps taken in the current rollout
func (e *Env) Counter() int {
	return e.counter
}

// ActionSpec returns the action specification of the real environment
func (e *Env) ActionSpec() environment.Spec {
	return e.real.ActionSpec()
}

// ObservationSpec returns the observation specification of the
// environment. Observations are flattened stacks, oldest frame first.
func (e *Env) ObservationSpec() environment.Spec {
	bound := r1.Interval{Min: frame.MinRaw, Max: frame.MaxRaw}
	if e.Normalize {
		bound = r1.Interval{Min: frame.MinNormalized, Max: frame.MaxNormalized}
	}

	return environment.NewUniformSpec(e.StackDepth*e.Rows*e.Cols,
		environment.Observation, bound)
}

// DiscountSpec returns the discount specification of the environment
func (e *Env) DiscountSpec() environment.Spec {
	bound := r1.Interval{Min: e.Discount, Max: e.Discount}
	return environment.NewBoxSpec([]r1.Interval{bound}, environment.Discount)
}

// Close closes the real environment and, if it holds any resources,
// the forward model
func (e *Env) Close() error {
	err := e.real.Close()
	if closer, ok := e.model.(io.Closer); ok {
		if modelErr := closer.Close(); err == nil {
			err = modelErr
		}
	}

	if err != nil {
		return fmt.Errorf("close: %v", err)
	}
	return nil
}

// String implements the fmt.Stringer interface
func (e *Env) String() string {
	return fmt.Sprintf("Dynamics{stack: %v, frame: %vx%v, unroll: %v}",
		e.StackDepth, e.Rows, e.Cols, e.UnrollLength)
}
