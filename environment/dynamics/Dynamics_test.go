package dynamics

import (
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/dynenv/environment"
	"github.com/samuelfneumann/dynenv/frame"
	"github.com/samuelfneumann/dynenv/network"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

const (
	rows  = 4
	cols  = 5
	depth = 4
)

// fakeReal always resets to a constant colour
type fakeReal struct {
	r, g, b float64
	resets  int
	closed  bool
	err     error
}

func (f *fakeReal) Reset() (*tensor.Dense, error) {
	f.resets++
	if f.err != nil {
		return nil, f.err
	}

	data := make([]float64, 0, rows*cols*3)
	for i := 0; i < rows*cols; i++ {
		data = append(data, f.r, f.g, f.b)
	}
	return frame.NewRGB(rows, cols, data)
}

func (f *fakeReal) ActionSpec() environment.Spec {
	return environment.NewBoxSpec(environment.CarRacingActions,
		environment.Action)
}

func (f *fakeReal) Close() error {
	f.closed = true
	return nil
}

// fakeModel predicts frames filled with the number of calls made so far
type fakeModel struct {
	calls      int
	lastStack  *frame.Stack
	lastAction *mat.VecDense
	err        error
}

func (f *fakeModel) Predict(s *frame.Stack, a *mat.VecDense) (
	network.Prediction, error) {
	if f.err != nil {
		return network.Prediction{}, f.err
	}
	f.calls++
	f.lastStack = s
	f.lastAction = a

	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(f.calls)
	}
	return network.Prediction{Frame: mat.NewDense(rows, cols, data),
		Aux: 42}, nil
}

func testConfig() Config {
	return Config{
		StackDepth:   depth,
		Rows:         rows,
		Cols:         cols,
		UnrollLength: DefaultUnrollLength,
		Discount:     0.99,
		Normalize:    true,
	}
}

func newTestEnv(t *testing.T) (*Env, *fakeReal, *fakeModel) {
	real := &fakeReal{r: 255, g: 255, b: 255}
	model := &fakeModel{}

	env, err := New(real, model, testConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return env, real, model
}

func action() *mat.VecDense {
	return mat.NewVecDense(3, []float64{0, 1, 0})
}

func TestResetReplicatesFirstFrame(t *testing.T) {
	env, real, _ := newTestEnv(t)

	step, err := env.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !step.First() {
		t.Errorf("reset: expected first timestep, got %v", step.StepType)
	}
	if real.resets != 1 {
		t.Errorf("reset: expected 1 real reset, got %v", real.resets)
	}

	stack := step.Observation
	if stack.Len() != depth {
		t.Fatalf("reset: expected %v frames, got %v", depth, stack.Len())
	}
	for i := 0; i < stack.Len(); i++ {
		f := stack.At(i)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if v := f.At(r, c); math.Abs(v-0.9921875) > 1e-9 {
					t.Fatalf("reset: frame %v pixel (%v, %v): expected "+
						"0.9921875, got %v", i, r, c, v)
				}
			}
		}
	}
}

func TestStackDepthInvariant(t *testing.T) {
	env, _, _ := newTestEnv(t)

	step, err := env.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}

	for i := 0; i < 3*DefaultUnrollLength+7; i++ {
		step, _, err = env.Step(step.Observation, action())
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
		if step.Observation.Len() != depth {
			t.Fatalf("step %v: expected %v frames, got %v", i, depth,
				step.Observation.Len())
		}
	}
}

func TestDoneOnUnrollLength(t *testing.T) {
	env, _, _ := newTestEnv(t)

	step, err := env.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}

	for i := 1; i <= DefaultUnrollLength; i++ {
		var done bool
		step, done, err = env.Step(step.Observation, action())
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}

		if i < DefaultUnrollLength {
			if done || step.Last() {
				t.Fatalf("step %v: expected episode to continue", i)
			}
			if env.Counter() != i {
				t.Errorf("step %v: expected counter %v, got %v", i, i,
					env.Counter())
			}
		} else {
			if !done || !step.Last() {
				t.Fatalf("step %v: expected episode to end", i)
			}
			if env.Counter() != 0 {
				t.Errorf("step %v: expected counter reset to 0, got %v", i,
					env.Counter())
			}
		}
		if step.Number != i {
			t.Errorf("step %v: expected step number %v, got %v", i, i,
				step.Number)
		}
	}
}

func TestRewardAlwaysZero(t *testing.T) {
	env, _, _ := newTestEnv(t)

	step, err := env.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}

	for i := 0; i < 2*DefaultUnrollLength; i++ {
		step, _, err = env.Step(step.Observation, action())
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
		if step.Reward != 0 {
			t.Errorf("step %v: expected reward 0, got %v", i, step.Reward)
		}
		if step.Truncated {
			t.Errorf("step %v: expected truncated to be false", i)
		}
	}
}

func TestContinuesPastUnrollBoundary(t *testing.T) {
	env, real, _ := newTestEnv(t)

	step, err := env.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}

	var doneAt []int
	for i := 1; i <= 3*DefaultUnrollLength; i++ {
		var done bool
		step, done, err = env.Step(step.Observation, action())
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
		if done {
			doneAt = append(doneAt, i)
		}
	}

	want := []int{DefaultUnrollLength, 2 * DefaultUnrollLength,
		3 * DefaultUnrollLength}
	if len(doneAt) != len(want) {
		t.Fatalf("step: expected done at %v, got %v", want, doneAt)
	}
	for i := range want {
		if doneAt[i] != want[i] {
			t.Errorf("step: expected done at %v, got %v", want, doneAt)
			break
		}
	}

	if real.resets != 1 {
		t.Errorf("step: real environment reset %v times, expected 1",
			real.resets)
	}
}

func TestStepSlidesPrediction(t *testing.T) {
	env, _, model := newTestEnv(t)

	first, err := env.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}

	step, _, err := env.Step(first.Observation, action())
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if model.lastStack != first.Observation {
		t.Error("step: model was not given the observation passed to Step")
	}
	if v := step.Observation.Newest().At(0, 0); v != 1 {
		t.Errorf("step: expected newest frame from first prediction, got %v",
			v)
	}

	step, _, err = env.Step(step.Observation, action())
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	obs := step.Observation
	if v := obs.At(depth-2).At(0, 0); v != 1 {
		t.Errorf("step: expected second newest frame 1, got %v", v)
	}
	if v := obs.Newest().At(0, 0); v != 2 {
		t.Errorf("step: expected newest frame 2, got %v", v)
	}

	// The first observation is a snapshot and must not have changed
	if v := first.Observation.Newest().At(0, 0); math.Abs(v-0.9921875) > 1e-9 {
		t.Errorf("step: reset observation was modified, newest pixel %v", v)
	}
}

func TestStepBeforeReset(t *testing.T) {
	env, _, model := newTestEnv(t)

	s := frame.NewStack(mat.NewDense(rows, cols, nil), depth)
	if _, _, err := env.Step(s, action()); !errors.Is(err, ErrNotReset) {
		t.Errorf("step: expected ErrNotReset, got %v", err)
	}
	if model.calls != 0 {
		t.Errorf("step: model called %v times before reset", model.calls)
	}
}

func TestStepPredictionError(t *testing.T) {
	env, _, model := newTestEnv(t)

	step, err := env.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	step, _, err = env.Step(step.Observation, action())
	if err != nil {
		t.Fatalf("step: %v", err)
	}

	model.err = errors.New("inference failed")
	if _, _, err := env.Step(step.Observation, action()); err == nil {
		t.Fatal("step: expected prediction error to be returned")
	}
	if env.Counter() != 1 {
		t.Errorf("step: expected counter to stay at 1, got %v", env.Counter())
	}
}

func TestResetRestartsCounter(t *testing.T) {
	env, _, _ := newTestEnv(t)

	step, err := env.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	for i := 0; i < 7; i++ {
		step, _, err = env.Step(step.Observation, action())
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
	}

	if _, err := env.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if env.Counter() != 0 {
		t.Errorf("reset: expected counter 0, got %v", env.Counter())
	}
}

func TestResetErrors(t *testing.T) {
	real := &fakeReal{err: errors.New("simulator crashed")}
	env, err := New(real, &fakeModel{}, testConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := env.Reset(); err == nil {
		t.Error("reset: expected error from real environment")
	}

	c := testConfig()
	c.Rows = rows + 1
	env, err = New(&fakeReal{}, &fakeModel{}, c)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := env.Reset(); err == nil {
		t.Error("reset: expected error for mismatched frame dimensions")
	}
}

func TestNewInvalidConfig(t *testing.T) {
	invalid := []func(*Config){
		func(c *Config) { c.StackDepth = 0 },
		func(c *Config) { c.UnrollLength = 0 },
		func(c *Config) { c.Cols = 0 },
		func(c *Config) { c.Discount = 1.5 },
	}

	for i, modify := range invalid {
		c := testConfig()
		modify(&c)
		if _, err := New(&fakeReal{}, &fakeModel{}, c); err == nil {
			t.Errorf("new: case %v: expected error for %+v", i, c)
		}
	}
}

func TestSpecs(t *testing.T) {
	env, real, _ := newTestEnv(t)

	if n := env.ObservationSpec().Shape.Len(); n != depth*rows*cols {
		t.Errorf("observationSpec: expected %v dimensions, got %v",
			depth*rows*cols, n)
	}
	if b := env.ObservationSpec().Intervals()[0]; b.Min != -1 || b.Max != 1 {
		t.Errorf("observationSpec: expected bounds [-1, 1], got %v", b)
	}
	if n := env.ActionSpec().Shape.Len(); n != 3 {
		t.Errorf("actionSpec: expected 3 dimensions, got %v", n)
	}
	if d := env.DiscountSpec().LowerBound.AtVec(0); d != 0.99 {
		t.Errorf("discountSpec: expected 0.99, got %v", d)
	}

	if err := env.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if !real.closed {
		t.Error("close: real environment was not closed")
	}
}

func TestWithForwardModel(t *testing.T) {
	arch := network.Architecture{
		StackDepth: depth,
		Rows:       rows,
		Cols:       cols,
		ActionDim:  3,
		Hidden:     []int{16},
		Activation: "tanh",
	}
	model, err := network.New(arch, network.CPU, G.GlorotU(1.0))
	if err != nil {
		t.Fatalf("network.New: %v", err)
	}

	real := &fakeReal{r: 30, g: 120, b: 200}
	env, err := New(real, model, testConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer env.Close()

	step, err := env.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}

	done := false
	for i := 0; !done; i++ {
		if i > DefaultUnrollLength {
			t.Fatal("step: rollout did not end at the unroll length")
		}
		step, done, err = env.Step(step.Observation, action())
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
	}
	if step.Number != DefaultUnrollLength {
		t.Errorf("step: rollout ended after %v steps, expected %v",
			step.Number, DefaultUnrollLength)
	}
}
