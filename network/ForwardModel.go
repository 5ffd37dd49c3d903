// Package network implements the learned forward dynamics model used
// to predict the next observation frame of an environment, given the
// current stack of frames and an action.
package network

import (
	"fmt"

	"github.com/samuelfneumann/dynenv/frame"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Architecture describes the shape of a ForwardModel. It is stored in
// the header of every parameter file so that a model can be rebuilt
// before its weights are loaded.
type Architecture struct {
	StackDepth int
	Rows       int
	Cols       int
	ActionDim  int
	Hidden     []int
	Activation string
}

// Features returns the number of inputs to the model: the flattened
// frame stack followed by the action.
func (a Architecture) Features() int {
	return a.StackDepth*a.Rows*a.Cols + a.ActionDim
}

// Validate returns an error if the Architecture cannot be built
func (a Architecture) Validate() error {
	if a.StackDepth <= 0 || a.Rows <= 0 || a.Cols <= 0 {
		return fmt.Errorf("validate: stack depth and frame dimensions must "+
			"be positive, got depth %v and frame %vx%v", a.StackDepth, a.Rows,
			a.Cols)
	}
	if a.ActionDim <= 0 {
		return fmt.Errorf("validate: action dimension must be positive, "+
			"got %v", a.ActionDim)
	}
	for i, h := range a.Hidden {
		if h <= 0 {
			return fmt.Errorf("validate: hidden layer %v has size %v", i, h)
		}
	}
	if _, err := ActivationByName(a.Activation); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	return nil
}

// Equal returns whether two Architectures describe the same model
func (a Architecture) Equal(b Architecture) bool {
	if a.StackDepth != b.StackDepth || a.Rows != b.Rows || a.Cols != b.Cols ||
		a.ActionDim != b.ActionDim || a.Activation != b.Activation ||
		len(a.Hidden) != len(b.Hidden) {
		return false
	}
	for i := range a.Hidden {
		if a.Hidden[i] != b.Hidden[i] {
			return false
		}
	}
	return true
}

// Prediction is the output of a single forward pass. Frame is the
// predicted next frame, normalized to [-1, 1]. Aux is the output of
// the auxiliary scalar head of the model.
type Prediction struct {
	Frame *mat.Dense
	Aux   float64
}

// ForwardModel is a feed forward neural network that predicts the
// next frame of an environment. The flattened stack and the action
// are concatenated and passed through the hidden layers, after which
// two heads branch off: a tanh frame head with one output per pixel
// and a linear auxiliary head with a single output.
//
// The model only ever runs forward. Its tape machine is built without
// dual values, so no gradients are allocated or computed.
type ForwardModel struct {
	arch   Architecture
	device Device

	g         *G.ExprGraph
	input     *G.Node
	hidden    []*fcLayer
	frameHead *fcLayer
	auxHead   *fcLayer

	frameVal G.Value
	auxVal   G.Value

	vm G.VM
}

// New returns a new ForwardModel with the given architecture on the
// given device. Weights are initialized with init and biases with
// zeroes.
func New(arch Architecture, device Device, init G.InitWFn) (*ForwardModel,
	error) {
	if err := arch.Validate(); err != nil {
		return nil, fmt.Errorf("new: invalid architecture: %v", err)
	}

	opts, err := device.vmOpts()
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	act, _ := ActivationByName(arch.Activation)

	g := G.NewGraph()
	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(1, arch.Features()),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	m := &ForwardModel{
		arch:   arch,
		device: device,
		g:      g,
		input:  input,
	}

	in := arch.Features()
	x := input
	for i, size := range arch.Hidden {
		layer := newFCLayer(g, in, size, act, init, fmt.Sprintf("L%v", i))
		m.hidden = append(m.hidden, layer)

		x, err = layer.fwd(x)
		if err != nil {
			return nil, fmt.Errorf("new: hidden layer %v: %v", i, err)
		}
		in = size
	}

	m.frameHead = newFCLayer(g, in, arch.Rows*arch.Cols, TanH(), init,
		"frame")
	framePred, err := m.frameHead.fwd(x)
	if err != nil {
		return nil, fmt.Errorf("new: frame head: %v", err)
	}

	m.auxHead = newFCLayer(g, in, 1, Identity(), init, "aux")
	auxPred, err := m.auxHead.fwd(x)
	if err != nil {
		return nil, fmt.Errorf("new: auxiliary head: %v", err)
	}

	G.Read(framePred, &m.frameVal)
	G.Read(auxPred, &m.auxVal)

	m.vm = G.NewTapeMachine(g, opts...)

	return m, nil
}

// Architecture returns the architecture of the model
func (m *ForwardModel) Architecture() Architecture {
	return m.arch
}

// Device returns the device the model runs on
func (m *ForwardModel) Device() Device {
	return m.device
}

// Learnables returns the weight and bias nodes of the model in the
// order they are stored in parameter files: hidden layers first, then
// the frame head, then the auxiliary head.
func (m *ForwardModel) Learnables() G.Nodes {
	var nodes G.Nodes
	for _, layer := range m.hidden {
		nodes = append(nodes, layer.learnables()...)
	}
	nodes = append(nodes, m.frameHead.learnables()...)
	return append(nodes, m.auxHead.learnables()...)
}

// Predict runs the model on the stack s and action a and returns the
// predicted next frame.
func (m *ForwardModel) Predict(s *frame.Stack, a *mat.VecDense) (Prediction,
	error) {
	depth, rows, cols := s.Dims()
	if depth != m.arch.StackDepth || rows != m.arch.Rows ||
		cols != m.arch.Cols {
		return Prediction{}, fmt.Errorf("predict: model expects stack of "+
			"shape (%v, %v, %v) but got (%v, %v, %v)", m.arch.StackDepth,
			m.arch.Rows, m.arch.Cols, depth, rows, cols)
	}
	if a.Len() != m.arch.ActionDim {
		return Prediction{}, fmt.Errorf("predict: model expects action of "+
			"size %v but got %v", m.arch.ActionDim, a.Len())
	}

	input := s.RawData()
	for i := 0; i < a.Len(); i++ {
		input = append(input, a.AtVec(i))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(m.input.Shape()...),
	)
	if err := G.Let(m.input, inputTensor); err != nil {
		return Prediction{}, fmt.Errorf("predict: could not set input: %v",
			err)
	}

	var pred Prediction
	err := m.infer(func() error {
		pixels, ok := m.frameVal.Data().([]float64)
		if !ok || len(pixels) != rows*cols {
			return fmt.Errorf("unexpected frame output %v", m.frameVal)
		}
		data := make([]float64, len(pixels))
		copy(data, pixels)
		pred.Frame = mat.NewDense(rows, cols, data)

		aux, ok := m.auxVal.Data().([]float64)
		if !ok || len(aux) != 1 {
			return fmt.Errorf("unexpected auxiliary output %v", m.auxVal)
		}
		pred.Aux = aux[0]
		return nil
	})
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %v", err)
	}

	return pred, nil
}

// infer runs a single forward pass of the model and calls read while
// the outputs are still bound. The tape machine is reset afterwards
// whether or not the pass succeeded.
func (m *ForwardModel) infer(read func() error) error {
	defer m.vm.Reset()

	if err := m.vm.RunAll(); err != nil {
		return fmt.Errorf("could not run forward pass: %v", err)
	}
	return read()
}

// Close releases the resources held by the model's tape machine
func (m *ForwardModel) Close() error {
	return m.vm.Close()
}
