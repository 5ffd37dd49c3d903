package frame

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Stack is a fixed-depth sliding window over the most recent frames
// of an episode, ordered from oldest to newest. The depth of a Stack
// never changes: every Push evicts the oldest frame.
//
// Frames stored in a Stack are treated as immutable and may be shared
// between Stacks.
type Stack struct {
	frames     []*mat.Dense
	rows, cols int
}

// NewStack returns a Stack of the given depth in which every position
// holds the frame f.
func NewStack(f *mat.Dense, depth int) *Stack {
	if depth <= 0 {
		panic(fmt.Sprintf("newStack: depth must be positive, got %v", depth))
	}

	rows, cols := f.Dims()
	var first mat.Dense
	first.CloneFrom(f)

	frames := make([]*mat.Dense, depth)
	for i := range frames {
		frames[i] = &first
	}

	return &Stack{frames: frames, rows: rows, cols: cols}
}

// Push appends f as the newest frame and evicts the oldest one.
// Push panics if f does not have the frame dimensions of the Stack.
func (s *Stack) Push(f *mat.Dense) {
	if r, c := f.Dims(); r != s.rows || c != s.cols {
		panic(fmt.Sprintf("push: frame dimensions (%v, %v) do not match "+
			"stack frame dimensions (%v, %v)", r, c, s.rows, s.cols))
	}
	depth := len(s.frames)

	var next mat.Dense
	next.CloneFrom(f)

	copy(s.frames, s.frames[1:])
	s.frames[depth-1] = &next

	if len(s.frames) != depth {
		panic(fmt.Sprintf("push: stack depth changed from %v to %v",
			depth, len(s.frames)))
	}
}

// Len returns the number of frames in the Stack
func (s *Stack) Len() int {
	return len(s.frames)
}

// Dims returns the depth of the Stack and the dimensions of each frame
func (s *Stack) Dims() (depth, rows, cols int) {
	return len(s.frames), s.rows, s.cols
}

// At returns the frame at position i, where position 0 is the oldest
// frame. The returned frame must not be modified.
func (s *Stack) At(i int) *mat.Dense {
	return s.frames[i]
}

// Newest returns the most recently pushed frame
func (s *Stack) Newest() *mat.Dense {
	return s.frames[len(s.frames)-1]
}

// Clone returns a copy of the Stack. Pushing to the copy does not
// affect the original.
func (s *Stack) Clone() *Stack {
	frames := make([]*mat.Dense, len(s.frames))
	copy(frames, s.frames)

	return &Stack{frames: frames, rows: s.rows, cols: s.cols}
}

// RawData returns the frames of the Stack flattened in row-major
// order, oldest frame first.
func (s *Stack) RawData() []float64 {
	size := s.rows * s.cols
	data := make([]float64, len(s.frames)*size)

	for i, f := range s.frames {
		raw := f.RawMatrix()
		for r := 0; r < s.rows; r++ {
			start := i*size + r*s.cols
			copy(data[start:start+s.cols],
				raw.Data[r*raw.Stride:r*raw.Stride+s.cols])
		}
	}
	return data
}

// Tensor returns the Stack as a tensor of shape (depth, rows, cols)
func (s *Stack) Tensor() *tensor.Dense {
	return tensor.New(
		tensor.WithShape(len(s.frames), s.rows, s.cols),
		tensor.WithBacking(s.RawData()),
	)
}

// String implements the fmt.Stringer interface
func (s *Stack) String() string {
	return fmt.Sprintf("Stack{depth: %v, frame: %vx%v}", len(s.frames),
		s.rows, s.cols)
}
