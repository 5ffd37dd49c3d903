package frame

import (
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

const tol = 1e-9

func constantRGB(t *testing.T, rows, cols int, r, g, b float64) *tensor.Dense {
	data := make([]float64, 0, rows*cols*3)
	for i := 0; i < rows*cols; i++ {
		data = append(data, r, g, b)
	}
	rgb, err := NewRGB(rows, cols, data)
	if err != nil {
		t.Fatal(err)
	}
	return rgb
}

func TestGrayWhite(t *testing.T) {
	rgb := constantRGB(t, 4, 5, 255, 255, 255)

	gray, err := Gray(rgb, true)
	if err != nil {
		t.Fatalf("gray: %v", err)
	}

	rows, cols := gray.Dims()
	if rows != 4 || cols != 5 {
		t.Errorf("gray: expected dims (4, 5), got (%v, %v)", rows, cols)
	}

	want := 0.9921875
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if v := gray.At(r, c); math.Abs(v-want) > tol {
				t.Errorf("gray: pixel (%v, %v): expected %v, got %v", r, c,
					want, v)
			}
		}
	}
}

func TestGrayWeights(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		norm    bool
		want    float64
	}{
		{"red", 255, 0, 0, false, 0.299 * 255},
		{"green", 0, 255, 0, false, 0.587 * 255},
		{"blue", 0, 0, 255, false, 0.114 * 255},
		{"black normalized", 0, 0, 0, true, -1.0},
		{"mid normalized", 128, 128, 128, true, 0.0},
	}

	for _, test := range tests {
		gray, err := Gray(constantRGB(t, 2, 2, test.r, test.g, test.b),
			test.norm)
		if err != nil {
			t.Fatalf("%v: %v", test.name, err)
		}
		if v := gray.At(1, 1); math.Abs(v-test.want) > tol {
			t.Errorf("%v: expected %v, got %v", test.name, test.want, v)
		}
	}
}

func TestGrayUint8(t *testing.T) {
	data := []uint8{255, 255, 255, 0, 0, 0}
	rgb := tensor.New(tensor.WithShape(1, 2, 3), tensor.WithBacking(data))

	gray, err := Gray(rgb, true)
	if err != nil {
		t.Fatalf("gray: %v", err)
	}
	if v := gray.At(0, 0); math.Abs(v-0.9921875) > tol {
		t.Errorf("gray: expected white pixel 0.9921875, got %v", v)
	}
	if v := gray.At(0, 1); math.Abs(v+1) > tol {
		t.Errorf("gray: expected black pixel -1, got %v", v)
	}
}

func TestGrayBadShape(t *testing.T) {
	rgb := tensor.New(tensor.WithShape(4, 4), tensor.Of(tensor.Float64))
	if _, err := Gray(rgb, true); err == nil {
		t.Error("gray: expected error for 2-D observation")
	}

	if _, err := NewRGB(2, 2, make([]float64, 5)); err == nil {
		t.Error("newRGB: expected error for wrong backing length")
	}
}

func TestNewStackReplicates(t *testing.T) {
	f := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	s := NewStack(f, 4)

	if s.Len() != 4 {
		t.Fatalf("newStack: expected 4 frames, got %v", s.Len())
	}
	for i := 0; i < s.Len(); i++ {
		if !mat.Equal(s.At(i), f) {
			t.Errorf("newStack: frame %v differs from initial frame", i)
		}
	}

	// The stack must not alias the caller's frame
	f.Set(0, 0, 100)
	if s.At(0).At(0, 0) != 1 {
		t.Error("newStack: stack aliases the input frame")
	}
}

func TestStackPush(t *testing.T) {
	s := NewStack(mat.NewDense(1, 1, []float64{0}), 3)

	for i := 1; i <= 5; i++ {
		s.Push(mat.NewDense(1, 1, []float64{float64(i)}))
		if s.Len() != 3 {
			t.Fatalf("push: expected depth 3 after push %v, got %v", i,
				s.Len())
		}
		if v := s.Newest().At(0, 0); v != float64(i) {
			t.Errorf("push: expected newest %v, got %v", i, v)
		}
	}

	want := []float64{3, 4, 5}
	got := s.RawData()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("push: expected order %v, got %v", want, got)
			break
		}
	}
}

func TestStackPushWrongDims(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("push: expected panic on mismatched frame dimensions")
		}
	}()

	s := NewStack(mat.NewDense(2, 2, nil), 2)
	s.Push(mat.NewDense(3, 2, nil))
}

func TestStackClone(t *testing.T) {
	s := NewStack(mat.NewDense(1, 2, []float64{1, 1}), 2)
	c := s.Clone()
	c.Push(mat.NewDense(1, 2, []float64{7, 7}))

	if s.Newest().At(0, 0) != 1 {
		t.Error("clone: push to clone modified the original")
	}
	if c.Newest().At(0, 0) != 7 {
		t.Error("clone: push to clone was lost")
	}
}

func TestStackTensor(t *testing.T) {
	s := NewStack(mat.NewDense(2, 3, nil), 4)
	shape := s.Tensor().Shape()

	if len(shape) != 3 || shape[0] != 4 || shape[1] != 2 || shape[2] != 3 {
		t.Errorf("tensor: expected shape (4, 2, 3), got %v", shape)
	}
}

func TestImageRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			v := uint8(40 * (x + y))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	rgb := FromImage(img)
	gray, err := Gray(rgb, false)
	if err != nil {
		t.Fatalf("gray: %v", err)
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := Save(path, gray, false); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	reloaded, err := Gray(loaded, false)
	if err != nil {
		t.Fatalf("gray: %v", err)
	}

	if !mat.EqualApprox(gray, reloaded, 1.0) {
		t.Errorf("open: expected %v, got %v", mat.Formatted(gray),
			mat.Formatted(reloaded))
	}
}

func TestRender(t *testing.T) {
	s := NewStack(mat.NewDense(8, 6, nil), 3)
	img := Render(s, true)

	wantW := 3*6 + 4*Border
	wantH := 8 + 2*Border
	if b := img.Bounds(); b.Dx() != wantW || b.Dy() != wantH {
		t.Errorf("render: expected %vx%v image, got %vx%v", wantW, wantH,
			b.Dx(), b.Dy())
	}

	path := filepath.Join(t.TempDir(), "stack.png")
	if err := SaveRender(path, s, true); err != nil {
		t.Errorf("saveRender: %v", err)
	}
}
