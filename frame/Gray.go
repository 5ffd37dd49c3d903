// Package frame implements single-channel observation frames, the
// conversion of raw RGB environment observations into such frames,
// and the fixed-depth Stack of frames that is used as the observation
// of the dynamics environment.
package frame

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Coefficients of the luma transform used to collapse RGB channels
const (
	RedWeight   = 0.299
	GreenWeight = 0.587
	BlueWeight  = 0.114
)

// Bounds of grayscale values with and without normalization
const (
	MinNormalized = -1.0
	MaxNormalized = 1.0
	MinRaw        = 0.0
	MaxRaw        = 255.0
)

// Normalize maps a grayscale value in [0, 255] to [-1, 1)
func Normalize(v float64) float64 {
	return v/128.0 - 1.0
}

// Denormalize is the inverse of Normalize
func Denormalize(v float64) float64 {
	return (v + 1.0) * 128.0
}

// Gray converts an RGB observation of shape (rows, cols, 3) to a
// single-channel frame of shape (rows, cols). Each pixel becomes the
// weighted sum of its channels using RedWeight, GreenWeight and
// BlueWeight. If norm is true, the result is additionally normalized
// with Normalize.
//
// The backing data of rgb may be either float64 or uint8.
func Gray(rgb *tensor.Dense, norm bool) (*mat.Dense, error) {
	shape := rgb.Shape()
	if len(shape) != 3 || shape[2] != 3 {
		return nil, fmt.Errorf("gray: expected observation of shape "+
			"(rows, cols, 3) but got %v", shape)
	}
	rows, cols := shape[0], shape[1]

	var channel func(i int) float64
	switch data := rgb.Data().(type) {
	case []float64:
		channel = func(i int) float64 { return data[i] }
	case []uint8:
		channel = func(i int) float64 { return float64(data[i]) }
	default:
		return nil, fmt.Errorf("gray: unsupported observation dtype %v",
			rgb.Dtype())
	}

	gray := make([]float64, rows*cols)
	for i := range gray {
		r, g, b := channel(3*i), channel(3*i+1), channel(3*i+2)
		v := RedWeight*r + GreenWeight*g + BlueWeight*b
		if norm {
			v = Normalize(v)
		}
		gray[i] = v
	}

	return mat.NewDense(rows, cols, gray), nil
}

// NewRGB returns an RGB observation tensor with the given dimensions.
// The backing slice must have length rows * cols * 3 with channels
// varying fastest. If backing is nil, a zero observation is returned.
func NewRGB(rows, cols int, backing []float64) (*tensor.Dense, error) {
	if backing == nil {
		backing = make([]float64, rows*cols*3)
	}
	if len(backing) != rows*cols*3 {
		return nil, fmt.Errorf("newRGB: backing length %v does not match "+
			"shape (%v, %v, 3)", len(backing), rows, cols)
	}

	return tensor.New(
		tensor.WithShape(rows, cols, 3),
		tensor.WithBacking(backing),
	), nil
}
