package frame

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/imgio"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// FromImage converts an image into an RGB observation of shape
// (rows, cols, 3) with channel values in [0, 255]. The alpha channel
// is dropped.
func FromImage(img image.Image) *tensor.Dense {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()

	data := make([]float64, 0, rows*cols*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			data = append(data, float64(r>>8), float64(g>>8), float64(b>>8))
		}
	}

	return tensor.New(tensor.WithShape(rows, cols, 3),
		tensor.WithBacking(data))
}

// ToImage converts a frame to an 8-bit grayscale image. If normalized
// is true, the frame values are assumed to lie in [-1, 1] and are
// denormalized first. Values are clipped to [0, 255].
func ToImage(f mat.Matrix, normalized bool) *image.Gray {
	rows, cols := f.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := f.At(r, c)
			if normalized {
				v = Denormalize(v)
			}
			v = math.Max(MinRaw, math.Min(MaxRaw, math.Round(v)))
			img.SetGray(c, r, color.Gray{Y: uint8(v)})
		}
	}
	return img
}

// Open reads an image from disk and returns it as an RGB observation.
// Any format that bild can decode is supported.
func Open(path string) (*tensor.Dense, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: could not read image %v: %v", path, err)
	}
	return FromImage(img), nil
}

// Save writes a frame to disk as a PNG image
func Save(path string, f mat.Matrix, normalized bool) error {
	err := imgio.Save(path, ToImage(f, normalized), imgio.PNGEncoder())
	if err != nil {
		return fmt.Errorf("save: could not write image %v: %v", path, err)
	}
	return nil
}
