package frame

import (
	"image"

	"github.com/fogleman/gg"
)

// Border is the width in pixels of the margin drawn around each frame
// when rendering a Stack
const Border = 4

// Render draws all frames of a Stack side by side, oldest on the left,
// separated by a dark border.
func Render(s *Stack, normalized bool) image.Image {
	depth, rows, cols := s.Dims()

	width := depth*cols + (depth+1)*Border
	height := rows + 2*Border

	dc := gg.NewContext(width, height)
	dc.SetRGB(0.15, 0.15, 0.15)
	dc.Clear()

	for i := 0; i < depth; i++ {
		x := Border + i*(cols+Border)
		dc.DrawImage(ToImage(s.At(i), normalized), x, Border)
	}

	// Outline the newest frame, it is the one predicted last
	x := float64(Border + (depth-1)*(cols+Border))
	dc.SetRGB(0.9, 0.3, 0.2)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x-0.5, Border-0.5, float64(cols)+1, float64(rows)+1)
	dc.Stroke()

	return dc.Image()
}

// SaveRender renders a Stack and writes it to path as a PNG image
func SaveRender(path string, s *Stack, normalized bool) error {
	return gg.SavePNG(path, Render(s, normalized))
}
