package waveform

import (
	"image"
	"image/color"

	"gioui.org/f32"
	"gioui.org/layout"
)

type (
	// Canvas is the drawing surface of the renderer. Coordinates are in
	// pixels with the origin at the top left.
	Canvas interface {
		// Clear fills the whole canvas with its background.
		Clear()
		PushClip(r image.Rectangle)
		PopClip()
		// Stroke draws a polyline one pixel wide.
		Stroke(path []f32.Point, c color.NRGBA)
		FillRect(min, max f32.Point, c color.NRGBA)
		// Text draws s so that the point at is on the side of the text
		// given by anchor: layout.W puts at on the middle of the left edge,
		// layout.S on the middle of the bottom edge.
		Text(s string, at f32.Point, anchor layout.Direction, c color.NRGBA)
	}

	Style struct {
		Phosphor  color.NRGBA `yaml:",flow"`
		Separator color.NRGBA `yaml:",flow"`
		Grid      color.NRGBA `yaml:",flow"`
		GridRuler color.NRGBA `yaml:",flow"`
		Text      color.NRGBA `yaml:",flow"`
	}
)

var DefaultStyle = Style{
	Phosphor:  color.NRGBA{R: 67, G: 217, B: 150, A: 255},
	Separator: color.NRGBA{R: 128, G: 128, B: 128, A: 255},
	Grid:      color.NRGBA{R: 0, G: 53, B: 0, A: 255},
	GridRuler: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	Text:      color.NRGBA{R: 255, G: 255, B: 255, A: 255},
}

// hline draws a horizontal line, dashed if dash is positive.
func hline(c Canvas, x0, x1, y float32, col color.NRGBA, dash, gap float32) {
	if dash <= 0 {
		c.FillRect(f32.Pt(x0, y), f32.Pt(x1, y+1), col)
		return
	}
	for x := x0; x < x1; x += dash + gap {
		c.FillRect(f32.Pt(x, y), f32.Pt(min(x+dash, x1), y+1), col)
	}
}

func vline(c Canvas, x, y0, y1 float32, col color.NRGBA) {
	c.FillRect(f32.Pt(x, y0), f32.Pt(x+1, y1), col)
}
