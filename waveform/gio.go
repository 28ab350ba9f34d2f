package waveform

import (
	"image"
	"image/color"

	"gioui.org/f32"
	"gioui.org/font"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
)

// GioCanvas is a Canvas adding its drawing operations to the op list of a
// gioui layout context. Text is only drawn if Shaper is set.
type GioCanvas struct {
	Gtx        layout.Context
	Shaper     *text.Shaper
	TextSize   unit.Sp
	Background color.NRGBA

	clips []clip.Stack
}

func NewGioCanvas(gtx layout.Context, shaper *text.Shaper) *GioCanvas {
	return &GioCanvas{Gtx: gtx, Shaper: shaper, TextSize: 12}
}

func (g *GioCanvas) Clear() {
	if g.Background.A == 0 {
		return
	}
	paint.FillShape(g.Gtx.Ops, g.Background, clip.Rect{Max: g.Gtx.Constraints.Max}.Op())
}

func (g *GioCanvas) PushClip(r image.Rectangle) {
	g.clips = append(g.clips, clip.Rect(r).Push(g.Gtx.Ops))
}

func (g *GioCanvas) PopClip() {
	if n := len(g.clips); n > 0 {
		g.clips[n-1].Pop()
		g.clips = g.clips[:n-1]
	}
}

func (g *GioCanvas) FillRect(min, max f32.Point, c color.NRGBA) {
	r := clip.Rect{Min: image.Pt(round(min.X), round(min.Y)), Max: image.Pt(round(max.X), round(max.Y))}
	if r.Max.X <= r.Min.X {
		r.Max.X = r.Min.X + 1
	}
	if r.Max.Y <= r.Min.Y {
		r.Max.Y = r.Min.Y + 1
	}
	paint.FillShape(g.Gtx.Ops, c, r.Op())
}

func (g *GioCanvas) Stroke(path []f32.Point, c color.NRGBA) {
	if len(path) < 2 {
		return
	}
	var p clip.Path
	p.Begin(g.Gtx.Ops)
	p.MoveTo(path[0])
	for _, pt := range path[1:] {
		p.LineTo(pt)
	}
	paint.FillShape(g.Gtx.Ops, c, clip.Stroke{Path: p.End(), Width: 1}.Op())
}

func (g *GioCanvas) Text(s string, at f32.Point, anchor layout.Direction, c color.NRGBA) {
	if g.Shaper == nil {
		return
	}
	gtx := g.Gtx
	gtx.Constraints.Min = image.Point{}
	macro := op.Record(gtx.Ops)
	paint.ColorOp{Color: c}.Add(gtx.Ops)
	dims := widget.Label{Alignment: text.Start, MaxLines: 1}.Layout(gtx, g.Shaper, font.Font{}, g.TextSize, s, op.CallOp{})
	call := macro.Stop()
	x, y := round(at.X), round(at.Y)
	switch anchor {
	case layout.N, layout.S, layout.Center:
		x -= dims.Size.X / 2
	case layout.NE, layout.E, layout.SE:
		x -= dims.Size.X
	}
	switch anchor {
	case layout.W, layout.Center, layout.E:
		y -= dims.Size.Y / 2
	case layout.SW, layout.S, layout.SE:
		y -= dims.Size.Y
	}
	defer op.Offset(image.Pt(x, y)).Push(gtx.Ops).Pop()
	call.Add(gtx.Ops)
}
