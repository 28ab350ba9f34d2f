package gioui

import (
	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget/material"
	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/editor"
	"github.com/trackmix/trackmix/waveform"
)

// WaveView shows the waveforms of all tracks over the view range. Pressing
// sets the play head, dragging selects, the wheel zooms around the pointer
// and horizontal scrolling scrolls.
type WaveView struct {
	renderer waveform.Renderer
	slice    *waveform.Slice

	dragging  bool
	dragID    pointer.ID
	dragFrom  float64
	dragStart f32.Point
}

const (
	labelsWidth  = 48
	labelsHeight = 24
)

func NewWaveView() *WaveView {
	return &WaveView{}
}

func (w *WaveView) Layout(gtx C, th *material.Theme, s *editor.Session) D {
	size := gtx.Constraints.Max
	width := float32(size.X - labelsWidth)
	if width <= 0 || size.Y <= labelsHeight {
		return D{Size: size}
	}
	w.update(gtx, s, width)
	st := s.State()
	view := st.ViewRange

	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	paint.FillShape(gtx.Ops, backgroundColor, clip.Rect{Max: size}.Op())
	event.Op(gtx.Ops, w)

	c := waveform.NewGioCanvas(gtx, th.Shaper)
	opts := waveform.DefaultPaintOptions(float32(size.X), float32(size.Y))
	opts.LabelsWidth, opts.LabelsHeight = labelsWidth, labelsHeight
	opts.PaintOver = true
	waveform.PaintAmplitudeRuler(c, opts, st.NumChannels())
	opts.Width = width
	if slice := s.Waveform(); slice != nil {
		if slice != w.slice {
			w.slice = slice
			w.renderer.Slices = []waveform.Slice{*slice}
		}
		w.renderer.Opts = opts
		w.renderer.Paint(c, view)
	}
	waveform.PaintTimeRuler(c, opts, view, st.Configuration.Unit, st.Configuration.Timing(st.SampleRate))

	x := func(pos int) float32 {
		return float32(pos-view.Start) / float32(view.Len()) * width
	}
	if sel := st.SelRange; sel != nil && sel.End > view.Start && sel.Start < view.End {
		x0, x1 := max(0, x(sel.Start)), min(width, x(sel.End))
		c.FillRect(f32.Pt(x0, labelsHeight), f32.Pt(x1, float32(size.Y)), selectionColor)
	}
	if st.Playhead >= view.Start && st.Playhead <= view.End {
		px := x(st.Playhead)
		c.FillRect(f32.Pt(px, 0), f32.Pt(px+1, float32(size.Y)), playheadColor)
	}
	if w.slice == nil {
		Label(th, "Building waveform...", disabledTextColor).Layout(gtx)
	}
	return D{Size: size}
}

// position maps an x coordinate to a fractional sample position in the view.
func position(view trackmix.Range, width, x float32) float64 {
	return float64(view.Start) + float64(x/width)*float64(view.Len())
}

func (w *WaveView) update(gtx C, s *editor.Session, width float32) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  w,
			Kinds:   pointer.Scroll | pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel,
			ScrollX: pointer.ScrollRange{Min: -1e6, Max: 1e6},
			ScrollY: pointer.ScrollRange{Min: -1e6, Max: 1e6},
		})
		if !ok {
			break
		}
		e, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		view := s.State().ViewRange
		switch e.Kind {
		case pointer.Scroll:
			if e.Scroll.X == 0 && e.Scroll.Y == 0 {
				break
			}
			if abs32(e.Scroll.X) > abs32(e.Scroll.Y) {
				if e.Scroll.X > 0 {
					s.ScrollH(0.01)
				} else {
					s.ScrollH(-0.01)
				}
				break
			}
			factor := 1.0
			if e.Scroll.Y > 0 {
				factor = -1
			}
			s.ZoomH(position(view, width, e.Position.X), factor)
		case pointer.Press:
			if e.Buttons&pointer.ButtonPrimary == 0 || e.Position.X > width {
				break
			}
			w.dragging, w.dragID, w.dragStart = true, e.PointerID, e.Position
			w.dragFrom = position(view, width, e.Position.X)
			s.SetPlayhead(w.dragFrom)
			s.SetSelRange(nil)
		case pointer.Drag:
			if !w.dragging || e.PointerID != w.dragID {
				break
			}
			if e.Position.X == w.dragStart.X {
				s.SetSelRange(nil)
				break
			}
			switch {
			case e.Position.X > width:
				s.ScrollH(float64(e.Position.X-width) / 1000)
			case e.Position.X < 0:
				s.ScrollH(float64(e.Position.X) / 1000)
			}
			view = s.State().ViewRange
			to := position(view, width, max(0, min(width, e.Position.X)))
			s.SetSelRange(&[2]float64{w.dragFrom, to})
		case pointer.Release, pointer.Cancel:
			if w.dragging {
				w.dragging = false
				s.EmitSelRangeToPlay()
			}
		}
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
