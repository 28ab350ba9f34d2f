package gioui

import (
	"fmt"

	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/editor"
	"golang.org/x/exp/shiny/materialdesign/icons"
)

// Toolbar holds the transport, view and export controls.
type Toolbar struct {
	PlayBtn    widget.Clickable
	StopBtn    widget.Clickable
	LoopBtn    widget.Clickable
	SelectAll  widget.Clickable
	ViewAll    widget.Clickable
	ZoomInBtn  widget.Clickable
	ZoomOutBtn widget.Clickable
	UnitBtn    widget.Clickable
	BitsBtn    widget.Clickable
	BounceBtn  widget.Clickable
	Position   widget.Editor
	BounceBits int
}

var (
	units     = []trackmix.Unit{trackmix.UnitTime, trackmix.UnitSample, trackmix.UnitMeasure}
	bitDepths = []int{16, 24, 32}
)

func NewToolbar() *Toolbar {
	return &Toolbar{
		Position:   widget.Editor{SingleLine: true, Submit: true},
		BounceBits: 16,
	}
}

func (t *Toolbar) Layout(gtx C, th *material.Theme, e *Editor) D {
	s := e.Session
	t.update(gtx, e)
	st := s.State()
	playIcon, playHint := icons.AVPlayArrow, "Play (Space)"
	if st.Playing == editor.Playing {
		playIcon, playHint = icons.AVPause, "Pause (Space)"
	}
	if !gtx.Focused(&t.Position) {
		if str := st.PlayheadString(); t.Position.Text() != str {
			t.Position.SetText(str)
		}
	}
	inset := layout.UniformInset(unit.Dp(2))
	return inset.Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(IconButton(th, &t.PlayBtn, playIcon, playHint, true).Layout),
			layout.Rigid(IconButton(th, &t.StopBtn, icons.AVStop, "Stop (Esc)", st.Playing != editor.Stopped).Layout),
			layout.Rigid(ToggleIcon(th, &t.LoopBtn, icons.AVRepeat, icons.AVRepeat, "Loop", st.Loop).Layout),
			layout.Rigid(func(gtx C) D {
				gtx.Constraints.Min.X = gtx.Dp(140)
				gtx.Constraints.Max.X = gtx.Constraints.Min.X
				ed := material.Editor(th, &t.Position, "play head")
				ed.Color = secondaryColor
				return layout.UniformInset(unit.Dp(6)).Layout(gtx, ed.Layout)
			}),
			layout.Rigid(LowEmphasisButton(th, &t.UnitBtn, string(st.Configuration.Unit)).Layout),
			layout.Rigid(IconButton(th, &t.SelectAll, icons.ContentSelectAll, "Select all (Ctrl+A)", true).Layout),
			layout.Rigid(IconButton(th, &t.ViewAll, icons.NavigationFullscreen, "View all", true).Layout),
			layout.Rigid(IconButton(th, &t.ZoomInBtn, icons.ActionZoomIn, "Zoom in", true).Layout),
			layout.Rigid(IconButton(th, &t.ZoomOutBtn, icons.ActionZoomOut, "Zoom out", true).Layout),
			layout.Flexed(1, func(gtx C) D {
				return layout.Center.Layout(gtx, Label(th, e.Alert(gtx.Now), errorColor).Layout)
			}),
			layout.Rigid(LowEmphasisButton(th, &t.BitsBtn, fmt.Sprintf("%d bit", t.BounceBits)).Layout),
			layout.Rigid(IconButton(th, &t.BounceBtn, icons.FileFileDownload, "Bounce to .wav", !e.Exploring).Layout),
		)
	})
}

func (t *Toolbar) update(gtx C, e *Editor) {
	s := e.Session
	st := s.State()
	if t.PlayBtn.Clicked(gtx) {
		s.TogglePlay()
	}
	if t.StopBtn.Clicked(gtx) {
		s.Stop()
	}
	if t.LoopBtn.Clicked(gtx) {
		s.SetLoop(!st.Loop)
	}
	if t.SelectAll.Clicked(gtx) {
		s.SetSelRangeToAll()
	}
	if t.ViewAll.Clicked(gtx) {
		s.SetViewRangeToAll()
	}
	view := st.ViewRange
	center := float64(view.Start+view.End) / 2
	if t.ZoomInBtn.Clicked(gtx) {
		s.ZoomH(center, 1)
	}
	if t.ZoomOutBtn.Clicked(gtx) {
		s.ZoomH(center, -1)
	}
	if t.UnitBtn.Clicked(gtx) {
		c := st.Configuration
		c.Unit = units[(indexOf(units, c.Unit)+1)%len(units)]
		s.SetConfiguration(c)
	}
	if t.BitsBtn.Clicked(gtx) {
		t.BounceBits = bitDepths[(indexOf(bitDepths, t.BounceBits)+1)%len(bitDepths)]
	}
	if t.BounceBtn.Clicked(gtx) && !e.Exploring {
		e.BounceToFile(t.BounceBits)
	}
	for {
		ev, ok := t.Position.Update(gtx)
		if !ok {
			break
		}
		if _, ok := ev.(widget.SubmitEvent); !ok {
			continue
		}
		pos, err := trackmix.ParsePosition(t.Position.Text(), st.Configuration.Unit, st.Configuration.Timing(st.SampleRate))
		if err != nil {
			e.SetAlert(err.Error())
		} else {
			s.SetPlayhead(pos)
		}
		gtx.Execute(key.FocusCmd{})
	}
}

func indexOf[T comparable](list []T, v T) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
