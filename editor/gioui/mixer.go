package gioui

import (
	"fmt"
	"image"
	"math"

	"gioui.org/gesture"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/editor"
	"golang.org/x/exp/shiny/materialdesign/icons"
)

type (
	// Mixer lists a strip per track in display order, followed by the master
	// strip.
	Mixer struct {
		List   layout.List
		strips []*Strip
		master Strip

		trackPeaks  []float32
		masterPeaks []float32
	}

	// Strip holds the widget state of one track. Strips are indexed by track
	// id, not by display position.
	Strip struct {
		Gain      widget.Float
		Pan       widget.Float
		GainLabel gesture.Click
		MuteBtn   widget.Clickable
		SoloBtn   widget.Clickable
		LinkBtn   widget.Clickable
		UpBtn     widget.Clickable
		DownBtn   widget.Clickable
	}
)

const (
	minSliderGain = -60
	maxSliderGain = 12
	meterFloor    = -60
	// per frame decay of the displayed peaks
	meterDecay = 0.9
)

func NewMixer() *Mixer {
	return &Mixer{List: layout.List{Axis: layout.Vertical}}
}

// SampleMeters pulls the peaks since the previous call. The displayed value
// follows rising peaks immediately and decays otherwise.
func (m *Mixer) SampleMeters(p *editor.AudioPlayer) {
	m.trackPeaks = decay(m.trackPeaks, p.TrackPeaks())
	m.masterPeaks = decay(m.masterPeaks, p.MasterPeaks())
}

func decay(held, peaks []float32) []float32 {
	if len(held) != len(peaks) {
		held = make([]float32, len(peaks))
	}
	for i, p := range peaks {
		held[i] = max(p, held[i]*meterDecay)
	}
	return held
}

func gainToSlider(db float64) float32 {
	return float32((max(minSliderGain, min(maxSliderGain, db)) - minSliderGain) / (maxSliderGain - minSliderGain))
}

func sliderToGain(v float32) float64 {
	return math.Round((minSliderGain+float64(v)*(maxSliderGain-minSliderGain))*10) / 10
}

func (m *Mixer) Layout(gtx C, th *material.Theme, s *editor.Session) D {
	st := s.State()
	for len(m.strips) < st.NumChannels() {
		m.strips = append(m.strips, new(Strip))
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return m.layoutMaster(gtx, th, s)
		}),
		layout.Rigid(func(gtx C) D {
			return m.List.Layout(gtx, len(st.Grouping), func(gtx C, pos int) D {
				return m.layoutTrack(gtx, th, s, pos)
			})
		}),
	)
}

func (m *Mixer) layoutTrack(gtx C, th *material.Theme, s *editor.Session, pos int) D {
	st := s.State()
	entry := st.Grouping[pos]
	id := entry.ID
	strip := m.strips[id]
	start, end := st.Grouping.GroupAt(pos)

	if strip.Gain.Update(gtx) {
		s.SetGain(id, sliderToGain(strip.Gain.Value))
	}
	for {
		e, ok := strip.GainLabel.Update(gtx.Source)
		if !ok {
			break
		}
		if e.Kind == gesture.KindClick && e.NumClicks > 1 {
			s.SetGain(id, 0)
		}
	}
	if strip.Pan.Update(gtx) {
		s.SetPan(id, float64(strip.Pan.Value)*2-1)
	}
	if strip.MuteBtn.Clicked(gtx) {
		s.SetMute(id, !st.TrackMutes[id])
	}
	if strip.SoloBtn.Clicked(gtx) {
		s.SetSolo(id, !st.TrackSolos[id])
	}
	if strip.LinkBtn.Clicked(gtx) {
		s.SetLinked(pos, !entry.Linked)
	}
	if strip.UpBtn.Clicked(gtx) && start > 0 {
		prev, _ := st.Grouping.GroupAt(start - 1)
		s.MoveTrack(start, prev)
	}
	if strip.DownBtn.Clicked(gtx) && end < len(st.Grouping) {
		_, next := st.Grouping.GroupAt(end)
		s.MoveTrack(start, next)
	}
	st = s.State()
	if !strip.Gain.Dragging() {
		strip.Gain.Value = gainToSlider(st.TrackGains[id])
	}
	if !strip.Pan.Dragging() {
		strip.Pan.Value = float32(st.TrackPans[id]+1) / 2
	}

	enabled := st.EnabledChannels()[id]
	nameColor := textColor
	if !enabled {
		nameColor = disabledTextColor
	}
	var peak float32
	if id < len(m.trackPeaks) {
		peak = m.trackPeaks[id]
	}
	inset := layout.Inset{Left: unit.Dp(4), Right: unit.Dp(4)}
	return inset.Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx C) D {
				return ToggleIcon(th, &strip.LinkBtn, icons.ContentLink, icons.ContentLink, "Link with the track above", entry.Linked).Layout(gtx)
			}),
			layout.Rigid(func(gtx C) D {
				gtx.Constraints.Min.X = gtx.Dp(120)
				gtx.Constraints.Max.X = gtx.Constraints.Min.X
				return Label(th, st.TrackNames[id], nameColor).Layout(gtx)
			}),
			layout.Rigid(IconButton(th, &strip.UpBtn, icons.NavigationArrowUpward, "Move up", start > 0).Layout),
			layout.Rigid(IconButton(th, &strip.DownBtn, icons.NavigationArrowDownward, "Move down", end < len(st.Grouping)).Layout),
			layout.Rigid(ToggleIcon(th, &strip.MuteBtn, icons.AVVolumeUp, icons.AVVolumeOff, "Mute", st.TrackMutes[id]).Layout),
			layout.Rigid(ToggleIcon(th, &strip.SoloBtn, icons.ActionVisibility, icons.ActionVisibility, "Solo", st.TrackSolos[id]).Layout),
			layout.Flexed(2, material.Slider(th, &strip.Gain).Layout),
			layout.Rigid(func(gtx C) D {
				gtx.Constraints.Min.X = gtx.Dp(64)
				dims := Label(th, fmt.Sprintf("%.1f dB", st.TrackGains[id]), textColor).Layout(gtx)
				defer clip.Rect{Max: dims.Size}.Push(gtx.Ops).Pop()
				strip.GainLabel.Add(gtx.Ops)
				return dims
			}),
			layout.Flexed(1, material.Slider(th, &strip.Pan).Layout),
			layout.Flexed(2, func(gtx C) D {
				return layoutMeter(gtx, peak)
			}),
		)
	})
}

func (m *Mixer) layoutMaster(gtx C, th *material.Theme, s *editor.Session) D {
	strip := &m.master
	if strip.Gain.Update(gtx) {
		s.SetMasterGain(sliderToGain(strip.Gain.Value))
	}
	for {
		e, ok := strip.GainLabel.Update(gtx.Source)
		if !ok {
			break
		}
		if e.Kind == gesture.KindClick && e.NumClicks > 1 {
			s.SetMasterGain(0)
		}
	}
	st := s.State()
	if !strip.Gain.Dragging() {
		strip.Gain.Value = gainToSlider(st.MasterGain)
	}
	inset := layout.Inset{Left: unit.Dp(4), Right: unit.Dp(4), Bottom: unit.Dp(4)}
	return inset.Layout(gtx, func(gtx C) D {
		children := []layout.FlexChild{
			layout.Rigid(func(gtx C) D {
				gtx.Constraints.Min.X = gtx.Dp(120 + 4*36)
				return Label(th, "Master", secondaryColor).Layout(gtx)
			}),
			layout.Flexed(2, material.Slider(th, &strip.Gain).Layout),
			layout.Rigid(func(gtx C) D {
				gtx.Constraints.Min.X = gtx.Dp(64)
				dims := Label(th, fmt.Sprintf("%.1f dB", st.MasterGain), textColor).Layout(gtx)
				defer clip.Rect{Max: dims.Size}.Push(gtx.Ops).Pop()
				strip.GainLabel.Add(gtx.Ops)
				return dims
			}),
			layout.Flexed(1, layout.Spacer{}.Layout),
		}
		for _, peak := range m.masterPeaks {
			children = append(children, layout.Flexed(1, func(gtx C) D {
				return layoutMeter(gtx, peak)
			}))
		}
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx, children...)
	})
}

// layoutMeter draws a horizontal bar on a dB scale from meterFloor to 0 dBFS.
func layoutMeter(gtx C, peak float32) D {
	size := image.Pt(gtx.Constraints.Max.X, gtx.Dp(8))
	paint.FillShape(gtx.Ops, surfaceColor, clip.Rect{Max: size}.Op())
	db := trackmix.AmpToDB(float64(peak))
	if db > meterFloor {
		frac := min(1, (db-meterFloor)/-meterFloor)
		col := meterColor
		if peak >= 1 {
			col = meterHotColor
		}
		paint.FillShape(gtx.Ops, col, clip.Rect{Max: image.Pt(int(frac*float64(size.X)), size.Y)}.Op())
	}
	return D{Size: size}
}
