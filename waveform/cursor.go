package waveform

import (
	"math"

	"github.com/trackmix/trackmix"
)

// CursorInfo describes the data under a pixel. For raw data Value holds the
// sample; for pyramid data Envelope is set and Min and Max hold the frame's
// envelope, with Y at whichever of the two is closer to the pointer.
type CursorInfo struct {
	X, Y      float32
	Channel   int
	Value     float32
	Envelope  bool
	Min, Max  float32
	FromIndex int
	ToIndex   int // exclusive
}

// CursorInfo maps the pixel (x, y) back to the data drawn there by Paint.
// It returns false if no slice covers the position.
func (r *Renderer) CursorInfo(x, y float32, view trackmix.Range) (CursorInfo, bool) {
	o := r.Opts.orDefault()
	channels := r.channels()
	if channels == 0 || view.Len() <= 0 || o.Width <= 0 || o.Height <= 0 {
		return CursorInfo{}, false
	}
	g := newGeometry(o, view, channels)
	pos := max(float64(view.Start), min(float64(view.End-1), float64(view.Start)+float64(x)/g.pixelsPerSample))
	channel := max(0, min(channels-1, int(math.Floor(float64(y)/g.lane))))
	si := -1
	for i := range r.Slices {
		if float64(r.Slices[i].StartIndex) <= pos && pos < float64(r.Slices[i].EndIndex) {
			si = i
			break
		}
	}
	if si < 0 {
		return CursorInfo{}, false
	}
	s := &r.Slices[si]
	level := BestLevels(r.Slices[si:si+1], 1/g.pixelsPerSample)[0]
	ret := CursorInfo{Channel: channel}
	if level < 0 {
		vec := s.Raw[channel]
		if len(vec) == 0 {
			return CursorInfo{}, false
		}
		i := max(0, min(len(vec)-1, s.index(-1, pos)))
		spr := s.samplesPerRaw()
		ret.FromIndex = s.position(-1, i)
		ret.ToIndex = min(s.EndIndex, view.End, ret.FromIndex+spr)
		ret.Value = vec[i]
		ret.X = g.x(ret.FromIndex) + float32(0.5*g.pixelsPerSample*float64(spr))
		ret.Y = g.y(float64(ret.Value), channel)
		return ret, true
	}
	l := &s.Pyramid.Levels[level]
	if len(l.Max[channel]) == 0 {
		return CursorInfo{}, false
	}
	i := max(0, min(len(l.Max[channel])-1, s.index(level, pos)))
	ret.Envelope = true
	ret.FromIndex = s.position(level, i)
	ret.ToIndex = min(s.EndIndex, view.End, ret.FromIndex+l.SamplesPerFrame)
	ret.Min, ret.Max = l.Min[channel][i], l.Max[channel][i]
	ret.X = g.x(ret.FromIndex)
	yMax, yMin := g.y(float64(ret.Max), channel), g.y(float64(ret.Min), channel)
	if abs32(yMax-y) <= abs32(yMin-y) {
		ret.Y = yMax
	} else {
		ret.Y = yMin
	}
	return ret, true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
