package editor

import (
	"math"

	"github.com/trackmix/trackmix"
)

// zoomBase is the view width multiplier of one zoom step.
const zoomBase = 1.5

// SetPlayhead moves the play head to round(pos), clamped to [0, length].
// While playing or paused the engine is seeked in place.
func (s *Session) SetPlayhead(pos float64) {
	p := clampInt(int(math.Round(pos)), 0, s.state.Length)
	s.startPos = p
	if s.state.Playing != Stopped && s.player != nil {
		s.player.Seek(p)
	}
	next := s.state
	next.Playhead = p
	s.setState(next)
}

// SetSelRange sets the selection. A nil range clears it. The endpoints may
// come in any order; the start is clamped to [0, length-1] and the end to
// [1, length]. A selection that collapses to a point is cleared. A
// successful selection moves the play head to its start.
func (s *Session) SetSelRange(r *[2]float64) {
	next := s.state
	next.SelRange = nil
	if r != nil && s.state.Length > 0 {
		a, b := r[0], r[1]
		if b < a {
			a, b = b, a
		}
		start := clampInt(int(math.Round(a)), 0, s.state.Length-1)
		end := clampInt(int(math.Round(b)), 1, s.state.Length)
		if start < end {
			next.SelRange = &trackmix.Range{Start: start, End: end}
			next.Playhead = start
			s.startPos = start
		}
	}
	s.setState(next)
}

// SetSelRangeToAll selects the whole buffer and commits it to playback.
func (s *Session) SetSelRangeToAll() {
	s.SelectAll()
	s.EmitSelRangeToPlay()
}

// SelectAll selects the whole buffer.
func (s *Session) SelectAll() {
	s.SetSelRange(&[2]float64{0, float64(s.state.Length)})
}

// EmitSelRangeToPlay commits the current selection to playback: while
// playing, the loop range follows it.
func (s *Session) EmitSelRangeToPlay() {
	sel := s.state.SelRange
	if s.player != nil && s.state.Playing != Stopped {
		if sel != nil {
			s.player.SetLoopRange(sel.Start, sel.End)
		} else {
			s.player.SetLoopRange(0, s.state.Length)
		}
	}
	s.Events.SelRangeToPlay.Emit(sel)
}

func (s *Session) minViewWidth() int {
	return min(s.state.Length, 5)
}

// SetViewRange sets the visible range. The endpoints may come in any order.
// The range is clamped to the buffer and never narrower than
// min(length, 5) samples.
func (s *Session) SetViewRange(a, b float64) {
	if b < a {
		a, b = b, a
	}
	length, minWidth := s.state.Length, s.minViewWidth()
	start := clampInt(int(math.Round(a)), 0, length-minWidth)
	end := clampInt(int(math.Round(b)), minWidth, length)
	if end-start < minWidth {
		end = start + minWidth
		if end > length {
			end = length
			start = length - minWidth
		}
	}
	next := s.state
	next.ViewRange = trackmix.Range{Start: start, End: end}
	s.setState(next)
}

func (s *Session) SetViewRangeToAll() {
	s.SetViewRange(0, float64(s.state.Length))
}

// ZoomH zooms the view around ref by zoomBase^-factor; a positive factor
// zooms in. A ref outside the view recentres the view on ref at the same
// width instead.
func (s *Session) ZoomH(ref, factor float64) {
	length := s.state.Length
	vs, ve := s.state.ViewRange.Start, s.state.ViewRange.End
	vl := ve - vs
	r := clampInt(int(math.Round(ref)), 0, length)
	if r < vs || r > ve {
		start := max(0, min(length-vl, int(math.Round(float64(r)-float64(vl)/2))))
		end := max(vl, min(length, int(math.Round(float64(r)+float64(vl)/2))))
		s.SetViewRange(float64(start), float64(end))
		return
	}
	if factor >= 0 && vl <= s.minViewWidth() {
		return
	}
	m := math.Pow(zoomBase, -factor)
	rf := float64(r)
	s.SetViewRange(rf-(rf-float64(vs))*m, rf+(float64(ve)-rf)*m)
}

// ScrollH moves the view by speed times its width. Any nonzero speed moves
// at least one sample.
func (s *Session) ScrollH(speed float64) {
	if speed == 0 {
		return
	}
	length := s.state.Length
	vs, ve := s.state.ViewRange.Start, s.state.ViewRange.End
	vl := ve - vs
	d := float64(vl) * speed
	if speed > 0 {
		d = max(1, d)
	} else {
		d = min(-1, d)
	}
	delta := int(math.Round(d))
	start := max(0, min(length-vl, vs+delta))
	end := min(length, max(vl, ve+delta))
	next := s.state
	next.ViewRange = trackmix.Range{Start: start, End: end}
	s.setState(next)
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
