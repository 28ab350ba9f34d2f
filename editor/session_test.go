package editor_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/editor"
	"github.com/trackmix/trackmix/waveform"
)

func newSession(channels, length int) *editor.Session {
	return editor.NewSession(trackmix.NewBuffer(channels, length, 48000), editor.SessionOptions{})
}

func TestSetPlayheadClamps(t *testing.T) {
	s := newSession(1, 1000)
	cases := []struct {
		pos  float64
		want int
	}{
		{-5, 0},
		{10.4, 10},
		{10.6, 11},
		{999.5, 1000},
		{1000, 1000},
		{2000, 1000},
	}
	for _, c := range cases {
		s.SetPlayhead(c.pos)
		if got := s.State().Playhead; got != c.want {
			t.Fatalf("SetPlayhead(%v) gave %d, expected %d", c.pos, got, c.want)
		}
	}
}

func TestSetSelRange(t *testing.T) {
	s := newSession(1, 1000)
	cases := []struct {
		a, b float64
		want *trackmix.Range
	}{
		{10, 20, &trackmix.Range{Start: 10, End: 20}},
		{20, 10, &trackmix.Range{Start: 10, End: 20}},
		{5, 5, nil},
		{5.2, 4.9, nil},
		{-10, 2000, &trackmix.Range{Start: 0, End: 1000}},
		{1000, 1000, &trackmix.Range{Start: 999, End: 1000}},
	}
	for _, c := range cases {
		s.SetSelRange(&[2]float64{c.a, c.b})
		got := s.State().SelRange
		if (got == nil) != (c.want == nil) || (got != nil && *got != *c.want) {
			t.Fatalf("SetSelRange([%v, %v]) gave %v, expected %v", c.a, c.b, got, c.want)
		}
		if got != nil && s.State().Playhead != got.Start {
			t.Fatalf("selection %v did not move the play head, it is at %d", got, s.State().Playhead)
		}
	}
	s.SetSelRange(&[2]float64{100, 200})
	s.SetSelRange(nil)
	if s.State().SelRange != nil {
		t.Fatalf("SetSelRange(nil) did not clear the selection")
	}
}

func TestSelectAll(t *testing.T) {
	s := newSession(2, 500)
	var committed *trackmix.Range
	s.Events.SelRangeToPlay.Subscribe(func(r *trackmix.Range) { committed = r })
	s.SetSelRangeToAll()
	want := trackmix.Range{Start: 0, End: 500}
	if sel := s.State().SelRange; sel == nil || *sel != want {
		t.Fatalf("selection is %v, expected %v", sel, want)
	}
	if committed == nil || *committed != want {
		t.Fatalf("committed selection is %v, expected %v", committed, want)
	}
}

func TestSetViewRange(t *testing.T) {
	cases := []struct {
		length int
		a, b   float64
		want   trackmix.Range
	}{
		{1000, 100, 200, trackmix.Range{Start: 100, End: 200}},
		{1000, 200, 100, trackmix.Range{Start: 100, End: 200}},
		{1000, 500, 501, trackmix.Range{Start: 500, End: 505}},
		{1000, 999, 1000, trackmix.Range{Start: 995, End: 1000}},
		{1000, -100, 5000, trackmix.Range{Start: 0, End: 1000}},
		{3, 1, 1, trackmix.Range{Start: 0, End: 3}},
	}
	for _, c := range cases {
		s := newSession(1, c.length)
		s.SetViewRange(c.a, c.b)
		if got := s.State().ViewRange; got != c.want {
			t.Fatalf("SetViewRange(%v, %v) on %d samples gave %v, expected %v", c.a, c.b, c.length, got, c.want)
		}
	}
}

func TestZoomH(t *testing.T) {
	s := newSession(1, 48000)
	s.ZoomH(24000, 1)
	if got, want := s.State().ViewRange, (trackmix.Range{Start: 8000, End: 40000}); got != want {
		t.Fatalf("zoom in gave %v, expected %v", got, want)
	}
	s.ZoomH(2000, 1)
	if got, want := s.State().ViewRange, (trackmix.Range{Start: 0, End: 32000}); got != want {
		t.Fatalf("zoom outside the view gave %v, expected %v", got, want)
	}
	s.SetViewRange(8000, 40000)
	s.ZoomH(24000, -1)
	if got, want := s.State().ViewRange, (trackmix.Range{Start: 0, End: 48000}); got != want {
		t.Fatalf("zoom out gave %v, expected %v", got, want)
	}
	s.SetViewRange(100, 105)
	s.ZoomH(102, 1)
	if got, want := s.State().ViewRange, (trackmix.Range{Start: 100, End: 105}); got != want {
		t.Fatalf("zooming into the minimum width gave %v, expected %v", got, want)
	}
}

func TestScrollH(t *testing.T) {
	s := newSession(1, 1000)
	s.SetViewRange(100, 200)
	steps := []struct {
		speed float64
		want  trackmix.Range
	}{
		{0.5, trackmix.Range{Start: 150, End: 250}},
		{0.001, trackmix.Range{Start: 151, End: 251}},
		{-0.001, trackmix.Range{Start: 150, End: 250}},
		{0, trackmix.Range{Start: 150, End: 250}},
		{100, trackmix.Range{Start: 900, End: 1000}},
		{-100, trackmix.Range{Start: 0, End: 100}},
	}
	for _, step := range steps {
		s.ScrollH(step.speed)
		if got := s.State().ViewRange; got != step.want {
			t.Fatalf("ScrollH(%v) gave %v, expected %v", step.speed, got, step.want)
		}
	}
}

func TestGainPropagation(t *testing.T) {
	s := newSession(4, 100)
	if err := s.SetGroupingString("0_1-2_3"); err != nil {
		t.Fatal(err)
	}
	s.SetGain(1, -6.04)
	if got, want := s.State().TrackGains, []float64{0, -6, -6, 0}; !slices.Equal(got, want) {
		t.Fatalf("gains %v, expected %v", got, want)
	}
	s.SetGain(2, -3)
	if got, want := s.State().TrackGains, []float64{0, -6, -3, 0}; !slices.Equal(got, want) {
		t.Fatalf("gains %v, expected %v", got, want)
	}
	s.SetLinked(3, true)
	if got, want := s.State().TrackGains, []float64{0, -6, -3, -3}; !slices.Equal(got, want) {
		t.Fatalf("linking did not copy the gain: %v, expected %v", got, want)
	}
	s.SetGain(1, 2)
	if got, want := s.State().TrackGains, []float64{0, 2, 2, 2}; !slices.Equal(got, want) {
		t.Fatalf("gains %v, expected %v", got, want)
	}
	s.SetLinked(0, true)
	if s.State().Grouping[0].Linked {
		t.Fatalf("the first position was linked")
	}
	if got := s.State().Grouping.String(); got != "0_1-2-3" {
		t.Fatalf("grouping %q, expected 0_1-2-3", got)
	}
}

func TestRelinkCopiesGain(t *testing.T) {
	s := newSession(4, 100)
	if err := s.SetGroupingString("0_1-2_3"); err != nil {
		t.Fatal(err)
	}
	s.SetGain(2, -3)
	if got, want := s.State().TrackGains, []float64{0, 0, -3, 0}; !slices.Equal(got, want) {
		t.Fatalf("gains %v, expected %v", got, want)
	}
	s.SetLinked(2, true)
	if got, want := s.State().TrackGains, []float64{0, 0, 0, 0}; !slices.Equal(got, want) {
		t.Fatalf("linking an already linked track left gains %v, expected %v", got, want)
	}
}

func TestSetGroupingString(t *testing.T) {
	s := newSession(3, 100)
	if err := s.SetGroupingString("0_0"); !errors.Is(err, editor.ErrInvalidGrouping) {
		t.Fatalf("expected ErrInvalidGrouping, got %v", err)
	}
	if err := s.SetGroupingString("4"); !errors.Is(err, editor.ErrInvalidGrouping) {
		t.Fatalf("a grouping with too many tracks was accepted: %v", err)
	}
	if err := s.SetGroupingString("2-1"); err != nil {
		t.Fatal(err)
	}
	if got := s.State().Grouping.String(); got != "2-1_0" {
		t.Fatalf("grouping %q, expected 2-1_0", got)
	}
	s.MoveTrack(2, 0)
	if got := s.State().Grouping.String(); got != "0_2-1" {
		t.Fatalf("grouping %q after move, expected 0_2-1", got)
	}
}

func TestEnabledChannels(t *testing.T) {
	s := newSession(3, 100)
	s.SetMute(1, true)
	if got, want := s.EnabledChannels(), []bool{true, false, true}; !slices.Equal(got, want) {
		t.Fatalf("enabled %v, expected %v", got, want)
	}
	s.SetSolo(2, true)
	if got, want := s.EnabledChannels(), []bool{false, false, true}; !slices.Equal(got, want) {
		t.Fatalf("enabled %v, expected %v", got, want)
	}
}

func TestEventOrder(t *testing.T) {
	s := newSession(2, 1000)
	var got []string
	record := func(name string) { got = append(got, name) }
	s.Events.Playhead.Subscribe(func(int) { record("playhead") })
	s.Events.SelRange.Subscribe(func(*trackmix.Range) { record("selRange") })
	s.Events.TrackGains.Subscribe(func([]float64) { record("trackGains") })
	s.Events.State.Subscribe(func(editor.State) { record("state") })
	s.Events.PlayerStateUpdated.Subscribe(func(u editor.PlayerStateUpdate) {
		if !u.HasTrackGains || u.HasLoop {
			t.Errorf("player update %+v carries the wrong fields", u)
		}
		record("playerStateUpdated")
	})
	s.SetSelRange(&[2]float64{10, 20})
	s.SetGain(0, -1)
	want := []string{"playhead", "selRange", "state", "trackGains", "state", "playerStateUpdated"}
	if !slices.Equal(got, want) {
		t.Fatalf("events %v, expected %v", got, want)
	}
	got = nil
	s.SetPlayhead(10)
	if !slices.Equal(got, []string{"state"}) {
		t.Fatalf("setting an unchanged play head emitted %v, expected only state", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	s := newSession(1, 1000)
	calls := 0
	unsubscribe := s.Events.Playhead.Subscribe(func(int) { calls++ })
	s.SetPlayhead(1)
	unsubscribe()
	s.SetPlayhead(2)
	if calls != 1 {
		t.Fatalf("subscriber called %d times, expected 1", calls)
	}
	if n := s.Events.Playhead.Len(); n != 0 {
		t.Fatalf("%d subscribers left", n)
	}
}

func TestSetConfiguration(t *testing.T) {
	s := newSession(1, 48000)
	s.SetPlayhead(48000)
	s.SetConfiguration(editor.Configuration{Unit: trackmix.UnitSample, BeatsPerMinute: 120, BeatsPerMeasure: 4, Division: 4})
	if got := s.State().PlayheadString(); got != "48000" {
		t.Fatalf("play head string %q, expected 48000", got)
	}
	s.SetConfiguration(editor.Configuration{Unit: "furlongs", BeatsPerMinute: 120, BeatsPerMeasure: 4, Division: 4})
	if got := s.State().Configuration.Unit; got != trackmix.UnitSample {
		t.Fatalf("invalid unit was applied: %q", got)
	}
}

func TestRequestWaveformInline(t *testing.T) {
	s := newSession(2, 4096)
	var published bool
	s.Events.Waveform.Subscribe(func(*waveform.Slice) { published = true })
	if err := s.RequestWaveform(); err != nil {
		t.Fatal(err)
	}
	w := s.Waveform()
	if w == nil || !published {
		t.Fatalf("waveform was not built")
	}
	if w.NumChannels() != 2 || len(w.Pyramid.Levels) == 0 {
		t.Fatalf("waveform has %d channels and %d levels", w.NumChannels(), len(w.Pyramid.Levels))
	}
}
