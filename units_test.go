package trackmix_test

import (
	"math"
	"testing"

	"github.com/trackmix/trackmix"
)

func TestFormatPosition(t *testing.T) {
	timing := trackmix.DefaultTiming(48000)
	cases := []struct {
		sample int
		unit   trackmix.Unit
		want   string
	}{
		{0, trackmix.UnitTime, "0.000"},
		{72000, trackmix.UnitTime, "1.500"},
		{48000 * 61, trackmix.UnitTime, "1:01.000"},
		{48000 * 3661, trackmix.UnitTime, "1:01:01.000"},
		{1234, trackmix.UnitSample, "1234"},
		{0, trackmix.UnitMeasure, "1:1.00"},
		{48000 * 5, trackmix.UnitMeasure, "2:2.00"},
		{48000 / 2, trackmix.UnitMeasure, "1:1.08"},
	}
	for _, c := range cases {
		if got := trackmix.FormatPosition(c.sample, c.unit, timing); got != c.want {
			t.Errorf("FormatPosition(%d, %s) = %q, expected %q", c.sample, c.unit, got, c.want)
		}
	}
}

func TestParsePositionRoundTrip(t *testing.T) {
	timing := trackmix.DefaultTiming(48000)
	for _, unit := range []trackmix.Unit{trackmix.UnitTime, trackmix.UnitSample, trackmix.UnitMeasure} {
		for _, sample := range []int{0, 48000, 72000, 48000 * 61, 48000 * 3661} {
			str := trackmix.FormatPosition(sample, unit, timing)
			got, err := trackmix.ParsePosition(str, unit, timing)
			if err != nil {
				t.Fatalf("ParsePosition(%q) error: %v", str, err)
			}
			if math.Abs(got-float64(sample)) > 48 {
				t.Errorf("%s: %d -> %q -> %v", unit, sample, str, got)
			}
		}
	}
	if _, err := trackmix.ParsePosition("a:b", trackmix.UnitTime, timing); err == nil {
		t.Errorf("expected an error for a malformed time")
	}
}

func TestRuler(t *testing.T) {
	timing := trackmix.DefaultTiming(48000)
	r := trackmix.NewRuler(0, 48000*10, trackmix.UnitTime, timing)
	if r.Coarse != 48000 {
		t.Fatalf("coarse grid %v, expected one second", r.Coarse)
	}
	if r.Refined == 0 || r.Refined > r.Coarse {
		t.Fatalf("refined grid %v should be finer than coarse %v", r.Refined, r.Coarse)
	}
	majors := 0
	for _, tick := range r.Ticks {
		if tick.Major {
			majors++
			if tick.Label == "" {
				t.Errorf("major tick at %v has no label", tick.Sample)
			}
		}
	}
	if majors != 10 {
		t.Errorf("%d major ticks, expected 10", majors)
	}
	if r.Ticks[1].Label != "" || r.Ticks[0].Label != "0" {
		t.Errorf("unexpected labels %q, %q", r.Ticks[0].Label, r.Ticks[1].Label)
	}
	s := trackmix.NewRuler(0, 100, trackmix.UnitSample, timing)
	if s.Coarse != 10 || s.Refined != 2 {
		t.Errorf("sample ruler grids %v/%v, expected 10/2", s.Coarse, s.Refined)
	}
}
