package trackmix

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

type (
	// Unit is the unit in which positions are displayed and entered.
	Unit string

	// Timing holds the musical parameters used by the measure unit.
	Timing struct {
		SampleRate      int
		BeatsPerMinute  float64
		BeatsPerMeasure int
		Division        int
	}

	// Tick is a ruler mark at a sample position. Only major ticks carry a
	// label.
	Tick struct {
		Sample float64
		Label  string
		Major  bool
	}

	// Ruler is a set of ticks covering a range. Coarse and Refined are the
	// distances between major and minor ticks, in samples.
	Ruler struct {
		Coarse, Refined float64
		Ticks           []Tick
	}
)

const (
	UnitTime    Unit = "time"
	UnitSample  Unit = "sample"
	UnitMeasure Unit = "measure"
)

var ErrUnitFormat = errors.New("invalid position format")

var (
	measureRegexp = regexp.MustCompile(`^(?:(\d+):)?(\d+)\.?(\d+)?$`)
	timeRegexp    = regexp.MustCompile(`^(?:(\d+):)??(?:(\d+):)?(\d+)\.?(\d+)?$`)
)

// DefaultTiming returns 60 BPM in 4/4 with sixteen divisions per beat.
func DefaultTiming(sampleRate int) Timing {
	return Timing{SampleRate: sampleRate, BeatsPerMinute: 60, BeatsPerMeasure: 4, Division: 16}
}

func (u Unit) Valid() bool {
	return u == UnitTime || u == UnitSample || u == UnitMeasure
}

// orDefault replaces non-positive fields with the defaults.
func (t Timing) orDefault() Timing {
	d := DefaultTiming(48000)
	if t.SampleRate <= 0 {
		t.SampleRate = d.SampleRate
	}
	if t.BeatsPerMinute <= 0 {
		t.BeatsPerMinute = d.BeatsPerMinute
	}
	if t.BeatsPerMeasure <= 0 {
		t.BeatsPerMeasure = d.BeatsPerMeasure
	}
	if t.Division <= 0 {
		t.Division = d.Division
	}
	return t
}

func (t Timing) samplesPerBeat() float64 {
	return float64(t.SampleRate) * 60 / t.BeatsPerMinute
}

// FormatPosition formats a sample position: as a plain number for
// UnitSample, as "measure:beat.div" (1-based measure and beat) for
// UnitMeasure and as "s.mmm", "m:ss.mmm" or "h:mm:ss.mmm" for UnitTime.
func FormatPosition(sample int, unit Unit, t Timing) string {
	t = t.orDefault()
	switch unit {
	case UnitSample:
		return strconv.Itoa(sample)
	case UnitMeasure:
		divisions := float64(sample) / t.samplesPerBeat() * float64(t.Division)
		div := int(math.Mod(divisions, float64(t.Division)))
		beats := int(divisions/float64(t.Division))%t.BeatsPerMeasure + 1
		measure := int(divisions/float64(t.Division)/float64(t.BeatsPerMeasure)) + 1
		return fmt.Sprintf("%d:%d.%02d", measure, beats, div)
	}
	totalMs := int(math.Round(float64(sample) * 1000 / float64(t.SampleRate)))
	ms := totalMs % 1000
	s := totalMs / 1000 % 60
	m := totalMs / 60000 % 60
	h := totalMs / 3600000
	switch {
	case h > 0:
		return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms)
	case m > 0:
		return fmt.Sprintf("%d:%02d.%03d", m, s, ms)
	}
	return fmt.Sprintf("%d.%03d", s, ms)
}

// ParsePosition is the inverse of FormatPosition. Overflowing fields carry
// into the larger ones, so "0:90" in time unit is 90 seconds.
func ParsePosition(str string, unit Unit, t Timing) (float64, error) {
	t = t.orDefault()
	str = strings.TrimSpace(str)
	switch unit {
	case UnitSample:
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnitFormat, str)
		}
		return v, nil
	case UnitMeasure:
		m := measureRegexp.FindStringSubmatch(str)
		if m == nil {
			return 0, fmt.Errorf("%w: %q is not measure:beat.division", ErrUnitFormat, str)
		}
		measures, beats, divisions := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if m[1] != "" {
			measures = max(measures-1, 0)
			beats = max(beats-1, 0)
		}
		beats += divisions / t.Division
		divisions %= t.Division
		measures += beats / t.BeatsPerMeasure
		beats %= t.BeatsPerMeasure
		total := float64(measures*t.BeatsPerMeasure+beats) + float64(divisions)/float64(t.Division)
		return total * t.samplesPerBeat(), nil
	}
	m := timeRegexp.FindStringSubmatch(str)
	if m == nil {
		return 0, fmt.Errorf("%w: %q is not [[h:]m:]s[.ms]", ErrUnitFormat, str)
	}
	h, mins, s := atoi(m[1]), atoi(m[2]), atoi(m[3])
	ms := 0.0
	if m[4] != "" {
		ms, _ = strconv.ParseFloat("0."+m[4], 64)
	}
	seconds := float64(h*3600+mins*60+s) + ms
	return seconds * float64(t.SampleRate), nil
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

// NewRuler returns ticks covering [start, end). The coarse spacing is the
// first grid step giving at most 10 intervals over the range, the refined
// spacing the first giving at most 50. Grid steps follow the unit: 1-2-5
// sample counts, divisions, beats and measures, or milliseconds, seconds,
// minutes and hours.
func NewRuler(start, end float64, unit Unit, t Timing) Ruler {
	t = t.orDefault()
	length := end - start
	var r Ruler
	if length <= 0 {
		return r
	}
	for _, grid := range gridSteps(unit, t) {
		if r.Coarse == 0 && length/grid <= 10 {
			r.Coarse = grid
		}
		if r.Refined == 0 && length/grid <= 50 {
			r.Refined = grid
		}
		if r.Coarse != 0 && r.Refined != 0 {
			break
		}
	}
	if r.Coarse == 0 || r.Refined == 0 {
		return r
	}
	m := math.Ceil(start / r.Refined)
	for ; m*r.Refined < end; m++ {
		pos := m * r.Refined
		rem := math.Mod(pos, r.Coarse)
		major := pos == 0 || rem < 0.001 || r.Coarse-rem < 0.001
		tick := Tick{Sample: pos, Major: major}
		if major {
			tick.Label = rulerLabel(pos, unit, t)
		}
		r.Ticks = append(r.Ticks, tick)
	}
	return r
}

func rulerLabel(pos float64, unit Unit, t Timing) string {
	if unit == UnitSample {
		return strconv.FormatFloat(pos, 'f', -1, 64)
	}
	s := FormatPosition(int(math.Round(pos)), unit, t)
	if i := strings.LastIndexByte(s, '.'); i >= 0 && strings.Trim(s[i+1:], "0") == "" {
		s = s[:i]
	}
	return s
}

// gridSteps returns increasing candidate grid sizes in samples. The sequence
// is long enough to cover any practical buffer length.
func gridSteps(unit Unit, t Timing) []float64 {
	var ret []float64
	switch unit {
	case UnitSample:
		for mag := 1.0; mag < 1e13; mag *= 10 {
			ret = append(ret, mag, 2*mag, 5*mag)
		}
	case UnitMeasure:
		spb := t.samplesPerBeat()
		for _, f := range factors(t.Division) {
			ret = append(ret, spb*float64(f)/float64(t.Division))
		}
		for _, f := range factors(t.BeatsPerMeasure) {
			ret = append(ret, spb*float64(f))
		}
		for mag := 1.0; mag < 1e9; mag *= 10 {
			for _, f := range []float64{1, 2, 5} {
				ret = append(ret, spb*f*mag*float64(t.BeatsPerMeasure))
			}
		}
	default:
		sr := float64(t.SampleRate)
		for _, f := range []float64{1, 2, 5, 10, 20, 50, 100, 200, 500} {
			ret = append(ret, sr*f/1000)
		}
		for _, f := range factors(60) {
			ret = append(ret, sr*float64(f))
		}
		for _, f := range factors(60) {
			ret = append(ret, sr*float64(f)*60)
		}
		for mag := 1.0; mag < 1e9; mag *= 10 {
			for _, f := range []float64{1, 2, 5} {
				ret = append(ret, sr*f*mag*3600)
			}
		}
	}
	return ret
}

// factors returns the divisors of n smaller than n, in increasing order.
func factors(n int) []int {
	ret := []int{1}
	for i := 2; i < n; i++ {
		if n%i == 0 {
			ret = append(ret, i)
		}
	}
	return ret
}
