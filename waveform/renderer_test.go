package waveform_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"slices"
	"testing"

	"gioui.org/f32"
	"gioui.org/layout"
	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/waveform"
)

// recorder is a Canvas keeping the strokes and rectangles it is given.
type recorder struct {
	strokes [][]f32.Point
	rects   [][2]f32.Point
}

func (r *recorder) Clear()                   {}
func (r *recorder) PushClip(image.Rectangle) {}
func (r *recorder) PopClip()                 {}

func (r *recorder) Stroke(path []f32.Point, c color.NRGBA) {
	r.strokes = append(r.strokes, slices.Clone(path))
}

func (r *recorder) FillRect(min, max f32.Point, c color.NRGBA) {
	r.rects = append(r.rects, [2]f32.Point{min, max})
}

func (r *recorder) Text(s string, at f32.Point, anchor layout.Direction, c color.NRGBA) {}

func samePath(got, want []f32.Point) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if math.Abs(float64(got[i].X-want[i].X)) > 1e-3 || math.Abs(float64(got[i].Y-want[i].Y)) > 1e-3 {
			return false
		}
	}
	return true
}

// rawSlice covers [start, start+len(values)) with one raw sample per audio
// sample and no pyramid, so it is always painted as a line.
func rawSlice(start int, values ...float32) waveform.Slice {
	return waveform.Slice{
		StartIndex:          start,
		EndIndex:            start + len(values),
		SamplesPerRawSample: 1,
		Raw:                 [][]float32{values},
	}
}

func ramp(length int) [][]float32 {
	ch := make([]float32, length)
	for i := range ch {
		ch[i] = float32(i)/float32(length)*2 - 1
	}
	return [][]float32{ch}
}

func newRenderer(t *testing.T, raw [][]float32, width, height float32) *waveform.Renderer {
	t.Helper()
	p, err := waveform.BuildPyramid(context.Background(), raw, 1, waveform.PyramidOptions{})
	if err != nil {
		t.Fatalf("BuildPyramid failed: %v", err)
	}
	return &waveform.Renderer{
		Slices: []waveform.Slice{waveform.NewSlice(raw, p)},
		Opts:   waveform.DefaultPaintOptions(width, height),
	}
}

func TestCursorInfoRaw(t *testing.T) {
	raw := ramp(1024)
	r := newRenderer(t, raw, 1024, 100)
	info, ok := r.CursorInfo(10.5, 50, trackmix.Range{Start: 0, End: 1024})
	if !ok {
		t.Fatalf("CursorInfo found no data")
	}
	if info.Envelope {
		t.Fatalf("expected raw data at one sample per pixel")
	}
	if info.FromIndex != 10 || info.ToIndex != 11 || info.Value != raw[0][10] || info.X != 10.5 {
		t.Fatalf("got %+v, expected sample 10", info)
	}
}

func TestCursorInfoEnvelope(t *testing.T) {
	raw := ramp(1024)
	r := newRenderer(t, raw, 64, 100)
	view := trackmix.Range{Start: 0, End: 1024}
	info, ok := r.CursorInfo(10, 0, view)
	if !ok || !info.Envelope {
		t.Fatalf("expected envelope data at 16 samples per pixel, got %+v", info)
	}
	if info.FromIndex != 160 || info.ToIndex != 164 {
		t.Fatalf("got range [%d, %d), expected [160, 164)", info.FromIndex, info.ToIndex)
	}
	if info.Min != raw[0][160] || info.Max != raw[0][163] {
		t.Fatalf("got envelope [%v, %v], expected [%v, %v]", info.Min, info.Max, raw[0][160], raw[0][163])
	}
	top := info.Y
	info, _ = r.CursorInfo(10, 100, view)
	if !(top < info.Y) {
		t.Fatalf("pointer at the top snapped to y %v, pointer at the bottom to %v; expected max above min", top, info.Y)
	}
}

func TestCursorInfoSlices(t *testing.T) {
	raw := ramp(1024)
	first := [][]float32{raw[0][:512]}
	second := [][]float32{raw[0][512:]}
	r := &waveform.Renderer{
		Slices: []waveform.Slice{
			{StartIndex: 0, EndIndex: 512, SamplesPerRawSample: 1, Raw: first},
			{StartIndex: 512, EndIndex: 1024, SamplesPerRawSample: 1, Raw: second},
		},
		Opts: waveform.DefaultPaintOptions(1024, 100),
	}
	info, ok := r.CursorInfo(600, 50, trackmix.Range{Start: 0, End: 1024})
	if !ok || info.FromIndex != 600 || info.Value != raw[0][600] {
		t.Fatalf("got %+v, expected sample 600 from the second slice", info)
	}
	if _, ok := r.CursorInfo(10, 50, trackmix.Range{}); ok {
		t.Fatalf("CursorInfo on an empty view found data")
	}
}

func TestPaint(t *testing.T) {
	for _, width := range []int{2000, 200, 20} {
		raw := make([][]float32, 2)
		for c := range raw {
			raw[c] = make([]float32, 1000)
			for i := range raw[c] {
				raw[c][i] = float32(0.8 * math.Sin(float64(i)*0.05))
			}
		}
		r := newRenderer(t, raw, float32(width), 100)
		canvas := waveform.NewRaster(width, 100)
		r.Paint(canvas, trackmix.Range{Start: 0, End: 1000})
		for lane := range 2 {
			count := 0
			for y := lane * 50; y < (lane+1)*50; y++ {
				for x := range width {
					if c := canvas.Image.RGBAAt(x, y); c.G > 40 && int(c.G) > int(c.R)+30 {
						count++
					}
				}
			}
			if count == 0 {
				t.Errorf("width %d: nothing painted in lane %d", width, lane)
			}
		}
		var b bytes.Buffer
		if err := canvas.WritePNG(&b); err != nil {
			t.Fatalf("WritePNG failed: %v", err)
		}
		if _, err := png.Decode(&b); err != nil {
			t.Fatalf("could not decode the written png: %v", err)
		}
	}
}

func TestAmplitudeTicks(t *testing.T) {
	o := waveform.DefaultPaintOptions(100, 400)
	o.LabelMode = waveform.LabelLinear
	ticks := waveform.AmplitudeTicks(o, 1, 0)
	if len(ticks) == 0 {
		t.Fatalf("no linear ticks")
	}
	zero := false
	for _, tick := range ticks {
		if tick.Major && tick.Label == "0" {
			zero = true
		}
		if tick.Value < -1-1e-9 || tick.Value > 1+1e-9 {
			t.Errorf("tick %v outside the visible range", tick.Value)
		}
	}
	if !zero {
		t.Errorf("no labelled tick at zero")
	}
	o.LabelMode = waveform.LabelDecibel
	ticks = waveform.AmplitudeTicks(o, 1, 0)
	if len(ticks) == 0 || ticks[0].Label != "-∞" {
		t.Fatalf("decibel ticks should start with -∞ at zero, got %+v", ticks)
	}
}

func TestPaintTimeRuler(t *testing.T) {
	canvas := waveform.NewRaster(400, 60)
	o := waveform.DefaultPaintOptions(400, 60)
	o.LabelsHeight = 30
	view := trackmix.Range{Start: 0, End: 48000 * 10}
	waveform.PaintTimeRuler(canvas, o, view, trackmix.UnitTime, trackmix.DefaultTiming(48000))
	ruler := waveform.TimeRuler(view, trackmix.UnitTime, trackmix.DefaultTiming(48000))
	if len(ruler.Ticks) == 0 || ruler.Ticks[0].Label != "0" {
		t.Fatalf("expected a labelled tick at zero, got %+v", ruler.Ticks)
	}
}

func TestPaintEdges(t *testing.T) {
	// 40 pixels for 4 samples: sample centres at x = 5, 15, 25, 35 and a
	// value v at y = 50 - 50v
	body := []f32.Point{{X: 5, Y: 50}, {X: 15, Y: 25}, {X: 25, Y: 75}, {X: 35, Y: 37.5}}
	cases := []struct {
		name string
		edge waveform.Edge
		want []f32.Point
	}{
		{"none", waveform.Edge{Mode: waveform.EdgeNone}, body},
		{"inherit", waveform.Edge{Mode: waveform.EdgeInherit},
			append(append([]f32.Point{{X: 0, Y: 50}}, body...), f32.Point{X: 40, Y: 37.5})},
		{"value", waveform.EdgeAt(1),
			append(append([]f32.Point{{X: -5, Y: 0}}, body...), f32.Point{X: 45, Y: 0})},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := &waveform.Renderer{
				Slices: []waveform.Slice{rawSlice(0, 0, 0.5, -0.5, 0.25)},
				Opts:   waveform.DefaultPaintOptions(40, 100),
			}
			r.Opts.Edge = c.edge
			var rec recorder
			r.Paint(&rec, trackmix.Range{Start: 0, End: 4})
			if len(rec.strokes) != 1 {
				t.Fatalf("%d strokes, expected 1", len(rec.strokes))
			}
			if !samePath(rec.strokes[0], c.want) {
				t.Fatalf("path %v, expected %v", rec.strokes[0], c.want)
			}
		})
	}
}

func TestPaintBorrowsFromNeighbours(t *testing.T) {
	r := &waveform.Renderer{
		Slices: []waveform.Slice{rawSlice(0, 0, 0.5), rawSlice(2, -0.5, 0.25)},
		Opts:   waveform.DefaultPaintOptions(40, 100),
	}
	r.Opts.Edge = waveform.Edge{Mode: waveform.EdgeNone}
	var rec recorder
	r.Paint(&rec, trackmix.Range{Start: 0, End: 4})
	want := [][]f32.Point{
		{{X: 5, Y: 50}, {X: 15, Y: 25}, {X: 25, Y: 75}},
		{{X: 15, Y: 25}, {X: 25, Y: 75}, {X: 35, Y: 37.5}},
	}
	if len(rec.strokes) != len(want) {
		t.Fatalf("%d strokes, expected %d", len(rec.strokes), len(want))
	}
	for i := range want {
		if !samePath(rec.strokes[i], want[i]) {
			t.Errorf("slice %d: path %v, expected %v", i, rec.strokes[i], want[i])
		}
	}
}

func TestPaintDots(t *testing.T) {
	for _, c := range []struct {
		width float32
		dots  int
	}{{40, 0}, {80, 4}} {
		r := &waveform.Renderer{
			Slices: []waveform.Slice{rawSlice(0, 0, 0.5, -0.5, 0.25)},
			Opts:   waveform.DefaultPaintOptions(c.width, 100),
		}
		var rec recorder
		r.Paint(&rec, trackmix.Range{Start: 0, End: 4})
		if len(rec.rects) != c.dots {
			t.Fatalf("width %v: %d dots, expected %d", c.width, len(rec.rects), c.dots)
		}
		for _, d := range rec.rects {
			if size := d[1].Sub(d[0]); size != (f32.Point{X: 4, Y: 4}) {
				t.Fatalf("dot of size %v, expected 4x4", size)
			}
		}
	}
}
