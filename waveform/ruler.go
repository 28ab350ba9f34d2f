package waveform

import (
	"fmt"
	"math"
	"strconv"

	"gioui.org/f32"
	"gioui.org/layout"
	"github.com/trackmix/trackmix"
)

type (
	LabelMode int

	// AmplitudeTick is a mark on the amplitude axis of one channel lane.
	AmplitudeTick struct {
		Value float64
		Y     float32
		Label string
		Major bool
	}
)

const (
	LabelDecibel LabelMode = iota
	LabelLinear
)

const (
	coarseMinPixels  = 25
	refinedMinPixels = 3
	minDecibel       = -90
)

// AmplitudeTicks returns the marks of the amplitude ruler for a channel
// lane. In decibel mode the marks are spaced so that labelled marks are at
// least 25 pixels and unlabelled ones at least 3 pixels apart; the linear
// mode uses a 1-2-5 grid.
func AmplitudeTicks(o PaintOptions, channels, channel int) []AmplitudeTick {
	o = o.orDefault()
	g := newGeometry(o, trackmix.Range{End: 1}, channels)
	if g.lane <= 0 {
		return nil
	}
	if o.LabelMode == LabelLinear {
		return linearTicks(&g, o, channel)
	}
	return decibelTicks(&g, channel)
}

func linearTicks(g *geometry, o PaintOptions, channel int) []AmplitudeTick {
	pixels := func(a float64) float64 { return a / (g.yMax - g.yMin) * g.lane }
	initial := math.Pow(10, math.Round(math.Log10(1/float64(o.VerticalZoom))-2))
	coarse, refined := rulerSteps([]float64{1, 2, 5}, 10, initial, pixels)
	var ret []AmplitudeTick
	for a := math.Ceil(g.yMin/refined) * refined; a <= g.yMax; a += refined {
		t := AmplitudeTick{Value: a, Y: g.y(a, channel), Major: closeToMultipleOf(a, coarse)}
		if t.Major {
			if math.Abs(a) < 1e-10 {
				t.Value = 0
			}
			t.Label = strconv.FormatFloat(t.Value, 'g', 7, 64)
		}
		ret = append(ret, t)
	}
	return ret
}

func decibelTicks(g *geometry, channel int) []AmplitudeTick {
	dbMin, dbMax := decibelRange(g)
	var ret []AmplitudeTick
	add := func(a float64, db int, major bool) {
		for _, v := range [2]float64{a, -a} {
			if g.yMin < v && v < g.yMax {
				t := AmplitudeTick{Value: v, Y: g.y(v, channel), Major: major}
				if major {
					t.Label = strconv.Itoa(db)
				}
				ret = append(ret, t)
			}
		}
	}
	lastCoarse, lastRefined := math.Inf(1), math.Inf(1)
	if g.yMin < 0 && 0 < g.yMax {
		y := g.y(0, channel)
		ret = append(ret, AmplitudeTick{Y: y, Label: "-∞", Major: true})
		lastCoarse = float64(y)
	}
	refined := 1
	for db := dbMax; db >= dbMin; {
		a := trackmix.DBToAmp(float64(db))
		y := float64(g.y(a, channel))
		if math.Abs(y-lastRefined) < refinedMinPixels {
			refined++
			db--
			continue
		}
		if math.Abs(y-lastCoarse) < coarseMinPixels {
			lastRefined = y
			add(a, db, false)
			db -= refined
			continue
		}
		lastCoarse = y
		add(a, db, true)
		db -= refined
	}
	return ret
}

// decibelRange returns the decibel levels worth marking: down to the level
// where marks would be closer than 3 pixels to zero, or to the smaller of the
// visible magnitudes if zero is not visible.
func decibelRange(g *geometry) (dbMin, dbMax int) {
	dbMax = int(trackmix.AmpToDB(max(math.Abs(g.yMin), math.Abs(g.yMax))))
	if g.yMin <= 0 && g.yMax >= 0 {
		dbMin = minDecibel
		for dbMin < dbMax && trackmix.DBToAmp(float64(dbMin))/(g.yMax-g.yMin)*g.lane < refinedMinPixels {
			dbMin++
		}
		return dbMin, dbMax
	}
	m := trackmix.AmpToDB(min(math.Abs(g.yMin), math.Abs(g.yMax)))
	return max(minDecibel, int(max(m, minDecibel))), dbMax
}

// rulerSteps walks the grid sizes steps[i]*initial*multiplier^k upwards and
// returns the first that is at least 25 pixels wide and the first that is
// at least 3 pixels wide.
func rulerSteps(steps []float64, multiplier, initial float64, pixels func(float64) float64) (coarse, refined float64) {
	if pixels(1) <= 0 {
		return 1, 1
	}
	for step := 0; coarse == 0 || refined == 0; {
		grid := steps[step] * initial
		if step+1 < len(steps) {
			step++
		} else {
			step = 0
			initial *= multiplier
		}
		if coarse == 0 && pixels(grid) >= coarseMinPixels {
			coarse = grid
		}
		if refined == 0 && pixels(grid) >= refinedMinPixels {
			refined = grid
		}
	}
	return coarse, refined
}

func closeToMultipleOf(x, y float64) bool {
	return 0.5-math.Abs(-math.Abs(math.Mod(x/y, 1))+0.5) < 1e-10
}

// PaintAmplitudeRuler draws the horizontal grid of every channel lane and,
// if o.LabelsWidth is set, a labelled scale in the rightmost LabelsWidth
// pixels.
func PaintAmplitudeRuler(c Canvas, o PaintOptions, channels int) {
	o = o.orDefault()
	if channels <= 0 || o.Width <= 0 || o.Height <= 0 {
		return
	}
	if !o.PaintOver {
		c.Clear()
	}
	x := o.Width - o.LabelsWidth
	ticks := make([][]AmplitudeTick, channels)
	for ch := range ticks {
		ticks[ch] = AmplitudeTicks(o, channels, ch)
		for _, t := range ticks[ch] {
			if t.Major {
				hline(c, 0, x, t.Y, o.Style.Grid, 0, 0)
			}
		}
	}
	if o.LabelsWidth <= 0 {
		return
	}
	unit := o.LabelUnit
	if unit == "" && o.LabelMode == LabelDecibel {
		unit = "dB"
	}
	if unit != "" {
		c.Text(unit, f32.Pt(x+14, 10), layout.W, o.Style.Text)
	}
	lane := o.Height / float32(channels)
	for ch := range ticks {
		if ch > 0 {
			hline(c, x, o.Width, float32(ch)*lane, o.Style.GridRuler, 0, 0)
		}
		for _, t := range ticks[ch] {
			length := float32(5)
			if t.Major {
				length = 10
			}
			hline(c, x, x+length, t.Y, o.Style.GridRuler, 0, 0)
			if t.Label != "" && t.Y > lane*float32(ch)+20 && t.Y < lane*float32(ch+1)-10 {
				c.Text(t.Label, f32.Pt(x+14, t.Y), layout.W, o.Style.Text)
			}
		}
	}
}

// TimeRuler returns the ticks of the time axis over the view range.
func TimeRuler(view trackmix.Range, unit trackmix.Unit, t trackmix.Timing) trackmix.Ruler {
	return trackmix.NewRuler(float64(view.Start), float64(view.End), unit, t)
}

// PaintTimeRuler draws a vertical grid line at every labelled tick of the
// time axis and, if o.LabelsHeight is set, the ticks and their labels in the
// top LabelsHeight pixels.
func PaintTimeRuler(c Canvas, o PaintOptions, view trackmix.Range, unit trackmix.Unit, t trackmix.Timing) {
	o = o.orDefault()
	if view.Len() <= 0 || o.Width <= 0 || o.Height <= 0 {
		return
	}
	if !o.PaintOver {
		c.Clear()
	}
	ruler := TimeRuler(view, unit, t)
	pps := float64(o.Width) / float64(view.Len())
	top := o.LabelsHeight
	for _, tick := range ruler.Ticks {
		if tick.Label != "" {
			vline(c, float32((tick.Sample-float64(view.Start))*pps), top, o.Height, o.Style.Grid)
		}
	}
	if o.LabelsHeight <= 0 {
		return
	}
	c.Text(unitLabel(unit, t), f32.Pt(2, top-14), layout.SW, o.Style.Text)
	for _, tick := range ruler.Ticks {
		x := float32((tick.Sample - float64(view.Start)) * pps)
		y := top - 5
		if tick.Label != "" {
			y = top - 10
		}
		vline(c, x, y, top, o.Style.GridRuler)
		if tick.Label != "" {
			c.Text(tick.Label, f32.Pt(x, y-4), layout.S, o.Style.Text)
		}
	}
}

func unitLabel(unit trackmix.Unit, t trackmix.Timing) string {
	switch unit {
	case trackmix.UnitTime:
		return "hms"
	case trackmix.UnitMeasure:
		return fmt.Sprintf("%g bpm", t.BeatsPerMinute)
	}
	return "samps"
}
