package waveform

import (
	"image"

	"gioui.org/f32"
	"github.com/trackmix/trackmix"
)

type (
	// Renderer paints a set of adjacent slices. Per slice it picks the
	// coarsest pyramid level that is still finer than a pixel: raw samples
	// are drawn as a line, pyramid levels as a min/max silhouette.
	Renderer struct {
		Slices []Slice
		Opts   PaintOptions

		path []f32.Point
	}

	PaintOptions struct {
		Width, Height  float32
		VerticalZoom   float32
		VerticalOffset float32
		// Edge decides what is drawn between the first and last sample
		// and the canvas borders, when there is no neighbouring slice to
		// borrow a sample from.
		Edge           Edge
		PaintOver      bool
		PaintSeparator bool
		LabelsWidth    float32
		LabelsHeight   float32
		LabelMode      LabelMode
		LabelUnit      string
		Style          Style
	}

	Edge struct {
		Mode  EdgeMode
		Value float32
	}

	EdgeMode int

	// geometry maps samples and values to pixels for one paint call.
	geometry struct {
		view            trackmix.Range
		width, lane     float64
		yMin, yMax      float64
		pixelsPerSample float64
	}
)

const (
	// EdgeInherit extends the first and last values to the borders.
	EdgeInherit EdgeMode = iota
	EdgeNone
	// EdgeValue draws a line to Edge.Value half a sample outside the data.
	EdgeValue
)

// dots are drawn on raw samples when a sample is wider than this many
// pixels
const dotThreshold = 10

func DefaultPaintOptions(width, height float32) PaintOptions {
	return PaintOptions{
		Width:          width,
		Height:         height,
		VerticalZoom:   1,
		PaintSeparator: true,
		LabelMode:      LabelDecibel,
		Style:          DefaultStyle,
	}
}

func EdgeAt(v float32) Edge { return Edge{Mode: EdgeValue, Value: v} }

func (o PaintOptions) orDefault() PaintOptions {
	if o.VerticalZoom == 0 {
		o.VerticalZoom = 1
	}
	if o.Style == (Style{}) {
		o.Style = DefaultStyle
	}
	return o
}

func newGeometry(o PaintOptions, view trackmix.Range, channels int) geometry {
	return geometry{
		view:            view,
		width:           float64(o.Width),
		lane:            float64(o.Height) / float64(max(channels, 1)),
		yMin:            float64(o.VerticalOffset-1) / float64(o.VerticalZoom),
		yMax:            float64(o.VerticalOffset+1) / float64(o.VerticalZoom),
		pixelsPerSample: float64(o.Width) / float64(view.Len()),
	}
}

func (g *geometry) x(pos int) float32 {
	return float32(float64(pos-g.view.Start) * g.pixelsPerSample)
}

func (g *geometry) y(v float64, channel int) float32 {
	return float32(g.lane * (float64(channel+1) - (v-g.yMin)/(g.yMax-g.yMin)))
}

func (g *geometry) laneRect(channel int) image.Rectangle {
	return image.Rect(0, int(float64(channel)*g.lane), int(g.width+0.5), int(float64(channel+1)*g.lane+0.5))
}

func (r *Renderer) channels() int {
	if len(r.Slices) == 0 {
		return 0
	}
	return r.Slices[0].NumChannels()
}

// Paint draws the waveform of the view range onto c.
func (r *Renderer) Paint(c Canvas, view trackmix.Range) {
	o := r.Opts.orDefault()
	channels := r.channels()
	if channels == 0 || view.Len() <= 0 || o.Width <= 0 || o.Height <= 0 {
		return
	}
	g := newGeometry(o, view, channels)
	if !o.PaintOver {
		c.Clear()
	}
	if o.PaintSeparator {
		for ch := 1; ch < channels; ch++ {
			hline(c, 0, o.Width, float32(float64(ch)*g.lane), o.Style.Separator, 4, 2)
		}
	}
	best := BestLevels(r.Slices, 1/g.pixelsPerSample)
	for i := range r.Slices {
		s := &r.Slices[i]
		if s.EndIndex <= view.Start {
			continue
		}
		if s.StartIndex >= view.End {
			break
		}
		first := 0
		if s.StartIndex < view.Start {
			first = s.index(best[i], float64(view.Start))
		}
		for ch := 0; ch < channels && ch < s.NumChannels(); ch++ {
			c.PushClip(g.laneRect(ch))
			if best[i] < 0 {
				r.paintRaw(c, &g, o, i, ch, first)
			} else {
				r.paintLevel(c, &g, o, i, best[i], ch, first)
			}
			c.PopClip()
		}
	}
}

func (r *Renderer) paintRaw(c Canvas, g *geometry, o PaintOptions, si, ch, first int) {
	s := &r.Slices[si]
	vec := s.Raw[ch]
	if len(vec) == 0 || first >= len(vec) {
		return
	}
	pps := float32(g.pixelsPerSample * float64(s.samplesPerRaw()))
	r.path = r.path[:0]
	i, pos := first, s.position(-1, first)
	if i > 0 {
		r.path = append(r.path, f32.Pt(g.x(pos)-0.5*pps, g.y(float64(vec[i-1]), ch)))
	} else if p, ok := r.leadIn(g, o, si, ch, float64(vec[i]), g.x(pos)-0.5*pps); ok {
		r.path = append(r.path, p)
	}
	last := vec[i]
	for pos < s.EndIndex && pos < g.view.End && i < len(vec) {
		last = vec[i]
		p := f32.Pt(g.x(pos)+0.5*pps, g.y(float64(last), ch))
		r.path = append(r.path, p)
		if pps > dotThreshold {
			c.FillRect(p.Sub(f32.Pt(2, 2)), p.Add(f32.Pt(2, 2)), o.Style.Phosphor)
		}
		i++
		pos = s.position(-1, i)
	}
	if i < len(vec) {
		r.path = append(r.path, f32.Pt(g.x(pos)+0.5*pps, g.y(float64(vec[i]), ch)))
	} else if p, ok := r.leadOut(g, o, si, ch, float64(last), g.x(pos)+0.5*pps); ok {
		r.path = append(r.path, p)
	}
	c.Stroke(r.path, o.Style.Phosphor)
}

func (r *Renderer) paintLevel(c Canvas, g *geometry, o PaintOptions, si, level, ch, first int) {
	s := &r.Slices[si]
	l := &s.Pyramid.Levels[level]
	mins, maxs := l.Min[ch], l.Max[ch]
	if len(mins) == 0 || first >= len(mins) {
		return
	}
	pps := float32(g.pixelsPerSample * float64(l.SamplesPerFrame))
	r.path = r.path[:0]
	i, pos := first, s.position(level, first)
	if i > 0 {
		r.path = append(r.path, f32.Pt(g.x(pos)-pps, g.y(float64(maxs[i-1]), ch)))
	} else if p, ok := r.leadIn(g, o, si, ch, float64(maxs[i]), g.x(pos)-0.5*pps); ok {
		r.path = append(r.path, p)
	}
	last := mins[i]
	for pos < s.EndIndex && pos < g.view.End && i < len(mins) {
		x := g.x(pos)
		r.path = append(r.path, f32.Pt(x, g.y(float64(maxs[i]), ch)))
		if mins[i] != maxs[i] {
			r.path = append(r.path, f32.Pt(x, g.y(float64(mins[i]), ch)))
		}
		last = mins[i]
		i++
		pos = s.position(level, i)
	}
	if i < len(mins) {
		r.path = append(r.path, f32.Pt(g.x(pos), g.y(float64(maxs[i]), ch)))
	} else if p, ok := r.leadOut(g, o, si, ch, float64(last), g.x(pos)+0.5*pps); ok {
		r.path = append(r.path, p)
	}
	c.Stroke(r.path, o.Style.Phosphor)
}

// leadIn returns the point the path starts from when the first visible entry
// is the first one of the slice: the last sample of the previous slice if
// there is one, otherwise the point given by the edge policy.
func (r *Renderer) leadIn(g *geometry, o PaintOptions, si, ch int, first float64, x float32) (f32.Point, bool) {
	if si > 0 {
		prev := &r.Slices[si-1]
		if ch < prev.NumChannels() && len(prev.Raw[ch]) > 0 {
			n := len(prev.Raw[ch])
			spr := float32(g.pixelsPerSample * float64(prev.samplesPerRaw()))
			return f32.Pt(g.x(prev.position(-1, n-1))+0.5*spr, g.y(float64(prev.Raw[ch][n-1]), ch)), true
		}
	}
	switch o.Edge.Mode {
	case EdgeInherit:
		return f32.Pt(0, g.y(first, ch)), true
	case EdgeValue:
		return f32.Pt(x, g.y(float64(o.Edge.Value), ch)), true
	}
	return f32.Point{}, false
}

func (r *Renderer) leadOut(g *geometry, o PaintOptions, si, ch int, last float64, x float32) (f32.Point, bool) {
	if si < len(r.Slices)-1 {
		next := &r.Slices[si+1]
		if ch < next.NumChannels() && len(next.Raw[ch]) > 0 {
			spr := float32(g.pixelsPerSample * float64(next.samplesPerRaw()))
			return f32.Pt(g.x(next.position(-1, 0))+0.5*spr, g.y(float64(next.Raw[ch][0]), ch)), true
		}
	}
	switch o.Edge.Mode {
	case EdgeInherit:
		return f32.Pt(float32(g.width), g.y(last, ch)), true
	case EdgeValue:
		return f32.Pt(x, g.y(float64(o.Edge.Value), ch)), true
	}
	return f32.Point{}, false
}
