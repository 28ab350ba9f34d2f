package waveform

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"gioui.org/f32"
	"gioui.org/layout"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Raster is a Canvas drawing into an RGBA image, used for headless
// rendering such as PNG export.
type Raster struct {
	Image      *image.RGBA
	Background color.NRGBA
	Face       font.Face

	z     *vector.Rasterizer
	mask  *image.Alpha
	clips []image.Rectangle
}

func NewRaster(width, height int) *Raster {
	return &Raster{
		Image:      image.NewRGBA(image.Rect(0, 0, width, height)),
		Background: color.NRGBA{A: 255},
		Face:       basicfont.Face7x13,
		z:          vector.NewRasterizer(width, height),
		mask:       image.NewAlpha(image.Rect(0, 0, width, height)),
	}
}

func (r *Raster) clip() image.Rectangle {
	if len(r.clips) == 0 {
		return r.Image.Bounds()
	}
	return r.clips[len(r.clips)-1]
}

func (r *Raster) Clear() {
	draw.Draw(r.Image, r.Image.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)
}

func (r *Raster) PushClip(rect image.Rectangle) {
	r.clips = append(r.clips, rect.Intersect(r.clip()))
}

func (r *Raster) PopClip() {
	if len(r.clips) > 0 {
		r.clips = r.clips[:len(r.clips)-1]
	}
}

func (r *Raster) FillRect(min, max f32.Point, c color.NRGBA) {
	rect := image.Rect(round(min.X), round(min.Y), round(max.X), round(max.Y))
	if rect.Empty() {
		rect.Max = rect.Min.Add(image.Pt(1, 1))
	}
	draw.Draw(r.Image, rect.Intersect(r.clip()), image.NewUniform(c), image.Point{}, draw.Over)
}

// Stroke rasterizes every segment of the path as a one pixel wide quad.
// The quads share their winding, so overlaps do not cancel out. Vertices are
// kept inside the rasterizer bounds.
func (r *Raster) Stroke(path []f32.Point, c color.NRGBA) {
	clip := r.clip()
	if len(path) == 0 || clip.Empty() {
		return
	}
	b := r.Image.Bounds()
	r.z.Reset(b.Dx(), b.Dy())
	bounds := [4]float32{-1, -1, float32(b.Dx()) + 1, float32(b.Dy()) + 1}
	if len(path) == 1 {
		path = []f32.Point{path[0], path[0]}
	}
	for i := 1; i < len(path); i++ {
		p0, p1, ok := clipSegment(path[i-1], path[i], bounds)
		if !ok {
			continue
		}
		d := p1.Sub(p0)
		l := float32(math.Hypot(float64(d.X), float64(d.Y)))
		var n f32.Point
		if l < 1e-3 {
			d, n = f32.Pt(0.5, 0), f32.Pt(0, 0.5)
		} else {
			d = d.Mul(0.5 / l)
			n = f32.Pt(-d.Y, d.X)
		}
		from, to := p0.Sub(d), p1.Add(d)
		quad := [4]f32.Point{from.Add(n), to.Add(n), to.Sub(n), from.Sub(n)}
		for j, p := range quad {
			p.X = max(0, min(float32(b.Dx()), p.X))
			p.Y = max(0, min(float32(b.Dy()), p.Y))
			if j == 0 {
				r.z.MoveTo(p.X, p.Y)
			} else {
				r.z.LineTo(p.X, p.Y)
			}
		}
		r.z.ClosePath()
	}
	clear(r.mask.Pix)
	r.z.Draw(r.mask, r.mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(r.Image, clip, image.NewUniform(c), image.Point{}, r.mask, clip.Min, draw.Over)
}

func (r *Raster) Text(s string, at f32.Point, anchor layout.Direction, c color.NRGBA) {
	clip := r.clip()
	dst, ok := r.Image.SubImage(clip).(*image.RGBA)
	if !ok || clip.Empty() {
		return
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: r.Face}
	width := d.MeasureString(s)
	m := r.Face.Metrics()
	x, y := fixed.Int26_6(at.X*64), fixed.Int26_6(at.Y*64)
	switch anchor {
	case layout.N, layout.S, layout.Center:
		x -= width / 2
	case layout.NE, layout.E, layout.SE:
		x -= width
	}
	switch anchor {
	case layout.NW, layout.N, layout.NE:
		y += m.Ascent
	case layout.W, layout.Center, layout.E:
		y += (m.Ascent - m.Descent) / 2
	default:
		y -= m.Descent
	}
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(s)
}

func (r *Raster) WritePNG(w io.Writer) error {
	return png.Encode(w, r.Image)
}

func round(v float32) int {
	return int(math.Round(float64(v)))
}

// clipSegment clips the segment p0-p1 to the box {minX, minY, maxX, maxY}
// with the Liang-Barsky algorithm.
func clipSegment(p0, p1 f32.Point, box [4]float32) (f32.Point, f32.Point, bool) {
	t0, t1 := float32(0), float32(1)
	d := p1.Sub(p0)
	edges := [4][2]float32{
		{-d.X, p0.X - box[0]},
		{d.X, box[2] - p0.X},
		{-d.Y, p0.Y - box[1]},
		{d.Y, box[3] - p0.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return p0, p1, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return p0, p1, false
			}
			t0 = max(t0, t)
		} else {
			if t < t0 {
				return p0, p1, false
			}
			t1 = min(t1, t)
		}
	}
	return p0.Add(d.Mul(t0)), p0.Add(d.Mul(t1)), true
}
