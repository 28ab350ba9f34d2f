// Package waveform builds min/max pyramids over sample data and paints
// waveforms from them at any zoom level.
package waveform

import (
	"context"

	"github.com/viterin/vek/vek32"
	"golang.org/x/sync/errgroup"
)

type (
	// Level is one level of a pyramid. Min and Max hold, per channel, the
	// envelope of SamplesPerFrame audio samples per entry.
	Level struct {
		OffsetFromFrame int
		SamplesPerFrame int
		Min, Max        [][]float32
	}

	// Pyramid is an immutable list of levels with increasing
	// SamplesPerFrame. It is shared read-only by all renderers.
	Pyramid struct {
		Levels []Level
		Widths []int
		Opts   PyramidOptions
	}

	PyramidOptions struct {
		ResizeFactor int
		MinWidth     int
	}
)

const (
	DefaultResizeFactor = 4
	DefaultMinWidth     = 4
)

func (o PyramidOptions) orDefault() PyramidOptions {
	if o.ResizeFactor < 2 {
		o.ResizeFactor = DefaultResizeFactor
	}
	if o.MinWidth < 1 {
		o.MinWidth = DefaultMinWidth
	}
	return o
}

// BuildPyramid downsamples raw repeatedly by the resize factor, until the
// next level would be narrower than the minimum width. samplesPerRawSample is
// the number of audio samples one entry of raw stands for. Channels are built
// in parallel; the build stops early if ctx is cancelled.
func BuildPyramid(ctx context.Context, raw [][]float32, samplesPerRawSample int, opts PyramidOptions) (*Pyramid, error) {
	opts = opts.orDefault()
	samplesPerRawSample = max(samplesPerRawSample, 1)
	ret := &Pyramid{Opts: opts}
	if len(raw) == 0 {
		return ret, nil
	}
	ret.Widths = levelWidths(len(raw[0]), opts)
	mins := make([][][]float32, len(raw))
	maxs := make([][][]float32, len(raw))
	g, ctx := errgroup.WithContext(ctx)
	for ch := range raw {
		g.Go(func() error {
			var err error
			mins[ch], maxs[ch], err = buildChannel(ctx, raw[ch], ret.Widths, opts.ResizeFactor)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	spf := samplesPerRawSample
	for l, w := range ret.Widths {
		spf *= opts.ResizeFactor
		level := Level{SamplesPerFrame: spf, Min: make([][]float32, len(raw)), Max: make([][]float32, len(raw))}
		for ch := range raw {
			level.Min[ch] = mins[ch][l][:w]
			level.Max[ch] = maxs[ch][l][:w]
		}
		ret.Levels = append(ret.Levels, level)
	}
	return ret, nil
}

func levelWidths(length int, opts PyramidOptions) []int {
	var ret []int
	for w := ceilDiv(length, opts.ResizeFactor); w >= opts.MinWidth; w = ceilDiv(w, opts.ResizeFactor) {
		ret = append(ret, w)
		if w == 1 {
			break
		}
	}
	return ret
}

func buildChannel(ctx context.Context, raw []float32, widths []int, factor int) (mins, maxs [][]float32, err error) {
	prevMin, prevMax := raw, raw
	for _, w := range widths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		lmin, lmax := make([]float32, w), make([]float32, w)
		for i := range w {
			start, end := i*factor, min((i+1)*factor, len(prevMin))
			lmin[i] = vek32.Min(prevMin[start:end])
			lmax[i] = vek32.Max(prevMax[start:end])
		}
		mins, maxs = append(mins, lmin), append(maxs, lmax)
		prevMin, prevMax = lmin, lmax
	}
	return mins, maxs, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
