package engine

import (
	"context"
	"fmt"

	"github.com/trackmix/trackmix"
	"github.com/viterin/vek/vek32"
)

const renderChunk = 1 << 16

// Render mixes the whole buffer to stereo offline, with the same topology as
// the real-time engine but with all parameters at their targets from the
// first sample. ctx is checked between chunks.
func Render(ctx context.Context, buffer trackmix.Buffer, s MixSettings) (trackmix.Buffer, error) {
	length := buffer.Length()
	out := trackmix.NewBuffer(2, length, buffer.SampleRate)
	gains := make([]float32, buffer.NumChannels())
	pansL := make([]float32, buffer.NumChannels())
	pansR := make([]float32, buffer.NumChannels())
	for i := range gains {
		if i < len(s.Enabled) && !s.Enabled[i] {
			continue
		}
		gains[i] = 1
		if i < len(s.Gains) {
			gains[i] = float32(trackmix.DBToAmp(s.Gains[i]))
		}
		pan := 0.0
		if i < len(s.Pans) {
			pan = s.Pans[i]
		}
		pansL[i], pansR[i] = panGains(max(-1, min(1, pan)))
	}
	master := float32(trackmix.DBToAmp(s.MasterGain))
	tmp := make([]float32, min(renderChunk, length))
	for start := 0; start < length; start += renderChunk {
		if err := ctx.Err(); err != nil {
			return trackmix.Buffer{}, fmt.Errorf("render interrupted: %w", err)
		}
		end := min(start+renderChunk, length)
		left, right := out.Channels[0][start:end], out.Channels[1][start:end]
		t := tmp[:end-start]
		for i, ch := range buffer.Channels {
			if gains[i] == 0 {
				continue
			}
			x := ch[start:end]
			vek32.MulNumber_Into(t, x, gains[i]*pansL[i])
			vek32.Add_Inplace(left, t)
			vek32.MulNumber_Into(t, x, gains[i]*pansR[i])
			vek32.Add_Inplace(right, t)
		}
		vek32.MulNumber_Inplace(left, master)
		vek32.MulNumber_Inplace(right, master)
	}
	return out, nil
}

// NormalizeGain returns the gain in dB that brings the absolute peak of buf
// to full scale, or 0 for a silent buffer.
func NormalizeGain(buf trackmix.Buffer) float64 {
	peak := trackmix.AbsMax(buf.Channels)
	if peak == 0 {
		return 0
	}
	return trackmix.AmpToDB(1 / float64(peak))
}

// Normalize renders the mix with the master gain at 0 dB and returns the
// master gain that brings the peak of the mix to full scale.
func Normalize(ctx context.Context, buffer trackmix.Buffer, s MixSettings) (float64, error) {
	s.MasterGain = 0
	mix, err := Render(ctx, buffer, s)
	if err != nil {
		return 0, err
	}
	return NormalizeGain(mix), nil
}
