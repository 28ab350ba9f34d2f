package trackmix

import (
	"io"
	"time"
)

type (
	// Buffer is a planar multichannel audio buffer. All channels have the
	// same length.
	Buffer struct {
		SampleRate int
		Channels   [][]float32
	}

	// Range is a range of samples [Start, End).
	Range struct {
		Start, End int
	}

	// AudioContext is an audio output device. Play starts calling render
	// with interleaved stereo buffers to be filled, until the returned closer
	// is closed.
	AudioContext interface {
		Play(render func(buf []float32) error) io.Closer
		SampleRate() int
		Close() error
	}
)

// NewBuffer allocates a silent buffer.
func NewBuffer(channels, length, sampleRate int) Buffer {
	b := Buffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for i := range b.Channels {
		b.Channels[i] = make([]float32, length)
	}
	return b
}

func (b Buffer) NumChannels() int { return len(b.Channels) }

// Length returns the number of samples per channel.
func (b Buffer) Length() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Length()) * time.Second / time.Duration(b.SampleRate)
}

// Interleave writes the channels frame by frame into dst.
func (b Buffer) Interleave(dst []float32) []float32 {
	n, length := len(b.Channels), b.Length()
	if cap(dst) < n*length {
		dst = make([]float32, n*length)
	}
	dst = dst[:n*length]
	for c, ch := range b.Channels {
		for i, v := range ch[:length] {
			dst[i*n+c] = v
		}
	}
	return dst
}

// Append joins the channels of other after the channels of b. The shorter
// buffer is padded with silence. Sample rates are not converted.
func (b Buffer) Append(other Buffer) Buffer {
	length := max(b.Length(), other.Length())
	ret := Buffer{SampleRate: b.SampleRate, Channels: make([][]float32, 0, len(b.Channels)+len(other.Channels))}
	if ret.SampleRate == 0 {
		ret.SampleRate = other.SampleRate
	}
	for _, ch := range append(b.Channels[:len(b.Channels):len(b.Channels)], other.Channels...) {
		if len(ch) < length {
			ch = append(ch[:len(ch):len(ch)], make([]float32, length-len(ch))...)
		}
		ret.Channels = append(ret.Channels, ch)
	}
	return ret
}

func (r Range) Len() int { return r.End - r.Start }

// Contains reports whether pos lies in [Start, End).
func (r Range) Contains(pos int) bool { return pos >= r.Start && pos < r.End }

// Ordered returns r with Start <= End.
func (r Range) Ordered() Range {
	if r.End < r.Start {
		r.Start, r.End = r.End, r.Start
	}
	return r
}
