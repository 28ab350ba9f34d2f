package waveform

// Slice is a contiguous part of a waveform: raw vectors, one per channel,
// covering the audio samples [StartIndex, EndIndex), and their
// pyramid. Several adjacent slices form a scrolling waveform.
type Slice struct {
	StartIndex          int
	EndIndex            int
	OffsetFromSample    int
	SamplesPerRawSample int
	Raw                 [][]float32
	Pyramid             *Pyramid
}

// NewSlice returns a slice covering the whole of raw, one audio sample per
// raw sample.
func NewSlice(raw [][]float32, pyramid *Pyramid) Slice {
	length := 0
	if len(raw) > 0 {
		length = len(raw[0])
	}
	return Slice{EndIndex: length, SamplesPerRawSample: 1, Raw: raw, Pyramid: pyramid}
}

func (s *Slice) NumChannels() int { return len(s.Raw) }

// position returns the audio sample at which entry i of the given level
// starts. Level -1 is the raw data.
func (s *Slice) position(level, i int) int {
	if level < 0 {
		return s.StartIndex - s.OffsetFromSample + i*s.samplesPerRaw()
	}
	l := &s.Pyramid.Levels[level]
	return s.StartIndex - l.OffsetFromFrame + i*l.SamplesPerFrame
}

// index returns the entry of the given level containing the audio sample
// pos.
func (s *Slice) index(level int, pos float64) int {
	if level < 0 {
		return int(max(0, (pos-float64(s.StartIndex-s.OffsetFromSample))/float64(s.samplesPerRaw())))
	}
	l := &s.Pyramid.Levels[level]
	return int(max(0, (pos-float64(s.StartIndex-l.OffsetFromFrame))/float64(l.SamplesPerFrame)))
}

func (s *Slice) samplesPerRaw() int {
	return max(s.SamplesPerRawSample, 1)
}

// BestLevels returns, for every slice, the index of the coarsest pyramid
// level that still has fewer audio samples per frame than samplesPerPixel,
// or -1 if the raw data should be drawn.
func BestLevels(slices []Slice, samplesPerPixel float64) []int {
	ret := make([]int, len(slices))
	for i := range slices {
		ret[i] = -1
		if slices[i].Pyramid == nil {
			continue
		}
		for l, level := range slices[i].Pyramid.Levels {
			if float64(level.SamplesPerFrame) < samplesPerPixel {
				ret[i] = l
			}
		}
	}
	return ret
}
