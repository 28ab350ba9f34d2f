package formats

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/wav"
	"github.com/trackmix/trackmix"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// WavDecoder decodes 8, 16, 24 and 32 bit integer PCM as well as 32 bit IEEE
// float wav files.
type WavDecoder struct{}

func (WavDecoder) Decode(r io.ReadSeeker) (trackmix.Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return trackmix.Buffer{}, fmt.Errorf("%w: not a wav file", ErrInvalidFile)
	}
	channels, sampleRate := int(dec.NumChans), int(dec.SampleRate)
	switch {
	case dec.WavAudioFormat == wavFormatFloat && dec.BitDepth == 32:
		if err := dec.FwdToPCM(); err != nil {
			return trackmix.Buffer{}, fmt.Errorf("could not find wav data: %w", err)
		}
		data := make([]float32, dec.PCMChunk.Size/4)
		if err := binary.Read(dec.PCMChunk.R, binary.LittleEndian, data); err != nil {
			return trackmix.Buffer{}, fmt.Errorf("could not read float wav data: %w", err)
		}
		return deinterleave(data, channels, sampleRate), nil
	case dec.WavAudioFormat == wavFormatPCM:
		ib, err := dec.FullPCMBuffer()
		if err != nil {
			return trackmix.Buffer{}, fmt.Errorf("could not read wav data: %w", err)
		}
		return deinterleave(intsToFloats(ib.Data, int(dec.BitDepth)), channels, sampleRate), nil
	}
	return trackmix.Buffer{}, fmt.Errorf("%w: wav format %d with %d bits", ErrUnsupportedPCM, dec.WavAudioFormat, dec.BitDepth)
}

// intsToFloats scales signed integer samples of the given width to [-1, 1).
// 8 bit samples are unsigned.
func intsToFloats(data []int, bitDepth int) []float32 {
	ret := make([]float32, len(data))
	scale := 1 / math.Ldexp(1, bitDepth-1)
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}
	for i, v := range data {
		ret[i] = float32(float64(v-offset) * scale)
	}
	return ret
}
