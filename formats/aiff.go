package formats

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/trackmix/trackmix"
)

// AiffDecoder decodes integer PCM aiff files.
type AiffDecoder struct{}

func (AiffDecoder) Decode(r io.ReadSeeker) (trackmix.Buffer, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return trackmix.Buffer{}, fmt.Errorf("%w: not an aiff file", ErrInvalidFile)
	}
	dec.ReadInfo()
	format := dec.Format()
	if format == nil || format.NumChannels <= 0 {
		return trackmix.Buffer{}, fmt.Errorf("%w: aiff file without a format", ErrInvalidFile)
	}
	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 16, 24, 32:
	default:
		return trackmix.Buffer{}, fmt.Errorf("%w: aiff with %d bits", ErrUnsupportedPCM, bitDepth)
	}
	var data []int
	ib := &audio.IntBuffer{Data: make([]int, 4096*format.NumChannels), Format: format}
	for {
		n, err := dec.PCMBuffer(ib)
		data = append(data, ib.Data[:n]...)
		if err != nil && err != io.EOF {
			return trackmix.Buffer{}, fmt.Errorf("could not read aiff data: %w", err)
		}
		if n == 0 || err == io.EOF {
			break
		}
	}
	return deinterleave(intsToFloats(data, bitDepth), format.NumChannels, format.SampleRate), nil
}
