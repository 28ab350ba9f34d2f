package formats

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
	"github.com/trackmix/trackmix"
)

// VorbisDecoder decodes ogg vorbis files.
type VorbisDecoder struct{}

func (VorbisDecoder) Decode(r io.ReadSeeker) (trackmix.Buffer, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return trackmix.Buffer{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	channels := dec.Channels()
	var data []float32
	chunk := make([]float32, 4096*channels)
	for {
		n, err := dec.Read(chunk)
		data = append(data, chunk[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return trackmix.Buffer{}, fmt.Errorf("could not decode vorbis: %w", err)
		}
	}
	return deinterleave(data, channels, dec.SampleRate()), nil
}
