package formats

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/trackmix/trackmix"
)

// Mp3Decoder decodes mp3 files. go-mp3 always produces 16 bit stereo.
type Mp3Decoder struct{}

func (Mp3Decoder) Decode(r io.ReadSeeker) (trackmix.Buffer, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return trackmix.Buffer{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return trackmix.Buffer{}, fmt.Errorf("could not decode mp3: %w", err)
	}
	data := make([]float32, len(pcm)/2)
	for i := range data {
		data[i] = float32(int16(binary.LittleEndian.Uint16(pcm[2*i:]))) / 32768
	}
	return deinterleave(data, 2, dec.SampleRate()), nil
}
