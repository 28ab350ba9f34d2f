// Package formats decodes audio files into planar buffers. Decoders are
// looked up by the file extension.
package formats

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/trackmix/trackmix"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Decoder decodes a whole file into a buffer.
type Decoder interface {
	Decode(r io.ReadSeeker) (trackmix.Buffer, error)
}

var (
	mu       sync.Mutex
	decoders = map[string]Decoder{
		".wav":  WavDecoder{},
		".wave": WavDecoder{},
		".aif":  AiffDecoder{},
		".aiff": AiffDecoder{},
		".mp3":  Mp3Decoder{},
		".ogg":  VorbisDecoder{},
		".oga":  VorbisDecoder{},
	}
)

// Register adds or replaces the decoder for an extension, given with the dot.
func Register(ext string, d Decoder) {
	mu.Lock()
	defer mu.Unlock()
	decoders[strings.ToLower(ext)] = d
}

// Extensions returns the registered extensions.
func Extensions() []string {
	mu.Lock()
	defer mu.Unlock()
	ret := make([]string, 0, len(decoders))
	for ext := range decoders {
		ret = append(ret, ext)
	}
	return ret
}

func lookup(name string) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(name))
	mu.Lock()
	d, ok := decoders[ext]
	mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return d, nil
}

// Decode decodes r with the decoder registered for the extension of name.
func Decode(name string, r io.ReadSeeker) (trackmix.Buffer, error) {
	d, err := lookup(name)
	if err != nil {
		return trackmix.Buffer{}, err
	}
	buf, err := d.Decode(r)
	if err != nil {
		return trackmix.Buffer{}, fmt.Errorf("could not decode %v: %w", name, err)
	}
	return buf, nil
}

// Load reads and decodes the file at path.
func Load(path string) (trackmix.Buffer, error) {
	if _, err := lookup(path); err != nil {
		return trackmix.Buffer{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return trackmix.Buffer{}, fmt.Errorf("could not read file %v: %w", path, err)
	}
	return Decode(path, bytes.NewReader(data))
}

// LoadAll decodes the files concurrently and joins their channels into one
// buffer, in the order of paths. Shorter files are padded with silence. The
// returned names are the track names of the channels.
func LoadAll(ctx context.Context, paths []string) (trackmix.Buffer, []string, error) {
	bufs := make([]trackmix.Buffer, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := Load(p)
			bufs[i] = b
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return trackmix.Buffer{}, nil, err
	}
	var ret trackmix.Buffer
	var names []string
	for i, b := range bufs {
		if i > 0 && b.SampleRate != ret.SampleRate {
			return trackmix.Buffer{}, nil, fmt.Errorf("%w: %v is %d Hz, expected %d Hz", ErrSampleRate, paths[i], b.SampleRate, ret.SampleRate)
		}
		ret = ret.Append(b)
		for c := range b.NumChannels() {
			names = append(names, TrackName(paths[i], c, b.NumChannels()))
		}
	}
	return ret, names, nil
}

// TrackName names channel c of a file with the given number of channels
// after the file: "Drums" for a mono file, "Drums L" and "Drums R" for a
// stereo one and numbered from 1 otherwise.
func TrackName(path string, c, channels int) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	name := cases.Title(language.Und).String(strings.Join(strings.Fields(base), " "))
	switch {
	case channels == 1:
		return name
	case channels == 2 && c == 0:
		return name + " L"
	case channels == 2:
		return name + " R"
	}
	return name + " " + strconv.Itoa(c+1)
}

// deinterleave splits interleaved samples into a planar buffer. A trailing
// partial frame is dropped.
func deinterleave(data []float32, channels, sampleRate int) trackmix.Buffer {
	length := len(data) / max(channels, 1)
	ret := trackmix.NewBuffer(channels, length, sampleRate)
	for c, ch := range ret.Channels {
		for i := range ch {
			ch[i] = data[i*channels+c]
		}
	}
	return ret
}
