package formats_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/formats"
)

func rampBuffer(channels, length, sampleRate int) trackmix.Buffer {
	buf := trackmix.NewBuffer(channels, length, sampleRate)
	for c, ch := range buf.Channels {
		for i := range ch {
			ch[i] = float32(i%200-100) / 128 * float32(c+1) / float32(channels)
		}
	}
	return buf
}

func assertClose(t *testing.T, got, want trackmix.Buffer, tolerance float64) {
	t.Helper()
	if got.SampleRate != want.SampleRate || got.NumChannels() != want.NumChannels() || got.Length() != want.Length() {
		t.Fatalf("got %d Hz, %d channels, %d samples, expected %d Hz, %d channels, %d samples",
			got.SampleRate, got.NumChannels(), got.Length(), want.SampleRate, want.NumChannels(), want.Length())
	}
	for c := range want.Channels {
		for i, v := range want.Channels[c] {
			if d := math.Abs(float64(got.Channels[c][i] - v)); d > tolerance {
				t.Fatalf("channel %d sample %d is %v, expected %v", c, i, got.Channels[c][i], v)
			}
		}
	}
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatalf("could not write %v: %v", p, err)
	}
	return p
}

func TestWavRoundTrip(t *testing.T) {
	buf := rampBuffer(2, 1000, 44100)
	for _, c := range []struct {
		bits      int
		tolerance float64
	}{{16, 1.0 / 16384}, {24, 1.0 / 4194304}, {32, 0}} {
		data, err := trackmix.Wav(buf, c.bits)
		if err != nil {
			t.Fatalf("could not encode %d bit wav: %v", c.bits, err)
		}
		p := writeFile(t, t.TempDir(), "ramp.wav", data)
		got, err := formats.Load(p)
		if err != nil {
			t.Fatalf("could not load %d bit wav: %v", c.bits, err)
		}
		assertClose(t, got, buf, c.tolerance)
	}
}

func TestAiff(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tone.aiff")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	enc := aiff.NewEncoder(f, 48000, 16, 1)
	ib := &audio.IntBuffer{Format: &audio.Format{NumChannels: 1, SampleRate: 48000}, Data: []int{0, 16384, -16384, 32767}, SourceBitDepth: 16}
	if err := enc.Write(ib); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
	got, err := formats.Load(p)
	if err != nil {
		t.Fatalf("could not load aiff: %v", err)
	}
	want := trackmix.Buffer{SampleRate: 48000, Channels: [][]float32{{0, 0.5, -0.5, 32767.0 / 32768}}}
	assertClose(t, got, want, 1e-6)
}

func TestUnknownFormat(t *testing.T) {
	if _, err := formats.Load("song.xm"); !errors.Is(err, formats.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	p := writeFile(t, t.TempDir(), "garbage.wav", []byte("this is not audio"))
	if _, err := formats.Load(p); !errors.Is(err, formats.ErrInvalidFile) {
		t.Fatalf("expected ErrInvalidFile, got %v", err)
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	stereo, err := trackmix.Wav(rampBuffer(2, 1000, 48000), 16)
	if err != nil {
		t.Fatal(err)
	}
	mono, err := trackmix.Wav(rampBuffer(1, 600, 48000), 32)
	if err != nil {
		t.Fatal(err)
	}
	paths := []string{writeFile(t, dir, "drum_loop.wav", stereo), writeFile(t, dir, "bass.wav", mono)}
	buf, names, err := formats.LoadAll(context.Background(), paths)
	if err != nil {
		t.Fatal(err)
	}
	if buf.NumChannels() != 3 || buf.Length() != 1000 || buf.SampleRate != 48000 {
		t.Fatalf("got %d channels of %d samples at %d Hz", buf.NumChannels(), buf.Length(), buf.SampleRate)
	}
	if want := []string{"Drum Loop L", "Drum Loop R", "Bass"}; !slices.Equal(names, want) {
		t.Fatalf("names %q, expected %q", names, want)
	}
	for i, v := range buf.Channels[2][600:] {
		if v != 0 {
			t.Fatalf("padding sample %d is %v", 600+i, v)
		}
	}

	other, err := trackmix.Wav(rampBuffer(1, 10, 44100), 16)
	if err != nil {
		t.Fatal(err)
	}
	paths = append(paths, writeFile(t, dir, "other.wav", other))
	if _, _, err := formats.LoadAll(context.Background(), paths); !errors.Is(err, formats.ErrSampleRate) {
		t.Fatalf("expected ErrSampleRate, got %v", err)
	}
}

func TestTrackName(t *testing.T) {
	cases := []struct {
		path        string
		c, channels int
		want        string
	}{
		{"/tmp/lead-vocals.wav", 0, 1, "Lead Vocals"},
		{"piano.aiff", 1, 2, "Piano R"},
		{"SURROUND_mix.ogg", 4, 6, "Surround Mix 5"},
	}
	for _, c := range cases {
		if got := formats.TrackName(c.path, c.c, c.channels); got != c.want {
			t.Fatalf("TrackName(%q, %d, %d) = %q, expected %q", c.path, c.c, c.channels, got, c.want)
		}
	}
}
