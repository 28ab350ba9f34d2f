package trackmix_test

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/trackmix/trackmix"
)

func testBuffer() trackmix.Buffer {
	buf := trackmix.NewBuffer(2, 1000, 48000)
	for i := range 1000 {
		buf.Channels[0][i] = float32(math.Sin(float64(i) * 0.05))
		buf.Channels[1][i] = -0.5
	}
	return buf
}

func TestWriteWavIntegerRoundTrip(t *testing.T) {
	for _, bits := range []int{16, 24} {
		path := filepath.Join(t.TempDir(), "out.wav")
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("could not create file: %v", err)
		}
		buf := testBuffer()
		if err := trackmix.WriteWav(f, buf, bits); err != nil {
			t.Fatalf("WriteWav(%d) error: %v", bits, err)
		}
		f.Close()
		r, err := os.Open(path)
		if err != nil {
			t.Fatalf("could not open file: %v", err)
		}
		defer r.Close()
		dec := wav.NewDecoder(r)
		if !dec.IsValidFile() {
			t.Fatalf("%d bit output is not a valid wav file", bits)
		}
		pcm, err := dec.FullPCMBuffer()
		if err != nil {
			t.Fatalf("could not decode: %v", err)
		}
		if int(dec.BitDepth) != bits || dec.NumChans != 2 || dec.SampleRate != 48000 {
			t.Fatalf("header mismatch: %d bits, %d channels, %d Hz", dec.BitDepth, dec.NumChans, dec.SampleRate)
		}
		if len(pcm.Data) != 2000 {
			t.Fatalf("got %d samples, expected 2000", len(pcm.Data))
		}
		scale := float64(int(1)<<(bits-1) - 1)
		for i := 0; i < 1000; i++ {
			got := float64(pcm.Data[2*i]) / scale
			if math.Abs(got-float64(buf.Channels[0][i])) > 2/scale {
				t.Fatalf("%d bit sample %d: got %v, expected %v", bits, i, got, buf.Channels[0][i])
			}
		}
	}
}

func TestWavFloat(t *testing.T) {
	buf := testBuffer()
	b, err := trackmix.Wav(buf, 32)
	if err != nil {
		t.Fatalf("Wav error: %v", err)
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE tags")
	}
	if format := binary.LittleEndian.Uint16(b[20:22]); format != 3 {
		t.Fatalf("format tag %d, expected 3 (IEEE float)", format)
	}
	const headerSize = 58
	if len(b) != headerSize+2000*4 {
		t.Fatalf("length %d, expected %d", len(b), headerSize+2000*4)
	}
	if riff := binary.LittleEndian.Uint32(b[4:8]); int(riff) != len(b)-8 {
		t.Fatalf("RIFF chunk size %d, expected %d", riff, len(b)-8)
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(b[headerSize+4:]))
	if v != -0.5 {
		t.Fatalf("first right channel sample %v, expected -0.5", v)
	}
}

func TestRaw(t *testing.T) {
	buf := trackmix.Buffer{SampleRate: 48000, Channels: [][]float32{{1, -2}, {0.5, 0}}}
	b, err := trackmix.Raw(buf, 16)
	if err != nil {
		t.Fatalf("Raw error: %v", err)
	}
	want := []int16{math.MaxInt16, 16384, -math.MaxInt16, 0}
	for i, w := range want {
		if got := int16(binary.LittleEndian.Uint16(b[2*i:])); got != w {
			t.Errorf("sample %d: got %d, expected %d", i, got, w)
		}
	}
	if b, err := trackmix.Raw(buf, 24); err != nil || len(b) != 12 {
		t.Errorf("24 bit raw: %d bytes, %v", len(b), err)
	}
	if _, err := trackmix.Raw(buf, 12); !errors.Is(err, trackmix.ErrBitDepth) {
		t.Errorf("expected ErrBitDepth, got %v", err)
	}
}
