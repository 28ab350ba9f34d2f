package trackmix

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrBitDepth = errors.New("unsupported bit depth, expected 16, 24 or 32")

// WriteWav writes buf as a wav file. 16 and 24 bits produce integer PCM, 32
// bits produces IEEE float.
func WriteWav(w io.WriteSeeker, buf Buffer, bitDepth int) error {
	switch bitDepth {
	case 16, 24:
		enc := wav.NewEncoder(w, buf.SampleRate, bitDepth, buf.NumChannels(), 1)
		if err := enc.Write(intBuffer(buf, bitDepth)); err != nil {
			return fmt.Errorf("could not encode wav: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("could not finish wav: %w", err)
		}
		return nil
	case 32:
		b := new(bytes.Buffer)
		length := buf.Length() * buf.NumChannels()
		floatWavHeader(length, buf.NumChannels(), buf.SampleRate, b)
		if err := binary.Write(b, binary.LittleEndian, buf.Interleave(nil)); err != nil {
			return fmt.Errorf("could not binary write data to binary buffer: %w", err)
		}
		if _, err := w.Write(b.Bytes()); err != nil {
			return fmt.Errorf("could not write wav: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
}

// Wav returns buf encoded as a wav file.
func Wav(buf Buffer, bitDepth int) ([]byte, error) {
	ws := &writeSeeker{}
	if err := WriteWav(ws, buf, bitDepth); err != nil {
		return nil, fmt.Errorf("Wav failed: %w", err)
	}
	return ws.buf, nil
}

// Raw returns the interleaved samples of buf as little-endian PCM without a
// header.
func Raw(buf Buffer, bitDepth int) ([]byte, error) {
	b := new(bytes.Buffer)
	data := buf.Interleave(nil)
	var err error
	switch bitDepth {
	case 16:
		int16data := make([]int16, len(data))
		for i, v := range data {
			int16data[i] = int16(quantize(v, 16))
		}
		err = binary.Write(b, binary.LittleEndian, int16data)
	case 24:
		for _, v := range data {
			q := quantize(v, 24)
			b.Write([]byte{byte(q), byte(q >> 8), byte(q >> 16)})
		}
	case 32:
		err = binary.Write(b, binary.LittleEndian, data)
	default:
		return nil, fmt.Errorf("Raw failed: %w: %d", ErrBitDepth, bitDepth)
	}
	if err != nil {
		return nil, fmt.Errorf("Raw failed: %w", err)
	}
	return b.Bytes(), nil
}

func intBuffer(buf Buffer, bitDepth int) *audio.IntBuffer {
	data := buf.Interleave(nil)
	ret := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: buf.NumChannels(), SampleRate: buf.SampleRate},
		Data:           make([]int, len(data)),
		SourceBitDepth: bitDepth,
	}
	for i, v := range data {
		ret.Data[i] = quantize(v, bitDepth)
	}
	return ret
}

// quantize scales a float sample in [-1, 1] to a signed integer of the given
// width, clipping values outside the range.
func quantize(v float32, bitDepth int) int {
	maxValue := float64(int(1)<<(bitDepth-1) - 1)
	return int(math.Round(math.Max(-1, math.Min(1, float64(v))) * maxValue))
}

// floatWavHeader writes a wave header for a float32 .wav file into the
// bytes.Buffer. bufferLength is the total number of samples over all
// channels.
func floatWavHeader(bufferLength, numChannels, sampleRate int, buf *bytes.Buffer) {
	// Refer to: http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
	const bytesPerSample = 4
	chunkSize := 50 + bytesPerSample*bufferLength
	buf.Write([]byte("RIFF"))
	binary.Write(buf, binary.LittleEndian, uint32(chunkSize))
	buf.Write([]byte("WAVE"))
	buf.Write([]byte("fmt "))
	binary.Write(buf, binary.LittleEndian, uint32(18))
	binary.Write(buf, binary.LittleEndian, uint16(3)) // IEEE float
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*numChannels*bytesPerSample)) // avgBytesPerSec
	binary.Write(buf, binary.LittleEndian, uint16(numChannels*bytesPerSample))            // blockAlign
	binary.Write(buf, binary.LittleEndian, uint16(8*bytesPerSample))                      // bits per sample
	binary.Write(buf, binary.LittleEndian, uint16(0))                                     // size of extension
	buf.Write([]byte("fact"))
	binary.Write(buf, binary.LittleEndian, uint32(4))
	binary.Write(buf, binary.LittleEndian, uint32(bufferLength/max(numChannels, 1))) // sample frames
	buf.Write([]byte("data"))
	binary.Write(buf, binary.LittleEndian, uint32(bytesPerSample*bufferLength))
}

// writeSeeker is an in-memory io.WriteSeeker, needed by the wav encoder
// which patches the header sizes after writing the samples.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	if need := w.pos + len(p); need > len(w.buf) {
		w.buf = append(w.buf, make([]byte, need-len(w.buf))...)
	}
	n := copy(w.buf[w.pos:], p)
	w.pos += n
	return n, nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(w.pos) + offset
	case io.SeekEnd:
		pos = int64(len(w.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if pos < 0 {
		return 0, errors.New("negative position")
	}
	w.pos = int(pos)
	return pos, nil
}
