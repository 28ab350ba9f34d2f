// Package oto plays audio through github.com/ebitengine/oto/v3.
package oto

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

type (
	// OtoContext is a stereo float32 audio output. oto allows only one
	// context per process.
	OtoContext struct {
		context    *oto.Context
		sampleRate int
	}

	// OtoOutput pulls audio from a render function on oto's goroutine.
	OtoOutput struct {
		player *oto.Player
		reader *renderReader
	}

	renderReader struct {
		render    func(buf []float32) error
		floats    []float32
		tmpBuffer []byte
		mu        sync.Mutex
		err       error
	}
)

const DefaultBufferSize = 40 * time.Millisecond

// ContextOptions returns the options of a stereo float32 context. A
// non-positive bufferSize selects DefaultBufferSize.
func ContextOptions(sampleRate int, bufferSize time.Duration) *oto.NewContextOptions {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}
}

// NewContext creates the oto context and waits until the device is ready.
func NewContext(sampleRate int, bufferSize time.Duration) (*OtoContext, error) {
	context, ready, err := oto.NewContext(ContextOptions(sampleRate, bufferSize))
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{context: context, sampleRate: sampleRate}, nil
}

func (c *OtoContext) SampleRate() int { return c.sampleRate }

// Play starts pulling interleaved stereo audio from render until the
// returned output is closed or render returns an error. io.EOF ends the
// playback silently.
func (c *OtoContext) Play(render func(buf []float32) error) io.Closer {
	r := &renderReader{render: render}
	o := &OtoOutput{player: c.context.NewPlayer(r), reader: r}
	o.player.Play()
	return o
}

// Close suspends the device; oto contexts cannot be destroyed.
func (c *OtoContext) Close() error {
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Err returns the error that ended the playback, if any.
func (o *OtoOutput) Err() error {
	o.reader.mu.Lock()
	defer o.reader.mu.Unlock()
	if errors.Is(o.reader.err, io.EOF) {
		return nil
	}
	return o.reader.err
}

// Close disposes of resources
func (o *OtoOutput) Close() error {
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

func (r *renderReader) Read(p []byte) (int, error) {
	n := len(p) / 8 * 2
	if n == 0 {
		return 0, nil
	}
	if cap(r.floats) < n {
		r.floats = make([]float32, n)
	}
	floats := r.floats[:n]
	if err := r.render(floats); err != nil {
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		return 0, err
	}
	// we reuse the old capacity tmpBuffer by setting its length to zero
	r.tmpBuffer = FloatBufferToFloat32LE(floats, r.tmpBuffer[:0])
	return copy(p, r.tmpBuffer), nil
}
