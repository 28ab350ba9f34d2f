package oto_test

import (
	"testing"
	"time"

	"github.com/trackmix/trackmix/oto"
)

func TestContextOptions(t *testing.T) {
	o := oto.ContextOptions(44100, 15*time.Millisecond)
	if o.SampleRate != 44100 || o.ChannelCount != 2 || o.BufferSize != 15*time.Millisecond {
		t.Fatalf("options %+v do not carry the requested device settings", o)
	}
	if o := oto.ContextOptions(48000, 0); o.BufferSize != oto.DefaultBufferSize {
		t.Fatalf("buffer size %v, expected the default %v", o.BufferSize, oto.DefaultBufferSize)
	}
}
