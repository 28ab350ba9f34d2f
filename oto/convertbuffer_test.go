package oto_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/trackmix/trackmix/oto"
)

func TestFloatBufferToFloat32LE(t *testing.T) {
	in := []float32{0, 0.5, -1, 2}
	got := oto.FloatBufferToFloat32LE(in, nil)
	if len(got) != 4*len(in) {
		t.Fatalf("got %d bytes, expected %d", len(got), 4*len(in))
	}
	for i, v := range in {
		if f := math.Float32frombits(binary.LittleEndian.Uint32(got[4*i:])); f != v {
			t.Fatalf("value %d is %v, expected %v", i, f, v)
		}
	}
}
