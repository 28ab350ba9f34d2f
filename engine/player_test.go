package engine_test

import (
	"testing"

	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/engine"
)

func rampBuffer(length int) trackmix.Buffer {
	buf := trackmix.NewBuffer(1, length, 48000)
	for i := range buf.Channels[0] {
		buf.Channels[0][i] = float32(i)
	}
	return buf
}

func TestPlayerLoop(t *testing.T) {
	p := engine.NewPlayer(rampBuffer(10))
	p.SetLoop(true)
	p.SetLoopRange(2, 5)
	p.Play(3)
	dst := [][]float32{make([]float32, 7)}
	if p.Render(dst) {
		t.Fatalf("looping player reported end")
	}
	want := []float32{3, 4, 2, 3, 4, 2, 3}
	for i, w := range want {
		if dst[0][i] != w {
			t.Fatalf("sample %d = %v, expected %v (got %v)", i, dst[0][i], w, dst[0])
		}
	}
}

func TestPlayerEnd(t *testing.T) {
	p := engine.NewPlayer(rampBuffer(10))
	p.Play(7)
	dst := [][]float32{make([]float32, 5)}
	if !p.Render(dst) {
		t.Fatalf("player did not report end")
	}
	want := []float32{7, 8, 9, 0, 0}
	for i, w := range want {
		if dst[0][i] != w {
			t.Fatalf("sample %d = %v, expected %v", i, dst[0][i], w)
		}
	}
	if p.Playing() || p.Playhead() != 10 {
		t.Fatalf("after end: playing %v, playhead %d", p.Playing(), p.Playhead())
	}
	if p.Render(dst) {
		t.Fatalf("stopped player reported end again")
	}
	for _, v := range dst[0] {
		if v != 0 {
			t.Fatalf("stopped player should render silence")
		}
	}
}

func TestPlayerStopsAtRangeEnd(t *testing.T) {
	p := engine.NewPlayer(rampBuffer(10))
	p.SetLoopRange(2, 4)
	p.Play(2)
	dst := [][]float32{make([]float32, 4)}
	if !p.Render(dst) || p.Playhead() != 4 {
		t.Fatalf("expected end at 4, playhead %d", p.Playhead())
	}
}

func TestPlayerLoopRangeChangeTakesEffect(t *testing.T) {
	p := engine.NewPlayer(rampBuffer(10))
	p.SetLoop(true)
	p.Play(0)
	dst := [][]float32{make([]float32, 3)}
	p.Render(dst)
	p.SetLoopRange(0, 4)
	p.Render(dst)
	if dst[0][0] != 3 || dst[0][1] != 0 || dst[0][2] != 1 {
		t.Fatalf("got %v, expected [3 0 1]", dst[0])
	}
	p.SetLoopRange(5, 5)
	if from, to := p.LoopRange(); from != 0 || to != 10 {
		t.Fatalf("empty loop range should reset to whole buffer, got [%d, %d)", from, to)
	}
}
