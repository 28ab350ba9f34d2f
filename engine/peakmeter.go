package engine

import (
	"math"
	"sync/atomic"

	"github.com/viterin/vek/vek32"
)

type (
	// PeakMeter keeps a sliding window of the most recent samples of a
	// multichannel signal and reports their absolute peak. Write is called
	// from the audio callback; Peak and PeakSinceLastGet can be called
	// concurrently from another goroutine. All shared state lives in a single
	// []uint32 arena whose words are only accessed atomically.
	PeakMeter struct {
		arena      atomic.Pointer[peakArena]
		wantWindow atomic.Uint32
		destroyed  atomic.Bool
		sampleRate int
		tmp        []float32 // used only by the writer
	}

	// peakArena layout: header words, then one peak-since-last-get word per
	// channel, then channels*capacity sample words. Samples and peaks are
	// stored as float32 bits.
	peakArena struct {
		mem []uint32
	}
)

const (
	hdrRead = iota
	hdrWrite
	hdrTotal
	hdrWindow
	hdrCapacity
	hdrChannels
	hdrDestroyed
	hdrSize
)

// The window is resized by the writer, so its size is bounded to keep the
// allocation on the audio goroutine small.
const (
	MinWindowSize     = 128
	MaxWindowSize     = 1 << 20
	DefaultWindowSize = 1024
)

// NewPeakMeter returns a meter for the given number of channels. The ring
// capacity is the window size plus one second of samples, at most
// MaxWindowSize of them.
func NewPeakMeter(channels, sampleRate int) *PeakMeter {
	m := &PeakMeter{sampleRate: clampInt(sampleRate, 0, MaxWindowSize)}
	m.wantWindow.Store(DefaultWindowSize)
	m.arena.Store(newPeakArena(max(channels, 0), DefaultWindowSize, DefaultWindowSize+m.sampleRate))
	return m
}

func newPeakArena(channels, window, capacity int) *peakArena {
	a := &peakArena{mem: make([]uint32, hdrSize+channels+channels*capacity)}
	a.mem[hdrWindow] = uint32(window)
	a.mem[hdrCapacity] = uint32(capacity)
	a.mem[hdrChannels] = uint32(channels)
	a.mem[hdrRead] = uint32(mod(-window, capacity))
	return a
}

func (a *peakArena) load(i int) uint32     { return atomic.LoadUint32(&a.mem[i]) }
func (a *peakArena) store(i int, v uint32) { atomic.StoreUint32(&a.mem[i], v) }
func (a *peakArena) channels() int         { return int(a.load(hdrChannels)) }
func (a *peakArena) capacity() int         { return int(a.load(hdrCapacity)) }
func (a *peakArena) window() int           { return int(a.load(hdrWindow)) }
func (a *peakArena) peakIndex(ch int) int  { return hdrSize + ch }

func (a *peakArena) sampleIndex(ch, i int) int {
	return hdrSize + a.channels() + ch*a.capacity() + i
}

// raisePeak lifts the running peak of a channel to at least p. Peaks are
// non-negative, so their bit patterns order the same way as the values.
func (a *peakArena) raisePeak(ch int, p float32) {
	bits := math.Float32bits(p)
	addr := &a.mem[a.peakIndex(ch)]
	for {
		old := atomic.LoadUint32(addr)
		if bits <= old || atomic.CompareAndSwapUint32(addr, old, bits) {
			return
		}
	}
}

// SetWindowSize requests a new window size, clamped to [MinWindowSize,
// MaxWindowSize]. The ring is reallocated by the writer on its next Write.
func (m *PeakMeter) SetWindowSize(n int) {
	m.wantWindow.Store(uint32(clampInt(n, MinWindowSize, MaxWindowSize)))
}

func (m *PeakMeter) WindowSize() int { return m.arena.Load().window() }
func (m *PeakMeter) Channels() int   { return m.arena.Load().channels() }

// Total returns the number of samples per channel written so far, modulo
// 2^32.
func (m *PeakMeter) Total() uint32 { return m.arena.Load().load(hdrTotal) }

// Write absorbs a block of samples, one slice per channel. Channels beyond the
// meter's channel count are ignored; a block with fewer channels shrinks the
// meter. If the block is longer than the ring, only its tail is kept.
func (m *PeakMeter) Write(block [][]float32) {
	if m.destroyed.Load() || len(block) == 0 {
		return
	}
	a := m.arena.Load()
	if a.load(hdrDestroyed) != 0 {
		return
	}
	if want := int(m.wantWindow.Load()); want != a.window() || len(block) < a.channels() {
		a = m.resize(a, want, min(len(block), a.channels()))
	}
	channels, capacity := a.channels(), a.capacity()
	n := len(block[0])
	for _, b := range block[:channels] {
		n = min(n, len(b))
	}
	if n == 0 || channels == 0 {
		return
	}
	if cap(m.tmp) < n {
		m.tmp = make([]float32, n)
	}
	tmp := m.tmp[:n]
	write := int(a.load(hdrWrite))
	skip := max(n-capacity, 0)
	for ch := range channels {
		vek32.Abs_Into(tmp, block[ch][:n])
		a.raisePeak(ch, vek32.Max(tmp))
		src := block[ch][skip:n]
		first := min(len(src), capacity-write)
		base := a.sampleIndex(ch, 0)
		for i, v := range src[:first] {
			a.store(base+write+i, math.Float32bits(v))
		}
		for i, v := range src[first:] {
			a.store(base+i, math.Float32bits(v))
		}
	}
	write = (write + n - skip) % capacity
	a.store(hdrWrite, uint32(write))
	a.store(hdrRead, uint32(mod(write-a.window(), capacity)))
	a.store(hdrTotal, a.load(hdrTotal)+uint32(n))
}

// resize allocates a new arena and copies the most recent samples of the old
// one into it, so that the window stays continuous across the change.
func (m *PeakMeter) resize(old *peakArena, window, channels int) *peakArena {
	capacity := window + m.sampleRate
	a := newPeakArena(channels, window, capacity)
	oldCap, oldWrite := old.capacity(), int(old.load(hdrWrite))
	keep := min(oldCap, capacity)
	for ch := range channels {
		for i := range keep {
			v := old.load(old.sampleIndex(ch, mod(oldWrite-keep+i, oldCap)))
			a.mem[a.sampleIndex(ch, i)] = v
		}
		a.mem[a.peakIndex(ch)] = old.load(old.peakIndex(ch))
	}
	write := keep % capacity
	a.mem[hdrWrite] = uint32(write)
	a.mem[hdrRead] = uint32(mod(write-window, capacity))
	a.mem[hdrTotal] = old.load(hdrTotal)
	a.mem[hdrDestroyed] = old.load(hdrDestroyed)
	m.arena.Store(a)
	return a
}

// Peak returns the absolute peak of the most recent window of samples, one
// value per channel, or nil if the meter has been destroyed.
func (m *PeakMeter) Peak() []float32 {
	return m.PeakInto(nil)
}

// PeakInto is like Peak but reuses dst for the result.
func (m *PeakMeter) PeakInto(dst []float32) []float32 {
	if m.destroyed.Load() {
		return nil
	}
	a := m.arena.Load()
	channels, capacity, window := a.channels(), a.capacity(), a.window()
	read := int(a.load(hdrRead))
	dst = setSliceLength(dst, channels)
	for ch := range channels {
		var peak float32
		base := a.sampleIndex(ch, 0)
		for i := range window {
			idx := read + i
			if idx >= capacity {
				idx -= capacity
			}
			v := math.Float32frombits(a.load(base + idx))
			if v < 0 {
				v = -v
			}
			peak = max(peak, v)
		}
		dst[ch] = peak
	}
	return dst
}

// PeakSinceLastGet returns the largest absolute sample seen since the previous
// call, and restarts tracking from the current window peak.
func (m *PeakMeter) PeakSinceLastGet() []float32 {
	window := m.Peak()
	if window == nil {
		return nil
	}
	a := m.arena.Load()
	for ch := range min(len(window), a.channels()) {
		old := atomic.SwapUint32(&a.mem[a.peakIndex(ch)], math.Float32bits(window[ch]))
		window[ch] = math.Float32frombits(old)
	}
	return window
}

// Destroy stops all further writes. It is safe to call more than once.
func (m *PeakMeter) Destroy() {
	if m.destroyed.Swap(true) {
		return
	}
	a := m.arena.Load()
	a.store(hdrDestroyed, 1)
}

func (m *PeakMeter) Destroyed() bool {
	return m.destroyed.Load()
}
