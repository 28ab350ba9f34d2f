// Package engine contains the real-time side of trackmix: a player for a
// multichannel buffer, a mixer with smoothed gain, mute and pan per track,
// peak meters, and the offline renderer used for bouncing.
//
// An Engine is driven by the audio callback through Process. At the start of
// every render quantum it handles the commands waiting on its rpc endpoint,
// without blocking; mixer parameters are read from atomics written by the
// control side.
package engine

import (
	"sync/atomic"

	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/rpc"
	"github.com/viterin/vek/vek32"
)

type (
	Engine struct {
		player      *Player
		mixer       *Mixer
		endpoint    *rpc.Endpoint
		trackMeter  *PeakMeter
		masterMeter *PeakMeter
		playhead    atomic.Int64
		silenced    atomic.Bool
		destroyed   atomic.Bool
		quantum     int
		coef        float32

		// owned by the audio callback
		tracks      [][]float32
		trackViews  [][]float32
		master      [2][]float32
		masterViews [][]float32
		ramp, rampL []float32
		rampR, tmp  []float32
		gains       []smoother
		pansL       []smoother
		pansR       []smoother
		masterGain  smoother
	}

	Options struct {
		// Quantum is the number of frames rendered between two polls of the
		// command endpoint.
		Quantum int
		// MeterWindow is the initial window size of the peak meters.
		MeterWindow int
	}
)

const DefaultQuantum = 128

// New returns an engine playing buffer. Commands are read from in and
// responses, as well as the engine's own calls such as CmdEnded, are written
// to out.
func New(buffer trackmix.Buffer, out chan<- rpc.Message, in <-chan rpc.Message, opts Options) *Engine {
	if opts.Quantum <= 0 {
		opts.Quantum = DefaultQuantum
	}
	channels := buffer.NumChannels()
	e := &Engine{
		player:      NewPlayer(buffer),
		mixer:       NewMixer(channels),
		trackMeter:  NewPeakMeter(channels, buffer.SampleRate),
		masterMeter: NewPeakMeter(2, buffer.SampleRate),
		quantum:     opts.Quantum,
		coef:        smoothingCoef(buffer.SampleRate),
		tracks:      make([][]float32, channels),
		trackViews:  make([][]float32, channels),
		masterViews: make([][]float32, 2),
		ramp:        make([]float32, opts.Quantum),
		rampL:       make([]float32, opts.Quantum),
		rampR:       make([]float32, opts.Quantum),
		tmp:         make([]float32, opts.Quantum),
		gains:       make([]smoother, channels),
		pansL:       make([]smoother, channels),
		pansR:       make([]smoother, channels),
	}
	if opts.MeterWindow > 0 {
		e.trackMeter.SetWindowSize(opts.MeterWindow)
		e.masterMeter.SetWindowSize(opts.MeterWindow)
	}
	for i := range e.tracks {
		e.tracks[i] = make([]float32, opts.Quantum)
		g, l, r := e.mixer.targets(i)
		e.gains[i].value, e.pansL[i].value, e.pansR[i].value = g, l, r
	}
	e.master[0] = make([]float32, opts.Quantum)
	e.master[1] = make([]float32, opts.Quantum)
	e.masterGain.value = e.mixer.masterTarget()
	e.endpoint = rpc.NewEndpoint(out, in, e.commandTable(), rpc.Reverse)
	return e
}

func (e *Engine) Mixer() *Mixer           { return e.mixer }
func (e *Engine) TrackMeter() *PeakMeter  { return e.trackMeter }
func (e *Engine) MasterMeter() *PeakMeter { return e.masterMeter }
func (e *Engine) Endpoint() *rpc.Endpoint { return e.endpoint }
func (e *Engine) Length() int             { return e.player.Length() }
func (e *Engine) Quantum() int            { return e.quantum }
func (e *Engine) Destroyed() bool         { return e.destroyed.Load() }
func (e *Engine) Silenced() bool          { return e.silenced.Load() }
func (e *Engine) SampleRate() int         { return e.player.buffer.SampleRate }
func (e *Engine) NumChannels() int        { return e.player.buffer.NumChannels() }
func (e *Engine) Buffer() trackmix.Buffer { return e.player.buffer }
func (e *Engine) Settings() MixSettings   { return e.mixer.Settings() }

// Playhead returns the play head published after the latest quantum. It can
// be called from any goroutine.
func (e *Engine) Playhead() int {
	return int(e.playhead.Load())
}

// Process fills out, interleaved stereo, with the next frames of the mix. It
// is meant to be called from the audio callback and never blocks.
func (e *Engine) Process(out []float32) {
	frames := len(out) / 2
	for offset := 0; offset < frames; {
		n := min(e.quantum, frames-offset)
		if e.destroyed.Load() {
			clear(out[2*offset:])
			return
		}
		e.endpoint.Poll()
		if e.silenced.Load() {
			clear(out[2*offset:])
			return
		}
		e.render(n)
		l, r := e.master[0][:n], e.master[1][:n]
		dst := out[2*offset : 2*(offset+n)]
		for i := range n {
			dst[2*i] = l[i]
			dst[2*i+1] = r[i]
		}
		e.playhead.Store(int64(e.player.Playhead()))
		offset += n
	}
}

func (e *Engine) render(n int) {
	for i := range e.tracks {
		e.trackViews[i] = e.tracks[i][:n]
	}
	if e.player.Render(e.trackViews) {
		e.endpoint.Go(CmdEnded, e.player.Playhead())
	}
	left, right := e.master[0][:n], e.master[1][:n]
	clear(left)
	clear(right)
	ramp, rampL, rampR, tmp := e.ramp[:n], e.rampL[:n], e.rampR[:n], e.tmp[:n]
	for i, x := range e.trackViews {
		gain, panL, panR := e.mixer.targets(i)
		if e.gains[i].fill(ramp, gain, e.coef) {
			vek32.Mul_Inplace(x, ramp)
		} else {
			vek32.MulNumber_Inplace(x, gain)
		}
		e.mixPanned(left, x, tmp, rampL, &e.pansL[i], panL)
		e.mixPanned(right, x, tmp, rampR, &e.pansR[i], panR)
	}
	e.trackMeter.Write(e.trackViews)
	if e.masterGain.fill(ramp, e.mixer.masterTarget(), e.coef) {
		vek32.Mul_Inplace(left, ramp)
		vek32.Mul_Inplace(right, ramp)
	} else {
		vek32.MulNumber_Inplace(left, e.masterGain.value)
		vek32.MulNumber_Inplace(right, e.masterGain.value)
	}
	e.masterViews[0], e.masterViews[1] = left, right
	e.masterMeter.Write(e.masterViews)
}

// mixPanned adds x, scaled by a smoothed pan coefficient, into dst.
func (e *Engine) mixPanned(dst, x, tmp, ramp []float32, s *smoother, target float32) {
	if s.fill(ramp, target, e.coef) {
		vek32.Mul_Into(tmp, x, ramp)
	} else {
		vek32.MulNumber_Into(tmp, x, s.value)
	}
	vek32.Add_Inplace(dst, tmp)
}

// Silence makes Process render zeros from now on while it keeps handling
// commands, so that a following CmdDestroy still reaches the engine. It only
// touches an atomic and can be called from any goroutine.
func (e *Engine) Silence() { e.silenced.Store(true) }

// Destroy silences the engine, destroys its meters and disposes its endpoint.
// It is safe to call more than once, but only from the goroutine calling
// Process; other goroutines call Silence and send CmdDestroy.
func (e *Engine) Destroy() {
	e.silenced.Store(true)
	if e.destroyed.Swap(true) {
		return
	}
	e.trackMeter.Destroy()
	e.masterMeter.Destroy()
	e.endpoint.Dispose()
}
