package engine

import (
	"math"
	"sync/atomic"

	"github.com/trackmix/trackmix"
)

type (
	// Mixer holds the targets of the mix parameters. The control side writes
	// them at any time; the audio callback reads them once per quantum and
	// approaches them smoothly. The last write wins.
	Mixer struct {
		tracks []trackParams
		master atomic.Uint32
	}

	trackParams struct {
		gain    atomic.Uint32 // linear amplitude, float32 bits
		pan     atomic.Uint32 // -1 .. 1, float32 bits
		enabled atomic.Bool
	}

	// MixSettings is a snapshot of the mix parameters, used for offline
	// rendering.
	MixSettings struct {
		Gains      []float64 // dB
		Pans       []float64
		Enabled    []bool
		MasterGain float64 // dB
	}
)

// SmoothingTime is the time constant with which parameter changes are
// approached, in seconds.
const SmoothingTime = 0.01

func NewMixer(tracks int) *Mixer {
	m := &Mixer{tracks: make([]trackParams, tracks)}
	for i := range m.tracks {
		m.tracks[i].gain.Store(math.Float32bits(1))
		m.tracks[i].enabled.Store(true)
	}
	m.master.Store(math.Float32bits(1))
	return m
}

func (m *Mixer) NumTracks() int { return len(m.tracks) }

func (m *Mixer) SetGain(track int, db float64) {
	if track >= 0 && track < len(m.tracks) {
		m.tracks[track].gain.Store(math.Float32bits(float32(trackmix.DBToAmp(db))))
	}
}

func (m *Mixer) SetPan(track int, pan float64) {
	if track >= 0 && track < len(m.tracks) {
		m.tracks[track].pan.Store(math.Float32bits(float32(max(-1, min(1, pan)))))
	}
}

func (m *Mixer) SetEnabled(track int, enabled bool) {
	if track >= 0 && track < len(m.tracks) {
		m.tracks[track].enabled.Store(enabled)
	}
}

func (m *Mixer) SetMasterGain(db float64) {
	m.master.Store(math.Float32bits(float32(trackmix.DBToAmp(db))))
}

// Set writes all parameters of a snapshot.
func (m *Mixer) Set(s MixSettings) {
	for i := range m.tracks {
		if i < len(s.Gains) {
			m.SetGain(i, s.Gains[i])
		}
		if i < len(s.Pans) {
			m.SetPan(i, s.Pans[i])
		}
		if i < len(s.Enabled) {
			m.SetEnabled(i, s.Enabled[i])
		}
	}
	m.SetMasterGain(s.MasterGain)
}

// targets returns the target gain of a track, zero if it is disabled, and its
// equal power pan coefficients.
func (m *Mixer) targets(track int) (gain, left, right float32) {
	t := &m.tracks[track]
	if t.enabled.Load() {
		gain = math.Float32frombits(t.gain.Load())
	}
	left, right = panGains(float64(math.Float32frombits(t.pan.Load())))
	return gain, left, right
}

func (m *Mixer) masterTarget() float32 {
	return math.Float32frombits(m.master.Load())
}

// panGains returns the left and right coefficients of the equal power pan
// law for a pan position in [-1, 1].
func panGains(pan float64) (left, right float32) {
	angle := (pan + 1) * math.Pi / 4
	return float32(math.Cos(angle)), float32(math.Sin(angle))
}

// smoother approaches a target value with a one-pole lowpass.
type smoother struct {
	value float32
}

const smootherEpsilon = 1e-5

// fill writes the values of the parameter for the next len(dst) samples into
// dst. It reports false if the whole span is at the constant target, in which
// case dst is left untouched.
func (s *smoother) fill(dst []float32, target, coef float32) bool {
	if s.value == target {
		return false
	}
	v := s.value
	for i := range dst {
		v += (target - v) * coef
		if math.Abs(float64(target-v)) < smootherEpsilon {
			v = target
		}
		dst[i] = v
	}
	s.value = v
	return true
}

func smoothingCoef(sampleRate int) float32 {
	if sampleRate <= 0 {
		return 1
	}
	return float32(1 - math.Exp(-1/(SmoothingTime*float64(sampleRate))))
}

// Settings returns a snapshot of the current targets.
func (m *Mixer) Settings() MixSettings {
	s := MixSettings{
		Gains:      make([]float64, len(m.tracks)),
		Pans:       make([]float64, len(m.tracks)),
		Enabled:    make([]bool, len(m.tracks)),
		MasterGain: trackmix.AmpToDB(float64(m.masterTarget())),
	}
	for i := range m.tracks {
		t := &m.tracks[i]
		s.Gains[i] = trackmix.AmpToDB(float64(math.Float32frombits(t.gain.Load())))
		s.Pans[i] = float64(math.Float32frombits(t.pan.Load()))
		s.Enabled[i] = t.enabled.Load()
	}
	return s
}
