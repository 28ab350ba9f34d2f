package editor

import (
	"slices"

	"github.com/trackmix/trackmix"
)

type (
	PlayingState int

	// State is a snapshot of everything editable in a session. The slices
	// are never modified in place: every change allocates a new slice, so a
	// snapshot handed to a subscriber stays valid.
	State struct {
		Length        int
		SampleRate    int
		Playhead      int
		SelRange      *trackmix.Range
		ViewRange     trackmix.Range
		Playing       PlayingState
		Loop          bool
		TrackNames    []string
		TrackGains    []float64 // dB
		TrackMutes    []bool
		TrackSolos    []bool
		TrackPans     []float64
		MasterGain    float64 // dB
		Grouping      Grouping
		Configuration Configuration
	}

	// Configuration is the display configuration of a session.
	Configuration struct {
		Unit            trackmix.Unit `yaml:"unit"`
		BeatsPerMinute  float64       `yaml:"beatsperminute"`
		BeatsPerMeasure int           `yaml:"beatspermeasure"`
		Division        int           `yaml:"division"`
	}

	// PlayerStateUpdate holds the audio relevant parts of a state change.
	// Only the parts with their Has flag set changed.
	PlayerStateUpdate struct {
		HasTrackGains bool
		TrackGains    []float64

		HasEnabled bool
		Enabled    []bool

		HasTrackPans bool
		TrackPans    []float64

		HasMasterGain bool
		MasterGain    float64

		HasLoop bool
		Loop    bool
	}
)

const (
	Stopped PlayingState = iota
	Paused
	Playing
)

var DefaultConfiguration = Configuration{
	Unit:            trackmix.UnitTime,
	BeatsPerMinute:  60,
	BeatsPerMeasure: 4,
	Division:        16,
}

func (p PlayingState) String() string {
	switch p {
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	}
	return "stopped"
}

func (c Configuration) Timing(sampleRate int) trackmix.Timing {
	return trackmix.Timing{
		SampleRate:      sampleRate,
		BeatsPerMinute:  c.BeatsPerMinute,
		BeatsPerMeasure: c.BeatsPerMeasure,
		Division:        c.Division,
	}
}

func (s State) NumChannels() int { return len(s.TrackGains) }

// EnabledChannels returns which channels are heard: the soloed ones if any
// channel is soloed, otherwise the ones not muted.
func (s State) EnabledChannels() []bool {
	ret := make([]bool, len(s.TrackMutes))
	if slices.Contains(s.TrackSolos, true) {
		copy(ret, s.TrackSolos)
		return ret
	}
	for i, m := range s.TrackMutes {
		ret[i] = !m
	}
	return ret
}

// PlayheadString formats the play head in the configured unit.
func (s State) PlayheadString() string {
	return trackmix.FormatPosition(s.Playhead, s.Configuration.Unit, s.Configuration.Timing(s.SampleRate))
}

func (u *PlayerStateUpdate) Empty() bool {
	return !u.HasTrackGains && !u.HasEnabled && !u.HasTrackPans && !u.HasMasterGain && !u.HasLoop
}

func rangesEqual(a, b *trackmix.Range) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
