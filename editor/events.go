package editor

import (
	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/waveform"
)

type (
	// Topic is a typed list of subscribers. Emit calls them synchronously,
	// in subscription order, on the goroutine that emits.
	Topic[T any] struct {
		name   string
		subs   []subscription[T]
		nextID int
	}

	subscription[T any] struct {
		id int
		fn func(T)
	}

	// Events holds the topics published by a Session. A field topic fires
	// only when its field changed; State fires on every update, after the
	// fields, with the full snapshot.
	Events struct {
		Playhead           Topic[int]
		ViewRange          Topic[trackmix.Range]
		SelRange           Topic[*trackmix.Range]
		Playing            Topic[PlayingState]
		Loop               Topic[bool]
		TrackNames         Topic[[]string]
		TrackGains         Topic[[]float64]
		TrackMutes         Topic[[]bool]
		TrackSolos         Topic[[]bool]
		TrackPans          Topic[[]float64]
		MasterGain         Topic[float64]
		Grouping           Topic[Grouping]
		Configuration      Topic[Configuration]
		State              Topic[State]
		SelRangeToPlay     Topic[*trackmix.Range]
		PlayerStateUpdated Topic[PlayerStateUpdate]
		Waveform           Topic[*waveform.Slice]
	}
)

func newEvents() Events {
	return Events{
		Playhead:           Topic[int]{name: "playhead"},
		ViewRange:          Topic[trackmix.Range]{name: "viewRange"},
		SelRange:           Topic[*trackmix.Range]{name: "selRange"},
		Playing:            Topic[PlayingState]{name: "playing"},
		Loop:               Topic[bool]{name: "loop"},
		TrackNames:         Topic[[]string]{name: "trackNames"},
		TrackGains:         Topic[[]float64]{name: "trackGains"},
		TrackMutes:         Topic[[]bool]{name: "trackMutes"},
		TrackSolos:         Topic[[]bool]{name: "trackSolos"},
		TrackPans:          Topic[[]float64]{name: "trackPans"},
		MasterGain:         Topic[float64]{name: "masterGain"},
		Grouping:           Topic[Grouping]{name: "grouping"},
		Configuration:      Topic[Configuration]{name: "configuration"},
		State:              Topic[State]{name: "state"},
		SelRangeToPlay:     Topic[*trackmix.Range]{name: "selRangeToPlay"},
		PlayerStateUpdated: Topic[PlayerStateUpdate]{name: "playerStateUpdated"},
		Waveform:           Topic[*waveform.Slice]{name: "waveform"},
	}
}

func (t *Topic[T]) Name() string { return t.name }
func (t *Topic[T]) Len() int     { return len(t.subs) }

// Subscribe adds fn to the topic and returns a function removing it again.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.nextID++
	id := t.nextID
	subs := make([]subscription[T], len(t.subs), len(t.subs)+1)
	copy(subs, t.subs)
	t.subs = append(subs, subscription[T]{id: id, fn: fn})
	return func() {
		for i, s := range t.subs {
			if s.id == id {
				subs := make([]subscription[T], 0, len(t.subs)-1)
				subs = append(subs, t.subs[:i]...)
				t.subs = append(subs, t.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every subscriber with v. Subscribers added or removed during
// Emit take effect on the next Emit.
func (t *Topic[T]) Emit(v T) {
	for _, s := range t.subs {
		s.fn(v)
	}
}
