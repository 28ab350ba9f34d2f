// Package editor contains the control side of trackmix: the Session holding
// the authoritative editing state, its typed events, the grouping of tracks
// and the proxies talking to the audio engine and the waveform worker.
//
// A Session is not safe for concurrent use. It lives on one control
// goroutine, which also pumps the replies and reverse calls of the engine and
// the worker with ProcessMessages.
package editor

import (
	"context"
	"fmt"
	"log"
	"math"
	"slices"
	"strconv"

	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/engine"
	"github.com/trackmix/trackmix/rpc"
	"github.com/trackmix/trackmix/waveform"
)

type (
	Session struct {
		Events Events

		state    State
		buffer   trackmix.Buffer
		player   Player
		broker   *Broker
		worker   *rpc.Endpoint
		waveform *waveform.Slice
		pyramid  waveform.PyramidOptions
		logger   *log.Logger
		// startPos is where playback starts when there is no selection. It
		// only changes when the play head is set explicitly.
		startPos int
	}

	SessionOptions struct {
		// Names of the tracks; missing names default to the track number.
		Names         []string
		Player        Player
		Broker        *Broker
		Logger        *log.Logger
		Configuration Configuration
		Loop          bool
		Pyramid       waveform.PyramidOptions
	}

	// Player is the audio side of a session. Its methods must not block.
	Player interface {
		// Play starts playback at start, looping or ending at the range
		// [from, to).
		Play(start, from, to int, loop bool)
		Pause()
		Resume()
		Stop()
		Seek(pos int)
		SetLoopRange(from, to int)
		// Apply applies the audio relevant parts of a state change.
		Apply(PlayerStateUpdate)
		// Playhead returns the latest play head published by the audio
		// side.
		Playhead() int
		// OnEnded sets the function called when playback reaches its end
		// without looping. It is called from Poll.
		OnEnded(func(pos int))
		// Poll handles the replies and calls waiting from the audio side.
		Poll()
		Close()
	}
)

// NewSession returns a session editing buffer.
func NewSession(buffer trackmix.Buffer, opts SessionOptions) *Session {
	n := buffer.NumChannels()
	length := buffer.Length()
	s := &Session{
		Events:  newEvents(),
		buffer:  buffer,
		player:  opts.Player,
		broker:  opts.Broker,
		logger:  opts.Logger,
		pyramid: opts.Pyramid,
	}
	cfg := opts.Configuration
	if cfg == (Configuration{}) {
		cfg = DefaultConfiguration
	}
	s.state = State{
		Length:        length,
		SampleRate:    buffer.SampleRate,
		ViewRange:     trackmix.Range{Start: 0, End: length},
		Loop:          opts.Loop,
		TrackNames:    make([]string, n),
		TrackGains:    make([]float64, n),
		TrackMutes:    make([]bool, n),
		TrackSolos:    make([]bool, n),
		TrackPans:     make([]float64, n),
		Grouping:      DefaultGrouping(n),
		Configuration: cfg,
	}
	for i := range s.state.TrackNames {
		if i < len(opts.Names) && opts.Names[i] != "" {
			s.state.TrackNames[i] = opts.Names[i]
		} else {
			s.state.TrackNames[i] = strconv.Itoa(i + 1)
		}
	}
	if s.broker != nil {
		s.worker = rpc.NewEndpoint(s.broker.ToWorker, s.broker.FromWorker, nil, rpc.Forward)
	}
	if s.player != nil {
		s.player.OnEnded(s.ended)
		s.Events.PlayerStateUpdated.Subscribe(s.player.Apply)
		s.player.Apply(PlayerStateUpdate{
			HasTrackGains: true, TrackGains: s.state.TrackGains,
			HasEnabled: true, Enabled: s.state.EnabledChannels(),
			HasTrackPans: true, TrackPans: s.state.TrackPans,
			HasMasterGain: true, MasterGain: s.state.MasterGain,
			HasLoop: true, Loop: s.state.Loop,
		})
	}
	return s
}

// State returns a snapshot of the session state.
func (s *Session) State() State            { return s.state }
func (s *Session) Buffer() trackmix.Buffer { return s.buffer }
func (s *Session) Length() int             { return s.state.Length }
func (s *Session) Player() Player          { return s.player }

func (s *Session) EnabledChannels() []bool {
	return s.state.EnabledChannels()
}

// setState replaces the state and notifies the subscribers of every field
// that changed, then of the whole state, then the player of the audio
// relevant changes.
func (s *Session) setState(next State) {
	prev := s.state
	s.state = next
	e := &s.Events
	var upd PlayerStateUpdate
	if prev.Playhead != next.Playhead {
		e.Playhead.Emit(next.Playhead)
	}
	if !rangesEqual(prev.SelRange, next.SelRange) {
		e.SelRange.Emit(next.SelRange)
	}
	if prev.ViewRange != next.ViewRange {
		e.ViewRange.Emit(next.ViewRange)
	}
	if prev.Playing != next.Playing {
		e.Playing.Emit(next.Playing)
	}
	if prev.Loop != next.Loop {
		e.Loop.Emit(next.Loop)
		upd.HasLoop, upd.Loop = true, next.Loop
	}
	if !slices.Equal(prev.TrackNames, next.TrackNames) {
		e.TrackNames.Emit(next.TrackNames)
	}
	if !slices.Equal(prev.TrackGains, next.TrackGains) {
		e.TrackGains.Emit(next.TrackGains)
		upd.HasTrackGains, upd.TrackGains = true, next.TrackGains
	}
	mutes := !slices.Equal(prev.TrackMutes, next.TrackMutes)
	if mutes {
		e.TrackMutes.Emit(next.TrackMutes)
	}
	solos := !slices.Equal(prev.TrackSolos, next.TrackSolos)
	if solos {
		e.TrackSolos.Emit(next.TrackSolos)
	}
	if mutes || solos {
		upd.HasEnabled, upd.Enabled = true, next.EnabledChannels()
	}
	if !slices.Equal(prev.TrackPans, next.TrackPans) {
		e.TrackPans.Emit(next.TrackPans)
		upd.HasTrackPans, upd.TrackPans = true, next.TrackPans
	}
	if prev.MasterGain != next.MasterGain {
		e.MasterGain.Emit(next.MasterGain)
		upd.HasMasterGain, upd.MasterGain = true, next.MasterGain
	}
	if !slices.Equal(prev.Grouping, next.Grouping) {
		e.Grouping.Emit(next.Grouping)
	}
	if prev.Configuration != next.Configuration {
		e.Configuration.Emit(next.Configuration)
	}
	e.State.Emit(next)
	if !upd.Empty() {
		e.PlayerStateUpdated.Emit(upd)
	}
}

// SetGain sets the gain of a channel, rounded to 0.1 dB, and of the tracks
// linked after it.
func (s *Session) SetGain(channel int, db float64) {
	if channel < 0 || channel >= s.state.NumChannels() {
		return
	}
	next := s.state
	next.TrackGains = slices.Clone(s.state.TrackGains)
	propagateGain(next.TrackGains, next.Grouping, next.Grouping.Position(channel), math.Round(db*10)/10)
	s.setState(next)
}

// propagateGain writes v to the track at position pos and to every linked
// track following it.
func propagateGain(gains []float64, g Grouping, pos int, v float64) {
	if pos < 0 || pos >= len(g) {
		return
	}
	gains[g[pos].ID] = v
	for p := pos + 1; p < len(g) && g[p].Linked; p++ {
		gains[g[p].ID] = v
	}
}

// SetLinked links or unlinks the track at a display position with the one
// before it. The first position cannot be linked. Linking, even an entry
// that is already linked, copies the gain of the predecessor onto the entry
// and the rest of its chain.
func (s *Session) SetLinked(pos int, linked bool) {
	if pos <= 0 || pos >= len(s.state.Grouping) || (!linked && !s.state.Grouping[pos].Linked) {
		return
	}
	next := s.state
	next.Grouping = slices.Clone(s.state.Grouping)
	next.Grouping[pos].Linked = linked
	if linked {
		next.TrackGains = slices.Clone(s.state.TrackGains)
		propagateGain(next.TrackGains, next.Grouping, pos, next.TrackGains[next.Grouping[pos-1].ID])
	}
	s.setState(next)
}

// SetGrouping replaces the grouping if it is a valid permutation of the
// tracks.
func (s *Session) SetGrouping(g Grouping) bool {
	if !g.Valid(s.state.NumChannels()) {
		return false
	}
	next := s.state
	next.Grouping = slices.Clone(g)
	s.setState(next)
	return true
}

// SetGroupingString decodes and applies a grouping string.
func (s *Session) SetGroupingString(str string) error {
	g, err := ParseGrouping(str, s.state.NumChannels())
	if err != nil {
		return err
	}
	if !s.SetGrouping(g) {
		return fmt.Errorf("%w: %q does not match %d tracks", ErrInvalidGrouping, str, s.state.NumChannels())
	}
	return nil
}

// MoveTrack moves the group containing display position from to position
// to.
func (s *Session) MoveTrack(from, to int) {
	next := s.state
	next.Grouping = s.state.Grouping.Move(from, to)
	s.setState(next)
}

func (s *Session) SetMute(channel int, mute bool) {
	if channel < 0 || channel >= s.state.NumChannels() {
		return
	}
	next := s.state
	next.TrackMutes = slices.Clone(s.state.TrackMutes)
	next.TrackMutes[channel] = mute
	s.setState(next)
}

func (s *Session) SetSolo(channel int, solo bool) {
	if channel < 0 || channel >= s.state.NumChannels() {
		return
	}
	next := s.state
	next.TrackSolos = slices.Clone(s.state.TrackSolos)
	next.TrackSolos[channel] = solo
	s.setState(next)
}

// SetPan sets the pan of a channel, clamped to [-1, 1].
func (s *Session) SetPan(channel int, pan float64) {
	if channel < 0 || channel >= s.state.NumChannels() {
		return
	}
	next := s.state
	next.TrackPans = slices.Clone(s.state.TrackPans)
	next.TrackPans[channel] = max(-1, min(1, pan))
	s.setState(next)
}

func (s *Session) SetTrackName(channel int, name string) {
	if channel < 0 || channel >= s.state.NumChannels() {
		return
	}
	next := s.state
	next.TrackNames = slices.Clone(s.state.TrackNames)
	next.TrackNames[channel] = name
	s.setState(next)
}

func (s *Session) SetMasterGain(db float64) {
	next := s.state
	next.MasterGain = db
	s.setState(next)
}

func (s *Session) SetLoop(loop bool) {
	next := s.state
	next.Loop = loop
	s.setState(next)
}

func (s *Session) SetConfiguration(c Configuration) {
	if !c.Unit.Valid() {
		c.Unit = s.state.Configuration.Unit
	}
	next := s.state
	next.Configuration = c
	s.setState(next)
}

// MixSettings returns the mix of the current state, for bouncing.
func (s *Session) MixSettings() engine.MixSettings {
	return engine.MixSettings{
		Gains:      slices.Clone(s.state.TrackGains),
		Pans:       slices.Clone(s.state.TrackPans),
		Enabled:    s.state.EnabledChannels(),
		MasterGain: s.state.MasterGain,
	}
}

// Bounce renders the buffer through the current mix.
func (s *Session) Bounce(ctx context.Context) (trackmix.Buffer, error) {
	return engine.Render(ctx, s.buffer, s.MixSettings())
}

// NormalizeMaster sets the master gain so that the peak of the mix reaches
// full scale.
func (s *Session) NormalizeMaster(ctx context.Context) error {
	db, err := engine.Normalize(ctx, s.buffer, s.MixSettings())
	if err != nil {
		return fmt.Errorf("could not normalize: %w", err)
	}
	s.SetMasterGain(db)
	return nil
}

// ProcessMessages handles, without blocking, everything waiting from the
// engine, the worker and the MIDI input. It should be called regularly from
// the control goroutine, e.g. once per frame.
func (s *Session) ProcessMessages() {
	if s.player != nil {
		s.player.Poll()
	}
	if s.worker != nil {
		s.worker.Poll()
	}
	if s.broker == nil {
		return
	}
	for {
		select {
		case msg := <-s.broker.ToSession:
			s.handleMessage(msg)
		default:
			return
		}
	}
}

func (s *Session) handleMessage(msg MsgToSession) {
	switch msg.Transport {
	case TransportPlay:
		s.Play()
	case TransportStop:
		s.Stop()
	case TransportPause:
		s.Pause()
	case TransportResume:
		s.Resume()
	case TransportToggle:
		s.TogglePlay()
	}
	if msg.HasPlayhead {
		s.SetPlayhead(float64(msg.Playhead))
	}
	if msg.HasGain {
		s.SetGain(msg.Channel, msg.Gain)
	}
	if msg.HasPan {
		s.SetPan(msg.Channel, msg.Pan)
	}
	if msg.HasMute {
		s.SetMute(msg.Channel, msg.Mute)
	}
	if msg.HasMaster {
		s.SetMasterGain(msg.MasterGain)
	}
}

// Close stops the player and asks the worker to close.
func (s *Session) Close() {
	if s.player != nil {
		s.player.Close()
	}
	if s.worker != nil {
		s.worker.Dispose()
	}
	if s.broker != nil {
		TrySend(s.broker.CloseWorker, struct{}{})
	}
}

func (s *Session) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
