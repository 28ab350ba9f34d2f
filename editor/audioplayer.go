package editor

import (
	"context"
	"fmt"
	"log"

	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/engine"
	"github.com/trackmix/trackmix/rpc"
)

// AudioPlayer drives an engine from the control goroutine. Transport
// commands travel to the engine as calls and take effect at the start of
// the next quantum; mix changes are written straight into the engine's
// atomics.
type AudioPlayer struct {
	engine   *engine.Engine
	endpoint *rpc.Endpoint
	ended    func(pos int)
	logger   *log.Logger
	closing  bool
}

// NewAudioPlayer creates an engine for buffer talking to the control side
// through the broker's engine channels. The audio callback must call
// Engine().Process.
func NewAudioPlayer(buffer trackmix.Buffer, b *Broker, opts engine.Options, logger *log.Logger) *AudioPlayer {
	p := &AudioPlayer{
		engine: engine.New(buffer, b.FromEngine, b.ToEngine, opts),
		logger: logger,
	}
	p.endpoint = rpc.NewEndpoint(b.ToEngine, b.FromEngine, rpc.Table{
		engine.CmdEnded: {Name: "ended", Handler: p.handleEnded},
	}, rpc.Forward)
	return p
}

func (p *AudioPlayer) Engine() *engine.Engine { return p.engine }

func (p *AudioPlayer) Play(start, from, to int, loop bool) {
	p.send(engine.CmdPlay, start, from, to, loop)
}

func (p *AudioPlayer) Pause() { p.send(engine.CmdStop) }

func (p *AudioPlayer) Resume() { p.send(engine.CmdResume) }

func (p *AudioPlayer) Stop() { p.send(engine.CmdStop) }

func (p *AudioPlayer) Seek(pos int) { p.send(engine.CmdSetPlayhead, pos) }

func (p *AudioPlayer) SetLoopRange(from, to int) { p.send(engine.CmdSetLoopRange, from, to) }

// SetMeterWindow resizes the windows of the engine's peak meters, in
// samples.
func (p *AudioPlayer) SetMeterWindow(size int) { p.send(engine.CmdSetMeterWindow, size) }

func (p *AudioPlayer) Apply(u PlayerStateUpdate) {
	m := p.engine.Mixer()
	if u.HasTrackGains {
		for i, g := range u.TrackGains {
			m.SetGain(i, g)
		}
	}
	if u.HasEnabled {
		for i, e := range u.Enabled {
			m.SetEnabled(i, e)
		}
	}
	if u.HasTrackPans {
		for i, pan := range u.TrackPans {
			m.SetPan(i, pan)
		}
	}
	if u.HasMasterGain {
		m.SetMasterGain(u.MasterGain)
	}
	if u.HasLoop {
		p.send(engine.CmdSetLoop, u.Loop)
	}
}

func (p *AudioPlayer) Playhead() int { return p.engine.Playhead() }

// QueryPlayhead asks the engine for its play head and waits for the answer,
// which reflects every command sent before it. The engine must be processing
// audio on another goroutine.
func (p *AudioPlayer) QueryPlayhead(ctx context.Context) (int, error) {
	v, err := p.endpoint.Call(ctx, engine.CmdGetPlayhead)
	if err != nil {
		return 0, err
	}
	pos, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("engine returned play head %v of type %T", v, v)
	}
	return pos, nil
}

func (p *AudioPlayer) OnEnded(f func(pos int)) { p.ended = f }

func (p *AudioPlayer) Poll() { p.endpoint.Poll() }

// TrackPeaks returns the peak of every track since the previous call.
func (p *AudioPlayer) TrackPeaks() []float32 { return p.engine.TrackMeter().PeakSinceLastGet() }

// MasterPeaks returns the peak of the left and right master channel since
// the previous call.
func (p *AudioPlayer) MasterPeaks() []float32 { return p.engine.MasterMeter().PeakSinceLastGet() }

// Close silences the engine at once and asks it to destroy itself on its
// next quantum. The endpoint is disposed when the engine confirms, failing
// the calls still queued behind the destroy command.
func (p *AudioPlayer) Close() {
	if p.closing {
		return
	}
	p.closing = true
	p.engine.Silence()
	p.endpoint.Then(engine.CmdDestroy, func(c *rpc.Call) {
		p.logFailure(c)
		p.endpoint.Dispose()
	})
}

func (p *AudioPlayer) send(cmd rpc.Command, args ...any) {
	p.endpoint.Then(cmd, p.logFailure, args...)
}

func (p *AudioPlayer) logFailure(c *rpc.Call) {
	if c.Err != nil && p.logger != nil {
		p.logger.Printf("engine call %d failed: %v", c.Command, c.Err)
	}
}

// handleEnded reports the end of playback unless a transport command is
// still on its way to the engine, which makes the report stale.
func (p *AudioPlayer) handleEnded(args []any) (any, error) {
	pos, err := rpc.Arg[int](args, 0)
	if err != nil {
		return nil, err
	}
	if p.endpoint.Pending() == 0 && p.ended != nil {
		p.ended(pos)
	}
	return nil, nil
}
