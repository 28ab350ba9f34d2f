package editor

import (
	"context"
	"fmt"

	"github.com/trackmix/trackmix/rpc"
	"github.com/trackmix/trackmix/waveform"
)

// Waveform returns the waveform of the buffer, or nil if it has not been
// built yet.
func (s *Session) Waveform() *waveform.Slice {
	return s.waveform
}

// RequestWaveform builds the waveform pyramid of the buffer. With a broker
// the build runs on the worker and the result arrives through
// ProcessMessages; without one it is built before returning. Either way the
// result is published on Events.Waveform.
func (s *Session) RequestWaveform() error {
	raw := s.buffer.Channels
	if s.worker == nil {
		p, err := waveform.BuildPyramid(context.Background(), raw, 1, s.pyramid)
		if err != nil {
			return fmt.Errorf("could not build waveform: %w", err)
		}
		s.setWaveform(raw, p)
		return nil
	}
	s.worker.Then(waveform.CmdBuildPyramid, func(c *rpc.Call) {
		if c.Err != nil {
			s.logf("could not build waveform: %v", c.Err)
			return
		}
		p, ok := c.Value.(*waveform.Pyramid)
		if !ok {
			s.logf("worker returned %T instead of a pyramid", c.Value)
			return
		}
		s.setWaveform(raw, p)
	}, raw, 1)
	return nil
}

func (s *Session) setWaveform(raw [][]float32, p *waveform.Pyramid) {
	slice := waveform.NewSlice(raw, p)
	s.waveform = &slice
	s.Events.Waveform.Emit(s.waveform)
}
