package editor

// Play starts playback, restarting any playback in progress. With a
// selection, playback starts at its start and loops or ends within it;
// otherwise it starts at the last explicitly set play head.
func (s *Session) Play() {
	if s.player == nil {
		return
	}
	start, from, to := s.startPos, 0, s.state.Length
	if sel := s.state.SelRange; sel != nil {
		start, from, to = sel.Start, sel.Start, sel.End
	}
	s.player.Play(start, from, to, s.state.Loop)
	next := s.state
	next.Playhead = start
	next.Playing = Playing
	s.setState(next)
}

// Pause stops playback keeping the play head where it is.
func (s *Session) Pause() {
	if s.player == nil || s.state.Playing != Playing {
		return
	}
	s.player.Pause()
	next := s.state
	next.Playhead = s.player.Playhead()
	next.Playing = Paused
	s.setState(next)
}

// Resume continues paused playback. A stopped session starts playing.
func (s *Session) Resume() {
	switch {
	case s.player == nil:
		return
	case s.state.Playing == Stopped:
		s.Play()
		return
	case s.state.Playing == Playing:
		return
	}
	s.player.Resume()
	next := s.state
	next.Playing = Playing
	s.setState(next)
}

// Stop stops playback and returns the play head to where playback started.
func (s *Session) Stop() {
	if s.player == nil || s.state.Playing == Stopped {
		return
	}
	s.player.Stop()
	next := s.state
	next.Playing = Stopped
	next.Playhead = s.startPos
	if sel := s.state.SelRange; sel != nil {
		next.Playhead = sel.Start
	}
	s.setState(next)
}

func (s *Session) TogglePlay() {
	switch s.state.Playing {
	case Playing:
		s.Pause()
	case Paused:
		s.Resume()
	default:
		s.Play()
	}
}

// UpdatePlayhead copies the play head published by the engine into the
// state. It is meant to be called once per displayed frame.
func (s *Session) UpdatePlayhead() {
	if s.player == nil || s.state.Playing != Playing {
		return
	}
	if pos := s.player.Playhead(); pos != s.state.Playhead {
		next := s.state
		next.Playhead = pos
		s.setState(next)
	}
}

func (s *Session) ended(pos int) {
	if s.state.Playing == Stopped {
		return
	}
	next := s.state
	next.Playing = Stopped
	next.Playhead = max(0, min(s.state.Length, pos))
	s.setState(next)
}
