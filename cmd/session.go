package cmd

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/config"
	"github.com/trackmix/trackmix/editor"
	"github.com/trackmix/trackmix/formats"
	"github.com/trackmix/trackmix/oto"
)

// Session bundles what the commands set up around an editing session.
type Session struct {
	*editor.Session
	Player *editor.AudioPlayer
	Broker *editor.Broker
	MIDI   editor.MIDIContext
}

// OpenSession decodes the files into one buffer and starts a session with
// an audio player, the waveform worker and, if cfg names one, a MIDI input.
func OpenSession(ctx context.Context, cfg config.Config, paths []string, logger *log.Logger) (*Session, error) {
	buf, names, err := formats.LoadAll(ctx, paths)
	if err != nil {
		return nil, err
	}
	if buf.Length() == 0 {
		return nil, errors.New("the files contain no audio")
	}
	broker := editor.NewBroker()
	player := editor.NewAudioPlayer(buf, broker, cfg.Engine(), logger)
	editor.StartWorker(broker, cfg.Pyramid(), logger)
	s := &Session{
		Session: editor.NewSession(buf, editor.SessionOptions{
			Names:         names,
			Player:        player,
			Broker:        broker,
			Logger:        logger,
			Configuration: cfg.Editor(),
			Loop:          cfg.Loop,
			Pyramid:       cfg.Pyramid(),
		}),
		Player: player,
		Broker: broker,
		MIDI:   NewMidiContext(broker),
	}
	if cfg.MIDIInput != "" {
		input, err := editor.OpenMIDIInput(s.MIDI, cfg.MIDIInput)
		switch {
		case err != nil:
			logger.Printf("failed to open MIDI input '%s': %v", cfg.MIDIInput, err)
		case input == nil:
			logger.Printf("no MIDI input device found with prefix '%s'", cfg.MIDIInput)
		}
	}
	return s, nil
}

// Close closes the session, the MIDI context and waits for the worker.
func (s *Session) Close() {
	s.Session.Close()
	s.MIDI.Close()
	editor.TimeoutReceive(s.Broker.FinishedWorker, 3*time.Second)
}

// NewAudioContext opens the audio device with the buffer size of cfg.
func NewAudioContext(cfg config.Config, sampleRate int) (trackmix.AudioContext, error) {
	c, err := oto.NewContext(sampleRate, cfg.BufferSize)
	if err != nil {
		return nil, err
	}
	return c, nil
}
