package editor

import (
	"time"

	"github.com/trackmix/trackmix/rpc"
)

type (
	// Broker holds the channels connecting the session with the audio
	// engine, the background waveform worker and the MIDI input. Each
	// recipient has its own channel.
	//
	// For closing the worker goroutine there are two channels: CloseWorker
	// has a capacity of 1, so an empty message can always be sent to it
	// without blocking; if it is already full, someone else already asked
	// the worker to close. FinishedWorker is closed by the worker when it
	// has stopped. Wait for it with a timeout to avoid deadlocks:
	//    select {
	//      case <-FinishedWorker:
	//      case <-time.After(3 * time.Second):
	//    }
	Broker struct {
		ToEngine   chan rpc.Message
		FromEngine chan rpc.Message
		ToWorker   chan rpc.Message
		FromWorker chan rpc.Message
		ToSession  chan MsgToSession

		CloseWorker    chan struct{}
		FinishedWorker chan struct{}
	}

	// MsgToSession is a control message for the session from outside the
	// control goroutine, typically from a MIDI input. Only the parts with
	// their Has flag set are applied.
	MsgToSession struct {
		Transport Transport

		HasPlayhead bool
		Playhead    int

		Channel    int
		HasGain    bool
		Gain       float64 // dB
		HasPan     bool
		Pan        float64
		HasMute    bool
		Mute       bool
		HasMaster  bool
		MasterGain float64 // dB
	}

	Transport int
)

const (
	TransportNone Transport = iota
	TransportPlay
	TransportStop
	TransportPause
	TransportResume
	// TransportToggle plays when stopped, pauses when playing and resumes
	// when paused.
	TransportToggle
)

func NewBroker() *Broker {
	return &Broker{
		ToEngine:       make(chan rpc.Message, 1024),
		FromEngine:     make(chan rpc.Message, 1024),
		ToWorker:       make(chan rpc.Message, 1024),
		FromWorker:     make(chan rpc.Message, 1024),
		ToSession:      make(chan MsgToSession, 1024),
		CloseWorker:    make(chan struct{}, 1),
		FinishedWorker: make(chan struct{}),
	}
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive is a helper function to block until a value is received from a
// channel, or timing out after t. ok will be false if the timeout occurred or
// if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
