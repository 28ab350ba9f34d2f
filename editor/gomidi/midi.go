// Package gomidi connects MIDI inputs to a session through rtmidi. Transport
// realtime messages start, continue and stop playback; channel volume (CC 7)
// and pan (CC 10) control the track with the index of the MIDI channel.
package gomidi

import (
	"errors"
	"fmt"
	"math"

	"github.com/trackmix/trackmix/editor"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	RTMIDIContext struct {
		driver    *rtmididrv.Driver
		currentIn drivers.In
		stop      func()
		broker    *editor.Broker
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}
)

const (
	ccVolume = 7
	ccPan    = 10

	// minGain is the gain of CC 7 value 0.
	minGain = -90
)

// NewContext opens the driver. Without a driver the context has no inputs.
func NewContext(broker *editor.Broker) *RTMIDIContext {
	m := RTMIDIContext{broker: broker}
	// there's not much we can do if this fails, so just use m.driver = nil to
	// indicate no driver available
	m.driver, _ = rtmididrv.New()
	return &m
}

func (m *RTMIDIContext) Inputs(yield func(input editor.MIDIInputDevice) bool) {
	if m.driver == nil {
		return
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return
	}
	for i := 0; i < len(ins); i++ {
		if !yield(RTMIDIDevice{context: m, in: ins[i]}) {
			break
		}
	}
}

func (m *RTMIDIContext) Support() editor.MIDISupport {
	if m.driver == nil {
		return editor.MIDISupportNoDriver
	}
	return editor.MIDISupported
}

func (m *RTMIDIContext) Close() {
	if m.driver == nil {
		return
	}
	m.closeCurrent()
	m.driver.Close()
}

func (m *RTMIDIContext) closeCurrent() {
	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
	if m.currentIn != nil && m.currentIn.IsOpen() {
		m.currentIn.Close()
	}
	m.currentIn = nil
}

// Open an input device while closing the currently open if necessary.
func (d RTMIDIDevice) Open() error {
	m := d.context
	if m.currentIn == d.in {
		return nil
	}
	if m.driver == nil {
		return errors.New("no driver available")
	}
	m.closeCurrent()
	if err := d.in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(d.in, m.HandleMessage)
	if err != nil {
		d.in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	m.currentIn, m.stop = d.in, stop
	return nil
}

func (d RTMIDIDevice) Close() error {
	if d.context.currentIn == d.in {
		d.context.closeCurrent()
		return nil
	}
	return d.in.Close()
}

func (d RTMIDIDevice) IsOpen() bool   { return d.in.IsOpen() }
func (d RTMIDIDevice) String() string { return d.in.String() }

// HandleMessage is called by the driver for every incoming message. Messages
// that do not fit in the broker are dropped.
func (m *RTMIDIContext) HandleMessage(msg midi.Message, timestampms int32) {
	if s, ok := Translate(msg); ok {
		editor.TrySend(m.broker.ToSession, s)
	}
}

// Translate converts a MIDI message into a control message for the session.
func Translate(msg midi.Message) (editor.MsgToSession, bool) {
	switch {
	case msg.Is(midi.StartMsg):
		return editor.MsgToSession{Transport: editor.TransportPlay}, true
	case msg.Is(midi.ContinueMsg):
		return editor.MsgToSession{Transport: editor.TransportResume}, true
	case msg.Is(midi.StopMsg):
		return editor.MsgToSession{Transport: editor.TransportStop}, true
	}
	var channel, controller, value uint8
	if !msg.GetControlChange(&channel, &controller, &value) {
		return editor.MsgToSession{}, false
	}
	ret := editor.MsgToSession{Channel: int(channel)}
	switch controller {
	case ccVolume:
		ret.HasGain, ret.Gain = true, VolumeToGain(value)
	case ccPan:
		ret.HasPan, ret.Pan = true, ValueToPan(value)
	default:
		return editor.MsgToSession{}, false
	}
	return ret, true
}

// VolumeToGain maps a channel volume value to dB with the curve
// 40 log10(v/127), rounded to 0.1 dB.
func VolumeToGain(v uint8) float64 {
	if v == 0 {
		return minGain
	}
	db := 40 * math.Log10(float64(v)/127)
	return max(minGain, math.Round(db*10)/10)
}

// ValueToPan maps a pan value to [-1, 1] with 64 as the centre.
func ValueToPan(v uint8) float64 {
	return max(-1, min(1, (float64(v)-64)/63))
}
