package editor

import "strings"

type (
	// MIDIContext lists the MIDI inputs of the system. Messages of an opened
	// input are translated into MsgToSession and sent to the broker.
	MIDIContext interface {
		Inputs(yield func(input MIDIInputDevice) bool)
		Close()
		Support() MIDISupport
	}

	MIDIInputDevice interface {
		Open() error
		Close() error
		IsOpen() bool
		String() string
	}

	MIDISupport int

	NullMIDIContext struct{}
)

const (
	MIDISupportNotCompiled MIDISupport = iota
	MIDISupportNoDriver
	MIDISupported
)

func (m NullMIDIContext) Inputs(yield func(input MIDIInputDevice) bool) {}
func (m NullMIDIContext) Close()                                         {}
func (m NullMIDIContext) Support() MIDISupport                           { return MIDISupportNotCompiled }

// OpenMIDIInput opens the first input whose name starts with prefix, or the
// first input at all when prefix is empty. It returns nil if there was
// nothing to open.
func OpenMIDIInput(c MIDIContext, prefix string) (MIDIInputDevice, error) {
	for input := range c.Inputs {
		if prefix == "" || strings.HasPrefix(input.String(), prefix) {
			if err := input.Open(); err != nil {
				return nil, err
			}
			return input, nil
		}
	}
	return nil, nil
}
