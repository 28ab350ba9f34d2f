//go:build cgo

package cmd

import (
	"github.com/trackmix/trackmix/editor"
	"github.com/trackmix/trackmix/editor/gomidi"
)

func NewMidiContext(broker *editor.Broker) editor.MIDIContext {
	return gomidi.NewContext(broker)
}
