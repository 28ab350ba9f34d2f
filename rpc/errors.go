package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrDisposed rejects calls made on, or received by, a disposed endpoint.
	ErrDisposed = errors.New("rpc: endpoint disposed")
	// ErrQueueFull rejects a call that could not be written to the transport.
	ErrQueueFull = errors.New("rpc: transport full")
	// ErrUnknownCommand is returned for a command missing from the table.
	ErrUnknownCommand = errors.New("rpc: unknown command")
	// ErrArgument is returned when an argument is missing or has a wrong type.
	ErrArgument = errors.New("rpc: bad argument")
)

// RemoteError is the error of a call whose handler failed on the other side.
type RemoteError struct {
	Command Command
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc: remote call %d failed: %s", e.Command, e.Message)
}
