// Package rpc implements a small asynchronous call channel between two
// execution domains, typically the control goroutine and the audio callback or
// a background worker. Each domain declares a closed set of commands and a
// dispatch table for them; messages travel over plain Go channels and are
// never sent in a blocking fashion, so an endpoint can be polled from a
// real-time context.
//
// Calls made on one endpoint are queued and sent one at a time: the next call
// leaves only after the response to the previous one has arrived. Requests
// arriving from the other side are dispatched through the table and always
// answered, either with a value or with an error.
package rpc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

type (
	// Command identifies a remote procedure within a domain. Every domain
	// declares its own constants starting from 1; the zero value None marks a
	// response message.
	Command uint8

	// Message is the unit of transfer between two endpoints. A request has
	// Call != None and carries Args; a response has Call == None and carries
	// either Value or Error.
	Message struct {
		ID    int64   `json:"id"`
		Call  Command `json:"call,omitempty"`
		Args  []any   `json:"args,omitempty"`
		Value any     `json:"value,omitempty"`
		Error string  `json:"error,omitempty"`
	}

	// Handler executes a command with the given arguments.
	Handler func(args []any) (any, error)

	// Entry describes one command of a Table.
	Entry struct {
		Name    string
		Handler Handler
	}

	// Table is the dispatch table of a domain, indexed by Command. Index 0
	// (None) is never dispatched.
	Table []Entry

	// Direction decides the sign of the call ids an endpoint allocates, so
	// the two sides of a pipe never produce colliding ids.
	Direction int64

	// Call is a pending or finished remote call, modelled after net/rpc.Call.
	// Done receives the call itself once it has been resolved.
	Call struct {
		ID      int64
		Command Command
		Args    []any
		Value   any
		Err     error
		Done    chan *Call

		then func(*Call)
	}

	// Endpoint is one side of a call channel. Calls made with Go are written
	// to out; requests and responses are read from in by Poll, Serve or Call.
	Endpoint struct {
		out   chan<- Message
		in    <-chan Message
		table Table
		dir   Direction

		mu       sync.Mutex
		lastID   int64
		queue    []*Call
		inFlight *Call

		disposed atomic.Bool
	}
)

const None Command = 0

const (
	Forward Direction = 1
	Reverse Direction = -1
)

// NewEndpoint returns an endpoint writing to out and reading from in. Incoming
// requests are dispatched through table, which may be nil for an endpoint that
// only makes calls.
func NewEndpoint(out chan<- Message, in <-chan Message, table Table, dir Direction) *Endpoint {
	if dir != Reverse {
		dir = Forward
	}
	return &Endpoint{out: out, in: in, table: table, dir: dir}
}

// Name returns the name of the command in the table, or a numeric fallback.
func (t Table) Name(c Command) string {
	if int(c) < len(t) && t[c].Name != "" {
		return t[c].Name
	}
	return fmt.Sprintf("command(%d)", c)
}

func (t Table) lookup(c Command) (Handler, bool) {
	if c == None || int(c) >= len(t) || t[c].Handler == nil {
		return nil, false
	}
	return t[c].Handler, true
}

// Go queues a call of cmd and returns immediately. The returned call is
// resolved when the response arrives and is handled by Poll, Serve or Call.
func (e *Endpoint) Go(cmd Command, args ...any) *Call {
	return e.Then(cmd, nil, args...)
}

// Then is like Go, but also runs done on the goroutine that handles the
// response, after the call has been resolved.
func (e *Endpoint) Then(cmd Command, done func(*Call), args ...any) *Call {
	call := &Call{Command: cmd, Args: args, Done: make(chan *Call, 1), then: done}
	if e.disposed.Load() {
		call.resolve(nil, ErrDisposed)
		return call
	}
	e.mu.Lock()
	e.lastID += int64(e.dir)
	call.ID = e.lastID
	e.queue = append(e.queue, call)
	failed := e.sendNext()
	e.mu.Unlock()
	resolveAll(failed, ErrQueueFull)
	return call
}

// Call queues a call of cmd and waits for its response, handling incoming
// traffic while waiting. ctx only bounds the wait; the call itself is not
// cancelled remotely.
func (e *Endpoint) Call(ctx context.Context, cmd Command, args ...any) (any, error) {
	call := e.Go(cmd, args...)
	for {
		select {
		case <-call.Done:
			return call.Value, call.Err
		case msg := <-e.in:
			e.Handle(msg)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Poll handles all messages currently waiting in the input channel and
// returns without blocking. It returns the number of messages handled.
func (e *Endpoint) Poll() int {
	n := 0
	for {
		select {
		case msg := <-e.in:
			e.Handle(msg)
			n++
		default:
			return n
		}
	}
}

// Serve handles incoming messages until ctx is done or the input channel is
// closed.
func (e *Endpoint) Serve(ctx context.Context) error {
	for {
		select {
		case msg, ok := <-e.in:
			if !ok {
				return nil
			}
			e.Handle(msg)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Handle processes a single incoming message: a response resolves the call
// in flight, a request is dispatched through the table and answered.
func (e *Endpoint) Handle(msg Message) {
	if msg.Call == None {
		e.handleResponse(msg)
		return
	}
	value, err := e.dispatch(msg)
	resp := Message{ID: msg.ID, Value: value}
	if err != nil {
		resp = Message{ID: msg.ID, Error: err.Error()}
	}
	// the other side has at most one request in flight, so the out channel
	// always has room for its response when its capacity is at least 2
	trySend(e.out, resp)
}

func (e *Endpoint) dispatch(msg Message) (value any, err error) {
	if e.disposed.Load() {
		return nil, ErrDisposed
	}
	handler, ok := e.table.lookup(msg.Call)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, msg.Call)
	}
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, fmt.Errorf("%s panicked: %v", e.table.Name(msg.Call), r)
		}
	}()
	return handler(msg.Args)
}

func (e *Endpoint) handleResponse(msg Message) {
	e.mu.Lock()
	call := e.inFlight
	if call == nil || call.ID != msg.ID {
		e.mu.Unlock()
		return // stale response of a call rejected by Dispose
	}
	e.inFlight = nil
	failed := e.sendNext()
	e.mu.Unlock()
	if msg.Error != "" {
		call.resolve(nil, &RemoteError{Command: call.Command, Message: msg.Error})
	} else {
		call.resolve(msg.Value, nil)
	}
	resolveAll(failed, ErrQueueFull)
}

// sendNext sends the head of the queue if nothing is in flight. Calls that
// cannot be sent are removed and returned for rejection outside the lock.
func (e *Endpoint) sendNext() (failed []*Call) {
	for e.inFlight == nil && len(e.queue) > 0 {
		call := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		if trySend(e.out, Message{ID: call.ID, Call: call.Command, Args: call.Args}) {
			e.inFlight = call
			return failed
		}
		failed = append(failed, call)
	}
	return failed
}

// Pending returns the number of calls queued or in flight.
func (e *Endpoint) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.queue)
	if e.inFlight != nil {
		n++
	}
	return n
}

// Dispose rejects all pending calls with ErrDisposed. Afterwards, new calls
// are rejected immediately and incoming requests are answered with
// ErrDisposed. Dispose is idempotent.
func (e *Endpoint) Dispose() {
	if e.disposed.Swap(true) {
		return
	}
	e.mu.Lock()
	pending := e.queue
	if e.inFlight != nil {
		pending = append([]*Call{e.inFlight}, pending...)
	}
	e.queue, e.inFlight = nil, nil
	e.mu.Unlock()
	resolveAll(pending, ErrDisposed)
}

// Disposed reports whether Dispose has been called.
func (e *Endpoint) Disposed() bool {
	return e.disposed.Load()
}

func (c *Call) resolve(value any, err error) {
	c.Value, c.Err = value, err
	c.Done <- c
	if c.then != nil {
		c.then(c)
	}
}

func resolveAll(calls []*Call, err error) {
	for _, c := range calls {
		c.resolve(nil, err)
	}
}

func trySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
