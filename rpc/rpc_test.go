package rpc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trackmix/trackmix/rpc"
)

const (
	cmdEcho rpc.Command = iota + 1
	cmdFail
	cmdPanic
	cmdAdd
)

func testTable() rpc.Table {
	return rpc.Table{
		cmdEcho: {Name: "echo", Handler: func(args []any) (any, error) { return args[0], nil }},
		cmdFail: {Name: "fail", Handler: func(args []any) (any, error) { return nil, errors.New("boom") }},
		cmdPanic: {Name: "panic", Handler: func(args []any) (any, error) {
			var s []int
			return s[1], nil
		}},
		cmdAdd: {Name: "add", Handler: func(args []any) (any, error) {
			a, err := rpc.Arg[int](args, 0)
			if err != nil {
				return nil, err
			}
			b, err := rpc.Arg[int](args, 1)
			if err != nil {
				return nil, err
			}
			return a + b, nil
		}},
	}
}

func TestSendReceive(t *testing.T) {
	client, server := rpc.NewPair(4, nil, testTable())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Serve(ctx)
	value, err := client.Call(ctx, cmdEcho, float32(42))
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if value.(float32) != 42 {
		t.Fatalf("Call returned %v, want 42", value)
	}
}

func TestCallsAreSentOneAtATime(t *testing.T) {
	client, server := rpc.NewPair(2, nil, testTable())
	calls := make([]*rpc.Call, 5)
	for i := range calls {
		calls[i] = client.Go(cmdAdd, i, 100)
	}
	if got := client.Pending(); got != 5 {
		t.Fatalf("Pending = %d, want 5", got)
	}
	for i := range calls {
		if n := server.Poll(); n != 1 {
			t.Fatalf("round %d: server handled %d requests, want 1", i, n)
		}
		client.Poll()
		select {
		case c := <-calls[i].Done:
			if c.Err != nil || c.Value.(int) != i+100 {
				t.Fatalf("call %d resolved with %v, %v", i, c.Value, c.Err)
			}
		default:
			t.Fatalf("call %d not resolved after its response", i)
		}
		for _, later := range calls[i+1:] {
			if len(later.Done) != 0 {
				t.Fatalf("call %d resolved out of order", later.ID)
			}
		}
	}
}

func TestFailureRejectsOnlyItsCall(t *testing.T) {
	for _, cmd := range []rpc.Command{cmdFail, cmdPanic} {
		client, server := rpc.NewPair(2, nil, testTable())
		before := client.Go(cmdEcho, "a")
		failing := client.Go(cmd)
		after := client.Go(cmdEcho, "b")
		for client.Pending() > 0 {
			server.Poll()
			client.Poll()
		}
		if before.Err != nil || before.Value != "a" {
			t.Errorf("call before failure: %v, %v", before.Value, before.Err)
		}
		var remote *rpc.RemoteError
		if !errors.As(failing.Err, &remote) {
			t.Errorf("failing call error = %v, want *RemoteError", failing.Err)
		}
		if after.Err != nil || after.Value != "b" {
			t.Errorf("call after failure: %v, %v", after.Value, after.Err)
		}
	}
}

func TestCallIDs(t *testing.T) {
	a, b := rpc.NewPair(4, testTable(), testTable())
	ca := a.Go(cmdEcho, 1)
	cb := b.Go(cmdEcho, 1)
	if ca.ID != 1 {
		t.Errorf("forward endpoint first id = %d, want 1", ca.ID)
	}
	if cb.ID != -1 {
		t.Errorf("reverse endpoint first id = %d, want -1", cb.ID)
	}
	// both sides have a request and later a response waiting
	a.Poll()
	b.Poll()
	a.Poll()
	b.Poll()
	if ca.Err != nil || cb.Err != nil {
		t.Fatalf("crossing calls failed: %v, %v", ca.Err, cb.Err)
	}
}

func TestUnknownCommand(t *testing.T) {
	client, server := rpc.NewPair(2, nil, testTable())
	call := client.Go(rpc.Command(200))
	server.Poll()
	client.Poll()
	if call.Err == nil {
		t.Fatalf("expected an error for an unknown command")
	}
}

func TestDispose(t *testing.T) {
	client, server := rpc.NewPair(2, nil, testTable())
	first := client.Go(cmdEcho, 1)
	second := client.Go(cmdEcho, 2)
	client.Dispose()
	client.Dispose()
	for _, c := range []*rpc.Call{first, second} {
		if !errors.Is(c.Err, rpc.ErrDisposed) {
			t.Errorf("call %d error = %v, want ErrDisposed", c.ID, c.Err)
		}
	}
	if c := client.Go(cmdEcho, 3); !errors.Is(c.Err, rpc.ErrDisposed) {
		t.Errorf("call after Dispose error = %v, want ErrDisposed", c.Err)
	}
	// the stale response to the first call is ignored
	server.Poll()
	client.Poll()

	a, b := rpc.NewPair(2, nil, testTable())
	b.Dispose()
	call := a.Go(cmdEcho, 1)
	b.Poll()
	a.Poll()
	var remote *rpc.RemoteError
	if !errors.As(call.Err, &remote) {
		t.Fatalf("call to disposed endpoint error = %v, want *RemoteError", call.Err)
	}
}

func TestQueueFull(t *testing.T) {
	out := make(chan rpc.Message) // unbuffered, nobody reading
	e := rpc.NewEndpoint(out, nil, nil, rpc.Forward)
	call := e.Go(cmdEcho, 1)
	if !errors.Is(call.Err, rpc.ErrQueueFull) {
		t.Fatalf("error = %v, want ErrQueueFull", call.Err)
	}
	if e.Pending() != 0 {
		t.Fatalf("rejected call still pending")
	}
}

func TestCallContext(t *testing.T) {
	client, _ := rpc.NewPair(2, nil, testTable())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := client.Call(ctx, cmdEcho, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want DeadlineExceeded", err)
	}
}

func TestThen(t *testing.T) {
	client, server := rpc.NewPair(2, nil, testTable())
	var got any
	client.Then(cmdAdd, func(c *rpc.Call) { got = c.Value }, 2, 3)
	server.Poll()
	client.Poll()
	if got != 5 {
		t.Fatalf("callback got %v, want 5", got)
	}
}

func TestArg(t *testing.T) {
	args := []any{int64(3), 2.5, "x"}
	if v, err := rpc.Arg[int](args, 0); err != nil || v != 3 {
		t.Errorf("Arg[int] = %v, %v", v, err)
	}
	if v, err := rpc.Arg[float32](args, 1); err != nil || v != 2.5 {
		t.Errorf("Arg[float32] = %v, %v", v, err)
	}
	if _, err := rpc.Arg[int](args, 2); !errors.Is(err, rpc.ErrArgument) {
		t.Errorf("Arg[int] of a string: %v", err)
	}
	if _, err := rpc.Arg[int](args, 5); !errors.Is(err, rpc.ErrArgument) {
		t.Errorf("Arg out of range: %v", err)
	}
}
