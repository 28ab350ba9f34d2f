package engine

import "github.com/trackmix/trackmix/rpc"

// Commands handled by the engine, sent from the control side.
const (
	// CmdPlay(start, loopFrom, loopTo int, loop bool) starts playback.
	CmdPlay rpc.Command = iota + 1
	// CmdResume() continues from the current play head.
	CmdResume
	// CmdStop() stops playback and returns the play head.
	CmdStop
	// CmdSetPlayhead(pos int) seeks without interrupting playback.
	CmdSetPlayhead
	// CmdGetPlayhead() returns the play head.
	CmdGetPlayhead
	CmdSetLoop
	// CmdSetLoopRange(from, to int)
	CmdSetLoopRange
	// CmdSetMeterWindow(size int) resizes the windows of all peak meters.
	CmdSetMeterWindow
	// CmdDestroy() silences the engine and closes its endpoint after
	// replying.
	CmdDestroy
)

// Commands sent from the engine to the control side.
const (
	// CmdEnded(pos int) reports that playback reached its end.
	CmdEnded rpc.Command = iota + 1
)

func (e *Engine) commandTable() rpc.Table {
	return rpc.Table{
		CmdPlay:           {Name: "play", Handler: e.handlePlay},
		CmdResume:         {Name: "resume", Handler: e.handleResume},
		CmdStop:           {Name: "stop", Handler: e.handleStop},
		CmdSetPlayhead:    {Name: "setPlayhead", Handler: e.handleSetPlayhead},
		CmdGetPlayhead:    {Name: "getPlayhead", Handler: e.handleGetPlayhead},
		CmdSetLoop:        {Name: "setLoop", Handler: e.handleSetLoop},
		CmdSetLoopRange:   {Name: "setLoopRange", Handler: e.handleSetLoopRange},
		CmdSetMeterWindow: {Name: "setMeterWindow", Handler: e.handleSetMeterWindow},
		CmdDestroy:        {Name: "destroy", Handler: e.handleDestroy},
	}
}

func (e *Engine) handlePlay(args []any) (any, error) {
	start, err := rpc.Arg[int](args, 0)
	if err != nil {
		return nil, err
	}
	from, err := rpc.Arg[int](args, 1)
	if err != nil {
		return nil, err
	}
	to, err := rpc.Arg[int](args, 2)
	if err != nil {
		return nil, err
	}
	loop, err := rpc.Arg[bool](args, 3)
	if err != nil {
		return nil, err
	}
	e.player.SetLoopRange(from, to)
	e.player.SetLoop(loop)
	e.player.Play(start)
	return nil, nil
}

func (e *Engine) handleResume(args []any) (any, error) {
	e.player.Resume()
	return nil, nil
}

func (e *Engine) handleStop(args []any) (any, error) {
	e.player.Stop()
	return e.player.Playhead(), nil
}

func (e *Engine) handleSetPlayhead(args []any) (any, error) {
	pos, err := rpc.Arg[int](args, 0)
	if err != nil {
		return nil, err
	}
	e.player.SetPlayhead(pos)
	e.playhead.Store(int64(e.player.Playhead()))
	return nil, nil
}

func (e *Engine) handleGetPlayhead(args []any) (any, error) {
	return e.player.Playhead(), nil
}

func (e *Engine) handleSetLoop(args []any) (any, error) {
	loop, err := rpc.Arg[bool](args, 0)
	if err != nil {
		return nil, err
	}
	e.player.SetLoop(loop)
	return nil, nil
}

func (e *Engine) handleSetLoopRange(args []any) (any, error) {
	from, err := rpc.Arg[int](args, 0)
	if err != nil {
		return nil, err
	}
	to, err := rpc.Arg[int](args, 1)
	if err != nil {
		return nil, err
	}
	e.player.SetLoopRange(from, to)
	return nil, nil
}

func (e *Engine) handleSetMeterWindow(args []any) (any, error) {
	size, err := rpc.Arg[int](args, 0)
	if err != nil {
		return nil, err
	}
	e.trackMeter.SetWindowSize(size)
	e.masterMeter.SetWindowSize(size)
	return int(e.trackMeter.wantWindow.Load()), nil
}

func (e *Engine) handleDestroy(args []any) (any, error) {
	e.Destroy()
	return nil, nil
}
