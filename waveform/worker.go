package waveform

import (
	"context"

	"github.com/trackmix/trackmix/rpc"
)

// Commands handled by the background worker.
const (
	// CmdBuildPyramid(raw [][]float32, samplesPerRawSample int) returns a
	// *Pyramid.
	CmdBuildPyramid rpc.Command = iota + 1
)

// Worker builds pyramids on a background goroutine. A caller that loses
// interest simply drops its call; a build in progress runs to completion.
type Worker struct {
	endpoint *rpc.Endpoint
	opts     PyramidOptions
}

func NewWorker(out chan<- rpc.Message, in <-chan rpc.Message, opts PyramidOptions) *Worker {
	w := &Worker{opts: opts.orDefault()}
	w.endpoint = rpc.NewEndpoint(out, in, rpc.Table{
		CmdBuildPyramid: {Name: "buildPyramid", Handler: w.handleBuildPyramid},
	}, rpc.Reverse)
	return w
}

// Serve handles requests until ctx is done or the input is closed, then
// disposes the endpoint.
func (w *Worker) Serve(ctx context.Context) error {
	defer w.endpoint.Dispose()
	return w.endpoint.Serve(ctx)
}

func (w *Worker) handleBuildPyramid(args []any) (any, error) {
	raw, err := rpc.Arg[[][]float32](args, 0)
	if err != nil {
		return nil, err
	}
	spr, err := rpc.Arg[int](args, 1)
	if err != nil {
		return nil, err
	}
	return BuildPyramid(context.Background(), raw, spr, w.opts)
}
