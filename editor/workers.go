package editor

import (
	"context"
	"errors"
	"log"

	"github.com/trackmix/trackmix/waveform"
)

// StartWorker runs the waveform worker on its own goroutine until
// b.CloseWorker receives a message. FinishedWorker is closed when the worker
// has stopped.
func StartWorker(b *Broker, opts waveform.PyramidOptions, logger *log.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	w := waveform.NewWorker(b.FromWorker, b.ToWorker, opts)
	go func() {
		select {
		case <-b.CloseWorker:
			cancel()
		case <-ctx.Done():
		}
	}()
	go func() {
		defer close(b.FinishedWorker)
		defer cancel()
		if err := w.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) && logger != nil {
			logger.Printf("waveform worker: %v", err)
		}
	}()
}
