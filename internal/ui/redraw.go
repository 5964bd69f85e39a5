package ui

import (
	"context"

	"github.com/zsprackett/uploadwatch/internal/display"
)

// redrawer decouples display mutations from the tview update queue.
// Notify never blocks, so a writer holding the display lock cannot stall
// on a full queue after the application has stopped. Bursts coalesce into
// one draw of the latest snapshot.
type redrawer struct {
	pending  chan struct{}
	snapshot func() display.Snapshot
	draw     func(display.Snapshot)
}

func newRedrawer(snapshot func() display.Snapshot, draw func(display.Snapshot)) *redrawer {
	return &redrawer{
		pending:  make(chan struct{}, 1),
		snapshot: snapshot,
		draw:     draw,
	}
}

// Notify is a display.RenderFunc.
func (r *redrawer) Notify(display.Snapshot) {
	select {
	case r.pending <- struct{}{}:
	default:
	}
}

// Run draws until ctx is done. draw may block; nothing waits for Run.
func (r *redrawer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.pending:
			r.draw(r.snapshot())
		}
	}
}
