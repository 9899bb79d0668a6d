package world

import (
	"context"
	"time"
)

// Run owns the store and the ledger until ctx is cancelled or Stop is called. Every
// message is applied to completion before the next one is read.
func (w *World) Run(ctx context.Context) error {
	var flush <-chan time.Time
	if w.cfg.FlushInterval > 0 {
		t := time.NewTicker(w.cfg.FlushInterval)
		defer t.Stop()
		flush = t.C
	}
	defer w.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			w.handleJoin(req)
		case req := <-w.leave:
			w.drainJoins()
			w.handleLeave(req)
		case env := <-w.inbox:
			w.drainJoins()
			w.handleAction(env)
		case <-flush:
			w.flushLedger()
		}
		w.publishMetrics()
	}
}

func (w *World) Stop() { close(w.stop) }

// drainJoins applies every queued join. A connection enqueues its join before any
// of its actions or its leave, so joins go first whatever select picked.
func (w *World) drainJoins() {
	for {
		select {
		case req := <-w.join:
			w.handleJoin(req)
		default:
			return
		}
	}
}

func (w *World) flushLedger() {
	if err := w.ledger.Flush(); err != nil {
		w.log.WithError(err).Error("flush ledger")
	}
}

func (w *World) shutdown() {
	w.flushLedger()
	for id, c := range w.clients {
		if c.Kick != nil {
			c.Kick()
		}
		delete(w.clients, id)
	}
	w.publishMetrics()
}
