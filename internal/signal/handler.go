// Package signal turns SIGINT and SIGTERM into context cancellation for the
// long-running reviewapp commands. A CI runner that cancels a job sends
// SIGTERM; serve mode drains HTTP connections on the same signal.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler cancels its context on the first shutdown signal.
type Handler struct {
	ctx         context.Context //nolint:containedctx // the handler owns the context lifecycle
	cancel      context.CancelFunc
	interrupted chan struct{}
	done        chan struct{}
	sigChan     chan os.Signal

	mu       sync.Mutex
	received os.Signal

	once     sync.Once
	stopOnce sync.Once
}

// NewHandler listens for SIGINT and SIGTERM.
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	err := srv.Run(h.Context())
func NewHandler(parent context.Context) *Handler {
	return NewHandlerFor(parent, syscall.SIGINT, syscall.SIGTERM)
}

// NewHandlerFor listens for the given signals instead of the defaults.
func NewHandlerFor(parent context.Context, sigs ...os.Signal) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		// signal.Notify never blocks; an unbuffered channel would drop signals.
		sigChan: make(chan os.Signal, 1),
	}
	signal.Notify(h.sigChan, sigs...)
	go h.listen()
	return h
}

// Context is canceled on the first signal, on Stop, or with the parent.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted closes when a signal (not Stop) canceled the context.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// Received returns the signal that interrupted the handler, or nil.
func (h *Handler) Received() os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.received
}

// Stop unregisters the signals and cancels the context. Safe to call twice.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel()
	})
}

func (h *Handler) handleSignal(sig os.Signal) {
	h.once.Do(func() {
		h.mu.Lock()
		h.received = sig
		h.mu.Unlock()
		h.cancel()
		close(h.interrupted)
	})
}

// listen keeps draining after the first signal so repeated Ctrl+C never
// blocks delivery.
func (h *Handler) listen() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.done:
			return
		case sig := <-h.sigChan:
			h.handleSignal(sig)
		}
	}
}
