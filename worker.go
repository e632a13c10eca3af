// Copyright 2026 The logconfig Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logconfig

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Worker is the consumer side of a binding: a background loop that drains a
// queue and dispatches records to the original handlers. Custom listener
// implementations supplied through WithListenerFactory satisfy this
// interface.
type Worker interface {
	// Start launches the delivery loop. Calling Start twice is a no-op.
	Start()
	// Stop drains records enqueued before the call and joins the loop. It is
	// idempotent; a second call returns the first call's result.
	Stop() error
}

// Listener is the default Worker: one goroutine per queueified logger,
// dispatching each queued record to the handlers that were attached to the
// logger before queueification.
//
// Dispatch honors each handler's own level via Enabled, so a WARNING-level
// sink never sees INFO records even though they share the queue. A failure
// in one handler is reported to the error writer and does not abort dispatch
// to the remaining handlers, nor the loop itself.
type Listener struct {
	name        string
	queue       *Queue
	handlers    []slog.Handler
	errWriter   io.Writer
	joinTimeout time.Duration

	started   atomic.Bool
	stopOnce  sync.Once
	stopErr   error
	done      chan struct{}
	baseCtx   context.Context
	delivered atomic.Uint64
}

var _ Worker = (*Listener)(nil)

// ListenerOption customizes listener construction.
type ListenerOption func(*Listener)

// WithErrorWriter directs dispatch failures and recovered panics to w.
// Use nil to silence reporting. Defaults to os.Stderr.
func WithErrorWriter(w io.Writer) ListenerOption {
	return func(l *Listener) { l.errWriter = w }
}

// WithJoinTimeout bounds how long Stop waits for the loop to drain. Zero
// waits indefinitely. On expiry Stop returns ErrStopTimeout and the loop
// keeps draining in the background.
func WithJoinTimeout(d time.Duration) ListenerOption {
	return func(l *Listener) { l.joinTimeout = d }
}

// NewListener returns a listener that will drain q and dispatch to handlers.
// It does not start the delivery goroutine; call Start.
func NewListener(name string, q *Queue, handlers []slog.Handler, opts ...ListenerOption) *Listener {
	l := &Listener{
		name:      name,
		queue:     q,
		handlers:  append([]slog.Handler(nil), handlers...),
		errWriter: os.Stderr,
		done:      make(chan struct{}),
		baseCtx:   context.Background(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Name returns the logger name this listener serves.
func (l *Listener) Name() string { return l.name }

// Handlers returns a copy of the original handlers owned by this listener.
func (l *Listener) Handlers() []slog.Handler {
	return append([]slog.Handler(nil), l.handlers...)
}

// Delivered returns the number of records dispatched so far.
func (l *Listener) Delivered() uint64 { return l.delivered.Load() }

// Running reports whether the delivery goroutine has been started and has
// not yet exited.
func (l *Listener) Running() bool {
	if !l.started.Load() {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// Start launches the delivery goroutine. Subsequent calls are no-ops.
func (l *Listener) Start() {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	go l.run()
}

// run drains the queue until it is closed and empty.
func (l *Listener) run() {
	defer close(l.done)
	for e := range l.queue.Records() {
		l.dispatch(e)
	}
}

// Stop closes the queue and waits for the loop to finish draining every
// record enqueued before the call. If the listener was never started, the
// remaining entries are drained inline so no accepted record is lost.
// Stop is idempotent.
func (l *Listener) Stop() error {
	l.stopOnce.Do(func() {
		l.queue.Close()

		if !l.started.Load() {
			for e := range l.queue.Records() {
				l.dispatch(e)
			}
			close(l.done)
			return
		}

		if l.joinTimeout <= 0 {
			<-l.done
			return
		}
		select {
		case <-l.done:
		case <-time.After(l.joinTimeout):
			l.stopErr = ErrStopTimeout
		}
	})
	return l.stopErr
}

// dispatch forwards one entry to every original handler whose level admits
// it. The dispatch context carries the entry's snapshot so filters and
// formatters running here can read request state.
func (l *Listener) dispatch(e Entry) {
	ctx := l.baseCtx
	if e.Snapshot != nil {
		ctx = ContextWithSnapshot(ctx, e.Snapshot)
	}
	for _, h := range l.handlers {
		if !h.Enabled(ctx, e.Record.Level) {
			continue
		}
		l.handleOne(ctx, h, e.Record)
	}
	l.delivered.Add(1)
}

// handleOne invokes a single handler, containing errors and panics so they
// never reach the loop or the remaining handlers.
func (l *Listener) handleOne(ctx context.Context, h slog.Handler, rec slog.Record) {
	defer func() {
		if r := recover(); r != nil {
			l.reportf("logconfig: listener %q recovered panic from handler: %v\n", l.name, r)
		}
	}()
	if err := h.Handle(ctx, rec.Clone()); err != nil {
		l.reportf("logconfig: listener %q handler error: %v\n", l.name, err)
	}
}

// reportf writes to the error writer when one is configured.
func (l *Listener) reportf(format string, args ...any) {
	if l.errWriter == nil {
		return
	}
	_, _ = fmt.Fprintf(l.errWriter, format, args...)
}
