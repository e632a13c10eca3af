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
	"log/slog"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// TestMain verifies no listener goroutines leak across the package's tests.
// lumberjack starts its millRun goroutine via sync.Once on first write and
// Close does not stop it, so it is excluded from the leak check.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)
}

// recordingHandler is a slog.Handler test double that records every handled
// record together with its context, gated by a configurable minimum level.
type recordingHandler struct {
	mu       sync.Mutex
	min      slog.Level
	records  []slog.Record
	contexts []context.Context
	calls    chan struct{}
	block    <-chan struct{}
}

// newRecordingHandler builds a double accepting records at or above min.
func newRecordingHandler(min slog.Level) *recordingHandler {
	return &recordingHandler{
		min:   min,
		calls: make(chan struct{}, 256),
	}
}

// Enabled applies the double's minimum level.
func (h *recordingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

// Handle records the entry, optionally blocking first.
func (h *recordingHandler) Handle(ctx context.Context, rec slog.Record) error {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	h.records = append(h.records, rec.Clone())
	h.contexts = append(h.contexts, ctx)
	h.mu.Unlock()

	select {
	case h.calls <- struct{}{}:
	default:
	}
	return nil
}

// WithAttrs returns the same handler; attribute fidelity is covered by the
// emitter tests, not the double.
func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

// WithGroup returns the same handler.
func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

// Records returns a snapshot of the handled records.
func (h *recordingHandler) Records() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]slog.Record(nil), h.records...)
}

// Contexts returns a snapshot of the dispatch contexts.
func (h *recordingHandler) Contexts() []context.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]context.Context(nil), h.contexts...)
}

// waitForCalls blocks until the double recorded n invocations or times out.
func waitForCalls(t *testing.T, c <-chan struct{}, n int) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-c:
		case <-timeout:
			t.Fatalf("timed out waiting for %d handler calls", n)
		}
	}
}

// testRecord builds a record with the given message at the given level.
func testRecord(level slog.Level, msg string) slog.Record {
	return slog.NewRecord(time.Now(), level, msg, 0)
}
