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
)

// QueueHandler is the producer-side slog.Handler installed in place of a
// logger's original handlers. On each record it captures a request snapshot
// from the context (when inside a request), then pushes the detached record
// onto the binding's bounded queue. It performs no sink I/O itself; the
// listener goroutine forwards queued records to the original handlers.
type QueueHandler struct {
	name   string
	queue  *Queue
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*QueueHandler)(nil)

// NewQueueHandler returns a queue handler emitting into q on behalf of the
// named logger. level gates Enabled; a nil level accepts everything.
func NewQueueHandler(name string, q *Queue, level slog.Leveler) *QueueHandler {
	return &QueueHandler{name: name, queue: q, level: level}
}

// Enabled reports whether records at the given level should be processed.
// Per-sink filtering happens later, on the consumer side.
func (h *QueueHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.level == nil {
		return true
	}
	return level >= h.level.Level()
}

// Handle snapshots the ambient request state, detaches the record, and
// enqueues it. Context-capture failures degrade to an entry without a
// snapshot; they never raise into the emitting goroutine.
func (h *QueueHandler) Handle(ctx context.Context, rec slog.Record) error {
	h.queue.Enqueue(Entry{
		Logger:   h.name,
		Record:   h.prepare(rec),
		Snapshot: CaptureRequest(ctx),
	})
	return nil
}

// WithAttrs returns a child handler sharing the same queue. Attributes are
// folded into records at enqueue time, nested under any open groups.
func (h *QueueHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	child := h.clone()
	child.attrs = append(child.attrs, nestAttrs(h.groups, attrs)...)
	return child
}

// WithGroup returns a child handler sharing the same queue; subsequent
// attributes are qualified by the group name.
func (h *QueueHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	child := h.clone()
	child.groups = append(child.groups, name)
	return child
}

// Queue returns the queue this handler emits into.
func (h *QueueHandler) Queue() *Queue { return h.queue }

// clone copies the handler so children never alias the parent's slices.
func (h *QueueHandler) clone() *QueueHandler {
	return &QueueHandler{
		name:   h.name,
		queue:  h.queue,
		level:  h.level,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

// prepare produces a detached record carrying the handler's accumulated
// attributes plus the call-site attributes, the latter nested under any open
// groups to preserve slog's grouping semantics.
func (h *QueueHandler) prepare(rec slog.Record) slog.Record {
	if len(h.attrs) == 0 && len(h.groups) == 0 {
		return rec.Clone()
	}

	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	out.AddAttrs(h.attrs...)

	callAttrs := make([]slog.Attr, 0, rec.NumAttrs())
	rec.Attrs(func(a slog.Attr) bool {
		callAttrs = append(callAttrs, a)
		return true
	})
	out.AddAttrs(nestAttrs(h.groups, callAttrs)...)
	return out
}

// nestAttrs wraps attrs inside the given group names, innermost last.
func nestAttrs(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(groups) == 0 || len(attrs) == 0 {
		return attrs
	}
	nested := attrs
	for i := len(groups) - 1; i >= 0; i-- {
		nested = []slog.Attr{{Key: groups[i], Value: slog.GroupValue(nested...)}}
	}
	return nested
}
