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
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Snapshot is an immutable copy of the identifying state of an in-flight
// request, captured at record-emission time so delivery goroutines can read
// request data after the originating request has ended.
//
// A Snapshot never holds references into live framework objects; every field
// is copied at capture time. Once constructed it is read-only and may be
// shared across goroutines without locking.
type Snapshot struct {
	method        string
	target        string
	host          string
	proto         string
	remoteAddr    string
	contentLength int64
	header        http.Header
	capturedAt    time.Time
	span          trace.SpanContext
}

// SnapshotInfo carries the values used to build a Snapshot. Callers supply
// plain values; NewSnapshot performs the defensive copies.
type SnapshotInfo struct {
	// Method is the HTTP method or RPC verb.
	Method string
	// Target is the request path or full RPC method name.
	Target string
	// Host is the requested host, when known.
	Host string
	// Proto is the protocol, such as "HTTP/1.1" or "grpc".
	Proto string
	// RemoteAddr is the peer address as reported by the transport.
	RemoteAddr string
	// ContentLength is the declared request size, or 0 when unknown.
	ContentLength int64
	// Header holds request headers or RPC metadata. NewSnapshot deep-copies it.
	Header http.Header
	// SpanContext is the active trace span, if any.
	SpanContext trace.SpanContext
}

// NewSnapshot builds a Snapshot from info, deep-copying the header map so the
// result stays valid after the caller's request state is torn down.
func NewSnapshot(info SnapshotInfo) *Snapshot {
	return &Snapshot{
		method:        info.Method,
		target:        info.Target,
		host:          info.Host,
		proto:         info.Proto,
		remoteAddr:    info.RemoteAddr,
		contentLength: info.ContentLength,
		header:        cloneHeader(info.Header),
		capturedAt:    time.Now(),
		span:          info.SpanContext,
	}
}

// Method returns the request method or RPC verb.
func (s *Snapshot) Method() string { return s.method }

// Target returns the request path or full RPC method name.
func (s *Snapshot) Target() string { return s.target }

// Host returns the requested host.
func (s *Snapshot) Host() string { return s.host }

// Proto returns the transport protocol string.
func (s *Snapshot) Proto() string { return s.proto }

// RemoteAddr returns the peer address observed at capture time.
func (s *Snapshot) RemoteAddr() string { return s.remoteAddr }

// ContentLength returns the declared request size.
func (s *Snapshot) ContentLength() int64 { return s.contentLength }

// CapturedAt returns the time the snapshot was taken.
func (s *Snapshot) CapturedAt() time.Time { return s.capturedAt }

// SpanContext returns the trace span that was active at capture time. The
// zero SpanContext is returned when no span was recorded.
func (s *Snapshot) SpanContext() trace.SpanContext { return s.span }

// HeaderValue returns the first value of the named header, or "" when absent.
func (s *Snapshot) HeaderValue(name string) string {
	if s == nil || s.header == nil {
		return ""
	}
	return s.header.Get(name)
}

// Header returns a copy of the captured headers. Mutating the returned map
// does not affect the snapshot.
func (s *Snapshot) Header() http.Header { return cloneHeader(s.header) }

// cloneHeader deep-copies h, returning nil for an empty input.
func cloneHeader(h http.Header) http.Header {
	if len(h) == 0 {
		return nil
	}
	out := make(http.Header, len(h))
	for k, vs := range h {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

type snapshotContextKey struct{}

type captureContextKey struct{}

// CaptureFunc produces a Snapshot of the current request. Transport glue
// (logconfighttp, logconfiggrpc) installs one via ContextWithCapture so the
// queue handler can take a value-copy at emission time. The context is the
// one the record was emitted with, letting implementations read values such
// as the active trace span.
//
// A CaptureFunc must not panic into its caller; return nil when the request
// state cannot be copied.
type CaptureFunc func(ctx context.Context) *Snapshot

// ContextWithCapture arms ctx for request capture. Records emitted with the
// returned context get a Snapshot attached by the queue handler.
func ContextWithCapture(ctx context.Context, capture CaptureFunc) context.Context {
	if ctx == nil || capture == nil {
		return ctx
	}
	return context.WithValue(ctx, captureContextKey{}, capture)
}

// ContextWithSnapshot returns a child context carrying an already-captured
// snapshot. Delivery goroutines use this to expose request state to handlers
// and formatters; restored scopes are built on top of it.
func ContextWithSnapshot(ctx context.Context, snap *Snapshot) context.Context {
	if ctx == nil || snap == nil {
		return ctx
	}
	return context.WithValue(ctx, snapshotContextKey{}, snap)
}

// SnapshotFromContext retrieves a snapshot previously attached with
// ContextWithSnapshot.
func SnapshotFromContext(ctx context.Context) (*Snapshot, bool) {
	if ctx == nil {
		return nil, false
	}
	snap, ok := ctx.Value(snapshotContextKey{}).(*Snapshot)
	return snap, ok && snap != nil
}

// HasRequestContext reports whether ctx is inside a request: either armed for
// capture by transport middleware or already carrying a snapshot.
func HasRequestContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if _, ok := SnapshotFromContext(ctx); ok {
		return true
	}
	_, ok := ctx.Value(captureContextKey{}).(CaptureFunc)
	return ok
}

// CaptureRequest returns a Snapshot of the request associated with ctx, or
// nil when ctx is outside any request. A snapshot already present on ctx
// (for example inside a restored scope) is reused rather than re-captured.
//
// Capture failures degrade to nil; they never propagate into the emitting
// goroutine's request path.
func CaptureRequest(ctx context.Context) (snap *Snapshot) {
	if ctx == nil {
		return nil
	}
	if existing, ok := SnapshotFromContext(ctx); ok {
		return existing
	}
	capture, ok := ctx.Value(captureContextKey{}).(CaptureFunc)
	if !ok {
		return nil
	}
	defer func() {
		if recover() != nil {
			snap = nil
		}
	}()
	return capture(ctx)
}
