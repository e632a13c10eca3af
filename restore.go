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
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// Scope is a restored request-context frame. It exposes a context in which
// the snapshot's request state (and trace span, when one was captured) is
// readable, typically inside a delivery goroutine that has no access to the
// originating request.
//
// Scopes compose like a stack: restoring inside an already-restored context
// produces a nested scope whose Close never disturbs the outer one. Close is
// exact and idempotent; after Close, Context returns the parent context
// unchanged, so cleanup holds even when the protected code panics:
//
//	scope, err := logconfig.RequestContextFromRecord(entry)
//	if err != nil {
//	    return err
//	}
//	defer scope.Close()
//	doSomething(scope.Context())
type Scope struct {
	parent context.Context
	ctx    context.Context
	snap   *Snapshot

	mu     sync.Mutex
	closed bool
}

type scopeDepthKey struct{}

// ScopeDepth returns how many restored scopes enclose ctx. A context outside
// any restored scope has depth zero.
func ScopeDepth(ctx context.Context) int {
	if ctx == nil {
		return 0
	}
	depth, _ := ctx.Value(scopeDepthKey{}).(int)
	return depth
}

// RequestContextFromRecord restores the request context attached to a queued
// entry. It returns ErrNoRequestContext when the entry is nil or carries no
// snapshot, meaning the record was emitted outside any request.
func RequestContextFromRecord(e *Entry) (*Scope, error) {
	if e == nil || e.Snapshot == nil {
		return nil, ErrNoRequestContext
	}
	return newScope(context.Background(), e.Snapshot), nil
}

// RequestContext restores a scope from the ambient request associated with
// ctx: a snapshot installed by a delivery goroutine, or a live request armed
// by transport middleware (in which case the state is captured now). It
// returns ErrNoRequestContext when ctx is outside any request.
func RequestContext(ctx context.Context) (*Scope, error) {
	if ctx == nil {
		return nil, ErrNoRequestContext
	}
	snap := CaptureRequest(ctx)
	if snap == nil {
		return nil, ErrNoRequestContext
	}
	return newScope(ctx, snap), nil
}

// newScope builds the restored frame on top of parent.
func newScope(parent context.Context, snap *Snapshot) *Scope {
	ctx := ContextWithSnapshot(parent, snap)
	if sc := snap.SpanContext(); sc.IsValid() {
		ctx = trace.ContextWithSpanContext(ctx, sc)
	}
	ctx = context.WithValue(ctx, scopeDepthKey{}, ScopeDepth(parent)+1)
	return &Scope{parent: parent, ctx: ctx, snap: snap}
}

// Context returns the restored context while the scope is open, and the
// parent context after Close.
func (s *Scope) Context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.parent
	}
	return s.ctx
}

// Snapshot returns the snapshot backing this scope.
func (s *Scope) Snapshot() *Snapshot { return s.snap }

// Close releases exactly this scope, restoring the parent context. It is
// safe to call multiple times and safe to call after a panic in the
// protected code.
func (s *Scope) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
