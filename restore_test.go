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
	"errors"
	"log/slog"
	"net/http"
	"testing"
)

func TestRequestContextFromRecordRoundTrip(t *testing.T) {
	snap := NewSnapshot(SnapshotInfo{
		Method: "POST",
		Target: "/orders?limit=5",
		Host:   "shop.example.com",
		Header: http.Header{"X-Request-Id": {"req-7f3a"}},
	})
	e := &Entry{Logger: "app", Record: testRecord(slog.LevelInfo, "order placed"), Snapshot: snap}

	// Restore on a different goroutine, the way an email-alert handler would.
	type result struct {
		id   string
		host string
		err  error
	}
	out := make(chan result, 1)
	go func() {
		scope, err := RequestContextFromRecord(e)
		if err != nil {
			out <- result{err: err}
			return
		}
		defer scope.Close()
		got, _ := SnapshotFromContext(scope.Context())
		out <- result{id: got.HeaderValue("X-Request-Id"), host: got.Host()}
	}()

	r := <-out
	if r.err != nil {
		t.Fatalf("restore failed: %v", r.err)
	}
	if r.id != "req-7f3a" {
		t.Errorf("restored X-Request-Id = %q, want %q", r.id, "req-7f3a")
	}
	if r.host != "shop.example.com" {
		t.Errorf("restored host = %q, want %q", r.host, "shop.example.com")
	}
}

func TestRequestContextFromRecordNoSnapshot(t *testing.T) {
	if _, err := RequestContextFromRecord(nil); !errors.Is(err, ErrNoRequestContext) {
		t.Errorf("nil entry: err = %v, want ErrNoRequestContext", err)
	}
	e := &Entry{Logger: "app", Record: testRecord(slog.LevelInfo, "ambient")}
	if _, err := RequestContextFromRecord(e); !errors.Is(err, ErrNoRequestContext) {
		t.Errorf("snapshot-free entry: err = %v, want ErrNoRequestContext", err)
	}
}

func TestRequestContextOutsideRequest(t *testing.T) {
	if _, err := RequestContext(context.Background()); !errors.Is(err, ErrNoRequestContext) {
		t.Errorf("plain context: err = %v, want ErrNoRequestContext", err)
	}
	var none context.Context
	if _, err := RequestContext(none); !errors.Is(err, ErrNoRequestContext) {
		t.Errorf("nil context: err = %v, want ErrNoRequestContext", err)
	}
}

func TestRequestContextFromArmedContext(t *testing.T) {
	ctx := ContextWithCapture(context.Background(), func(context.Context) *Snapshot {
		return NewSnapshot(SnapshotInfo{Method: "GET", Target: "/live"})
	})

	scope, err := RequestContext(ctx)
	if err != nil {
		t.Fatalf("RequestContext on armed context failed: %v", err)
	}
	defer scope.Close()
	if got := scope.Snapshot().Target(); got != "/live" {
		t.Errorf("captured target = %q, want %q", got, "/live")
	}
}

func TestScopeNestingAndDepth(t *testing.T) {
	outerSnap := NewSnapshot(SnapshotInfo{Target: "/outer"})
	innerSnap := NewSnapshot(SnapshotInfo{Target: "/inner"})

	base := context.Background()
	if d := ScopeDepth(base); d != 0 {
		t.Fatalf("base depth = %d, want 0", d)
	}

	outer := newScope(base, outerSnap)
	if d := ScopeDepth(outer.Context()); d != 1 {
		t.Fatalf("outer depth = %d, want 1", d)
	}

	inner := newScope(outer.Context(), innerSnap)
	if d := ScopeDepth(inner.Context()); d != 2 {
		t.Fatalf("inner depth = %d, want 2", d)
	}
	if got, _ := SnapshotFromContext(inner.Context()); got != innerSnap {
		t.Error("inner scope does not expose the inner snapshot")
	}

	inner.Close()
	if got, _ := SnapshotFromContext(inner.Context()); got != outerSnap {
		t.Error("closing the inner scope must restore the outer snapshot")
	}
	if d := ScopeDepth(inner.Context()); d != 1 {
		t.Errorf("depth after inner close = %d, want 1", d)
	}

	outer.Close()
	if _, ok := SnapshotFromContext(outer.Context()); ok {
		t.Error("closing the outer scope must leave no snapshot")
	}
}

func TestScopeCloseSurvivesPanic(t *testing.T) {
	snap := NewSnapshot(SnapshotInfo{Target: "/boom"})
	scope := newScope(context.Background(), snap)

	func() {
		defer scope.Close()
		defer func() { _ = recover() }()
		panic("handler blew up")
	}()

	if _, ok := SnapshotFromContext(scope.Context()); ok {
		t.Error("scope not released after panic in protected code")
	}
	if d := ScopeDepth(scope.Context()); d != 0 {
		t.Errorf("depth after panic = %d, want 0", d)
	}
}

func TestScopeCloseIdempotent(t *testing.T) {
	scope := newScope(context.Background(), NewSnapshot(SnapshotInfo{Target: "/x"}))
	scope.Close()
	scope.Close()
	if _, ok := SnapshotFromContext(scope.Context()); ok {
		t.Error("double Close changed the released state")
	}
}
