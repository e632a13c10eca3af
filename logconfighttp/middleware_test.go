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

package logconfighttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgilland/logconfig"
)

// serveCaptured runs one request through the middleware and returns the
// snapshot captured inside the handler.
func serveCaptured(t *testing.T, r *http.Request, opts ...Option) *logconfig.Snapshot {
	t.Helper()
	var snap *logconfig.Snapshot
	handler := Middleware(opts...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap = logconfig.CaptureRequest(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), r)
	return snap
}

func TestMiddlewareArmsRequestContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://api.example.com/orders?limit=5", nil)
	r.Header.Set("X-Request-Id", "req-42")
	r.RemoteAddr = "203.0.113.9:54021"

	snap := serveCaptured(t, r)
	if snap == nil {
		t.Fatal("no snapshot captured inside the middleware")
	}
	if got := snap.Method(); got != http.MethodPost {
		t.Errorf("method = %q, want POST", got)
	}
	if got := snap.Target(); got != "/orders" {
		t.Errorf("target = %q, want %q (query excluded by default)", got, "/orders")
	}
	if got := snap.Host(); got != "api.example.com" {
		t.Errorf("host = %q, want %q", got, "api.example.com")
	}
	if got := snap.RemoteAddr(); got != "203.0.113.9:54021" {
		t.Errorf("remote addr = %q, want %q", got, "203.0.113.9:54021")
	}
	if got := snap.HeaderValue("X-Request-Id"); got != "req-42" {
		t.Errorf("X-Request-Id = %q, want %q", got, "req-42")
	}
}

func TestMiddlewareRedactsCredentialHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	r.Header.Set("Authorization", "Bearer secret")
	r.Header.Set("Cookie", "session=abc")
	r.Header.Set("Accept", "application/json")

	snap := serveCaptured(t, r)
	if got := snap.HeaderValue("Authorization"); got != "" {
		t.Errorf("Authorization leaked into snapshot: %q", got)
	}
	if got := snap.HeaderValue("Cookie"); got != "" {
		t.Errorf("Cookie leaked into snapshot: %q", got)
	}
	if got := snap.HeaderValue("Accept"); got != "application/json" {
		t.Errorf("Accept = %q, want it captured", got)
	}
}

func TestMiddlewareCustomRedaction(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	r.Header.Set("X-Api-Key", "k-123")
	r.Header.Set("Authorization", "Bearer visible-now")

	snap := serveCaptured(t, r, WithRedactedHeaders("x-api-key"))
	if got := snap.HeaderValue("X-Api-Key"); got != "" {
		t.Errorf("X-Api-Key leaked despite redaction: %q", got)
	}
	// Replacing the redaction set drops the defaults.
	if got := snap.HeaderValue("Authorization"); got != "Bearer visible-now" {
		t.Errorf("Authorization = %q, want it captured after replacement", got)
	}
}

func TestMiddlewareHeaderCaptureOff(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	r.Header.Set("Accept", "application/json")

	snap := serveCaptured(t, r, WithCaptureHeaders(false))
	if got := snap.HeaderValue("Accept"); got != "" {
		t.Errorf("header captured despite WithCaptureHeaders(false): %q", got)
	}
}

func TestMiddlewareWithQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.com/search?q=logs", nil)

	snap := serveCaptured(t, r, WithQuery(true))
	if got := snap.Target(); got != "/search?q=logs" {
		t.Errorf("target = %q, want query included", got)
	}
}

func TestMiddlewareNilNext(t *testing.T) {
	handler := Middleware()(nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.com/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil next returned %d, want 404", rec.Code)
	}
}

func TestMiddlewareCaptureIsLazy(t *testing.T) {
	// Without an emission, nothing is copied: the armed context holds only
	// the capture closure.
	var ctxHadSnapshot bool
	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ctxHadSnapshot = logconfig.SnapshotFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
	if ctxHadSnapshot {
		t.Error("middleware materialized a snapshot before any emission")
	}
}

func TestMiddlewareOTelWrapping(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.com/traced", nil)
	snap := serveCaptured(t, r, WithOTel(true))
	if snap == nil {
		t.Fatal("no snapshot captured through the otelhttp wrapper")
	}
	if got := snap.Target(); got != "/traced" {
		t.Errorf("target = %q, want %q", got, "/traced")
	}
}
