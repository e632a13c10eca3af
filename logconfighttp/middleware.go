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
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/dgilland/logconfig"
)

const instrumentationName = "github.com/dgilland/logconfig/logconfighttp"

// Middleware returns an http.Handler middleware that arms each request's
// context for snapshot capture. Records emitted while handling the request
// then carry a [logconfig.Snapshot] of its identifying state, readable later
// from delivery goroutines via [logconfig.RequestContextFromRecord].
//
// Capture is lazy: nothing is copied until a record is actually emitted, and
// the copy happens synchronously on the request goroutine, so the live
// request is still valid when it is read.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	cfg := applyOptions(opts)

	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}

		armed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logconfig.ContextWithCapture(r.Context(), captureFunc(r, cfg))
			next.ServeHTTP(w, r.WithContext(ctx))
		})

		return wrapWithOTel(cfg, armed)
	}
}

// captureFunc builds the CaptureFunc for one request. The emitting context
// supplies the active span so the snapshot correlates with the server span
// even when otelhttp starts it after this middleware runs.
func captureFunc(r *http.Request, cfg *config) logconfig.CaptureFunc {
	return func(ctx context.Context) *logconfig.Snapshot {
		info := logconfig.SnapshotInfo{
			Method:        r.Method,
			Target:        requestTarget(r, cfg),
			Host:          r.Host,
			Proto:         r.Proto,
			RemoteAddr:    r.RemoteAddr,
			ContentLength: r.ContentLength,
			SpanContext:   trace.SpanContextFromContext(ctx),
		}
		if cfg.captureHeaders {
			info.Header = filteredHeader(r.Header, cfg)
		}
		return logconfig.NewSnapshot(info)
	}
}

// requestTarget returns the request path, with the query appended when
// configured.
func requestTarget(r *http.Request, cfg *config) string {
	if r.URL == nil {
		return ""
	}
	target := r.URL.Path
	if cfg.includeQuery && r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target
}

// filteredHeader copies h minus the redacted names. The copy belongs to the
// snapshot; NewSnapshot clones it again, which keeps Snapshot's immutability
// independent of this package.
func filteredHeader(h http.Header, cfg *config) http.Header {
	if len(h) == 0 {
		return nil
	}
	out := make(http.Header, len(h))
	for name, values := range h {
		if _, redacted := cfg.redactedHeaders[http.CanonicalHeaderKey(name)]; redacted {
			continue
		}
		out[name] = values
	}
	return out
}

// wrapWithOTel wraps handler with otelhttp middleware when enabled.
func wrapWithOTel(cfg *config, handler http.Handler) http.Handler {
	if !cfg.enableOTel {
		return handler
	}

	var otelOpts []otelhttp.Option
	if cfg.tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(cfg.tracerProvider))
	}
	if cfg.propagatorsSet && cfg.propagators != nil {
		otelOpts = append(otelOpts, otelhttp.WithPropagators(cfg.propagators))
	}
	return otelhttp.NewHandler(handler, instrumentationName, otelOpts...)
}
