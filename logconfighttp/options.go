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
	"strings"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Option configures the request-capture middleware.
type Option func(*config)

type config struct {
	captureHeaders  bool
	includeQuery    bool
	redactedHeaders map[string]struct{}

	enableOTel     bool
	tracerProvider trace.TracerProvider
	propagators    propagation.TextMapPropagator
	propagatorsSet bool
}

// defaultRedactedHeaders are never copied into snapshots unless explicitly
// allowed; they routinely carry credentials.
var defaultRedactedHeaders = []string{
	"Authorization",
	"Proxy-Authorization",
	"Cookie",
	"Set-Cookie",
}

// defaultConfig returns the baseline middleware configuration.
func defaultConfig() *config {
	cfg := &config{
		captureHeaders:  true,
		redactedHeaders: make(map[string]struct{}, len(defaultRedactedHeaders)),
	}
	for _, name := range defaultRedactedHeaders {
		cfg.redactedHeaders[http.CanonicalHeaderKey(name)] = struct{}{}
	}
	return cfg
}

// applyOptions applies the provided options on top of defaultConfig.
func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithCaptureHeaders toggles copying request headers into snapshots.
// Enabled by default, minus the redacted set.
func WithCaptureHeaders(capture bool) Option {
	return func(cfg *config) { cfg.captureHeaders = capture }
}

// WithRedactedHeaders replaces the set of header names excluded from
// snapshots. Names are matched case-insensitively. Pass none to capture
// everything, credentials included.
func WithRedactedHeaders(names ...string) Option {
	return func(cfg *config) {
		cfg.redactedHeaders = make(map[string]struct{}, len(names))
		for _, name := range names {
			if name = strings.TrimSpace(name); name != "" {
				cfg.redactedHeaders[http.CanonicalHeaderKey(name)] = struct{}{}
			}
		}
	}
}

// WithQuery includes the raw query string in the snapshot target. Off by
// default since query strings often carry tokens.
func WithQuery(include bool) Option {
	return func(cfg *config) { cfg.includeQuery = include }
}

// WithOTel wraps the middleware with otelhttp instrumentation so snapshots
// capture server-span trace context.
func WithOTel(enable bool) Option {
	return func(cfg *config) { cfg.enableOTel = enable }
}

// WithTracerProvider installs the tracer provider used by the otelhttp
// wrapper. Ignored unless WithOTel(true) is set.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) { cfg.tracerProvider = tp }
}

// WithPropagators supplies the TextMapPropagator used to extract incoming
// trace context. When omitted, the global propagator applies.
func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(cfg *config) {
		cfg.propagators = p
		cfg.propagatorsSet = true
	}
}
