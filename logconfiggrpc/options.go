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

package logconfiggrpc

import "strings"

// Option configures the capture interceptors.
type Option func(*config)

type config struct {
	captureMetadata  bool
	redactedMetadata map[string]struct{}
}

// defaultRedactedMetadata keys are never copied into snapshots; they carry
// credentials in common deployments.
var defaultRedactedMetadata = []string{
	"authorization",
	"proxy-authorization",
	"cookie",
	"grpc-trace-bin",
}

// defaultConfig returns the baseline interceptor configuration.
func defaultConfig() *config {
	cfg := &config{
		captureMetadata:  true,
		redactedMetadata: make(map[string]struct{}, len(defaultRedactedMetadata)),
	}
	for _, key := range defaultRedactedMetadata {
		cfg.redactedMetadata[key] = struct{}{}
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

// WithCaptureMetadata toggles copying incoming metadata into snapshots.
// Enabled by default, minus the redacted set.
func WithCaptureMetadata(capture bool) Option {
	return func(cfg *config) { cfg.captureMetadata = capture }
}

// WithRedactedMetadata replaces the set of metadata keys excluded from
// snapshots. Keys are matched lowercase, as gRPC normalizes them.
func WithRedactedMetadata(keys ...string) Option {
	return func(cfg *config) {
		cfg.redactedMetadata = make(map[string]struct{}, len(keys))
		for _, key := range keys {
			if key = strings.ToLower(strings.TrimSpace(key)); key != "" {
				cfg.redactedMetadata[key] = struct{}{}
			}
		}
	}
}
