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

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"

	"github.com/dgilland/logconfig"
)

// UnaryServerInterceptor arms each unary RPC's context for snapshot capture,
// so records emitted while serving the call carry the RPC's identifying
// state (full method, peer address, incoming metadata) into queued delivery
// goroutines.
func UnaryServerInterceptor(opts ...Option) grpc.UnaryServerInterceptor {
	cfg := applyOptions(opts)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = logconfig.ContextWithCapture(ctx, captureFunc(info.FullMethod, cfg))
		return handler(ctx, req)
	}
}

// StreamServerInterceptor is the streaming counterpart of
// UnaryServerInterceptor.
func StreamServerInterceptor(opts ...Option) grpc.StreamServerInterceptor {
	cfg := applyOptions(opts)
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := logconfig.ContextWithCapture(ss.Context(), captureFunc(info.FullMethod, cfg))
		return handler(srv, &capturedStream{ServerStream: ss, ctx: ctx})
	}
}

// capturedStream overrides Context on the wrapped stream.
type capturedStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the armed context.
func (s *capturedStream) Context() context.Context { return s.ctx }

// captureFunc builds the CaptureFunc for one RPC. Metadata and peer details
// are read from the emitting context at capture time.
func captureFunc(fullMethod string, cfg *config) logconfig.CaptureFunc {
	return func(ctx context.Context) *logconfig.Snapshot {
		info := logconfig.SnapshotInfo{
			Method:      "POST",
			Target:      fullMethod,
			Proto:       "grpc",
			SpanContext: trace.SpanContextFromContext(ctx),
		}
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			info.RemoteAddr = p.Addr.String()
		}
		if cfg.captureMetadata {
			if md, ok := metadata.FromIncomingContext(ctx); ok {
				info.Header = headerFromMetadata(md, cfg)
				info.Host = firstValue(md, ":authority")
			}
		}
		return logconfig.NewSnapshot(info)
	}
}

// headerFromMetadata copies md into an http.Header, skipping redacted keys.
func headerFromMetadata(md metadata.MD, cfg *config) http.Header {
	if len(md) == 0 {
		return nil
	}
	out := make(http.Header, len(md))
	for key, values := range md {
		if _, redacted := cfg.redactedMetadata[key]; redacted {
			continue
		}
		out[http.CanonicalHeaderKey(key)] = values
	}
	return out
}

// firstValue returns the first metadata value for key, or "".
func firstValue(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}
