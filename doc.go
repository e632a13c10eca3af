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

// Package logconfig configures a process's [log/slog] pipeline from
// declarative application configuration and moves selected loggers' handler
// I/O off the request path.
//
// Two capabilities go beyond plain logging setup:
//
//   - Queued delivery. [LogConfig.InitApp] rewires each logger named in the
//     application's queue list: the logger's handlers are captured and moved
//     behind a bounded queue, a [QueueHandler] takes their place, and a
//     [Listener] goroutine drains the queue, forwarding each record to the
//     original handlers while honoring every handler's own minimum level.
//     Slow sinks (network mail, rotating files) then never block the
//     goroutine that called Info or Error.
//
//   - Request-context capture. Records emitted inside a request (armed by
//     the logconfighttp middleware or the logconfiggrpc interceptors) carry
//     an immutable [Snapshot] of the request's identifying state. Inside the
//     delivery goroutine, or anywhere else holding a queued [Entry],
//     [RequestContextFromRecord] restores a scope whose context exposes that
//     state, long after the originating request has ended.
//
// A minimal setup:
//
//	lc := logconfig.New()
//	app := &logconfig.App{
//	    Name: "web",
//	    Config: logconfig.AppConfig{
//	        LoggingFile: "logging.yaml",
//	        Queue:       []string{"app", "app.mail"},
//	    },
//	}
//	if err := lc.InitApp(app); err != nil {
//	    log.Fatal(err)
//	}
//	defer lc.TeardownApp(app)
//
//	logger := lc.Logger("app")
//	logger.InfoContext(r.Context(), "user signed in", "user", id)
//
// Ordering: records emitted to one queueified logger from one goroutine are
// delivered to that logger's handlers in emission order. No ordering holds
// across different loggers' queues. Stopping listeners drains every record
// accepted before the stop began.
//
// Backpressure: by default a full queue blocks the emitting goroutine until
// the listener catches up, so records are never lost silently. Configure
// [OverflowDropNewest] via [WithQueueOptions] to trade loss (counted, and
// observable through [Queue.Dropped] and an OnDrop callback) for latency.
package logconfig
