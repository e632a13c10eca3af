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
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults applied when the configuration leaves them zero.
const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 7
	defaultMaxAgeDays = 30
)

// buildSink constructs the slog.Handler described by hc, plus a closer when
// the sink owns a file. hc must already be validated.
func buildSink(hc HandlerConfig) (slog.Handler, func() error, error) {
	var (
		w      io.Writer
		closer func() error
	)
	switch hc.Target {
	case "stderr":
		w = os.Stderr
	case "file":
		lj := NewRotatingFileWriter(hc.File)
		w = lj
		closer = lj.Close
	default:
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: sinkLevel(hc.Level)}
	if hc.Kind == "json" {
		return slog.NewJSONHandler(w, opts), closer, nil
	}
	return slog.NewTextHandler(w, opts), closer, nil
}

// sinkLevel converts an already-validated level name, defaulting to debug so
// an unlevelled sink receives everything its logger accepts.
func sinkLevel(name string) slog.Level {
	if name == "" {
		return slog.LevelDebug
	}
	level, _ := ParseLevel(name)
	return level
}

// NewRotatingFileWriter returns a size-rotated log file writer. Zero values
// in fc fall back to the package defaults above.
func NewRotatingFileWriter(fc FileConfig) *lumberjack.Logger {
	lj := &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    fc.MaxSizeMB,
		MaxBackups: fc.MaxBackups,
		MaxAge:     fc.MaxAgeDays,
		Compress:   fc.Compress,
	}
	if lj.MaxSize <= 0 {
		lj.MaxSize = defaultMaxSizeMB
	}
	if lj.MaxBackups <= 0 {
		lj.MaxBackups = defaultMaxBackups
	}
	if lj.MaxAge <= 0 {
		lj.MaxAge = defaultMaxAgeDays
	}
	return lj
}
