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
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTreePropagationToRoot(t *testing.T) {
	tree := NewTree()
	rootSink := newRecordingHandler(slog.LevelDebug)
	childSink := newRecordingHandler(slog.LevelDebug)
	tree.SetHandlers(RootLogger, rootSink)
	tree.SetHandlers("app.mail", childSink)

	tree.Logger("app.mail").Info("sent")

	if got := len(childSink.Records()); got != 1 {
		t.Errorf("child handler received %d records, want 1", got)
	}
	if got := len(rootSink.Records()); got != 1 {
		t.Errorf("root handler received %d records, want 1 via propagation", got)
	}
}

func TestTreePropagationOff(t *testing.T) {
	tree := NewTree()
	rootSink := newRecordingHandler(slog.LevelDebug)
	childSink := newRecordingHandler(slog.LevelDebug)
	tree.SetHandlers(RootLogger, rootSink)
	tree.SetHandlers("app", childSink)
	tree.SetPropagate("app", false)

	tree.Logger("app").Info("local only")

	if got := len(childSink.Records()); got != 1 {
		t.Errorf("child handler received %d records, want 1", got)
	}
	if got := len(rootSink.Records()); got != 0 {
		t.Errorf("root handler received %d records, want 0 with propagation off", got)
	}
}

func TestTreeEffectiveLevelInheritance(t *testing.T) {
	tree := NewTree()
	if got := tree.EffectiveLevel("app.db"); got != slog.LevelInfo {
		t.Errorf("default effective level = %v, want Info from root", got)
	}

	tree.SetLevel("app", slog.LevelWarn)
	if got := tree.EffectiveLevel("app.db"); got != slog.LevelWarn {
		t.Errorf("effective level = %v, want Warn inherited from app", got)
	}

	tree.SetLevel("app.db", slog.LevelDebug)
	if got := tree.EffectiveLevel("app.db"); got != slog.LevelDebug {
		t.Errorf("effective level = %v, want the explicitly set Debug", got)
	}
}

func TestTreeLevelGatesLogger(t *testing.T) {
	tree := NewTree()
	sink := newRecordingHandler(slog.LevelDebug)
	tree.SetHandlers("app", sink)
	tree.SetLevel("app", slog.LevelWarn)

	logger := tree.Logger("app")
	logger.Info("filtered")
	logger.Warn("passes")

	records := sink.Records()
	if len(records) != 1 || records[0].Message != "passes" {
		t.Fatalf("got %d records %v, want only the warning", len(records), records)
	}
}

func TestTreeLoggerFollowsHandlerSwap(t *testing.T) {
	tree := NewTree()
	before := newRecordingHandler(slog.LevelDebug)
	var afterBuf bytes.Buffer
	after := slog.NewJSONHandler(&afterBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	tree.SetHandlers("app", before)
	tree.SetPropagate("app", false)

	logger := tree.Logger("app").With(slog.String("svc", "mail"))
	logger.Info("first")

	tree.SetHandlers("app", after)
	logger.Info("second")

	if got := len(before.Records()); got != 1 {
		t.Errorf("original handler received %d records, want 1", got)
	}

	// The same logger value reached the swapped-in handler, With-derived
	// attrs intact.
	out := afterBuf.String()
	if !strings.Contains(out, `"msg":"second"`) {
		t.Fatalf("swapped-in handler saw no record, output %q", out)
	}
	if strings.Contains(out, `"msg":"first"`) {
		t.Errorf("swapped-in handler received a record emitted before the swap")
	}
	if !strings.Contains(out, `"svc":"mail"`) {
		t.Errorf("With-derived attr lost after handler swap, output %q", out)
	}
}

func TestTreeReplaceAndRestoreHandlers(t *testing.T) {
	tree := NewTree()
	a := newRecordingHandler(slog.LevelDebug)
	b := newRecordingHandler(slog.LevelDebug)
	tree.SetHandlers("app", a, b)

	q := NewQueue(4)
	emitter := NewQueueHandler("app", q, nil)
	originals := tree.replaceHandlers("app", emitter)
	if len(originals) != 2 {
		t.Fatalf("replaceHandlers returned %d originals, want 2", len(originals))
	}
	if got := tree.Handlers("app"); len(got) != 1 {
		t.Fatalf("after replace, %d handlers, want 1", len(got))
	}

	tree.restoreHandlers("app", originals)
	if got := tree.Handlers("app"); len(got) != 2 {
		t.Fatalf("after restore, %d handlers, want 2", len(got))
	}
}

func TestTreeNames(t *testing.T) {
	tree := NewTree()
	tree.Logger("app.mail")
	tree.Logger("app")

	names := tree.Names()
	want := []string{RootLogger, "app", "app.mail"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
	}
}
