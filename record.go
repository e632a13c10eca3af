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

import "log/slog"

// Entry is the unit placed on a binding's queue: a detached copy of the log
// record plus the request snapshot that was active when it was emitted.
//
// The snapshot is attached at emission time and never mutated afterward. A
// nil Snapshot means the record was emitted outside any request.
type Entry struct {
	// Logger is the name of the queueified logger that produced the record.
	Logger string
	// Record is a cloned slog.Record, safe to retain past the emitting call.
	Record slog.Record
	// Snapshot is the request state captured at emission, or nil.
	Snapshot *Snapshot
}
