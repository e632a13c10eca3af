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

// Package logconfighttp provides net/http middleware that arms requests for
// logconfig's snapshot capture, so records emitted during a request carry a
// copy of its identifying state into queued delivery goroutines.
//
//	mux := http.NewServeMux()
//	// ... register handlers ...
//	srv := &http.Server{
//	    Handler: logconfighttp.Middleware()(mux),
//	}
//
// Credential-bearing headers (Authorization, Cookie, and friends) are
// excluded from snapshots by default; see WithRedactedHeaders.
package logconfighttp
