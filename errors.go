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
	"errors"
	"fmt"
)

// ErrNoRequestContext indicates that a restore operation could not find a
// request snapshot, either on the supplied record or in the supplied context.
// It always surfaces to the caller because running request-dependent code
// outside any request is a programming error, not a runtime condition to
// paper over.
var ErrNoRequestContext = errors.New("logconfig: no request context found on log record")

// ErrStopTimeout indicates Stop returned before the delivery goroutine
// finished draining. The worker keeps running and will exit once the queue is
// empty; the caller simply stopped waiting.
var ErrStopTimeout = errors.New("logconfig: timed out waiting for listener to drain")

// ErrAlreadyInstalled indicates a logger name was queueified twice for the
// same application. It is always wrapped in a *ConfigError.
var ErrAlreadyInstalled = errors.New("logconfig: logger already queueified for application")

// ErrUnknownApp indicates an operation referenced an application that was
// never installed, or passed a nil application while more than one is
// registered. It is always wrapped in a *ConfigError.
var ErrUnknownApp = errors.New("logconfig: unknown application")

// ConfigError reports a setup-time failure: malformed base configuration, an
// unknown handler or logger reference, or a duplicate install. Setup errors
// fail fast; they are never deferred to delivery time.
type ConfigError struct {
	// Op names the setup step that failed, such as "install" or "parse".
	Op string
	// Name is the logger or handler name involved, when applicable.
	Name string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("logconfig: %s %q: %v", e.Op, e.Name, e.Err)
	}
	return fmt.Sprintf("logconfig: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *ConfigError) Unwrap() error { return e.Err }

// configErr wraps err in a *ConfigError.
func configErr(op, name string, err error) error {
	return &ConfigError{Op: op, Name: name, Err: err}
}
