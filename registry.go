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
	"log/slog"
	"sync"
)

// HandlerFactory builds the producer-side handler for one binding. Custom
// implementations replace the default QueueHandler; they must enqueue into q
// and perform no sink I/O.
type HandlerFactory func(name string, q *Queue) slog.Handler

// ListenerFactory builds the consumer-side worker for one binding, owning
// the original handlers that were moved aside.
type ListenerFactory func(name string, q *Queue, originals []slog.Handler) Worker

// Binding associates one queueified logger with its emitter/worker pair and
// the handlers that were moved behind the queue.
type Binding struct {
	name      string
	queue     *Queue
	emitter   slog.Handler
	worker    Worker
	originals []slog.Handler
}

// Name returns the bound logger's name.
func (b *Binding) Name() string { return b.name }

// Queue returns the binding's bounded queue.
func (b *Binding) Queue() *Queue { return b.queue }

// Emitter returns the handler installed on the logger.
func (b *Binding) Emitter() slog.Handler { return b.emitter }

// Worker returns the binding's delivery worker.
func (b *Binding) Worker() Worker { return b.worker }

// OriginalHandlers returns a copy of the handlers moved behind the queue.
func (b *Binding) OriginalHandlers() []slog.Handler {
	return append([]slog.Handler(nil), b.originals...)
}

// installConfig carries the per-binding construction parameters resolved by
// the facade's options.
type installConfig struct {
	queueSize       int
	queueOpts       []QueueOption
	listenerOpts    []ListenerOption
	handlerFactory  HandlerFactory
	listenerFactory ListenerFactory
}

// Registry owns the bindings of every application sharing the process. The
// mutex only guards the app map; once installed, a binding's queue carries
// all producer/consumer synchronization by itself.
type Registry struct {
	mu       sync.Mutex
	apps     map[*App][]*Binding
	appOrder []*App
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{apps: make(map[*App][]*Binding)}
}

// Install queueifies each named logger on tree for app: the logger's current
// handlers are captured and moved aside, a queue handler takes their place,
// and a worker holding the originals is registered under app. Workers are
// not started; call Start.
//
// Installing a name twice for the same app is a *ConfigError wrapping
// ErrAlreadyInstalled. On error, loggers already processed in this call keep
// their new bindings; the caller decides whether to tear down.
func (r *Registry) Install(app *App, tree *Tree, names []string, cfg installConfig) error {
	if app == nil {
		return configErr("install", "", ErrUnknownApp)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.apps[app]; !ok {
		r.apps[app] = nil
		r.appOrder = append(r.appOrder, app)
	}

	for _, name := range names {
		if r.boundLocked(app, name) {
			return configErr("install", name, ErrAlreadyInstalled)
		}

		q := NewQueue(cfg.queueSize, cfg.queueOpts...)
		emitter := cfg.handlerFactory(name, q)
		originals := tree.replaceHandlers(name, emitter)
		worker := cfg.listenerFactory(name, q, originals)

		r.apps[app] = append(r.apps[app], &Binding{
			name:      name,
			queue:     q,
			emitter:   emitter,
			worker:    worker,
			originals: originals,
		})
	}
	return nil
}

// boundLocked reports whether name is already queueified for app.
func (r *Registry) boundLocked(app *App, name string) bool {
	for _, b := range r.apps[app] {
		if b.name == name {
			return true
		}
	}
	return false
}

// Start launches the workers registered for app. Workers belonging to other
// applications are untouched. A nil app resolves to the sole registered
// application when exactly one exists.
func (r *Registry) Start(app *App) error {
	bindings, err := r.bindings(app)
	if err != nil {
		return err
	}
	for _, b := range bindings {
		b.worker.Start()
	}
	return nil
}

// Stop stops the workers registered for app, draining their queues. It is
// idempotent; stopping already-stopped workers is a no-op. Join timeouts are
// reported as a joined, non-fatal error.
func (r *Registry) Stop(app *App) error {
	bindings, err := r.bindings(app)
	if err != nil {
		return err
	}
	var errs []error
	for _, b := range bindings {
		if err := b.worker.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop listener %q: %w", b.name, err))
		}
	}
	return errors.Join(errs...)
}

// Uninstall stops app's workers, restores each logger's original handlers on
// tree, and removes the application from the registry.
func (r *Registry) Uninstall(app *App, tree *Tree) error {
	bindings, err := r.bindings(app)
	if err != nil {
		return err
	}
	stopErr := r.Stop(app)

	for _, b := range bindings {
		tree.restoreHandlers(b.name, b.originals)
	}

	r.mu.Lock()
	resolved := app
	if resolved == nil && len(r.appOrder) == 1 {
		resolved = r.appOrder[0]
	}
	delete(r.apps, resolved)
	for i, a := range r.appOrder {
		if a == resolved {
			r.appOrder = append(r.appOrder[:i], r.appOrder[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	return stopErr
}

// Bindings returns the bindings registered for app, in install order.
func (r *Registry) Bindings(app *App) ([]*Binding, error) {
	return r.bindings(app)
}

// bindings resolves app (nil means "the only one") and copies its binding
// slice out from under the lock.
func (r *Registry) bindings(app *App) ([]*Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if app == nil {
		if len(r.appOrder) != 1 {
			return nil, configErr("resolve app", "", ErrUnknownApp)
		}
		app = r.appOrder[0]
	}
	bindings, ok := r.apps[app]
	if !ok {
		return nil, configErr("resolve app", app.Name, ErrUnknownApp)
	}
	return append([]*Binding(nil), bindings...), nil
}
