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
	"log/slog"
	"sync"
)

// App is an explicit application handle. Several applications may share one
// process; each gets its own bindings, and starting or stopping one never
// affects another. There is no package-level "current application"; callers
// pass the handle (nil is accepted only while exactly one app is registered).
type App struct {
	// Name identifies the application in error messages.
	Name string
	// Config selects the base logging tree and the loggers to queueify.
	Config AppConfig
}

// AppConfig is the per-application configuration consumed by InitApp.
// At most one of Logging, LoggingBytes, and LoggingFile may be set.
type AppConfig struct {
	// Logging is an in-memory base-tree configuration mapping.
	Logging map[string]any
	// LoggingBytes is raw JSON or YAML configuration; LoggingFormat selects
	// the encoding.
	LoggingBytes  []byte
	LoggingFormat Format
	// LoggingFile is a path to a .json/.yaml/.yml configuration file.
	LoggingFile string
	// Queue lists the logger names whose handlers are moved behind queues.
	Queue []string
}

// LogConfig configures a logger tree from declarative application config and
// rewires selected loggers behind bounded queues so handler I/O runs on
// dedicated goroutines instead of request goroutines.
type LogConfig struct {
	tree     *Tree
	registry *Registry

	mu      sync.Mutex
	closers map[*App][]func() error

	install   installConfig
	autoStart bool
}

// Option customizes a LogConfig.
type Option func(*LogConfig)

// WithTree supplies the logger tree to configure. Defaults to a fresh tree.
func WithTree(tree *Tree) Option {
	return func(lc *LogConfig) {
		if tree != nil {
			lc.tree = tree
		}
	}
}

// WithQueueSize sets the per-logger queue capacity.
func WithQueueSize(size int) Option {
	return func(lc *LogConfig) { lc.install.queueSize = size }
}

// WithQueueOptions appends queue construction options (overflow policy, drop
// callback) applied to every binding's queue.
func WithQueueOptions(opts ...QueueOption) Option {
	return func(lc *LogConfig) { lc.install.queueOpts = append(lc.install.queueOpts, opts...) }
}

// WithListenerOptions appends listener construction options (error writer,
// join timeout) applied to every binding's default listener.
func WithListenerOptions(opts ...ListenerOption) Option {
	return func(lc *LogConfig) { lc.install.listenerOpts = append(lc.install.listenerOpts, opts...) }
}

// WithHandlerFactory substitutes the producer-side handler implementation.
func WithHandlerFactory(f HandlerFactory) Option {
	return func(lc *LogConfig) {
		if f != nil {
			lc.install.handlerFactory = f
		}
	}
}

// WithListenerFactory substitutes the consumer-side worker implementation.
func WithListenerFactory(f ListenerFactory) Option {
	return func(lc *LogConfig) {
		if f != nil {
			lc.install.listenerFactory = f
		}
	}
}

// WithAutoStart controls whether InitApp starts the app's listeners
// immediately after installing them. Defaults to true.
func WithAutoStart(start bool) Option {
	return func(lc *LogConfig) { lc.autoStart = start }
}

// New returns a LogConfig ready to initialize applications.
func New(opts ...Option) *LogConfig {
	lc := &LogConfig{
		tree:      NewTree(),
		registry:  NewRegistry(),
		closers:   make(map[*App][]func() error),
		autoStart: true,
	}
	lc.install.handlerFactory = func(name string, q *Queue) slog.Handler {
		return NewQueueHandler(name, q, nil)
	}
	lc.install.listenerFactory = func(name string, q *Queue, originals []slog.Handler) Worker {
		return NewListener(name, q, originals, lc.install.listenerOpts...)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(lc)
		}
	}
	return lc
}

// Tree returns the logger tree managed by this extension.
func (lc *LogConfig) Tree() *Tree { return lc.tree }

// Logger returns the named logger from the managed tree.
func (lc *LogConfig) Logger(name string) *slog.Logger { return lc.tree.Logger(name) }

// InitApp applies app's base-tree configuration, queueifies the loggers
// listed in app.Config.Queue, and (unless WithAutoStart(false) was used)
// starts the app's listeners. Configuration problems surface here, before
// any record flows.
func (lc *LogConfig) InitApp(app *App) error {
	if app == nil {
		return configErr("init", "", ErrUnknownApp)
	}

	treeCfg, err := lc.resolveTreeConfig(app)
	if err != nil {
		return err
	}
	if treeCfg != nil {
		closers, err := treeCfg.Apply(lc.tree)
		lc.mu.Lock()
		lc.closers[app] = append(lc.closers[app], closers...)
		lc.mu.Unlock()
		if err != nil {
			return err
		}
	}

	if len(app.Config.Queue) > 0 {
		if err := lc.registry.Install(app, lc.tree, app.Config.Queue, lc.install); err != nil {
			return err
		}
		if lc.autoStart {
			return lc.registry.Start(app)
		}
	}
	return nil
}

// resolveTreeConfig loads the base-tree configuration from whichever source
// app.Config names, rejecting ambiguous combinations.
func (lc *LogConfig) resolveTreeConfig(app *App) (*TreeConfig, error) {
	sources := 0
	if app.Config.Logging != nil {
		sources++
	}
	if app.Config.LoggingBytes != nil {
		sources++
	}
	if app.Config.LoggingFile != "" {
		sources++
	}
	switch {
	case sources == 0:
		return nil, nil
	case sources > 1:
		return nil, configErr("init", app.Name, errors.New("multiple logging config sources set"))
	case app.Config.Logging != nil:
		return TreeConfigFromMap(app.Config.Logging)
	case app.Config.LoggingBytes != nil:
		return ParseTreeConfig(app.Config.LoggingBytes, app.Config.LoggingFormat)
	default:
		return LoadTreeConfigFile(app.Config.LoggingFile)
	}
}

// StartListeners starts the delivery workers registered for app. Passing nil
// resolves to the sole registered application.
func (lc *LogConfig) StartListeners(app *App) error {
	return lc.registry.Start(app)
}

// StopListeners stops app's delivery workers after draining their queues.
// Safe to call repeatedly.
func (lc *LogConfig) StopListeners(app *App) error {
	return lc.registry.Stop(app)
}

// Listeners enumerates the active bindings for app, for introspection and
// tests.
func (lc *LogConfig) Listeners(app *App) ([]*Binding, error) {
	return lc.registry.Bindings(app)
}

// TeardownApp stops app's workers, restores the original handlers, releases
// file sinks opened for the app, and forgets the app entirely.
func (lc *LogConfig) TeardownApp(app *App) error {
	errUninstall := lc.registry.Uninstall(app, lc.tree)

	lc.mu.Lock()
	closers := lc.closers[app]
	delete(lc.closers, app)
	lc.mu.Unlock()

	var errs []error
	if errUninstall != nil {
		errs = append(errs, errUninstall)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
