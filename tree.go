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
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// RootLogger is the name of the tree's root logger.
const RootLogger = ""

// Tree is a registry of named loggers with dotted-name inheritance: a record
// accepted by logger "app.mail" is offered to the handlers of "app.mail",
// "app", and the root, in that order, with each handler applying its own
// level. Handler sets are swappable at runtime, which is what lets a binding
// move a logger's handlers behind a queue without touching the *slog.Logger
// values already handed out.
type Tree struct {
	mu    sync.RWMutex
	nodes map[string]*treeNode
}

type treeNode struct {
	name      string
	level     *slog.LevelVar
	levelSet  bool
	handlers  []slog.Handler
	propagate bool
}

// NewTree returns a tree whose root logger has level Info and no handlers.
func NewTree() *Tree {
	t := &Tree{nodes: make(map[string]*treeNode)}
	root := t.node(RootLogger)
	root.levelSet = true
	return t
}

// node returns the named node, creating it on demand. Callers must hold no
// lock; node takes the write lock itself.
func (t *Tree) node(name string) *treeNode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nodeLocked(name)
}

func (t *Tree) nodeLocked(name string) *treeNode {
	if n, ok := t.nodes[name]; ok {
		return n
	}
	n := &treeNode{
		name:      name,
		level:     new(slog.LevelVar),
		propagate: true,
	}
	t.nodes[name] = n
	return n
}

// Logger returns a *slog.Logger bound to the named node. The logger observes
// later handler swaps and level changes on the tree.
func (t *Tree) Logger(name string) *slog.Logger {
	t.node(name)
	return slog.New(&treeHandler{tree: t, name: name})
}

// SetHandlers replaces the named logger's handler set.
func (t *Tree) SetHandlers(name string, handlers ...slog.Handler) {
	n := t.node(name)
	t.mu.Lock()
	n.handlers = append([]slog.Handler(nil), handlers...)
	t.mu.Unlock()
}

// Handlers returns a copy of the named logger's current handler set.
func (t *Tree) Handlers(name string) []slog.Handler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[name]
	if !ok {
		return nil
	}
	return append([]slog.Handler(nil), n.handlers...)
}

// SetLevel sets the named logger's level. Loggers without an explicit level
// inherit the nearest ancestor's.
func (t *Tree) SetLevel(name string, level slog.Level) {
	n := t.node(name)
	t.mu.Lock()
	n.level.Set(level)
	n.levelSet = true
	t.mu.Unlock()
}

// SetPropagate controls whether records accepted by the named logger also
// reach ancestor handlers. Propagation is on by default.
func (t *Tree) SetPropagate(name string, propagate bool) {
	n := t.node(name)
	t.mu.Lock()
	n.propagate = propagate
	t.mu.Unlock()
}

// EffectiveLevel returns the level governing the named logger, walking up
// the dotted hierarchy until an explicitly set level is found.
func (t *Tree) EffectiveLevel(name string) slog.Level {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for {
		if n, ok := t.nodes[name]; ok && n.levelSet {
			return n.level.Level()
		}
		if name == RootLogger {
			return slog.LevelInfo
		}
		name = parentName(name)
	}
}

// Names returns the sorted names of all loggers known to the tree.
func (t *Tree) Names() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.nodes))
	for name := range t.nodes {
		names = append(names, name)
	}
	t.mu.RUnlock()
	slices.Sort(names)
	return names
}

// replaceHandlers atomically swaps the named logger's handlers for the given
// replacement and returns the originals. Used during queueification.
func (t *Tree) replaceHandlers(name string, replacement slog.Handler) []slog.Handler {
	n := t.node(name)
	t.mu.Lock()
	defer t.mu.Unlock()
	originals := n.handlers
	n.handlers = []slog.Handler{replacement}
	return originals
}

// restoreHandlers puts a previously captured handler set back on the node.
func (t *Tree) restoreHandlers(name string, handlers []slog.Handler) {
	n := t.node(name)
	t.mu.Lock()
	n.handlers = append([]slog.Handler(nil), handlers...)
	t.mu.Unlock()
}

// chain returns the handler sets a record accepted by name is offered to:
// the node's own set, then each propagating ancestor's.
func (t *Tree) chain(name string) []slog.Handler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []slog.Handler
	for {
		if n, ok := t.nodes[name]; ok {
			out = append(out, n.handlers...)
			if !n.propagate {
				return out
			}
		}
		if name == RootLogger {
			return out
		}
		name = parentName(name)
	}
}

// parentName strips the last dotted component; "a.b.c" -> "a.b", "a" -> root.
func parentName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return RootLogger
}

// treeHandler adapts a tree node to slog.Handler. With-derived state is kept
// on the wrapper and applied per dispatch so the logger keeps following
// handler swaps made after derivation.
type treeHandler struct {
	tree *Tree
	name string
	ops  []handlerOp
}

// handlerOp is one WithAttrs or WithGroup application, replayed in order
// onto the current handler chain at dispatch time.
type handlerOp struct {
	group string
	attrs []slog.Attr
}

var _ slog.Handler = (*treeHandler)(nil)

// Enabled applies the logger's effective level; per-handler levels apply at
// dispatch.
func (h *treeHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.tree.EffectiveLevel(h.name)
}

// Handle offers the record to the node's chain, replaying With-derived state
// onto each handler first. Errors from individual handlers are joined.
func (h *treeHandler) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error
	for _, target := range h.tree.chain(h.name) {
		target = h.applyOps(target)
		if !target.Enabled(ctx, rec.Level) {
			continue
		}
		if err := target.Handle(ctx, rec.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs records the attrs for replay at dispatch time.
func (h *treeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return &treeHandler{
		tree: h.tree,
		name: h.name,
		ops:  append(slices.Clip(h.ops), handlerOp{attrs: attrs}),
	}
}

// WithGroup records the group for replay at dispatch time.
func (h *treeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &treeHandler{
		tree: h.tree,
		name: h.name,
		ops:  append(slices.Clip(h.ops), handlerOp{group: name}),
	}
}

// applyOps folds the recorded With operations onto target in original order.
func (h *treeHandler) applyOps(target slog.Handler) slog.Handler {
	for _, op := range h.ops {
		if op.group != "" {
			target = target.WithGroup(op.group)
			continue
		}
		target = target.WithAttrs(op.attrs)
	}
	return target
}
