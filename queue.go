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
	"sync/atomic"
)

// DefaultQueueSize is the queue capacity used when none is configured.
const DefaultQueueSize = 1024

// Overflow selects the producer-side policy applied when a queue is full.
type Overflow int

const (
	// OverflowBlock blocks the emitting goroutine until space is available.
	// No record is ever lost, at the cost of briefly stalling the producer
	// when a sink falls behind. This is the default.
	OverflowBlock Overflow = iota
	// OverflowDropNewest discards the incoming record without blocking. Drops
	// are counted and reported through the queue's OnDrop callback.
	OverflowDropNewest
)

// Queue is the bounded channel shared by a queue handler and its listener.
// It is the only structure shared between producer and consumer goroutines;
// the channel itself provides the required synchronization.
type Queue struct {
	ch       chan Entry
	overflow Overflow
	onDrop   func(Entry)
	closed   atomic.Bool
	dropped  atomic.Uint64
}

// QueueOption customizes queue construction.
type QueueOption func(*Queue)

// WithOverflow selects the policy applied when the queue is full.
func WithOverflow(mode Overflow) QueueOption {
	return func(q *Queue) { q.overflow = mode }
}

// WithOnDrop registers a callback invoked for each dropped entry. The
// callback runs on the emitting goroutine and must not block.
func WithOnDrop(fn func(Entry)) QueueOption {
	return func(q *Queue) { q.onDrop = fn }
}

// NewQueue returns a bounded queue with the given capacity. A size less than
// one falls back to DefaultQueueSize.
func NewQueue(size int, opts ...QueueOption) *Queue {
	if size < 1 {
		size = DefaultQueueSize
	}
	q := &Queue{ch: make(chan Entry, size)}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

// Enqueue places e on the queue according to the overflow policy. It reports
// whether the entry was accepted. Entries offered after Close are counted as
// dropped rather than panicking into the producer.
func (q *Queue) Enqueue(e Entry) (ok bool) {
	if q.closed.Load() {
		q.drop(e)
		return false
	}

	// A racing Close can close the channel between the check above and the
	// send below; treat the resulting panic as a drop.
	defer func() {
		if recover() != nil {
			q.drop(e)
			ok = false
		}
	}()

	switch q.overflow {
	case OverflowDropNewest:
		select {
		case q.ch <- e:
			return true
		default:
			q.drop(e)
			return false
		}
	default:
		q.ch <- e
		return true
	}
}

// Records exposes the consumer side of the queue.
func (q *Queue) Records() <-chan Entry { return q.ch }

// Close marks the queue closed and closes the underlying channel. Entries
// already enqueued remain readable; later Enqueue calls count as drops.
// Close is safe to call once per queue.
func (q *Queue) Close() {
	if q.closed.CompareAndSwap(false, true) {
		close(q.ch)
	}
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool { return q.closed.Load() }

// Len returns the number of entries currently buffered.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return cap(q.ch) }

// Dropped returns the number of entries discarded by the overflow policy or
// offered after Close.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

// drop records a discarded entry and notifies the drop callback.
func (q *Queue) drop(e Entry) {
	q.dropped.Add(1)
	if q.onDrop != nil {
		q.onDrop(e)
	}
}
