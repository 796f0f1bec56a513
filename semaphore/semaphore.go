/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package semaphore bounds how many goroutines run a given piece of work at
// once: the actor runtime's aggregator uses one to cap concurrent async
// flush callbacks, and any worker-pool-shaped component can use one to cap
// fan-out.
package semaphore

import "context"

// Semaphore is a weighted worker limiter that is itself a context.Context:
// DeferMain cancels that context, letting callers select on Done() to know
// when every worker has been told to stop.
type Semaphore interface {
	context.Context

	// Weighted returns the configured capacity: a positive worker limit, or
	// a non-positive value meaning unlimited.
	Weighted() int64

	// NewWorker blocks until a slot is available or the semaphore's context
	// is done.
	NewWorker() error

	// NewWorkerTry acquires a slot without blocking, reporting whether one
	// was available.
	NewWorkerTry() bool

	// DeferWorker releases a slot acquired by NewWorker/NewWorkerTry.
	DeferWorker()

	// WaitAll blocks until every outstanding slot has been released.
	WaitAll() error

	// DeferMain cancels the semaphore's context, releases its resources, and
	// closes Done().
	DeferMain()

	// Clone returns a new Semaphore with the same capacity and parent
	// context, independent of this one's worker count.
	Clone() Semaphore

	// New is an alias of Clone.
	New() Semaphore

	// BarNumber returns a Bar tracking up to total units of work under this
	// semaphore's concurrency limit.
	BarNumber(title, unit string, total int64, removeOnComplete bool, extra interface{}) Bar

	// GetMPB exposes the underlying progress-bar container. This package
	// has no progress-bar container, so it returns nil whether or not
	// progress was requested at construction.
	GetMPB() interface{}
}

// Bar is one unit of progress tracked against a Semaphore's concurrency
// limit.
type Bar interface {
	// NewWorker acquires a slot under the parent semaphore.
	NewWorker() error

	// DeferWorker releases the slot. The Bar keeps no progress count.
	DeferWorker()
}
