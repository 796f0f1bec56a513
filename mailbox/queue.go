/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package mailbox

import (
	"sync"
	"sync/atomic"
)

// Queue is the global run queue: a singly-linked FIFO of mailboxes that
// have work, protected by one lock, exactly as skynet_mq.c's
// global_queue.
type Queue struct {
	mu         sync.Mutex
	cond       *sync.Cond
	head, tail *Mailbox
	closed     bool
	depth      atomic.Int64
}

// Len reports the number of mailboxes currently queued for dispatch,
// the run-queue depth the metrics layer samples as a gauge.
func (q *Queue) Len() int {
	return int(q.depth.Load())
}

// NewQueue creates an empty global run queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *Queue) pushLocked(m *Mailbox) {
	m.next = nil
	if q.tail != nil {
		q.tail.next = m
		q.tail = m
	} else {
		q.head, q.tail = m, m
	}
	q.depth.Add(1)
	q.cond.Signal()
}

// Push appends m to the tail of the global queue and wakes one sleeping
// worker.
func (q *Queue) Push(m *Mailbox) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushLocked(m)
}

// Pop removes and returns the head of the global queue, blocking until a
// mailbox is available or the queue is closed. A nil return means the
// queue was closed and is empty -- the caller (a worker) should exit.
func (q *Queue) Pop() *Mailbox {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.head == nil && !q.closed {
		q.cond.Wait()
	}
	if q.head == nil {
		return nil
	}
	m := q.head
	q.head = m.next
	if q.head == nil {
		q.tail = nil
	}
	m.next = nil
	q.depth.Add(-1)
	return m
}

// TryPop removes and returns the head of the global queue without
// blocking; it returns nil if the queue is currently empty.
func (q *Queue) TryPop() *Mailbox {
	q.mu.Lock()
	defer q.mu.Unlock()
	m := q.head
	if m == nil {
		return nil
	}
	q.head = m.next
	if q.head == nil {
		q.tail = nil
	}
	m.next = nil
	q.depth.Add(-1)
	return m
}

// Close wakes every worker blocked in Pop so they can observe shutdown.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Push appends msg to the mailbox; if the mailbox was idle (not already
// in the global queue) it is pushed onto q. Growth happens automatically
// when the ring is full, matching skynet_mq_push/expand_queue.
func (m *Mailbox) Push(q *Queue, msg Message) {
	m.mu.Lock()
	m.ring[m.tail] = msg
	m.tail++
	if m.tail >= len(m.ring) {
		m.tail = 0
	}
	if m.head == m.tail {
		m.expand()
	}
	needPush := !m.inGlobal
	if needPush {
		m.inGlobal = true
	}
	m.mu.Unlock()

	if needPush {
		q.Push(m)
	}
}

// Pop removes and returns the head message. ok is false when the
// mailbox is empty, in which case in_global is cleared (the caller must
// not re-push this mailbox until Push sets it again).
func (m *Mailbox) Pop() (msg Message, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.head == m.tail {
		m.inGlobal = false
		m.overloadThreshold = overloadThreshold
		return Message{}, false
	}

	msg = m.ring[m.head]
	m.head++
	if m.head >= len(m.ring) {
		m.head = 0
	}

	length := m.length()
	for length > m.overloadThreshold {
		m.overload = length
		m.overloadThreshold *= 2
	}
	return msg, true
}

// MarkRelease flags the mailbox for release; if it is not currently in
// the global queue it is pushed so a worker observes the flag and
// drains it, matching skynet_mq_mark_release.
func (m *Mailbox) MarkRelease(q *Queue) {
	m.mu.Lock()
	already := m.inGlobal
	m.release = true
	if !already {
		m.inGlobal = true
	}
	m.mu.Unlock()
	if !already {
		q.Push(m)
	}
}

// Retire flags the mailbox for release without touching in_global.
// It is for a worker that currently holds the mailbox outside the
// queue (just popped, about to decide whether to requeue it) and has
// found the handler reporting its owning service has exited: the
// mailbox must not be pushed back, so Retire skips the push MarkRelease
// would otherwise perform.
func (m *Mailbox) Retire() {
	m.mu.Lock()
	m.release = true
	m.mu.Unlock()
}

// Released reports whether MarkRelease has been called.
func (m *Mailbox) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.release
}

// Drain pops every remaining message and calls drop for each, then
// leaves the mailbox empty. The runtime's ABORT command does not call
// it: cmdAbort only closes the global queue.
func (m *Mailbox) Drain(drop func(Message)) {
	for {
		msg, ok := m.Pop()
		if !ok {
			return
		}
		drop(msg)
	}
}
