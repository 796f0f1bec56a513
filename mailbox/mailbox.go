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

// Package mailbox implements the per-service message ring and the global
// run queue of mailboxes that have work, modelled on skynet_mq.c.
package mailbox

import (
	"sync"

	"github.com/nabbar/actorkit/handle"
)

const (
	defaultQueueSize  = 64
	overloadThreshold = 1024
)

// MessageType classifies a mailbox entry the way the top byte of
// sz_and_type does in the original ring buffer.
type MessageType uint8

const (
	TypeResponse MessageType = iota
	TypeRequest
	TypeText
	TypeError
	TypeData
	TypeConnect
	TypeClose
	TypeAccept
	TypeUDP
	TypeWarning
)

// Message is one mailbox entry.
type Message struct {
	Source  handle.Handle
	Session int32
	Type    MessageType
	Data    []byte

	// Trace carries the tag attached by Context.SendTraced, the Go
	// analogue of the 0x04 trace frame lua-cluster.c ships ahead of a
	// traced cluster request. Empty for an untraced message.
	Trace string
}

// Mailbox is a ring buffer of pending Messages for exactly one service.
// Capacity only ever grows, by doubling; it never shrinks. A Mailbox
// is in the global run queue at most once -- that invariant is what
// lets a worker acquire exclusive access to a service simply by
// popping its Mailbox off the queue.
type Mailbox struct {
	mu                sync.Mutex
	owner             handle.Handle
	ring              []Message
	head, tail        int
	inGlobal          bool
	release           bool
	overload          int
	overloadThreshold int
	next              *Mailbox // global queue link
}

// New creates an empty mailbox for owner. The in_global flag starts set,
// exactly as skynet_mq_create documents: the caller must not push the
// mailbox onto the global queue until the owning service has finished
// its init callback.
func New(owner handle.Handle) *Mailbox {
	return &Mailbox{
		owner:             owner,
		ring:              make([]Message, defaultQueueSize),
		inGlobal:          true,
		overloadThreshold: overloadThreshold,
	}
}

// Owner returns the handle this mailbox belongs to.
func (m *Mailbox) Owner() handle.Handle { return m.owner }

// Len returns the current number of queued messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.length()
}

func (m *Mailbox) length() int {
	if m.head <= m.tail {
		return m.tail - m.head
	}
	return m.tail + len(m.ring) - m.head
}

// Overload returns and resets the overload counter; zero means not
// overloaded. Callers surface a non-zero value as a WARNING pseudo
// message, per spec.md §4.5's write-buffer analogue for mailboxes.
func (m *Mailbox) Overload() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overload == 0 {
		return 0
	}
	o := m.overload
	m.overload = 0
	return o
}

func (m *Mailbox) expand() {
	newRing := make([]Message, len(m.ring)*2)
	for i := 0; i < len(m.ring); i++ {
		newRing[i] = m.ring[(m.head+i)%len(m.ring)]
	}
	m.head = 0
	m.tail = len(m.ring)
	m.ring = newRing
}
