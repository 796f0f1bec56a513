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

// Package timer implements the hierarchical timing wheel from
// skynet_timer.c: a near ring of 256 buckets plus four 64-slot cascades,
// ticking every 10 ms.
package timer

import (
	"sync"
	"time"

	"github.com/nabbar/actorkit/handle"
)

const (
	nearShift = 8
	nearSize  = 1 << nearShift // 256
	nearMask  = nearSize - 1

	levelShift = 6
	levelSize  = 1 << levelShift // 64
	levelMask  = levelSize - 1

	numCascades = 4

	// Tick is the wheel's unit of time.
	Tick = 10 * time.Millisecond
)

// Expiration is delivered when a scheduled node fires.
type Expiration struct {
	Target  handle.Handle
	Session int32
}

// Sink receives fired timer nodes. The runtime wires this to a push onto
// the target's mailbox; Wheel itself has no notion of mailboxes.
type Sink interface {
	Deliver(Expiration)
}

type node struct {
	expire  uint32
	target  handle.Handle
	session int32
	next    *node
}

// Wheel is a hierarchical timing wheel. All mutation happens under one
// lock, held for at most one tick's worth of work, as spec.md §5
// requires.
type Wheel struct {
	mu      sync.Mutex
	current uint32
	near    [nearSize]*node
	levels  [numCascades][levelSize]*node
	sink    Sink
}

// New creates a wheel that delivers fired nodes to sink.
func New(sink Sink) *Wheel {
	return &Wheel{sink: sink}
}

// Timeout schedules a delivery to target after the given number of
// ticks. ticks <= 0 delivers immediately (synchronously, on the
// caller's goroutine) -- matching skynet_timeout's "ticks <= 0" fast
// path.
func (w *Wheel) Timeout(target handle.Handle, ticks int, session int32) {
	if ticks <= 0 {
		w.sink.Deliver(Expiration{Target: target, Session: session})
		return
	}
	n := &node{target: target, session: session}

	w.mu.Lock()
	n.expire = w.current + uint32(ticks)
	w.link(n)
	w.mu.Unlock()
}

// link inserts n into the near ring or the appropriate cascade bucket,
// chosen by how many high bits n.expire shares with the current tick --
// the same rule as skynet_timer.c's add_node.
func (w *Wheel) link(n *node) {
	current := w.current
	expire := n.expire

	if (expire | nearMask) == (current | nearMask) {
		slot := expire & nearMask
		n.next = w.near[slot]
		w.near[slot] = n
		return
	}

	mask := uint32(nearMask)
	for lvl := 0; lvl < numCascades; lvl++ {
		mask = (mask << levelShift) | levelMask
		if (expire | mask) == (current | mask) || lvl == numCascades-1 {
			shift := nearShift + levelShift*lvl
			slot := (expire >> shift) & levelMask
			n.next = w.levels[lvl][slot]
			w.levels[lvl][slot] = n
			return
		}
	}
}

// Tick advances the wheel by one tick: it drains the near bucket for
// the tick that just elapsed, delivering every node in it, then
// cascades any coarser bucket whose low bits just rolled over back
// down into the near ring / finer cascades.
func (w *Wheel) Tick() {
	w.mu.Lock()
	slot := w.current & nearMask
	fire := w.near[slot]
	w.near[slot] = nil
	w.current++

	if slot == nearMask {
		w.cascade(0)
	}
	w.mu.Unlock()

	for n := fire; n != nil; {
		next := n.next
		w.sink.Deliver(Expiration{Target: n.target, Session: n.session})
		n = next
	}
}

// cascade re-links every node in levels[lvl][slot] (where slot is
// selected by the now-current tick) back through link(), which may put
// them in the near ring, a finer cascade, or -- on carry -- recurse into
// the next coarser level. Must be called with mu held.
func (w *Wheel) cascade(lvl int) {
	if lvl >= numCascades {
		return
	}
	shift := nearShift + levelShift*lvl
	slot := (w.current >> shift) & levelMask
	list := w.levels[lvl][slot]
	w.levels[lvl][slot] = nil

	for n := list; n != nil; {
		next := n.next
		n.next = nil
		w.link(n)
		n = next
	}

	if slot == 0 {
		w.cascade(lvl + 1)
	}
}

// Run drives Tick on a 10 ms cadence until stop is closed. It is the Go
// analogue of skynet_start.c's thread_timer.
func (w *Wheel) Run(stop <-chan struct{}) {
	t := time.NewTicker(Tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			w.Tick()
		}
	}
}

// Current returns the wheel's tick counter, for tests and diagnostics.
func (w *Wheel) Current() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}
