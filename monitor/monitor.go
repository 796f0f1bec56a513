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

// Package monitor is the watchdog of skynet_monitor.c: one slot per
// worker, tracking whether the worker has made progress since the last
// check, 5 seconds apart.
package monitor

import (
	"sync/atomic"
	"time"

	"github.com/nabbar/actorkit/handle"
)

// Watchdog observes the current callback invocation does not stall.
type Watchdog struct {
	version      atomic.Uint32
	checkVersion uint32
	source       atomic.Uint32
	dest         atomic.Uint32
}

// New creates an idle watchdog slot.
func New() *Watchdog {
	return &Watchdog{}
}

// Trigger records that a worker is now processing a message from source
// to dest, or (0, 0) to mark quiescence between messages. Called before
// and after every dispatched message, per spec.md §4.3 step 5.
func (w *Watchdog) Trigger(source, dest handle.Handle) {
	w.source.Store(uint32(source))
	w.dest.Store(uint32(dest))
	w.version.Add(1)
}

// EndlessFunc marks a target handle as stuck; the runtime wires this to
// the service context's endless flag.
type EndlessFunc func(handle.Handle)

// Check compares the current version against the version observed at
// the last Check; if unchanged and a destination is set, the worker has
// not progressed in the whole period and the target is marked endless.
func (w *Watchdog) Check(markEndless EndlessFunc, warn func(source, dest handle.Handle, version uint32)) {
	v := w.version.Load()
	if v == w.checkVersion {
		dest := handle.Handle(w.dest.Load())
		if dest != handle.Invalid {
			markEndless(dest)
			if warn != nil {
				warn(handle.Handle(w.source.Load()), dest, v)
			}
		}
	} else {
		w.checkVersion = v
	}
}

// Period is the interval between Monitor sweeps.
const Period = 5 * time.Second

// Monitor owns one Watchdog per worker and sweeps them every Period.
type Monitor struct {
	watchdogs   []*Watchdog
	markEndless EndlessFunc
	warn        func(source, dest handle.Handle, version uint32)
	stats       func()
}

// NewMonitor creates a monitor with n worker slots.
func NewMonitor(n int, markEndless EndlessFunc, warn func(source, dest handle.Handle, version uint32)) *Monitor {
	m := &Monitor{
		watchdogs:   make([]*Watchdog, n),
		markEndless: markEndless,
		warn:        warn,
	}
	for i := range m.watchdogs {
		m.watchdogs[i] = New()
	}
	return m
}

// SetStats registers a callback invoked once per sweep, after the
// watchdogs have been checked. The runtime uses this to sample host
// CPU/memory into its periodic log line; Monitor itself stays free of
// any sampling or logging dependency.
func (m *Monitor) SetStats(stats func()) { m.stats = stats }

// Watchdog returns the slot a given worker index should Trigger.
func (m *Monitor) Watchdog(worker int) *Watchdog { return m.watchdogs[worker] }

// Run sweeps every watchdog on Period until stop is closed, the Go
// analogue of skynet_start.c's thread_monitor.
func (m *Monitor) Run(stop <-chan struct{}) {
	t := time.NewTicker(Period)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			for _, w := range m.watchdogs {
				w.Check(m.markEndless, m.warn)
			}
			if m.stats != nil {
				m.stats()
			}
		}
	}
}
