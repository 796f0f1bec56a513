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

package dispatch

import (
	"context"
	"sync/atomic"

	"github.com/nabbar/actorkit/handle"
	"github.com/nabbar/actorkit/mailbox"
	"github.com/nabbar/actorkit/monitor"
	"golang.org/x/sync/errgroup"
)

// Handler processes exactly one mailbox message. Implementations
// return false once a service has fully torn down (its release
// callback returned after a Close message), signalling the pool to
// stop counting it toward the live-service total.
type Handler interface {
	Dispatch(owner handle.Handle, msg mailbox.Message) (alive bool)
}

// Pool is the fixed-size worker group draining the global run queue,
// grounded in skynet_start.c's thread_worker and the dispatch loop in
// skynet_server.c's skynet_context_message_dispatch.
type Pool struct {
	queue   *mailbox.Queue
	handler Handler
	mon     *monitor.Monitor
	workers int

	live atomic.Int64 // mailboxes not yet fully released

	overload func(owner handle.Handle, n int)
}

// SetOverload installs fn to be called with the write-buffer overload
// count skynet_mq.c's skynet_mq_pop computes, any time a pop crosses
// the doubling threshold. fn runs on the popping worker's goroutine.
func (p *Pool) SetOverload(fn func(owner handle.Handle, n int)) { p.overload = fn }

// New builds a pool of n workers pulling from q and handing messages
// to h; mon receives a Trigger/Check bracket around every dispatched
// message so an endless handler call is caught by the watchdog sweep.
func New(n int, q *mailbox.Queue, h Handler, mon *monitor.Monitor) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{queue: q, handler: h, mon: mon, workers: n}
}

// Track registers one more live mailbox with the pool, so Quiescent
// can report whether every service has finished draining.
func (p *Pool) Track() { p.live.Add(1) }

// Quiescent reports whether every tracked mailbox has released.
func (p *Pool) Quiescent() bool { return p.live.Load() == 0 }

// Run launches the worker goroutines and blocks until ctx is
// cancelled and the global queue is closed, at which point every
// worker observes a nil Pop and returns.
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		idx := i
		g.Go(func() error {
			p.worker(gctx, idx)
			return nil
		})
	}
	<-gctx.Done()
	p.queue.Close()
	return g.Wait()
}

func (p *Pool) worker(ctx context.Context, index int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		box := p.queue.Pop()
		if box == nil {
			return // queue closed and drained: shutdown
		}

		n := batchSize(index, box.Len())
		emptied := false
		for i := 0; i < n; i++ {
			msg, ok := box.Pop()
			if !ok {
				emptied = true
				break
			}
			p.dispatchOne(index, box, msg)
			if n := box.Overload(); n > 0 && p.overload != nil {
				p.overload(box.Owner(), n)
			}
		}
		if n == 0 {
			// Nothing to dispatch this round; still run the mailbox's
			// own Pop once so it clears in_global the same way a
			// genuinely-drained Pop does. Skipping this would leave
			// in_global stuck set with the mailbox off the queue, and
			// no future Send would ever be able to re-push it.
			_, _ = box.Pop()
			emptied = true
		}

		switch {
		case box.Released() && box.Len() == 0:
			p.live.Add(-1)
		case emptied:
			// in_global already cleared inside Pop(); the next Send
			// to this mailbox will push it back onto the queue.
		default:
			// The batch ran out before the ring did. Requeue
			// unconditionally, even if the ring looks empty right
			// now: the next worker to pop it performs the empty-Pop
			// above and clears in_global itself. Matches
			// skynet_context_message_dispatch always pushing the
			// queue back after a full batch.
			p.queue.Push(box)
		}
	}
}

func (p *Pool) dispatchOne(worker int, box *mailbox.Mailbox, msg mailbox.Message) {
	owner := box.Owner()
	if p.mon != nil {
		p.mon.Watchdog(worker).Trigger(msg.Source, owner)
	}
	alive := p.handler.Dispatch(owner, msg)
	if p.mon != nil {
		p.mon.Watchdog(worker).Trigger(handle.Invalid, handle.Invalid)
	}
	if !alive {
		box.Retire()
	}
}
