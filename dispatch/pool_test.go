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

package dispatch_test

import (
	"context"
	"sync"
	"time"

	"github.com/nabbar/actorkit/dispatch"
	"github.com/nabbar/actorkit/handle"
	"github.com/nabbar/actorkit/mailbox"
	"github.com/nabbar/actorkit/monitor"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// countingHandler tallies every dispatched message by owner and can be
// told to report a service as exited on its first Close message.
type countingHandler struct {
	mu       sync.Mutex
	received map[handle.Handle]int
	exitOn   mailbox.MessageType
}

func newCountingHandler() *countingHandler {
	return &countingHandler{received: make(map[handle.Handle]int), exitOn: mailbox.TypeClose}
}

func (h *countingHandler) Dispatch(owner handle.Handle, msg mailbox.Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received[owner]++
	return msg.Type != h.exitOn
}

func (h *countingHandler) count(owner handle.Handle) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.received[owner]
}

var _ = Describe("Pool", func() {
	It("delivers every queued message to the handler", func() {
		q := mailbox.NewQueue()
		h := newCountingHandler()
		mon := monitor.NewMonitor(2, func(handle.Handle) {}, nil)
		p := dispatch.New(2, q, h, mon)

		owner := handle.NewHandle(0, 5)
		box := mailbox.New(owner)
		for i := 0; i < 20; i++ {
			box.Push(q, mailbox.Message{Type: mailbox.TypeText, Session: int32(i)})
		}
		// New() leaves in_global set so nothing races the fill above;
		// the one-time handoff onto the real queue is the caller's job,
		// the same handoff runtime.launch performs after a service's
		// Init returns.
		q.Push(box)
		p.Track()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			_ = p.Run(ctx)
			close(done)
		}()

		Eventually(func() int { return h.count(owner) }, time.Second).Should(Equal(20))

		cancel()
		Eventually(done, time.Second).Should(BeClosed())
	})

	It("marks a mailbox released once its handler reports the service has exited", func() {
		q := mailbox.NewQueue()
		h := newCountingHandler()
		mon := monitor.NewMonitor(1, func(handle.Handle) {}, nil)
		p := dispatch.New(1, q, h, mon)

		owner := handle.NewHandle(0, 9)
		box := mailbox.New(owner)
		box.Push(q, mailbox.Message{Type: mailbox.TypeText})
		box.Push(q, mailbox.Message{Type: mailbox.TypeClose})
		q.Push(box)
		p.Track()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = p.Run(ctx) }()

		Eventually(p.Quiescent, time.Second).Should(BeTrue())
		Expect(box.Released()).To(BeTrue())
	})

	It("recovers in_global on a mailbox queued empty so a later message still gets delivered", func() {
		q := mailbox.NewQueue()
		h := newCountingHandler()
		mon := monitor.NewMonitor(1, func(handle.Handle) {}, nil)
		p := dispatch.New(1, q, h, mon)

		owner := handle.NewHandle(0, 11)
		box := mailbox.New(owner)
		q.Push(box) // queued with nothing in it yet, as a fresh launch does

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = p.Run(ctx) }()

		// Give the worker a chance to pop the empty mailbox and clear
		// in_global before anything is sent to it.
		Consistently(func() int { return h.count(owner) }, 50*time.Millisecond).Should(Equal(0))

		box.Push(q, mailbox.Message{Type: mailbox.TypeText})
		Eventually(func() int { return h.count(owner) }, time.Second).Should(Equal(1))
	})
})
