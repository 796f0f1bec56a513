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

package reactor_test

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/nabbar/actorkit/handle"
	"github.com/nabbar/actorkit/reactor"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// awaitEvent drains r's event channel until it sees one of type t,
// failing the spec if none arrives within the deadline.
func awaitEvent(r *reactor.Reactor, t reactor.EventType) reactor.Event {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-r.Events():
			if ev.Type == t {
				return ev
			}
		case <-deadline:
			Fail("timed out waiting for event type")
		}
	}
}

var _ = Describe("Reactor", func() {
	var (
		r      *reactor.Reactor
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		var err error
		r, err = reactor.New(16)
		Expect(err).NotTo(HaveOccurred())
		ctx, cancel = context.WithCancel(context.Background())
		go r.Loop(ctx)
	})

	AfterEach(func() {
		cancel()
	})

	It("accepts a connection on a listen socket and exchanges data", func() {
		listenID, ok := r.Reserve()
		Expect(ok).To(BeTrue())
		r.Submit(reactor.Command{Tag: reactor.CmdListen, ID: listenID, Opaque: handle.NewHandle(0, 1), Addr: "127.0.0.1", Backlog: 16})

		bound := awaitEvent(r, reactor.EventListen).Addr
		Expect(bound).NotTo(BeEmpty())

		_, port, err := net.SplitHostPort(bound)
		Expect(err).NotTo(HaveOccurred())
		p, err := strconv.Atoi(port)
		Expect(err).NotTo(HaveOccurred())

		clientID, ok := r.Reserve()
		Expect(ok).To(BeTrue())
		r.Submit(reactor.Command{Tag: reactor.CmdOpen, ID: clientID, Opaque: handle.NewHandle(0, 2), Addr: "127.0.0.1", Port: p})

		accepted := awaitEvent(r, reactor.EventAccept)
		_ = awaitEvent(r, reactor.EventConnect)

		r.Submit(reactor.Command{Tag: reactor.CmdSend, ID: accepted.ID, Payload: []byte("hello")})

		data := awaitEvent(r, reactor.EventData)
		Expect(data.Payload).To(Equal([]byte("hello")))
	})

	It("reports the fast-path and piped-command counters independently", func() {
		pipeCount, directCount := r.Stats()
		Expect(pipeCount).To(BeNumerically(">=", uint64(0)))
		Expect(directCount).To(Equal(uint64(0)))
	})
})
