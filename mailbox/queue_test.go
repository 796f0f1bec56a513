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

package mailbox_test

import (
	"sync"

	"github.com/nabbar/actorkit/handle"
	"github.com/nabbar/actorkit/mailbox"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Mailbox and global queue", func() {
	var q *mailbox.Queue
	var m *mailbox.Mailbox

	BeforeEach(func() {
		q = mailbox.NewQueue()
		m = mailbox.New(handle.NewHandle(0, 1))
		// New() leaves in_global set so nothing can race its own fill
		// below; queue it once up front the way a launched service's
		// mailbox gets queued right after Init returns.
		q.Push(m)
	})

	It("pushes itself onto the global queue exactly once while idle", func() {
		m.Push(q, mailbox.Message{Type: mailbox.TypeText, Data: []byte("a")})
		m.Push(q, mailbox.Message{Type: mailbox.TypeText, Data: []byte("b")})

		popped := q.TryPop()
		Expect(popped).To(BeIdenticalTo(m))
		Expect(q.TryPop()).To(BeNil(), "the mailbox must not be queued twice while still full")
	})

	It("delivers messages in push order (per-mailbox FIFO)", func() {
		for i := 0; i < 5; i++ {
			m.Push(q, mailbox.Message{Session: int32(i)})
		}
		for i := 0; i < 5; i++ {
			msg, ok := m.Pop()
			Expect(ok).To(BeTrue())
			Expect(msg.Session).To(Equal(int32(i)))
		}
		_, ok := m.Pop()
		Expect(ok).To(BeFalse())
	})

	It("grows its ring instead of overwriting unread messages", func() {
		for i := 0; i < 200; i++ {
			m.Push(q, mailbox.Message{Session: int32(i)})
		}
		Expect(m.Len()).To(Equal(200))
		for i := 0; i < 200; i++ {
			msg, ok := m.Pop()
			Expect(ok).To(BeTrue())
			Expect(msg.Session).To(Equal(int32(i)))
		}
	})

	It("is observed in the global queue by at most one worker at a time", func() {
		const workers = 8
		var wg sync.WaitGroup
		var mu sync.Mutex
		owners := map[*mailbox.Mailbox]int{}

		for i := 0; i < 50; i++ {
			m.Push(q, mailbox.Message{Session: int32(i)})
		}

		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					mb := q.TryPop()
					if mb == nil {
						return
					}
					mu.Lock()
					owners[mb]++
					mu.Unlock()
					for {
						_, ok := mb.Pop()
						if !ok {
							break
						}
					}
				}
			}()
		}
		wg.Wait()
		for _, n := range owners {
			Expect(n).To(Equal(1))
		}
	})

	It("marks release and lets a drain deliver residual messages as errors", func() {
		for i := 0; i < 3; i++ {
			m.Push(q, mailbox.Message{Session: int32(i)})
		}
		m.MarkRelease(q)
		Expect(m.Released()).To(BeTrue())

		var delivered []int32
		m.Drain(func(msg mailbox.Message) {
			delivered = append(delivered, msg.Session)
		})
		Expect(delivered).To(Equal([]int32{0, 1, 2}))
	})
})
