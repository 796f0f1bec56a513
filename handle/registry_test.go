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

package handle_test

import (
	"github.com/nabbar/actorkit/handle"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type entry struct {
	refs int
}

func (e *entry) Retain() { e.refs++ }

var _ = Describe("Registry", func() {
	var reg *handle.Registry[*entry]

	BeforeEach(func() {
		reg = handle.New[*entry](0)
	})

	It("assigns increasing handles and grabs them back", func() {
		h1, err := reg.Register(&entry{})
		Expect(err).NotTo(HaveOccurred())
		h2, err := reg.Register(&entry{})
		Expect(err).NotTo(HaveOccurred())
		Expect(h1).NotTo(Equal(h2))

		got, err := reg.Grab(h1)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.refs).To(Equal(1))
	})

	It("grows the slot table past its initial capacity", func() {
		var last handle.Handle
		for i := 0; i < 64; i++ {
			h, err := reg.Register(&entry{})
			Expect(err).NotTo(HaveOccurred())
			last = h
		}
		Expect(reg.Len()).To(Equal(64))
		_, err := reg.Grab(last)
		Expect(err).NotTo(HaveOccurred())
	})

	It("fails to grab a retired handle", func() {
		h, _ := reg.Register(&entry{})
		_, err := reg.Retire(h)
		Expect(err).NotTo(HaveOccurred())

		_, err = reg.Grab(h)
		Expect(err).To(MatchError(handle.ErrNotFound))
	})

	It("binds a name once and rejects a second bind", func() {
		h, _ := reg.Register(&entry{})
		Expect(reg.Bind(".echo", h)).To(Succeed())
		Expect(reg.Bind(".echo", h)).To(MatchError(handle.ErrNameTaken))

		found, ok := reg.FindName(".echo")
		Expect(ok).To(BeTrue())
		Expect(found).To(Equal(h))
	})

	It("drops name bindings on retire", func() {
		h, _ := reg.Register(&entry{})
		Expect(reg.Bind(".svc", h)).To(Succeed())
		_, err := reg.Retire(h)
		Expect(err).NotTo(HaveOccurred())

		_, ok := reg.FindName(".svc")
		Expect(ok).To(BeFalse())
	})

	It("walks every live handle and skips retired ones", func() {
		h1, _ := reg.Register(&entry{})
		h2, _ := reg.Register(&entry{})
		_, err := reg.Retire(h1)
		Expect(err).NotTo(HaveOccurred())

		var seen []handle.Handle
		reg.Each(func(h handle.Handle, _ *entry) {
			seen = append(seen, h)
		})
		Expect(seen).To(ConsistOf(h2))
	})
})

var _ = Describe("Handle", func() {
	It("packs and unpacks node/local parts", func() {
		h := handle.NewHandle(3, 0xABCDEF)
		Expect(h.Node()).To(Equal(uint8(3)))
		Expect(h.Local()).To(Equal(uint32(0xABCDEF)))
		Expect(h.String()).To(Equal(":03abcdef"))
	})

	It("treats zero as invalid", func() {
		Expect(handle.Invalid.Valid()).To(BeFalse())
		Expect(handle.NewHandle(0, 1).Valid()).To(BeTrue())
	})
})
