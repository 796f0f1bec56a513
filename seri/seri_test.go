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

package seri_test

import (
	"strings"

	"github.com/nabbar/actorkit/seri"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pack/Unpack round trip", func() {
	It("round-trips nil, booleans and strings", func() {
		buf, err := seri.Pack(nil, true, false, "short", strings.Repeat("x", 64))
		Expect(err).NotTo(HaveOccurred())

		out, err := seri.Unpack(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal([]any{nil, true, false, "short", strings.Repeat("x", 64)}))
	})

	It("round-trips integers at every width boundary", func() {
		boundaries := []int64{
			0, 1, -1,
			127, -128, 128, -129,
			32767, -32768, 32768, -32769,
			2147483647, -2147483648, 2147483648, -2147483649,
			9223372036854775807, -9223372036854775808,
		}
		values := make([]any, len(boundaries))
		for i, b := range boundaries {
			values[i] = b
		}

		buf, err := seri.Pack(values...)
		Expect(err).NotTo(HaveOccurred())

		out, err := seri.Unpack(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(len(boundaries)))
		for i, b := range boundaries {
			Expect(out[i]).To(Equal(b))
		}
	})

	It("round-trips IEEE-754 doubles", func() {
		buf, err := seri.Pack(3.14159, -0.5, 0.0)
		Expect(err).NotTo(HaveOccurred())
		out, err := seri.Unpack(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal([]any{3.14159, -0.5, 0.0}))
	})

	It("round-trips a nested table with array and hash parts", func() {
		inner := &seri.Table{Array: []any{int64(1), int64(2), "leaf"}}
		outer := &seri.Table{Array: []any{inner}, Hash: map[any]any{"k": int64(9)}}

		buf, err := seri.Pack(outer)
		Expect(err).NotTo(HaveOccurred())
		out, err := seri.Unpack(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(1))

		got, ok := out[0].(*seri.Table)
		Expect(ok).To(BeTrue())
		Expect(got.Array).To(HaveLen(1))
		Expect(got.Hash["k"]).To(Equal(int64(9)))

		gotInner, ok := got.Array[0].(*seri.Table)
		Expect(ok).To(BeTrue())
		Expect(gotInner.Array).To(Equal([]any{int64(1), int64(2), "leaf"}))
	})

	It("rejects tables nested beyond the max depth", func() {
		var t *seri.Table
		for i := 0; i < 40; i++ {
			t = &seri.Table{Array: []any{t}}
		}
		_, err := seri.Pack(t)
		Expect(err).To(MatchError(seri.ErrDepth))
	})

	It("reports truncated input as an error", func() {
		buf, _ := seri.Pack("hello world, a long enough short string")
		_, err := seri.Unpack(buf[:len(buf)-2])
		Expect(err).To(HaveOccurred())
	})
})
