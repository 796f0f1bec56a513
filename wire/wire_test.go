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

package wire_test

import (
	"bytes"

	"github.com/nabbar/actorkit/wire"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Cluster wire framing", func() {
	It("round-trips a small numeric request", func() {
		frames, err := wire.EncodeNumeric(0x12345678, 7, []byte("ping"), false)
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(HaveLen(1))

		body, err := wire.StripHeader(frames[0])
		Expect(err).NotTo(HaveOccurred())

		req, err := wire.DecodeRequest(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(req.Addr).To(Equal(uint32(0x12345678)))
		Expect(req.Session).To(Equal(int32(7)))
		Expect(req.Payload).To(Equal([]byte("ping")))
		Expect(req.IsPush).To(BeFalse())
	})

	It("round-trips a small name-addressed push", func() {
		frames, err := wire.EncodeNamed(".echo", 0, []byte("hi"), true)
		Expect(err).NotTo(HaveOccurred())

		body, err := wire.StripHeader(frames[0])
		Expect(err).NotTo(HaveOccurred())
		req, err := wire.DecodeRequest(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(req.Name).To(Equal(".echo"))
		Expect(req.IsPush).To(BeTrue())
	})

	It("splits a 200KiB payload into a header plus 32KiB chunks, last one short", func() {
		payload := bytes.Repeat([]byte{0xAB}, 200*1024)
		frames, err := wire.EncodeNumeric(1, 1, payload, false)
		Expect(err).NotTo(HaveOccurred())

		// 1 header + 6 full 32KiB chunks + 1 short chunk (200KiB = 6*32KiB + 8KiB)
		Expect(frames).To(HaveLen(1 + 6 + 1))

		header, err := wire.StripHeader(frames[0])
		Expect(err).NotTo(HaveOccurred())
		hreq, err := wire.DecodeRequest(header)
		Expect(err).NotTo(HaveOccurred())
		Expect(hreq.IsMulti).To(BeTrue())
		Expect(hreq.TotalSize).To(Equal(uint32(len(payload))))

		reasm := wire.NewReassembler()
		reasm.Begin(hreq.Session, hreq.TotalSize)

		var reassembled []byte
		for _, f := range frames[1:] {
			b, err := wire.StripHeader(f)
			Expect(err).NotTo(HaveOccurred())
			chunk, err := wire.DecodeRequest(b)
			Expect(err).NotTo(HaveOccurred())
			Expect(chunk.IsBody).To(BeTrue())

			done := false
			reassembled, done = appendChunk(reasm, chunk)
			if chunk.IsFinal {
				Expect(done).To(BeTrue())
			} else {
				Expect(done).To(BeFalse())
			}
		}
		Expect(reassembled).To(Equal(payload))
	})

	It("round-trips a response and a multi-begin response", func() {
		ok, err := wire.EncodeResponse(3, wire.StatusOK, []byte("pong"))
		Expect(err).NotTo(HaveOccurred())
		body, err := wire.StripHeader(ok)
		Expect(err).NotTo(HaveOccurred())
		resp, err := wire.DecodeResponse(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Session).To(Equal(int32(3)))
		Expect(resp.Status).To(Equal(wire.StatusOK))
		Expect(resp.Payload).To(Equal([]byte("pong")))

		begin, err := wire.EncodeResponse(4, wire.StatusMultiBegin, []byte{0x00, 0x00, 0x01, 0x00})
		Expect(err).NotTo(HaveOccurred())
		body, err = wire.StripHeader(begin)
		Expect(err).NotTo(HaveOccurred())
		resp, err = wire.DecodeResponse(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Session).To(Equal(int32(4)))
		Expect(resp.Status).To(Equal(wire.StatusMultiBegin))
		Expect(resp.TotalSize).To(Equal(uint32(0x10000)))
	})

	It("wraps the session counter back to 1 past the 31-bit ceiling", func() {
		Expect(wire.NextSession(wire.MaxSessionID)).To(Equal(int32(1)))
		Expect(wire.NextSession(5)).To(Equal(int32(6)))
	})

	It("rejects a push-less request with a non-positive session", func() {
		_, err := wire.EncodeNumeric(1, 0, []byte("x"), false)
		Expect(err).To(MatchError(wire.ErrSession))
	})

	It("rejects an empty or overlong name", func() {
		_, err := wire.EncodeNamed("", 1, nil, false)
		Expect(err).To(MatchError(wire.ErrNameLength))

		_, err = wire.EncodeNamed(string(bytes.Repeat([]byte("n"), 256)), 1, nil, false)
		Expect(err).To(MatchError(wire.ErrNameLength))
	})

	It("round-trips a trace tag", func() {
		tag, frame, err := wire.EncodeNewTrace()
		Expect(err).NotTo(HaveOccurred())
		Expect(tag).NotTo(BeEmpty())

		body, err := wire.StripHeader(frame)
		Expect(err).NotTo(HaveOccurred())
		req, err := wire.DecodeRequest(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(req.IsTrace).To(BeTrue())
		Expect(req.TraceTag).To(Equal(tag))
	})

	It("rejects an empty trace tag", func() {
		_, err := wire.EncodeTrace("")
		Expect(err).To(MatchError(wire.ErrTraceTag))
	})
})

func appendChunk(r *wire.Reassembler, chunk wire.Request) ([]byte, bool) {
	return r.Append(chunk.Session, chunk.Payload, chunk.IsFinal)
}
