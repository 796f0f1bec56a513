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

// Package wire implements the cluster framing protocol of
// lua-cluster.c: a big-endian u16 size prefix around a typed,
// little-endian-field body, with multi-part framing for payloads
// above 32 KiB and a 64 KiB single-frame ceiling.
package wire

import "github.com/nabbar/actorkit/errors"

// FrameType is the first byte of a cluster request frame body.
type FrameType byte

const (
	TypeRequest           FrameType = 0x00
	TypeRequestMultiBegin  FrameType = 0x01
	TypePushMultiBegin     FrameType = 0x41
	TypeMultiPart          FrameType = 0x02
	TypeMultiEnd           FrameType = 0x03
	TypeTrace              FrameType = 0x04
	TypeRequestName        FrameType = 0x80
	TypeRequestNameMulti   FrameType = 0x81
	TypePushNameMulti      FrameType = 0xC1
)

// Status is the single status byte of a response frame.
type Status byte

const (
	StatusError      Status = 0
	StatusOK         Status = 1
	StatusMultiBegin Status = 2
	StatusMultiPart  Status = 3
	StatusMultiEnd   Status = 4
)

const (
	// MultiPartThreshold is the payload size above which a request is
	// split into a header frame plus body chunks.
	MultiPartThreshold = 32 * 1024
	// MaxFrameSize is the 16-bit size field's ceiling, including body.
	MaxFrameSize = 0x10000
	// MaxSessionID is the highest value a session counter reaches
	// before wrapping back to 1 (spec.md §9 "Session arithmetic").
	MaxSessionID = 0x7FFFFFFF
)

var (
	ErrDecode      = errors.New(20, "wire: malformed frame")
	ErrNameLength  = errors.New(21, "wire: name must be 1-255 bytes")
	ErrSession     = errors.New(22, "wire: session must be strictly positive")
	ErrFrameTooBig = errors.New(23, "wire: frame exceeds 64KiB ceiling")
	ErrTraceTag    = errors.New(24, "wire: trace tag must be 1-0x8000 bytes")
)

// Request is a decoded request-side frame (addressed by handle or by
// name -- exactly one of Addr/Name is set).
type Request struct {
	Addr    uint32
	Name    string
	Session int32
	Payload []byte
	// TotalSize is set on a multi-part header frame.
	TotalSize uint32
	IsPush    bool
	IsMulti   bool // true for 0x01/0x41/0x81/0xC1 header frames
	IsBody    bool // true for 0x02/0x03 chunks
	IsFinal   bool // true for 0x03 (closes the assembly)
	IsTrace   bool   // true for 0x04 trace frames
	TraceTag  string // set when IsTrace is true
}

// Response is a decoded response-side frame.
type Response struct {
	Session   int32
	Status    Status
	Payload   []byte
	TotalSize uint32 // valid when Status == StatusMultiBegin
}

// NextSession advances a session counter the way the encoder does:
// increment, and if the result is non-positive wrap back to 1. Sessions
// are strictly positive 31-bit integers (spec.md §9).
func NextSession(cur int32) int32 {
	n := cur + 1
	if n <= 0 {
		n = 1
	}
	return n
}
