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

package wire

import "github.com/google/uuid"

// NewTraceTag generates the ASCII tag carried in a 0x04 trace frame.
// The original leaves tag generation to Lua callers (skynet.trace
// hands it a string built however the caller likes); this port picks
// a UUIDv4 so tags are unique across the whole cluster without a
// shared counter.
func NewTraceTag() string {
	return uuid.NewString()
}

// EncodeNewTrace generates a fresh trace tag and frames it in one
// step, returning the tag alongside the frame so the caller can carry
// it forward onto the request frames that follow.
func EncodeNewTrace() (tag string, frame []byte, err error) {
	tag = NewTraceTag()
	frame, err = EncodeTrace(tag)
	return tag, frame, err
}
