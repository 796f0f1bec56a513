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

import "encoding/binary"

func fillHeader(body []byte) []byte {
	out := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(out, uint16(len(body)))
	copy(out[2:], body)
	return out
}

func appendU32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

// EncodeNumeric frames a handle-addressed request or push. session must
// be strictly positive for a request; callers pass 0 for a push. It
// returns one or more ready-to-write frames (each including its 2-byte
// big-endian size prefix).
func EncodeNumeric(addr uint32, session int32, payload []byte, isPush bool) ([][]byte, error) {
	if !isPush && session <= 0 {
		return nil, ErrSession
	}
	if len(payload) <= MultiPartThreshold {
		body := []byte{byte(TypeRequest)}
		body = appendU32(body, addr)
		body = appendU32(body, uint32(session))
		body = append(body, payload...)
		if len(body) > 0xFFFF {
			return nil, ErrFrameTooBig
		}
		return [][]byte{fillHeader(body)}, nil
	}

	headerType := TypeRequestMultiBegin
	if isPush {
		headerType = TypePushMultiBegin
	}
	header := []byte{byte(headerType)}
	header = appendU32(header, addr)
	header = appendU32(header, uint32(session))
	header = appendU32(header, uint32(len(payload)))

	frames := [][]byte{fillHeader(header)}
	frames = append(frames, encodeBodyChunks(session, payload)...)
	return frames, nil
}

// EncodeNamed frames a name-addressed request or push.
func EncodeNamed(name string, session int32, payload []byte, isPush bool) ([][]byte, error) {
	if len(name) == 0 || len(name) > 255 {
		return nil, ErrNameLength
	}
	if !isPush && session <= 0 {
		return nil, ErrSession
	}
	if len(payload) <= MultiPartThreshold {
		body := []byte{byte(TypeRequestName), byte(len(name))}
		body = append(body, name...)
		body = appendU32(body, uint32(session))
		body = append(body, payload...)
		if len(body) > 0xFFFF {
			return nil, ErrFrameTooBig
		}
		return [][]byte{fillHeader(body)}, nil
	}

	headerType := TypeRequestNameMulti
	if isPush {
		headerType = TypePushNameMulti
	}
	header := []byte{byte(headerType), byte(len(name))}
	header = append(header, name...)
	header = appendU32(header, uint32(session))
	header = appendU32(header, uint32(len(payload)))

	frames := [][]byte{fillHeader(header)}
	frames = append(frames, encodeBodyChunks(session, payload)...)
	return frames, nil
}

func encodeBodyChunks(session int32, payload []byte) [][]byte {
	var frames [][]byte
	for off := 0; off < len(payload); off += MultiPartThreshold {
		end := off + MultiPartThreshold
		final := false
		if end >= len(payload) {
			end = len(payload)
			final = true
		}
		t := TypeMultiPart
		if final {
			t = TypeMultiEnd
		}
		body := []byte{byte(t)}
		body = appendU32(body, uint32(session))
		body = append(body, payload[off:end]...)
		frames = append(frames, fillHeader(body))
	}
	return frames
}

// EncodeTrace frames a 0x04 trace tag, matching lua-cluster.c's
// lpacktrace: a single frame, no multi-part splitting, capped at
// 0x8000 bytes of tag.
func EncodeTrace(tag string) ([]byte, error) {
	if len(tag) == 0 || len(tag) > 0x8000 {
		return nil, ErrTraceTag
	}
	body := []byte{byte(TypeTrace)}
	body = append(body, tag...)
	if len(body) > 0xFFFF {
		return nil, ErrFrameTooBig
	}
	return fillHeader(body), nil
}

// EncodeResponse frames a response. For a multi-part response the
// caller invokes this once with StatusMultiBegin (tail carries
// TotalSize) and once per chunk with StatusMultiPart/StatusMultiEnd.
func EncodeResponse(session int32, status Status, payload []byte) ([]byte, error) {
	body := []byte{0, 0, 0, 0, byte(status)}
	binary.LittleEndian.PutUint32(body, uint32(session))
	body = append(body, payload...)
	if len(body) > 0xFFFF {
		return nil, ErrFrameTooBig
	}
	return fillHeader(body), nil
}
