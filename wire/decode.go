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

// StripHeader validates and removes the 2-byte big-endian size prefix
// from a buffer holding exactly one frame, returning the body.
func StripHeader(frame []byte) ([]byte, error) {
	if len(frame) < 2 {
		return nil, ErrDecode
	}
	size := binary.BigEndian.Uint16(frame)
	if int(size) != len(frame)-2 {
		return nil, ErrDecode
	}
	return frame[2:], nil
}

// DecodeRequest dispatches on the first body byte to the matching
// unpacker, mirroring lua-cluster.c's per-type decode functions.
func DecodeRequest(body []byte) (Request, error) {
	if len(body) < 1 {
		return Request{}, ErrDecode
	}
	switch FrameType(body[0]) {
	case TypeRequest:
		return decodeNumericSmall(body[1:], false)
	case TypeRequestMultiBegin:
		return decodeNumericHeader(body[1:], false)
	case TypePushMultiBegin:
		return decodeNumericHeader(body[1:], true)
	case TypeMultiPart:
		return decodeBodyChunk(body[1:], false)
	case TypeMultiEnd:
		return decodeBodyChunk(body[1:], true)
	case TypeRequestName:
		return decodeNamedSmall(body[1:], false)
	case TypeRequestNameMulti:
		return decodeNamedHeader(body[1:], false)
	case TypePushNameMulti:
		return decodeNamedHeader(body[1:], true)
	case TypeTrace:
		return decodeTrace(body[1:])
	default:
		return Request{}, ErrDecode
	}
}

// decodeTrace parses a 0x04 trace frame body: the remaining bytes are
// the tag verbatim, no length prefix, mirroring lua-cluster.c's
// unpacktrace.
func decodeTrace(b []byte) (Request, error) {
	if len(b) == 0 {
		return Request{}, ErrDecode
	}
	return Request{IsTrace: true, TraceTag: string(b)}, nil
}

func decodeNumericSmall(b []byte, isPush bool) (Request, error) {
	if len(b) < 8 {
		return Request{}, ErrDecode
	}
	addr := binary.LittleEndian.Uint32(b)
	session := int32(binary.LittleEndian.Uint32(b[4:]))
	return Request{Addr: addr, Session: session, Payload: b[8:], IsPush: isPush || session == 0}, nil
}

func decodeNumericHeader(b []byte, isPush bool) (Request, error) {
	if len(b) != 12 {
		return Request{}, ErrDecode
	}
	addr := binary.LittleEndian.Uint32(b)
	session := int32(binary.LittleEndian.Uint32(b[4:]))
	total := binary.LittleEndian.Uint32(b[8:])
	return Request{Addr: addr, Session: session, TotalSize: total, IsMulti: true, IsPush: isPush}, nil
}

func decodeNamedSmall(b []byte, isPush bool) (Request, error) {
	if len(b) < 1 {
		return Request{}, ErrDecode
	}
	nl := int(b[0])
	if nl == 0 || len(b) < 1+nl+4 {
		return Request{}, ErrNameLength
	}
	name := string(b[1 : 1+nl])
	rest := b[1+nl:]
	session := int32(binary.LittleEndian.Uint32(rest))
	return Request{Name: name, Session: session, Payload: rest[4:], IsPush: isPush || session == 0}, nil
}

func decodeNamedHeader(b []byte, isPush bool) (Request, error) {
	if len(b) < 1 {
		return Request{}, ErrDecode
	}
	nl := int(b[0])
	if nl == 0 || len(b) != 1+nl+8 {
		return Request{}, ErrNameLength
	}
	name := string(b[1 : 1+nl])
	rest := b[1+nl:]
	session := int32(binary.LittleEndian.Uint32(rest))
	total := binary.LittleEndian.Uint32(rest[4:])
	return Request{Name: name, Session: session, TotalSize: total, IsMulti: true, IsPush: isPush}, nil
}

func decodeBodyChunk(b []byte, final bool) (Request, error) {
	if len(b) < 4 {
		return Request{}, ErrDecode
	}
	session := int32(binary.LittleEndian.Uint32(b))
	return Request{Session: session, Payload: b[4:], IsBody: true, IsFinal: final}, nil
}

// DecodeResponse parses a response frame body.
func DecodeResponse(body []byte) (Response, error) {
	if len(body) < 5 {
		return Response{}, ErrDecode
	}
	session := int32(binary.LittleEndian.Uint32(body))
	status := Status(body[4])
	tail := body[5:]
	r := Response{Session: session, Status: status}
	if status == StatusMultiBegin {
		if len(tail) != 4 {
			return Response{}, ErrDecode
		}
		r.TotalSize = binary.LittleEndian.Uint32(tail)
	} else {
		r.Payload = tail
	}
	return r, nil
}

// Reassembler accumulates multi-part request bodies arriving in order
// and yields the complete payload once the final chunk lands.
type Reassembler struct {
	pending map[int32][]byte
	want    map[int32]uint32
}

// NewReassembler creates an empty multi-part reassembly table.
func NewReassembler() *Reassembler {
	return &Reassembler{pending: make(map[int32][]byte), want: make(map[int32]uint32)}
}

// Begin registers a multi-part header's announced total size.
func (r *Reassembler) Begin(session int32, total uint32) {
	r.want[session] = total
	r.pending[session] = make([]byte, 0, total)
}

// Append adds a chunk and, if final, returns the completed payload.
func (r *Reassembler) Append(session int32, chunk []byte, final bool) (payload []byte, done bool) {
	r.pending[session] = append(r.pending[session], chunk...)
	if !final {
		return nil, false
	}
	p := r.pending[session]
	delete(r.pending, session)
	delete(r.want, session)
	return p, true
}
