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

package reactor

import (
	"encoding/binary"
	"errors"

	"github.com/nabbar/actorkit/handle"
)

// CmdTag is the single-byte discriminator prefixing every frame on the
// control pipe, matching socket_server.c's request_package letters.
type CmdTag byte

const (
	CmdOpen     CmdTag = 'O'
	CmdListen   CmdTag = 'L'
	CmdBind     CmdTag = 'B'
	CmdClose    CmdTag = 'K'
	CmdResume   CmdTag = 'R'
	CmdSuspend  CmdTag = 'S'
	CmdSetOpt   CmdTag = 'T'
	CmdUDP      CmdTag = 'U'
	CmdSetUDP   CmdTag = 'C'
	CmdSendUDP  CmdTag = 'N'
	CmdClosed   CmdTag = 'D' // reserved, mirrors skynet "exit" tag collision note
	CmdSend     CmdTag = 'P'
	CmdSendHigh CmdTag = 'A'
	CmdWarning  CmdTag = 'W'
	CmdExit     CmdTag = 'X'
)

var ErrShortCommand = errors.New("reactor: truncated control command")

// Command is a decoded control-pipe frame ready for the I/O thread to
// act on. Only the fields relevant to the tag are populated.
type Command struct {
	Tag     CmdTag
	ID      ID
	Opaque  handle.Handle
	Addr    string
	Port    int
	Backlog int
	Payload []byte
	High    bool
}

// Encode serializes a command the way send_request packs the pipe:
// [tag byte][len byte][body]. Bodies never exceed 255 bytes except
// CmdSend/CmdSendHigh, whose payload travels by reference (the byte
// slice is carried out-of-band in-process, so encoding only needs to
// round-trip through the same Go process's channel-backed pipe).
func Encode(c Command) []byte {
	switch c.Tag {
	case CmdOpen:
		body := make([]byte, 0, 2+2+len(c.Addr))
		body = appendU16(body, uint16(c.ID.Slot))
		body = appendU16(body, c.ID.Generation)
		body = appendU16(body, uint16(c.Port))
		body = append(body, c.Addr...)
		return frame(c.Tag, body)
	case CmdListen, CmdBind:
		body := make([]byte, 0, 7+len(c.Addr))
		body = appendU16(body, uint16(c.ID.Slot))
		body = appendU16(body, c.ID.Generation)
		body = appendU16(body, uint16(c.Port))
		body = append(body, byte(c.Backlog))
		body = append(body, c.Addr...)
		return frame(c.Tag, body)
	case CmdClose, CmdResume, CmdSuspend:
		body := make([]byte, 0, 4)
		body = appendU16(body, uint16(c.ID.Slot))
		body = appendU16(body, c.ID.Generation)
		return frame(c.Tag, body)
	default:
		body := make([]byte, 0, 4)
		body = appendU16(body, uint16(c.ID.Slot))
		body = appendU16(body, c.ID.Generation)
		return frame(c.Tag, body)
	}
}

func frame(tag CmdTag, body []byte) []byte {
	out := make([]byte, 2+len(body))
	out[0] = byte(tag)
	out[1] = byte(len(body))
	copy(out[2:], body)
	return out
}

func appendU16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}

// Decode reverses Encode, returning the command and the slice tail
// following the consumed frame.
func Decode(buf []byte) (Command, []byte, error) {
	if len(buf) < 2 {
		return Command{}, nil, ErrShortCommand
	}
	tag := CmdTag(buf[0])
	n := int(buf[1])
	if len(buf) < 2+n {
		return Command{}, nil, ErrShortCommand
	}
	body := buf[2 : 2+n]
	rest := buf[2+n:]

	c := Command{Tag: tag}
	switch tag {
	case CmdOpen:
		if len(body) < 6 {
			return Command{}, nil, ErrShortCommand
		}
		c.ID = ID{Slot: int(binary.BigEndian.Uint16(body[0:2])), Generation: binary.BigEndian.Uint16(body[2:4])}
		c.Port = int(binary.BigEndian.Uint16(body[4:6]))
		c.Addr = string(body[6:])
	case CmdListen, CmdBind:
		if len(body) < 7 {
			return Command{}, nil, ErrShortCommand
		}
		c.ID = ID{Slot: int(binary.BigEndian.Uint16(body[0:2])), Generation: binary.BigEndian.Uint16(body[2:4])}
		c.Port = int(binary.BigEndian.Uint16(body[4:6]))
		c.Backlog = int(body[6])
		c.Addr = string(body[7:])
	default:
		if len(body) < 4 {
			return Command{}, nil, ErrShortCommand
		}
		c.ID = ID{Slot: int(binary.BigEndian.Uint16(body[0:2])), Generation: binary.BigEndian.Uint16(body[2:4])}
	}
	return c, rest, nil
}
