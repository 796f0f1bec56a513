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

// Package reactor is the asynchronous socket engine of socket_server.c:
// one control loop fed by an out-of-band command channel, per-socket
// priority write lists, and a direct-write fast path for application
// threads that can bypass the channel entirely. Reads and accepts run on
// per-connection goroutines, not on an epoll wait loop.
package reactor

import (
	"sync"

	"github.com/nabbar/actorkit/handle"
)

// State is a socket's position in the per-socket state machine of
// spec.md §4.5.
type State int

const (
	StateInvalid State = iota
	StateReserve
	StatePListen
	StateListen
	StateConnecting
	StatePAccept
	StateConnected
	StateBind
	StateHalfCloseRead
	StateHalfCloseWrite
)

// Protocol identifies the socket's transport.
type Protocol int

const (
	ProtoTCP Protocol = iota
	ProtoUDPv4
	ProtoUDPv6
)

const maxSlots = 1 << 16 // 65536, per spec.md §4.5 "Id recycling"

// writeBuffer is one pending send, tracked by how much of it has
// already gone out so a partial write resumes where it stopped. A
// buffer stays on the priority list it was queued on.
type writeBuffer struct {
	data []byte
	sent int
}

func (b *writeBuffer) remaining() []byte { return b.data[b.sent:] }
func (b *writeBuffer) partial() bool     { return b.sent > 0 }

// Socket is one entry in the reactor's slot table.
type Socket struct {
	mu sync.Mutex

	id         int
	generation uint16
	fd         int
	state      State
	protocol   Protocol
	opaque     handle.Handle

	high, low        []*writeBuffer
	writeBytesPend   int64
	warnThreshold    int64
	directWriteSlot  *writeBuffer
	directWriteHeld  bool

	bytesRead, bytesWritten int64
	udpPeer                 []byte // 19-byte encoded address, set by 'N'/'C'
}

const defaultWarnThreshold = 1 << 20 // 1 MiB

// ID packs the slot index and its generation tag the way sending_ref
// does: low bits select the slot, the generation discards stale sends
// issued before the slot was recycled.
type ID struct {
	Slot       int
	Generation uint16
}

func newSocket(slot int, generation uint16) *Socket {
	return &Socket{
		id:            slot,
		generation:    generation,
		state:         StateReserve,
		warnThreshold: defaultWarnThreshold,
	}
}

// ID returns this socket's recyclable identifier.
func (s *Socket) ID() ID { return ID{Slot: s.id, Generation: s.generation} }

// State returns the socket's current state-machine position.
func (s *Socket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// canDirectWrite reports whether an application thread may bypass the
// control channel and write straight to the connection: connected, no
// buffer pending in either priority list, and no direct-write slot in
// use. The caller holds s.mu; TrySendDirect takes it with TryLock and
// falls back when it is busy. No sending_ref count is checked.
func (s *Socket) canDirectWrite() bool {
	return s.state == StateConnected && len(s.high) == 0 && len(s.low) == 0 && s.directWriteSlot == nil
}

// pendingBytes sums every buffered-but-unsent byte across both
// priority lists and the direct-write slot.
func (s *Socket) pendingBytes() int64 {
	var n int64
	for _, b := range s.high {
		n += int64(len(b.remaining()))
	}
	for _, b := range s.low {
		n += int64(len(b.remaining()))
	}
	if s.directWriteSlot != nil {
		n += int64(len(s.directWriteSlot.remaining()))
	}
	return n
}
