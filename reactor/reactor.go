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
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
	"github.com/nabbar/actorkit/handle"
)

// Event is what the reactor hands back to the runtime per spec.md §4.5's
// "what the reactor reports" list: data arrivals, connect/accept/close
// notifications and UDP datagrams, each tagged with the owning service.
type Event struct {
	ID      ID
	Opaque  handle.Handle
	Type    EventType
	Payload []byte
	Addr    string // dotted peer address, set on Accept/UDP events
	Err     error
}

type EventType int

const (
	EventData EventType = iota
	EventConnect
	EventAccept
	EventClose
	EventUDP
	EventWarning
	EventError
	EventListen
)

// Reactor owns the socket slot table and serializes every state
// transition through a single control goroutine, mirroring
// socket_server.c's single I/O thread.
type Reactor struct {
	mu      sync.Mutex
	sockets []*Socket
	free    *bitset.BitSet
	gen     []uint16
	conns   map[int]*netConn

	cmds   chan Command
	events chan Event

	pipeBytesIn  uint64 // commands routed through the control pipe
	directWrites uint64 // sends that took the direct-write fast path

	poller poller
}

// poller is the OS-specific multiplexer. A build-tagged implementation
// backs it with an epoll set on linux. Loop never calls wait on it and
// only closes it on exit: on every platform, reads and accepts run on
// one goroutine per net connection or listener, and their results
// funnel back through the single control loop.
type poller interface {
	add(fd int, ud int) error
	remove(fd int) error
	wait(out []pollEvent) (int, error)
	wake() error
	close() error
}

type pollEvent struct {
	fd       int
	userdata int
	readable bool
	writable bool
	hangup   bool
}

// New allocates a reactor with room for n pre-sized socket slots
// (grown on demand up to maxSlots, matching MAX_SOCKET in socket_server.c).
func New(n int) (*Reactor, error) {
	p, err := newPoller()
	if err != nil {
		return nil, fmt.Errorf("reactor: create poller: %w", err)
	}
	if n <= 0 {
		n = 256
	}
	r := &Reactor{
		sockets: make([]*Socket, n),
		free:    bitset.New(uint(n)),
		gen:     make([]uint16, n),
		conns:   make(map[int]*netConn),
		cmds:    make(chan Command, 64),
		events:  make(chan Event, 256),
		poller:  p,
	}
	for i := 0; i < n; i++ {
		r.free.Set(uint(i))
	}
	return r, nil
}

// Events is the channel the runtime drains for socket notifications.
func (r *Reactor) Events() <-chan Event { return r.events }

// Submit enqueues a control command, the channel-backed analogue of
// writing a framed byte command onto socket_server.c's out-of-band pipe.
func (r *Reactor) Submit(c Command) {
	r.cmds <- c
}

// Reserve allocates a fresh socket slot for a caller about to submit
// CmdOpen, CmdListen or CmdBind, mirroring skynet_socket.c's pattern
// of reserving an id before the connect/listen syscall runs.
func (r *Reactor) Reserve() (ID, bool) {
	s, ok := r.allocSlot()
	if !ok {
		return ID{}, false
	}
	return s.ID(), true
}

// allocSlot reserves the lowest free slot and stamps the new socket with
// the slot's current generation tag; releaseSlot bumps that tag, so a
// stale Send racing a close/reopen on the same slot is rejected.
func (r *Reactor) allocSlot() (*Socket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.free.NextSet(0)
	if !ok {
		if len(r.sockets) >= maxSlots {
			return nil, false
		}
		idx = uint(len(r.sockets))
		r.sockets = append(r.sockets, nil)
		r.gen = append(r.gen, 0)
		r.free.Set(idx)
	}
	r.free.Clear(idx)
	s := newSocket(int(idx), r.gen[idx])
	r.sockets[idx] = s
	return s, true
}

func (r *Reactor) releaseSlot(s *Socket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sockets[s.id] = nil
	r.gen[s.id]++
	r.free.Set(uint(s.id))
}

func (r *Reactor) lookup(id ID) (*Socket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id.Slot < 0 || id.Slot >= len(r.sockets) {
		return nil, false
	}
	s := r.sockets[id.Slot]
	if s == nil || s.generation != id.Generation {
		return nil, false
	}
	return s, true
}

// DirectWriteAttempted reports whether a socket is currently eligible
// for the bypass path described in spec.md §4.5: a connected socket
// with nothing already queued in either priority list can be written
// to immediately by the calling goroutine without round-tripping
// through the control channel.
func (r *Reactor) DirectWriteAttempted(id ID) bool {
	s, ok := r.lookup(id)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canDirectWrite()
}

// Stats exposes the fast-path/pipe counters for the metrics layer.
func (r *Reactor) Stats() (pipeCommands, directWrites uint64) {
	return atomic.LoadUint64(&r.pipeBytesIn), atomic.LoadUint64(&r.directWrites)
}
