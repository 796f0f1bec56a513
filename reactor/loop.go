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
	"context"
	"net"
	"sync/atomic"
)

// netConn is what the Go-idiomatic adaptation of socket_server.c's raw
// fd table stores per connected socket: state mutation still funnels
// through Loop's single goroutine, but the blocking read(2)/accept(2)
// itself runs on net's own goroutines, the same trade every
// idiomatic Go server makes instead of hand-rolling epoll on raw fds.
type netConn struct {
	conn     net.Conn
	listener net.Listener
}

func (r *Reactor) setConn(slot int, nc *netConn) {
	r.mu.Lock()
	r.conns[slot] = nc
	r.mu.Unlock()
}

func (r *Reactor) getConn(slot int) *netConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[slot]
}

func (r *Reactor) dropConn(slot int) *netConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	nc := r.conns[slot]
	delete(r.conns, slot)
	return nc
}

// Loop is the reactor's single coordinating goroutine: every state
// transition (open/listen/send/close) is applied here, serialized,
// exactly as socket_server.c serializes transitions inside its one
// I/O thread. It returns when ctx is cancelled or a CmdExit command
// arrives.
func (r *Reactor) Loop(ctx context.Context) {
	readEvents := make(chan Event, 256)

	defer func() {
		r.mu.Lock()
		for slot, nc := range r.conns {
			if nc.conn != nil {
				_ = nc.conn.Close()
			}
			if nc.listener != nil {
				_ = nc.listener.Close()
			}
			delete(r.conns, slot)
		}
		r.mu.Unlock()
		_ = r.poller.close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-readEvents:
			r.events <- ev
			if ev.Type == EventClose {
				r.dropConn(ev.ID.Slot)
			}

		case c := <-r.cmds:
			atomic.AddUint64(&r.pipeBytesIn, 1)
			if c.Tag == CmdExit {
				return
			}
			r.apply(c, readEvents)
		}
	}
}

func (r *Reactor) apply(c Command, out chan<- Event) {
	switch c.Tag {
	case CmdOpen:
		r.doOpen(c, out)
	case CmdListen:
		r.doListen(c, out)
	case CmdClose:
		r.doClose(c, out)
	case CmdSend, CmdSendHigh:
		r.doSend(c, c.Tag == CmdSendHigh)
	case CmdSuspend, CmdResume:
		// accepted and ignored: the socket state is not changed and the
		// per-conn reader goroutine keeps reading.
	}
}

func (r *Reactor) doOpen(c Command, out chan<- Event) {
	s, ok := r.lookup(c.ID)
	if !ok {
		return
	}
	addr := net.JoinHostPort(c.Addr, itoa(c.Port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		s.mu.Lock()
		s.state = StateInvalid
		s.mu.Unlock()
		out <- Event{ID: c.ID, Opaque: s.opaque, Type: EventError, Err: err}
		r.releaseSlot(s)
		return
	}
	s.mu.Lock()
	s.state = StateConnected
	s.opaque = c.Opaque
	s.mu.Unlock()
	r.setConn(s.id, &netConn{conn: conn})
	out <- Event{ID: c.ID, Opaque: s.opaque, Type: EventConnect}
	go r.pumpReads(s, conn, out)
}

func (r *Reactor) doListen(c Command, out chan<- Event) {
	s, ok := r.lookup(c.ID)
	if !ok {
		return
	}
	addr := net.JoinHostPort(c.Addr, itoa(c.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		out <- Event{ID: c.ID, Opaque: s.opaque, Type: EventError, Err: err}
		r.releaseSlot(s)
		return
	}
	s.mu.Lock()
	s.state = StateListen
	s.opaque = c.Opaque
	s.mu.Unlock()
	r.setConn(s.id, &netConn{listener: ln})
	out <- Event{ID: c.ID, Opaque: s.opaque, Type: EventListen, Addr: ln.Addr().String()}
	go r.pumpAccepts(s, ln, out)
}

func (r *Reactor) pumpAccepts(s *Socket, ln net.Listener, out chan<- Event) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		child, ok := r.allocSlot()
		if !ok {
			_ = conn.Close()
			continue
		}
		child.mu.Lock()
		child.state = StateConnected
		child.opaque = s.opaque
		child.mu.Unlock()
		r.setConn(child.id, &netConn{conn: conn})
		out <- Event{ID: child.ID(), Opaque: s.opaque, Type: EventAccept, Addr: conn.RemoteAddr().String()}
		go r.pumpReads(child, conn, out)
	}
}

func (r *Reactor) pumpReads(s *Socket, conn net.Conn, out chan<- Event) {
	buf := make([]byte, 4096)
	for {
		if s.State() == StateHalfCloseRead {
			return
		}
		n, err := conn.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.bytesRead += int64(n)
			s.mu.Unlock()
			cp := make([]byte, n)
			copy(cp, buf[:n])
			out <- Event{ID: s.ID(), Opaque: s.opaque, Type: EventData, Payload: cp}
		}
		if err != nil {
			s.mu.Lock()
			s.state = StateInvalid
			s.mu.Unlock()
			out <- Event{ID: s.ID(), Opaque: s.opaque, Type: EventClose}
			r.releaseSlot(s)
			return
		}
	}
}

func (r *Reactor) doClose(c Command, out chan<- Event) {
	s, ok := r.lookup(c.ID)
	if !ok {
		return
	}
	nc := r.dropConn(s.id)
	if nc != nil {
		if nc.conn != nil {
			_ = nc.conn.Close()
		}
		if nc.listener != nil {
			_ = nc.listener.Close()
		}
	}
	s.mu.Lock()
	s.state = StateInvalid
	s.mu.Unlock()
	out <- Event{ID: c.ID, Opaque: s.opaque, Type: EventClose}
	r.releaseSlot(s)
}

// doSend appends the payload to the chosen priority list and flushes
// what it can immediately; CmdSendHigh targets the high list, which is
// always drained to empty before the low list is touched, per
// spec.md §4.5's priority-write rule.
func (r *Reactor) doSend(c Command, high bool) {
	s, ok := r.lookup(c.ID)
	if !ok {
		return
	}
	nc := r.getConn(s.id)
	if nc == nil || nc.conn == nil {
		return
	}
	s.mu.Lock()
	wb := &writeBuffer{data: c.Payload}
	if high {
		s.high = append(s.high, wb)
	} else {
		s.low = append(s.low, wb)
	}
	s.mu.Unlock()
	r.flush(s, nc.conn)
}

// flush drains the high list, then the low list, stopping at the
// first short write so later sends preserve byte ordering.
func (r *Reactor) flush(s *Socket, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drain := func(list *[]*writeBuffer) bool {
		for len(*list) > 0 {
			wb := (*list)[0]
			n, err := conn.Write(wb.remaining())
			if n > 0 {
				wb.sent += n
				s.bytesWritten += int64(n)
			}
			if err != nil {
				return false
			}
			if wb.sent < len(wb.data) {
				return false // short write, keep position for next flush
			}
			*list = (*list)[1:]
		}
		return true
	}
	if !drain(&s.high) {
		return
	}
	drain(&s.low)
}

// TrySendDirect implements the bypass path of spec.md §4.5: an
// application goroutine may call this instead of Submit when
// DirectWriteAttempted reported true, saving a hop through the
// control channel. It returns false if the fast path's preconditions
// no longer hold, in which case the caller must fall back to Submit.
func (r *Reactor) TrySendDirect(id ID, payload []byte) bool {
	s, ok := r.lookup(id)
	if !ok {
		return false
	}
	if !s.mu.TryLock() {
		return false
	}
	if !s.canDirectWrite() {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	nc := r.getConn(id.Slot)
	if nc == nil || nc.conn == nil {
		return false
	}
	atomic.AddUint64(&r.directWrites, 1)
	n, err := nc.conn.Write(payload)
	s.mu.Lock()
	s.bytesWritten += int64(n)
	if err != nil || n < len(payload) {
		rem := payload[n:]
		s.low = append(s.low, &writeBuffer{data: rem})
	}
	s.mu.Unlock()
	return true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
