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

//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"
)

// epollPoller backs the reactor with a real epoll(7) instance, the
// multiplexer socket_server.c uses on Linux.
type epollPoller struct {
	epfd int
	wfd  [2]int // self-pipe used to interrupt a blocked EpollWait
}

func newPoller() (poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}
	p := &epollPoller{epfd: epfd, wfd: fds}
	if err := p.add(fds[0], -1); err != nil {
		_ = unix.Close(epfd)
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
		return nil, err
	}
	return p, nil
}

func (p *epollPoller) add(fd int, ud int) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN}
	ev.Fd = int32(fd)
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epollPoller) remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) wait(out []pollEvent) (int, error) {
	raw := make([]unix.EpollEvent, len(out))
	n, err := unix.EpollWait(p.epfd, raw, -1)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for i := 0; i < n; i++ {
		if int(raw[i].Fd) == p.wfd[0] {
			// self-pipe wakeup: drain and skip, no socket event to report
			var buf [64]byte
			_, _ = unix.Read(p.wfd[0], buf[:])
			continue
		}
		out[count] = pollEvent{
			userdata: int(raw[i].Fd),
			readable: raw[i].Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0,
			writable: raw[i].Events&unix.EPOLLOUT != 0,
			hangup:   raw[i].Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0,
		}
		count++
	}
	return count, nil
}

func (p *epollPoller) wake() error {
	_, err := unix.Write(p.wfd[1], []byte{0})
	return err
}

func (p *epollPoller) close() error {
	_ = unix.Close(p.wfd[0])
	_ = unix.Close(p.wfd[1])
	return unix.Close(p.epfd)
}
