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

//go:build !linux

package reactor

import "sync"

// portablePoller backs non-Linux builds with a level-triggered
// readiness map guarded by a mutex and woken by a buffered channel,
// standing in for epoll where it is unavailable.
type portablePoller struct {
	mu     sync.Mutex
	ready  map[int]bool
	wakeCh chan struct{}
}

func newPoller() (poller, error) {
	return &portablePoller{ready: make(map[int]bool), wakeCh: make(chan struct{}, 1)}, nil
}

func (p *portablePoller) add(fd int, ud int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready[fd] = false
	return nil
}

func (p *portablePoller) remove(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.ready, fd)
	return nil
}

func (p *portablePoller) wait(out []pollEvent) (int, error) {
	<-p.wakeCh
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for fd, r := range p.ready {
		if r && n < len(out) {
			out[n] = pollEvent{userdata: fd, readable: true}
			p.ready[fd] = false
			n++
		}
	}
	return n, nil
}

func (p *portablePoller) wake() error {
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

func (p *portablePoller) close() error { return nil }
