/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package ticker runs a function on a fixed interval under a single
// start/stop state machine, the Go stand-in for the periodic "SIGALRM
// every N centiseconds" tick a skynet-style monitor drives its endless
// check and timer wheel with.
package ticker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nabbar/actorkit/errors/pool"
	"github.com/nabbar/actorkit/runner"
)

// defaultInterval replaces a zero or negative caller-supplied duration,
// the only case time.NewTicker itself cannot accept.
const defaultInterval = time.Second

var errInvalidFn = errors.New("invalid function")

// Fn runs once per tick. The *time.Ticker is passed through so a call can
// Reset it to change its own cadence.
type Fn func(ctx context.Context, tck *time.Ticker) error

// Ticker supervises one periodic Fn at a time.
type Ticker interface {
	// Start launches the ticker loop in a new goroutine and returns once it
	// has been marked running. A Ticker already running is stopped first.
	Start(ctx context.Context) error

	// Stop cancels the loop and waits for it to return.
	Stop(ctx context.Context) error

	// Restart is Stop followed by Start, with the error pool cleared.
	Restart(ctx context.Context) error

	// IsRunning reports whether the loop is currently active.
	IsRunning() bool

	// Uptime is the time elapsed since Start, or zero when not running.
	Uptime() time.Duration

	// ErrorsLast returns the most recent error Fn returned, or nil.
	ErrorsLast() error

	// ErrorsList returns every error Fn has returned since the last
	// Start/Restart.
	ErrorsList() []error
}

type ticker struct {
	every time.Duration
	fn    Fn

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	since   time.Time
	running bool

	errs pool.Pool
}

// New builds a Ticker that runs fn every d (defaultInterval when d <= 0). A
// nil fn is accepted; each tick then records an "invalid function" error
// instead of panicking.
func New(d time.Duration, fn Fn) Ticker {
	if d <= 0 {
		d = defaultInterval
	}
	return &ticker{every: d, fn: fn, errs: pool.New()}
}

func (t *ticker) Start(ctx context.Context) error {
	_ = t.Stop(ctx)
	t.errs.Clear()

	cctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	t.mu.Lock()
	t.cancel = cancel
	t.done = done
	t.since = time.Now()
	t.running = true
	t.mu.Unlock()

	go t.loop(cctx, done)

	return nil
}

func (t *ticker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		runner.RecoveryCaller("runner/ticker", recover())
	}()

	tck := time.NewTicker(t.every)
	defer tck.Stop()

	for {
		select {
		case <-ctx.Done():
			t.mu.Lock()
			t.running = false
			t.mu.Unlock()
			return
		case <-tck.C:
			t.fire(ctx, tck)
		}
	}
}

func (t *ticker) fire(ctx context.Context, tck *time.Ticker) {
	defer func() {
		runner.RecoveryCaller("runner/ticker", recover())
	}()

	var err error
	if t.fn == nil {
		err = errInvalidFn
	} else {
		err = t.fn(ctx, tck)
	}
	if err != nil {
		t.errs.Add(err)
	}
}

func (t *ticker) Stop(ctx context.Context) error {
	t.mu.Lock()
	cancel := t.cancel
	done := t.done
	if cancel == nil {
		t.mu.Unlock()
		return nil
	}
	t.cancel = nil
	t.mu.Unlock()

	cancel()
	if done != nil {
		<-done
	}

	t.mu.Lock()
	t.running = false
	t.since = time.Time{}
	t.mu.Unlock()
	return nil
}

func (t *ticker) Restart(ctx context.Context) error {
	if err := t.Stop(ctx); err != nil {
		return err
	}
	return t.Start(ctx)
}

func (t *ticker) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *ticker) Uptime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running || t.since.IsZero() {
		return 0
	}
	return time.Since(t.since)
}

func (t *ticker) ErrorsLast() error {
	return t.errs.Last()
}

func (t *ticker) ErrorsList() []error {
	return t.errs.Slice()
}
