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

// Package startStop wraps a pair of start/stop functions into a supervised,
// restartable goroutine: the actor runtime's reactor loop, dispatcher pool
// and monitor are each long enough running that launching and tearing them
// down through the same small state machine was worth factoring out of
// runtime.Runtime.Run itself.
package startStop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nabbar/actorkit/errors/pool"
	"github.com/nabbar/actorkit/runner"
)

// Fn is a start or stop function: it receives the context governing its
// single run and reports any failure.
type Fn func(ctx context.Context) error

// StartStop supervises one instance of a long-running Fn at a time.
type StartStop interface {
	// Start stops any instance currently running, clears the recorded
	// errors, then launches start in a new goroutine. It always returns
	// nil; failures surface through ErrorsLast/ErrorsList once the
	// goroutine observes them.
	Start(ctx context.Context) error

	// Stop cancels the running instance's context, waits for it to return,
	// then calls the stop function with ctx. Safe to call when not running
	// or concurrently with another Stop: only the first caller drives it.
	Stop(ctx context.Context) error

	// Restart is Stop followed by Start.
	Restart(ctx context.Context) error

	// IsRunning reports whether an instance is currently active.
	IsRunning() bool

	// Uptime is the time elapsed since the current instance started, or
	// zero when not running.
	Uptime() time.Duration

	// ErrorsLast returns the most recently recorded error, or nil.
	ErrorsLast() error

	// ErrorsList returns every error recorded since the last Start.
	ErrorsList() []error
}

type startStop struct {
	start Fn
	stop  Fn

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	since   time.Time
	running bool

	errs pool.Pool
}

// New builds a StartStop around start and stop. Either may be nil: calling
// Start or Stop with a nil function records an "invalid start/stop function"
// error instead of panicking.
func New(start, stop Fn) StartStop {
	return &startStop{start: start, stop: stop, errs: pool.New()}
}

func (s *startStop) Start(ctx context.Context) error {
	_ = s.Stop(ctx)
	s.errs.Clear()

	cctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.since = time.Now()
	s.running = true
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			runner.RecoveryCaller("runner/startStop", recover())
		}()

		fn := s.start
		var err error
		if fn == nil {
			err = errors.New("invalid start function")
		} else {
			err = fn(cctx)
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		if err != nil {
			s.errs.Add(err)
		}
	}()

	return nil
}

func (s *startStop) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	if cancel == nil {
		s.mu.Unlock()
		return nil
	}
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	if done != nil {
		<-done
	}

	s.mu.Lock()
	s.running = false
	s.since = time.Time{}
	s.mu.Unlock()

	fn := s.stop
	var err error
	if fn == nil {
		err = errors.New("invalid stop function")
	} else {
		err = fn(ctx)
	}
	if err != nil {
		s.errs.Add(err)
	}
	return nil
}

func (s *startStop) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	return s.Start(ctx)
}

func (s *startStop) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *startStop) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.since.IsZero() {
		return 0
	}
	return time.Since(s.since)
}

func (s *startStop) ErrorsLast() error {
	return s.errs.Last()
}

func (s *startStop) ErrorsList() []error {
	return s.errs.Slice()
}
