/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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

package semaphore

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// defaultSimultaneous is the process-wide fallback capacity used by
// SetSimultaneous/MaxSimultaneous, seeded from the number of usable CPUs.
var defaultSimultaneous = int64(runtime.GOMAXPROCS(0))

// MaxSimultaneous returns the current process-wide default capacity.
func MaxSimultaneous() int64 {
	return atomic.LoadInt64(&defaultSimultaneous)
}

// SetSimultaneous sets the process-wide default capacity to n and returns
// it. Non-positive values are rejected and leave the default unchanged,
// returning the (unchanged) MaxSimultaneous().
func SetSimultaneous(n int64) int64 {
	if n <= 0 {
		return MaxSimultaneous()
	}
	atomic.StoreInt64(&defaultSimultaneous, n)
	return n
}

type sem struct {
	parent context.Context
	ctx    context.Context
	cnl    context.CancelFunc

	size int64
	wgt  *semaphore.Weighted

	mpb interface{}
}

// New builds a Semaphore bounded to size concurrent workers. size <= 0
// means unlimited. withProgress requests a Bar-capable semaphore; no real
// progress-bar rendering is wired in, so GetMPB always returns nil and
// BarNumber's Bar is a plain worker-count wrapper.
func New(ctx context.Context, size int64, withProgress bool) Semaphore {
	if ctx == nil {
		ctx = context.Background()
	}

	cctx, cnl := context.WithCancel(ctx)
	s := &sem{
		parent: ctx,
		ctx:    cctx,
		cnl:    cnl,
		size:   size,
	}

	if size > 0 {
		s.wgt = semaphore.NewWeighted(size)
	}

	return s
}

// NewSemaphoreWithContext builds a Semaphore bound to ctx with capacity
// size and no progress reporting; size <= 0 means unlimited, the form used
// where only the shared Done()/DeferMain() lifecycle is needed.
func NewSemaphoreWithContext(ctx context.Context, size int64) Semaphore {
	return New(ctx, size, false)
}

func (s *sem) Weighted() int64 {
	return s.size
}

func (s *sem) NewWorker() error {
	if s.wgt == nil {
		return s.ctx.Err()
	}
	return s.wgt.Acquire(s.ctx, 1)
}

func (s *sem) NewWorkerTry() bool {
	if s.wgt == nil {
		return s.ctx.Err() == nil
	}
	return s.wgt.TryAcquire(1)
}

func (s *sem) DeferWorker() {
	if s.wgt != nil {
		s.wgt.Release(1)
	}
}

func (s *sem) WaitAll() error {
	if s.wgt == nil || s.size <= 0 {
		return nil
	}
	if err := s.wgt.Acquire(s.ctx, s.size); err != nil {
		return err
	}
	s.wgt.Release(s.size)
	return nil
}

func (s *sem) DeferMain() {
	s.cnl()
}

func (s *sem) Clone() Semaphore {
	return New(s.parent, s.size, s.mpb != nil)
}

func (s *sem) New() Semaphore {
	return s.Clone()
}

func (s *sem) BarNumber(title, unit string, total int64, removeOnComplete bool, extra interface{}) Bar {
	return &bar{s: s}
}

func (s *sem) GetMPB() interface{} {
	return s.mpb
}

func (s *sem) Deadline() (deadline time.Time, ok bool) {
	return s.ctx.Deadline()
}

func (s *sem) Done() <-chan struct{} {
	return s.ctx.Done()
}

func (s *sem) Err() error {
	return s.ctx.Err()
}

func (s *sem) Value(key interface{}) interface{} {
	return s.ctx.Value(key)
}
