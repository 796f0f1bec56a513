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

package runtime

import (
	"sync/atomic"

	"github.com/nabbar/actorkit/handle"
	"github.com/nabbar/actorkit/mailbox"
	"github.com/nabbar/actorkit/wire"
)

// serviceEntry is the registry slot behind one handle: the running
// Service instance, its mailbox, and the reference count skynet_handle.c
// tracks alongside the slot so a KILL doesn't free memory a concurrent
// Grab is still holding.
type serviceEntry struct {
	h       handle.Handle
	svc     Service
	box     *mailbox.Mailbox
	refs    atomic.Int32
	endless atomic.Bool
}

// Retain implements handle.Referencable.
func (e *serviceEntry) Retain() { e.refs.Add(1) }

func (e *serviceEntry) release() int32 { return e.refs.Add(-1) }

// Context is the capability handle a Service receives on Init and
// Dispatch: everything it is allowed to do to the rest of the runtime
// -- send messages, arm timeouts, resolve names, read the environment
// -- funneled through one small surface instead of a global.
type Context struct {
	rt *Runtime
	h  handle.Handle
}

// Handle returns the service's own address.
func (c *Context) Handle() handle.Handle { return c.h }

// Env is the read side of the process-wide environment table.
func (c *Context) Env() *Env { return c.rt.env }

// Send enqueues msg in dest's mailbox, pushing it onto the global run
// queue if it was idle. This is the sole path a service uses to talk
// to another service or to itself.
func (c *Context) Send(dest handle.Handle, msg mailbox.Message) error {
	return c.rt.send(dest, msg)
}

// SendTraced behaves like Send but first stamps msg with a freshly
// generated trace tag (the Go analogue of calling skynet.trace()
// immediately before skynet.send()), returning the tag so the caller
// can correlate it against whatever downstream logging or cluster
// frame carries it onward.
func (c *Context) SendTraced(dest handle.Handle, msg mailbox.Message) (tag string, err error) {
	tag = wire.NewTraceTag()
	msg.Trace = tag
	return tag, c.rt.send(dest, msg)
}

// NewTimeout arms a TIMEOUT message back to the calling service after
// the given number of timer ticks, returning the session the
// resulting message will carry.
func (c *Context) NewTimeout(ticks int) int32 {
	return c.rt.newTimeout(c.h, ticks)
}

// Resolve looks up a bound service name.
func (c *Context) Resolve(name string) (handle.Handle, bool) {
	return c.rt.services.FindName(name)
}

// Launch starts a new service instance of the named module, wiring a
// fresh handle and mailbox and running its Init callback inline
// (skynet_context_new blocks the launching thread on init the same
// way before the new context is allowed to receive messages).
func (c *Context) Launch(module, args string) (handle.Handle, error) {
	return c.rt.launch(module, args)
}
