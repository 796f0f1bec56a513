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
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/nabbar/actorkit/dispatch"
	"github.com/nabbar/actorkit/errors"
	"github.com/nabbar/actorkit/handle"
	liblog "github.com/nabbar/actorkit/logger"
	"github.com/nabbar/actorkit/mailbox"
	"github.com/nabbar/actorkit/monitor"
	"github.com/nabbar/actorkit/reactor"
	"github.com/nabbar/actorkit/socket"
	"github.com/nabbar/actorkit/timer"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"golang.org/x/sync/errgroup"
)

var (
	ErrLaunchFailed = errors.New(110, "runtime: service init failed")
	ErrUnknownDest  = errors.New(111, "runtime: destination handle not found")
)

// Settings is the decoded form of the recognized configuration keys
// from spec.md §6: thread count, harbor/node id, profiling toggle,
// daemonization, the module plugin search path, and the bootstrap
// module+args pair.
type Settings struct {
	Thread     int
	Harbor     uint8
	Profile    bool
	Daemon     string
	ModulePath string
	Bootstrap  string

	// HarborListen, when set, is the tcp address this node accepts
	// inbound cluster frames on (the Go analogue of skynet's harbor
	// listen port). Left empty, no harbor listener is started.
	HarborListen string

	// LogService names the module launched before Bootstrap, the Go
	// analogue of skynet_start.c loading "logservice" ahead of the
	// bootstrap module. Defaults to "logger". Left unresolved (no
	// module registered under that name) it is skipped rather than
	// treated as a startup failure: the log service is an optional
	// ambient concern, not part of the core this package implements.
	LogService string
}

// Runtime is the single process-wide value everything else in this
// module is wired into, the Go analogue of skynet_start.c's global
// state plus the node struct skynet_server.c keeps per context.
type Runtime struct {
	settings Settings

	env      *Env
	loader   *Loader
	services *handle.Registry[*serviceEntry]
	queue    *mailbox.Queue
	pool     *dispatch.Pool
	wheel    *timer.Wheel
	mon      *monitor.Monitor
	react    *reactor.Reactor
	log      liblog.Logger
	harbor   socket.Server

	session atomic.Int32
}

// New builds every subsystem but does not yet start any goroutines or
// launch the bootstrap service; call Run to do that.
func New(settings Settings) (*Runtime, error) {
	if settings.Thread < 1 {
		settings.Thread = 4
	}

	r := &Runtime{
		settings: settings,
		env:      NewEnv(),
		loader:   NewLoader(settings.ModulePath),
		services: handle.New[*serviceEntry](settings.Harbor),
		queue:    mailbox.NewQueue(),
		log:      liblog.New(context.Background()),
	}
	r.mon = monitor.NewMonitor(settings.Thread, r.markEndless, r.warnEndless)
	r.mon.SetStats(func() {
		r.sampleHostStats()
		r.sampleMetrics()
	})

	reac, err := reactor.New(256)
	if err != nil {
		return nil, fmt.Errorf("runtime: init reactor: %w", err)
	}
	r.react = reac

	r.wheel = timer.New(sinkFunc(r.deliverTimeout))
	r.pool = dispatch.New(settings.Thread, r.queue, handlerFunc(r.dispatchMessage), r.mon)
	r.pool.SetOverload(r.warnOverload)

	return r, nil
}

// sinkFunc and handlerFunc let a plain function satisfy the single-
// method interfaces timer.Sink and dispatch.Handler expect.
type sinkFunc func(timer.Expiration)

func (f sinkFunc) Deliver(e timer.Expiration) { f(e) }

type handlerFunc func(handle.Handle, mailbox.Message) bool

func (f handlerFunc) Dispatch(owner handle.Handle, msg mailbox.Message) bool { return f(owner, msg) }

// Register installs a compiled-in module factory, delegating to the
// loader.
func (r *Runtime) Register(name string, f Factory) { r.loader.Register(name, f) }

// Env exposes the process environment table for callers outside a
// Service (e.g. the CLI reporting GETENV before launch).
func (r *Runtime) Env() *Env { return r.env }

// SetLogger replaces the runtime's ambient logger (Debug for dropped
// timer deliveries, Warning for endless-loop detection, Error for
// socket failures, plus the periodic host stats line). nil is ignored
// so a caller that has not finished building its logger yet cannot
// blank this out from under a running runtime.
func (r *Runtime) SetLogger(l liblog.Logger) {
	if l != nil {
		r.log = l
	}
}

// Run starts the timer, monitor, dispatcher pool and reactor loop,
// launches the bootstrap module, and blocks until ctx is cancelled or
// one of those goroutines returns an error. It returns early if the
// logservice or bootstrap launch fails. The exit of every service does
// not end Run.
func (r *Runtime) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.wheel.Run(gctx.Done())
		return nil
	})
	g.Go(func() error {
		r.mon.Run(gctx.Done())
		return nil
	})
	g.Go(func() error {
		r.react.Loop(gctx)
		return nil
	})
	g.Go(func() error {
		return r.pool.Run(gctx)
	})
	g.Go(func() error {
		r.pumpReactorEvents(gctx)
		return nil
	})
	g.Go(func() error {
		return r.serveHarbor(gctx)
	})

	logSvc := r.settings.LogService
	if logSvc == "" {
		logSvc = "logger"
	}
	if _, err := r.launch(logSvc, ""); err != nil && !errors.Has(err, ErrModuleNotFound.GetCode()) {
		return fmt.Errorf("runtime: logservice %q: %w", logSvc, err)
	}

	if r.settings.Bootstrap != "" {
		module, args := splitBootstrap(r.settings.Bootstrap)
		if _, err := r.launch(module, args); err != nil {
			return fmt.Errorf("runtime: bootstrap %q: %w", module, err)
		}
	}

	err := g.Wait()
	if err != nil {
		return err
	}
	return nil
}

// Reload re-reads SIGHUP-sensitive state (currently just asks every
// log-sink-owning service to reopen its files, the same scope
// skynet_start.c's SIGHUP handler has: "reopen log file").
func (r *Runtime) Reload() error {
	var result *multierror.Error
	// Services that care about SIGHUP implement it through the
	// ordinary Signal callback with a reserved signal number.
	const sigHup = 1
	for _, h := range r.liveHandles() {
		e, err := r.services.Grab(h)
		if err != nil {
			continue
		}
		func() {
			defer e.release()
			defer func() {
				if p := recover(); p != nil {
					result = multierror.Append(result, fmt.Errorf("service %s panicked on reload: %v", h, p))
				}
			}()
			e.svc.Signal(&Context{rt: r, h: h}, sigHup)
		}()
	}
	return result.ErrorOrNil()
}

func (r *Runtime) liveHandles() []handle.Handle {
	out := make([]handle.Handle, 0, r.services.Len())
	r.services.Each(func(h handle.Handle, _ *serviceEntry) {
		out = append(out, h)
	})
	return out
}

func (r *Runtime) newTimeout(owner handle.Handle, ticks int) int32 {
	session := r.session.Add(1)
	r.wheel.Timeout(owner, ticks, session)
	return session
}

func (r *Runtime) deliverTimeout(e timer.Expiration) {
	if err := r.send(e.Target, mailbox.Message{Type: mailbox.TypeResponse, Session: e.Session}); err != nil {
		r.log.Debug(fmt.Sprintf("dropped timer delivery: target %s retired (session=%d)", e.Target, e.Session), nil)
	}
}

// pumpReactorEvents is the forward_message half of the reactor: every
// notification socket_server.c would hand back to skynet_socket.c's
// dispatch table is turned into a mailbox message for the service that
// owns the socket (the Opaque handle recorded when the socket was
// opened or accepted). A socket with no owner yet (a listen socket's
// accept fires before the accepting service has claimed the child slot)
// is simply dropped, matching the original's "no one is listening"
// no-op.
func (r *Runtime) pumpReactorEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-r.react.Events():
			if !ok {
				return
			}
			if e.Err != nil {
				r.log.Error(fmt.Sprintf("socket failure on %s: %v", e.Opaque, e.Err), nil)
			}
			if !e.Opaque.Valid() {
				continue
			}
			_ = r.send(e.Opaque, socketMessage(e))
		}
	}
}

func socketMessage(e reactor.Event) mailbox.Message {
	t := mailbox.TypeError
	switch e.Type {
	case reactor.EventData:
		t = mailbox.TypeData
	case reactor.EventConnect, reactor.EventListen:
		t = mailbox.TypeConnect
	case reactor.EventAccept:
		t = mailbox.TypeAccept
	case reactor.EventClose:
		t = mailbox.TypeClose
	case reactor.EventUDP:
		t = mailbox.TypeUDP
	case reactor.EventWarning:
		t = mailbox.TypeWarning
	}
	return mailbox.Message{Type: t, Data: e.Payload}
}

func (r *Runtime) send(dest handle.Handle, msg mailbox.Message) error {
	e, err := r.services.Grab(dest)
	if err != nil {
		return ErrUnknownDest
	}
	defer e.release()
	e.box.Push(r.queue, msg)
	return nil
}

func (r *Runtime) dispatchMessage(owner handle.Handle, msg mailbox.Message) bool {
	e, err := r.services.Grab(owner)
	if err != nil {
		return false
	}
	defer e.release()

	alive := func() (alive bool) {
		defer func() {
			if p := recover(); p != nil {
				alive = false
			}
		}()
		return e.svc.Dispatch(&Context{rt: r, h: owner}, msg)
	}()

	if !alive {
		e.svc.Release(&Context{rt: r, h: owner})
		_, _ = r.services.Retire(owner)
	}
	return alive
}

func (r *Runtime) launch(module, args string) (handle.Handle, error) {
	factory, err := r.loader.Resolve(module)
	if err != nil {
		return handle.Invalid, err
	}
	svc := factory()

	entry := &serviceEntry{svc: svc}
	entry.refs.Store(1)
	h, err := r.services.Register(entry)
	if err != nil {
		return handle.Invalid, err
	}
	entry.h = h
	entry.box = mailbox.New(h)

	ctx := &Context{rt: r, h: h}
	if err := svc.Init(ctx, args); err != nil {
		_, _ = r.services.Retire(h)
		return handle.Invalid, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	r.pool.Track()
	// The mailbox was created with in_global already set so that any
	// message arriving mid-Init gets queued in the ring without a
	// worker racing to dispatch it before Init returns. Now that Init
	// has finished, push it onto the run queue ourselves -- in_global
	// being true means Push would otherwise never do it for us, the
	// same one-time handoff skynet_context_new performs right after
	// its own init callback returns.
	r.queue.Push(entry.box)
	return h, nil
}

func (r *Runtime) markEndless(h handle.Handle) {
	if e, err := r.services.Grab(h); err == nil {
		e.endless.Store(true)
		e.release()
	}
	metricEndlessTotal.Inc()
}

func (r *Runtime) warnEndless(source, dest handle.Handle, version uint32) {
	r.log.Warning(fmt.Sprintf("endless loop: service %s stuck dispatching message from %s (version=%d)", dest, source, version), nil)
}

// warnOverload logs the write-buffer overload count dispatch.Pool
// reports once a mailbox's queued-message count crosses the next
// doubling threshold, the Go analogue of skynet_server.c turning
// skynet_mq_pop's overload return into a WARNING pseudo message.
func (r *Runtime) warnOverload(owner handle.Handle, n int) {
	r.log.Warning(fmt.Sprintf("mailbox overload: service %s has %d queued messages", owner, n), nil)
}

// sampleHostStats samples host CPU and memory usage and logs them at
// Debug, the periodic stats line skynet_monitor.c's report_stat leaves
// to the logservice in the original. Called once per Monitor sweep.
func (r *Runtime) sampleHostStats() {
	cpuPct := 0.0
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		cpuPct = pcts[0]
	}
	memPct := 0.0
	if vm, err := mem.VirtualMemory(); err == nil {
		memPct = vm.UsedPercent
	}
	r.log.Debug(fmt.Sprintf("host stats: cpu=%.1f%% mem=%.1f%%", cpuPct, memPct), nil)
}

func splitBootstrap(spec string) (module, args string) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == ' ' {
			return spec[:i], spec[i+1:]
		}
	}
	return spec, ""
}

// Shutdown requests every worker stop taking new mailboxes and waits
// up to the given grace period for in-flight dispatches to finish.
func (r *Runtime) Shutdown(grace time.Duration) {
	if r.harbor != nil {
		_ = r.harbor.Close()
	}
	r.queue.Close()
	time.Sleep(grace)
}
