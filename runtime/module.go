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
	"fmt"
	"plugin"
	"strings"
	"sync"

	"github.com/nabbar/actorkit/errors"
	"github.com/nabbar/actorkit/mailbox"
)

var (
	ErrModuleNotFound = errors.New(101, "runtime: module not found")
	ErrModuleBadABI   = errors.New(102, "runtime: module does not export the expected symbols")
)

// Service is what a module instantiates: the Go translation of
// snlua's four C entry points (_create/_init/_release/_signal).
// Create and Init run once at launch; Dispatch runs for every
// delivered message; Release runs once, right after a Dispatch call
// returns false or panics, or when the service is killed; Signal is
// best-effort and may be left a no-op by modules that don't need it.
type Service interface {
	Init(ctx *Context, args string) error
	Dispatch(ctx *Context, msg mailbox.Message) (alive bool)
	Release(ctx *Context)
	Signal(ctx *Context, sig int)
}

// Factory creates one fresh, uninitialized Service instance per
// launch -- the Go stand-in for a module's _create entry point, which
// in skynet_module.c allocates the per-instance opaque pointer later
// passed back into _init/_release/_signal.
type Factory func() Service

// Loader resolves a module name to a Factory, first against an
// in-process static registry (the common case: modules compiled into
// this binary), then, if configured with a search path, against an
// on-disk Go plugin whose path is built by substituting the first '?'
// in each search-path entry with the module name -- the same
// placeholder convention skynet_module.c's module_path uses for .so
// files.
type Loader struct {
	mu         sync.RWMutex
	static     map[string]Factory
	searchPath []string
	opened     map[string]*plugin.Plugin
}

// NewLoader creates a loader with the given ';'-joined search path,
// skynet's own module_path convention; each entry holds a '?'
// placeholder for the module name. An empty path disables plugin
// lookup, leaving only the static registry.
func NewLoader(searchPath string) *Loader {
	l := &Loader{
		static: make(map[string]Factory),
		opened: make(map[string]*plugin.Plugin),
	}
	if searchPath != "" {
		l.searchPath = strings.Split(searchPath, ";")
	}
	return l
}

// Register installs a compiled-in module under name, overwriting any
// previous registration -- used by cmd/actorkitd/main.go to wire the
// built-in logger service before Run launches it.
func (l *Loader) Register(name string, f Factory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.static[name] = f
}

// Resolve returns a Factory for name, trying the static registry
// first and the plugin search path second.
func (l *Loader) Resolve(name string) (Factory, error) {
	l.mu.RLock()
	f, ok := l.static[name]
	l.mu.RUnlock()
	if ok {
		return f, nil
	}
	return l.openPlugin(name)
}

func (l *Loader) openPlugin(name string) (Factory, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.opened[name]; ok {
		return factoryFromPlugin(p)
	}

	var lastErr error
	for _, entry := range l.searchPath {
		path := strings.Replace(entry, "?", name, 1)
		p, err := plugin.Open(path)
		if err != nil {
			lastErr = err
			continue
		}
		l.opened[name] = p
		return factoryFromPlugin(p)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModuleNotFound, name, lastErr)
	}
	return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
}

// factoryFromPlugin looks up the exported "Create" symbol, matching
// _create's role of producing the opaque per-instance handle.
func factoryFromPlugin(p *plugin.Plugin) (Factory, error) {
	sym, err := p.Lookup("Create")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModuleBadABI, err)
	}
	create, ok := sym.(func() Service)
	if !ok {
		return nil, ErrModuleBadABI
	}
	return create, nil
}
