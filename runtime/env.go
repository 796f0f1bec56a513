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

// Package runtime wires the handle registry, mailbox queue, dispatcher
// pool, timing wheel, watchdog and socket reactor into the single
// process-wide runtime described by skynet_start.c's skynet_start, and
// exposes the global environment table and module loader of
// skynet_env.c / skynet_module.c.
package runtime

import (
	"sync"

	"github.com/nabbar/actorkit/errors"
)

var (
	// ErrEnvRedefined is returned by Env.Set when the key already holds
	// a value: skynet_env.c's skynet_setenv aborts the process on this
	// condition, but a library has no business calling os.Exit, so the
	// Go port surfaces it as an error for the caller to decide on.
	ErrEnvRedefined = errors.New(100, "runtime: environment key already set")
)

// Env is the process-wide, write-once key/value table every service
// reads through its Context. It starts empty; keys are added at any
// time with Set (the SETENV command), and a key that already holds a
// value is never overwritten.
type Env struct {
	mu   sync.RWMutex
	vals map[string]string
}

// NewEnv creates an empty environment table.
func NewEnv() *Env {
	return &Env{vals: make(map[string]string)}
}

// Get returns the value for key and whether it was present.
func (e *Env) Get(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vals[key]
	return v, ok
}

// Set installs key=value, failing if key already holds a value.
func (e *Env) Set(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.vals[key]; exists {
		return ErrEnvRedefined
	}
	e.vals[key] = value
	return nil
}

// Snapshot returns a defensive copy of every key/value pair, used by
// the STAT command surface and by tests.
func (e *Env) Snapshot() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.vals))
	for k, v := range e.vals {
		out[k] = v
	}
	return out
}
