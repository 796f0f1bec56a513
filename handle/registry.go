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

package handle

import (
	"sort"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/nabbar/actorkit/errors"
)

const defaultSlotSize = 4

// ErrNotFound is returned when a handle or name has no live binding.
var ErrNotFound = errors.New(1, "handle: not found")

// ErrExhausted is returned when the 24-bit local id space is full.
var ErrExhausted = errors.New(2, "handle: id space exhausted")

// ErrNameTaken is returned when Bind is called twice for the same name.
var ErrNameTaken = errors.New(3, "handle: name already bound")

// Referencable is implemented by anything a Registry can own a slot for.
// Grab calls Retain so that the registry's own reference is accounted for
// exactly once, mirroring skynet_handle.c's grab-under-read-lock behaviour.
type Referencable interface {
	Retain()
}

type nameBind struct {
	name   string
	handle Handle
}

// Registry maps local ids to live entries, open-addressed like the
// original skynet_handle.c table: a power-of-two slice of slots, linear
// probing from a running insertion cursor, and a sorted name array
// searched by binary search.
type Registry[T Referencable] struct {
	mu     sync.RWMutex
	node   uint8
	slots  []T
	used   *bitset.BitSet
	nextID uint32
	count  int
	names  []nameBind
}

// New creates an empty registry for the given node id (0-255).
func New[T Referencable](node uint8) *Registry[T] {
	return &Registry[T]{
		node:  node,
		slots: make([]T, defaultSlotSize),
		used:  bitset.New(defaultSlotSize),
	}
}

// Register inserts e under a freshly allocated local id and returns its
// handle. On table saturation the slot array is doubled and every live
// entry rehashed, exactly as skynet_handle.c's _insert does.
func (r *Registry[T]) Register(e T) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count >= maxLocalID {
		var zero Handle
		return zero, ErrExhausted
	}
	if r.count >= len(r.slots)/2 {
		r.grow()
	}

	cap := uint32(len(r.slots))
	for i := uint32(0); i < cap; i++ {
		id := (r.nextID + i) & (cap - 1)
		if id == 0 {
			continue // local id 0 is reserved
		}
		if !r.used.Test(uint(id)) {
			r.used.Set(uint(id))
			r.slots[id] = e
			r.nextID = (id + 1) & (cap - 1)
			r.count++
			return NewHandle(r.node, id), nil
		}
	}
	var zero Handle
	return zero, ErrExhausted
}

func (r *Registry[T]) grow() {
	oldSlots, oldUsed := r.slots, r.used
	newCap := len(oldSlots) * 2
	r.slots = make([]T, newCap)
	r.used = bitset.New(uint(newCap))
	r.nextID = 0
	r.count = 0
	for id := 0; id < len(oldSlots); id++ {
		if !oldUsed.Test(uint(id)) {
			continue
		}
		e := oldSlots[id]
		cap := uint32(newCap)
		for i := uint32(0); i < cap; i++ {
			nid := (uint32(id) + i) & (cap - 1)
			if !r.used.Test(uint(nid)) {
				r.used.Set(uint(nid))
				r.slots[nid] = e
				r.count++
				break
			}
		}
	}
}

// Grab looks up the handle's local id in this node's slot table, retains
// the entry and returns it. It fails if the slot is empty.
func (r *Registry[T]) Grab(h Handle) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	id := h.Local()
	if id >= uint32(len(r.slots)) || !r.used.Test(uint(id)) {
		return zero, ErrNotFound
	}
	e := r.slots[id]
	e.Retain()
	return e, nil
}

// Retire clears the slot, drops every name bound to the handle, and
// returns the entry that was there so the caller can release its own
// strong reference.
func (r *Registry[T]) Retire(h Handle) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	id := h.Local()
	if id >= uint32(len(r.slots)) || !r.used.Test(uint(id)) {
		return zero, ErrNotFound
	}
	e := r.slots[id]
	r.used.Clear(uint(id))
	var zeroT T
	r.slots[id] = zeroT
	r.count--

	kept := r.names[:0]
	for _, nb := range r.names {
		if nb.handle != h {
			kept = append(kept, nb)
		}
	}
	r.names = kept
	return e, nil
}

// Bind associates name with handle. Names may only be bound once; a
// second Bind for the same name returns ErrNameTaken, matching the
// original REG command's "only create, never overwrite" behaviour.
func (r *Registry[T]) Bind(name string, h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := sort.Search(len(r.names), func(i int) bool { return r.names[i].name >= name })
	if i < len(r.names) && r.names[i].name == name {
		return ErrNameTaken
	}
	r.names = append(r.names, nameBind{})
	copy(r.names[i+1:], r.names[i:])
	r.names[i] = nameBind{name: name, handle: h}
	return nil
}

// FindName resolves a bound name to a handle via binary search.
func (r *Registry[T]) FindName(name string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := sort.Search(len(r.names), func(i int) bool { return r.names[i].name >= name })
	if i < len(r.names) && r.names[i].name == name {
		return r.names[i].handle, true
	}
	return Invalid, false
}

// Len returns the number of live handles, used to drive shutdown
// convergence (the active-service counter of spec.md §4.3).
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Each calls fn once per live handle, in slot order. It holds the read
// lock for the duration of the walk, the same way skynet_handle.c's
// harbor-broadcast path (dispatch_id) walks the slot table under its
// single rwlock to reach every context on the node.
func (r *Registry[T]) Each(fn func(Handle, T)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id := 0; id < len(r.slots); id++ {
		if !r.used.Test(uint(id)) {
			continue
		}
		fn(NewHandle(r.node, uint32(id)), r.slots[id])
	}
}
