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

// Package handle implements the service handle space: a 32-bit identifier
// split into an 8-bit node id and a 24-bit local id, and the registry that
// maps local ids to service contexts.
package handle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nabbar/actorkit/errors"
)

// ErrMalformed is returned by Parse when its input isn't a valid
// String()-formatted handle.
var ErrMalformed = errors.New(4, "handle: malformed handle string")

// Handle is a service identifier. The high 8 bits carry the node id, the low
// 24 bits carry the local id assigned by this node's registry. Zero is
// reserved and never assigned.
type Handle uint32

const (
	localMask  = 0x00FFFFFF
	nodeShift  = 24
	nodeMask   = 0xFF
	Invalid    = Handle(0)
	maxLocalID = localMask
)

// NewHandle combines a node id and a local id into a Handle.
func NewHandle(node uint8, local uint32) Handle {
	return Handle(uint32(node)<<nodeShift | (local & localMask))
}

// Node returns the 8-bit node id portion of the handle.
func (h Handle) Node() uint8 { return uint8(uint32(h) >> nodeShift) }

// Local returns the 24-bit local id portion of the handle.
func (h Handle) Local() uint32 { return uint32(h) & localMask }

// Valid reports whether the handle is non-zero.
func (h Handle) Valid() bool { return h != Invalid }

// String renders the handle the way the original runtime logs it: a colon
// followed by eight hex digits, e.g. ":00000001".
func (h Handle) String() string {
	return fmt.Sprintf(":%08x", uint32(h))
}

// Parse reverses String, accepting either a leading-colon or bare
// hex form.
func Parse(s string) (Handle, error) {
	s = strings.TrimPrefix(s, ":")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Invalid, ErrMalformed
	}
	return Handle(uint32(v)), nil
}
