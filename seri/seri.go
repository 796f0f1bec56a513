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

// Package seri is a self-describing recursive value codec modelled on
// lua-seri.c: a tag byte packs a 3-bit major type and a 5-bit cookie,
// and tables/strings/integers each pick the narrowest representation.
package seri

import (
	"github.com/nabbar/actorkit/errors"
)

type majorType uint8

const (
	typeNil    majorType = 0
	typeBool   majorType = 1
	typeNumber majorType = 2
	typeUser   majorType = 3
	typeShort  majorType = 4
	typeLong   majorType = 5
	typeTable  majorType = 6
)

const (
	numZero  = 0
	numByte  = 1
	numWord  = 2
	numDword = 4
	numQword = 6
	numReal  = 8
)

const (
	maxCookie   = 32
	maxDepth    = 32
	shortString = 32 // strings shorter than this are inlined in the cookie
)

// ErrDepth is returned when a table nests beyond maxDepth.
var ErrDepth = errors.New(10, "seri: table nesting exceeds max depth")

// ErrTruncated is returned when the input buffer ends mid-value.
var ErrTruncated = errors.New(11, "seri: truncated input")

// ErrType is returned when a tag names an unknown major type.
var ErrType = errors.New(12, "seri: unknown type tag")

func combine(t majorType, cookie int) byte {
	return byte(t) | byte(cookie)<<3
}

// Table is the codec's composite value: an array part (1-based,
// contiguous) plus a hash part of arbitrary key/value pairs, the same
// shape lua-seri.c serialises for Lua tables.
type Table struct {
	Array []any
	Hash  map[any]any
}
