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

package seri

import (
	"encoding/binary"
	"math"
)

// Pack serialises a sequence of values into one flat buffer. The
// original writer builds a linked chain of 128-byte blocks and
// flattens it at the end; a Go []byte growing by append gives the
// same amortised behaviour without the intermediate block list.
func Pack(values ...any) ([]byte, error) {
	e := &encoder{depth: 0}
	for _, v := range values {
		if err := e.value(v); err != nil {
			return nil, err
		}
	}
	return e.buf, nil
}

type encoder struct {
	buf   []byte
	depth int
}

func (e *encoder) value(v any) error {
	switch t := v.(type) {
	case nil:
		e.buf = append(e.buf, combine(typeNil, 0))
	case bool:
		cookie := 0
		if t {
			cookie = 1
		}
		e.buf = append(e.buf, combine(typeBool, cookie))
	case int:
		e.number(int64(t))
	case int8:
		e.number(int64(t))
	case int16:
		e.number(int64(t))
	case int32:
		e.number(int64(t))
	case int64:
		e.number(t)
	case uint:
		e.number(int64(t))
	case uint8:
		e.number(int64(t))
	case uint16:
		e.number(int64(t))
	case uint32:
		e.number(int64(t))
	case uint64:
		e.number(int64(t))
	case float64:
		e.real(t)
	case float32:
		e.real(float64(t))
	case string:
		e.str(t)
	case []byte:
		e.userdata(t)
	case *Table:
		return e.table(t)
	case Table:
		return e.table(&t)
	default:
		return ErrType
	}
	return nil
}

func (e *encoder) number(v int64) {
	switch {
	case v == 0:
		e.buf = append(e.buf, combine(typeNumber, numZero))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		e.buf = append(e.buf, combine(typeNumber, numByte), byte(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		e.buf = append(e.buf, combine(typeNumber, numWord))
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		e.buf = append(e.buf, combine(typeNumber, numDword))
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v))
	default:
		e.buf = append(e.buf, combine(typeNumber, numQword))
		e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(v))
	}
}

func (e *encoder) real(v float64) {
	e.buf = append(e.buf, combine(typeNumber, numReal))
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}

func (e *encoder) str(s string) {
	if len(s) < shortString {
		e.buf = append(e.buf, combine(typeShort, len(s)))
		e.buf = append(e.buf, s...)
		return
	}
	if len(s) < 0x10000 {
		e.buf = append(e.buf, combine(typeLong, 2))
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(len(s)))
	} else {
		e.buf = append(e.buf, combine(typeLong, 4))
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(s)))
	}
	e.buf = append(e.buf, s...)
}

func (e *encoder) userdata(b []byte) {
	e.buf = append(e.buf, combine(typeUser, 0))
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) table(t *Table) error {
	e.depth++
	if e.depth > maxDepth {
		return ErrDepth
	}
	defer func() { e.depth-- }()

	n := len(t.Array)
	if n < maxCookie-1 {
		e.buf = append(e.buf, combine(typeTable, n))
	} else {
		e.buf = append(e.buf, combine(typeTable, maxCookie-1))
		e.number(int64(n))
	}
	for _, v := range t.Array {
		if err := e.value(v); err != nil {
			return err
		}
	}
	for k, v := range t.Hash {
		if err := e.value(k); err != nil {
			return err
		}
		if err := e.value(v); err != nil {
			return err
		}
	}
	e.buf = append(e.buf, combine(typeNil, 0))
	return nil
}
