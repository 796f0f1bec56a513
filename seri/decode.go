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

// Unpack deserialises every value in buf in order. It is the inverse of
// Pack up to Go type: integers of any width come back as int64, floats
// as float64 and tables as *Table, with values preserved at every
// integer-width boundary.
func Unpack(buf []byte) ([]any, error) {
	d := &decoder{buf: buf}
	var out []any
	for d.pos < len(d.buf) {
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type decoder struct {
	buf   []byte
	pos   int
	depth int
}

func (d *decoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return ErrTruncated
	}
	return nil
}

func (d *decoder) byte() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) take(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) value() (any, error) {
	tag, err := d.byte()
	if err != nil {
		return nil, err
	}
	major := majorType(tag & 0x7)
	cookie := int(tag >> 3)

	switch major {
	case typeNil:
		return nil, nil
	case typeBool:
		return cookie != 0, nil
	case typeNumber:
		return d.number(cookie)
	case typeUser:
		return d.userdata()
	case typeShort:
		b, err := d.take(cookie)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case typeLong:
		return d.longString(cookie)
	case typeTable:
		return d.table(cookie)
	default:
		return nil, ErrType
	}
}

func (d *decoder) number(cookie int) (any, error) {
	switch cookie {
	case numZero:
		return int64(0), nil
	case numByte:
		b, err := d.byte()
		if err != nil {
			return nil, err
		}
		return int64(int8(b)), nil
	case numWord:
		b, err := d.take(2)
		if err != nil {
			return nil, err
		}
		return int64(int16(binary.LittleEndian.Uint16(b))), nil
	case numDword:
		b, err := d.take(4)
		if err != nil {
			return nil, err
		}
		return int64(int32(binary.LittleEndian.Uint32(b))), nil
	case numQword:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.LittleEndian.Uint64(b)), nil
	case numReal:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	default:
		return nil, ErrType
	}
}

func (d *decoder) userdata() (any, error) {
	szb, err := d.take(4)
	if err != nil {
		return nil, err
	}
	sz := binary.LittleEndian.Uint32(szb)
	return d.take(int(sz))
}

func (d *decoder) longString(cookie int) (any, error) {
	var n int
	switch cookie {
	case 2:
		b, err := d.take(2)
		if err != nil {
			return nil, err
		}
		n = int(binary.LittleEndian.Uint16(b))
	case 4:
		b, err := d.take(4)
		if err != nil {
			return nil, err
		}
		n = int(binary.LittleEndian.Uint32(b))
	default:
		return nil, ErrType
	}
	b, err := d.take(n)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *decoder) table(cookie int) (any, error) {
	d.depth++
	if d.depth > maxDepth {
		return nil, ErrDepth
	}
	defer func() { d.depth-- }()

	n := cookie
	if cookie == maxCookie-1 {
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		count, ok := v.(int64)
		if !ok {
			return nil, ErrType
		}
		n = int(count)
	}

	t := &Table{Array: make([]any, 0, n)}
	for i := 0; i < n; i++ {
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		t.Array = append(t.Array, v)
	}

	for {
		k, err := d.value()
		if err != nil {
			return nil, err
		}
		if k == nil {
			break
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		if t.Hash == nil {
			t.Hash = make(map[any]any)
		}
		t.Hash[k] = v
	}
	return t, nil
}
