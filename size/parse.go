/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package size

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var unitValues = map[string]Size{
	"B":  SizeUnit,
	"K":  SizeKilo,
	"KB": SizeKilo,
	"M":  SizeMega,
	"MB": SizeMega,
	"G":  SizeGiga,
	"GB": SizeGiga,
	"T":  SizeTera,
	"TB": SizeTera,
	"P":  SizePeta,
	"PB": SizePeta,
	"E":  SizeExa,
	"EB": SizeExa,
}

// Parse decodes a human size string ("5MB", "1.5GB", "0B") into a Size.
// Compound forms ("1GB500MB") are summed. Leading/trailing whitespace and a
// single layer of surrounding quotes are stripped; a leading '+' is
// accepted, a leading '-' is rejected.
func Parse(s string) (Size, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	if s == "" {
		return 0, fmt.Errorf("invalid size: empty input")
	}

	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("invalid size %q: negative values are not allowed", s)
	}
	s = strings.TrimPrefix(s, "+")

	var total float64
	rest := s
	matched := false

	for len(rest) > 0 {
		numEnd := 0
		seenDot := false
		for numEnd < len(rest) {
			c := rest[numEnd]
			if c >= '0' && c <= '9' {
				numEnd++
				continue
			}
			if c == '.' && !seenDot {
				seenDot = true
				numEnd++
				continue
			}
			break
		}
		if numEnd == 0 {
			return 0, fmt.Errorf("invalid size %q: missing numeric value", s)
		}

		numStr := rest[:numEnd]
		rest = rest[numEnd:]

		unitEnd := 0
		for unitEnd < len(rest) {
			c := rest[unitEnd]
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
				unitEnd++
				continue
			}
			break
		}
		if unitEnd == 0 {
			return 0, fmt.Errorf("invalid size %q: missing unit", s)
		}

		unitStr := strings.ToUpper(rest[:unitEnd])
		rest = rest[unitEnd:]

		n, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size %q: %w", s, err)
		}

		u, ok := unitValues[unitStr]
		if !ok {
			return 0, fmt.Errorf("invalid size %q: unknown unit %q", s, unitStr)
		}

		total += n * float64(u)
		matched = true
	}

	if !matched {
		return 0, fmt.Errorf("invalid size: empty input")
	}
	if total > math.MaxUint64 || math.IsInf(total, 1) {
		return 0, fmt.Errorf("invalid size %q: value overflows", s)
	}

	return Size(total), nil
}

// ParseByte is Parse over a byte slice.
func ParseByte(b []byte) (Size, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("invalid size: empty input")
	}
	return Parse(string(b))
}

// ParseSize is a deprecated alias for Parse.
func ParseSize(s string) (Size, error) {
	return Parse(s)
}

// ParseByteAsSize is a deprecated alias for ParseByte.
func ParseByteAsSize(b []byte) (Size, error) {
	return ParseByte(b)
}

// GetSize is a deprecated alias for Parse that reports success as a bool
// instead of an error.
func GetSize(s string) (Size, bool) {
	v, err := Parse(s)
	if err != nil {
		return SizeNul, false
	}
	return v, true
}
