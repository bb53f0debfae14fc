/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

// Parse parses a human size string such as "5MB" or "1.5GB" into a Size.
// Leading/trailing whitespace and surrounding quotes are ignored, a leading
// "+" is accepted, and a leading "-" is rejected since a byte count cannot
// be negative.
func Parse(s string) (Size, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.TrimSpace(s)

	if s == "" {
		return SizeNul, fmt.Errorf("size: invalid size: empty string")
	}

	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		return SizeNul, fmt.Errorf("size: negative values are not allowed: %q", s)
	}

	if s == "" {
		return SizeNul, fmt.Errorf("size: invalid size: empty string")
	}

	numPart, unitPart := splitNumberUnit(s)
	if numPart == "" {
		return SizeNul, fmt.Errorf("size: missing numeric value in %q", s)
	}
	if unitPart == "" {
		return SizeNul, fmt.Errorf("size: missing unit in %q", s)
	}

	num, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return SizeNul, fmt.Errorf("size: invalid numeric value %q: %w", numPart, err)
	}

	mult, ok := unitMultiplier(unitPart)
	if !ok {
		return SizeNul, fmt.Errorf("size: unknown unit %q", unitPart)
	}

	value := num * mult
	if value < 0 {
		return SizeNul, fmt.Errorf("size: negative values are not allowed: %q", s)
	}
	if value > math.MaxUint64 {
		return Size(math.MaxUint64), fmt.Errorf("size: value overflows a Size: %q", s)
	}

	return Size(math.Round(value)), nil
}

// splitNumberUnit splits "5.5MB" into ("5.5", "MB").
func splitNumberUnit(s string) (numPart, unitPart string) {
	i := 0
	for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	return s[:i], s[i:]
}

func unitMultiplier(unit string) (float64, bool) {
	switch strings.ToUpper(unit) {
	case "B":
		return float64(SizeUnit), true
	case "K", "KB":
		return float64(SizeKilo), true
	case "M", "MB":
		return float64(SizeMega), true
	case "G", "GB":
		return float64(SizeGiga), true
	case "T", "TB":
		return float64(SizeTera), true
	case "P", "PB":
		return float64(SizePeta), true
	case "E", "EB":
		return float64(SizeExa), true
	}
	return 0, false
}

// ParseByte is Parse over a byte slice.
func ParseByte(b []byte) (Size, error) {
	return Parse(string(b))
}

// ParseSize is a deprecated alias of Parse.
func ParseSize(s string) (Size, error) {
	return Parse(s)
}

// ParseByteAsSize is a deprecated alias of ParseByte.
func ParseByteAsSize(b []byte) (Size, error) {
	return ParseByte(b)
}

// GetSize is a deprecated alias of Parse that reports success as a bool
// instead of an error, for callers that don't care why parsing failed.
func GetSize(s string) (Size, bool) {
	v, err := Parse(s)
	if err != nil {
		return SizeNul, false
	}
	return v, true
}

// ParseInt64 converts an int64 byte count to a Size, taking the absolute
// value since a Size cannot be negative.
func ParseInt64(i int64) Size {
	if i < 0 {
		i = -i
	}
	return Size(i)
}

// SizeFromInt64 is an alias of ParseInt64.
func SizeFromInt64(i int64) Size {
	return ParseInt64(i)
}

// ParseUint64 converts a uint64 byte count to a Size.
func ParseUint64(u uint64) Size {
	return Size(u)
}

// ParseFloat64 converts a float64 byte count to a Size: it floors toward
// negative infinity first, then takes the absolute value, matching the
// rounding a caller would see from math.Floor on the raw input.
func ParseFloat64(f float64) Size {
	f = math.Floor(f)
	if f < 0 {
		f = -f
	}
	if f > math.MaxUint64 || math.IsInf(f, 1) {
		return Size(math.MaxUint64)
	}
	return Size(f)
}

// SizeFromFloat64 is an alias of ParseFloat64.
func SizeFromFloat64(f float64) Size {
	return ParseFloat64(f)
}
