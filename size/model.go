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

import "math"

// Size is a byte count, stored as a plain uint64.
type Size uint64

const (
	SizeNul  Size = 0
	SizeUnit Size = 1
	SizeKilo Size = 1 << 10
	SizeMega Size = 1 << 20
	SizeGiga Size = 1 << 30
	SizeTera Size = 1 << 40
	SizePeta Size = 1 << 50
	SizeExa  Size = 1 << 60
)

// defaultUnit is the suffix character appended after a magnitude prefix
// (e.g. the "B" in "KB"). SetDefaultUnit overrides it, for callers that
// want "Ko"/"Mo" style suffixes instead.
var defaultUnit = 'B'

// SetDefaultUnit changes the suffix character Code and Unit fall back to
// when called with a zero rune. Passing 0 resets it to 'B'.
func SetDefaultUnit(u rune) {
	if u == 0 {
		u = 'B'
	}
	defaultUnit = u
}

// scale returns the magnitude prefix ("", "K", "M", ...) and the divisor
// to express s in that magnitude's unit.
func (s Size) scale() (prefix string, divisor float64) {
	switch {
	case s >= SizeExa:
		return "E", float64(SizeExa)
	case s >= SizePeta:
		return "P", float64(SizePeta)
	case s >= SizeTera:
		return "T", float64(SizeTera)
	case s >= SizeGiga:
		return "G", float64(SizeGiga)
	case s >= SizeMega:
		return "M", float64(SizeMega)
	case s >= SizeKilo:
		return "K", float64(SizeKilo)
	default:
		return "", 1
	}
}

// Code returns the magnitude-prefixed unit suffix for s (e.g. "KB", "MB").
// A zero rune falls back to the package's default unit character.
func (s Size) Code(u rune) string {
	prefix, _ := s.scale()
	if u == 0 {
		u = defaultUnit
	}
	return prefix + string(u)
}

// Unit is an alias of Code, matching the vocabulary used by callers that
// think in terms of "display unit" rather than "suffix code".
func (s Size) Unit(u rune) string {
	return s.Code(u)
}

// KiloBytes, MegaBytes, ... truncate s down to the given magnitude.
func (s Size) KiloBytes() uint64 { return uint64(s) / uint64(SizeKilo) }
func (s Size) MegaBytes() uint64 { return uint64(s) / uint64(SizeMega) }
func (s Size) GigaBytes() uint64 { return uint64(s) / uint64(SizeGiga) }
func (s Size) TeraBytes() uint64 { return uint64(s) / uint64(SizeTera) }
func (s Size) PetaBytes() uint64 { return uint64(s) / uint64(SizePeta) }
func (s Size) ExaBytes() uint64  { return uint64(s) / uint64(SizeExa) }

// Uint64 returns s as-is.
func (s Size) Uint64() uint64 { return uint64(s) }

// Uint32 caps s at math.MaxUint32.
func (s Size) Uint32() uint32 {
	if uint64(s) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(s)
}

// Uint caps s at the platform's math.MaxUint.
func (s Size) Uint() uint {
	if uint64(s) > uint64(math.MaxUint) {
		return math.MaxUint
	}
	return uint(s)
}

// Int64 caps s at math.MaxInt64.
func (s Size) Int64() int64 {
	if uint64(s) > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(s)
}

// Int32 caps s at math.MaxInt32.
func (s Size) Int32() int32 {
	if uint64(s) > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(s)
}

// Int caps s at the platform's math.MaxInt.
func (s Size) Int() int {
	if uint64(s) > uint64(math.MaxInt) {
		return math.MaxInt
	}
	return int(s)
}

// Float64 returns s as a float64. A uint64 byte count never exceeds
// math.MaxFloat64, so no capping is needed.
func (s Size) Float64() float64 {
	return float64(s)
}

// Float32 returns s as a float32, losing precision above 2^24 the same way
// any large integer-to-float32 conversion does.
func (s Size) Float32() float32 {
	return float32(s)
}
