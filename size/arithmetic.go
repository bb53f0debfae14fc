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
)

// Mul multiplies s in place by factor, silently capping at math.MaxUint64
// on overflow. Use MulErr to observe the overflow.
func (s *Size) Mul(factor float64) {
	_ = s.MulErr(factor)
}

// MulErr multiplies s in place by factor and reports an error if the
// result had to be capped at math.MaxUint64. A negative factor is treated
// as zero.
func (s *Size) MulErr(factor float64) error {
	if factor < 0 {
		factor = 0
	}

	val := math.Round(float64(*s) * factor)
	if val < 0 {
		val = 0
	}
	if val > math.MaxUint64 || math.IsInf(val, 1) {
		*s = Size(math.MaxUint64)
		return fmt.Errorf("size: multiplication overflow")
	}

	*s = Size(val)
	return nil
}

// Div divides s in place by divisor, silently leaving s unchanged if
// divisor is not strictly positive. Use DivErr to observe that case.
func (s *Size) Div(divisor float64) {
	_ = s.DivErr(divisor)
}

// DivErr divides s in place by divisor and reports an error without
// modifying s if divisor is not strictly positive.
func (s *Size) DivErr(divisor float64) error {
	if divisor <= 0 {
		return fmt.Errorf("size: invalid diviser %v", divisor)
	}

	val := math.Round(float64(*s) / divisor)
	if val > math.MaxUint64 {
		*s = Size(math.MaxUint64)
		return fmt.Errorf("size: division overflow")
	}

	*s = Size(val)
	return nil
}

// Add adds v to s in place, silently capping at math.MaxUint64 on
// overflow. Use AddErr to observe the overflow.
func (s *Size) Add(v uint64) {
	_ = s.AddErr(v)
}

// AddErr adds v to s in place and reports an error if the result had to
// be capped at math.MaxUint64.
func (s *Size) AddErr(v uint64) error {
	if uint64(*s) > math.MaxUint64-v {
		*s = Size(math.MaxUint64)
		return fmt.Errorf("size: addition overflow")
	}
	*s += Size(v)
	return nil
}

// Sub subtracts v from s in place, silently capping at zero on underflow.
// Use SubErr to observe the underflow.
func (s *Size) Sub(v uint64) {
	_ = s.SubErr(v)
}

// SubErr subtracts v from s in place and reports an error if v exceeds s,
// in which case s is capped at zero.
func (s *Size) SubErr(v uint64) error {
	if v > uint64(*s) {
		cur := uint64(*s)
		*s = Size(0)
		return fmt.Errorf("size: invalid substractor %d is greater than current size %d", v, cur)
	}
	*s -= Size(v)
	return nil
}
