// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fixed provides signed fixed-point arithmetic with 64 fractional
// bits, backed by math/big. All operations are deterministic and never trap:
// precision is arbitrary within an operation, divisions by zero yield zero,
// and saturation is applied only when converting back to machine integers.
package fixed

import (
	"math"
	"math/big"
)

const fracBits = 64

var (
	scale     = new(big.Int).Lsh(big.NewInt(1), fracBits) // 2^64
	maxUint64 = new(big.Int).SetUint64(math.MaxUint64)
)

// Fixed is an immutable signed fixed-point number with 64 fractional bits.
type Fixed struct {
	i big.Int // value = i / 2^64
}

// Zero returns the zero value.
func Zero() *Fixed {
	return new(Fixed)
}

// One returns the fixed-point representation of 1.
func One() *Fixed {
	return FromU64(1)
}

// FromU64 converts an unsigned integer.
func FromU64(v uint64) *Fixed {
	f := new(Fixed)
	f.i.SetUint64(v)
	f.i.Lsh(&f.i, fracBits)
	return f
}

// FromInt64 converts a signed integer.
func FromInt64(v int64) *Fixed {
	f := new(Fixed)
	f.i.SetInt64(v)
	f.i.Lsh(&f.i, fracBits)
	return f
}

// FromRatio returns num/den as a fixed-point number, truncated toward zero.
// A zero denominator yields zero.
func FromRatio(num, den int64) *Fixed {
	return FromInt64(num).SafeDiv(FromInt64(den))
}

// FromRaw wraps a raw 2^64-scaled integer. A nil raw value yields zero.
func FromRaw(raw *big.Int) *Fixed {
	f := new(Fixed)
	if raw != nil {
		f.i.Set(raw)
	}
	return f
}

// Raw returns a copy of the underlying 2^64-scaled integer.
func (f *Fixed) Raw() *big.Int {
	return new(big.Int).Set(&f.i)
}

// Add returns f + x.
func (f *Fixed) Add(x *Fixed) *Fixed {
	r := new(Fixed)
	r.i.Add(&f.i, &x.i)
	return r
}

// Sub returns f - x.
func (f *Fixed) Sub(x *Fixed) *Fixed {
	r := new(Fixed)
	r.i.Sub(&f.i, &x.i)
	return r
}

// Mul returns f * x.
func (f *Fixed) Mul(x *Fixed) *Fixed {
	r := new(Fixed)
	r.i.Mul(&f.i, &x.i)
	r.i.Rsh(&r.i, fracBits)
	return r
}

// SafeDiv returns f / x, or zero when x is zero.
func (f *Fixed) SafeDiv(x *Fixed) *Fixed {
	r := new(Fixed)
	if x.i.Sign() == 0 {
		return r
	}
	r.i.Lsh(&f.i, fracBits)
	r.i.Quo(&r.i, &x.i)
	return r
}

// Neg returns -f.
func (f *Fixed) Neg() *Fixed {
	r := new(Fixed)
	r.i.Neg(&f.i)
	return r
}

// Abs returns |f|.
func (f *Fixed) Abs() *Fixed {
	r := new(Fixed)
	r.i.Abs(&f.i)
	return r
}

// Min returns the smaller of f and x.
func (f *Fixed) Min(x *Fixed) *Fixed {
	if f.Cmp(x) <= 0 {
		return f
	}
	return x
}

// Cmp compares f and x, returning -1, 0 or 1.
func (f *Fixed) Cmp(x *Fixed) int {
	return f.i.Cmp(&x.i)
}

// Sign returns the sign of f.
func (f *Fixed) Sign() int {
	return f.i.Sign()
}

// IsZero returns true if f is exactly zero.
func (f *Fixed) IsZero() bool {
	return f.i.Sign() == 0
}

// Sqrt returns the square root of f, truncated toward zero.
// Negative inputs yield zero.
func (f *Fixed) Sqrt() *Fixed {
	r := new(Fixed)
	if f.i.Sign() <= 0 {
		return r
	}
	r.i.Lsh(&f.i, fracBits)
	r.i.Sqrt(&r.i)
	return r
}

// U64 truncates f toward zero and saturates it into a uint64.
func (f *Fixed) U64() uint64 {
	if f.i.Sign() <= 0 {
		return 0
	}
	q := new(big.Int).Rsh(&f.i, fracBits)
	if q.Cmp(maxUint64) > 0 {
		return math.MaxUint64
	}
	return q.Uint64()
}

// CeilU64 rounds f up to the nearest integer and saturates it into a uint64.
func (f *Fixed) CeilU64() uint64 {
	if f.i.Sign() <= 0 {
		return 0
	}
	q, r := new(big.Int).QuoRem(&f.i, scale, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	if q.Cmp(maxUint64) > 0 {
		return math.MaxUint64
	}
	return q.Uint64()
}

// String renders f with nine decimal places, for logging only.
func (f *Fixed) String() string {
	milli := new(big.Int).Mul(&f.i, big.NewInt(1_000_000_000))
	milli.Quo(milli, scale)
	r := new(big.Rat).SetFrac(milli, big.NewInt(1_000_000_000))
	return r.FloatString(9)
}
