// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pricing holds the moving-price smoothing curve. The smoothing
// factor is a function of pool liquidity: deep pools barely move the
// cached price, shallow pools track the spot price almost immediately.
package pricing

import (
	"github.com/subtide/subtide/fixed"
)

// SmoothingFactor computes the EMA weight for the given liquidity measure.
//
// If liquidity >= scaleMax the factor is 1 (no smoothing). Otherwise the
// liquidity is normalized to x in [-1, 1] via x = 2*l/scaleMax - 1, the
// cubic f(x) = ((7/2*x^3 - 1)*x^3 + 3/2)*x - 4 is evaluated, and the
// factor is 10^-ceil(|f(x)|).
func SmoothingFactor(liquidity, scaleMax *fixed.Fixed) *fixed.Fixed {
	if liquidity.Cmp(scaleMax) >= 0 {
		return fixed.One()
	}

	a := fixed.FromRatio(7, 2)
	b := fixed.FromInt64(-1)
	c := fixed.FromRatio(3, 2)
	d := fixed.FromInt64(-4)
	two := fixed.FromInt64(2)

	x := two.Mul(liquidity).SafeDiv(scaleMax).Add(fixed.FromInt64(-1))
	xCubed := x.Mul(x).Mul(x)
	fx := a.Mul(xCubed).Add(b).Mul(xCubed).Add(c).Mul(x).Add(d)

	exp := fx.Abs().CeilU64()

	factor := fixed.One()
	ten := fixed.FromU64(10)
	for i := uint64(0); i < exp; i++ {
		factor = factor.SafeDiv(ten)
	}
	return factor
}

// Blend combines the current spot price with the previous moving price
// using the given factor: factor*current + (1-factor)*moving. The result
// is clamped to never exceed the current price, so the moving average can
// lag a rising price but never overshoot it.
func Blend(factor, current, moving *fixed.Fixed) *fixed.Fixed {
	oneMinus := fixed.One().Sub(factor)
	blended := factor.Mul(current).Add(oneMinus.Mul(moving))
	return blended.Min(current)
}
