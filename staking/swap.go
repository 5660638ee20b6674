// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/holiman/uint256"

	"github.com/subtide/subtide/fixed"
	"github.com/subtide/subtide/staking/pricing"
	"github.com/subtide/subtide/subtide"
)

// AlphaPrice returns the spot price of one alpha in tao. Stable pools
// and the root subnet are always at parity; a dynamic pool with an empty
// alpha reserve has price zero.
func (e *Engine) AlphaPrice(netuid uint16) (*fixed.Fixed, error) {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return nil, err
	}
	return alphaPrice(sub), nil
}

func alphaPrice(sub *Subnet) *fixed.Fixed {
	if !sub.IsDynamic() {
		return fixed.One()
	}
	if sub.AlphaIn == 0 {
		return fixed.Zero()
	}
	return fixed.FromU64(sub.TaoReserve).SafeDiv(fixed.FromU64(sub.AlphaIn))
}

// MovingAlphaPrice returns the smoothed price of one alpha in tao.
func (e *Engine) MovingAlphaPrice(netuid uint16) (*fixed.Fixed, error) {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return nil, err
	}
	return movingAlphaPrice(sub), nil
}

func movingAlphaPrice(sub *Subnet) *fixed.Fixed {
	if !sub.IsDynamic() {
		return fixed.One()
	}
	return sub.MovingPriceFixed()
}

// AlphaIssuance returns the total alpha in existence for a subnet, both
// inside and outside the pool.
func (e *Engine) AlphaIssuance(netuid uint16) (uint64, error) {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return 0, err
	}
	return satAdd(sub.AlphaIn, sub.AlphaOut), nil
}

// divCeil divides rounding up. A zero divisor yields zero, matching a
// drained pool.
func divCeil(num, den *uint256.Int) *uint256.Int {
	q, m := new(uint256.Int).DivMod(num, den, new(uint256.Int))
	if !m.IsZero() {
		q.AddUint64(q, 1)
	}
	return q
}

// simSwapTaoForAlpha prices tao against the pool without touching state.
// The second return is false when the swap would drain the alpha reserve
// below the pool's liquidity floor.
func simSwapTaoForAlpha(sub *Subnet, tao uint64) (uint64, bool) {
	if !sub.IsDynamic() {
		return tao, true
	}
	taoReserve := uint256.NewInt(sub.TaoReserve)
	alphaReserve := uint256.NewInt(sub.AlphaIn)

	k := new(uint256.Int).Mul(taoReserve, alphaReserve)
	newTao := new(uint256.Int).Add(taoReserve, uint256.NewInt(tao))
	newAlpha := divCeil(k, newTao)

	if newAlpha.CmpUint64(sub.MinLiquidity) < 0 {
		return 0, false
	}
	out := new(uint256.Int).Sub(alphaReserve, newAlpha)
	if !out.IsUint64() {
		return 0, false
	}
	return out.Uint64(), true
}

// simSwapAlphaForTao prices alpha against the pool without touching
// state. The second return is false when the swap would drain the tao
// reserve below the pool's liquidity floor.
func simSwapAlphaForTao(sub *Subnet, alpha uint64) (uint64, bool) {
	if !sub.IsDynamic() {
		return alpha, true
	}
	taoReserve := uint256.NewInt(sub.TaoReserve)
	alphaReserve := uint256.NewInt(sub.AlphaIn)

	k := new(uint256.Int).Mul(taoReserve, alphaReserve)
	newAlpha := new(uint256.Int).Add(alphaReserve, uint256.NewInt(alpha))
	newTao := divCeil(k, newAlpha)

	if newTao.CmpUint64(sub.MinLiquidity) < 0 {
		return 0, false
	}
	out := new(uint256.Int).Sub(taoReserve, newTao)
	if !out.IsUint64() {
		return 0, false
	}
	return out.Uint64(), true
}

// SimSwapTaoForAlpha prices a tao-for-alpha swap against the current
// pool state. ok is false when the pool cannot absorb the trade.
func (e *Engine) SimSwapTaoForAlpha(netuid uint16, tao uint64) (alpha uint64, ok bool, err error) {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return 0, false, err
	}
	alpha, ok = simSwapTaoForAlpha(sub, tao)
	return alpha, ok, nil
}

// SimSwapAlphaForTao prices an alpha-for-tao swap against the current
// pool state. ok is false when the pool cannot absorb the trade.
func (e *Engine) SimSwapAlphaForTao(netuid uint16, alpha uint64) (tao uint64, ok bool, err error) {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return 0, false, err
	}
	tao, ok = simSwapAlphaForTao(sub, alpha)
	return tao, ok, nil
}

// swapTaoForAlpha commits a tao-for-alpha swap: the pool absorbs the tao
// and releases alpha into circulation. Total stake and volume move with
// the tao side.
func (e *Engine) swapTaoForAlpha(sub *Subnet, tao uint64) (uint64, bool, error) {
	alpha, ok := simSwapTaoForAlpha(sub, tao)
	if !ok {
		return 0, false, nil
	}
	sub.AlphaIn = satSub(sub.AlphaIn, alpha)
	sub.AlphaOut = satAdd(sub.AlphaOut, alpha)
	sub.TaoReserve = satAdd(sub.TaoReserve, tao)
	sub.AddVolume(tao)
	if err := e.store.setSubnet(sub); err != nil {
		return 0, false, err
	}
	if err := e.store.totalStake.Add(tao); err != nil {
		return 0, false, err
	}
	return alpha, true, nil
}

// swapAlphaForTao commits an alpha-for-tao swap: alpha returns to the
// pool and tao leaves the reserve. Total stake and volume move with the
// tao side.
func (e *Engine) swapAlphaForTao(sub *Subnet, alpha uint64) (uint64, bool, error) {
	tao, ok := simSwapAlphaForTao(sub, alpha)
	if !ok {
		return 0, false, nil
	}
	sub.AlphaIn = satAdd(sub.AlphaIn, alpha)
	sub.AlphaOut = satSub(sub.AlphaOut, alpha)
	sub.TaoReserve = satSub(sub.TaoReserve, tao)
	sub.AddVolume(tao)
	if err := e.store.setSubnet(sub); err != nil {
		return 0, false, err
	}
	if err := e.store.totalStake.Sub(tao); err != nil {
		return 0, false, err
	}
	return tao, true, nil
}

// UpdateMovingPrice folds the current spot price into the subnet's
// moving price. The smoothing weight grows with pool liquidity, and the
// moving price never overshoots the spot price.
func (e *Engine) UpdateMovingPrice(netuid uint16) error {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return err
	}
	if !sub.IsDynamic() {
		return nil
	}

	one := fixed.FromU64(subtide.OneTao)
	taoReserve := fixed.FromU64(sub.TaoReserve).SafeDiv(one)
	alphaReserve := fixed.FromU64(sub.AlphaIn).SafeDiv(one)
	liquidity := taoReserve.Mul(alphaReserve).Sqrt()

	factor := pricing.SmoothingFactor(liquidity, fixed.FromU64(sub.LiquidityScaleMax))
	updated := pricing.Blend(factor, alphaPrice(sub), sub.MovingPriceFixed())

	sub.SetMovingPrice(updated)
	return e.store.setSubnet(sub)
}
