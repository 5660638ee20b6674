// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math"
	"math/big"

	"github.com/subtide/subtide/subtide"
)

// Limit prices are expressed in rao per alpha scaled by OneTao, i.e.
// a limit of OneTao means parity.

// maxAmountAdd returns the largest tao amount that can be swapped into
// the pool without pushing the spot price above the limit. For stable
// pools the price never moves, so the answer is all or nothing.
func maxAmountAdd(sub *Subnet, limitPrice uint64) uint64 {
	if !sub.IsDynamic() {
		if limitPrice >= subtide.OneTao {
			return math.MaxUint64
		}
		return 0
	}
	// price after adding t: (tao+t)/(alpha*tao/(tao+t)) = (tao+t)^2/k
	// limit >= price  =>  t <= sqrt(limit*k) - tao
	k := new(big.Int).Mul(
		new(big.Int).SetUint64(sub.TaoReserve),
		new(big.Int).SetUint64(sub.AlphaIn),
	)
	scaled := new(big.Int).Mul(k, new(big.Int).SetUint64(limitPrice))
	scaled.Quo(scaled, new(big.Int).SetUint64(subtide.OneTao))
	root := new(big.Int).Sqrt(scaled)
	root.Sub(root, new(big.Int).SetUint64(sub.TaoReserve))
	return clampU64(root)
}

// maxAmountRemove returns the largest alpha amount that can be swapped
// out of the pool without pushing the spot price below the limit.
func maxAmountRemove(sub *Subnet, limitPrice uint64) uint64 {
	if !sub.IsDynamic() {
		if limitPrice <= subtide.OneTao {
			return math.MaxUint64
		}
		return 0
	}
	// price after removing a: k/(alpha+a)^2
	// limit <= price  =>  a <= sqrt(k/limit) - alpha
	k := new(big.Int).Mul(
		new(big.Int).SetUint64(sub.TaoReserve),
		new(big.Int).SetUint64(sub.AlphaIn),
	)
	if limitPrice == 0 {
		return math.MaxUint64
	}
	scaled := new(big.Int).Mul(k, new(big.Int).SetUint64(subtide.OneTao))
	scaled.Quo(scaled, new(big.Int).SetUint64(limitPrice))
	root := new(big.Int).Sqrt(scaled)
	root.Sub(root, new(big.Int).SetUint64(sub.AlphaIn))
	return clampU64(root)
}

func clampU64(v *big.Int) uint64 {
	if v.Sign() <= 0 {
		return 0
	}
	if !v.IsUint64() {
		return math.MaxUint64
	}
	return v.Uint64()
}

// MaxAmountAdd is the exported limit-ceiling query for a subnet.
func (e *Engine) MaxAmountAdd(netuid uint16, limitPrice uint64) (uint64, error) {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return 0, err
	}
	return maxAmountAdd(sub, limitPrice), nil
}

// MaxAmountRemove is the exported limit-ceiling query for a subnet.
func (e *Engine) MaxAmountRemove(netuid uint16, limitPrice uint64) (uint64, error) {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return 0, err
	}
	return maxAmountRemove(sub, limitPrice), nil
}
