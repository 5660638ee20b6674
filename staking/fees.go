// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/subtide/subtide/fixed"
	"github.com/subtide/subtide/subtide"
)

// feeEndpoint names one side of a stake movement for fee pricing.
type feeEndpoint struct {
	hotkey subtide.AccountID
	netuid uint16
}

// stakingFee prices a stake movement. Additions, movements within one
// subnet and movements out of stable pools all pay the flat fee.
// Removals from a dynamic pool pay proportionally to the dividends the
// origin hotkey earned last epoch, floored by a small fraction of the
// unstaked tao and by the flat fee.
func (e *Engine) stakingFee(origin, dest *feeEndpoint, alpha uint64) (uint64, error) {
	flat := e.params.StakingFee

	if origin == nil {
		return flat, nil
	}
	if dest != nil && dest.netuid == origin.netuid {
		return flat, nil
	}
	sub, err := e.store.getSubnet(origin.netuid)
	if err != nil {
		return 0, err
	}
	if sub == nil || !sub.IsDynamic() {
		return flat, nil
	}

	lastEpochAlpha, err := e.store.getLastEpochAlpha(origin.hotkey, origin.netuid)
	if err != nil {
		return 0, err
	}
	if lastEpochAlpha == 0 {
		return flat, nil
	}
	dividends, err := e.store.getAlphaDividends(origin.hotkey, origin.netuid)
	if err != nil {
		return 0, err
	}

	taoEstimate, ok := simSwapAlphaForTao(sub, alpha)
	if !ok {
		taoEstimate = 0
	}
	estimate := fixed.FromU64(taoEstimate)

	fee := estimate.Mul(fixed.FromU64(dividends).SafeDiv(fixed.FromU64(lastEpochAlpha))).U64()

	// floor at roughly one day of apr on the moved amount
	if floor := estimate.Mul(fixed.FromRatio(1, 20_000)).U64(); fee < floor {
		fee = floor
	}
	if fee < flat {
		fee = flat
	}
	return fee, nil
}
