// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/subtide/subtide/subtide"

// Params carries the chain-level staking configuration. Zero values are
// not meaningful; use DefaultParams as the baseline.
type Params struct {
	// MinStake is the smallest stake amount (in rao) an operation may add
	// or remove without leaving dust behind.
	MinStake uint64
	// StakingFee is the flat fee (in rao) charged when no dividend-based
	// fee applies.
	StakingFee uint64
	// MinPoolLiquidity is the reserve floor for newly created pools.
	MinPoolLiquidity uint64
	// LiquidityScaleMax is the liquidity level (in tao) at which the ema
	// smoothing factor of newly created pools saturates.
	LiquidityScaleMax uint64
}

// DefaultParams returns the production staking configuration.
func DefaultParams() Params {
	return Params{
		MinStake:          500_000,
		StakingFee:        50_000,
		MinPoolLiquidity:  subtide.InitialMinPoolLiquidity,
		LiquidityScaleMax: subtide.InitialLiquidityScaleMax,
	}
}
