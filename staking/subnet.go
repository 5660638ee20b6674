// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/subtide/subtide/fixed"
	"github.com/subtide/subtide/subtide"
)

// Mechanism selects how a subnet prices its alpha token.
type Mechanism uint8

const (
	// MechanismStable pegs alpha 1:1 to tao; swaps pass amounts through unchanged.
	MechanismStable Mechanism = iota
	// MechanismDynamic prices alpha with a constant-product pool.
	MechanismDynamic
)

func (m Mechanism) String() string {
	switch m {
	case MechanismStable:
		return "stable"
	case MechanismDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Subnet is the stored record of one subnet's pool and configuration.
type Subnet struct {
	Netuid    uint16
	Mechanism Mechanism

	// pool reserves, all in rao
	TaoReserve uint64
	AlphaIn    uint64 // alpha held by the pool
	AlphaOut   uint64 // alpha in circulation outside the pool

	MovingPrice       *big.Int // ema of the spot price, raw fixed, never negative
	MinLiquidity      uint64   // reserve floor a swap may not drain below
	LiquidityScaleMax uint64   // liquidity (in tao) at which the ema factor saturates
	Volume            *big.Int // cumulative tao volume through the pool

	N uint64 // number of registered uid slots

	SubtokenEnabled bool
	TransferEnabled bool
}

// newSubnet creates a subnet record with zeroed reserves and the
// given pool configuration.
func newSubnet(netuid uint16, mechanism Mechanism, params Params) *Subnet {
	return &Subnet{
		Netuid:            netuid,
		Mechanism:         mechanism,
		MovingPrice:       new(big.Int),
		MinLiquidity:      params.MinPoolLiquidity,
		LiquidityScaleMax: params.LiquidityScaleMax,
		Volume:            new(big.Int),
	}
}

// IsDynamic reports whether the subnet prices alpha through its pool.
// The root subnet is always stable regardless of its stored mechanism.
func (s *Subnet) IsDynamic() bool {
	return s.Mechanism == MechanismDynamic && s.Netuid != subtide.RootNetuid
}

// MovingPriceFixed returns the stored ema price as a fixed-point value.
func (s *Subnet) MovingPriceFixed() *fixed.Fixed {
	return fixed.FromRaw(s.MovingPrice)
}

// SetMovingPrice stores a fixed-point ema price.
func (s *Subnet) SetMovingPrice(p *fixed.Fixed) {
	s.MovingPrice = p.Raw()
}

// AddVolume accumulates swapped tao into the lifetime volume counter.
func (s *Subnet) AddVolume(tao uint64) {
	s.Volume = new(big.Int).Add(s.Volume, new(big.Int).SetUint64(tao))
}

func satAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}

func satSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
