// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtide/subtide/fixed"
	"github.com/subtide/subtide/subtide"
)

func dynamicSubnet(tao, alphaIn uint64) *Subnet {
	sub := newSubnet(1, MechanismDynamic, DefaultParams())
	sub.TaoReserve = tao
	sub.AlphaIn = alphaIn
	sub.MinLiquidity = 0
	return sub
}

func TestSpotPrice(t *testing.T) {
	sub := dynamicSubnet(2_000_000_000, 1_000_000_000)
	assert.Equal(t, uint64(2), alphaPrice(sub).U64())

	// stable pools and root are always at parity
	stable := newSubnet(2, MechanismStable, DefaultParams())
	assert.Equal(t, 0, alphaPrice(stable).Cmp(fixed.One()))

	root := newSubnet(subtide.RootNetuid, MechanismDynamic, DefaultParams())
	assert.Equal(t, 0, alphaPrice(root).Cmp(fixed.One()))

	// a drained dynamic pool has price zero
	drained := dynamicSubnet(1_000_000_000, 0)
	assert.True(t, alphaPrice(drained).IsZero())
}

func TestSimSwapTaoForAlpha(t *testing.T) {
	sub := dynamicSubnet(1_000_000, 1_000_000)

	alpha, ok := simSwapTaoForAlpha(sub, 1_000)
	require.True(t, ok)
	assert.Equal(t, uint64(999), alpha, "output always rounds against the trader")

	// stable pools pass the amount through
	stable := newSubnet(2, MechanismStable, DefaultParams())
	alpha, ok = simSwapTaoForAlpha(stable, 1_000)
	require.True(t, ok)
	assert.Equal(t, uint64(1_000), alpha)
}

func TestSimSwapRejectsBelowLiquidityFloor(t *testing.T) {
	sub := dynamicSubnet(20_000_000, 20_000_000)
	sub.MinLiquidity = 10_000_000

	// draining most of the alpha side undercuts the floor
	_, ok := simSwapTaoForAlpha(sub, 30_000_000)
	assert.False(t, ok)

	_, ok = simSwapAlphaForTao(sub, 30_000_000)
	assert.False(t, ok)

	// a small trade stays above it
	_, ok = simSwapTaoForAlpha(sub, 1_000)
	assert.True(t, ok)
}

func TestCommitSwapMovesReserves(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.CreateSubnet(1, MechanismDynamic)
	require.NoError(t, err)
	require.NoError(t, env.engine.InjectLiquidity(1, 1_000_000_000, 1_000_000_000))

	sub, err := env.engine.Subnet(1)
	require.NoError(t, err)

	alpha, ok, err := env.engine.swapTaoForAlpha(sub, 1_000_000)
	require.NoError(t, err)
	require.True(t, ok)

	sub, err = env.engine.Subnet(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_001_000_000), sub.TaoReserve)
	assert.Equal(t, uint64(1_000_000_000)-alpha, sub.AlphaIn)
	assert.Equal(t, alpha, sub.AlphaOut)
	assert.Equal(t, int64(1_000_000), sub.Volume.Int64())

	total, err := env.engine.TotalStake()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), total)

	// the product never decreases across a swap
	k := new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1_000_000_000))
	newK := new(big.Int).Mul(
		new(big.Int).SetUint64(sub.TaoReserve),
		new(big.Int).SetUint64(sub.AlphaIn),
	)
	assert.True(t, newK.Cmp(k) >= 0)
}

func TestCommitSwapStablePoolMovesAlphaReserve(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.CreateSubnet(2, MechanismStable)
	require.NoError(t, err)
	require.NoError(t, env.engine.InjectLiquidity(2, 0, 500_000))

	sub, err := env.engine.Subnet(2)
	require.NoError(t, err)
	alpha, ok, err := env.engine.swapTaoForAlpha(sub, 1_000)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1_000), alpha)

	// the reserve shrinks even at parity, keeping issuance stable
	sub, err = env.engine.Subnet(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(499_000), sub.AlphaIn)
	assert.Equal(t, uint64(1_000), sub.AlphaOut)

	issuance, err := env.engine.AlphaIssuance(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), issuance)
}

func TestCommitSwapRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.CreateSubnet(1, MechanismDynamic)
	require.NoError(t, err)
	require.NoError(t, env.engine.InjectLiquidity(1, 1_000_000_000, 1_000_000_000))

	sub, err := env.engine.Subnet(1)
	require.NoError(t, err)
	alpha, ok, err := env.engine.swapTaoForAlpha(sub, 5_000_000)
	require.NoError(t, err)
	require.True(t, ok)

	sub, err = env.engine.Subnet(1)
	require.NoError(t, err)
	tao, ok, err := env.engine.swapAlphaForTao(sub, alpha)
	require.NoError(t, err)
	require.True(t, ok)

	assert.LessOrEqual(t, tao, uint64(5_000_000), "a round trip never profits")

	total, err := env.engine.TotalStake()
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000)-tao, total)
}

func TestAlphaIssuance(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.CreateSubnet(1, MechanismDynamic)
	require.NoError(t, err)
	require.NoError(t, env.engine.InjectLiquidity(1, 1_000_000_000, 800_000_000))

	sub, err := env.engine.Subnet(1)
	require.NoError(t, err)
	sub.AlphaOut = 200_000_000
	require.NoError(t, env.engine.store.setSubnet(sub))

	issuance, err := env.engine.AlphaIssuance(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), issuance)
}

func TestUpdateMovingPriceConvergesUpward(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.CreateSubnet(1, MechanismDynamic)
	require.NoError(t, err)
	// deep pool at price 2
	require.NoError(t, env.engine.InjectLiquidity(1, 2_000_000_000_000, 1_000_000_000_000))

	prev := fixed.Zero()
	for i := 0; i < 50; i++ {
		require.NoError(t, env.engine.UpdateMovingPrice(1))
		moving, err := env.engine.MovingAlphaPrice(1)
		require.NoError(t, err)
		assert.True(t, moving.Cmp(prev) >= 0, "moving price climbs toward spot")
		spot, err := env.engine.AlphaPrice(1)
		require.NoError(t, err)
		assert.True(t, moving.Cmp(spot) <= 0, "moving price never overshoots spot")
		prev = moving
	}
	assert.True(t, prev.Sign() > 0)
}

func TestMovingPriceClampedBySpotDrop(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.CreateSubnet(1, MechanismDynamic)
	require.NoError(t, err)
	require.NoError(t, env.engine.InjectLiquidity(1, 2_000_000_000_000, 1_000_000_000_000))

	for i := 0; i < 20; i++ {
		require.NoError(t, env.engine.UpdateMovingPrice(1))
	}

	// spot collapses below the accumulated moving price
	sub, err := env.engine.Subnet(1)
	require.NoError(t, err)
	sub.TaoReserve = 1_000_000_000
	sub.AlphaIn = 1_000_000_000_000
	require.NoError(t, env.engine.store.setSubnet(sub))

	require.NoError(t, env.engine.UpdateMovingPrice(1))
	moving, err := env.engine.MovingAlphaPrice(1)
	require.NoError(t, err)
	spot, err := env.engine.AlphaPrice(1)
	require.NoError(t, err)
	assert.True(t, moving.Cmp(spot) <= 0)
}
