// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtide/subtide/fixed"
	"github.com/subtide/subtide/staking/events"
	"github.com/subtide/subtide/staking/reverts"
	"github.com/subtide/subtide/subtide"
)

// spotScale converts a fixed-point price into the rao-scaled limit
// price representation.
var spotScale = fixed.FromU64(subtide.OneTao)

func TestAddStake(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	alpha, err := env.engine.AddStake(coldkey, hotkey, 1, 100_000_000)
	require.NoError(t, err)
	assert.Greater(t, alpha, uint64(0))

	balance, err := env.balances.Balance(coldkey)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000_000-100_000_000), balance)

	stake, err := env.engine.StakeForHotkeyAndColdkey(hotkey, coldkey, 1)
	require.NoError(t, err)
	assert.Equal(t, alpha, stake)

	hotkeys, err := env.engine.StakingHotkeys(coldkey)
	require.NoError(t, err)
	assert.Equal(t, []subtide.AccountID{hotkey}, hotkeys)

	block, err := env.engine.LastStakeBlock(coldkey, hotkey)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), block)

	added := env.sink.byName("StakeAdded")
	require.Len(t, added, 1)
	ev := added[0].(events.StakeAdded)
	assert.Equal(t, uint64(100_000_000-50_000), ev.Tao)
	assert.Equal(t, uint64(50_000), ev.Fee)
	assert.Equal(t, alpha, ev.Alpha)
}

func TestAddStakeFeeStaysInPool(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	_, err := env.engine.AddStake(coldkey, hotkey, 1, 100_000_000)
	require.NoError(t, err)

	sub, err := env.engine.Subnet(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000+100_000_000), sub.TaoReserve)

	total, err := env.engine.TotalStake()
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), total)
}

func TestRemoveStake(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	alpha, err := env.engine.AddStake(coldkey, hotkey, 1, 1_000_000_000)
	require.NoError(t, err)

	tao, err := env.engine.RemoveStake(coldkey, hotkey, 1, alpha/2)
	require.NoError(t, err)
	assert.Greater(t, tao, uint64(0))

	balance, err := env.balances.Balance(coldkey)
	require.NoError(t, err)
	assert.Equal(t, uint64(9_000_000_000)+tao, balance)

	remaining, err := env.engine.StakeForHotkeyAndColdkey(hotkey, coldkey, 1)
	require.NoError(t, err)
	assert.Equal(t, alpha-alpha/2, remaining)

	removed := env.sink.byName("StakeRemoved")
	require.Len(t, removed, 1)
	assert.Equal(t, tao, removed[0].(events.StakeRemoved).Tao)
}

func TestRemoveEntireStakePrunesIndexes(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	alpha, err := env.engine.AddStake(coldkey, hotkey, 1, 1_000_000_000)
	require.NoError(t, err)

	_, err = env.engine.RemoveStake(coldkey, hotkey, 1, alpha)
	require.NoError(t, err)

	stake, err := env.engine.StakeForHotkeyAndColdkey(hotkey, coldkey, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stake)

	hotkeys, err := env.engine.StakingHotkeys(coldkey)
	require.NoError(t, err)
	assert.Empty(t, hotkeys)
}

func TestAddStakeLimitClampsToCeiling(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	// parity pool; cap the price at 1.21 so only ~10% can flow in
	limitPrice := uint64(1_210_000_000)
	maxAmount, err := env.engine.MaxAmountAdd(1, limitPrice)
	require.NoError(t, err)
	assert.Greater(t, maxAmount, uint64(0))
	assert.Less(t, maxAmount, uint64(200_000_000))

	alpha, err := env.engine.AddStakeLimit(coldkey, hotkey, 1, 1_000_000_000, limitPrice, true)
	require.NoError(t, err)
	assert.Greater(t, alpha, uint64(0))

	// only the clamped amount left the balance
	balance, err := env.balances.Balance(coldkey)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000_000)-maxAmount, balance)

	spot, err := env.engine.AlphaPrice(1)
	require.NoError(t, err)
	assert.True(t, spot.Mul(spotScale).U64() <= limitPrice)
}

func TestAddStakeLimitRejectsWithoutPartial(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	_, err := env.engine.AddStakeLimit(coldkey, hotkey, 1, 1_000_000_000, 1_210_000_000, false)
	assert.ErrorIs(t, err, reverts.ErrSlippageTooHigh)
}

func TestRemoveStakeLimit(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	alpha, err := env.engine.AddStake(coldkey, hotkey, 1, 2_000_000_000)
	require.NoError(t, err)

	// floor the price just below spot so only part of the position exits
	spot, err := env.engine.AlphaPrice(1)
	require.NoError(t, err)
	limitPrice := spot.Mul(spotScale).U64() * 90 / 100

	tao, err := env.engine.RemoveStakeLimit(coldkey, hotkey, 1, alpha, limitPrice, true)
	require.NoError(t, err)
	assert.Greater(t, tao, uint64(0))

	remaining, err := env.engine.StakeForHotkeyAndColdkey(hotkey, coldkey, 1)
	require.NoError(t, err)
	assert.Greater(t, remaining, uint64(0), "partial fill leaves the rest staked")
}

func TestUnstakeAll(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	_, err := env.engine.AddStake(coldkey, hotkey, 1, 1_000_000_000)
	require.NoError(t, err)
	before, err := env.balances.Balance(coldkey)
	require.NoError(t, err)

	total, err := env.engine.UnstakeAll(coldkey, hotkey)
	require.NoError(t, err)
	assert.Greater(t, total, uint64(0))

	after, err := env.balances.Balance(coldkey)
	require.NoError(t, err)
	assert.Equal(t, before+total, after)

	stake, err := env.engine.StakeForHotkeyAndColdkey(hotkey, coldkey, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stake)
}

func TestUnstakeAllAlphaRestakesIntoRoot(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	_, err := env.engine.AddStake(coldkey, hotkey, 1, 1_000_000_000)
	require.NoError(t, err)
	before, err := env.balances.Balance(coldkey)
	require.NoError(t, err)

	total, err := env.engine.UnstakeAllAlpha(coldkey, hotkey)
	require.NoError(t, err)
	assert.Greater(t, total, uint64(0))

	// nothing returned to the free balance
	after, err := env.balances.Balance(coldkey)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	rootStake, err := env.engine.StakeForHotkeyAndColdkey(hotkey, coldkey, subtide.RootNetuid)
	require.NoError(t, err)
	assert.Equal(t, total, rootStake, "root is stable, tao restakes 1:1")

	stake, err := env.engine.StakeForHotkeyAndColdkey(hotkey, coldkey, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stake)
}

func TestMoveStake(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)
	other := account(3)
	env.hotkeys[other] = true

	alpha, err := env.engine.AddStake(coldkey, hotkey, 1, 1_000_000_000)
	require.NoError(t, err)

	credited, err := env.engine.MoveStake(coldkey, hotkey, other, 1, 1, alpha)
	require.NoError(t, err)
	assert.Greater(t, credited, uint64(0))

	origin, err := env.engine.StakeForHotkeyAndColdkey(hotkey, coldkey, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), origin)

	dest, err := env.engine.StakeForHotkeyAndColdkey(other, coldkey, 1)
	require.NoError(t, err)
	assert.Equal(t, credited, dest)
}

func TestTransferStakeRequiresToggle(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)
	dest := account(4)

	alpha, err := env.engine.AddStake(coldkey, hotkey, 1, 1_000_000_000)
	require.NoError(t, err)

	_, err = env.engine.TransferStake(coldkey, dest, hotkey, 1, 1, alpha)
	assert.ErrorIs(t, err, reverts.ErrTransferDisallowed)

	require.NoError(t, env.engine.SetTransferEnabled(1, true))
	credited, err := env.engine.TransferStake(coldkey, dest, hotkey, 1, 1, alpha)
	require.NoError(t, err)
	assert.Greater(t, credited, uint64(0))

	stake, err := env.engine.StakeForHotkeyAndColdkey(hotkey, dest, 1)
	require.NoError(t, err)
	assert.Equal(t, credited, stake)
}

func TestSwapStakeAcrossSubnets(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	_, err := env.engine.CreateSubnet(2, MechanismDynamic)
	require.NoError(t, err)
	require.NoError(t, env.engine.InjectLiquidity(2, 1_000_000_000, 1_000_000_000))
	require.NoError(t, env.engine.SetSubtokenEnabled(2, true))

	alpha, err := env.engine.AddStake(coldkey, hotkey, 1, 1_000_000_000)
	require.NoError(t, err)

	credited, err := env.engine.SwapStake(coldkey, hotkey, 1, 2, alpha)
	require.NoError(t, err)
	assert.Greater(t, credited, uint64(0))

	dest, err := env.engine.StakeForHotkeyAndColdkey(hotkey, coldkey, 2)
	require.NoError(t, err)
	assert.Equal(t, credited, dest)
}
