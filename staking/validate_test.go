// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtide/subtide/staking/reverts"
)

func TestValidateAddStake(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)
	e := env.engine

	ok := func(err error) { assert.NoError(t, err) }
	ok(e.ValidateAddStake(coldkey, hotkey, 1, 100_000_000, math.MaxUint64, false))

	err := e.ValidateAddStake(coldkey, hotkey, 9, 100_000_000, math.MaxUint64, false)
	assert.ErrorIs(t, err, reverts.ErrSubnetNotExists)

	err = e.ValidateAddStake(coldkey, hotkey, 1, 100_000, math.MaxUint64, false)
	assert.ErrorIs(t, err, reverts.ErrAmountTooLow)

	err = e.ValidateAddStake(coldkey, hotkey, 1, 100_000_000, 50_000_000, false)
	assert.ErrorIs(t, err, reverts.ErrSlippageTooHigh)

	// exceeding the ceiling is fine when partial fills are allowed
	ok(e.ValidateAddStake(coldkey, hotkey, 1, 100_000_000, 50_000_000, true))

	err = e.ValidateAddStake(coldkey, hotkey, 1, 20_000_000_000, math.MaxUint64, false)
	assert.ErrorIs(t, err, reverts.ErrNotEnoughBalanceToStake)

	err = e.ValidateAddStake(coldkey, account(99), 1, 100_000_000, math.MaxUint64, false)
	assert.ErrorIs(t, err, reverts.ErrHotKeyAccountNotExists)
}

func TestValidateAddStakeSubtokenDisabled(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)
	require.NoError(t, env.engine.SetSubtokenEnabled(1, false))

	err := env.engine.ValidateAddStake(coldkey, hotkey, 1, 100_000_000, math.MaxUint64, false)
	assert.ErrorIs(t, err, reverts.ErrSubtokenDisabled)
}

func TestValidateAddStakeLiquidityFloor(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	// a trade this size would drain the alpha side below the floor
	env.balances.balances[coldkey] = math.MaxUint64
	err := env.engine.ValidateAddStake(coldkey, hotkey, 1, 200_000_000_000, math.MaxUint64, false)
	assert.ErrorIs(t, err, reverts.ErrInsufficientLiquidity)
}

func TestValidateAddStakePrecisionExhausted(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	// a pool whose value dwarfs its share denominator mints zero
	// shares for any realistic deposit
	require.NoError(t, env.engine.store.setHotkeyAlpha(hotkey, 1, math.MaxUint64))
	require.NoError(t, env.engine.store.setHotkeyShares(hotkey, 1, big.NewInt(1)))
	require.NoError(t, env.engine.store.setAlphaShare(hotkey, coldkey, 1, big.NewInt(1)))

	err := env.engine.ValidateAddStake(coldkey, hotkey, 1, 1_000_000_000, math.MaxUint64, false)
	assert.ErrorIs(t, err, reverts.ErrInsufficientLiquidity)
}

func TestValidateRemoveStake(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)
	e := env.engine

	alpha, err := e.AddStake(coldkey, hotkey, 1, 1_000_000_000)
	require.NoError(t, err)

	assert.NoError(t, e.ValidateRemoveStake(coldkey, hotkey, 1, alpha, math.MaxUint64, false))

	err = e.ValidateRemoveStake(coldkey, hotkey, 9, alpha, math.MaxUint64, false)
	assert.ErrorIs(t, err, reverts.ErrSubnetNotExists)

	err = e.ValidateRemoveStake(coldkey, hotkey, 1, 100, math.MaxUint64, false)
	assert.ErrorIs(t, err, reverts.ErrAmountTooLow)

	err = e.ValidateRemoveStake(coldkey, hotkey, 1, alpha, alpha/2, false)
	assert.ErrorIs(t, err, reverts.ErrSlippageTooHigh)

	err = e.ValidateRemoveStake(coldkey, account(99), 1, alpha, math.MaxUint64, false)
	assert.ErrorIs(t, err, reverts.ErrHotKeyAccountNotExists)

	err = e.ValidateRemoveStake(coldkey, hotkey, 1, alpha+1, math.MaxUint64, false)
	assert.ErrorIs(t, err, reverts.ErrNotEnoughStakeToWithdraw)
}

func TestValidateStakeTransition(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)
	e := env.engine
	other := account(3)
	env.hotkeys[other] = true

	alpha, err := e.AddStake(coldkey, hotkey, 1, 1_000_000_000)
	require.NoError(t, err)

	assert.NoError(t, e.ValidateStakeTransition(
		coldkey, coldkey, hotkey, other, 1, 1, alpha, math.MaxUint64, false, false))

	err = e.ValidateStakeTransition(
		coldkey, coldkey, hotkey, other, 1, 9, alpha, math.MaxUint64, false, false)
	assert.ErrorIs(t, err, reverts.ErrSubnetNotExists)

	err = e.ValidateStakeTransition(
		coldkey, coldkey, hotkey, account(99), 1, 1, alpha, math.MaxUint64, false, false)
	assert.ErrorIs(t, err, reverts.ErrHotKeyAccountNotExists)

	err = e.ValidateStakeTransition(
		coldkey, coldkey, hotkey, other, 1, 1, alpha+1, math.MaxUint64, false, false)
	assert.ErrorIs(t, err, reverts.ErrNotEnoughStakeToWithdraw)

	err = e.ValidateStakeTransition(
		coldkey, coldkey, hotkey, other, 1, 1, alpha, alpha/2, false, false)
	assert.ErrorIs(t, err, reverts.ErrSlippageTooHigh)

	// transfers additionally need the per-subnet toggle
	err = e.ValidateStakeTransition(
		coldkey, account(7), hotkey, hotkey, 1, 1, alpha, math.MaxUint64, false, true)
	assert.ErrorIs(t, err, reverts.ErrTransferDisallowed)
}

func TestIsRevertErr(t *testing.T) {
	assert.True(t, reverts.IsRevertErr(reverts.ErrAmountTooLow))
	assert.False(t, reverts.IsRevertErr(assert.AnError))
	assert.False(t, reverts.IsRevertErr(nil))
}
