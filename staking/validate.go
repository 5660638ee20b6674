// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/subtide/subtide/staking/reverts"
	"github.com/subtide/subtide/subtide"
)

// ValidateAddStake runs every read-only guard for staking tao into a
// subnet. maxAmount is the caller's slippage ceiling; with allowPartial
// set, exceeding it clamps instead of failing. No state is changed.
func (e *Engine) ValidateAddStake(coldkey, hotkey subtide.AccountID, netuid uint16, tao, maxAmount uint64, allowPartial bool) error {
	sub, err := e.store.getSubnet(netuid)
	if err != nil {
		return err
	}
	if sub == nil {
		return reverts.ErrSubnetNotExists
	}
	if !sub.SubtokenEnabled && netuid != subtide.RootNetuid {
		return reverts.ErrSubtokenDisabled
	}
	if tao <= e.params.MinStake+e.params.StakingFee {
		return reverts.ErrAmountTooLow
	}
	if !allowPartial && tao > maxAmount {
		return reverts.ErrSlippageTooHigh
	}
	balance, err := e.balances.Balance(coldkey)
	if err != nil {
		return err
	}
	if balance < tao {
		return reverts.ErrNotEnoughBalanceToStake
	}
	exists, err := e.hotkeys.HotkeyExists(hotkey)
	if err != nil {
		return err
	}
	if !exists {
		return reverts.ErrHotKeyAccountNotExists
	}
	alpha, ok := simSwapTaoForAlpha(sub, satSub(tao, e.params.StakingFee))
	if !ok {
		return reverts.ErrInsufficientLiquidity
	}
	precise, err := e.tryIncreaseStake(hotkey, netuid, alpha)
	if err != nil {
		return err
	}
	if !precise {
		return reverts.ErrInsufficientLiquidity
	}
	return nil
}

// ValidateRemoveStake runs every read-only guard for unstaking alpha
// from a subnet. maxAmount is the slippage ceiling in alpha. No state
// is changed.
func (e *Engine) ValidateRemoveStake(coldkey, hotkey subtide.AccountID, netuid uint16, alpha, maxAmount uint64, allowPartial bool) error {
	sub, err := e.store.getSubnet(netuid)
	if err != nil {
		return err
	}
	if sub == nil {
		return reverts.ErrSubnetNotExists
	}
	if !sub.SubtokenEnabled && netuid != subtide.RootNetuid {
		return reverts.ErrSubtokenDisabled
	}
	tao, ok := simSwapAlphaForTao(sub, alpha)
	if !ok {
		return reverts.ErrInsufficientLiquidity
	}
	if tao <= e.params.MinStake {
		return reverts.ErrAmountTooLow
	}
	if !allowPartial && alpha > maxAmount {
		return reverts.ErrSlippageTooHigh
	}
	exists, err := e.hotkeys.HotkeyExists(hotkey)
	if err != nil {
		return err
	}
	if !exists {
		return reverts.ErrHotKeyAccountNotExists
	}
	enough, err := e.HasEnoughStake(hotkey, coldkey, netuid, alpha)
	if err != nil {
		return err
	}
	if !enough {
		return reverts.ErrNotEnoughStakeToWithdraw
	}
	return nil
}

// ValidateStakeTransition runs every read-only guard for moving stake
// between hotkeys and/or subnets. checkTransfer additionally requires
// the transfer toggle on both subnets, which cross-coldkey transfers
// use. No state is changed.
func (e *Engine) ValidateStakeTransition(
	originColdkey, destColdkey, originHotkey, destHotkey subtide.AccountID,
	originNetuid, destNetuid uint16,
	alpha, maxAmount uint64,
	allowPartial bool,
	checkTransfer bool,
) error {
	origin, err := e.store.getSubnet(originNetuid)
	if err != nil {
		return err
	}
	if origin == nil {
		return reverts.ErrSubnetNotExists
	}
	dest, err := e.store.getSubnet(destNetuid)
	if err != nil {
		return err
	}
	if dest == nil {
		return reverts.ErrSubnetNotExists
	}
	if !origin.SubtokenEnabled && originNetuid != subtide.RootNetuid {
		return reverts.ErrSubtokenDisabled
	}
	if !dest.SubtokenEnabled && destNetuid != subtide.RootNetuid {
		return reverts.ErrSubtokenDisabled
	}
	if checkTransfer && (!origin.TransferEnabled || !dest.TransferEnabled) {
		return reverts.ErrTransferDisallowed
	}
	for _, hotkey := range []subtide.AccountID{originHotkey, destHotkey} {
		exists, err := e.hotkeys.HotkeyExists(hotkey)
		if err != nil {
			return err
		}
		if !exists {
			return reverts.ErrHotKeyAccountNotExists
		}
	}
	enough, err := e.HasEnoughStake(originHotkey, originColdkey, originNetuid, alpha)
	if err != nil {
		return err
	}
	if !enough {
		return reverts.ErrNotEnoughStakeToWithdraw
	}
	tao, ok := simSwapAlphaForTao(origin, alpha)
	if !ok {
		return reverts.ErrInsufficientLiquidity
	}
	if tao <= e.params.MinStake {
		return reverts.ErrAmountTooLow
	}
	if !allowPartial && alpha > maxAmount {
		return reverts.ErrSlippageTooHigh
	}
	destAlpha, ok := simSwapTaoForAlpha(dest, tao)
	if !ok {
		return reverts.ErrInsufficientLiquidity
	}
	precise, err := e.tryIncreaseStake(destHotkey, destNetuid, destAlpha)
	if err != nil {
		return err
	}
	if !precise {
		return reverts.ErrInsufficientLiquidity
	}
	return nil
}
