// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math"

	"github.com/subtide/subtide/staking/scheduler"
	"github.com/subtide/subtide/subtide"
)

// AddStake swaps tao from the coldkey's balance into subnet alpha
// credited to the (hotkey, coldkey) pair. Returns the alpha credited.
func (e *Engine) AddStake(coldkey, hotkey subtide.AccountID, netuid uint16, tao uint64) (uint64, error) {
	if err := e.ValidateAddStake(coldkey, hotkey, netuid, tao, math.MaxUint64, false); err != nil {
		return 0, err
	}
	if err := e.balances.Withdraw(coldkey, tao); err != nil {
		return 0, err
	}
	return e.stakeIntoSubnet(hotkey, coldkey, netuid, tao, e.params.StakingFee)
}

// AddStakeLimit is AddStake bounded by a price ceiling: no more tao is
// swapped in than would push the spot price above limitPrice. With
// allowPartial the amount is clamped to that ceiling, otherwise
// exceeding it is a slippage failure. Returns the alpha credited.
func (e *Engine) AddStakeLimit(coldkey, hotkey subtide.AccountID, netuid uint16, tao, limitPrice uint64, allowPartial bool) (uint64, error) {
	maxAmount, err := e.MaxAmountAdd(netuid, limitPrice)
	if err != nil {
		return 0, err
	}
	if err := e.ValidateAddStake(coldkey, hotkey, netuid, tao, maxAmount, allowPartial); err != nil {
		return 0, err
	}
	if tao > maxAmount {
		tao = maxAmount
	}
	if err := e.balances.Withdraw(coldkey, tao); err != nil {
		return 0, err
	}
	return e.stakeIntoSubnet(hotkey, coldkey, netuid, tao, e.params.StakingFee)
}

// RemoveStake swaps the pair's alpha back into tao deposited to the
// coldkey's balance. Returns the tao deposited after the fee.
func (e *Engine) RemoveStake(coldkey, hotkey subtide.AccountID, netuid uint16, alpha uint64) (uint64, error) {
	if err := e.ValidateRemoveStake(coldkey, hotkey, netuid, alpha, math.MaxUint64, false); err != nil {
		return 0, err
	}
	fee, err := e.stakingFee(&feeEndpoint{hotkey, netuid}, nil, alpha)
	if err != nil {
		return 0, err
	}
	tao, err := e.unstakeFromSubnet(hotkey, coldkey, netuid, alpha, fee)
	if err != nil {
		return 0, err
	}
	if err := e.balances.Deposit(coldkey, tao); err != nil {
		return 0, err
	}
	if err := e.pruneStakingHotkey(coldkey, hotkey); err != nil {
		return 0, err
	}
	return tao, nil
}

// RemoveStakeLimit is RemoveStake bounded by a price floor: no more
// alpha is swapped out than would push the spot price below limitPrice.
// Returns the tao deposited after the fee.
func (e *Engine) RemoveStakeLimit(coldkey, hotkey subtide.AccountID, netuid uint16, alpha, limitPrice uint64, allowPartial bool) (uint64, error) {
	maxAmount, err := e.MaxAmountRemove(netuid, limitPrice)
	if err != nil {
		return 0, err
	}
	if err := e.ValidateRemoveStake(coldkey, hotkey, netuid, alpha, maxAmount, allowPartial); err != nil {
		return 0, err
	}
	if alpha > maxAmount {
		alpha = maxAmount
	}
	fee, err := e.stakingFee(&feeEndpoint{hotkey, netuid}, nil, alpha)
	if err != nil {
		return 0, err
	}
	tao, err := e.unstakeFromSubnet(hotkey, coldkey, netuid, alpha, fee)
	if err != nil {
		return 0, err
	}
	if err := e.balances.Deposit(coldkey, tao); err != nil {
		return 0, err
	}
	if err := e.pruneStakingHotkey(coldkey, hotkey); err != nil {
		return 0, err
	}
	return tao, nil
}

// UnstakeAll drains the pair's stake on every subnet back to the
// coldkey's balance. Positions the pool cannot absorb are left in
// place. Returns the total tao deposited.
func (e *Engine) UnstakeAll(coldkey, hotkey subtide.AccountID) (uint64, error) {
	return e.unstakeAll(coldkey, hotkey, false)
}

// UnstakeAllAlpha drains the pair's stake on every dynamic subnet and
// restakes the proceeds into the root subnet instead of returning them
// to the balance. Returns the total tao moved to root.
func (e *Engine) UnstakeAllAlpha(coldkey, hotkey subtide.AccountID) (uint64, error) {
	return e.unstakeAll(coldkey, hotkey, true)
}

func (e *Engine) unstakeAll(coldkey, hotkey subtide.AccountID, toRoot bool) (uint64, error) {
	netuids, err := e.store.allNetuids()
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, netuid := range netuids {
		if toRoot && netuid == subtide.RootNetuid {
			continue
		}
		alpha, err := e.StakeForHotkeyAndColdkey(hotkey, coldkey, netuid)
		if err != nil {
			return 0, err
		}
		if alpha == 0 {
			continue
		}
		fee, err := e.stakingFee(&feeEndpoint{hotkey, netuid}, nil, alpha)
		if err != nil {
			return 0, err
		}
		tao, err := e.unstakeFromSubnet(hotkey, coldkey, netuid, alpha, fee)
		if err != nil {
			return 0, err
		}
		total = satAdd(total, tao)
	}
	if total > 0 {
		if toRoot {
			if _, err := e.stakeIntoSubnet(hotkey, coldkey, subtide.RootNetuid, total, 0); err != nil {
				return 0, err
			}
		} else {
			if err := e.balances.Deposit(coldkey, total); err != nil {
				return 0, err
			}
		}
	}
	if err := e.pruneStakingHotkey(coldkey, hotkey); err != nil {
		return 0, err
	}
	return total, nil
}

// MoveStake moves the coldkey's stake from one hotkey/subnet position
// to another, unstaking through the origin pool and restaking through
// the destination pool. Returns the alpha credited at the destination.
func (e *Engine) MoveStake(coldkey, originHotkey, destHotkey subtide.AccountID, originNetuid, destNetuid uint16, alpha uint64) (uint64, error) {
	return e.transition(coldkey, coldkey, originHotkey, destHotkey, originNetuid, destNetuid, alpha, false)
}

// TransferStake moves stake held through one hotkey between two
// coldkeys, optionally across subnets. Both subnets must have transfers
// enabled. Returns the alpha credited at the destination.
func (e *Engine) TransferStake(originColdkey, destColdkey, hotkey subtide.AccountID, originNetuid, destNetuid uint16, alpha uint64) (uint64, error) {
	return e.transition(originColdkey, destColdkey, hotkey, hotkey, originNetuid, destNetuid, alpha, true)
}

// SwapStake moves the pair's stake between two subnets under the same
// hotkey. Returns the alpha credited at the destination.
func (e *Engine) SwapStake(coldkey, hotkey subtide.AccountID, originNetuid, destNetuid uint16, alpha uint64) (uint64, error) {
	return e.transition(coldkey, coldkey, hotkey, hotkey, originNetuid, destNetuid, alpha, false)
}

func (e *Engine) transition(originColdkey, destColdkey, originHotkey, destHotkey subtide.AccountID, originNetuid, destNetuid uint16, alpha uint64, checkTransfer bool) (uint64, error) {
	err := e.ValidateStakeTransition(
		originColdkey, destColdkey, originHotkey, destHotkey,
		originNetuid, destNetuid,
		alpha, math.MaxUint64, false, checkTransfer,
	)
	if err != nil {
		return 0, err
	}
	fee, err := e.stakingFee(&feeEndpoint{originHotkey, originNetuid}, &feeEndpoint{destHotkey, destNetuid}, alpha)
	if err != nil {
		return 0, err
	}
	tao, err := e.unstakeFromSubnet(originHotkey, originColdkey, originNetuid, alpha, fee)
	if err != nil {
		return 0, err
	}
	credited, err := e.stakeIntoSubnet(destHotkey, destColdkey, destNetuid, tao, 0)
	if err != nil {
		return 0, err
	}
	if err := e.pruneStakingHotkey(originColdkey, originHotkey); err != nil {
		return 0, err
	}
	return credited, nil
}

// EnqueueAddStake defers an AddStake to the next block's finalization.
func (e *Engine) EnqueueAddStake(coldkey, hotkey subtide.AccountID, netuid uint16, tao uint64) error {
	return e.sched.Schedule(e.blockNum, &scheduler.Job{
		Kind: scheduler.KindAddStake, Coldkey: coldkey, Hotkey: hotkey, Netuid: netuid, Amount: tao,
	})
}

// EnqueueAddStakeLimit defers an AddStakeLimit to the next block's
// finalization.
func (e *Engine) EnqueueAddStakeLimit(coldkey, hotkey subtide.AccountID, netuid uint16, tao, limitPrice uint64, allowPartial bool) error {
	return e.sched.Schedule(e.blockNum, &scheduler.Job{
		Kind: scheduler.KindAddStakeLimit, Coldkey: coldkey, Hotkey: hotkey, Netuid: netuid,
		Amount: tao, LimitPrice: limitPrice, AllowPartial: allowPartial,
	})
}

// EnqueueRemoveStake defers a RemoveStake to the next block's
// finalization.
func (e *Engine) EnqueueRemoveStake(coldkey, hotkey subtide.AccountID, netuid uint16, alpha uint64) error {
	return e.sched.Schedule(e.blockNum, &scheduler.Job{
		Kind: scheduler.KindRemoveStake, Coldkey: coldkey, Hotkey: hotkey, Netuid: netuid, Amount: alpha,
	})
}

// EnqueueRemoveStakeLimit defers a RemoveStakeLimit to the next block's
// finalization.
func (e *Engine) EnqueueRemoveStakeLimit(coldkey, hotkey subtide.AccountID, netuid uint16, alpha, limitPrice uint64, allowPartial bool) error {
	return e.sched.Schedule(e.blockNum, &scheduler.Job{
		Kind: scheduler.KindRemoveStakeLimit, Coldkey: coldkey, Hotkey: hotkey, Netuid: netuid,
		Amount: alpha, LimitPrice: limitPrice, AllowPartial: allowPartial,
	})
}

// EnqueueUnstakeAll defers an UnstakeAll to the next block's
// finalization.
func (e *Engine) EnqueueUnstakeAll(coldkey, hotkey subtide.AccountID) error {
	return e.sched.Schedule(e.blockNum, &scheduler.Job{
		Kind: scheduler.KindUnstakeAll, Coldkey: coldkey, Hotkey: hotkey,
	})
}

// EnqueueUnstakeAllAlpha defers an UnstakeAllAlpha to the next block's
// finalization.
func (e *Engine) EnqueueUnstakeAllAlpha(coldkey, hotkey subtide.AccountID) error {
	return e.sched.Schedule(e.blockNum, &scheduler.Job{
		Kind: scheduler.KindUnstakeAllAlpha, Coldkey: coldkey, Hotkey: hotkey,
	})
}

// OnFinalize drains the deferred jobs that became due at this block and
// replays them through the engine.
func (e *Engine) OnFinalize() error {
	return e.sched.RunDue(e.blockNum, e.parentHash, e)
}
