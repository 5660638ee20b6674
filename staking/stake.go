// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math"

	"github.com/subtide/subtide/fixed"
	"github.com/subtide/subtide/staking/events"
	"github.com/subtide/subtide/staking/sharepool"
	"github.com/subtide/subtide/subtide"
)

// alphaPoolOps binds the share pool algorithm to one hotkey's alpha
// ledger within a subnet. Coldkeys are the share owners.
type alphaPoolOps struct {
	store  *storage
	hotkey subtide.AccountID
	netuid uint16
}

func (o *alphaPoolOps) SharedValue() (*fixed.Fixed, error) {
	alpha, err := o.store.getHotkeyAlpha(o.hotkey, o.netuid)
	if err != nil {
		return nil, err
	}
	return fixed.FromU64(alpha), nil
}

func (o *alphaPoolOps) Share(coldkey subtide.AccountID) (*fixed.Fixed, error) {
	raw, err := o.store.getAlphaShare(o.hotkey, coldkey, o.netuid)
	if err != nil {
		return nil, err
	}
	return fixed.FromRaw(raw), nil
}

func (o *alphaPoolOps) HasShare(coldkey subtide.AccountID) (bool, error) {
	return o.store.hasAlphaShare(o.hotkey, coldkey, o.netuid)
}

func (o *alphaPoolOps) Denominator() (*fixed.Fixed, error) {
	raw, err := o.store.getHotkeyShares(o.hotkey, o.netuid)
	if err != nil {
		return nil, err
	}
	return fixed.FromRaw(raw), nil
}

func (o *alphaPoolOps) SetSharedValue(v *fixed.Fixed) error {
	return o.store.setHotkeyAlpha(o.hotkey, o.netuid, v.U64())
}

func (o *alphaPoolOps) SetShare(coldkey subtide.AccountID, v *fixed.Fixed) error {
	return o.store.setAlphaShare(o.hotkey, coldkey, o.netuid, v.Raw())
}

func (o *alphaPoolOps) SetDenominator(v *fixed.Fixed) error {
	return o.store.setHotkeyShares(o.hotkey, o.netuid, v.Raw())
}

func (e *Engine) alphaPool(hotkey subtide.AccountID, netuid uint16) *sharepool.Pool[subtide.AccountID] {
	return sharepool.New[subtide.AccountID](&alphaPoolOps{e.store, hotkey, netuid})
}

// StakeForHotkey returns the total alpha owned through a hotkey on a
// subnet, across all coldkeys.
func (e *Engine) StakeForHotkey(hotkey subtide.AccountID, netuid uint16) (uint64, error) {
	return e.store.getHotkeyAlpha(hotkey, netuid)
}

// StakeForHotkeyAndColdkey returns the alpha a coldkey owns through a
// hotkey on a subnet, zero when the pair holds no shares.
func (e *Engine) StakeForHotkeyAndColdkey(hotkey, coldkey subtide.AccountID, netuid uint16) (uint64, error) {
	value, has, err := e.alphaPool(hotkey, netuid).TryGetValue(coldkey)
	if err != nil || !has {
		return 0, err
	}
	return value, nil
}

// HasEnoughStake reports whether the pair's imputed alpha covers the
// given decrement.
func (e *Engine) HasEnoughStake(hotkey, coldkey subtide.AccountID, netuid uint16, decrement uint64) (bool, error) {
	value, err := e.StakeForHotkeyAndColdkey(hotkey, coldkey, netuid)
	if err != nil {
		return false, err
	}
	return value >= decrement, nil
}

// increaseStake mints alpha into a single pair's position and returns
// the imputed value actually credited.
func (e *Engine) increaseStake(hotkey, coldkey subtide.AccountID, netuid uint16, alpha uint64) (uint64, error) {
	if alpha > math.MaxInt64 {
		alpha = math.MaxInt64
	}
	credited, err := e.alphaPool(hotkey, netuid).UpdateValueForOne(coldkey, int64(alpha))
	if err != nil {
		return 0, err
	}
	return uint64(credited), nil
}

// decreaseStake burns alpha from a single pair's position and returns
// the imputed value actually debited. Burning more than the pair owns
// is a no-op returning zero.
func (e *Engine) decreaseStake(hotkey, coldkey subtide.AccountID, netuid uint16, alpha uint64) (uint64, error) {
	if alpha > math.MaxInt64 {
		alpha = math.MaxInt64
	}
	debited, err := e.alphaPool(hotkey, netuid).UpdateValueForOne(coldkey, -int64(alpha))
	if err != nil {
		return 0, err
	}
	return uint64(-debited), nil
}

// tryIncreaseStake reports whether the pool has enough precision to
// credit the amount to a single pair, without mutating anything.
func (e *Engine) tryIncreaseStake(hotkey subtide.AccountID, netuid uint16, alpha uint64) (bool, error) {
	if alpha > math.MaxInt64 {
		alpha = math.MaxInt64
	}
	return e.alphaPool(hotkey, netuid).SimUpdateValueForOne(int64(alpha))
}

// IncreaseStakeForHotkey credits alpha to every coldkey staking through
// the hotkey, proportional to their shares. Used for emission payouts.
func (e *Engine) IncreaseStakeForHotkey(hotkey subtide.AccountID, netuid uint16, alpha uint64) error {
	if alpha > math.MaxInt64 {
		alpha = math.MaxInt64
	}
	return e.alphaPool(hotkey, netuid).UpdateValueForAll(int64(alpha))
}

// DecreaseStakeForHotkey debits alpha proportionally from every coldkey
// staking through the hotkey. Used for slashing.
func (e *Engine) DecreaseStakeForHotkey(hotkey subtide.AccountID, netuid uint16, alpha uint64) error {
	if alpha > math.MaxInt64 {
		alpha = math.MaxInt64
	}
	return e.alphaPool(hotkey, netuid).UpdateValueForAll(-int64(alpha))
}

// stakeIntoSubnet swaps tao for alpha and credits the alpha to the
// pair. The fee is taken off the top and folded into the pool's tao
// reserve, so it accrues to remaining stakers. Returns the alpha
// credited.
func (e *Engine) stakeIntoSubnet(hotkey, coldkey subtide.AccountID, netuid uint16, tao, fee uint64) (uint64, error) {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return 0, err
	}
	staked := satSub(tao, fee)

	alpha, ok, err := e.swapTaoForAlpha(sub, staked)
	if err != nil {
		return 0, err
	}
	var credited uint64
	if ok && staked > 0 && alpha > 0 {
		credited, err = e.increaseStake(hotkey, coldkey, netuid, alpha)
		if err != nil {
			return 0, err
		}
		if err := e.store.addStakingHotkey(coldkey, hotkey); err != nil {
			return 0, err
		}
	}

	// the fee stays in the pool rather than being burned
	sub, err = e.Subnet(netuid)
	if err != nil {
		return 0, err
	}
	sub.TaoReserve = satAdd(sub.TaoReserve, fee)
	if err := e.store.setSubnet(sub); err != nil {
		return 0, err
	}
	if err := e.store.totalStake.Add(fee); err != nil {
		return 0, err
	}

	if err := e.store.setLastStakeBlock(coldkey, hotkey, e.blockNum); err != nil {
		return 0, err
	}
	if err := e.UpdateMovingPrice(netuid); err != nil {
		return 0, err
	}

	e.sink.Emit(events.StakeAdded{
		Coldkey: coldkey,
		Hotkey:  hotkey,
		Tao:     staked,
		Alpha:   credited,
		Netuid:  netuid,
		Fee:     fee,
	})
	logger.Debug("stake added", "coldkey", coldkey, "hotkey", hotkey, "netuid", netuid, "tao", staked, "alpha", credited, "fee", fee)
	return credited, nil
}

// unstakeFromSubnet burns the pair's alpha, swaps it back to tao and
// returns the tao owed to the coldkey after the fee. The fee is folded
// into the pool's tao reserve.
func (e *Engine) unstakeFromSubnet(hotkey, coldkey subtide.AccountID, netuid uint16, alpha, fee uint64) (uint64, error) {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return 0, err
	}

	debited, err := e.decreaseStake(hotkey, coldkey, netuid, alpha)
	if err != nil {
		return 0, err
	}
	if debited == 0 {
		return 0, nil
	}

	tao, ok, err := e.swapAlphaForTao(sub, debited)
	if err != nil {
		return 0, err
	}
	if !ok {
		// the pool rejected the swap; restore the burned position
		if _, err := e.increaseStake(hotkey, coldkey, netuid, debited); err != nil {
			return 0, err
		}
		return 0, nil
	}

	unstaked := satSub(tao, fee)
	actualFee := tao - unstaked

	sub, err = e.Subnet(netuid)
	if err != nil {
		return 0, err
	}
	sub.TaoReserve = satAdd(sub.TaoReserve, actualFee)
	if err := e.store.setSubnet(sub); err != nil {
		return 0, err
	}
	if err := e.store.totalStake.Add(actualFee); err != nil {
		return 0, err
	}

	if err := e.store.setLastStakeBlock(coldkey, hotkey, e.blockNum); err != nil {
		return 0, err
	}
	if err := e.UpdateMovingPrice(netuid); err != nil {
		return 0, err
	}

	e.sink.Emit(events.StakeRemoved{
		Coldkey: coldkey,
		Hotkey:  hotkey,
		Tao:     unstaked,
		Alpha:   debited,
		Netuid:  netuid,
		Fee:     actualFee,
	})
	logger.Debug("stake removed", "coldkey", coldkey, "hotkey", hotkey, "netuid", netuid, "tao", unstaked, "alpha", debited, "fee", actualFee)
	return unstaked, nil
}

// pruneStakingHotkey drops the hotkey from the coldkey's staking index
// when the pair holds no stake on any subnet.
func (e *Engine) pruneStakingHotkey(coldkey, hotkey subtide.AccountID) error {
	netuids, err := e.store.allNetuids()
	if err != nil {
		return err
	}
	for _, netuid := range netuids {
		has, err := e.store.hasAlphaShare(hotkey, coldkey, netuid)
		if err != nil {
			return err
		}
		if has {
			return nil
		}
	}
	return e.store.removeStakingHotkey(coldkey, hotkey)
}
