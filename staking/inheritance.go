// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math"

	"github.com/subtide/subtide/fixed"
	"github.com/subtide/subtide/subtide"
)

// TaoWeight returns the network-wide weight of root tao relative to
// subnet alpha, as a fraction in [0, 1].
func (e *Engine) TaoWeight() (*fixed.Fixed, error) {
	stored, err := e.store.taoWeight.Get()
	if err != nil {
		return nil, err
	}
	return fixed.FromU64(stored).SafeDiv(fixed.FromU64(math.MaxUint64)), nil
}

// SetTaoWeight stores the tao weight, scaled so math.MaxUint64 means 1.
func (e *Engine) SetTaoWeight(weight uint64) error {
	return e.store.taoWeight.Set(weight)
}

// InheritedStake returns the hotkey's alpha stake on a subnet after
// delegation: its own stake, minus the proportions assigned to children,
// plus the proportions parents assigned to it. On the root subnet
// delegation does not apply and the raw stake is returned.
func (e *Engine) InheritedStake(hotkey subtide.AccountID, netuid uint16) (uint64, error) {
	raw, err := e.StakeForHotkey(hotkey, netuid)
	if err != nil {
		return 0, err
	}
	if netuid == subtide.RootNetuid {
		return raw, nil
	}
	return e.inherit(hotkey, netuid, raw, netuid)
}

// InheritedTaoStake returns the hotkey's root-subnet tao stake after
// delegation, using the delegation edges of the given subnet.
func (e *Engine) InheritedTaoStake(hotkey subtide.AccountID, netuid uint16) (uint64, error) {
	raw, err := e.StakeForHotkey(hotkey, subtide.RootNetuid)
	if err != nil {
		return 0, err
	}
	return e.inherit(hotkey, netuid, raw, subtide.RootNetuid)
}

// inherit applies the one-level delegation adjustment: edges come from
// edgeNetuid, stakes are read on stakeNetuid.
func (e *Engine) inherit(hotkey subtide.AccountID, edgeNetuid uint16, raw uint64, stakeNetuid uint16) (uint64, error) {
	children, err := e.graph.Children(hotkey, edgeNetuid)
	if err != nil {
		return 0, err
	}
	parents, err := e.graph.Parents(hotkey, edgeNetuid)
	if err != nil {
		return 0, err
	}
	if len(children) == 0 && len(parents) == 0 {
		return raw, nil
	}

	scale := fixed.FromU64(math.MaxUint64)
	own := fixed.FromU64(raw)

	toChildren := fixed.Zero()
	for _, child := range children {
		proportion := fixed.FromU64(child.Proportion).SafeDiv(scale)
		toChildren = toChildren.Add(proportion.Mul(own))
	}

	fromParents := fixed.Zero()
	for _, parent := range parents {
		parentRaw, err := e.StakeForHotkey(parent.Account, stakeNetuid)
		if err != nil {
			return 0, err
		}
		proportion := fixed.FromU64(parent.Proportion).SafeDiv(scale)
		fromParents = fromParents.Add(proportion.Mul(fixed.FromU64(parentRaw)))
	}

	effective := own.Sub(toChildren).Add(fromParents)
	if effective.Sign() < 0 {
		return 0, nil
	}
	return effective.U64(), nil
}

// StakeWeight returns the hotkey's combined stake weight on a subnet:
// inherited alpha plus inherited root tao scaled by the tao weight. The
// alpha and tao components are also returned separately.
func (e *Engine) StakeWeight(hotkey subtide.AccountID, netuid uint16) (total, alpha, tao *fixed.Fixed, err error) {
	inheritedAlpha, err := e.InheritedStake(hotkey, netuid)
	if err != nil {
		return nil, nil, nil, err
	}
	inheritedTao, err := e.InheritedTaoStake(hotkey, netuid)
	if err != nil {
		return nil, nil, nil, err
	}
	weight, err := e.TaoWeight()
	if err != nil {
		return nil, nil, nil, err
	}
	alpha = fixed.FromU64(inheritedAlpha)
	tao = fixed.FromU64(inheritedTao)
	total = alpha.Add(tao.Mul(weight))
	return total, alpha, tao, nil
}

// StakeWeightsForSubnet returns the stake weight of every registered uid
// on a subnet, indexed by uid.
func (e *Engine) StakeWeightsForSubnet(netuid uint16) ([]*fixed.Fixed, error) {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return nil, err
	}
	weights := make([]*fixed.Fixed, 0, sub.N)
	for uid := uint64(0); uid < sub.N; uid++ {
		hotkey, err := e.store.getKey(netuid, uint16(uid))
		if err != nil {
			return nil, err
		}
		total, _, _, err := e.StakeWeight(hotkey, netuid)
		if err != nil {
			return nil, err
		}
		weights = append(weights, total)
	}
	return weights, nil
}
