// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"encoding/binary"
	"math/big"

	"github.com/subtide/subtide/ledger"
	"github.com/subtide/subtide/subtide"
)

var (
	slotSubnets = nameToSlot("subnets")
	slotNetuids = nameToSlot("subnet-ids")
	// per-hotkey stake pools
	slotHotkeyAlpha  = nameToSlot("hotkey-alpha")
	slotHotkeyShares = nameToSlot("hotkey-alpha-shares")
	slotAlphaShares  = nameToSlot("coldkey-alpha-shares")
	// global accounting
	slotTaoWeight  = nameToSlot("tao-weight")
	slotTotalStake = nameToSlot("total-stake")
	// epoch snapshots used for fee pricing
	slotAlphaDividends = nameToSlot("alpha-dividends")
	slotLastEpochAlpha = nameToSlot("hotkey-alpha-last-epoch")
	// registration and housekeeping indexes
	slotKeys           = nameToSlot("subnet-keys")
	slotStakingHotkeys = nameToSlot("staking-hotkeys")
	slotLastStakeBlock = nameToSlot("last-stake-block")
)

func nameToSlot(name string) subtide.Bytes32 {
	return subtide.BytesToBytes32([]byte(name))
}

// netuidKey keys a mapping by subnet identifier.
type netuidKey uint16

func (k netuidKey) Bytes() []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(k))
	return b[:]
}

// hotkeyNetuidKey keys a mapping by hotkey within a subnet.
type hotkeyNetuidKey struct {
	hotkey subtide.AccountID
	netuid uint16
}

func (k hotkeyNetuidKey) Bytes() []byte {
	b := make([]byte, 0, 34)
	b = append(b, k.hotkey.Bytes()...)
	b = binary.BigEndian.AppendUint16(b, k.netuid)
	return b
}

// stakeKey keys a mapping by the (hotkey, coldkey) stake relation within a subnet.
type stakeKey struct {
	hotkey  subtide.AccountID
	coldkey subtide.AccountID
	netuid  uint16
}

func (k stakeKey) Bytes() []byte {
	b := make([]byte, 0, 66)
	b = append(b, k.hotkey.Bytes()...)
	b = append(b, k.coldkey.Bytes()...)
	b = binary.BigEndian.AppendUint16(b, k.netuid)
	return b
}

// uidKey keys a mapping by a registered uid slot within a subnet.
type uidKey struct {
	netuid uint16
	uid    uint16
}

func (k uidKey) Bytes() []byte {
	var b [4]byte
	binary.BigEndian.PutUint16(b[:2], k.netuid)
	binary.BigEndian.PutUint16(b[2:], k.uid)
	return b[:]
}

// pairKey keys a mapping by a (coldkey, hotkey) pair.
type pairKey struct {
	coldkey subtide.AccountID
	hotkey  subtide.AccountID
}

func (k pairKey) Bytes() []byte {
	b := make([]byte, 0, 64)
	b = append(b, k.coldkey.Bytes()...)
	b = append(b, k.hotkey.Bytes()...)
	return b
}

// storage represents the root storage of the staking engine.
type storage struct {
	context *ledger.Context

	subnets *ledger.Mapping[netuidKey, *Subnet]
	netuids *ledger.Value[[]uint16]

	hotkeyAlpha  *ledger.Mapping[hotkeyNetuidKey, uint64]   // total alpha owned through a hotkey
	hotkeyShares *ledger.Mapping[hotkeyNetuidKey, *big.Int] // share denominator, raw fixed
	alphaShares  *ledger.Mapping[stakeKey, *big.Int]        // coldkey share count, raw fixed

	taoWeight  *ledger.Uint64
	totalStake *ledger.Uint64

	alphaDividends *ledger.Mapping[hotkeyNetuidKey, uint64]
	lastEpochAlpha *ledger.Mapping[hotkeyNetuidKey, uint64]

	keys           *ledger.Mapping[uidKey, subtide.AccountID]
	stakingHotkeys *ledger.Mapping[subtide.AccountID, []subtide.AccountID]
	lastStakeBlock *ledger.Mapping[pairKey, uint64]
}

// newStorage creates a new instance of storage bound to a ledger context.
func newStorage(context *ledger.Context) *storage {
	return &storage{
		context:        context,
		subnets:        ledger.NewMapping[netuidKey, *Subnet](context, slotSubnets),
		netuids:        ledger.NewValue[[]uint16](context, slotNetuids),
		hotkeyAlpha:    ledger.NewMapping[hotkeyNetuidKey, uint64](context, slotHotkeyAlpha),
		hotkeyShares:   ledger.NewMapping[hotkeyNetuidKey, *big.Int](context, slotHotkeyShares),
		alphaShares:    ledger.NewMapping[stakeKey, *big.Int](context, slotAlphaShares),
		taoWeight:      ledger.NewUint64(context, slotTaoWeight),
		totalStake:     ledger.NewUint64(context, slotTotalStake),
		alphaDividends: ledger.NewMapping[hotkeyNetuidKey, uint64](context, slotAlphaDividends),
		lastEpochAlpha: ledger.NewMapping[hotkeyNetuidKey, uint64](context, slotLastEpochAlpha),
		keys:           ledger.NewMapping[uidKey, subtide.AccountID](context, slotKeys),
		stakingHotkeys: ledger.NewMapping[subtide.AccountID, []subtide.AccountID](context, slotStakingHotkeys),
		lastStakeBlock: ledger.NewMapping[pairKey, uint64](context, slotLastStakeBlock),
	}
}

// getSubnet loads a subnet record, nil when it does not exist.
func (s *storage) getSubnet(netuid uint16) (*Subnet, error) {
	has, err := s.subnets.Has(netuidKey(netuid))
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, nil
	}
	return s.subnets.Get(netuidKey(netuid))
}

func (s *storage) setSubnet(sub *Subnet) error {
	return s.subnets.Set(netuidKey(sub.Netuid), sub)
}

func (s *storage) subnetExists(netuid uint16) (bool, error) {
	return s.subnets.Has(netuidKey(netuid))
}

// allNetuids returns the identifiers of every existing subnet, in
// registration order.
func (s *storage) allNetuids() ([]uint16, error) {
	return s.netuids.Get()
}

func (s *storage) appendNetuid(netuid uint16) error {
	ids, err := s.netuids.Get()
	if err != nil {
		return err
	}
	return s.netuids.Set(append(ids, netuid))
}

func (s *storage) getHotkeyAlpha(hotkey subtide.AccountID, netuid uint16) (uint64, error) {
	return s.hotkeyAlpha.Get(hotkeyNetuidKey{hotkey, netuid})
}

func (s *storage) setHotkeyAlpha(hotkey subtide.AccountID, netuid uint16, alpha uint64) error {
	key := hotkeyNetuidKey{hotkey, netuid}
	if alpha == 0 {
		return s.hotkeyAlpha.Delete(key)
	}
	return s.hotkeyAlpha.Set(key, alpha)
}

func (s *storage) getHotkeyShares(hotkey subtide.AccountID, netuid uint16) (*big.Int, error) {
	return s.hotkeyShares.Get(hotkeyNetuidKey{hotkey, netuid})
}

func (s *storage) setHotkeyShares(hotkey subtide.AccountID, netuid uint16, shares *big.Int) error {
	key := hotkeyNetuidKey{hotkey, netuid}
	if shares.Sign() == 0 {
		return s.hotkeyShares.Delete(key)
	}
	return s.hotkeyShares.Set(key, shares)
}

func (s *storage) getAlphaShare(hotkey, coldkey subtide.AccountID, netuid uint16) (*big.Int, error) {
	return s.alphaShares.Get(stakeKey{hotkey, coldkey, netuid})
}

func (s *storage) hasAlphaShare(hotkey, coldkey subtide.AccountID, netuid uint16) (bool, error) {
	return s.alphaShares.Has(stakeKey{hotkey, coldkey, netuid})
}

func (s *storage) setAlphaShare(hotkey, coldkey subtide.AccountID, netuid uint16, share *big.Int) error {
	key := stakeKey{hotkey, coldkey, netuid}
	if share.Sign() == 0 {
		return s.alphaShares.Delete(key)
	}
	return s.alphaShares.Set(key, share)
}

func (s *storage) getStakingHotkeys(coldkey subtide.AccountID) ([]subtide.AccountID, error) {
	return s.stakingHotkeys.Get(coldkey)
}

func (s *storage) addStakingHotkey(coldkey, hotkey subtide.AccountID) error {
	hotkeys, err := s.stakingHotkeys.Get(coldkey)
	if err != nil {
		return err
	}
	for _, h := range hotkeys {
		if h == hotkey {
			return nil
		}
	}
	return s.stakingHotkeys.Set(coldkey, append(hotkeys, hotkey))
}

func (s *storage) removeStakingHotkey(coldkey, hotkey subtide.AccountID) error {
	hotkeys, err := s.stakingHotkeys.Get(coldkey)
	if err != nil {
		return err
	}
	kept := hotkeys[:0]
	for _, h := range hotkeys {
		if h != hotkey {
			kept = append(kept, h)
		}
	}
	if len(kept) == len(hotkeys) {
		return nil
	}
	if len(kept) == 0 {
		return s.stakingHotkeys.Delete(coldkey)
	}
	return s.stakingHotkeys.Set(coldkey, kept)
}

func (s *storage) setLastStakeBlock(coldkey, hotkey subtide.AccountID, block uint64) error {
	return s.lastStakeBlock.Set(pairKey{coldkey, hotkey}, block)
}

func (s *storage) getLastStakeBlock(coldkey, hotkey subtide.AccountID) (uint64, error) {
	return s.lastStakeBlock.Get(pairKey{coldkey, hotkey})
}

func (s *storage) getKey(netuid, uid uint16) (subtide.AccountID, error) {
	return s.keys.Get(uidKey{netuid, uid})
}

func (s *storage) setKey(netuid, uid uint16, hotkey subtide.AccountID) error {
	return s.keys.Set(uidKey{netuid, uid}, hotkey)
}

func (s *storage) getAlphaDividends(hotkey subtide.AccountID, netuid uint16) (uint64, error) {
	return s.alphaDividends.Get(hotkeyNetuidKey{hotkey, netuid})
}

func (s *storage) setAlphaDividends(hotkey subtide.AccountID, netuid uint16, v uint64) error {
	key := hotkeyNetuidKey{hotkey, netuid}
	if v == 0 {
		return s.alphaDividends.Delete(key)
	}
	return s.alphaDividends.Set(key, v)
}

func (s *storage) getLastEpochAlpha(hotkey subtide.AccountID, netuid uint16) (uint64, error) {
	return s.lastEpochAlpha.Get(hotkeyNetuidKey{hotkey, netuid})
}

func (s *storage) setLastEpochAlpha(hotkey subtide.AccountID, netuid uint16, v uint64) error {
	key := hotkeyNetuidKey{hotkey, netuid}
	if v == 0 {
		return s.lastEpochAlpha.Delete(key)
	}
	return s.lastEpochAlpha.Set(key, v)
}
