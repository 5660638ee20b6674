// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking implements the stake accounting engine: per-subnet
// constant-product pools, fractional stake ownership, moving-price
// smoothing, parent/child stake inheritance and the deferred stake job
// queue. An Engine is constructed per block execution and operates on a
// ledger context backed by the chain state.
package staking

import (
	"math"

	"github.com/pkg/errors"

	"github.com/subtide/subtide/ledger"
	"github.com/subtide/subtide/log"
	"github.com/subtide/subtide/staking/events"
	"github.com/subtide/subtide/staking/reverts"
	"github.com/subtide/subtide/staking/scheduler"
	"github.com/subtide/subtide/subtide"
)

var logger = log.WithContext("pkg", "staking")

func SetLogger(l *log.Logger) {
	logger = l
}

// BalanceKeeper gives the engine access to free tao balances. Withdraw
// must fail when the account cannot cover the amount.
type BalanceKeeper interface {
	Balance(account subtide.AccountID) (uint64, error)
	Withdraw(account subtide.AccountID, amount uint64) error
	Deposit(account subtide.AccountID, amount uint64) error
}

// HotkeyRegistry answers whether a hotkey account exists on chain.
type HotkeyRegistry interface {
	HotkeyExists(hotkey subtide.AccountID) (bool, error)
}

// Graph exposes the parent/child delegation edges used for stake
// inheritance. Proportions are scaled so that math.MaxUint64 means the
// whole stake.
type Graph interface {
	Parents(hotkey subtide.AccountID, netuid uint16) ([]Edge, error)
	Children(hotkey subtide.AccountID, netuid uint16) ([]Edge, error)
}

// Edge is one delegation relation in the stake graph.
type Edge struct {
	Proportion uint64
	Account    subtide.AccountID
}

type emptyGraph struct{}

func (emptyGraph) Parents(subtide.AccountID, uint16) ([]Edge, error)  { return nil, nil }
func (emptyGraph) Children(subtide.AccountID, uint16) ([]Edge, error) { return nil, nil }

// Hooks bundles the engine's external collaborators.
type Hooks struct {
	Balances BalanceKeeper
	Hotkeys  HotkeyRegistry
	Graph    Graph
	Sink     events.Sink
}

// Engine executes staking operations against a ledger context. It is
// bound to the block being executed; construct a fresh one per block.
type Engine struct {
	store  *storage
	params Params

	balances BalanceKeeper
	hotkeys  HotkeyRegistry
	graph    Graph
	sink     events.Sink

	sched *scheduler.Service

	blockNum   uint64
	parentHash subtide.Bytes32
}

// New creates an engine for one block execution.
func New(context *ledger.Context, params Params, hooks Hooks, blockNum uint64, parentHash subtide.Bytes32) *Engine {
	if hooks.Graph == nil {
		hooks.Graph = emptyGraph{}
	}
	if hooks.Sink == nil {
		hooks.Sink = events.NopSink{}
	}
	return &Engine{
		store:      newStorage(context),
		params:     params,
		balances:   hooks.Balances,
		hotkeys:    hooks.Hotkeys,
		graph:      hooks.Graph,
		sink:       hooks.Sink,
		sched:      scheduler.New(context, hooks.Sink),
		blockNum:   blockNum,
		parentHash: parentHash,
	}
}

// Params returns the engine's configuration.
func (e *Engine) Params() Params {
	return e.params
}

// Subnet returns the stored record of a subnet, reverting when it does
// not exist.
func (e *Engine) Subnet(netuid uint16) (*Subnet, error) {
	sub, err := e.store.getSubnet(netuid)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, reverts.ErrSubnetNotExists
	}
	return sub, nil
}

// SubnetExists reports whether a subnet has been created.
func (e *Engine) SubnetExists(netuid uint16) (bool, error) {
	return e.store.subnetExists(netuid)
}

// Netuids lists all existing subnets in creation order.
func (e *Engine) Netuids() ([]uint16, error) {
	return e.store.allNetuids()
}

// TotalStake returns the network-wide staked tao.
func (e *Engine) TotalStake() (uint64, error) {
	return e.store.totalStake.Get()
}

// CreateSubnet registers a new subnet with zeroed reserves.
func (e *Engine) CreateSubnet(netuid uint16, mechanism Mechanism) (*Subnet, error) {
	exists, err := e.store.subnetExists(netuid)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Errorf("subnet %d already exists", netuid)
	}
	sub := newSubnet(netuid, mechanism, e.params)
	if err := e.store.setSubnet(sub); err != nil {
		return nil, err
	}
	if err := e.store.appendNetuid(netuid); err != nil {
		return nil, err
	}
	logger.Info("subnet created", "netuid", netuid, "mechanism", mechanism)
	return sub, nil
}

// InjectLiquidity seeds or tops up a subnet pool without touching any
// stake ledger. Used at subnet creation and by tests.
func (e *Engine) InjectLiquidity(netuid uint16, tao, alphaIn uint64) error {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return err
	}
	sub.TaoReserve = satAdd(sub.TaoReserve, tao)
	sub.AlphaIn = satAdd(sub.AlphaIn, alphaIn)
	return e.store.setSubnet(sub)
}

// RegisterKey assigns a hotkey to the next free uid slot of a subnet.
func (e *Engine) RegisterKey(netuid uint16, hotkey subtide.AccountID) (uint16, error) {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return 0, err
	}
	if sub.N > math.MaxUint16 {
		return 0, errors.Errorf("subnet %d is full", netuid)
	}
	uid := uint16(sub.N)
	if err := e.store.setKey(netuid, uid, hotkey); err != nil {
		return 0, err
	}
	sub.N++
	return uid, e.store.setSubnet(sub)
}

// KeyForUID returns the hotkey registered at the given uid slot.
func (e *Engine) KeyForUID(netuid, uid uint16) (subtide.AccountID, error) {
	return e.store.getKey(netuid, uid)
}

// SetSubtokenEnabled toggles staking operations on a subnet.
func (e *Engine) SetSubtokenEnabled(netuid uint16, enabled bool) error {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return err
	}
	sub.SubtokenEnabled = enabled
	return e.store.setSubnet(sub)
}

// SetTransferEnabled toggles cross-coldkey stake transfers on a subnet.
func (e *Engine) SetTransferEnabled(netuid uint16, enabled bool) error {
	sub, err := e.Subnet(netuid)
	if err != nil {
		return err
	}
	sub.TransferEnabled = enabled
	return e.store.setSubnet(sub)
}

// SetAlphaDividends records the dividends a hotkey earned in the last
// epoch, used for dividend-proportional fee pricing.
func (e *Engine) SetAlphaDividends(hotkey subtide.AccountID, netuid uint16, dividends uint64) error {
	return e.store.setAlphaDividends(hotkey, netuid, dividends)
}

// SnapshotEpochAlpha records the alpha a hotkey held at the close of the
// last epoch, used for dividend-proportional fee pricing.
func (e *Engine) SnapshotEpochAlpha(hotkey subtide.AccountID, netuid uint16) error {
	alpha, err := e.store.getHotkeyAlpha(hotkey, netuid)
	if err != nil {
		return err
	}
	return e.store.setLastEpochAlpha(hotkey, netuid, alpha)
}

// LastStakeBlock returns the block at which the pair last changed stake.
func (e *Engine) LastStakeBlock(coldkey, hotkey subtide.AccountID) (uint64, error) {
	return e.store.getLastStakeBlock(coldkey, hotkey)
}

// StakingHotkeys lists the hotkeys a coldkey has open stake positions on.
func (e *Engine) StakingHotkeys(coldkey subtide.AccountID) ([]subtide.AccountID, error) {
	return e.store.getStakingHotkeys(coldkey)
}
