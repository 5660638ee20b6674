// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/subtide/subtide/kv"
	"github.com/subtide/subtide/ledger"
	"github.com/subtide/subtide/staking/events"
	"github.com/subtide/subtide/subtide"
)

func account(b byte) subtide.AccountID {
	var a subtide.AccountID
	a[0] = b
	return a
}

type memBalances struct {
	balances map[subtide.AccountID]uint64
}

func newMemBalances() *memBalances {
	return &memBalances{balances: make(map[subtide.AccountID]uint64)}
}

func (m *memBalances) Balance(account subtide.AccountID) (uint64, error) {
	return m.balances[account], nil
}

func (m *memBalances) Withdraw(account subtide.AccountID, amount uint64) error {
	if m.balances[account] < amount {
		return errors.New("insufficient balance")
	}
	m.balances[account] -= amount
	return nil
}

func (m *memBalances) Deposit(account subtide.AccountID, amount uint64) error {
	m.balances[account] += amount
	return nil
}

type memHotkeys map[subtide.AccountID]bool

func (m memHotkeys) HotkeyExists(hotkey subtide.AccountID) (bool, error) {
	return m[hotkey], nil
}

type memGraph struct {
	parents  map[string][]Edge
	children map[string][]Edge
}

func newMemGraph() *memGraph {
	return &memGraph{
		parents:  make(map[string][]Edge),
		children: make(map[string][]Edge),
	}
}

func graphKey(hotkey subtide.AccountID, netuid uint16) string {
	return fmt.Sprintf("%s-%d", hotkey, netuid)
}

func (g *memGraph) Parents(hotkey subtide.AccountID, netuid uint16) ([]Edge, error) {
	return g.parents[graphKey(hotkey, netuid)], nil
}

func (g *memGraph) Children(hotkey subtide.AccountID, netuid uint16) ([]Edge, error) {
	return g.children[graphKey(hotkey, netuid)], nil
}

// link registers child as delegate of parent with the given proportion,
// on both sides of the graph.
func (g *memGraph) link(parent, child subtide.AccountID, netuid uint16, proportion uint64) {
	g.children[graphKey(parent, netuid)] = append(g.children[graphKey(parent, netuid)], Edge{proportion, child})
	g.parents[graphKey(child, netuid)] = append(g.parents[graphKey(child, netuid)], Edge{proportion, parent})
}

type recordSink struct {
	events []events.Event
}

func (s *recordSink) Emit(ev events.Event) {
	s.events = append(s.events, ev)
}

func (s *recordSink) byName(name string) []events.Event {
	var out []events.Event
	for _, ev := range s.events {
		if ev.EventName() == name {
			out = append(out, ev)
		}
	}
	return out
}

type testEnv struct {
	store    kv.Store
	engine   *Engine
	balances *memBalances
	hotkeys  memHotkeys
	graph    *memGraph
	sink     *recordSink
}

func newTestEnv(t *testing.T) *testEnv {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	env := &testEnv{
		store:    store,
		balances: newMemBalances(),
		hotkeys:  make(memHotkeys),
		graph:    newMemGraph(),
		sink:     &recordSink{},
	}
	env.atBlock(1, subtide.Bytes32{})
	return env
}

// atBlock rebinds the engine to a new block, keeping the backing store.
func (env *testEnv) atBlock(blockNum uint64, parentHash subtide.Bytes32) *Engine {
	env.engine = New(ledger.NewContext(env.store), DefaultParams(), Hooks{
		Balances: env.balances,
		Hotkeys:  env.hotkeys,
		Graph:    env.graph,
		Sink:     env.sink,
	}, blockNum, parentHash)
	return env.engine
}

// newSubnetEnv creates an environment with a funded dynamic subnet, a
// root subnet, a registered hotkey and a funded coldkey.
func newSubnetEnv(t *testing.T) (*testEnv, subtide.AccountID, subtide.AccountID) {
	env := newTestEnv(t)
	coldkey, hotkey := account(1), account(2)

	_, err := env.engine.CreateSubnet(subtide.RootNetuid, MechanismStable)
	require.NoError(t, err)
	sub, err := env.engine.CreateSubnet(1, MechanismDynamic)
	require.NoError(t, err)
	require.Equal(t, uint16(1), sub.Netuid)

	require.NoError(t, env.engine.InjectLiquidity(1, 1_000_000_000, 1_000_000_000))
	require.NoError(t, env.engine.SetSubtokenEnabled(1, true))

	env.hotkeys[hotkey] = true
	env.balances.balances[coldkey] = 10_000_000_000

	return env, coldkey, hotkey
}
