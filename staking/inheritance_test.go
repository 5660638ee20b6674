// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtide/subtide/subtide"
)

func TestInheritedStakeWithoutEdges(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	alpha, err := env.engine.AddStake(coldkey, hotkey, 1, 1_000_000_000)
	require.NoError(t, err)

	inherited, err := env.engine.InheritedStake(hotkey, 1)
	require.NoError(t, err)
	assert.Equal(t, alpha, inherited)
}

func TestInheritedStakeChildTakesHalf(t *testing.T) {
	env, coldkey, parent := newSubnetEnv(t)
	child := account(3)
	env.hotkeys[child] = true
	env.graph.link(parent, child, 1, math.MaxUint64/2)

	alpha, err := env.engine.AddStake(coldkey, parent, 1, 1_000_000_000)
	require.NoError(t, err)

	parentStake, err := env.engine.InheritedStake(parent, 1)
	require.NoError(t, err)
	childStake, err := env.engine.InheritedStake(child, 1)
	require.NoError(t, err)

	assert.InDelta(t, float64(alpha)/2, float64(parentStake), 2)
	assert.InDelta(t, float64(alpha)/2, float64(childStake), 2)

	// delegation redistributes, it never creates stake
	assert.LessOrEqual(t, parentStake+childStake, alpha)
}

func TestInheritedStakeIgnoredOnRoot(t *testing.T) {
	env, coldkey, parent := newSubnetEnv(t)
	child := account(3)
	env.hotkeys[child] = true
	env.graph.link(parent, child, subtide.RootNetuid, math.MaxUint64)

	alpha, err := env.engine.AddStake(coldkey, parent, subtide.RootNetuid, 1_000_000_000)
	require.NoError(t, err)

	inherited, err := env.engine.InheritedStake(parent, subtide.RootNetuid)
	require.NoError(t, err)
	assert.Equal(t, alpha, inherited, "root positions are never delegated")
}

func TestInheritedTaoStakeUsesRootPosition(t *testing.T) {
	env, coldkey, parent := newSubnetEnv(t)
	child := account(3)
	env.hotkeys[child] = true
	// the edge lives on subnet 1, the stake on root
	env.graph.link(parent, child, 1, math.MaxUint64)

	rootAlpha, err := env.engine.AddStake(coldkey, parent, subtide.RootNetuid, 1_000_000_000)
	require.NoError(t, err)

	parentTao, err := env.engine.InheritedTaoStake(parent, 1)
	require.NoError(t, err)
	childTao, err := env.engine.InheritedTaoStake(child, 1)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), parentTao, "everything delegated away")
	assert.InDelta(t, float64(rootAlpha), float64(childTao), 2)
}

func TestStakeWeightCombinesAlphaAndTao(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)

	alpha, err := env.engine.AddStake(coldkey, hotkey, 1, 1_000_000_000)
	require.NoError(t, err)
	rootAlpha, err := env.engine.AddStake(coldkey, hotkey, subtide.RootNetuid, 1_000_000_000)
	require.NoError(t, err)

	// tao weight of one half
	require.NoError(t, env.engine.SetTaoWeight(math.MaxUint64/2))

	total, alphaPart, taoPart, err := env.engine.StakeWeight(hotkey, 1)
	require.NoError(t, err)
	assert.Equal(t, alpha, alphaPart.U64())
	assert.Equal(t, rootAlpha, taoPart.U64())
	assert.InDelta(t, float64(alpha)+float64(rootAlpha)/2, float64(total.U64()), 2)
}

func TestStakeWeightsForSubnet(t *testing.T) {
	env, coldkey, hotkey := newSubnetEnv(t)
	other := account(3)
	env.hotkeys[other] = true

	uid0, err := env.engine.RegisterKey(1, hotkey)
	require.NoError(t, err)
	uid1, err := env.engine.RegisterKey(1, other)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), uid0)
	assert.Equal(t, uint16(1), uid1)

	alpha, err := env.engine.AddStake(coldkey, hotkey, 1, 1_000_000_000)
	require.NoError(t, err)

	weights, err := env.engine.StakeWeightsForSubnet(1)
	require.NoError(t, err)
	require.Len(t, weights, 2)
	assert.Equal(t, alpha, weights[0].U64())
	assert.True(t, weights[1].IsZero())
}
