// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subtide

// Constants of the subtide network.
const (
	// RootNetuid identifies the reserved root subnet, always priced at parity.
	RootNetuid uint16 = 0

	// OneTao is the number of base units (rao) in one tao.
	OneTao uint64 = 1_000_000_000

	// JobDelayBlocks is the number of blocks a deferred staking job waits
	// before it is drained and executed at block finalization.
	JobDelayBlocks uint64 = 1
)

// Initial values for newly created subnets.
const (
	// InitialMinPoolLiquidity is the reserve floor a swap may never undercut.
	InitialMinPoolLiquidity uint64 = 10_000_000

	// InitialLiquidityScaleMax is the pool liquidity (in tao) at which the
	// moving price tracks the spot price with full weight.
	InitialLiquidityScaleMax uint64 = 1_000
)
