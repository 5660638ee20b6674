// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package sharepool implements a fractional-ownership ledger: a pooled
// total value is divided among owners according to their share counts.
// The algorithm is independent of its storage binding; each use site
// supplies a DataOps adapter for its ledger namespace.
package sharepool

import (
	"github.com/subtide/subtide/fixed"
)

// DataOps is the storage capability a pool operates through. Implementations
// must prune entries when a value or share is set to exactly zero, so that
// no zero-valued entries persist.
type DataOps[K any] interface {
	// SharedValue is the total underlying value owned across all owners.
	SharedValue() (*fixed.Fixed, error)
	// Share returns the owner's share count, zero when absent.
	Share(key K) (*fixed.Fixed, error)
	// HasShare reports whether the owner holds any shares.
	HasShare(key K) (bool, error)
	// Denominator is the total share count across all owners.
	Denominator() (*fixed.Fixed, error)

	SetSharedValue(v *fixed.Fixed) error
	SetShare(key K, v *fixed.Fixed) error
	SetDenominator(v *fixed.Fixed) error
}

// Pool is a fractional-ownership ledger over a storage adapter.
//
// An owner's imputed value is share/denominator*sharedValue, rounded toward
// zero. All arithmetic saturates; a pool never ends up with a zero
// denominator against a non-zero value or vice versa on the single-owner
// paths - both are zeroed together when either reaches zero.
type Pool[K any] struct {
	ops DataOps[K]
}

// New creates a pool over the given adapter.
func New[K any](ops DataOps[K]) *Pool[K] {
	return &Pool[K]{ops: ops}
}

// GetValue returns the owner's imputed value, rounded toward zero.
func (p *Pool[K]) GetValue(key K) (uint64, error) {
	shared, denom, share, err := p.read(key)
	if err != nil {
		return 0, err
	}
	return share.Mul(shared).SafeDiv(denom).U64(), nil
}

// TryGetValue returns the owner's imputed value, reporting false when the
// owner holds no shares at all.
func (p *Pool[K]) TryGetValue(key K) (uint64, bool, error) {
	has, err := p.ops.HasShare(key)
	if err != nil || !has {
		return 0, false, err
	}
	value, err := p.GetValue(key)
	return value, true, err
}

// UpdateValueForAll adjusts the pooled total value without touching share
// counts: every owner's imputed value scales proportionally. A positive
// update on a pool with no shareholders is unattributable and is dropped.
func (p *Pool[K]) UpdateValueForAll(update int64) error {
	shared, err := p.ops.SharedValue()
	if err != nil {
		return err
	}
	denom, err := p.ops.Denominator()
	if err != nil {
		return err
	}

	if update >= 0 {
		if denom.IsZero() {
			return nil
		}
		return p.ops.SetSharedValue(shared.Add(fixed.FromU64(uint64(update))))
	}

	newShared := clampZero(shared.Sub(fixed.FromU64(uint64(-update))))
	if newShared.IsZero() {
		// dead pool, zero the denominator with it
		if err := p.ops.SetDenominator(fixed.Zero()); err != nil {
			return err
		}
	}
	return p.ops.SetSharedValue(newShared)
}

// UpdateValueForOne mints or burns value for a single owner at the current
// price per share and returns the owner's actual imputed value change,
// which can be smaller than requested due to rounding. Burning more than
// the owner's imputed value is a no-op returning zero.
func (p *Pool[K]) UpdateValueForOne(key K, update int64) (int64, error) {
	if update >= 0 {
		return p.mint(key, uint64(update))
	}
	return p.burn(key, uint64(-update))
}

// SimUpdateValueForOne simulates a single-owner contribution without
// mutating state. It reports false when the contribution would round to
// zero shares or zero value, i.e. the pool lacks precision for it.
func (p *Pool[K]) SimUpdateValueForOne(update int64) (bool, error) {
	if update <= 0 {
		return false, nil
	}
	shared, err := p.ops.SharedValue()
	if err != nil {
		return false, err
	}
	denom, err := p.ops.Denominator()
	if err != nil {
		return false, err
	}
	if denom.IsZero() {
		return true, nil
	}

	u := fixed.FromU64(uint64(update))
	minted := u.Mul(denom).SafeDiv(shared)
	if minted.IsZero() {
		return false, nil
	}
	value := minted.Mul(shared.Add(u)).SafeDiv(denom.Add(minted)).U64()
	return value > 0, nil
}

func (p *Pool[K]) mint(key K, amount uint64) (int64, error) {
	shared, denom, share, err := p.read(key)
	if err != nil {
		return 0, err
	}
	u := fixed.FromU64(amount)

	if denom.IsZero() {
		// empty pool, seed shares 1:1 with value
		if amount == 0 {
			return 0, nil
		}
		if err := p.write(key, shared.Add(u), u, u); err != nil {
			return 0, err
		}
		return int64(amount), nil
	}

	before := share.Mul(shared).SafeDiv(denom).U64()
	minted := u.Mul(denom).SafeDiv(shared)
	newShared := shared.Add(u)
	newDenom := denom.Add(minted)
	newShare := share.Add(minted)

	if err := p.write(key, newShared, newDenom, newShare); err != nil {
		return 0, err
	}
	after := newShare.Mul(newShared).SafeDiv(newDenom).U64()
	return int64(after) - int64(before), nil
}

func (p *Pool[K]) burn(key K, amount uint64) (int64, error) {
	shared, denom, share, err := p.read(key)
	if err != nil {
		return 0, err
	}
	before := share.Mul(shared).SafeDiv(denom).U64()
	if before < amount {
		return 0, nil
	}

	u := fixed.FromU64(amount)
	burned := u.Mul(denom).SafeDiv(shared)
	newShared := clampZero(shared.Sub(u))
	newDenom := clampZero(denom.Sub(burned))
	newShare := clampZero(share.Sub(burned))

	// both totals die together
	if newShared.IsZero() || newDenom.IsZero() {
		newShared = fixed.Zero()
		newDenom = fixed.Zero()
		newShare = fixed.Zero()
	}

	if err := p.write(key, newShared, newDenom, newShare); err != nil {
		return 0, err
	}
	after := newShare.Mul(newShared).SafeDiv(newDenom).U64()
	return int64(after) - int64(before), nil
}

func (p *Pool[K]) read(key K) (shared, denom, share *fixed.Fixed, err error) {
	if shared, err = p.ops.SharedValue(); err != nil {
		return
	}
	if denom, err = p.ops.Denominator(); err != nil {
		return
	}
	share, err = p.ops.Share(key)
	return
}

func (p *Pool[K]) write(key K, shared, denom, share *fixed.Fixed) error {
	if err := p.ops.SetSharedValue(shared); err != nil {
		return err
	}
	if err := p.ops.SetDenominator(denom); err != nil {
		return err
	}
	return p.ops.SetShare(key, share)
}

func clampZero(f *fixed.Fixed) *fixed.Fixed {
	if f.Sign() < 0 {
		return fixed.Zero()
	}
	return f
}
