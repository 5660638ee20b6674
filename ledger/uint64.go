// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/subtide/subtide/subtide"
)

// Uint64 is a wrapper for storage and retrieval of a single uint64 slot.
// Arithmetic helpers saturate instead of wrapping.
type Uint64 struct {
	context *Context
	pos     subtide.Bytes32
}

// NewUint64 creates a uint64 slot wrapper.
func NewUint64(context *Context, pos subtide.Bytes32) *Uint64 {
	return &Uint64{context: context, pos: pos}
}

// Get returns the stored value, zero when absent.
func (u *Uint64) Get() (uint64, error) {
	raw, err := u.context.get(u.pos)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	var value uint64
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return 0, err
	}
	return value, nil
}

// Set stores the value. Zero clears the slot.
func (u *Uint64) Set(value uint64) error {
	if value == 0 {
		return u.context.put(u.pos, nil)
	}
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return u.context.put(u.pos, raw)
}

// Add increases the stored value, saturating at the uint64 ceiling.
func (u *Uint64) Add(delta uint64) error {
	value, err := u.Get()
	if err != nil {
		return err
	}
	if value > math.MaxUint64-delta {
		value = math.MaxUint64
	} else {
		value += delta
	}
	return u.Set(value)
}

// Sub decreases the stored value, saturating at zero.
func (u *Uint64) Sub(delta uint64) error {
	value, err := u.Get()
	if err != nil {
		return err
	}
	if value < delta {
		value = 0
	} else {
		value -= delta
	}
	return u.Set(value)
}
