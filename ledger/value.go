// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/subtide/subtide/subtide"
)

// Value is a wrapper for storage and retrieval of a single typed slot.
type Value[V any] struct {
	context *Context
	pos     subtide.Bytes32
}

// NewValue creates a typed slot wrapper.
func NewValue[V any](context *Context, pos subtide.Bytes32) *Value[V] {
	return &Value[V]{context: context, pos: pos}
}

// Get returns the stored value, or the zero value when absent.
func (v *Value[V]) Get() (value V, err error) {
	raw, err := v.context.get(v.pos)
	if err != nil {
		return value, err
	}
	if reflect.ValueOf(value).Kind() == reflect.Ptr {
		value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
	}
	if len(raw) == 0 {
		return value, nil
	}
	err = rlp.DecodeBytes(raw, &value)
	return value, err
}

// Set stores the value.
func (v *Value[V]) Set(value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return v.context.put(v.pos, raw)
}

// Delete clears the slot.
func (v *Value[V]) Delete() error {
	return v.context.put(v.pos, nil)
}
