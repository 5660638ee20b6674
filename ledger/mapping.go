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

// Key is a mapping key, reduced to its byte representation.
type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction similar to the mapping in
// Solidity: values live at blake2b(key, basePos). A missing key decodes to
// the zero value, so defaults need no separate bookkeeping.
type Mapping[K Key, V any] struct {
	context *Context
	basePos subtide.Bytes32
}

// NewMapping creates a mapping rooted at the given slot.
func NewMapping[K Key, V any](context *Context, pos subtide.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

// Get returns the value stored under key, or the zero value when absent.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	position := subtide.Blake2b(key.Bytes(), m.basePos.Bytes())
	raw, err := m.context.get(position)
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

// Has reports whether any value is stored under key.
func (m *Mapping[K, V]) Has(key K) (bool, error) {
	position := subtide.Blake2b(key.Bytes(), m.basePos.Bytes())
	raw, err := m.context.get(position)
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// Set stores the value under key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	position := subtide.Blake2b(key.Bytes(), m.basePos.Bytes())
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.context.put(position, raw)
}

// Delete removes the value stored under key.
func (m *Mapping[K, V]) Delete(key K) error {
	position := subtide.Blake2b(key.Bytes(), m.basePos.Bytes())
	return m.context.put(position, nil)
}
