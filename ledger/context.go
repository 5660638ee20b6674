// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger provides typed storage primitives over a kv store: a
// storage context, Solidity-style mappings with hashed slot positions, and
// scalar slot wrappers. All values are rlp encoded.
package ledger

import (
	"github.com/subtide/subtide/kv"
	"github.com/subtide/subtide/subtide"
)

// Context binds storage primitives to a backing kv store.
type Context struct {
	store kv.GetPutter
}

// NewContext creates a new storage context.
func NewContext(store kv.GetPutter) *Context {
	return &Context{store: store}
}

// Store returns the backing store.
func (c *Context) Store() kv.GetPutter {
	return c.store
}

func (c *Context) get(pos subtide.Bytes32) ([]byte, error) {
	raw, err := c.store.Get(pos.Bytes())
	if err != nil {
		if c.store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

func (c *Context) put(pos subtide.Bytes32, raw []byte) error {
	if len(raw) == 0 {
		return c.store.Delete(pos.Bytes())
	}
	return c.store.Put(pos.Bytes(), raw)
}
