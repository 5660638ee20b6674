// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subtide

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	// AccountIDLength length of an account id in bytes.
	AccountIDLength = 32
)

// AccountID identifies an account, either a coldkey or a hotkey.
type AccountID [AccountIDLength]byte

// String implements the stringer interface
func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Bytes returns byte slice form of the account id.
func (a AccountID) Bytes() []byte {
	return a[:]
}

// IsZero returns true if the account id has all zero bytes.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// Compare compares two account ids lexicographically.
func (a AccountID) Compare(b AccountID) int {
	return bytes.Compare(a[:], b[:])
}

// ParseAccountID convert string presented account id into AccountID type.
func ParseAccountID(s string) (*AccountID, error) {
	if len(s) == AccountIDLength*2 {
	} else if len(s) == AccountIDLength*2+2 {
		if strings.ToLower(s[:2]) != "0x" {
			return nil, errors.New("invalid prefix")
		}
		s = s[2:]
	} else {
		return nil, errors.New("invalid length")
	}

	var id AccountID
	_, err := hex.Decode(id[:], []byte(s))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// BytesToAccountID converts bytes slice into an account id.
// If the byte slice is longer than the id length, tail bytes are truncated.
func BytesToAccountID(b []byte) AccountID {
	if len(b) > AccountIDLength {
		b = b[:AccountIDLength]
	}
	var id AccountID
	copy(id[AccountIDLength-len(b):], b)
	return id
}
