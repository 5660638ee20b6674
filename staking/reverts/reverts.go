// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the typed failures surfaced by staking
// validation. A revert means no state was changed; any other error is an
// unexpected storage failure.
package reverts

import (
	"errors"
)

type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// IsRevertErr reports whether err is a typed validation failure.
func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// The validation failure taxonomy. Each entry is a distinct sentinel so
// callers can match with errors.Is.
var (
	ErrSubnetNotExists          = New("subnet does not exist")
	ErrAmountTooLow             = New("amount too low")
	ErrSlippageTooHigh          = New("slippage too high")
	ErrNotEnoughBalanceToStake  = New("not enough balance to stake")
	ErrHotKeyAccountNotExists   = New("hotkey account does not exist")
	ErrInsufficientLiquidity    = New("insufficient liquidity")
	ErrNotEnoughStakeToWithdraw = New("not enough stake to withdraw")
	ErrTransferDisallowed       = New("transfer disallowed")
	ErrSubtokenDisabled         = New("subtoken disabled")
)
