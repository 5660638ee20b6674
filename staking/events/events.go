// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events defines the engine's emitted events and the sink they are
// delivered to. Emission is synchronous and ordered; the sink is external
// plumbing and must not fail.
package events

import (
	"github.com/subtide/subtide/subtide"
)

// Event is implemented by every emitted event type.
type Event interface {
	EventName() string
}

// Sink receives events as they are emitted.
type Sink interface {
	Emit(Event)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// StakeAdded is emitted when tao is staked into a subnet.
type StakeAdded struct {
	Coldkey subtide.AccountID
	Hotkey  subtide.AccountID
	Tao     uint64 // tao staked, after fee
	Alpha   uint64 // alpha credited to the hotkey
	Netuid  uint16
	Fee     uint64
}

func (StakeAdded) EventName() string { return "StakeAdded" }

// StakeRemoved is emitted when alpha is unstaked from a subnet.
type StakeRemoved struct {
	Coldkey subtide.AccountID
	Hotkey  subtide.AccountID
	Tao     uint64 // tao returned, after fee
	Alpha   uint64 // alpha debited from the hotkey
	Netuid  uint16
	Fee     uint64
}

func (StakeRemoved) EventName() string { return "StakeRemoved" }

// JobSucceeded is emitted for every deferred job that replayed cleanly,
// mirroring the job kind it carries.
type JobSucceeded struct {
	Kind         string
	Coldkey      subtide.AccountID
	Hotkey       subtide.AccountID
	Netuid       uint16
	Amount       uint64
	LimitPrice   uint64
	AllowPartial bool
}

func (JobSucceeded) EventName() string { return "JobSucceeded" }

// JobFailed is emitted for every deferred job whose replay returned an
// error. The failure never affects sibling jobs.
type JobFailed struct {
	Kind         string
	Coldkey      subtide.AccountID
	Hotkey       subtide.AccountID
	Netuid       uint16
	Amount       uint64
	LimitPrice   uint64
	AllowPartial bool
	Reason       string
}

func (JobFailed) EventName() string { return "JobFailed" }
