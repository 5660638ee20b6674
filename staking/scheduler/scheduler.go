// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package scheduler queues staking jobs for execution at a later block.
// Jobs submitted during block N are drained while finalizing block N+1,
// replayed in an order seeded by the parent block hash so that the order
// is deterministic for every node yet not chosen by any submitter.
package scheduler

import (
	"encoding/binary"
	"sort"

	"github.com/subtide/subtide/ledger"
	"github.com/subtide/subtide/log"
	"github.com/subtide/subtide/metrics"
	"github.com/subtide/subtide/staking/events"
	"github.com/subtide/subtide/subtide"
)

var (
	logger = log.WithContext("pkg", "scheduler")

	slotJobs = subtide.BytesToBytes32([]byte("deferred-stake-jobs"))

	metricJobs = metrics.LazyLoad(func() metrics.CountVecMeter {
		return metrics.CounterVec("staking_jobs_processed_count", []string{"kind", "outcome"})
	})
)

// Kind identifies the staking operation a deferred job replays.
type Kind uint8

const (
	KindAddStake Kind = iota
	KindAddStakeLimit
	KindRemoveStake
	KindRemoveStakeLimit
	KindUnstakeAll
	KindUnstakeAllAlpha
)

func (k Kind) String() string {
	switch k {
	case KindAddStake:
		return "add-stake"
	case KindAddStakeLimit:
		return "add-stake-limit"
	case KindRemoveStake:
		return "remove-stake"
	case KindRemoveStakeLimit:
		return "remove-stake-limit"
	case KindUnstakeAll:
		return "unstake-all"
	case KindUnstakeAllAlpha:
		return "unstake-all-alpha"
	default:
		return "unknown"
	}
}

// isWithdrawal reports whether the kind takes stake out of a subnet.
// Withdrawals run before deposits so freed liquidity is available to them.
func (k Kind) isWithdrawal() bool {
	switch k {
	case KindRemoveStake, KindRemoveStakeLimit, KindUnstakeAll, KindUnstakeAllAlpha:
		return true
	default:
		return false
	}
}

// Job is one deferred staking operation. Unused fields are zero for
// kinds that do not carry them.
type Job struct {
	Kind         Kind
	Coldkey      subtide.AccountID
	Hotkey       subtide.AccountID
	Netuid       uint16
	Amount       uint64
	LimitPrice   uint64
	AllowPartial bool
}

// Handler replays drained jobs. Implementations return the operation's
// output amount, which the scheduler reports but does not interpret.
type Handler interface {
	AddStake(coldkey, hotkey subtide.AccountID, netuid uint16, tao uint64) (uint64, error)
	AddStakeLimit(coldkey, hotkey subtide.AccountID, netuid uint16, tao, limitPrice uint64, allowPartial bool) (uint64, error)
	RemoveStake(coldkey, hotkey subtide.AccountID, netuid uint16, alpha uint64) (uint64, error)
	RemoveStakeLimit(coldkey, hotkey subtide.AccountID, netuid uint16, alpha, limitPrice uint64, allowPartial bool) (uint64, error)
	UnstakeAll(coldkey, hotkey subtide.AccountID) (uint64, error)
	UnstakeAllAlpha(coldkey, hotkey subtide.AccountID) (uint64, error)
}

type blockKey uint64

func (k blockKey) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}

// Service stores and drains the deferred job queue.
type Service struct {
	jobs *ledger.Mapping[blockKey, []*Job]
	sink events.Sink
}

// New creates a scheduler service on the given ledger context.
func New(context *ledger.Context, sink events.Sink) *Service {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Service{
		jobs: ledger.NewMapping[blockKey, []*Job](context, slotJobs),
		sink: sink,
	}
}

// Schedule queues a job submitted during the given block. It runs when
// that block's successor is finalized.
func (s *Service) Schedule(block uint64, job *Job) error {
	queued, err := s.jobs.Get(blockKey(block))
	if err != nil {
		return err
	}
	logger.Debug("job scheduled", "kind", job.Kind, "block", block, "queued", len(queued)+1)
	return s.jobs.Set(blockKey(block), append(queued, job))
}

// Due returns the jobs that will drain at the given block, without
// removing them.
func (s *Service) Due(currentBlock uint64) ([]*Job, error) {
	if currentBlock < subtide.JobDelayBlocks {
		return nil, nil
	}
	return s.jobs.Get(blockKey(currentBlock - subtide.JobDelayBlocks))
}

// RunDue drains the jobs that became due at the given block and replays
// them through the handler. The parent block hash seeds the replay
// order. A failing job is reported and skipped; it never aborts the
// drain or its siblings.
func (s *Service) RunDue(currentBlock uint64, parentHash subtide.Bytes32, h Handler) error {
	if currentBlock < subtide.JobDelayBlocks {
		return nil
	}
	due := blockKey(currentBlock - subtide.JobDelayBlocks)
	jobs, err := s.jobs.Get(due)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}
	if err := s.jobs.Delete(due); err != nil {
		return err
	}

	flip := parentHash[0]&0x80 != 0
	for _, batch := range order(jobs, flip) {
		for _, job := range batch {
			s.run(job, h)
		}
	}
	logger.Debug("drained job queue", "block", currentBlock, "jobs", len(jobs), "flip", flip)
	return nil
}

// order partitions jobs by kind and arranges them for replay:
// withdrawal kinds first, each batch sorted by coldkey (withdrawals
// ascending, deposits descending). When flip is set both the batch
// order and every sort direction are reversed.
func order(jobs []*Job, flip bool) [][]*Job {
	batches := [][]*Job{
		nil, // KindRemoveStakeLimit
		nil, // KindRemoveStake
		nil, // KindUnstakeAll
		nil, // KindUnstakeAllAlpha
		nil, // KindAddStakeLimit
		nil, // KindAddStake
	}
	index := map[Kind]int{
		KindRemoveStakeLimit: 0,
		KindRemoveStake:      1,
		KindUnstakeAll:       2,
		KindUnstakeAllAlpha:  3,
		KindAddStakeLimit:    4,
		KindAddStake:         5,
	}
	for _, job := range jobs {
		i := index[job.Kind]
		batches[i] = append(batches[i], job)
	}
	for _, batch := range batches {
		if len(batch) < 2 {
			continue
		}
		ascending := batch[0].Kind.isWithdrawal()
		if flip {
			ascending = !ascending
		}
		sort.SliceStable(batch, func(i, j int) bool {
			c := batch[i].Coldkey.Compare(batch[j].Coldkey)
			if ascending {
				return c < 0
			}
			return c > 0
		})
	}
	if flip {
		for i, j := 0, len(batches)-1; i < j; i, j = i+1, j-1 {
			batches[i], batches[j] = batches[j], batches[i]
		}
	}
	return batches
}

func (s *Service) run(job *Job, h Handler) {
	var err error
	switch job.Kind {
	case KindAddStake:
		_, err = h.AddStake(job.Coldkey, job.Hotkey, job.Netuid, job.Amount)
	case KindAddStakeLimit:
		_, err = h.AddStakeLimit(job.Coldkey, job.Hotkey, job.Netuid, job.Amount, job.LimitPrice, job.AllowPartial)
	case KindRemoveStake:
		_, err = h.RemoveStake(job.Coldkey, job.Hotkey, job.Netuid, job.Amount)
	case KindRemoveStakeLimit:
		_, err = h.RemoveStakeLimit(job.Coldkey, job.Hotkey, job.Netuid, job.Amount, job.LimitPrice, job.AllowPartial)
	case KindUnstakeAll:
		_, err = h.UnstakeAll(job.Coldkey, job.Hotkey)
	case KindUnstakeAllAlpha:
		_, err = h.UnstakeAllAlpha(job.Coldkey, job.Hotkey)
	}

	if err != nil {
		logger.Debug("deferred job failed", "kind", job.Kind, "coldkey", job.Coldkey, "err", err)
		metricJobs().AddWithLabel(1, map[string]string{"kind": job.Kind.String(), "outcome": "failed"})
		s.sink.Emit(events.JobFailed{
			Kind:         job.Kind.String(),
			Coldkey:      job.Coldkey,
			Hotkey:       job.Hotkey,
			Netuid:       job.Netuid,
			Amount:       job.Amount,
			LimitPrice:   job.LimitPrice,
			AllowPartial: job.AllowPartial,
			Reason:       err.Error(),
		})
		return
	}
	metricJobs().AddWithLabel(1, map[string]string{"kind": job.Kind.String(), "outcome": "succeeded"})
	s.sink.Emit(events.JobSucceeded{
		Kind:         job.Kind.String(),
		Coldkey:      job.Coldkey,
		Hotkey:       job.Hotkey,
		Netuid:       job.Netuid,
		Amount:       job.Amount,
		LimitPrice:   job.LimitPrice,
		AllowPartial: job.AllowPartial,
	})
}
