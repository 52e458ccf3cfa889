// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package epochcache memoizes clusternodes.Table construction per epoch,
// rebuilding only when a cached snapshot goes stale. Building a table
// from a fresh stake/contact snapshot is cheap but not free (a sort and
// a weighted-shuffle build over every staked peer), and every shred in
// an epoch needs the same table, so it is built at most once per TTL
// window per epoch rather than once per shred.
package epochcache

import (
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/luxfi/ids"
	"github.com/luxfi/turbine/clusternodes"
	"github.com/luxfi/turbine/log"
	"github.com/luxfi/turbine/metrics"
)

// ErrMissingEpochStakes marks an epoch for which neither the root bank
// nor the working bank had a staked-nodes snapshot. It is never
// returned from Get; Cache logs it once per occurrence and proceeds
// with an empty stake map rather than failing the caller.
var ErrMissingEpochStakes = errors.New("epochcache: missing epoch stakes")

// StakeView is the subset of a bank's state Cache needs: the staked
// node set for an epoch (if known), the bank's own slot, and the
// leader-schedule epoch a slot falls into. Root and working bank views
// are both StakeView; Cache tries the root bank first.
type StakeView interface {
	StakedNodes(epoch uint64) (map[ids.NodeID]uint64, bool)
	Slot() uint64
	LeaderScheduleEpoch(slot uint64) uint64
}

type entry struct {
	mu    sync.Mutex
	asOf  time.Time
	table *clusternodes.Table
}

// Cache is a bounded, per-epoch cache of clusternodes.Table snapshots,
// single-flighted per epoch: concurrent callers for the same stale or
// absent epoch block on that epoch's entry mutex, and only the first to
// acquire it rebuilds.
type Cache struct {
	self     ids.NodeID
	strategy clusternodes.Strategy
	ttl      time.Duration
	logger   log.Logger
	metrics  *metrics.Turbine

	mu  sync.Mutex // guards get-or-insert into lru; never held during a rebuild
	lru *lru.Cache[uint64, *entry]
}

// New builds a Cache for self, keyed by the leader-schedule epoch of
// incoming shreds, bounded to capacity epochs and refreshing an entry
// no more often than ttl.
func New(self ids.NodeID, strategy clusternodes.Strategy, capacity int, ttl time.Duration, logger log.Logger, m *metrics.Turbine) (*Cache, error) {
	if logger == nil {
		logger = log.NewNoOp()
	}
	l, err := lru.New[uint64, *entry](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{self: self, strategy: strategy, ttl: ttl, logger: logger, metrics: m, lru: l}, nil
}

// Get returns the Table for shredSlot's leader-schedule epoch, building
// or refreshing it if the cached entry is absent or older than ttl.
func (c *Cache) Get(shredSlot uint64, rootBank, workingBank StakeView, contacts clusternodes.ContactProvider) (*clusternodes.Table, error) {
	return c.get(shredSlot, rootBank, workingBank, contacts, false)
}

func (c *Cache) get(shredSlot uint64, rootBank, workingBank StakeView, contacts clusternodes.ContactProvider, recursed bool) (*clusternodes.Table, error) {
	epoch := rootBank.LeaderScheduleEpoch(shredSlot)

	c.mu.Lock()
	e, ok := c.lru.Get(epoch)
	if !ok {
		e = &entry{}
		c.lru.Add(epoch, e)
	}
	c.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	if e.table != nil && now.Sub(e.asOf) < c.ttl {
		c.hit()
		return e.table, nil
	}
	c.miss()

	stakes, ok := rootBank.StakedNodes(epoch)
	if !ok {
		stakes, ok = workingBank.StakedNodes(epoch)
	}
	if !ok {
		currentEpoch := rootBank.LeaderScheduleEpoch(rootBank.Slot())
		if !recursed && epoch != currentEpoch {
			table, err := c.get(rootBank.Slot(), rootBank, workingBank, contacts, true)
			if err != nil {
				return nil, err
			}
			// Cache the fallback result on this (missing-stakes) epoch's
			// own entry too, so repeat lookups for it hit the TTL window
			// instead of re-running the double-lookup-and-recurse path
			// for every shred in the epoch.
			e.table = table
			e.asOf = now
			return table, nil
		}
		c.logger.Warn(ErrMissingEpochStakes.Error(), "epoch", epoch)
		stakes = map[ids.NodeID]uint64{}
	}

	table, err := clusternodes.New(c.self, stakeProvider(stakes), contacts, c.strategy)
	if err != nil {
		return nil, err
	}
	e.table = table
	e.asOf = now
	return table, nil
}

func (c *Cache) hit() {
	if c.metrics != nil {
		c.metrics.EpochCacheHits.Inc()
	}
}

func (c *Cache) miss() {
	if c.metrics != nil {
		c.metrics.EpochCacheMisses.Inc()
	}
}

type stakeProvider map[ids.NodeID]uint64

func (s stakeProvider) Stakes() map[ids.NodeID]uint64 {
	return s
}
