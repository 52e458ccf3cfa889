// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package broadcast binds the shredding state machine to an entry
// receiver, a wire sink, and a ledger sink, resolving each shred's
// recipients through the turbine resolver and a cached node table.
package broadcast

import (
	"context"
	"errors"
	"net"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/ids"
	"github.com/luxfi/turbine/clusternodes"
	"github.com/luxfi/turbine/epochcache"
	"github.com/luxfi/turbine/log"
	"github.com/luxfi/turbine/metrics"
	"github.com/luxfi/turbine/shred"
	"github.com/luxfi/turbine/shredder"
	"github.com/luxfi/turbine/turbine"
)

// ErrSinkClosed maps to the TransientChannelLoss error kind: a sink is
// disconnected and the relevant send is dropped, not fatal.
var ErrSinkClosed = errors.New("broadcast: sink is closed")

// WireSink delivers one shred to one address, one shred per call.
type WireSink interface {
	Send(ctx context.Context, addr net.Addr, s *shred.Shred) error
}

// LedgerSink durably records a batch of shreds. Failures here are
// fatal per the broadcast pipeline's error policy: a leader cannot
// safely continue without durable first-shred persistence.
type LedgerSink interface {
	InsertShreds(ctx context.Context, shreds []*shred.Shred) error
}

// EntryBatch is one arrival on the entry channel, the Go shape of
// spec's Entries(slot, parent, ticks_so_far, entries, is_last) event.
type EntryBatch struct {
	Slot       uint64
	Parent     uint64
	TicksSoFar uint64
	Entries    []shredder.Entry
	IsLast     bool
}

// shredIdentity adapts a *shred.Shred's Slot/Index fields to the
// turbine.ShredIdentity method interface.
type shredIdentity struct{ s *shred.Shred }

func (si shredIdentity) Slot() uint64  { return si.s.Slot }
func (si shredIdentity) Index() uint32 { return si.s.Index }

// Loop is the broadcast run loop: for each entry arrival it runs the
// shredding state machine, persists the resulting shreds, and fans out
// per-shred peer resolution across a worker pool before dispatching to
// the wire sink.
type Loop struct {
	self     ids.NodeID
	machine  *shredder.Machine
	resolver *turbine.Resolver
	cache    *epochcache.Cache
	wire     WireSink
	ledger   LedgerSink
	logger   log.Logger
	metrics  *metrics.Turbine
}

// NewLoop constructs a Loop. A nil logger defaults to a no-op logger.
func NewLoop(self ids.NodeID, machine *shredder.Machine, resolver *turbine.Resolver, cache *epochcache.Cache, wire WireSink, ledger LedgerSink, logger log.Logger, m *metrics.Turbine) *Loop {
	if logger == nil {
		logger = log.NewNoOp()
	}
	return &Loop{self: self, machine: machine, resolver: resolver, cache: cache, wire: wire, ledger: ledger, logger: logger, metrics: m}
}

// Run consumes entryCh until it is closed or ctx is cancelled, whichever
// the caller observes first, matching spec's "drop sender → disconnect
// → exit" shutdown model. A LedgerSink failure is returned immediately
// to the caller (the supervisor); a WireSink failure is logged and
// counted, never fatal.
func (l *Loop) Run(ctx context.Context, entryCh <-chan EntryBatch, bank turbine.RootBankView, rootBank, workingBank epochcache.StakeView, contacts clusternodes.ContactProvider) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case eb, ok := <-entryCh:
			if !ok {
				return nil
			}
			batches, err := l.machine.Entries(eb.Slot, eb.Parent, eb.TicksSoFar, eb.Entries, eb.IsLast)
			if err != nil {
				return err
			}
			for _, b := range batches {
				if err := l.dispatch(ctx, b, bank, rootBank, workingBank, contacts); err != nil {
					return err
				}
			}
		}
	}
}

func (l *Loop) dispatch(ctx context.Context, b shredder.Batch, bank turbine.RootBankView, rootBank, workingBank epochcache.StakeView, contacts clusternodes.ContactProvider) error {
	all := make([]*shred.Shred, 0, len(b.DataShreds)+len(b.CodingShreds))
	all = append(all, b.DataShreds...)
	all = append(all, b.CodingShreds...)
	if len(all) == 0 {
		return nil
	}

	if err := l.ledger.InsertShreds(ctx, all); err != nil {
		return err
	}
	if l.metrics != nil && len(b.CodingShreds) > 0 {
		l.metrics.FECSetsCompleted.Inc()
	}

	table, err := l.cache.Get(b.Slot, rootBank, workingBank, contacts)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, s := range all {
		s := s
		g.Go(func() error {
			return l.sendOne(gctx, table, s, bank)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if b.IsSlotEnd {
		if l.metrics != nil {
			l.metrics.SlotsFinalized.Inc()
		}
	}
	return nil
}

func (l *Loop) sendOne(ctx context.Context, table *clusternodes.Table, s *shred.Shred, bank turbine.RootBankView) error {
	addrs := l.resolver.BroadcastAddrs(table, l.self, shredIdentity{s}, bank)
	for _, addr := range addrs {
		if err := l.wire.Send(ctx, addr, s); err != nil {
			if l.metrics != nil {
				l.metrics.DroppedWireWrites.Inc()
			}
			if errors.Is(err, ErrSinkClosed) {
				l.logger.Warn("wire sink closed, dropping shred", "slot", s.Slot, "index", s.Index)
			} else {
				l.logger.Warn("wire send failed, dropping shred", "slot", s.Slot, "index", s.Index, "addr", addr, "error", err)
			}
			continue
		}
		if l.metrics != nil {
			if s.Kind == shred.Data {
				l.metrics.ShredsSent.Inc()
			} else {
				l.metrics.CodingShredsSent.Inc()
			}
		}
	}
	return nil
}
