// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Turbine bundles the collectors the broadcast pipeline updates on the
// data path. Keep this struct's fields exported so packages can update
// them directly without round-tripping through a setter per metric.
type Turbine struct {
	ShredsSent         prometheus.Counter
	CodingShredsSent   prometheus.Counter
	FECSetsCompleted   prometheus.Counter
	SlotsFinalized     prometheus.Counter
	EpochCacheHits     prometheus.Counter
	EpochCacheMisses   prometheus.Counter
	RetransmitPeers    prometheus.Histogram
	ShuffleDuration     prometheus.Histogram
	DroppedWireWrites  prometheus.Counter
}

// NewTurbine constructs the collector set and registers each of them.
// Registration errors are swallowed (see Metrics.Register) so a process
// that builds more than one Turbine in tests doesn't panic.
func NewTurbine(m *Metrics) *Turbine {
	t := &Turbine{
		ShredsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turbine",
			Name:      "shreds_sent_total",
			Help:      "Data shreds handed to the wire sink.",
		}),
		CodingShredsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turbine",
			Name:      "coding_shreds_sent_total",
			Help:      "FEC coding shreds handed to the wire sink.",
		}),
		FECSetsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turbine",
			Name:      "fec_sets_completed_total",
			Help:      "FEC sets that reached MaxDataShredsPerFECBlock or were flushed at slot finalization.",
		}),
		SlotsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turbine",
			Name:      "slots_finalized_total",
			Help:      "Slots for which the last data shred has been emitted.",
		}),
		EpochCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turbine",
			Name:      "epoch_cache_hits_total",
			Help:      "Epoch cache lookups served from an unexpired entry.",
		}),
		EpochCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turbine",
			Name:      "epoch_cache_misses_total",
			Help:      "Epoch cache lookups that triggered a refresh.",
		}),
		RetransmitPeers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "turbine",
			Name:      "retransmit_peers",
			Help:      "Number of peers returned per retransmit resolution.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 200},
		}),
		ShuffleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "turbine",
			Name:      "shuffle_duration_seconds",
			Help:      "Time spent computing a deterministic weighted shuffle.",
			Buckets:   prometheus.DefBuckets,
		}),
		DroppedWireWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turbine",
			Name:      "dropped_wire_writes_total",
			Help:      "Wire sink writes that returned an error and were dropped.",
		}),
	}

	for _, c := range []prometheus.Collector{
		t.ShredsSent, t.CodingShredsSent, t.FECSetsCompleted, t.SlotsFinalized,
		t.EpochCacheHits, t.EpochCacheMisses, t.RetransmitPeers, t.ShuffleDuration,
		t.DroppedWireWrites,
	} {
		_ = m.Register(c)
	}

	return t
}
