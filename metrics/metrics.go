// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wires the turbine pipeline into a Prometheus registry.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the registerer every component registers its collectors
// into. A zero-value Metrics with a nil Registry is valid and causes
// Register to no-op, which keeps tests from needing a live registry.
type Metrics struct {
	Registry prometheus.Registerer
}

// New wraps the given registerer. Pass prometheus.NewRegistry() in
// production and nil in tests that don't care about metrics.
func New(registry prometheus.Registerer) *Metrics {
	return &Metrics{Registry: registry}
}

// Register adds a collector to the registry, ignoring duplicate
// registration errors so components can be constructed more than once
// in tests without panicking.
func (m *Metrics) Register(c prometheus.Collector) error {
	if m == nil || m.Registry == nil {
		return nil
	}
	if err := m.Registry.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}
