// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log re-exports the logging facade used across the turbine
// pipeline so callers depend on a single, narrow import.
package log

import (
	"github.com/luxfi/log"
)

// Logger is the structured logger every component accepts.
type Logger = log.Logger

// NewNoOp returns a logger that discards everything, used as the default
// when a caller does not supply one.
func NewNoOp() Logger {
	return log.NewNoOpLogger()
}
