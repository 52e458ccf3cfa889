// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package broadcast

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/luxfi/turbine/shred"
)

// UDPWireSink is the default WireSink: one shred per UDP datagram over
// a shared net.PacketConn. Raw net is used deliberately here rather
// than a higher-level transport library — see DESIGN.md for why no
// pack library fits a bit-exact one-shred-per-datagram boundary.
type UDPWireSink struct {
	mu   sync.RWMutex
	conn net.PacketConn
}

// NewUDPWireSink wraps an already-bound socket. A nil conn makes every
// Send report ErrSinkClosed, matching a sink torn down during shutdown.
func NewUDPWireSink(conn net.PacketConn) *UDPWireSink {
	return &UDPWireSink{conn: conn}
}

// Send marshals s to its wire frame and writes it as a single datagram
// to addr. Safe to call concurrently with Close: broadcast.Loop fans
// sends out across an errgroup while shutdown may close the sink.
func (u *UDPWireSink) Send(ctx context.Context, addr net.Addr, s *shred.Shred) error {
	u.mu.RLock()
	conn := u.conn
	u.mu.RUnlock()
	if conn == nil {
		return ErrSinkClosed
	}
	wire, err := s.MarshalBinary()
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	_, err = conn.WriteTo(wire, addr)
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return ErrSinkClosed
		}
		return err
	}
	return nil
}

// Close releases the underlying socket. Subsequent Sends report
// ErrSinkClosed.
func (u *UDPWireSink) Close() error {
	u.mu.Lock()
	conn := u.conn
	u.conn = nil
	u.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
