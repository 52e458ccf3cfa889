// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package shredder turns a leader's stream of entry batches into signed
// data shreds and their FEC coding shreds, tracking the unfinished-slot
// carry across calls and emitting a finalization batch whenever a new
// slot's first entries interrupt the previous one.
package shredder

import (
	"crypto/ed25519"
	"errors"

	"github.com/luxfi/turbine/config"
	"github.com/luxfi/turbine/shred"
)

// ErrSlotMismatch indicates the carry's slot disagrees with the slot
// Entries was called for after accounting for a slot change — a caller
// bug, since Entries is responsible for detecting and finalizing slot
// transitions itself. It is never returned; Machine panics on it, per
// the "never recovers from invariant violations" policy.
var ErrSlotMismatch = errors.New("shredder: carry slot does not match incoming entries")

// Entry is one ledger entry's serialized bytes, already sized to fit a
// single data shred's payload.
type Entry struct {
	Data []byte
}

// Batch is one outbound unit: either a data batch, a coding batch, or
// (for the slot-interruption case) both combined into one terminator
// batch.
type Batch struct {
	Slot               uint64
	DataShreds         []*shred.Shred
	CodingShreds       []*shred.Shred
	IsSlotEnd          bool
	WasInterrupted     bool
	NumExpectedBatches int // only set on the slot's terminal batch
}

// LedgerMetadata is the persisted-slot view Machine consults to resume
// a slot it didn't start shredding (e.g. after a restart) and to
// durably record a slot's first shred before any outbound send.
type LedgerMetadata interface {
	NextShredIndex(slot uint64) (nextIndex, fecOffset uint32, ok bool)
	InsertFirstShred(s *shred.Shred) error
}

type carry struct {
	slot           uint64
	parent         uint64
	nextShredIndex uint32
	fecSetOffset   uint32
	buffer         []*shred.Shred
	lastTicksSoFar uint64
}

// Machine is the per-leader-slot shredding state machine. It is not
// safe for concurrent use; a single broadcast run thread owns it.
type Machine struct {
	cfg    config.Config
	priv   ed25519.PrivateKey
	ledger LedgerMetadata

	carry           *carry
	batchesThisSlot int
}

// New constructs a Machine signing shreds with priv and consulting
// ledger for carry recovery and first-shred durability. A nil ledger
// always starts a new slot's carry at (0, 0) and skips the
// first-shred insert.
func New(cfg config.Config, priv ed25519.PrivateKey, ledger LedgerMetadata) *Machine {
	return &Machine{cfg: cfg, priv: priv, ledger: ledger}
}

// Entries processes one arrival of entries for slot, per spec: a slot
// change first finalizes the prior slot, then entries are converted to
// signed data shreds starting at the carry's next index, and completed
// FEC groups are drained into coding shreds.
func (m *Machine) Entries(slot, parent, ticksSoFar uint64, entries []Entry, isLast bool) ([]Batch, error) {
	var batches []Batch

	if m.carry != nil && m.carry.slot != slot {
		fb, err := m.finalizePrevious()
		if err != nil {
			return nil, err
		}
		batches = append(batches, fb)
		m.carry = nil
		m.batchesThisSlot = 0
	}

	if m.carry == nil {
		nextIndex, fecOffset := uint32(0), uint32(0)
		if m.ledger != nil {
			if n, f, ok := m.ledger.NextShredIndex(slot); ok {
				nextIndex, fecOffset = n, f
			}
		}
		m.carry = &carry{slot: slot, parent: parent, nextShredIndex: nextIndex, fecSetOffset: fecOffset}
	}
	if m.carry.slot != slot {
		panic(ErrSlotMismatch)
	}
	m.carry.lastTicksSoFar = ticksSoFar

	dataShreds := make([]*shred.Shred, 0, len(entries))
	for i, e := range entries {
		isLastShred := isLast && i == len(entries)-1
		s := &shred.Shred{
			Slot:          slot,
			Index:         m.carry.nextShredIndex,
			FECSetIndex:   m.carry.fecSetOffset,
			ShredVersion:  m.cfg.ShredVersion,
			Kind:          shred.Data,
			Payload:       e.Data,
			ParentOffset:  uint16(slot - parent),
			ReferenceTick: uint8(ticksSoFar & 0x3f),
			LastInFECSet:  isLastShred,
			LastInSlot:    isLastShred,
		}
		if err := s.Sign(m.priv); err != nil {
			return nil, err
		}

		if s.Index == 0 && m.ledger != nil {
			if err := m.ledger.InsertFirstShred(s); err != nil {
				return nil, err
			}
		}

		dataShreds = append(dataShreds, s)
		m.carry.buffer = append(m.carry.buffer, s)
		m.carry.nextShredIndex++
	}

	batches = append(batches, Batch{Slot: slot, DataShreds: dataShreds})
	newBatches := 1

	codingBatch, err := m.drainFEC(isLast)
	if err != nil {
		return nil, err
	}
	if codingBatch != nil {
		batches = append(batches, *codingBatch)
		newBatches++
	}
	m.batchesThisSlot += newBatches

	if isLast {
		batches[len(batches)-1].NumExpectedBatches = m.batchesThisSlot
		m.carry = nil
		m.batchesThisSlot = 0
	}

	return batches, nil
}

// drainFEC removes the largest MaxDataShredsPerFECBlock-aligned prefix
// of the buffer (or everything, if flushAll) and encodes it into a
// coding batch. It returns nil if nothing is ready to drain.
func (m *Machine) drainFEC(flushAll bool) (*Batch, error) {
	n := len(m.carry.buffer)
	drain := n
	if !flushAll {
		block := m.cfg.MaxDataShredsPerFECBlock
		drain = (n / block) * block
	}
	if drain == 0 {
		return nil, nil
	}

	group := m.carry.buffer[:drain]
	coding, err := shred.EncodeFEC(group, m.cfg.ShredVersion)
	if err != nil {
		return nil, err
	}
	m.carry.buffer = m.carry.buffer[drain:]
	m.carry.fecSetOffset += uint32(drain)

	return &Batch{Slot: m.carry.slot, CodingShreds: coding, IsSlotEnd: flushAll}, nil
}

// finalizePrevious synthesizes the terminator shred for the carry's
// slot, flushes its buffer (plus the terminator) as a final coding
// group, and returns both as one batch tagged WasInterrupted.
func (m *Machine) finalizePrevious() (Batch, error) {
	c := m.carry
	s := &shred.Shred{
		Slot:          c.slot,
		Index:         c.nextShredIndex,
		FECSetIndex:   c.fecSetOffset,
		ShredVersion:  m.cfg.ShredVersion,
		Kind:          shred.Data,
		ParentOffset:  uint16(c.slot - c.parent),
		ReferenceTick: uint8(c.lastTicksSoFar & 0x3f),
		LastInFECSet:  true,
		LastInSlot:    true,
	}
	if err := s.Sign(m.priv); err != nil {
		return Batch{}, err
	}
	c.buffer = append(c.buffer, s)

	coding, err := shred.EncodeFEC(c.buffer, m.cfg.ShredVersion)
	if err != nil {
		return Batch{}, err
	}

	return Batch{
		Slot:               c.slot,
		DataShreds:         []*shred.Shred{s},
		CodingShreds:       coding,
		IsSlotEnd:          true,
		WasInterrupted:     true,
		NumExpectedBatches: m.batchesThisSlot + 1,
	}, nil
}
