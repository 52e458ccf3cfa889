// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package shredder

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/turbine/config"
	"github.com/luxfi/turbine/shred"
)

func testMachine(t *testing.T) *Machine {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	cfg := config.Config{
		ShredVersion:             1,
		Fanout:                   8,
		MaxDataShredsPerFECBlock: 32,
		EpochCacheCapacity:       1,
		EpochCacheTTL:            time.Second,
	}
	require.NoError(t, cfg.Validate())
	return New(cfg, priv, nil)
}

// TestSingleEntrySingleSlotEnd exercises scenario S1.
func TestSingleEntrySingleSlotEnd(t *testing.T) {
	m := testMachine(t)
	batches, err := m.Entries(10, 9, 0, []Entry{{Data: []byte("entry-0")}}, true)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	data := batches[0]
	require.Len(t, data.DataShreds, 1)
	require.Equal(t, uint32(0), data.DataShreds[0].Index)
	require.True(t, data.DataShreds[0].LastInSlot)
	require.Equal(t, uint32(0), data.DataShreds[0].FECSetIndex)

	coding := batches[1]
	require.NotEmpty(t, coding.CodingShreds)
	require.Equal(t, 2, coding.NumExpectedBatches)
}

// TestSlotInterruptionFinalizesPriorSlot exercises scenario S2: entries
// for a new slot arrive while the previous slot's carry is mid-FEC-group.
func TestSlotInterruptionFinalizesPriorSlot(t *testing.T) {
	m := testMachine(t)

	_, err := m.Entries(10, 9, 0, []Entry{
		{Data: []byte("a")}, {Data: []byte("b")}, {Data: []byte("c")},
	}, false)
	require.NoError(t, err)
	require.Equal(t, uint32(3), m.carry.nextShredIndex)
	require.Len(t, m.carry.buffer, 3)

	batches, err := m.Entries(11, 10, 0, []Entry{{Data: []byte("first of 11")}}, false)
	require.NoError(t, err)
	require.Len(t, batches, 2) // finalization batch for slot 10, then slot 11's data batch

	finalBatch := batches[0]
	require.True(t, finalBatch.WasInterrupted)
	require.True(t, finalBatch.IsSlotEnd)
	require.Len(t, finalBatch.DataShreds, 1)
	require.Equal(t, uint32(3), finalBatch.DataShreds[0].Index)
	require.True(t, finalBatch.DataShreds[0].LastInSlot)
	require.True(t, finalBatch.DataShreds[0].LastInFECSet)
	require.NotEmpty(t, finalBatch.CodingShreds)

	for _, b := range batches[1:] {
		require.False(t, b.WasInterrupted)
		require.Equal(t, uint64(11), b.Slot)
	}
}

// TestDataShredIndicesAreDenseAndGapless exercises invariant 4 across
// many small entry arrivals within one slot.
func TestDataShredIndicesAreDenseAndGapless(t *testing.T) {
	m := testMachine(t)
	var allIndices []uint32
	for round := 0; round < 10; round++ {
		isLast := round == 9
		batches, err := m.Entries(5, 4, uint64(round), []Entry{{Data: []byte("x")}, {Data: []byte("y")}}, isLast)
		require.NoError(t, err)
		for _, b := range batches {
			for _, s := range b.DataShreds {
				allIndices = append(allIndices, s.Index)
			}
		}
	}
	require.Len(t, allIndices, 20)
	for i, idx := range allIndices {
		require.Equal(t, uint32(i), idx)
	}
}

// TestExactlyOneLastInSlotShred exercises invariant 5.
func TestExactlyOneLastInSlotShred(t *testing.T) {
	m := testMachine(t)
	var lastCount int
	for round := 0; round < 5; round++ {
		isLast := round == 4
		batches, err := m.Entries(7, 6, 0, []Entry{{Data: []byte("e")}}, isLast)
		require.NoError(t, err)
		for _, b := range batches {
			for _, s := range b.DataShreds {
				if s.LastInSlot {
					lastCount++
				}
			}
		}
	}
	require.Equal(t, 1, lastCount)
}

// TestFECGroupsDrainAtBlockBoundary exercises the 32-shred FEC group
// boundary: no coding batch is emitted until a full block accumulates.
func TestFECGroupsDrainAtBlockBoundary(t *testing.T) {
	m := testMachine(t)
	var codingBatches int
	for i := 0; i < 32; i++ {
		batches, err := m.Entries(1, 0, 0, []Entry{{Data: []byte("e")}}, false)
		require.NoError(t, err)
		for _, b := range batches {
			if len(b.CodingShreds) > 0 {
				codingBatches++
				require.Len(t, b.CodingShreds, 32)
			}
		}
	}
	require.Equal(t, 1, codingBatches)
}

func TestLedgerMetadataResumesCarry(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	cfg := config.Config{ShredVersion: 1, Fanout: 8, MaxDataShredsPerFECBlock: 32, EpochCacheCapacity: 1, EpochCacheTTL: 1}
	ledger := &fakeLedger{nextIndex: 100, fecOffset: 96}
	m := New(cfg, priv, ledger)

	batches, err := m.Entries(3, 2, 0, []Entry{{Data: []byte("resumed")}}, false)
	require.NoError(t, err)
	require.Equal(t, uint32(100), batches[0].DataShreds[0].Index)
	require.Equal(t, uint32(96), batches[0].DataShreds[0].FECSetIndex)
	require.Equal(t, 0, ledger.firstShredInserts, "resuming at a nonzero index must not re-insert the slot's first shred")
}

func TestFirstShredOfSlotInsertedIntoLedger(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	cfg := config.Config{ShredVersion: 1, Fanout: 8, MaxDataShredsPerFECBlock: 32, EpochCacheCapacity: 1, EpochCacheTTL: 1}
	ledger := &fakeLedger{nextIndex: 0, fecOffset: 0}
	m := New(cfg, priv, ledger)

	_, err = m.Entries(3, 2, 0, []Entry{{Data: []byte("genesis of slot 3")}}, false)
	require.NoError(t, err)
	require.Equal(t, 1, ledger.firstShredInserts)
}

type fakeLedger struct {
	nextIndex, fecOffset uint32
	firstShredInserts    int
}

func (f *fakeLedger) NextShredIndex(slot uint64) (uint32, uint32, bool) {
	return f.nextIndex, f.fecOffset, true
}

func (f *fakeLedger) InsertFirstShred(s *shred.Shred) error {
	f.firstShredInserts++
	return nil
}
