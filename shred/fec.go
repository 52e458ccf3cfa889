// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package shred

import "github.com/klauspost/reedsolomon"

// EncodeFEC takes a completed FEC group's data shreds (all sharing one
// fec_set_index) and produces an equal number of coding shreds, a 1:1
// data:code ratio chosen so any half of the combined group recovers
// the rest. Every data shred's payload is zero-padded up to the
// group's largest payload before encoding, since Reed-Solomon requires
// uniform shard length; decoders trim back to each shred's own
// recorded size.
func EncodeFEC(dataShreds []*Shred, shredVersion uint16) ([]*Shred, error) {
	numData := len(dataShreds)
	if numData == 0 {
		return nil, nil
	}
	shardSize := 0
	for _, d := range dataShreds {
		if len(d.Payload) > shardSize {
			shardSize = len(d.Payload)
		}
	}
	if shardSize > MaxCodingPayload {
		return nil, ErrPayloadTooLarge
	}

	numCode := numData
	enc, err := reedsolomon.New(numData, numCode)
	if err != nil {
		return nil, err
	}

	shards := make([][]byte, numData+numCode)
	for i, d := range dataShreds {
		shard := make([]byte, shardSize)
		copy(shard, d.Payload)
		shards[i] = shard
	}
	for i := numData; i < numData+numCode; i++ {
		shards[i] = make([]byte, shardSize)
	}
	if err := enc.Encode(shards); err != nil {
		return nil, err
	}

	fecSetIndex := dataShreds[0].FECSetIndex
	slot := dataShreds[0].Slot
	codingShreds := make([]*Shred, numCode)
	for i := 0; i < numCode; i++ {
		codingShreds[i] = &Shred{
			Slot:         slot,
			Index:        fecSetIndex + uint32(i),
			FECSetIndex:  fecSetIndex,
			ShredVersion: shredVersion,
			Kind:         Coding,
			Payload:      shards[numData+i],
			Position:     uint16(i),
			NumData:      uint16(numData),
			NumCode:      uint16(numCode),
		}
	}
	return codingShreds, nil
}

// ReconstructDataPayloads recovers the group's numData original data
// payloads from whatever subset of data and coding shreds is present
// (nil entries mark the missing ones), as long as at least numData of
// the combined numData+numCode shards survived. The returned payloads
// are zero-padded to the group's shard size; callers that recorded
// each data shred's own size field trim accordingly.
func ReconstructDataPayloads(numData, numCode int, dataShreds, codingShreds []*Shred) ([][]byte, error) {
	shardSize := 0
	for _, d := range dataShreds {
		if d != nil && len(d.Payload) > shardSize {
			shardSize = len(d.Payload)
		}
	}
	for _, c := range codingShreds {
		if c != nil && len(c.Payload) > shardSize {
			shardSize = len(c.Payload)
		}
	}

	shards := make([][]byte, numData+numCode)
	for i := 0; i < numData && i < len(dataShreds); i++ {
		if dataShreds[i] == nil {
			continue
		}
		shard := make([]byte, shardSize)
		copy(shard, dataShreds[i].Payload)
		shards[i] = shard
	}
	for i := 0; i < numCode && i < len(codingShreds); i++ {
		if codingShreds[i] == nil {
			continue
		}
		shard := make([]byte, shardSize)
		copy(shard, codingShreds[i].Payload)
		shards[numData+i] = shard
	}

	enc, err := reedsolomon.New(numData, numCode)
	if err != nil {
		return nil, err
	}
	if err := enc.ReconstructData(shards); err != nil {
		return nil, err
	}
	return shards[:numData], nil
}
