/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package quantiles

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/aertoria/sketches-core/memory"
)

// ToByteArray serializes the sketch. The compact form omits the unused tail
// of the base buffer; the updatable form preserves the full 2k-aligned
// buffer so the image can be heapified and updated further. Populated
// levels are always written in full in either form, since this
// implementation never over-allocates level storage beyond what is
// currently occupied.
func (s *Sketch) ToByteArray(compact bool) []byte {
	if s.n == 0 {
		buf := make([]byte, preambleLongsEmpty*8)
		buf[0] = preambleLongsEmpty
		buf[1] = serVer
		buf[2] = byte(familyID)
		buf[3] = byte(bits.TrailingZeros(uint(s.k)))
		buf[4] = flagEmpty
		return buf
	}
	if s.n == 1 {
		buf := make([]byte, preambleLongsSingle*8+8)
		buf[0] = preambleLongsSingle
		buf[1] = serVer
		buf[2] = byte(familyID)
		buf[3] = byte(bits.TrailingZeros(uint(s.k)))
		buf[4] = flagSingleItem
		binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(s.store.get(0)))
		return buf
	}

	twoK := 2 * s.k
	headerLen := preambleLongsFull * 8
	baseLen := s.baseBufferCount
	if !compact {
		baseLen = twoK
	}
	levelsLen := 0
	for lvl := 0; lvl < 64; lvl++ {
		if s.bitPattern&(uint64(1)<<uint(lvl)) != 0 {
			levelsLen += twoK
		}
	}

	buf := make([]byte, headerLen+(baseLen+levelsLen)*8)
	buf[0] = preambleLongsFull
	buf[1] = serVer
	buf[2] = byte(familyID)
	buf[3] = byte(bits.TrailingZeros(uint(s.k)))
	flags := byte(0)
	if compact {
		flags |= flagCompact
	}
	if s.IsDirect() {
		flags |= flagDirect
	}
	buf[4] = flags
	binary.LittleEndian.PutUint16(buf[8:10], uint16(s.k))
	binary.LittleEndian.PutUint64(buf[16:24], s.n)
	binary.LittleEndian.PutUint64(buf[24:32], math.Float64bits(s.minValue))
	binary.LittleEndian.PutUint64(buf[32:40], math.Float64bits(s.maxValue))

	off := headerLen
	for _, v := range s.store.slice(0, baseLen) {
		binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(v))
		off += 8
	}
	for lvl := 0; lvl < 64; lvl++ {
		if s.bitPattern&(uint64(1)<<uint(lvl)) == 0 {
			continue
		}
		for _, v := range s.store.slice(twoK+lvl*twoK, twoK+(lvl+1)*twoK) {
			binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(v))
			off += 8
		}
	}
	return buf
}

// UpdatableStorageBytes returns len(s.ToByteArray(false)) without allocating.
func (s *Sketch) UpdatableStorageBytes() int {
	return s.storageBytes(false)
}

// CompactStorageBytes returns len(s.ToByteArray(true)) without allocating.
func (s *Sketch) CompactStorageBytes() int {
	return s.storageBytes(true)
}

func (s *Sketch) storageBytes(compact bool) int {
	if s.n == 0 {
		return preambleLongsEmpty * 8
	}
	if s.n == 1 {
		return preambleLongsSingle*8 + 8
	}
	twoK := 2 * s.k
	baseLen := s.baseBufferCount
	if !compact {
		baseLen = twoK
	}
	levelsLen := 0
	for lvl := 0; lvl < 64; lvl++ {
		if s.bitPattern&(uint64(1)<<uint(lvl)) != 0 {
			levelsLen += twoK
		}
	}
	return preambleLongsFull*8 + (baseLen+levelsLen)*8
}

// decodedSketch is the fully-materialized result of parsing a byte image,
// independent of whether the source was a heap byte slice or a region.
type decodedSketch struct {
	k               int
	n               uint64
	minValue        float64
	maxValue        float64
	bitPattern      uint64
	baseBufferCount int
	store           *heapStore
}

func decodeSketch(buf []byte) (*decodedSketch, error) {
	if len(buf) < 8 {
		return nil, ErrInvalidSerializedImage
	}
	preLongs := int(buf[0])
	if buf[2] != byte(familyID) {
		return nil, ErrInvalidSerializedImage
	}
	if buf[4]&flagBigEndian != 0 {
		return nil, ErrInvalidSerializedImage
	}
	lgK := int(buf[3])
	k := 1 << uint(lgK)
	if k < MinK || k > MaxK {
		return nil, ErrInvalidSerializedImage
	}

	if buf[4]&flagEmpty != 0 {
		return &decodedSketch{k: k, store: newHeapStore(2 * k)}, nil
	}
	if buf[4]&flagSingleItem != 0 {
		if len(buf) < preambleLongsSingle*8+8 {
			return nil, ErrInvalidSerializedImage
		}
		v := math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24]))
		st := newHeapStore(2 * k)
		st.set(0, v)
		return &decodedSketch{k: k, n: 1, minValue: v, maxValue: v, baseBufferCount: 1, store: st}, nil
	}
	if preLongs != preambleLongsFull || len(buf) < preambleLongsFull*8 {
		return nil, ErrInvalidSerializedImage
	}

	declaredK := int(binary.LittleEndian.Uint16(buf[8:10]))
	if declaredK != k {
		return nil, ErrInvalidSerializedImage
	}
	n := binary.LittleEndian.Uint64(buf[16:24])
	minValue := math.Float64frombits(binary.LittleEndian.Uint64(buf[24:32]))
	maxValue := math.Float64frombits(binary.LittleEndian.Uint64(buf[32:40]))

	twoK := 2 * k
	bitPattern := n / uint64(twoK)
	bbCount := int(n % uint64(twoK))
	compact := buf[4]&flagCompact != 0

	baseLen := bbCount
	if !compact {
		baseLen = twoK
	}
	numLevels := bits.OnesCount64(bitPattern)
	needed := headerLenNeeded(twoK, baseLen, numLevels)
	if len(buf) < needed {
		return nil, ErrInvalidSerializedImage
	}

	store := newHeapStore(twoK * (1 + maxLevelPlus1(bitPattern)))
	off := preambleLongsFull * 8
	for i := 0; i < baseLen && i < bbCount; i++ {
		store.set(i, math.Float64frombits(binary.LittleEndian.Uint64(buf[off:off+8])))
		off += 8
	}
	off = preambleLongsFull*8 + baseLen*8
	for lvl := 0; lvl < 64; lvl++ {
		if bitPattern&(uint64(1)<<uint(lvl)) == 0 {
			continue
		}
		for i := 0; i < twoK; i++ {
			store.set(twoK+lvl*twoK+i, math.Float64frombits(binary.LittleEndian.Uint64(buf[off:off+8])))
			off += 8
		}
	}

	return &decodedSketch{
		k: k, n: n, minValue: minValue, maxValue: maxValue,
		bitPattern: bitPattern, baseBufferCount: bbCount, store: store,
	}, nil
}

func maxLevelPlus1(bitPattern uint64) int {
	if bitPattern == 0 {
		return 0
	}
	return bits.Len64(bitPattern)
}

func headerLenNeeded(twoK, baseLen, numLevels int) int {
	return preambleLongsFull*8 + (baseLen+numLevels*twoK)*8
}

// Heapify parses a serialized image into a new, independent, heap-backed
// updatable sketch.
func Heapify(buf []byte) (*Sketch, error) {
	d, err := decodeSketch(buf)
	if err != nil {
		return nil, err
	}
	return &Sketch{
		k: d.k, n: d.n, minValue: d.minValue, maxValue: d.maxValue,
		bitPattern: d.bitPattern, baseBufferCount: d.baseBufferCount,
		store: d.store, rng: globalRandSource{},
	}, nil
}

func wrapDecoded(d *decodedSketch, region memory.Region) (*CompactSketch, error) {
	return &CompactSketch{Sketch: &Sketch{
		k: d.k, n: d.n, minValue: d.minValue, maxValue: d.maxValue,
		bitPattern: d.bitPattern, baseBufferCount: d.baseBufferCount,
		store: d.store, region: region, rng: globalRandSource{},
	}}, nil
}

// Wrap returns a read-only query view over region's current contents. The
// view is a snapshot taken at wrap time; it does not observe subsequent
// external mutation of region.
func Wrap(region memory.Region) (*CompactSketch, error) {
	d, err := decodeSketch(region.GetBytes(0, region.Capacity()))
	if err != nil {
		return nil, err
	}
	return wrapDecoded(d, region)
}

// CompactSketch is an immutable, read-only doubles sketch produced by Wrap
// or Sketch.Compact. It shares its query implementation with Sketch but
// rejects further updates.
type CompactSketch struct {
	*Sketch
}

// Update always fails: a compact sketch does not accept further updates.
func (c *CompactSketch) Update(float64) error {
	return ErrIllegalState
}
