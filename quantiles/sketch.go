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

// Package quantiles implements a bounded-error rank/quantile sketch over
// doubles based on the Agarwal-Mishra-Munro buffer-compactor scheme: an
// unsorted base buffer of at most 2k items feeds a bitmap-addressed stack of
// compaction levels, each a sorted run of exactly 2k items representing an
// exponentially increasing number of original updates.
package quantiles

import (
	"fmt"
	"math"

	"github.com/aertoria/sketches-core/memory"
)

// DoublesSketch is the read/query contract shared by every representation of
// a doubles sketch: heap or direct, updatable or compact.
type DoublesSketch interface {
	K() int
	N() uint64
	IsEmpty() bool
	MinValue() (float64, error)
	MaxValue() (float64, error)
	BitPattern() uint64
	GetQuantile(fraction float64) (float64, error)
	GetCDF(splitPoints []float64) ([]float64, error)
	GetPMF(splitPoints []float64) ([]float64, error)
	IsDirect() bool
	IsSameResource(region memory.Region) bool
	ToByteArray(compact bool) []byte
	UpdatableStorageBytes() int
	CompactStorageBytes() int
	String() string
}

// Sketch is the mutable, updatable doubles sketch. It is the only concrete
// type in this package: a heap-backed instance owns its storage, a
// direct-backed instance operates in place on a caller-supplied
// memory.Region, and both satisfy DoublesSketch identically.
type Sketch struct {
	k               int
	n               uint64
	minValue        float64
	maxValue        float64
	bitPattern      uint64
	baseBufferCount int
	store           doublesStore
	region          memory.Region
	rng             RandSource
}

// Builder configures and creates doubles sketches.
type Builder struct {
	k   int
	rng RandSource
}

// NewBuilder returns a Builder preset to DefaultK.
func NewBuilder() *Builder {
	return &Builder{k: DefaultK, rng: globalRandSource{}}
}

// SetK sets the accuracy parameter, which must be a power of two in
// [MinK, MaxK].
func (b *Builder) SetK(k int) *Builder {
	b.k = k
	return b
}

// SetRandSource injects the PRNG used for compactor coin flips, overriding
// the process-global default. Use this for deterministic tests.
func (b *Builder) SetRandSource(rng RandSource) *Builder {
	b.rng = rng
	return b
}

func (b *Builder) validate() error {
	if b.k < MinK || b.k > MaxK || (b.k&(b.k-1)) != 0 {
		return ErrInvalidK
	}
	return nil
}

// Build creates a new empty heap-backed updatable sketch.
func (b *Builder) Build() (*Sketch, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &Sketch{
		k:     b.k,
		store: newHeapStore(2 * b.k),
		rng:   b.rng,
	}, nil
}

// BuildDirect creates a new empty updatable sketch operating in place on
// region. region must be large enough for the preamble plus a full base
// buffer; ErrCapacityExceeded is returned otherwise.
func (b *Builder) BuildDirect(region memory.Region) (*Sketch, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	needed := preambleLongsFull*8 + 2*b.k*8
	if region.Capacity() < needed {
		return nil, ErrCapacityExceeded
	}
	s := &Sketch{
		k:      b.k,
		store:  newRegionStore(region, preambleLongsFull*8),
		region: region,
		rng:    b.rng,
	}
	return s, nil
}

// K returns the sketch's accuracy parameter.
func (s *Sketch) K() int { return s.k }

// N returns the number of updates seen so far.
func (s *Sketch) N() uint64 { return s.n }

// IsEmpty reports whether the sketch has seen any updates.
func (s *Sketch) IsEmpty() bool { return s.n == 0 }

// MinValue returns the smallest value seen so far.
func (s *Sketch) MinValue() (float64, error) {
	if s.n == 0 {
		return 0, ErrEmptySketch
	}
	return s.minValue, nil
}

// MaxValue returns the largest value seen so far.
func (s *Sketch) MaxValue() (float64, error) {
	if s.n == 0 {
		return 0, ErrEmptySketch
	}
	return s.maxValue, nil
}

// BitPattern returns the level-occupancy bitmask; bit i is set iff level i
// holds a valid sorted run.
func (s *Sketch) BitPattern() uint64 { return s.bitPattern }

// IsDirect reports whether the sketch operates on a caller-supplied region.
func (s *Sketch) IsDirect() bool { return s.region != nil }

// IsSameResource reports whether the sketch is backed directly by region,
// with matching identity and capacity.
func (s *Sketch) IsSameResource(region memory.Region) bool {
	if s.region == nil {
		return false
	}
	return s.region.IsSameResource(region)
}

// Reset clears the sketch back to its initial empty state, preserving k.
func (s *Sketch) Reset() {
	s.n = 0
	s.minValue = 0
	s.maxValue = 0
	s.bitPattern = 0
	s.baseBufferCount = 0
	if s.region != nil {
		s.store = newRegionStore(s.region, preambleLongsFull*8)
	} else {
		s.store = newHeapStore(2 * s.k)
	}
}

// Compact returns an immutable snapshot of the sketch. If region is
// provided, the compact sketch is serialized directly into it; otherwise the
// compact form lives on the heap.
func (s *Sketch) Compact(region ...memory.Region) (*CompactSketch, error) {
	bytes := s.ToByteArray(true)
	if len(region) > 0 {
		r := region[0]
		if r.Capacity() < len(bytes) {
			return nil, ErrCapacityExceeded
		}
		r.PutBytes(0, bytes)
		return wrapDecoded(mustDecode(r.GetBytes(0, len(bytes))), r)
	}
	decoded := mustDecode(bytes)
	return wrapDecoded(decoded, nil)
}

func mustDecode(bytes []byte) *decodedSketch {
	d, err := decodeSketch(bytes)
	if err != nil {
		panic(fmt.Sprintf("quantiles: corrupt self-serialized image: %v", err))
	}
	return d
}

func (s *Sketch) String() string {
	minV, maxV := math.NaN(), math.NaN()
	if s.n > 0 {
		minV, maxV = s.minValue, s.maxValue
	}
	return fmt.Sprintf(
		"### Quantiles doubles sketch summary:\n   k                 : %d\n   n                 : %d\n   bit pattern       : %b\n   min value         : %v\n   max value         : %v\n   direct?           : %t\n### End sketch summary\n",
		s.k, s.n, s.bitPattern, minV, maxV, s.IsDirect(),
	)
}
