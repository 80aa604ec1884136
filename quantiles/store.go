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

import "github.com/aertoria/sketches-core/memory"

// doublesStore is the backing array for the base buffer and the compaction
// levels of a doubles sketch: a single contiguous run of float64 slots,
// indexed the same way whether it lives on the heap or inside a borrowed
// memory.Region. The base buffer occupies slots [0, 2k); level i occupies
// slots [2k + i*2k, 2k + (i+1)*2k), since every level holds a full 2k-item
// sorted run.
type doublesStore interface {
	get(i int) float64
	set(i int, v float64)
	// slice returns a heap copy of the half-open range [from, to).
	slice(from, to int) []float64
	// putSlice writes vals starting at offset from.
	putSlice(from int, vals []float64)
	capacity() int
}

type heapStore struct {
	arr []float64
}

func newHeapStore(capacity int) *heapStore {
	return &heapStore{arr: make([]float64, capacity)}
}

func (h *heapStore) get(i int) float64 { return h.arr[i] }
func (h *heapStore) set(i int, v float64) {
	h.arr[i] = v
}
func (h *heapStore) slice(from, to int) []float64 {
	out := make([]float64, to-from)
	copy(out, h.arr[from:to])
	return out
}
func (h *heapStore) putSlice(from int, vals []float64) {
	copy(h.arr[from:from+len(vals)], vals)
}
func (h *heapStore) capacity() int { return len(h.arr) }

// grow returns a new heapStore of the requested capacity with the existing
// contents copied into the low end; the levels above the base buffer are
// re-laid-out by the caller since k does not change but the number of levels
// does.
func (h *heapStore) grow(newCapacity int) *heapStore {
	grown := newHeapStore(newCapacity)
	copy(grown.arr, h.arr)
	return grown
}

// regionStore backs the doubles buffer directly with a memory.Region,
// starting at byte offset baseOffset. Each slot is 8 bytes, little-endian,
// matching the region's typed float64 accessors. capacity is derived from
// the region's actual size rather than fixed at construction, so a region
// provisioned larger than the initial base buffer can grow into new
// compaction levels without reallocating.
type regionStore struct {
	region     memory.Region
	baseOffset int
}

func newRegionStore(region memory.Region, baseOffset int) *regionStore {
	return &regionStore{region: region, baseOffset: baseOffset}
}

func (r *regionStore) get(i int) float64 {
	return r.region.GetFloat64(r.baseOffset + i*8)
}
func (r *regionStore) set(i int, v float64) {
	r.region.PutFloat64(r.baseOffset+i*8, v)
}
func (r *regionStore) slice(from, to int) []float64 {
	out := make([]float64, to-from)
	for i := range out {
		out[i] = r.get(from + i)
	}
	return out
}
func (r *regionStore) putSlice(from int, vals []float64) {
	for i, v := range vals {
		r.set(from+i, v)
	}
}
func (r *regionStore) capacity() int { return (r.region.Capacity() - r.baseOffset) / 8 }
