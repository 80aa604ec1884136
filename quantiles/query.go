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
	"math"
	"sort"
)

// weightedValue is one retained item together with the number of original
// updates it represents: 1 for a base-buffer item, 2^i for an item stored at
// level i (consistent with the invariant bitPattern == n/(2k)).
type weightedValue struct {
	value  float64
	weight uint64
}

func (s *Sketch) weightedValues() []weightedValue {
	twoK := 2 * s.k
	entries := make([]weightedValue, 0, s.baseBufferCount+int(s.bitPattern)*s.k)
	for i := 0; i < s.baseBufferCount; i++ {
		entries = append(entries, weightedValue{value: s.store.get(i), weight: 1})
	}
	for lvl := 0; lvl < 64; lvl++ {
		if s.bitPattern&(uint64(1)<<uint(lvl)) == 0 {
			continue
		}
		weight := uint64(1) << uint(lvl)
		for _, v := range s.store.slice(twoK+lvl*twoK, twoK+(lvl+1)*twoK) {
			entries = append(entries, weightedValue{value: v, weight: weight})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].value < entries[j].value })
	return entries
}

// GetQuantile returns the value at approximate rank floor(fraction*N).
func (s *Sketch) GetQuantile(fraction float64) (float64, error) {
	if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
		return 0, ErrInvalidQuantile
	}
	if s.n == 0 {
		return 0, ErrEmptySketch
	}
	if fraction == 0 {
		return s.minValue, nil
	}
	if fraction == 1 {
		return s.maxValue, nil
	}
	rank := uint64(fraction * float64(s.n))
	var cum uint64
	for _, e := range s.weightedValues() {
		cum += e.weight
		if cum > rank {
			return e.value, nil
		}
	}
	return s.maxValue, nil
}

func validateSplitPoints(splitPoints []float64) error {
	for i, v := range splitPoints {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidSplitPoints
		}
		if i > 0 && v <= splitPoints[i-1] {
			return ErrInvalidSplitPoints
		}
	}
	return nil
}

// GetPMF returns, for the buckets defined by splitPoints (strictly
// increasing, finite), the fraction of updates falling in each bucket.
// len(result) == len(splitPoints)+1.
func (s *Sketch) GetPMF(splitPoints []float64) ([]float64, error) {
	if err := validateSplitPoints(splitPoints); err != nil {
		return nil, err
	}
	if s.n == 0 {
		return nil, ErrEmptySketch
	}
	counts := make([]float64, len(splitPoints)+1)
	for _, e := range s.weightedValues() {
		bucket := sort.SearchFloat64s(splitPoints, e.value)
		for bucket < len(splitPoints) && splitPoints[bucket] <= e.value {
			bucket++
		}
		counts[bucket] += float64(e.weight)
	}
	for i := range counts {
		counts[i] /= float64(s.n)
	}
	return counts, nil
}

// GetCDF returns the cumulative sum of GetPMF's buckets.
func (s *Sketch) GetCDF(splitPoints []float64) ([]float64, error) {
	pmf, err := s.GetPMF(splitPoints)
	if err != nil {
		return nil, err
	}
	cdf := make([]float64, len(pmf))
	var running float64
	for i, p := range pmf {
		running += p
		cdf[i] = running
	}
	return cdf, nil
}
