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

// Merge folds another sketch's state into s. Both sketches must share the
// same k; scaling merges across differing k is not supported (see
// DESIGN.md). The source is left unmodified.
func (s *Sketch) Merge(other *Sketch) error {
	if other.n == 0 {
		return nil
	}
	if other.k != s.k {
		return ErrIncompatibleK
	}
	wasEmpty := s.n == 0

	twoK := 2 * s.k
	for _, v := range other.store.slice(0, other.baseBufferCount) {
		if err := s.Update(v); err != nil {
			return err
		}
	}

	if wasEmpty {
		s.minValue = other.minValue
		s.maxValue = other.maxValue
	} else {
		if other.minValue < s.minValue {
			s.minValue = other.minValue
		}
		if other.maxValue > s.maxValue {
			s.maxValue = other.maxValue
		}
	}

	for lvl := 0; lvl < 64; lvl++ {
		if other.bitPattern&(uint64(1)<<uint(lvl)) == 0 {
			continue
		}
		levelArr := other.store.slice(twoK+lvl*twoK, twoK+(lvl+1)*twoK)
		if err := s.propagateCarryFrom(lvl, append([]float64(nil), levelArr...)); err != nil {
			return err
		}
		s.n += uint64(twoK) * (uint64(1) << uint(lvl))
	}
	return nil
}
