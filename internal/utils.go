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

package internal

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
)

const (
	InverseGolden = float64(0.6180339887498949025)
)

const (
	DEFAULT_UPDATE_SEED = uint64(9001)
)

const (
	DSketchTestGenerateGo = "DSKETCH_TEST_GENERATE_GO"
)

const (
	JavaPath = "../serialization_test_data/java_generated_files"
	CppPath  = "../serialization_test_data/cpp_generated_files"
	GoPath   = "../serialization_test_data/go_generated_files"
)

// GetShortLE gets a short value from a byte array in little endian format.
func GetShortLE(array []byte, offset int) int {
	return int(array[offset]&0xFF) | (int(array[offset+1]&0xFF) << 8)
}

// PutShortLE puts a short value into a byte array in little endian format.
func PutShortLE(array []byte, offset int, value int) {
	array[offset] = byte(value)
	array[offset+1] = byte(value >> 8)
}

// InvPow2 returns 2^(-e).
func InvPow2(e int) (float64, error) {
	if (e | (1024 - e - 1)) < 0 {
		return 0, fmt.Errorf("e cannot be negative or greater than 1023: " + strconv.Itoa(e))
	}
	return math.Float64frombits((1023 - uint64(e)) << 52), nil
}

// CeilPowerOf2 returns the smallest power of 2 greater than or equal to n.
func CeilPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	topIntPwrOf2 := 1 << 30
	if n >= topIntPwrOf2 {
		return topIntPwrOf2
	}
	return int(math.Pow(2, math.Ceil(math.Log2(float64(n)))))
}

func ExactLog2(powerOf2 int) (int, error) {
	if !IsPowerOf2(powerOf2) {
		return 0, fmt.Errorf("argument 'powerOf2' must be a positive power of 2")
	}
	return bits.TrailingZeros64(uint64(powerOf2)), nil
}

// IsPowerOf2 returns true if the given number is a power of 2.
func IsPowerOf2(powerOf2 int) bool {
	return powerOf2 > 0 && (powerOf2&(powerOf2-1)) == 0
}

func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FloorPowerOf2 returns the largest power of 2 less than or equal to n, or 1
// if n is less than 2.
func FloorPowerOf2(n int64) int64 {
	if n <= 1 {
		return 1
	}
	return int64(1) << (bits.Len64(uint64(n)) - 1)
}

// Log2Floor returns floor(log2(n)), or 0 when n is 0.
func Log2Floor(n uint32) uint8 {
	if n == 0 {
		return 0
	}
	return uint8(bits.Len32(n) - 1)
}

// LgSizeFromCount returns the smallest lgSize (log2 of a hash table array
// size) such that the array holds strictly more than n slots and, at the
// given loadFactor, has room for at least n entries. The strict n slots
// bound guarantees at least one empty slot remains even when loadFactor is
// 1.0, which open-addressed lookups (using 0 as the empty-slot sentinel)
// require to terminate.
func LgSizeFromCount(n uint32, loadFactor float64) uint8 {
	for lg := uint8(1); ; lg++ {
		size := uint32(1) << lg
		if size > n && uint32(float64(size)*loadFactor) >= n {
			return lg
		}
	}
}

// ComputeSeedHash derives a 16-bit hash of the hash-function seed used to
// stamp sketches and to detect attempts to combine sketches built with
// different seeds. It is computed the same way entry hashes are: a murmur3
// hash of the seed value itself, taking its low 16 bits. A seed hash of zero
// is reserved to mean "unset" elsewhere in the wire format, so seeds that
// produce it are rejected.
func ComputeSeedHash(seed int64) (int64, error) {
	h1, _ := HashInt64SliceMurmur3([]int64{seed}, 0, 1, 0)
	seedHash := int64(h1 & 0xFFFF)
	if seedHash == 0 {
		return 0, fmt.Errorf("seed %d produces a seed hash of 0, choose a different seed", seed)
	}
	return seedHash, nil
}
