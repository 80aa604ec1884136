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

package hll

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateFloat64CanonicalizesNegativeZero(t *testing.T) {
	a, err := NewHllSketch(8, TgtHllTypeHll8)
	require.NoError(t, err)
	require.NoError(t, a.UpdateFloat64(0.0))

	b, err := NewHllSketch(8, TgtHllTypeHll8)
	require.NoError(t, err)
	require.NoError(t, b.UpdateFloat64(math.Copysign(0, -1)))

	estA, err := a.GetEstimate()
	require.NoError(t, err)
	estB, err := b.GetEstimate()
	require.NoError(t, err)
	assert.Equal(t, estA, estB)
}

func TestUpdateFloat64CanonicalizesNaN(t *testing.T) {
	distinctNaN1 := math.Float64frombits(0x7ff8000000000001)
	distinctNaN2 := math.Float64frombits(0xfff8000000000002)

	sk, err := NewHllSketch(8, TgtHllTypeHll8)
	require.NoError(t, err)
	require.NoError(t, sk.UpdateFloat64(distinctNaN1))
	require.NoError(t, sk.UpdateFloat64(distinctNaN2))

	est, err := sk.GetEstimate()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, est, 0.5)
}
