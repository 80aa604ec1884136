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

import "github.com/aertoria/sketches-core/internal"

var familyID = internal.FamilyEnum.Quantiles.Id

const (
	// DefaultK is the accuracy parameter used when a builder does not
	// specify one; it bounds rank error to roughly 1.7/DefaultK.
	DefaultK = 128
	// MinK is the smallest accuracy parameter accepted by the builder.
	MinK = 2
	// MaxK is the largest accuracy parameter accepted by the builder.
	MaxK = 32768

	serVer = 1

	flagBigEndian  = 1 << 0
	flagReadOnly   = 1 << 1
	flagEmpty      = 1 << 2
	flagCompact    = 1 << 3
	flagOrdered    = 1 << 4
	flagDirect     = 1 << 5
	flagSingleItem = 1 << 6

	preambleLongsEmpty  = 1
	preambleLongsSingle = 2
	preambleLongsFull   = 5
)
