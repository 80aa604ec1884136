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

import "errors"

var (
	// ErrInvalidK is returned when a builder's k is out of range or not a
	// power of two.
	ErrInvalidK = errors.New("k must be a power of two in [2, 32768]")
	// ErrInvalidQuantile is returned when a requested rank fraction falls
	// outside [0, 1].
	ErrInvalidQuantile = errors.New("quantile fraction must be in [0, 1]")
	// ErrInvalidSplitPoints is returned when split points for GetCDF/GetPMF
	// are not strictly increasing and finite.
	ErrInvalidSplitPoints = errors.New("split points must be finite and strictly increasing")
	// ErrEmptySketch is returned by queries on a sketch that has seen no
	// updates.
	ErrEmptySketch = errors.New("sketch is empty")
	// ErrCapacityExceeded is returned when a direct sketch's backing region
	// is too small to hold the result of an operation.
	ErrCapacityExceeded = errors.New("backing region is too small for this operation")
	// ErrIllegalState is returned when an operation is invalid for the
	// sketch's current state, such as updating a compact sketch.
	ErrIllegalState = errors.New("operation not valid in current sketch state")
	// ErrInvalidSerializedImage is returned when a byte image fails
	// preamble validation during heapify/wrap.
	ErrInvalidSerializedImage = errors.New("invalid serialized doubles sketch image")
	// ErrIncompatibleK is returned when merging sketches built with
	// different k.
	ErrIncompatibleK = errors.New("cannot merge doubles sketches with different k")
)
