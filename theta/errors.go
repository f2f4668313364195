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

package theta

import "errors"

// Sentinel errors raised synchronously at the call site. None of these are
// retried internally; the caller decides what to do (retry with a bigger
// buffer, reconfigure, surface to its own caller).
var (
	// ErrCorruptedImage covers header byte inconsistencies, unknown serial
	// versions, family mismatches, flag conflicts, and declared sizes that
	// exceed the available buffer.
	ErrCorruptedImage = errors.New("theta: corrupted image")

	// ErrSeedHashMismatch is returned when an image's seed hash doesn't
	// match the seed hash of the seed the caller expects.
	ErrSeedHashMismatch = errors.New("theta: seed hash mismatch")

	// ErrInsufficientSpace is returned by direct-mode operations that need
	// a bigger buffer than is available and have no allocator configured.
	ErrInsufficientSpace = errors.New("theta: insufficient space")

	// ErrReadOnly is returned when a mutation is attempted on a read-only
	// wrap of an image.
	ErrReadOnly = errors.New("theta: read-only")

	// ErrUniversalSetUndefined is returned by Intersection.Result when no
	// sketch has yet been intersected in (the universal-set sentinel state).
	ErrUniversalSetUndefined = errors.New("theta: result undefined, intersection has had no input")

	// ErrHashCorruption is returned when the hash oracle produces 0 or
	// MaxTheta, both reserved sentinel values in the 63-bit hash domain.
	ErrHashCorruption = errors.New("theta: hash oracle produced a reserved sentinel value")

	// ErrInvalidArgument covers out-of-range p, out-of-range k, and other
	// caller-supplied configuration that fails validation.
	ErrInvalidArgument = errors.New("theta: invalid argument")

	// ErrDuplicateKey is returned when a hash is already present in a table
	// that rejects duplicates on direct insert (e.g. intersection's clone-in).
	ErrDuplicateKey = errors.New("theta: duplicate key")
)
