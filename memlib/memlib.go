/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package memlib provides the backing stores a heap grows into.
//
// A Memory behaves like the classic sbrk primitive: every successful Sbrk
// appends bytes right after all bytes granted before, and granted bytes are
// never taken back.
package memlib

import "errors"

// DefaultLimit is the default upper bound of a backing store (20MB).
const DefaultLimit = 20 << 20

// ErrNoMemory is returned by Sbrk when the store cannot grow any further.
var ErrNoMemory = errors.New("memlib: out of memory")

// Memory is a linear, append-only region of bytes.
type Memory interface {
	// Sbrk appends n bytes and returns the offset of the first appended byte.
	// The contents of the appended bytes are undefined.
	Sbrk(n int) (int, error)

	// Bytes returns the granted region, i.e. [0, Len()).
	// The returned slice may be stale after the next Sbrk.
	Bytes() []byte

	// Len returns the number of bytes granted so far.
	Len() int
}
