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

package memlib

import (
	"fmt"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// minSliceCap is the initial capacity of a SliceMemory (4KB).
const minSliceCap = 4 << 10

// SliceMemory is a Memory backed by a Go slice.
//
// The slice doubles when it runs out of capacity, so the backing array
// moves and any slice obtained from Bytes before a Sbrk must be dropped.
type SliceMemory struct {
	buf   []byte
	limit int
}

// NewSliceMemory creates a SliceMemory that grants at most limit bytes.
func NewSliceMemory(limit int) (*SliceMemory, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("memlib: limit must be > 0, got %d", limit)
	}
	return &SliceMemory{limit: limit}, nil
}

// Sbrk implements Memory.
func (m *SliceMemory) Sbrk(n int) (int, error) {
	if n < 0 || n > m.limit-len(m.buf) {
		return -1, ErrNoMemory
	}
	old := len(m.buf)
	if old+n > cap(m.buf) {
		m.grow(old + n)
	}
	m.buf = m.buf[:old+n]
	return old, nil
}

func (m *SliceMemory) grow(need int) {
	ncap := cap(m.buf) * 2
	if ncap < minSliceCap {
		ncap = minSliceCap
	}
	for ncap < need {
		ncap *= 2
	}
	if ncap > m.limit {
		ncap = m.limit
	}
	// contents of new bytes are allowed to be undefined, skip zeroing
	nbuf := dirtmake.Bytes(len(m.buf), ncap)
	copy(nbuf, m.buf)
	m.buf = nbuf
}

// Bytes implements Memory.
func (m *SliceMemory) Bytes() []byte { return m.buf }

// Len implements Memory.
func (m *SliceMemory) Len() int { return len(m.buf) }

// Limit returns the max number of bytes the store grants.
func (m *SliceMemory) Limit() int { return m.limit }
