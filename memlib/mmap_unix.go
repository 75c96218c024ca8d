//go:build unix

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

	"golang.org/x/sys/unix"
)

// MmapMemory is a Memory backed by one anonymous mapping of limit bytes.
//
// The whole range is reserved up front and Sbrk only moves the break,
// so the base address never changes for the lifetime of the store.
type MmapMemory struct {
	region []byte
	brk    int
}

// NewMmapMemory reserves limit bytes of private anonymous memory.
func NewMmapMemory(limit int) (*MmapMemory, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("memlib: limit must be > 0, got %d", limit)
	}
	region, err := unix.Mmap(-1, 0, limit,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("memlib: mmap %d bytes: %w", limit, err)
	}
	return &MmapMemory{region: region}, nil
}

// Sbrk implements Memory.
func (m *MmapMemory) Sbrk(n int) (int, error) {
	if m.region == nil || n < 0 || n > len(m.region)-m.brk {
		return -1, ErrNoMemory
	}
	old := m.brk
	m.brk += n
	return old, nil
}

// Bytes implements Memory.
func (m *MmapMemory) Bytes() []byte { return m.region[:m.brk] }

// Len implements Memory.
func (m *MmapMemory) Len() int { return m.brk }

// Close releases the mapping. The store is unusable afterwards.
func (m *MmapMemory) Close() error {
	if m.region == nil {
		return nil
	}
	err := unix.Munmap(m.region)
	m.region, m.brk = nil, 0
	return err
}
