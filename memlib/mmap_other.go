//go:build !unix

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
	"errors"
	"fmt"
)

// MmapMemory is not available on this platform.
type MmapMemory struct{}

// NewMmapMemory always fails on platforms without mmap.
func NewMmapMemory(limit int) (*MmapMemory, error) {
	return nil, fmt.Errorf("memlib: mmap backing of %d bytes: %w", limit, errors.ErrUnsupported)
}

// Sbrk implements Memory.
func (m *MmapMemory) Sbrk(n int) (int, error) { return -1, ErrNoMemory }

// Bytes implements Memory.
func (m *MmapMemory) Bytes() []byte { return nil }

// Len implements Memory.
func (m *MmapMemory) Len() int { return 0 }

// Close implements io.Closer.
func (m *MmapMemory) Close() error { return nil }
