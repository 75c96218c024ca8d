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
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMmapMemory(t *testing.T) {
	m, err := NewMmapMemory(1 << 20)
	require.NoError(t, err)
	defer m.Close()

	off, err := m.Sbrk(4096)
	require.NoError(t, err)
	assert.Equal(t, 0, off)
	base := unsafe.Pointer(&m.Bytes()[0])
	m.Bytes()[4095] = 0xAB

	off, err = m.Sbrk(64 << 10)
	require.NoError(t, err)
	assert.Equal(t, 4096, off)

	// reserved up front, the base never moves
	assert.Equal(t, base, unsafe.Pointer(&m.Bytes()[0]))
	assert.Equal(t, byte(0xAB), m.Bytes()[4095])

	_, err = m.Sbrk(1 << 20)
	assert.ErrorIs(t, err, ErrNoMemory)
	assert.Equal(t, 4096+64<<10, m.Len())
}

func TestMmapMemoryClose(t *testing.T) {
	m, err := NewMmapMemory(64 << 10)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err = m.Sbrk(8)
	assert.ErrorIs(t, err, ErrNoMemory)
	assert.Equal(t, 0, m.Len())
}

func TestNewMmapMemoryInvalid(t *testing.T) {
	_, err := NewMmapMemory(0)
	assert.Error(t, err)
}
