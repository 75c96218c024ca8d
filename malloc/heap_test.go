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

package malloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/mmheap/memlib"
)

func TestPack(t *testing.T) {
	for size := MinBlockSize; size <= 1<<20; size += DSize * 13 {
		for _, alloc := range []bool{false, true} {
			tag := Pack(size, alloc)
			assert.Equal(t, size, TagSize(tag), "size=%d", size)
			assert.Equal(t, alloc, TagAlloc(tag), "size=%d", size)
		}
	}
	assert.Equal(t, uint32(0x1), Pack(0, true))
	assert.Equal(t, uint32(4096), Pack(4096, false))
	assert.Equal(t, uint32(4097), Pack(4096, true))

	// flag bits other than alloc are ignored by TagSize
	assert.Equal(t, 24, TagSize(24|0x6))
	assert.False(t, TagAlloc(24|0x6))
}

func TestNew(t *testing.T) {
	h, mem := newTestHeap(t, memlib.DefaultLimit, false)

	assert.Equal(t, 4*WSize+ChunkSize, mem.Len())
	assert.Equal(t, 2*WSize, h.heapStart)
	assert.Equal(t, Pack(DSize, true), h.get(WSize))
	assert.Equal(t, Pack(DSize, true), h.get(2*WSize))

	blocks := collectBlocks(h)
	require.Len(t, blocks, 1)
	assert.Equal(t, Block{Ptr: 16, Size: ChunkSize, Alloc: false}, blocks[0])
	assert.Equal(t, 16, h.cursor)
	assert.Equal(t, Pack(0, true), h.get(mem.Len()-WSize))

	s := h.Stats()
	assert.Equal(t, 1, s.Extensions)
	assert.Equal(t, ChunkSize, s.FreeBytes)
	assert.Equal(t, ChunkSize, s.LargestFree)
	require.NoError(t, h.Check())
}

func TestNewFails(t *testing.T) {
	tests := []struct {
		name  string
		limit int
	}{
		{"no_room_for_sentinels", 8},
		{"no_room_for_first_chunk", 4*WSize + ChunkSize - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem, err := memlib.NewSliceMemory(tt.limit)
			require.NoError(t, err)
			h, err := New(mem, nil)
			assert.ErrorIs(t, err, ErrInit)
			assert.Nil(t, h)
		})
	}

	t.Run("memory_not_empty", func(t *testing.T) {
		mem, err := memlib.NewSliceMemory(memlib.DefaultLimit)
		require.NoError(t, err)
		_, err = mem.Sbrk(8)
		require.NoError(t, err)
		_, err = New(mem, nil)
		assert.ErrorIs(t, err, ErrInit)
	})
}

func TestIndependentHeaps(t *testing.T) {
	h1, _ := newTestHeap(t, memlib.DefaultLimit, true)
	h2, _ := newTestHeap(t, memlib.DefaultLimit, true)

	p1 := h1.Malloc(100)
	p2 := h2.Malloc(100)
	require.NotEqual(t, Nil, p1)
	require.NotEqual(t, Nil, p2)
	assert.Equal(t, p1, p2) // same offsets, different memory

	copy(h1.Bytes(p1, 3), "abc")
	copy(h2.Bytes(p2, 3), "xyz")
	assert.Equal(t, "abc", string(h1.Bytes(p1, 3)))
	assert.Equal(t, "xyz", string(h2.Bytes(p2, 3)))

	h1.Free(p1)
	assert.Equal(t, 1, h1.Stats().FreeBlocks)
	assert.Equal(t, 1, h2.Stats().AllocBlocks)
	require.NoError(t, h1.Check())
	require.NoError(t, h2.Check())
}

func TestBytes(t *testing.T) {
	h, _ := newTestHeap(t, memlib.DefaultLimit, false)

	p := h.Malloc(10)
	require.NotEqual(t, Nil, p)
	b := h.Bytes(p, 10)
	assert.Equal(t, 10, len(b))
	assert.Equal(t, h.PayloadSize(p), cap(b))
	assert.Equal(t, 16, h.PayloadSize(p)) // 10 rounds up to a 24 byte block

	assert.Panics(t, func() { h.Bytes(p, h.PayloadSize(p)+1) })
}

// helpers

func newTestHeap(t testing.TB, limit int, validate bool) (*Heap, *memlib.SliceMemory) {
	t.Helper()
	mem, err := memlib.NewSliceMemory(limit)
	require.NoError(t, err)
	h, err := New(mem, &Option{Validate: validate})
	require.NoError(t, err)
	return h, mem
}

func collectBlocks(h *Heap) []Block {
	var blocks []Block
	h.Walk(func(b Block) bool {
		blocks = append(blocks, b)
		return true
	})
	return blocks
}

func snapshot(mem memlib.Memory) []byte {
	return append([]byte(nil), mem.Bytes()...)
}
