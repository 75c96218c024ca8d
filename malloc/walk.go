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
	"fmt"
	"io"
)

// Block describes one block of the heap.
type Block struct {
	Ptr   Ptr // payload offset
	Size  int // block size, tags included
	Alloc bool
}

// Walk calls fn for every block between the prologue and the epilogue,
// in address order, until fn returns false.
// fn must not modify the heap.
func (h *Heap) Walk(fn func(b Block) bool) {
	for bp := h.nextBlkp(h.heapStart); h.blkSize(bp) > 0; bp = h.nextBlkp(bp) {
		if !fn(Block{Ptr: Ptr(bp), Size: h.blkSize(bp), Alloc: h.blkAlloc(bp)}) {
			return
		}
	}
}

// Dump writes one line per block to w.
func (h *Heap) Dump(w io.Writer) {
	fmt.Fprintf(w, "heap: size=%d start=%d cursor=%d\n", h.mem.Len(), h.heapStart, h.cursor)
	h.Walk(func(b Block) bool {
		state := "free"
		if b.Alloc {
			state = "alloc"
		}
		mark := ""
		if int(b.Ptr) == h.cursor {
			mark = " <- cursor"
		}
		fmt.Fprintf(w, "  %8d: %8d %s%s\n", b.Ptr, b.Size, state, mark)
		return true
	})
}

// Stats is a snapshot of a heap.
type Stats struct {
	HeapSize    int // bytes taken from the backing memory
	AllocBlocks int
	AllocBytes  int // sum of allocated block sizes, tags included
	FreeBlocks  int
	FreeBytes   int // sum of free block sizes, tags included
	LargestFree int

	Extensions int // successful heap extensions, including the initial one
	Mallocs    int
	Frees      int
	Reallocs   int
	Failures   int // allocations that failed because the heap could not grow
}

// Stats walks the heap and returns its current statistics.
func (h *Heap) Stats() Stats {
	s := Stats{
		HeapSize:   h.mem.Len(),
		Extensions: h.counters.extensions,
		Mallocs:    h.counters.mallocs,
		Frees:      h.counters.frees,
		Reallocs:   h.counters.reallocs,
		Failures:   h.counters.failures,
	}
	h.Walk(func(b Block) bool {
		if b.Alloc {
			s.AllocBlocks++
			s.AllocBytes += b.Size
			return true
		}
		s.FreeBlocks++
		s.FreeBytes += b.Size
		if b.Size > s.LargestFree {
			s.LargestFree = b.Size
		}
		return true
	})
	return s
}
