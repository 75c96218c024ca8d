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

// Free releases the block at p and merges it with free neighbours.
//
// Free(Nil) is a no-op. Freeing a pointer that Malloc did not return, or
// freeing it twice, corrupts the heap unless the heap validates pointers.
func (h *Heap) Free(p Ptr) {
	if p == Nil {
		return
	}
	h.untrack(p)
	h.counters.frees++
	bp := int(p)
	h.setTags(bp, h.blkSize(bp), false)
	h.coalesce(bp)
}

// coalesce merges the free block bp with its free neighbours and returns
// the merged block, which also becomes the cursor.
// The prologue and the epilogue are allocated, so they stop every merge.
func (h *Heap) coalesce(bp int) int {
	prevAlloc := TagAlloc(h.get(bp - DSize))
	nextAlloc := h.blkAlloc(h.nextBlkp(bp))
	size := h.blkSize(bp)

	switch {
	case prevAlloc && nextAlloc:
	case prevAlloc && !nextAlloc:
		size += h.blkSize(h.nextBlkp(bp))
		h.setTags(bp, size, false)
	case !prevAlloc && nextAlloc:
		bp = h.prevBlkp(bp)
		size += h.blkSize(bp)
		h.setTags(bp, size, false)
	default:
		next := h.nextBlkp(bp)
		bp = h.prevBlkp(bp)
		size += h.blkSize(bp) + h.blkSize(next)
		h.setTags(bp, size, false)
	}
	h.cursor = bp
	return bp
}
