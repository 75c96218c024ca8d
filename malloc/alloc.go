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

// Malloc allocates a block with at least size bytes of payload and returns
// its 8-byte aligned position.
//
// It returns Nil without touching the heap when size <= 0 or size exceeds
// MaxRequest, and returns Nil when the heap would have to grow but the
// backing memory is exhausted or the heap would pass MaxHeapSize.
// The returned payload is not zeroed.
func (h *Heap) Malloc(size int) Ptr {
	if size <= 0 {
		return Nil
	}
	h.counters.mallocs++
	if uint64(size) > MaxRequest {
		h.counters.failures++
		return Nil
	}
	asize := adjustSize(size)

	bp := h.findFit(asize)
	if bp < 0 {
		extendSize := asize
		if extendSize < ChunkSize {
			extendSize = ChunkSize
		}
		if bp = h.extendHeap(extendSize / WSize); bp < 0 {
			h.counters.failures++
			return Nil
		}
	}
	h.place(bp, asize)
	h.track(Ptr(bp), size)
	return Ptr(bp)
}

// adjustSize returns the block size that serves a request of size bytes,
// tags and alignment included.
func adjustSize(size int) int {
	if size <= DSize {
		return MinBlockSize
	}
	return DSize * ((size + DSize + (DSize - 1)) / DSize)
}

// findFit returns the first free block of at least asize bytes, scanning
// from the cursor to the epilogue and then from the heap start back up to
// the cursor. It returns -1 if there is none.
func (h *Heap) findFit(asize int) int {
	for bp := h.cursor; h.blkSize(bp) > 0; bp = h.nextBlkp(bp) {
		if !h.blkAlloc(bp) && asize <= h.blkSize(bp) {
			return bp
		}
	}
	for bp := h.heapStart; bp != h.cursor; bp = h.nextBlkp(bp) {
		if !h.blkAlloc(bp) && asize <= h.blkSize(bp) {
			return bp
		}
	}
	return -1
}

// place carves asize bytes out of the free block bp. The remainder becomes
// a free block of its own when it can hold one, otherwise it stays inside
// the allocated block.
func (h *Heap) place(bp, asize int) {
	csize := h.blkSize(bp)
	if csize-asize >= MinBlockSize {
		h.setTags(bp, asize, true)
		h.setTags(h.nextBlkp(bp), csize-asize, false)
	} else {
		h.setTags(bp, csize, true)
	}
	h.cursor = bp
}
