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

const (
	// WSize is the size of a boundary tag word.
	WSize = 4
	// DSize is the double word size, also the payload alignment.
	DSize = 8
	// MinBlockSize is the smallest block: header, footer and 8 bytes of payload.
	MinBlockSize = 2 * DSize
	// ChunkSize is the default amount the heap is extended by (4KB).
	ChunkSize = 1 << 12

	// MaxHeapSize bounds the heap so that every block size fits in a tag.
	MaxHeapSize = 1 << 32
	// MaxRequest is the largest payload a single Malloc can ask for.
	MaxRequest = MaxHeapSize - 2*DSize
)

const (
	allocBit = 0x1
	sizeMask = ^uint32(0x7)
)

// Pack encodes a block size and its allocated flag into a tag word.
// size must be a multiple of 8, the low 3 bits carry flags.
func Pack(size int, alloc bool) uint32 {
	if alloc {
		return uint32(size) | allocBit
	}
	return uint32(size)
}

// TagSize returns the block size stored in tag.
func TagSize(tag uint32) int {
	return int(tag & sizeMask)
}

// TagAlloc reports whether tag marks an allocated block.
func TagAlloc(tag uint32) bool {
	return tag&allocBit != 0
}

// Block navigation. bp is always the offset of a block's payload.

func hdrp(bp int) int { return bp - WSize }

func (h *Heap) ftrp(bp int) int { return bp + TagSize(h.get(hdrp(bp))) - DSize }

func (h *Heap) nextBlkp(bp int) int { return bp + TagSize(h.get(bp-WSize)) }

func (h *Heap) prevBlkp(bp int) int { return bp - TagSize(h.get(bp-DSize)) }

func (h *Heap) blkSize(bp int) int { return TagSize(h.get(hdrp(bp))) }

func (h *Heap) blkAlloc(bp int) bool { return TagAlloc(h.get(hdrp(bp))) }

// setTags writes the same tag to the header and footer of bp.
// The header goes first since ftrp reads the size from it.
func (h *Heap) setTags(bp, size int, alloc bool) {
	tag := Pack(size, alloc)
	h.put(hdrp(bp), tag)
	h.put(h.ftrp(bp), tag)
}
