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

import "github.com/sirupsen/logrus"

// extendHeap grows the heap by words tag words, rounded up to an even
// count to keep payloads aligned. The new bytes become one free block
// that replaces the old epilogue and is merged with a trailing free block.
// It returns the resulting free block, or -1 if the memory cannot grow.
func (h *Heap) extendHeap(words int) int {
	size := words * WSize
	if words%2 != 0 {
		size = (words + 1) * WSize
	}
	bp, err := -1, errHeapTooLarge
	if uint64(h.mem.Len())+uint64(size) <= MaxHeapSize {
		bp, err = h.mem.Sbrk(size)
	}
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"bytes":     size,
			"heap_size": h.mem.Len(),
		}).WithError(err).Debug("malloc: extend heap failed")
		return -1
	}
	h.sync()
	h.counters.extensions++

	// the old epilogue header becomes the header of the new block
	h.setTags(bp, size, false)
	h.put(hdrp(h.nextBlkp(bp)), Pack(0, true))

	h.logger.WithFields(logrus.Fields{
		"words":     words,
		"bytes":     size,
		"heap_size": h.mem.Len(),
	}).Debug("malloc: heap extended")
	return h.coalesce(bp)
}
