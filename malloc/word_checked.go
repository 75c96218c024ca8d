//go:build malloc_checked

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

import "encoding/binary"

// Build with -tags malloc_checked to turn every tag access into a
// bounds-checked slice access. Corrupted offsets then panic with an index
// out of range instead of touching memory outside the heap.

func (h *Heap) get(off int) uint32 {
	return binary.LittleEndian.Uint32(h.buf[off : off+WSize])
}

func (h *Heap) put(off int, v uint32) {
	binary.LittleEndian.PutUint32(h.buf[off:off+WSize], v)
}
