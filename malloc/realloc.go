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

// Realloc moves the payload at p into a block of at least size bytes.
//
//   - size <= 0 frees p and returns Nil.
//   - p == Nil is the same as Malloc(size).
//   - otherwise a new block is allocated, min(PayloadSize(p), size) bytes
//     are copied over, and p is freed.
//
// Realloc never grows or shrinks a block in place. When the new block
// cannot be allocated it returns Nil and p is left untouched.
func (h *Heap) Realloc(p Ptr, size int) Ptr {
	if size <= 0 {
		h.Free(p)
		return Nil
	}
	if p == Nil {
		return h.Malloc(size)
	}
	h.mustBeLive(p)
	h.counters.reallocs++

	newp := h.Malloc(size)
	if newp == Nil {
		return Nil
	}
	n := h.PayloadSize(p)
	if size < n {
		n = size
	}
	copy(h.buf[newp:int(newp)+n], h.buf[p:int(p)+n])
	h.Free(p)
	return newp
}
