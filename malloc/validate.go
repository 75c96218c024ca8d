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

// Pointer validation. Only active with Option.Validate, in which case
// live maps every allocated payload to its requested size.

func (h *Heap) track(p Ptr, size int) {
	if h.live != nil {
		h.live[p] = size
	}
}

func (h *Heap) untrack(p Ptr) {
	if h.live == nil {
		return
	}
	h.mustBeLive(p)
	delete(h.live, p)
}

func (h *Heap) mustBeLive(p Ptr) {
	if h.live == nil {
		return
	}
	if _, ok := h.live[p]; !ok {
		panic("malloc: double free or invalid pointer")
	}
}

// Requested returns the size passed to Malloc or Realloc for the live
// payload p. ok is false if p is not live or the heap does not validate.
func (h *Heap) Requested(p Ptr) (size int, ok bool) {
	size, ok = h.live[p]
	return
}
