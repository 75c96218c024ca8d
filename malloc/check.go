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

	"github.com/hashicorp/go-multierror"
)

// Check walks the whole heap and verifies its invariants:
//
//   - the prologue and epilogue are intact and the epilogue ends the heap
//   - every payload is 8-byte aligned
//   - every block size is a multiple of 8 and at least MinBlockSize
//   - header and footer of every block agree
//   - no two free blocks are adjacent
//   - the cursor is at a block boundary
//   - with Option.Validate, live pointers and allocated blocks match
//
// It returns nil or a *multierror.Error listing every violation found.
// A block whose tags point outside the heap stops the walk.
func (h *Heap) Check() error {
	var errs *multierror.Error
	end := h.mem.Len()

	if h.get(hdrp(h.heapStart)) != Pack(DSize, true) || h.get(h.heapStart) != Pack(DSize, true) {
		errs = multierror.Append(errs, fmt.Errorf("prologue at %d is corrupted", h.heapStart))
	}

	cursorFound := h.cursor == h.heapStart
	prevFree := false
	allocated := 0
	bp := h.nextBlkp(h.heapStart)
	for {
		if bp < h.heapStart || bp > end {
			errs = multierror.Append(errs, fmt.Errorf("block %d is outside the heap [0, %d)", bp, end))
			return errs.ErrorOrNil()
		}
		size := h.blkSize(bp)
		if size == 0 {
			break
		}
		if bp == h.cursor {
			cursorFound = true
		}
		if bp%DSize != 0 {
			errs = multierror.Append(errs, fmt.Errorf("block %d: payload is not %d-byte aligned", bp, DSize))
		}
		if size%DSize != 0 || size < MinBlockSize {
			errs = multierror.Append(errs, fmt.Errorf("block %d: invalid size %d", bp, size))
		}
		if bp+size-WSize > end {
			errs = multierror.Append(errs, fmt.Errorf("block %d: size %d runs past the heap end %d", bp, size, end))
			return errs.ErrorOrNil()
		}
		if hdr, ftr := h.get(hdrp(bp)), h.get(h.ftrp(bp)); hdr != ftr {
			errs = multierror.Append(errs, fmt.Errorf("block %d: header %#x does not match footer %#x", bp, hdr, ftr))
		}
		alloc := h.blkAlloc(bp)
		if !alloc && prevFree {
			errs = multierror.Append(errs, fmt.Errorf("block %d: free block follows a free block", bp))
		}
		prevFree = !alloc
		if alloc {
			allocated++
		}
		if h.live != nil {
			if _, live := h.live[Ptr(bp)]; live != alloc {
				errs = multierror.Append(errs, fmt.Errorf("block %d: allocated=%t but live=%t", bp, alloc, live))
			}
		}
		bp += size
	}

	if bp != end {
		errs = multierror.Append(errs, fmt.Errorf("epilogue at %d, heap ends at %d", hdrp(bp), end))
	}
	if tag := h.get(hdrp(bp)); tag != Pack(0, true) {
		errs = multierror.Append(errs, fmt.Errorf("epilogue tag is %#x", tag))
	}
	if !cursorFound {
		errs = multierror.Append(errs, fmt.Errorf("cursor %d is not at a block boundary", h.cursor))
	}
	if h.live != nil && len(h.live) != allocated {
		errs = multierror.Append(errs, fmt.Errorf("%d live pointers but %d allocated blocks", len(h.live), allocated))
	}
	return errs.ErrorOrNil()
}
