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

// Package malloc implements a boundary-tag heap allocator over a memlib.Memory.
//
// The heap is a single region bounded by an allocated prologue block and a
// zero-size allocated epilogue header. Every block carries its size and an
// allocated bit in a header word and in a footer word. Free blocks are
// found with a next-fit scan over the implicit block list, split when the
// remainder can hold a block, and coalesced with free neighbours as soon as
// they are freed. The heap only grows.
//
// Positions inside the heap are offsets (Ptr), not addresses, so a Heap can
// sit on a Go slice that moves when it grows.
//
// A Heap is not safe for concurrent use. Callers that share one must hold
// an exclusive lock around every call.
package malloc

import (
	"fmt"
	"io"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/cloudwego/mmheap/memlib"
)

// Ptr is the offset of a payload inside the heap.
type Ptr int

// Nil is the null Ptr. Offset 0 holds alignment padding and is never a payload.
const Nil Ptr = 0

// Option ...
type Option struct {
	// Logger receives debug events about heap growth.
	// Nil discards them.
	Logger logrus.FieldLogger

	// Validate keeps a shadow set of live payloads.
	// Free and Realloc panic when given a pointer that is not live.
	// It costs a map operation per call and is meant for tests.
	Validate bool
}

// DefaultOption returns the default values of Option.
func DefaultOption() *Option {
	return &Option{}
}

// Heap is an allocator state. It exclusively owns its backing memory.
type Heap struct {
	mem memlib.Memory

	// buf and base are cached views of mem, refreshed after every Sbrk.
	buf  []byte
	base unsafe.Pointer

	// heapStart is the payload offset of the prologue block.
	heapStart int
	// cursor is where the next fit search starts.
	cursor int

	logger logrus.FieldLogger
	live   map[Ptr]int

	counters counters
}

type counters struct {
	extensions int
	mallocs    int
	frees      int
	reallocs   int
	failures   int
}

// New bootstraps a heap on mem, which must be empty.
// It writes the prologue and epilogue and extends the heap by ChunkSize.
func New(mem memlib.Memory, o *Option) (*Heap, error) {
	if o == nil {
		o = DefaultOption()
	}
	if mem.Len() != 0 {
		return nil, fmt.Errorf("%w: memory already holds %d bytes", ErrInit, mem.Len())
	}
	h := &Heap{mem: mem, logger: o.Logger}
	if h.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		h.logger = l
	}
	if o.Validate {
		h.live = make(map[Ptr]int)
	}

	start, err := mem.Sbrk(4 * WSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}
	h.sync()
	h.put(start, 0)                         // alignment padding
	h.put(start+1*WSize, Pack(DSize, true)) // prologue header
	h.put(start+2*WSize, Pack(DSize, true)) // prologue footer
	h.put(start+3*WSize, Pack(0, true))     // epilogue header
	h.heapStart = start + 2*WSize
	h.cursor = h.heapStart

	if h.extendHeap(ChunkSize/WSize) < 0 {
		return nil, fmt.Errorf("%w: cannot extend heap by %d bytes", ErrInit, ChunkSize)
	}
	return h, nil
}

// sync refreshes the cached views of the backing memory.
func (h *Heap) sync() {
	h.buf = h.mem.Bytes()
	h.base = unsafe.Pointer(unsafe.SliceData(h.buf))
}

// Size returns the number of bytes the heap has taken from its memory.
func (h *Heap) Size() int {
	return h.mem.Len()
}

// PayloadSize returns the usable bytes of the block at p.
// It may be larger than what was requested.
func (h *Heap) PayloadSize(p Ptr) int {
	return h.blkSize(int(p)) - DSize
}

// Bytes returns n bytes of payload at p.
// It panics if n exceeds PayloadSize(p).
//
// The slice is only valid until the next Malloc or Realloc: growing the heap
// may move the backing memory.
func (h *Heap) Bytes(p Ptr, n int) []byte {
	bp := int(p)
	return h.buf[bp : bp+n : bp+h.PayloadSize(p)]
}
