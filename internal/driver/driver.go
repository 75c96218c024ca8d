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

// Package driver replays allocation traces against malloc.Heap and scores
// them for correctness, space utilization and throughput.
package driver

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/bytedance/gopkg/lang/mcache"
	"github.com/bytedance/gopkg/util/xxhash3"
	"github.com/sirupsen/logrus"

	"github.com/cloudwego/mmheap/internal/trace"
	"github.com/cloudwego/mmheap/malloc"
	"github.com/cloudwego/mmheap/memlib"
)

// Options ...
type Options struct {
	// NewMemory creates the backing memory of every replay.
	// Memories implementing io.Closer are closed after the replay.
	NewMemory func() (memlib.Memory, error)

	// Check runs Heap.Check after every operation of the correctness pass.
	Check bool

	// MinTime is the minimum time spent on the throughput pass.
	MinTime time.Duration

	Logger logrus.FieldLogger
}

// DefaultOption returns the default values of Options.
func DefaultOption() *Options {
	return &Options{
		NewMemory: func() (memlib.Memory, error) {
			return memlib.NewSliceMemory(memlib.DefaultLimit)
		},
		MinTime: 100 * time.Millisecond,
	}
}

// Result is the score of one trace.
type Result struct {
	Name  string
	Ops   int
	Valid bool
	Util  float64 // peak live payload bytes / final heap size
	Secs  float64 // seconds per replay
	Kops  float64 // thousands of ops per second
	Err   error   // first correctness error, nil if Valid
}

// Run scores t. Utilization and throughput are only measured when the
// correctness pass succeeds.
func Run(t *trace.Trace, o *Options) Result {
	if o == nil {
		o = DefaultOption()
	}
	log := o.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	log = log.WithField("trace", t.Name)

	r := Result{Name: t.Name, Ops: len(t.Ops)}
	if r.Err = t.Validate(); r.Err != nil {
		log.WithError(r.Err).Warn("trace is malformed")
		return r
	}
	if r.Err = replayChecked(t, o); r.Err != nil {
		log.WithError(r.Err).Warn("trace failed correctness check")
		return r
	}
	r.Valid = true

	var err error
	if r.Util, err = utilization(t, o); err != nil {
		r.Valid, r.Err = false, err
		log.WithError(err).Warn("trace failed utilization pass")
		return r
	}
	if r.Secs, err = throughput(t, o); err != nil {
		r.Valid, r.Err = false, err
		log.WithError(err).Warn("trace failed throughput pass")
		return r
	}
	if r.Secs > 0 {
		r.Kops = float64(r.Ops) / r.Secs / 1e3
	}
	log.WithFields(logrus.Fields{
		"ops":  r.Ops,
		"util": fmt.Sprintf("%.1f%%", r.Util*100),
		"kops": int(r.Kops),
	}).Info("trace done")
	return r
}

func newHeap(o *Options, validate bool) (*malloc.Heap, func(), error) {
	mem, err := o.NewMemory()
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if c, ok := mem.(io.Closer); ok {
			c.Close()
		}
	}
	h, err := malloc.New(mem, &malloc.Option{Validate: validate, Logger: o.Logger})
	if err != nil {
		release()
		return nil, nil, err
	}
	return h, release, nil
}

type slot struct {
	p    malloc.Ptr
	size int
	sum  uint64 // xxhash3 of the payload
}

// replayChecked replays t on a validating heap and checks every result.
func replayChecked(t *trace.Trace, o *Options) error {
	h, release, err := newHeap(o, true)
	if err != nil {
		return err
	}
	defer release()

	rng := rand.New(rand.NewSource(int64(len(t.Ops))))
	slots := make([]slot, t.NumIDs)
	for i, op := range t.Ops {
		fail := func(format string, args ...interface{}) error {
			return fmt.Errorf("op %d (%s id %d): %s", i, op.Kind, op.ID, fmt.Sprintf(format, args...))
		}
		s := &slots[op.ID]

		switch op.Kind {
		case trace.Alloc:
			if s.p != malloc.Nil {
				return fail("id is still allocated")
			}
			p := h.Malloc(op.Size)
			if err := checkBlock(h, slots, op.ID, p, op.Size); err != nil {
				return fail("%v", err)
			}
			*s = slot{p: p, size: op.Size, sum: fill(h, p, op.Size, rng)}

		case trace.Realloc:
			keep := s.size
			if op.Size < keep {
				keep = op.Size
			}
			var prefix []byte
			if keep > 0 {
				prefix = mcache.Malloc(keep)
				copy(prefix, h.Bytes(s.p, keep))
			}
			old := s.p
			p := h.Realloc(old, op.Size)
			err := checkBlock(h, slots, op.ID, p, op.Size)
			if err == nil && keep > 0 && !bytes.Equal(prefix, h.Bytes(p, keep)) {
				err = fmt.Errorf("realloc from %d to %d lost the first %d bytes", old, p, keep)
			}
			if prefix != nil {
				mcache.Free(prefix)
			}
			if err != nil {
				return fail("%v", err)
			}
			*s = slot{p: p, size: op.Size, sum: fill(h, p, op.Size, rng)}

		case trace.Free:
			if s.p != malloc.Nil {
				if sum := xxhash3.Hash(h.Bytes(s.p, s.size)); sum != s.sum {
					return fail("payload at %d was overwritten", s.p)
				}
			}
			h.Free(s.p)
			*s = slot{}
		}

		if o.Check {
			if err := h.Check(); err != nil {
				return fail("heap check: %v", err)
			}
		}
	}
	return nil
}

// checkBlock verifies that p is a valid payload of size bytes that does not
// overlap any other live slot.
func checkBlock(h *malloc.Heap, slots []slot, id int, p malloc.Ptr, size int) error {
	if size == 0 {
		if p != malloc.Nil {
			return fmt.Errorf("zero byte request returned %d", p)
		}
		return nil
	}
	if p == malloc.Nil {
		return fmt.Errorf("out of memory allocating %d bytes", size)
	}
	if int(p)%malloc.DSize != 0 {
		return fmt.Errorf("payload %d is not %d-byte aligned", p, malloc.DSize)
	}
	lo, hi := int(p), int(p)+size
	if lo < 0 || hi > h.Size() {
		return fmt.Errorf("payload [%d, %d) lies outside the heap [0, %d)", lo, hi, h.Size())
	}
	for i, s := range slots {
		if i == id || s.p == malloc.Nil {
			continue
		}
		if lo < int(s.p)+s.size && int(s.p) < hi {
			return fmt.Errorf("payload [%d, %d) overlaps id %d at [%d, %d)", lo, hi, i, s.p, int(s.p)+s.size)
		}
	}
	return nil
}

// fill writes random bytes into the payload and returns their fingerprint.
func fill(h *malloc.Heap, p malloc.Ptr, size int, rng *rand.Rand) uint64 {
	if size == 0 {
		return 0
	}
	b := h.Bytes(p, size)
	rng.Read(b)
	return xxhash3.Hash(b)
}

// replay runs t on h without any checks. ptrs and sizes are indexed by id
// and must be zeroed. It returns the peak of live requested bytes.
func replay(t *trace.Trace, h *malloc.Heap, ptrs []malloc.Ptr, sizes []int) (peak int) {
	live := 0
	for _, op := range t.Ops {
		switch op.Kind {
		case trace.Alloc:
			ptrs[op.ID] = h.Malloc(op.Size)
			sizes[op.ID] = op.Size
			live += op.Size
		case trace.Realloc:
			ptrs[op.ID] = h.Realloc(ptrs[op.ID], op.Size)
			live += op.Size - sizes[op.ID]
			sizes[op.ID] = op.Size
		case trace.Free:
			h.Free(ptrs[op.ID])
			ptrs[op.ID] = malloc.Nil
			live -= sizes[op.ID]
			sizes[op.ID] = 0
		}
		if live > peak {
			peak = live
		}
	}
	return peak
}

func utilization(t *trace.Trace, o *Options) (float64, error) {
	h, release, err := newHeap(o, false)
	if err != nil {
		return 0, err
	}
	defer release()

	peak := replay(t, h, make([]malloc.Ptr, t.NumIDs), make([]int, t.NumIDs))
	if h.Size() == 0 {
		return 0, nil
	}
	return float64(peak) / float64(h.Size()), nil
}

// throughput replays t on fresh heaps until MinTime has passed and returns
// the mean seconds per replay. Heap setup is not timed.
func throughput(t *trace.Trace, o *Options) (float64, error) {
	ptrs := make([]malloc.Ptr, t.NumIDs)
	sizes := make([]int, t.NumIDs)
	var total time.Duration
	runs := 0
	for runs == 0 || total < o.MinTime {
		h, release, err := newHeap(o, false)
		if err != nil {
			return 0, err
		}
		clear(ptrs)
		clear(sizes)
		start := time.Now()
		replay(t, h, ptrs, sizes)
		total += time.Since(start)
		release()
		runs++
	}
	return total.Seconds() / float64(runs), nil
}
