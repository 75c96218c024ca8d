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

// Package trace reads allocation traces in the malloc-lab text format:
//
//	<suggested heap size>
//	<number of ids>
//	<number of ops>
//	<weight>
//	a <id> <bytes>
//	r <id> <bytes>
//	f <id>
//
// Blank lines are skipped.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind is the type of a trace operation.
type Kind uint8

const (
	Alloc Kind = iota
	Realloc
	Free
)

func (k Kind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Realloc:
		return "realloc"
	case Free:
		return "free"
	}
	return "unknown(" + strconv.Itoa(int(k)) + ")"
}

// Op is one line of a trace.
type Op struct {
	Kind Kind
	ID   int // slot the pointer is kept in
	Size int // unused for Free
}

// Trace is a parsed trace file.
type Trace struct {
	Name          string
	SuggestedHeap int
	NumIDs        int
	Weight        int
	Ops           []Op
}

// Load parses the trace file at path. The trace is named after the file.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Name = filepath.Base(path)
	return t, nil
}

// Parse reads a trace from r.
func Parse(r io.Reader) (*Trace, error) {
	p := parser{sc: bufio.NewScanner(r)}
	t := &Trace{}

	header := []*int{&t.SuggestedHeap, &t.NumIDs, new(int), &t.Weight}
	for i, v := range header {
		line, err := p.next()
		if err != nil {
			return nil, fmt.Errorf("header field %d: %w", i+1, err)
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 0 {
			return nil, p.errorf("invalid header value %q", line)
		}
		*v = n
	}
	numOps := *header[2]

	// the header is untrusted, the slice grows with the ops actually read
	t.Ops = make([]Op, 0, min(numOps, 1<<16))
	for {
		line, err := p.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		op, err := p.parseOp(line, t.NumIDs)
		if err != nil {
			return nil, err
		}
		t.Ops = append(t.Ops, op)
	}
	if len(t.Ops) != numOps {
		return nil, fmt.Errorf("header says %d ops, found %d", numOps, len(t.Ops))
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate reports whether t can be replayed. Every id must be in
// [0, NumIDs), and NumIDs may not exceed the number of ops since each id
// is allocated at least once.
func (t *Trace) Validate() error {
	if t.NumIDs < 0 || t.NumIDs > len(t.Ops) {
		return fmt.Errorf("header declares %d ids for %d ops", t.NumIDs, len(t.Ops))
	}
	for i, op := range t.Ops {
		if op.ID < 0 || op.ID >= t.NumIDs {
			return fmt.Errorf("op %d: id %d out of range [0, %d)", i, op.ID, t.NumIDs)
		}
		if op.Size < 0 {
			return fmt.Errorf("op %d: negative size %d", i, op.Size)
		}
	}
	return nil
}

type parser struct {
	sc   *bufio.Scanner
	line int
}

// next returns the next non-blank line, or io.EOF.
func (p *parser) next() (string, error) {
	for p.sc.Scan() {
		p.line++
		if s := strings.TrimSpace(p.sc.Text()); s != "" {
			return s, nil
		}
	}
	if err := p.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s", p.line, fmt.Sprintf(format, args...))
}

func (p *parser) parseOp(line string, numIDs int) (Op, error) {
	fields := strings.Fields(line)
	var op Op
	want := 3
	switch fields[0] {
	case "a":
		op.Kind = Alloc
	case "r":
		op.Kind = Realloc
	case "f":
		op.Kind = Free
		want = 2
	default:
		return op, p.errorf("unknown op %q", fields[0])
	}
	if len(fields) != want {
		return op, p.errorf("%s takes %d fields, got %d", op.Kind, want-1, len(fields)-1)
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 || id >= numIDs {
		return op, p.errorf("id %q out of range [0, %d)", fields[1], numIDs)
	}
	op.ID = id
	if want == 3 {
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 0 {
			return op, p.errorf("invalid size %q", fields[2])
		}
		op.Size = size
	}
	return op, nil
}
