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

package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	in := `4096
3
5
1

a 0 100
a 1 8
r 0 300
f 1
  f 0
`
	tr, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 4096, tr.SuggestedHeap)
	assert.Equal(t, 3, tr.NumIDs)
	assert.Equal(t, 1, tr.Weight)
	assert.Equal(t, []Op{
		{Kind: Alloc, ID: 0, Size: 100},
		{Kind: Alloc, ID: 1, Size: 8},
		{Kind: Realloc, ID: 0, Size: 300},
		{Kind: Free, ID: 1},
		{Kind: Free, ID: 0},
	}, tr.Ops)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "header field 1"},
		{"short_header", "1\n2\n", "header field 3"},
		{"bad_header", "1\nx\n0\n1\n", "line 2: invalid header value"},
		{"negative_header", "1\n-2\n0\n1\n", "invalid header value"},
		{"unknown_op", "1\n1\n1\n1\nx 0 1\n", `line 5: unknown op "x"`},
		{"missing_size", "1\n1\n1\n1\na 0\n", "alloc takes 2 fields, got 1"},
		{"free_with_size", "1\n1\n1\n1\nf 0 8\n", "free takes 1 fields, got 2"},
		{"id_out_of_range", "1\n1\n1\n1\na 1 8\n", "out of range [0, 1)"},
		{"bad_size", "1\n1\n1\n1\na 0 -8\n", `invalid size "-8"`},
		{"op_count", "1\n1\n2\n1\na 0 8\n", "header says 2 ops, found 1"},
		{"huge_op_count", "0\n1\n9223372036854775807\n1\n", "header says 9223372036854775807 ops, found 0"},
		{"huge_id_count", "0\n9223372036854775807\n1\n1\na 0 8\n", "header declares 9223372036854775807 ids for 1 ops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	ok := &Trace{NumIDs: 1, Ops: []Op{{Kind: Alloc, ID: 0, Size: 8}, {Kind: Free, ID: 0}}}
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name string
		tr   *Trace
		want string
	}{
		{"too_many_ids", &Trace{NumIDs: 1 << 40}, "header declares 1099511627776 ids for 0 ops"},
		{"negative_ids", &Trace{NumIDs: -1}, "header declares -1 ids"},
		{"id_out_of_range", &Trace{NumIDs: 1, Ops: []Op{{Kind: Alloc, ID: 1, Size: 8}}}, "op 0: id 1 out of range [0, 1)"},
		{"negative_size", &Trace{NumIDs: 1, Ops: []Op{{Kind: Alloc, ID: 0, Size: -8}}}, "op 0: negative size -8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tr.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	tr, err := Load(filepath.Join("testdata", "short1.rep"))
	require.NoError(t, err)
	assert.Equal(t, "short1.rep", tr.Name)
	assert.Equal(t, 6, tr.NumIDs)
	assert.Len(t, tr.Ops, 12)
	assert.Equal(t, Op{Kind: Alloc, ID: 5, Size: 4072}, tr.Ops[9])

	_, err = Load(filepath.Join(t.TempDir(), "missing.rep"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.rep")
	require.NoError(t, os.WriteFile(bad, []byte("1\n1\n1\n1\nz 0\n"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.rep: line 5")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "alloc", Alloc.String())
	assert.Equal(t, "realloc", Realloc.String())
	assert.Equal(t, "free", Free.String())
	assert.Equal(t, "unknown(9)", Kind(9).String())
}
