// Copyright (C) 2024 Brightlayer, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package lineindex

import (
	"bytes"
	"fmt"
	"testing"
)

func lineTexts(data []byte, idx Index) []string {
	out := make([]string, len(idx.Lines))
	for i, start := range idx.Lines {
		end := len(data)
		if i+1 < len(idx.Lines) {
			end = idx.Lines[i+1]
		}
		line := data[start:end]
		line = bytes.TrimSuffix(line, []byte{lf})
		out[i] = string(line)
	}
	return out
}

func TestBuildHeaderOnlyWithLF(t *testing.T) {
	data := []byte("id|device\n")
	for _, w := range []int{1, 2, 4} {
		idx := Build(data, w)
		if len(idx.Lines) != 0 {
			t.Fatalf("workers=%d: got %d lines, want 0", w, len(idx.Lines))
		}
	}
}

func TestBuildHeaderOnlyNoLF(t *testing.T) {
	data := []byte("id|device")
	idx := Build(data, 1)
	if len(idx.Lines) != 0 {
		t.Fatalf("got %d lines, want 0", len(idx.Lines))
	}
}

func TestBuildScanCompleteness(t *testing.T) {
	data := []byte("id|device\n1|A\n2|B\n3|A\n4|C\n5|A\n6|B\n")
	want := []string{"1|A", "2|B", "3|A", "4|C", "5|A", "6|B"}
	for _, w := range []int{1, 2, 4, 8} {
		idx := Build(data, w)
		got := lineTexts(data, idx)
		if len(got) != len(want) {
			t.Fatalf("workers=%d: got %d lines %v, want %d", w, len(got), got, len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("workers=%d: line %d = %q, want %q", w, i, got[i], want[i])
			}
		}
	}
}

func TestBuildLastLineNoTrailingLF(t *testing.T) {
	data := []byte("id|device\nx|Q")
	idx := Build(data, 1)
	got := lineTexts(data, idx)
	if len(got) != 1 || got[0] != "x|Q" {
		t.Fatalf("got %v, want [x|Q]", got)
	}
}

func TestBuildDeterministic(t *testing.T) {
	data := []byte("id|device\n1|A\n2|B\n3|A\n4|C\n5|A\n6|B\n7|D\n8|E\n")
	a := Build(data, 4)
	b := Build(data, 4)
	if len(a.Lines) != len(b.Lines) {
		t.Fatalf("nondeterministic length: %d vs %d", len(a.Lines), len(b.Lines))
	}
	for i := range a.Lines {
		if a.Lines[i] != b.Lines[i] {
			t.Fatalf("nondeterministic offset at %d: %d vs %d", i, a.Lines[i], b.Lines[i])
		}
	}
}

func TestBuildNoDuplicateAtBoundary(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("id|device\n")
	const n = 500
	for i := 0; i < n; i++ {
		fmt.Fprintf(&buf, "%d|dev%d\n", i, i%7)
	}
	data := buf.Bytes()
	for _, w := range []int{1, 2, 3, 5, 7, 16} {
		idx := Build(data, w)
		if len(idx.Lines) != n {
			t.Fatalf("workers=%d: got %d lines, want %d", w, len(idx.Lines), n)
		}
		seen := make(map[int]bool, len(idx.Lines))
		for _, off := range idx.Lines {
			if seen[off] {
				t.Fatalf("workers=%d: duplicate offset %d", w, off)
			}
			seen[off] = true
		}
	}
}
