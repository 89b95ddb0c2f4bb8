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

// Package deviceindex builds a fixed-size, FNV-1a-hashed table from device
// id to the ordered list of data-line offsets belonging to that device.
//
// Construction uses the sharded-writer strategy: disjoint ranges of the
// line index are scanned by independent goroutines with no shared state,
// then a single sequential merge step inserts each shard's findings into
// the table and sorts each device's slice by offset, which reconstructs
// file order without ever taking a lock during the scan.
package deviceindex

import (
	"errors"
	"fmt"
	"hash/fnv"
	"runtime"
	"sort"
	"sync"

	"github.com/brightlayer-io/iotslice/internal/lineindex"
	"github.com/brightlayer-io/iotslice/internal/recordformat"
)

// ErrColumnNotFound is returned when the header has no field matching the
// requested column name.
var ErrColumnNotFound = errors.New("deviceindex: column not found")

// bucket is one hash-table slot's collision chain.
type bucket struct {
	device string
	lines  []int
}

// Index maps a device id to the ordered (file order) list of line offsets
// belonging to that device. The table is a fixed-size slice of chains,
// indexed by hashDevice(id) mod len(table), per spec.md §4.3's mandated
// hash function.
type Index struct {
	table      [][]bucket
	totalLines int
	numDevices int
}

type shardEntry struct {
	device string
	offset int
}

// Build locates column by name in the header line (lines.HeaderStart to
// the start of the first data line) and partitions lines.Lines across
// runtime.NumCPU() shards to build the device index concurrently. Lines
// with fewer than the required number of pipe separators are silently
// skipped (spec: MalformedLine).
func Build(data []byte, lines lineindex.Index, column string) (*Index, error) {
	headerEnd := len(data)
	if len(lines.Lines) > 0 {
		headerEnd = lines.Lines[0]
	}
	col, ok := recordformat.HeaderColumn(data[lines.HeaderStart:headerEnd], column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	n := len(lines.Lines)
	idx := &Index{table: make([][]bucket, tableSize(n))}
	if n == 0 {
		return idx, nil
	}

	shards := runtime.NumCPU()
	if shards < 1 {
		shards = 1
	}
	if shards > n {
		shards = n
	}

	perShard := make([][]shardEntry, shards)
	var wg sync.WaitGroup
	chunk := (n + shards - 1) / shards
	for s := 0; s < shards; s++ {
		start := s * chunk
		end := start + chunk
		if start > n {
			start = n
		}
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, start, end int) {
			defer wg.Done()
			var local []shardEntry
			for _, off := range lines.Lines[start:end] {
				field, ok := recordformat.Field(data[off:], col)
				if !ok {
					continue
				}
				local = append(local, shardEntry{device: string(field), offset: off})
			}
			perShard[s] = local
		}(s, start, end)
	}
	wg.Wait()

	for _, shard := range perShard {
		for _, e := range shard {
			idx.insert(e.device, e.offset)
		}
	}
	for i, chain := range idx.table {
		for j := range chain {
			sort.Ints(idx.table[i][j].lines)
		}
	}
	return idx, nil
}

// tableSize picks the table's fixed bucket count per spec's sizing hint: a
// larger prime-ish estimate for big files, a small one otherwise.
func tableSize(expectedLines int) int {
	if expectedLines > 1_000_000 {
		return 10007
	}
	return 101
}

// hashDevice returns the FNV-1a hash of a device id, per spec.md §4.3
// ("Hash function: FNV-1a over the device-id bytes"). It is the sole means
// by which Index locates a device's bucket.
func hashDevice(id []byte) uint64 {
	h := fnv.New64a()
	h.Write(id)
	return h.Sum64()
}

func (idx *Index) slot(device string) int {
	return int(hashDevice([]byte(device)) % uint64(len(idx.table)))
}

// insert appends offset to device's chain entry, creating it if this is
// the device's first occurrence. Not safe for concurrent use; callers must
// serialize insertion (Build's merge step is single-goroutine by design).
func (idx *Index) insert(device string, offset int) {
	s := idx.slot(device)
	chain := idx.table[s]
	for i := range chain {
		if chain[i].device == device {
			chain[i].lines = append(chain[i].lines, offset)
			idx.totalLines++
			return
		}
	}
	idx.table[s] = append(chain, bucket{device: device, lines: []int{offset}})
	idx.totalLines++
	idx.numDevices++
}

// LinesOf returns the ordered line offsets for a device, in file order.
func (idx *Index) LinesOf(device string) []int {
	for _, e := range idx.table[idx.slot(device)] {
		if e.device == device {
			return e.lines
		}
	}
	return nil
}

// AllDevices returns a snapshot of the known device ids. Order is
// unspecified; callers needing a deterministic order should sort it.
func (idx *Index) AllDevices() []string {
	out := make([]string, 0, idx.numDevices)
	for _, chain := range idx.table {
		for _, e := range chain {
			out = append(out, e.device)
		}
	}
	return out
}

// DeviceCount returns the number of distinct devices observed.
func (idx *Index) DeviceCount() int {
	return idx.numDevices
}

// TotalLines returns the number of lines successfully attributed to a
// device (i.e. excluding malformed lines).
func (idx *Index) TotalLines() int {
	return idx.totalLines
}
