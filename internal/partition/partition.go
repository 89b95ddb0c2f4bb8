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

// Package partition assigns whole devices to exactly N chunks using a
// longest-processing-time greedy scheduler, minimizing the maximum
// per-chunk row count subject to never splitting a device across chunks.
package partition

import (
	"bytes"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/brightlayer-io/iotslice/internal/deviceindex"
)

const lf = '\n'

// Chunk is the owned, LF-terminated concatenation of one or more devices'
// rows, plus a borrowed reference to the header and the worker id it is
// destined for.
type Chunk struct {
	WorkerID int
	Header   []byte
	Bytes    []byte
	Lines    int
}

// Build produces exactly n chunks from idx's devices. Devices are sorted
// by descending line count (ties broken by device id, ascending) and
// greedily assigned to the bucket with the smallest running total,
// ties going to the lowest-indexed bucket — the classic LPT schedule.
func Build(data []byte, header []byte, idx *deviceindex.Index, n int) ([]Chunk, error) {
	if n <= 0 {
		return nil, fmt.Errorf("partition: n must be positive, got %d", n)
	}

	devices := idx.AllDevices()
	slices.SortFunc(devices, func(a, b string) bool {
		la, lb := len(idx.LinesOf(a)), len(idx.LinesOf(b))
		if la != lb {
			return la > lb
		}
		return a < b
	})

	type bucket struct {
		devices []string
		total   int
	}
	buckets := make([]bucket, n)

	for _, d := range devices {
		best := 0
		for i := 1; i < n; i++ {
			if buckets[i].total < buckets[best].total {
				best = i
			}
		}
		buckets[best].devices = append(buckets[best].devices, d)
		buckets[best].total += len(idx.LinesOf(d))
	}

	chunks := make([]Chunk, n)
	for i, b := range buckets {
		var buf bytes.Buffer
		for _, d := range b.devices {
			for _, off := range idx.LinesOf(d) {
				end := lineEnd(data, off)
				buf.Write(data[off:end])
				if end == off || data[end-1] != lf {
					buf.WriteByte(lf)
				}
			}
		}
		chunks[i] = Chunk{
			WorkerID: i,
			Header:   header,
			Bytes:    buf.Bytes(),
			Lines:    b.total,
		}
	}
	return chunks, nil
}

// lineEnd returns the offset one past the line's LF terminator, or
// len(data) if the line runs to the end of the mapping without one.
func lineEnd(data []byte, start int) int {
	idx := bytes.IndexByte(data[start:], lf)
	if idx < 0 {
		return len(data)
	}
	return start + idx + 1
}
