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

// Package pipeline composes the mapping, line scanner, device index,
// partitioner, chunk queue, and worker pool into one run, in the order
// spec.md §4.7 describes, and releases resources in reverse acquisition
// order.
package pipeline

import (
	"context"
	"fmt"

	"github.com/brightlayer-io/iotslice/internal/chunkqueue"
	"github.com/brightlayer-io/iotslice/internal/config"
	"github.com/brightlayer-io/iotslice/internal/deviceindex"
	"github.com/brightlayer-io/iotslice/internal/ioslog"
	"github.com/brightlayer-io/iotslice/internal/ipcworker"
	"github.com/brightlayer-io/iotslice/internal/lineindex"
	"github.com/brightlayer-io/iotslice/internal/mapping"
	"github.com/brightlayer-io/iotslice/internal/partition"
)

// Summary is the aggregate outcome of one run.
type Summary struct {
	DeviceCount int
	LineCount   int
	TotalTally  int
	WorkerTally []int
	ChunkCount  int
}

// Run executes the full pipeline for cfg and returns a Summary.
func Run(ctx context.Context, cfg config.Config, log ioslog.Logger) (Summary, error) {
	if log == nil {
		log = ioslog.Discard{}
	}

	m, err := mapping.Open(cfg.Path)
	if err != nil {
		return Summary{}, fmt.Errorf("pipeline: %w", err)
	}
	defer m.Close()

	data := m.Bytes()
	lines := lineindex.Build(data, cfg.Workers)

	idx, err := deviceindex.Build(data, lines, cfg.DeviceColumn)
	if err != nil {
		return Summary{}, fmt.Errorf("pipeline: %w", err)
	}

	var header []byte
	if len(lines.Lines) > 0 {
		header = data[lines.HeaderStart:lines.Lines[0]]
	} else {
		header = data[lines.HeaderStart:]
	}
	// header carries its own trailing LF (it ends at the next line's
	// start, or at EOF if there's no following LF); strip it so
	// ipcworker.writeRequest's own separating '\n' is the only one
	// between header and chunk bytes on the wire, per spec.md §6.
	if n := len(header); n > 0 && header[n-1] == '\n' {
		header = header[:n-1]
	}

	chunks, err := partition.Build(data, header, idx, cfg.Workers)
	if err != nil {
		return Summary{}, fmt.Errorf("pipeline: %w", err)
	}

	q := chunkqueue.New(cfg.QueueCapacity)
	for _, c := range chunks {
		q.Enqueue(c)
	}
	q.Close()

	pool := &ipcworker.Pool{
		Workers:        cfg.Workers,
		SocketDir:      cfg.SocketDir,
		SubprocessPath: cfg.SubprocessPath,
		Log:            log,
	}
	results, err := pool.Run(ctx, q)
	if err != nil {
		return Summary{}, fmt.Errorf("pipeline: worker pool: %w", err)
	}

	summary := Summary{
		DeviceCount: idx.DeviceCount(),
		LineCount:   len(lines.Lines),
		ChunkCount:  len(chunks),
		WorkerTally: make([]int, len(results)),
	}
	for i, r := range results {
		tally := r.Tally
		if cfg.ReemitHeader && len(r.Bytes) > 0 {
			tally--
		}
		summary.WorkerTally[i] = tally
		summary.TotalTally += tally
	}
	return summary, nil
}
