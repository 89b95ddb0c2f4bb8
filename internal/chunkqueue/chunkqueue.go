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

// Package chunkqueue is a bounded multi-producer/multi-consumer FIFO of
// partitioned chunks. In this pipeline the only producer is the
// partitioner, which enqueues exactly N chunks and never blocks; the
// consumers are the worker pool goroutines.
package chunkqueue

import (
	"sync"

	"github.com/brightlayer-io/iotslice/internal/partition"
)

// Queue is a capacity-N FIFO of chunks backed by a buffered channel, the
// same channel-as-queue idiom the teacher uses for its fill queue.
type Queue struct {
	ch        chan partition.Chunk
	closeOnce sync.Once
}

// New returns a queue with room for capacity chunks without blocking.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan partition.Chunk, capacity)}
}

// Enqueue adds a chunk. It never blocks as long as the caller never
// enqueues more than the queue's capacity, which the orchestrator
// guarantees by sizing the queue to at least N, the number of chunks the
// partitioner produces.
func (q *Queue) Enqueue(c partition.Chunk) {
	q.ch <- c
}

// Dequeue returns the next chunk in FIFO order, or ok=false once the
// queue is closed and drained.
func (q *Queue) Dequeue() (c partition.Chunk, ok bool) {
	c, ok = <-q.ch
	return c, ok
}

// Close signals that no more chunks will be enqueued. It is safe to call
// more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.ch)
	})
}
