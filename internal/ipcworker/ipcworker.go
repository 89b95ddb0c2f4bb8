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

// Package ipcworker runs the fixed pool of workers that drain the chunk
// queue and dispatch each chunk to an external analysis subprocess over a
// per-worker local stream socket.
//
// Each worker binds its own unix-domain socket, spawns the subprocess,
// and uses a single accepted connection full-duplex: it writes the
// header and chunk, half-closes the write side, then reads the
// subprocess's response from the same connection. This is the
// single-connection variant spec.md §9 explicitly permits in place of
// the two-accept shape ("send" socket, then "receive" socket) the
// original source used.
package ipcworker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/brightlayer-io/iotslice/internal/chunkqueue"
	"github.com/brightlayer-io/iotslice/internal/ioslog"
	"github.com/brightlayer-io/iotslice/internal/partition"
)

// receiveBufSize is the fixed read buffer size for subprocess responses;
// spec.md §4.6 requires at least 1 MiB.
const receiveBufSize = 1 << 20

// Result is the accumulated output of one worker across every chunk it
// processed: the concatenation of subprocess responses and a running LF
// tally.
type Result struct {
	Bytes []byte
	Tally int
}

// Pool runs exactly Workers goroutines against a shared queue.
type Pool struct {
	Workers        int
	SocketDir      string
	SubprocessPath string
	Log            ioslog.Logger
}

// Run launches the pool, drains q until it is closed and empty, and
// returns one Result per worker. Run itself only fails if the pool could
// not be launched at all (it never fails due to a per-chunk error — those
// are logged and the chunk is dropped).
func (p *Pool) Run(ctx context.Context, q *chunkqueue.Queue) ([]Result, error) {
	n := p.Workers
	if n < 1 {
		n = 1
	}
	log := p.Log
	if log == nil {
		log = ioslog.Discard{}
	}

	results := make([]Result, n)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			runWorker(ctx, i, q, p.SocketDir, p.SubprocessPath, log, &results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runWorker(ctx context.Context, id int, q *chunkqueue.Queue, socketDir, subprocessPath string, log ioslog.Logger, out *Result) {
	for {
		chunk, ok := q.Dequeue()
		if !ok {
			return
		}
		received, tally, err := dispatch(ctx, id, chunk, socketDir, subprocessPath, log)
		if err != nil {
			log.Printf("worker %d: chunk dropped: %s", id, err)
			continue
		}
		out.Bytes = append(out.Bytes, received...)
		out.Tally += tally
	}
}

// dispatch carries one chunk through the IDLE -> ... -> DONE state
// machine of spec.md §4.6. Any returned error means the chunk is dropped;
// the subprocess, if ever spawned, is always reaped before dispatch
// returns.
func dispatch(ctx context.Context, id int, chunk partition.Chunk, socketDir, subprocessPath string, log ioslog.Logger) (received []byte, tally int, err error) {
	corr := uuid.New().String()
	path := filepath.Join(socketDir, fmt.Sprintf("uds_slice_%d.sock", id))
	_ = os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, 0, fmt.Errorf("[%s] socket bind/listen: %w", corr, err)
	}
	defer func() {
		ln.Close()
		os.Remove(path)
	}()

	cmd := exec.CommandContext(ctx, subprocessPath, "--uds-location", path)
	if err := cmd.Start(); err != nil {
		return nil, 0, fmt.Errorf("[%s] spawn %s: %w", corr, subprocessPath, err)
	}
	// the subprocess is always reaped, even on every failure path below
	reap := func() {
		if werr := cmd.Wait(); werr != nil {
			log.Printf("[%s] worker %d: subprocess exit: %s", corr, id, werr)
		}
	}

	conn, err := ln.Accept()
	if err != nil {
		reap()
		return nil, 0, fmt.Errorf("[%s] socket accept: %w", corr, err)
	}
	defer conn.Close()

	if _, err := writeRequest(conn, chunk); err != nil {
		reap()
		return nil, 0, fmt.Errorf("[%s] send: %w", corr, err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		_ = uc.CloseWrite()
	}

	var buf bytes.Buffer
	fixed := make([]byte, receiveBufSize)
	_, readErr := copyBuffer(&buf, conn, fixed)
	reap()
	if readErr != nil {
		return nil, 0, fmt.Errorf("[%s] recv: %w", corr, readErr)
	}

	received = buf.Bytes()
	tally = bytes.Count(received, []byte{'\n'})
	return received, tally, nil
}

func writeRequest(conn net.Conn, chunk partition.Chunk) (int, error) {
	var req bytes.Buffer
	req.Write(chunk.Header)
	req.WriteByte('\n')
	req.Write(chunk.Bytes)
	return conn.Write(req.Bytes())
}

// copyBuffer reads conn to EOF using a caller-supplied fixed-size buffer,
// per spec.md §4.6's "reads are performed into a fixed buffer (>= 1 MiB)".
func copyBuffer(dst *bytes.Buffer, src net.Conn, buf []byte) (int64, error) {
	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			dst.Write(buf[:n])
			total += int64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
	}
}
