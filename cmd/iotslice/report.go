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

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/brightlayer-io/iotslice/internal/config"
	"github.com/brightlayer-io/iotslice/internal/pipeline"
)

// report prints a plain-text summary of one run, in the same
// fmt.Fprintf-to-stdout style the teacher's cmd/sdb subcommands use for
// their own reports (no terminal-UI library is involved anywhere in the
// source material for this kind of output).
func report(w io.Writer, cfg config.Config, s pipeline.Summary, elapsed time.Duration) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file:\t%s\n", cfg.Path)
	fmt.Fprintf(tw, "device column:\t%s\n", cfg.DeviceColumn)
	fmt.Fprintf(tw, "workers:\t%d\n", cfg.Workers)
	fmt.Fprintf(tw, "devices:\t%d\n", s.DeviceCount)
	fmt.Fprintf(tw, "data lines:\t%d\n", s.LineCount)
	fmt.Fprintf(tw, "chunks:\t%d\n", s.ChunkCount)
	fmt.Fprintf(tw, "total tally:\t%d\n", s.TotalTally)
	fmt.Fprintf(tw, "elapsed:\t%s\n", elapsed.Round(time.Millisecond))
	tw.Flush()

	for i, t := range s.WorkerTally {
		fmt.Fprintf(w, "  worker %d: %d lines\n", i, t)
	}
}
