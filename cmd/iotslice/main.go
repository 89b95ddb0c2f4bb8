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

// Command iotslice partitions a pipe-delimited CSV of IoT sensor records
// across N worker streams by device, and hands each stream to an external
// analysis subprocess over a local stream socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brightlayer-io/iotslice/internal/config"
	"github.com/brightlayer-io/iotslice/internal/ioslog"
	"github.com/brightlayer-io/iotslice/internal/pipeline"
)

func main() {
	workers := flag.Int("workers", 0, "number of parallel workers (default: number of CPUs)")
	subprocess := flag.String("subprocess", "", "path to the analysis subprocess executable")
	socketDir := flag.String("socket-dir", "", "directory for worker unix-domain sockets")
	reemitHeader := flag.Bool("reemit-header", true, "subprocess re-emits the header row per response")
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s <path-to-file.csv> [device-column-name] [flags]\n", os.Args[0])
		os.Exit(1)
	}
	path := args[0]
	column := ""
	if len(args) > 1 {
		column = args[1]
	}

	if err := config.ValidatePath(path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg := config.Defaults()
	if *configPath != "" {
		if err := config.LoadFile(&cfg, *configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	cfg.Path = path
	if column != "" {
		cfg.DeviceColumn = column
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *subprocess != "" {
		cfg.SubprocessPath = *subprocess
	}
	if *socketDir != "" {
		cfg.SocketDir = *socketDir
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "reemit-header" {
			cfg.ReemitHeader = *reemitHeader
		}
	})
	cfg.Finalize()

	log := ioslog.Default()
	start := time.Now()
	summary, err := pipeline.Run(context.Background(), cfg, log)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "iotslice: %s\n", err)
		os.Exit(1)
	}

	report(os.Stdout, cfg, summary, elapsed)
}
