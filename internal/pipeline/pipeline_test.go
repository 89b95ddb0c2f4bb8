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

package pipeline

import (
	"context"
	"flag"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/brightlayer-io/iotslice/internal/config"
	"github.com/brightlayer-io/iotslice/internal/ioslog"
)

var udsLocation = flag.String("uds-location", "", "helper process: socket to connect to")

func TestMain(m *testing.M) {
	if os.Getenv("IOTSLICE_WANT_HELPER_PROCESS") == "1" {
		flag.Parse()
		conn, err := net.Dial("unix", *udsLocation)
		if err != nil {
			os.Exit(1)
		}
		data, err := io.ReadAll(conn)
		conn.Close()
		if err != nil {
			os.Exit(1)
		}
		os.Exit(writeExit(data))
	}
	os.Exit(m.Run())
}

// writeExit discards data and reports success: the helper drains its
// input, closes the connection without writing a response, and exits 0.
func writeExit(data []byte) int {
	_ = data
	return 0
}

func TestRunEndToEndWithFailingSubprocess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sensors.csv")
	content := "id|device\n1|A\n2|B\n3|A\n4|C\n5|A\n6|B\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Defaults()
	cfg.Path = path
	cfg.Workers = 2
	cfg.SocketDir = dir
	cfg.SubprocessPath = exe
	cfg.QueueCapacity = cfg.Workers
	cfg.ReemitHeader = false

	t.Setenv("IOTSLICE_WANT_HELPER_PROCESS", "1")

	summary, err := Run(context.Background(), cfg, ioslog.Discard{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.DeviceCount != 3 {
		t.Fatalf("DeviceCount = %d, want 3", summary.DeviceCount)
	}
	if summary.LineCount != 6 {
		t.Fatalf("LineCount = %d, want 6", summary.LineCount)
	}
	if summary.ChunkCount != cfg.Workers {
		t.Fatalf("ChunkCount = %d, want %d", summary.ChunkCount, cfg.Workers)
	}
	// the helper process never writes a response, so every chunk
	// contributes zero lines to the tally, but the pipeline must still
	// complete and report a (zero) total rather than failing.
	if summary.TotalTally != 0 {
		t.Fatalf("TotalTally = %d, want 0", summary.TotalTally)
	}
}

func TestRunColumnNotFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sensors.csv")
	if err := os.WriteFile(path, []byte("a|b|c\n1|2|3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Defaults()
	cfg.Path = path
	cfg.Workers = 1
	cfg.SocketDir = dir
	cfg.QueueCapacity = 1

	_, err := Run(context.Background(), cfg, ioslog.Discard{})
	if err == nil {
		t.Fatal("expected ColumnNotFound error")
	}
}

func TestRunEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Defaults()
	cfg.Path = path
	cfg.Workers = 1
	cfg.QueueCapacity = 1

	_, err := Run(context.Background(), cfg, ioslog.Discard{})
	if err == nil {
		t.Fatal("expected EmptyFile error")
	}
}
