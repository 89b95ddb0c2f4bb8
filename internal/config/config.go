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

// Package config resolves the settings for one run of iotslice: an
// optional YAML file, overridden by command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"sigs.k8s.io/yaml"
)

// Config holds everything the pipeline needs for one run.
type Config struct {
	Path           string `json:"-"`
	DeviceColumn   string `json:"deviceColumn"`
	Workers        int    `json:"workers"`
	SubprocessPath string `json:"subprocessPath"`
	SocketDir      string `json:"socketDir"`
	ReemitHeader   bool   `json:"reemitHeader"`
	QueueCapacity  int    `json:"-"`
}

// Defaults returns the baseline configuration before any file or flag is
// applied.
func Defaults() Config {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	return Config{
		DeviceColumn:   "device",
		Workers:        n,
		SubprocessPath: "./src/script/analyze_data.py",
		SocketDir:      "/tmp",
		ReemitHeader:   true,
	}
}

// LoadFile merges the YAML file at path into cfg, only overwriting fields
// explicitly present in the document.
func LoadFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

// ValidatePath checks the input path has a .csv extension, per spec.md §6
// ("Any non-.csv extension is rejected before mapping.").
func ValidatePath(path string) error {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return fmt.Errorf("config: %q does not have a .csv extension", path)
	}
	return nil
}

// Finalize clamps derived fields after flags and files have been applied.
func (c *Config) Finalize() {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.QueueCapacity < c.Workers {
		c.QueueCapacity = c.Workers
	}
	if c.DeviceColumn == "" {
		c.DeviceColumn = "device"
	}
	if c.SocketDir == "" {
		c.SocketDir = "/tmp"
	}
}
