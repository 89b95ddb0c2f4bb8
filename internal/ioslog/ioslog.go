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

// Package ioslog defines the small Logger interface used throughout this
// module, and a default implementation backed by the standard library's
// log package.
package ioslog

import (
	"log"
	"os"
)

// Logger is implemented by anything that can accept a printf-style log
// line. Per-chunk failures and other non-fatal events are reported
// through it rather than returned as errors, so that one worker's
// trouble never stops its siblings.
type Logger interface {
	Printf(format string, args ...interface{})
}

// Default returns a Logger that writes to stderr, prefixing each line
// with the standard log package's date and time.
func Default() Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}

// Discard is a Logger that drops everything; useful in tests.
type Discard struct{}

// Printf implements Logger by doing nothing.
func (Discard) Printf(string, ...interface{}) {}
