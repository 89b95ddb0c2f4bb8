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

//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly || solaris)
// +build !linux,!darwin,!freebsd,!netbsd,!openbsd,!dragonfly,!solaris

package mapping

import "os"

// mmap falls back to a plain read on platforms without a POSIX mmap(2).
// The stream-socket IPC dispatcher this package ultimately feeds is itself
// POSIX-only, so this path exists only so the mapping layer degrades
// gracefully rather than failing to build.
func mmap(f *os.File, size int64) ([]byte, error) {
	buf := make([]byte, size)
	_, err := f.ReadAt(buf, 0)
	return buf, err
}

func unmap(data []byte) error {
	return nil
}
