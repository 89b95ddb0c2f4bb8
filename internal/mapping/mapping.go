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

// Package mapping provides a read-only whole-file memory mapping.
//
// A Mapping is the single pointer-bearing owner of its backing region.
// Every derived structure (line index, device index, chunks) is expected
// to reference this region by integer offset, not by retaining slices or
// pointers past Close.
package mapping

import (
	"errors"
	"fmt"
	"os"
)

// ErrEmptyFile is returned by Open when the input file has size 0.
var ErrEmptyFile = errors.New("mapping: empty file")

// Mapping is an immutable, contiguous view of a file's bytes.
type Mapping struct {
	f    *os.File
	data []byte
}

// Open maps path read-only for its entire length. The returned Mapping
// must be released with Close once every borrower of Bytes has finished.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mapping: open %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mapping: stat %q: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		f.Close()
		return nil, ErrEmptyFile
	}
	data, err := mmap(f, size)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mapping: mmap %q: %w", path, err)
	}
	return &Mapping{f: f, data: data}, nil
}

// Bytes returns the mapped region. The slice is valid until Close is called;
// callers must not retain it (or any sub-slice) past that point.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Len returns the length of the mapped region.
func (m *Mapping) Len() int {
	return len(m.data)
}

// Close tears down the mapping and closes the underlying file descriptor.
// It is safe to call once; calling it twice is a programming error.
func (m *Mapping) Close() error {
	var err error
	if m.data != nil {
		err = unmap(m.data)
		m.data = nil
	}
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}
