package io

import (
	"fmt"
	"os"

	"golang.org/x/exp/mmap"
)

// MappedFile provides memory-mapped read access to a recording
type MappedFile struct {
	reader   *mmap.ReaderAt
	size     int64
	prevSize int64
	path     string
}

// OpenMapped maps path read-only
func OpenMapped(path string) (*MappedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	return &MappedFile{
		reader: reader,
		size:   int64(reader.Len()),
		path:   path,
	}, nil
}

// ReadAt reads len(p) bytes at offset
func (m *MappedFile) ReadAt(p []byte, off int64) (int, error) {
	return m.reader.ReadAt(p, off)
}

// Size returns the mapped size
func (m *MappedFile) Size() int64 {
	return m.size
}

// Path returns the file path
func (m *MappedFile) Path() string {
	return m.path
}

// Close unmaps the file
func (m *MappedFile) Close() error {
	return m.reader.Close()
}

// Refresh remaps the file if a recorder has appended to it since the last
// look. It reports whether the size changed.
func (m *MappedFile) Refresh() (bool, error) {
	info, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	if info.Size() <= m.size {
		return false, nil
	}

	reader, err := mmap.Open(m.path)
	if err != nil {
		return false, err
	}
	m.reader.Close()

	m.reader = reader
	m.prevSize = m.size
	m.size = int64(reader.Len())
	return true, nil
}

// PreviousSize returns the size before the last successful Refresh
func (m *MappedFile) PreviousSize() int64 {
	return m.prevSize
}

// ReadRange reads bytes in [start, end)
func (m *MappedFile) ReadRange(start, end int64) ([]byte, error) {
	if end > m.size {
		end = m.size
	}
	if start >= end {
		return nil, nil
	}

	buf := make([]byte, end-start)
	if _, err := m.reader.ReadAt(buf, start); err != nil {
		return nil, err
	}
	return buf, nil
}
