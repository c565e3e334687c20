// Package fsutil provides the output file abstractions used by the textfile
// sink, with an in-memory implementation for tests.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// StdoutPath selects standard output as the destination.
const StdoutPath = "-"

// Rewinder is implemented by destinations that can be emptied and rewritten
// from the start, such as regular files.
type Rewinder interface {
	Truncate(size int64) error
	Seek(offset int64, whence int) (int64, error)
}

// Syncer is implemented by destinations that can flush to stable storage.
type Syncer interface {
	Sync() error
}

// OpenDestination opens path for writing, creating or truncating it. "-"
// returns standard output, which is never closed by the returned closer.
func OpenDestination(path string) (io.WriteCloser, error) {
	if path == StdoutPath {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open destination %s: %w", path, err)
	}
	return f, nil
}

// nopCloser keeps stdout open across Close. Truncate and Seek are not
// exposed since stdout is usually a pipe or terminal.
type nopCloser struct {
	f *os.File
}

func (n nopCloser) Write(p []byte) (int, error) { return n.f.Write(p) }
func (n nopCloser) Close() error                { return nil }

// MemoryFile is an in-memory destination supporting truncate, seek and sync.
type MemoryFile struct {
	mu     sync.Mutex
	data   []byte
	offset int64
	syncs  int
	closed bool

	// WriteError is returned by every Write if set.
	WriteError error
}

// NewMemoryFile creates an empty in-memory file.
func NewMemoryFile() *MemoryFile { return &MemoryFile{} }

// Write writes at the current offset, growing the file as needed.
func (m *MemoryFile) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, os.ErrClosed
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	end := m.offset + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.offset:], p)
	m.offset = end
	return len(p), nil
}

// Truncate changes the size of the file without moving the offset.
func (m *MemoryFile) Truncate(size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if size < 0 {
		return errors.New("negative truncate size")
	}
	if size <= int64(len(m.data)) {
		m.data = m.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, m.data)
	m.data = grown
	return nil
}

// Seek sets the offset for the next Write.
func (m *MemoryFile) Seek(offset int64, whence int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.offset + offset
	case io.SeekEnd:
		abs = int64(len(m.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("negative seek position")
	}
	m.offset = abs
	return abs, nil
}

// Sync counts flushes.
func (m *MemoryFile) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncs++
	return nil
}

// Close marks the file closed.
func (m *MemoryFile) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// String returns the current contents.
func (m *MemoryFile) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.data)
}

// Syncs returns how many times Sync was called.
func (m *MemoryFile) Syncs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncs
}
