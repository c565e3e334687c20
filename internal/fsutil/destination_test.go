package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryFile_TruncateAndRewrite(t *testing.T) {
	m := NewMemoryFile()
	if _, err := m.Write([]byte("a long first line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := m.Truncate(0); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}
	if _, err := m.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if _, err := m.Write([]byte("short\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := m.String(); got != "short\n" {
		t.Errorf("contents = %q, want %q", got, "short\n")
	}
}

func TestMemoryFile_WriteAfterTruncateWithoutSeekPads(t *testing.T) {
	// Matches os.File: the offset is kept, so the gap is zero-filled.
	m := NewMemoryFile()
	m.Write([]byte("abc"))
	m.Truncate(0)
	m.Write([]byte("d"))
	if got := m.String(); got != "\x00\x00\x00d" {
		t.Errorf("contents = %q", got)
	}
}

func TestMemoryFile_SeekErrors(t *testing.T) {
	m := NewMemoryFile()
	if _, err := m.Seek(-1, io.SeekStart); err == nil {
		t.Error("expected error for negative position")
	}
	if _, err := m.Seek(0, 42); err == nil {
		t.Error("expected error for invalid whence")
	}
}

func TestMemoryFile_Closed(t *testing.T) {
	m := NewMemoryFile()
	m.Close()
	if _, err := m.Write([]byte("x")); err == nil {
		t.Error("expected error writing to closed file")
	}
}

func TestOpenDestination_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hygro.prom")
	if err := os.WriteFile(path, []byte("stale content\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := OpenDestination(path)
	if err != nil {
		t.Fatalf("OpenDestination failed: %v", err)
	}
	defer w.Close()

	if _, ok := w.(Rewinder); !ok {
		t.Error("regular file destination should support truncate and seek")
	}
	data, _ := os.ReadFile(path)
	if len(data) != 0 {
		t.Errorf("destination not truncated on open: %q", data)
	}
}

func TestOpenDestination_Stdout(t *testing.T) {
	w, err := OpenDestination(StdoutPath)
	if err != nil {
		t.Fatalf("OpenDestination failed: %v", err)
	}
	if _, ok := w.(Rewinder); ok {
		t.Error("stdout destination must not be rewound")
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestOpenDestination_BadPath(t *testing.T) {
	if _, err := OpenDestination(filepath.Join(t.TempDir(), "missing", "out.prom")); err == nil {
		t.Error("expected error for missing parent directory")
	}
}
