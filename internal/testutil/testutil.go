// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SampleLines is a short capture from the sensor: a reading replayed on
// attach, the reset banner, then fresh readings.
var SampleLines = []string{
	"44.9% 21.5C Sensor1i",
	"Humidity %,     Temperature Â°C, Sensor-ID",
	"45.2% 21.7C Sensor1i",
	"45.3% 21.7C Sensor1i",
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// WriteLines writes lines, newline terminated, to name inside a fresh
// temporary directory and returns the file path.
func WriteLines(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data := strings.Join(lines, "\n")
	if len(lines) > 0 {
		data += "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// ReadFile returns the contents of path, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
