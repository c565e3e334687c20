// Package sensorport supplies raw lines from the humidity sensor: a serial
// port, a captured replay file, or standard input.
package sensorport

import (
	"errors"
	"io"
	"time"
)

var (
	// ErrPortClosed is returned when reading from a source after Close.
	ErrPortClosed = errors.New("sensor port closed")
	// ErrNoDevice is returned by Detect when no candidate port is attached.
	ErrNoDevice = errors.New("no serial sensor detected")
)

// SerialPorter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type SerialPorter interface {
	io.Reader
	io.Closer
}

// TimeoutSerialPorter extends SerialPorter with timeout capabilities.
// Ports implementing it return (0, nil) from Read when the timeout elapses.
type TimeoutSerialPorter interface {
	SerialPorter
	SetReadTimeout(timeout time.Duration) error
}

// SerialPortOpener opens a serial port at path. Tests replace the production
// opener to inject a TestableSerialPort.
type SerialPortOpener func(path string, opts PortOptions) (SerialPorter, error)
