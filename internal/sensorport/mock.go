package sensorport

import (
	"bytes"
	"sync"
	"time"
)

// TestableSerialPort implements TimeoutSerialPorter with configurable
// behaviour for testing. An empty buffer behaves like an elapsed read
// timeout and returns (0, nil), the same as go.bug.st/serial.
type TestableSerialPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// ReadLatency adds a delay to each Read call
	ReadLatency time.Duration

	// ReadError is returned by the next Read call if set
	ReadError error

	// StickyError is returned by every Read once the buffer is drained
	StickyError error

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	// ReadCalls records the number of Read calls
	ReadCalls int

	// ReadTimeout is the current read timeout
	ReadTimeout time.Duration

	// MaxChunk limits how many bytes a single Read returns; 0 means no limit
	MaxChunk int
}

// NewTestableSerialPort creates a port whose reads serve data.
func NewTestableSerialPort(data string) *TestableSerialPort {
	return &TestableSerialPort{ReadBuffer: bytes.NewBufferString(data)}
}

// Read serves buffered data, optionally simulating latency and errors.
func (t *TestableSerialPort) Read(p []byte) (int, error) {
	t.mu.Lock()
	t.ReadCalls++
	latency := t.ReadLatency
	t.mu.Unlock()

	if latency > 0 {
		time.Sleep(latency)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return 0, ErrPortClosed
	}
	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}
	if t.ReadBuffer.Len() == 0 {
		return 0, t.StickyError
	}
	if t.MaxChunk > 0 && len(p) > t.MaxChunk {
		p = p[:t.MaxChunk]
	}
	return t.ReadBuffer.Read(p)
}

// Close marks the port as closed.
func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
	return t.CloseError
}

// SetReadTimeout implements TimeoutSerialPorter.
func (t *TestableSerialPort) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadTimeout = timeout
	return nil
}

// AddReadData appends data to be returned by subsequent Read calls.
func (t *TestableSerialPort) AddReadData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadBuffer.WriteString(data)
}

// IsClosed reports whether Close has been called.
func (t *TestableSerialPort) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Closed
}

// Opener returns a SerialPortOpener that hands out t and records the options
// it was asked to open with.
func (t *TestableSerialPort) Opener(calls *[]PortOptions) SerialPortOpener {
	return func(path string, opts PortOptions) (SerialPorter, error) {
		if calls != nil {
			*calls = append(*calls, opts)
		}
		return t, nil
	}
}
