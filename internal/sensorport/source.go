package sensorport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/banshee-data/hygro.report/internal/monitoring"
	"github.com/banshee-data/hygro.report/internal/timeutil"
)

var logf = monitoring.Prefixed("sensorport")

const (
	// StdinPath selects standard input as the line source.
	StdinPath = "-"
	// AutoPath selects the first detected USB serial device.
	AutoPath = "auto"
	// DefaultReplayDelay paces replay files to roughly the sensor's output rate.
	DefaultReplayDelay = 2 * time.Second
)

// LineSource yields raw lines from the sensor. Next blocks until a full line is
// available and returns io.EOF when the source is exhausted. A trailing line
// without a newline is returned before io.EOF.
type LineSource interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// lineReader splits an io.Reader into lines without the trailing newline.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

func (l *lineReader) next() (string, error) {
	line, err := l.r.ReadString('\n')
	if err == io.EOF && line != "" {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// pollReader turns a port that returns (0, nil) on read timeout into a
// blocking reader that gives up once ctx is cancelled.
type pollReader struct {
	port SerialPorter
	ctx  context.Context
}

func (p *pollReader) Read(b []byte) (int, error) {
	for {
		if err := p.ctx.Err(); err != nil {
			return 0, err
		}
		n, err := p.port.Read(b)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

// SerialSource reads lines from a serial port. Each read is bounded by the
// port's read timeout so context cancellation is observed between reads.
type SerialSource struct {
	path   string
	port   SerialPorter
	poll   *pollReader
	lines  *lineReader
	mu     sync.Mutex
	closed bool
}

// NewSerialSource wraps an already opened port. When the port supports read
// timeouts, timeout is applied to it.
func NewSerialSource(path string, port SerialPorter, timeout time.Duration) (*SerialSource, error) {
	if tp, ok := port.(TimeoutSerialPorter); ok && timeout > 0 {
		if err := tp.SetReadTimeout(timeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to set read timeout on %s: %w", path, err)
		}
	}
	poll := &pollReader{port: port, ctx: context.Background()}
	return &SerialSource{
		path:  path,
		port:  port,
		poll:  poll,
		lines: newLineReader(poll),
	}, nil
}

// Next reads one line from the port. A port error, such as a device
// disconnect, is terminal and is returned wrapped with the port path.
func (s *SerialSource) Next(ctx context.Context) (string, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return "", ErrPortClosed
	}

	s.poll.ctx = ctx
	line, err := s.lines.next()
	if err == nil {
		return line, nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "", err
	}
	return "", fmt.Errorf("failed to read from %s: %w", s.path, err)
}

// Close releases the serial port. It is safe to call more than once.
func (s *SerialSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}

// ReplaySource replays a captured file line by line, waiting delay before
// handing out each line to mimic the live sensor.
type ReplaySource struct {
	name  string
	file  io.ReadCloser
	lines *lineReader
	clock timeutil.Clock
	delay time.Duration
}

// NewReplaySource paces lines from rc using clock. A nil clock selects the
// real clock.
func NewReplaySource(name string, rc io.ReadCloser, delay time.Duration, clock timeutil.Clock) *ReplaySource {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &ReplaySource{
		name:  name,
		file:  rc,
		lines: newLineReader(rc),
		clock: clock,
		delay: delay,
	}
}

// Next reads the next line and waits for the replay delay before returning
// it. The end of the file is reported without waiting.
func (r *ReplaySource) Next(ctx context.Context) (string, error) {
	line, err := r.lines.next()
	if err == io.EOF {
		return "", io.EOF
	}
	if err != nil {
		return "", fmt.Errorf("failed to read replay file %s: %w", r.name, err)
	}
	if err := timeutil.Sleep(ctx, r.clock, r.delay); err != nil {
		return "", err
	}
	return line, nil
}

// Close closes the replay file.
func (r *ReplaySource) Close() error {
	return r.file.Close()
}

// ReaderSource reads unpaced lines from a reader such as standard input.
// Reads are not interruptible; cancellation is noticed between lines.
type ReaderSource struct {
	lines  *lineReader
	closer io.Closer
}

// NewReaderSource wraps r. If r is an io.Closer it is closed by Close.
func NewReaderSource(r io.Reader) *ReaderSource {
	s := &ReaderSource{lines: newLineReader(r)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Next returns the next line from the reader.
func (s *ReaderSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.lines.next()
}

// Close closes the underlying reader when it supports closing.
func (s *ReaderSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// OpenOptions configures Open.
type OpenOptions struct {
	Port        PortOptions
	ReplayDelay time.Duration
	Clock       timeutil.Clock

	// Stdin is used for StdinPath; defaults to os.Stdin.
	Stdin io.Reader
	// OpenPort opens serial devices; defaults to OpenSerialPort.
	OpenPort SerialPortOpener
	// Detect resolves AutoPath; defaults to Detect.
	Detect func() (string, error)
}

// Open acquires the line source named by path: "-" reads standard input,
// "auto" detects a USB serial sensor, a character device is opened as a
// serial port and any other path is replayed as a capture file. The caller
// must Close the returned source.
func Open(path string, opts OpenOptions) (LineSource, error) {
	if path == StdinPath {
		stdin := opts.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		return NewReaderSource(io.NopCloser(stdin)), nil
	}

	if path == AutoPath {
		detect := opts.Detect
		if detect == nil {
			detect = Detect
		}
		dev, err := detect()
		if err != nil {
			return nil, err
		}
		logf("detected sensor at %s", dev)
		return openSerial(dev, opts)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source %s: %w", path, err)
	}
	if fi.Mode()&os.ModeCharDevice != 0 {
		return openSerial(path, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file %s: %w", path, err)
	}
	delay := opts.ReplayDelay
	if delay < 0 {
		delay = 0
	}
	logf("replaying %s with %v between lines", path, delay)
	return NewReplaySource(path, f, delay, opts.Clock), nil
}

func openSerial(path string, opts OpenOptions) (LineSource, error) {
	portOpts, err := opts.Port.Normalize()
	if err != nil {
		return nil, err
	}
	open := opts.OpenPort
	if open == nil {
		open = OpenSerialPort
	}
	port, err := open(path, portOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	logf("opened %s at %d baud", path, portOpts.BaudRate)
	return NewSerialSource(path, port, portOpts.ReadTimeout)
}

// OpenSerialPort opens a real serial port with go.bug.st/serial.
func OpenSerialPort(path string, opts PortOptions) (SerialPorter, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}
