// Package textfile publishes the latest sensor record as a small key/value
// file for a textfile metrics collector. The file is a snapshot: every write
// replaces the previous contents.
package textfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/hygro.report/internal/fsutil"
	"github.com/banshee-data/hygro.report/internal/sensorline"
)

// Sink owns the destination for the life of the process.
type Sink struct {
	dst    io.Writer
	writes int
}

// NewSink returns a sink writing to dst. Destinations implementing
// fsutil.Rewinder are emptied before every write and those implementing
// fsutil.Syncer are synced after it; anything else, such as stdout, just
// receives the lines.
func NewSink(dst io.Writer) *Sink {
	return &Sink{dst: dst}
}

// Write replaces the destination contents with rec, one "name value" line per
// pair, and flushes it before returning.
func (s *Sink) Write(rec sensorline.Record) error {
	if rw, ok := s.dst.(fsutil.Rewinder); ok {
		if err := rw.Truncate(0); err != nil {
			return fmt.Errorf("failed to truncate destination: %w", err)
		}
		if _, err := rw.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to rewind destination: %w", err)
		}
	}

	w := bufio.NewWriter(s.dst)
	for _, line := range rec.Lines() {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	if sy, ok := s.dst.(fsutil.Syncer); ok {
		if err := sy.Sync(); err != nil {
			return fmt.Errorf("failed to sync destination: %w", err)
		}
	}
	s.writes++
	return nil
}

// Writes reports how many records have been published.
func (s *Sink) Writes() int { return s.writes }

// ErrPublish marks errors from writing a record, as opposed to errors from
// the stream being consumed.
var ErrPublish = errors.New("failed to publish record")

// Consume writes every record from stream until it reports io.EOF, calling
// published after each successful write when it is non-nil. Stream errors
// are returned unchanged; write errors wrap ErrPublish. With a live source it
// only returns on error.
func (s *Sink) Consume(ctx context.Context, stream sensorline.RecordStream, published func(sensorline.Record)) error {
	for {
		rec, err := stream.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.Write(rec); err != nil {
			return fmt.Errorf("%w: %w", ErrPublish, err)
		}
		if published != nil {
			published(rec)
		}
	}
}
