package sensorline

import (
	"context"
	"io"
)

// LineReader is the pull side of a line source. Next blocks until a line is
// available and returns io.EOF once the source is exhausted.
type LineReader interface {
	Next(ctx context.Context) (string, error)
}

// RecordStream yields parsed records on demand, returning io.EOF at the end.
type RecordStream interface {
	Next(ctx context.Context) (Record, error)
}

// LineStream applies a Tokenizer to every line pulled from a LineReader.
type LineStream struct {
	lines LineReader
	tok   *Tokenizer
}

// NewLineStream returns a RecordStream over lines.
func NewLineStream(lines LineReader, tok *Tokenizer) *LineStream {
	return &LineStream{lines: lines, tok: tok}
}

// Next reads one line and parses it. Errors from the line reader, io.EOF
// included, are returned unchanged.
func (s *LineStream) Next(ctx context.Context) (Record, error) {
	line, err := s.lines.Next(ctx)
	if err != nil {
		return nil, err
	}
	return s.tok.ParseLine(line), nil
}

// SliceStream serves a fixed list of records, mainly for tests and replaying
// captured data.
type SliceStream struct {
	records []Record
	pos     int
}

// NewSliceStream returns a stream over records.
func NewSliceStream(records ...Record) *SliceStream {
	return &SliceStream{records: records}
}

// Next returns the next record or io.EOF.
func (s *SliceStream) Next(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

// Collect drains stream into a slice. It stops at io.EOF, returning the
// records read so far with a nil error, or at the first other error.
func Collect(ctx context.Context, stream RecordStream) ([]Record, error) {
	var out []Record
	for {
		r, err := stream.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
}
