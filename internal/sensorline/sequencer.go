package sensorline

import (
	"context"
	"io"

	"github.com/banshee-data/hygro.report/internal/monitoring"
)

var logf = monitoring.Prefixed("sensorline")

// windowSize is the lookback depth. The first slot is primed once with the
// first upstream record; the second slot is filled and released for every
// record after that.
const windowSize = 2

// Sequencer forwards records from an upstream stream as soon as they arrive,
// except for the very first record. On attach the sensor replays the last
// reading it memorised before printing its reset banner, so the first record
// is held in the window and never published.
type Sequencer struct {
	src    RecordStream
	window []Record
	resets int
}

// NewSequencer wraps src.
func NewSequencer(src RecordStream) *Sequencer {
	return &Sequencer{
		src:    src,
		window: make([]Record, 0, windowSize),
	}
}

// Next returns the next record to publish. Each upstream record is appended to
// the window; once it holds two entries the newest is popped and returned, so
// a live reading is published without waiting for its successor. Upstream
// errors, io.EOF included, are returned as-is.
func (s *Sequencer) Next(ctx context.Context) (Record, error) {
	for {
		r, err := s.src.Next(ctx)
		if err != nil {
			if err == io.EOF && len(s.window) == 1 && s.resets == 0 {
				logf("source ended without a sensor reset; first record was withheld: %s", s.window[0])
			}
			return nil, err
		}

		s.window = append(s.window, r)
		if len(s.window) < windowSize {
			logf("withholding first record until the next one arrives: %s", r)
			continue
		}

		newest := s.window[len(s.window)-1]
		s.window = s.window[:len(s.window)-1]
		if newest.IsReset() {
			s.resets++
			logf("sensor reset #%d", s.resets)
		}
		return newest, nil
	}
}

// Resets reports how many reset markers have been released.
func (s *Sequencer) Resets() int { return s.resets }
