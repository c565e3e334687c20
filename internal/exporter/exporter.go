// Package exporter runs the sensor pipeline: lines from a source are
// tokenised, sequenced around sensor resets and published to a textfile
// snapshot.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/hygro.report/internal/monitoring"
	"github.com/banshee-data/hygro.report/internal/sensorline"
	"github.com/banshee-data/hygro.report/internal/textfile"
)

var logf = monitoring.Prefixed("exporter")

// Options configures Run.
type Options struct {
	Table       sensorline.FieldTable
	ResetBanner string
}

// Stats summarises a finished run.
type Stats struct {
	Published int
	Resets    int
	Unparsed  int
}

// Run pulls lines from src until it is exhausted and publishes each sequenced
// record to dst. It returns nil when the source ends or ctx is cancelled, and
// the first read or write error otherwise. Run never closes src or dst.
func Run(ctx context.Context, src sensorline.LineReader, dst io.Writer, opts Options) (Stats, error) {
	tok := sensorline.NewTokenizer(opts.Table, opts.ResetBanner)
	seq := sensorline.NewSequencer(sensorline.NewLineStream(src, tok))
	sink := textfile.NewSink(dst)

	var stats Stats
	err := sink.Consume(ctx, seq, func(rec sensorline.Record) {
		stats.Published++
		describe(rec, opts.Table, &stats)
	})
	switch {
	case err == nil:
		logf("source exhausted after %d records", stats.Published)
		return stats, nil
	case errors.Is(err, context.Canceled):
		return stats, nil
	case errors.Is(err, textfile.ErrPublish):
		return stats, err
	default:
		return stats, fmt.Errorf("failed to read sensor: %w", err)
	}
}

func describe(rec sensorline.Record, table sensorline.FieldTable, stats *Stats) {
	reading, err := sensorline.DecodeReading(rec, table)
	if err != nil {
		logf("published record with invalid values (%v): %s", err, rec)
		return
	}
	switch {
	case reading.Reset:
		stats.Resets++
		logf("sensor reset")
	case len(reading.Unparsed) > 0:
		stats.Unparsed++
		logf("published partially parsed reading: %s", reading)
	default:
		logf("published reading: %s", reading)
	}
}
