package sensorline

import (
	"strings"
	"unicode/utf8"
)

// DefaultResetBanner is the header the sensor prints after a serial attach.
// It is compared byte-for-byte; the "Â°" is how the device output was captured
// and is kept as-is until the raw bytes are re-verified on hardware.
const DefaultResetBanner = "Humidity %,     Temperature Â°C, Sensor-ID"

// Tokenizer turns raw sensor lines into Records.
type Tokenizer struct {
	table  FieldTable
	banner string
}

// NewTokenizer returns a tokenizer using table for tag lookup. An empty banner
// selects DefaultResetBanner.
func NewTokenizer(table FieldTable, banner string) *Tokenizer {
	if banner == "" {
		banner = DefaultResetBanner
	}
	return &Tokenizer{table: table, banner: banner}
}

// ParseLine parses a single line. It never fails: unknown tags degrade to
// failed_to_parse pairs carrying the whole token, and blank lines give an
// empty Record.
func (t *Tokenizer) ParseLine(line string) Record {
	line = strings.TrimSpace(line)
	if line == t.banner {
		return ResetRecord()
	}

	tokens := strings.Fields(line)
	rec := make(Record, 0, len(tokens))
	for _, tok := range tokens {
		tag, size := utf8.DecodeLastRuneInString(tok)
		if d, ok := t.table.Lookup(tag); ok {
			rec = append(rec, Pair{Name: d.Name, Value: tok[:len(tok)-size]})
			continue
		}
		rec = append(rec, Pair{Name: Fallback.Name, Value: tok})
	}
	return rec
}
