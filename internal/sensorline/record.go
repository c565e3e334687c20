package sensorline

import "strings"

// Pair is a single (field name, raw value) element of a Record.
type Pair struct {
	Name  string
	Value string
}

// Record is the ordered list of pairs parsed from one input line.
type Record []Pair

// ResetRecord returns the marker produced for the device reset banner.
func ResetRecord() Record {
	return Record{{Name: FieldReset, Value: "True"}}
}

// IsReset reports whether the record is a reset marker. Only the first pair
// is inspected.
func (r Record) IsReset() bool {
	return len(r) > 0 && r[0].Name == FieldReset && r[0].Value == "True"
}

// Lines renders the record in the textfile form: one "name value" entry per
// pair, in record order.
func (r Record) Lines() []string {
	lines := make([]string, 0, len(r))
	for _, p := range r {
		lines = append(lines, p.Name+" "+p.Value)
	}
	return lines
}

func (r Record) String() string {
	return strings.Join(r.Lines(), ", ")
}
