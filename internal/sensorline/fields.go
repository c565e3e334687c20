// Package sensorline parses the line protocol spoken by the serial
// temperature/humidity sensor and sequences the parsed records around the
// reset banner the device prints when it is attached.
package sensorline

import "fmt"

// ValueKind describes how the value of a field should be interpreted once it
// has been tokenised. The tokenizer itself never converts values.
type ValueKind int

const (
	KindString ValueKind = iota
	KindFloat
)

func (k ValueKind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// ParseValueKind maps the configuration spelling of a kind onto a ValueKind.
func ParseValueKind(s string) (ValueKind, error) {
	switch s {
	case "float":
		return KindFloat, nil
	case "string", "":
		return KindString, nil
	default:
		return KindString, fmt.Errorf("unknown value kind %q: expected float or string", s)
	}
}

// Field names emitted by the default table.
const (
	FieldHumidity    = "relative_humidity_percent"
	FieldTemperature = "temperature_degree_celcius"
	FieldIdentifier  = "identifier"
	FieldUnparsed    = "failed_to_parse"
	FieldReset       = "sensor_reset"
)

// FieldDescriptor names a measurement and the kind of its value.
type FieldDescriptor struct {
	Name string
	Kind ValueKind
}

// Fallback is the descriptor used for tokens whose tag is not in the table.
var Fallback = FieldDescriptor{Name: FieldUnparsed, Kind: KindString}

// FieldTable maps a token's trailing tag character to its descriptor. A table
// is immutable once built; it is constructed at startup and handed to the
// Tokenizer explicitly.
type FieldTable struct {
	fields map[rune]FieldDescriptor
}

// NewFieldTable builds a table from the given tag mapping. The map is copied so
// later changes by the caller do not leak into the table.
func NewFieldTable(fields map[rune]FieldDescriptor) FieldTable {
	m := make(map[rune]FieldDescriptor, len(fields))
	for tag, d := range fields {
		m[tag] = d
	}
	return FieldTable{fields: m}
}

// DefaultFieldTable returns the tags printed by the stock sensor firmware.
func DefaultFieldTable() FieldTable {
	return NewFieldTable(map[rune]FieldDescriptor{
		'%': {Name: FieldHumidity, Kind: KindFloat},
		'C': {Name: FieldTemperature, Kind: KindFloat},
		'i': {Name: FieldIdentifier, Kind: KindString},
	})
}

// Lookup returns the descriptor registered for tag.
func (t FieldTable) Lookup(tag rune) (FieldDescriptor, bool) {
	d, ok := t.fields[tag]
	return d, ok
}

// ByName returns the descriptor whose semantic name is name. The fallback
// descriptor is always known.
func (t FieldTable) ByName(name string) (FieldDescriptor, bool) {
	if name == Fallback.Name {
		return Fallback, true
	}
	for _, d := range t.fields {
		if d.Name == name {
			return d, true
		}
	}
	return FieldDescriptor{}, false
}

// Len reports the number of registered tags.
func (t FieldTable) Len() int { return len(t.fields) }
