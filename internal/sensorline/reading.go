package sensorline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// Reading is the typed view of a measurement Record.
type Reading struct {
	Humidity    physic.RelativeHumidity
	Temperature physic.Temperature
	Identifier  string

	HasHumidity    bool
	HasTemperature bool
	Reset          bool
	// Unparsed holds the raw tokens that had no known tag.
	Unparsed []string
}

// String satisfies the fmt.Stringer interface.
func (r Reading) String() string {
	if r.Reset {
		return "sensor reset"
	}
	var parts []string
	if r.Identifier != "" {
		parts = append(parts, "id="+r.Identifier)
	}
	if r.HasHumidity {
		parts = append(parts, "humidity="+r.Humidity.String())
	}
	if r.HasTemperature {
		parts = append(parts, "temperature="+r.Temperature.String())
	}
	if len(r.Unparsed) > 0 {
		parts = append(parts, fmt.Sprintf("unparsed=%q", r.Unparsed))
	}
	return strings.Join(parts, " ")
}

// DecodeReading converts rec into a Reading, parsing values according to the
// kinds registered in table. Fields the table does not know are ignored apart
// from failed_to_parse, which is collected into Unparsed. The first value that
// does not parse as its declared kind is reported as an error.
func DecodeReading(rec Record, table FieldTable) (Reading, error) {
	var r Reading
	if rec.IsReset() {
		r.Reset = true
		return r, nil
	}

	for _, p := range rec {
		if p.Name == Fallback.Name {
			r.Unparsed = append(r.Unparsed, p.Value)
			continue
		}
		d, ok := table.ByName(p.Name)
		if !ok {
			continue
		}
		if d.Kind != KindFloat {
			if p.Name == FieldIdentifier {
				r.Identifier = p.Value
			}
			continue
		}

		v, err := strconv.ParseFloat(p.Value, 64)
		if err != nil {
			return r, fmt.Errorf("field %s: invalid value %q: %w", p.Name, p.Value, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return r, fmt.Errorf("field %s: invalid value %q", p.Name, p.Value)
		}
		switch p.Name {
		case FieldHumidity:
			if v < 0 || v > 100 {
				return r, fmt.Errorf("field %s: %v%% is out of range", p.Name, v)
			}
			r.Humidity = physic.RelativeHumidity(math.Round(v * float64(physic.PercentRH)))
			r.HasHumidity = true
		case FieldTemperature:
			r.Temperature = physic.ZeroCelsius + physic.Temperature(math.Round(v*float64(physic.Celsius)))
			r.HasTemperature = true
		}
	}
	return r, nil
}
