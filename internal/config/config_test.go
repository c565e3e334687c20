package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/hygro.report/internal/sensorline"
	"github.com/banshee-data/hygro.report/internal/sensorport"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestEmptyConfig_Defaults(t *testing.T) {
	cfg := EmptyConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty config should be valid: %v", err)
	}
	if got := cfg.GetReadTimeout(); got != sensorport.DefaultReadTimeout {
		t.Errorf("GetReadTimeout() = %v, want %v", got, sensorport.DefaultReadTimeout)
	}
	if got := cfg.GetReplayDelay(); got != 2*time.Second {
		t.Errorf("GetReplayDelay() = %v, want 2s", got)
	}
	if got := cfg.GetResetBanner(); got != sensorline.DefaultResetBanner {
		t.Errorf("GetResetBanner() = %q", got)
	}
	if got := cfg.FieldTable().Len(); got != 3 {
		t.Errorf("FieldTable().Len() = %d, want 3", got)
	}

	opts, err := cfg.PortOptions().Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if opts.BaudRate != 19200 {
		t.Errorf("BaudRate = %d, want 19200", opts.BaudRate)
	}
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeConfig(t, "hygro.json", `{
		"baud_rate": 9600,
		"read_timeout": "250ms",
		"replay_delay": "0s",
		"fields": {"P": {"name": "pressure_hpa", "kind": "float"}}
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if opts := cfg.PortOptions(); opts.BaudRate != 9600 || opts.ReadTimeout != 250*time.Millisecond {
		t.Errorf("PortOptions() = %+v", opts)
	}
	if got := cfg.GetReplayDelay(); got != 0 {
		t.Errorf("GetReplayDelay() = %v, want 0", got)
	}

	table := cfg.FieldTable()
	d, ok := table.Lookup('P')
	if !ok || d.Name != "pressure_hpa" || d.Kind != sensorline.KindFloat {
		t.Errorf("Lookup('P') = %+v, %v", d, ok)
	}
	if _, ok := table.Lookup('%'); ok {
		t.Error("configured fields replace the default table")
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, "hygro.yml", `
parity: even
stop_bits: 2
reset_banner: "SENSOR RESET"
fields:
  "t":
    name: temperature_degree_celcius
    kind: float
  "n":
    name: identifier
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	opts, err := cfg.PortOptions().Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if opts.Parity != "E" || opts.StopBits != 2 {
		t.Errorf("PortOptions() = %+v", opts)
	}
	if cfg.GetResetBanner() != "SENSOR RESET" {
		t.Errorf("GetResetBanner() = %q", cfg.GetResetBanner())
	}
	d, ok := cfg.FieldTable().Lookup('n')
	if !ok || d.Kind != sensorline.KindString {
		t.Errorf("kind should default to string: %+v, %v", d, ok)
	}
}

func TestLoadConfig_ExampleFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", DefaultConfigPath))
	if err != nil {
		t.Fatalf("LoadConfig(example) error = %v", err)
	}
	tok := sensorline.NewTokenizer(cfg.FieldTable(), cfg.GetResetBanner())
	if !tok.ParseLine(sensorline.DefaultResetBanner).IsReset() {
		t.Error("example config should keep the device banner")
	}
	if got := tok.ParseLine("45.2%"); got[0].Name != sensorline.FieldHumidity {
		t.Errorf("example config tag table mismatch: %v", got)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"extension", "hygro.toml", `baud_rate = 1`, "extension"},
		{"bad json", "hygro.json", `{`, "failed to parse"},
		{"bad yaml", "hygro.yaml", "fields: [", "failed to parse"},
		{"negative baud", "hygro.json", `{"baud_rate": -1}`, "baud_rate"},
		{"bad timeout", "hygro.json", `{"read_timeout": "soon"}`, "read_timeout"},
		{"zero timeout", "hygro.json", `{"read_timeout": "0s"}`, "read_timeout"},
		{"negative delay", "hygro.json", `{"replay_delay": "-1s"}`, "replay_delay"},
		{"parity", "hygro.json", `{"parity": "mark"}`, "parity"},
		{"padded banner", "hygro.json", `{"reset_banner": " RESET "}`, "reset_banner"},
		{"long tag", "hygro.json", `{"fields": {"ab": {"name": "x"}}}`, "single character"},
		{"blank tag", "hygro.json", `{"fields": {" ": {"name": "x"}}}`, "whitespace"},
		{"empty name", "hygro.json", `{"fields": {"x": {"name": ""}}}`, "non-empty"},
		{"reserved name", "hygro.json", `{"fields": {"x": {"name": "sensor_reset"}}}`, "reserved"},
		{"duplicate name", "hygro.json", `{"fields": {"x": {"name": "a"}, "y": {"name": "a"}}}`, "share the name"},
		{"bad kind", "hygro.json", `{"fields": {"x": {"name": "a", "kind": "int"}}}`, "unknown value kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatalf("LoadConfig() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfig_TooLarge(t *testing.T) {
	path := writeConfig(t, "big.json", `{"reset_banner": "`+strings.Repeat("x", maxFileSize)+`"}`)
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("LoadConfig() error = %v, want too large", err)
	}
}

func TestSetters(t *testing.T) {
	cfg := EmptyConfig()
	cfg.SetBaudRate(115200)
	cfg.SetReadTimeout(time.Second)
	cfg.SetReplayDelay(0)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.PortOptions().BaudRate != 115200 {
		t.Errorf("BaudRate = %d", cfg.PortOptions().BaudRate)
	}
	if cfg.GetReadTimeout() != time.Second {
		t.Errorf("GetReadTimeout() = %v", cfg.GetReadTimeout())
	}
	if cfg.GetReplayDelay() != 0 {
		t.Errorf("GetReplayDelay() = %v", cfg.GetReplayDelay())
	}
}
