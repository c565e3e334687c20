package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/hygro.report/internal/sensorline"
	"github.com/banshee-data/hygro.report/internal/sensorport"
)

// DefaultConfigPath is the example configuration shipped with the repository.
const DefaultConfigPath = "config/hygro.example.yaml"

// maxFileSize caps configuration files at 1MB.
const maxFileSize = 1 * 1024 * 1024

// FieldConfig describes one entry of the tag table.
type FieldConfig struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// Config holds the exporter settings. Every field is optional: nil means the
// built-in default, returned by the matching Get* method.
type Config struct {
	// Serial params
	BaudRate    *int    `json:"baud_rate,omitempty" yaml:"baud_rate,omitempty"`
	DataBits    *int    `json:"data_bits,omitempty" yaml:"data_bits,omitempty"`
	StopBits    *int    `json:"stop_bits,omitempty" yaml:"stop_bits,omitempty"`
	Parity      *string `json:"parity,omitempty" yaml:"parity,omitempty"`
	ReadTimeout *string `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty"` // duration string like "100ms"

	// Replay params
	ReplayDelay *string `json:"replay_delay,omitempty" yaml:"replay_delay,omitempty"` // duration string like "2s"

	// Protocol params
	ResetBanner *string                `json:"reset_banner,omitempty" yaml:"reset_banner,omitempty"`
	Fields      map[string]FieldConfig `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Helper functions to create pointers
func ptrInt(v int) *int         { return &v }
func ptrString(v string) *string { return &v }

// EmptyConfig returns a Config with all fields set to nil.
func EmptyConfig() *Config {
	return &Config{}
}

// LoadConfig loads a Config from a .json, .yaml or .yml file and validates it.
// Fields omitted from the file keep their defaults, so partial configs are
// safe.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", cleanPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}

	if c.ReadTimeout != nil && *c.ReadTimeout != "" {
		d, err := time.ParseDuration(*c.ReadTimeout)
		if err != nil {
			return fmt.Errorf("invalid read_timeout '%s': %w", *c.ReadTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("read_timeout must be positive, got %v", d)
		}
	}

	if c.ReplayDelay != nil && *c.ReplayDelay != "" {
		d, err := time.ParseDuration(*c.ReplayDelay)
		if err != nil {
			return fmt.Errorf("invalid replay_delay '%s': %w", *c.ReplayDelay, err)
		}
		if d < 0 {
			return fmt.Errorf("replay_delay must be non-negative, got %v", d)
		}
	}

	if _, err := c.PortOptions().Normalize(); err != nil {
		return err
	}

	if c.ResetBanner != nil && strings.TrimSpace(*c.ResetBanner) != *c.ResetBanner {
		// lines are trimmed before comparison, so such a banner never matches
		return fmt.Errorf("reset_banner must not have leading or trailing whitespace")
	}

	if _, err := c.buildFieldTable(); err != nil {
		return err
	}
	return nil
}

// GetReadTimeout returns the per-read serial timeout.
func (c *Config) GetReadTimeout() time.Duration {
	if c.ReadTimeout == nil || *c.ReadTimeout == "" {
		return sensorport.DefaultReadTimeout
	}
	d, err := time.ParseDuration(*c.ReadTimeout)
	if err != nil {
		return sensorport.DefaultReadTimeout
	}
	return d
}

// GetReplayDelay returns the pause between replayed lines.
func (c *Config) GetReplayDelay() time.Duration {
	if c.ReplayDelay == nil || *c.ReplayDelay == "" {
		return sensorport.DefaultReplayDelay
	}
	d, err := time.ParseDuration(*c.ReplayDelay)
	if err != nil {
		return sensorport.DefaultReplayDelay
	}
	return d
}

// GetResetBanner returns the banner that marks a sensor reset.
func (c *Config) GetResetBanner() string {
	if c.ResetBanner == nil || *c.ResetBanner == "" {
		return sensorline.DefaultResetBanner
	}
	return *c.ResetBanner
}

// PortOptions collects the serial settings. Unset values are left zero for
// sensorport.PortOptions.Normalize to fill in.
func (c *Config) PortOptions() sensorport.PortOptions {
	var opts sensorport.PortOptions
	if c.BaudRate != nil {
		opts.BaudRate = *c.BaudRate
	}
	if c.DataBits != nil {
		opts.DataBits = *c.DataBits
	}
	if c.StopBits != nil {
		opts.StopBits = *c.StopBits
	}
	if c.Parity != nil {
		opts.Parity = *c.Parity
	}
	opts.ReadTimeout = c.GetReadTimeout()
	return opts
}

// FieldTable returns the configured tag table, or the default table when no
// fields are configured. Call Validate first; an invalid table falls back to
// the default.
func (c *Config) FieldTable() sensorline.FieldTable {
	table, err := c.buildFieldTable()
	if err != nil {
		return sensorline.DefaultFieldTable()
	}
	return table
}

func (c *Config) buildFieldTable() (sensorline.FieldTable, error) {
	if len(c.Fields) == 0 {
		return sensorline.DefaultFieldTable(), nil
	}

	fields := make(map[rune]sensorline.FieldDescriptor, len(c.Fields))
	names := make(map[string]string, len(c.Fields))
	for tag, fc := range c.Fields {
		if utf8.RuneCountInString(tag) != 1 {
			return sensorline.FieldTable{}, fmt.Errorf("field tag %q must be a single character", tag)
		}
		r, _ := utf8.DecodeRuneInString(tag)
		if strings.TrimSpace(tag) == "" {
			return sensorline.FieldTable{}, fmt.Errorf("field tag %q must not be whitespace", tag)
		}
		if fc.Name == "" || strings.ContainsAny(fc.Name, " \t\r\n") {
			return sensorline.FieldTable{}, fmt.Errorf("field %q: name %q must be a non-empty single word", tag, fc.Name)
		}
		if fc.Name == sensorline.FieldUnparsed || fc.Name == sensorline.FieldReset {
			return sensorline.FieldTable{}, fmt.Errorf("field %q: name %q is reserved", tag, fc.Name)
		}
		if other, dup := names[fc.Name]; dup {
			return sensorline.FieldTable{}, fmt.Errorf("fields %q and %q share the name %q", other, tag, fc.Name)
		}
		names[fc.Name] = tag

		kind, err := sensorline.ParseValueKind(fc.Kind)
		if err != nil {
			return sensorline.FieldTable{}, fmt.Errorf("field %q: %w", tag, err)
		}
		fields[r] = sensorline.FieldDescriptor{Name: fc.Name, Kind: kind}
	}
	return sensorline.NewFieldTable(fields), nil
}

// SetBaudRate overrides baud_rate, typically from a command line flag.
func (c *Config) SetBaudRate(v int) { c.BaudRate = ptrInt(v) }

// SetReadTimeout overrides read_timeout.
func (c *Config) SetReadTimeout(d time.Duration) { c.ReadTimeout = ptrString(d.String()) }

// SetReplayDelay overrides replay_delay.
func (c *Config) SetReplayDelay(d time.Duration) { c.ReplayDelay = ptrString(d.String()) }

