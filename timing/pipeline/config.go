package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/sarchlab/ooosim/insts"
	"github.com/sarchlab/ooosim/timing/cache"
	"github.com/sarchlab/ooosim/timing/latency"
)

// ConfigurationError reports an invalid engine configuration.
type ConfigurationError struct {
	// Field is the configuration key, as written in config files.
	Field string
	// Reason describes the constraint that was violated.
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// StationConfig holds the capacity of each reservation station.
type StationConfig struct {
	IntAdd   int `json:"int_add" toml:"int_add"`
	IntMul   int `json:"int_mul" toml:"int_mul"`
	FloatAdd int `json:"float_add" toml:"float_add"`
	FloatMul int `json:"float_mul" toml:"float_mul"`
	Memory   int `json:"memory" toml:"memory"`
	Jump     int `json:"jump" toml:"jump"`
}

// ForUnit returns the capacity of the station serving a unit class.
func (s StationConfig) ForUnit(u insts.Unit) int {
	switch u {
	case insts.UnitIntAdd:
		return s.IntAdd
	case insts.UnitIntMul:
		return s.IntMul
	case insts.UnitFloatAdd:
		return s.FloatAdd
	case insts.UnitFloatMul:
		return s.FloatMul
	case insts.UnitMemory:
		return s.Memory
	case insts.UnitJump:
		return s.Jump
	default:
		return 0
	}
}

// Predictor policies.
const (
	PolicyNotTaken = "not-taken"
	PolicyTaken    = "taken"
	PolicyBimodal  = "bimodal"
)

// PredictorConfig holds configuration for the jump predictor.
type PredictorConfig struct {
	// Policy is one of "not-taken", "taken" or "bimodal". Default is
	// "bimodal".
	Policy string `json:"policy" toml:"policy"`
	// BHTSize is the number of entries in the Branch History Table.
	// Must be a power of 2. Default is 1024.
	BHTSize uint32 `json:"bht_size" toml:"bht_size"`
	// BTBSize is the number of entries in the Branch Target Buffer.
	// Must be a power of 2. Default is 256.
	BTBSize uint32 `json:"btb_size" toml:"btb_size"`
}

// DefaultPredictorConfig returns a default configuration.
func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{
		Policy:  PolicyBimodal,
		BHTSize: 1024,
		BTBSize: 256,
	}
}

// Config holds the execution engine configuration.
type Config struct {
	// IssueWidth is the number of instructions fetched and decoded per
	// cycle. Default is 4.
	IssueWidth int `json:"issue_width" toml:"issue_width"`

	// CommitWidth is the number of instructions retired per cycle.
	// Default is 4.
	CommitWidth int `json:"commit_width" toml:"commit_width"`

	// ROBSize is the number of reorder buffer slots. Default is 32.
	ROBSize int `json:"rob_size" toml:"rob_size"`

	// PrefetchSize is the capacity of the prefetch buffer. Default is 8.
	PrefetchSize int `json:"prefetch_size" toml:"prefetch_size"`

	// Stations holds per-class reservation station capacities.
	Stations StationConfig `json:"stations" toml:"stations"`

	// Timing holds per-class functional unit latencies.
	Timing latency.TimingConfig `json:"timing" toml:"timing"`

	// Predictor configures the jump predictor.
	Predictor PredictorConfig `json:"predictor" toml:"predictor"`

	// DCache enables the L1 data cache latency model when set.
	DCache *cache.Config `json:"dcache,omitempty" toml:"dcache,omitempty"`

	// MaxCycles bounds Run. 0 means no limit.
	MaxCycles uint64 `json:"max_cycles" toml:"max_cycles"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		IssueWidth:   4,
		CommitWidth:  4,
		ROBSize:      32,
		PrefetchSize: 8,
		Stations: StationConfig{
			IntAdd:   4,
			IntMul:   4,
			FloatAdd: 4,
			FloatMul: 4,
			Memory:   4,
			Jump:     4,
		},
		Timing:    *latency.DefaultTimingConfig(),
		Predictor: DefaultPredictorConfig(),
	}
}

// Clone returns a deep copy of the Config.
func (c Config) Clone() Config {
	clone := c
	if c.DCache != nil {
		dc := *c.DCache
		clone.DCache = &dc
	}
	return clone
}

func isPowerOfTwo(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}

// Validate checks every field and returns a *ConfigurationError naming the
// first invalid one.
func (c Config) Validate() error {
	positive := []struct {
		field string
		value int
	}{
		{"issue_width", c.IssueWidth},
		{"commit_width", c.CommitWidth},
		{"rob_size", c.ROBSize},
		{"prefetch_size", c.PrefetchSize},
	}
	for _, p := range positive {
		if p.value < 1 {
			return &ConfigurationError{Field: p.field, Reason: "must be >= 1"}
		}
	}

	for _, u := range insts.Units() {
		if c.Stations.ForUnit(u) < 1 {
			return &ConfigurationError{
				Field:  "stations." + strings.ReplaceAll(u.String(), "-", "_"),
				Reason: "must be >= 1",
			}
		}
	}

	if err := c.Timing.Validate(); err != nil {
		return &ConfigurationError{Field: "timing", Reason: err.Error()}
	}

	switch c.Predictor.Policy {
	case PolicyNotTaken, PolicyTaken:
	case PolicyBimodal:
		if !isPowerOfTwo(c.Predictor.BHTSize) {
			return &ConfigurationError{Field: "predictor.bht_size", Reason: "must be a power of 2"}
		}
		if !isPowerOfTwo(c.Predictor.BTBSize) {
			return &ConfigurationError{Field: "predictor.btb_size", Reason: "must be a power of 2"}
		}
	default:
		return &ConfigurationError{
			Field:  "predictor.policy",
			Reason: fmt.Sprintf("unknown policy %q", c.Predictor.Policy),
		}
	}

	if c.DCache != nil {
		if err := c.DCache.Validate(); err != nil {
			return &ConfigurationError{Field: "dcache", Reason: err.Error()}
		}
	}

	return nil
}

// LoadConfig reads a configuration file. Files ending in .toml are decoded
// as TOML, anything else as JSON. Keys missing from the file keep their
// default values. The result is not validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration to path, as TOML if the path ends in
// .toml and as indented JSON otherwise.
func (c Config) SaveConfig(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	defer f.Close()

	format := FormatJSON
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = FormatTOML
	}
	return c.Write(f, format)
}

// Config file formats.
const (
	FormatTOML = "toml"
	FormatJSON = "json"
)

// Write encodes the configuration to w in the given format.
func (c Config) Write(w io.Writer, format string) error {
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(c); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	default:
		return fmt.Errorf("unknown config format %q", format)
	}
	return nil
}
