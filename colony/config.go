package colony

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ErrInvalidConfig wraps every configuration failure reported by LoadConfig,
// ConfigFromValues and Config.Validate.
var ErrInvalidConfig = errors.New("invalid ant system config")

// Config holds the tunable parameters of the ant system.
// All fields are required; a Config is immutable once constructed.
type Config struct {
	DecayAmount     float64 // pheromone removed from every server per decay
	DecayRate       float64 // seconds between decays
	AntWaitTime     float64 // base cooldown seconds before an ant acts again
	AntPheromone    float64 // base deposit
	AntHistorySize  int     // capacity of each ant's reading history
	MinMorphLevel   float64 // average level below which an ant votes ScaleUp
	MaxMorphLevel   float64 // average level above which an ant votes ScaleDown
	MinBalanceLevel float64 // lower bound of the balanced utilization band
	MaxBalanceLevel float64 // upper bound of the balanced utilization band
}

// Configuration keys, as spelled in .properties files.
const (
	KeyDecayAmount     = "decayAmount"
	KeyDecayRate       = "decayRate"
	KeyAntWaitTime     = "antWaitTime"
	KeyAntPheromone    = "antPheromone"
	KeyAntHistorySize  = "antHistorySize"
	KeyMinMorphLevel   = "minMorphLevel"
	KeyMaxMorphLevel   = "maxMorphLevel"
	KeyMinBalanceLevel = "minBalanceLevel"
	KeyMaxBalanceLevel = "maxBalanceLevel"
)

// RequiredKeys lists every key a configuration source must define.
var RequiredKeys = []string{
	KeyDecayAmount, KeyDecayRate, KeyAntWaitTime, KeyAntPheromone, KeyAntHistorySize,
	KeyMinMorphLevel, KeyMaxMorphLevel, KeyMinBalanceLevel, KeyMaxBalanceLevel,
}

// LoadConfig reads an ant configuration file. The format follows the file
// extension: ".properties" (key=value lines), ".yaml"/".yml" or ".json".
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".properties", ".env", "":
		v.SetConfigType("env")
	}
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%w: reading %s: %w", ErrInvalidConfig, path, err)
	}
	return decodeConfig(v)
}

// ConfigFromValues builds a Config from raw string values keyed by the
// property names in RequiredKeys.
func ConfigFromValues(values map[string]string) (Config, error) {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return decodeConfig(v)
}

func decodeConfig(v *viper.Viper) (Config, error) {
	for _, key := range RequiredKeys {
		if !v.IsSet(key) {
			return Config{}, fmt.Errorf("%w: missing %q", ErrInvalidConfig, key)
		}
	}

	var cfg Config
	var err error
	floats := []struct {
		key string
		dst *float64
	}{
		{KeyDecayAmount, &cfg.DecayAmount},
		{KeyDecayRate, &cfg.DecayRate},
		{KeyAntWaitTime, &cfg.AntWaitTime},
		{KeyAntPheromone, &cfg.AntPheromone},
		{KeyMinMorphLevel, &cfg.MinMorphLevel},
		{KeyMaxMorphLevel, &cfg.MaxMorphLevel},
		{KeyMinBalanceLevel, &cfg.MinBalanceLevel},
		{KeyMaxBalanceLevel, &cfg.MaxBalanceLevel},
	}
	for _, f := range floats {
		raw := v.Get(f.key)
		if *f.dst, err = cast.ToFloat64E(strings.TrimSpace(cast.ToString(raw))); err != nil {
			return Config{}, fmt.Errorf("%w: %q is not numeric: %v", ErrInvalidConfig, f.key, raw)
		}
		if math.IsNaN(*f.dst) || math.IsInf(*f.dst, 0) {
			return Config{}, fmt.Errorf("%w: %q must be finite, got %v", ErrInvalidConfig, f.key, raw)
		}
	}
	raw := v.Get(KeyAntHistorySize)
	if cfg.AntHistorySize, err = cast.ToIntE(strings.TrimSpace(cast.ToString(raw))); err != nil {
		return Config{}, fmt.Errorf("%w: %q is not an integer: %v", ErrInvalidConfig, KeyAntHistorySize, raw)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks parameter ranges. NaN and infinite values are rejected
// before any range check, since every comparison with NaN is false.
func (c Config) Validate() error {
	for key, v := range map[string]float64{
		KeyDecayAmount:     c.DecayAmount,
		KeyDecayRate:       c.DecayRate,
		KeyAntWaitTime:     c.AntWaitTime,
		KeyAntPheromone:    c.AntPheromone,
		KeyMinMorphLevel:   c.MinMorphLevel,
		KeyMaxMorphLevel:   c.MaxMorphLevel,
		KeyMinBalanceLevel: c.MinBalanceLevel,
		KeyMaxBalanceLevel: c.MaxBalanceLevel,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %g", ErrInvalidConfig, key, v)
		}
	}
	switch {
	case c.DecayAmount < 0:
		return fmt.Errorf("%w: decayAmount must be non-negative, got %g", ErrInvalidConfig, c.DecayAmount)
	case c.DecayRate <= 0:
		return fmt.Errorf("%w: decayRate must be positive, got %g", ErrInvalidConfig, c.DecayRate)
	case c.AntWaitTime <= 0:
		return fmt.Errorf("%w: antWaitTime must be positive, got %g", ErrInvalidConfig, c.AntWaitTime)
	case c.AntPheromone < 0:
		return fmt.Errorf("%w: antPheromone must be non-negative, got %g", ErrInvalidConfig, c.AntPheromone)
	case c.AntHistorySize < 1:
		return fmt.Errorf("%w: antHistorySize must be >= 1, got %d", ErrInvalidConfig, c.AntHistorySize)
	case c.MaxMorphLevel <= 0:
		return fmt.Errorf("%w: maxMorphLevel must be positive, got %g", ErrInvalidConfig, c.MaxMorphLevel)
	case c.MinMorphLevel < 0 || c.MinMorphLevel > c.MaxMorphLevel:
		return fmt.Errorf("%w: minMorphLevel must be in [0, maxMorphLevel], got %g", ErrInvalidConfig, c.MinMorphLevel)
	case c.MinBalanceLevel < 0 || c.MaxBalanceLevel > 1:
		return fmt.Errorf("%w: balance levels must be within [0,1], got [%g,%g]", ErrInvalidConfig, c.MinBalanceLevel, c.MaxBalanceLevel)
	case c.MinBalanceLevel > c.MaxBalanceLevel:
		return fmt.Errorf("%w: minBalanceLevel (%g) exceeds maxBalanceLevel (%g)", ErrInvalidConfig, c.MinBalanceLevel, c.MaxBalanceLevel)
	}
	return nil
}

// MidpointLevel is the level every server is seeded with.
func (c Config) MidpointLevel() float64 {
	return (c.MaxMorphLevel + c.MinMorphLevel) / 2
}

// HopOrder selects the sort direction of next-hop candidates before the
// cumulative roulette walk.
type HopOrder string

const (
	// HopOrderAscending walks candidates from the lowest score upward.
	// This is the reference ordering.
	HopOrderAscending HopOrder = "ascending"
	// HopOrderDescending walks candidates from the highest score downward.
	HopOrderDescending HopOrder = "descending"
)

// IsValidHopOrder reports whether name is a recognized hop order. Empty means ascending.
func IsValidHopOrder(name string) bool {
	switch HopOrder(name) {
	case "", HopOrderAscending, HopOrderDescending:
		return true
	}
	return false
}

// DefaultLevelCeilingFactor bounds pheromone levels at factor*MaxMorphLevel.
const DefaultLevelCeilingFactor = 1.5

// Options carries behaviour knobs that are not part of the ant configuration file.
type Options struct {
	Seed               *int64   // nil draws a time-derived seed
	HopOrder           HopOrder // "" means HopOrderAscending
	LevelCeilingFactor float64  // 0 means DefaultLevelCeilingFactor
}

func (o Options) hopOrder() HopOrder {
	if o.HopOrder == "" {
		return HopOrderAscending
	}
	return o.HopOrder
}

func (o Options) levelCeiling(cfg Config) float64 {
	f := o.LevelCeilingFactor
	if f <= 0 {
		f = DefaultLevelCeilingFactor
	}
	return f * cfg.MaxMorphLevel
}
