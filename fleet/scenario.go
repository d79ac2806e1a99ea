package fleet

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/selforg/antscale/fleet/workload"
)

// Scenario describes one simulated deployment, loadable from a YAML file.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Scenario struct {
	Cloud     CloudConfig     `yaml:"cloud"`
	Session   SessionConfig   `yaml:"session"`
	Workload  WorkloadConfig  `yaml:"workload"`
	Threshold ThresholdConfig `yaml:"threshold"`
	AntConfig string          `yaml:"ant_config"` // relative paths resolve against the scenario file
	Seed      int64           `yaml:"seed"`
}

// CloudConfig sizes the fleet.
type CloudConfig struct {
	InitialServers  int     `yaml:"initial_servers"`
	MaxServers      int     `yaml:"max_servers"`
	BootDelay       float64 `yaml:"boot_delay"`       // seconds from request to RUNNING
	RefreshInterval float64 `yaml:"refresh_interval"` // seconds between policy refreshes
	SimDays         float64 `yaml:"sim_days"`
}

// SessionConfig shapes every session.
type SessionConfig struct {
	Load     float64 `yaml:"load"`     // CPU share of one session
	Duration float64 `yaml:"duration"` // seconds of unimpeded execution
}

// WorkloadConfig is the hourly arrival profile.
type WorkloadConfig struct {
	ScaleFactor float64         `yaml:"scale_factor"`
	Hours       []workload.Hour `yaml:"hours"`
}

// ThresholdConfig parameterizes the CPU threshold baseline policy.
type ThresholdConfig struct {
	ScaleUp   float64 `yaml:"scale_up"`
	ScaleDown float64 `yaml:"scale_down"`
	Cooldown  float64 `yaml:"cooldown"` // seconds
}

// Defaults applied to zero-valued scenario fields.
const (
	DefaultRefreshInterval = 4.0
	DefaultSessionLoad     = 0.05
	DefaultSessionDuration = 200.0
	DefaultScaleUp         = 0.8
	DefaultScaleDown       = 0.1
	DefaultCooldown        = 150.0
)

// LoadScenario reads, defaults and validates a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if sc.AntConfig != "" && !filepath.IsAbs(sc.AntConfig) {
		sc.AntConfig = filepath.Join(filepath.Dir(path), sc.AntConfig)
	}
	sc.ApplyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &sc, nil
}

// ApplyDefaults fills zero-valued optional fields.
func (sc *Scenario) ApplyDefaults() {
	if sc.Cloud.RefreshInterval == 0 {
		sc.Cloud.RefreshInterval = DefaultRefreshInterval
	}
	if sc.Cloud.MaxServers == 0 {
		sc.Cloud.MaxServers = sc.Cloud.InitialServers * 10
	}
	if sc.Session.Load == 0 {
		sc.Session.Load = DefaultSessionLoad
	}
	if sc.Session.Duration == 0 {
		sc.Session.Duration = DefaultSessionDuration
	}
	if sc.Workload.ScaleFactor == 0 {
		sc.Workload.ScaleFactor = 1
	}
	if sc.Threshold == (ThresholdConfig{}) {
		sc.Threshold = ThresholdConfig{ScaleUp: DefaultScaleUp, ScaleDown: DefaultScaleDown, Cooldown: DefaultCooldown}
	}
}

// Validate checks parameter ranges.
func (sc *Scenario) Validate() error {
	c := sc.Cloud
	if c.InitialServers < 1 {
		return fmt.Errorf("cloud.initial_servers must be >= 1, got %d", c.InitialServers)
	}
	if c.MaxServers < c.InitialServers {
		return fmt.Errorf("cloud.max_servers (%d) must be >= initial_servers (%d)", c.MaxServers, c.InitialServers)
	}
	if c.BootDelay < 0 {
		return fmt.Errorf("cloud.boot_delay must be non-negative, got %g", c.BootDelay)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("cloud.refresh_interval must be positive, got %g", c.RefreshInterval)
	}
	if c.SimDays <= 0 {
		return fmt.Errorf("cloud.sim_days must be positive, got %g", c.SimDays)
	}
	if sc.Session.Load <= 0 || sc.Session.Duration <= 0 {
		return fmt.Errorf("session load and duration must be positive, got load=%g duration=%g", sc.Session.Load, sc.Session.Duration)
	}
	if _, err := sc.Profile(); err != nil {
		return err
	}
	t := sc.Threshold
	if t.ScaleUp < t.ScaleDown {
		return fmt.Errorf("threshold.scale_up (%g) must be >= scale_down (%g)", t.ScaleUp, t.ScaleDown)
	}
	if t.Cooldown < 0 {
		return fmt.Errorf("threshold.cooldown must be non-negative, got %g", t.Cooldown)
	}
	return nil
}

// Profile builds the workload profile.
func (sc *Scenario) Profile() (*workload.Profile, error) {
	return workload.NewProfile(sc.Workload.Hours, sc.Workload.ScaleFactor)
}

// Horizon returns the simulated duration in seconds.
func (sc *Scenario) Horizon() float64 {
	return sc.Cloud.SimDays * 24 * workload.SecondsPerHour
}
