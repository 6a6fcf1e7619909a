// Package config loads jobmux configuration.
//
// The file is read from $JOBMUX_CONFIG or ~/.config/jobmux/config.yaml.
// A missing file yields defaults. Environment variables override the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/simon/jobmux/internal/mux"
)

// JournalOff disables the transition journal.
const JournalOff = "off"

type HostConfig struct {
	Host   string `yaml:"host"`
	User   string `yaml:"user"`
	SSHKey string `yaml:"ssh_key"`
}

type LayoutConfig struct {
	ShiftDelta    int    `yaml:"shift_delta"`
	SentinelIndex int    `yaml:"sentinel_index"`
	SentinelName  string `yaml:"sentinel_name"`
	IsolationVar  string `yaml:"isolation_var"`
}

type Config struct {
	Hosts  map[string]HostConfig `yaml:"hosts"`
	Layout LayoutConfig          `yaml:"layout"`

	LogLevel string `yaml:"log_level"`
	// Journal is a SQLite path, empty for the default location, or "off".
	Journal string `yaml:"journal"`

	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"`

	// ConfigFile is the path that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	l := mux.DefaultLayout()
	return &Config{
		Hosts: map[string]HostConfig{},
		Layout: LayoutConfig{
			ShiftDelta:    l.ShiftDelta,
			SentinelIndex: l.SentinelIndex,
			SentinelName:  l.SentinelName,
			IsolationVar:  l.IsolationVar,
		},
		LogLevel: "warn",
	}
}

// Path returns the config file location.
func Path() (string, error) {
	if p := os.Getenv("JOBMUX_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jobmux", "config.yaml"), nil
}

// Load reads the config file (if any) and applies environment overrides.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return Defaults(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
	case !os.IsNotExist(err):
		return nil, err
	}

	mergeEnv(cfg)
	expandHosts(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("JOBMUX_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JOBMUX_JOURNAL"); v != "" {
		cfg.Journal = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
}

// expandHosts expands ~ in ssh keys.
func expandHosts(cfg *Config) {
	if cfg.Hosts == nil {
		cfg.Hosts = map[string]HostConfig{}
	}
	home, _ := os.UserHomeDir()
	for name, h := range cfg.Hosts {
		if home != "" && strings.HasPrefix(h.SSHKey, "~") {
			h.SSHKey = filepath.Join(home, h.SSHKey[1:])
		}
		cfg.Hosts[name] = h
	}
}

// Validate checks the layout for values that would make sessions collide.
func (c *Config) Validate() error {
	l := c.Layout
	if l.ShiftDelta <= 0 {
		return fmt.Errorf("layout.shift_delta must be positive, got %d", l.ShiftDelta)
	}
	if l.SentinelIndex <= 0 {
		return fmt.Errorf("layout.sentinel_index must be positive, got %d", l.SentinelIndex)
	}
	if l.SentinelIndex >= l.ShiftDelta && l.SentinelIndex < 2*l.ShiftDelta {
		return fmt.Errorf("layout.sentinel_index %d falls inside the shifted range [%d, %d)",
			l.SentinelIndex, l.ShiftDelta, 2*l.ShiftDelta)
	}
	for name, h := range c.Hosts {
		if h.Host == "" {
			return fmt.Errorf("hosts.%s: host is required", name)
		}
	}
	return nil
}

// MuxLayout converts the layout section for the core.
func (c *Config) MuxLayout() mux.Layout {
	return mux.Layout{
		ShiftDelta:    c.Layout.ShiftDelta,
		SentinelIndex: c.Layout.SentinelIndex,
		SentinelName:  c.Layout.SentinelName,
		IsolationVar:  c.Layout.IsolationVar,
	}
}
