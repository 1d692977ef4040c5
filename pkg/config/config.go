package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all runtime configuration.
type Config struct {
	Dataset  string `koanf:"dataset"`  // path to the interaction matrix (JSON or CSV)
	Session  string `koanf:"session"`  // path to a session snapshot to restore
	WebMode  bool   `koanf:"web"`      // serve the HTTP API instead of printing a report
	Port     int    `koanf:"port"`     // web server port
	Watch    bool   `koanf:"watch"`    // reload the session file on external edits
	JSONLogs bool   `koanf:"jsonlogs"` // switch log output to JSON
	Verbose  bool   `koanf:"verbose"`  // debug-level logging
}

// Load layers configuration sources.
// Priority: Flags > Env > Config File > Defaults.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"dataset":  "",
		"session":  "",
		"web":      false,
		"port":     8080,
		"watch":    false,
		"jsonlogs": false,
		"verbose":  false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Config file is optional; a missing phagegrid.toml is not an error.
	_ = k.Load(file.Provider("phagegrid.toml"), toml.Parser())

	// Environment variables, e.g. PHAGEGRID_PORT=9090.
	if err := k.Load(env.Provider("PHAGEGRID_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "PHAGEGRID_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Helper to use a map as a provider.
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
