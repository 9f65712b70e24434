package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// config holds the coordinator's runtime settings. Every field has a
// built-in default, overridable by environment variable (all but
// ReadHeaderTimeout, which has none), in turn overridable by an optional
// YAML file (COORDINATOR_CONFIG_FILE):
// defaults -> env -> file, following najoast-sngo's config package
// precedence pattern, simplified here since this binary has no flag layer
// to sit above the file.
type config struct {
	AdminAddr         string        `yaml:"admin_addr"`
	StoreAddr         string        `yaml:"store_addr"`
	StoreRoot         string        `yaml:"store_root"`
	SessionTimeout    time.Duration `yaml:"session_timeout"`
	RefreshInterval   time.Duration `yaml:"refresh_interval"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

func defaultConfig() config {
	return config{
		AdminAddr:         ":8080",
		StoreAddr:         "fake:2181",
		StoreRoot:         "/torua",
		SessionTimeout:    10 * time.Second,
		RefreshInterval:   0,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// loadConfig builds a config from defaults, environment variables, and
// (if COORDINATOR_CONFIG_FILE is set) a YAML override file, in that order
// of increasing precedence.
func loadConfig() (config, error) {
	cfg := defaultConfig()

	if v := os.Getenv("COORDINATOR_ADDR"); v != "" {
		cfg.AdminAddr = v
	}
	if v := os.Getenv("COORDINATOR_STORE_ADDR"); v != "" {
		cfg.StoreAddr = v
	}
	if v := os.Getenv("COORDINATOR_STORE_ROOT"); v != "" {
		cfg.StoreRoot = v
	}
	if v := os.Getenv("COORDINATOR_SESSION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return config{}, fmt.Errorf("COORDINATOR_SESSION_TIMEOUT: %w", err)
		}
		cfg.SessionTimeout = d
	}
	if v := os.Getenv("COORDINATOR_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return config{}, fmt.Errorf("COORDINATOR_REFRESH_INTERVAL: %w", err)
		}
		cfg.RefreshInterval = d
	}

	if path := os.Getenv("COORDINATOR_CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return config{}, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	return cfg, nil
}

// mergeFile overlays non-zero fields read from a YAML file at path onto
// cfg. A field absent from the file (its YAML zero value) leaves the
// existing cfg value untouched, matching najoast-sngo's merge-with-defaults
// behavior.
func (cfg *config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var overlay config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return err
	}
	if overlay.AdminAddr != "" {
		cfg.AdminAddr = overlay.AdminAddr
	}
	if overlay.StoreAddr != "" {
		cfg.StoreAddr = overlay.StoreAddr
	}
	if overlay.StoreRoot != "" {
		cfg.StoreRoot = overlay.StoreRoot
	}
	if overlay.SessionTimeout != 0 {
		cfg.SessionTimeout = overlay.SessionTimeout
	}
	if overlay.RefreshInterval != 0 {
		cfg.RefreshInterval = overlay.RefreshInterval
	}
	if overlay.ReadHeaderTimeout != 0 {
		cfg.ReadHeaderTimeout = overlay.ReadHeaderTimeout
	}
	return nil
}
