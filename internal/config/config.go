// Package config loads server configuration from an optional YAML file,
// with environment overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the server needs to start.
type Config struct {
	Port         int           `yaml:"port"`
	DBPath       string        `yaml:"db_path"`
	AdminKey     string        `yaml:"admin_key"`
	Seed         int64         `yaml:"seed"`
	Planets      int           `yaml:"planets"`
	TickInterval time.Duration `yaml:"tick_interval"` // 0 disables automatic ticking
	SaveInterval time.Duration `yaml:"save_interval"`
}

func defaults() Config {
	return Config{
		Port:         8080,
		DBPath:       "voidtrader.db",
		Seed:         0,
		Planets:      8,
		TickInterval: 0,
		SaveInterval: 30 * time.Second,
	}
}

// fileConfig mirrors Config for YAML decoding. Pointer fields distinguish
// absent keys from zero values, and durations arrive as strings for
// time.ParseDuration.
type fileConfig struct {
	Port         *int    `yaml:"port"`
	DBPath       *string `yaml:"db_path"`
	AdminKey     *string `yaml:"admin_key"`
	Seed         *int64  `yaml:"seed"`
	Planets      *int    `yaml:"planets"`
	TickInterval *string `yaml:"tick_interval"`
	SaveInterval *string `yaml:"save_interval"`
}

// Load reads the config file at path (empty path means defaults only), then
// applies environment overrides: VOIDTRADER_PORT, VOIDTRADER_DB_PATH,
// VOIDTRADER_ADMIN_KEY, VOIDTRADER_SEED.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		var fc fileConfig
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		if fc.Port != nil {
			cfg.Port = *fc.Port
		}
		if fc.DBPath != nil {
			cfg.DBPath = *fc.DBPath
		}
		if fc.AdminKey != nil {
			cfg.AdminKey = *fc.AdminKey
		}
		if fc.Seed != nil {
			cfg.Seed = *fc.Seed
		}
		if fc.Planets != nil {
			cfg.Planets = *fc.Planets
		}
		if fc.TickInterval != nil {
			d, err := time.ParseDuration(*fc.TickInterval)
			if err != nil {
				return cfg, fmt.Errorf("config %s: tick_interval: %w", path, err)
			}
			cfg.TickInterval = d
		}
		if fc.SaveInterval != nil {
			d, err := time.ParseDuration(*fc.SaveInterval)
			if err != nil {
				return cfg, fmt.Errorf("config %s: save_interval: %w", path, err)
			}
			cfg.SaveInterval = d
		}
	}

	if v := os.Getenv("VOIDTRADER_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("VOIDTRADER_PORT %q: %w", v, err)
		}
		cfg.Port = p
	}
	if v := os.Getenv("VOIDTRADER_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("VOIDTRADER_ADMIN_KEY"); v != "" {
		cfg.AdminKey = v
	}
	if v := os.Getenv("VOIDTRADER_SEED"); v != "" {
		s, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("VOIDTRADER_SEED %q: %w", v, err)
		}
		cfg.Seed = s
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges the server cannot start without.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.Planets <= 0 {
		return fmt.Errorf("planets must be > 0")
	}
	if c.TickInterval < 0 {
		return fmt.Errorf("tick_interval must not be negative")
	}
	if c.SaveInterval < 0 {
		return fmt.Errorf("save_interval must not be negative")
	}
	return nil
}
