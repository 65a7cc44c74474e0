package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.DBPath != "voidtrader.db" || cfg.Planets != 8 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.TickInterval != 0 || cfg.SaveInterval != 30*time.Second {
		t.Errorf("interval defaults = %v/%v", cfg.TickInterval, cfg.SaveInterval)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("port: 9090\ndb_path: sector.db\nseed: 42\nplanets: 12\ntick_interval: 5m\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.DBPath != "sector.db" || cfg.Seed != 42 || cfg.Planets != 12 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TickInterval != 5*time.Minute {
		t.Errorf("tick interval = %v, want 5m", cfg.TickInterval)
	}
	// Fields the file omits keep their defaults.
	if cfg.SaveInterval != 30*time.Second {
		t.Errorf("save interval = %v, want default 30s", cfg.SaveInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VOIDTRADER_PORT", "7070")
	t.Setenv("VOIDTRADER_DB_PATH", "/tmp/override.db")
	t.Setenv("VOIDTRADER_ADMIN_KEY", "hunter2")
	t.Setenv("VOIDTRADER_SEED", "99")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 7070 || cfg.DBPath != "/tmp/override.db" || cfg.AdminKey != "hunter2" || cfg.Seed != 99 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("no error for a missing config file")
		}
	})

	t.Run("bad port env", func(t *testing.T) {
		t.Setenv("VOIDTRADER_PORT", "not-a-port")
		if _, err := Load(""); err == nil {
			t.Error("no error for an unparseable port")
		}
	})
}

func TestValidate(t *testing.T) {
	base := defaults()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too high", func(c *Config) { c.Port = 70000 }},
		{"empty db path", func(c *Config) { c.DBPath = "  " }},
		{"no planets", func(c *Config) { c.Planets = 0 }},
		{"negative tick interval", func(c *Config) { c.TickInterval = -time.Second }},
		{"negative save interval", func(c *Config) { c.SaveInterval = -time.Second }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("invalid config passed validation")
			}
		})
	}

	if err := base.Validate(); err != nil {
		t.Errorf("defaults failed validation: %v", err)
	}
}
