package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := writeFile(t, `
[server]
name = "test"

[network]
tick_hz = 30

[game]
zombie_cap = 5
spawn_interval = "2s"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Name != "test" || cfg.Network.TickHz != 30 {
		t.Fatalf("overrides not applied: %+v", cfg.Server)
	}
	if cfg.Game.ZombieCap != 5 || cfg.Game.SpawnInterval != 2*time.Second {
		t.Fatalf("game overrides not applied: %+v", cfg.Game)
	}
	// Untouched keys keep their defaults.
	if cfg.Game.AttackRange != 2.0 || cfg.Network.InQueueSize != 128 {
		t.Fatalf("defaults lost: %+v", cfg.Game)
	}
	if cfg.RateLimit.Enabled || cfg.Logging.StatsInterval != time.Minute {
		t.Fatalf("defaults lost: %+v %+v", cfg.RateLimit, cfg.Logging)
	}
	if cfg.Server.StartTime == 0 {
		t.Fatal("start time not stamped")
	}
	if cfg.Network.TickInterval() != time.Second/30 {
		t.Fatalf("tick interval = %v", cfg.Network.TickInterval())
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"tick":   "[network]\ntick_hz = 0\n",
		"cap":    "[game]\nzombie_cap = -1\n",
		"format": "[logging]\nformat = \"xml\"\n",
		"stats":  "[logging]\nstats_interval = \"-1s\"\n",
		"syntax": "[network\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit path")
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvPath, "")
	if got := ResolvePath(""); got != DefaultPath {
		t.Fatalf("got %q", got)
	}
	t.Setenv(EnvPath, "/etc/zombrise.toml")
	if got := ResolvePath(""); got != "/etc/zombrise.toml" {
		t.Fatalf("got %q", got)
	}
	if got := ResolvePath("cli.toml"); got != "cli.toml" {
		t.Fatalf("got %q", got)
	}
}

func TestDefaultsValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}
