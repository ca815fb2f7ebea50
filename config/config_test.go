package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(mapLookup(nil))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatalf("got %+v, want defaults", cfg)
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse(mapLookup(map[string]string{
		"SNAKE_LISTEN_ADDR":       ":7000",
		"SNAKE_REGION":            "EU",
		"SNAKE_TICK_RATE":         "30",
		"SNAKE_BOTS":              "6",
		"SNAKE_MATCH_SECONDS":     "45.5",
		"SNAKE_COUNTDOWN_SECONDS": "0",
		"SNAKE_DIRECTORY_URL":     "http://dir:8080",
		"SNAKE_SERVE_DIRECTORY":   "false",
		"SNAKE_PUBLISH_INTERVAL":  "500ms",
		"SNAKE_REMATCH_DELAY":     "1m",
		"SNAKE_SEED":              "1234",
		"SNAKE_MAX_PLAYERS":       "",
	}))
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.ListenAddr = ":7000"
	want.Region = "EU"
	want.TickRate = 30
	want.Bots = 6
	want.MatchSeconds = 45.5
	want.CountdownSeconds = 0
	want.DirectoryURL = "http://dir:8080"
	want.ServeDirectory = false
	want.PublishInterval = 500 * time.Millisecond
	want.RematchDelay = time.Minute
	want.Seed = 1234
	if cfg != want {
		t.Fatalf("got %+v\nwant %+v", cfg, want)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	bad := []map[string]string{
		{"SNAKE_TICK_RATE": "fast"},
		{"SNAKE_TICK_RATE": "0"},
		{"SNAKE_BOTS": "-1"},
		{"SNAKE_MATCH_SECONDS": "soon"},
		{"SNAKE_MATCH_SECONDS": "NaN"},
		{"SNAKE_MATCH_SECONDS": "+Inf"},
		{"SNAKE_COUNTDOWN_SECONDS": "nan"},
		{"SNAKE_SEED": "-3"},
		{"SNAKE_SEED": "4294967296"},
		{"SNAKE_SERVE_DIRECTORY": "maybe"},
		{"SNAKE_PUBLISH_INTERVAL": "2"},
		{"SNAKE_REMATCH_DELAY": "-1s"},
	}
	for _, env := range bad {
		if _, err := Parse(mapLookup(env)); err == nil {
			t.Errorf("%v accepted", env)
		}
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "SNAKE_REGION=APAC\nSNAKE_BOTS=3\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SNAKE_BOTS", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Region != "APAC" {
		t.Errorf("region = %q, want value from file", cfg.Region)
	}
	if cfg.Bots != 5 {
		t.Errorf("bots = %d, want environment to win", cfg.Bots)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if cfg.TickRate <= 0 {
		t.Fatalf("tick rate = %d", cfg.TickRate)
	}
}
