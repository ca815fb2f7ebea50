// Package config loads the server's process configuration from an optional
// .env file and SNAKE_* environment variables.
package config

import (
	"io/fs"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config is the process configuration
type Config struct {
	ListenAddr       string
	PublicAddr       string
	Region           string
	TickRate         int
	MaxPlayers       int
	Bots             int
	MatchSeconds     float64
	CountdownSeconds float64
	DirectoryURL     string
	ServeDirectory   bool
	PublishInterval  time.Duration
	RematchDelay     time.Duration
	Seed             uint32
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		ListenAddr:       ":9001",
		PublicAddr:       "ws://127.0.0.1:9001/ws",
		Region:           "LOCAL",
		TickRate:         20,
		MaxPlayers:       4,
		Bots:             0,
		MatchSeconds:     90,
		CountdownSeconds: 3,
		ServeDirectory:   true,
		PublishInterval:  2 * time.Second,
		RematchDelay:     10 * time.Second,
	}
}

// LookupFunc returns the value of a variable and whether it is set
type LookupFunc func(key string) (string, bool)

// Load reads envFile if it exists, then parses the configuration with
// process environment variables taking precedence over the file.
func Load(envFile string) (Config, error) {
	fileVals := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVals = vals
			log.Printf("Loaded environment from %s", envFile)
		case errors.Is(err, fs.ErrNotExist):
			log.Printf("No %s file, using environment only", envFile)
		default:
			return Config{}, errors.Wrapf(err, "read %s", envFile)
		}
	}
	return Parse(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	})
}

// Parse builds a Config from lookup, starting from Default
func Parse(lookup LookupFunc) (Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	p.str("SNAKE_LISTEN_ADDR", &cfg.ListenAddr)
	p.str("SNAKE_PUBLIC_ADDR", &cfg.PublicAddr)
	p.str("SNAKE_REGION", &cfg.Region)
	p.int("SNAKE_TICK_RATE", &cfg.TickRate)
	p.int("SNAKE_MAX_PLAYERS", &cfg.MaxPlayers)
	p.int("SNAKE_BOTS", &cfg.Bots)
	p.float("SNAKE_MATCH_SECONDS", &cfg.MatchSeconds)
	p.float("SNAKE_COUNTDOWN_SECONDS", &cfg.CountdownSeconds)
	p.str("SNAKE_DIRECTORY_URL", &cfg.DirectoryURL)
	p.bool("SNAKE_SERVE_DIRECTORY", &cfg.ServeDirectory)
	p.duration("SNAKE_PUBLISH_INTERVAL", &cfg.PublishInterval)
	p.duration("SNAKE_REMATCH_DELAY", &cfg.RematchDelay)
	p.uint32("SNAKE_SEED", &cfg.Seed)
	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges that would stop the server from running
func (c Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return errors.New("config: listen address is empty")
	case c.TickRate <= 0 || c.TickRate > 120:
		return errors.Errorf("config: tick rate %d outside 1..120", c.TickRate)
	case c.MaxPlayers < 0:
		return errors.Errorf("config: max players %d is negative", c.MaxPlayers)
	case c.Bots < 0:
		return errors.Errorf("config: bots %d is negative", c.Bots)
	case c.MatchSeconds <= 0:
		return errors.Errorf("config: match seconds %v must be positive", c.MatchSeconds)
	case c.CountdownSeconds < 0:
		return errors.Errorf("config: countdown seconds %v is negative", c.CountdownSeconds)
	case c.PublishInterval <= 0:
		return errors.Errorf("config: publish interval %v must be positive", c.PublishInterval)
	case c.RematchDelay < 0:
		return errors.Errorf("config: rematch delay %v is negative", c.RematchDelay)
	}
	return nil
}

// parser keeps the first parse error
type parser struct {
	lookup LookupFunc
	err    error
}

func (p *parser) get(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (p *parser) fail(key, value string, err error) {
	p.err = errors.Wrapf(err, "config: %s=%q", key, value)
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *parser) int(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = n
}

func (p *parser) float(key string, dst *float64) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		err = errors.New("not a finite number")
	}
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = f
}

func (p *parser) bool(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = b
}

func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = d
}

func (p *parser) uint32(key string, dst *uint32) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = uint32(n)
}
