// Package config loads the service configuration from a YAML file merged
// with environment variables and command-line flags. Flags win over env,
// env wins over file.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		// DBPath is the pebble database directory.
		DBPath string `yaml:"db_path"`
		// MediaRoot is the managed directory tree for draft media files.
		MediaRoot string `yaml:"media_root"`
	} `yaml:"storage"`
	Session struct {
		// AutosaveQuietMs is the debounce quiet period for autosave.
		AutosaveQuietMs int `yaml:"autosave_quiet_ms"`
		// DefaultLimitSeconds seeds the duration ceiling of new drafts.
		DefaultLimitSeconds int `yaml:"default_limit_seconds"`
	} `yaml:"session"`
	Retention struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
		// GraceMinutes protects recently written files from the orphan
		// sweep.
		GraceMinutes int `yaml:"grace_minutes"`
	} `yaml:"retention"`
	Security struct {
		RateLimit struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"security"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "127.0.0.1"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8480
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// AutosaveQuiet returns the configured autosave debounce as a duration,
// defaulting to one second.
func (c *Config) AutosaveQuiet() time.Duration {
	if c.Session.AutosaveQuietMs <= 0 {
		return time.Second
	}
	return time.Duration(c.Session.AutosaveQuietMs) * time.Millisecond
}

// Load reads a YAML config file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// EffectiveConfigResult is the merged result of file, env and flags used by
// the rest of startup.
type EffectiveConfigResult struct {
	Config    *Config
	Addr      string
	DBPath    string
	MediaRoot string
	Source    string
}

// ParseCommandFlags registers and parses the service flags. It returns the
// flag values and a set of flags the user explicitly provided, so explicit
// flags can win over file/env values.
func ParseCommandFlags() (addr, db, mediaRoot, cfgPath string, set map[string]bool) {
	addrF := flag.String("addr", "127.0.0.1:8480", "listen address")
	dbF := flag.String("db", "./draftstore-db", "pebble database path")
	mediaF := flag.String("media", "./draftstore-media", "managed media root")
	cfgF := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return *addrF, *dbF, *mediaF, *cfgF, set
}

// LoadEffective merges the optional config file with environment overrides
// and returns the effective startup values. Flag handling stays with the
// caller so it can apply explicit-flag precedence.
func LoadEffective(cfgPath string) (EffectiveConfigResult, error) {
	var cfg *Config
	source := "defaults"
	if cfgPath == "" {
		cfgPath = os.Getenv("DRAFTSTORE_CONFIG")
	}
	if cfgPath != "" {
		c, err := Load(cfgPath)
		if err != nil {
			return EffectiveConfigResult{}, err
		}
		cfg = c
		source = "file:" + cfgPath
	} else {
		cfg = &Config{}
	}

	if v := os.Getenv("DRAFTSTORE_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("DRAFTSTORE_MEDIA_ROOT"); v != "" {
		cfg.Storage.MediaRoot = v
	}
	if v := os.Getenv("DRAFTSTORE_ADDR"); v != "" {
		cfg.Server.Address, cfg.Server.Port = splitAddr(v, cfg.Server.Port)
	}
	if v := os.Getenv("DRAFTSTORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return EffectiveConfigResult{
		Config:    cfg,
		Addr:      cfg.Addr(),
		DBPath:    cfg.Storage.DBPath,
		MediaRoot: cfg.Storage.MediaRoot,
		Source:    source,
	}, nil
}

func splitAddr(v string, fallbackPort int) (string, int) {
	host := v
	port := fallbackPort
	for i := len(v) - 1; i >= 0; i-- {
		if v[i] == ':' {
			host = v[:i]
			if p, err := strconv.Atoi(v[i+1:]); err == nil {
				port = p
			}
			break
		}
	}
	return host, port
}
