package config

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/licmatch/pkg/licmatch/bigram"
	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
	"github.com/cognicore/licmatch/pkg/licmatch/normalize"
	"github.com/cognicore/licmatch/pkg/licmatch/spdx"
)

// Config is the licmatch configuration file.
type Config struct {
	Threshold float64           `yaml:"threshold"`
	Limit     float64           `yaml:"limit"`
	Workers   int               `yaml:"workers"`
	Mode      string            `yaml:"mode"`
	Store     Store             `yaml:"store"`
	SPDX      SPDX              `yaml:"spdx"`
	Oracle    Oracle            `yaml:"oracle"`
	Log       Log               `yaml:"log"`
	Variants  map[string]string `yaml:"variants"`
}

// Store selects and locates the corpus backend.
type Store struct {
	Backend     string `yaml:"backend"` // sqlite, redis or memory
	Path        string `yaml:"path"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// SPDX configures the license list client.
type SPDX struct {
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Oracle selects the standard-license checker.
type Oracle struct {
	Kind        string   `yaml:"kind"` // licensecheck, command or none
	MinCoverage float64  `yaml:"min_coverage"`
	Command     []string `yaml:"command"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

const (
	DefaultThreshold = 0.9
	DefaultLimit     = 0.99
	redisPort        = "6379"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Threshold: DefaultThreshold,
		Limit:     DefaultLimit,
		Mode:      "word",
		Store: Store{
			Backend:   "sqlite",
			Path:      "licenses.db",
			RedisAddr: "localhost:" + redisPort,
		},
		SPDX: SPDX{
			BaseURL:   spdx.DefaultBaseURL,
			UserAgent: "licmatch/1.0",
			Timeout:   15 * time.Second,
		},
		Oracle: Oracle{Kind: "licensecheck", MinCoverage: 99},
		Log:    Log{Level: "info"},
	}
}

// Load reads path on top of Default. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w: %v", path, internalerr.ErrConfiguration, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() error {
	var err error
	if c.Threshold, err = envFloat("LICMATCH_THRESHOLD", c.Threshold); err != nil {
		return err
	}
	if c.Limit, err = envFloat("LICMATCH_LIMIT", c.Limit); err != nil {
		return err
	}
	if host := os.Getenv("SPDX_REDIS_HOST"); host != "" {
		if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
			host = net.JoinHostPort(host, redisPort)
		}
		c.Store.RedisAddr = host
	}
	c.Store.Backend = envString("LICMATCH_STORE", c.Store.Backend)
	c.Store.Path = envString("LICMATCH_DB", c.Store.Path)
	c.Log.Level = envString("LICMATCH_LOG_LEVEL", c.Log.Level)
	return nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("%s=%q: %w", key, v, internalerr.ErrConfiguration)
	}
	return f, nil
}

// Validate checks bounds and enumerations.
func (c *Config) Validate() error {
	if !(c.Threshold >= 0 && c.Threshold <= c.Limit && c.Limit <= 1) {
		return fmt.Errorf("threshold %v and limit %v must satisfy 0 <= threshold <= limit <= 1: %w",
			c.Threshold, c.Limit, internalerr.ErrConfiguration)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative: %w", internalerr.ErrConfiguration)
	}
	if _, err := bigram.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("%v: %w", err, internalerr.ErrConfiguration)
	}
	switch c.Store.Backend {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for sqlite: %w", internalerr.ErrConfiguration)
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr required for redis: %w", internalerr.ErrConfiguration)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store backend %q: %w", c.Store.Backend, internalerr.ErrConfiguration)
	}
	switch c.Oracle.Kind {
	case "", "none", "licensecheck":
	case "command":
		if len(c.Oracle.Command) == 0 {
			return fmt.Errorf("oracle.command required for command oracle: %w", internalerr.ErrConfiguration)
		}
	default:
		return fmt.Errorf("unknown oracle kind %q: %w", c.Oracle.Kind, internalerr.ErrConfiguration)
	}
	return nil
}

// SpellingVariants returns the configured variants sorted by key, so the
// dictionary order does not depend on map iteration.
func (c *Config) SpellingVariants() []normalize.Variant {
	keys := make([]string, 0, len(c.Variants))
	for k := range c.Variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]normalize.Variant, 0, len(keys))
	for _, k := range keys {
		out = append(out, normalize.Variant{From: k, To: c.Variants[k]})
	}
	return out
}
