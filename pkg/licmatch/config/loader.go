package config

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/cognicore/licmatch/pkg/licmatch/bigram"
	"github.com/cognicore/licmatch/pkg/licmatch/corpus"
	"github.com/cognicore/licmatch/pkg/licmatch/corpus/memstore"
	"github.com/cognicore/licmatch/pkg/licmatch/corpus/redisstore"
	"github.com/cognicore/licmatch/pkg/licmatch/corpus/sqlite"
	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
	"github.com/cognicore/licmatch/pkg/licmatch/logging"
	"github.com/cognicore/licmatch/pkg/licmatch/match"
	"github.com/cognicore/licmatch/pkg/licmatch/normalize"
	"github.com/cognicore/licmatch/pkg/licmatch/oracle"
	"github.com/cognicore/licmatch/pkg/licmatch/spdx"
)

// Loader reads the configuration and constructs components
type Loader struct {
	// Path is optional; without it the defaults are used.
	Path string
	// SkipEnv disables environment overrides.
	SkipEnv bool
}

// Components holds everything built from one configuration
type Components struct {
	Config     *Config
	Logger     *zap.Logger
	Store      corpus.Store
	Normalizer *normalize.Normalizer
	Matcher    *match.Matcher
	Fetcher    *spdx.Client
	Oracle     oracle.StandardLicenseOracle
}

// Close releases the store.
func (c *Components) Close() error {
	_ = c.Logger.Sync()
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// Load reads configuration and returns initialized components
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg := Default()
	if l.Path != "" {
		loaded, err := Load(l.Path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if !l.SkipEnv {
		if err := cfg.ApplyEnv(); err != nil {
			return nil, err
		}
	}
	return Build(ctx, cfg)
}

// Build constructs components from an already loaded configuration
func Build(ctx context.Context, cfg *Config) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	comp := &Components{
		Config: cfg,
		Logger: logger,
		Fetcher: &spdx.Client{
			BaseURL:    cfg.SPDX.BaseURL,
			UserAgent:  cfg.SPDX.UserAgent,
			HTTPClient: &http.Client{Timeout: cfg.SPDX.Timeout},
		},
	}

	// Normalizer and matcher
	comp.Normalizer = normalize.New(normalize.WithVariants(cfg.SpellingVariants()...))
	mode, err := bigram.ParseMode(cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("mode: %w: %v", internalerr.ErrConfiguration, err)
	}
	comp.Matcher = match.New(match.Options{
		Workers:    cfg.Workers,
		Mode:       mode,
		Normalizer: comp.Normalizer,
		Logger:     logger,
	})

	// Oracle
	switch cfg.Oracle.Kind {
	case "licensecheck":
		comp.Oracle = oracle.Licensecheck{MinCoverage: cfg.Oracle.MinCoverage}
	case "command":
		comp.Oracle = oracle.Command{Args: cfg.Oracle.Command}
	}

	// Store
	comp.Store, err = openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	logger.Debug("components loaded",
		zap.String("store", cfg.Store.Backend),
		zap.String("mode", mode.String()),
		zap.String("oracle", cfg.Oracle.Kind))
	return comp, nil
}

func openStore(ctx context.Context, s Store) (corpus.Store, error) {
	switch s.Backend {
	case "redis":
		st, err := redisstore.New(redisstore.Options{Addr: s.RedisAddr, Prefix: s.RedisPrefix})
		if err != nil {
			return nil, err
		}
		if err := st.WaitReady(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	case "memory":
		return memstore.New(), nil
	default:
		return sqlite.OpenSQLite(ctx, s.Path)
	}
}
