package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/licmatch/pkg/licmatch"
	"github.com/cognicore/licmatch/pkg/licmatch/config"
	"github.com/cognicore/licmatch/pkg/licmatch/ingest"
	"github.com/cognicore/licmatch/pkg/licmatch/normalize"
)

var (
	configPath  string
	threshold   float64
	limit       float64
	backend     string
	dbPath      string
	logLevel    string
	metricsAddr string
	noColor     bool

	comp *config.Components
)

var rootCmd = &cobra.Command{
	Use:               "licmatch",
	Short:             "Match license text against the SPDX License List",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

func init() {
	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(matchCmd, buildCmd, diffCmd, normalizeCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to licmatch YAML config")
	pf.Float64VarP(&threshold, "threshold", "t", config.DefaultThreshold, "confidence threshold of the license")
	pf.Float64VarP(&limit, "limit", "l", config.DefaultLimit, "score above which a match is perfect")
	pf.StringVar(&backend, "store", "", "corpus backend: sqlite, redis or memory")
	pf.StringVar(&dbPath, "db", "", "sqlite database path")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	pf.BoolVar(&noColor, "no-color", false, "disable coloured output")

	matchCmd.Flags().BoolVar(&autoBuild, "auto-build", true, "build the corpus first when it is empty")
	matchCmd.Flags().BoolVar(&showScore, "scores", false, "list every matched license with its score")

	buildCmd.Flags().StringVar(&dataDir, "dir", "", "read a local license-list-data checkout instead of spdx.org")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", ingest.DefaultWorkers, "concurrent license fetches")
	buildCmd.Flags().BoolVar(&skipDeprecated, "skip-deprecated", false, "leave out deprecated license IDs")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig applies file, environment and then flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("threshold") {
		cfg.Threshold = threshold
	}
	if flags.Changed("limit") {
		cfg.Limit = limit
	}
	if backend != "" {
		cfg.Store.Backend = backend
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	comp, err = config.Build(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		go serveMetrics(comp.Logger, metricsAddr)
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	if comp != nil {
		comp.Close()
	}
}

func serveMetrics(logger *zap.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", zap.Error(err))
	}
}

func newEngine() (*licmatch.Engine, error) {
	return licmatch.New(licmatch.Options{
		Store:     comp.Store,
		Fetcher:   comp.Fetcher,
		Oracle:    comp.Oracle,
		Matcher:   comp.Matcher,
		Threshold: comp.Config.Threshold,
		Limit:     comp.Config.Limit,
		Logger:    comp.Logger,
	})
}

// readInput reads a license file and decodes backslash escapes in it.
func readInput(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return normalize.Unescape(raw)
}

var (
	autoBuild bool
	showScore bool
)

var matchCmd = &cobra.Command{
	Use:   "match FILE",
	Short: "Find the SPDX license that FILE contains",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		input, err := readInput(args[0])
		if err != nil {
			return err
		}

		if autoBuild {
			empty, err := ingest.IsEmpty(ctx, comp.Store)
			if err != nil {
				return err
			}
			if empty {
				if _, err := runBuild(ctx, nil); err != nil {
					return err
				}
			}
		}

		engine, err := newEngine()
		if err != nil {
			return err
		}
		out, err := engine.Classify(ctx, input)
		p := newPrinter(cmd.OutOrStdout(), !noColor)
		if err != nil {
			if out.Result.Scanned == 0 {
				return err
			}
			comp.Logger.Warn("falling back to scores only", zap.Error(err))
		}
		printOutcome(p, out, showScore)
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff LICENSE-ID FILE",
	Short: "Show how FILE differs from the SPDX text of LICENSE-ID",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readInput(args[1])
		if err != nil {
			return err
		}
		engine, err := newEngine()
		if err != nil {
			return err
		}
		report, err := engine.BuildDifferenceReport(cmd.Context(), args[0], input)
		if err != nil {
			return err
		}
		printReport(newPrinter(cmd.OutOrStdout(), !noColor), report)
		return nil
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize FILE",
	Short: "Print the canonical form of FILE used for matching",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readInput(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), comp.Normalizer.Normalize(input))
		return nil
	},
}

var (
	dataDir        string
	buildWorkers   int
	skipDeprecated bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the license corpus from SPDX",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var src ingest.Source
		if dataDir != "" {
			src = ingest.DirSource{Root: dataDir}
		}
		stats, err := runBuild(cmd.Context(), src)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %d of %d licenses in %s\n",
			stats.Stored, stats.Listed, stats.Duration.Round(time.Millisecond))
		return nil
	},
}

// runBuild fills the store from src, or from the SPDX client when src is nil.
func runBuild(ctx context.Context, src ingest.Source) (ingest.Stats, error) {
	if src == nil {
		src = comp.Fetcher
	}
	b := &ingest.Builder{
		Source:         src,
		Store:          comp.Store,
		Normalizer:     comp.Normalizer,
		Workers:        buildWorkers,
		SkipDeprecated: skipDeprecated,
		Logger:         comp.Logger,
	}
	return b.Run(ctx)
}
