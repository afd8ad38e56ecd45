package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	cfgpkg "github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/config"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/model"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/predict"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags (override config if set)
	cfgFile    string
	debug      bool
	flagData   string
	flagBundle string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "eduspend",
	Short: "International Education Budget Planner",
	Long: `eduspend estimates the total cost of attendance for studying abroad from a
country, a degree level and a study duration, and serves a dashboard with an
affordability map and a cluster explorer over the same dataset.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadEnv, loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.eduspend/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagData, "data", "", "dataset CSV/XLSX path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagBundle, "bundle", "", "model bundle path (overrides config)")
}

// loadEnv reads .env from the working directory. A missing file is fine.
func loadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load .env: %v\n", err)
	}
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: config show/set still work without it
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("data") && flagData != "" {
		cfg.DataPath = flagData
	}
	if f.Changed("bundle") && flagBundle != "" {
		cfg.BundlePath = flagBundle
	}
	slog.SetDefault(newLogger(cfg, debug))
}

// newLogger builds the process logger from log_level and log_format.
func newLogger(c *cfgpkg.Global, debug bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// requireConfig returns the loaded config or the reason it is missing.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	return cfg, nil
}

// loadDataset reads the configured dataset file.
func loadDataset() (*dataset.Dataset, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	ds, err := dataset.Load(c.DataPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	slog.Debug("dataset loaded", "path", c.DataPath, "rows", ds.Len())
	return ds, nil
}

// loadPredictor loads the dataset and the cached bundle and validates them
// against each other. strategy overrides placeholder_strategy when non-empty.
func loadPredictor(strategy string) (*predict.Predictor, error) {
	ds, err := loadDataset()
	if err != nil {
		return nil, err
	}
	b, err := model.DefaultCache.Load(cfg.BundlePath)
	if err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}
	if strategy == "" {
		strategy = cfg.PlaceholderStrategy
	}
	p, err := predict.New(ds, b, strategy)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", cfg.BundlePath, err)
	}
	slog.Debug("predictor ready", "bundle", cfg.BundlePath, "features", b.NumFeatures(), "strategy", p.Strategy())
	return p, nil
}
