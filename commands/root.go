package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/penwyp/go-colony-monitor/internal/analyzer"
	"github.com/penwyp/go-colony-monitor/internal/config"
	"github.com/penwyp/go-colony-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-colony-monitor/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug bool

	// Configuration
	configPath string
	dataDir    string

	// Output related
	statsDir     string
	outputFormat string
	sqlitePath   string

	// Selection and statistics
	sources     []string
	concurrency int
	repeats     int
	seed        uint64
	threshold   int

	// Watch mode
	watch    bool
	debounce time.Duration

	rootCmd = &cobra.Command{
		Use:   "go-colony-monitor [flags]",
		Short: "Ant colony observation statistics",
		Long: `go-colony-monitor computes activity and predator statistics from ant colony video observation logs.

Each source is a pair of <name>_Activity.csv and <name>_Predator.csv files in the data directory.

Examples:
  go-colony-monitor                                  # Analyze ./data with default settings
  go-colony-monitor --dir /path/to/observations      # Analyze specified directory
  go-colony-monitor --source N1_video1 --source N2   # Analyze selected sources only
  go-colony-monitor --output csv --stats-dir ./stats # Write one CSV file per table
  go-colony-monitor --output json --sqlite runs.db   # Print JSON and store the run
  go-colony-monitor --repeats 5000 --seed 42         # Reproducible bootstrap estimates
  go-colony-monitor --watch                          # Recompute when files change`,
		RunE: runAnalyze,
	}
)

func init() {
	// Input data configuration
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default ./config.yaml or ~/.go-colony-monitor/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", config.DefaultDataDir,
		"Observation data directory path")
	rootCmd.PersistentFlags().StringSliceVar(&sources, "source", nil,
		"Source names to analyze (default all)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0,
		"Parallel file parsing (0 = number of CPUs)")

	// Statistics
	rootCmd.Flags().IntVar(&repeats, "repeats", 0,
		"Bootstrap resampling repeats, must be positive (default from config, 50000)")
	rootCmd.Flags().Uint64Var(&seed, "seed", 0,
		"Bootstrap random seed (0 = random)")
	rootCmd.Flags().IntVar(&threshold, "threshold", 0,
		"Activities touching a video boundary that last this many minutes or less are dropped (default from config, 5)")

	// Output configuration
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json, csv, summary)")
	rootCmd.Flags().StringVar(&statsDir, "stats-dir", config.DefaultStatsDir,
		"Directory for CSV tables")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite", "",
		"SQLite database the run is stored in")

	// Watch mode
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false,
		"Recompute whenever an observation file changes")
	rootCmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond,
		"Delay grouping file changes in watch mode")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

// loadConfig starts logging and reads the configuration. Only flags set on
// the command line override the config file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	logFile := expandPath(config.DefaultLogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := util.InitLogger(util.LoggerOptions{
		Level:   logLevel,
		File:    logFile,
		Console: debug,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		util.LogDebug(fmt.Sprintf("Using config file: %s", cfg.File))
	}
	return cfg, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer util.CloseLogger()

	if cfg.Output == formatter.OutputCSV {
		if err := ensureDir(cfg.StatsDir); err != nil {
			return fmt.Errorf("failed to create stats directory: %w", err)
		}
	}

	a, err := analyzer.New(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if watch {
		return a.Watch(ctx, debounce)
	}
	_, err = a.Run(ctx)
	return err
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func expandPath(path string) string {
	return config.ExpandPath(path)
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
