package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/penwyp/go-colony-monitor/internal/core/model"
	"github.com/penwyp/go-colony-monitor/internal/core/stats"
	"github.com/penwyp/go-colony-monitor/internal/core/timeline"
)

// Config is the complete configuration of a run. It is built once and
// passed to constructors.
type Config struct {
	DataDir     string   `mapstructure:"data_dir" yaml:"data_dir"`
	StatsDir    string   `mapstructure:"stats_dir" yaml:"stats_dir"`
	FigDir      string   `mapstructure:"fig_dir" yaml:"fig_dir"`
	Sources     []string `mapstructure:"sources" yaml:"sources"`
	Output      string   `mapstructure:"output" yaml:"output"`
	SQLitePath  string   `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	Concurrency int      `mapstructure:"concurrency" yaml:"concurrency"`

	Timeline   TimelineConfig   `mapstructure:"timeline" yaml:"timeline"`
	Filter     FilterConfig     `mapstructure:"filter" yaml:"filter"`
	Statistics StatisticsConfig `mapstructure:"statistics" yaml:"statistics"`
	Validation ValidationConfig `mapstructure:"validation" yaml:"validation"`
	Taxonomy   TaxonomyConfig   `mapstructure:"taxonomy" yaml:"taxonomy"`
	Input      InputConfig      `mapstructure:"input" yaml:"input"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

type TimelineConfig struct {
	ReferenceTime string `mapstructure:"reference_time" yaml:"reference_time"`
	RowSeconds    int64  `mapstructure:"row_seconds" yaml:"row_seconds"`
}

type FilterConfig struct {
	TruncatedMinutes int `mapstructure:"truncated_minutes" yaml:"truncated_minutes"`
}

type StatisticsConfig struct {
	BootstrapRepeats int     `mapstructure:"bootstrap_repeats" yaml:"bootstrap_repeats"`
	CILowPercentile  float64 `mapstructure:"ci_low_percentile" yaml:"ci_low_percentile"`
	CIHighPercentile float64 `mapstructure:"ci_high_percentile" yaml:"ci_high_percentile"`
	ZScore           float64 `mapstructure:"z_score" yaml:"z_score"`
	// ConfidenceLevel, when set, replaces ZScore with the matching Gaussian
	// critical value.
	ConfidenceLevel float64 `mapstructure:"confidence_level" yaml:"confidence_level"`
	Seed            uint64  `mapstructure:"seed" yaml:"seed"`
	Workers         int     `mapstructure:"workers" yaml:"workers"`
}

type ValidationConfig struct {
	Activity string `mapstructure:"activity" yaml:"activity"`
	Predator string `mapstructure:"predator" yaml:"predator"`
}

type TaxonomyConfig struct {
	Activities []string `mapstructure:"activities" yaml:"activities"`
	Predators  []string `mapstructure:"predators" yaml:"predators"`
	Cameras    []string `mapstructure:"cameras" yaml:"cameras"`
	Nests      []string `mapstructure:"nests" yaml:"nests"`
}

type InputConfig struct {
	ActivitySuffix string            `mapstructure:"activity_suffix" yaml:"activity_suffix"`
	PredatorSuffix string            `mapstructure:"predator_suffix" yaml:"predator_suffix"`
	Delimiter      string            `mapstructure:"delimiter" yaml:"delimiter"`
	Aliases        map[string]string `mapstructure:"aliases" yaml:"aliases"`
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"dir":         "data_dir",
	"stats-dir":   "stats_dir",
	"fig-dir":     "fig_dir",
	"source":      "sources",
	"output":      "output",
	"sqlite":      "sqlite_path",
	"concurrency": "concurrency",
	"repeats":     "statistics.bootstrap_repeats",
	"seed":        "statistics.seed",
	"threshold":   "filter.truncated_minutes",
}

// Load builds the configuration from defaults, an optional YAML file,
// COLONY_* environment variables and the flags of the running command, in
// increasing priority. Without an explicit path, config.yaml is looked up
// in the working directory and in ~/.go-colony-monitor.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath(ExpandPath(DefaultHomeDir))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	cfg.DataDir = ExpandPath(cfg.DataDir)
	cfg.StatsDir = ExpandPath(cfg.StatsDir)
	cfg.FigDir = ExpandPath(cfg.FigDir)
	if cfg.SQLitePath != "" {
		cfg.SQLitePath = ExpandPath(cfg.SQLitePath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration with every default and no file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// Validate checks every value that the core would otherwise reject later.
func (c *Config) Validate() error {
	var errs []error

	if _, err := model.ParseClock(c.Timeline.ReferenceTime); err != nil {
		errs = append(errs, fmt.Errorf("timeline.reference_time: %w", err))
	}
	if c.Timeline.RowSeconds <= 0 {
		errs = append(errs, fmt.Errorf("timeline.row_seconds must be positive, got %d", c.Timeline.RowSeconds))
	}
	if c.Filter.TruncatedMinutes < 0 {
		errs = append(errs, fmt.Errorf("filter.truncated_minutes must not be negative, got %d", c.Filter.TruncatedMinutes))
	}
	if c.Statistics.BootstrapRepeats <= 0 {
		errs = append(errs, fmt.Errorf("statistics.bootstrap_repeats must be positive, got %d", c.Statistics.BootstrapRepeats))
	}
	low, high := c.Statistics.CILowPercentile, c.Statistics.CIHighPercentile
	if low < 0 || high > 100 || low >= high {
		errs = append(errs, fmt.Errorf("statistics percentiles must satisfy 0 <= low < high <= 100, got %v/%v", low, high))
	}
	if c.Statistics.ConfidenceLevel != 0 {
		if _, err := stats.ZScore(c.Statistics.ConfidenceLevel); err != nil {
			errs = append(errs, fmt.Errorf("statistics.confidence_level: %w", err))
		}
	}
	for key, value := range map[string]string{"validation.activity": c.Validation.Activity, "validation.predator": c.Validation.Predator} {
		if value != "fail" && value != "warn" {
			errs = append(errs, fmt.Errorf("%s must be fail or warn, got %q", key, value))
		}
	}
	switch c.Output {
	case "table", "csv", "json", "summary":
	default:
		errs = append(errs, fmt.Errorf("output must be one of table, csv, json, summary, got %q", c.Output))
	}
	if utf8.RuneCountInString(c.Input.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("input.delimiter must be a single character, got %q", c.Input.Delimiter))
	}
	if len(c.Taxonomy.Cameras) == 0 {
		errs = append(errs, errors.New("taxonomy.cameras must not be empty"))
	}

	return errors.Join(errs...)
}

// Mapper builds the timeline mapper of the configured geometry.
func (c *Config) Mapper() (*timeline.Mapper, error) {
	clock, err := model.ParseClock(c.Timeline.ReferenceTime)
	if err != nil {
		return nil, err
	}
	return timeline.NewMapper(clock, c.Timeline.RowSeconds)
}

// Cameras returns the configured camera ids.
func (c *Config) Cameras() []model.Camera {
	cameras := make([]model.Camera, len(c.Taxonomy.Cameras))
	for i, cam := range c.Taxonomy.Cameras {
		cameras[i] = model.Camera(cam)
	}
	return cameras
}

// BuildTaxonomy returns the configured label sets.
func (c *Config) BuildTaxonomy() *model.Taxonomy {
	return model.NewTaxonomy(c.Taxonomy.Activities, c.Taxonomy.Predators, c.Cameras())
}

// GaussianZ returns the z-score of the classical interval.
func (c *Config) GaussianZ() float64 {
	if c.Statistics.ConfidenceLevel != 0 {
		if z, err := stats.ZScore(c.Statistics.ConfidenceLevel); err == nil {
			return z
		}
	}
	return c.Statistics.ZScore
}

// Bootstrap returns the resampling settings.
func (c *Config) Bootstrap() stats.BootstrapConfig {
	return stats.BootstrapConfig{
		Repeats:        c.Statistics.BootstrapRepeats,
		LowPercentile:  c.Statistics.CILowPercentile,
		HighPercentile: c.Statistics.CIHighPercentile,
		Workers:        c.Statistics.Workers,
		Seed:           c.Statistics.Seed,
	}
}

// DelimiterRune returns the field delimiter.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	return r
}

// ExpandPath resolves a leading ~/ and makes path absolute.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
