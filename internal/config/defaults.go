package config

import (
	"runtime"

	"github.com/spf13/viper"

	"github.com/penwyp/go-colony-monitor/internal/core/constants"
	"github.com/penwyp/go-colony-monitor/internal/core/model"
)

const (
	DefaultDataDir  = "./data"
	DefaultStatsDir = "./stats"
	DefaultFigDir   = "./fig"
	DefaultLogFile  = "~/.go-colony-monitor/logs/app.log"
	DefaultHomeDir  = "~/.go-colony-monitor"

	EnvPrefix = "COLONY"
)

// setDefaults registers a default for every key so environment overrides
// apply to all of them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("stats_dir", DefaultStatsDir)
	v.SetDefault("fig_dir", DefaultFigDir)
	v.SetDefault("sources", []string{})
	v.SetDefault("output", "table")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("concurrency", runtime.NumCPU())

	v.SetDefault("timeline.reference_time", constants.ReferenceClock)
	v.SetDefault("timeline.row_seconds", constants.RowSeconds)

	v.SetDefault("filter.truncated_minutes", constants.TruncatedActivityMinutes)

	v.SetDefault("statistics.bootstrap_repeats", constants.BootstrapRepeats)
	v.SetDefault("statistics.ci_low_percentile", constants.CILowPercentile)
	v.SetDefault("statistics.ci_high_percentile", constants.CIHighPercentile)
	v.SetDefault("statistics.z_score", constants.GaussianZScore95)
	v.SetDefault("statistics.confidence_level", 0.0)
	v.SetDefault("statistics.seed", 0)
	v.SetDefault("statistics.workers", 0)

	v.SetDefault("validation.activity", "fail")
	v.SetDefault("validation.predator", "warn")

	v.SetDefault("taxonomy.activities", model.DefaultSplitCategories)
	v.SetDefault("taxonomy.predators", model.DefaultPredators)
	v.SetDefault("taxonomy.cameras", []string{string(model.CameraInf), string(model.CameraSup)})
	v.SetDefault("taxonomy.nests", model.DefaultNests)

	v.SetDefault("input.activity_suffix", "_Activity.csv")
	v.SetDefault("input.predator_suffix", "_Predator.csv")
	v.SetDefault("input.delimiter", ",")
	v.SetDefault("input.aliases", map[string]string{"debut": "start", "ending": "end"})
}
