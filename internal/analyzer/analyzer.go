package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/penwyp/go-colony-monitor/internal/config"
	"github.com/penwyp/go-colony-monitor/internal/core/model"
	"github.com/penwyp/go-colony-monitor/internal/core/stats"
	"github.com/penwyp/go-colony-monitor/internal/core/timeline"
	"github.com/penwyp/go-colony-monitor/internal/data/aggregator"
	"github.com/penwyp/go-colony-monitor/internal/data/parser"
	"github.com/penwyp/go-colony-monitor/internal/data/scanner"
	"github.com/penwyp/go-colony-monitor/internal/data/store"
	"github.com/penwyp/go-colony-monitor/internal/data/validator"
	"github.com/penwyp/go-colony-monitor/internal/data/watcher"
	"github.com/penwyp/go-colony-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-colony-monitor/internal/util"
)

// ErrNoSources is returned when the data directory holds no observation file.
var ErrNoSources = errors.New("no observation files found")

type Analyzer struct {
	config     *config.Config
	out        io.Writer
	mapper     *timeline.Mapper
	taxonomy   *model.Taxonomy
	scanner    *scanner.FileScanner
	parser     *parser.Parser
	validator  *validator.Validator
	aggregator *aggregator.Aggregator
	boundary   *aggregator.BoundaryFilter
	tables     *tables
}

// New builds the pipeline of cfg. Tables are written to out.
func New(cfg *config.Config, out io.Writer) (*Analyzer, error) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	mapper, err := cfg.Mapper()
	if err != nil {
		return nil, fmt.Errorf("invalid timeline configuration: %w", err)
	}
	bootstrap, err := stats.NewBootstrap(cfg.Bootstrap())
	if err != nil {
		return nil, fmt.Errorf("invalid statistics configuration: %w", err)
	}
	policy, err := severityPolicy(cfg.Validation)
	if err != nil {
		return nil, err
	}

	taxonomy := cfg.BuildTaxonomy()
	agg := aggregator.NewAggregator(mapper)

	return &Analyzer{
		config:   cfg,
		out:      out,
		mapper:   mapper,
		taxonomy: taxonomy,
		scanner: scanner.NewFileScanner(cfg.DataDir).
			WithSuffixes(cfg.Input.ActivitySuffix, cfg.Input.PredatorSuffix).
			WithNames(cfg.Sources),
		parser: parser.NewParser(mapper, concurrency).
			WithAliases(cfg.Input.Aliases).
			WithDelimiter(cfg.DelimiterRune()),
		validator:  validator.NewValidator(taxonomy, policy),
		aggregator: agg,
		boundary:   aggregator.NewBoundaryFilter(mapper, cfg.Filter.TruncatedMinutes),
		tables: &tables{
			agg:       agg,
			taxonomy:  taxonomy,
			nests:     cfg.Taxonomy.Nests,
			bootstrap: bootstrap,
			z:         cfg.GaussianZ(),
		},
	}, nil
}

func severityPolicy(cfg config.ValidationConfig) (validator.Policy, error) {
	activity, err := validator.ParseSeverity(cfg.Activity)
	if err != nil {
		return validator.Policy{}, fmt.Errorf("validation.activity: %w", err)
	}
	predator, err := validator.ParseSeverity(cfg.Predator)
	if err != nil {
		return validator.Policy{}, fmt.Errorf("validation.predator: %w", err)
	}
	return validator.Policy{Activity: activity, Predator: predator}, nil
}

// Mapper returns the timeline geometry of the run.
func (a *Analyzer) Mapper() *timeline.Mapper {
	return a.mapper
}

// Load scans, parses and validates every source. The dataset and the
// validation report are returned even when the error reports failed
// sources, so callers can show everything that was found.
func (a *Analyzer) Load(ctx context.Context) (*Dataset, validator.Report, error) {
	var report validator.Report

	// Phase 1: Scan files
	scanStart := time.Now()
	sources, err := a.scanner.Scan()
	if err != nil {
		return nil, report, fmt.Errorf("failed to scan data directory: %w", err)
	}
	util.LogDebug(fmt.Sprintf("Phase 1 - File scan duration: %v, found %d sources", time.Since(scanStart), len(sources)))
	if len(sources) == 0 {
		return nil, report, fmt.Errorf("%w in %s", ErrNoSources, a.config.DataDir)
	}

	// Phase 2: Parse concurrently, collect by source name
	loadStats := NewLoadStats()
	parseStart := time.Now()
	results := make(map[string]parser.SourceResult, len(sources))
	processed := 0
	for result := range a.parser.ParseSources(sources) {
		results[result.Source.Name] = result
		processed++
		if processed%10 == 0 {
			loadStats.PrintProgress(processed, len(sources))
		}
	}
	util.LogDebug(fmt.Sprintf("Phase 2 - Parsing duration: %v", time.Since(parseStart)))

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	// Phase 3: Validate in source order
	ds := &Dataset{}
	var errs []error
	for _, src := range sources {
		result := results[src.Name]
		if result.Error != nil {
			loadStats.AddFailure(src.Name, result.Error)
			errs = append(errs, fmt.Errorf("source %s: %w", src.Name, result.Error))
			continue
		}

		activityReport, activityErr := a.validator.ValidateActivities(result.Activities)
		predatorReport, predatorErr := a.validator.ValidatePredators(result.Predators)
		report.Merge(activityReport)
		report.Merge(predatorReport)
		loadStats.AddWarnings(len(activityReport.Warnings()) + len(predatorReport.Warnings()))

		if err := errors.Join(activityErr, predatorErr); err != nil {
			loadStats.AddFailure(src.Name, err)
			errs = append(errs, fmt.Errorf("source %s: %w", src.Name, err))
			continue
		}

		loadStats.AddSource(len(result.Activities), len(result.Predators))
		ds.Sources = append(ds.Sources, src.Name)
		ds.Activities = append(ds.Activities, result.Activities...)
		ds.Predators = append(ds.Predators, result.Predators...)
	}
	loadStats.PrintFinalStats()

	if len(errs) > 0 {
		return ds, report, errors.Join(errs...)
	}

	// Phase 4: Boundary filter and merge
	ds.Complete = a.boundary.Complete(ds.Activities)
	ds.Merged, err = aggregator.Merge(ds.Complete)
	if err != nil {
		return ds, report, fmt.Errorf("failed to merge activities: %w", err)
	}
	util.LogDebug(fmt.Sprintf("Phase 4 - %d activities, %d complete, %d after merge",
		len(ds.Activities), len(ds.Complete), len(ds.Merged)))

	return ds, report, nil
}

// Tables computes every statistic table of ds.
func (a *Analyzer) Tables(ctx context.Context, ds *Dataset) ([]formatter.Table, error) {
	return a.tables.build(ctx, ds)
}

// Run loads the data, computes the tables, writes them in the configured
// output format and stores them when a SQLite path is configured.
func (a *Analyzer) Run(ctx context.Context) (formatter.Report, error) {
	startTime := time.Now()
	runID := util.RunID(ctx)
	if runID == "" {
		runID = store.NewRunID()
		ctx = util.WithRunID(ctx, runID)
	}
	util.LogInfo("Starting analysis of colony observations", util.F("run_id", runID), util.F("data_dir", a.config.DataDir))

	ds, validation, err := a.Load(ctx)
	if err != nil {
		return formatter.Report{}, err
	}

	tablesStart := time.Now()
	computed, err := a.Tables(ctx, ds)
	if err != nil {
		return formatter.Report{}, err
	}
	util.LogDebug(fmt.Sprintf("Table computation duration: %v", time.Since(tablesStart)))

	report := formatter.Report{
		RunID:       runID,
		GeneratedAt: time.Now(),
		Sources:     ds.Sources,
		Tables:      computed,
		Warnings:    warningMessages(validation),
	}

	if err := a.formatAndOutput(report); err != nil {
		return report, err
	}
	if a.config.SQLitePath != "" {
		if err := a.save(ctx, report); err != nil {
			return report, err
		}
	}

	util.LogDebug(fmt.Sprintf("Total duration: %v", time.Since(startTime)))
	return report, nil
}

func warningMessages(report validator.Report) []string {
	var out []string
	for _, issue := range report.Warnings() {
		out = append(out, issue.Err.Error())
	}
	return out
}

func (a *Analyzer) formatAndOutput(report formatter.Report) error {
	csvDir := ""
	if a.config.Output == formatter.OutputCSV {
		csvDir = a.config.StatsDir
	}
	f, err := formatter.NewFormatter(a.config.Output, a.out, csvDir)
	if err != nil {
		return err
	}
	return f.Format(report)
}

func (a *Analyzer) save(ctx context.Context, report formatter.Report) error {
	db, err := store.Open(a.config.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.SaveReport(ctx, report, a.config.DataDir)
	return err
}

// Watch runs the analysis, then again whenever an observation file changes,
// until ctx is done. Failed runs are logged and do not stop the loop.
func (a *Analyzer) Watch(ctx context.Context, debounce time.Duration) error {
	fw, err := watcher.NewFileWatcher(a.config.DataDir, ".csv", debounce)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", a.config.DataDir, err)
	}
	defer fw.Close()

	if _, err := a.Run(ctx); err != nil {
		util.LogError(fmt.Sprintf("Analysis failed: %v", err))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case events, ok := <-fw.Events():
			if !ok {
				return nil
			}
			for _, ev := range events {
				util.LogInfo(fmt.Sprintf("Observation file %s: %s", ev.Operation, ev.Path))
				a.parser.Invalidate(ev.Path)
			}
			if _, err := a.Run(ctx); err != nil {
				util.LogError(fmt.Sprintf("Analysis failed: %v", err))
			}
		}
	}
}
