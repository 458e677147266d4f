package analyzer

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/penwyp/go-colony-monitor/internal/core/model"
	"github.com/penwyp/go-colony-monitor/internal/core/stats"
	"github.com/penwyp/go-colony-monitor/internal/core/timeline"
	"github.com/penwyp/go-colony-monitor/internal/data/aggregator"
	"github.com/penwyp/go-colony-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-colony-monitor/internal/util"
)

// Table names
const (
	TableVideoDurations          = "0_video_durations"
	TableActivitiesSplit         = "1a_time_by_activities_splitted"
	TableActivitiesGrouped       = "1b_time_by_activities_grouped"
	TableActiveStatus            = "1c_time_by_active_status"
	TablePredatorPresence        = "2_predators_presence_time"
	TablePredatorCounts          = "3_predators_counts"
	TablePredatorDurations       = "4a_predators_average_duration"
	TableSplitDurations          = "4b_activities_splitted_average_duration"
	TableGroupedDurations        = "4c_activities_grouped_average_duration"
	TableDurationStandardErrors  = "4d_activities_durations_standard_errors"
	TablePredatorsColonyActivity = "7_predators_constricto_activity"
)

// Dataset holds the validated records of a run and the derived sets the
// duration statistics use.
type Dataset struct {
	Sources    []string
	Activities []model.Interval
	Predators  []model.PredatorInterval
	// Complete are the activities left by the boundary filter.
	Complete []model.Interval
	// Merged are the complete activities with touching same-group
	// intervals coalesced.
	Merged []model.Interval
}

// row is a table entry being filled column by column.
type row map[string]string

func (r row) setInt(column string, v int) {
	r[column] = strconv.Itoa(v)
}

func (r row) setFloat(column string, v float64) {
	r[column] = util.FormatDecimal(v)
}

func (r row) setInterval(column string, ci stats.Interval) {
	r[column] = util.FormatInterval(ci.Low, ci.High)
}

// tableBuilder accumulates rows under a fixed header.
type tableBuilder struct {
	table formatter.Table
}

func newTable(name string, headers []string) *tableBuilder {
	return &tableBuilder{table: formatter.Table{Name: name, Headers: headers}}
}

func (b *tableBuilder) add(r row) {
	cells := make([]string, len(b.table.Headers))
	for i, h := range b.table.Headers {
		cells[i] = r[h]
	}
	b.table.Rows = append(b.table.Rows, cells)
}

// tables computes every statistic table of a dataset.
type tables struct {
	agg       *aggregator.Aggregator
	taxonomy  *model.Taxonomy
	nests     []string
	bootstrap *stats.Bootstrap
	z         float64
}

func (t *tables) keys() []model.AggregationKey {
	return model.Keys(t.nests, t.taxonomy.Cameras())
}

func (t *tables) cameraDim() []string {
	dim := []string{model.All}
	for _, c := range t.taxonomy.Cameras() {
		dim = append(dim, string(c))
	}
	return dim
}

// build returns every table in output order.
func (t *tables) build(ctx context.Context, ds *Dataset) ([]formatter.Table, error) {
	out := []formatter.Table{
		t.videoDurations(ds),
		t.timeByLabel(TableActivitiesSplit, ds.Activities, t.taxonomy.SplitCategories(), aggregator.ByCategory),
		t.timeByLabel(TableActivitiesGrouped, ds.Activities, t.taxonomy.GroupedCategories(), aggregator.ByGrouped),
		t.timeByLabel(TableActiveStatus, ds.Activities, statusLabels(), func(l string) aggregator.Predicate {
			return aggregator.ByActiveStatus(model.ActiveStatus(l))
		}),
		t.predatorPresence(ds),
		t.predatorCounts(ds),
		t.predatorDurations(ds),
		t.durationsByLabel(TableSplitDurations, ds.Complete, t.taxonomy.SplitCategories(), aggregator.ByCategory),
		t.durationsByLabel(TableGroupedDurations, ds.Merged, t.taxonomy.GroupedCategories(), aggregator.ByGrouped),
	}

	se, err := t.standardErrors(ctx, ds)
	if err != nil {
		return nil, err
	}
	out = append(out, se, t.predatorsColonyActivity(ds))
	return out, nil
}

func statusLabels() []string {
	labels := make([]string, len(model.ActiveStatuses))
	for i, s := range model.ActiveStatuses {
		labels[i] = string(s)
	}
	return labels
}

func dayPartHeaders(labels []string) []string {
	headers := []string{"nest", "cam"}
	for _, part := range timeline.DayParts {
		for _, l := range labels {
			headers = append(headers, l+part.Suffix()+"_minutes", l+part.Suffix()+"_ratio")
		}
		headers = append(headers, "total"+part.Suffix()+"_minutes")
	}
	return headers
}

func (t *tables) videoDurations(ds *Dataset) formatter.Table {
	b := newTable(TableVideoDurations, []string{"video", "cam", "duration_minutes", "duration_hours"})
	for _, source := range append([]string{model.All}, ds.Sources...) {
		bySource := aggregator.Select(ds.Activities, aggregator.BySource(source))
		for _, cam := range t.cameraDim() {
			selected := aggregator.Select(bySource, aggregator.ByCamera(cam))
			if len(selected) == 0 {
				continue
			}
			minutes := t.agg.Minutes(selected, timeline.PartAll)
			r := row{"video": source, "cam": cam, "duration_hours": util.FormatHoursMinutes(minutes)}
			r.setInt("duration_minutes", minutes)
			b.add(r)
		}
	}
	return b.table
}

// timeByLabel fills minutes and ratio of every label and day part, against
// the total activity minutes of the key.
func (t *tables) timeByLabel(name string, activities []model.Interval, labels []string, by func(string) aggregator.Predicate) formatter.Table {
	b := newTable(name, dayPartHeaders(labels))
	for _, key := range t.keys() {
		selected := aggregator.Select(activities, aggregator.ByKey(key))
		if len(selected) == 0 {
			continue
		}
		r := row{"nest": key.Nest, "cam": key.Camera}
		for _, part := range timeline.DayParts {
			total := t.agg.Minutes(selected, part)
			r.setInt("total"+part.Suffix()+"_minutes", total)
			for _, l := range labels {
				minutes := t.agg.MinutesWhere(selected, by(l), part)
				r.setInt(l+part.Suffix()+"_minutes", minutes)
				r.setFloat(l+part.Suffix()+"_ratio", aggregator.Ratio(minutes, total))
			}
		}
		b.add(r)
	}
	return b.table
}

func (t *tables) predatorPresence(ds *Dataset) formatter.Table {
	predators := model.Bases(ds.Predators)
	b := newTable(TablePredatorPresence, dayPartHeaders(t.taxonomy.Predators()))
	for _, key := range t.keys() {
		activities := aggregator.Select(ds.Activities, aggregator.ByKey(key))
		if len(activities) == 0 {
			continue
		}
		selected := aggregator.Select(predators, aggregator.ByKey(key))
		r := row{"nest": key.Nest, "cam": key.Camera}
		for _, part := range timeline.DayParts {
			total := t.agg.Minutes(activities, part)
			r.setInt("total"+part.Suffix()+"_minutes", total)
			for _, p := range t.taxonomy.Predators() {
				minutes := t.agg.MinutesWhere(selected, aggregator.ByCategory(p), part)
				r.setInt(p+part.Suffix()+"_minutes", minutes)
				r.setFloat(p+part.Suffix()+"_ratio", aggregator.Ratio(minutes, total))
			}
		}
		b.add(r)
	}
	return b.table
}

func (t *tables) predatorCounts(ds *Dataset) formatter.Table {
	headers := []string{"nest", "cam"}
	for _, p := range t.taxonomy.Predators() {
		headers = append(headers, p+"_n_presences", p+"_n_attacks", p+"_n_attacks_by_presence")
	}
	headers = append(headers, "total_minutes")

	b := newTable(TablePredatorCounts, headers)
	for _, key := range t.keys() {
		activities := aggregator.Select(ds.Activities, aggregator.ByKey(key))
		if len(activities) == 0 {
			continue
		}
		r := row{"nest": key.Nest, "cam": key.Camera}
		r.setInt("total_minutes", t.agg.Minutes(activities, timeline.PartAll))
		for _, p := range t.taxonomy.Predators() {
			selected := aggregator.SelectPredators(ds.Predators, aggregator.And(aggregator.ByKey(key), aggregator.ByCategory(p)))
			attacks := make([]float64, len(selected))
			n := 0
			for i, pred := range selected {
				attacks[i] = float64(len(pred.Attacks))
				n += len(pred.Attacks)
			}
			r.setInt(p+"_n_presences", len(selected))
			r.setInt(p+"_n_attacks", n)
			r.setFloat(p+"_n_attacks_by_presence", stats.Mean(attacks))
		}
		b.add(r)
	}
	return b.table
}

func (t *tables) predatorDurations(ds *Dataset) formatter.Table {
	predators := model.Bases(ds.Predators)
	return t.durationTable(TablePredatorDurations, predators, t.taxonomy.Predators(), aggregator.ByCategory, "_n_presences")
}

func (t *tables) durationsByLabel(name string, activities []model.Interval, labels []string, by func(string) aggregator.Predicate) formatter.Table {
	return t.durationTable(name, activities, labels, by, "_n")
}

// durationTable reports count, mean and median duration of every label per
// key. Keys without records are skipped.
func (t *tables) durationTable(name string, records []model.Interval, labels []string, by func(string) aggregator.Predicate, countSuffix string) formatter.Table {
	headers := []string{"nest", "cam"}
	for _, l := range labels {
		headers = append(headers, l+countSuffix, l+"_average_duration_minutes", l+"_median_duration_minutes")
	}

	b := newTable(name, headers)
	for _, key := range t.keys() {
		selected := aggregator.Select(records, aggregator.ByKey(key))
		if len(selected) == 0 {
			continue
		}
		r := row{"nest": key.Nest, "cam": key.Camera}
		for _, l := range labels {
			durations := t.agg.Durations(aggregator.Select(selected, by(l)))
			r.setInt(l+countSuffix, len(durations))
			r.setFloat(l+"_average_duration_minutes", stats.Mean(durations))
			r.setFloat(l+"_median_duration_minutes", stats.Median(durations))
		}
		b.add(r)
	}
	return b.table
}

// standardErrors describes the merged complete durations of each grouped
// activity, with classical and bootstrap uncertainty on mean and median.
func (t *tables) standardErrors(ctx context.Context, ds *Dataset) (formatter.Table, error) {
	b := newTable(TableDurationStandardErrors, []string{
		"activity", "n_observations",
		"duration_mean", "duration_median", "duration_standard_deviation",
		"standard_error_on_mean", "confidence_interval_95_on_mean",
		"standard_error_on_mean_bootstrap", "confidence_interval_95_on_mean_bootstrap",
		"standard_error_on_median_bootstrap", "confidence_interval_95_on_median_bootstrap",
	})

	for _, label := range t.taxonomy.GroupedCategories() {
		durations := t.agg.Durations(aggregator.Select(ds.Merged, aggregator.ByGrouped(label)))
		summary := stats.Describe(durations)
		classical := stats.ClassicalMean(durations, t.z)

		onMean, err := t.estimate(ctx, durations, stats.Mean)
		if err != nil {
			return formatter.Table{}, fmt.Errorf("bootstrap on mean of %s: %w", label, err)
		}
		onMedian, err := t.estimate(ctx, durations, stats.Median)
		if err != nil {
			return formatter.Table{}, fmt.Errorf("bootstrap on median of %s: %w", label, err)
		}

		r := row{"activity": label}
		r.setInt("n_observations", summary.N)
		r.setFloat("duration_mean", summary.Mean)
		r.setFloat("duration_median", summary.Median)
		r.setFloat("duration_standard_deviation", summary.StdDev)
		r.setFloat("standard_error_on_mean", classical.StandardError)
		r.setInterval("confidence_interval_95_on_mean", classical.CI)
		r.setFloat("standard_error_on_mean_bootstrap", onMean.StandardError)
		r.setInterval("confidence_interval_95_on_mean_bootstrap", onMean.CI)
		r.setFloat("standard_error_on_median_bootstrap", onMedian.StandardError)
		r.setInterval("confidence_interval_95_on_median_bootstrap", onMedian.CI)
		b.add(r)

		util.LogDebug(fmt.Sprintf("Duration statistics of %s: n=%d mean=%.4f se_boot=%.4f", label, summary.N, summary.Mean, onMean.StandardError))
	}
	return b.table, nil
}

// estimate is a bootstrap estimate, NaN for an empty sample.
func (t *tables) estimate(ctx context.Context, sample []float64, statistic stats.Statistic) (stats.Estimate, error) {
	if len(sample) == 0 {
		return stats.Estimate{StandardError: math.NaN(), CI: stats.Interval{Low: math.NaN(), High: math.NaN()}}, nil
	}
	return t.bootstrap.Estimate(ctx, sample, statistic)
}

// predatorsColonyActivity splits predator presence by whether the colony was
// active when the predator arrived.
func (t *tables) predatorsColonyActivity(ds *Dataset) formatter.Table {
	predatorLabels := t.taxonomy.Predators()
	headers := []string{"nest", "cam"}
	for _, s := range model.ActiveStatuses {
		headers = append(headers, string(s)+"_minutes", string(s)+"_ratio")
	}
	for _, p := range predatorLabels {
		headers = append(headers, p+"_minutes", p+"_ratio")
	}
	for _, p := range predatorLabels {
		for _, s := range model.ActiveStatuses {
			headers = append(headers, p+"_"+string(s)+"_minutes", p+"_"+string(s)+"_ratio")
		}
	}
	headers = append(headers, "total_minutes")

	predators := model.Bases(ds.Predators)
	b := newTable(TablePredatorsColonyActivity, headers)
	for _, key := range t.keys() {
		activities := aggregator.Select(ds.Activities, aggregator.ByKey(key))
		selected := aggregator.Select(predators, aggregator.ByKey(key))
		if len(activities) == 0 || len(selected) == 0 {
			continue
		}

		total := t.agg.Minutes(activities, timeline.PartAll)
		r := row{"nest": key.Nest, "cam": key.Camera}
		r.setInt("total_minutes", total)

		byStatus := make(map[model.ActiveStatus][]model.Interval, len(model.ActiveStatuses))
		statusMinutes := make(map[model.ActiveStatus]int, len(model.ActiveStatuses))
		for _, s := range model.ActiveStatuses {
			byStatus[s] = aggregator.Select(activities, aggregator.ByActiveStatus(s))
			statusMinutes[s] = t.agg.Minutes(byStatus[s], timeline.PartAll)
			r.setInt(string(s)+"_minutes", statusMinutes[s])
			r.setFloat(string(s)+"_ratio", aggregator.Ratio(statusMinutes[s], total))
		}

		for _, p := range predatorLabels {
			ofLabel := aggregator.Select(selected, aggregator.ByCategory(p))
			minutes := t.agg.Minutes(ofLabel, timeline.PartAll)
			r.setInt(p+"_minutes", minutes)
			r.setFloat(p+"_ratio", aggregator.Ratio(minutes, total))

			for _, s := range model.ActiveStatuses {
				during := aggregator.Select(ofLabel, arrivesDuring(byStatus[s]))
				m := t.agg.Minutes(during, timeline.PartAll)
				r.setInt(p+"_"+string(s)+"_minutes", m)
				r.setFloat(p+"_"+string(s)+"_ratio", aggregator.Ratio(m, statusMinutes[s]))
			}
		}
		b.add(r)
	}
	return b.table
}

// arrivesDuring selects records starting inside one of activities on the
// same source and camera.
func arrivesDuring(activities []model.Interval) aggregator.Predicate {
	return func(iv model.Interval) bool {
		for _, a := range activities {
			if a.Source == iv.Source && a.Camera == iv.Camera && a.Contains(iv.Start) {
				return true
			}
		}
		return false
	}
}
