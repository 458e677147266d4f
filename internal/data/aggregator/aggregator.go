package aggregator

import (
	"math"

	"github.com/penwyp/go-colony-monitor/internal/core/model"
	"github.com/penwyp/go-colony-monitor/internal/core/timeline"
)

// Predicate selects records.
type Predicate func(iv model.Interval) bool

// ByKey selects records of a (nest, camera) key.
func ByKey(key model.AggregationKey) Predicate {
	return key.Matches
}

// ByNest selects records of a nest; model.All matches every nest.
func ByNest(nest string) Predicate {
	return ByKey(model.AggregationKey{Nest: nest, Camera: model.All})
}

// ByCamera selects records of a camera; model.All matches every camera.
func ByCamera(camera string) Predicate {
	return ByKey(model.AggregationKey{Nest: model.All, Camera: camera})
}

// BySource selects records of one video source.
func BySource(source string) Predicate {
	return func(iv model.Interval) bool {
		return source == model.All || iv.Source == source
	}
}

// ByCategory selects records with exactly this label. It serves both split
// activity labels and predator taxa.
func ByCategory(label string) Predicate {
	return func(iv model.Interval) bool {
		return model.SplitCategory(iv.Category) == label
	}
}

// ByGrouped selects records whose grouped label is label. Records that
// cannot be grouped never match.
func ByGrouped(label string) Predicate {
	return func(iv model.Interval) bool {
		g, err := model.GroupedCategory(iv.Category)
		return err == nil && g == label
	}
}

// ByActiveStatus selects active or inactive records.
func ByActiveStatus(status model.ActiveStatus) Predicate {
	return func(iv model.Interval) bool {
		return iv.ActiveStatus() == status
	}
}

// And combines predicates.
func And(predicates ...Predicate) Predicate {
	return func(iv model.Interval) bool {
		for _, p := range predicates {
			if !p(iv) {
				return false
			}
		}
		return true
	}
}

// Select returns the records matching p, in order.
func Select(intervals []model.Interval, p Predicate) []model.Interval {
	var out []model.Interval
	for _, iv := range intervals {
		if p(iv) {
			out = append(out, iv)
		}
	}
	return out
}

// SelectPredators is Select over predator records.
func SelectPredators(predators []model.PredatorInterval, p Predicate) []model.PredatorInterval {
	var out []model.PredatorInterval
	for _, pred := range predators {
		if p(pred.Interval) {
			out = append(out, pred)
		}
	}
	return out
}

// Aggregator sums record durations on the normalized timeline.
type Aggregator struct {
	mapper *timeline.Mapper
}

// NewAggregator creates an aggregator measuring with mapper.
func NewAggregator(mapper *timeline.Mapper) *Aggregator {
	return &Aggregator{mapper: mapper}
}

// Minutes sums the day-part minutes of every record.
func (a *Aggregator) Minutes(intervals []model.Interval, part timeline.DayPart) int {
	total := 0
	for _, iv := range intervals {
		total += a.mapper.Minutes(iv, part)
	}
	return total
}

// MinutesWhere sums the day-part minutes of the records matching p.
func (a *Aggregator) MinutesWhere(intervals []model.Interval, p Predicate, part timeline.DayPart) int {
	total := 0
	for _, iv := range intervals {
		if p(iv) {
			total += a.mapper.Minutes(iv, part)
		}
	}
	return total
}

// Durations returns the minutes of each record.
func (a *Aggregator) Durations(intervals []model.Interval) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		out[i] = float64(a.mapper.Minutes(iv, timeline.PartAll))
	}
	return out
}

// Ratio is minutes/total, NaN when total is zero.
func Ratio(minutes, total int) float64 {
	if total == 0 {
		return math.NaN()
	}
	return float64(minutes) / float64(total)
}
