package aggregator

import (
	"sort"

	"github.com/penwyp/go-colony-monitor/internal/core/constants"
	"github.com/penwyp/go-colony-monitor/internal/core/model"
	"github.com/penwyp/go-colony-monitor/internal/core/timeline"
)

// BoundaryFilter drops short intervals cut by the edges of a video.
type BoundaryFilter struct {
	mapper    *timeline.Mapper
	threshold int
}

// NewBoundaryFilter keeps truncated intervals longer than threshold minutes.
// A negative threshold selects the default of 5 minutes.
func NewBoundaryFilter(mapper *timeline.Mapper, threshold int) *BoundaryFilter {
	if threshold < 0 {
		threshold = constants.TruncatedActivityMinutes
	}
	return &BoundaryFilter{mapper: mapper, threshold: threshold}
}

// Threshold returns the exclusion threshold in minutes.
func (f *BoundaryFilter) Threshold() int {
	return f.threshold
}

type sequenceKey struct {
	source string
	camera model.Camera
}

// Sequences splits intervals into per (source, camera) sequences sorted by
// start, in order of first appearance.
func Sequences(intervals []model.Interval) [][]model.Interval {
	index := make(map[sequenceKey]int)
	var sequences [][]model.Interval
	for _, iv := range intervals {
		key := sequenceKey{source: iv.Source, camera: iv.Camera}
		i, ok := index[key]
		if !ok {
			i = len(sequences)
			index[key] = i
			sequences = append(sequences, nil)
		}
		sequences[i] = append(sequences[i], iv)
	}
	for _, seq := range sequences {
		sort.SliceStable(seq, func(a, b int) bool {
			return seq[a].Start.Before(seq[b].Start)
		})
	}
	return sequences
}

// Truncated reports whether seq[i] sits at an edge of its sequence or next
// to a gap.
func Truncated(seq []model.Interval, i int) bool {
	if i == 0 || i == len(seq)-1 {
		return true
	}
	return !seq[i-1].End.Equal(seq[i].Start) || !seq[i+1].Start.Equal(seq[i].End)
}

// Complete returns the intervals trusted for duration statistics: every
// interval that is not truncated, plus truncated ones longer than the
// threshold. The result is grouped by sequence.
func (f *BoundaryFilter) Complete(intervals []model.Interval) []model.Interval {
	var out []model.Interval
	for _, seq := range Sequences(intervals) {
		for i, iv := range seq {
			if Truncated(seq, i) && f.mapper.Minutes(iv, timeline.PartAll) <= f.threshold {
				continue
			}
			out = append(out, iv)
		}
	}
	return out
}
