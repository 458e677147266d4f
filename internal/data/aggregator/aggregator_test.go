package aggregator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-colony-monitor/internal/core/model"
	"github.com/penwyp/go-colony-monitor/internal/core/timeline"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2000, time.January, day, hour, minute, 0, 0, time.UTC)
}

func iv(source string, cam model.Camera, category string, start, end time.Time) model.Interval {
	return model.Interval{Start: start, End: end, Category: category, Camera: cam, Source: source}
}

func sampleIntervals() []model.Interval {
	return []model.Interval{
		iv("N1_v1", model.CameraInf, "resting", at(1, 6, 30), at(1, 7, 30)),
		iv("N1_v1", model.CameraInf, "transport", at(1, 7, 30), at(1, 8, 0)),
		iv("N1_v1", model.CameraSup, "column", at(1, 18, 0), at(1, 19, 0)),
		iv("N2_v3", model.CameraInf, "transport+construction", at(1, 9, 0), at(1, 9, 45)),
		iv("N2_v3", model.CameraSup, "foraging", at(1, 20, 0), at(1, 20, 10)),
	}
}

func TestPredicates(t *testing.T) {
	records := sampleIntervals()

	assert.Len(t, Select(records, ByNest("1")), 3)
	assert.Len(t, Select(records, ByNest(model.All)), 5)
	assert.Len(t, Select(records, ByCamera("cam_sup")), 2)
	assert.Len(t, Select(records, ByKey(model.AggregationKey{Nest: "2", Camera: "cam_inf"})), 1)
	assert.Len(t, Select(records, BySource("N2_v3")), 2)
	assert.Len(t, Select(records, ByCategory("transport")), 1)
	assert.Len(t, Select(records, ByGrouped(model.GroupTransportConstruction)), 2)
	assert.Len(t, Select(records, ByActiveStatus(model.StatusInactive)), 1)
	assert.Len(t, Select(records, And(ByNest("1"), ByActiveStatus(model.StatusActive))), 2)
	assert.Empty(t, Select(records, ByCategory("nothing")))
}

func TestByGroupedRejectsInvalidComposed(t *testing.T) {
	bad := iv("N1", model.CameraInf, "foraging+resting", at(1, 7, 0), at(1, 8, 0))
	assert.False(t, ByGrouped("foraging+resting")(bad))
}

func TestSelectPredators(t *testing.T) {
	predators := []model.PredatorInterval{
		{Interval: iv("N1_v1", model.CameraInf, model.PredatorOpiliones, at(1, 7, 0), at(1, 7, 10))},
		{Interval: iv("N2_v3", model.CameraInf, model.PredatorReduviidae, at(1, 7, 0), at(1, 7, 10))},
	}
	got := SelectPredators(predators, ByNest("2"))
	require.Len(t, got, 1)
	assert.Equal(t, model.PredatorReduviidae, got[0].Category)
}

func TestAggregatorMinutes(t *testing.T) {
	agg := NewAggregator(timeline.DefaultMapper())
	records := sampleIntervals()

	assert.Equal(t, 60+30+60+45+10, agg.Minutes(records, timeline.PartAll))
	// column 18:00-19:00 has 30 day minutes and 30 night minutes, foraging is at night
	assert.Equal(t, 60+30+30+45, agg.Minutes(records, timeline.PartDay))
	assert.Equal(t, 30+10, agg.Minutes(records, timeline.PartNight))

	assert.Equal(t, 75, agg.MinutesWhere(records, ByGrouped(model.GroupTransportConstruction), timeline.PartAll))
	assert.Equal(t, 0, agg.Minutes(nil, timeline.PartAll))

	assert.Equal(t, []float64{60, 30, 60, 45, 10}, agg.Durations(records))
}

func TestAggregatorMalformedIntervalAddsNothing(t *testing.T) {
	agg := NewAggregator(timeline.DefaultMapper())
	malformed := iv("N1", model.CameraInf, model.PredatorOpiliones, at(1, 6, 50), at(1, 6, 40))
	records := append(sampleIntervals(), malformed)

	for _, part := range timeline.DayParts {
		assert.Equal(t, agg.Minutes(sampleIntervals(), part), agg.Minutes(records, part), part.String())
	}
	assert.Equal(t, 0, agg.MinutesWhere(records, ByCategory(model.PredatorOpiliones), timeline.PartAll))
	assert.Equal(t, []float64{0}, agg.Durations([]model.Interval{malformed}))
}

func TestAggregatorPartition(t *testing.T) {
	agg := NewAggregator(timeline.DefaultMapper())
	records := []model.Interval{
		iv("N1", model.CameraInf, "resting", at(1, 18, 29), at(2, 6, 31)),
	}
	all := agg.Minutes(records, timeline.PartAll)
	assert.Equal(t, all, agg.Minutes(records, timeline.PartDay)+agg.Minutes(records, timeline.PartNight))
}

func TestRatio(t *testing.T) {
	assert.InDelta(t, 0.25, Ratio(15, 60), 1e-12)
	assert.True(t, math.IsNaN(Ratio(0, 0)))
	assert.True(t, math.IsNaN(Ratio(10, 0)))
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		input    []model.Interval
		expected []model.Interval
	}{
		{
			name:     "empty",
			input:    nil,
			expected: []model.Interval{},
		},
		{
			name: "single interval has no predecessor",
			input: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 8, 0)),
			},
			expected: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 8, 0)),
			},
		},
		{
			name: "adjacent grouped variants merge",
			input: []model.Interval{
				iv("N1", model.CameraInf, "transport", at(1, 7, 0), at(1, 7, 30)),
				iv("N1", model.CameraInf, "construction", at(1, 7, 30), at(1, 8, 0)),
			},
			expected: []model.Interval{
				iv("N1", model.CameraInf, "construction", at(1, 7, 0), at(1, 8, 0)),
			},
		},
		{
			name: "runs of three collapse into one",
			input: []model.Interval{
				iv("N1", model.CameraInf, "transport", at(1, 7, 0), at(1, 7, 30)),
				iv("N1", model.CameraInf, "transport+construction", at(1, 7, 30), at(1, 8, 0)),
				iv("N1", model.CameraInf, "construction", at(1, 8, 0), at(1, 9, 0)),
				iv("N1", model.CameraInf, "resting", at(1, 9, 0), at(1, 9, 30)),
			},
			expected: []model.Interval{
				iv("N1", model.CameraInf, "construction", at(1, 7, 0), at(1, 9, 0)),
				iv("N1", model.CameraInf, "resting", at(1, 9, 0), at(1, 9, 30)),
			},
		},
		{
			name: "gap prevents merge",
			input: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 7, 30)),
				iv("N1", model.CameraInf, "resting", at(1, 7, 31), at(1, 8, 0)),
			},
			expected: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 7, 30)),
				iv("N1", model.CameraInf, "resting", at(1, 7, 31), at(1, 8, 0)),
			},
		},
		{
			name: "different camera or source prevents merge",
			input: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 7, 30)),
				iv("N1", model.CameraSup, "resting", at(1, 7, 30), at(1, 8, 0)),
				iv("N2", model.CameraSup, "resting", at(1, 8, 0), at(1, 8, 30)),
			},
			expected: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 7, 30)),
				iv("N1", model.CameraSup, "resting", at(1, 7, 30), at(1, 8, 0)),
				iv("N2", model.CameraSup, "resting", at(1, 8, 0), at(1, 8, 30)),
			},
		},
		{
			name: "last interval does not wrap around to the first",
			input: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 8, 0), at(1, 9, 0)),
				iv("N1", model.CameraInf, "column", at(1, 9, 0), at(1, 10, 0)),
				iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 8, 0)),
			},
			expected: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 8, 0), at(1, 9, 0)),
				iv("N1", model.CameraInf, "column", at(1, 9, 0), at(1, 10, 0)),
				iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 8, 0)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(tt.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeDoesNotModifyInput(t *testing.T) {
	input := []model.Interval{
		iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 7, 30)),
		iv("N1", model.CameraInf, "resting", at(1, 7, 30), at(1, 8, 0)),
	}
	_, err := Merge(input)
	require.NoError(t, err)
	assert.Equal(t, at(1, 7, 30), input[1].Start)
}

func TestMergeInvalidComposed(t *testing.T) {
	_, err := Merge([]model.Interval{
		iv("N1", model.CameraInf, "foraging+resting", at(1, 7, 0), at(1, 7, 30)),
	})
	assert.True(t, errors.Is(err, model.ErrInvalidComposedCategory))
}

func TestBoundaryFilter(t *testing.T) {
	mapper := timeline.DefaultMapper()
	filter := NewBoundaryFilter(mapper, 5)

	tests := []struct {
		name     string
		input    []model.Interval
		expected []model.Interval
	}{
		{
			name: "short first interval is excluded",
			input: []model.Interval{
				iv("N1", model.CameraInf, "column", at(1, 7, 0), at(1, 7, 3)),
				iv("N1", model.CameraInf, "resting", at(1, 7, 10), at(1, 8, 0)),
			},
			expected: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 7, 10), at(1, 8, 0)),
			},
		},
		{
			name: "long first interval is kept",
			input: []model.Interval{
				iv("N1", model.CameraInf, "column", at(1, 7, 0), at(1, 7, 10)),
				iv("N1", model.CameraInf, "resting", at(1, 7, 20), at(1, 8, 0)),
			},
			expected: []model.Interval{
				iv("N1", model.CameraInf, "column", at(1, 7, 0), at(1, 7, 10)),
				iv("N1", model.CameraInf, "resting", at(1, 7, 20), at(1, 8, 0)),
			},
		},
		{
			name: "short interval between continuous neighbours is kept",
			input: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 8, 0)),
				iv("N1", model.CameraInf, "column", at(1, 8, 0), at(1, 8, 2)),
				iv("N1", model.CameraInf, "resting", at(1, 8, 2), at(1, 9, 0)),
			},
			expected: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 8, 0)),
				iv("N1", model.CameraInf, "column", at(1, 8, 0), at(1, 8, 2)),
				iv("N1", model.CameraInf, "resting", at(1, 8, 2), at(1, 9, 0)),
			},
		},
		{
			name: "short interval next to a gap is excluded",
			input: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 8, 0)),
				iv("N1", model.CameraInf, "column", at(1, 8, 0), at(1, 8, 5)),
				iv("N1", model.CameraInf, "resting", at(1, 8, 30), at(1, 9, 0)),
			},
			expected: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 8, 0)),
				iv("N1", model.CameraInf, "resting", at(1, 8, 30), at(1, 9, 0)),
			},
		},
		{
			name: "sequences are per source and camera",
			input: []model.Interval{
				iv("N1", model.CameraInf, "resting", at(1, 7, 0), at(1, 7, 4)),
				iv("N1", model.CameraSup, "resting", at(1, 7, 0), at(1, 8, 0)),
				iv("N2", model.CameraInf, "column", at(1, 7, 4), at(1, 7, 8)),
			},
			expected: []model.Interval{
				iv("N1", model.CameraSup, "resting", at(1, 7, 0), at(1, 8, 0)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.Complete(tt.input)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Complete() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBoundaryFilterDefaultThreshold(t *testing.T) {
	assert.Equal(t, 5, NewBoundaryFilter(timeline.DefaultMapper(), -1).Threshold())
	assert.Equal(t, 0, NewBoundaryFilter(timeline.DefaultMapper(), 0).Threshold())
}

func TestSequencesSortByStart(t *testing.T) {
	seqs := Sequences([]model.Interval{
		iv("N1", model.CameraInf, "resting", at(1, 9, 0), at(1, 10, 0)),
		iv("N1", model.CameraSup, "column", at(1, 7, 0), at(1, 8, 0)),
		iv("N1", model.CameraInf, "column", at(1, 7, 0), at(1, 9, 0)),
	})

	require.Len(t, seqs, 2)
	assert.Equal(t, model.CameraInf, seqs[0][0].Camera)
	assert.Equal(t, at(1, 7, 0), seqs[0][0].Start)
	assert.Equal(t, at(1, 9, 0), seqs[0][1].Start)
	assert.Len(t, seqs[1], 1)
}
