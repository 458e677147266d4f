package aggregator

import (
	"github.com/penwyp/go-colony-monitor/internal/core/model"
)

// Merge coalesces chronologically adjacent intervals of the same source,
// camera and grouped category whose bounds touch exactly. Each interval is
// compared with the last emitted one, so runs of any length collapse into a
// single interval; a merged interval takes the category of its latest part.
// The first interval has no predecessor. The input is not modified.
func Merge(intervals []model.Interval) ([]model.Interval, error) {
	out := make([]model.Interval, 0, len(intervals))
	var lastGroup string

	for _, iv := range intervals {
		group, err := iv.GroupedCategory()
		if err != nil {
			return nil, err
		}

		if n := len(out); n > 0 {
			last := out[n-1]
			if last.Source == iv.Source && last.Camera == iv.Camera && lastGroup == group && last.End.Equal(iv.Start) {
				out[n-1] = iv.WithSpan(last.Start, iv.End)
				continue
			}
		}

		out = append(out, iv)
		lastGroup = group
	}
	return out, nil
}
