package stats

import (
	"fmt"
	"math"
	"sort"
)

// Percentile returns the p-th percentile (0..100) of data using linear
// interpolation between the two closest order statistics: the rank is
// p/100*(n-1) on the sorted data. data is not modified.
func Percentile(data []float64, p float64) (float64, error) {
	if len(data) == 0 {
		return math.NaN(), ErrEmptySample
	}
	if p < 0 || p > 100 || math.IsNaN(p) {
		return math.NaN(), fmt.Errorf("percentile %v out of range [0, 100]", p)
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	return percentileSorted(sorted, p), nil
}

func percentileSorted(sorted []float64, p float64) float64 {
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	fraction := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*fraction
}
