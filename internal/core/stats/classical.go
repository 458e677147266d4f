package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Interval is a confidence interval.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether v lies in [Low, High].
func (i Interval) Contains(v float64) bool {
	return v >= i.Low && v <= i.High
}

// Estimate is a standard error with its confidence interval.
type Estimate struct {
	StandardError float64  `json:"se"`
	CI            Interval `json:"ci"`
}

// ZScore returns the two-sided Gaussian critical value for a confidence
// level in (0, 1), e.g. 0.95 -> 1.959964.
func ZScore(confidence float64) (float64, error) {
	if confidence <= 0 || confidence >= 1 {
		return math.NaN(), fmt.Errorf("confidence level %v out of range (0, 1)", confidence)
	}
	alpha := 1 - confidence
	return distuv.UnitNormal.Quantile(1 - alpha/2), nil
}

// ClassicalMean estimates the standard error of the mean as s/sqrt(n) with
// the Bessel corrected standard deviation, and the interval mean ± z·SEM.
// Samples below two values give NaN for both.
func ClassicalMean(sample []float64, z float64) Estimate {
	n := float64(len(sample))
	sem := SampleStdDev(sample) / math.Sqrt(n)
	mean := Mean(sample)
	return Estimate{
		StandardError: sem,
		CI: Interval{
			Low:  mean - z*sem,
			High: mean + z*sem,
		},
	}
}
