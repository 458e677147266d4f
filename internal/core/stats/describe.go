package stats

import (
	"errors"
	"math"

	mstats "github.com/montanaflynn/stats"
)

// ErrEmptySample is returned when a statistic needs at least one value.
var ErrEmptySample = errors.New("empty sample")

// Statistic reduces a sample to a scalar.
type Statistic func(sample []float64) float64

// Mean is the arithmetic mean, NaN for an empty sample.
func Mean(sample []float64) float64 {
	m, err := mstats.Mean(sample)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Median is the middle value (mean of the two middle values for even sizes),
// NaN for an empty sample.
func Median(sample []float64) float64 {
	m, err := mstats.Median(sample)
	if err != nil {
		return math.NaN()
	}
	return m
}

// PopulationStdDev divides by n.
func PopulationStdDev(sample []float64) float64 {
	s, err := mstats.StandardDeviationPopulation(sample)
	if err != nil {
		return math.NaN()
	}
	return s
}

// SampleStdDev divides by n-1 and is NaN below two values.
func SampleStdDev(sample []float64) float64 {
	if len(sample) < 2 {
		return math.NaN()
	}
	s, err := mstats.StandardDeviationSample(sample)
	if err != nil {
		return math.NaN()
	}
	return s
}

// Summary describes a sample of durations.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std"`
}

// Describe computes the summary of sample; StdDev uses Bessel's correction.
func Describe(sample []float64) Summary {
	return Summary{
		N:      len(sample),
		Mean:   Mean(sample),
		Median: Median(sample),
		StdDev: SampleStdDev(sample),
	}
}
