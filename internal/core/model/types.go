package model

import (
	"fmt"
	"regexp"
	"time"
)

// Camera identifies one of the fixed nest cameras.
type Camera string

// RecordKind tells activity records from predator records.
type RecordKind string

const (
	KindActivity RecordKind = "activity"
	KindPredator RecordKind = "predator"
)

// Interval is an observed state between two instants on one camera of one
// video source. Intervals are values: merging and filtering build new ones.
type Interval struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Category string    `json:"category"`
	Camera   Camera    `json:"camera"`
	Source   string    `json:"source"`
	// Line is the 1-based row of the input file, 0 for derived intervals.
	Line int `json:"line,omitempty"`
}

// PredatorInterval is a predator presence with its attack instants.
type PredatorInterval struct {
	Interval
	Attacks []time.Time `json:"attacks"`
}

// FileEvent represents a file system event
type FileEvent struct {
	Path      string
	Operation string
}

var nestPattern = regexp.MustCompile(`^[Nn](\d+)`)

// NestOf extracts the nest number from a source id such as "N2_video3-4".
func NestOf(source string) string {
	if m := nestPattern.FindStringSubmatch(source); m != nil {
		return m[1]
	}
	return ""
}

func (iv Interval) Nest() string {
	return NestOf(iv.Source)
}

// DurationSeconds is End-Start in whole seconds.
func (iv Interval) DurationSeconds() int64 {
	return int64(iv.End.Sub(iv.Start) / time.Second)
}

// Contains reports whether t falls in [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

func (iv Interval) IsComposed() bool {
	return IsComposed(iv.Category)
}

func (iv Interval) ActiveStatus() ActiveStatus {
	return ActiveStatusOf(iv.Category)
}

func (iv Interval) IsActive() bool {
	return iv.ActiveStatus() == StatusActive
}

// GroupedCategory is GroupedCategory(iv.Category) with the record attached
// to the error.
func (iv Interval) GroupedCategory() (string, error) {
	g, err := GroupedCategory(iv.Category)
	if err != nil {
		return "", &RecordError{Err: ErrInvalidComposedCategory, Kind: KindActivity, Record: iv}
	}
	return g, nil
}

// WithSpan returns a copy of iv spanning start..end. The copy is derived,
// so its line number is dropped.
func (iv Interval) WithSpan(start, end time.Time) Interval {
	out := iv
	out.Start = start
	out.End = end
	out.Line = 0
	return out
}

func (iv Interval) String() string {
	return fmt.Sprintf("'%s' cam=%s source=%s: %s -> %s (%d sec.)",
		iv.Category, iv.Camera, iv.Source,
		iv.Start.Format("2006-01-02 15:04:05"), iv.End.Format("2006-01-02 15:04:05"),
		iv.DurationSeconds())
}

func (p PredatorInterval) String() string {
	return fmt.Sprintf("%s [%d attacks]", p.Interval, len(p.Attacks))
}

// Bases returns the plain intervals of predator records.
func Bases(predators []PredatorInterval) []Interval {
	out := make([]Interval, len(predators))
	for i, p := range predators {
		out[i] = p.Interval
	}
	return out
}

// AggregationKey selects records by nest and camera; All matches anything.
type AggregationKey struct {
	Nest   string `json:"nest"`
	Camera string `json:"cam"`
}

// Matches reports whether iv belongs to the key.
func (k AggregationKey) Matches(iv Interval) bool {
	if k.Nest != All && iv.Nest() != k.Nest {
		return false
	}
	if k.Camera != All && string(iv.Camera) != k.Camera {
		return false
	}
	return true
}

// Keys enumerates every (nest, camera) combination with All leading both
// dimensions, in the order the statistic tables print them.
func Keys(nests []string, cameras []Camera) []AggregationKey {
	nestDim := append([]string{All}, nests...)
	camDim := []string{All}
	for _, c := range cameras {
		camDim = append(camDim, string(c))
	}

	keys := make([]AggregationKey, 0, len(nestDim)*len(camDim))
	for _, n := range nestDim {
		for _, c := range camDim {
			keys = append(keys, AggregationKey{Nest: n, Camera: c})
		}
	}
	return keys
}
