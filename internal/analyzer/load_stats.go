package analyzer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/penwyp/go-colony-monitor/internal/util"
)

// LoadStats counts what a load read and rejected.
type LoadStats struct {
	sources    int64
	activities int64
	predators  int64
	failures   int64
	warnings   int64
	mu         sync.Mutex
	details    []FailureDetail
}

// FailureDetail records why a source failed to load
type FailureDetail struct {
	Source string
	Err    error
}

// NewLoadStats creates a new LoadStats instance
func NewLoadStats() *LoadStats {
	return &LoadStats{}
}

// AddSource records a parsed source and its record counts
func (ls *LoadStats) AddSource(activities, predators int) {
	atomic.AddInt64(&ls.sources, 1)
	atomic.AddInt64(&ls.activities, int64(activities))
	atomic.AddInt64(&ls.predators, int64(predators))
}

// AddFailure records a source that could not be parsed or validated
func (ls *LoadStats) AddFailure(source string, err error) {
	atomic.AddInt64(&ls.failures, 1)

	ls.mu.Lock()
	ls.details = append(ls.details, FailureDetail{Source: source, Err: err})
	ls.mu.Unlock()
}

// AddWarnings records validation warnings
func (ls *LoadStats) AddWarnings(n int) {
	atomic.AddInt64(&ls.warnings, int64(n))
}

// GetStats returns the current counters
func (ls *LoadStats) GetStats() (sources, activities, predators, failures, warnings int64) {
	return atomic.LoadInt64(&ls.sources),
		atomic.LoadInt64(&ls.activities),
		atomic.LoadInt64(&ls.predators),
		atomic.LoadInt64(&ls.failures),
		atomic.LoadInt64(&ls.warnings)
}

// Failures returns a copy of the failure details
func (ls *LoadStats) Failures() []FailureDetail {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	out := make([]FailureDetail, len(ls.details))
	copy(out, ls.details)
	return out
}

// PrintProgress logs the number of sources loaded so far
func (ls *LoadStats) PrintProgress(processed, total int) {
	_, activities, predators, failures, _ := ls.GetStats()
	util.LogDebug(fmt.Sprintf("Load progress: %d/%d sources, %d activities, %d predators, %d failures",
		processed, total, activities, predators, failures))
}

// PrintFinalStats logs the totals and every failed source
func (ls *LoadStats) PrintFinalStats() {
	sources, activities, predators, failures, warnings := ls.GetStats()

	util.LogInfo(fmt.Sprintf("Load complete: %d sources, %d activities, %d predators (%d failures/%d warnings)",
		sources, activities, predators, failures, warnings))

	for _, detail := range ls.Failures() {
		util.LogInfo(fmt.Sprintf("  %s: %v", detail.Source, detail.Err))
	}
}
