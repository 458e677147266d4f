package constants

import "time"

const (
	// Timeline geometry
	RowDuration = 12 * time.Hour
	RowSeconds  = int64(12 * 3600)

	// Reference instant (2000-01-01 06:30:00). Only the time of day is meant to be overridden.
	ReferenceYear  = 2000
	ReferenceMonth = time.January
	ReferenceDay   = 1
	ReferenceClock = "06:30:00"

	// Boundary-truncated activities at or below this length are not trusted
	TruncatedActivityMinutes = 5

	// Bootstrap defaults
	BootstrapRepeats  = 50000
	CILowPercentile   = 2.5
	CIHighPercentile  = 97.5
	GaussianZScore95  = 1.96
	MinutesPerHour    = 60
	SecondsPerMinute  = 60
	DefaultTableNaN   = "NaN"
	DefaultAllKeyword = "All"
)
