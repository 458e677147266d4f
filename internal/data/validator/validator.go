package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/penwyp/go-colony-monitor/internal/core/model"
	"github.com/penwyp/go-colony-monitor/internal/util"
)

// Severity decides whether an issue aborts processing.
type Severity string

const (
	SeverityFail Severity = "fail"
	SeverityWarn Severity = "warn"
)

// ParseSeverity accepts "fail" and "warn".
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityFail:
		return SeverityFail, nil
	case SeverityWarn:
		return SeverityWarn, nil
	default:
		return "", fmt.Errorf("invalid severity %q: expected fail or warn", s)
	}
}

// Policy sets the severity of ordering problems (malformed and out of order
// records) per record kind. Unknown labels, unknown cameras and invalid
// composed categories always fail.
type Policy struct {
	Activity Severity `mapstructure:"activity" yaml:"activity"`
	Predator Severity `mapstructure:"predator" yaml:"predator"`
}

// DefaultPolicy fails on activities and warns on predators.
func DefaultPolicy() Policy {
	return Policy{Activity: SeverityFail, Predator: SeverityWarn}
}

func (p Policy) severity(kind model.RecordKind) Severity {
	if kind == model.KindPredator {
		return p.Predator
	}
	return p.Activity
}

// Issue is one problem found in a record.
type Issue struct {
	Severity Severity
	Err      *model.RecordError
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %v", i.Severity, i.Err)
}

// Report accumulates the issues of a validation run.
type Report struct {
	Issues []Issue
}

func (r *Report) add(severity Severity, err *model.RecordError) {
	r.Issues = append(r.Issues, Issue{Severity: severity, Err: err})
}

// Merge appends the issues of other.
func (r *Report) Merge(other Report) {
	r.Issues = append(r.Issues, other.Issues...)
}

// Warnings returns the issues that did not abort processing.
func (r Report) Warnings() []Issue {
	return r.filter(SeverityWarn)
}

// Failures returns the issues that abort processing.
func (r Report) Failures() []Issue {
	return r.filter(SeverityFail)
}

func (r Report) HasFailures() bool {
	return len(r.Failures()) > 0
}

// Err joins every failure, nil when there is none.
func (r Report) Err() error {
	var errs []error
	for _, issue := range r.Failures() {
		errs = append(errs, issue.Err)
	}
	return errors.Join(errs...)
}

func (r Report) filter(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// Validator checks parsed records against a taxonomy.
type Validator struct {
	taxonomy *model.Taxonomy
	policy   Policy
}

// NewValidator creates a validator. Empty policy fields fall back to the
// defaults.
func NewValidator(taxonomy *model.Taxonomy, policy Policy) *Validator {
	defaults := DefaultPolicy()
	if policy.Activity == "" {
		policy.Activity = defaults.Activity
	}
	if policy.Predator == "" {
		policy.Predator = defaults.Predator
	}
	return &Validator{taxonomy: taxonomy, policy: policy}
}

// ValidateActivities checks the activity records of one source, in file
// order. The error joins every failure.
func (v *Validator) ValidateActivities(activities []model.Interval) (Report, error) {
	var report Report
	for _, iv := range activities {
		switch _, err := model.GroupedCategory(iv.Category); {
		case err != nil:
			report.add(SeverityFail, recordError(model.ErrInvalidComposedCategory, model.KindActivity, iv))
		case !v.taxonomy.KnownActivity(iv.Category):
			report.add(SeverityFail, recordError(model.ErrUnknownCategory, model.KindActivity, iv))
		}
	}
	v.checkCommon(&report, model.KindActivity, activities)
	v.log(report)
	return report, report.Err()
}

// ValidatePredators checks the predator records of one source, in file order.
func (v *Validator) ValidatePredators(predators []model.PredatorInterval) (Report, error) {
	var report Report
	bases := model.Bases(predators)
	for _, iv := range bases {
		if !v.taxonomy.KnownPredator(iv.Category) {
			report.add(SeverityFail, recordError(model.ErrUnknownCategory, model.KindPredator, iv))
		}
	}
	v.checkCommon(&report, model.KindPredator, bases)
	v.log(report)
	return report, report.Err()
}

func (v *Validator) checkCommon(report *Report, kind model.RecordKind, records []model.Interval) {
	severity := v.policy.severity(kind)
	previous := make(map[model.Camera]model.Interval)

	for _, iv := range records {
		if !v.taxonomy.KnownCamera(iv.Camera) {
			report.add(SeverityFail, recordError(model.ErrUnknownCamera, kind, iv))
		}
		if iv.End.Before(iv.Start) {
			report.add(severity, recordError(model.ErrMalformedInterval, kind, iv))
		}
		if prev, ok := previous[iv.Camera]; ok && iv.Start.Before(prev.Start) {
			report.add(severity, recordError(model.ErrOutOfOrderRecord, kind, iv))
		}
		previous[iv.Camera] = iv
	}
}

func (v *Validator) log(report Report) {
	for _, issue := range report.Issues {
		if issue.Severity == SeverityWarn {
			util.LogWarn(issue.Err.Error())
		} else {
			util.LogError(issue.Err.Error())
		}
	}
}

func recordError(err error, kind model.RecordKind, iv model.Interval) *model.RecordError {
	return &model.RecordError{Err: err, Kind: kind, Record: iv}
}
