package model

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedInterval       = errors.New("malformed interval: end is before start")
	ErrOutOfOrderRecord        = errors.New("out of order record: starts before the previous record")
	ErrUnknownCategory         = errors.New("unknown category")
	ErrUnknownCamera           = errors.New("unknown camera")
	ErrInvalidComposedCategory = errors.New("composed category is neither transport nor construction")
)

// RecordError ties a domain error to the record that caused it.
type RecordError struct {
	Err    error
	Kind   RecordKind
	Record Interval
}

func (e *RecordError) Error() string {
	if e.Record.Line > 0 {
		return fmt.Sprintf("%v in %s %s (line %d)", e.Err, e.Kind, e.Record, e.Record.Line)
	}
	return fmt.Sprintf("%v in %s %s", e.Err, e.Kind, e.Record)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
