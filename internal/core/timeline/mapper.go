package timeline

import (
	"fmt"
	"time"

	"github.com/penwyp/go-colony-monitor/internal/core/constants"
	"github.com/penwyp/go-colony-monitor/internal/core/model"
)

// Mapper projects absolute instants onto fixed-length rows counted from a
// reference instant.
type Mapper struct {
	reference  time.Time
	rowSeconds int64
}

// NewMapper creates a mapper whose reference is the fixed reference date at
// the given time of day.
func NewMapper(referenceClock model.Clock, rowSeconds int64) (*Mapper, error) {
	if rowSeconds <= 0 {
		return nil, fmt.Errorf("row length must be positive, got %d", rowSeconds)
	}
	reference := time.Date(constants.ReferenceYear, constants.ReferenceMonth, constants.ReferenceDay,
		referenceClock.Hour, referenceClock.Minute, referenceClock.Second, 0, time.UTC)
	return &Mapper{
		reference:  reference,
		rowSeconds: rowSeconds,
	}, nil
}

// DefaultMapper uses a 12 hour row starting at 06:30:00.
func DefaultMapper() *Mapper {
	m, _ := NewMapper(model.MustParseClock(constants.ReferenceClock), constants.RowSeconds)
	return m
}

// Reference returns the reference instant.
func (m *Mapper) Reference() time.Time {
	return m.reference
}

// RowSeconds returns the row length.
func (m *Mapper) RowSeconds() int64 {
	return m.rowSeconds
}

// Instant resolves a bare time of day: reference date + dayShift days + clock.
func (m *Mapper) Instant(dayShift int, clock model.Clock) time.Time {
	return time.Date(m.reference.Year(), m.reference.Month(), m.reference.Day()+dayShift,
		clock.Hour, clock.Minute, clock.Second, 0, time.UTC)
}

// SecondsSince returns the signed seconds from the reference to t.
func (m *Mapper) SecondsSince(t time.Time) int64 {
	return int64(t.Sub(m.reference) / time.Second)
}

// Coordinate maps t to (offset, row) with floor division so the offset
// stays in [0, row length) for instants before the reference too.
func (m *Mapper) Coordinate(t time.Time) Coordinate {
	seconds := m.SecondsSince(t)
	row := floorDiv(seconds, m.rowSeconds)
	return Coordinate{
		Offset: seconds - row*m.rowSeconds,
		Row:    row,
	}
}

// InstantAt is the inverse of Coordinate.
func (m *Mapper) InstantAt(c Coordinate) time.Time {
	return m.reference.Add(time.Duration(c.Row*m.rowSeconds+c.Offset) * time.Second)
}

// Segments splits start..end into per-row pieces clipped to the row bounds.
// The result has end.Row-start.Row+1 contiguous segments; the last one may
// be empty when end sits exactly on a row boundary. An end before start
// yields no segment.
func (m *Mapper) Segments(start, end time.Time) []Segment {
	if end.Before(start) {
		return nil
	}
	from := m.Coordinate(start)
	to := m.Coordinate(end)

	segments := make([]Segment, 0, to.Row-from.Row+1)
	current := from
	for current.Row < to.Row {
		segments = append(segments, Segment{
			Start: current,
			End:   Coordinate{Offset: m.rowSeconds, Row: current.Row},
		})
		current = Coordinate{Offset: 0, Row: current.Row + 1}
	}
	segments = append(segments, Segment{Start: current, End: to})
	return segments
}

// IntervalSegments is Segments over an interval record.
func (m *Mapper) IntervalSegments(iv model.Interval) []Segment {
	return m.Segments(iv.Start, iv.End)
}

// Minutes sums the truncated minutes of the segments of iv that start on a
// row of the requested part. Truncating per segment keeps
// Minutes(day)+Minutes(night) == Minutes(all).
func (m *Mapper) Minutes(iv model.Interval, part DayPart) int {
	var total int64
	for _, seg := range m.IntervalSegments(iv) {
		if part.Includes(seg.Start.Row) {
			total += seg.Minutes()
		}
	}
	return int(total)
}

// LastRow is the row of the latest end instant, -1 for no intervals.
func (m *Mapper) LastRow(intervals []model.Interval) int64 {
	last := int64(-1)
	for _, iv := range intervals {
		if row := m.Coordinate(iv.End).Row; row > last {
			last = row
		}
	}
	return last
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
