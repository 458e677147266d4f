package timeline

import (
	"fmt"
	"strings"
)

// Coordinate is the position of an instant on the normalized timeline:
// Offset seconds into row Row. Offset is always in [0, row length) for
// coordinates produced by Mapper.Coordinate; segment ends may sit at the
// row length itself.
type Coordinate struct {
	Offset int64 `json:"offset"`
	Row    int64 `json:"row"`
}

// Segment is the part of an interval that falls on a single row.
type Segment struct {
	Start Coordinate `json:"start"`
	End   Coordinate `json:"end"`
}

// Seconds returns the length of the segment.
func (s Segment) Seconds() int64 {
	return s.End.Offset - s.Start.Offset
}

// Minutes returns the whole minutes covered by the segment (truncated).
func (s Segment) Minutes() int64 {
	return s.Seconds() / 60
}

// DayPart selects segments by the parity of their row.
type DayPart int

const (
	PartAll DayPart = iota
	PartDay
	PartNight
)

// DayParts lists the parts in table order.
var DayParts = []DayPart{PartAll, PartDay, PartNight}

func (p DayPart) String() string {
	switch p {
	case PartDay:
		return "day"
	case PartNight:
		return "night"
	default:
		return "all"
	}
}

// Suffix is the column suffix used in statistic tables ("", "_day", "_night").
func (p DayPart) Suffix() string {
	if p == PartAll {
		return ""
	}
	return "_" + p.String()
}

// ParseDayPart accepts "", "all", "day" and "night" (case insensitive).
func ParseDayPart(s string) (DayPart, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return PartAll, nil
	case "day":
		return PartDay, nil
	case "night":
		return PartNight, nil
	default:
		return PartAll, fmt.Errorf("invalid day part %q: expected all, day or night", s)
	}
}

// Includes reports whether a segment starting on row belongs to the part.
func (p DayPart) Includes(row int64) bool {
	switch p {
	case PartDay:
		return IsDaytime(row)
	case PartNight:
		return !IsDaytime(row)
	default:
		return true
	}
}

// IsDaytime reports whether row is a day row. Rows alternate because a row
// is half of a 24 hour cycle; even rows start at the reference time of day.
func IsDaytime(row int64) bool {
	return floorMod(row, 2) == 0
}
