package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultAliases maps legacy column names onto canonical ones.
var DefaultAliases = map[string]string{
	"debut":  ColumnStart,
	"ending": ColumnEnd,
}

const (
	ColumnDay      = "day"
	ColumnStart    = "start"
	ColumnEnd      = "end"
	ColumnCamera   = "cam"
	ColumnActivity = "activity"
	ColumnPredator = "predator"
	// attack columns are attack1, attack2, ...
	attackPrefix = "attack"
)

// DayShift holds the day offsets of the start and end of a record.
type DayShift struct {
	Start int
	End   int
}

// ParseDayShift reads the day column: "D" gives shift D-1 for both ends,
// "Ds/De" gives Ds-1 and De-1.
func ParseDayShift(s string) (DayShift, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) > 2 {
		return DayShift{}, fmt.Errorf("invalid day %q: expected D or Dstart/Dend", s)
	}

	days := make([]int, len(parts))
	for i, part := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return DayShift{}, fmt.Errorf("invalid day %q: %w", s, err)
		}
		days[i] = d - 1
	}

	if len(days) == 1 {
		return DayShift{Start: days[0], End: days[0]}, nil
	}
	return DayShift{Start: days[0], End: days[1]}, nil
}

// header indexes the canonical column names of a file.
type header map[string]int

func newHeader(columns []string, aliases map[string]string) header {
	h := make(header, len(columns))
	for i, col := range columns {
		name := strings.ToLower(strings.TrimSpace(col))
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		if _, exists := h[name]; !exists {
			h[name] = i
		}
	}
	return h
}

func (h header) require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := h[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// get returns the trimmed value of a column, "" when absent.
func (h header) get(record []string, name string) (string, bool) {
	i, ok := h[name]
	if !ok || i >= len(record) {
		return "", false
	}
	return strings.TrimSpace(record[i]), true
}

// attacks returns attack1, attack2, ... up to the first missing or empty one.
func (h header) attacks(record []string) []string {
	var values []string
	for i := 1; ; i++ {
		v, ok := h.get(record, attackPrefix+strconv.Itoa(i))
		if !ok || v == "" {
			return values
		}
		values = append(values, v)
	}
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
