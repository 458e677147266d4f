package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a bare time of day as written in the observation sheets.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock reads a "HH:MM:SS" time of day. A single digit hour is accepted.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Clock{}, fmt.Errorf("invalid time of day %q: expected HH:MM:SS", s)
	}

	values := make([]int, 3)
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return Clock{}, fmt.Errorf("invalid time of day %q: %w", s, err)
		}
		values[i] = v
	}

	c := Clock{Hour: values[0], Minute: values[1], Second: values[2]}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 || c.Second < 0 || c.Second > 59 {
		return Clock{}, fmt.Errorf("invalid time of day %q: out of range", s)
	}
	return c, nil
}

// MustParseClock is ParseClock for constants; it panics on malformed input.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the time of day of t.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// Seconds returns the seconds elapsed since midnight.
func (c Clock) Seconds() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

// Before reports whether c is earlier in the day than o.
func (c Clock) Before(o Clock) bool {
	return c.Seconds() < o.Seconds()
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}
