package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 7, GetDisplayWidth("cam_inf"))
	assert.Equal(t, 4, GetDisplayWidth("巢穴"))
}

func TestPadding(t *testing.T) {
	assert.Equal(t, "ab   ", PadRight("ab", 5))
	assert.Equal(t, "   ab", PadLeft("ab", 5))
	assert.Equal(t, "巢穴 ", PadRight("巢穴", 5))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "resting", Truncate("resting", 10))
	assert.Equal(t, "rest…", Truncate("resting", 5))
}

func TestCenterText(t *testing.T) {
	assert.Equal(t, "  ab  ", CenterText("ab", 6))
	assert.Equal(t, " abc  ", CenterText("abc", 6))
	assert.Equal(t, "ab", CenterText("ab", 2))
}

func TestTerminalWidth(t *testing.T) {
	assert.Positive(t, TerminalWidth())
}
