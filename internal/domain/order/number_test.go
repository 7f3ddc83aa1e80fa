package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	day := time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "ZMM202608280001", FormatNumber("ZMM", day, 1))
	assert.Equal(t, "ZMM202608280042", FormatNumber("ZMM", day, 42))
	assert.Equal(t, "ZMM202608289999", FormatNumber("ZMM", day, 9999))
	// Past four digits the number widens instead of wrapping.
	assert.Equal(t, "ZMM2026082810000", FormatNumber("ZMM", day, 10000))
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "20260101", DayKey(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}
