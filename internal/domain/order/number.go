package order

import (
	"fmt"
	"time"
)

// DefaultNumberPrefix is the store's order number prefix.
const DefaultNumberPrefix = "ZMM"

// DayKey returns the date component used to scope the daily sequence.
func DayKey(t time.Time) string {
	return t.Format("20060102")
}

// FormatNumber renders an order number: prefix, date, and a zero-padded
// daily sequence, e.g. ZMM202608280042. Sequences past 9999 widen rather
// than collide.
func FormatNumber(prefix string, t time.Time, seq int) string {
	return fmt.Sprintf("%s%s%04d", prefix, DayKey(t), seq)
}
