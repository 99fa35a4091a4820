package util

import (
	"math"
	"time"
)

// ElapsedMillis returns the time since start in milliseconds rounded to two decimals.
func ElapsedMillis(start time.Time) float64 {
	return RoundMillis(time.Since(start))
}

// RoundMillis converts d to milliseconds rounded to two decimals.
func RoundMillis(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
