package util

import "time"

// Elapsed returns the wall-clock time passed since start.
func Elapsed(start time.Time) time.Duration {
	return time.Since(start)
}

// StripMonotonic returns t without its monotonic clock reading, so later
// comparisons against it behave as pure wall-clock arithmetic.
func StripMonotonic(t time.Time) time.Time {
	return t.Round(0)
}
