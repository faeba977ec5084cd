package application

import "time"

// Clock is injected wherever analysis timestamps are recorded, so scan
// durations stay deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock implementasi default, pakai time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
