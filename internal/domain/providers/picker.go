package providers

import (
	"context"
	"time"
)

// DatePicker asks the patient for a calendar date. ok is false when the
// picker was closed without confirming.
type DatePicker interface {
	RequestDate(ctx context.Context, lowerBound, initial time.Time) (picked time.Time, ok bool, err error)
}

// TimePicker asks the patient for a time of day in minuteInterval steps.
type TimePicker interface {
	RequestTime(ctx context.Context, initial time.Time, minuteInterval int) (picked time.Time, ok bool, err error)
}

// Clock supplies the current moment
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }
