package pickers

import (
	"context"
	"time"
)

// Fixed answers every request with a preset value, used when the value
// was given on the command line.
type Fixed struct {
	Value time.Time
}

// RequestDate returns the preset date
func (f Fixed) RequestDate(_ context.Context, _, _ time.Time) (time.Time, bool, error) {
	return f.Value, true, nil
}

// RequestTime returns the preset time of day on initial's calendar day
func (f Fixed) RequestTime(_ context.Context, initial time.Time, _ int) (time.Time, bool, error) {
	return atClock(initial, f.Value), true, nil
}
