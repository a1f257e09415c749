package clock

import (
	"context"
	"time"
)

// FakeSyncer is a test double returning a scripted time or error.
type FakeSyncer struct {
	Time  time.Time
	Err   error
	Calls int
}

// Now returns the scripted result.
func (f *FakeSyncer) Now(context.Context) (time.Time, error) {
	f.Calls++
	if f.Err != nil {
		return time.Time{}, f.Err
	}
	return f.Time, nil
}
