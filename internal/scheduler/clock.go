// Package scheduler contains the kitchen admission and scheduling engine.
package scheduler

import "time"

// Clock abstracts wall-clock reads so tests can pin time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
