package cts

import "time"

// Clock abstracts time.Now so encoders can be driven by a synthetic clock
// in tests.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the system wall clock.
type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns a Clock backed by the host wall clock.
func SystemClock() Clock {
	return realClock{}
}
