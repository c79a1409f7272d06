package promotion

import "time"

// Clock injectable time source for window evaluations
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the wall clock
func SystemClock() Clock {
	return systemClock{}
}
