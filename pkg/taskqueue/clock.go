package taskqueue

import "time"

// Clock abstracts time so admission-window behavior is testable with a
// synthetic clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func NewRealClock() Clock {
	return realClock{}
}
