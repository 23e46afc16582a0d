package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts time so write-stamping is testable.
type Clock interface {
	Now() time.Time
}

// Module provides the system clock.
var Module = fx.Provide(NewSystemClock)

type SystemClock struct{}

func NewSystemClock() Clock {
	return &SystemClock{}
}

func (c *SystemClock) Now() time.Time {
	return time.Now().UTC()
}
