package clock

import "time"

// Clock abstracts wall-clock reads so notification timestamps are testable.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock returns CurrentTime until advanced.
type MockClock struct {
	CurrentTime time.Time
}

// Now returns CurrentTime.
func (c *MockClock) Now() time.Time {
	return c.CurrentTime
}

// Advance moves CurrentTime forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}
