package world

import "time"

// Timer is a repeating countdown advanced by the fixed tick.
type Timer struct {
	Interval time.Duration
	elapsed  time.Duration
}

func NewTimer(interval time.Duration) *Timer {
	return &Timer{Interval: interval}
}

// Advance adds dt and reports how many times the timer expired.
func (t *Timer) Advance(dt time.Duration) int {
	if t.Interval <= 0 {
		return 0
	}
	t.elapsed += dt
	n := int(t.elapsed / t.Interval)
	t.elapsed -= time.Duration(n) * t.Interval
	return n
}

func (t *Timer) Remaining() time.Duration { return t.Interval - t.elapsed }
