package idempotency

import "time"

// SetClock replaces the guard's time source. Test use only.
func (g *DefaultIdempotencyGuard) SetClock(now func() time.Time) {
	g.now = now
}
