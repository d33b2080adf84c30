package store

import "time"

// WithClockForTests exposes the package-private withClock option to the
// store_test package, so tests can pin CreatedAt/UpdatedAt without reaching
// into unexported fields.
func WithClockForTests(now func() time.Time) Option {
	return withClock(now)
}
