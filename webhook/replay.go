package webhook

import (
	"errors"
	"fmt"
	"time"
)

var ErrTimestampTooOld = errors.New("timestamp too old")

// ReplayGuard bounds how old a delivery timestamp may be
type ReplayGuard struct {
	Tolerance time.Duration // maximum age
	Skew      time.Duration // how far in the future a timestamp may be before warning
}

// Check returns ErrTimestampTooOld for stale deliveries. A timestamp ahead of
// now beyond Skew only produces a warning: the signature check still applies.
func (g ReplayGuard) Check(timestamp int64, now time.Time) (warning string, err error) {
	age := now.Sub(time.Unix(timestamp, 0))
	if age > g.Tolerance {
		return "", fmt.Errorf("%w: delivery is %s old, tolerance is %s", ErrTimestampTooOld, age.Truncate(time.Second), g.Tolerance)
	}
	if age < -g.Skew {
		return fmt.Sprintf("timestamp is %s in the future, possible clock drift", (-age).Truncate(time.Second)), nil
	}
	return "", nil
}
