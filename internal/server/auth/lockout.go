package auth

import "time"

// LockoutPolicy maps a failed-attempt count to a lock duration. Counts below
// Threshold never lock; from Threshold on, Durations is walked one step per
// failure and the last step repeats.
type LockoutPolicy struct {
	Threshold int
	Durations []time.Duration
}

func NewLockoutPolicy(threshold int, durations []time.Duration) LockoutPolicy {
	return LockoutPolicy{Threshold: threshold, Durations: durations}
}

func (p LockoutPolicy) DurationFor(attempts int) time.Duration {
	if attempts < p.Threshold || len(p.Durations) == 0 {
		return 0
	}
	idx := attempts - p.Threshold
	if idx >= len(p.Durations) {
		idx = len(p.Durations) - 1
	}
	return p.Durations[idx]
}

// IsLocked is true iff until is set and strictly after now.
func IsLocked(until *time.Time, now time.Time) bool {
	return until != nil && until.After(now)
}
