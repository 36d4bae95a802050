package types

import "time"

// WatchdogState is a snapshot of the rotation-failure bookkeeping.
//
// A zero FailureCount with a set FirstFailure is a valid transient state: the
// count and the date are cleared independently.
type WatchdogState struct {
	FailureCount    int32
	FirstFailure    time.Time
	HasFirstFailure bool
}

// Failing reports whether at least one rotation failure is on record.
func (s WatchdogState) Failing() bool { return s.FailureCount > 0 }

// FailingFor returns how long the current failure streak has lasted at now.
// It is zero unless the count is positive and the first-failure date is set.
func (s WatchdogState) FailingFor(now time.Time) time.Duration {
	if !s.Failing() || !s.HasFirstFailure {
		return 0
	}
	if d := now.Sub(s.FirstFailure); d > 0 {
		return d
	}
	return 0
}
