// Package cooldown implements the generic N-day cooldown policy used for
// both the post-logout login lockout and the withdrawal eligibility window.
package cooldown

import "time"

// DefaultWindowDays is the standard cooldown window length.
const DefaultWindowDays = 7

// DaysElapsed returns the number of whole days between since and now,
// floored, never negative.
func DaysElapsed(since, now time.Time) int {
	if now.Before(since) {
		return 0
	}
	return int(now.Sub(since).Hours() / 24)
}

// IsBlocked reports whether the action is still inside the cooldown window.
// A nil since means no cooldown was ever started.
func IsBlocked(since *time.Time, now time.Time, windowDays int) bool {
	if since == nil {
		return false
	}
	return DaysElapsed(*since, now) < windowDays
}

// DaysUntilAllowed returns the number of whole days remaining until the
// cooldown expires, zero once the window has fully elapsed.
func DaysUntilAllowed(since *time.Time, now time.Time, windowDays int) int {
	if since == nil {
		return 0
	}
	remaining := windowDays - DaysElapsed(*since, now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
