package domain

import "time"

// LockoutStatus is the per-(email, role) login-failure state.
type LockoutStatus struct {
	Failures    int
	LockedUntil *time.Time
}

// Locked reports whether the account is locked as of now.
func (s LockoutStatus) Locked(now time.Time) bool {
	return s.LockedUntil != nil && s.LockedUntil.After(now)
}
