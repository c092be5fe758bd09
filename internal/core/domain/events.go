package domain

import "time"

// LoginSucceededEvent represents the payload for auth.login.succeeded messages.
type LoginSucceededEvent struct {
	EventID    string
	Email      string
	Role       Role
	UserID     int64
	IPAddress  string
	OccurredAt time.Time
}

// LoginFailedEvent represents the payload for auth.login.failed messages.
type LoginFailedEvent struct {
	EventID    string
	Email      string
	Role       Role
	Failures   int
	IPAddress  string
	OccurredAt time.Time
}

// AccountLockedEvent represents the payload for auth.account.locked messages.
type AccountLockedEvent struct {
	EventID     string
	Email       string
	Role        Role
	LockedUntil time.Time
	OccurredAt  time.Time
}

// AccountUnlockedEvent represents the payload for auth.account.unlocked messages.
type AccountUnlockedEvent struct {
	EventID    string
	Email      string
	Role       Role
	UnlockedBy string
	OccurredAt time.Time
}

// TokenRefreshedEvent represents the payload for auth.token.refreshed messages.
type TokenRefreshedEvent struct {
	EventID    string
	Email      string
	Role       Role
	UserID     int64
	OccurredAt time.Time
}
