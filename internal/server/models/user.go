package models

import "time"

// User is a stored credential record. PasswordHash is nil for legacy rows
// created before passwords were required.
type User struct {
	ID                     string
	Email                  string
	Name                   string
	Phone                  *string
	NotificationPreference string
	PasswordHash           *string
	FailedLoginAttempts    int
	LockedUntil            *time.Time
	LastLogin              *time.Time
	APIToken               *string
	APITokenCreatedAt      *time.Time
	CreatedAt              time.Time
}

// LockoutState is the mutable part of a User touched by every login attempt.
// A nil LastLogin leaves the stored value untouched.
type LockoutState struct {
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
}
