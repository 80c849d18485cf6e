package models

import "time"

// Reminder is a dated message for a user. TargetDate carries only a calendar
// date (midnight UTC when read back from storage).
type Reminder struct {
	ID         string
	OwnerID    string
	Category   string
	TargetDate time.Time
	Message    string
	Subject    *string
	Sent       bool
	CreatedAt  time.Time
}

// Contact is how a user wants to be notified.
type Contact struct {
	OwnerID    string
	Email      string
	Phone      *string
	Preference string
}

// DueReminder is an unsent reminder joined with its owner's contact details.
type DueReminder struct {
	Reminder
	Contact Contact
}
