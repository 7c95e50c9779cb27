package models

import "time"

// Person is one external-platform account. (Platform, PlatformAccountID)
// is unique.
type Person struct {
	ID                string
	Name              string
	Username          string
	PlatformAccountID string
	Platform          Platform
	ProfileImageURL   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
