package models

import "time"

// Credential links a wallet identity (UserID, the wallet public key) to a
// Person. UserID is fixed at creation; only IsVerified may change, and
// only from false to true.
type Credential struct {
	ID         string
	PeopleID   string
	UserID     string
	Platform   Platform
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CredentialFilter narrows credential listings. Zero values match all.
type CredentialFilter struct {
	UserID   string
	Platform Platform
	Offset   int
	Limit    int
}
