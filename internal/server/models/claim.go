package models

// Profile is the canonical account data returned by a platform after it
// confirmed ownership.
type Profile struct {
	Name              string
	Username          string
	PlatformAccountID string
	ProfileImageURL   string
}

// Claim asks to link WalletPublicKey to the account described by Profile.
type Claim struct {
	Profile
	Platform        Platform
	WalletPublicKey string
}

// Person builds the Person record a first claim creates.
func (c Claim) Person() *Person {
	return &Person{
		Name:              c.Name,
		Username:          c.Username,
		PlatformAccountID: c.PlatformAccountID,
		Platform:          c.Platform,
		ProfileImageURL:   c.ProfileImageURL,
	}
}
