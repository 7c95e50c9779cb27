// Package models defines server-side data models persisted in the database.
package models

import "strings"

// Platform identifies an external social platform. The set is closed.
type Platform string

const (
	PlatformTwitter  Platform = "twitter"
	PlatformReddit   Platform = "reddit"
	PlatformFacebook Platform = "facebook"
)

// Platforms lists every supported platform.
var Platforms = []Platform{PlatformTwitter, PlatformReddit, PlatformFacebook}

// ParsePlatform normalizes s and reports whether it names a supported
// platform.
func ParsePlatform(s string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PlatformTwitter, PlatformReddit, PlatformFacebook:
		return p, true
	default:
		return p, false
	}
}

func (p Platform) String() string { return string(p) }
