// Package common defines shared constants and sentinel errors used across
// the socialid server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Input errors.
	ErrInvalidPublicKey = errors.New("invalid wallet public key")

	// Platform dispatch and verification errors.
	ErrPlatformNotFound           = errors.New("platform does not exist")
	ErrPlatformVerificationFailed = errors.New("platform verification failed")
	ErrUpstreamTimeout            = errors.New("platform request timed out")

	// Credential reconciliation errors.
	ErrIdentityMismatch   = errors.New("this platform account does not belong to you")
	ErrAlreadyVerified    = errors.New("you already verified this account")
	ErrCredentialConflict = errors.New("credential invalid: account already claimed by another wallet")
)

var errorNames = []struct {
	err  error
	name string
}{
	{ErrPlatformNotFound, "PlatformNotFound"},
	{ErrPlatformVerificationFailed, "PlatformVerificationFailed"},
	{ErrUpstreamTimeout, "UpstreamTimeout"},
	{ErrIdentityMismatch, "IdentityMismatch"},
	{ErrAlreadyVerified, "AlreadyVerified"},
	{ErrCredentialConflict, "CredentialConflict"},
	{ErrInvalidPublicKey, "InvalidPublicKey"},
	{ErrTokenExpired, "TokenExpired"},
	{ErrInvalidToken, "InvalidToken"},
	{ErrorUnauthorized, "Unauthorized"},
	{ErrorNotFound, "NotFound"},
	{ErrorAlreadyExists, "AlreadyExists"},
}

// ErrorName returns a stable identifier of the kind of err, or "Internal"
// when err matches none of the sentinels above.
func ErrorName(err error) string {
	for _, e := range errorNames {
		if errors.Is(err, e.err) {
			return e.name
		}
	}
	return "Internal"
}
