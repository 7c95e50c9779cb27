// Package platform holds the clients that confirm a wallet owns an account on
// an external social platform. An account is proven when recent public
// content of the account carries the wallet public key.
package platform

import (
	"context"

	"github.com/dmitrijs2005/socialid/internal/server/models"
)

// Verifier resolves and proves ownership of a platform account.
type Verifier interface {
	// Verify returns the account profile if the account identified by
	// username publishes publicKey. Otherwise it fails with
	// common.ErrPlatformVerificationFailed.
	Verify(ctx context.Context, username, publicKey string) (*models.Profile, error)

	// Lookup returns the current profile without any proof check.
	Lookup(ctx context.Context, username string) (*models.Profile, error)
}

// FollowingFetcher lists the accounts an account follows.
type FollowingFetcher interface {
	FetchFollowing(ctx context.Context, accountID string) ([]string, error)
}
