package platform

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/server/config"
	"github.com/dmitrijs2005/socialid/internal/server/models"
)

// Registry holds one verifier per supported platform. The set is closed:
// lookups switch over models.Platform rather than a name-keyed map.
type Registry struct {
	twitter  Verifier
	reddit   Verifier
	facebook Verifier
	follow   FollowingFetcher
}

// NewRegistry builds the platform clients from cfg.
func NewRegistry(ctx context.Context, cfg *config.Config) *Registry {
	tw := NewTwitter(ctx, cfg.TwitterBaseURL, cfg.TwitterBearerToken, cfg.PlatformRPS)
	return &Registry{
		twitter:  tw,
		reddit:   NewReddit(ctx, cfg.RedditBaseURL, cfg.RedditTokenURL, cfg.RedditClientID, cfg.RedditClientSecret, cfg.PlatformRPS),
		facebook: NewFacebook(ctx, cfg.FacebookBaseURL, cfg.FacebookAccessToken, cfg.PlatformRPS),
		follow:   tw,
	}
}

// NewStaticRegistry wires explicit verifiers, mainly for tests.
func NewStaticRegistry(twitter, reddit, facebook Verifier, follow FollowingFetcher) *Registry {
	return &Registry{twitter: twitter, reddit: reddit, facebook: facebook, follow: follow}
}

// Verifier returns the verifier of p or common.ErrPlatformNotFound.
func (r *Registry) Verifier(p models.Platform) (Verifier, error) {
	var v Verifier
	switch p {
	case models.PlatformTwitter:
		v = r.twitter
	case models.PlatformReddit:
		v = r.reddit
	case models.PlatformFacebook:
		v = r.facebook
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrPlatformNotFound, p)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %q not configured", common.ErrPlatformNotFound, p)
	}
	return v, nil
}

// Following returns the Twitter following fetcher.
func (r *Registry) Following() FollowingFetcher {
	return r.follow
}
