package following

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/socialid/internal/logging"
	"github.com/dmitrijs2005/socialid/internal/server/platform"
)

// Syncer fetches the following list of an account and stores it.
type Syncer struct {
	fetcher platform.FollowingFetcher
	store   Store
	logger  logging.Logger
}

func NewSyncer(fetcher platform.FollowingFetcher, store Store, logger logging.Logger) *Syncer {
	return &Syncer{fetcher: fetcher, store: store, logger: logger.With("module", "following")}
}

func (s *Syncer) Sync(ctx context.Context, accountID string) error {
	ids, err := s.fetcher.FetchFollowing(ctx, accountID)
	if err != nil {
		return fmt.Errorf("fetch following of %s: %w", accountID, err)
	}
	if err := s.store.Save(ctx, accountID, ids); err != nil {
		return fmt.Errorf("store following of %s: %w", accountID, err)
	}
	s.logger.Info(ctx, "following synced", "account_id", accountID, "count", len(ids))
	return nil
}
