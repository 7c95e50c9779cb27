package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/socialid/internal/logging"
	"github.com/dmitrijs2005/socialid/internal/server/metrics"
	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/repomanager"
)

const profileRefreshBatch = 50

// RefreshStats summarizes one profile refresh run.
type RefreshStats struct {
	Checked int
	Updated int
	Failed  int
}

// ProfileService refreshes the display fields of stored People from their
// platforms. Reconciliation never does this; it is run by the scheduler.
type ProfileService struct {
	registry    VerifierRegistry
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewProfileService(registry VerifierRegistry, m repomanager.RepositoryManager, logger logging.Logger) *ProfileService {
	return &ProfileService{registry: registry, repomanager: m, logger: logger.With("module", "profiles")}
}

// RefreshAll walks every Person once. A failure on one Person is logged and
// counted; only store listing errors abort the run.
func (s *ProfileService) RefreshAll(ctx context.Context) (RefreshStats, error) {
	var stats RefreshStats
	repo := s.repomanager.People(s.repomanager.DB())

	for offset := 0; ; offset += profileRefreshBatch {
		batch, err := repo.List(ctx, offset, profileRefreshBatch)
		if err != nil {
			return stats, fmt.Errorf("error listing people: %w", err)
		}

		for _, p := range batch {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			stats.Checked++
			updated, err := s.refresh(ctx, p)
			metrics.RecordProfileRefresh(err == nil)
			switch {
			case err != nil:
				stats.Failed++
				s.logger.Warn(ctx, "profile refresh failed", "people_id", p.ID, "platform", p.Platform.String(), "error", err)
			case updated:
				stats.Updated++
			}
		}

		if len(batch) < profileRefreshBatch {
			return stats, nil
		}
	}
}

func (s *ProfileService) refresh(ctx context.Context, p *models.Person) (bool, error) {
	v, err := s.registry.Verifier(p.Platform)
	if err != nil {
		return false, err
	}

	profile, err := v.Lookup(ctx, p.Username)
	if err != nil {
		return false, err
	}
	// The handle now belongs to a different account; keep the stored data.
	if profile.PlatformAccountID != p.PlatformAccountID {
		return false, nil
	}
	if profile.Name == p.Name && profile.Username == p.Username && profile.ProfileImageURL == p.ProfileImageURL {
		return false, nil
	}

	p.Name = profile.Name
	p.Username = profile.Username
	p.ProfileImageURL = profile.ProfileImageURL
	if err := s.repomanager.People(s.repomanager.DB()).UpdateProfile(ctx, p); err != nil {
		return false, fmt.Errorf("error updating person: %w", err)
	}
	return true, nil
}
