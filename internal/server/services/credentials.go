// Package services contains server-side business logic. This file implements
// CredentialService, which links a wallet public key to an external platform
// account and keeps that link one-to-one.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/dbx"
	"github.com/dmitrijs2005/socialid/internal/logging"
	"github.com/dmitrijs2005/socialid/internal/server/metrics"
	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/repomanager"
)

const (
	maxReconcileAttempts = 3
	followingSyncTimeout = time.Minute
)

const (
	outcomeCreated          = "created"
	outcomeAttached         = "attached"
	outcomeVerified         = "verified"
	outcomeIdentityMismatch = "identity_mismatch"
	outcomeAlreadyVerified  = "already_verified"
	outcomeConflict         = "conflict"
	outcomeError            = "error"
)

// FollowingSyncer fetches and stores the following list of a Twitter account.
type FollowingSyncer interface {
	Sync(ctx context.Context, accountID string) error
}

// CredentialService reconciles wallet claims against the identity store.
type CredentialService struct {
	repomanager repomanager.RepositoryManager
	following   FollowingSyncer
	logger      logging.Logger
	background  sync.WaitGroup
}

// NewCredentialService constructs a CredentialService. following may be nil,
// in which case new Twitter accounts are not followed up.
func NewCredentialService(m repomanager.RepositoryManager, following FollowingSyncer, logger logging.Logger) *CredentialService {
	return &CredentialService{
		repomanager: m,
		following:   following,
		logger:      logger.With("module", "credentials"),
	}
}

// Reconcile links claim.WalletPublicKey to the platform account in claim.
//
// Checks run in a fixed order: the wallet's existing claim on the platform
// must point at the same account (ErrIdentityMismatch), then the account's
// existing credential decides between attach, verify, ErrAlreadyVerified and
// ErrCredentialConflict. A write that loses a race against a concurrent claim
// re-runs the whole sequence.
func (s *CredentialService) Reconcile(ctx context.Context, claim models.Claim) (*models.Credential, error) {
	platform := claim.Platform.String()

	var lastErr error
	for attempt := 1; attempt <= maxReconcileAttempts; attempt++ {
		cred, outcome, err := s.reconcileOnce(ctx, claim)
		if err == nil {
			metrics.RecordReconcile(platform, outcome)
			s.logger.Info(ctx, "credential reconciled",
				"platform", platform, "account_id", claim.PlatformAccountID, "outcome", outcome)
			if outcome == outcomeCreated && claim.Platform == models.PlatformTwitter {
				s.syncFollowing(ctx, claim.PlatformAccountID)
			}
			return cred, nil
		}
		if !errors.Is(err, common.ErrorAlreadyExists) {
			metrics.RecordReconcile(platform, outcomeOf(err))
			return nil, err
		}

		lastErr = err
		s.logger.Warn(ctx, "concurrent claim detected, retrying",
			"platform", platform, "account_id", claim.PlatformAccountID, "attempt", attempt)
	}

	metrics.RecordReconcile(platform, outcomeConflict)
	return nil, fmt.Errorf("%w: concurrent claims did not settle: %v", common.ErrCredentialConflict, lastErr)
}

func (s *CredentialService) reconcileOnce(ctx context.Context, claim models.Claim) (*models.Credential, string, error) {
	db := s.repomanager.DB()
	people := s.repomanager.People(db)
	creds := s.repomanager.Credentials(db)

	own, err := creds.FindByUserAndPlatform(ctx, claim.WalletPublicKey, claim.Platform)
	switch {
	case err == nil:
		owner, err := people.FindByID(ctx, own.PeopleID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, "", fmt.Errorf("error searching person: %w", err)
		}
		if owner != nil && owner.PlatformAccountID != claim.PlatformAccountID {
			return nil, "", common.ErrIdentityMismatch
		}
	case !errors.Is(err, common.ErrorNotFound):
		return nil, "", fmt.Errorf("error searching credential: %w", err)
	}

	person, err := people.FindByPlatformAccount(ctx, claim.Platform, claim.PlatformAccountID)
	if errors.Is(err, common.ErrorNotFound) {
		cred, err := s.createPersonWithCredential(ctx, claim)
		if err != nil {
			return nil, "", err
		}
		return cred, outcomeCreated, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("error searching person: %w", err)
	}

	cred, err := creds.FindByPersonAndPlatform(ctx, person.ID, claim.Platform)
	if errors.Is(err, common.ErrorNotFound) {
		cred, err := creds.Create(ctx, person.ID, newVerifiedCredential(claim))
		if err != nil {
			return nil, "", fmt.Errorf("error creating credential: %w", err)
		}
		return cred, outcomeAttached, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("error searching credential: %w", err)
	}

	if cred.UserID != claim.WalletPublicKey {
		return nil, "", common.ErrCredentialConflict
	}
	if cred.IsVerified {
		return nil, "", common.ErrAlreadyVerified
	}
	verified, err := creds.MarkVerified(ctx, cred.ID)
	if err != nil {
		return nil, "", fmt.Errorf("error verifying credential: %w", err)
	}
	return verified, outcomeVerified, nil
}

// createPersonWithCredential stores the Person and its first Credential
// atomically.
func (s *CredentialService) createPersonWithCredential(ctx context.Context, claim models.Claim) (*models.Credential, error) {
	var cred *models.Credential
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		person, err := s.repomanager.People(tx).Create(ctx, claim.Person())
		if err != nil {
			return fmt.Errorf("error creating person: %w", err)
		}
		cred, err = s.repomanager.Credentials(tx).Create(ctx, person.ID, newVerifiedCredential(claim))
		if err != nil {
			return fmt.Errorf("error creating credential: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// syncFollowing runs the following fetch detached from the request. Its
// outcome never reaches the caller.
func (s *CredentialService) syncFollowing(ctx context.Context, accountID string) {
	if s.following == nil {
		return
	}

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), followingSyncTimeout)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error(bg, "following sync panicked", "account_id", accountID, "panic", p)
			}
		}()

		err := s.following.Sync(bg, accountID)
		metrics.RecordFollowingSync(err == nil)
		if err != nil {
			s.logger.Warn(bg, "following sync failed", "account_id", accountID, "error", err)
		}
	}()
}

// Wait blocks until detached background work has finished.
func (s *CredentialService) Wait() {
	s.background.Wait()
}

func newVerifiedCredential(claim models.Claim) *models.Credential {
	return &models.Credential{
		UserID:     claim.WalletPublicKey,
		Platform:   claim.Platform,
		IsVerified: true,
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, common.ErrIdentityMismatch):
		return outcomeIdentityMismatch
	case errors.Is(err, common.ErrAlreadyVerified):
		return outcomeAlreadyVerified
	case errors.Is(err, common.ErrCredentialConflict):
		return outcomeConflict
	default:
		return outcomeError
	}
}
