package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/logging"
	"github.com/dmitrijs2005/socialid/internal/server/config"
	"github.com/dmitrijs2005/socialid/internal/server/metrics"
	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/dmitrijs2005/socialid/internal/server/platform"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/socialid/internal/walletx"
)

// VerifyRequest is one inbound claim: the wallet, the platform and the
// account handle on that platform.
type VerifyRequest struct {
	PublicKey string
	Platform  models.Platform
	Username  string
}

// ListFilter selects a page of credentials. Page is 1-based.
type ListFilter struct {
	UserID   string
	Platform models.Platform
	Page     int
	Limit    int
}

// VerifierRegistry picks the verifier of a platform.
type VerifierRegistry interface {
	Verifier(p models.Platform) (platform.Verifier, error)
}

// Reconciler links a verified profile to a wallet.
type Reconciler interface {
	Reconcile(ctx context.Context, claim models.Claim) (*models.Credential, error)
}

// SocialMediaService proves account ownership on a platform and hands the
// resulting profile to the reconciler. It also serves credential reads.
type SocialMediaService struct {
	registry    VerifierRegistry
	reconciler  Reconciler
	repomanager repomanager.RepositoryManager
	timeout     time.Duration
	logger      logging.Logger
}

func NewSocialMediaService(registry VerifierRegistry, reconciler Reconciler, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *SocialMediaService {
	return &SocialMediaService{
		registry:    registry,
		reconciler:  reconciler,
		repomanager: m,
		timeout:     cfg.PlatformTimeout,
		logger:      logger.With("module", "socialmedia"),
	}
}

// Verify checks that req.Username on req.Platform publishes req.PublicKey and
// then reconciles the claim. Unsupported platforms and malformed keys fail
// before any platform or store access.
func (s *SocialMediaService) Verify(ctx context.Context, req VerifyRequest) (*models.Credential, error) {
	verifier, err := s.registry.Verifier(req.Platform)
	if err != nil {
		return nil, err
	}

	publicKey, err := walletx.Normalize(req.PublicKey)
	if err != nil {
		return nil, err
	}
	ctx = logging.ContextWith(ctx, "platform", req.Platform.String(), "username", req.Username)

	profile, err := s.verify(ctx, verifier, req.Platform, req.Username, publicKey)
	if err != nil {
		return nil, err
	}

	return s.reconciler.Reconcile(ctx, models.Claim{
		Profile:         *profile,
		Platform:        req.Platform,
		WalletPublicKey: publicKey,
	})
}

func (s *SocialMediaService) verify(ctx context.Context, v platform.Verifier, p models.Platform, username, publicKey string) (*models.Profile, error) {
	vctx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		vctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	profile, err := v.Verify(vctx, username, publicKey)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		metrics.RecordVerification(p.String(), "ok", elapsed)
		return profile, nil
	case errors.Is(err, common.ErrUpstreamTimeout):
	case platform.IsTimeout(vctx, err):
		err = fmt.Errorf("%w: %v", common.ErrUpstreamTimeout, err)
	}

	result := "failed"
	if errors.Is(err, common.ErrUpstreamTimeout) {
		result = "timeout"
	}
	metrics.RecordVerification(p.String(), result, elapsed)
	s.logger.Warn(ctx, "platform verification failed", "platform", p.String(), "username", username, "error", err)
	return nil, err
}

// Get returns one credential by id.
func (s *SocialMediaService) Get(ctx context.Context, id string) (*models.Credential, error) {
	cred, err := s.repomanager.Credentials(s.repomanager.DB()).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error fetching credential: %w", err)
	}
	return cred, nil
}

// List returns one page of credentials matching f.
func (s *SocialMediaService) List(ctx context.Context, f ListFilter) ([]*models.Credential, error) {
	if f.Platform != "" {
		if _, ok := models.ParsePlatform(f.Platform.String()); !ok {
			return nil, fmt.Errorf("%w: %q", common.ErrPlatformNotFound, f.Platform)
		}
	}

	if key, err := walletx.Normalize(f.UserID); err == nil {
		f.UserID = key
	}

	offset, limit := common.Page(f.Page, f.Limit)
	creds, err := s.repomanager.Credentials(s.repomanager.DB()).List(ctx, models.CredentialFilter{
		UserID:   f.UserID,
		Platform: f.Platform,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing credentials: %w", err)
	}
	return creds, nil
}

// Delete removes credential id on behalf of the wallet userID. Only the
// wallet that owns the credential may delete it.
func (s *SocialMediaService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return common.ErrorUnauthorized
	}
	if key, err := walletx.Normalize(userID); err == nil {
		userID = key
	}

	repo := s.repomanager.Credentials(s.repomanager.DB())
	cred, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error fetching credential: %w", err)
	}
	if cred.UserID != userID {
		return common.ErrIdentityMismatch
	}

	if err := repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error deleting credential: %w", err)
	}

	s.logger.Info(ctx, "credential deleted", "credential_id", id, "platform", cred.Platform.String())
	return nil
}

// ListByUser returns the credentials owned by the wallet userID.
func (s *SocialMediaService) ListByUser(ctx context.Context, userID string, page, limit int) ([]*models.Credential, error) {
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}
	return s.List(ctx, ListFilter{UserID: userID, Page: page, Limit: limit})
}
