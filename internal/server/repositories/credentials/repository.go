package credentials

import (
	"context"

	"github.com/dmitrijs2005/socialid/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, peopleID string, credential *models.Credential) (*models.Credential, error)
	FindByID(ctx context.Context, id string) (*models.Credential, error)
	FindByUserAndPlatform(ctx context.Context, userID string, platform models.Platform) (*models.Credential, error)
	FindByPersonAndPlatform(ctx context.Context, peopleID string, platform models.Platform) (*models.Credential, error)
	MarkVerified(ctx context.Context, id string) (*models.Credential, error)
	List(ctx context.Context, filter models.CredentialFilter) ([]*models.Credential, error)
	Delete(ctx context.Context, id string) error
}
