package people

import (
	"context"

	"github.com/dmitrijs2005/socialid/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, person *models.Person) (*models.Person, error)
	FindByID(ctx context.Context, id string) (*models.Person, error)
	FindByPlatformAccount(ctx context.Context, platform models.Platform, platformAccountID string) (*models.Person, error)
	List(ctx context.Context, offset, limit int) ([]*models.Person, error)
	UpdateProfile(ctx context.Context, person *models.Person) error
}
