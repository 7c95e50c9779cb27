package repomanager

import (
	"context"

	"github.com/dmitrijs2005/socialid/internal/dbx"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/people"
)

// RepositoryManager vends repositories bound to a DBTX handle and owns the
// transactional boundary of its backend.
type RepositoryManager interface {
	dbx.Transactor
	RunMigrations(ctx context.Context) error
	DB() dbx.DBTX
	People(db dbx.DBTX) people.Repository
	Credentials(db dbx.DBTX) credentials.Repository
}
