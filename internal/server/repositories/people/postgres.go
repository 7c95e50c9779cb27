// Package people stores external-platform accounts ("People").
package people

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/dbx"
	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// newID is a seam for tests.
var newID = uuid.NewString

const selectPerson = `SELECT id, name, username, platform_account_id, platform, profile_image_url, created_at, updated_at FROM people`

// Create inserts person and fills its ID and timestamps. A second person for
// the same platform account yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, person *models.Person) (*models.Person, error) {

	query :=
		`INSERT INTO people (id, name, username, platform_account_id, platform, profile_image_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at
		 `

	id := newID()
	err := r.db.QueryRowContext(ctx, query,
		id, person.Name, person.Username, person.PlatformAccountID, string(person.Platform), person.ProfileImageURL,
	).Scan(&person.CreatedAt, &person.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	person.ID = id
	return person, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Person, error) {
	return r.findOne(ctx, selectPerson+` WHERE id = $1`, id)
}

func (r *PostgresRepository) FindByPlatformAccount(ctx context.Context, platform models.Platform, platformAccountID string) (*models.Person, error) {
	return r.findOne(ctx, selectPerson+` WHERE platform = $1 AND platform_account_id = $2`, string(platform), platformAccountID)
}

// List returns people ordered by creation time, for batch jobs.
func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]*models.Person, error) {
	rows, err := r.db.QueryContext(ctx, selectPerson+` ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// UpdateProfile overwrites the display fields of an existing person.
// Platform and account id never change.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, person *models.Person) error {
	query :=
		`UPDATE people SET name = $2, username = $3, profile_image_url = $4, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, person.ID, person.Name, person.Username, person.ProfileImageURL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, args ...any) (*models.Person, error) {
	p, err := scanPerson(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(s scanner) (*models.Person, error) {
	p := &models.Person{}
	var platform string
	if err := s.Scan(&p.ID, &p.Name, &p.Username, &p.PlatformAccountID, &platform, &p.ProfileImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Platform = models.Platform(platform)
	return p, nil
}
