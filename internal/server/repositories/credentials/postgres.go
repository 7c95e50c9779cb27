// Package credentials stores the wallet-to-person verification links.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

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

var newID = uuid.NewString

const selectCredential = `SELECT id, people_id, user_id, platform, is_verified, created_at, updated_at FROM credentials`

// Create inserts a credential owned by peopleID. Both (people_id, platform)
// and (user_id, platform) are unique; a clash yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, peopleID string, credential *models.Credential) (*models.Credential, error) {

	query :=
		`INSERT INTO credentials (id, people_id, user_id, platform, is_verified)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at
		 `

	id := newID()
	err := r.db.QueryRowContext(ctx, query,
		id, peopleID, credential.UserID, string(credential.Platform), credential.IsVerified,
	).Scan(&credential.CreatedAt, &credential.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	credential.ID = id
	credential.PeopleID = peopleID
	return credential, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Credential, error) {
	return r.findOne(ctx, selectCredential+` WHERE id = $1`, id)
}

func (r *PostgresRepository) FindByUserAndPlatform(ctx context.Context, userID string, platform models.Platform) (*models.Credential, error) {
	return r.findOne(ctx, selectCredential+` WHERE user_id = $1 AND platform = $2`, userID, string(platform))
}

func (r *PostgresRepository) FindByPersonAndPlatform(ctx context.Context, peopleID string, platform models.Platform) (*models.Credential, error) {
	return r.findOne(ctx, selectCredential+` WHERE people_id = $1 AND platform = $2`, peopleID, string(platform))
}

// MarkVerified flips is_verified to true and returns the updated row. It
// never touches user_id.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) (*models.Credential, error) {
	query :=
		`UPDATE credentials SET is_verified = TRUE, updated_at = now()
		 WHERE id = $1
		 RETURNING id, people_id, user_id, platform, is_verified, created_at, updated_at
		 `

	return r.findOne(ctx, query, id)
}

// Delete removes one credential. The owning Person is kept.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
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

func (r *PostgresRepository) List(ctx context.Context, filter models.CredentialFilter) ([]*models.Credential, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Platform != "" {
		args = append(args, string(filter.Platform))
		where = append(where, fmt.Sprintf("platform = $%d", len(args)))
	}

	query := selectCredential
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, args ...any) (*models.Credential, error) {
	c, err := scanCredential(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (*models.Credential, error) {
	c := &models.Credential{}
	var platform string
	if err := s.Scan(&c.ID, &c.PeopleID, &c.UserID, &platform, &c.IsVerified, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Platform = models.Platform(platform)
	return c, nil
}
