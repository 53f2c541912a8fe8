package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"cerium.app/cerium/core/db"
	"cerium.app/cerium/internal/model"
)

type organizationStore struct {
	db *db.DB
}

const organizationColumns = `id, admin_user_id, name, slug, created_at, updated_at, is_deleted`

func (s *organizationStore) GetByID(ctx context.Context, id int64) (*model.Organization, error) {
	row := s.db.Pool().QueryRow(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE id = $1 AND NOT is_deleted`, id)
	return scanOrganization(row)
}

func (s *organizationStore) GetBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	row := s.db.Pool().QueryRow(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE slug = $1 AND NOT is_deleted`, slug)
	return scanOrganization(row)
}

func (s *organizationStore) Create(ctx context.Context, org *model.Organization) error {
	row := s.db.Pool().QueryRow(ctx,
		`INSERT INTO organizations (id, admin_user_id, name, slug)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+organizationColumns,
		org.ID, org.AdminUserID, org.Name, org.Slug)

	created, err := scanOrganization(row)
	if err != nil {
		return err
	}
	*org = *created
	return nil
}

func (s *organizationStore) Update(ctx context.Context, org *model.Organization) error {
	row := s.db.Pool().QueryRow(ctx,
		`UPDATE organizations
		 SET name = $2, slug = $3, updated_at = now()
		 WHERE id = $1 AND NOT is_deleted
		 RETURNING `+organizationColumns,
		org.ID, org.Name, org.Slug)

	updated, err := scanOrganization(row)
	if err != nil {
		return err
	}
	*org = *updated
	return nil
}

func (s *organizationStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.Pool().Exec(ctx,
		`UPDATE organizations SET is_deleted = true, updated_at = now() WHERE id = $1`, id)
	return err
}

func (s *organizationStore) ListByAdminUser(ctx context.Context, userID int64) ([]model.Organization, error) {
	rows, err := s.db.Pool().Query(ctx,
		`SELECT `+organizationColumns+`
		 FROM organizations
		 WHERE admin_user_id = $1 AND NOT is_deleted
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []model.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *org)
	}
	return orgs, rows.Err()
}

func scanOrganization(row pgx.Row) (*model.Organization, error) {
	var org model.Organization
	err := row.Scan(&org.ID, &org.AdminUserID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt, &org.IsDeleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}
