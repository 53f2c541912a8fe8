package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"cerium.app/cerium/core/db"
	"cerium.app/cerium/internal/model"
)

type userStore struct {
	db *db.DB
}

const userColumns = `id, name, email, avatar_url, workos_id, created_at, updated_at`

func (s *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.Pool().QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.Pool().QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// UpsertByWorkOSID creates the user on first login and refreshes profile
// fields on subsequent logins. The caller supplies a fresh snowflake ID; it
// is only used when the row does not exist yet.
func (s *userStore) UpsertByWorkOSID(ctx context.Context, user *model.User) error {
	row := s.db.Pool().QueryRow(ctx,
		`INSERT INTO users (id, name, email, avatar_url, workos_id)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (workos_id) DO UPDATE
		 SET name = EXCLUDED.name,
		     email = EXCLUDED.email,
		     avatar_url = EXCLUDED.avatar_url,
		     updated_at = now()
		 RETURNING `+userColumns,
		user.ID, user.Name, user.Email, user.AvatarURL, user.WorkOSID)

	updated, err := scanUser(row)
	if err != nil {
		return err
	}
	*user = *updated
	return nil
}

func (s *userStore) Update(ctx context.Context, user *model.User) error {
	row := s.db.Pool().QueryRow(ctx,
		`UPDATE users
		 SET name = $2, email = $3, avatar_url = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		user.ID, user.Name, user.Email, user.AvatarURL)

	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	*user = *updated
	return nil
}

func (s *userStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.Pool().Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.AvatarURL, &u.WorkOSID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
