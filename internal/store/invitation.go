package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"cerium.app/cerium/core/db"
	"cerium.app/cerium/internal/model"
)

type invitationStore struct {
	db *db.DB
}

const invitationColumns = `id, email, token, status, invited_by, accepted_by, organization_id, expires_at, accepted_at, created_at`

func (s *invitationStore) Create(ctx context.Context, inv *model.Invitation) error {
	row := s.db.Pool().QueryRow(ctx,
		`INSERT INTO invitations (id, email, token, status, invited_by, organization_id, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+invitationColumns,
		inv.ID, inv.Email, inv.Token, string(inv.Status), inv.InvitedBy, inv.OrganizationID, inv.ExpiresAt)

	created, err := scanInvitation(row)
	if err != nil {
		return err
	}
	*inv = *created
	return nil
}

func (s *invitationStore) GetByToken(ctx context.Context, token string) (*model.Invitation, error) {
	row := s.db.Pool().QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token = $1`, token)
	return scanInvitation(row)
}

func (s *invitationStore) GetValidByToken(ctx context.Context, token string) (*model.Invitation, error) {
	row := s.db.Pool().QueryRow(ctx,
		`SELECT `+invitationColumns+`
		 FROM invitations
		 WHERE token = $1 AND status = 'pending' AND expires_at > now()`, token)
	return scanInvitation(row)
}

func (s *invitationStore) GetByEmail(ctx context.Context, email string) (*model.Invitation, error) {
	row := s.db.Pool().QueryRow(ctx,
		`SELECT `+invitationColumns+`
		 FROM invitations
		 WHERE email = $1
		 ORDER BY created_at DESC
		 LIMIT 1`, email)
	return scanInvitation(row)
}

func (s *invitationStore) Accept(ctx context.Context, id int64, userID int64) (*model.Invitation, error) {
	row := s.db.Pool().QueryRow(ctx,
		`UPDATE invitations
		 SET status = 'accepted', accepted_by = $2, accepted_at = now()
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+invitationColumns,
		id, userID)
	return scanInvitation(row)
}

func (s *invitationStore) Revoke(ctx context.Context, id int64) (*model.Invitation, error) {
	row := s.db.Pool().QueryRow(ctx,
		`UPDATE invitations
		 SET status = 'revoked'
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+invitationColumns,
		id)
	return scanInvitation(row)
}

func (s *invitationStore) List(ctx context.Context, limit, offset int32) ([]model.Invitation, error) {
	rows, err := s.db.Pool().Query(ctx,
		`SELECT `+invitationColumns+`
		 FROM invitations
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvitations(rows)
}

func (s *invitationStore) ListPending(ctx context.Context) ([]model.Invitation, error) {
	rows, err := s.db.Pool().Query(ctx,
		`SELECT `+invitationColumns+`
		 FROM invitations
		 WHERE status = 'pending' AND expires_at > now()
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvitations(rows)
}

func (s *invitationStore) ExpireOld(ctx context.Context) error {
	_, err := s.db.Pool().Exec(ctx,
		`UPDATE invitations SET status = 'expired' WHERE status = 'pending' AND expires_at <= now()`)
	return err
}

func scanInvitation(row pgx.Row) (*model.Invitation, error) {
	var inv model.Invitation
	var status string
	err := row.Scan(&inv.ID, &inv.Email, &inv.Token, &status, &inv.InvitedBy,
		&inv.AcceptedBy, &inv.OrganizationID, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	inv.Status = model.InvitationStatus(status)
	return &inv, nil
}

func collectInvitations(rows pgx.Rows) ([]model.Invitation, error) {
	var invitations []model.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}
