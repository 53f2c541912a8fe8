package store

import (
	"context"
	"errors"

	"cerium.app/cerium/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpsertByWorkOSID(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
}

// SessionStore defines the contract for session data access
type SessionStore interface {
	GetValid(ctx context.Context, id int64) (*model.Session, error) // checks expiry
	Create(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context) error
}

// OrganizationStore defines the contract for organization data access
type OrganizationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*model.Organization, error)
	Create(ctx context.Context, org *model.Organization) error
	Update(ctx context.Context, org *model.Organization) error
	Delete(ctx context.Context, id int64) error // soft delete
	ListByAdminUser(ctx context.Context, userID int64) ([]model.Organization, error)
}

// InvitationStore defines the contract for invitation data access
type InvitationStore interface {
	Create(ctx context.Context, inv *model.Invitation) error
	GetByToken(ctx context.Context, token string) (*model.Invitation, error)
	GetValidByToken(ctx context.Context, token string) (*model.Invitation, error)
	GetByEmail(ctx context.Context, email string) (*model.Invitation, error)
	Accept(ctx context.Context, id int64, userID int64) (*model.Invitation, error)
	Revoke(ctx context.Context, id int64) (*model.Invitation, error)
	List(ctx context.Context, limit, offset int32) ([]model.Invitation, error)
	ListPending(ctx context.Context) ([]model.Invitation, error)
	ExpireOld(ctx context.Context) error
}

// ProfileStore defines the contract for per-user credential data access
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Profile, error)
	Upsert(ctx context.Context, profile *model.Profile) error
}

// ConversationStore defines the contract for conversation data access
type ConversationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Conversation, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Conversation, error) // updated_at desc
	Create(ctx context.Context, conv *model.Conversation) error
	Update(ctx context.Context, id int64, fields ConversationUpdate) (*model.Conversation, error)
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}

// ConversationUpdate is a partial update; nil fields are left untouched.
type ConversationUpdate struct {
	Title *string
	Model *string
}

// MessageStore defines the contract for message data access.
// Insert assigns the sequence number transactionally: the conversation row is
// locked, the next sequence is the current message count, and the parent's
// updated_at is bumped in the same transaction.
type MessageStore interface {
	ListByConversation(ctx context.Context, conversationID int64) ([]model.Message, error) // sequence asc
	Count(ctx context.Context, conversationID int64) (int64, error)
	Insert(ctx context.Context, msg *model.Message) error
}
