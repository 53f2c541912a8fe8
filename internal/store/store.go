package store

import (
	"context"

	"cerium.app/cerium/core/db"
	"cerium.app/cerium/internal/changefeed"
)

// Stores provides typed data access over the database. Mutations on
// conversations and messages additionally publish change events so client
// caches refresh.
type Stores struct {
	db      *db.DB
	changes changefeed.Publisher
}

func NewStores(database *db.DB, changes changefeed.Publisher) *Stores {
	if changes == nil {
		changes = nopPublisher{}
	}
	return &Stores{db: database, changes: changes}
}

func (s *Stores) Users() UserStore {
	return &userStore{db: s.db}
}

func (s *Stores) Sessions() SessionStore {
	return &sessionStore{db: s.db}
}

func (s *Stores) Organizations() OrganizationStore {
	return &organizationStore{db: s.db}
}

func (s *Stores) Invitations() InvitationStore {
	return &invitationStore{db: s.db}
}

func (s *Stores) Profiles() ProfileStore {
	return &profileStore{db: s.db}
}

func (s *Stores) Conversations() ConversationStore {
	return &conversationStore{db: s.db, changes: s.changes}
}

func (s *Stores) Messages() MessageStore {
	return &messageStore{db: s.db, changes: s.changes}
}

type nopPublisher struct{}

func (nopPublisher) Publish(_ context.Context, _ changefeed.Event) {}
