package client

import (
	"context"
	"sync"
)

// ConversationView is a live, ordered cache of the session user's
// conversations. It refreshes wholesale whenever the change feed reports any
// conversation event for the user.
//
// Creation deliberately does not insert locally: the new conversation becomes
// visible when its change notification round-trips, so every replica of the
// list converges the same way.
type ConversationView struct {
	store Store
	feed  Feed

	mu            sync.RWMutex
	sess          *Session
	conversations []Conversation

	unsubscribe func()
}

func NewConversationView(store Store, feed Feed) *ConversationView {
	return &ConversationView{store: store, feed: feed}
}

// SetSession swaps the authenticated session. A nil session clears the list
// and detaches from the feed; a non-nil one fetches and starts live refresh.
func (v *ConversationView) SetSession(ctx context.Context, sess *Session) error {
	v.mu.Lock()
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
	v.sess = sess
	if sess == nil {
		v.conversations = nil
		v.mu.Unlock()
		return nil
	}
	v.mu.Unlock()

	if err := v.Refresh(ctx); err != nil {
		return err
	}

	events, cancel, err := v.feed.Subscribe(ctx, *sess, "conversations", UserFilter(sess.UserID))
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.unsubscribe = cancel
	v.mu.Unlock()

	go func() {
		for range events {
			// Events are refetch signals; the payload is ignored.
			_ = v.Refresh(ctx)
		}
	}()

	return nil
}

// Close detaches from the feed.
func (v *ConversationView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}

// List returns the cached conversations, most recently updated first. With no
// session it is empty.
func (v *ConversationView) List() []Conversation {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Conversation, len(v.conversations))
	copy(out, v.conversations)
	return out
}

// Get returns the cached conversation with the given id, if present.
func (v *ConversationView) Get(id int64) (*Conversation, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for i := range v.conversations {
		if v.conversations[i].ID == id {
			conv := v.conversations[i]
			return &conv, true
		}
	}
	return nil, false
}

// Refresh refetches the full list from the server.
func (v *ConversationView) Refresh(ctx context.Context) error {
	sess, err := v.session()
	if err != nil {
		return err
	}

	conversations, err := v.store.ListConversations(ctx, sess)
	if err != nil {
		return err
	}

	v.mu.Lock()
	// The session may have been cleared while the fetch was in flight.
	if v.sess != nil && v.sess.UserID == sess.UserID {
		v.conversations = conversations
	}
	v.mu.Unlock()
	return nil
}

// Create makes a conversation on the server. The local list is untouched;
// the conversation appears via the change feed.
func (v *ConversationView) Create(ctx context.Context, title, model string) (*Conversation, error) {
	sess, err := v.session()
	if err != nil {
		return nil, err
	}
	return v.store.CreateConversation(ctx, sess, title, model)
}

func (v *ConversationView) Update(ctx context.Context, id int64, fields ConversationUpdate) (*Conversation, error) {
	sess, err := v.session()
	if err != nil {
		return nil, err
	}
	return v.store.UpdateConversation(ctx, sess, id, fields)
}

func (v *ConversationView) Delete(ctx context.Context, id int64) error {
	sess, err := v.session()
	if err != nil {
		return err
	}
	return v.store.DeleteConversation(ctx, sess, id)
}

func (v *ConversationView) DeleteAll(ctx context.Context) error {
	sess, err := v.session()
	if err != nil {
		return err
	}
	return v.store.DeleteAllConversations(ctx, sess)
}

func (v *ConversationView) session() (Session, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.sess == nil {
		return Session{}, ErrAuthRequired
	}
	return *v.sess, nil
}
