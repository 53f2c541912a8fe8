package client_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cerium.app/cerium/client"
)

// fakeStore is an in-memory Store with server semantics: it assigns ids and
// sequences, echoes client_ref, and bumps conversation updated_at on insert.
type fakeStore struct {
	mu            sync.Mutex
	conversations []client.Conversation
	messages      map[int64][]client.Message
	nextID        int64

	createMessageErr    error
	beforeCreateMessage func()
	completeFn          func(req client.ChatRequest) (*client.ChatResponse, error)

	updateCalls []client.ConversationUpdate
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages: make(map[int64][]client.Message),
		nextID:   1000,
	}
}

func (s *fakeStore) newID() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) ListConversations(_ context.Context, sess client.Session) ([]client.Conversation, error) {
	if sess.Token == "" {
		return nil, client.ErrAuthRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]client.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out, nil
}

func (s *fakeStore) CreateConversation(_ context.Context, sess client.Session, title, model string) (*client.Conversation, error) {
	if sess.Token == "" {
		return nil, client.ErrAuthRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := client.Conversation{
		ID:        s.newID(),
		UserID:    sess.UserID,
		Title:     title,
		Model:     model,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.conversations = append(s.conversations, conv)
	return &conv, nil
}

func (s *fakeStore) UpdateConversation(_ context.Context, sess client.Session, id int64, fields client.ConversationUpdate) (*client.Conversation, error) {
	if sess.Token == "" {
		return nil, client.ErrAuthRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls = append(s.updateCalls, fields)
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			if fields.Title != nil {
				s.conversations[i].Title = *fields.Title
			}
			if fields.Model != nil {
				s.conversations[i].Model = *fields.Model
			}
			conv := s.conversations[i]
			return &conv, nil
		}
	}
	return nil, fmt.Errorf("conversation %d not found", id)
}

func (s *fakeStore) DeleteConversation(_ context.Context, sess client.Session, id int64) error {
	if sess.Token == "" {
		return client.ErrAuthRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
			break
		}
	}
	delete(s.messages, id)
	return nil
}

func (s *fakeStore) DeleteAllConversations(_ context.Context, sess client.Session) error {
	if sess.Token == "" {
		return client.ErrAuthRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = nil
	s.messages = make(map[int64][]client.Message)
	return nil
}

func (s *fakeStore) ListMessages(_ context.Context, sess client.Session, conversationID int64) ([]client.Message, error) {
	if sess.Token == "" {
		return nil, client.ErrAuthRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]client.Message, len(s.messages[conversationID]))
	copy(out, s.messages[conversationID])
	return out, nil
}

func (s *fakeStore) CountMessages(_ context.Context, sess client.Session, conversationID int64) (int64, error) {
	if sess.Token == "" {
		return 0, client.ErrAuthRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.messages[conversationID])), nil
}

func (s *fakeStore) CreateMessage(_ context.Context, sess client.Session, msg client.NewMessage) (*client.Message, error) {
	if sess.Token == "" {
		return nil, client.ErrAuthRequired
	}
	if s.beforeCreateMessage != nil {
		s.beforeCreateMessage()
	}
	if s.createMessageErr != nil {
		return nil, s.createMessageErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := client.Message{
		ID:             s.newID(),
		ConversationID: msg.ConversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		Model:          msg.Model,
		Metadata:       msg.Metadata,
		ClientRef:      msg.ClientRef,
		Sequence:       int32(len(s.messages[msg.ConversationID])),
		CreatedAt:      time.Now(),
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], saved)
	return &saved, nil
}

func (s *fakeStore) Complete(_ context.Context, sess client.Session, req client.ChatRequest) (*client.ChatResponse, error) {
	if sess.Token == "" {
		return nil, client.ErrAuthRequired
	}
	if s.completeFn != nil {
		return s.completeFn(req)
	}
	return &client.ChatResponse{Message: "ok"}, nil
}

// fakeFeed hands out channels the test pushes events into directly.
type fakeFeed struct {
	mu   sync.Mutex
	subs []*fakeSub
}

type fakeSub struct {
	table  string
	filter string
	ch     chan client.Event
	done   chan struct{}
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{}
}

func (f *fakeFeed) Subscribe(_ context.Context, sess client.Session, table, filter string) (<-chan client.Event, func(), error) {
	if sess.Token == "" {
		return nil, nil, client.ErrAuthRequired
	}
	sub := &fakeSub{table: table, filter: filter, ch: make(chan client.Event, 16), done: make(chan struct{})}
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()

	cancel := func() {
		select {
		case <-sub.done:
		default:
			close(sub.done)
			close(sub.ch)
		}
	}
	return sub.ch, cancel, nil
}

func (f *fakeFeed) publish(ev client.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		select {
		case <-sub.done:
			continue
		default:
		}
		if sub.table != "" && sub.table != ev.Table {
			continue
		}
		if sub.filter != "" && sub.filter != ev.Filter {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

func (f *fakeFeed) activeSubs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, sub := range f.subs {
		select {
		case <-sub.done:
		default:
			count++
		}
	}
	return count
}
