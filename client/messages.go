package client

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MessageView is the ordered, deduplicated view of one conversation's
// messages. Confirmed rows come from the server; optimistic entries are
// synthesized locally on Add and reconciled against their confirmed echoes.
//
// Reconciliation matches primarily on the correlation id (client_ref, echoed
// by the server) and falls back to (conversation, sequence, role, content)
// for rows written by other clients of the same account.
type MessageView struct {
	store Store
	feed  Feed

	mu       sync.RWMutex
	sess     *Session
	selected *int64
	entries  []Entry

	// generation guards against stale fetches: it bumps on every Select and
	// session change, and a fetch only lands if the generation it started
	// under is still current.
	generation  uint64
	unsubscribe func()
}

func NewMessageView(store Store, feed Feed) *MessageView {
	return &MessageView{store: store, feed: feed}
}

// SetSession swaps the authenticated session and clears any selection.
func (v *MessageView) SetSession(sess *Session) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	v.sess = sess
	v.selected = nil
	v.entries = nil
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}

// Selected returns the currently selected conversation id, if any.
func (v *MessageView) Selected() *int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.selected == nil {
		return nil
	}
	id := *v.selected
	return &id
}

// Entries returns the visible rows, sorted ascending by sequence.
func (v *MessageView) Entries() []Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

// Select switches the view to a conversation. A nil id clears the cache and
// detaches. Otherwise the view fetches the full message list, merges any
// still-pending optimistic entries that lack confirmed counterparts, and
// starts live refresh. A fetch superseded by a newer Select is dropped.
func (v *MessageView) Select(ctx context.Context, conversationID *int64) error {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
	if conversationID == nil {
		v.selected = nil
		v.entries = nil
		v.mu.Unlock()
		return nil
	}
	if v.sess == nil {
		v.selected = nil
		v.entries = nil
		v.mu.Unlock()
		return ErrAuthRequired
	}
	id := *conversationID
	v.selected = &id
	sess := v.sess
	v.mu.Unlock()

	if err := v.refresh(ctx, *sess, id, gen); err != nil {
		return err
	}

	events, cancel, err := v.feed.Subscribe(ctx, *sess, "messages", ConversationFilter(id))
	if err != nil {
		return err
	}

	v.mu.Lock()
	if v.generation != gen {
		// A newer Select won; this subscription is already obsolete.
		v.mu.Unlock()
		cancel()
		return nil
	}
	v.unsubscribe = cancel
	v.mu.Unlock()

	go func() {
		for range events {
			_ = v.refresh(ctx, *sess, id, gen)
		}
	}()

	return nil
}

// Refresh refetches and re-merges the current selection.
func (v *MessageView) Refresh(ctx context.Context) error {
	v.mu.RLock()
	sess := v.sess
	selected := v.selected
	gen := v.generation
	v.mu.RUnlock()

	if sess == nil {
		return ErrAuthRequired
	}
	if selected == nil {
		return nil
	}
	return v.refresh(ctx, *sess, *selected, gen)
}

func (v *MessageView) refresh(ctx context.Context, sess Session, conversationID int64, gen uint64) error {
	messages, err := v.store.ListMessages(ctx, sess, conversationID)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.generation != gen {
		// Stale response for a superseded selection; drop it.
		return nil
	}
	v.entries = merge(messages, v.entries, conversationID)
	return nil
}

// merge combines the server's confirmed rows with local pending entries that
// have no confirmed counterpart yet, sorted ascending by sequence. Merging is
// idempotent: running it twice over the same inputs yields the same view.
func merge(confirmed []Message, previous []Entry, conversationID int64) []Entry {
	entries := make([]Entry, 0, len(confirmed)+4)
	for _, msg := range confirmed {
		entries = append(entries, Entry{
			LocalID: localIDFor(msg),
			Message: msg,
		})
	}

	for _, entry := range previous {
		if !entry.Pending || entry.Message.ConversationID != conversationID {
			continue
		}
		if hasCounterpart(confirmed, entry) {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Message.Sequence != entries[j].Message.Sequence {
			return entries[i].Message.Sequence < entries[j].Message.Sequence
		}
		// A confirmed row outranks a pending one at the same sequence.
		return !entries[i].Pending && entries[j].Pending
	})
	return entries
}

func hasCounterpart(confirmed []Message, pending Entry) bool {
	for _, msg := range confirmed {
		if msg.ClientRef != "" && msg.ClientRef == pending.LocalID {
			return true
		}
		if msg.ConversationID == pending.Message.ConversationID &&
			msg.Sequence == pending.Message.Sequence &&
			msg.Role == pending.Message.Role &&
			msg.Content == pending.Message.Content {
			return true
		}
	}
	return false
}

func localIDFor(msg Message) string {
	if msg.ClientRef != "" {
		return msg.ClientRef
	}
	return fmt.Sprintf("msg-%d", msg.ID)
}

// Add appends a message optimistically and persists it.
//
// The target conversation is the override when given, else the current
// selection; with neither, Add fails with ErrNoConversationSelected. The
// provisional sequence is the local entry count when the target is the
// selection, or a live server count when writing into another conversation.
// The optimistic entry (correlation id "pending-<uuid>") is only appended
// when the target matches the selection or nothing is selected. On insert
// failure the optimistic entry is rolled back and the error re-raised; on
// success it is replaced by the confirmed row, which is returned.
func (v *MessageView) Add(ctx context.Context, role Role, content string, model *string, metadata *MessageMetadata, overrideConversationID *int64) (*Message, error) {
	v.mu.Lock()
	sess := v.sess
	if sess == nil {
		v.mu.Unlock()
		return nil, ErrAuthRequired
	}

	var target int64
	switch {
	case overrideConversationID != nil:
		target = *overrideConversationID
	case v.selected != nil:
		target = *v.selected
	default:
		v.mu.Unlock()
		return nil, ErrNoConversationSelected
	}

	appendLocally := v.selected == nil || *v.selected == target
	needLiveCount := v.selected == nil || *v.selected != target

	var provisional int32
	if !needLiveCount {
		provisional = int32(len(v.entries))
	}
	v.mu.Unlock()

	if needLiveCount {
		count, err := v.store.CountMessages(ctx, *sess, target)
		if err != nil {
			return nil, fmt.Errorf("counting messages: %w", err)
		}
		provisional = int32(count)
	}

	localID := "pending-" + uuid.NewString()
	optimistic := Entry{
		LocalID: localID,
		Pending: true,
		Message: Message{
			ConversationID: target,
			Role:           role,
			Content:        content,
			Model:          model,
			Metadata:       metadata,
			ClientRef:      localID,
			Sequence:       provisional,
		},
	}

	if appendLocally {
		v.mu.Lock()
		v.entries = append(v.entries, optimistic)
		v.mu.Unlock()
	}

	confirmed, err := v.store.CreateMessage(ctx, *sess, NewMessage{
		ConversationID: target,
		Role:           role,
		Content:        content,
		Model:          model,
		Metadata:       metadata,
		ClientRef:      localID,
	})
	if err != nil {
		if appendLocally {
			v.removeEntry(localID)
		}
		return nil, err
	}

	if appendLocally {
		v.replaceEntry(localID, *confirmed)
	}
	return confirmed, nil
}

func (v *MessageView) removeEntry(localID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.entries {
		if v.entries[i].LocalID == localID {
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			return
		}
	}
}

func (v *MessageView) replaceEntry(localID string, confirmed Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.entries {
		if v.entries[i].LocalID == localID {
			v.entries[i] = Entry{LocalID: localID, Message: confirmed}
			sort.SliceStable(v.entries, func(a, b int) bool {
				return v.entries[a].Message.Sequence < v.entries[b].Message.Sequence
			})
			return
		}
	}
	// The entry was reconciled away by a concurrent refresh; nothing to do.
}

// Close detaches from the feed.
func (v *MessageView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}
