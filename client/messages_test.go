package client_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"cerium.app/cerium/client"
)

var _ = Describe("MessageView", func() {
	var (
		view  *client.MessageView
		store *fakeStore
		feed  *fakeFeed
		sess  client.Session
		ctx   context.Context
	)

	seed := func(conversationID int64, contents ...string) {
		for _, content := range contents {
			_, err := store.CreateMessage(ctx, sess, client.NewMessage{
				ConversationID: conversationID,
				Role:           client.RoleUser,
				Content:        content,
			})
			Expect(err).NotTo(HaveOccurred())
		}
	}

	contents := func() []string {
		var out []string
		for _, e := range view.Entries() {
			out = append(out, e.Message.Content)
		}
		return out
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = newFakeStore()
		feed = newFakeFeed()
		sess = client.Session{Token: "tok", UserID: 42}

		view = client.NewMessageView(store, feed)
		view.SetSession(&sess)
	})

	AfterEach(func() {
		view.Close()
	})

	Describe("Select", func() {
		It("should fetch messages ordered by sequence", func() {
			seed(1, "first", "second", "third")

			id := int64(1)
			Expect(view.Select(ctx, &id)).To(Succeed())

			Expect(contents()).To(Equal([]string{"first", "second", "third"}))
			for i, entry := range view.Entries() {
				Expect(entry.Message.Sequence).To(Equal(int32(i)))
				Expect(entry.Pending).To(BeFalse())
			}
		})

		It("should clear the cache on a nil selection", func() {
			seed(1, "first")
			id := int64(1)
			Expect(view.Select(ctx, &id)).To(Succeed())
			Expect(view.Entries()).To(HaveLen(1))

			Expect(view.Select(ctx, nil)).To(Succeed())

			Expect(view.Entries()).To(BeEmpty())
			Expect(view.Selected()).To(BeNil())
		})

		It("should subscribe to the conversation's message events", func() {
			id := int64(1)
			Expect(view.Select(ctx, &id)).To(Succeed())
			Expect(feed.activeSubs()).To(Equal(1))

			Expect(view.Select(ctx, nil)).To(Succeed())
			Expect(feed.activeSubs()).To(BeZero())
		})

		It("should refresh when a change event arrives", func() {
			seed(1, "first")
			id := int64(1)
			Expect(view.Select(ctx, &id)).To(Succeed())

			seed(1, "second")
			feed.publish(client.Event{Table: "messages", Op: "insert", Filter: client.ConversationFilter(1)})

			Eventually(contents).Should(Equal([]string{"first", "second"}))
		})

		It("should fail without a session and leave nothing selected", func() {
			view.SetSession(nil)

			id := int64(1)
			Expect(view.Select(ctx, &id)).To(MatchError(client.ErrAuthRequired))

			Expect(view.Selected()).To(BeNil())
			Expect(view.Entries()).To(BeEmpty())
		})
	})

	Describe("Refresh", func() {
		It("should be idempotent", func() {
			seed(1, "first", "second")
			id := int64(1)
			Expect(view.Select(ctx, &id)).To(Succeed())

			before := view.Entries()
			Expect(view.Refresh(ctx)).To(Succeed())
			Expect(view.Refresh(ctx)).To(Succeed())

			Expect(view.Entries()).To(Equal(before))
		})
	})

	Describe("Add", func() {
		It("should fail when nothing is selected and no override is given", func() {
			_, err := view.Add(ctx, client.RoleUser, "hello", nil, nil, nil)

			Expect(err).To(MatchError(client.ErrNoConversationSelected))
		})

		It("should fail without a session", func() {
			view.SetSession(nil)
			id := int64(1)

			_, err := view.Add(ctx, client.RoleUser, "hello", nil, nil, &id)

			Expect(err).To(MatchError(client.ErrAuthRequired))
		})

		It("should show a pending entry while the insert is in flight", func() {
			id := int64(1)
			Expect(view.Select(ctx, &id)).To(Succeed())

			var inFlight []client.Entry
			store.beforeCreateMessage = func() {
				inFlight = view.Entries()
			}

			_, err := view.Add(ctx, client.RoleUser, "hello", nil, nil, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(inFlight).To(HaveLen(1))
			Expect(inFlight[0].Pending).To(BeTrue())
			Expect(inFlight[0].LocalID).To(HavePrefix("pending-"))
			Expect(inFlight[0].Message.ClientRef).To(Equal(inFlight[0].LocalID))
			Expect(inFlight[0].Message.Sequence).To(Equal(int32(0)))
		})

		It("should replace the pending entry with the confirmed row", func() {
			id := int64(1)
			Expect(view.Select(ctx, &id)).To(Succeed())

			msg, err := view.Add(ctx, client.RoleUser, "hello", nil, nil, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(msg.ID).NotTo(BeZero())
			Expect(msg.Sequence).To(Equal(int32(0)))

			entries := view.Entries()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Pending).To(BeFalse())
			Expect(entries[0].Message.ID).To(Equal(msg.ID))
		})

		It("should roll back the optimistic entry when the insert fails", func() {
			seed(1, "existing")
			id := int64(1)
			Expect(view.Select(ctx, &id)).To(Succeed())

			store.createMessageErr = errors.New("insert failed")

			_, err := view.Add(ctx, client.RoleUser, "doomed", nil, nil, nil)

			Expect(err).To(MatchError(ContainSubstring("insert failed")))
			Expect(contents()).To(Equal([]string{"existing"}))
		})

		It("should not duplicate a confirmed row after a feed refresh", func() {
			id := int64(1)
			Expect(view.Select(ctx, &id)).To(Succeed())

			msg, err := view.Add(ctx, client.RoleUser, "hello", nil, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			feed.publish(client.Event{Table: "messages", Op: "insert", Filter: client.ConversationFilter(1)})

			Eventually(view.Entries).Should(HaveLen(1))
			Consistently(view.Entries).Should(HaveLen(1))
			Expect(view.Entries()[0].Message.ID).To(Equal(msg.ID))
		})

		It("should keep a still-pending entry across a refresh", func() {
			id := int64(1)
			Expect(view.Select(ctx, &id)).To(Succeed())

			// A refresh lands while the insert is still in flight: the server
			// list has no counterpart yet, so the pending entry survives.
			store.beforeCreateMessage = func() {
				store.beforeCreateMessage = nil
				Expect(view.Refresh(ctx)).To(Succeed())
			}

			_, err := view.Add(ctx, client.RoleUser, "hello", nil, nil, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(view.Entries()).To(HaveLen(1))
			Expect(view.Entries()[0].Pending).To(BeFalse())
		})

		Context("with an override conversation", func() {
			It("should not touch the current view", func() {
				seed(1, "here")
				id := int64(1)
				Expect(view.Select(ctx, &id)).To(Succeed())

				other := int64(2)
				msg, err := view.Add(ctx, client.RoleAssistant, "elsewhere", nil, nil, &other)

				Expect(err).NotTo(HaveOccurred())
				Expect(msg.ConversationID).To(Equal(other))
				Expect(contents()).To(Equal([]string{"here"}))
			})

			It("should append locally when the override equals the selection", func() {
				id := int64(1)
				Expect(view.Select(ctx, &id)).To(Succeed())

				_, err := view.Add(ctx, client.RoleUser, "hello", nil, nil, &id)

				Expect(err).NotTo(HaveOccurred())
				Expect(view.Entries()).To(HaveLen(1))
			})
		})

		It("should carry metadata through to the confirmed row", func() {
			id := int64(1)
			Expect(view.Select(ctx, &id)).To(Succeed())

			meta := &client.MessageMetadata{
				RetrievedDocuments: []client.DocumentRef{{ID: 9, Content: "doc", Similarity: 0.8}},
			}
			msg, err := view.Add(ctx, client.RoleAssistant, "grounded", nil, meta, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(msg.Metadata).NotTo(BeNil())
			Expect(msg.Metadata.RetrievedDocuments).To(HaveLen(1))
		})
	})

	Describe("sequence assignment", func() {
		It("should get consecutive server sequences for consecutive adds", func() {
			id := int64(1)
			Expect(view.Select(ctx, &id)).To(Succeed())

			first, err := view.Add(ctx, client.RoleUser, "one", nil, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			second, err := view.Add(ctx, client.RoleAssistant, "two", nil, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(first.Sequence).To(Equal(int32(0)))
			Expect(second.Sequence).To(Equal(int32(1)))
			Expect(strings.Join(contents(), ",")).To(Equal("one,two"))
		})
	})
})
