package client_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"cerium.app/cerium/client"
)

var _ = Describe("ConversationView", func() {
	var (
		view  *client.ConversationView
		store *fakeStore
		feed  *fakeFeed
		sess  client.Session
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newFakeStore()
		feed = newFakeFeed()
		sess = client.Session{Token: "tok", UserID: 42}

		view = client.NewConversationView(store, feed)
	})

	AfterEach(func() {
		view.Close()
	})

	Describe("SetSession", func() {
		It("should fetch the list and subscribe", func() {
			_, err := store.CreateConversation(ctx, sess, "Planning", "gpt-4o")
			Expect(err).NotTo(HaveOccurred())

			Expect(view.SetSession(ctx, &sess)).To(Succeed())

			Expect(view.List()).To(HaveLen(1))
			Expect(feed.activeSubs()).To(Equal(1))
		})

		It("should clear everything on logout", func() {
			_, err := store.CreateConversation(ctx, sess, "Planning", "gpt-4o")
			Expect(err).NotTo(HaveOccurred())
			Expect(view.SetSession(ctx, &sess)).To(Succeed())

			Expect(view.SetSession(ctx, nil)).To(Succeed())

			Expect(view.List()).To(BeEmpty())
			Expect(feed.activeSubs()).To(BeZero())
		})
	})

	Describe("Create", func() {
		It("should not insert locally; the list converges via the feed", func() {
			Expect(view.SetSession(ctx, &sess)).To(Succeed())

			conv, err := view.Create(ctx, client.DefaultTitle, "gpt-4o")

			Expect(err).NotTo(HaveOccurred())
			Expect(conv.ID).NotTo(BeZero())
			Expect(view.List()).To(BeEmpty())

			feed.publish(client.Event{Table: "conversations", Op: "insert", Filter: client.UserFilter(sess.UserID)})

			Eventually(view.List).Should(HaveLen(1))
		})

		It("should fail without a session", func() {
			_, err := view.Create(ctx, client.DefaultTitle, "gpt-4o")

			Expect(err).To(MatchError(client.ErrAuthRequired))
		})
	})

	Describe("Get", func() {
		It("should find a cached conversation by id", func() {
			conv, err := store.CreateConversation(ctx, sess, "Planning", "gpt-4o")
			Expect(err).NotTo(HaveOccurred())
			Expect(view.SetSession(ctx, &sess)).To(Succeed())

			found, ok := view.Get(conv.ID)

			Expect(ok).To(BeTrue())
			Expect(found.Title).To(Equal("Planning"))

			_, ok = view.Get(999)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("DeleteAll", func() {
		It("should remove every conversation for the user", func() {
			_, err := store.CreateConversation(ctx, sess, "A", "gpt-4o")
			Expect(err).NotTo(HaveOccurred())
			_, err = store.CreateConversation(ctx, sess, "B", "gpt-4o")
			Expect(err).NotTo(HaveOccurred())
			Expect(view.SetSession(ctx, &sess)).To(Succeed())

			Expect(view.DeleteAll(ctx)).To(Succeed())
			Expect(view.Refresh(ctx)).To(Succeed())

			Expect(view.List()).To(BeEmpty())
		})
	})
})
