package client_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"cerium.app/cerium/client"
)

var _ = Describe("Chat", func() {
	var (
		chat  *client.Chat
		store *fakeStore
		feed  *fakeFeed
		sess  client.Session
		ctx   context.Context
	)

	roles := func() []string {
		var out []string
		for _, e := range chat.Messages.Entries() {
			out = append(out, string(e.Message.Role))
		}
		return out
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = newFakeStore()
		feed = newFakeFeed()
		sess = client.Session{Token: "tok", UserID: 42}

		chat = client.NewChat(store, feed)
		Expect(chat.SetSession(ctx, &sess)).To(Succeed())
	})

	AfterEach(func() {
		chat.Close()
	})

	Describe("Send", func() {
		It("should fail without a session", func() {
			Expect(chat.SetSession(ctx, nil)).To(Succeed())

			Expect(chat.Send(ctx, "hello")).To(MatchError(client.ErrAuthRequired))
		})

		Context("with no conversation selected", func() {
			It("should create one with the default title and select it", func() {
				Expect(chat.Send(ctx, "hello")).To(Succeed())

				Expect(chat.Messages.Selected()).NotTo(BeNil())
				convs, err := store.ListConversations(ctx, sess)
				Expect(err).NotTo(HaveOccurred())
				Expect(convs).To(HaveLen(1))
				Expect(convs[0].Model).To(Equal(chat.Model()))
			})

			It("should persist the user and assistant turns with sequences 0 and 1", func() {
				store.completeFn = func(req client.ChatRequest) (*client.ChatResponse, error) {
					return &client.ChatResponse{Message: "hi there"}, nil
				}

				Expect(chat.Send(ctx, "hello")).To(Succeed())

				entries := chat.Messages.Entries()
				Expect(entries).To(HaveLen(2))
				Expect(entries[0].Message.Role).To(Equal(client.RoleUser))
				Expect(entries[0].Message.Sequence).To(Equal(int32(0)))
				Expect(entries[1].Message.Role).To(Equal(client.RoleAssistant))
				Expect(entries[1].Message.Sequence).To(Equal(int32(1)))
				Expect(entries[1].Message.Content).To(Equal("hi there"))
			})

			It("should rename the conversation to the first message", func() {
				Expect(chat.Send(ctx, "what shipped last week?")).To(Succeed())

				convs, err := store.ListConversations(ctx, sess)
				Expect(err).NotTo(HaveOccurred())
				Expect(convs[0].Title).To(Equal("what shipped last week?"))
			})

			It("should keep the default title when the completion fails", func() {
				store.completeFn = func(_ client.ChatRequest) (*client.ChatResponse, error) {
					return nil, errors.New("upstream down")
				}

				Expect(chat.Send(ctx, "how do I deploy?")).To(Succeed())

				convs, err := store.ListConversations(ctx, sess)
				Expect(err).NotTo(HaveOccurred())
				Expect(convs[0].Title).To(Equal(client.DefaultTitle))
				entries := chat.Messages.Entries()
				Expect(entries).To(HaveLen(1))
				Expect(entries[0].Message.Content).To(ContainSubstring("upstream down"))
			})

			It("should truncate long titles to 50 characters", func() {
				long := strings.Repeat("a", 80)

				Expect(chat.Send(ctx, long)).To(Succeed())

				convs, err := store.ListConversations(ctx, sess)
				Expect(err).NotTo(HaveOccurred())
				Expect(convs[0].Title).To(HaveLen(50))
			})
		})

		Context("with a conversation already selected", func() {
			var convID int64

			BeforeEach(func() {
				conv, err := store.CreateConversation(ctx, sess, "Standing chat", "gpt-4o")
				Expect(err).NotTo(HaveOccurred())
				convID = conv.ID
				Expect(chat.Messages.Select(ctx, &convID)).To(Succeed())
			})

			It("should reuse the selection", func() {
				Expect(chat.Send(ctx, "hello")).To(Succeed())

				convs, err := store.ListConversations(ctx, sess)
				Expect(err).NotTo(HaveOccurred())
				Expect(convs).To(HaveLen(1))
				Expect(chat.Messages.Selected()).To(HaveValue(Equal(convID)))
			})

			It("should not rename a conversation with a custom title", func() {
				Expect(chat.Send(ctx, "hello")).To(Succeed())

				convs, err := store.ListConversations(ctx, sess)
				Expect(err).NotTo(HaveOccurred())
				Expect(convs[0].Title).To(Equal("Standing chat"))
			})

			It("should send the running history to the completion endpoint", func() {
				var captured client.ChatRequest
				store.completeFn = func(req client.ChatRequest) (*client.ChatResponse, error) {
					captured = req
					return &client.ChatResponse{Message: "second answer"}, nil
				}

				Expect(chat.Send(ctx, "first question")).To(Succeed())
				Expect(chat.Send(ctx, "second question")).To(Succeed())

				Expect(captured.Messages).To(HaveLen(3))
				Expect(captured.Messages[0].Content).To(Equal("first question"))
				Expect(captured.Messages[1].Role).To(Equal("assistant"))
				Expect(captured.Messages[2].Content).To(Equal("second question"))
			})

			It("should attach retrieved documents to the assistant message", func() {
				store.completeFn = func(_ client.ChatRequest) (*client.ChatResponse, error) {
					return &client.ChatResponse{
						Message:            "grounded answer",
						RetrievedDocuments: []client.DocumentRef{{ID: 1, Content: "doc", Similarity: 0.9}},
					}, nil
				}

				Expect(chat.Send(ctx, "hello")).To(Succeed())

				entries := chat.Messages.Entries()
				assistant := entries[len(entries)-1]
				Expect(assistant.Message.Metadata).NotTo(BeNil())
				Expect(assistant.Message.Metadata.RetrievedDocuments).To(HaveLen(1))
			})

			It("should surface a completion failure as an assistant message and persist nothing else", func() {
				store.completeFn = func(_ client.ChatRequest) (*client.ChatResponse, error) {
					return nil, errors.New("no OpenAI key configured")
				}

				Expect(chat.Send(ctx, "hello")).To(Succeed())

				Expect(roles()).To(Equal([]string{"assistant"}))
				entries := chat.Messages.Entries()
				Expect(entries[0].Message.Content).To(ContainSubstring("no OpenAI key configured"))
			})
		})
	})

	Describe("SetModel", func() {
		It("should change the model for subsequent sends", func() {
			chat.SetModel("gpt-4o")

			var captured client.ChatRequest
			store.completeFn = func(req client.ChatRequest) (*client.ChatResponse, error) {
				captured = req
				return &client.ChatResponse{Message: "ok"}, nil
			}

			Expect(chat.Send(ctx, "hello")).To(Succeed())

			Expect(captured.Model).To(Equal("gpt-4o"))
		})

		It("should ignore an empty model", func() {
			chat.SetModel("")

			Expect(chat.Model()).To(Equal(client.DefaultModel))
		})
	})
})
