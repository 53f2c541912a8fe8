package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"cerium.app/cerium/internal/http/handler"
	"cerium.app/cerium/internal/http/middleware"
	"cerium.app/cerium/internal/model"
	"cerium.app/cerium/internal/service"
	"cerium.app/cerium/internal/store"
)

var _ = Describe("ConversationHandler", func() {
	var (
		router *gin.Engine
		svc    *mockConversationService
		auth   *mockAuthService
	)

	authedRequest := func(method, path string, body []byte) *httptest.ResponseRecorder {
		var reader *bytes.Buffer
		if body != nil {
			reader = bytes.NewBuffer(body)
		} else {
			reader = bytes.NewBuffer(nil)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer 555")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		svc = &mockConversationService{}
		auth = &mockAuthService{
			validateSessionFn: func(_ context.Context, sessionID int64) (*model.User, error) {
				Expect(sessionID).To(Equal(int64(555)))
				return &model.User{ID: 42, Email: "ada@example.com"}, nil
			},
		}

		h := handler.NewConversationHandler(svc)
		router = gin.New()
		authed := router.Group("", middleware.RequireAuth(auth))
		authed.GET("/conversations", h.List)
		authed.POST("/conversations", h.Create)
		authed.PATCH("/conversations/:id", h.Update)
		authed.DELETE("/conversations/:id", h.Delete)
		authed.GET("/conversations/:id/messages", h.ListMessages)
		authed.POST("/conversations/:id/messages", h.CreateMessage)
	})

	It("returns 401 without credentials", func() {
		req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	Describe("List", func() {
		It("returns the authenticated user's conversations", func() {
			svc.listFn = func(_ context.Context, userID int64) ([]model.Conversation, error) {
				Expect(userID).To(Equal(int64(42)))
				return []model.Conversation{{ID: 7, UserID: userID, Title: "Planning"}}, nil
			}

			w := authedRequest(http.MethodGet, "/conversations", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp struct {
				Conversations []map[string]any `json:"conversations"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Conversations).To(HaveLen(1))
			Expect(resp.Conversations[0]["id"]).To(Equal("7"))
			Expect(resp.Conversations[0]["title"]).To(Equal("Planning"))
		})
	})

	Describe("Create", func() {
		It("returns 201 with the created conversation", func() {
			svc.createFn = func(_ context.Context, userID int64, title, chatModel string) (*model.Conversation, error) {
				return &model.Conversation{ID: 8, UserID: userID, Title: title, Model: chatModel}, nil
			}

			body, _ := json.Marshal(map[string]string{"title": "New Conversation", "model": "gpt-4o-mini"})
			w := authedRequest(http.MethodPost, "/conversations", body)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("8"))
			Expect(resp["title"]).To(Equal("New Conversation"))
		})

		It("returns 400 on a malformed body", func() {
			w := authedRequest(http.MethodPost, "/conversations", []byte(`{`))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Update", func() {
		It("returns 403 when the conversation belongs to another user", func() {
			svc.updateFn = func(_ context.Context, _, _ int64, _ store.ConversationUpdate) (*model.Conversation, error) {
				return nil, service.ErrNotConversationOwner
			}

			body, _ := json.Marshal(map[string]string{"title": "Renamed"})
			w := authedRequest(http.MethodPatch, "/conversations/7", body)

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("returns 400 on a non-numeric id", func() {
			body, _ := json.Marshal(map[string]string{"title": "Renamed"})
			w := authedRequest(http.MethodPatch, "/conversations/abc", body)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Delete", func() {
		It("returns 404 when the conversation does not exist", func() {
			svc.deleteFn = func(_ context.Context, _, _ int64) error {
				return service.ErrConversationNotFound
			}

			w := authedRequest(http.MethodDelete, "/conversations/7", nil)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("ListMessages", func() {
		It("returns messages ordered as the service provides them", func() {
			svc.messagesFn = func(_ context.Context, userID, conversationID int64) ([]model.Message, error) {
				Expect(userID).To(Equal(int64(42)))
				Expect(conversationID).To(Equal(int64(7)))
				return []model.Message{
					{ID: 1, ConversationID: 7, Role: model.MessageRoleUser, Content: "hello", Sequence: 0},
					{ID: 2, ConversationID: 7, Role: model.MessageRoleAssistant, Content: "hi", Sequence: 1},
				}, nil
			}

			w := authedRequest(http.MethodGet, "/conversations/7/messages", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp struct {
				Messages []map[string]any `json:"messages"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Messages).To(HaveLen(2))
			Expect(resp.Messages[0]["sequence"]).To(Equal(float64(0)))
			Expect(resp.Messages[1]["role"]).To(Equal("assistant"))
		})
	})

	Describe("CreateMessage", func() {
		It("returns 201 and echoes the client_ref", func() {
			svc.appendMessageFn = func(_ context.Context, userID int64, msg *model.Message) (*model.Message, error) {
				Expect(userID).To(Equal(int64(42)))
				Expect(msg.ConversationID).To(Equal(int64(7)))
				Expect(msg.Role).To(Equal(model.MessageRoleUser))
				inserted := *msg
				inserted.ID = 99
				inserted.Sequence = 3
				return &inserted, nil
			}

			body, _ := json.Marshal(map[string]any{
				"role":       "user",
				"content":    "what shipped last week?",
				"client_ref": "pending-abc123",
			})
			w := authedRequest(http.MethodPost, "/conversations/7/messages", body)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("99"))
			Expect(resp["client_ref"]).To(Equal("pending-abc123"))
			Expect(resp["sequence"]).To(Equal(float64(3)))
		})

		It("rejects an unknown role", func() {
			body, _ := json.Marshal(map[string]string{"role": "narrator", "content": "hi"})
			w := authedRequest(http.MethodPost, "/conversations/7/messages", body)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 when the insert races a conversation delete", func() {
			svc.appendMessageFn = func(_ context.Context, _ int64, _ *model.Message) (*model.Message, error) {
				return nil, service.ErrConversationNotFound
			}

			body, _ := json.Marshal(map[string]string{"role": "user", "content": "hi"})
			w := authedRequest(http.MethodPost, "/conversations/7/messages", body)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
