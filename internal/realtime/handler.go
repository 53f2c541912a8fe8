package realtime

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cerium.app/cerium/internal/changefeed"
	"cerium.app/cerium/internal/http/middleware"
	"cerium.app/cerium/internal/store"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// subscribeFrame is what clients send to manage their subscriptions.
type subscribeFrame struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	Table  string `json:"table"`
	Filter string `json:"filter"`
}

type eventFrame struct {
	Type  string           `json:"type"`
	Event changefeed.Event `json:"event"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Handler upgrades authenticated requests to websocket connections on the hub.
type Handler struct {
	hub       *Hub
	convStore store.ConversationStore
}

func NewHandler(hub *Hub, convStore store.ConversationStore) *Handler {
	return &Handler{hub: hub, convStore: convStore}
}

func (h *Handler) Serve(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(ctx, "websocket upgrade failed", "error", err)
		return
	}

	client := h.hub.NewClient(user.ID)
	h.hub.Register(client)

	go h.writePump(conn, client)
	h.readPump(c, conn, client)
}

func (h *Handler) readPump(c *gin.Context, conn *websocket.Conn, client *Client) {
	ctx := c.Request.Context()

	defer func() {
		h.hub.Unregister(client)
		_ = conn.Close()
	}()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame subscribeFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.DebugContext(ctx, "websocket read error", "error", err)
			}
			return
		}

		switch frame.Action {
		case "subscribe":
			if err := h.authorize(c, client.UserID(), frame.Table, frame.Filter); err != nil {
				writeJSON(conn, errorFrame{Type: "error", Error: err.Error()})
				continue
			}
			client.Subscribe(frame.Table, frame.Filter)
		case "unsubscribe":
			client.Unsubscribe(frame.Table, frame.Filter)
		default:
			writeJSON(conn, errorFrame{Type: "error", Error: fmt.Sprintf("unknown action %q", frame.Action)})
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case ev, ok := <-client.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(eventFrame{Type: "change", Event: ev}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// authorize allows a user to watch only their own rows: their conversation
// list, and messages of conversations they own.
func (h *Handler) authorize(c *gin.Context, userID int64, table, filter string) error {
	switch table {
	case "conversations":
		if filter != changefeed.UserFilter(userID) {
			return errors.New("cannot subscribe to another user's conversations")
		}
		return nil
	case "messages":
		convID, ok := parseFilterID(filter, "conversation_id=")
		if !ok {
			return errors.New("invalid messages filter")
		}
		conv, err := h.convStore.GetByID(c.Request.Context(), convID)
		if err != nil {
			return errors.New("conversation not found")
		}
		if conv.UserID != userID {
			return errors.New("cannot subscribe to another user's conversation")
		}
		return nil
	default:
		return fmt.Errorf("unknown table %q", table)
	}
}

func parseFilterID(filter, prefix string) (int64, bool) {
	raw, ok := strings.CutPrefix(filter, prefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func writeJSON(conn *websocket.Conn, v any) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(v)
}
