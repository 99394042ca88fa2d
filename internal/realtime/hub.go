package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"expensely-backend/internal/database/models"
	"expensely-backend/internal/logger"

	"github.com/olahol/melody"
)

const (
	groupKey = "group_id"
	emailKey = "email"
)

// Frame is the envelope pushed to websocket clients.
type Frame struct {
	Type    string             `json:"type"`
	Message models.ChatMessage `json:"message"`
}

// Hub relays chat messages to websocket clients that are viewing a group.
// It complements push notifications and is best-effort.
type Hub struct {
	m *melody.Melody
}

// NewHub creates a hub with keep-alive suited to hosted deployments
func NewHub() *Hub {
	m := melody.New()
	m.Config.MaxMessageSize = 64 * 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		groupID, _ := s.Get(groupKey)
		email, _ := s.Get(emailKey)
		logger.New().WithFields(map[string]interface{}{
			"group_id": groupID,
			"user":     email,
		}).Debug("websocket client connected")
	})
	m.HandleDisconnect(func(s *melody.Session) {
		groupID, _ := s.Get(groupKey)
		logger.New().WithField("group_id", groupID).Debug("websocket client disconnected")
	})
	m.HandleError(func(s *melody.Session, err error) {
		logger.New().WithError(err).Warn("websocket error")
	})

	return &Hub{m: m}
}

// Serve upgrades the request and subscribes the connection to groupID.
// It blocks until the connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, groupID, email string) error {
	return h.m.HandleRequestWithKeys(w, r, map[string]any{
		groupKey: groupID,
		emailKey: email,
	})
}

// BroadcastChat sends msg to every session of its group except the sender's.
func (h *Hub) BroadcastChat(msg models.ChatMessage) error {
	payload, err := json.Marshal(Frame{Type: "CHAT_MESSAGE", Message: msg})
	if err != nil {
		return err
	}
	return h.m.BroadcastFilter(payload, func(s *melody.Session) bool {
		groupID, ok := s.Get(groupKey)
		if !ok || groupID != msg.GroupID {
			return false
		}
		email, _ := s.Get(emailKey)
		return email != msg.SenderEmail
	})
}

// Len returns the number of open sessions
func (h *Hub) Len() int {
	return h.m.Len()
}

// Close disconnects every session
func (h *Hub) Close() error {
	if h.m.IsClosed() {
		return nil
	}
	return h.m.Close()
}
