package handlers

import (
	"net/http"

	apperrors "expensely-backend/internal/errors"
	"expensely-backend/internal/logger"
	"expensely-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatStream upgrades a request into a live chat subscription
type ChatStream interface {
	Serve(w http.ResponseWriter, r *http.Request, groupID, email string) error
}

// ChatHandler handles HTTP requests for group chat
type ChatHandler struct {
	service service.ChatServiceInterface
	groups  service.GroupServiceInterface
	stream  ChatStream
}

// NewChatHandler creates a new chat handler. stream may be nil to disable websockets.
func NewChatHandler(service service.ChatServiceInterface, groups service.GroupServiceInterface, stream ChatStream) *ChatHandler {
	return &ChatHandler{service: service, groups: groups, stream: stream}
}

// PostMessage posts a chat message to a group
// @Summary Post a chat message
// @Description Relay a message to the group; it is pushed to every other member and not stored
// @Tags chat
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param message body service.ChatMessageRequest true "Message"
// @Success 201 {object} models.ChatMessage "Message relayed"
// @Failure 400 {object} ErrorResponse "Invalid message"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /groups/{groupId}/chat [post]
func (h *ChatHandler) PostMessage(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req service.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.ErrInvalidRequestBody)
		return
	}

	msg, err := h.service.Post(c.Request.Context(), p, c.Param("groupId"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// Stream subscribes a member to live chat messages
// @Summary Live chat
// @Description Upgrade to a websocket receiving CHAT_MESSAGE frames for the group
// @Tags chat
// @Param groupId path string true "Group ID"
// @Success 101 "Switching protocols"
// @Failure 403 {object} ErrorResponse "Caller is not a member"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Security BearerAuth
// @Router /groups/{groupId}/ws [get]
func (h *ChatHandler) Stream(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if h.stream == nil {
		respondError(c, apperrors.NewNotFoundError("chat stream"))
		return
	}

	group, err := h.groups.GetByID(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !group.HasMember(p.Email) {
		respondError(c, apperrors.ErrNotGroupMember)
		return
	}

	if err := h.stream.Serve(c.Writer, c.Request, group.ID, p.Email); err != nil {
		logger.WithContext(c.Request.Context()).WithError(err).Warn("websocket session ended with error")
	}
}
