package service

import (
	"context"
	"strings"
	"time"

	"expensely-backend/internal/auth"
	"expensely-backend/internal/database/models"
	"expensely-backend/internal/logger"
	"expensely-backend/internal/notification"

	"github.com/go-playground/validator/v10"
)

// ChatService relays group chat messages. Messages are not stored.
type ChatService struct {
	groups      GroupServiceInterface
	notifier    Notifier
	broadcaster ChatBroadcaster
	validator   *validator.Validate
	now         func() time.Time
}

// NewChatService creates a new chat service. broadcaster may be nil.
func NewChatService(groups GroupServiceInterface, notifier Notifier, broadcaster ChatBroadcaster, validator *validator.Validate) *ChatService {
	return &ChatService{
		groups:      groups,
		notifier:    notifier,
		broadcaster: broadcaster,
		validator:   validator,
		now:         time.Now,
	}
}

// ChatMessageRequest represents a posted chat message
type ChatMessageRequest struct {
	Message string `json:"message" validate:"required,max=2000" example:"Who booked the taxi?"`
}

// Post relays the message to live clients and pushes it to every other member
func (s *ChatService) Post(ctx context.Context, principal *auth.Principal, groupID string, req *ChatMessageRequest) (*models.ChatMessage, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		ID:          models.NewID(),
		GroupID:     group.ID,
		Message:     req.Message,
		SenderEmail: models.NormalizeEmail(principal.Email),
		Timestamp:   s.now().UTC(),
	}

	if s.broadcaster != nil {
		if err := s.broadcaster.BroadcastChat(*msg); err != nil {
			logger.WithContext(ctx).WithError(err).Warn("failed to broadcast chat message")
		}
	}
	s.notifier.FanOut(ctx, notification.ChatMessage(group.ID, group.Name, msg.SenderEmail, msg.Message), group.MemberEmails())
	return msg, nil
}
