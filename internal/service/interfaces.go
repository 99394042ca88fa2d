package service

import (
	"context"

	"expensely-backend/internal/auth"
	"expensely-backend/internal/database/models"
	"expensely-backend/internal/notification"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/service_mocks.go -package=mocks

// Notifier delivers domain events to group members
type Notifier interface {
	FanOut(ctx context.Context, event notification.Event, recipients []string) notification.Report
	Remind(ctx context.Context, group *models.Group, senderEmail, memberEmail string) error
}

// ChatBroadcaster relays chat messages to live websocket clients
type ChatBroadcaster interface {
	BroadcastChat(msg models.ChatMessage) error
}

// GroupServiceInterface defines the interface for group service
type GroupServiceInterface interface {
	Create(ctx context.Context, principal *auth.Principal, req *CreateGroupRequest) (*models.Group, error)
	ListForUser(ctx context.Context, email string) ([]models.Group, error)
	GetByID(ctx context.Context, id string) (*models.Group, error)
	Join(ctx context.Context, groupID, email string) (*models.Group, error)
	Remind(ctx context.Context, groupID, senderEmail string, req *RemindRequest) error
}

// ExpenseServiceInterface defines the interface for expense service
type ExpenseServiceInterface interface {
	Create(ctx context.Context, principal *auth.Principal, groupID string, req *CreateExpenseRequest) (*models.Expense, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.Expense, error)
	Summary(ctx context.Context, groupID string) (*GroupSummary, error)
}

// ChatServiceInterface defines the interface for chat service
type ChatServiceInterface interface {
	Post(ctx context.Context, principal *auth.Principal, groupID string, req *ChatMessageRequest) (*models.ChatMessage, error)
}
