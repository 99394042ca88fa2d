package repository

import (
	"context"

	"expensely-backend/internal/database/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/repository_mocks.go -package=mocks

// GroupRepositoryInterface defines the interface for group repository operations
type GroupRepositoryInterface interface {
	// Create stores the group with its members and indexes it under every member email atomically.
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	// GetByMemberEmail returns the indexed groups for email in index order. Unknown emails yield an empty slice.
	GetByMemberEmail(ctx context.Context, email string) ([]models.Group, error)
	// MarkMemberJoined flips joined to true for email and returns the updated group.
	MarkMemberJoined(ctx context.Context, groupID, email string) (*models.Group, error)
}

// ExpenseRepositoryInterface defines the interface for expense repository operations
type ExpenseRepositoryInterface interface {
	Create(ctx context.Context, expense *models.Expense) error
	// GetByGroupID returns the group's expenses in creation order.
	GetByGroupID(ctx context.Context, groupID string) ([]models.Expense, error)
}
