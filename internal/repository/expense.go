package repository

import (
	"context"

	"expensely-backend/internal/database/models"

	"gorm.io/gorm"
)

// ExpenseRepository handles database operations for expenses
type ExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create creates a new expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = models.NewID()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = clock.Now()
	}
	return r.db.WithContext(ctx).Create(expense).Error
}

// GetByGroupID retrieves all expenses of a group, oldest first
func (r *ExpenseRepository) GetByGroupID(ctx context.Context, groupID string) ([]models.Expense, error) {
	expenses := []models.Expense{}
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC, id ASC").
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}
