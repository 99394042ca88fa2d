package service

import (
	"context"
	"fmt"
	"strings"

	"expensely-backend/internal/auth"
	"expensely-backend/internal/database/models"
	apperrors "expensely-backend/internal/errors"
	"expensely-backend/internal/logger"
	"expensely-backend/internal/notification"
	"expensely-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ExpenseService handles business logic for expenses
type ExpenseService struct {
	repo      repository.ExpenseRepositoryInterface
	groups    GroupServiceInterface
	notifier  Notifier
	validator *validator.Validate
}

// NewExpenseService creates a new expense service
func NewExpenseService(repo repository.ExpenseRepositoryInterface, groups GroupServiceInterface, notifier Notifier, validator *validator.Validate) *ExpenseService {
	return &ExpenseService{
		repo:      repo,
		groups:    groups,
		notifier:  notifier,
		validator: validator,
	}
}

// CreateExpenseRequest represents the request to add an expense.
// An empty SplitBetween splits the expense between every member.
type CreateExpenseRequest struct {
	Description  string          `json:"description" validate:"required,max=500" example:"Dinner"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"number" example:"40"`
	PaidBy       string          `json:"paidBy" validate:"required,email" example:"a@x.com"`
	SplitBetween []string        `json:"splitBetween" validate:"omitempty,max=100,dive,required,email"`
}

// Create validates the expense against the group, stores it and notifies
// every member except the payer.
func (s *ExpenseService) Create(ctx context.Context, principal *auth.Principal, groupID string, req *CreateExpenseRequest) (*models.Expense, error) {
	req.Description = strings.TrimSpace(req.Description)
	req.PaidBy = models.NormalizeEmail(req.PaidBy)
	req.SplitBetween = normalizeEmails(req.SplitBetween)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, apperrors.ErrNonPositiveAmount
	}
	if amount.GreaterThan(models.MaxAmount) {
		return nil, apperrors.ErrAmountTooLarge
	}

	payer := req.PaidBy
	split := req.SplitBetween
	if hasDuplicate(split) {
		return nil, apperrors.ErrDuplicateSplit
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(payer) {
		return nil, apperrors.ErrPayerNotMember
	}
	for _, email := range split {
		if !group.HasMember(email) {
			return nil, apperrors.ErrSplitNotMember
		}
	}
	if len(split) == 0 {
		split = group.MemberEmails()
	}

	expense := &models.Expense{
		GroupID:      group.ID,
		Description:  req.Description,
		Amount:       amount,
		PaidBy:       payer,
		SplitBetween: split,
		CreatedBy:    models.NormalizeEmail(principal.Email),
	}
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"group_id":   group.ID,
		"expense_id": expense.ID,
	}).Info("expense created")

	event := notification.NewExpense(group.ID, group.Name, expense.ID, payer, expense.Description, expense.Amount)
	s.notifier.FanOut(ctx, event, group.MemberEmails())
	return expense, nil
}

// ListByGroup retrieves the group's expenses in creation order
func (s *ExpenseService) ListByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	expenses, err := s.repo.GetByGroupID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}
