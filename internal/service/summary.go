package service

import (
	"context"
	"fmt"

	"expensely-backend/internal/database/models"

	"github.com/shopspring/decimal"
)

// MemberBalance is one member's position in a group
type MemberBalance struct {
	Email string          `json:"email"`
	Name  string          `json:"name"`
	Paid  decimal.Decimal `json:"paid" swaggertype:"number"`
	Owed  decimal.Decimal `json:"owed" swaggertype:"number"`
	Net   decimal.Decimal `json:"net" swaggertype:"number"`
}

// GroupSummary aggregates a group's expenses
type GroupSummary struct {
	GroupID      string          `json:"groupId"`
	ExpenseCount int             `json:"expenseCount"`
	Total        decimal.Decimal `json:"total" swaggertype:"number"`
	PerHead      decimal.Decimal `json:"perHead" swaggertype:"number"`
	Members      []MemberBalance `json:"members"`
}

// Summary computes totals and per-member balances. Each expense is shared
// equally between its participants; net is paid minus owed.
func (s *ExpenseService) Summary(ctx context.Context, groupID string) (*GroupSummary, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.GetByGroupID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return summarize(group, expenses), nil
}

func summarize(group *models.Group, expenses []models.Expense) *GroupSummary {
	paid := make(map[string]decimal.Decimal, len(group.Members))
	owed := make(map[string]decimal.Decimal, len(group.Members))
	total := decimal.Zero

	for _, e := range expenses {
		total = total.Add(e.Amount)
		paid[e.PaidBy] = paid[e.PaidBy].Add(e.Amount)
		if len(e.SplitBetween) == 0 {
			continue
		}
		share := e.Amount.Div(decimal.NewFromInt(int64(len(e.SplitBetween))))
		for _, email := range e.SplitBetween {
			owed[email] = owed[email].Add(share)
		}
	}

	summary := &GroupSummary{
		GroupID:      group.ID,
		ExpenseCount: len(expenses),
		Total:        total.Round(2),
		PerHead:      decimal.Zero,
		Members:      make([]MemberBalance, len(group.Members)),
	}
	if n := len(group.Members); n > 0 {
		summary.PerHead = total.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	for i, m := range group.Members {
		p := paid[m.Email].Round(2)
		o := owed[m.Email].Round(2)
		summary.Members[i] = MemberBalance{
			Email: m.Email,
			Name:  m.Name,
			Paid:  p,
			Owed:  o,
			Net:   p.Sub(o),
		}
	}
	return summary
}
