package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount the decimal(14,2) column holds.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// Expense is an immutable payment recorded against a group and split
// equally between SplitBetween.
type Expense struct {
	ID           string          `json:"id" gorm:"primaryKey;size:36"`
	GroupID      string          `json:"groupId" gorm:"not null;size:36;index:idx_expenses_group_created,priority:1"`
	Description  string          `json:"description" gorm:"not null;size:500"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	PaidBy       string          `json:"paidBy" gorm:"not null;size:255"`
	SplitBetween []string        `json:"splitBetween" gorm:"serializer:json;type:text;not null"`
	CreatedBy    string          `json:"createdBy,omitempty" gorm:"size:255"`
	CreatedAt    time.Time       `json:"createdAt" gorm:"index:idx_expenses_group_created,priority:2"`
}

// TableName returns the table name for Expense
func (Expense) TableName() string {
	return "expenses"
}
