package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers; strings are still accepted on input.
	decimal.MarshalJSONWithoutQuotes = true
}

// NewID returns a fresh opaque identifier for groups and expenses.
func NewID() string {
	return uuid.NewString()
}
