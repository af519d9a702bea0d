package dto

import (
	"time"

	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest creates a ledger account.
type CreateAccountRequest struct {
	Name        string             `json:"name" binding:"required"`
	AccountType domain.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	Description string             `json:"description"`
}

// BalanceResponse reports a derived account balance.
type BalanceResponse struct {
	AccountID string          `json:"accountID"`
	Balance   decimal.Decimal `json:"balance"`
	AsOf      *time.Time      `json:"asOf,omitempty"`
}
