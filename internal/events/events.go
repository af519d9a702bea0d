package events

import (
	"context"

	"github.com/shopspring/decimal"
)

// Topics published by the engines.
const (
	TopicJournalPosted  = "genfin.journal_posted"
	TopicPaymentApplied = "genfin.payment_applied"
	TopicCheckIssued    = "genfin.check_issued"
)

// Publisher delivers engine events to downstream consumers. Publishing is
// best effort and happens after the financial state is committed; a failure
// is logged, never propagated into the engine result.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// JournalPosted is emitted for every posted journal entry.
type JournalPosted struct {
	JournalID  string          `json:"journalID"`
	SourceType string          `json:"sourceType"`
	SourceID   string          `json:"sourceID"`
	Amount     decimal.Decimal `json:"amount"`
}

// PaymentApplied is emitted when a payment or credit reduces a balance due.
type PaymentApplied struct {
	TargetType string          `json:"targetType"` // "invoice" or "bill"
	TargetID   string          `json:"targetID"`
	Amount     decimal.Decimal `json:"amount"`
	BalanceDue decimal.Decimal `json:"balanceDue"`
}

// CheckIssued is emitted when a check is written.
type CheckIssued struct {
	CheckID       string          `json:"checkID"`
	BankAccountID string          `json:"bankAccountID"`
	CheckNumber   int64           `json:"checkNumber"`
	Amount        decimal.Decimal `json:"amount"`
}

// NoopPublisher discards events; used when no broker is configured and in
// tests.
type NoopPublisher struct{}

var _ Publisher = NoopPublisher{}

func (NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}
