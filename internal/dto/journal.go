package dto

import (
	"time"

	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PostingRequest is one line of a manual journal entry.
type PostingRequest struct {
	AccountID string             `json:"accountID" binding:"required"`
	Amount    decimal.Decimal    `json:"amount" binding:"required"`
	Side      domain.PostingSide `json:"side" binding:"required,oneof=DEBIT CREDIT"`
}

// CreateEntryRequest posts a manual journal entry.
type CreateEntryRequest struct {
	Date        time.Time        `json:"date" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Postings    []PostingRequest `json:"postings" binding:"required,min=2,dive"`
}

// ToDraft converts the request into a domain entry draft.
func (r CreateEntryRequest) ToDraft() domain.EntryDraft {
	postings := make([]domain.PostingDraft, len(r.Postings))
	for i, p := range r.Postings {
		postings[i] = domain.PostingDraft{AccountID: p.AccountID, Amount: p.Amount, Side: p.Side}
	}
	return domain.EntryDraft{
		Date:        r.Date,
		Description: r.Description,
		SourceType:  domain.SourceManual,
		Postings:    postings,
	}
}
