package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostingSide indicates whether a posting line is a debit or a credit.
type PostingSide string

const (
	Debit  PostingSide = "DEBIT"
	Credit PostingSide = "CREDIT"
)

// Opposite returns the flipped side, used when building reversing entries.
func (s PostingSide) Opposite() PostingSide {
	if s == Debit {
		return Credit
	}
	return Debit
}

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Posted   JournalStatus = "POSTED"
	Reversed JournalStatus = "REVERSED"
)

// SourceType identifies the engine entity a journal entry originated from.
type SourceType string

const (
	SourceInvoice       SourceType = "INVOICE"
	SourceBill          SourceType = "BILL"
	SourceCredit        SourceType = "CREDIT"
	SourceCheck         SourceType = "CHECK"
	SourceTransfer      SourceType = "TRANSFER"
	SourceAchBatch      SourceType = "ACH_BATCH"
	SourcePayment       SourceType = "PAYMENT"
	SourceManual        SourceType = "MANUAL"
	SourceReversal      SourceType = "REVERSAL"
	SourceCreditApplied SourceType = "CREDIT_APPLIED"
)

// Posting represents a single line within a journal entry, affecting one account.
type Posting struct {
	PostingID string          `json:"postingID"`
	JournalID string          `json:"journalID"`
	AccountID string          `json:"accountID"`
	Amount    decimal.Decimal `json:"amount"` // always positive
	Side      PostingSide     `json:"side"`
	AuditFields
}

// JournalEntry represents a single balanced financial event. Once posted it is
// immutable; corrections are new reversing entries.
type JournalEntry struct {
	JournalID          string        `json:"journalID"`
	JournalDate        time.Time     `json:"journalDate"`
	Description        string        `json:"description"`
	SourceType         SourceType    `json:"sourceType"`
	SourceID           string        `json:"sourceID"`
	Status             JournalStatus `json:"status"`
	OriginalJournalID  *string         `json:"originalJournalID,omitempty"`
	ReversingJournalID *string         `json:"reversingJournalID,omitempty"`
	Amount             decimal.Decimal `json:"amount"` // total of the debit side
	Postings           []Posting       `json:"postings,omitempty"`
	AuditFields
}

// PostingDraft is one line of an entry that has not been posted yet.
type PostingDraft struct {
	AccountID string
	Amount    decimal.Decimal
	Side      PostingSide
}

// EntryDraft describes a journal entry before validation and persistence.
type EntryDraft struct {
	Date        time.Time
	Description string
	SourceType  SourceType
	SourceID    string
	Postings    []PostingDraft
}
