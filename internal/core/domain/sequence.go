package domain

// Sequence is a persisted gapless counter scoped to a key, e.g. one per bank
// account for check numbers or a global one for invoice numbers. The current
// value survives restarts and is shared across server instances.
type Sequence struct {
	ScopeKey     string `json:"scopeKey"`
	CurrentValue int64  `json:"currentValue"`
	AuditFields
}

// Well-known allocator scopes.
const (
	InvoiceSequenceScope = "invoiceseq"
	BillSequenceScope    = "billseq"
)
