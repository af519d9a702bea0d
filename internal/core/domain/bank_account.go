package domain

// BankAccount wraps a ledger account with banking capabilities. Its balance
// is the linked ledger account's balance; check numbering state lives in the
// sequence allocator under scope "checkseq:<bankAccountID>".
type BankAccount struct {
	BankAccountID        string `json:"bankAccountID"`
	Name                 string `json:"name"`
	LedgerAccountID      string `json:"ledgerAccountID"`
	AchEnabled           bool   `json:"achEnabled"`
	CheckPrintingEnabled bool   `json:"checkPrintingEnabled"`
	AuditFields
}

// CheckSequenceScope returns the allocator scope key for this account's
// check numbers.
func (b BankAccount) CheckSequenceScope() string {
	return "checkseq:" + b.BankAccountID
}
