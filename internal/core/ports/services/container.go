package services

// ServiceContainer bundles all core service facades for injection into the
// HTTP layer.
type ServiceContainer struct {
	Ledger      LedgerSvcFacade
	Sequence    SequenceSvcFacade
	Receivables ReceivablesSvcFacade
	Payables    PayablesSvcFacade
	Banking     BankingSvcFacade
}
