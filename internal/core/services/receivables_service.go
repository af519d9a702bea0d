package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/coordinator"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	portsrepo "github.com/agrodesk/genfin_backend/internal/core/ports/repositories"
	portssvc "github.com/agrodesk/genfin_backend/internal/core/ports/services"
	"github.com/agrodesk/genfin_backend/internal/dto"
	"github.com/agrodesk/genfin_backend/internal/events"
	"github.com/agrodesk/genfin_backend/internal/middleware"
)

// ReceivablesConfig names the ledger accounts the receivables engine posts
// against.
type ReceivablesConfig struct {
	ReceivableAccountID      string // ASSET: accounts receivable
	IncomeAccountID          string // INCOME: sales revenue
	CashAccountID            string // ASSET: undeposited funds / cash
	CreditLiabilityAccountID string // LIABILITY: outstanding customer credits
}

// receivablesService drives the invoice lifecycle and customer credits. All
// mutations acquire the coordinator keys of the documents they touch before
// reading the state their decision is based on.
type receivablesService struct {
	customerRepo portsrepo.CustomerRepository
	invoiceRepo  portsrepo.InvoiceRepository
	creditRepo   portsrepo.CreditRepository
	ledgerSvc    portssvc.LedgerSvcFacade
	sequenceSvc  portssvc.SequenceSvcFacade
	coord        coordinator.Coordinator
	publisher    events.Publisher
	cfg          ReceivablesConfig
}

// NewReceivablesService creates the receivables engine.
func NewReceivablesService(
	customerRepo portsrepo.CustomerRepository,
	invoiceRepo portsrepo.InvoiceRepository,
	creditRepo portsrepo.CreditRepository,
	ledgerSvc portssvc.LedgerSvcFacade,
	sequenceSvc portssvc.SequenceSvcFacade,
	coord coordinator.Coordinator,
	publisher events.Publisher,
	cfg ReceivablesConfig,
) portssvc.ReceivablesSvcFacade {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &receivablesService{
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
		creditRepo:   creditRepo,
		ledgerSvc:    ledgerSvc,
		sequenceSvc:  sequenceSvc,
		coord:        coord,
		publisher:    publisher,
		cfg:          cfg,
	}
}

var _ portssvc.ReceivablesSvcFacade = (*receivablesService)(nil)

// CreateCustomer registers a receivables counterparty.
func (s *receivablesService) CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest, actorID string) (*domain.Customer, error) {
	customer := domain.Customer{
		CustomerID:  uuid.NewString(),
		Name:        req.Name,
		Email:       req.Email,
		IsActive:    true,
		AuditFields: domain.NewAuditFields(actorID, time.Now().UTC()),
	}
	if err := s.customerRepo.SaveCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	return &customer, nil
}

// GetCustomerByID retrieves a customer.
func (s *receivablesService) GetCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	customer, err := s.customerRepo.FindCustomerByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownCustomer, customerID)
		}
		return nil, err
	}
	return customer, nil
}

// CreateInvoice creates a draft invoice. Drafts have no financial effect; the
// receivable is posted on send.
func (s *receivablesService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest, actorID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	customer, err := s.GetCustomerByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive {
		return nil, fmt.Errorf("%w: %s is inactive", apperrors.ErrUnknownCustomer, req.CustomerID)
	}

	lines := dto.ToLineItems(req.Lines)
	total := domain.LineTotal(lines)
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: invoice total must be positive", apperrors.ErrValidation)
	}
	for _, l := range lines {
		if !l.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: line amounts must be positive", apperrors.ErrValidation)
		}
	}

	number, err := s.nextNumber(ctx, domain.InvoiceSequenceScope, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate invoice number: %w", err)
	}

	invoice := domain.Invoice{
		InvoiceID:     uuid.NewString(),
		InvoiceNumber: number,
		CustomerID:    req.CustomerID,
		Lines:         lines,
		Total:         total,
		BalanceDue:    total,
		Status:        domain.InvoiceDraft,
		AuditFields:   domain.NewAuditFields(actorID, time.Now().UTC()),
	}
	if err := s.invoiceRepo.SaveInvoice(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	logger.Info("Invoice created", slog.String("invoice_id", invoice.InvoiceID), slog.Int64("invoice_number", number))
	return &invoice, nil
}

// GetInvoiceByID retrieves an invoice.
func (s *receivablesService) GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
}

// ListInvoicesByCustomer retrieves a customer's invoices, newest first.
func (s *receivablesService) ListInvoicesByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.invoiceRepo.ListInvoicesByCustomer(ctx, customerID, limit, offset)
}

// SendInvoice transitions draft->sent and posts the receivable entry.
func (s *receivablesService) SendInvoice(ctx context.Context, invoiceID string, actorID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	release, err := s.coord.Acquire(ctx, "invoice:"+invoiceID)
	if err != nil {
		return nil, err
	}
	defer release()

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != domain.InvoiceDraft {
		return nil, fmt.Errorf("%w: cannot send invoice in status %s", apperrors.ErrInvalidStateTransition, invoice.Status)
	}

	entry, err := s.ledgerSvc.Post(ctx, domain.EntryDraft{
		Description: fmt.Sprintf("Invoice #%d", invoice.InvoiceNumber),
		SourceType:  domain.SourceInvoice,
		SourceID:    invoice.InvoiceID,
		Postings: []domain.PostingDraft{
			{AccountID: s.cfg.ReceivableAccountID, Amount: invoice.Total, Side: domain.Debit},
			{AccountID: s.cfg.IncomeAccountID, Amount: invoice.Total, Side: domain.Credit},
		},
	}, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to post receivable entry: %w", err)
	}

	invoice.Status = domain.InvoiceSent
	invoice.JournalID = &entry.JournalID
	invoice.Touch(actorID, time.Now().UTC())
	if err := s.invoiceRepo.UpdateInvoice(ctx, *invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	logger.Info("Invoice sent", slog.String("invoice_id", invoiceID), slog.String("journal_id", entry.JournalID))
	return invoice, nil
}

// ApplyPayment records a customer payment against a sent invoice. Payments
// above the balance due are rejected outright.
func (s *receivablesService) ApplyPayment(ctx context.Context, invoiceID string, amount decimal.Decimal, actorID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}

	release, err := s.coord.Acquire(ctx, "invoice:"+invoiceID)
	if err != nil {
		return nil, err
	}
	defer release()

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	switch invoice.Status {
	case domain.InvoiceSent, domain.InvoicePartial, domain.InvoicePaid:
	default:
		return nil, fmt.Errorf("%w: cannot pay invoice in status %s", apperrors.ErrInvalidStateTransition, invoice.Status)
	}
	if amount.GreaterThan(invoice.BalanceDue) {
		return nil, fmt.Errorf("%w: %s due, %s offered", apperrors.ErrPaymentExceedsBalance, invoice.BalanceDue, amount)
	}

	if _, err := s.ledgerSvc.Post(ctx, domain.EntryDraft{
		Description: fmt.Sprintf("Payment on invoice #%d", invoice.InvoiceNumber),
		SourceType:  domain.SourcePayment,
		SourceID:    invoice.InvoiceID,
		Postings: []domain.PostingDraft{
			{AccountID: s.cfg.CashAccountID, Amount: amount, Side: domain.Debit},
			{AccountID: s.cfg.ReceivableAccountID, Amount: amount, Side: domain.Credit},
		},
	}, actorID); err != nil {
		return nil, fmt.Errorf("failed to post payment entry: %w", err)
	}

	invoice.BalanceDue = invoice.BalanceDue.Sub(amount)
	if invoice.BalanceDue.IsZero() {
		invoice.Status = domain.InvoicePaid
	} else {
		invoice.Status = domain.InvoicePartial
	}
	invoice.Touch(actorID, time.Now().UTC())
	if err := s.invoiceRepo.UpdateInvoice(ctx, *invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	s.publishPayment(ctx, "invoice", invoice.InvoiceID, amount, invoice.BalanceDue)
	logger.Info("Payment applied", slog.String("invoice_id", invoiceID), slog.String("amount", amount.String()), slog.String("balance_due", invoice.BalanceDue.String()))
	return invoice, nil
}

// IssueCreditMemo issues a standalone customer credit, reducing income and
// recording the obligation as a liability.
func (s *receivablesService) IssueCreditMemo(ctx context.Context, customerID string, amount decimal.Decimal, actorID string) (*domain.CreditNote, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: credit amount must be positive", apperrors.ErrValidation)
	}
	customer, err := s.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive {
		return nil, fmt.Errorf("%w: %s is inactive", apperrors.ErrUnknownCustomer, customerID)
	}

	creditID := uuid.NewString()
	entry, err := s.ledgerSvc.Post(ctx, domain.EntryDraft{
		Description: fmt.Sprintf("Credit memo for customer %s", customer.Name),
		SourceType:  domain.SourceCredit,
		SourceID:    creditID,
		Postings: []domain.PostingDraft{
			{AccountID: s.cfg.IncomeAccountID, Amount: amount, Side: domain.Debit},
			{AccountID: s.cfg.CreditLiabilityAccountID, Amount: amount, Side: domain.Credit},
		},
	}, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to post credit memo entry: %w", err)
	}

	credit := domain.CreditNote{
		CreditID:         creditID,
		OwnerType:        domain.CustomerCredit,
		OwnerID:          customerID,
		OriginalAmount:   amount,
		RemainingBalance: amount,
		JournalID:        &entry.JournalID,
		AuditFields:      domain.NewAuditFields(actorID, time.Now().UTC()),
	}
	if err := s.creditRepo.SaveCredit(ctx, credit); err != nil {
		return nil, fmt.Errorf("failed to save credit: %w", err)
	}
	return &credit, nil
}

// ApplyCredit applies part of a customer credit to one of the same customer's
// invoices, decrementing both atomically under the coordinator.
func (s *receivablesService) ApplyCredit(ctx context.Context, creditID, invoiceID string, amount decimal.Decimal, actorID string) (*domain.CreditNote, *domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: credit application amount must be positive", apperrors.ErrValidation)
	}

	release, err := s.coord.Acquire(ctx, "credit:"+creditID, "invoice:"+invoiceID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	credit, err := s.creditRepo.FindCreditByID(ctx, creditID)
	if err != nil {
		return nil, nil, err
	}
	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}

	if credit.OwnerType != domain.CustomerCredit || credit.OwnerID != invoice.CustomerID {
		return nil, nil, fmt.Errorf("%w: credit %s does not belong to customer %s", apperrors.ErrOwnerMismatch, creditID, invoice.CustomerID)
	}
	switch invoice.Status {
	case domain.InvoiceSent, domain.InvoicePartial, domain.InvoicePaid:
	default:
		return nil, nil, fmt.Errorf("%w: cannot apply credit to invoice in status %s", apperrors.ErrInvalidStateTransition, invoice.Status)
	}
	if amount.GreaterThan(credit.RemainingBalance) {
		return nil, nil, fmt.Errorf("%w: %s remaining, %s requested", apperrors.ErrCreditExceeded, credit.RemainingBalance, amount)
	}
	if amount.GreaterThan(invoice.BalanceDue) {
		return nil, nil, fmt.Errorf("%w: %s due, %s offered", apperrors.ErrPaymentExceedsBalance, invoice.BalanceDue, amount)
	}

	if _, err := s.ledgerSvc.Post(ctx, domain.EntryDraft{
		Description: fmt.Sprintf("Credit applied to invoice #%d", invoice.InvoiceNumber),
		SourceType:  domain.SourceCreditApplied,
		SourceID:    invoice.InvoiceID,
		Postings: []domain.PostingDraft{
			{AccountID: s.cfg.CreditLiabilityAccountID, Amount: amount, Side: domain.Debit},
			{AccountID: s.cfg.ReceivableAccountID, Amount: amount, Side: domain.Credit},
		},
	}, actorID); err != nil {
		return nil, nil, fmt.Errorf("failed to post credit application entry: %w", err)
	}

	now := time.Now().UTC()
	credit.RemainingBalance = credit.RemainingBalance.Sub(amount)
	credit.Touch(actorID, now)
	if err := s.creditRepo.UpdateCredit(ctx, *credit); err != nil {
		return nil, nil, fmt.Errorf("failed to update credit: %w", err)
	}

	invoice.BalanceDue = invoice.BalanceDue.Sub(amount)
	if invoice.BalanceDue.IsZero() {
		invoice.Status = domain.InvoicePaid
	} else {
		invoice.Status = domain.InvoicePartial
	}
	invoice.Touch(actorID, now)
	if err := s.invoiceRepo.UpdateInvoice(ctx, *invoice); err != nil {
		return nil, nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	s.publishPayment(ctx, "invoice", invoice.InvoiceID, amount, invoice.BalanceDue)
	logger.Info("Credit applied", slog.String("credit_id", creditID), slog.String("invoice_id", invoiceID), slog.String("amount", amount.String()))
	return credit, invoice, nil
}

// VoidInvoice voids an invoice that has no payments or credits applied,
// reversing the receivable entry when one was posted.
func (s *receivablesService) VoidInvoice(ctx context.Context, invoiceID string, actorID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	release, err := s.coord.Acquire(ctx, "invoice:"+invoiceID)
	if err != nil {
		return nil, err
	}
	defer release()

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == domain.InvoiceVoided {
		return nil, fmt.Errorf("%w: invoice is already voided", apperrors.ErrInvalidStateTransition)
	}
	if !invoice.BalanceDue.Equal(invoice.Total) {
		return nil, fmt.Errorf("%w: invoice %s", apperrors.ErrCannotVoidWithPayments, invoiceID)
	}

	if invoice.JournalID != nil {
		if _, err := s.ledgerSvc.Reverse(ctx, *invoice.JournalID, actorID); err != nil {
			return nil, fmt.Errorf("failed to reverse invoice entry: %w", err)
		}
	}

	invoice.Status = domain.InvoiceVoided
	invoice.BalanceDue = decimal.Zero
	invoice.Touch(actorID, time.Now().UTC())
	if err := s.invoiceRepo.UpdateInvoice(ctx, *invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	logger.Info("Invoice voided", slog.String("invoice_id", invoiceID))
	return invoice, nil
}

// nextNumber issues the next document number for a scope, lazily initializing
// the scope on first use.
func (s *receivablesService) nextNumber(ctx context.Context, scopeKey string, actorID string) (int64, error) {
	number, err := s.sequenceSvc.Next(ctx, scopeKey)
	if err == nil {
		return number, nil
	}
	if !errors.Is(err, apperrors.ErrScopeNotFound) {
		return 0, err
	}
	if initErr := s.sequenceSvc.InitScope(ctx, scopeKey, 1, actorID); initErr != nil && !errors.Is(initErr, apperrors.ErrDuplicate) {
		return 0, initErr
	}
	return s.sequenceSvc.Next(ctx, scopeKey)
}

func (s *receivablesService) publishPayment(ctx context.Context, targetType, targetID string, amount, balanceDue decimal.Decimal) {
	err := s.publisher.Publish(ctx, events.TopicPaymentApplied, events.PaymentApplied{
		TargetType: targetType,
		TargetID:   targetID,
		Amount:     amount,
		BalanceDue: balanceDue,
	})
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to publish payment event", slog.String("error", err.Error()))
	}
}
