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

// PayablesConfig names the ledger accounts the payables engine posts against.
type PayablesConfig struct {
	PayableAccountID     string // LIABILITY: accounts payable
	ExpenseAccountID     string // EXPENSE: operating expenses
	CashAccountID        string // ASSET: cash
	CreditAssetAccountID string // ASSET: outstanding vendor credits
}

// payablesService mirrors the receivables engine for the vendor side, plus
// the purchase order state machine.
type payablesService struct {
	vendorRepo  portsrepo.VendorRepository
	billRepo    portsrepo.BillRepository
	creditRepo  portsrepo.CreditRepository
	poRepo      portsrepo.PurchaseOrderRepository
	ledgerSvc   portssvc.LedgerSvcFacade
	sequenceSvc portssvc.SequenceSvcFacade
	coord       coordinator.Coordinator
	publisher   events.Publisher
	cfg         PayablesConfig
}

// NewPayablesService creates the payables engine.
func NewPayablesService(
	vendorRepo portsrepo.VendorRepository,
	billRepo portsrepo.BillRepository,
	creditRepo portsrepo.CreditRepository,
	poRepo portsrepo.PurchaseOrderRepository,
	ledgerSvc portssvc.LedgerSvcFacade,
	sequenceSvc portssvc.SequenceSvcFacade,
	coord coordinator.Coordinator,
	publisher events.Publisher,
	cfg PayablesConfig,
) portssvc.PayablesSvcFacade {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &payablesService{
		vendorRepo:  vendorRepo,
		billRepo:    billRepo,
		creditRepo:  creditRepo,
		poRepo:      poRepo,
		ledgerSvc:   ledgerSvc,
		sequenceSvc: sequenceSvc,
		coord:       coord,
		publisher:   publisher,
		cfg:         cfg,
	}
}

var _ portssvc.PayablesSvcFacade = (*payablesService)(nil)

// CreateVendor registers a payables counterparty.
func (s *payablesService) CreateVendor(ctx context.Context, req dto.CreateVendorRequest, actorID string) (*domain.Vendor, error) {
	vendor := domain.Vendor{
		VendorID:    uuid.NewString(),
		Name:        req.Name,
		Email:       req.Email,
		IsActive:    true,
		AuditFields: domain.NewAuditFields(actorID, time.Now().UTC()),
	}
	if err := s.vendorRepo.SaveVendor(ctx, vendor); err != nil {
		return nil, fmt.Errorf("failed to save vendor: %w", err)
	}
	return &vendor, nil
}

// GetVendorByID retrieves a vendor.
func (s *payablesService) GetVendorByID(ctx context.Context, vendorID string) (*domain.Vendor, error) {
	vendor, err := s.vendorRepo.FindVendorByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownVendor, vendorID)
		}
		return nil, err
	}
	return vendor, nil
}

// CreateBill creates a draft vendor bill.
func (s *payablesService) CreateBill(ctx context.Context, req dto.CreateBillRequest, actorID string) (*domain.Bill, error) {
	return s.createBill(ctx, req.VendorID, dto.ToLineItems(req.Lines), nil, actorID)
}

func (s *payablesService) createBill(ctx context.Context, vendorID string, lines []domain.LineItem, purchaseOrderID *string, actorID string) (*domain.Bill, error) {
	vendor, err := s.GetVendorByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.IsActive {
		return nil, fmt.Errorf("%w: %s is inactive", apperrors.ErrUnknownVendor, vendorID)
	}

	total := domain.LineTotal(lines)
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: bill total must be positive", apperrors.ErrValidation)
	}
	for _, l := range lines {
		if !l.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: line amounts must be positive", apperrors.ErrValidation)
		}
	}

	number, err := s.nextNumber(ctx, domain.BillSequenceScope, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate bill number: %w", err)
	}

	bill := domain.Bill{
		BillID:          uuid.NewString(),
		BillNumber:      number,
		VendorID:        vendorID,
		Lines:           lines,
		Total:           total,
		BalanceDue:      total,
		Status:          domain.BillDraft,
		PurchaseOrderID: purchaseOrderID,
		AuditFields:     domain.NewAuditFields(actorID, time.Now().UTC()),
	}
	if err := s.billRepo.SaveBill(ctx, bill); err != nil {
		return nil, fmt.Errorf("failed to save bill: %w", err)
	}
	return &bill, nil
}

// GetBillByID retrieves a bill.
func (s *payablesService) GetBillByID(ctx context.Context, billID string) (*domain.Bill, error) {
	return s.billRepo.FindBillByID(ctx, billID)
}

// ListBillsByVendor retrieves a vendor's bills, newest first.
func (s *payablesService) ListBillsByVendor(ctx context.Context, vendorID string, limit, offset int) ([]domain.Bill, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.billRepo.ListBillsByVendor(ctx, vendorID, limit, offset)
}

// SendBill transitions draft->sent and posts the payable entry.
func (s *payablesService) SendBill(ctx context.Context, billID string, actorID string) (*domain.Bill, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	release, err := s.coord.Acquire(ctx, "bill:"+billID)
	if err != nil {
		return nil, err
	}
	defer release()

	bill, err := s.billRepo.FindBillByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Status != domain.BillDraft {
		return nil, fmt.Errorf("%w: cannot send bill in status %s", apperrors.ErrInvalidStateTransition, bill.Status)
	}

	entry, err := s.ledgerSvc.Post(ctx, domain.EntryDraft{
		Description: fmt.Sprintf("Bill #%d", bill.BillNumber),
		SourceType:  domain.SourceBill,
		SourceID:    bill.BillID,
		Postings: []domain.PostingDraft{
			{AccountID: s.cfg.ExpenseAccountID, Amount: bill.Total, Side: domain.Debit},
			{AccountID: s.cfg.PayableAccountID, Amount: bill.Total, Side: domain.Credit},
		},
	}, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to post payable entry: %w", err)
	}

	bill.Status = domain.BillSent
	bill.JournalID = &entry.JournalID
	bill.Touch(actorID, time.Now().UTC())
	if err := s.billRepo.UpdateBill(ctx, *bill); err != nil {
		return nil, fmt.Errorf("failed to update bill: %w", err)
	}

	logger.Info("Bill sent", slog.String("bill_id", billID), slog.String("journal_id", entry.JournalID))
	return bill, nil
}

// ApplyPayment records a payment to a vendor against a sent bill.
func (s *payablesService) ApplyPayment(ctx context.Context, billID string, amount decimal.Decimal, actorID string) (*domain.Bill, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}

	release, err := s.coord.Acquire(ctx, "bill:"+billID)
	if err != nil {
		return nil, err
	}
	defer release()

	bill, err := s.billRepo.FindBillByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	switch bill.Status {
	case domain.BillSent, domain.BillPartial, domain.BillPaid:
	default:
		return nil, fmt.Errorf("%w: cannot pay bill in status %s", apperrors.ErrInvalidStateTransition, bill.Status)
	}
	if amount.GreaterThan(bill.BalanceDue) {
		return nil, fmt.Errorf("%w: %s due, %s offered", apperrors.ErrPaymentExceedsBalance, bill.BalanceDue, amount)
	}

	if _, err := s.ledgerSvc.Post(ctx, domain.EntryDraft{
		Description: fmt.Sprintf("Payment on bill #%d", bill.BillNumber),
		SourceType:  domain.SourcePayment,
		SourceID:    bill.BillID,
		Postings: []domain.PostingDraft{
			{AccountID: s.cfg.PayableAccountID, Amount: amount, Side: domain.Debit},
			{AccountID: s.cfg.CashAccountID, Amount: amount, Side: domain.Credit},
		},
	}, actorID); err != nil {
		return nil, fmt.Errorf("failed to post payment entry: %w", err)
	}

	bill.BalanceDue = bill.BalanceDue.Sub(amount)
	if bill.BalanceDue.IsZero() {
		bill.Status = domain.BillPaid
	} else {
		bill.Status = domain.BillPartial
	}
	bill.Touch(actorID, time.Now().UTC())
	if err := s.billRepo.UpdateBill(ctx, *bill); err != nil {
		return nil, fmt.Errorf("failed to update bill: %w", err)
	}

	s.publishPayment(ctx, "bill", bill.BillID, amount, bill.BalanceDue)
	logger.Info("Payment applied", slog.String("bill_id", billID), slog.String("amount", amount.String()), slog.String("balance_due", bill.BalanceDue.String()))
	return bill, nil
}

// IssueCreditMemo issues a standalone vendor credit, reducing expense and
// recording the claim as an asset.
func (s *payablesService) IssueCreditMemo(ctx context.Context, vendorID string, amount decimal.Decimal, actorID string) (*domain.CreditNote, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: credit amount must be positive", apperrors.ErrValidation)
	}
	vendor, err := s.GetVendorByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.IsActive {
		return nil, fmt.Errorf("%w: %s is inactive", apperrors.ErrUnknownVendor, vendorID)
	}

	creditID := uuid.NewString()
	entry, err := s.ledgerSvc.Post(ctx, domain.EntryDraft{
		Description: fmt.Sprintf("Credit memo from vendor %s", vendor.Name),
		SourceType:  domain.SourceCredit,
		SourceID:    creditID,
		Postings: []domain.PostingDraft{
			{AccountID: s.cfg.CreditAssetAccountID, Amount: amount, Side: domain.Debit},
			{AccountID: s.cfg.ExpenseAccountID, Amount: amount, Side: domain.Credit},
		},
	}, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to post credit memo entry: %w", err)
	}

	credit := domain.CreditNote{
		CreditID:         creditID,
		OwnerType:        domain.VendorCredit,
		OwnerID:          vendorID,
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

// ApplyCredit applies part of a vendor credit to one of the same vendor's
// bills, decrementing both atomically under the coordinator.
func (s *payablesService) ApplyCredit(ctx context.Context, creditID, billID string, amount decimal.Decimal, actorID string) (*domain.CreditNote, *domain.Bill, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: credit application amount must be positive", apperrors.ErrValidation)
	}

	release, err := s.coord.Acquire(ctx, "credit:"+creditID, "bill:"+billID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	credit, err := s.creditRepo.FindCreditByID(ctx, creditID)
	if err != nil {
		return nil, nil, err
	}
	bill, err := s.billRepo.FindBillByID(ctx, billID)
	if err != nil {
		return nil, nil, err
	}

	if credit.OwnerType != domain.VendorCredit || credit.OwnerID != bill.VendorID {
		return nil, nil, fmt.Errorf("%w: credit %s does not belong to vendor %s", apperrors.ErrOwnerMismatch, creditID, bill.VendorID)
	}
	switch bill.Status {
	case domain.BillSent, domain.BillPartial, domain.BillPaid:
	default:
		return nil, nil, fmt.Errorf("%w: cannot apply credit to bill in status %s", apperrors.ErrInvalidStateTransition, bill.Status)
	}
	if amount.GreaterThan(credit.RemainingBalance) {
		return nil, nil, fmt.Errorf("%w: %s remaining, %s requested", apperrors.ErrCreditExceeded, credit.RemainingBalance, amount)
	}
	if amount.GreaterThan(bill.BalanceDue) {
		return nil, nil, fmt.Errorf("%w: %s due, %s offered", apperrors.ErrPaymentExceedsBalance, bill.BalanceDue, amount)
	}

	if _, err := s.ledgerSvc.Post(ctx, domain.EntryDraft{
		Description: fmt.Sprintf("Credit applied to bill #%d", bill.BillNumber),
		SourceType:  domain.SourceCreditApplied,
		SourceID:    bill.BillID,
		Postings: []domain.PostingDraft{
			{AccountID: s.cfg.PayableAccountID, Amount: amount, Side: domain.Debit},
			{AccountID: s.cfg.CreditAssetAccountID, Amount: amount, Side: domain.Credit},
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

	bill.BalanceDue = bill.BalanceDue.Sub(amount)
	if bill.BalanceDue.IsZero() {
		bill.Status = domain.BillPaid
	} else {
		bill.Status = domain.BillPartial
	}
	bill.Touch(actorID, now)
	if err := s.billRepo.UpdateBill(ctx, *bill); err != nil {
		return nil, nil, fmt.Errorf("failed to update bill: %w", err)
	}

	s.publishPayment(ctx, "bill", bill.BillID, amount, bill.BalanceDue)
	logger.Info("Credit applied", slog.String("credit_id", creditID), slog.String("bill_id", billID), slog.String("amount", amount.String()))
	return credit, bill, nil
}

// VoidBill voids a bill that has no payments or credits applied, reversing
// the payable entry when one was posted.
func (s *payablesService) VoidBill(ctx context.Context, billID string, actorID string) (*domain.Bill, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	release, err := s.coord.Acquire(ctx, "bill:"+billID)
	if err != nil {
		return nil, err
	}
	defer release()

	bill, err := s.billRepo.FindBillByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Status == domain.BillVoided {
		return nil, fmt.Errorf("%w: bill is already voided", apperrors.ErrInvalidStateTransition)
	}
	if !bill.BalanceDue.Equal(bill.Total) {
		return nil, fmt.Errorf("%w: bill %s", apperrors.ErrCannotVoidWithPayments, billID)
	}

	if bill.JournalID != nil {
		if _, err := s.ledgerSvc.Reverse(ctx, *bill.JournalID, actorID); err != nil {
			return nil, fmt.Errorf("failed to reverse bill entry: %w", err)
		}
	}

	bill.Status = domain.BillVoided
	bill.BalanceDue = decimal.Zero
	bill.Touch(actorID, time.Now().UTC())
	if err := s.billRepo.UpdateBill(ctx, *bill); err != nil {
		return nil, fmt.Errorf("failed to update bill: %w", err)
	}

	logger.Info("Bill voided", slog.String("bill_id", billID))
	return bill, nil
}

// CreatePurchaseOrder creates a draft purchase order. POs carry no financial
// effect until converted to a bill.
func (s *payablesService) CreatePurchaseOrder(ctx context.Context, req dto.CreatePurchaseOrderRequest, actorID string) (*domain.PurchaseOrder, error) {
	vendor, err := s.GetVendorByID(ctx, req.VendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.IsActive {
		return nil, fmt.Errorf("%w: %s is inactive", apperrors.ErrUnknownVendor, req.VendorID)
	}

	lines := dto.ToLineItems(req.Lines)
	total := domain.LineTotal(lines)
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: purchase order total must be positive", apperrors.ErrValidation)
	}

	po := domain.PurchaseOrder{
		PurchaseOrderID: uuid.NewString(),
		VendorID:        req.VendorID,
		Lines:           lines,
		Total:           total,
		Status:          domain.PODraft,
		AuditFields:     domain.NewAuditFields(actorID, time.Now().UTC()),
	}
	if err := s.poRepo.SavePurchaseOrder(ctx, po); err != nil {
		return nil, fmt.Errorf("failed to save purchase order: %w", err)
	}
	return &po, nil
}

// GetPurchaseOrderByID retrieves a purchase order.
func (s *payablesService) GetPurchaseOrderByID(ctx context.Context, poID string) (*domain.PurchaseOrder, error) {
	return s.poRepo.FindPurchaseOrderByID(ctx, poID)
}

// ApprovePurchaseOrder transitions draft->approved.
func (s *payablesService) ApprovePurchaseOrder(ctx context.Context, poID string, actorID string) (*domain.PurchaseOrder, error) {
	return s.transitionPO(ctx, poID, domain.PODraft, domain.POApproved, actorID)
}

// ReceivePurchaseOrder transitions approved->received.
func (s *payablesService) ReceivePurchaseOrder(ctx context.Context, poID string, actorID string) (*domain.PurchaseOrder, error) {
	return s.transitionPO(ctx, poID, domain.POApproved, domain.POReceived, actorID)
}

func (s *payablesService) transitionPO(ctx context.Context, poID string, from, to domain.PurchaseOrderStatus, actorID string) (*domain.PurchaseOrder, error) {
	release, err := s.coord.Acquire(ctx, "po:"+poID)
	if err != nil {
		return nil, err
	}
	defer release()

	po, err := s.poRepo.FindPurchaseOrderByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po.Status != from {
		return nil, fmt.Errorf("%w: purchase order is %s, expected %s", apperrors.ErrInvalidStateTransition, po.Status, from)
	}

	po.Status = to
	po.Touch(actorID, time.Now().UTC())
	if err := s.poRepo.UpdatePurchaseOrder(ctx, *po); err != nil {
		return nil, fmt.Errorf("failed to update purchase order: %w", err)
	}
	return po, nil
}

// ConvertPOToBill turns a received purchase order into a draft bill carrying
// the PO's lines. A second conversion attempt fails.
func (s *payablesService) ConvertPOToBill(ctx context.Context, poID string, actorID string) (*domain.Bill, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	release, err := s.coord.Acquire(ctx, "po:"+poID)
	if err != nil {
		return nil, err
	}
	defer release()

	po, err := s.poRepo.FindPurchaseOrderByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po.Status == domain.POConverted {
		return nil, fmt.Errorf("%w: purchase order %s", apperrors.ErrAlreadyConverted, poID)
	}
	if po.Status != domain.POReceived {
		return nil, fmt.Errorf("%w: purchase order is %s", apperrors.ErrPOMustBeReceived, po.Status)
	}

	bill, err := s.createBill(ctx, po.VendorID, po.Lines, &po.PurchaseOrderID, actorID)
	if err != nil {
		return nil, err
	}

	po.Status = domain.POConverted
	po.BillID = &bill.BillID
	po.Touch(actorID, time.Now().UTC())
	if err := s.poRepo.UpdatePurchaseOrder(ctx, *po); err != nil {
		return nil, fmt.Errorf("failed to update purchase order: %w", err)
	}

	logger.Info("Purchase order converted", slog.String("po_id", poID), slog.String("bill_id", bill.BillID))
	return bill, nil
}

// nextNumber issues the next document number for a scope, lazily initializing
// the scope on first use.
func (s *payablesService) nextNumber(ctx context.Context, scopeKey string, actorID string) (int64, error) {
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

func (s *payablesService) publishPayment(ctx context.Context, targetType, targetID string, amount, balanceDue decimal.Decimal) {
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
