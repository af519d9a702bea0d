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
	"github.com/agrodesk/genfin_backend/internal/utils/accounting"
)

// reconciliationEpsilon is the tolerance for statement differences: half a
// cent, so rounding noise completes cleanly and a full cent is flagged.
var reconciliationEpsilon = decimal.NewFromFloat(0.005)

// BankingConfig names the ledger accounts the banking engine posts against.
type BankingConfig struct {
	DefaultExpenseAccountID string // EXPENSE: used when a check names no account
}

// bankingService manages bank accounts, check issuance, transfers,
// reconciliation and ACH batches. Check numbers come from the sequence
// allocator under scope "checkseq:<bankAccountID>"; the balance gate runs
// under the same coordinator keys so a rejected check never burns a number.
type bankingService struct {
	bankAccountRepo portsrepo.BankAccountRepository
	checkRepo       portsrepo.CheckRepository
	reconRepo       portsrepo.ReconciliationRepository
	achRepo         portsrepo.AchBatchRepository
	journalRepo     portsrepo.JournalReader
	ledgerSvc       portssvc.LedgerSvcFacade
	sequenceSvc     portssvc.SequenceSvcFacade
	coord           coordinator.Coordinator
	publisher       events.Publisher
	cfg             BankingConfig
}

// NewBankingService creates the banking engine.
func NewBankingService(
	bankAccountRepo portsrepo.BankAccountRepository,
	checkRepo portsrepo.CheckRepository,
	reconRepo portsrepo.ReconciliationRepository,
	achRepo portsrepo.AchBatchRepository,
	journalRepo portsrepo.JournalReader,
	ledgerSvc portssvc.LedgerSvcFacade,
	sequenceSvc portssvc.SequenceSvcFacade,
	coord coordinator.Coordinator,
	publisher events.Publisher,
	cfg BankingConfig,
) portssvc.BankingSvcFacade {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &bankingService{
		bankAccountRepo: bankAccountRepo,
		checkRepo:       checkRepo,
		reconRepo:       reconRepo,
		achRepo:         achRepo,
		journalRepo:     journalRepo,
		ledgerSvc:       ledgerSvc,
		sequenceSvc:     sequenceSvc,
		coord:           coord,
		publisher:       publisher,
		cfg:             cfg,
	}
}

var _ portssvc.BankingSvcFacade = (*bankingService)(nil)

// CreateBankAccount wraps an existing asset ledger account with banking
// capabilities and seeds its check number sequence.
func (s *bankingService) CreateBankAccount(ctx context.Context, req dto.CreateBankAccountRequest, actorID string) (*domain.BankAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	ledgerAccount, err := s.ledgerSvc.GetAccountByID(ctx, req.LedgerAccountID)
	if err != nil {
		return nil, err
	}
	if ledgerAccount.AccountType != domain.Asset {
		return nil, fmt.Errorf("%w: bank accounts must wrap an ASSET account, got %s", apperrors.ErrValidation, ledgerAccount.AccountType)
	}

	account := domain.BankAccount{
		BankAccountID:        uuid.NewString(),
		Name:                 req.Name,
		LedgerAccountID:      req.LedgerAccountID,
		AchEnabled:           req.AchEnabled,
		CheckPrintingEnabled: req.CheckPrintingEnabled,
		AuditFields:          domain.NewAuditFields(actorID, time.Now().UTC()),
	}
	if err := s.bankAccountRepo.SaveBankAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save bank account: %w", err)
	}
	if err := s.sequenceSvc.InitScope(ctx, account.CheckSequenceScope(), req.NextCheckNumber, actorID); err != nil {
		return nil, fmt.Errorf("failed to seed check sequence: %w", err)
	}

	logger.Info("Bank account created", slog.String("bank_account_id", account.BankAccountID), slog.Int64("next_check_number", req.NextCheckNumber))
	return &account, nil
}

// GetBankAccountByID retrieves a bank account.
func (s *bankingService) GetBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error) {
	return s.bankAccountRepo.FindBankAccountByID(ctx, bankAccountID)
}

// WriteCheck issues a check: balance gate first, then number allocation, then
// the payment entry. Holding the ledger account key and the sequence scope
// key for the whole operation keeps numbers aligned with the funds decision.
func (s *bankingService) WriteCheck(ctx context.Context, req dto.WriteCheckRequest, actorID string) (*domain.Check, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: check amount must be positive", apperrors.ErrValidation)
	}

	bankAccount, err := s.bankAccountRepo.FindBankAccountByID(ctx, req.BankAccountID)
	if err != nil {
		return nil, err
	}
	if !bankAccount.CheckPrintingEnabled {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrCheckPrintingDisabled, bankAccount.BankAccountID)
	}

	expenseAccountID := req.ExpenseAccountID
	if expenseAccountID == "" {
		expenseAccountID = s.cfg.DefaultExpenseAccountID
	}

	release, err := s.coord.Acquire(ctx, "account:"+bankAccount.LedgerAccountID, bankAccount.CheckSequenceScope())
	if err != nil {
		return nil, err
	}
	defer release()

	balance, err := s.ledgerSvc.BalanceOf(ctx, bankAccount.LedgerAccountID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read bank balance: %w", err)
	}
	if req.Amount.GreaterThan(balance) {
		return nil, fmt.Errorf("%w: balance %s, check %s", apperrors.ErrInsufficientFunds, balance, req.Amount)
	}

	checkNumber, err := s.sequenceSvc.Next(ctx, bankAccount.CheckSequenceScope())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate check number: %w", err)
	}

	checkID := uuid.NewString()
	entry, err := s.ledgerSvc.Post(ctx, domain.EntryDraft{
		Description: fmt.Sprintf("Check #%d to %s", checkNumber, req.Payee),
		SourceType:  domain.SourceCheck,
		SourceID:    checkID,
		Postings: []domain.PostingDraft{
			{AccountID: expenseAccountID, Amount: req.Amount, Side: domain.Debit},
			{AccountID: bankAccount.LedgerAccountID, Amount: req.Amount, Side: domain.Credit},
		},
	}, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to post check entry: %w", err)
	}

	check := domain.Check{
		CheckID:       checkID,
		BankAccountID: bankAccount.BankAccountID,
		CheckNumber:   checkNumber,
		Payee:         req.Payee,
		Amount:        req.Amount,
		Status:        domain.CheckIssued,
		JournalID:     &entry.JournalID,
		AuditFields:   domain.NewAuditFields(actorID, time.Now().UTC()),
	}
	if err := s.checkRepo.SaveCheck(ctx, check); err != nil {
		return nil, fmt.Errorf("failed to save check: %w", err)
	}

	s.publishCheck(ctx, check)
	logger.Info("Check issued", slog.String("check_id", checkID), slog.Int64("check_number", checkNumber), slog.String("amount", req.Amount.String()))
	return &check, nil
}

// GetCheckByID retrieves a check.
func (s *bankingService) GetCheckByID(ctx context.Context, checkID string) (*domain.Check, error) {
	return s.checkRepo.FindCheckByID(ctx, checkID)
}

// PrintCheck transitions issued->printed on an account with printing enabled.
func (s *bankingService) PrintCheck(ctx context.Context, checkID string, actorID string) (*domain.Check, error) {
	release, err := s.coord.Acquire(ctx, "check:"+checkID)
	if err != nil {
		return nil, err
	}
	defer release()

	check, err := s.checkRepo.FindCheckByID(ctx, checkID)
	if err != nil {
		return nil, err
	}
	bankAccount, err := s.bankAccountRepo.FindBankAccountByID(ctx, check.BankAccountID)
	if err != nil {
		return nil, err
	}
	if !bankAccount.CheckPrintingEnabled {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrCheckPrintingDisabled, check.BankAccountID)
	}
	if check.Status != domain.CheckIssued {
		return nil, fmt.Errorf("%w: cannot print check in status %s", apperrors.ErrInvalidStateTransition, check.Status)
	}

	check.Status = domain.CheckPrinted
	check.Touch(actorID, time.Now().UTC())
	if err := s.checkRepo.UpdateCheck(ctx, *check); err != nil {
		return nil, fmt.Errorf("failed to update check: %w", err)
	}
	return check, nil
}

// ClearCheck marks a check cleared by the bank. Cleared is terminal.
func (s *bankingService) ClearCheck(ctx context.Context, checkID string, actorID string) (*domain.Check, error) {
	release, err := s.coord.Acquire(ctx, "check:"+checkID)
	if err != nil {
		return nil, err
	}
	defer release()

	check, err := s.checkRepo.FindCheckByID(ctx, checkID)
	if err != nil {
		return nil, err
	}
	if check.Status != domain.CheckIssued && check.Status != domain.CheckPrinted {
		return nil, fmt.Errorf("%w: cannot clear check in status %s", apperrors.ErrInvalidStateTransition, check.Status)
	}

	check.Status = domain.CheckCleared
	check.Touch(actorID, time.Now().UTC())
	if err := s.checkRepo.UpdateCheck(ctx, *check); err != nil {
		return nil, fmt.Errorf("failed to update check: %w", err)
	}
	return check, nil
}

// VoidCheck reverses a check's entry and voids it. The check number stays
// consumed; cleared checks cannot be voided.
func (s *bankingService) VoidCheck(ctx context.Context, checkID string, actorID string) (*domain.Check, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	release, err := s.coord.Acquire(ctx, "check:"+checkID)
	if err != nil {
		return nil, err
	}
	defer release()

	check, err := s.checkRepo.FindCheckByID(ctx, checkID)
	if err != nil {
		return nil, err
	}
	if check.Status == domain.CheckCleared {
		return nil, fmt.Errorf("%w: check %s", apperrors.ErrCannotVoidClearedCheck, checkID)
	}
	if check.Status == domain.CheckVoided {
		return nil, fmt.Errorf("%w: check is already voided", apperrors.ErrInvalidStateTransition)
	}

	if check.JournalID != nil {
		if _, err := s.ledgerSvc.Reverse(ctx, *check.JournalID, actorID); err != nil {
			return nil, fmt.Errorf("failed to reverse check entry: %w", err)
		}
	}

	check.Status = domain.CheckVoided
	check.Touch(actorID, time.Now().UTC())
	if err := s.checkRepo.UpdateCheck(ctx, *check); err != nil {
		return nil, fmt.Errorf("failed to update check: %w", err)
	}

	logger.Info("Check voided", slog.String("check_id", checkID), slog.Int64("check_number", check.CheckNumber))
	return check, nil
}

// Transfer moves funds between two ledger accounts in one entry, so both
// balances move or neither does.
func (s *bankingService) Transfer(ctx context.Context, req dto.TransferRequest, actorID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: transfer amount must be positive", apperrors.ErrValidation)
	}
	if req.FromAccountID == req.ToAccountID {
		return nil, fmt.Errorf("%w: cannot transfer an account to itself", apperrors.ErrValidation)
	}

	release, err := s.coord.Acquire(ctx, "account:"+req.FromAccountID, "account:"+req.ToAccountID)
	if err != nil {
		return nil, err
	}
	defer release()

	balance, err := s.ledgerSvc.BalanceOf(ctx, req.FromAccountID, nil)
	if err != nil {
		return nil, err
	}
	if req.Amount.GreaterThan(balance) {
		return nil, fmt.Errorf("%w: balance %s, transfer %s", apperrors.ErrInsufficientFunds, balance, req.Amount)
	}

	entry, err := s.ledgerSvc.Post(ctx, domain.EntryDraft{
		Description: "Funds transfer",
		SourceType:  domain.SourceTransfer,
		SourceID:    uuid.NewString(),
		Postings: []domain.PostingDraft{
			{AccountID: req.ToAccountID, Amount: req.Amount, Side: domain.Debit},
			{AccountID: req.FromAccountID, Amount: req.Amount, Side: domain.Credit},
		},
	}, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to post transfer entry: %w", err)
	}

	logger.Info("Transfer posted", slog.String("journal_id", entry.JournalID), slog.String("amount", req.Amount.String()))
	return entry, nil
}

// StartReconciliation opens a reconciliation for a bank account. Only one may
// be in progress per account.
func (s *bankingService) StartReconciliation(ctx context.Context, bankAccountID string, statementBalance decimal.Decimal, actorID string) (*domain.Reconciliation, error) {
	release, err := s.coord.Acquire(ctx, "reconciliation:"+bankAccountID)
	if err != nil {
		return nil, err
	}
	defer release()

	bankAccount, err := s.bankAccountRepo.FindBankAccountByID(ctx, bankAccountID)
	if err != nil {
		return nil, err
	}

	if active, err := s.reconRepo.FindActiveByBankAccount(ctx, bankAccountID); err == nil && active != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrReconciliationAlreadyActive, active.ReconciliationID)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	rec := domain.Reconciliation{
		ReconciliationID: uuid.NewString(),
		BankAccountID:    bankAccount.BankAccountID,
		StatementBalance: statementBalance,
		ComputedBalance:  decimal.Zero,
		Difference:       decimal.Zero,
		Status:           domain.ReconciliationInProgress,
		AuditFields:      domain.NewAuditFields(actorID, time.Now().UTC()),
	}
	if err := s.reconRepo.SaveReconciliation(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save reconciliation: %w", err)
	}
	return &rec, nil
}

// MarkCleared flags postings of the bank's ledger account as matched against
// the statement. Already-cleared ids are ignored.
func (s *bankingService) MarkCleared(ctx context.Context, reconciliationID string, postingIDs []string, actorID string) error {
	release, err := s.coord.Acquire(ctx, "reconciliation-doc:"+reconciliationID)
	if err != nil {
		return err
	}
	defer release()

	rec, err := s.reconRepo.FindReconciliationByID(ctx, reconciliationID)
	if err != nil {
		return err
	}
	if rec.Status != domain.ReconciliationInProgress {
		return fmt.Errorf("%w: reconciliation is %s", apperrors.ErrInvalidStateTransition, rec.Status)
	}

	bankAccount, err := s.bankAccountRepo.FindBankAccountByID(ctx, rec.BankAccountID)
	if err != nil {
		return err
	}
	postings, err := s.journalRepo.FindPostingsByIDs(ctx, postingIDs)
	if err != nil {
		return err
	}
	for _, p := range postings {
		if p.AccountID != bankAccount.LedgerAccountID {
			return fmt.Errorf("%w: posting %s is not against the bank's ledger account", apperrors.ErrValidation, p.PostingID)
		}
	}

	if err := s.reconRepo.AddClearedPostings(ctx, reconciliationID, postingIDs, actorID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record cleared postings: %w", err)
	}
	return nil
}

// CompleteReconciliation sums the cleared postings and compares against the
// statement. A difference within half a cent completes; anything larger is
// recorded as a discrepancy, not an error.
func (s *bankingService) CompleteReconciliation(ctx context.Context, reconciliationID string, actorID string) (*domain.Reconciliation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	release, err := s.coord.Acquire(ctx, "reconciliation-doc:"+reconciliationID)
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := s.reconRepo.FindReconciliationByID(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.ReconciliationInProgress {
		return nil, fmt.Errorf("%w: reconciliation is %s", apperrors.ErrInvalidStateTransition, rec.Status)
	}

	bankAccount, err := s.bankAccountRepo.FindBankAccountByID(ctx, rec.BankAccountID)
	if err != nil {
		return nil, err
	}
	ledgerAccount, err := s.ledgerSvc.GetAccountByID(ctx, bankAccount.LedgerAccountID)
	if err != nil {
		return nil, err
	}

	computed := decimal.Zero
	if len(rec.ClearedPostingIDs) > 0 {
		postings, err := s.journalRepo.FindPostingsByIDs(ctx, rec.ClearedPostingIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load cleared postings: %w", err)
		}
		for _, p := range postings {
			signed, err := accounting.SignedAmount(p, ledgerAccount.AccountType)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cleared balance: %w", err)
			}
			computed = computed.Add(signed)
		}
	}

	rec.ComputedBalance = computed
	rec.Difference = rec.StatementBalance.Sub(computed)
	if rec.Difference.Abs().LessThanOrEqual(reconciliationEpsilon) {
		rec.Status = domain.ReconciliationCompleted
	} else {
		rec.Status = domain.ReconciliationDiscrepancy
	}
	rec.Touch(actorID, time.Now().UTC())
	if err := s.reconRepo.UpdateReconciliation(ctx, *rec); err != nil {
		return nil, fmt.Errorf("failed to update reconciliation: %w", err)
	}

	logger.Info("Reconciliation completed",
		slog.String("reconciliation_id", reconciliationID),
		slog.String("status", string(rec.Status)),
		slog.String("difference", rec.Difference.String()),
	)
	return rec, nil
}

// GetReconciliationByID retrieves a reconciliation.
func (s *bankingService) GetReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error) {
	return s.reconRepo.FindReconciliationByID(ctx, reconciliationID)
}

// CreateAchBatch posts one entry for the batch total and records the batch as
// submitted. Requires ACH to be enabled on the bank account.
func (s *bankingService) CreateAchBatch(ctx context.Context, req dto.CreateAchBatchRequest, actorID string) (*domain.AchBatch, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	bankAccount, err := s.bankAccountRepo.FindBankAccountByID(ctx, req.BankAccountID)
	if err != nil {
		return nil, err
	}
	if !bankAccount.AchEnabled {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAchNotEnabled, req.BankAccountID)
	}

	items := make([]domain.AchItem, len(req.Items))
	total := decimal.Zero
	for i, item := range req.Items {
		if !item.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: ACH item amounts must be positive", apperrors.ErrValidation)
		}
		items[i] = domain.AchItem{
			Payee:         item.Payee,
			RoutingNumber: item.RoutingNumber,
			AccountNumber: item.AccountNumber,
			Amount:        item.Amount,
		}
		total = total.Add(item.Amount)
	}

	release, err := s.coord.Acquire(ctx, "account:"+bankAccount.LedgerAccountID)
	if err != nil {
		return nil, err
	}
	defer release()

	balance, err := s.ledgerSvc.BalanceOf(ctx, bankAccount.LedgerAccountID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read bank balance: %w", err)
	}
	if total.GreaterThan(balance) {
		return nil, fmt.Errorf("%w: balance %s, batch total %s", apperrors.ErrInsufficientFunds, balance, total)
	}

	batchID := uuid.NewString()
	entry, err := s.ledgerSvc.Post(ctx, domain.EntryDraft{
		Description: fmt.Sprintf("ACH batch of %d payments", len(items)),
		SourceType:  domain.SourceAchBatch,
		SourceID:    batchID,
		Postings: []domain.PostingDraft{
			{AccountID: s.cfg.DefaultExpenseAccountID, Amount: total, Side: domain.Debit},
			{AccountID: bankAccount.LedgerAccountID, Amount: total, Side: domain.Credit},
		},
	}, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to post ACH batch entry: %w", err)
	}

	batch := domain.AchBatch{
		AchBatchID:    batchID,
		BankAccountID: bankAccount.BankAccountID,
		Items:         items,
		Total:         total,
		Status:        domain.AchSubmitted,
		JournalID:     &entry.JournalID,
		AuditFields:   domain.NewAuditFields(actorID, time.Now().UTC()),
	}
	if err := s.achRepo.SaveAchBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to save ACH batch: %w", err)
	}

	logger.Info("ACH batch submitted", slog.String("ach_batch_id", batchID), slog.String("total", total.String()))
	return &batch, nil
}

func (s *bankingService) publishCheck(ctx context.Context, check domain.Check) {
	err := s.publisher.Publish(ctx, events.TopicCheckIssued, events.CheckIssued{
		CheckID:       check.CheckID,
		BankAccountID: check.BankAccountID,
		CheckNumber:   check.CheckNumber,
		Amount:        check.Amount,
	})
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to publish check event", slog.String("error", err.Error()))
	}
}
