package accounting

import (
	"fmt"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedAmount applies the correct sign to a posting amount based on the
// account type and posting side, so that positive means "balance grows on
// its normal side".
//
// DEBIT to ASSET/EXPENSE -> +, CREDIT to ASSET/EXPENSE -> -
// DEBIT to LIABILITY/EQUITY/INCOME -> -, CREDIT to those -> +
func SignedAmount(p domain.Posting, accountType domain.AccountType) (decimal.Decimal, error) {
	signed := p.Amount
	isDebit := p.Side == domain.Debit

	switch accountType {
	case domain.Asset, domain.Expense:
		if !isDebit {
			signed = signed.Neg()
		}
	case domain.Liability, domain.Equity, domain.Income:
		if isDebit {
			signed = signed.Neg()
		}
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s' for account %s", accountType, p.AccountID)
	}
	return signed, nil
}

// ValidateEntryBalance checks the double-entry invariant on a draft: at least
// two postings, all amounts positive, sum(debits) == sum(credits).
func ValidateEntryBalance(postings []domain.PostingDraft) error {
	if len(postings) < 2 {
		return fmt.Errorf("%w: entry must have at least two postings", apperrors.ErrValidation)
	}

	debits := decimal.Zero
	credits := decimal.Zero
	for _, p := range postings {
		if p.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: posting amount must be positive for account %s", apperrors.ErrValidation, p.AccountID)
		}
		if p.Side == domain.Debit {
			debits = debits.Add(p.Amount)
		} else {
			credits = credits.Add(p.Amount)
		}
	}

	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits sum to %s, credits sum to %s",
			apperrors.ErrUnbalancedEntry, debits.String(), credits.String())
	}
	return nil
}

// EntryAmount computes the economic value of a balanced entry, which is the
// total of its debit side.
func EntryAmount(postings []domain.Posting) decimal.Decimal {
	total := decimal.Zero
	for _, p := range postings {
		if p.Side == domain.Debit {
			total = total.Add(p.Amount)
		}
	}
	return total
}
