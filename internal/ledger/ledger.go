// Package ledger owns the per-user generation credit balance.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"songdrop/internal/domain"
	"songdrop/internal/infra"
)

// Monthly allowances granted when a subscription starts or renews.
const (
	StarterAllowance = 5
	CreatorAllowance = 15
	ProAllowance     = 40
)

// Allowance returns the credits granted per billing period for a tier.
func Allowance(tier domain.Tier) int {
	switch tier {
	case domain.TierStarter:
		return StarterAllowance
	case domain.TierCreator:
		return CreatorAllowance
	case domain.TierPro:
		return ProAllowance
	default:
		return 0
	}
}

// Ledger reserves, refunds and refills credits. All mutations are delegated to
// single conditional statements of the credit repository.
type Ledger struct {
	credits domain.CreditRepository
	logger  infra.Logger
}

// New creates a ledger over the given repository.
func New(credits domain.CreditRepository, logger infra.Logger) *Ledger {
	return &Ledger{credits: credits, logger: logger}
}

// ForStore returns a ledger bound to store, typically a transactional one.
func (l *Ledger) ForStore(store domain.Store) *Ledger {
	return &Ledger{credits: store.Credits(), logger: l.logger}
}

// Reserve takes one credit for reference. It reports false when the balance is
// zero or the account does not exist.
func (l *Ledger) Reserve(ctx context.Context, userID, reference string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, domain.ValidationError("user_id is required")
	}
	ok, err := l.credits.Reserve(ctx, userID, reference)
	if err != nil {
		return false, fmt.Errorf("reserve credit: %w", err)
	}
	if !ok {
		l.logger.Info().Str("user_id", userID).Str("reference", reference).Msg("credit reservation denied")
	}
	return ok, nil
}

// Refund returns amount credits to the user.
func (l *Ledger) Refund(ctx context.Context, userID string, amount int, reference string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, domain.ValidationError("user_id is required")
	}
	if amount <= 0 {
		return 0, domain.ValidationError("refund amount must be positive")
	}
	balance, err := l.credits.Refund(ctx, userID, amount, reference)
	if err != nil {
		return 0, err
	}
	l.logger.Info().Str("user_id", userID).Int("amount", amount).Int("balance", balance).Str("reference", reference).Msg("credit refunded")
	return balance, nil
}

// Refill grants amount credits, creating the account when needed.
func (l *Ledger) Refill(ctx context.Context, userID string, amount int, reference string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, domain.ValidationError("user_id is required")
	}
	if amount <= 0 {
		return 0, domain.ValidationError("refill amount must be positive")
	}
	balance, err := l.credits.Refill(ctx, userID, amount, reference)
	if err != nil {
		return 0, err
	}
	l.logger.Info().Str("user_id", userID).Int("amount", amount).Int("balance", balance).Str("reference", reference).Msg("credits refilled")
	return balance, nil
}

// Balance returns the account, or a zero free-tier account when none exists.
func (l *Ledger) Balance(ctx context.Context, userID string) (*domain.CreditAccount, error) {
	account, err := l.credits.Get(ctx, userID)
	if err != nil {
		if domain.IsNotFound(err) {
			return &domain.CreditAccount{UserID: userID, Tier: domain.TierFree, Status: domain.AccountStatusActive}, nil
		}
		return nil, err
	}
	return account, nil
}

// Entries lists recent balance changes, newest first.
func (l *Ledger) Entries(ctx context.Context, userID string, limit int) ([]domain.CreditEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return l.credits.ListEntries(ctx, userID, limit)
}
