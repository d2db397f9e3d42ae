package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"songdrop/internal/domain"
	"songdrop/internal/infra"
	"songdrop/internal/sqlinline"
)

// CreditRepositoryPG implements domain.CreditRepository. Every mutation is a
// single statement so concurrent requests for the same user stay correct.
type CreditRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewCreditRepository creates a credit repository backed by PostgreSQL.
func NewCreditRepository(sql infra.SQLExecutor) *CreditRepositoryPG {
	return &CreditRepositoryPG{sql: sql}
}

// Reserve decrements the balance by one when it is positive.
func (r *CreditRepositoryPG) Reserve(ctx context.Context, userID, reference string) (bool, error) {
	var balance int
	if err := r.sql.QueryRow(ctx, sqlinline.QReserveCredit, userID, reference).Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Refund adds amount back to an existing account.
func (r *CreditRepositoryPG) Refund(ctx context.Context, userID string, amount int, reference string) (int, error) {
	var balance int
	if err := r.sql.QueryRow(ctx, sqlinline.QRefundCredit, userID, amount, reference).Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.NotFoundError("credit account")
		}
		return 0, fmt.Errorf("refund credit: %w", err)
	}
	return balance, nil
}

// Refill adds amount, creating the account when needed.
func (r *CreditRepositoryPG) Refill(ctx context.Context, userID string, amount int, reference string) (int, error) {
	var balance int
	if err := r.sql.QueryRow(ctx, sqlinline.QRefillCredits, userID, amount, reference).Scan(&balance); err != nil {
		return 0, fmt.Errorf("refill credits: %w", err)
	}
	return balance, nil
}

// UpsertSubscription creates or updates the subscription fields by user id.
func (r *CreditRepositoryPG) UpsertSubscription(ctx context.Context, update domain.SubscriptionUpdate) (*domain.CreditAccount, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertSubscription,
		update.UserID,
		string(update.Tier),
		string(update.Status),
		update.SubscriptionID,
		update.RenewsAt,
	)
	return scanAccount(row)
}

// Get fetches an account by user id.
func (r *CreditRepositoryPG) Get(ctx context.Context, userID string) (*domain.CreditAccount, error) {
	account, err := scanAccount(r.sql.QueryRow(ctx, sqlinline.QSelectCreditAccount, userID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.NotFoundError("credit account")
		}
		return nil, err
	}
	return account, nil
}

// ListEntries returns the newest audit entries first.
func (r *CreditRepositoryPG) ListEntries(ctx context.Context, userID string, limit int) ([]domain.CreditEntry, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListCreditEntries, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CreditEntry
	for rows.Next() {
		var entry domain.CreditEntry
		var reason string
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Delta, &reason, &entry.Reference, &entry.BalanceAfter, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Reason = domain.CreditReason(reason)
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanAccount(row pgx.Row) (*domain.CreditAccount, error) {
	var a domain.CreditAccount
	var tier, status string
	if err := row.Scan(&a.UserID, &tier, &a.CreditsRemaining, &status, &a.SubscriptionID, &a.RenewsAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Tier = domain.Tier(tier)
	a.Status = domain.AccountStatus(status)
	return &a, nil
}
