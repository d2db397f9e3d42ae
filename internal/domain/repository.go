package domain

import (
	"context"
	"time"
)

// JobRepository persists jobs and implements the claim protocol.
type JobRepository interface {
	Insert(ctx context.Context, job *Job) error
	// ClaimNext atomically moves the oldest pending job to claimed. It returns
	// ErrNoJobAvailable when nothing is pending.
	ClaimNext(ctx context.Context, claimToken string, leaseUntil time.Time) (*Job, error)
	// MarkSucceeded and MarkFailed report false when the job is not claimed by
	// claimToken (already terminal or reclaimed).
	MarkSucceeded(ctx context.Context, jobID, claimToken, resultRef string) (bool, error)
	MarkFailed(ctx context.Context, jobID, claimToken, reason string) (bool, error)
	// ReclaimExpired returns lapsed claims to pending, or fails them once
	// maxAttempts is reached. The failed jobs are returned.
	ReclaimExpired(ctx context.Context, now time.Time, maxAttempts int) (requeued int, failed []Job, err error)
	GetByID(ctx context.Context, jobID string) (*Job, error)
}

// CreditRepository mutates credit accounts with single atomic statements.
type CreditRepository interface {
	// Reserve decrements by one when the balance is positive and reports
	// whether it did.
	Reserve(ctx context.Context, userID, reference string) (bool, error)
	Refund(ctx context.Context, userID string, amount int, reference string) (int, error)
	Refill(ctx context.Context, userID string, amount int, reference string) (int, error)
	UpsertSubscription(ctx context.Context, update SubscriptionUpdate) (*CreditAccount, error)
	Get(ctx context.Context, userID string) (*CreditAccount, error)
	ListEntries(ctx context.Context, userID string, limit int) ([]CreditEntry, error)
}

// TransactionRepository stores provider events.
type TransactionRepository interface {
	// InsertIfAbsent reports false when a transaction with the same id exists.
	InsertIfAbsent(ctx context.Context, tx *Transaction) (bool, error)
	Annotate(ctx context.Context, id string, annotation TransactionAnnotation) error
	GetByID(ctx context.Context, id string) (*Transaction, error)
}

// SongRepository stores generated songs.
type SongRepository interface {
	Create(ctx context.Context, song *Song) error
	GetByID(ctx context.Context, id string) (*Song, error)
	// MarkPurchased flips IsPurchased and reports false when it was already set.
	MarkPurchased(ctx context.Context, songID, transactionID, userID string) (bool, error)
	SetMedia(ctx context.Context, songID string, media SongMedia) error
}

// PurchaseRepository stores purchase intents.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *Purchase) error
	GetByID(ctx context.Context, id string) (*Purchase, error)
	// MarkPaid moves a pending purchase to paid and reports false when it was
	// already paid.
	MarkPaid(ctx context.Context, purchaseID, assignedSongID, transactionID string) (bool, error)
}

// Store groups the repositories and runs functions inside one atomic unit.
// Calling WithinTx on a transactional Store opens a nested savepoint.
type Store interface {
	Jobs() JobRepository
	Credits() CreditRepository
	Transactions() TransactionRepository
	Songs() SongRepository
	Purchases() PurchaseRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
