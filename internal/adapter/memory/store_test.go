package memory

import (
	"context"
	"errors"
	"testing"

	"songdrop/internal/domain"
)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if _, err := store.Credits().Refill(ctx, "user-1", 3, "seed"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx domain.Store) error {
		if _, err := tx.Credits().Reserve(ctx, "user-1", "song-1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	account, err := store.Credits().Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if account.CreditsRemaining != 3 {
		t.Fatalf("expected balance 3 after rollback, got %d", account.CreditsRemaining)
	}
}

func TestWithinTx_NestedFailureKeepsOuterWork(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.WithinTx(ctx, func(tx domain.Store) error {
		if _, err := tx.Transactions().InsertIfAbsent(ctx, &domain.Transaction{ID: "evt_1", EventType: "payment.succeeded"}); err != nil {
			return err
		}
		inner := tx.WithinTx(ctx, func(sp domain.Store) error {
			if _, err := sp.Credits().Refill(ctx, "user-1", 5, "evt_1"); err != nil {
				return err
			}
			return errors.New("handler failed")
		})
		if inner == nil {
			t.Fatal("expected inner error")
		}
		return tx.Transactions().Annotate(ctx, "evt_1", domain.TransactionAnnotation{Status: domain.TransactionStatusFailed})
	})
	if err != nil {
		t.Fatalf("outer tx: %v", err)
	}

	stored, err := store.Transactions().GetByID(ctx, "evt_1")
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if stored.Status != domain.TransactionStatusFailed {
		t.Fatalf("expected failed status, got %s", stored.Status)
	}
	if _, err := store.Credits().Get(ctx, "user-1"); !domain.IsNotFound(err) {
		t.Fatalf("expected savepoint work to be undone, got %v", err)
	}
}

func TestReserve_NeverNegative(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if _, err := store.Credits().Refill(ctx, "user-1", 1, "seed"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	first, _ := store.Credits().Reserve(ctx, "user-1", "a")
	second, _ := store.Credits().Reserve(ctx, "user-1", "b")
	if !first || second {
		t.Fatalf("expected first reserve only, got %v %v", first, second)
	}
	entries, err := store.Credits().ListEntries(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Reason != domain.CreditReasonReserve || entries[0].BalanceAfter != 0 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
