package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"songdrop/internal/adapter/memory"
	"songdrop/internal/domain"
)

func TestReserve_ConcurrentRequestsOnOneCredit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	l := New(store.Credits(), zerolog.Nop())
	if _, err := l.Refill(ctx, "user-1", 1, "seed"); err != nil {
		t.Fatalf("refill: %v", err)
	}

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Reserve(ctx, "user-1", "song")
			if err != nil {
				t.Errorf("reserve: %v", err)
				return
			}
			if ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	if granted.Load() != 1 {
		t.Fatalf("expected exactly one reservation, got %d", granted.Load())
	}
	account, err := l.Balance(ctx, "user-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if account.CreditsRemaining != 0 {
		t.Fatalf("expected balance 0, got %d", account.CreditsRemaining)
	}
}

func TestBalance_NeverNegativeUnderLoad(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	l := New(store.Credits(), zerolog.Nop())
	if _, err := l.Refill(ctx, "user-1", 10, "seed"); err != nil {
		t.Fatalf("refill: %v", err)
	}

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				if _, err := l.Refund(ctx, "user-1", 1, "refund"); err != nil {
					t.Errorf("refund: %v", err)
				}
				return
			}
			ok, err := l.Reserve(ctx, "user-1", "song")
			if err != nil {
				t.Errorf("reserve: %v", err)
			}
			if ok {
				granted.Add(1)
			}
		}(i)
	}
	wg.Wait()

	account, _ := l.Balance(ctx, "user-1")
	if account.CreditsRemaining < 0 {
		t.Fatalf("balance went negative: %d", account.CreditsRemaining)
	}
	if want := 10 + 10 - int(granted.Load()); account.CreditsRemaining != want {
		t.Fatalf("expected balance %d, got %d", want, account.CreditsRemaining)
	}
}

func TestRefund_RequiresUser(t *testing.T) {
	l := New(memory.NewStore().Credits(), zerolog.Nop())
	if _, err := l.Refund(context.Background(), " ", 1, "x"); !domain.HasTextCode(err, domain.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRefund_RejectsNonPositiveAmount(t *testing.T) {
	l := New(memory.NewStore().Credits(), zerolog.Nop())
	_, err := l.Refund(context.Background(), "user-1", 0, "x")
	if !domain.HasTextCode(err, domain.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBalance_UnknownUserIsEmptyFreeAccount(t *testing.T) {
	l := New(memory.NewStore().Credits(), zerolog.Nop())
	account, err := l.Balance(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if account.CreditsRemaining != 0 || account.Tier != domain.TierFree {
		t.Fatalf("unexpected account: %+v", account)
	}
}

func TestAllowance(t *testing.T) {
	cases := map[domain.Tier]int{
		domain.TierFree:    0,
		domain.TierStarter: 5,
		domain.TierCreator: 15,
		domain.TierPro:     40,
	}
	for tier, want := range cases {
		if got := Allowance(tier); got != want {
			t.Fatalf("Allowance(%s) = %d, want %d", tier, got, want)
		}
	}
}
