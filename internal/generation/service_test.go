package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"songdrop/internal/adapter/memory"
	"songdrop/internal/domain"
	"songdrop/internal/ledger"
	"songdrop/internal/queue"
)

func newService() (*Service, *memory.Store, *ledger.Ledger) {
	store := memory.NewStore()
	l := ledger.New(store.Credits(), zerolog.Nop())
	q := queue.New(store.Jobs(), zerolog.Nop())
	return NewService(store, q, l, zerolog.Nop()), store, l
}

func TestRequest_ReservesAndEnqueues(t *testing.T) {
	ctx := context.Background()
	svc, store, l := newService()
	if _, err := l.Refill(ctx, "user-1", 1, "seed"); err != nil {
		t.Fatalf("refill: %v", err)
	}

	accepted, err := svc.Request(ctx, "user-1", SongRequest{Story: "we met in the rain", Mode: "Healing"})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	job, err := store.Jobs().GetByID(ctx, accepted.JobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	payload, err := domain.DecodeJobPayload(job.Payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !payload.ReservedCredit || payload.UserID != "user-1" || payload.SongID != accepted.SongID || payload.Mode != "healing" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if _, err := store.Songs().GetByID(ctx, accepted.SongID); err != nil {
		t.Fatalf("expected song row: %v", err)
	}
	account, _ := l.Balance(ctx, "user-1")
	if account.CreditsRemaining != 0 {
		t.Fatalf("expected balance 0, got %d", account.CreditsRemaining)
	}
}

func TestRequest_InsufficientCreditCreatesNothing(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService()

	_, err := svc.Request(ctx, "user-1", SongRequest{Story: "a story"})
	if !domain.HasTextCode(err, domain.CodeInsufficientCredit) {
		t.Fatalf("expected insufficient credit, got %v", err)
	}
	if job, _ := store.Jobs().ClaimNext(ctx, "t", time.Now()); job != nil {
		t.Fatalf("expected no job, got %+v", job)
	}
}

type failingJobs struct {
	domain.JobRepository
}

func (failingJobs) Insert(context.Context, *domain.Job) error {
	return errors.New("connection reset")
}

// failingJobsStore hands out a job repository that cannot insert.
type failingJobsStore struct {
	domain.Store
}

func (s failingJobsStore) Jobs() domain.JobRepository {
	return failingJobs{s.Store.Jobs()}
}

func (s failingJobsStore) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx domain.Store) error {
		return fn(failingJobsStore{tx})
	})
}

func TestRequest_EnqueueFailureRollsBackReservation(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	l := ledger.New(mem.Credits(), zerolog.Nop())
	if _, err := l.Refill(ctx, "user-1", 1, "seed"); err != nil {
		t.Fatalf("refill: %v", err)
	}
	store := failingJobsStore{mem}
	svc := NewService(store, queue.New(store.Jobs(), zerolog.Nop()), l, zerolog.Nop())

	_, err := svc.Request(ctx, "user-1", SongRequest{Story: "x"})
	if !domain.HasTextCode(err, domain.CodeEnqueue) {
		t.Fatalf("expected enqueue error, got %v", err)
	}
	account, _ := l.Balance(ctx, "user-1")
	if account.CreditsRemaining != 1 {
		t.Fatalf("expected reservation rolled back, got balance %d", account.CreditsRemaining)
	}
	entries, _ := l.Entries(ctx, "user-1", 10)
	if len(entries) != 1 {
		t.Fatalf("expected only the seed entry, got %+v", entries)
	}
}

func TestRequest_ValidatesStory(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.Request(context.Background(), "user-1", SongRequest{Story: "   "})
	if !domain.HasTextCode(err, domain.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequestRender_RequiresPurchasedOwnedSong(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService()
	if err := store.Songs().Create(ctx, &domain.Song{ID: "s1", UserID: "user-1", FullURL: "http://x/full.wav"}); err != nil {
		t.Fatalf("create song: %v", err)
	}

	if _, err := svc.RequestRender(ctx, "user-2", "s1"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found for foreign song, got %v", err)
	}
	if _, err := svc.RequestRender(ctx, "user-1", "s1"); !domain.HasTextCode(err, domain.CodeValidation) {
		t.Fatalf("expected validation error for unpurchased song, got %v", err)
	}
	if _, err := store.Songs().MarkPurchased(ctx, "s1", "evt_1", ""); err != nil {
		t.Fatalf("mark purchased: %v", err)
	}
	accepted, err := svc.RequestRender(ctx, "user-1", "s1")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	job, err := svc.Job(ctx, "user-1", accepted.JobID)
	if err != nil || job.Type != domain.JobTypeRender {
		t.Fatalf("unexpected job: %+v %v", job, err)
	}
	if _, err := svc.Job(ctx, "user-2", accepted.JobID); !domain.IsNotFound(err) {
		t.Fatalf("expected foreign job lookup to be hidden, got %v", err)
	}
}

func TestCreatePurchase_NormalizesFilters(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService()
	p, err := svc.CreatePurchase(ctx, "user-1", PurchaseRequest{Modes: []string{" Petty ", ""}, MusicStyles: []string{"Pop"}, Story: "ghosted"})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	stored, err := store.Purchases().GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get purchase: %v", err)
	}
	if stored.Status != domain.PurchaseStatusPending || len(stored.Modes) != 1 || stored.Modes[0] != "petty" || stored.MusicStyles[0] != "pop" {
		t.Fatalf("unexpected purchase: %+v", stored)
	}
}
