package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"songdrop/internal/adapter/memory"
	"songdrop/internal/domain"
)

func generatePayload(song string) domain.JobPayload {
	return domain.JobPayload{Type: domain.JobTypeGenerate, UserID: "user-1", SongID: song, ReservedCredit: true}
}

func TestClaimPending_ConcurrentWorkersClaimOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	q := New(store.Jobs(), zerolog.Nop())

	const jobs = 20
	for i := 0; i < jobs; i++ {
		if _, err := q.Enqueue(ctx, "user-1", generatePayload("song")); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	var mu sync.Mutex
	seen := map[string]int{}
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, err := q.ClaimPending(ctx)
				if err != nil {
					t.Errorf("claim: %v", err)
					return
				}
				if job == nil {
					return
				}
				mu.Lock()
				seen[job.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != jobs {
		t.Fatalf("expected %d claimed jobs, got %d", jobs, len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("job %s claimed %d times", id, n)
		}
	}
}

func TestClaimPending_SingleJobTwoWorkers(t *testing.T) {
	ctx := context.Background()
	q := New(memory.NewStore().Jobs(), zerolog.Nop())
	if _, err := q.Enqueue(ctx, "user-1", generatePayload("song-1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	results := make(chan *domain.Job, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job, err := q.ClaimPending(ctx)
			if err != nil {
				t.Errorf("claim: %v", err)
			}
			results <- job
		}()
	}
	wg.Wait()
	close(results)

	var claimed int
	for job := range results {
		if job != nil {
			claimed++
			if job.Attempts != 1 {
				t.Fatalf("expected attempts 1, got %d", job.Attempts)
			}
		}
	}
	if claimed != 1 {
		t.Fatalf("expected one claim, got %d", claimed)
	}
}

func TestMarkSucceeded_TerminalJobIsNoop(t *testing.T) {
	ctx := context.Background()
	q := New(memory.NewStore().Jobs(), zerolog.Nop())
	id, err := q.Enqueue(ctx, "user-1", generatePayload("song-1"))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	job, err := q.ClaimPending(ctx)
	if err != nil || job == nil || job.ID != id {
		t.Fatalf("claim: %v %v", job, err)
	}

	ok, err := q.MarkSucceeded(ctx, job, "songs/song-1")
	if err != nil || !ok {
		t.Fatalf("first mark: ok=%v err=%v", ok, err)
	}
	ok, err = q.MarkFailed(ctx, job, "late")
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if ok {
		t.Fatal("expected terminal job to reject transition")
	}

	stored, _ := q.Get(ctx, id)
	if stored.Status != domain.JobStatusSucceeded || stored.ResultRef != "songs/song-1" {
		t.Fatalf("unexpected job: %+v", stored)
	}
}

func TestEnqueue_RejectsInvalidPayload(t *testing.T) {
	q := New(memory.NewStore().Jobs(), zerolog.Nop())
	_, err := q.Enqueue(context.Background(), "user-1", domain.JobPayload{Type: "transcode", SongID: "s"})
	if !domain.HasTextCode(err, domain.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type failingJobs struct {
	domain.JobRepository
}

func (failingJobs) Insert(context.Context, *domain.Job) error {
	return errors.New("connection reset")
}

func TestEnqueue_WrapsInsertFailure(t *testing.T) {
	q := New(failingJobs{}, zerolog.Nop())
	_, err := q.Enqueue(context.Background(), "user-1", generatePayload("song-1"))
	if !domain.HasTextCode(err, domain.CodeEnqueue) {
		t.Fatalf("expected enqueue error, got %v", err)
	}
}

func TestReclaimExpired_RequeuesThenFails(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	q := New(memory.NewStore(memory.WithClock(clock)).Jobs(), zerolog.Nop(), WithClock(clock), WithLease(time.Minute))

	id, err := q.Enqueue(ctx, "user-1", generatePayload("song-1"))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	first, _ := q.ClaimPending(ctx)

	now = now.Add(2 * time.Minute)
	requeued, failed, err := q.ReclaimExpired(ctx, 2)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if requeued != 1 || len(failed) != 0 {
		t.Fatalf("expected one requeue, got %d / %d", requeued, len(failed))
	}

	// the original holder lost its claim
	if ok, _ := q.MarkSucceeded(ctx, first, "stale"); ok {
		t.Fatal("stale claim must not complete the job")
	}

	second, _ := q.ClaimPending(ctx)
	if second == nil || second.ID != id || second.Attempts != 2 {
		t.Fatalf("unexpected second claim: %+v", second)
	}

	now = now.Add(2 * time.Minute)
	requeued, failed, err = q.ReclaimExpired(ctx, 2)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if requeued != 0 || len(failed) != 1 || failed[0].LastError != domain.JobReasonLeaseExpired {
		t.Fatalf("expected lease_expired failure, got %d / %+v", requeued, failed)
	}
}
