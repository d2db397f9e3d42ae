// Package queue persists background jobs and hands them to workers exactly once.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"songdrop/internal/domain"
	"songdrop/internal/infra"
)

// DefaultLease bounds how long a claim stays valid before ReclaimExpired may
// hand the job to another worker.
const DefaultLease = 5 * time.Minute

// Queue wraps a job repository with id and lease management.
type Queue struct {
	jobs   domain.JobRepository
	lease  time.Duration
	now    func() time.Time
	logger infra.Logger
}

// Option configures a Queue.
type Option func(*Queue)

// WithLease overrides DefaultLease.
func WithLease(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.lease = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New creates a queue over the given repository.
func New(jobs domain.JobRepository, logger infra.Logger, opts ...Option) *Queue {
	q := &Queue{jobs: jobs, lease: DefaultLease, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// ForStore returns a queue with the same settings bound to store.
func (q *Queue) ForStore(store domain.Store) *Queue {
	c := *q
	c.jobs = store.Jobs()
	return &c
}

// Enqueue validates payload and inserts a pending job.
func (q *Queue) Enqueue(ctx context.Context, ownerKey string, payload domain.JobPayload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", domain.ValidationError(err.Error())
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", domain.EnqueueError(err)
	}
	job := &domain.Job{
		ID:       uuid.NewString(),
		OwnerKey: ownerKey,
		Type:     payload.Type,
		Payload:  raw,
	}
	if err := q.jobs.Insert(ctx, job); err != nil {
		return "", domain.EnqueueError(err)
	}
	q.logger.Info().Str("job_id", job.ID).Str("type", string(job.Type)).Str("owner", ownerKey).Msg("job enqueued")
	return job.ID, nil
}

// ClaimPending claims the oldest pending job. It returns (nil, nil) when the
// queue is empty.
func (q *Queue) ClaimPending(ctx context.Context) (*domain.Job, error) {
	job, err := q.jobs.ClaimNext(ctx, uuid.NewString(), q.now().Add(q.lease))
	if err != nil {
		if errors.Is(err, domain.ErrNoJobAvailable) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// MarkSucceeded completes a claimed job. It reports false when the claim is no
// longer held.
func (q *Queue) MarkSucceeded(ctx context.Context, job *domain.Job, resultRef string) (bool, error) {
	return q.jobs.MarkSucceeded(ctx, job.ID, job.ClaimToken, resultRef)
}

// MarkFailed fails a claimed job. It reports false when the claim is no longer
// held.
func (q *Queue) MarkFailed(ctx context.Context, job *domain.Job, reason string) (bool, error) {
	return q.jobs.MarkFailed(ctx, job.ID, job.ClaimToken, reason)
}

// ReclaimExpired releases lapsed claims. Jobs that used up maxAttempts are
// failed and returned so the caller can settle their reservations.
func (q *Queue) ReclaimExpired(ctx context.Context, maxAttempts int) (int, []domain.Job, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	requeued, failed, err := q.jobs.ReclaimExpired(ctx, q.now(), maxAttempts)
	if err != nil {
		return 0, nil, err
	}
	if requeued > 0 || len(failed) > 0 {
		q.logger.Warn().Int("requeued", requeued).Int("failed", len(failed)).Msg("reclaimed expired job leases")
	}
	return requeued, failed, nil
}

// Get returns a job by id.
func (q *Queue) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	return q.jobs.GetByID(ctx, jobID)
}
