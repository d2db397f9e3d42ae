// Package worker executes queued jobs. Each process runs one polling consumer;
// correctness across processes rests on the atomic claim in the queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"songdrop/internal/domain"
	"songdrop/internal/infra"
	"songdrop/internal/ledger"
	"songdrop/internal/providers/audio"
	"songdrop/internal/providers/video"
	"songdrop/internal/queue"
)

const (
	defaultPollInterval    = 2 * time.Second
	defaultReclaimInterval = 30 * time.Second
	defaultMaxAttempts     = 3
)

var errClaimLost = errors.New("job claim no longer held")

// Capabilities lists job types whose backing provider is switched off. Jobs of
// a disabled type fail fast with domain.JobReasonProviderDisabled.
type Capabilities struct {
	Disabled map[domain.JobType]bool
}

// Enabled reports whether jobs of type t may execute.
func (c Capabilities) Enabled(t domain.JobType) bool {
	return !c.Disabled[t]
}

// MediaStore persists generated media.
type MediaStore interface {
	Put(ctx context.Context, key string, data []byte) (string, string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	KeyFromURL(u string) (string, bool)
}

// Deps are the collaborators of a Worker.
type Deps struct {
	Store     domain.Store
	Queue     *queue.Queue
	Ledger    *ledger.Ledger
	Generator audio.Generator
	Renderer  video.Renderer
	Media     MediaStore
	Logger    infra.Logger
}

// Options tune the polling loop.
type Options struct {
	PollInterval    time.Duration
	ReclaimInterval time.Duration
	MaxAttempts     int
	Capabilities    Capabilities
}

// Worker claims and executes jobs.
type Worker struct {
	Deps
	opts Options
}

// New creates a worker. Zero options fall back to defaults.
func New(deps Deps, opts Options) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.ReclaimInterval <= 0 {
		opts.ReclaimInterval = defaultReclaimInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	return &Worker{Deps: deps, opts: opts}
}

// Run polls until ctx is canceled. When no job is pending it sleeps for the
// poll interval; lapsed leases are reclaimed every reclaim interval.
func (w *Worker) Run(ctx context.Context) error {
	w.Logger.Info().
		Dur("poll_interval", w.opts.PollInterval).
		Dur("reclaim_interval", w.opts.ReclaimInterval).
		Msg("worker: started")

	var lastReclaim time.Time
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if time.Since(lastReclaim) >= w.opts.ReclaimInterval {
			if err := w.ReclaimExpired(ctx); err != nil && ctx.Err() == nil {
				w.Logger.Error().Err(err).Msg("worker: reclaim failed")
			}
			lastReclaim = time.Now()
		}

		processed, err := w.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			w.Logger.Error().Err(err).Msg("worker: failed to claim job")
		}
		if processed && err == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.opts.PollInterval):
		}
	}
}

// RunOnce claims and handles at most one job. It reports whether a job was
// found.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.Queue.ClaimPending(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	w.handleJob(ctx, job)
	return true, nil
}

// ReclaimExpired releases lapsed claims and refunds reservations of the jobs
// it fails, in one transaction.
func (w *Worker) ReclaimExpired(ctx context.Context) error {
	return w.Store.WithinTx(ctx, func(tx domain.Store) error {
		_, failed, err := w.Queue.ForStore(tx).ReclaimExpired(ctx, w.opts.MaxAttempts)
		if err != nil {
			return err
		}
		credits := w.Ledger.ForStore(tx)
		for _, job := range failed {
			payload, err := domain.DecodeJobPayload(job.Payload)
			if err != nil || !payload.ReservedCredit || payload.UserID == "" {
				continue
			}
			if _, err := credits.Refund(ctx, payload.UserID, 1, refundReference(job.ID)); err != nil {
				return fmt.Errorf("refund expired job %s: %w", job.ID, err)
			}
			w.Logger.Warn().Str("job_id", job.ID).Str("user_id", payload.UserID).Msg("worker: lease expired, credit refunded")
		}
		return nil
	})
}

func (w *Worker) handleJob(ctx context.Context, job *domain.Job) {
	log := w.Logger.With().Str("job_id", job.ID).Str("type", string(job.Type)).Int("attempt", job.Attempts).Logger()
	log.Info().Msg("worker: picked job")

	payload, err := domain.DecodeJobPayload(job.Payload)
	if err == nil {
		err = payload.Validate()
	}
	if err != nil {
		w.fail(ctx, job, payload, domain.JobReasonInvalidPayload, err)
		return
	}

	if !w.opts.Capabilities.Enabled(job.Type) {
		w.fail(ctx, job, payload, domain.JobReasonProviderDisabled, domain.ProviderDisabledError(job.Type))
		return
	}

	result, err := w.dispatch(ctx, job, payload)
	if err != nil {
		w.fail(ctx, job, payload, domain.JobReasonExecution, err)
		return
	}

	err = w.Store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Songs().SetMedia(ctx, payload.SongID, result.media); err != nil {
			return err
		}
		ok, err := w.Queue.ForStore(tx).MarkSucceeded(ctx, job, result.ref)
		if err != nil {
			return err
		}
		if !ok {
			return errClaimLost
		}
		return nil
	})
	switch {
	case errors.Is(err, errClaimLost):
		log.Warn().Msg("worker: claim lost before completion, result discarded")
	case err != nil:
		log.Error().Err(err).Msg("worker: persist result failed")
		w.fail(ctx, job, payload, domain.JobReasonExecution, err)
	default:
		log.Info().Str("result_ref", result.ref).Msg("worker: job succeeded")
	}
}

// fail refunds the reservation carried by payload and marks the job failed in
// one transaction. Nothing is applied when the claim was lost. When the refund
// itself fails the job is still failed, with domain.JobReasonRefundFailed, so
// it is never picked up again.
func (w *Worker) fail(ctx context.Context, job *domain.Job, payload domain.JobPayload, reason string, cause error) {
	log := w.Logger.With().Str("job_id", job.ID).Str("reason", reason).Logger()
	log.Error().Err(cause).Msg("worker: job failed")

	lastError := reason
	if cause != nil && reason != domain.JobReasonProviderDisabled {
		lastError = reason + ": " + cause.Error()
	}

	var refundErr error
	err := w.Store.WithinTx(ctx, func(tx domain.Store) error {
		if payload.ReservedCredit && payload.UserID != "" {
			if _, err := w.Ledger.ForStore(tx).Refund(ctx, payload.UserID, 1, refundReference(job.ID)); err != nil {
				refundErr = err
				return fmt.Errorf("refund credit: %w", err)
			}
		}
		return w.markFailed(ctx, tx, job, lastError)
	})
	if refundErr != nil {
		log.Error().Err(refundErr).Str("user_id", payload.UserID).Msg("worker: refund failed, credit stays reserved")
		err = w.Store.WithinTx(ctx, func(tx domain.Store) error {
			return w.markFailed(ctx, tx, job, domain.JobReasonRefundFailed+": "+refundErr.Error())
		})
	}
	switch {
	case errors.Is(err, errClaimLost):
		log.Warn().Msg("worker: claim lost, failure not recorded")
	case err != nil:
		log.Error().Err(err).Msg("worker: update status failed")
	}
}

func (w *Worker) markFailed(ctx context.Context, tx domain.Store, job *domain.Job, lastError string) error {
	ok, err := w.Queue.ForStore(tx).MarkFailed(ctx, job, lastError)
	if err != nil {
		return err
	}
	if !ok {
		return errClaimLost
	}
	return nil
}

func refundReference(jobID string) string {
	return "job:" + jobID
}
