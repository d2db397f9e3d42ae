package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"songdrop/internal/domain"
	"songdrop/internal/infra"
	"songdrop/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Insert stores a new pending job.
func (r *JobRepositoryPG) Insert(ctx context.Context, job *domain.Job) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertJob, job.ID, job.OwnerKey, string(job.Type), []byte(job.Payload))
	if err := row.Scan(&job.CreatedAt); err != nil {
		if infra.IsUniqueViolation(err) {
			return fmt.Errorf("job %s already exists: %w", job.ID, err)
		}
		return err
	}
	job.Status = domain.JobStatusPending
	job.UpdatedAt = job.CreatedAt
	return nil
}

// ClaimNext claims the oldest pending job using `for update skip locked`.
func (r *JobRepositoryPG) ClaimNext(ctx context.Context, claimToken string, leaseUntil time.Time) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QWorkerClaimJob, claimToken, leaseUntil.UTC())
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNoJobAvailable
		}
		return nil, err
	}
	return job, nil
}

// MarkSucceeded finishes a claimed job.
func (r *JobRepositoryPG) MarkSucceeded(ctx context.Context, jobID, claimToken, resultRef string) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkJobSucceeded, jobID, claimToken, resultRef)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFailed fails a claimed job.
func (r *JobRepositoryPG) MarkFailed(ctx context.Context, jobID, claimToken, reason string) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkJobFailed, jobID, claimToken, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReclaimExpired fails exhausted lapsed claims first, then requeues the rest.
func (r *JobRepositoryPG) ReclaimExpired(ctx context.Context, now time.Time, maxAttempts int) (int, []domain.Job, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QFailExpiredJobs, now.UTC(), maxAttempts)
	if err != nil {
		return 0, nil, err
	}
	var failed []domain.Job
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			rows.Close()
			return 0, nil, scanErr
		}
		failed = append(failed, *job)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}

	tag, err := r.sql.Exec(ctx, sqlinline.QRequeueExpiredJobs, now.UTC(), maxAttempts)
	if err != nil {
		return 0, failed, err
	}
	return int(tag.RowsAffected()), failed, nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QSelectJobByID, jobID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.NotFoundError("job")
		}
		return nil, err
	}
	return job, nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var jobType, status string
	var payload []byte
	if err := row.Scan(
		&job.ID,
		&job.OwnerKey,
		&jobType,
		&payload,
		&status,
		&job.Attempts,
		&job.ClaimToken,
		&job.LeaseExpiresAt,
		&job.ResultRef,
		&job.LastError,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Type = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)
	job.Payload = append([]byte(nil), payload...)
	return &job, nil
}
