package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JobType enumerates supported background work categories.
type JobType string

const (
	JobTypeGenerate JobType = "generate"
	JobTypeRender   JobType = "render"
)

// Valid reports whether the job type is one the workers know how to execute.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeGenerate, JobTypeRender:
		return true
	default:
		return false
	}
}

// JobStatus enumerates job lifecycle states: pending -> claimed -> succeeded|failed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusClaimed   JobStatus = "claimed"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// Failure reason codes recorded on failed jobs.
const (
	JobReasonProviderDisabled = "provider_disabled"
	JobReasonLeaseExpired     = "lease_expired"
	JobReasonExecution        = "execution_failed"
	JobReasonInvalidPayload   = "invalid_payload"
	JobReasonRefundFailed     = "refund_failed"
)

// Job is a unit of background work. Only the worker holding ClaimToken may
// move it out of the claimed state.
type Job struct {
	ID             string          `json:"id"`
	OwnerKey       string          `json:"owner_key"`
	Type           JobType         `json:"type"`
	Payload        json.RawMessage `json:"payload"`
	Status         JobStatus       `json:"status"`
	Attempts       int             `json:"attempts"`
	ClaimToken     string          `json:"-"`
	LeaseExpiresAt *time.Time      `json:"lease_expires_at,omitempty"`
	ResultRef      string          `json:"result_ref,omitempty"`
	LastError      string          `json:"last_error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// JobPayload is the JSON document stored with every job. A job that carries a
// credit reservation must set ReservedCredit and UserID so failure handling can
// refund it.
type JobPayload struct {
	Type           JobType `json:"type"`
	UserID         string  `json:"user_id,omitempty"`
	SongID         string  `json:"song_id,omitempty"`
	ReservedCredit bool    `json:"reserved_credit,omitempty"`
	Story          string  `json:"story,omitempty"`
	Mode           string  `json:"mode,omitempty"`
	MusicStyle     string  `json:"music_style,omitempty"`
}

// Validate checks the type specific required fields.
func (p JobPayload) Validate() error {
	if !p.Type.Valid() {
		return fmt.Errorf("unsupported job type %q", p.Type)
	}
	if p.ReservedCredit && strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("reserved credit requires user_id")
	}
	if strings.TrimSpace(p.SongID) == "" {
		return fmt.Errorf("%s job requires song_id", p.Type)
	}
	return nil
}

// DecodeJobPayload parses the raw payload of a job.
func DecodeJobPayload(raw json.RawMessage) (JobPayload, error) {
	var payload JobPayload
	if len(raw) == 0 {
		return payload, fmt.Errorf("empty job payload")
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("decode job payload: %w", err)
	}
	return payload, nil
}
