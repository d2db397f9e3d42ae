package domain

import (
	"encoding/json"
	"time"
)

// TransactionStatus enumerates the processing outcome of a provider event.
type TransactionStatus string

const (
	TransactionStatusReceived    TransactionStatus = "received"
	TransactionStatusProcessed   TransactionStatus = "processed"
	TransactionStatusFailed      TransactionStatus = "failed"
	TransactionStatusQuarantined TransactionStatus = "quarantined"
	TransactionStatusIgnored     TransactionStatus = "ignored"
)

// Transaction records one provider event. The ID is the provider event id and
// its existence is the deduplication marker.
type Transaction struct {
	ID             string            `json:"id"`
	EventType      string            `json:"event_type"`
	Status         TransactionStatus `json:"status"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	CustomData     json.RawMessage   `json:"custom_data,omitempty"`
	RawPayload     json.RawMessage   `json:"-"`
	SongID         string            `json:"song_id,omitempty"`
	PurchaseID     string            `json:"purchase_id,omitempty"`
	AssignedSongID string            `json:"assigned_song_id,omitempty"`
	Error          string            `json:"error,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// TransactionAnnotation lists the mutable columns of a transaction. Empty
// strings leave the stored value untouched.
type TransactionAnnotation struct {
	Status         TransactionStatus
	AssignedSongID string
	Error          string
}
