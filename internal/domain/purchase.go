package domain

import "time"

// PurchaseStatus enumerates purchase intent states.
type PurchaseStatus string

const (
	PurchaseStatusPending PurchaseStatus = "pending"
	PurchaseStatusPaid    PurchaseStatus = "paid"
)

// Purchase is a checkout intent that is fulfilled by matching a catalog item
// once the payment is confirmed.
type Purchase struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	Modes          []string       `json:"modes"`
	MusicStyles    []string       `json:"music_styles"`
	Story          string         `json:"story"`
	Status         PurchaseStatus `json:"status"`
	AssignedSongID string         `json:"assigned_song_id,omitempty"`
	TransactionID  string         `json:"transaction_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	PaidAt         *time.Time     `json:"paid_at,omitempty"`
}

// Filters returns the first mode and music style, the granularity the matcher
// works with.
func (p Purchase) Filters() MatchFilters {
	var f MatchFilters
	if len(p.Modes) > 0 {
		f.Mode = p.Modes[0]
	}
	if len(p.MusicStyles) > 0 {
		f.MusicStyle = p.MusicStyles[0]
	}
	return f
}
