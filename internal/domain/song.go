package domain

import "time"

// Song is a generated clip. IsPurchased flips to true exactly once.
type Song struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	Story                 string    `json:"story"`
	Mode                  string    `json:"mode"`
	Style                 string    `json:"style"`
	PreviewURL            string    `json:"preview_url,omitempty"`
	FullURL               string    `json:"full_url,omitempty"`
	VideoURL              string    `json:"video_url,omitempty"`
	IsPurchased           bool      `json:"is_purchased"`
	PurchaseTransactionID string    `json:"purchase_transaction_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Redacted returns a copy with the paid media URLs cleared until the song is
// purchased.
func (s Song) Redacted() Song {
	if !s.IsPurchased {
		s.FullURL = ""
		s.VideoURL = ""
	}
	return s
}

// SongMedia holds the URLs produced by background jobs. Empty fields are left
// unchanged.
type SongMedia struct {
	PreviewURL string
	FullURL    string
	VideoURL   string
}
