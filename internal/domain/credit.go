package domain

import "time"

// Tier enumerates subscription tiers.
type Tier string

const (
	TierFree    Tier = "free"
	TierStarter Tier = "starter"
	TierCreator Tier = "creator"
	TierPro     Tier = "pro"
)

// AccountStatus enumerates credit account states.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusCanceled AccountStatus = "canceled"
	AccountStatusPaused   AccountStatus = "paused"
	AccountStatusExpired  AccountStatus = "expired"
)

// CreditAccount holds a user's generation entitlement. CreditsRemaining never
// goes below zero.
type CreditAccount struct {
	UserID           string        `json:"user_id"`
	Tier             Tier          `json:"tier"`
	CreditsRemaining int           `json:"credits_remaining"`
	Status           AccountStatus `json:"status"`
	SubscriptionID   string        `json:"subscription_id,omitempty"`
	RenewsAt         *time.Time    `json:"renews_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// CreditReason labels an entry in the credit audit trail.
type CreditReason string

const (
	CreditReasonReserve CreditReason = "reserve"
	CreditReasonRefund  CreditReason = "refund"
	CreditReasonRefill  CreditReason = "refill"
)

// CreditEntry is an append-only record of a balance change.
type CreditEntry struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Delta        int          `json:"delta"`
	Reason       CreditReason `json:"reason"`
	Reference    string       `json:"reference"`
	BalanceAfter int          `json:"balance_after"`
	CreatedAt    time.Time    `json:"created_at"`
}

// SubscriptionUpdate carries the fields a subscription webhook may change.
type SubscriptionUpdate struct {
	UserID         string
	SubscriptionID string
	Tier           Tier
	Status         AccountStatus
	RenewsAt       *time.Time
}
