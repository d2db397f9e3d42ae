package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"songdrop/internal/domain"
)

// Kind is the classified meaning of a provider event type.
type Kind string

const (
	KindPaymentCompleted     Kind = "payment_completed"
	KindSubscriptionCreated  Kind = "subscription_created"
	KindSubscriptionUpdated  Kind = "subscription_updated"
	KindSubscriptionCanceled Kind = "subscription_canceled"
	KindSubscriptionPaused   Kind = "subscription_paused"
	KindSubscriptionExpired  Kind = "subscription_expired"
	KindUnknown              Kind = "unknown"
)

var eventKinds = map[string]Kind{
	"payment.succeeded":      KindPaymentCompleted,
	"transaction.completed":  KindPaymentCompleted,
	"transaction.paid":       KindPaymentCompleted,
	"checkout.completed":     KindPaymentCompleted,
	"subscription.created":   KindSubscriptionCreated,
	"subscription.activated": KindSubscriptionUpdated,
	"subscription.updated":   KindSubscriptionUpdated,
	"subscription.renewed":   KindSubscriptionUpdated,
	"subscription.canceled":  KindSubscriptionCanceled,
	"subscription.cancelled": KindSubscriptionCanceled,
	"subscription.paused":    KindSubscriptionPaused,
	"subscription.expired":   KindSubscriptionExpired,
}

// Classify maps a provider event type onto a Kind.
func Classify(eventType string) Kind {
	if kind, ok := eventKinds[strings.ToLower(strings.TrimSpace(eventType))]; ok {
		return kind
	}
	return KindUnknown
}

// Subscription reports whether k is a subscription lifecycle event.
func (k Kind) Subscription() bool {
	switch k {
	case KindSubscriptionCreated, KindSubscriptionUpdated, KindSubscriptionCanceled, KindSubscriptionPaused, KindSubscriptionExpired:
		return true
	default:
		return false
	}
}

// Envelope is the provider event document.
type Envelope struct {
	ID         string     `json:"id"`
	EventType  string     `json:"event_type"`
	Type       string     `json:"type"`
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
	Data       EventData  `json:"data"`
}

// Name returns the event type regardless of which key carried it.
func (e Envelope) Name() string {
	if e.EventType != "" {
		return e.EventType
	}
	return e.Type
}

// EventData carries the transaction or subscription the event is about.
type EventData struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	Origin         string          `json:"origin"`
	Amount         Amount          `json:"amount"`
	Currency       string          `json:"currency"`
	SubscriptionID string          `json:"subscription_id"`
	NextBilledAt   *time.Time      `json:"next_billed_at,omitempty"`
	CustomData     json.RawMessage `json:"custom_data"`
}

// Amount accepts minor units as a JSON number or a numeric string.
type Amount int64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*a = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*a = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("amount %q is not an integer", s)
	}
	*a = Amount(n)
	return nil
}

// ParseEnvelope decodes a delivery body.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, domain.ValidationError("invalid webhook payload: " + err.Error())
	}
	if strings.TrimSpace(env.Name()) == "" {
		return nil, domain.ValidationError("webhook payload has no event type")
	}
	return &env, nil
}

// Event is a verified, deduplicated delivery handed to the dispatcher.
type Event struct {
	ID          string
	Kind        Kind
	Envelope    *Envelope
	CustomData  CustomData
	Transaction *domain.Transaction
}
