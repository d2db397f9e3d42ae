package webhook

import (
	"encoding/json"
	"testing"

	"songdrop/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"payment.succeeded":      KindPaymentCompleted,
		"Transaction.Completed":  KindPaymentCompleted,
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
		"customer.updated":       KindUnknown,
		"":                       KindUnknown,
	}
	for eventType, want := range cases {
		if got := Classify(eventType); got != want {
			t.Fatalf("Classify(%q) = %s, want %s", eventType, got, want)
		}
	}
}

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"id":"evt_1","type":"transaction.completed","data":{"amount":"1299","currency":"USD"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if env.Name() != "transaction.completed" || env.Data.Amount != 1299 {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	if _, err := ParseEnvelope([]byte(`not json`)); !domain.HasTextCode(err, domain.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseEnvelope([]byte(`{"id":"evt_1"}`)); !domain.HasTextCode(err, domain.CodeValidation) {
		t.Fatalf("expected validation error for missing type, got %v", err)
	}
}

func TestParseCustomData(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		kind     Kind
		wantKind string
		wantErr  bool
	}{
		{name: "song inferred", raw: `{"song_id":"s1","user_id":"u1"}`, kind: KindPaymentCompleted, wantKind: CustomKindSong},
		{name: "purchase inferred", raw: `{"purchase_id":"p1"}`, kind: KindPaymentCompleted, wantKind: CustomKindPurchase},
		{name: "credits", raw: `{"kind":"credits","user_id":"u1","credits":10}`, kind: KindPaymentCompleted, wantKind: CustomKindCredits},
		{name: "subscription inferred", raw: `{"user_id":"u1","tier":"Pro"}`, kind: KindSubscriptionCreated, wantKind: CustomKindSubscription},
		{name: "unknown field", raw: `{"song_id":"s1","songId":"s1"}`, kind: KindPaymentCompleted, wantErr: true},
		{name: "ambiguous", raw: `{"song_id":"s1","purchase_id":"p1"}`, kind: KindPaymentCompleted, wantErr: true},
		{name: "missing", raw: ``, kind: KindPaymentCompleted, wantErr: true},
		{name: "null", raw: `null`, kind: KindPaymentCompleted, wantErr: true},
		{name: "credits without amount", raw: `{"kind":"credits","user_id":"u1"}`, kind: KindPaymentCompleted, wantErr: true},
		{name: "wrong type", raw: `{"kind":"credits","user_id":"u1","credits":"ten"}`, kind: KindPaymentCompleted, wantErr: true},
		{name: "subscription without tier", raw: `{"user_id":"u1"}`, kind: KindSubscriptionCreated, wantErr: true},
		{name: "unknown tier", raw: `{"user_id":"u1","tier":"platinum"}`, kind: KindSubscriptionUpdated, wantErr: true},
		{name: "song kind on subscription event", raw: `{"kind":"song","song_id":"s1"}`, kind: KindSubscriptionCanceled, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cd, err := ParseCustomData(json.RawMessage(tc.raw), tc.kind)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", cd)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cd.Kind != tc.wantKind {
				t.Fatalf("expected kind %s, got %s", tc.wantKind, cd.Kind)
			}
		})
	}
}
