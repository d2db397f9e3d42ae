package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"songdrop/internal/domain"
)

// Custom data kinds set by the checkout links this service issues.
const (
	CustomKindSong         = "song"
	CustomKindPurchase     = "purchase"
	CustomKindCredits      = "credits"
	CustomKindSubscription = "subscription"
)

const maxTopUpCredits = 1000

// CustomData is the strict schema of the custom_data object attached to
// checkouts. Unknown fields are rejected.
type CustomData struct {
	Kind       string      `json:"kind,omitempty"`
	UserID     string      `json:"user_id,omitempty"`
	SongID     string      `json:"song_id,omitempty"`
	PurchaseID string      `json:"purchase_id,omitempty"`
	Credits    int         `json:"credits,omitempty"`
	Tier       domain.Tier `json:"tier,omitempty"`
}

// ParseCustomData decodes and validates raw for an event of kind k. A
// missing kind is inferred from the single reference present.
func ParseCustomData(raw json.RawMessage, k Kind) (CustomData, error) {
	var cd CustomData
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return cd, errors.New("custom_data is missing")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cd); err != nil {
		return cd, fmt.Errorf("custom_data: %w", err)
	}
	if dec.More() {
		return cd, errors.New("custom_data: trailing data")
	}

	cd.Kind = strings.ToLower(strings.TrimSpace(cd.Kind))
	cd.UserID = strings.TrimSpace(cd.UserID)
	cd.SongID = strings.TrimSpace(cd.SongID)
	cd.PurchaseID = strings.TrimSpace(cd.PurchaseID)
	cd.Tier = domain.Tier(strings.ToLower(strings.TrimSpace(string(cd.Tier))))
	if cd.Kind == "" {
		cd.Kind = inferKind(cd, k)
	}
	return cd, cd.validate(k)
}

func inferKind(cd CustomData, k Kind) string {
	if k.Subscription() {
		return CustomKindSubscription
	}
	switch {
	case cd.SongID != "" && cd.PurchaseID == "":
		return CustomKindSong
	case cd.PurchaseID != "" && cd.SongID == "":
		return CustomKindPurchase
	}
	return ""
}

func (cd CustomData) validate(k Kind) error {
	if k.Subscription() && cd.Kind != CustomKindSubscription {
		return fmt.Errorf("custom_data: kind %q not valid for subscription events", cd.Kind)
	}
	switch cd.Kind {
	case CustomKindSong:
		if cd.SongID == "" {
			return errors.New("custom_data: song_id is required")
		}
	case CustomKindPurchase:
		if cd.PurchaseID == "" {
			return errors.New("custom_data: purchase_id is required")
		}
	case CustomKindCredits:
		if cd.UserID == "" {
			return errors.New("custom_data: user_id is required")
		}
		if cd.Credits <= 0 || cd.Credits > maxTopUpCredits {
			return fmt.Errorf("custom_data: credits must be between 1 and %d", maxTopUpCredits)
		}
	case CustomKindSubscription:
		if cd.UserID == "" {
			return errors.New("custom_data: user_id is required")
		}
		if k == KindSubscriptionCreated && cd.Tier == "" {
			return errors.New("custom_data: tier is required")
		}
		switch cd.Tier {
		case "", domain.TierStarter, domain.TierCreator, domain.TierPro:
		default:
			return fmt.Errorf("custom_data: unknown tier %q", cd.Tier)
		}
	case "":
		return errors.New("custom_data: kind is required")
	default:
		return fmt.Errorf("custom_data: unknown kind %q", cd.Kind)
	}
	return nil
}
