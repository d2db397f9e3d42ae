// Package fulfillment applies confirmed payments: unlocking songs, assigning
// catalog items to purchases, and granting credits. Every handler is
// idempotent so a replayed event that slips past deduplication is harmless.
package fulfillment

import (
	"context"
	"fmt"
	"strings"

	"songdrop/internal/catalog"
	"songdrop/internal/domain"
	"songdrop/internal/infra"
	"songdrop/internal/ledger"
	"songdrop/internal/matcher"
	"songdrop/internal/webhook"
)

// Origins marking a recurring subscription charge.
var renewalOrigins = map[string]bool{
	"subscription_recurring": true,
	"renewal":                true,
}

// Handler implements webhook.Dispatcher.
type Handler struct {
	catalog catalog.Source
	ledger  *ledger.Ledger
	logger  infra.Logger
}

// NewHandler wires the fulfillment handlers.
func NewHandler(source catalog.Source, l *ledger.Ledger, logger infra.Logger) *Handler {
	return &Handler{catalog: source, ledger: l, logger: logger}
}

// Dispatch routes an event to exactly one handler.
func (h *Handler) Dispatch(ctx context.Context, tx domain.Store, event webhook.Event) (webhook.Outcome, error) {
	switch event.Kind {
	case webhook.KindPaymentCompleted:
		return h.paymentCompleted(ctx, tx, event)
	case webhook.KindSubscriptionCreated:
		return webhook.Outcome{}, h.SubscriptionCreated(ctx, tx, event)
	case webhook.KindSubscriptionUpdated:
		return webhook.Outcome{}, h.SubscriptionUpdated(ctx, tx, event)
	case webhook.KindSubscriptionCanceled:
		return webhook.Outcome{}, h.subscriptionStatus(ctx, tx, event, domain.AccountStatusCanceled)
	case webhook.KindSubscriptionPaused:
		return webhook.Outcome{}, h.subscriptionStatus(ctx, tx, event, domain.AccountStatusPaused)
	case webhook.KindSubscriptionExpired:
		return webhook.Outcome{}, h.subscriptionStatus(ctx, tx, event, domain.AccountStatusExpired)
	default:
		return webhook.Outcome{}, fmt.Errorf("no handler for %s", event.Kind)
	}
}

func (h *Handler) paymentCompleted(ctx context.Context, tx domain.Store, event webhook.Event) (webhook.Outcome, error) {
	cd := event.CustomData
	switch cd.Kind {
	case webhook.CustomKindSong:
		return webhook.Outcome{}, h.UnlockSong(ctx, tx, event.ID, cd)
	case webhook.CustomKindPurchase:
		assigned, err := h.FulfillPurchase(ctx, tx, event.ID, cd.PurchaseID)
		return webhook.Outcome{AssignedSongID: assigned}, err
	case webhook.CustomKindCredits:
		return webhook.Outcome{}, h.ApplyCreditTopUp(ctx, tx, event.ID, cd)
	case webhook.CustomKindSubscription:
		return webhook.Outcome{}, h.SubscriptionPayment(ctx, tx, event)
	default:
		return webhook.Outcome{}, fmt.Errorf("unsupported custom_data kind %q", cd.Kind)
	}
}

// UnlockSong marks the referenced song purchased. A song that is already
// purchased is left untouched.
func (h *Handler) UnlockSong(ctx context.Context, tx domain.Store, transactionID string, cd webhook.CustomData) error {
	flipped, err := tx.Songs().MarkPurchased(ctx, cd.SongID, transactionID, cd.UserID)
	if err != nil {
		return err
	}
	if !flipped {
		h.logger.Info().Str("song_id", cd.SongID).Str("transaction_id", transactionID).Msg("fulfillment: song already purchased")
		return nil
	}
	h.logger.Info().Str("song_id", cd.SongID).Str("transaction_id", transactionID).Msg("fulfillment: song unlocked")
	return nil
}

// FulfillPurchase marks a pending purchase paid and assigns the best matching
// catalog item. Without a confident match the purchase is still marked paid,
// unassigned, for the manual claim flow. It returns the assigned item id.
func (h *Handler) FulfillPurchase(ctx context.Context, tx domain.Store, transactionID, purchaseID string) (string, error) {
	purchase, err := tx.Purchases().GetByID(ctx, purchaseID)
	if err != nil {
		return "", err
	}
	if purchase.Status == domain.PurchaseStatusPaid {
		h.logger.Info().Str("purchase_id", purchaseID).Msg("fulfillment: purchase already paid")
		return purchase.AssignedSongID, nil
	}

	items, err := h.catalog.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load catalog: %w", err)
	}
	var assigned string
	if item, ok := matcher.Match(items, purchase.Filters(), purchase.Story); ok {
		assigned = item.ID
	} else {
		h.logger.Warn().Err(domain.NoMatchError()).Str("purchase_id", purchaseID).Msg("fulfillment: purchase paid without assignment")
	}

	if _, err := tx.Purchases().MarkPaid(ctx, purchaseID, assigned, transactionID); err != nil {
		return "", err
	}
	h.logger.Info().Str("purchase_id", purchaseID).Str("assigned_song_id", assigned).Msg("fulfillment: purchase paid")
	return assigned, nil
}

// ApplyCreditTopUp grants purchased credits. It runs inside the deduplication
// transaction, so a redelivered event cannot refill twice.
func (h *Handler) ApplyCreditTopUp(ctx context.Context, tx domain.Store, transactionID string, cd webhook.CustomData) error {
	_, err := h.ledger.ForStore(tx).Refill(ctx, cd.UserID, cd.Credits, "txn:"+transactionID)
	return err
}

// SubscriptionCreated activates the account and grants the first period's
// allowance.
func (h *Handler) SubscriptionCreated(ctx context.Context, tx domain.Store, event webhook.Event) error {
	cd := event.CustomData
	account, err := tx.Credits().UpsertSubscription(ctx, domain.SubscriptionUpdate{
		UserID:         cd.UserID,
		SubscriptionID: subscriptionID(event),
		Tier:           cd.Tier,
		Status:         domain.AccountStatusActive,
		RenewsAt:       event.Envelope.Data.NextBilledAt,
	})
	if err != nil {
		return err
	}
	return h.grantAllowance(ctx, tx, account.UserID, account.Tier, event.ID)
}

// SubscriptionUpdated syncs tier, status and renewal date.
func (h *Handler) SubscriptionUpdated(ctx context.Context, tx domain.Store, event webhook.Event) error {
	cd := event.CustomData
	_, err := tx.Credits().UpsertSubscription(ctx, domain.SubscriptionUpdate{
		UserID:         cd.UserID,
		SubscriptionID: subscriptionID(event),
		Tier:           cd.Tier,
		Status:         accountStatus(event.Envelope.Data.Status),
		RenewsAt:       event.Envelope.Data.NextBilledAt,
	})
	return err
}

// SubscriptionPayment grants the allowance for a recurring charge. The first
// charge of a subscription is covered by SubscriptionCreated.
func (h *Handler) SubscriptionPayment(ctx context.Context, tx domain.Store, event webhook.Event) error {
	if !renewalOrigins[strings.ToLower(event.Envelope.Data.Origin)] {
		h.logger.Info().Str("event_id", event.ID).Msg("fulfillment: initial subscription charge, allowance granted on creation")
		return nil
	}
	cd := event.CustomData
	account, err := tx.Credits().UpsertSubscription(ctx, domain.SubscriptionUpdate{
		UserID:         cd.UserID,
		SubscriptionID: subscriptionID(event),
		Tier:           cd.Tier,
		Status:         domain.AccountStatusActive,
		RenewsAt:       event.Envelope.Data.NextBilledAt,
	})
	if err != nil {
		return err
	}
	return h.grantAllowance(ctx, tx, account.UserID, account.Tier, event.ID)
}

func (h *Handler) subscriptionStatus(ctx context.Context, tx domain.Store, event webhook.Event, status domain.AccountStatus) error {
	_, err := tx.Credits().UpsertSubscription(ctx, domain.SubscriptionUpdate{
		UserID:         event.CustomData.UserID,
		SubscriptionID: subscriptionID(event),
		Status:         status,
	})
	return err
}

func (h *Handler) grantAllowance(ctx context.Context, tx domain.Store, userID string, tier domain.Tier, eventID string) error {
	allowance := ledger.Allowance(tier)
	if allowance == 0 {
		return fmt.Errorf("tier %q has no allowance", tier)
	}
	_, err := h.ledger.ForStore(tx).Refill(ctx, userID, allowance, "txn:"+eventID)
	return err
}

func subscriptionID(event webhook.Event) string {
	if id := strings.TrimSpace(event.Envelope.Data.SubscriptionID); id != "" {
		return id
	}
	if event.Kind.Subscription() {
		return strings.TrimSpace(event.Envelope.Data.ID)
	}
	return ""
}

func accountStatus(providerStatus string) domain.AccountStatus {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "active", "trialing":
		return domain.AccountStatusActive
	case "canceled", "cancelled":
		return domain.AccountStatusCanceled
	case "paused":
		return domain.AccountStatusPaused
	case "expired", "past_due":
		return domain.AccountStatusExpired
	default:
		return ""
	}
}
