package fulfillment

import (
	"context"
	"strings"

	"songdrop/internal/catalog"
	"songdrop/internal/domain"
	"songdrop/internal/matcher"
)

// VerifyRequest names one entity to check. The first non-empty field wins.
type VerifyRequest struct {
	TransactionID string `json:"transaction_id"`
	SongID        string `json:"song_id"`
	PurchaseID    string `json:"purchase_id"`
}

// VerifyResult reports whether the entity is paid for.
type VerifyResult struct {
	Verified    bool                `json:"verified"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
	Song        *SongStatus         `json:"song,omitempty"`
	Purchase    *domain.Purchase    `json:"purchase,omitempty"`
}

// SongStatus is what verification reveals about a song. Verification is
// unauthenticated, so owner, story and paid media stay out of it.
type SongStatus struct {
	ID          string `json:"id"`
	IsPurchased bool   `json:"is_purchased"`
	PreviewURL  string `json:"preview_url,omitempty"`
}

// Verifier answers payment status questions from the page layer.
type Verifier struct {
	store domain.Store
}

func NewVerifier(store domain.Store) *Verifier {
	return &Verifier{store: store}
}

// VerifyTransaction looks up the referenced entity. Unknown ids verify false.
func (v *Verifier) VerifyTransaction(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	switch {
	case strings.TrimSpace(req.TransactionID) != "":
		txn, err := v.store.Transactions().GetByID(ctx, strings.TrimSpace(req.TransactionID))
		if err != nil {
			return notFound(err)
		}
		return &VerifyResult{Verified: txn.Status == domain.TransactionStatusProcessed, Transaction: txn}, nil
	case strings.TrimSpace(req.SongID) != "":
		song, err := v.store.Songs().GetByID(ctx, strings.TrimSpace(req.SongID))
		if err != nil {
			return notFound(err)
		}
		return &VerifyResult{
			Verified: song.IsPurchased,
			Song:     &SongStatus{ID: song.ID, IsPurchased: song.IsPurchased, PreviewURL: song.PreviewURL},
		}, nil
	case strings.TrimSpace(req.PurchaseID) != "":
		purchase, err := v.store.Purchases().GetByID(ctx, strings.TrimSpace(req.PurchaseID))
		if err != nil {
			return notFound(err)
		}
		return &VerifyResult{Verified: purchase.Status == domain.PurchaseStatusPaid, Purchase: purchase}, nil
	default:
		return nil, domain.ValidationError("one of transaction_id, song_id or purchase_id is required")
	}
}

func notFound(err error) (*VerifyResult, error) {
	if domain.IsNotFound(err) {
		return &VerifyResult{Verified: false}, nil
	}
	return nil, err
}

// Previewer matches a request against the catalog before checkout.
type Previewer struct {
	catalog catalog.Source
}

func NewPreviewer(source catalog.Source) *Previewer {
	return &Previewer{catalog: source}
}

// Preview returns the best catalog item or a NoMatchError.
func (p *Previewer) Preview(ctx context.Context, filters domain.MatchFilters, story string) (*domain.CatalogItem, error) {
	items, err := p.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	item, ok := matcher.Match(items, filters, story)
	if !ok {
		return nil, domain.NoMatchError()
	}
	return &item, nil
}
