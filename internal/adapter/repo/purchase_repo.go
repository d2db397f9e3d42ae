package repo

import (
	"context"

	"songdrop/internal/domain"
	"songdrop/internal/infra"
	"songdrop/internal/sqlinline"
)

// PurchaseRepositoryPG implements domain.PurchaseRepository.
type PurchaseRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewPurchaseRepository creates a purchase repository backed by PostgreSQL.
func NewPurchaseRepository(sql infra.SQLExecutor) *PurchaseRepositoryPG {
	return &PurchaseRepositoryPG{sql: sql}
}

// Create inserts a pending purchase intent.
func (r *PurchaseRepositoryPG) Create(ctx context.Context, p *domain.Purchase) error {
	modes := p.Modes
	if modes == nil {
		modes = []string{}
	}
	styles := p.MusicStyles
	if styles == nil {
		styles = []string{}
	}
	if err := r.sql.QueryRow(ctx, sqlinline.QInsertPurchase, p.ID, p.UserID, modes, styles, p.Story).Scan(&p.CreatedAt); err != nil {
		return err
	}
	p.Status = domain.PurchaseStatusPending
	return nil
}

// GetByID fetches a purchase intent.
func (r *PurchaseRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Purchase, error) {
	var p domain.Purchase
	var status string
	err := r.sql.QueryRow(ctx, sqlinline.QSelectPurchaseByID, id).Scan(
		&p.ID,
		&p.UserID,
		&p.Modes,
		&p.MusicStyles,
		&p.Story,
		&status,
		&p.AssignedSongID,
		&p.TransactionID,
		&p.CreatedAt,
		&p.PaidAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.NotFoundError("purchase")
		}
		return nil, err
	}
	p.Status = domain.PurchaseStatus(status)
	return &p, nil
}

// MarkPaid moves a pending purchase to paid. A missing purchase is reported as
// not found; an already paid one as false.
func (r *PurchaseRepositoryPG) MarkPaid(ctx context.Context, purchaseID, assignedSongID, transactionID string) (bool, error) {
	var id string
	err := r.sql.QueryRow(ctx, sqlinline.QMarkPurchasePaid, purchaseID, assignedSongID, transactionID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if !infra.IsNoRows(err) {
		return false, err
	}
	var exists bool
	if err := r.sql.QueryRow(ctx, sqlinline.QPurchaseExists, purchaseID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, domain.NotFoundError("purchase")
	}
	return false, nil
}
