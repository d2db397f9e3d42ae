package repo

import (
	"context"

	"songdrop/internal/domain"
	"songdrop/internal/infra"
	"songdrop/internal/sqlinline"
)

// TransactionRepositoryPG implements domain.TransactionRepository.
type TransactionRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewTransactionRepository creates a transaction repository backed by PostgreSQL.
func NewTransactionRepository(sql infra.SQLExecutor) *TransactionRepositoryPG {
	return &TransactionRepositoryPG{sql: sql}
}

// InsertIfAbsent records the event and reports false when the id was already
// stored. Conflicts are resolved with `on conflict do nothing` so the
// surrounding transaction stays usable.
func (r *TransactionRepositoryPG) InsertIfAbsent(ctx context.Context, tx *domain.Transaction) (bool, error) {
	status := tx.Status
	if status == "" {
		status = domain.TransactionStatusReceived
	}
	var customData []byte
	if len(tx.CustomData) > 0 {
		customData = tx.CustomData
	}
	var id string
	err := r.sql.QueryRow(ctx, sqlinline.QInsertTransaction,
		tx.ID,
		tx.EventType,
		string(status),
		tx.Amount,
		tx.Currency,
		customData,
		[]byte(tx.RawPayload),
		tx.SongID,
		tx.PurchaseID,
		tx.Error,
	).Scan(&id)
	if err != nil {
		if infra.IsNoRows(err) || infra.IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	tx.Status = status
	return true, nil
}

// Annotate updates the processing outcome of a stored event.
func (r *TransactionRepositoryPG) Annotate(ctx context.Context, id string, annotation domain.TransactionAnnotation) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QAnnotateTransaction, id, string(annotation.Status), annotation.AssignedSongID, annotation.Error)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("transaction")
	}
	return nil
}

// GetByID fetches a stored event.
func (r *TransactionRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var t domain.Transaction
	var status string
	var customData, rawPayload []byte
	err := r.sql.QueryRow(ctx, sqlinline.QSelectTransactionByID, id).Scan(
		&t.ID,
		&t.EventType,
		&status,
		&t.Amount,
		&t.Currency,
		&customData,
		&rawPayload,
		&t.SongID,
		&t.PurchaseID,
		&t.AssignedSongID,
		&t.Error,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.NotFoundError("transaction")
		}
		return nil, err
	}
	t.Status = domain.TransactionStatus(status)
	t.CustomData = customData
	t.RawPayload = rawPayload
	return &t, nil
}
