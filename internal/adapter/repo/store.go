package repo

import (
	"context"

	"songdrop/internal/domain"
	"songdrop/internal/infra"
)

// Store implements domain.Store on top of an audited SQL runner. The same
// type serves the pool-bound root store and the transaction-bound stores
// handed to WithinTx callbacks.
type Store struct {
	exec infra.TxExecutor
}

// NewStore creates a PostgreSQL backed store.
func NewStore(exec infra.TxExecutor) *Store {
	return &Store{exec: exec}
}

func (s *Store) Jobs() domain.JobRepository {
	return &JobRepositoryPG{sql: s.exec}
}

func (s *Store) Credits() domain.CreditRepository {
	return &CreditRepositoryPG{sql: s.exec}
}

func (s *Store) Transactions() domain.TransactionRepository {
	return &TransactionRepositoryPG{sql: s.exec}
}

func (s *Store) Songs() domain.SongRepository {
	return &SongRepositoryPG{sql: s.exec}
}

func (s *Store) Purchases() domain.PurchaseRepository {
	return &PurchaseRepositoryPG{sql: s.exec}
}

// WithinTx runs fn in a transaction (or savepoint when already inside one).
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	return s.exec.WithinTx(ctx, func(tx infra.TxExecutor) error {
		return fn(&Store{exec: tx})
	})
}

var _ domain.Store = (*Store)(nil)
