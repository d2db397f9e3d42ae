// Package memory provides an in-process domain.Store. It serializes writers
// behind one mutex and implements transactions by snapshotting state, which
// matches the isolation the PostgreSQL store gives the callers in this repo.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"songdrop/internal/domain"
)

type state struct {
	jobs         map[string]domain.Job
	jobSeq       map[string]int64
	seq          int64
	accounts     map[string]domain.CreditAccount
	entries      []domain.CreditEntry
	transactions map[string]domain.Transaction
	songs        map[string]domain.Song
	purchases    map[string]domain.Purchase
}

func newState() *state {
	return &state{
		jobs:         map[string]domain.Job{},
		jobSeq:       map[string]int64{},
		accounts:     map[string]domain.CreditAccount{},
		transactions: map[string]domain.Transaction{},
		songs:        map[string]domain.Song{},
		purchases:    map[string]domain.Purchase{},
	}
}

func (s *state) clone() *state {
	c := &state{
		jobs:         make(map[string]domain.Job, len(s.jobs)),
		jobSeq:       make(map[string]int64, len(s.jobSeq)),
		seq:          s.seq,
		accounts:     make(map[string]domain.CreditAccount, len(s.accounts)),
		entries:      append([]domain.CreditEntry(nil), s.entries...),
		transactions: make(map[string]domain.Transaction, len(s.transactions)),
		songs:        make(map[string]domain.Song, len(s.songs)),
		purchases:    make(map[string]domain.Purchase, len(s.purchases)),
	}
	for k, v := range s.jobs {
		c.jobs[k] = v
	}
	for k, v := range s.jobSeq {
		c.jobSeq[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.songs {
		c.songs[k] = v
	}
	for k, v := range s.purchases {
		c.purchases[k] = v
	}
	return c
}

type shared struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// Store implements domain.Store in memory.
type Store struct {
	sh   *shared
	inTx bool
}

// Option configures a Store.
type Option func(*shared)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *shared) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	sh := &shared{st: newState(), now: time.Now}
	for _, opt := range opts {
		opt(sh)
	}
	return &Store{sh: sh}
}

// do runs fn with exclusive access to the state. Inside a transaction the lock
// is already held by WithinTx.
func (s *Store) do(fn func(st *state) error) error {
	if !s.inTx {
		s.sh.mu.Lock()
		defer s.sh.mu.Unlock()
	}
	return fn(s.sh.st)
}

// WithinTx runs fn atomically. The state is restored when fn fails, including
// for nested calls, which behave like savepoints.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx {
		s.sh.mu.Lock()
		defer s.sh.mu.Unlock()
	}
	snapshot := s.sh.st.clone()
	if err := fn(&Store{sh: s.sh, inTx: true}); err != nil {
		s.sh.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Jobs() domain.JobRepository { return jobRepo{s} }
func (s *Store) Credits() domain.CreditRepository { return creditRepo{s} }
func (s *Store) Transactions() domain.TransactionRepository { return transactionRepo{s} }
func (s *Store) Songs() domain.SongRepository { return songRepo{s} }
func (s *Store) Purchases() domain.PurchaseRepository { return purchaseRepo{s} }

var _ domain.Store = (*Store)(nil)

type jobRepo struct{ s *Store }

func (r jobRepo) Insert(_ context.Context, job *domain.Job) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.jobs[job.ID]; ok {
			return errDuplicate("job", job.ID)
		}
		now := r.s.sh.now().UTC()
		job.Status = domain.JobStatusPending
		job.Attempts = 0
		job.CreatedAt = now
		job.UpdatedAt = now
		st.seq++
		st.jobSeq[job.ID] = st.seq
		st.jobs[job.ID] = cloneJob(*job)
		return nil
	})
}

func (r jobRepo) ClaimNext(_ context.Context, claimToken string, leaseUntil time.Time) (*domain.Job, error) {
	var claimed *domain.Job
	err := r.s.do(func(st *state) error {
		var pick string
		var pickSeq int64
		for id, job := range st.jobs {
			if job.Status != domain.JobStatusPending {
				continue
			}
			if seq := st.jobSeq[id]; pick == "" || seq < pickSeq {
				pick, pickSeq = id, seq
			}
		}
		if pick == "" {
			return domain.ErrNoJobAvailable
		}
		job := st.jobs[pick]
		lease := leaseUntil.UTC()
		job.Status = domain.JobStatusClaimed
		job.Attempts++
		job.ClaimToken = claimToken
		job.LeaseExpiresAt = &lease
		job.UpdatedAt = r.s.sh.now().UTC()
		st.jobs[pick] = job
		out := cloneJob(job)
		claimed = &out
		return nil
	})
	return claimed, err
}

func (r jobRepo) finish(jobID, claimToken string, apply func(job *domain.Job)) (bool, error) {
	var ok bool
	err := r.s.do(func(st *state) error {
		job, found := st.jobs[jobID]
		if !found || job.Status != domain.JobStatusClaimed || job.ClaimToken != claimToken {
			return nil
		}
		apply(&job)
		job.LeaseExpiresAt = nil
		job.UpdatedAt = r.s.sh.now().UTC()
		st.jobs[jobID] = job
		ok = true
		return nil
	})
	return ok, err
}

func (r jobRepo) MarkSucceeded(_ context.Context, jobID, claimToken, resultRef string) (bool, error) {
	return r.finish(jobID, claimToken, func(job *domain.Job) {
		job.Status = domain.JobStatusSucceeded
		job.ResultRef = resultRef
	})
}

func (r jobRepo) MarkFailed(_ context.Context, jobID, claimToken, reason string) (bool, error) {
	return r.finish(jobID, claimToken, func(job *domain.Job) {
		job.Status = domain.JobStatusFailed
		job.LastError = reason
	})
}

func (r jobRepo) ReclaimExpired(_ context.Context, now time.Time, maxAttempts int) (int, []domain.Job, error) {
	var requeued int
	var failed []domain.Job
	err := r.s.do(func(st *state) error {
		ids := make([]string, 0, len(st.jobs))
		for id := range st.jobs {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return st.jobSeq[ids[i]] < st.jobSeq[ids[j]] })
		for _, id := range ids {
			job := st.jobs[id]
			if job.Status != domain.JobStatusClaimed || job.LeaseExpiresAt == nil || !job.LeaseExpiresAt.Before(now) {
				continue
			}
			if job.Attempts >= maxAttempts {
				job.Status = domain.JobStatusFailed
				job.LastError = domain.JobReasonLeaseExpired
				failed = append(failed, cloneJob(job))
			} else {
				job.Status = domain.JobStatusPending
				job.ClaimToken = ""
				requeued++
			}
			job.LeaseExpiresAt = nil
			job.UpdatedAt = r.s.sh.now().UTC()
			st.jobs[id] = job
		}
		return nil
	})
	return requeued, failed, err
}

func (r jobRepo) GetByID(_ context.Context, jobID string) (*domain.Job, error) {
	var out *domain.Job
	err := r.s.do(func(st *state) error {
		job, ok := st.jobs[jobID]
		if !ok {
			return domain.NotFoundError("job")
		}
		c := cloneJob(job)
		out = &c
		return nil
	})
	return out, err
}

func cloneJob(job domain.Job) domain.Job {
	job.Payload = append([]byte(nil), job.Payload...)
	if job.LeaseExpiresAt != nil {
		lease := *job.LeaseExpiresAt
		job.LeaseExpiresAt = &lease
	}
	return job
}

type creditRepo struct{ s *Store }

func (r creditRepo) appendEntry(st *state, userID string, delta int, reason domain.CreditReason, reference string, balance int) {
	st.seq++
	st.entries = append(st.entries, domain.CreditEntry{
		ID:           strconv.FormatInt(st.seq, 10),
		UserID:       userID,
		Delta:        delta,
		Reason:       reason,
		Reference:    reference,
		BalanceAfter: balance,
		CreatedAt:    r.s.sh.now().UTC(),
	})
}

func (r creditRepo) Reserve(_ context.Context, userID, reference string) (bool, error) {
	var ok bool
	err := r.s.do(func(st *state) error {
		account, found := st.accounts[userID]
		if !found || account.CreditsRemaining <= 0 {
			return nil
		}
		account.CreditsRemaining--
		account.UpdatedAt = r.s.sh.now().UTC()
		st.accounts[userID] = account
		r.appendEntry(st, userID, -1, domain.CreditReasonReserve, reference, account.CreditsRemaining)
		ok = true
		return nil
	})
	return ok, err
}

func (r creditRepo) Refund(_ context.Context, userID string, amount int, reference string) (int, error) {
	var balance int
	err := r.s.do(func(st *state) error {
		account, found := st.accounts[userID]
		if !found {
			return domain.NotFoundError("credit account")
		}
		account.CreditsRemaining += amount
		account.UpdatedAt = r.s.sh.now().UTC()
		st.accounts[userID] = account
		r.appendEntry(st, userID, amount, domain.CreditReasonRefund, reference, account.CreditsRemaining)
		balance = account.CreditsRemaining
		return nil
	})
	return balance, err
}

func (r creditRepo) Refill(_ context.Context, userID string, amount int, reference string) (int, error) {
	var balance int
	err := r.s.do(func(st *state) error {
		now := r.s.sh.now().UTC()
		account, found := st.accounts[userID]
		if !found {
			account = domain.CreditAccount{UserID: userID, Tier: domain.TierFree, Status: domain.AccountStatusActive, CreatedAt: now}
		}
		account.CreditsRemaining += amount
		account.UpdatedAt = now
		st.accounts[userID] = account
		r.appendEntry(st, userID, amount, domain.CreditReasonRefill, reference, account.CreditsRemaining)
		balance = account.CreditsRemaining
		return nil
	})
	return balance, err
}

func (r creditRepo) UpsertSubscription(_ context.Context, update domain.SubscriptionUpdate) (*domain.CreditAccount, error) {
	var out domain.CreditAccount
	err := r.s.do(func(st *state) error {
		now := r.s.sh.now().UTC()
		account, found := st.accounts[update.UserID]
		if !found {
			account = domain.CreditAccount{UserID: update.UserID, Tier: domain.TierFree, Status: domain.AccountStatusActive, CreatedAt: now}
		}
		if update.Tier != "" {
			account.Tier = update.Tier
		}
		if update.Status != "" {
			account.Status = update.Status
		}
		if update.SubscriptionID != "" {
			account.SubscriptionID = update.SubscriptionID
		}
		if update.RenewsAt != nil {
			renews := *update.RenewsAt
			account.RenewsAt = &renews
		}
		account.UpdatedAt = now
		st.accounts[update.UserID] = account
		out = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r creditRepo) Get(_ context.Context, userID string) (*domain.CreditAccount, error) {
	var out domain.CreditAccount
	err := r.s.do(func(st *state) error {
		account, ok := st.accounts[userID]
		if !ok {
			return domain.NotFoundError("credit account")
		}
		out = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r creditRepo) ListEntries(_ context.Context, userID string, limit int) ([]domain.CreditEntry, error) {
	var items []domain.CreditEntry
	err := r.s.do(func(st *state) error {
		for i := len(st.entries) - 1; i >= 0; i-- {
			if limit > 0 && len(items) >= limit {
				break
			}
			if st.entries[i].UserID == userID {
				items = append(items, st.entries[i])
			}
		}
		return nil
	})
	return items, err
}

type transactionRepo struct{ s *Store }

func (r transactionRepo) InsertIfAbsent(_ context.Context, tx *domain.Transaction) (bool, error) {
	var inserted bool
	err := r.s.do(func(st *state) error {
		if _, ok := st.transactions[tx.ID]; ok {
			return nil
		}
		now := r.s.sh.now().UTC()
		if tx.Status == "" {
			tx.Status = domain.TransactionStatusReceived
		}
		tx.CreatedAt = now
		tx.UpdatedAt = now
		st.transactions[tx.ID] = *tx
		inserted = true
		return nil
	})
	return inserted, err
}

func (r transactionRepo) Annotate(_ context.Context, id string, annotation domain.TransactionAnnotation) error {
	return r.s.do(func(st *state) error {
		t, ok := st.transactions[id]
		if !ok {
			return domain.NotFoundError("transaction")
		}
		if annotation.Status != "" {
			t.Status = annotation.Status
		}
		if annotation.AssignedSongID != "" {
			t.AssignedSongID = annotation.AssignedSongID
		}
		if annotation.Error != "" {
			t.Error = annotation.Error
		}
		t.UpdatedAt = r.s.sh.now().UTC()
		st.transactions[id] = t
		return nil
	})
}

func (r transactionRepo) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	var out domain.Transaction
	err := r.s.do(func(st *state) error {
		t, ok := st.transactions[id]
		if !ok {
			return domain.NotFoundError("transaction")
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type songRepo struct{ s *Store }

func (r songRepo) Create(_ context.Context, song *domain.Song) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.songs[song.ID]; ok {
			return errDuplicate("song", song.ID)
		}
		now := r.s.sh.now().UTC()
		song.CreatedAt = now
		song.UpdatedAt = now
		st.songs[song.ID] = *song
		return nil
	})
}

func (r songRepo) GetByID(_ context.Context, id string) (*domain.Song, error) {
	var out domain.Song
	err := r.s.do(func(st *state) error {
		song, ok := st.songs[id]
		if !ok {
			return domain.NotFoundError("song")
		}
		out = song
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r songRepo) MarkPurchased(_ context.Context, songID, transactionID, userID string) (bool, error) {
	var flipped bool
	err := r.s.do(func(st *state) error {
		song, ok := st.songs[songID]
		if !ok {
			return domain.NotFoundError("song")
		}
		if song.IsPurchased {
			return nil
		}
		song.IsPurchased = true
		song.PurchaseTransactionID = transactionID
		if userID != "" {
			song.UserID = userID
		}
		song.UpdatedAt = r.s.sh.now().UTC()
		st.songs[songID] = song
		flipped = true
		return nil
	})
	return flipped, err
}

func (r songRepo) SetMedia(_ context.Context, songID string, media domain.SongMedia) error {
	return r.s.do(func(st *state) error {
		song, ok := st.songs[songID]
		if !ok {
			return domain.NotFoundError("song")
		}
		if media.PreviewURL != "" {
			song.PreviewURL = media.PreviewURL
		}
		if media.FullURL != "" {
			song.FullURL = media.FullURL
		}
		if media.VideoURL != "" {
			song.VideoURL = media.VideoURL
		}
		song.UpdatedAt = r.s.sh.now().UTC()
		st.songs[songID] = song
		return nil
	})
}

type purchaseRepo struct{ s *Store }

func (r purchaseRepo) Create(_ context.Context, p *domain.Purchase) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.purchases[p.ID]; ok {
			return errDuplicate("purchase", p.ID)
		}
		p.Status = domain.PurchaseStatusPending
		p.CreatedAt = r.s.sh.now().UTC()
		stored := *p
		stored.Modes = append([]string(nil), p.Modes...)
		stored.MusicStyles = append([]string(nil), p.MusicStyles...)
		st.purchases[p.ID] = stored
		return nil
	})
}

func (r purchaseRepo) GetByID(_ context.Context, id string) (*domain.Purchase, error) {
	var out domain.Purchase
	err := r.s.do(func(st *state) error {
		p, ok := st.purchases[id]
		if !ok {
			return domain.NotFoundError("purchase")
		}
		out = p
		out.Modes = append([]string(nil), p.Modes...)
		out.MusicStyles = append([]string(nil), p.MusicStyles...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r purchaseRepo) MarkPaid(_ context.Context, purchaseID, assignedSongID, transactionID string) (bool, error) {
	var flipped bool
	err := r.s.do(func(st *state) error {
		p, ok := st.purchases[purchaseID]
		if !ok {
			return domain.NotFoundError("purchase")
		}
		if p.Status == domain.PurchaseStatusPaid {
			return nil
		}
		now := r.s.sh.now().UTC()
		p.Status = domain.PurchaseStatusPaid
		p.AssignedSongID = assignedSongID
		p.TransactionID = transactionID
		p.PaidAt = &now
		st.purchases[purchaseID] = p
		flipped = true
		return nil
	})
	return flipped, err
}
