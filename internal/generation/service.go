// Package generation turns user requests into reserved credits, song rows and
// queued jobs.
package generation

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"songdrop/internal/domain"
	"songdrop/internal/infra"
	"songdrop/internal/ledger"
	"songdrop/internal/queue"
)

const maxStoryLength = 2000

// SongRequest is the input of a paid generation.
type SongRequest struct {
	Story      string `json:"story"`
	Mode       string `json:"mode"`
	MusicStyle string `json:"music_style"`
}

// Validate checks the request shape.
func (r SongRequest) Validate() error {
	story := strings.TrimSpace(r.Story)
	if story == "" {
		return domain.ValidationError("story is required")
	}
	if utf8.RuneCountInString(story) > maxStoryLength {
		return domain.ValidationError("story is too long")
	}
	return nil
}

// PurchaseRequest is the input of a checkout intent.
type PurchaseRequest struct {
	Modes       []string `json:"modes"`
	MusicStyles []string `json:"music_styles"`
	Story       string   `json:"story"`
}

// Accepted reports the rows created for a generation request.
type Accepted struct {
	SongID string `json:"song_id"`
	JobID  string `json:"job_id"`
}

// Service creates generation and purchase records.
type Service struct {
	store  domain.Store
	queue  *queue.Queue
	ledger *ledger.Ledger
	logger infra.Logger
}

// NewService wires the service.
func NewService(store domain.Store, q *queue.Queue, l *ledger.Ledger, logger infra.Logger) *Service {
	return &Service{store: store, queue: q, ledger: l, logger: logger}
}

// Request reserves one credit, creates the song and enqueues its generate job.
// Either all three happen or none do.
func (s *Service) Request(ctx context.Context, userID string, req SongRequest) (*Accepted, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	songID := uuid.NewString()
	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	style := strings.ToLower(strings.TrimSpace(req.MusicStyle))
	story := strings.TrimSpace(req.Story)

	var out Accepted
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		ok, err := s.ledger.ForStore(tx).Reserve(ctx, userID, "song:"+songID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.InsufficientCreditError(userID)
		}
		song := &domain.Song{ID: songID, UserID: userID, Story: story, Mode: mode, Style: style}
		if err := tx.Songs().Create(ctx, song); err != nil {
			return err
		}
		jobID, err := s.queue.ForStore(tx).Enqueue(ctx, userID, domain.JobPayload{
			Type:           domain.JobTypeGenerate,
			UserID:         userID,
			SongID:         songID,
			ReservedCredit: true,
			Story:          story,
			Mode:           mode,
			MusicStyle:     style,
		})
		if err != nil {
			return err
		}
		out = Accepted{SongID: songID, JobID: jobID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", userID).Str("song_id", out.SongID).Str("job_id", out.JobID).Msg("generation requested")
	return &out, nil
}

// RequestRender enqueues a video render for a purchased song owned by userID.
// Renders do not consume credit.
func (s *Service) RequestRender(ctx context.Context, userID, songID string) (*Accepted, error) {
	song, err := s.Song(ctx, userID, songID)
	if err != nil {
		return nil, err
	}
	if !song.IsPurchased {
		return nil, domain.ValidationError("song must be purchased before rendering")
	}
	if song.FullURL == "" {
		return nil, domain.ValidationError("song audio is not ready")
	}
	jobID, err := s.queue.Enqueue(ctx, userID, domain.JobPayload{
		Type:   domain.JobTypeRender,
		UserID: userID,
		SongID: songID,
		Story:  song.Story,
	})
	if err != nil {
		return nil, err
	}
	return &Accepted{SongID: songID, JobID: jobID}, nil
}

// CreatePurchase stores a pending checkout intent. The returned id is what the
// payment link carries as custom_data.purchase_id.
func (s *Service) CreatePurchase(ctx context.Context, userID string, req PurchaseRequest) (*domain.Purchase, error) {
	story := strings.TrimSpace(req.Story)
	if utf8.RuneCountInString(story) > maxStoryLength {
		return nil, domain.ValidationError("story is too long")
	}
	p := &domain.Purchase{
		ID:          uuid.NewString(),
		UserID:      userID,
		Modes:       cleanList(req.Modes),
		MusicStyles: cleanList(req.MusicStyles),
		Story:       story,
	}
	if err := s.store.Purchases().Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Song returns a song owned by userID. Songs of other users are reported as
// missing.
func (s *Service) Song(ctx context.Context, userID, songID string) (*domain.Song, error) {
	song, err := s.store.Songs().GetByID(ctx, songID)
	if err != nil {
		return nil, err
	}
	if song.UserID != userID {
		return nil, domain.NotFoundError("song")
	}
	return song, nil
}

// Job returns a job owned by ownerKey.
func (s *Service) Job(ctx context.Context, ownerKey, jobID string) (*domain.Job, error) {
	job, err := s.queue.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OwnerKey != ownerKey {
		return nil, domain.NotFoundError("job")
	}
	return job, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
