package repo

import (
	"context"

	"songdrop/internal/domain"
	"songdrop/internal/infra"
	"songdrop/internal/sqlinline"
)

// SongRepositoryPG implements domain.SongRepository.
type SongRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewSongRepository creates a song repository backed by PostgreSQL.
func NewSongRepository(sql infra.SQLExecutor) *SongRepositoryPG {
	return &SongRepositoryPG{sql: sql}
}

// Create inserts a new song row.
func (r *SongRepositoryPG) Create(ctx context.Context, song *domain.Song) error {
	if err := r.sql.QueryRow(ctx, sqlinline.QInsertSong, song.ID, song.UserID, song.Story, song.Mode, song.Style).Scan(&song.CreatedAt); err != nil {
		return err
	}
	song.UpdatedAt = song.CreatedAt
	return nil
}

// GetByID fetches a song.
func (r *SongRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Song, error) {
	var s domain.Song
	err := r.sql.QueryRow(ctx, sqlinline.QSelectSongByID, id).Scan(
		&s.ID,
		&s.UserID,
		&s.Story,
		&s.Mode,
		&s.Style,
		&s.PreviewURL,
		&s.FullURL,
		&s.VideoURL,
		&s.IsPurchased,
		&s.PurchaseTransactionID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.NotFoundError("song")
		}
		return nil, err
	}
	return &s, nil
}

// MarkPurchased flips is_purchased once. A missing song is reported as not
// found; an already purchased one as false.
func (r *SongRepositoryPG) MarkPurchased(ctx context.Context, songID, transactionID, userID string) (bool, error) {
	var id string
	err := r.sql.QueryRow(ctx, sqlinline.QMarkSongPurchased, songID, transactionID, userID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if !infra.IsNoRows(err) {
		return false, err
	}
	var exists bool
	if err := r.sql.QueryRow(ctx, sqlinline.QSongExists, songID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, domain.NotFoundError("song")
	}
	return false, nil
}

// SetMedia stores generated media URLs.
func (r *SongRepositoryPG) SetMedia(ctx context.Context, songID string, media domain.SongMedia) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QSetSongMedia, songID, media.PreviewURL, media.FullURL, media.VideoURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("song")
	}
	return nil
}
