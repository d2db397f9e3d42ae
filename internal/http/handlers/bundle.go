package handlers

import (
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"

	"songdrop/internal/domain"
	"songdrop/pkg/zip"
)

func (a *App) GetSong(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	song, err := a.Songs.Song(r.Context(), userID, chi.URLParam(r, "song_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, song.Redacted())
}

// SongBundle streams the purchased full track and, when rendered, the video
// clip as one zip.
func (a *App) SongBundle(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	song, err := a.Songs.Song(r.Context(), userID, chi.URLParam(r, "song_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !song.IsPurchased {
		a.fail(w, r, domain.ValidationError("song must be purchased before download"))
		return
	}
	if a.Media == nil {
		a.fail(w, r, domain.NotFoundError("media"))
		return
	}

	var assets []zip.Asset
	for _, u := range []string{song.FullURL, song.VideoURL} {
		if u == "" {
			continue
		}
		key, ok := a.Media.KeyFromURL(u)
		if !ok {
			a.Logger.Warn().Str("song_id", song.ID).Str("url", u).Msg("bundle: media url outside store")
			continue
		}
		data, err := a.Media.Get(r.Context(), key)
		if err != nil {
			a.fail(w, r, fmt.Errorf("bundle: read %s: %w", key, err))
			return
		}
		assets = append(assets, zip.Asset{Filename: path.Base(key), Data: data})
	}
	if len(assets) == 0 {
		a.fail(w, r, domain.NotFoundError("media"))
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="song-%s.zip"`, song.ID))
	w.WriteHeader(http.StatusOK)
	if err := zip.WriteAssets(w, assets, time.Now().UTC()); err != nil {
		a.Logger.Error().Err(err).Str("song_id", song.ID).Msg("bundle: write archive")
	}
}
