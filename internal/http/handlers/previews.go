package handlers

import (
	"net/http"
	"unicode/utf8"

	"songdrop/internal/domain"
)

const maxPreviewStory = 2000

type previewRequest struct {
	Mode       string `json:"mode"`
	MusicStyle string `json:"music_style"`
	Story      string `json:"story"`
}

// Preview returns the catalog item the matcher picks for the request, or 404
// NO_MATCH.
func (a *App) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if utf8.RuneCountInString(req.Story) > maxPreviewStory {
		a.fail(w, r, domain.ValidationError("story is too long"))
		return
	}
	item, err := a.Previews.Preview(r.Context(), domain.MatchFilters{Mode: req.Mode, MusicStyle: req.MusicStyle}, req.Story)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, item)
}
