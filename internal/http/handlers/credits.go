package handlers

import (
	"net/http"
	"strconv"

	"songdrop/internal/domain"
)

type creditsResponse struct {
	Account *domain.CreditAccount `json:"account"`
	Entries []domain.CreditEntry  `json:"entries"`
}

func (a *App) Credits(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			a.fail(w, r, domain.ValidationError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	account, err := a.Ledger.Balance(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	entries, err := a.Ledger.Entries(r.Context(), userID, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.CreditEntry{}
	}
	a.json(w, http.StatusOK, creditsResponse{Account: account, Entries: entries})
}
