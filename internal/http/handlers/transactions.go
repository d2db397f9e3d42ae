package handlers

import (
	"net/http"

	"songdrop/internal/fulfillment"
)

func (a *App) VerifyTransaction(w http.ResponseWriter, r *http.Request) {
	var req fulfillment.VerifyRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Transactions.VerifyTransaction(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}
