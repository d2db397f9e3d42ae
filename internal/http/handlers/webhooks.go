package handlers

import (
	"errors"
	"io"
	"net/http"

	"songdrop/internal/domain"
)

// PaymentWebhook verifies and applies one provider delivery. The body is read
// raw because the signature covers the exact bytes.
func (a *App) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.error(w, http.StatusRequestEntityTooLarge, domain.CodeValidation, "payload too large")
			return
		}
		a.error(w, http.StatusBadRequest, domain.CodeValidation, "unreadable body")
		return
	}
	result, err := a.Webhooks.Process(r.Context(), r.Header, body)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, result)
}
