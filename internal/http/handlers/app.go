package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"songdrop/internal/domain"
	"songdrop/internal/fulfillment"
	"songdrop/internal/generation"
	"songdrop/internal/infra"
	"songdrop/internal/ledger"
	"songdrop/internal/middleware"
	"songdrop/internal/webhook"
)

const (
	maxJSONBody    = 64 << 10
	maxWebhookBody = 1 << 20
)

// App carries the services the HTTP handlers call into.
type App struct {
	Webhooks     *webhook.Processor
	Transactions *fulfillment.Verifier
	Previews     *fulfillment.Previewer
	Songs        *generation.Service
	Ledger       *ledger.Ledger
	Media        MediaReader
	Logger       infra.Logger

	// Ping reports backing store health; nil means always healthy.
	Ping func(ctx context.Context) error
}

// MediaReader reads stored song media back by public URL.
type MediaReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
	KeyFromURL(u string) (string, bool)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, textCode, message string) {
	a.json(w, code, errorBody{Error: errorDetail{Code: textCode, Message: message}})
}

// fail renders err using the status and text code it carries. Untyped errors
// are logged and reported as internal.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, textCode := domain.HTTPStatus(err)
	message := "internal error"
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code != 0 {
		message = rich.Message
	}
	if status >= http.StatusInternalServerError {
		a.Logger.Error().
			Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	a.error(w, status, textCode, message)
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// decode reads a JSON body into dst, rejecting unknown fields and trailing data.
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.ValidationError("request body too large")
		}
		if errors.Is(err, io.EOF) {
			return domain.ValidationError("request body is empty")
		}
		return domain.ValidationError("invalid payload: " + strings.TrimPrefix(err.Error(), "json: "))
	}
	if dec.More() {
		return domain.ValidationError("invalid payload: trailing data")
	}
	return nil
}
