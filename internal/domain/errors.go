package domain

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to API callers.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeAuthentication     = "AUTHENTICATION_FAILED"
	CodeInsufficientCredit = "INSUFFICIENT_CREDIT"
	CodeDuplicateEvent     = "DUPLICATE_EVENT"
	CodeProviderDisabled   = "PROVIDER_DISABLED"
	CodeNoMatch            = "NO_MATCH"
	CodeNotFound           = "NOT_FOUND"
	CodeEnqueue            = "ENQUEUE_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

// ErrNoJobAvailable is returned by a claim when no pending job exists.
var ErrNoJobAvailable = errors.New("no job available")

func newError(message string, category goerrors.Category, code int, textCode string) *goerrors.Error {
	return goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
}

// ValidationError reports malformed input.
func ValidationError(message string) error {
	return newError(message, goerrors.CategoryValidation, http.StatusBadRequest, CodeValidation)
}

// AuthenticationError reports a rejected webhook signature or credential.
func AuthenticationError(message string) error {
	return newError(message, goerrors.CategoryAuth, http.StatusUnauthorized, CodeAuthentication)
}

// InsufficientCreditError is returned when a credit reservation is denied.
func InsufficientCreditError(userID string) error {
	err := newError("insufficient credit", goerrors.CategoryOperation, http.StatusPaymentRequired, CodeInsufficientCredit)
	err.WithMetadata(map[string]any{"user_id": userID})
	return err
}

// DuplicateEventError marks an already processed provider event. Callers treat
// it as success.
func DuplicateEventError(eventID string) error {
	err := newError("event already processed", goerrors.CategoryConflict, http.StatusOK, CodeDuplicateEvent)
	err.WithMetadata(map[string]any{"event_id": eventID})
	return err
}

// ProviderDisabledError is returned for jobs whose backing integration is turned off.
func ProviderDisabledError(jobType JobType) error {
	err := newError("provider disabled for "+string(jobType), goerrors.CategoryOperation, http.StatusServiceUnavailable, CodeProviderDisabled)
	err.WithMetadata(map[string]any{"job_type": string(jobType)})
	return err
}

// NoMatchError reports that the matcher found no confident catalog item.
func NoMatchError() error {
	return newError("no matching catalog item", goerrors.CategoryNotFound, http.StatusNotFound, CodeNoMatch)
}

// NotFoundError reports a missing entity.
func NotFoundError(entity string) error {
	return newError(entity+" not found", goerrors.CategoryNotFound, http.StatusNotFound, CodeNotFound)
}

// EnqueueError wraps a failed job insert.
func EnqueueError(source error) error {
	return goerrors.Wrap(source, goerrors.CategoryInternal, "enqueue job").
		WithCode(http.StatusInternalServerError).
		WithTextCode(CodeEnqueue)
}

// HasTextCode reports whether err carries the given text code.
func HasTextCode(err error, textCode string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == textCode
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	return HasTextCode(err, CodeNotFound)
}

// HTTPStatus returns the status code carried by err, or 500.
func HTTPStatus(err error) (int, string) {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code != 0 {
		return rich.Code, rich.TextCode
	}
	return http.StatusInternalServerError, CodeInternal
}
