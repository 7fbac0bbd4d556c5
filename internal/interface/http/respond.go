package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
)

// envelope is the uniform REST response shape.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, envelope{
		Success: status >= 200 && status < 300,
		Data:    data,
		Time:    time.Now().UTC(),
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, envelope{
		Success: false,
		Error:   &apiError{Code: code, Message: message},
		Time:    time.Now().UTC(),
	})
}

// respondDomainErr maps application errors onto HTTP statuses. Internal
// errors return a generic message; everything else carries the domain
// message through.
func respondDomainErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := "an unexpected error occurred"
	if status < http.StatusInternalServerError {
		msg = publicMessage(err)
	}
	respondError(w, r, status, code, msg)
}

func classify(err error) (status int, code string) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, shared.ErrExpired):
		return http.StatusGone, "expired"
	case errors.Is(err, shared.ErrConflict),
		errors.Is(err, shared.ErrStateTransition),
		errors.Is(err, shared.ErrAlreadyExists):
		return http.StatusConflict, "conflict"
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidID),
		errors.Is(err, shared.ErrEmptyValue),
		errors.Is(err, shared.ErrInvalidState):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func publicMessage(err error) string {
	var banned *shared.BannedError
	if errors.As(err, &banned) {
		return banned.Error()
	}
	var throttled *shared.ThrottledError
	if errors.As(err, &throttled) {
		return throttled.Error()
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
