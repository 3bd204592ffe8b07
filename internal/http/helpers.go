package http

import (
	"errors"
	"net/http"
	"strings"

	"viaggi/internal/core"
	"viaggi/internal/services"
	"viaggi/internal/session"
)

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	var verr *services.ValidationError
	var reqErr *requestError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &reqErr):
		return reqErr.status
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrDuplicateOrderSlot):
		return http.StatusConflict
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text returned to clients. Internal errors are
// not echoed.
func publicMessage(status int, err error) string {
	if status >= http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
