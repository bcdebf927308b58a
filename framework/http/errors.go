package http

import (
	"errors"
	"net/http"

	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/http/validation"
)

// HTTPError is an error carrying the status it should be rendered with.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string { return e.Message }

// Abort returns an *HTTPError; the message defaults to the status text.
//
//	return nil, gohttp.Abort(http.StatusNotFound, "user not found")
func Abort(status int, message ...string) *HTTPError {
	msg := http.StatusText(status)
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	return &HTTPError{Status: status, Message: msg}
}

// StatusOf maps err to the status it renders with.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	var ve *validation.Errors
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity
	}
	var guard *core.GuardRejectionError
	if errors.As(err, &guard) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
