package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the sentinel errors so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return taskerrors.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return taskerrors.ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return taskerrors.ErrNotFound
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusUnprocessableEntity:
		return taskerrors.ErrValidation
	case e.StatusCode >= 500:
		return taskerrors.ErrServer
	}
	return nil
}

// errorBody covers both the backend's {"message": ...} and OAuth style
// {"error": ..., "error_description": ...} payloads.
type errorBody struct {
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func newAPIError(status int, body []byte) *APIError {
	var eb errorBody
	msg := ""
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case eb.Message != "":
			msg = eb.Message
		case eb.ErrorDescription != "":
			msg = eb.ErrorDescription
		case eb.Error != "":
			msg = eb.Error
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

// Message reduces err to the string stored alongside a store slice. fallback is
// used when err carries nothing better than a transport failure.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if taskerrors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var verr *taskerrors.ValidationError
	if taskerrors.As(err, &verr) {
		return verr.Error()
	}
	if taskerrors.Is(err, taskerrors.ErrNoSession) {
		return "No authentication token"
	}
	return fallback
}
