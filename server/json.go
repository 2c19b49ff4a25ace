package server

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/rs/zerolog/log"

	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("[writeJSON] encode response")
	}
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, errorResponse{Error: errorCode, Message: description}, statusCode)
}

// decodeJSON reads the request body into v, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, "invalid_request", "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeValidationError answers 400 with the first field message as the
// headline and every field message alongside.
func writeValidationError(w http.ResponseWriter, err error) {
	var verr *taskerrors.ValidationError
	if !taskerrors.As(err, &verr) {
		writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}
	keys := make([]string, 0, len(verr.Fields))
	for k := range verr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	writeJSON(w, errorResponse{
		Error:   "invalid_request",
		Message: verr.Fields[keys[0]],
		Fields:  verr.Fields,
	}, http.StatusBadRequest)
}
