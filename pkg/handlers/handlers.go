// Package handlers provides JSON response helpers shared by every HTTP handler.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/tollgate/pkg/apperr"
	"github.com/JaimeStill/tollgate/pkg/reqctx"
	"github.com/JaimeStill/tollgate/pkg/result"
)

// ErrInvalidBody classifies request bodies that fail to decode.
var ErrInvalidBody = apperr.BadRequest("InvalidRequestBody", "Invalid request body")

// ErrorBody is the envelope of every non-2xx response.
type ErrorBody struct {
	LogID      string `json:"logId,omitempty"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Name       string `json:"name"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
	Errors     any    `json:"errors,omitempty"`
}

// RespondJSON writes data as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError classifies err, logs it, and writes the error envelope.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := apperr.StatusOf(err)

	body := ErrorBody{
		StatusCode: status,
		Message:    apperr.MessageOf(err),
		Name:       apperr.NameOf(err),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       r.URL.Path,
		Errors:     apperr.DetailsOf(err),
	}

	attrs := []any{"status", status, "path", r.URL.Path, "error", err}
	if rc, ok := reqctx.From(r.Context()); ok {
		body.LogID = rc.LogID.String()
		for _, a := range rc.Attrs() {
			attrs = append(attrs, a)
		}
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		logger.WarnContext(r.Context(), "request rejected", attrs...)
	}

	RespondJSON(w, status, body)
}

// Respond writes the value of a successful Result with status,
// or the error envelope for a failed one.
func Respond[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, res result.Result[T]) {
	v, err := res.Unwrap()
	if err != nil {
		RespondError(w, r, logger, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	RespondJSON(w, status, v)
}

// DecodeJSON decodes the request body into dst. Unknown fields are rejected.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrInvalidBody.WithDetails([]map[string]string{{"message": "request body is empty"}})
		}
		return ErrInvalidBody.WithDetails([]map[string]string{{"message": fmt.Sprint(err)}})
	}
	return nil
}
