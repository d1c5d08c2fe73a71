package apierr

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Envelope is the JSON body written for every failed request.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    any    `json:"message"` // string, or []string for validation failures
	Path       string `json:"path"`
	Timestamp  string `json:"timestamp"`
}

// timestampLayout matches ISO 8601 with millisecond precision in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// NewEnvelope builds the envelope for err as served for path.
func NewEnvelope(err *Error, path string, now time.Time) Envelope {
	var message any = err.Messages
	if len(err.Messages) == 1 {
		message = err.Messages[0]
	}

	status := err.Status()
	return Envelope{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
		Path:       path,
		Timestamp:  now.UTC().Format(timestampLayout),
	}
}

// Write renders err as an error envelope. 5xx errors are logged with their cause,
// everything else at warn level without it.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := From(err)
	envelope := NewEnvelope(apiErr, r.URL.RequestURI(), time.Now())

	logger := zerolog.Ctx(r.Context())
	if apiErr.Status() >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("method", r.Method).Str("path", envelope.Path).Msg("Request failed")
	} else {
		logger.Warn().Int("status", envelope.StatusCode).Interface("message", envelope.Message).
			Str("method", r.Method).Str("path", envelope.Path).Msg("Request rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(envelope.StatusCode)
	_ = json.NewEncoder(w).Encode(envelope)
}
